// cmd/cabo/root.go
package main

import (
	"context"
	"os"

	"github.com/jason-s-yu/cabo/service/internal/config"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// Version is the server version
var Version = "v0.0.0-dev"

var envFile string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:          "cabo",
	Short:        "Cabo card game server and tools",
	SilenceUsage: true,
}

// Execute runs the command line.
func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envFile, "env", ".env", "optional .env file to load before the environment")
}

// loadConfig reads the configuration and applies the log settings.
func loadConfig() (config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return cfg, err
	}
	if err := cfg.SetupLogger(); err != nil {
		return cfg, err
	}
	logrus.WithField("store", cfg.Store.Driver).Debug("configuration loaded")
	return cfg, nil
}

func storeOptions(cfg config.Config) store.Options {
	return store.Options{
		Driver:        cfg.Store.Driver,
		RedisAddr:     cfg.Store.RedisAddr,
		RedisPassword: cfg.Store.RedisPassword,
		RedisDB:       cfg.Store.RedisDB,
		PostgresDSN:   cfg.Store.PostgresDSN,
	}
}
