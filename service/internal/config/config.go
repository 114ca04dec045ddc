// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jason-s-yu/cabo/engine"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
)

// Config holds server settings. Every field can be set from a CABO_* variable,
// e.g. CABO_STORE_DRIVER=redis or CABO_RULES_CLAIM_WINDOW=3s.
type Config struct {
	Addr string `envconfig:"addr" default:":8080"`

	// RoomIdleTimeout closes rooms nobody connects to. Negative disables it.
	RoomIdleTimeout time.Duration `envconfig:"room_idle_timeout" default:"10m"`

	Log struct {
		Level             string `envconfig:"level" default:"info"`
		Format            string `envconfig:"format" default:"text"`
		DisableAccessLogs bool   `envconfig:"disable_access_logs"`
	}

	Store struct {
		Driver        string `envconfig:"driver" default:"memory"`
		RedisAddr     string `envconfig:"redis_addr" default:"localhost:6379"`
		RedisPassword string `envconfig:"redis_password"`
		RedisDB       int    `envconfig:"redis_db"`
		PostgresDSN   string `envconfig:"postgres_dsn"`
	}

	Historian struct {
		Enabled   bool          `envconfig:"enabled"`
		RedisAddr string        `envconfig:"redis_addr" default:"localhost:6379"`
		TTL       time.Duration `envconfig:"ttl" default:"24h"`
	}

	Rules struct {
		HandSize    int           `envconfig:"hand_size" default:"4"`
		NumJokers   int           `envconfig:"num_jokers" default:"0"`
		ClaimWindow time.Duration `envconfig:"claim_window" default:"5s"`
		RevealDelay time.Duration `envconfig:"reveal_delay" default:"3s"`
		PeekTimeout time.Duration `envconfig:"peek_timeout" default:"0s"`
		TargetScore int           `envconfig:"target_score" default:"100"`
		CaboPenalty int           `envconfig:"cabo_penalty" default:"10"`
		LogCap      int           `envconfig:"log_cap" default:"25"`
	}
}

// Load reads an optional .env file and then the CABO_* environment.
// A missing .env is fine; a malformed one is not.
func Load(envFiles ...string) (Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := envconfig.Process("cabo", &cfg); err != nil {
		return Config{}, err
	}
	switch cfg.Store.Driver {
	case "memory", "redis", "postgres":
	default:
		return Config{}, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
	return cfg, nil
}

// HouseRules converts the rules section for the engine.
func (c Config) HouseRules() engine.HouseRules {
	return engine.HouseRules{
		HandSize:    c.Rules.HandSize,
		NumJokers:   c.Rules.NumJokers,
		ClaimWindow: c.Rules.ClaimWindow,
		RevealDelay: c.Rules.RevealDelay,
		PeekTimeout: c.Rules.PeekTimeout,
		TargetScore: c.Rules.TargetScore,
		CaboPenalty: c.Rules.CaboPenalty,
		LogCap:      c.Rules.LogCap,
	}
}

// SetupLogger applies the log level and format.
func (c Config) SetupLogger() error {
	if c.Log.Level != "" {
		level, err := logrus.ParseLevel(c.Log.Level)
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
	}
	if strings.EqualFold(c.Log.Format, "json") {
		logrus.SetFormatter(&logrus.JSONFormatter{})
	}
	return nil
}
