// cmd/cabo/serve.go
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/handlers"
	"github.com/jason-s-yu/cabo/service/internal/config"
	"github.com/jason-s-yu/cabo/service/internal/historian"
	"github.com/jason-s-yu/cabo/service/internal/room"
	"github.com/jason-s-yu/cabo/service/internal/server"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const readTimeout = time.Second * 5
const shutdownTimeout = time.Second * 10

var serveAddr string

// serveCmd runs the game server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the game server",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if serveAddr != "" {
			cfg.Addr = serveAddr
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return serve(ctx, cfg)
	},
}

func init() {
	serveCmd.Flags().StringVarP(&serveAddr, "addr", "a", "", "listen address (overrides CABO_ADDR)")
	rootCmd.AddCommand(serveCmd)
}

func serve(ctx context.Context, cfg config.Config) error {
	gw, err := store.Open(ctx, storeOptions(cfg))
	if err != nil {
		return err
	}
	defer gw.Close()

	hist, closeHist, err := openHistorian(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeHist()

	pitBoss := room.NewPitBoss(room.Options{
		Rules:       cfg.HouseRules(),
		Gateway:     gw,
		Historian:   hist,
		IdleTimeout: cfg.RoomIdleTimeout,
	})
	defer pitBoss.Shutdown()

	c := cors.New(cors.Options{
		AllowedHeaders: []string{"Origin", "Accept", "Content-Type", "X-Requested-With"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           loggingHandler(cfg, c.Handler(server.New(Version, pitBoss))),
		ReadHeaderTimeout: readTimeout,
	}

	errc := make(chan error, 1)
	go func() {
		logrus.WithField("addr", srv.Addr).WithField("store", cfg.Store.Driver).Info("listening")
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	logrus.Info("shutting down")
	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func openHistorian(ctx context.Context, cfg config.Config) (historian.Publisher, func(), error) {
	if !cfg.Historian.Enabled {
		return historian.Nop{}, func() {}, nil
	}
	rdb := redis.NewClient(&redis.Options{Addr: cfg.Historian.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, err
	}
	return historian.NewRedisPublisher(rdb, cfg.Historian.TTL), func() { _ = rdb.Close() }, nil
}

func loggingHandler(cfg config.Config, next http.Handler) http.Handler {
	if cfg.Log.DisableAccessLogs {
		return next
	}

	return handlers.CombinedLoggingHandler(os.Stdout, next)
}
