// cmd/cabo/watch.go
package main

import (
	"os"
	"os/signal"
	"strings"

	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/client"
	"github.com/jason-s-yu/cabo/service/internal/store"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// watchCmd follows a room's shared document in the configured store
var watchCmd = &cobra.Command{
	Use:   "watch <room code>",
	Short: "Print a room's table events straight from the store",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if cfg.Store.Driver == "memory" {
			logrus.Warn("the memory store is private to one process; watch needs redis or postgres to see a server's rooms")
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		gw, err := store.Open(ctx, storeOptions(cfg))
		if err != nil {
			return err
		}
		defer gw.Close()

		w, err := client.NewWatcher(gw, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		w.OnState = func(s *engine.GameState) {
			logrus.WithFields(logrus.Fields{
				"round": s.Round,
				"phase": s.Phase,
				"deck":  len(s.Deck),
				"turn":  s.PlayerNames[s.CurrentTurn],
			}).Debug("snapshot")
		}
		w.OnEvent = func(ev engine.Event) {
			logrus.WithFields(logrus.Fields{
				"id":     ev.ID,
				"actor":  ev.ActorName,
				"target": ev.TargetName,
				"card":   ev.CardLabel,
			}).Info(ev.Type)
		}
		return w.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
