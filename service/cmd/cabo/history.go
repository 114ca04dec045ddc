// cmd/cabo/history.go
package main

import (
	"errors"
	"strings"
	"time"

	"github.com/jason-s-yu/cabo/service/internal/historian"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// historyCmd dumps the action log of a room
var historyCmd = &cobra.Command{
	Use:   "history <room code>",
	Short: "Print the recorded actions of a room",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.Historian.Enabled {
			return errors.New("the historian is disabled (set CABO_HISTORIAN_ENABLED=true)")
		}
		rdb := redis.NewClient(&redis.Options{Addr: cfg.Historian.RedisAddr})
		defer rdb.Close()

		recs, err := historian.NewRedisPublisher(rdb, cfg.Historian.TTL).History(cmd.Context(), strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		for _, rec := range recs {
			logrus.WithFields(logrus.Fields{
				"round": rec.Round,
				"index": rec.ActionIndex,
				"actor": rec.ActorUserID,
				"at":    time.UnixMilli(rec.Timestamp).Format(time.RFC3339),
			}).WithFields(logrus.Fields(rec.ActionPayload)).Info(rec.ActionType)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)
}
