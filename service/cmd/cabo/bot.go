// cmd/cabo/bot.go
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/service/internal/client"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	botServer string
	botRoom   string
	botPlayer string
	botNew    string
	botCaboAt int
)

// botCmd plays seats with the built-in bot
var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Play one seat, or a whole new room, with bots",
	Long: `Play an existing seat:

  cabo bot --room ABCD --player <seat id>

or open a room and fill every seat with a bot:

  cabo bot --new Ann,Bob,Cy`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := loadConfig(); err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		seats := map[uuid.UUID]string{}
		code := botRoom
		switch {
		case botNew != "":
			nr, err := client.CreateRoom(ctx, botServer, strings.Split(botNew, ","))
			if err != nil {
				return err
			}
			code = nr.Code
			for _, s := range nr.Players {
				seats[s.ID] = s.Name
			}
			fmt.Println(code)
		case botRoom != "" && botPlayer != "":
			id, err := uuid.Parse(botPlayer)
			if err != nil {
				return fmt.Errorf("player: %w", err)
			}
			seats[id] = id.String()
		default:
			return errors.New("either --new or both --room and --player are required")
		}

		g, ctx := errgroup.WithContext(ctx)
		for id, name := range seats {
			g.Go(func() error { return playSeat(ctx, code, id, name) })
		}
		return g.Wait()
	},
}

func init() {
	botCmd.Flags().StringVarP(&botServer, "server", "s", "http://localhost:8080", "server base URL")
	botCmd.Flags().StringVarP(&botRoom, "room", "r", "", "room code to join")
	botCmd.Flags().StringVarP(&botPlayer, "player", "p", "", "seat id to play")
	botCmd.Flags().StringVarP(&botNew, "new", "n", "", "comma-separated names; opens a room with a bot in every seat")
	botCmd.Flags().IntVar(&botCaboAt, "cabo-at", 5, "call CABO once the whole hand is known and totals at most this")
	rootCmd.AddCommand(botCmd)
}

func playSeat(ctx context.Context, code string, id uuid.UUID, name string) error {
	conn, err := client.Dial(ctx, botServer, code, id)
	if err != nil {
		return err
	}
	defer conn.Close()

	b := client.NewBot(conn, id)
	b.CaboAt = botCaboAt
	err = b.Run(ctx)
	if errors.Is(err, client.ErrGameOver) {
		logrus.WithField("room", code).WithField("bot", name).Info("game over")
		return nil
	}
	return err
}
