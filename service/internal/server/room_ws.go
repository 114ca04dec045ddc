// internal/server/room_ws.go
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/jason-s-yu/cabo/service/internal/models"
	"github.com/jason-s-yu/cabo/service/internal/room"
	"github.com/sirupsen/logrus"
)

const writeWait = time.Second * 10
const pingPeriod = time.Second * 50

// getRoomWS upgrades a seated player's request to a websocket. The player is
// named by the player query parameter.
func (s *Server) getRoomWS() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := s.roomFromRequest(w, r)
		if !ok {
			return
		}
		playerID, err := uuid.Parse(r.URL.Query().Get("player"))
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, errors.New("player must be a seat id"))
			return
		}
		if !rm.Seated(playerID) {
			writeJSONError(w, http.StatusForbidden, room.ErrNotSeated)
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			logrus.WithError(err).Error("could not upgrade connection")
			return
		}
		defer conn.CloseNow()

		client, err := s.pitBoss.ClientConnected(rm.Code, playerID)
		if err != nil {
			_ = conn.Close(websocket.StatusPolicyViolation, err.Error())
			return
		}

		ctx, cancel := context.WithCancel(r.Context())
		defer func() {
			cancel()
			s.pitBoss.ClientDisconnected(client)
		}()

		go webSocketWriteLoop(ctx, conn, client, cancel)
		webSocketReadLoop(ctx, conn, client)
	}
}

func webSocketWriteLoop(ctx context.Context, conn *websocket.Conn, client *room.Client, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
	}()

	write := func(v interface{}) error {
		wctx, done := context.WithTimeout(ctx, writeWait)
		defer done()
		return wsjson.Write(wctx, conn, v)
	}

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			pctx, done := context.WithTimeout(ctx, writeWait)
			err := conn.Ping(pctx)
			done()
			if err != nil {
				return
			}
		case reason := <-client.Close:
			_ = conn.Close(websocket.StatusNormalClosure, reason)
			return
		case msg := <-client.SendChan():
			logrus.WithField("client", client.String()).WithField("type", msg.Type).Trace("sending message to client")
			if err := write(msg); err != nil {
				logrus.WithError(err).WithField("client", client.String()).Error("could not write message")
				return
			}
		}
	}
}

func webSocketReadLoop(ctx context.Context, conn *websocket.Conn, client *room.Client) {
	for {
		_, b, err := conn.Read(ctx)
		if err != nil {
			switch websocket.CloseStatus(err) {
			case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			default:
				if ctx.Err() == nil {
					logrus.WithError(err).WithField("client", client.String()).Debug("could not read message")
				}
			}
			return
		}

		var msg models.GameAction
		if err := json.Unmarshal(b, &msg); err != nil {
			logrus.WithError(err).WithField("client", client.String()).Debug("ignoring malformed message")
			continue
		}

		client.ReceivedMessage(msg)
	}
}
