// internal/server/rooms.go
package server

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	gmux "github.com/gorilla/mux"
	"github.com/jason-s-yu/cabo/engine"
	"github.com/jason-s-yu/cabo/service/internal/room"
)

type postRoomsRequest struct {
	Players []string `json:"players"`
}

type seatResponse struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

type postRoomsResponse struct {
	Code    string         `json:"code"`
	Players []seatResponse `json:"players"`
}

func (s *Server) postRooms() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req postRoomsRequest
		if !decodeRequest(w, r, &req) {
			return
		}

		rm, err := s.pitBoss.CreateRoom(r.Context(), req.Players)
		if err != nil {
			if errors.Is(err, room.ErrEmptyName) ||
				errors.Is(err, engine.ErrNotEnoughPlayers) ||
				errors.Is(err, engine.ErrTooManyPlayers) {
				writeJSONError(w, http.StatusBadRequest, err)
				return
			}
			writeJSONError(w, http.StatusInternalServerError, err)
			return
		}

		resp := postRoomsResponse{Code: rm.Code}
		for _, p := range rm.Players {
			resp.Players = append(resp.Players, seatResponse{ID: p.ID, Name: p.Name})
		}
		writeJSON(w, http.StatusCreated, resp)
	}
}

// roomFromRequest looks up the room named in the path, answering 404 if it
// is not open.
func (s *Server) roomFromRequest(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	rm, ok := s.pitBoss.Room(gmux.Vars(r)["code"])
	if !ok {
		writeJSONError(w, http.StatusNotFound, nil)
		return nil, false
	}
	return rm, true
}

func (s *Server) getRoom() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rm, ok := s.roomFromRequest(w, r)
		if !ok {
			return
		}
		info, err := rm.Info()
		if err != nil {
			// the room closed while we were looking at it
			writeJSONError(w, http.StatusNotFound, nil)
			return
		}
		writeJSON(w, http.StatusOK, info)
	}
}
