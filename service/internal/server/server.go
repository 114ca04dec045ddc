// internal/server/server.go
package server

import (
	"net/http"

	gmux "github.com/gorilla/mux"
	"github.com/jason-s-yu/cabo/service/internal/room"
)

// Server handles HTTP requests for rooms and their websockets.
type Server struct {
	*gmux.Router
	version string
	pitBoss *room.PitBoss
}

// New returns a router serving rooms held by pitBoss.
func New(version string, pitBoss *room.PitBoss) *Server {
	s := &Server{
		Router:  gmux.NewRouter(),
		version: version,
		pitBoss: pitBoss,
	}

	r := s.Router
	r.Methods(http.MethodGet).Path("/health").Handler(s.getHealth())
	r.Methods(http.MethodPost).Path("/rooms").Handler(s.postRooms())

	r.Methods(http.MethodGet).Path("/rooms/{code:[A-Za-z]{4}}").Handler(s.getRoom())
	r.Methods(http.MethodGet).Path("/rooms/{code:[A-Za-z]{4}}/ws").Handler(s.getRoomWS())

	return s
}
