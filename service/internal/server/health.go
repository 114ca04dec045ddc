// internal/server/health.go
package server

import "net/http"

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
	Rooms   int    `json:"rooms"`
}

func (s *Server) getHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{
			Status:  "OK",
			Version: s.version,
			Rooms:   s.pitBoss.RoomCount(),
		})
	}
}
