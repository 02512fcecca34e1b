package server

import (
	"net/http"
)

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	NotFoundError(w)
}

func methodNotAllowedHandler(w http.ResponseWriter, r *http.Request) {
	MethodNotAllowedError(w)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			log.Error().Err(err).Msg("Health check failed")
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
