package queue

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleAdvance promotes the queue head to now playing. Creator only.
// POST /rooms/{id}/next
func (s *Server) handleAdvance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, ErrUnauthenticated, "missing user context")
		return
	}

	roomID := chi.URLParam(r, "id")

	next, err := s.svc.AdvancePlayback(ctx, roomID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	resp := map[string]any{"nowPlaying": nil}
	if next != nil {
		v := viewOf(*next, false)
		resp["nowPlaying"] = v
	}
	writeJSON(w, http.StatusOK, resp)
}
