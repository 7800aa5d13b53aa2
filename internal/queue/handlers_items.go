package queue

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleSubmitItem adds a video to the room's queue.
// POST /rooms/{id}/items
func (s *Server) handleSubmitItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	roomID := chi.URLParam(r, "id")

	var body struct {
		URL string `json:"url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidReference, "invalid JSON body")
		return
	}
	body.URL = strings.TrimSpace(body.URL)
	if body.URL == "" {
		writeError(w, http.StatusBadRequest, ErrInvalidReference, "url is required")
		return
	}

	it, err := s.svc.SubmitItem(ctx, roomID, userID, body.URL)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, it)
}

// handleRemoveItem drops a pending submission. Creator only.
// DELETE /rooms/{id}/items/{itemId}
func (s *Server) handleRemoveItem(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	roomID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	if err := s.svc.RemoveItem(ctx, roomID, userID, itemID); err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "removed"})
}

// handleGetQueue returns the room snapshot: nowPlaying plus the ranked
// pending queue. Anonymous callers get haveVoted=false everywhere.
// GET /rooms/{id}/queue
func (s *Server) handleGetQueue(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	roomID := chi.URLParam(r, "id")

	state, err := s.svc.GetState(ctx, roomID, userID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, state)
}
