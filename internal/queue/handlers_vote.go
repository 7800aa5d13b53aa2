package queue

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleVote casts or replaces the caller's vote on a pending item.
// POST /rooms/{id}/items/{itemId}/vote
func (s *Server) handleVote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, ErrUnauthenticated, "missing user context")
		return
	}

	roomID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	var body struct {
		Direction Direction `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, ErrInvalidReference, "invalid JSON body")
		return
	}

	score, err := s.svc.Vote(ctx, roomID, userID, itemID, body.Direction)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": score})
}

// handleUnvote withdraws the caller's vote; withdrawing twice is fine.
// DELETE /rooms/{id}/items/{itemId}/vote
func (s *Server) handleUnvote(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := r.Header.Get("X-User-Id")
	if userID == "" {
		writeError(w, http.StatusUnauthorized, ErrUnauthenticated, "missing user context")
		return
	}

	roomID := chi.URLParam(r, "id")
	itemID := chi.URLParam(r, "itemId")

	score, err := s.svc.Unvote(ctx, roomID, userID, itemID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"score": score})
}
