package queue

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

type Server struct {
	svc *Service
}

func NewServer(svc *Service) *Server {
	return &Server{svc: svc}
}

func (s *Server) Router(middlewares ...func(http.Handler) http.Handler) chi.Router {
	r := chi.NewRouter()

	for _, mw := range middlewares {
		r.Use(mw)
	}

	r.Get("/health", s.handleHealth)

	r.Get("/rooms/{id}/queue", s.handleGetQueue)
	r.Post("/rooms/{id}/items", s.handleSubmitItem)
	r.Delete("/rooms/{id}/items/{itemId}", s.handleRemoveItem)
	r.Post("/rooms/{id}/items/{itemId}/vote", s.handleVote)
	r.Delete("/rooms/{id}/items/{itemId}/vote", s.handleUnvote)
	r.Post("/rooms/{id}/next", s.handleAdvance)

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": "stream-queue-service",
	})
}
