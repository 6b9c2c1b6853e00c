package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the optimization endpoints on a router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/optimize", h.HandleOptimize)
	r.Post("/frontier", h.HandleFrontier)
}
