package handlers

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes mounts the comparison endpoints on a router.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/compare", h.HandleCompare)
}
