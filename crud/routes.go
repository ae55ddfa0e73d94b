package crud

import (
	"errors"
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/sessions"

	"github.com/syssam/saint/admin"
)

// SetupRoutes mounts the routes of every controller of the registry at
// the controller URL. The registry must be booted.
func SetupRoutes(
	router chi.Router,
	reg *admin.Registry,
	sessionStore sessions.Store,
	logger *slog.Logger,
) error {
	if !reg.Booted() {
		return errors.New("crud: registry is not booted")
	}
	for _, c := range reg.Controllers() {
		handlers := NewHandlers(c, sessionStore, logger)
		router.Route(c.URL(), handlers.Routes)
	}
	return nil
}

// Routes registers the routes of the controller on r.
func (h *Handlers) Routes(r chi.Router) {
	r.Use(h.Prepare)

	// Rows
	r.Get("/", h.Summary)
	r.Get("/new", h.New)
	r.Get("/{id}", h.Edit)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Post("/delete", h.DeleteMany)

	// Associations
	r.Get("/{id}/assoc/{assoc}", h.Remote)
	r.Post("/{id}/assoc/{assoc}/{remote}", h.Attach)
	r.Delete("/{id}/assoc/{assoc}/{remote}", h.Detach)
}
