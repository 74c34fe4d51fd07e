// internal/app/features/tasks/routes.go
package tasks

import (
	"github.com/go-chi/chi/v5"
)

// Routes mounts the task endpoints. The parent router supplies the
// {roomID} URL parameter and the signed-in guard.
func Routes(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Patch("/{id}", h.HandleUpdate)
	r.Delete("/{id}", h.HandleDelete)
	r.Post("/{id}/smart-assign", h.HandleSmartAssign)

	return r
}
