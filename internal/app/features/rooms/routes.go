// internal/app/features/rooms/routes.go
package rooms

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Routes mounts the room endpoints. taskRoutes is nested under
// /{roomID}/tasks so task handlers see the roomID URL parameter.
func Routes(h *Handler, taskRoutes http.Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/", h.HandleList)
	r.Post("/", h.HandleCreate)
	r.Get("/{roomID}", h.HandleGet)
	r.Patch("/{roomID}", h.HandleRename)
	r.Post("/{roomID}/leave", h.HandleLeave)
	r.Delete("/{roomID}", h.HandleDelete)
	r.Mount("/{roomID}/tasks", taskRoutes)

	return r
}
