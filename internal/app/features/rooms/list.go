// internal/app/features/rooms/list.go
package rooms

import (
	"context"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"go.uber.org/zap"
)

// HandleList handles GET /api/rooms: the caller's rooms, newest first.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	found, err := h.Rooms.FindByMember(ctx, user.ID)
	if err != nil {
		h.Log.Error("room list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views := make([]roomView, 0, len(found))
	for _, room := range found {
		views = append(views, newRoomView(room))
	}
	respondJSON(w, http.StatusOK, map[string]any{"rooms": views})
}
