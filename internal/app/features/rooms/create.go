// internal/app/features/rooms/create.go
package rooms

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/sanitize"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/rooms. The creator is always the first
// member.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	name := sanitize.Text(req.Name)
	if name == "" {
		respondError(w, http.StatusBadRequest, "room name is required")
		return
	}
	if len([]rune(name)) > maxNameLen {
		respondError(w, http.StatusBadRequest, "room name is too long (max 50 characters)")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	room, err := h.Rooms.Create(ctx, models.Room{
		Name:      name,
		CreatedBy: user.ID,
	})
	if err != nil {
		h.Log.Error("room create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{"room": newRoomView(room)})
}
