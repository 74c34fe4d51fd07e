// internal/app/features/rooms/leave.go
package rooms

import (
	"context"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleLeave handles POST /api/rooms/{roomID}/leave. The creator cannot
// leave; they delete the room instead.
func (h *Handler) HandleLeave(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.CurrentUser(r)
	if !ok {
		respondError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	roomID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "roomID"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid room id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	room, err := h.Rooms.GetByID(ctx, roomID)
	if err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if room.CreatedBy == user.ID {
		respondError(w, http.StatusForbidden, "the room creator cannot leave; delete the room instead")
		return
	}

	if err := h.Rooms.RemoveMember(ctx, roomID, user.ID); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room leave failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"id": roomID.Hex()})
}
