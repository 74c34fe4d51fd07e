// internal/app/features/rooms/delete.go
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

// HandleDelete handles DELETE /api/rooms/{roomID}. Creator only. The room
// document goes first so the room stops resolving immediately; the task
// and log cascade follows best-effort, with failures logged rather than
// failing the request.
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
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

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Long())
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
	if room.CreatedBy != user.ID {
		respondError(w, http.StatusForbidden, "only the room creator can delete the room")
		return
	}

	if err := h.Rooms.Delete(ctx, roomID); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tasksGone, err := h.Tasks.DeleteByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("task cascade failed", zap.Error(err), zap.String("room_id", roomID.Hex()))
	}
	logsGone, err := h.Logs.DeleteByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("log cascade failed", zap.Error(err), zap.String("room_id", roomID.Hex()))
	}
	h.Log.Info("room deleted",
		zap.String("room_id", roomID.Hex()),
		zap.Int64("tasks_removed", tasksGone),
		zap.Int64("logs_removed", logsGone),
	)

	respondJSON(w, http.StatusOK, map[string]string{"id": roomID.Hex()})
}
