// internal/app/features/tasks/delete.go
package tasks

import (
	"context"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	taskstore "github.com/dalemusser/kanbanhub/internal/app/store/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleDelete handles DELETE /api/rooms/{roomID}/tasks/{id}. Deletion is
// not version-gated; removing a task wins over concurrent edits.
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
	taskID, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid task id")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	// Fetch first so the activity entry can name the task it removed.
	task, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == taskstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("task lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if err := h.Tasks.Delete(ctx, taskID); err != nil {
		if err == taskstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("task delete failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entry := h.Activity.TaskDeleted(ctx, roomID, user.Name, task.Title)
	h.Metrics.Mutation(models.ActionDelete, false)

	body := deleteResponse{
		ID:  taskID.Hex(),
		Log: entry,
	}
	h.Fanout.Broadcast(roomID.Hex(), r.Header.Get(connectionIDHeader), realtime.Event{
		Type:    realtime.EventTaskDeleted,
		Payload: body,
	})
	respondJSON(w, http.StatusOK, body)
}
