// internal/app/features/tasks/create.go
package tasks

import (
	"context"
	"encoding/json"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/sanitize"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleCreate handles POST /api/rooms/{roomID}/tasks.
//
// Validation runs before any write. On success the new task (version 1,
// assignee resolved) and its log entry go back to the caller directly and
// out to everyone else in the room as task:created.
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
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

	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	title := sanitize.Text(req.Title)
	if title == "" {
		respondError(w, http.StatusBadRequest, "task title is required")
		return
	}
	if len([]rune(title)) > maxTitleLen {
		respondError(w, http.StatusBadRequest, "task title is too long (max 200 characters)")
		return
	}
	description := sanitize.Text(req.Description)
	if len([]rune(description)) > maxDescriptionLen {
		respondError(w, http.StatusBadRequest, "task description is too long (max 500 characters)")
		return
	}
	if req.Priority != "" && !models.IsValidPriority(req.Priority) {
		respondError(w, http.StatusBadRequest, "invalid priority")
		return
	}
	if req.Status != "" && !models.IsValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "invalid status")
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

	task, err := h.Tasks.Create(ctx, models.Task{
		RoomID:       roomID,
		Title:        title,
		Description:  description,
		AssignedUser: req.AssignedUser.ID,
		Priority:     req.Priority,
		Status:       req.Status,
	})
	if err != nil {
		h.Log.Error("task create failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	entry := h.Activity.TaskCreated(ctx, roomID, user.Name, task.Title)
	h.Metrics.Mutation(models.ActionCreate, false)

	body := createResponse{
		Task: newTaskView(task, h.resolveAssignee(ctx, task.AssignedUser)),
		Log:  entry,
	}
	h.Fanout.Broadcast(roomID.Hex(), r.Header.Get(connectionIDHeader), realtime.Event{
		Type:    realtime.EventTaskCreated,
		Payload: body,
	})
	respondJSON(w, http.StatusCreated, body)
}
