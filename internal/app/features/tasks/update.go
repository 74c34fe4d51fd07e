// internal/app/features/tasks/update.go
package tasks

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	taskstore "github.com/dalemusser/kanbanhub/internal/app/store/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/sanitize"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// validatedChanges is the outcome of validating an update request: the
// bson changes to apply, the wire-facing diff to report, and the field
// names touched (for the activity entry).
type validatedChanges struct {
	set    bson.M
	diff   map[string]any
	fields []string
}

// validateUpdate sanitizes and checks every supplied field. It runs before
// any write, so an invalid request fails fast without consuming a version
// check or mutating anything.
func validateUpdate(req updateRequest) (validatedChanges, string) {
	vc := validatedChanges{set: bson.M{}, diff: map[string]any{}}

	if req.Title != nil {
		title := sanitize.Text(*req.Title)
		if title == "" {
			return vc, "task title cannot be empty"
		}
		if len([]rune(title)) > maxTitleLen {
			return vc, "task title is too long (max 200 characters)"
		}
		vc.set["title"] = title
		vc.diff["title"] = title
		vc.fields = append(vc.fields, "title")
	}
	if req.Description != nil {
		description := sanitize.Text(*req.Description)
		if len([]rune(description)) > maxDescriptionLen {
			return vc, "task description is too long (max 500 characters)"
		}
		vc.set["description"] = description
		vc.diff["description"] = description
		vc.fields = append(vc.fields, "description")
	}
	if req.AssignedUser.Set {
		vc.set["assigned_user"] = req.AssignedUser.ID
		vc.diff["assignedUser"] = req.AssignedUser.ID // resolved after commit
		vc.fields = append(vc.fields, "assignedUser")
	}
	if req.Priority != nil {
		if !models.IsValidPriority(*req.Priority) {
			return vc, "invalid priority"
		}
		vc.set["priority"] = *req.Priority
		vc.diff["priority"] = *req.Priority
		vc.fields = append(vc.fields, "priority")
	}
	if req.Status != nil {
		if !models.IsValidStatus(*req.Status) {
			return vc, "invalid status"
		}
		vc.set["status"] = *req.Status
		vc.diff["status"] = *req.Status
		vc.fields = append(vc.fields, "status")
	}
	return vc, ""
}

// HandleUpdate handles PATCH /api/rooms/{roomID}/tasks/{id}.
//
// Unless force is set, the request must carry the client's last-known
// version, and the store applies the changes only if it still matches;
// check and increment are one atomic write. A mismatch is a 409 carrying
// the authoritative task and the client's attempted fields, and nothing
// is logged or broadcast for it. force skips the check entirely (the
// overwrite resolution) but still bumps the version.
func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
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

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Version == nil && !req.Force {
		// Guessing a version here would defeat the lock; reject instead.
		respondError(w, http.StatusBadRequest, "version is required")
		return
	}

	vc, problem := validateUpdate(req)
	if problem != "" {
		respondError(w, http.StatusBadRequest, problem)
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

	var task models.Task
	if req.Force {
		task, err = h.Tasks.ForceUpdate(ctx, taskID, vc.set)
	} else {
		task, err = h.Tasks.ConditionalUpdate(ctx, taskID, *req.Version, vc.set)
	}
	if err != nil {
		h.respondUpdateFailure(ctx, w, err, req)
		return
	}

	vc.diff["version"] = task.Version
	if req.AssignedUser.Set {
		var ref *models.UserRef
		if req.AssignedUser.ID != nil {
			ref = h.resolveAssignee(ctx, req.AssignedUser.ID)
		}
		vc.diff["assignedUser"] = ref
	}

	entry := h.Activity.TaskUpdated(ctx, roomID, user.Name, task.Title, strings.Join(vc.fields, ", "))
	h.Metrics.Mutation(models.ActionUpdate, req.Force)

	body := updateResponse{
		ID:      task.ID.Hex(),
		Changes: vc.diff,
		Log:     entry,
	}
	h.Fanout.Broadcast(roomID.Hex(), r.Header.Get(connectionIDHeader), realtime.Event{
		Type:    realtime.EventTaskUpdated,
		Payload: body,
	})
	respondJSON(w, http.StatusOK, body)
}

// respondUpdateFailure maps a failed conditional/force update to the error
// taxonomy: 409 with reconciliation payload for a version conflict, 404
// for a missing task, 500 otherwise.
func (h *Handler) respondUpdateFailure(ctx context.Context, w http.ResponseWriter, err error, req updateRequest) {
	if vcErr, ok := taskstore.AsVersionConflict(err); ok {
		h.Metrics.Conflict()

		clientTask := map[string]any{}
		if req.Title != nil {
			clientTask["title"] = *req.Title
		}
		if req.Description != nil {
			clientTask["description"] = *req.Description
		}
		if req.AssignedUser.Set {
			clientTask["assignedUser"] = req.AssignedUser.ID
		}
		if req.Priority != nil {
			clientTask["priority"] = *req.Priority
		}
		if req.Status != nil {
			clientTask["status"] = *req.Status
		}
		if req.Version != nil {
			clientTask["version"] = *req.Version
		}

		respondJSON(w, http.StatusConflict, conflictResponse{
			Message:    "conflict detected",
			ServerTask: newTaskView(vcErr.Current, h.resolveAssignee(ctx, vcErr.Current.AssignedUser)),
			ClientTask: clientTask,
		})
		return
	}
	if err == taskstore.ErrNotFound {
		respondError(w, http.StatusNotFound, "task not found")
		return
	}
	h.Log.Error("task update failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}
