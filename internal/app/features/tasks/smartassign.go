// internal/app/features/tasks/smartassign.go
package tasks

import (
	"context"
	"encoding/json"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	taskstore "github.com/dalemusser/kanbanhub/internal/app/store/tasks"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleSmartAssign handles POST /api/rooms/{roomID}/tasks/{id}/smart-assign.
//
// Only an unassigned task qualifies. The pick is the room member with the
// fewest open (non-done) tasks, ties broken by membership order so repeated
// calls with the same board state choose the same person. The write rides
// the normal version gate: the counts are a heuristic, but the assignment
// itself must not clobber an edit the caller hasn't seen.
func (h *Handler) HandleSmartAssign(w http.ResponseWriter, r *http.Request) {
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

	var req smartAssignRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Version == nil {
		respondError(w, http.StatusBadRequest, "version is required")
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
	if len(room.Members) == 0 {
		respondError(w, http.StatusConflict, "room has no members to assign")
		return
	}

	current, err := h.Tasks.GetByID(ctx, taskID)
	if err != nil {
		if err == taskstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "task not found")
			return
		}
		h.Log.Error("task lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if current.AssignedUser != nil {
		respondError(w, http.StatusConflict, "task is already assigned")
		return
	}

	assignee, err := h.pickAssignee(ctx, roomID, room.Members)
	if err != nil {
		h.Log.Error("smart assign count failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	task, err := h.Tasks.ConditionalUpdate(ctx, taskID, *req.Version, bson.M{"assigned_user": assignee})
	if err != nil {
		h.respondUpdateFailure(ctx, w, err, updateRequest{Version: req.Version})
		return
	}

	ref := h.resolveAssignee(ctx, &assignee)
	entry := h.Activity.TaskUpdated(ctx, roomID, user.Name, task.Title, "assignedUser")
	h.Metrics.Mutation(models.ActionUpdate, false)

	body := updateResponse{
		ID: task.ID.Hex(),
		Changes: map[string]any{
			"assignedUser": ref,
			"version":      task.Version,
		},
		Log: entry,
	}
	h.Fanout.Broadcast(roomID.Hex(), r.Header.Get(connectionIDHeader), realtime.Event{
		Type:    realtime.EventTaskUpdated,
		Payload: body,
	})
	respondJSON(w, http.StatusOK, body)
}

// pickAssignee returns the member with the fewest open tasks. Iteration
// follows membership order, and only a strictly lower count displaces the
// current pick, which makes the choice deterministic for a given board.
func (h *Handler) pickAssignee(ctx context.Context, roomID primitive.ObjectID, members []primitive.ObjectID) (primitive.ObjectID, error) {
	best := members[0]
	bestCount := int64(-1)
	for _, m := range members {
		n, err := h.Tasks.CountOpenByAssignee(ctx, roomID, m)
		if err != nil {
			return primitive.ObjectID{}, err
		}
		if bestCount < 0 || n < bestCount {
			best = m
			bestCount = n
		}
	}
	return best, nil
}
