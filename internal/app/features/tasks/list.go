// internal/app/features/tasks/list.go
package tasks

import (
	"context"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	"github.com/dalemusser/kanbanhub/internal/app/system/auth"
	"github.com/dalemusser/kanbanhub/internal/app/system/timeouts"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// HandleList handles GET /api/rooms/{roomID}/tasks, returning every task
// in the room with assignees resolved in one batch lookup.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := auth.CurrentUser(r); !ok {
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

	if _, err := h.Rooms.GetByID(ctx, roomID); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room lookup failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	tasks, err := h.Tasks.FindByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("task list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	views, err := h.taskViews(ctx, tasks)
	if err != nil {
		h.Log.Error("assignee resolution failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{"tasks": views})
}

// taskViews converts store tasks to wire views, resolving every distinct
// assignee with a single batched lookup.
func (h *Handler) taskViews(ctx context.Context, tasks []models.Task) ([]taskView, error) {
	var ids []primitive.ObjectID
	seen := map[primitive.ObjectID]bool{}
	for _, t := range tasks {
		if t.AssignedUser != nil && !seen[*t.AssignedUser] {
			seen[*t.AssignedUser] = true
			ids = append(ids, *t.AssignedUser)
		}
	}

	users := map[primitive.ObjectID]models.User{}
	if len(ids) > 0 {
		var err error
		users, err = h.Users.GetByIDs(ctx, ids)
		if err != nil {
			return nil, err
		}
	}

	views := make([]taskView, 0, len(tasks))
	for _, t := range tasks {
		var ref *models.UserRef
		if t.AssignedUser != nil {
			if u, ok := users[*t.AssignedUser]; ok {
				r := u.Ref()
				ref = &r
			}
		}
		views = append(views, newTaskView(t, ref))
	}
	return views, nil
}
