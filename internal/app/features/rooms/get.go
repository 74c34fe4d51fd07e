// internal/app/features/rooms/get.go
package rooms

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

// HandleGet handles GET /api/rooms/{roomID}: the open-a-room flow.
//
// Opening a room joins the caller to it ($addToSet keeps it idempotent)
// and returns the full board: resolved members, every task with its
// assignee, and the recent activity window.
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
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

	if err := h.Rooms.AddMember(ctx, roomID, user.ID); err != nil {
		if err == roomstore.ErrNotFound {
			respondError(w, http.StatusNotFound, "room not found")
			return
		}
		h.Log.Error("room join failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

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

	tasks, err := h.Tasks.FindByRoom(ctx, roomID)
	if err != nil {
		h.Log.Error("task list failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	logs, err := h.Logs.RecentByRoom(ctx, roomID, h.LogLimit)
	if err != nil {
		h.Log.Error("activity fetch failed", zap.Error(err))
		respondError(w, http.StatusInternalServerError, "internal server error")
		return
	}
	if logs == nil {
		logs = []models.LogEntry{}
	}

	// One batched lookup covers members and assignees both.
	ids := append([]primitive.ObjectID(nil), room.Members...)
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		seen[id] = true
	}
	for _, t := range tasks {
		if t.AssignedUser != nil && !seen[*t.AssignedUser] {
			seen[*t.AssignedUser] = true
			ids = append(ids, *t.AssignedUser)
		}
	}
	users := map[primitive.ObjectID]models.User{}
	if len(ids) > 0 {
		users, err = h.Users.GetByIDs(ctx, ids)
		if err != nil {
			h.Log.Error("member resolution failed", zap.Error(err))
			respondError(w, http.StatusInternalServerError, "internal server error")
			return
		}
	}

	details := make([]taskDetail, 0, len(tasks))
	for _, t := range tasks {
		var ref *models.UserRef
		if t.AssignedUser != nil {
			if u, ok := users[*t.AssignedUser]; ok {
				ur := u.Ref()
				ref = &ur
			}
		}
		details = append(details, newTaskDetail(t, ref))
	}

	respondJSON(w, http.StatusOK, boardResponse{
		Room:    newRoomView(room),
		Members: memberRefs(room.Members, users),
		Tasks:   details,
		Logs:    logs,
	})
}
