// internal/app/features/tasks/handler.go

// Package tasks is the conflict-aware task update engine: every mutation of
// a task funnels through here, where the client's last-known version is
// checked against the store atomically, accepted changes are logged and
// fanned out to the room, and rejected changes come back with the
// authoritative task so the client can reconcile.
package tasks

import (
	"context"
	"encoding/json"
	"net/http"

	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	taskstore "github.com/dalemusser/kanbanhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/kanbanhub/internal/app/store/users"
	"github.com/dalemusser/kanbanhub/internal/app/system/activity"
	"github.com/dalemusser/kanbanhub/internal/app/system/metrics"
	"github.com/dalemusser/kanbanhub/internal/app/system/realtime"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// connectionIDHeader carries the caller's per-session connection id so the
// fan-out can exclude the originating client. Omitting it degrades to
// notifying everyone.
const connectionIDHeader = "X-Connection-ID"

// TaskStore is the slice of the task store this engine needs.
type TaskStore interface {
	Create(ctx context.Context, t models.Task) (models.Task, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error)
	ConditionalUpdate(ctx context.Context, id primitive.ObjectID, expectedVersion int64, changes bson.M) (models.Task, error)
	ForceUpdate(ctx context.Context, id primitive.ObjectID, changes bson.M) (models.Task, error)
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Task, error)
	CountOpenByAssignee(ctx context.Context, roomID, userID primitive.ObjectID) (int64, error)
}

// RoomStore resolves rooms and their membership.
type RoomStore interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error)
}

// UserDirectory resolves assignee references to display-friendly users.
type UserDirectory interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// Broadcaster is the fan-out capability, injected at construction rather
// than reached through ambient state.
type Broadcaster interface {
	Broadcast(roomID, excludeConnID string, event realtime.Event)
}

// Handler provides the task mutation endpoints for a room.
type Handler struct {
	Tasks    TaskStore
	Rooms    RoomStore
	Users    UserDirectory
	Fanout   Broadcaster
	Activity *activity.Logger
	Metrics  *metrics.Recorder
	Log      *zap.Logger
}

// NewHandler wires the engine against MongoDB-backed stores. Tests build a
// Handler literal with fakes instead.
func NewHandler(db *mongo.Database, fanout Broadcaster, act *activity.Logger, rec *metrics.Recorder, logger *zap.Logger) *Handler {
	return &Handler{
		Tasks:    taskstore.New(db),
		Rooms:    roomstore.New(db),
		Users:    userstore.New(db),
		Fanout:   fanout,
		Activity: act,
		Metrics:  rec,
		Log:      logger,
	}
}

/* ------------------------- response helpers ------------------------- */

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}

// resolveAssignee expands an assignee id into a display-friendly reference.
// A lookup miss is not fatal; the id simply stays unresolved (nil).
func (h *Handler) resolveAssignee(ctx context.Context, id *primitive.ObjectID) *models.UserRef {
	if id == nil {
		return nil
	}
	u, err := h.Users.GetByID(ctx, *id)
	if err != nil {
		if err != userstore.ErrNotFound {
			h.Log.Warn("assignee lookup failed", zap.Error(err), zap.String("user_id", id.Hex()))
		}
		return nil
	}
	ref := u.Ref()
	return &ref
}
