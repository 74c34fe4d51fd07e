// internal/app/features/rooms/handler.go

// Package rooms manages board rooms: listing, creation, the open-a-room
// flow (which auto-joins the caller and returns the full board state),
// renames, leaving, and creator-only deletion with task/log cascade.
package rooms

import (
	"context"
	"encoding/json"
	"net/http"

	logstore "github.com/dalemusser/kanbanhub/internal/app/store/logs"
	roomstore "github.com/dalemusser/kanbanhub/internal/app/store/rooms"
	taskstore "github.com/dalemusser/kanbanhub/internal/app/store/tasks"
	userstore "github.com/dalemusser/kanbanhub/internal/app/store/users"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// defaultLogLimit is the recent-activity window returned when opening a
// room, unless configuration overrides it.
const defaultLogLimit = 20

// RoomStore is the slice of the room store this feature needs.
type RoomStore interface {
	Create(ctx context.Context, room models.Room) (models.Room, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error)
	FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error)
	Rename(ctx context.Context, id primitive.ObjectID, name string) error
	AddMember(ctx context.Context, id, userID primitive.ObjectID) error
	RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error
	Delete(ctx context.Context, id primitive.ObjectID) error
}

// TaskStore is what the open-a-room flow and the delete cascade need from
// the task store.
type TaskStore interface {
	FindByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Task, error)
	DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error)
}

// LogStore supplies the recent-activity window and the delete cascade.
type LogStore interface {
	RecentByRoom(ctx context.Context, roomID primitive.ObjectID, limit int64) ([]models.LogEntry, error)
	DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error)
}

// UserDirectory resolves member and assignee ids to display users.
type UserDirectory interface {
	GetByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error)
}

// Handler provides the room endpoints.
type Handler struct {
	Rooms    RoomStore
	Tasks    TaskStore
	Logs     LogStore
	Users    UserDirectory
	LogLimit int64
	Log      *zap.Logger
}

// NewHandler wires the feature against MongoDB-backed stores. logLimit <= 0
// falls back to the default window.
func NewHandler(db *mongo.Database, logLimit int64, logger *zap.Logger) *Handler {
	if logLimit <= 0 {
		logLimit = defaultLogLimit
	}
	return &Handler{
		Rooms:    roomstore.New(db),
		Tasks:    taskstore.New(db),
		Logs:     logstore.New(db),
		Users:    userstore.New(db),
		LogLimit: logLimit,
		Log:      logger,
	}
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"message": message})
}
