// internal/app/system/activity/logger.go

// Package activity records who did what to which task, for the room's
// activity feed. Entries denormalize the acting user's name and the task
// title at action time so the feed stays accurate after renames and
// deletions.
//
// Logging is best-effort: a failed append is reported through zap and the
// user-facing mutation still succeeds. The entry handed back
// to the caller is always populated so responses and broadcasts can carry
// it either way.
package activity

import (
	"context"
	"time"

	logstore "github.com/dalemusser/kanbanhub/internal/app/store/logs"
	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Mode controls where entries go: "all" (MongoDB + zap), "db", "log", or
// "off". Operators can quiet the feed without a redeploy.
type Mode string

const (
	ModeAll Mode = "all"
	ModeDB  Mode = "db"
	ModeLog Mode = "log"
	ModeOff Mode = "off"
)

// Logger writes activity entries for task mutations.
type Logger struct {
	store  *logstore.Store
	zapLog *zap.Logger
	mode   Mode
}

// New creates an activity Logger. A nil store with mode "db"/"all" degrades
// to zap-only rather than panicking.
func New(store *logstore.Store, zapLog *zap.Logger, mode Mode) *Logger {
	if mode == "" {
		mode = ModeAll
	}
	return &Logger{store: store, zapLog: zapLog, mode: mode}
}

// Record builds, persists (best-effort), and returns the entry for one
// action. userName and target are captured as display strings on purpose.
func (l *Logger) Record(ctx context.Context, roomID primitive.ObjectID, userName, target, action, changes string) models.LogEntry {
	entry := models.LogEntry{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		User:      userName,
		Target:    target,
		Action:    action,
		Changes:   changes,
		Timestamp: time.Now().UTC(),
	}
	if l == nil || l.mode == ModeOff {
		return entry
	}

	if l.mode == ModeAll || l.mode == ModeLog {
		l.zapLog.Info("activity",
			zap.String("room_id", roomID.Hex()),
			zap.String("user", userName),
			zap.String("action", action),
			zap.String("target", target),
		)
	}

	if (l.mode == ModeAll || l.mode == ModeDB) && l.store != nil {
		if _, err := l.store.Append(ctx, entry); err != nil {
			// Best-effort: the task mutation already committed and must not
			// be failed by a feed write.
			l.zapLog.Error("activity append failed",
				zap.Error(err),
				zap.String("room_id", roomID.Hex()),
				zap.String("action", action),
			)
		}
	}
	return entry
}

// TaskCreated records a create action.
func (l *Logger) TaskCreated(ctx context.Context, roomID primitive.ObjectID, userName, title string) models.LogEntry {
	return l.Record(ctx, roomID, userName, title, models.ActionCreate, "")
}

// TaskUpdated records an update action with a readable change summary.
func (l *Logger) TaskUpdated(ctx context.Context, roomID primitive.ObjectID, userName, title, changes string) models.LogEntry {
	return l.Record(ctx, roomID, userName, title, models.ActionUpdate, changes)
}

// TaskDeleted records a delete action.
func (l *Logger) TaskDeleted(ctx context.Context, roomID primitive.ObjectID, userName, title string) models.LogEntry {
	return l.Record(ctx, roomID, userName, title, models.ActionDelete, "")
}
