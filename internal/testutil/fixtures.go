package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a directory user and returns it.
func (f *Fixtures) CreateUser(ctx context.Context, name string) models.User {
	f.t.Helper()

	u := models.User{
		ID:     primitive.NewObjectID(),
		Name:   name,
		NameCI: text.Fold(name),
		Email:  text.Fold(name) + "@test.com",
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, u); err != nil {
		f.t.Fatalf("create user: %v", err)
	}
	return u
}

// CreateRoom inserts a room with the given creator and extra members.
func (f *Fixtures) CreateRoom(ctx context.Context, name string, createdBy primitive.ObjectID, members ...primitive.ObjectID) models.Room {
	f.t.Helper()

	room := models.Room{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Members:   append([]primitive.ObjectID{createdBy}, members...),
		CreatedBy: createdBy,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("rooms").InsertOne(ctx, room); err != nil {
		f.t.Fatalf("create room: %v", err)
	}
	return room
}

// CreateTask inserts a task at version 1 with default priority/status
// unless the caller set them.
func (f *Fixtures) CreateTask(ctx context.Context, roomID primitive.ObjectID, title string) models.Task {
	f.t.Helper()

	now := time.Now().UTC()
	task := models.Task{
		ID:        primitive.NewObjectID(),
		RoomID:    roomID,
		Title:     title,
		Priority:  models.PriorityMedium,
		Status:    models.StatusTodo,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("tasks").InsertOne(ctx, task); err != nil {
		f.t.Fatalf("create task: %v", err)
	}
	return task
}
