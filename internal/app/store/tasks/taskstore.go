// internal/app/store/tasks/taskstore.go
package taskstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrNotFound is returned when the referenced task does not exist.
var ErrNotFound = errors.New("task not found")

// VersionConflictError is the first-class outcome of a conditional update
// whose expected version no longer matches the stored one. It carries the
// authoritative current task so the caller can build a reconciliation
// payload without a second read. It is not a retryable fault; resolving it
// is a caller decision.
type VersionConflictError struct {
	Current models.Task
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: task %s is at version %d", e.Current.ID.Hex(), e.Current.Version)
}

// AsVersionConflict unwraps err into a *VersionConflictError if it is one.
func AsVersionConflict(err error) (*VersionConflictError, bool) {
	var vc *VersionConflictError
	if errors.As(err, &vc) {
		return vc, true
	}
	return nil, false
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("tasks")}
}

// Create inserts a new task at version 1.
func (s *Store) Create(ctx context.Context, t models.Task) (models.Task, error) {
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.Version = 1
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if t.Status == "" {
		t.Status = models.StatusTodo
	}
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.Task{}, err
	}
	return t, nil
}

// GetByID retrieves a task by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Task, error) {
	var t models.Task
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

// ConditionalUpdate applies changes only if the stored version still equals
// expectedVersion, incrementing the version in the same atomic write. The
// filter keys on both _id and version, so two concurrent callers presenting
// the same expected version can never both succeed: the loser's filter
// matches nothing and it gets a *VersionConflictError carrying the winner's
// result.
//
// changes holds bson field names to set; it may be empty, in which case the
// update still bumps the version (a trivial success).
func (s *Store) ConditionalUpdate(ctx context.Context, id primitive.ObjectID, expectedVersion int64, changes bson.M) (models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range changes {
		set[k] = v
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "version": expectedVersion}, update, opts).Decode(&t)
	if err == nil {
		return t, nil
	}
	if err != mongo.ErrNoDocuments {
		return models.Task{}, err
	}

	// Filter missed: either the task is gone or the version moved on.
	current, getErr := s.GetByID(ctx, id)
	if getErr != nil {
		return models.Task{}, getErr
	}
	return models.Task{}, &VersionConflictError{Current: current}
}

// ForceUpdate applies changes unconditionally, ignoring the stored version
// but still incrementing it by exactly 1. This is the overwrite resolution
// path a client chooses after seeing a conflict.
func (s *Store) ForceUpdate(ctx context.Context, id primitive.ObjectID, changes bson.M) (models.Task, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	for k, v := range changes {
		set[k] = v
	}
	update := bson.M{
		"$set": set,
		"$inc": bson.M{"version": 1},
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var t models.Task
	err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Decode(&t)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Task{}, ErrNotFound
		}
		return models.Task{}, err
	}
	return t, nil
}

// Delete removes a task. Returns ErrNotFound if it does not exist.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// FindByRoom returns all tasks belonging to a room, oldest first.
func (s *Store) FindByRoom(ctx context.Context, roomID primitive.ObjectID) ([]models.Task, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"room_id": roomID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var tasks []models.Task
	if err := cur.All(ctx, &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// DeleteByRoom removes every task in a room (room cascade delete).
func (s *Store) DeleteByRoom(ctx context.Context, roomID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteMany(ctx, bson.M{"room_id": roomID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// CountOpenByAssignee counts a user's tasks in a room whose status is not
// "done". Smart-assign uses this as its load measure.
func (s *Store) CountOpenByAssignee(ctx context.Context, roomID, userID primitive.ObjectID) (int64, error) {
	filter := bson.M{
		"room_id":       roomID,
		"assigned_user": userID,
		"status":        bson.M{"$ne": models.StatusDone},
	}
	return s.c.CountDocuments(ctx, filter)
}

// EnsureIndexes creates indexes for the tasks collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// Board load and cascade delete
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_task_room"),
		},
		// Smart-assign load counting
		{
			Keys:    bson.D{{Key: "room_id", Value: 1}, {Key: "assigned_user", Value: 1}, {Key: "status", Value: 1}},
			Options: options.Index().SetName("idx_task_assignee_status"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
