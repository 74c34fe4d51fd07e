// internal/app/store/rooms/roomstore.go
package roomstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/kanbanhub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var ErrNotFound = errors.New("room not found")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("rooms")}
}

// Create inserts a new room. The creator is always a member.
func (s *Store) Create(ctx context.Context, room models.Room) (models.Room, error) {
	room.ID = primitive.NewObjectID()
	room.NameCI = text.Fold(room.Name)
	if !room.HasMember(room.CreatedBy) {
		room.Members = append(room.Members, room.CreatedBy)
	}
	room.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, room); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

// GetByID retrieves a room by its ID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Room, error) {
	var room models.Room
	err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&room)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return models.Room{}, ErrNotFound
		}
		return models.Room{}, err
	}
	return room, nil
}

// Exists reports whether a room with the given id exists. The realtime hub
// uses this to validate join requests.
func (s *Store) Exists(ctx context.Context, id primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// FindByMember returns the rooms a user belongs to, newest first.
func (s *Store) FindByMember(ctx context.Context, userID primitive.ObjectID) ([]models.Room, error) {
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"members": userID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var rooms []models.Room
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

// Rename updates the room's name.
func (s *Store) Rename(ctx context.Context, id primitive.ObjectID, name string) error {
	set := bson.M{"name": name, "name_ci": text.Fold(name)}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMember adds a user to the room's member list. Idempotent: $addToSet
// keeps reopening a room from duplicating membership.
func (s *Store) AddMember(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$addToSet": bson.M{"members": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveMember removes a user from the member list. The caller is
// responsible for enforcing that the creator never leaves.
func (s *Store) RemoveMember(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$pull": bson.M{"members": userID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a room by ID. Returns ErrNotFound if it does not exist.
// Task and log cascade is the caller's job (see the rooms feature).
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

// EnsureIndexes creates indexes for the rooms collection.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		// "my rooms" listing
		{
			Keys:    bson.D{{Key: "members", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_room_members"),
		},
		// Case-insensitive name for sorting
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_room_name_ci"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}
