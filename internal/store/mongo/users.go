package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/crudimport/internal/core"
)

type userDoc struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	Username  string             `bson:"username"`
	Role      string             `bson:"role"`
	CreatedAt time.Time          `bson:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

func (d userDoc) toUser() core.User {
	return core.User{
		ID:        d.ID.Hex(),
		Username:  d.Username,
		Role:      d.Role,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

// userUpdate builds the $set document for patch. Nil fields are left out.
func userUpdate(patch core.UserPatch, at time.Time) bson.M {
	set := bson.M{"updated_at": at}
	if patch.Username != nil {
		set["username"] = *patch.Username
	}
	if patch.Role != nil {
		set["role"] = *patch.Role
	}
	return bson.M{"$set": set}
}

// InsertUsers writes all records with one ordered InsertMany.
func (s *Store) InsertUsers(ctx context.Context, records []core.NormalizedRecord) (int64, error) {
	ts := now()
	docs := make([]any, len(records))
	for i, r := range records {
		docs[i] = userDoc{Username: r.Name, Role: r.Role, CreatedAt: ts, UpdatedAt: ts}
	}

	res, err := s.users.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, err
	}
	return int64(len(res.InsertedIDs)), nil
}

// ListUsers returns all users in insertion order.
func (s *Store) ListUsers(ctx context.Context) ([]core.User, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer cur.Close(ctx)

	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	users := make([]core.User, len(docs))
	for i, d := range docs {
		users[i] = d.toUser()
	}
	return users, nil
}

// CreateUser inserts one user.
func (s *Store) CreateUser(ctx context.Context, username, role string) (core.User, error) {
	ts := now()
	doc := userDoc{Username: username, Role: role, CreatedAt: ts, UpdatedAt: ts}

	res, err := s.users.InsertOne(ctx, doc)
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		doc.ID = oid
	}
	return doc.toUser(), nil
}

// UpdateUser applies patch and returns the updated document.
func (s *Store) UpdateUser(ctx context.Context, id string, patch core.UserPatch) (core.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}

	var doc userDoc
	err = s.users.FindOneAndUpdate(ctx, bson.M{"_id": oid}, userUpdate(patch, now()), afterUpdate()).Decode(&doc)
	if err != nil {
		return core.User{}, notFound(err)
	}
	return doc.toUser(), nil
}

// DeleteUser removes a user and returns the deleted document.
func (s *Store) DeleteUser(ctx context.Context, id string) (core.User, error) {
	oid, err := parseID(id)
	if err != nil {
		return core.User{}, err
	}

	var doc userDoc
	if err := s.users.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return core.User{}, notFound(err)
	}
	return doc.toUser(), nil
}
