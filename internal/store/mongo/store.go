// Package mongo implements the users and products stores on MongoDB.
// Documents are keyed by ObjectID; its hex form is the public id.
package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/JonMunkholm/crudimport/internal/config"
	"github.com/JonMunkholm/crudimport/internal/core"
	"github.com/JonMunkholm/crudimport/internal/store"
)

func init() {
	store.Register(store.Backend{Name: config.BackendMongo, Open: open})
}

func open(ctx context.Context, cfg config.StoreConfig) (core.UserStore, error) {
	return Open(ctx, cfg)
}

// Store holds the users and products collections of one database.
type Store struct {
	client   *mongo.Client // nil when built with New
	users    *mongo.Collection
	products *mongo.Collection
}

// Open connects to cfg.URL and selects cfg.Database.
func Open(ctx context.Context, cfg config.StoreConfig) (*Store, error) {
	opts := options.Client().
		ApplyURI(cfg.URL).
		SetMaxPoolSize(uint64(cfg.MaxConns)).
		SetMinPoolSize(uint64(cfg.MinConns)).
		SetMaxConnIdleTime(cfg.MaxConnIdleTime)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping: %w", err)
	}

	s := New(client.Database(cfg.Database), cfg.UsersTable, cfg.ProductsTable)
	s.client = client
	return s, nil
}

// New uses the named collections of db.
func New(db *mongo.Database, usersColl, productsColl string) *Store {
	return &Store{
		users:    db.Collection(usersColl),
		products: db.Collection(productsColl),
	}
}

// Ping checks the deployment.
func (s *Store) Ping(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	return s.client.Ping(ctx, nil)
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if s.client == nil {
		return nil
	}
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

func parseID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return primitive.NilObjectID, core.ErrInvalidID
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return core.ErrNotFound
	}
	return err
}

func afterUpdate() *options.FindOneAndUpdateOptions {
	return options.FindOneAndUpdate().SetReturnDocument(options.After)
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}
