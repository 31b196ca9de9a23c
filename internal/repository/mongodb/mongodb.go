// Package mongodb implements the document store on MongoDB.
package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/lukeybeachboy/todo-api/internal/repository"
)

const (
	todosCollection = "todos"
	usersCollection = "users"
)

// Store provides MongoDB access methods.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
	todos  *mongo.Collection
	users  *mongo.Collection
}

var _ repository.Store = (*Store)(nil)

// New connects to MongoDB, verifies the connection and ensures indexes exist.
func New(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetMaxPoolSize(10).
		SetMinPoolSize(2).
		SetMaxConnIdleTime(5 * time.Minute)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Verify connection
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	db := client.Database(database)
	s := &Store{
		client: client,
		db:     db,
		todos:  db.Collection(todosCollection),
		users:  db.Collection(usersCollection),
	}

	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(ctx)
		return nil, err
	}

	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	_, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("email_unique"),
		},
		{
			Keys:    bson.D{{Key: "tokens.token", Value: 1}},
			Options: options.Index().SetName("tokens_token"),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create user indexes: %w", err)
	}

	_, err = s.todos.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "_creator", Value: 1}},
		Options: options.Index().SetName("creator"),
	})
	if err != nil {
		return fmt.Errorf("failed to create todo indexes: %w", err)
	}

	return nil
}

// Ping checks MongoDB connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// Database returns the underlying database handle.
// Use sparingly - prefer adding methods to Store.
func (s *Store) Database() *mongo.Database {
	return s.db
}
