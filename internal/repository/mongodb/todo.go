package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

// todoDocument is the stored shape of a todo.
// completedAt is kept as Unix milliseconds.
type todoDocument struct {
	ID          primitive.ObjectID  `bson:"_id"`
	Text        string              `bson:"text"`
	Completed   bool                `bson:"completed"`
	CompletedAt *int64              `bson:"completedAt"`
	Creator     *primitive.ObjectID `bson:"_creator,omitempty"`
}

func newTodoDocument(todo *model.Todo) (*todoDocument, error) {
	id, err := primitive.ObjectIDFromHex(todo.ID)
	if err != nil {
		return nil, fmt.Errorf("invalid todo id %q: %w", todo.ID, err)
	}

	doc := &todoDocument{
		ID:          id,
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAtMillis(),
	}

	if todo.OwnerID != "" {
		creator, err := primitive.ObjectIDFromHex(todo.OwnerID)
		if err != nil {
			return nil, fmt.Errorf("invalid owner id %q: %w", todo.OwnerID, err)
		}
		doc.Creator = &creator
	}

	return doc, nil
}

func (d *todoDocument) toModel() *model.Todo {
	todo := &model.Todo{
		ID:        d.ID.Hex(),
		Text:      d.Text,
		Completed: d.Completed,
		CreatedAt: d.ID.Timestamp(),
	}
	if d.CompletedAt != nil {
		at := time.UnixMilli(*d.CompletedAt).UTC()
		todo.CompletedAt = &at
	}
	if d.Creator != nil {
		todo.OwnerID = d.Creator.Hex()
	}
	return todo
}

// todoQuery builds the selector for a todo, or ok=false if no document can match.
func todoQuery(id string, filter repository.TodoFilter) (bson.M, bool) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, false
	}

	query := bson.M{"_id": oid}
	if filter.OwnerID != "" {
		creator, err := primitive.ObjectIDFromHex(filter.OwnerID)
		if err != nil {
			return nil, false
		}
		query["_creator"] = creator
	}
	return query, true
}

// CreateTodo inserts a new todo.
func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	doc, err := newTodoDocument(todo)
	if err != nil {
		return err
	}

	if _, err := s.todos.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// ListTodos returns matching todos in insertion order.
func (s *Store) ListTodos(ctx context.Context, filter repository.TodoFilter) ([]*model.Todo, error) {
	query := bson.M{}
	if filter.OwnerID != "" {
		creator, err := primitive.ObjectIDFromHex(filter.OwnerID)
		if err != nil {
			return []*model.Todo{}, nil
		}
		query["_creator"] = creator
	}

	cursor, err := s.todos.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}

	var docs []todoDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode todos: %w", err)
	}

	todos := make([]*model.Todo, len(docs))
	for i := range docs {
		todos[i] = docs[i].toModel()
	}
	return todos, nil
}

// GetTodo retrieves a todo by ID.
func (s *Store) GetTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	query, ok := todoQuery(id, filter)
	if !ok {
		return nil, repository.ErrNotFound
	}

	var doc todoDocument
	if err := s.todos.FindOne(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return doc.toModel(), nil
}

// UpdateTodo sets only the patched fields and returns the updated document.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch repository.TodoPatch, filter repository.TodoFilter) (*model.Todo, error) {
	query, ok := todoQuery(id, filter)
	if !ok {
		return nil, repository.ErrNotFound
	}

	set := bson.M{}
	if patch.Text != nil {
		set["text"] = *patch.Text
	}
	if patch.Completed != nil {
		set["completed"] = *patch.Completed
		set["completedAt"] = nil
		if patch.CompletedAt != nil {
			set["completedAt"] = patch.CompletedAt.UnixMilli()
		}
	}
	// An empty $set is rejected by the server.
	if len(set) == 0 {
		return s.GetTodo(ctx, id, filter)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc todoDocument
	if err := s.todos.FindOneAndUpdate(ctx, query, bson.M{"$set": set}, opts).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return doc.toModel(), nil
}

// DeleteTodo removes a todo and returns the deleted document.
func (s *Store) DeleteTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	query, ok := todoQuery(id, filter)
	if !ok {
		return nil, repository.ErrNotFound
	}

	var doc todoDocument
	if err := s.todos.FindOneAndDelete(ctx, query).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}
	return doc.toModel(), nil
}
