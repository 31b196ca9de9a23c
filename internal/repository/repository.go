// Package repository defines the persistence contracts for todos and users.
// Concrete document stores live in the mongodb, postgres and memory subpackages.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/model"
)

// Common errors returned by every store implementation.
var (
	ErrNotFound    = errors.New("document not found")
	ErrEmailExists = errors.New("email already exists")
)

// TodoFilter scopes todo queries.
// An empty OwnerID matches todos of every owner.
type TodoFilter struct {
	OwnerID string
}

// TodoPatch is a partial todo update. Nil fields are left unchanged.
// CompletedAt is written whenever Completed is set, so nil clears it.
type TodoPatch struct {
	Text        *string
	Completed   *bool
	CompletedAt *time.Time
}

// Apply writes the patch onto todo.
func (p TodoPatch) Apply(todo *model.Todo) {
	if p.Text != nil {
		todo.Text = *p.Text
	}
	if p.Completed != nil {
		todo.Completed = *p.Completed
		todo.CompletedAt = nil
		if p.CompletedAt != nil {
			at := p.CompletedAt.UTC()
			todo.CompletedAt = &at
		}
	}
}

// TodoRepository persists todos.
type TodoRepository interface {
	CreateTodo(ctx context.Context, todo *model.Todo) error
	ListTodos(ctx context.Context, filter TodoFilter) ([]*model.Todo, error)
	GetTodo(ctx context.Context, id string, filter TodoFilter) (*model.Todo, error)
	// UpdateTodo applies patch in a single store operation and returns the
	// updated document.
	UpdateTodo(ctx context.Context, id string, patch TodoPatch, filter TodoFilter) (*model.Todo, error)
	// DeleteTodo removes a todo and returns the removed document.
	DeleteTodo(ctx context.Context, id string, filter TodoFilter) (*model.Todo, error)
}

// UserRepository persists users and their issued tokens.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByToken returns the user only if it still holds the token.
	GetUserByToken(ctx context.Context, id, token, kind string) (*model.User, error)
	AddToken(ctx context.Context, userID string, token model.Token) error
	RemoveToken(ctx context.Context, userID, token string) error
	UpdatePasswordHash(ctx context.Context, userID, hash string) error
}

// Store is a complete document store backend.
type Store interface {
	TodoRepository
	UserRepository
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
