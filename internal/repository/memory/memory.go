// Package memory provides an in-process Store used for development and tests.
package memory

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

// Store keeps todos and users in maps guarded by a RWMutex.
// Values are copied on the way in and out so callers never share state.
type Store struct {
	mu    sync.RWMutex
	todos map[string]*model.Todo
	users map[string]*model.User
}

var _ repository.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		todos: make(map[string]*model.Todo),
		users: make(map[string]*model.User),
	}
}

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op.
func (s *Store) Close(ctx context.Context) error {
	return nil
}

// CreateTodo stores a new todo.
func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.todos[todo.ID] = copyTodo(todo)
	return nil
}

// ListTodos returns matching todos ordered by creation time.
func (s *Store) ListTodos(ctx context.Context, filter repository.TodoFilter) ([]*model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todos := make([]*model.Todo, 0, len(s.todos))
	for _, todo := range s.todos {
		if todo.OwnedBy(filter.OwnerID) {
			todos = append(todos, copyTodo(todo))
		}
	}

	sort.SliceStable(todos, func(i, j int) bool {
		if todos[i].CreatedAt.Equal(todos[j].CreatedAt) {
			return todos[i].ID < todos[j].ID
		}
		return todos[i].CreatedAt.Before(todos[j].CreatedAt)
	})

	return todos, nil
}

// GetTodo returns a todo by ID.
func (s *Store) GetTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	todo, ok := s.todos[id]
	if !ok || !todo.OwnedBy(filter.OwnerID) {
		return nil, repository.ErrNotFound
	}
	return copyTodo(todo), nil
}

// UpdateTodo applies a partial update under the write lock.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch repository.TodoPatch, filter repository.TodoFilter) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.todos[id]
	if !ok || !existing.OwnedBy(filter.OwnerID) {
		return nil, repository.ErrNotFound
	}

	patch.Apply(existing)
	return copyTodo(existing), nil
}

// DeleteTodo removes a todo and returns it.
func (s *Store) DeleteTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	todo, ok := s.todos[id]
	if !ok || !todo.OwnedBy(filter.OwnerID) {
		return nil, repository.ErrNotFound
	}
	delete(s.todos, id)
	return copyTodo(todo), nil
}

// CreateUser stores a new user, rejecting duplicate emails.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if existing.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	s.users[user.ID] = copyUser(user)
	return nil
}

// GetUserByID returns a user by ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return copyUser(user), nil
}

// GetUserByEmail returns a user by email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, user := range s.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, repository.ErrNotFound
}

// GetUserByToken returns a user that still holds the given token.
func (s *Store) GetUserByToken(ctx context.Context, id, token, kind string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok || !user.HasToken(token, kind) {
		return nil, repository.ErrNotFound
	}
	return copyUser(user), nil
}

// AddToken appends a token to the user's token list.
func (s *Store) AddToken(ctx context.Context, userID string, token model.Token) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Tokens = append(user.Tokens, token)
	return nil
}

// RemoveToken removes every occurrence of a token from the user's list.
func (s *Store) RemoveToken(ctx context.Context, userID, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.Tokens = slices.DeleteFunc(user.Tokens, func(t model.Token) bool {
		return t.Token == token
	})
	return nil
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[userID]
	if !ok {
		return repository.ErrNotFound
	}
	user.PasswordHash = hash
	return nil
}

func copyTodo(todo *model.Todo) *model.Todo {
	out := *todo
	out.CompletedAt = copyTime(todo)
	return &out
}

func copyTime(todo *model.Todo) *time.Time {
	if todo.CompletedAt == nil {
		return nil
	}
	at := *todo.CompletedAt
	return &at
}

func copyUser(user *model.User) *model.User {
	out := *user
	out.Tokens = slices.Clone(user.Tokens)
	return &out
}
