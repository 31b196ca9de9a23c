// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/metrics"
	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
	"github.com/lukeybeachboy/todo-api/internal/validation"
)

// Service errors.
var (
	ErrInvalidID    = errors.New("invalid id")
	ErrTodoNotFound = errors.New("todo not found")
)

// TodoService handles todo business logic.
type TodoService struct {
	repo      repository.TodoRepository
	validator *validation.Validator
	metrics   metrics.Recorder
	now       func() time.Time
}

// NewTodoService creates a new TodoService.
func NewTodoService(repo repository.TodoRepository, recorder metrics.Recorder) *TodoService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &TodoService{
		repo:      repo,
		validator: validation.New(),
		metrics:   recorder,
		now:       time.Now,
	}
}

// CreateTodoInput defines input for creating a todo.
type CreateTodoInput struct {
	Text    string `json:"text" validate:"required"`
	OwnerID string `json:"-"`
}

// CreateTodo validates and stores a new, uncompleted todo.
func (s *TodoService) CreateTodo(ctx context.Context, input CreateTodoInput) (*model.Todo, error) {
	input.Text = strings.TrimSpace(input.Text)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	todo := &model.Todo{
		ID:        model.NewID(),
		Text:      input.Text,
		OwnerID:   input.OwnerID,
		CreatedAt: s.now().UTC(),
	}

	if err := s.repo.CreateTodo(ctx, todo); err != nil {
		return nil, fmt.Errorf("failed to create todo: %w", err)
	}

	s.metrics.IncTodoCreated()

	return todo, nil
}

// ListTodos returns every todo visible to ownerID.
// An empty ownerID lists all todos.
func (s *TodoService) ListTodos(ctx context.Context, ownerID string) ([]*model.Todo, error) {
	return s.repo.ListTodos(ctx, repository.TodoFilter{OwnerID: ownerID})
}

// GetTodo retrieves a todo by ID.
func (s *TodoService) GetTodo(ctx context.Context, id, ownerID string) (*model.Todo, error) {
	if !model.IsValidID(id) {
		return nil, ErrInvalidID
	}

	todo, err := s.repo.GetTodo(ctx, id, repository.TodoFilter{OwnerID: ownerID})
	if err != nil {
		return nil, mapTodoError(err)
	}
	return todo, nil
}

// UpdateTodoInput defines input for updating a todo.
// Nil fields are left unchanged.
type UpdateTodoInput struct {
	ID        string
	OwnerID   string
	Text      *string
	Completed *bool
}

// UpdateTodo applies a partial update. Completing a todo stamps
// CompletedAt with the current time; un-completing clears it.
func (s *TodoService) UpdateTodo(ctx context.Context, input UpdateTodoInput) (*model.Todo, error) {
	if !model.IsValidID(input.ID) {
		return nil, ErrInvalidID
	}

	var patch repository.TodoPatch
	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, validation.NewError("text", "required")
		}
		patch.Text = &text
	}
	if input.Completed != nil {
		patch.Completed = input.Completed
		if *input.Completed {
			at := s.now().UTC()
			patch.CompletedAt = &at
		}
	}

	todo, err := s.repo.UpdateTodo(ctx, input.ID, patch, repository.TodoFilter{OwnerID: input.OwnerID})
	if err != nil {
		return nil, mapTodoError(err)
	}

	s.metrics.IncTodoUpdated()

	return todo, nil
}

// DeleteTodo removes a todo and returns it.
func (s *TodoService) DeleteTodo(ctx context.Context, id, ownerID string) (*model.Todo, error) {
	if !model.IsValidID(id) {
		return nil, ErrInvalidID
	}

	todo, err := s.repo.DeleteTodo(ctx, id, repository.TodoFilter{OwnerID: ownerID})
	if err != nil {
		return nil, mapTodoError(err)
	}

	s.metrics.IncTodoDeleted()

	return todo, nil
}

func mapTodoError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrTodoNotFound
	}
	return err
}
