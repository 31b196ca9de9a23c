package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

const todoColumns = `id, text, completed, completed_at, COALESCE(creator_id, ''), created_at`

// CreateTodo inserts a new todo.
func (s *Store) CreateTodo(ctx context.Context, todo *model.Todo) error {
	query := `
		INSERT INTO todos (id, text, completed, completed_at, creator_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6)
	`

	_, err := s.pool.Exec(ctx, query,
		todo.ID,
		todo.Text,
		todo.Completed,
		todo.CompletedAt,
		todo.OwnerID,
		todo.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create todo: %w", err)
	}
	return nil
}

// ListTodos returns matching todos ordered by creation time.
func (s *Store) ListTodos(ctx context.Context, filter repository.TodoFilter) ([]*model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE ($1 = '' OR creator_id = $1)
		ORDER BY created_at, id
	`

	rows, err := s.pool.Query(ctx, query, filter.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list todos: %w", err)
	}
	defer rows.Close()

	todos := make([]*model.Todo, 0)
	for rows.Next() {
		todo, err := scanTodo(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan todo: %w", err)
		}
		todos = append(todos, todo)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate todos: %w", err)
	}

	return todos, nil
}

// GetTodo retrieves a todo by ID.
func (s *Store) GetTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	query := `
		SELECT ` + todoColumns + `
		FROM todos
		WHERE id = $1 AND ($2 = '' OR creator_id = $2)
	`

	todo, err := scanTodo(s.pool.QueryRow(ctx, query, id, filter.OwnerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get todo: %w", err)
	}
	return todo, nil
}

// UpdateTodo sets only the patched columns and returns the updated row.
func (s *Store) UpdateTodo(ctx context.Context, id string, patch repository.TodoPatch, filter repository.TodoFilter) (*model.Todo, error) {
	query := `
		UPDATE todos
		SET text = COALESCE($3::text, text),
			completed = COALESCE($4::boolean, completed),
			completed_at = CASE WHEN $4::boolean IS NULL THEN completed_at ELSE $5::timestamptz END
		WHERE id = $1 AND ($2 = '' OR creator_id = $2)
		RETURNING ` + todoColumns

	todo, err := scanTodo(s.pool.QueryRow(ctx, query,
		id,
		filter.OwnerID,
		patch.Text,
		patch.Completed,
		patch.CompletedAt,
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to update todo: %w", err)
	}
	return todo, nil
}

// DeleteTodo removes a todo and returns the deleted row.
func (s *Store) DeleteTodo(ctx context.Context, id string, filter repository.TodoFilter) (*model.Todo, error) {
	query := `
		DELETE FROM todos
		WHERE id = $1 AND ($2 = '' OR creator_id = $2)
		RETURNING ` + todoColumns

	todo, err := scanTodo(s.pool.QueryRow(ctx, query, id, filter.OwnerID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to delete todo: %w", err)
	}
	return todo, nil
}

func scanTodo(row pgx.Row) (*model.Todo, error) {
	var todo model.Todo
	err := row.Scan(
		&todo.ID,
		&todo.Text,
		&todo.Completed,
		&todo.CompletedAt,
		&todo.OwnerID,
		&todo.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if todo.CompletedAt != nil {
		at := todo.CompletedAt.UTC()
		todo.CompletedAt = &at
	}
	return &todo, nil
}
