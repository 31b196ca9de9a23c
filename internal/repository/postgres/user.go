package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

const userColumns = `id, email, password_hash, tokens, created_at`

// CreateUser inserts a new user into the database.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, tokens, created_at)
		VALUES ($1, $2, $3, $4::jsonb, $5)
	`

	tokens, err := encodeTokens(user.Tokens)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, query,
		user.ID,
		user.Email,
		user.PasswordHash,
		tokens,
		user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrEmailExists
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetUserByID retrieves a user by their ID.
func (s *Store) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return s.getUser(ctx, query, id)
}

// GetUserByEmail retrieves a user by their email address.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return s.getUser(ctx, query, email)
}

// GetUserByToken retrieves a user whose token list contains the token.
func (s *Store) GetUserByToken(ctx context.Context, id, token, kind string) (*model.User, error) {
	match, err := encodeTokens([]model.Token{{Kind: kind, Token: token}})
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1 AND tokens @> $2::jsonb`
	return s.getUser(ctx, query, id, match)
}

func (s *Store) getUser(ctx context.Context, query string, args ...any) (*model.User, error) {
	var (
		user   model.User
		tokens []byte
	)

	err := s.pool.QueryRow(ctx, query, args...).Scan(
		&user.ID,
		&user.Email,
		&user.PasswordHash,
		&tokens,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	user.Tokens = []model.Token{}
	if err := json.Unmarshal(tokens, &user.Tokens); err != nil {
		return nil, fmt.Errorf("failed to decode user tokens: %w", err)
	}

	return &user, nil
}

// AddToken appends a token to the user's token list.
func (s *Store) AddToken(ctx context.Context, userID string, token model.Token) error {
	appended, err := encodeTokens([]model.Token{token})
	if err != nil {
		return err
	}

	query := `UPDATE users SET tokens = tokens || $2::jsonb WHERE id = $1`
	return s.execUser(ctx, query, userID, appended)
}

// RemoveToken removes every element carrying the token from the list.
func (s *Store) RemoveToken(ctx context.Context, userID, token string) error {
	query := `
		UPDATE users
		SET tokens = COALESCE(
			(SELECT jsonb_agg(elem) FROM jsonb_array_elements(tokens) AS elem WHERE elem->>'token' <> $2),
			'[]'::jsonb
		)
		WHERE id = $1
	`
	return s.execUser(ctx, query, userID, token)
}

// UpdatePasswordHash replaces the stored password hash.
func (s *Store) UpdatePasswordHash(ctx context.Context, userID, hash string) error {
	query := `UPDATE users SET password_hash = $2 WHERE id = $1`
	return s.execUser(ctx, query, userID, hash)
}

func (s *Store) execUser(ctx context.Context, query string, args ...any) error {
	tag, err := s.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func encodeTokens(tokens []model.Token) (string, error) {
	if tokens == nil {
		tokens = []model.Token{}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("encode tokens: %w", err)
	}
	return string(data), nil
}
