// Package seed builds the fixture users and todos used by the seeder
// command and the end-to-end tests.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

// User is a fixture account together with its plaintext password.
type User struct {
	*model.User
	Password string
}

// Fixtures is a consistent set of users and todos.
type Fixtures struct {
	Users []User
	Todos []*model.Todo
}

// Build creates two users and two todos. The first user holds one auth
// token issued by issuer; the second todo is completed at Unix millisecond 333.
func Build(issuer *auth.TokenIssuer) (*Fixtures, error) {
	now := time.Now().UTC()

	users := []User{
		{User: &model.User{ID: model.NewID(), Email: "andrew@example.com", CreatedAt: now}, Password: "userOnePass"},
		{User: &model.User{ID: model.NewID(), Email: "jen@example.com", CreatedAt: now}, Password: "userTwoPass"},
	}

	for _, u := range users {
		hash, err := auth.HashPassword(u.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password for %s: %w", u.Email, err)
		}
		u.PasswordHash = hash
		u.Tokens = []model.Token{}
	}

	token, err := issuer.Issue(users[0].ID, model.TokenKindAuth)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	users[0].Tokens = []model.Token{{Kind: model.TokenKindAuth, Token: token}}

	first := &model.Todo{ID: model.NewID(), Text: "First test todo", CreatedAt: now}
	second := &model.Todo{ID: model.NewID(), Text: "Second test todo", CreatedAt: now.Add(time.Millisecond)}
	second.SetCompleted(true, time.UnixMilli(333))

	return &Fixtures{
		Users: users,
		Todos: []*model.Todo{first, second},
	}, nil
}

// Apply inserts the fixtures into store. Existing data is left untouched.
func Apply(ctx context.Context, store repository.Store, f *Fixtures) error {
	for _, u := range f.Users {
		if err := store.CreateUser(ctx, u.User); err != nil {
			return fmt.Errorf("create user %s: %w", u.Email, err)
		}
	}
	for _, todo := range f.Todos {
		if err := store.CreateTodo(ctx, todo); err != nil {
			return fmt.Errorf("create todo %q: %w", todo.Text, err)
		}
	}
	return nil
}
