// Command seed loads the fixture users and todos into a document store
// and prints the auth token of the first fixture user.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/repository"
	"github.com/lukeybeachboy/todo-api/internal/repository/mongodb"
	"github.com/lukeybeachboy/todo-api/internal/repository/postgres"
	"github.com/lukeybeachboy/todo-api/internal/seed"
	"github.com/lukeybeachboy/todo-api/migrations"
)

type seededUser struct {
	ID       string `json:"_id"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Token    string `json:"token,omitempty"`
}

type seededTodo struct {
	ID   string `json:"_id"`
	Text string `json:"text"`
}

type output struct {
	Users []seededUser `json:"users"`
	Todos []seededTodo `json:"todos"`
}

func main() {
	var (
		driver        = flag.String("driver", envOr("STORE_DRIVER", "mongo"), "Store driver: mongo or postgres")
		mongoURI      = flag.String("mongo-uri", envOr("MONGO_URI", "mongodb://localhost:27017"), "MongoDB connection string")
		mongoDatabase = flag.String("mongo-database", envOr("MONGO_DATABASE", "TodoApp"), "MongoDB database name")
		databaseURL   = flag.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL connection string")
		jwtSecret     = flag.String("jwt-secret", os.Getenv("JWT_SECRET"), "Secret used to sign the fixture token")
		format        = flag.String("format", "plain", "Output format: plain or json")
	)
	flag.Parse()

	if *jwtSecret == "" {
		fmt.Fprintln(os.Stderr, "JWT_SECRET is required")
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	store, err := openStore(ctx, *driver, *mongoURI, *mongoDatabase, *databaseURL)
	if err != nil {
		fmt.Fprintln(os.Stderr, "connect store:", err)
		os.Exit(1)
	}
	defer store.Close(context.Background())

	fixtures, err := seed.Build(auth.NewTokenIssuer(*jwtSecret, 0))
	if err != nil {
		fmt.Fprintln(os.Stderr, "build fixtures:", err)
		os.Exit(1)
	}

	if err := ensureNotSeeded(ctx, store, fixtures); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}

	if err := seed.Apply(ctx, store, fixtures); err != nil {
		fmt.Fprintln(os.Stderr, "apply fixtures:", err)
		os.Exit(1)
	}

	out := toOutput(fixtures)

	switch strings.ToLower(*format) {
	case "plain":
		fmt.Println(out.Users[0].Token)
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		_ = enc.Encode(out)
	default:
		fmt.Fprintln(os.Stderr, "invalid format; use plain or json")
		os.Exit(1)
	}
}

func openStore(ctx context.Context, driver, mongoURI, mongoDatabase, databaseURL string) (repository.Store, error) {
	switch driver {
	case "mongo":
		return mongodb.New(ctx, mongoURI, mongoDatabase)
	case "postgres":
		if databaseURL == "" {
			return nil, errors.New("DATABASE_URL is required for the postgres store")
		}
		if err := migrations.Up(databaseURL); err != nil {
			return nil, fmt.Errorf("migrate: %w", err)
		}
		return postgres.New(ctx, databaseURL)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

// ensureNotSeeded refuses to run twice against the same store.
func ensureNotSeeded(ctx context.Context, store repository.UserRepository, f *seed.Fixtures) error {
	for _, u := range f.Users {
		existing, err := store.GetUserByEmail(ctx, u.Email)
		if err == nil {
			return fmt.Errorf("fixture user %s already exists as %s", u.Email, existing.ID)
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("look up %s: %w", u.Email, err)
		}
	}
	return nil
}

func toOutput(f *seed.Fixtures) output {
	out := output{
		Users: make([]seededUser, 0, len(f.Users)),
		Todos: make([]seededTodo, 0, len(f.Todos)),
	}
	for _, u := range f.Users {
		su := seededUser{ID: u.ID, Email: u.Email, Password: u.Password}
		if len(u.Tokens) > 0 {
			su.Token = u.Tokens[0].Token
		}
		out.Users = append(out.Users, su)
	}
	for _, todo := range f.Todos {
		out.Todos = append(out.Todos, seededTodo{ID: todo.ID, Text: todo.Text})
	}
	return out
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
