// Package storetest holds the behavioural suite every repository.Store
// implementation must pass.
package storetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
)

// NewStore returns an empty store for a single subtest.
type NewStore func(t *testing.T) repository.Store

// Run exercises the store contract against fresh stores from newStore.
func Run(t *testing.T, newStore NewStore) {
	t.Helper()

	t.Run("TodoLifecycle", func(t *testing.T) { testTodoLifecycle(t, newStore(t)) })
	t.Run("TodoNotFound", func(t *testing.T) { testTodoNotFound(t, newStore(t)) })
	t.Run("TodoPartialUpdate", func(t *testing.T) { testTodoPartialUpdate(t, newStore(t)) })
	t.Run("TodoOwnerFilter", func(t *testing.T) { testTodoOwnerFilter(t, newStore(t)) })
	t.Run("UserLookup", func(t *testing.T) { testUserLookup(t, newStore(t)) })
	t.Run("UserDuplicateEmail", func(t *testing.T) { testUserDuplicateEmail(t, newStore(t)) })
	t.Run("UserTokens", func(t *testing.T) { testUserTokens(t, newStore(t)) })
	t.Run("UserPasswordHash", func(t *testing.T) { testUserPasswordHash(t, newStore(t)) })
}

func newTodo(text, owner string) *model.Todo {
	return &model.Todo{
		ID:        model.NewID(),
		Text:      text,
		OwnerID:   owner,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func newUser(email string) *model.User {
	return &model.User{
		ID:           model.NewID(),
		Email:        email,
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
		Tokens:       []model.Token{{Kind: model.TokenKindAuth, Token: "token-" + email}},
		CreatedAt:    time.Now().UTC().Truncate(time.Millisecond),
	}
}

func ptr[T any](v T) *T {
	return &v
}

func testTodoLifecycle(t *testing.T, store repository.Store) {
	ctx := context.Background()

	first := newTodo("First test todo", "")
	second := newTodo("Second test todo", "")
	second.CreatedAt = first.CreatedAt.Add(time.Second)
	for _, todo := range []*model.Todo{first, second} {
		if err := store.CreateTodo(ctx, todo); err != nil {
			t.Fatalf("CreateTodo() error = %v", err)
		}
	}

	todos, err := store.ListTodos(ctx, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos() error = %v", err)
	}
	if len(todos) != 2 {
		t.Fatalf("ListTodos() returned %d todos, want 2", len(todos))
	}

	got, err := store.GetTodo(ctx, first.ID, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("GetTodo() error = %v", err)
	}
	if got.Text != first.Text || got.Completed || got.CompletedAt != nil {
		t.Errorf("GetTodo() = %+v, want fresh %q", got, first.Text)
	}

	completedAt := time.UnixMilli(333)
	updated, err := store.UpdateTodo(ctx, first.ID, repository.TodoPatch{
		Text:        ptr("Updated"),
		Completed:   ptr(true),
		CompletedAt: &completedAt,
	}, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("UpdateTodo() error = %v", err)
	}
	if updated.Text != "Updated" || !updated.Completed {
		t.Errorf("UpdateTodo() = %+v", updated)
	}
	if ms := updated.CompletedAtMillis(); ms == nil || *ms != 333 {
		t.Errorf("CompletedAtMillis() = %v, want 333", ms)
	}

	stored, err := store.GetTodo(ctx, first.ID, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("GetTodo() after update error = %v", err)
	}
	if stored.Text != "Updated" || !stored.Completed || stored.CompletedAt == nil {
		t.Errorf("stored todo = %+v", stored)
	}

	cleared, err := store.UpdateTodo(ctx, first.ID, repository.TodoPatch{Completed: ptr(false)}, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("UpdateTodo() clear error = %v", err)
	}
	if cleared.Completed || cleared.CompletedAt != nil || cleared.Text != "Updated" {
		t.Errorf("cleared todo = %+v, want not completed", cleared)
	}

	deleted, err := store.DeleteTodo(ctx, first.ID, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("DeleteTodo() error = %v", err)
	}
	if deleted.ID != first.ID || deleted.Text != "Updated" {
		t.Errorf("DeleteTodo() = %+v", deleted)
	}

	if _, err := store.GetTodo(ctx, first.ID, repository.TodoFilter{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetTodo() after delete error = %v, want ErrNotFound", err)
	}

	todos, err = store.ListTodos(ctx, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos() error = %v", err)
	}
	if len(todos) != 1 || todos[0].ID != second.ID {
		t.Errorf("ListTodos() after delete = %v, want only %s", todos, second.ID)
	}
}

func testTodoPartialUpdate(t *testing.T, store repository.Store) {
	ctx := context.Background()

	todo := newTodo("partial", "")
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("CreateTodo() error = %v", err)
	}

	completedAt := time.UnixMilli(1_700_000_000_000)
	if _, err := store.UpdateTodo(ctx, todo.ID, repository.TodoPatch{
		Completed:   ptr(true),
		CompletedAt: &completedAt,
	}, repository.TodoFilter{}); err != nil {
		t.Fatalf("UpdateTodo(completed) error = %v", err)
	}

	// A text-only patch must not touch the completion fields.
	got, err := store.UpdateTodo(ctx, todo.ID, repository.TodoPatch{Text: ptr("renamed")}, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("UpdateTodo(text) error = %v", err)
	}
	if got.Text != "renamed" || !got.Completed {
		t.Errorf("UpdateTodo(text) = %+v, want renamed and completed", got)
	}
	if ms := got.CompletedAtMillis(); ms == nil || *ms != completedAt.UnixMilli() {
		t.Errorf("CompletedAtMillis() = %v, want %d", ms, completedAt.UnixMilli())
	}

	unchanged, err := store.UpdateTodo(ctx, todo.ID, repository.TodoPatch{}, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("UpdateTodo(empty) error = %v", err)
	}
	if unchanged.Text != "renamed" || !unchanged.Completed || unchanged.CompletedAt == nil {
		t.Errorf("UpdateTodo(empty) = %+v, want unchanged", unchanged)
	}
}

func testTodoNotFound(t *testing.T, store repository.Store) {
	ctx := context.Background()
	missing := model.NewID()

	if _, err := store.GetTodo(ctx, missing, repository.TodoFilter{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetTodo() error = %v, want ErrNotFound", err)
	}
	if _, err := store.UpdateTodo(ctx, missing, repository.TodoPatch{Text: ptr("x")}, repository.TodoFilter{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdateTodo() error = %v, want ErrNotFound", err)
	}
	if _, err := store.DeleteTodo(ctx, missing, repository.TodoFilter{}); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("DeleteTodo() error = %v, want ErrNotFound", err)
	}

	todos, err := store.ListTodos(ctx, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos() error = %v", err)
	}
	if todos == nil || len(todos) != 0 {
		t.Errorf("ListTodos() = %#v, want empty non-nil slice", todos)
	}
}

func testTodoOwnerFilter(t *testing.T, store repository.Store) {
	ctx := context.Background()

	alice := newUser("alice@example.com")
	bob := newUser("bob@example.com")
	for _, user := range []*model.User{alice, bob} {
		if err := store.CreateUser(ctx, user); err != nil {
			t.Fatalf("CreateUser() error = %v", err)
		}
	}

	mine := newTodo("mine", alice.ID)
	theirs := newTodo("theirs", bob.ID)
	for _, todo := range []*model.Todo{mine, theirs} {
		if err := store.CreateTodo(ctx, todo); err != nil {
			t.Fatalf("CreateTodo() error = %v", err)
		}
	}

	aliceOnly := repository.TodoFilter{OwnerID: alice.ID}

	todos, err := store.ListTodos(ctx, aliceOnly)
	if err != nil {
		t.Fatalf("ListTodos() error = %v", err)
	}
	if len(todos) != 1 || todos[0].ID != mine.ID || todos[0].OwnerID != alice.ID {
		t.Errorf("ListTodos(alice) = %v, want only %s", todos, mine.ID)
	}

	if _, err := store.GetTodo(ctx, theirs.ID, aliceOnly); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetTodo(other owner) error = %v, want ErrNotFound", err)
	}
	if _, err := store.UpdateTodo(ctx, theirs.ID, repository.TodoPatch{Text: ptr("stolen")}, aliceOnly); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("UpdateTodo(other owner) error = %v, want ErrNotFound", err)
	}
	if _, err := store.DeleteTodo(ctx, theirs.ID, aliceOnly); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("DeleteTodo(other owner) error = %v, want ErrNotFound", err)
	}

	all, err := store.ListTodos(ctx, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("ListTodos() error = %v", err)
	}
	if len(all) != 2 {
		t.Errorf("ListTodos(all) returned %d todos, want 2", len(all))
	}
}

func testUserLookup(t *testing.T, store repository.Store) {
	ctx := context.Background()

	user := newUser("Example@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	byID, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if byID.Email != user.Email || byID.PasswordHash != user.PasswordHash {
		t.Errorf("GetUserByID() = %+v", byID)
	}
	if len(byID.Tokens) != 1 || byID.Tokens[0] != user.Tokens[0] {
		t.Errorf("GetUserByID().Tokens = %v, want %v", byID.Tokens, user.Tokens)
	}

	byEmail, err := store.GetUserByEmail(ctx, "Example@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if byEmail.ID != user.ID {
		t.Errorf("GetUserByEmail().ID = %s, want %s", byEmail.ID, user.ID)
	}

	if _, err := store.GetUserByEmail(ctx, "nobody@example.com"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetUserByEmail(unknown) error = %v, want ErrNotFound", err)
	}
	if _, err := store.GetUserByID(ctx, model.NewID()); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetUserByID(unknown) error = %v, want ErrNotFound", err)
	}
}

func testUserDuplicateEmail(t *testing.T, store repository.Store) {
	ctx := context.Background()

	if err := store.CreateUser(ctx, newUser("dup@example.com")); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	err := store.CreateUser(ctx, newUser("dup@example.com"))
	if !errors.Is(err, repository.ErrEmailExists) {
		t.Errorf("CreateUser(duplicate) error = %v, want ErrEmailExists", err)
	}
}

func testUserTokens(t *testing.T, store repository.Store) {
	ctx := context.Background()

	user := newUser("tokens@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	original := user.Tokens[0].Token

	got, err := store.GetUserByToken(ctx, user.ID, original, model.TokenKindAuth)
	if err != nil {
		t.Fatalf("GetUserByToken() error = %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("GetUserByToken().ID = %s, want %s", got.ID, user.ID)
	}

	if _, err := store.GetUserByToken(ctx, user.ID, original, "reset"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetUserByToken(wrong kind) error = %v, want ErrNotFound", err)
	}

	added := model.Token{Kind: model.TokenKindAuth, Token: "second-token"}
	if err := store.AddToken(ctx, user.ID, added); err != nil {
		t.Fatalf("AddToken() error = %v", err)
	}
	if _, err := store.GetUserByToken(ctx, user.ID, added.Token, added.Kind); err != nil {
		t.Errorf("GetUserByToken(added) error = %v", err)
	}

	if err := store.RemoveToken(ctx, user.ID, original); err != nil {
		t.Fatalf("RemoveToken() error = %v", err)
	}
	if _, err := store.GetUserByToken(ctx, user.ID, original, model.TokenKindAuth); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("GetUserByToken(removed) error = %v, want ErrNotFound", err)
	}

	remaining, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if len(remaining.Tokens) != 1 || remaining.Tokens[0] != added {
		t.Errorf("Tokens after remove = %v, want [%v]", remaining.Tokens, added)
	}

	if err := store.AddToken(ctx, model.NewID(), added); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("AddToken(unknown user) error = %v, want ErrNotFound", err)
	}
}

func testUserPasswordHash(t *testing.T, store repository.Store) {
	ctx := context.Background()

	user := newUser("rehash@example.com")
	if err := store.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}
	if err := store.UpdatePasswordHash(ctx, user.ID, "new-hash"); err != nil {
		t.Fatalf("UpdatePasswordHash() error = %v", err)
	}

	got, err := store.GetUserByID(ctx, user.ID)
	if err != nil {
		t.Fatalf("GetUserByID() error = %v", err)
	}
	if got.PasswordHash != "new-hash" {
		t.Errorf("PasswordHash = %q, want new-hash", got.PasswordHash)
	}
}
