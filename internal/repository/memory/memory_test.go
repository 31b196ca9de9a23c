package memory

import (
	"context"
	"testing"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
	"github.com/lukeybeachboy/todo-api/internal/repository/storetest"
)

func TestStore(t *testing.T) {
	storetest.Run(t, func(t *testing.T) repository.Store {
		return New()
	})
}

func TestStore_ReturnsCopies(t *testing.T) {
	t.Parallel()
	store := New()
	ctx := context.Background()

	todo := &model.Todo{ID: model.NewID(), Text: "copied", CreatedAt: time.Now().UTC()}
	if err := store.CreateTodo(ctx, todo); err != nil {
		t.Fatalf("CreateTodo() error = %v", err)
	}

	text := "patched"
	updated, err := store.UpdateTodo(ctx, todo.ID, repository.TodoPatch{Text: &text}, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("UpdateTodo() error = %v", err)
	}
	updated.Text = "mutated by caller"

	got, err := store.GetTodo(ctx, todo.ID, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("GetTodo() error = %v", err)
	}
	if got.Text != "patched" {
		t.Errorf("Text = %q, want %q", got.Text, "patched")
	}

	internal := store.todos[todo.ID]
	deleted, err := store.DeleteTodo(ctx, todo.ID, repository.TodoFilter{})
	if err != nil {
		t.Fatalf("DeleteTodo() error = %v", err)
	}
	if deleted == internal {
		t.Error("DeleteTodo() returned the stored pointer, want a copy")
	}
	if deleted.Text != "patched" {
		t.Errorf("DeleteTodo().Text = %q, want %q", deleted.Text, "patched")
	}
}
