// Package dto provides Data Transfer Objects for API requests and responses.
package dto

import "github.com/lukeybeachboy/todo-api/internal/model"

// CreateTodoRequest represents the request body for creating a todo.
type CreateTodoRequest struct {
	Text string `json:"text"`
}

// UpdateTodoRequest represents the request body for patching a todo.
// Absent fields are left untouched.
type UpdateTodoRequest struct {
	Text      *string `json:"text,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

// TodoResponse represents a todo in API responses.
type TodoResponse struct {
	ID          string `json:"_id"`
	Text        string `json:"text"`
	Completed   bool   `json:"completed"`
	CompletedAt *int64 `json:"completedAt"`
	Creator     string `json:"_creator,omitempty"`
}

// TodoEnvelope wraps a single todo.
type TodoEnvelope struct {
	Todo TodoResponse `json:"todo"`
}

// TodoListResponse wraps every todo visible to the caller.
type TodoListResponse struct {
	Todos []TodoResponse `json:"todos"`
}

// ToTodoResponse converts a model.Todo to TodoResponse.
// The creator is only exposed when includeCreator is set.
func ToTodoResponse(todo *model.Todo, includeCreator bool) TodoResponse {
	resp := TodoResponse{
		ID:          todo.ID,
		Text:        todo.Text,
		Completed:   todo.Completed,
		CompletedAt: todo.CompletedAtMillis(),
	}
	if includeCreator {
		resp.Creator = todo.OwnerID
	}
	return resp
}

// ToTodoListResponse converts a slice of todos; it never returns a nil list.
func ToTodoListResponse(todos []*model.Todo, includeCreator bool) TodoListResponse {
	out := make([]TodoResponse, 0, len(todos))
	for _, todo := range todos {
		out = append(out, ToTodoResponse(todo, includeCreator))
	}
	return TodoListResponse{Todos: out}
}
