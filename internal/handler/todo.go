package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/handler/dto"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

// TodoHandler handles HTTP requests for todo operations.
type TodoHandler struct {
	svc    *service.TodoService
	logger *slog.Logger
	scoped bool
}

// NewTodoHandler creates a new TodoHandler. When scoped is set, every
// operation is limited to the authenticated caller's todos and responses
// carry the _creator field.
func NewTodoHandler(svc *service.TodoService, logger *slog.Logger, scoped bool) *TodoHandler {
	return &TodoHandler{
		svc:    svc,
		logger: logger,
		scoped: scoped,
	}
}

// ownerID returns the caller's id in scoped mode and "" otherwise.
func (h *TodoHandler) ownerID(r *http.Request) string {
	if !h.scoped {
		return ""
	}
	return auth.UserIDFromContext(r.Context())
}

// Create handles POST /todos.
func (h *TodoHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.svc.CreateTodo(r.Context(), service.CreateTodoInput{
		Text:    req.Text,
		OwnerID: h.ownerID(r),
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_created", "todo_id", todo.ID)

	writeJSON(w, http.StatusOK, dto.ToTodoResponse(todo, h.scoped))
}

// List handles GET /todos.
func (h *TodoHandler) List(w http.ResponseWriter, r *http.Request) {
	todos, err := h.svc.ListTodos(r.Context(), h.ownerID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTodoListResponse(todos, h.scoped))
}

// Get handles GET /todos/{id}.
func (h *TodoHandler) Get(w http.ResponseWriter, r *http.Request) {
	todo, err := h.svc.GetTodo(r.Context(), chi.URLParam(r, "id"), h.ownerID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo, h.scoped)})
}

// Update handles PATCH /todos/{id}.
func (h *TodoHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req dto.UpdateTodoRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	todo, err := h.svc.UpdateTodo(r.Context(), service.UpdateTodoInput{
		ID:        chi.URLParam(r, "id"),
		OwnerID:   h.ownerID(r),
		Text:      req.Text,
		Completed: req.Completed,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_updated", "todo_id", todo.ID, "completed", todo.Completed)

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo, h.scoped)})
}

// Delete handles DELETE /todos/{id}.
func (h *TodoHandler) Delete(w http.ResponseWriter, r *http.Request) {
	todo, err := h.svc.DeleteTodo(r.Context(), chi.URLParam(r, "id"), h.ownerID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("todo_deleted", "todo_id", todo.ID)

	writeJSON(w, http.StatusOK, dto.TodoEnvelope{Todo: dto.ToTodoResponse(todo, h.scoped)})
}
