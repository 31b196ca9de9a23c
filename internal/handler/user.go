package handler

import (
	"log/slog"
	"net/http"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/handler/dto"
	"github.com/lukeybeachboy/todo-api/internal/middleware"
	"github.com/lukeybeachboy/todo-api/internal/service"
)

// UserHandler handles sign-up and token management.
type UserHandler struct {
	svc    *service.UserService
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(svc *service.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		svc:    svc,
		logger: logger,
	}
}

// Create handles POST /users.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.CreateUser(r.Context(), service.CredentialsInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_created", "user_id", session.User.ID)

	h.writeSession(w, session)
}

// Login handles POST /users/login.
func (h *UserHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req dto.CredentialsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	session, err := h.svc.Login(r.Context(), service.CredentialsInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_logged_in", "user_id", session.User.ID)

	h.writeSession(w, session)
}

// Me handles GET /users/me. The auth middleware has already resolved the caller.
func (h *UserHandler) Me(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthFromContext(r.Context())
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, struct{}{})
		return
	}

	writeJSON(w, http.StatusOK, dto.UserResponse{ID: a.UserID, Email: a.Email})
}

// Logout handles DELETE /users/me/token.
func (h *UserHandler) Logout(w http.ResponseWriter, r *http.Request) {
	a := auth.AuthFromContext(r.Context())
	if a == nil {
		writeJSON(w, http.StatusUnauthorized, struct{}{})
		return
	}

	if err := h.svc.Logout(r.Context(), a.UserID, a.Token); err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("user_logged_out", "user_id", a.UserID)

	w.WriteHeader(http.StatusOK)
}

func (h *UserHandler) writeSession(w http.ResponseWriter, session *service.Session) {
	w.Header().Set(middleware.AuthHeader, session.Token)
	writeJSON(w, http.StatusOK, dto.ToUserResponse(session.User))
}
