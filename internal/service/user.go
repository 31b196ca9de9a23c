package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/lukeybeachboy/todo-api/internal/auth"
	"github.com/lukeybeachboy/todo-api/internal/metrics"
	"github.com/lukeybeachboy/todo-api/internal/model"
	"github.com/lukeybeachboy/todo-api/internal/repository"
	"github.com/lukeybeachboy/todo-api/internal/validation"
)

// Service errors.
var (
	ErrEmailTaken         = errors.New("email already in use")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUnauthorized       = errors.New("unauthorized")
)

// TokenCache stores token resolutions keyed by a hash of the token.
// GetUser returns nil, nil on a miss.
type TokenCache interface {
	GetUser(ctx context.Context, tokenKey string) (*model.User, error)
	SetUser(ctx context.Context, tokenKey string, user *model.User) error
	DeleteUser(ctx context.Context, tokenKey string) error
}

// UserService handles sign-up, login and token resolution.
type UserService struct {
	repo      repository.UserRepository
	issuer    *auth.TokenIssuer
	cache     TokenCache
	validator *validation.Validator
	metrics   metrics.Recorder
	logger    *slog.Logger
	now       func() time.Time
}

// NewUserService creates a new UserService.
// cache may be nil, in which case every resolution hits the store.
func NewUserService(repo repository.UserRepository, issuer *auth.TokenIssuer, cache TokenCache, recorder metrics.Recorder, logger *slog.Logger) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserService{
		repo:      repo,
		issuer:    issuer,
		cache:     cache,
		validator: validation.New(),
		metrics:   recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// CredentialsInput is the email and password pair used to sign up and log in.
type CredentialsInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// Session is a user together with a freshly issued token.
type Session struct {
	User  *model.User
	Token string
}

// CreateUser registers a new account and issues its first auth token.
// The email keeps its original case.
func (s *UserService) CreateUser(ctx context.Context, input CredentialsInput) (*Session, error) {
	input.Email = strings.TrimSpace(input.Email)
	if err := s.validator.Struct(input); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		ID:           model.NewID(),
		Email:        input.Email,
		PasswordHash: hash,
		CreatedAt:    s.now().UTC(),
	}

	token, err := s.issuer.Issue(user.ID, model.TokenKindAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	user.Tokens = []model.Token{{Kind: model.TokenKindAuth, Token: token}}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserSignup()

	return &Session{User: user, Token: token}, nil
}

// Login verifies credentials and issues an additional auth token.
// Legacy password hashes are upgraded on success.
func (s *UserService) Login(ctx context.Context, input CredentialsInput) (*Session, error) {
	email := strings.TrimSpace(input.Email)
	if email == "" || input.Password == "" {
		s.metrics.IncLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			s.metrics.IncLogin(metrics.ResultFailure)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	ok, err := auth.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !ok {
		s.metrics.IncLogin(metrics.ResultFailure)
		return nil, ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.rehash(ctx, user, input.Password)
	}

	token, err := s.issuer.Issue(user.ID, model.TokenKindAuth)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	issued := model.Token{Kind: model.TokenKindAuth, Token: token}
	if err := s.repo.AddToken(ctx, user.ID, issued); err != nil {
		return nil, fmt.Errorf("failed to store token: %w", err)
	}
	user.Tokens = append(user.Tokens, issued)

	s.metrics.IncLogin(metrics.ResultSuccess)

	return &Session{User: user, Token: token}, nil
}

// Logout revokes token for the user and evicts its cached resolution.
func (s *UserService) Logout(ctx context.Context, userID, token string) error {
	if err := s.repo.RemoveToken(ctx, userID, token); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUnauthorized
		}
		return fmt.Errorf("failed to remove token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.DeleteUser(ctx, auth.QuickHash(token)); err != nil {
			s.logger.Warn("token cache eviction failed", "error", err)
		}
	}

	return nil
}

// Resolve returns the user owning token. The token must carry a valid
// signature and still be present in the user's token list.
func (s *UserService) Resolve(ctx context.Context, token string) (*model.User, error) {
	user, err := s.resolve(ctx, token)
	if err != nil {
		s.metrics.IncTokenResolve(metrics.ResultFailure)
		return nil, err
	}
	s.metrics.IncTokenResolve(metrics.ResultSuccess)
	return user, nil
}

func (s *UserService) resolve(ctx context.Context, token string) (*model.User, error) {
	if token == "" {
		return nil, ErrUnauthorized
	}

	claims, err := s.issuer.Parse(token)
	if err != nil {
		return nil, ErrUnauthorized
	}
	if claims.Access != model.TokenKindAuth {
		return nil, ErrUnauthorized
	}

	cacheKey := auth.QuickHash(token)

	if s.cache != nil {
		cached, err := s.cache.GetUser(ctx, cacheKey)
		if err != nil {
			s.logger.Warn("token cache lookup failed", "error", err)
		} else if cached != nil && cached.ID == claims.Subject {
			s.metrics.IncTokenCacheHit()
			return cached, nil
		}
		s.metrics.IncTokenCacheMiss()
	}

	user, err := s.repo.GetUserByToken(ctx, claims.Subject, token, claims.Access)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	if s.cache != nil {
		if err := s.cache.SetUser(ctx, cacheKey, user); err != nil {
			s.logger.Warn("token cache store failed", "error", err)
		}
	}

	return user, nil
}

func (s *UserService) rehash(ctx context.Context, user *model.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	if err := s.repo.UpdatePasswordHash(ctx, user.ID, hash); err != nil {
		s.logger.Warn("password rehash failed", "user_id", user.ID, "error", err)
		return
	}
	user.PasswordHash = hash
}
