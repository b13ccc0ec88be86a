package service

import (
	"context"
	"ctchen222/FindMy/internal/api/models"
	"ctchen222/FindMy/internal/api/repository"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("api.service")

var (
	// ErrInvalidCredentials is returned when the username is unknown or the password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned when a request carries no valid session.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// UserService defines the interface for registration, login and sessions.
type UserService interface {
	Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error)
	Login(ctx context.Context, req *models.LoginRequest) (*models.User, *models.Session, error)
	Logout(ctx context.Context, sessionID string) error
	CurrentUser(ctx context.Context, sessionID string) (*models.User, error)
}

type userService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	hasher      PasswordHasher
	sessionTTL  time.Duration
	// dummyHash is compared against when the username does not exist, so
	// unknown and known usernames take the same time to reject.
	dummyHash string
	now       func() time.Time
}

// NewUserService creates a new UserService.
func NewUserService(userRepo repository.UserRepository, sessionRepo repository.SessionRepository, hasher PasswordHasher, sessionTTL time.Duration) (UserService, error) {
	dummy, err := hasher.Hash(uuid.NewString())
	if err != nil {
		return nil, fmt.Errorf("failed to prepare dummy hash: %w", err)
	}
	return &userService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		hasher:      hasher,
		sessionTTL:  sessionTTL,
		dummyHash:   dummy,
		now:         time.Now,
	}, nil
}

// Register hashes the password and stores a new user. It returns
// repository.ErrDuplicateUsername when the name is taken.
func (s *userService) Register(ctx context.Context, req *models.RegisterRequest) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.Register")
	defer span.End()

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	user := &models.User{
		Username:     req.Username,
		FName:        req.FName,
		PasswordHash: hash,
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if !errors.Is(err, repository.ErrDuplicateUsername) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "create user failed")
		}
		return nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	slog.InfoContext(ctx, "user registered", "user_id", user.ID)
	return user, nil
}

// Login checks the credentials and opens a session for the user.
func (s *userService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, *models.Session, error) {
	ctx, span := tracer.Start(ctx, "UserService.Login")
	defer span.End()

	user, err := s.userRepo.GetUserByUsername(ctx, req.Username)
	if err != nil {
		span.RecordError(err)
		return nil, nil, err
	}

	hash := s.dummyHash
	if user != nil {
		hash = user.PasswordHash
	}
	ok, err := s.hasher.Verify(hash, req.Password)
	if err != nil {
		slog.WarnContext(ctx, "password verification failed", "error", err)
		return nil, nil, ErrInvalidCredentials
	}
	if user == nil || !ok {
		return nil, nil, ErrInvalidCredentials
	}

	now := s.now()
	session := &models.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		Username:  user.Username,
		CreatedAt: now,
		ExpiresAt: now.Add(s.sessionTTL),
	}
	if err := s.sessionRepo.Create(ctx, session); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create session failed")
		return nil, nil, err
	}

	span.SetAttributes(attribute.Int64("user.id", user.ID))
	slog.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return user, session, nil
}

// Logout destroys the session. An empty or unknown session id is not an error.
func (s *userService) Logout(ctx context.Context, sessionID string) error {
	ctx, span := tracer.Start(ctx, "UserService.Logout")
	defer span.End()

	if sessionID == "" {
		return nil
	}
	if err := s.sessionRepo.Delete(ctx, sessionID); err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// CurrentUser resolves a session id to its user, or ErrUnauthenticated.
func (s *userService) CurrentUser(ctx context.Context, sessionID string) (*models.User, error) {
	ctx, span := tracer.Start(ctx, "UserService.CurrentUser")
	defer span.End()

	if sessionID == "" {
		return nil, ErrUnauthenticated
	}
	session, err := s.sessionRepo.Get(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return nil, ErrUnauthenticated
		}
		span.RecordError(err)
		return nil, err
	}
	if session.IsExpired(s.now()) {
		_ = s.sessionRepo.Delete(ctx, sessionID)
		return nil, ErrUnauthenticated
	}

	user, err := s.userRepo.GetUserByID(ctx, session.UserID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	if user == nil {
		return nil, ErrUnauthenticated
	}
	return user, nil
}
