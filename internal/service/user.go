// Package service provides business logic for the application.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/forkful/forkful/internal/auth"
	"github.com/forkful/forkful/internal/metrics"
	"github.com/forkful/forkful/internal/model"
	"github.com/forkful/forkful/internal/repository"
)

// User service errors.
var (
	ErrEmptyEmail         = errors.New("email must not be empty")
	ErrInvalidEmail       = errors.New("invalid email address")
	ErrPasswordTooShort   = errors.New("password is too short")
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserNotFound       = errors.New("user not found")
)

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 5

// AuthCacheInvalidator evicts cached auth contexts after profile changes.
// Satisfied by *cache.Cache; a nil invalidator disables eviction.
type AuthCacheInvalidator interface {
	DeleteAuthContext(ctx context.Context, cacheKey string) error
}

// UserService handles registration, authentication and profile updates.
type UserService struct {
	repo      *repository.Repository
	authCache AuthCacheInvalidator
	metrics   metrics.Recorder
}

// NewUserService creates a new UserService.
func NewUserService(repo *repository.Repository, authCache AuthCacheInvalidator, recorder metrics.Recorder) *UserService {
	if recorder == nil {
		recorder = metrics.NewNoop()
	}
	return &UserService{repo: repo, authCache: authCache, metrics: recorder}
}

// RegisterInput defines input for registering a user.
type RegisterInput struct {
	Email    string
	Password string
	Name     string
}

// Register creates a new active user with a hashed password.
func (s *UserService) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	email, err := normalizeEmail(input.Email)
	if err != nil {
		return nil, err
	}

	if len(input.Password) < MinPasswordLength {
		return nil, ErrPasswordTooShort
	}

	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &model.User{
		ID:           ulid.Make().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         strings.TrimSpace(input.Name),
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.metrics.IncUserRegistered()

	return user, nil
}

// CreateSuperuser creates a user with staff and superuser flags set.
func (s *UserService) CreateSuperuser(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.Register(ctx, RegisterInput{Email: email, Password: password})
	if err != nil {
		return nil, err
	}

	user.IsStaff = true
	user.IsSuperuser = true
	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to elevate user: %w", err)
	}

	return user, nil
}

// Authenticate verifies an email/password pair against an active user.
// All failure modes collapse into ErrInvalidCredentials so callers cannot
// distinguish an unknown address from a wrong password.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (*model.User, error) {
	normalized, err := normalizeEmail(email)
	if err != nil {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	user, err := s.repo.GetUserByEmail(ctx, normalized)
	if err != nil {
		s.metrics.IncAuthFailure()
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.IsActive {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	match, err := auth.VerifyPassword(password, user.PasswordHash)
	if err != nil || !match {
		s.metrics.IncAuthFailure()
		return nil, ErrInvalidCredentials
	}

	return user, nil
}

// IssueToken returns the user's bearer token, creating one on first use.
// Issuing is idempotent: repeated calls return the same token.
func (s *UserService) IssueToken(ctx context.Context, userID string) (*model.Token, error) {
	token, err := s.repo.GetTokenByUserID(ctx, userID)
	if err == nil {
		return token, nil
	}
	if !errors.Is(err, repository.ErrTokenNotFound) {
		return nil, fmt.Errorf("failed to look up token: %w", err)
	}

	key, err := auth.GenerateToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	token = &model.Token{
		Key:       key,
		UserID:    userID,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.CreateToken(ctx, token); err != nil {
		// Another request won the race - return its token
		if errors.Is(err, repository.ErrTokenExists) {
			return s.repo.GetTokenByUserID(ctx, userID)
		}
		return nil, fmt.Errorf("failed to store token: %w", err)
	}

	s.metrics.IncTokenIssued()

	return token, nil
}

// UpdateProfileInput defines a partial profile update.
// Nil fields are left unchanged.
type UpdateProfileInput struct {
	Email    *string
	Name     *string
	Password *string
}

// UpdateProfile applies a partial update to the user's own profile.
// A supplied password is re-hashed before storage.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if input.Email != nil {
		email, err := normalizeEmail(*input.Email)
		if err != nil {
			return nil, err
		}
		user.Email = email
	}

	if input.Name != nil {
		user.Name = strings.TrimSpace(*input.Name)
	}

	if input.Password != nil {
		if len(*input.Password) < MinPasswordLength {
			return nil, ErrPasswordTooShort
		}
		hash, err := auth.HashPassword(*input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.UpdatedAt = time.Now().UTC()

	if err := s.repo.UpdateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	// The auth middleware may still hold the pre-update identity; evict it
	// so the change is visible on the next request rather than at TTL expiry.
	s.invalidateAuthContext(ctx, userID)

	return user, nil
}

// invalidateAuthContext evicts the cached auth context tied to the user's
// token. Best effort: a miss or cache error only delays the refresh.
func (s *UserService) invalidateAuthContext(ctx context.Context, userID string) {
	if s.authCache == nil {
		return
	}
	token, err := s.repo.GetTokenByUserID(ctx, userID)
	if err != nil {
		return
	}
	_ = s.authCache.DeleteAuthContext(ctx, auth.QuickHash(token.Key))
}

// GetUser returns a user by id.
func (s *UserService) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// normalizeEmail validates an email address and lowercases it.
// The whole address is lowercased, local part included, so lookups are
// case-insensitive end to end.
func normalizeEmail(email string) (string, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return "", ErrEmptyEmail
	}

	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return "", ErrInvalidEmail
	}

	return strings.ToLower(email), nil
}
