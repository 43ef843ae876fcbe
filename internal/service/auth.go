package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/geotrace/geotrace-go/internal/apperror"
	"github.com/geotrace/geotrace-go/internal/crypto"
	"github.com/geotrace/geotrace-go/internal/model"
	"github.com/geotrace/geotrace-go/internal/repository"
)

var (
	ErrInvalidCredentials = apperror.New(apperror.KindUnauthorized, "INVALID_CREDENTIALS", "invalid email or password")
	ErrEmailRequired      = apperror.Validation("EMAIL_REQUIRED", "email is required")
	ErrPasswordRequired   = apperror.Validation("PASSWORD_REQUIRED", "password is required")
	ErrEmailTaken         = apperror.New(apperror.KindConflict, "EMAIL_TAKEN", "email already registered")

	// ErrUserNotFound means a verified token names a user that no longer exists.
	ErrUserNotFound = apperror.New(apperror.KindUnauthorized, "UNAUTHORIZED", "unauthorized")
)

// UserStore is the persistence the auth flow needs.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id string) (*model.User, error)
}

type PasswordHasher interface {
	Hash(ctx context.Context, password string) (string, error)
	Verify(ctx context.Context, password, hash string) bool
}

type TokenSigner interface {
	Configured() bool
	Sign(claims crypto.TokenClaims) (string, error)
}

// AuthService handles authentication business logic.
type AuthService struct {
	users  UserStore
	hasher PasswordHasher
	tokens TokenSigner

	dummyOnce sync.Once
	dummyHash string
}

// NewAuthService creates a new AuthService.
func NewAuthService(users UserStore, hasher PasswordHasher, tokens TokenSigner) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates a new user account and returns a bearer token.
func (s *AuthService) Register(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return "", ErrEmailRequired
	}
	if password == "" {
		return "", ErrPasswordRequired
	}
	// No account is stored unless a token can be issued for it.
	if !s.tokens.Configured() {
		return "", crypto.ErrTokenMisconfigured
	}

	_, err := s.users.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return "", ErrEmailTaken
	case !errors.Is(err, repository.ErrUserNotFound):
		return "", fmt.Errorf("checking existing user: %w", err)
	}

	hash, err := s.hasher.Hash(ctx, password)
	if err != nil {
		return "", err
	}

	user := &model.User{
		Email:        email,
		PasswordHash: hash,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return "", ErrEmailTaken
		}
		return "", fmt.Errorf("creating user: %w", err)
	}

	return s.tokens.Sign(crypto.TokenClaims{Subject: user.ID, Email: user.Email})
}

// Login authenticates a user and returns a bearer token. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = NormalizeEmail(email)

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			s.hasher.Verify(ctx, password, s.dummy(ctx))
			return "", ErrInvalidCredentials
		}
		return "", fmt.Errorf("loading user: %w", err)
	}

	if !s.hasher.Verify(ctx, password, user.PasswordHash) {
		return "", ErrInvalidCredentials
	}

	return s.tokens.Sign(crypto.TokenClaims{Subject: user.ID, Email: user.Email})
}

// GetUser retrieves a user by ID.
func (s *AuthService) GetUser(ctx context.Context, id string) (model.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.User{}, ErrUserNotFound
		}
		return model.User{}, fmt.Errorf("loading user: %w", err)
	}
	return *user, nil
}

// dummy returns a hash at the configured cost, compared against when the
// email is unknown so both login failures take similar time.
func (s *AuthService) dummy(ctx context.Context) string {
	s.dummyOnce.Do(func() {
		hash, err := s.hasher.Hash(context.WithoutCancel(ctx), "geotrace-login-placeholder")
		if err == nil {
			s.dummyHash = hash
		}
	})
	return s.dummyHash
}
