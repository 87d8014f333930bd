package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"walletguru/internal/auth"
	"walletguru/internal/core"
	"walletguru/internal/ledger"
)

// UserService registers and authenticates users. Users are stored under
// their normalized email so lookups at login need no index.
type UserService struct {
	users *ledger.Collection[core.User]
	now   func() time.Time
}

func NewUserService(store *Store) *UserService {
	return &UserService{users: store.Users, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, email, password string) (core.User, error) {
	u := core.User{
		ID:         newID(),
		Email:      core.NormalizeEmail(email),
		DateJoined: s.now().UTC(),
		Status:     core.UserPending,
	}
	if err := u.Validate(); err != nil {
		return core.User{}, err
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return core.User{}, err
	}
	u.PasswordHash = hash
	if err := s.users.Create(ctx, u); err != nil {
		return core.User{}, fmt.Errorf("register user: %w", err)
	}
	return u, nil
}

// Authenticate returns the user matching the credentials, or
// auth.ErrInvalidCredentials.
func (s *UserService) Authenticate(ctx context.Context, email, password string) (core.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrInvalidKey) {
		return core.User{}, auth.ErrInvalidCredentials
	}
	if err != nil {
		return core.User{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, password); err != nil {
		return core.User{}, err
	}
	return u, nil
}

func (s *UserService) GetByEmail(ctx context.Context, email string) (core.User, error) {
	return s.users.Get(ctx, core.NormalizeEmail(email))
}

// Verify marks the user's email as confirmed.
func (s *UserService) Verify(ctx context.Context, email string) (core.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return core.User{}, err
	}
	u.Status = core.UserVerified
	if err := s.users.Update(ctx, u); err != nil {
		return core.User{}, err
	}
	return u, nil
}
