package service

import (
	"context"
	"errors"
	"fmt"

	"taskboard/internal/auth"
	"taskboard/internal/domain"
	"taskboard/internal/repository"
)

// PasswordHasher hashes and verifies passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(encoded, password string) (bool, error)
}

// UserService describes user lifecycle operations.
type UserService interface {
	Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error)
	Authenticate(ctx context.Context, email, password string) (*domain.User, error)
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	UpdateProfile(ctx context.Context, id int64, in domain.UpdateProfileInput) (*domain.User, error)
}

type userService struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	dummyHash string
}

func NewUserService(users repository.UserRepository, hasher PasswordHasher) (UserService, error) {
	// verified against when the email is unknown so both paths cost one hash
	dummy, err := hasher.Hash("taskboard-dummy-password")
	if err != nil {
		return nil, fmt.Errorf("prepare dummy hash: %w", err)
	}
	return &userService{
		users:     users,
		hasher:    hasher,
		dummyHash: dummy,
	}, nil
}

func (s *userService) Register(ctx context.Context, in domain.RegisterInput) (*domain.User, error) {
	in, errs := domain.ValidateRegister(in)
	if errs != nil {
		return nil, errs
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Email:        in.Email,
		PasswordHash: hash,
		Name:         in.Name,
	}
	if _, err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserAlreadyExists
		}
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) Authenticate(ctx context.Context, email, password string) (*domain.User, error) {
	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			_, _ = s.hasher.Verify(s.dummyHash, password)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	ok, err := s.hasher.Verify(user.PasswordHash, password)
	if err != nil {
		return nil, fmt.Errorf("verify password for user %d: %w", user.ID, err)
	}
	if !ok {
		return nil, ErrInvalidCredentials
	}
	return sanitizeUser(user), nil
}

func (s *userService) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

func (s *userService) UpdateProfile(ctx context.Context, id int64, in domain.UpdateProfileInput) (*domain.User, error) {
	in, errs := domain.ValidateUpdateProfile(in)
	if errs != nil {
		return nil, errs
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Name != nil {
		user.Name = *in.Name
	}
	if in.Password != nil {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}
	if err := s.users.Update(ctx, user); err != nil {
		return nil, err
	}
	return sanitizeUser(user), nil
}

// LocalStrategy adapts a UserService to auth.LocalStrategy.
type LocalStrategy struct {
	Users UserService
}

var _ auth.LocalStrategy = LocalStrategy{}

func (s LocalStrategy) Validate(ctx context.Context, email, password string) (*domain.User, error) {
	return s.Users.Authenticate(ctx, email, password)
}

func sanitizeUser(user *domain.User) *domain.User {
	if user == nil {
		return nil
	}
	return &domain.User{
		ID:            user.ID,
		Email:         user.Email,
		Name:          user.Name,
		CreatedAt:     user.CreatedAt,
		LastUpdatedAt: user.LastUpdatedAt,
	}
}
