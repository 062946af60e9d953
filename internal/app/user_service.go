package app

import (
	"context"
	"errors"
	"strings"

	"hr-attendance/internal/model"
	"hr-attendance/internal/pkg/password"
	"hr-attendance/internal/repository"
)

const (
	minPasswordLength = 8
	defaultUserLimit  = 100
	maxUserLimit      = 500
)

type UserService struct {
	userRepo *repository.UserRepository
	hasher   password.Hasher
}

type CreateUserInput struct {
	Username string
	Email    string
	FullName *string
	Password string
	Role     model.Role
}

// UpdateUserInput is a patch: nil fields are left untouched.
type UpdateUserInput struct {
	Username *string
	Email    *string
	FullName *string
	Password *string
	Role     *model.Role
}

func NewUserService(userRepo *repository.UserRepository, hasher password.Hasher) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
	}
}

func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*model.User, error) {
	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	role := input.Role
	if role == "" {
		role = model.RoleUser
	}
	if username == "" || email == "" || len(input.Password) < minPasswordLength || !role.Valid() {
		return nil, ErrInvalidInput
	}

	existingByEmail, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existingByEmail != nil {
		return nil, ErrEmailExists
	}

	existingByName, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if existingByName != nil {
		return nil, ErrUsernameExists
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Username:     username,
		Email:        email,
		FullName:     trimOptional(input.FullName),
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

func (s *UserService) Get(ctx context.Context, id uint) (*model.User, error) {
	if id == 0 {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context, skip, limit int) ([]model.User, error) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultUserLimit
	}
	if limit > maxUserLimit {
		limit = maxUserLimit
	}
	return s.userRepo.List(ctx, skip, limit)
}

func (s *UserService) Update(ctx context.Context, id uint, input UpdateUserInput) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Username != nil {
		username := strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, ErrInvalidInput
		}
		if username != user.Username {
			other, err := s.userRepo.GetByUsername(ctx, username)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, ErrUsernameExists
			}
			user.Username = username
		}
	}

	if input.Email != nil {
		email := normalizeEmail(*input.Email)
		if email == "" {
			return nil, ErrInvalidInput
		}
		if email != user.Email {
			other, err := s.userRepo.GetByEmail(ctx, email)
			if err != nil {
				return nil, err
			}
			if other != nil && other.ID != user.ID {
				return nil, ErrEmailExists
			}
			user.Email = email
		}
	}

	if input.FullName != nil {
		user.FullName = trimOptional(input.FullName)
	}

	if input.Role != nil {
		if !input.Role.Valid() {
			return nil, ErrInvalidInput
		}
		user.Role = *input.Role
	}

	if input.Password != nil {
		if len(*input.Password) < minPasswordLength {
			return nil, ErrInvalidInput
		}
		hash, err := s.hasher.Hash(*input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Save(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserExists
		}
		return nil, err
	}
	return user, nil
}

// Delete removes the user and returns the row as it was. Attendance rows are
// kept; they reference the user by id only.
func (s *UserService) Delete(ctx context.Context, id uint) (*model.User, error) {
	user, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.userRepo.Delete(ctx, user.ID); err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func trimOptional(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// EnsureAdmin creates the admin account or, when the username is taken,
// promotes it and resets its password. created reports which path ran.
func (s *UserService) EnsureAdmin(ctx context.Context, username, email, plain string) (user *model.User, created bool, err error) {
	existing, err := s.userRepo.GetByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, false, err
	}
	if existing == nil {
		user, err = s.Create(ctx, CreateUserInput{
			Username: username,
			Email:    email,
			Password: plain,
			Role:     model.RoleAdmin,
		})
		return user, err == nil, err
	}

	role := model.RoleAdmin
	user, err = s.Update(ctx, existing.ID, UpdateUserInput{Password: &plain, Role: &role})
	return user, false, err
}
