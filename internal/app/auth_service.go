package app

import (
	"context"
	"strings"
	"time"

	"hr-attendance/internal/model"
	"hr-attendance/internal/pkg/jwtutil"
	"hr-attendance/internal/pkg/password"
)

type AuthService struct {
	users  *UserService
	hasher password.Hasher
	tokens *jwtutil.Issuer
	now    func() time.Time
}

type SignupInput struct {
	Username string
	Email    string
	FullName *string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type LoginResult struct {
	AccessToken string
	TokenType   string
	ExpiresIn   time.Duration
	User        *model.User
}

func NewAuthService(users *UserService, hasher password.Hasher, tokens *jwtutil.Issuer) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
	}
}

// Signup always creates a plain user; admins are made through the admin API
// or the seed command.
func (s *AuthService) Signup(ctx context.Context, input SignupInput) (*model.User, error) {
	return s.users.Create(ctx, CreateUserInput{
		Username: input.Username,
		Email:    input.Email,
		FullName: input.FullName,
		Password: input.Password,
		Role:     model.RoleUser,
	})
}

func (s *AuthService) Login(ctx context.Context, input LoginInput) (*LoginResult, error) {
	username := strings.TrimSpace(input.Username)
	if username == "" || input.Password == "" {
		return nil, ErrInvalidCredential
	}

	user, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		return nil, err
	}
	if user == nil || !s.hasher.Verify(input.Password, user.PasswordHash) {
		return nil, ErrInvalidCredential
	}

	token, err := s.tokens.Issue(user.Username, s.now())
	if err != nil {
		return nil, err
	}
	return &LoginResult{
		AccessToken: token,
		TokenType:   "bearer",
		ExpiresIn:   s.tokens.TTL(),
		User:        user,
	}, nil
}
