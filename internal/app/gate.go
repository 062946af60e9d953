package app

import (
	"context"
	"strings"
	"time"

	"hr-attendance/internal/model"
	"hr-attendance/internal/pkg/jwtutil"
	"hr-attendance/internal/repository"
)

type AccessStatus int

const (
	AccessUnauthorized AccessStatus = iota
	AccessAuthenticated
	AccessForbidden
	// AccessFailed means the store could not be queried; it is not a
	// verdict about the caller.
	AccessFailed
)

func (s AccessStatus) String() string {
	switch s {
	case AccessAuthenticated:
		return "authenticated"
	case AccessForbidden:
		return "forbidden"
	case AccessFailed:
		return "failed"
	default:
		return "unauthorized"
	}
}

type Requirement int

const (
	RequireUser Requirement = iota
	RequireAdmin
)

// AccessResult is the outcome of resolving one request's credentials. User is
// set for Authenticated and Forbidden.
type AccessResult struct {
	Status AccessStatus
	User   *model.User
	Detail string
	Err    error
}

// Gate resolves token -> identity -> user record -> role for every request.
// It keeps no state between calls.
type Gate struct {
	tokens   *jwtutil.Issuer
	userRepo *repository.UserRepository
	now      func() time.Time
}

func NewGate(tokens *jwtutil.Issuer, userRepo *repository.UserRepository) *Gate {
	return &Gate{
		tokens:   tokens,
		userRepo: userRepo,
		now:      time.Now,
	}
}

func (g *Gate) Resolve(ctx context.Context, authorization string, req Requirement) AccessResult {
	token, ok := BearerToken(authorization)
	if !ok {
		return AccessResult{Status: AccessUnauthorized, Detail: "Not authenticated"}
	}

	claims, err := g.tokens.Verify(token, g.now())
	if err != nil {
		return AccessResult{Status: AccessUnauthorized, Detail: "Could not validate credentials", Err: err}
	}

	user, err := g.userRepo.GetByUsername(ctx, claims.Subject)
	if err != nil {
		return AccessResult{Status: AccessFailed, Detail: "Could not validate credentials", Err: err}
	}
	if user == nil {
		return AccessResult{Status: AccessUnauthorized, Detail: "Could not validate credentials"}
	}

	if req == RequireAdmin && !user.IsAdmin() {
		return AccessResult{Status: AccessForbidden, User: user, Detail: "The user doesn't have enough privileges"}
	}
	return AccessResult{Status: AccessAuthenticated, User: user}
}

// BearerToken extracts the credentials of an "Authorization: Bearer <token>"
// header. The scheme is case-insensitive.
func BearerToken(header string) (string, bool) {
	header = strings.TrimSpace(header)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", false
	}
	return token, true
}
