package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"hr-attendance/internal/model"
	"hr-attendance/internal/pkg/jwtutil"
	"hr-attendance/internal/pkg/password"
	"hr-attendance/internal/repository"
	"hr-attendance/internal/testutil"
)

type fixture struct {
	db         *gorm.DB
	userRepo   *repository.UserRepository
	users      *UserService
	auth       *AuthService
	gate       *Gate
	totals     *DailyTotalService
	attendance *AttendanceService
	tokens     *jwtutil.Issuer
	clock      *fakeClock
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []model.AttendanceEvent
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e model.AttendanceEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func newFixture(t *testing.T, publisher EventPublisher, cache RecentCache) *fixture {
	t.Helper()

	db := testutil.NewDB(t)
	clock := &fakeClock{now: time.Date(2024, 4, 2, 8, 0, 0, 0, time.UTC)}

	tokens, err := jwtutil.NewIssuer("test-secret", "HS256", 30*time.Minute)
	require.NoError(t, err)

	hasher := password.NewBcrypt(bcrypt.MinCost)
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	users := NewUserService(userRepo, hasher)

	auth := NewAuthService(users, hasher, tokens)
	auth.now = clock.Now
	gate := NewGate(tokens, userRepo)
	gate.now = clock.Now
	totals := NewDailyTotalService(attendanceRepo, repository.NewDailyTotalRepository(db))
	totals.now = clock.Now
	attendance := NewAttendanceService(attendanceRepo, users, totals, cache, publisher, nil)
	attendance.now = clock.Now

	return &fixture{
		db:         db,
		userRepo:   userRepo,
		users:      users,
		auth:       auth,
		gate:       gate,
		totals:     totals,
		attendance: attendance,
		tokens:     tokens,
		clock:      clock,
	}
}

func (f *fixture) mustUser(t *testing.T, username string, role model.Role) *model.User {
	t.Helper()
	u, err := f.users.Create(context.Background(), CreateUserInput{
		Username: username,
		Email:    username + "@example.com",
		Password: "password123",
		Role:     role,
	})
	require.NoError(t, err)
	return u
}

func (f *fixture) openCount(t *testing.T, userID uint) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Attendance{}).
		Where("user_id = ? AND check_out IS NULL", userID).
		Count(&n).Error)
	return n
}
