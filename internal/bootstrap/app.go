package bootstrap

import (
	"context"
	"fmt"
	"os"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"hr-attendance/internal/app"
	"hr-attendance/internal/cache"
	"hr-attendance/internal/config"
	"hr-attendance/internal/logging"
	"hr-attendance/internal/pkg/jwtutil"
	"hr-attendance/internal/pkg/password"
	"hr-attendance/internal/platform/database"
	rabbitmqClient "hr-attendance/internal/platform/rabbitmq"
	redisClient "hr-attendance/internal/platform/redis"
	"hr-attendance/internal/repository"
	"hr-attendance/internal/worker"
)

type App struct {
	Config           *config.Config
	Logger           logging.Logger
	DB               *gorm.DB
	Redis            *redis.Client
	MQConn           *amqp.Connection
	DailyTotalWorker *worker.DailyTotalWorker
	Services         *Services

	StartedAt time.Time
}

type Services struct {
	Users       *app.UserService
	Auth        *app.AuthService
	Attendance  *app.AttendanceService
	DailyTotals *app.DailyTotalService
	Gate        *app.Gate
}

// NewServices wires repositories and services on top of an open database.
// cache and publisher may be nil.
func NewServices(
	cfg *config.Config,
	db *gorm.DB,
	recent app.RecentCache,
	publisher app.EventPublisher,
	logger logging.Logger,
) (*Services, error) {
	tokens, err := jwtutil.NewIssuer(
		cfg.Auth.SecretKey,
		cfg.Auth.Algorithm,
		time.Duration(cfg.Auth.AccessTokenExpireMinutes)*time.Minute,
	)
	if err != nil {
		return nil, fmt.Errorf("create token issuer failed: %w", err)
	}

	hasher := password.NewBcrypt(cfg.Auth.BcryptCost)
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	totalRepo := repository.NewDailyTotalRepository(db)

	users := app.NewUserService(userRepo, hasher)
	totals := app.NewDailyTotalService(attendanceRepo, totalRepo)

	return &Services{
		Users:       users,
		Auth:        app.NewAuthService(users, hasher, tokens),
		Attendance:  app.NewAttendanceService(attendanceRepo, users, totals, recent, publisher, logger),
		DailyTotals: totals,
		Gate:        app.NewGate(tokens, userRepo),
	}, nil
}

func New(ctx context.Context) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config failed: %w", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Level, cfg.Log.Format).With("app", cfg.App.Name)
	a := &App{Config: cfg, Logger: logger, StartedAt: time.Now()}

	if err := a.open(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}
	return a, nil
}

func (a *App) open(ctx context.Context) error {
	cfg := a.Config

	db, err := database.New(ctx, cfg.Database.Driver, cfg.DSN())
	if err != nil {
		return err
	}
	a.DB = db
	if err := database.Migrate(db); err != nil {
		return err
	}

	a.Redis, err = redisClient.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		return err
	}
	a.MQConn, err = rabbitmqClient.New(ctx, cfg.RabbitMQ.URL, cfg.RabbitMQ.AttendanceQueue)
	if err != nil {
		return err
	}

	// Typed nil pointers must not leak into the interfaces.
	var recent app.RecentCache
	if a.Redis != nil {
		recent = cache.NewAttendanceCache(a.Redis, time.Duration(cfg.Redis.RecentTTLSeconds)*time.Second)
	} else {
		a.Logger.Warn(ctx, "redis not configured, recent attendance cache disabled")
	}
	var publisher app.EventPublisher
	if a.MQConn != nil {
		publisher = rabbitmqClient.NewEventPublisher(a.MQConn, cfg.RabbitMQ.AttendanceQueue)
	} else {
		a.Logger.Warn(ctx, "rabbitmq not configured, daily totals computed inline")
	}

	a.Services, err = NewServices(cfg, db, recent, publisher, a.Logger)
	if err != nil {
		return err
	}

	if a.MQConn != nil {
		a.DailyTotalWorker = worker.NewDailyTotalWorker(a.MQConn, a.Services.DailyTotals, cfg.RabbitMQ.AttendanceQueue, a.Logger)
		if err := a.DailyTotalWorker.Start(ctx); err != nil {
			return fmt.Errorf("start daily total worker failed: %w", err)
		}
	}

	a.Logger.Info(ctx, "bootstrap complete",
		"db_driver", cfg.Database.Driver,
		"redis", a.Redis != nil,
		"rabbitmq", a.MQConn != nil,
	)
	return nil
}

func (a *App) Close() error {
	var closeErr error
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DailyTotalWorker != nil {
		a.DailyTotalWorker.Close()
	}
	if a.MQConn != nil {
		if err := a.MQConn.Close(); err != nil {
			closeErr = err
		}
	}
	if a.DB != nil {
		if err := database.Close(a.DB); err != nil {
			closeErr = err
		}
	}
	return closeErr
}
