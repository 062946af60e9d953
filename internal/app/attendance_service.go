package app

import (
	"context"
	"errors"
	"time"

	"hr-attendance/internal/logging"
	"hr-attendance/internal/model"
	"hr-attendance/internal/repository"
)

const DefaultRecentLimit = 10

type RecentCache interface {
	GetRecent(ctx context.Context, userID uint, limit int) (records []model.Attendance, generation int64, hit bool, err error)
	SetRecent(ctx context.Context, userID uint, generation int64, limit int, records []model.Attendance) error
	Invalidate(ctx context.Context, userID uint) error
}

type EventPublisher interface {
	Publish(ctx context.Context, event model.AttendanceEvent) error
}

// AttendanceService is the ledger of check-in/check-out sessions. Every
// mutation is scoped to one user and runs in its own transaction.
type AttendanceService struct {
	attendanceRepo *repository.AttendanceRepository
	users          *UserService
	totals         *DailyTotalService
	cache          RecentCache
	publisher      EventPublisher
	logger         logging.Logger
	now            func() time.Time
}

// NewAttendanceService accepts nil cache and publisher. Without a publisher
// daily totals are recomputed inline after check-out.
func NewAttendanceService(
	attendanceRepo *repository.AttendanceRepository,
	users *UserService,
	totals *DailyTotalService,
	cache RecentCache,
	publisher EventPublisher,
	logger logging.Logger,
) *AttendanceService {
	if logger == nil {
		logger = logging.Discard()
	}
	return &AttendanceService{
		attendanceRepo: attendanceRepo,
		users:          users,
		totals:         totals,
		cache:          cache,
		publisher:      publisher,
		logger:         logger.With("component", "attendance"),
		now:            time.Now,
	}
}

func (s *AttendanceService) CheckIn(ctx context.Context, userID uint) (*model.Attendance, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	now := s.now().UTC()

	var created *model.Attendance
	err := s.attendanceRepo.Transaction(ctx, func(tx *repository.AttendanceRepository) error {
		open, err := tx.FindOpen(ctx, userID)
		if err != nil {
			return err
		}
		switch {
		case len(open) > 1:
			return ErrLedgerInconsistent
		case len(open) == 1:
			return ErrAlreadyCheckedIn
		}

		slot := userID
		record := &model.Attendance{
			UserID:   userID,
			CheckIn:  now,
			OpenSlot: &slot,
		}
		if err := tx.Create(ctx, record); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				return ErrAlreadyCheckedIn
			}
			return err
		}
		created = record
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLedgerInconsistent) {
			s.logger.Error(ctx, "open attendance invariant violated", "user_id", userID)
		}
		return nil, err
	}

	s.afterChange(ctx, model.EventCheckIn, created, now)
	return created, nil
}

func (s *AttendanceService) CheckOut(ctx context.Context, userID uint) (*model.Attendance, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	now := s.now().UTC()

	var closed *model.Attendance
	err := s.attendanceRepo.Transaction(ctx, func(tx *repository.AttendanceRepository) error {
		open, err := tx.FindOpenForUpdate(ctx, userID)
		if err != nil {
			return err
		}
		switch {
		case len(open) == 0:
			return ErrNotCheckedIn
		case len(open) > 1:
			return ErrLedgerInconsistent
		}

		record := open[0]
		checkOut := now
		if checkOut.Before(record.CheckIn) {
			checkOut = record.CheckIn
		}
		record.CheckOut = &checkOut
		record.TotalHours = checkOut.Sub(record.CheckIn).Seconds() / 3600
		if err := tx.Close(ctx, &record); err != nil {
			return err
		}
		closed = &record
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLedgerInconsistent) {
			s.logger.Error(ctx, "open attendance invariant violated", "user_id", userID)
		}
		return nil, err
	}

	s.afterChange(ctx, model.EventCheckOut, closed, now)
	return closed, nil
}

// ListRecent returns the caller's latest records, newest check-in first.
func (s *AttendanceService) ListRecent(ctx context.Context, userID uint, limit int) ([]model.Attendance, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	if limit <= 0 {
		limit = DefaultRecentLimit
	}

	// The generation is read before the database so a check-in committed in
	// between leaves this fill on a stale generation.
	var (
		generation int64
		fill       bool
	)
	if s.cache != nil {
		cached, gen, hit, err := s.cache.GetRecent(ctx, userID, limit)
		switch {
		case err != nil:
			s.logger.Warn(ctx, "read attendance cache failed", "user_id", userID, "error", err)
		case hit:
			return cached, nil
		default:
			generation, fill = gen, true
		}
	}

	records, err := s.attendanceRepo.ListByUserID(ctx, userID, 0, limit)
	if err != nil {
		return nil, err
	}

	if fill {
		if err := s.cache.SetRecent(ctx, userID, generation, limit, records); err != nil {
			s.logger.Warn(ctx, "write attendance cache failed", "user_id", userID, "error", err)
		}
	}
	return records, nil
}

// ListForUser is the admin view of any user's history; limit <= 0 returns
// everything after skip.
func (s *AttendanceService) ListForUser(ctx context.Context, userID uint, skip, limit int) ([]model.Attendance, error) {
	if _, err := s.users.Get(ctx, userID); err != nil {
		return nil, err
	}
	if skip < 0 {
		skip = 0
	}
	return s.attendanceRepo.ListByUserID(ctx, userID, skip, limit)
}

func (s *AttendanceService) DailyTotals(ctx context.Context, userID uint, days int) ([]model.DailyTotal, error) {
	if userID == 0 {
		return nil, ErrInvalidInput
	}
	return s.totals.List(ctx, userID, days)
}

// afterChange runs once the transaction is committed. Failures here never
// undo the ledger change, so they are only logged.
func (s *AttendanceService) afterChange(ctx context.Context, kind model.AttendanceEventType, record *model.Attendance, at time.Time) {
	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, record.UserID); err != nil {
			s.logger.Warn(ctx, "invalidate attendance cache failed", "user_id", record.UserID, "error", err)
		}
	}

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, model.NewAttendanceEvent(kind, record, at)); err != nil {
			s.logger.Warn(ctx, "publish attendance event failed",
				"user_id", record.UserID, "attendance_id", record.ID, "type", kind, "error", err)
		}
		return
	}

	if kind == model.EventCheckOut && s.totals != nil {
		if _, err := s.totals.Recompute(ctx, record.UserID, record.CheckIn); err != nil {
			s.logger.Warn(ctx, "recompute daily total failed", "user_id", record.UserID, "error", err)
		}
	}
}
