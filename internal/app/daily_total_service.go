package app

import (
	"context"
	"time"

	"hr-attendance/internal/model"
	"hr-attendance/internal/repository"
)

const (
	defaultDailyWindow = 30
	maxDailyWindow     = 366
)

// DailyTotalService maintains the per-day hour totals derived from closed
// attendance records.
type DailyTotalService struct {
	attendanceRepo *repository.AttendanceRepository
	totalRepo      *repository.DailyTotalRepository
	now            func() time.Time
}

func NewDailyTotalService(attendanceRepo *repository.AttendanceRepository, totalRepo *repository.DailyTotalRepository) *DailyTotalService {
	return &DailyTotalService{
		attendanceRepo: attendanceRepo,
		totalRepo:      totalRepo,
		now:            time.Now,
	}
}

// Recompute rebuilds the total of the UTC day containing checkIn from the
// ledger, so applying it twice yields the same row.
func (s *DailyTotalService) Recompute(ctx context.Context, userID uint, checkIn time.Time) (*model.DailyTotal, error) {
	day := startOfDay(checkIn)
	sum, err := s.attendanceRepo.SumClosed(ctx, userID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, err
	}

	total := &model.DailyTotal{
		UserID:     userID,
		WorkDate:   day.Format(model.WorkDateLayout),
		TotalHours: sum.TotalHours,
		Sessions:   sum.Sessions,
		UpdatedAt:  s.now().UTC(),
	}
	if err := s.totalRepo.Upsert(ctx, total); err != nil {
		return nil, err
	}
	return total, nil
}

// List returns totals for the last days (today included), newest first.
func (s *DailyTotalService) List(ctx context.Context, userID uint, days int) ([]model.DailyTotal, error) {
	if days <= 0 {
		days = defaultDailyWindow
	}
	if days > maxDailyWindow {
		days = maxDailyWindow
	}
	since := startOfDay(s.now()).AddDate(0, 0, -(days - 1))
	return s.totalRepo.ListSince(ctx, userID, since.Format(model.WorkDateLayout))
}

func startOfDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
