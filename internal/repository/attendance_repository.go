package repository

import (
	"context"
	"fmt"
	"math"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hr-attendance/internal/model"
)

type AttendanceRepository struct {
	db *gorm.DB
}

func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Transaction runs fn against a repository bound to a single transaction.
func (r *AttendanceRepository) Transaction(ctx context.Context, fn func(tx *AttendanceRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&AttendanceRepository{db: tx})
	})
}

// FindOpen returns up to two open records of a user without locking. Check-in
// relies on the open_slot unique index instead: a gap lock here would let two
// concurrent inserts deadlock on MySQL rather than fail with a duplicate key.
func (r *AttendanceRepository) FindOpen(ctx context.Context, userID uint) ([]model.Attendance, error) {
	return r.findOpen(r.db.WithContext(ctx), userID)
}

// FindOpenForUpdate is FindOpen with the rows locked where the dialect
// supports it. Check-out uses it so two closes of one record serialize.
func (r *AttendanceRepository) FindOpenForUpdate(ctx context.Context, userID uint) ([]model.Attendance, error) {
	q := r.db.WithContext(ctx)
	if q.Dialector.Name() != "sqlite" {
		q = q.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return r.findOpen(q, userID)
}

func (r *AttendanceRepository) findOpen(q *gorm.DB, userID uint) ([]model.Attendance, error) {
	var open []model.Attendance
	err := q.
		Where("user_id = ? AND check_out IS NULL", userID).
		Order("check_in DESC").
		Limit(2).
		Find(&open).Error
	if err != nil {
		return nil, fmt.Errorf("query open attendance failed: %w", err)
	}
	return open, nil
}

func (r *AttendanceRepository) Create(ctx context.Context, record *model.Attendance) error {
	if err := r.db.WithContext(ctx).Create(record).Error; err != nil {
		return wrapWrite("create attendance", err)
	}
	return nil
}

func (r *AttendanceRepository) Close(ctx context.Context, record *model.Attendance) error {
	res := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Where("id = ? AND check_out IS NULL", record.ID).
		Updates(map[string]interface{}{
			"check_out":   record.CheckOut,
			"total_hours": record.TotalHours,
			"open_slot":   nil,
		})
	if res.Error != nil {
		return fmt.Errorf("close attendance failed: %w", res.Error)
	}
	if res.RowsAffected != 1 {
		return fmt.Errorf("close attendance %d failed: record is not open", record.ID)
	}
	record.OpenSlot = nil
	return nil
}

// ListByUserID orders by check-in descending; limit <= 0 means no limit.
func (r *AttendanceRepository) ListByUserID(ctx context.Context, userID uint, offset, limit int) ([]model.Attendance, error) {
	records := make([]model.Attendance, 0)
	q := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("check_in DESC").
		Order("id DESC")
	if limit <= 0 && offset > 0 {
		// MySQL rejects OFFSET without LIMIT.
		limit = math.MaxInt32
	}
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("list attendance failed: %w", err)
	}
	return records, nil
}

type ClosedSum struct {
	TotalHours float64
	Sessions   int
}

// SumClosed aggregates closed records whose check-in falls in [from, to).
func (r *AttendanceRepository) SumClosed(ctx context.Context, userID uint, from, to time.Time) (ClosedSum, error) {
	var sum ClosedSum
	err := r.db.WithContext(ctx).
		Model(&model.Attendance{}).
		Select("COALESCE(SUM(total_hours), 0) AS total_hours, COUNT(*) AS sessions").
		Where("user_id = ? AND check_out IS NOT NULL AND check_in >= ? AND check_in < ?", userID, from, to).
		Scan(&sum).Error
	if err != nil {
		return ClosedSum{}, fmt.Errorf("sum closed attendance failed: %w", err)
	}
	return sum, nil
}
