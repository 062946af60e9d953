package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"hr-attendance/internal/model"
)

type DailyTotalRepository struct {
	db *gorm.DB
}

func NewDailyTotalRepository(db *gorm.DB) *DailyTotalRepository {
	return &DailyTotalRepository{db: db}
}

func (r *DailyTotalRepository) Upsert(ctx context.Context, total *model.DailyTotal) error {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "user_id"}, {Name: "work_date"}},
			DoUpdates: clause.AssignmentColumns([]string{"total_hours", "sessions", "updated_at"}),
		}).
		Create(total).Error
	if err != nil {
		return fmt.Errorf("upsert daily total failed: %w", err)
	}
	return nil
}

// ListSince returns totals with work_date >= sinceDate, newest first.
func (r *DailyTotalRepository) ListSince(ctx context.Context, userID uint, sinceDate string) ([]model.DailyTotal, error) {
	totals := make([]model.DailyTotal, 0)
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND work_date >= ?", userID, sinceDate).
		Order("work_date DESC").
		Find(&totals).Error
	if err != nil {
		return nil, fmt.Errorf("list daily totals failed: %w", err)
	}
	return totals, nil
}
