package model

import "time"

// Attendance is one check-in/check-out session. OpenSlot mirrors UserID while
// CheckOut is nil and is cleared on close; its unique index allows at most one
// open session per user.
type Attendance struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	UserID     uint       `gorm:"not null;index" json:"user_id"`
	CheckIn    time.Time  `gorm:"not null;index" json:"check_in"`
	CheckOut   *time.Time `json:"check_out"`
	TotalHours float64    `gorm:"not null;default:0" json:"total_hours"`
	OpenSlot   *uint      `gorm:"uniqueIndex:idx_attendance_open_slot" json:"-"`
}

func (Attendance) TableName() string {
	return "attendance"
}

// DailyTotal is derived from closed attendance rows, keyed by the UTC date of
// the check-in.
type DailyTotal struct {
	ID         uint      `gorm:"primaryKey" json:"-"`
	UserID     uint      `gorm:"not null;uniqueIndex:idx_daily_total_user_date,priority:1" json:"user_id"`
	WorkDate   string    `gorm:"size:10;not null;uniqueIndex:idx_daily_total_user_date,priority:2" json:"work_date"`
	TotalHours float64   `gorm:"not null;default:0" json:"total_hours"`
	Sessions   int       `gorm:"not null;default:0" json:"sessions"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (DailyTotal) TableName() string {
	return "attendance_daily_totals"
}

const WorkDateLayout = "2006-01-02"
