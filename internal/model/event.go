package model

import "time"

type AttendanceEventType string

const (
	EventCheckIn  AttendanceEventType = "check_in"
	EventCheckOut AttendanceEventType = "check_out"
)

// AttendanceEvent is the queue payload published after a ledger change.
type AttendanceEvent struct {
	Type         AttendanceEventType `json:"type"`
	AttendanceID uint                `json:"attendance_id"`
	UserID       uint                `json:"user_id"`
	CheckIn      time.Time           `json:"check_in"`
	CheckOut     *time.Time          `json:"check_out,omitempty"`
	TotalHours   float64             `json:"total_hours"`
	OccurredAt   time.Time           `json:"occurred_at"`
}

func NewAttendanceEvent(t AttendanceEventType, a *Attendance, at time.Time) AttendanceEvent {
	return AttendanceEvent{
		Type:         t,
		AttendanceID: a.ID,
		UserID:       a.UserID,
		CheckIn:      a.CheckIn,
		CheckOut:     a.CheckOut,
		TotalHours:   a.TotalHours,
		OccurredAt:   at,
	}
}
