package repository

import (
	"errors"
	"fmt"

	"hr-attendance/internal/platform/database"
)

// ErrDuplicate wraps unique-index violations so services can match them with
// errors.Is regardless of the SQL dialect.
var ErrDuplicate = errors.New("duplicate key")

func wrapWrite(op string, err error) error {
	if database.IsUniqueViolation(err) {
		return fmt.Errorf("%s failed: %w: %v", op, ErrDuplicate, err)
	}
	return fmt.Errorf("%s failed: %w", op, err)
}
