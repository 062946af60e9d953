package app

import "errors"

// Error texts double as the HTTP detail string.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrUsernameExists    = errors.New("Username already registered")
	ErrEmailExists       = errors.New("Email already registered")
	ErrUserExists        = errors.New("Username or email already registered")
	ErrInvalidCredential = errors.New("Incorrect username or password")
	ErrUserNotFound      = errors.New("User not found")

	ErrAlreadyCheckedIn   = errors.New("User already checked in")
	ErrNotCheckedIn       = errors.New("User not checked in")
	ErrLedgerInconsistent = errors.New("more than one open attendance session")
)
