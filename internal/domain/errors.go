// internal/domain/errors.go
package domain

import "errors"

var (
	ErrUnauthorized  = errors.New("user not authenticated")
	ErrNotFound      = errors.New("record not found")
	ErrConflict      = errors.New("record already exists")
	ErrMissingID     = errors.New("record id is required")
	ErrMissingName   = errors.New("name is required")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrInvalidDay    = errors.New("day of month must be between 1 and 31")
)

// IsValidation reports whether err was caused by bad input rather than by storage.
func IsValidation(err error) bool {
	return errors.Is(err, ErrMissingID) ||
		errors.Is(err, ErrMissingName) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrInvalidDay)
}

// ValidDay reports whether day is a day-of-month value the model accepts.
// There is no calendar check: 31 is valid even though some months never reach it.
func ValidDay(day int) bool {
	return day >= 1 && day <= 31
}
