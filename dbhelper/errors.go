package dbhelper

import (
	"errors"
	"time"
)

var (
	ErrNotFound           = errors.New("record not found")
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTooManyAttempts    = errors.New("too many login attempts")
	ErrWrongVaultPassword = errors.New("vault password does not match")
)

// BanError reports a login lockout and when it lifts.
type BanError struct {
	Until time.Time
}

func (e *BanError) Error() string { return ErrTooManyAttempts.Error() }

func (e *BanError) Is(target error) bool { return target == ErrTooManyAttempts }
