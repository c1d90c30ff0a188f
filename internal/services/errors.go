package services

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned when the caller may not touch the resource.
	ErrForbidden = errors.New("forbidden")

	// ErrValidation wraps every client-facing input error.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidCredentials is returned by a failed login.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
