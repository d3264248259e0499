package services

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is returned when caller input is missing or malformed.
	ErrValidation = errors.New("validation failed")
	// ErrInvalidCredentials is returned when a username or password is wrong.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
