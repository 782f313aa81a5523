package domain

import (
	"errors"
	"strings"
)

var (
	ErrPatientNotFound  = errors.New("patient not found")
	ErrDoctorNotFound   = errors.New("doctor not found")
	ErrMappingNotFound  = errors.New("mapping not found")
	ErrDuplicateMapping = errors.New("patient is already assigned to this doctor")

	ErrUserNotFound       = errors.New("user not found")
	ErrUserExists         = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
	ErrUnauthorized       = errors.New("authentication required")

	// ErrValidation is matched by every *ValidationError via errors.Is.
	ErrValidation = errors.New("validation failed")
)

// ValidationError lists the field problems found on an input.
type ValidationError struct {
	Problems []string
}

// NewValidationError builds a ValidationError from one or more messages.
func NewValidationError(problems ...string) *ValidationError {
	return &ValidationError{Problems: problems}
}

func (e *ValidationError) Error() string {
	return strings.Join(e.Problems, "; ")
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}
