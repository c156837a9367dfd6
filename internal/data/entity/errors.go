package entity

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound             = errors.New("not found")
	ErrValidation           = errors.New("validation failed")
	ErrSeatUnavailable      = errors.New("seat unavailable")
	ErrInsufficientCapacity = errors.New("insufficient capacity")
	ErrForbidden            = errors.New("forbidden")
	ErrAlreadyCancelled     = errors.New("booking already cancelled")
	ErrInvalidSignature     = errors.New("invalid payment signature")
	ErrInvalidState         = errors.New("invalid booking state")
	ErrAlreadyBooked        = errors.New("show already has bookings")
	ErrInvariantViolation   = errors.New("inventory invariant violated")
	ErrConcurrentUpdate     = errors.New("concurrent update, retry")
)

// SeatConflictError names the seats that could not be reserved.
type SeatConflictError struct {
	Labels []string
}

func (e *SeatConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrSeatUnavailable, strings.Join(e.Labels, ", "))
}

func (e *SeatConflictError) Unwrap() error { return ErrSeatUnavailable }

// ZoneConflictError names the zones without enough remaining capacity.
type ZoneConflictError struct {
	Zones []string
}

func (e *ZoneConflictError) Error() string {
	return fmt.Sprintf("%s: %s", ErrInsufficientCapacity, strings.Join(e.Zones, ", "))
}

func (e *ZoneConflictError) Unwrap() error { return ErrInsufficientCapacity }

// ValidationError carries field messages for the caller.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for field, msg := range e.Fields {
		parts = append(parts, field+": "+msg)
	}
	return fmt.Sprintf("%s: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func NewValidationError(field, msg string) error {
	return &ValidationError{Fields: map[string]string{field: msg}}
}
