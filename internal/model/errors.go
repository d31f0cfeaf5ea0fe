package model

import "errors"

// Domain errors shared by the repository and service layers. Handlers map
// these to HTTP statuses with errors.Is; everything else is a 500.
var (
	// ErrNotFound is returned when a referenced event, registration, or
	// item does not exist (or is cancelled, where cancelled means gone).
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized is returned when no valid session or capability
	// token accompanies the request.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden is returned when the caller is authenticated but lacks
	// the role or ownership the operation requires.
	ErrForbidden = errors.New("forbidden")

	// ErrEventFull is returned when an event is at capacity and its
	// waitlist is disabled.
	ErrEventFull = errors.New("event is full")

	// ErrAlreadyRegistered is returned when the user already holds a
	// non-cancelled registration for the event.
	ErrAlreadyRegistered = errors.New("already registered for this event")

	// ErrAlreadyCheckedIn is returned on a repeated check-in attempt.
	ErrAlreadyCheckedIn = errors.New("already checked in")

	// ErrInvalidState is returned when an operation is not valid for the
	// record's current status, e.g. claiming a claimed item.
	ErrInvalidState = errors.New("operation not valid for current status")

	// ErrRegistrationCancelled is returned when self-service edits target
	// a cancelled registration.
	ErrRegistrationCancelled = errors.New("registration is cancelled")

	// ErrValidation is returned when required fields are missing or a
	// value is outside its enumerated set. Wrap it with detail:
	// fmt.Errorf("%w: outcome is required", model.ErrValidation).
	ErrValidation = errors.New("validation failed")
)
