package domain

import "fmt"

// ValidationError reports a malformed, missing or out-of-enum field.
// Surfaced as HTTP 400.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// AuthorizationError reports that the principal lacks rights for the
// attempted action. Surfaced as HTTP 403, never retried.
type AuthorizationError struct {
	Reason string
}

func (e *AuthorizationError) Error() string {
	return e.Reason
}

// PreconditionError reports a state-machine guard violation. Surfaced as
// HTTP 409; the caller must re-fetch current state before retrying.
type PreconditionError struct {
	Message string
}

func (e *PreconditionError) Error() string {
	return e.Message
}

// NotFoundError reports an unknown id or person. Surfaced as HTTP 404.
type NotFoundError struct {
	What string
}

func (e *NotFoundError) Error() string {
	return e.What + " not found"
}
