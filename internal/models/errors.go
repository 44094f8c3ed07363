package models

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	// ErrAuthenticationMissing means no secret is stored for the integration.
	ErrAuthenticationMissing = errors.New("authentication missing")
	// ErrUnauthorized means Notion rejected the stored secret.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrTransformation means a request payload could not be built.
	ErrTransformation = errors.New("transformation failure")
	// ErrMissingTarget means the form has no target database selected.
	ErrMissingTarget = fmt.Errorf("%w: no target database selected", ErrTransformation)
	// ErrDecode means a Notion response is missing required fields.
	ErrDecode = errors.New("malformed response")
	// ErrSkip means an event produced no update. It is not a failure.
	ErrSkip = errors.New("skip")
	// ErrInputNotFound means the form has no input carrying the expected tag.
	ErrInputNotFound = errors.New("input not found")
)

// AuthError is the uniform authentication failure of an integration.
type AuthError struct {
	IntegrationID uuid.UUID
	Err           error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("integration %s: %v", e.IntegrationID, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}
