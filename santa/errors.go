/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package santa

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyName            = errors.New("participant name must not be empty")
	ErrInvalidName          = errors.New("participant name must be valid UTF-8")
	ErrDuplicateParticipant = errors.New("participant already exists")
	ErrTooFewParticipants   = fmt.Errorf("need at least %d participants", MinParticipants)
	ErrGenerationFailed     = errors.New("could not generate valid assignments")
	ErrMalformedState       = errors.New("malformed state")
)

// DecodeError reports a state field that could not be decoded. The field
// falls back to its empty value; the rest of the state is unaffected.
type DecodeError struct {
	Field string
	Err   error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Field, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a roster problem the user can fix,
// as opposed to a generation or decode failure.
func IsValidation(err error) bool {
	return errors.Is(err, ErrEmptyName) ||
		errors.Is(err, ErrInvalidName) ||
		errors.Is(err, ErrDuplicateParticipant) ||
		errors.Is(err, ErrTooFewParticipants)
}
