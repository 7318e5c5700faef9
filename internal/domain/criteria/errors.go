// internal/domain/criteria/errors.go

package criteria

import (
	"errors"
	"strings"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSearchNotFound  = errors.New("search not found")
	ErrInvalidCriteria = errors.New("invalid search criteria")
	ErrTooManySessions = errors.New("too many active sessions")
	ErrUnparsableTime  = errors.New("unparsable date/time")
)

// ValidationError carries the criteria messages that blocked a search
type ValidationError struct {
	Messages []string
}

func (e *ValidationError) Error() string {
	return ErrInvalidCriteria.Error() + ": " + strings.Join(e.Messages, " ")
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidCriteria
}
