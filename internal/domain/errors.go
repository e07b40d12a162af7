// internal/domain/errors.go
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrForbidden is returned by upstream clients on HTTP 403.
	ErrForbidden = errors.New("upstream refused the request")

	// ErrEmptyResponse is returned when an upstream answered without a payload.
	ErrEmptyResponse = errors.New("empty upstream response")
)

// RetrievalError wraps a failed upstream fetch.
type RetrievalError struct {
	Op      string
	Address string
	Status  int
	Err     error
}

func (e *RetrievalError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("retrieval %s for %s failed (status %d): %v", e.Op, e.Address, e.Status, e.Err)
	}
	return fmt.Sprintf("retrieval %s for %s failed: %v", e.Op, e.Address, e.Err)
}

func (e *RetrievalError) Unwrap() error {
	return e.Err
}

// NewRetrievalError creates a RetrievalError.
func NewRetrievalError(op, address string, status int, err error) error {
	return &RetrievalError{Op: op, Address: address, Status: status, Err: err}
}

// ParseError reports malformed user input or a malformed upstream record.
type ParseError struct {
	Input  string
	Token  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Token == "" {
		return fmt.Sprintf("parse %q: %s", e.Input, e.Reason)
	}
	return fmt.Sprintf("parse %q: %s at %q", e.Input, e.Reason, e.Token)
}

// IsRetrieval reports whether err is or wraps a RetrievalError.
func IsRetrieval(err error) bool {
	var re *RetrievalError
	return errors.As(err, &re)
}

// IsParse reports whether err is or wraps a ParseError.
func IsParse(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}
