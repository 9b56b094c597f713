// Package failure classifies handler errors.
//
// Invalid requests are recovered by the handlers and turned into a 400
// response. Dependency failures are never recovered: they are returned to the
// Lambda runtime so the platform's retry and dead-letter policy applies.
package failure

import (
	"errors"
	"fmt"
)

// ErrInvalidRequest is returned when the inbound event has no usable connection id
var ErrInvalidRequest = errors.New("invalid request")

// DependencyError wraps an error returned by a managed service call
type DependencyError struct {
	Service string
	Op      string
	Err     error
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *DependencyError) Unwrap() error {
	return e.Err
}

// Dependency wraps err as a DependencyError; nil stays nil
func Dependency(service, op string, err error) error {
	if err == nil {
		return nil
	}
	return &DependencyError{Service: service, Op: op, Err: err}
}

// IsDependencyFailure checks if err came from a managed service call
func IsDependencyFailure(err error) bool {
	var dep *DependencyError
	return errors.As(err, &dep)
}

// IsInvalidRequest checks if err is (or wraps) ErrInvalidRequest
func IsInvalidRequest(err error) bool {
	return errors.Is(err, ErrInvalidRequest)
}
