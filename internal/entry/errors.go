package entry

import (
	"errors"
	"fmt"
)

// Sentinel errors. Match them with errors.Is.
var (
	// ErrValidation marks input rejected before persistence.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an operation on an id that no longer exists.
	ErrNotFound = errors.New("entry not found")
	// ErrNetwork marks an operation that could not be attempted or completed.
	ErrNetwork = errors.New("network error")
	// ErrSubscription marks a failure of a live subscription.
	ErrSubscription = errors.New("subscription error")
)

// ValidationError describes a user-correctable problem with one field.
type ValidationError struct {
	Field  string
	Reason string
}

// Invalid returns a ValidationError for field.
func Invalid(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// NotFound wraps ErrNotFound with the missing id.
func NotFound(id string) error {
	return fmt.Errorf("%w: %s", ErrNotFound, id)
}

// NetworkError reports a transport failure during Op.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool {
	return target == ErrNetwork
}

// Network wraps err as a NetworkError. A nil err stays nil.
func Network(op string, err error) error {
	if err == nil {
		return nil
	}
	return &NetworkError{Op: op, Err: err}
}

// SubscriptionError reports that the live subscription for Owner failed.
// The last delivered snapshot stays valid.
type SubscriptionError struct {
	Owner string
	Err   error
}

func (e *SubscriptionError) Error() string {
	return fmt.Sprintf("subscription for %q: %v", e.Owner, e.Err)
}

func (e *SubscriptionError) Unwrap() error { return e.Err }

func (e *SubscriptionError) Is(target error) bool {
	return target == ErrSubscription
}
