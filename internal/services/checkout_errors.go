package services

import "fmt"

// Checkout failure taxonomy. Every failure surfaces as one human-readable
// message; handlers map the types to HTTP statuses.

// ValidationError rejects a submission before any write happens.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

var ErrEmptyCart = &ValidationError{Msg: "cart is empty"}

// StockConflictError means a requested quantity exceeds live availability,
// caught either at stock verification or by a conditional decrement.
type StockConflictError struct {
	ProductName string
	Requested   int
	Available   int
}

func (e *StockConflictError) Error() string {
	return fmt.Sprintf("insufficient stock for %s", e.ProductName)
}

// IdentityError aborts checkout when the buyer record cannot be resolved or
// created, before any order write.
type IdentityError struct {
	Msg string
	Err error
}

func (e *IdentityError) Error() string { return e.Msg }
func (e *IdentityError) Unwrap() error { return e.Err }

// PartialCommitError is the severe case: a step failed after writes began AND
// at least one compensation also failed, leaving the backend partially
// written. When all compensations succeed the original typed error is
// returned instead, since nothing was left behind.
type PartialCommitError struct {
	Step    string
	Err     error
	CompErr error
}

func (e *PartialCommitError) Error() string {
	return fmt.Sprintf("checkout failed at %s and cleanup was incomplete: %v (cleanup: %v)", e.Step, e.Err, e.CompErr)
}

func (e *PartialCommitError) Unwrap() error { return e.Err }
