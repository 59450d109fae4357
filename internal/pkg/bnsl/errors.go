package bnsl

import "errors"

// Validation errors: returned synchronously, nothing mutated, not retried.
var (
	ErrTemplateInactive    = errors.New("template is not active")
	ErrNoMatchingVariant   = errors.New("no active variant for requested tenor")
	ErrInvalidTenor        = errors.New("invalid tenor for template")
	ErrGoldOutOfRange      = errors.New("gold amount outside template bounds")
	ErrRateOutOfBounds     = errors.New("margin rate outside template bounds")
	ErrInsufficientBalance = errors.New("insufficient available gold balance")
)

// State errors: the transition is illegal from the plan's current status.
var (
	ErrPlanNotFound           = errors.New("plan not found")
	ErrNotDraft               = errors.New("plan is not in draft status")
	ErrNotActive              = errors.New("plan is not active")
	ErrNoTerminationRequested = errors.New("plan has no pending termination request")
	ErrNotMature              = errors.New("plan has not reached maturity")
)

// ErrConcurrentModification means another transition won the race on this
// plan. Nothing was written; the caller may retry.
var ErrConcurrentModification = errors.New("plan was modified concurrently")

// ErrFatalInconsistency marks a partial debit/credit that must never be
// retried automatically: it requires operator reconciliation.
var ErrFatalInconsistency = errors.New("fatal ledger inconsistency")

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
