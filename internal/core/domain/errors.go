package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrQueueInvalidName ...
	ErrQueueInvalidName = errors.New("queue name must not be empty")
	// ErrQueueInvalidAsset ...
	ErrQueueInvalidAsset = errors.New("queue target asset must not be empty")
	// ErrQueueInvalidStrategyType ...
	ErrQueueInvalidStrategyType = errors.New("settlement strategy type not supported")
	// ErrQueueAlreadyExists is returned when adding a queue whose name is taken.
	ErrQueueAlreadyExists = errors.New("lender queue already exists")
	// ErrQueueNotFound ...
	ErrQueueNotFound = errors.New("lender queue does not exist")
	// ErrQueueInsufficientAmount is returned when a withdrawal request is
	// below the queue's minimum amount.
	ErrQueueInsufficientAmount = errors.New("withdrawal amount is below the minimum")
	// ErrWithdrawalAlreadyInert is returned when cancelling a row that has
	// already been cancelled or settled.
	ErrWithdrawalAlreadyInert = errors.New("withdrawal request has already been cancelled or settled")
	// ErrLedgerOutOfBounds ...
	ErrLedgerOutOfBounds = errors.New("ledger index out of bounds")
	// ErrLedgerHeadOverflow is returned when advancing the head past the
	// ledger length.
	ErrLedgerHeadOverflow = errors.New("ledger head cannot advance past length")
)

// InsufficientGasFeeError is returned when the native payment attached to
// a withdrawal request does not cover the queue's current bonded fee.
type InsufficientGasFeeError struct {
	Required uint64
	Paid     uint64
}

func (e InsufficientGasFeeError) Error() string {
	return fmt.Sprintf(
		"insufficient gas fee: required %d, paid %d", e.Required, e.Paid,
	)
}

// WithdrawalRequestOutOfBoundsError is returned when cancelling an index
// that does not reference a currently unsettled row.
type WithdrawalRequestOutOfBoundsError struct {
	Index       uint64
	QueueLength uint64
}

func (e WithdrawalRequestOutOfBoundsError) Error() string {
	return fmt.Sprintf(
		"withdrawal request out of bounds: index %d, queue length %d",
		e.Index, e.QueueLength,
	)
}

// CallerIsNotRequestAccountError is returned when somebody other than the
// request owner attempts a cancellation.
type CallerIsNotRequestAccountError struct {
	Owner  string
	Caller string
}

func (e CallerIsNotRequestAccountError) Error() string {
	return fmt.Sprintf(
		"caller %s is not the request account %s", e.Caller, e.Owner,
	)
}

// InsufficientWithdrawalCapacityError is returned when a batch asks to
// settle more rows than are left unsettled.
type InsufficientWithdrawalCapacityError struct {
	Requested uint64
	Available uint64
}

func (e InsufficientWithdrawalCapacityError) Error() string {
	return fmt.Sprintf(
		"insufficient withdrawal capacity: requested %d, available %d",
		e.Requested, e.Available,
	)
}

// FailedToWithdrawNativeGasError is returned when sweeping more native
// currency than the queue holds.
type FailedToWithdrawNativeGasError struct {
	Amount uint64
}

func (e FailedToWithdrawNativeGasError) Error() string {
	return fmt.Sprintf("failed to withdraw %d of native gas", e.Amount)
}

// RedemptionAmountGreaterThanForeclosedLiabilitiesError is returned by the
// redemption pool when burning more receipts than it has issued.
type RedemptionAmountGreaterThanForeclosedLiabilitiesError struct {
	Requested uint64
	Available uint64
}

func (e RedemptionAmountGreaterThanForeclosedLiabilitiesError) Error() string {
	return fmt.Sprintf(
		"redemption amount %d greater than foreclosed liabilities %d",
		e.Requested, e.Available,
	)
}

// UnauthorizedError is returned on privileged operations attempted by an
// account missing the required role.
type UnauthorizedError struct {
	Caller       string
	RequiredRole string
}

func (e UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"account %s is missing required role %s", e.Caller, e.RequiredRole,
	)
}
