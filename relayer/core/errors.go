package core

import (
	"errors"
	"fmt"
)

var (
	// ErrTransientChain marks network/rpc failures. Nothing is changed and the work is retried next cycle.
	ErrTransientChain = errors.New("transient chain error")
	// ErrPermanentRelayFailure marks records which exhausted their attempts
	ErrPermanentRelayFailure = errors.New("permanent relay failure")
	ErrUnmappedToken         = errors.New("no side token mapped for main token")
)

// SubmissionError is returned when the destination call is rejected or cannot be sent
type SubmissionError struct {
	Chain  string
	Method string
	Err    error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission of %s to %s failed: %v", e.Method, e.Chain, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// VerificationMismatchError describes a confirmed destination event which disagrees with its source intent
type VerificationMismatchError struct {
	IdempotencyKey    string
	DestinationTxHash string
	Discrepancy       string
}

func (e *VerificationMismatchError) Error() string {
	return fmt.Sprintf("verification mismatch for %s (destination tx %s): %s",
		e.IdempotencyKey, e.DestinationTxHash, e.Discrepancy)
}

func NewTransientChainError(chainID string, err error) error {
	return fmt.Errorf("%w on %s: %w", ErrTransientChain, chainID, err)
}
