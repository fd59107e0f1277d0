package core

import (
	"fmt"
)

type RelayStatus string

const (
	RelayStatusPending   RelayStatus = "pending"
	RelayStatusSubmitted RelayStatus = "submitted"
	RelayStatusConfirmed RelayStatus = "confirmed"
	RelayStatusFailed    RelayStatus = "failed"
	RelayStatusMismatch  RelayStatus = "mismatch"
)

var AllRelayStatuses = []RelayStatus{
	RelayStatusPending, RelayStatusSubmitted, RelayStatusConfirmed, RelayStatusFailed, RelayStatusMismatch,
}

func ParseRelayStatus(value string) (RelayStatus, error) {
	for _, status := range AllRelayStatuses {
		if string(status) == value {
			return status, nil
		}
	}

	return "", fmt.Errorf("unknown relay status: %s", value)
}

// IsTerminal reports whether a status needs a human (failed, mismatch) or is done (confirmed)
func (s RelayStatus) IsTerminal() bool {
	return s == RelayStatusConfirmed || s == RelayStatusFailed || s == RelayStatusMismatch
}

func (s RelayStatus) NeedsAttention() bool {
	return s == RelayStatusFailed || s == RelayStatusMismatch
}

type RelayRecord struct {
	IdempotencyKey    string       `json:"key"`
	Status            RelayStatus  `json:"status"`
	Intent            *RelayIntent `json:"intent"`
	DestinationTxHash string       `json:"destinationTxHash,omitempty"`
	LastError         string       `json:"lastError,omitempty"`
	Attempts          uint32       `json:"attempts"`
	Drops             uint32       `json:"drops"`
	LastAttemptBlock  uint64       `json:"lastAttemptBlock"`
}

func NewRelayRecord(intent *RelayIntent) *RelayRecord {
	return &RelayRecord{
		IdempotencyKey: intent.IdempotencyKey,
		Status:         RelayStatusPending,
		Intent:         intent,
	}
}

func (r *RelayRecord) DBKey() []byte {
	return []byte(r.IdempotencyKey)
}

func (r *RelayRecord) String() string {
	return fmt.Sprintf(
		"{key=%s, status=%s, attempts=%d, drops=%d, destTx=%s, lastAttemptBlock=%d, lastError=%s}",
		r.IdempotencyKey, r.Status, r.Attempts, r.Drops, r.DestinationTxHash,
		r.LastAttemptBlock, r.LastError)
}

// CanBeSubmitted is true for records that still have attempts left and are not handled elsewhere
func (r *RelayRecord) CanBeSubmitted(maxAttempts uint32) bool {
	return (r.Status == RelayStatusPending || r.Status == RelayStatusFailed) &&
		r.Attempts < maxAttempts && r.Drops < maxAttempts
}

// ToSubmitted records a successful submission at destination block number
func (r *RelayRecord) ToSubmitted(destinationTxHash string, blockNumber uint64) {
	r.Status = RelayStatusSubmitted
	r.DestinationTxHash = destinationTxHash
	r.Attempts++
	r.LastAttemptBlock = blockNumber
	r.LastError = ""
}

// ToSubmissionFailed records a failed submission. The record becomes failed once maxAttempts is reached.
func (r *RelayRecord) ToSubmissionFailed(err error, blockNumber uint64, maxAttempts uint32) {
	r.Attempts++
	r.LastAttemptBlock = blockNumber
	r.LastError = err.Error()

	r.retryOrFail(maxAttempts)
}

// ToReverted records a destination transaction that was mined but reverted
func (r *RelayRecord) ToReverted(maxAttempts uint32) {
	r.LastError = fmt.Sprintf("destination tx %s reverted", r.DestinationTxHash)
	r.DestinationTxHash = ""

	r.retryOrFail(maxAttempts)
}

// ToDropped records a destination transaction that vanished (reorged out or never mined).
// Attempts are reset but drops are counted so the record cannot cycle forever.
func (r *RelayRecord) ToDropped(maxAttempts uint32) {
	r.Drops++
	r.LastError = fmt.Sprintf("destination tx %s dropped", r.DestinationTxHash)
	r.DestinationTxHash = ""

	if r.Drops >= maxAttempts {
		r.Status = RelayStatusFailed

		return
	}

	r.Attempts = 0
	r.Status = RelayStatusPending
}

func (r *RelayRecord) ToConfirmed() {
	r.Status = RelayStatusConfirmed
	r.LastError = ""
}

func (r *RelayRecord) ToMismatch(discrepancy string) {
	r.Status = RelayStatusMismatch
	r.LastError = discrepancy
}

// ToReplay gives a permanently failed record a fresh budget. Used only by operators.
func (r *RelayRecord) ToReplay() {
	r.Status = RelayStatusPending
	r.Attempts = 0
	r.Drops = 0
	r.DestinationTxHash = ""
}

func (r *RelayRecord) retryOrFail(maxAttempts uint32) {
	if r.Attempts >= maxAttempts {
		r.Status = RelayStatusFailed
	} else {
		r.Status = RelayStatusPending
	}
}

// IsTransitionPossible checks the relay state machine:
// pending -> submitted|failed|pending, submitted -> confirmed|mismatch|pending|failed, failed -> pending.
// confirmed and mismatch are final.
func (r *RelayRecord) IsTransitionPossible(newStatus RelayStatus) error {
	isInvalidTransition := false

	switch r.Status {
	case RelayStatusPending:
		isInvalidTransition = newStatus == RelayStatusConfirmed || newStatus == RelayStatusMismatch

	case RelayStatusSubmitted:

	case RelayStatusFailed:
		isInvalidTransition = newStatus != RelayStatusPending && newStatus != RelayStatusFailed

	case RelayStatusConfirmed, RelayStatusMismatch:
		isInvalidTransition = newStatus != r.Status

	default:
		isInvalidTransition = true
	}

	if isInvalidTransition {
		return fmt.Errorf("relay record %s invalid transition %s -> %s", r.IdempotencyKey, r.Status, newStatus)
	}

	return nil
}
