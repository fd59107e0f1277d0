package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

// ChainEventSource is the read side of a chain
type ChainEventSource interface {
	GetChainID() string
	GetLatestBlockNumber(ctx context.Context) (uint64, error)
	// GetEvents returns the events of a single kind emitted by contract within [fromBlock, toBlock].
	// An inverted range returns an empty slice.
	GetEvents(
		ctx context.Context, contract common.Address, kind EventKind, fromBlock, toBlock uint64,
	) ([]*RawEvent, error)
	GetTxMeta(ctx context.Context, txHash common.Hash) (*TxMeta, error)
	// GetTxReceipt returns a receipt with ReceiptStatusNotFound when the tx is unknown or not canonical
	GetTxReceipt(ctx context.Context, txHash common.Hash) (*TxReceipt, error)
}

// ChainTransactionSubmitter must serialize submissions of the same account to keep nonces ordered
type ChainTransactionSubmitter interface {
	Submit(ctx context.Context, call *DestinationCall) (string, error)
}

type EventNormalizer interface {
	// Normalize returns nil intent and nil error for events which should be skipped
	Normalize(rawEvent *RawEvent, txMeta *TxMeta) (*RelayIntent, error)
	NormalizeConfirmation(rawEvent *RawEvent) (*ConfirmationEvent, error)
}

type RelayStateStore interface {
	// GetRecord returns nil when the key is unknown
	GetRecord(key string) (*RelayRecord, error)
	PutRecord(record *RelayRecord) error
	PutRecords(records []*RelayRecord) error
	// ScanPending returns pending or failed records with attempts left, oldest attempt first
	ScanPending(maxAttempts uint32, limit int) ([]*RelayRecord, error)
	GetRecordsByStatus(status RelayStatus, limit int) ([]*RelayRecord, error)
	CountByStatus() (map[RelayStatus]int, error)
	// GetCursor returns nil when nothing has been scanned yet
	GetCursor(chain string, contract common.Address) (*ScanCursor, error)
	SetCursor(cursor *ScanCursor) error
	GetAllCursors() ([]*ScanCursor, error)
}

type Database interface {
	RelayStateStore
	Init(filePath string) error
	Close() error
}

type Relayer interface {
	Poll(ctx context.Context) error
}

type Verifier interface {
	Verify(ctx context.Context) ([]*VerificationResult, error)
}

type RelayerManager interface {
	RunCycle(ctx context.Context) error
	Start() error
	Stop() error
}
