package core

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/mock"
)

type ChainEventSourceMock struct {
	mock.Mock
	ChainID string
}

var _ ChainEventSource = (*ChainEventSourceMock)(nil)

func (m *ChainEventSourceMock) GetChainID() string {
	return m.ChainID
}

func (m *ChainEventSourceMock) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	args := m.Called(ctx)

	return args.Get(0).(uint64), args.Error(1) //nolint:forcetypeassert
}

func (m *ChainEventSourceMock) GetEvents(
	ctx context.Context, contract common.Address, kind EventKind, fromBlock, toBlock uint64,
) ([]*RawEvent, error) {
	args := m.Called(ctx, contract, kind, fromBlock, toBlock)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*RawEvent), args.Error(1) //nolint:forcetypeassert
}

func (m *ChainEventSourceMock) GetTxMeta(ctx context.Context, txHash common.Hash) (*TxMeta, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*TxMeta), args.Error(1) //nolint:forcetypeassert
}

func (m *ChainEventSourceMock) GetTxReceipt(ctx context.Context, txHash common.Hash) (*TxReceipt, error) {
	args := m.Called(ctx, txHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*TxReceipt), args.Error(1) //nolint:forcetypeassert
}

type ChainTransactionSubmitterMock struct {
	mock.Mock
}

var _ ChainTransactionSubmitter = (*ChainTransactionSubmitterMock)(nil)

func (m *ChainTransactionSubmitterMock) Submit(ctx context.Context, call *DestinationCall) (string, error) {
	args := m.Called(ctx, call)

	return args.String(0), args.Error(1)
}

type DatabaseMock struct {
	mock.Mock
}

var _ Database = (*DatabaseMock)(nil)

func (m *DatabaseMock) Init(filePath string) error {
	return m.Called(filePath).Error(0)
}

func (m *DatabaseMock) Close() error {
	return nil
}

func (m *DatabaseMock) GetRecord(key string) (*RelayRecord, error) {
	args := m.Called(key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*RelayRecord), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) PutRecord(record *RelayRecord) error {
	return m.Called(record).Error(0)
}

func (m *DatabaseMock) PutRecords(records []*RelayRecord) error {
	return m.Called(records).Error(0)
}

func (m *DatabaseMock) ScanPending(maxAttempts uint32, limit int) ([]*RelayRecord, error) {
	args := m.Called(maxAttempts, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*RelayRecord), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) GetRecordsByStatus(status RelayStatus, limit int) ([]*RelayRecord, error) {
	args := m.Called(status, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*RelayRecord), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) CountByStatus() (map[RelayStatus]int, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(map[RelayStatus]int), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) GetCursor(chain string, contract common.Address) (*ScanCursor, error) {
	args := m.Called(chain, contract)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*ScanCursor), args.Error(1) //nolint:forcetypeassert
}

func (m *DatabaseMock) SetCursor(cursor *ScanCursor) error {
	return m.Called(cursor).Error(0)
}

func (m *DatabaseMock) GetAllCursors() ([]*ScanCursor, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*ScanCursor), args.Error(1) //nolint:forcetypeassert
}
