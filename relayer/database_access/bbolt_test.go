package databaseaccess

import (
	"fmt"
	"math/big"
	"path/filepath"
	"testing"

	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func newTestRecord(idx int, status core.RelayStatus, attempts uint32, lastAttemptBlock uint64) *core.RelayRecord {
	txHash := common.BigToHash(big.NewInt(int64(idx + 1)))
	intent := &core.RelayIntent{
		IdempotencyKey: core.ToIdempotencyKey("home", txHash, 0),
		SourceChain:    "home",
		Direction:      core.DirectionHomeToForeign,
		EventKind:      core.EventKindDonate,
		Amount:         big.NewInt(int64(100 * (idx + 1))),
		SourceTxHash:   txHash,
		SourceBlock:    uint64(idx),
	}

	record := core.NewRelayRecord(intent)
	record.Status = status
	record.Attempts = attempts
	record.LastAttemptBlock = lastAttemptBlock

	return record
}

func TestBoltDatabase(t *testing.T) {
	newDB := func(t *testing.T) *BBoltDatabase {
		t.Helper()

		db := &BBoltDatabase{}
		require.NoError(t, db.Init(filepath.Join(t.TempDir(), "temp_test.db")))

		t.Cleanup(func() {
			_ = db.Close()
		})

		return db
	}

	t.Run("Init should fail", func(t *testing.T) {
		db := &BBoltDatabase{}
		err := db.Init("")
		require.Error(t, err)
	})

	t.Run("NewDatabase creates directory", func(t *testing.T) {
		db, err := NewDatabase(filepath.Join(t.TempDir(), "nested", "dir", "relayer.db"))
		require.NoError(t, err)
		require.NoError(t, db.Close())
	})

	t.Run("GetRecord unknown", func(t *testing.T) {
		db := newDB(t)

		record, err := db.GetRecord("0x01")
		require.NoError(t, err)
		require.Nil(t, record)
	})

	t.Run("PutRecord and GetRecord", func(t *testing.T) {
		db := newDB(t)
		record := newTestRecord(0, core.RelayStatusPending, 0, 0)

		require.NoError(t, db.PutRecord(record))

		record.ToSubmitted("0xdead", 55)
		require.NoError(t, db.PutRecord(record))

		stored, err := db.GetRecord(record.IdempotencyKey)
		require.NoError(t, err)
		require.Equal(t, record, stored)
		require.Equal(t, core.RelayStatusSubmitted, stored.Status)
		require.Equal(t, uint32(1), stored.Attempts)
		require.Equal(t, big.NewInt(100), stored.Intent.Amount)

		counts, err := db.CountByStatus()
		require.NoError(t, err)
		require.Equal(t, 0, counts[core.RelayStatusPending])
		require.Equal(t, 1, counts[core.RelayStatusSubmitted])
	})

	t.Run("PutRecord rejects invalid transitions", func(t *testing.T) {
		db := newDB(t)
		record := newTestRecord(0, core.RelayStatusPending, 0, 0)

		require.NoError(t, db.PutRecord(record))

		record.ToConfirmed()
		require.ErrorContains(t, db.PutRecord(record), "invalid transition")

		record.Status = core.RelayStatusSubmitted
		require.NoError(t, db.PutRecord(record))

		record.ToMismatch("amount differs")
		require.NoError(t, db.PutRecord(record))

		record.Status = core.RelayStatusPending
		require.Error(t, db.PutRecord(record))

		stored, err := db.GetRecord(record.IdempotencyKey)
		require.NoError(t, err)
		require.Equal(t, core.RelayStatusMismatch, stored.Status)
	})

	t.Run("PutRecord without key or with unknown status", func(t *testing.T) {
		db := newDB(t)

		require.Error(t, db.PutRecord(&core.RelayRecord{Status: core.RelayStatusPending}))
		require.Error(t, db.PutRecord(newTestRecord(1, core.RelayStatus("bogus"), 0, 0)))
	})

	t.Run("PutRecords is atomic", func(t *testing.T) {
		db := newDB(t)
		confirmed := newTestRecord(1, core.RelayStatusSubmitted, 1, 1)

		require.NoError(t, db.PutRecord(confirmed))

		confirmed.ToConfirmed()
		require.NoError(t, db.PutRecord(confirmed))

		fresh := newTestRecord(2, core.RelayStatusPending, 0, 0)
		reopened := *confirmed
		reopened.Status = core.RelayStatusPending

		require.Error(t, db.PutRecords([]*core.RelayRecord{fresh, &reopened}))

		stored, err := db.GetRecord(fresh.IdempotencyKey)
		require.NoError(t, err)
		require.Nil(t, stored)

		require.NoError(t, db.PutRecords([]*core.RelayRecord{fresh, newTestRecord(3, core.RelayStatusPending, 0, 0)}))

		records, err := db.GetRecordsByStatus(core.RelayStatusPending, 0)
		require.NoError(t, err)
		require.Len(t, records, 2)

		records, err = db.GetRecordsByStatus(core.RelayStatusPending, 1)
		require.NoError(t, err)
		require.Len(t, records, 1)
	})

	t.Run("ScanPending", func(t *testing.T) {
		db := newDB(t)
		records := []*core.RelayRecord{
			newTestRecord(0, core.RelayStatusPending, 1, 30),
			newTestRecord(1, core.RelayStatusPending, 0, 10),
			newTestRecord(2, core.RelayStatusFailed, 2, 20),
			newTestRecord(3, core.RelayStatusFailed, 3, 5),   // attempts exhausted
			newTestRecord(4, core.RelayStatusSubmitted, 1, 1), // handled by verifier
		}

		require.NoError(t, db.PutRecords(records))

		pending, err := db.ScanPending(3, 0)
		require.NoError(t, err)
		require.Len(t, pending, 3)
		require.Equal(t, records[1].IdempotencyKey, pending[0].IdempotencyKey)
		require.Equal(t, records[2].IdempotencyKey, pending[1].IdempotencyKey)
		require.Equal(t, records[0].IdempotencyKey, pending[2].IdempotencyKey)

		pending, err = db.ScanPending(3, 2)
		require.NoError(t, err)
		require.Len(t, pending, 2)

		pending, err = db.ScanPending(1, 0)
		require.NoError(t, err)
		require.Len(t, pending, 1)
		require.Equal(t, records[1].IdempotencyKey, pending[0].IdempotencyKey)
	})

	t.Run("cursors", func(t *testing.T) {
		db := newDB(t)
		homeBridge := common.HexToAddress("0x8fed3F9126e7051DeA6c530920cb0BAE5ffa17a8")
		foreignBridge := common.HexToAddress("0x8f86403A4DE0BB5791fa46B8e795C547942fE4Cf")

		cursor, err := db.GetCursor("home", homeBridge)
		require.NoError(t, err)
		require.Nil(t, cursor)

		require.NoError(t, db.SetCursor(&core.ScanCursor{Chain: "home", ContractAddress: homeBridge, LastScannedBlock: 100}))
		require.NoError(t, db.SetCursor(&core.ScanCursor{Chain: "home", ContractAddress: homeBridge, LastScannedBlock: 90}))
		require.NoError(t, db.SetCursor(&core.ScanCursor{Chain: "foreign", ContractAddress: foreignBridge, LastScannedBlock: 7}))

		cursor, err = db.GetCursor("home", homeBridge)
		require.NoError(t, err)
		require.Equal(t, uint64(100), cursor.LastScannedBlock)

		require.NoError(t, db.SetCursor(&core.ScanCursor{Chain: "home", ContractAddress: homeBridge, LastScannedBlock: 120}))

		cursor, err = db.GetCursor("home", homeBridge)
		require.NoError(t, err)
		require.Equal(t, uint64(120), cursor.LastScannedBlock)

		cursors, err := db.GetAllCursors()
		require.NoError(t, err)
		require.Len(t, cursors, 2)
	})

	t.Run("survives reopen", func(t *testing.T) {
		filePath := filepath.Join(t.TempDir(), "reopen.db")

		db := &BBoltDatabase{}
		require.NoError(t, db.Init(filePath))

		for i := 0; i < 5; i++ {
			require.NoError(t, db.PutRecord(newTestRecord(i, core.RelayStatusPending, 0, uint64(i))))
		}

		require.NoError(t, db.Close())

		db = &BBoltDatabase{}
		require.NoError(t, db.Init(filePath))

		defer db.Close()

		counts, err := db.CountByStatus()
		require.NoError(t, err)
		require.Equal(t, 5, counts[core.RelayStatusPending], fmt.Sprint(counts))
	})
}
