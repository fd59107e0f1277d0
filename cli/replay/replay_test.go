package clireplay

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/Giveth/giveth-bridge/relayer/core"
	databaseaccess "github.com/Giveth/giveth-bridge/relayer/database_access"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestReplayRecord(t *testing.T) {
	db, err := databaseaccess.NewDatabase(filepath.Join(t.TempDir(), databaseaccess.DBFileName))
	require.NoError(t, err)

	defer db.Close()

	newRecord := func(logIndex uint, status core.RelayStatus) *core.RelayRecord {
		txHash := common.HexToHash("0xb2")
		record := core.NewRelayRecord(&core.RelayIntent{
			IdempotencyKey: core.ToIdempotencyKey("foreign", txHash, logIndex),
			SourceChain:    "foreign",
			Direction:      core.DirectionForeignToHome,
			EventKind:      core.EventKindWithdraw,
			Amount:         big.NewInt(10),
			SourceTxHash:   txHash,
			LogIndex:       logIndex,
		})
		record.Status = status
		record.Attempts = 3
		record.Drops = 1

		return record
	}

	failed := newRecord(0, core.RelayStatusFailed)
	mismatch := newRecord(1, core.RelayStatusMismatch)

	require.NoError(t, db.PutRecords([]*core.RelayRecord{failed, mismatch}))

	_, err = replayRecord(db, "0x00")
	require.ErrorContains(t, err, "not found")

	_, err = replayRecord(db, mismatch.IdempotencyKey)
	require.ErrorContains(t, err, "only failed records can be replayed")

	record, err := replayRecord(db, failed.IdempotencyKey)
	require.NoError(t, err)
	require.Equal(t, core.RelayStatusPending, record.Status)

	stored, err := db.GetRecord(failed.IdempotencyKey)
	require.NoError(t, err)
	require.Equal(t, core.RelayStatusPending, stored.Status)
	require.Equal(t, uint32(0), stored.Attempts)
	require.Equal(t, uint32(0), stored.Drops)

	pending, err := db.ScanPending(3, 0)
	require.NoError(t, err)
	require.Len(t, pending, 1)
}
