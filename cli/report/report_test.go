package clireport

import (
	"math/big"
	"path/filepath"
	"testing"

	"github.com/Giveth/giveth-bridge/relayer/core"
	databaseaccess "github.com/Giveth/giveth-bridge/relayer/database_access"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

func TestBuildReport(t *testing.T) {
	db, err := databaseaccess.NewDatabase(filepath.Join(t.TempDir(), databaseaccess.DBFileName))
	require.NoError(t, err)

	defer db.Close()

	statuses := []core.RelayStatus{
		core.RelayStatusPending, core.RelayStatusFailed, core.RelayStatusMismatch, core.RelayStatusConfirmed,
	}
	records := make([]*core.RelayRecord, len(statuses))

	for i, status := range statuses {
		txHash := common.HexToHash("0xc3")
		records[i] = core.NewRelayRecord(&core.RelayIntent{
			IdempotencyKey: core.ToIdempotencyKey("home", txHash, uint(i)),
			SourceChain:    "home",
			Direction:      core.DirectionHomeToForeign,
			EventKind:      core.EventKindDonate,
			Amount:         big.NewInt(int64(100 * (i + 1))),
			SourceTxHash:   txHash,
			LogIndex:       uint(i),
		})
		records[i].Status = status
	}

	require.NoError(t, db.PutRecords(records))
	require.NoError(t, db.SetCursor(&core.ScanCursor{Chain: "home", ContractAddress: common.HexToAddress("0x1"), LastScannedBlock: 9}))

	result, err := buildReport(db, []core.RelayStatus{core.RelayStatusFailed, core.RelayStatusMismatch}, 10)
	require.NoError(t, err)
	require.Len(t, result.Records, 2)
	require.Len(t, result.Cursors, 1)
	require.Equal(t, 1, result.Counts["confirmed"])

	output := result.GetOutput()
	require.Contains(t, output, "[RELAY STATUS]")
	require.Contains(t, output, records[1].IdempotencyKey)
	require.Contains(t, output, records[2].IdempotencyKey)
	require.NotContains(t, output, records[0].IdempotencyKey)
}
