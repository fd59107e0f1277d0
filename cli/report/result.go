package clireport

import (
	"bytes"
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
)

type CmdResult struct {
	Counts  map[string]int      `json:"counts"`
	Cursors []*core.ScanCursor  `json:"cursors"`
	Records []*core.RelayRecord `json:"records"`
}

func (r CmdResult) GetOutput() string {
	var buffer bytes.Buffer

	countVals := make([]string, 0, len(core.AllRelayStatuses))
	for _, status := range core.AllRelayStatuses {
		countVals = append(countVals, fmt.Sprintf("%s|%d", status, r.Counts[string(status)]))
	}

	cursorVals := make([]string, 0, len(r.Cursors)+1)
	cursorVals = append(cursorVals, "CHAIN|CONTRACT|LAST SCANNED BLOCK")

	for _, cursor := range r.Cursors {
		cursorVals = append(cursorVals, fmt.Sprintf("%s|%s|%d",
			cursor.Chain, cursor.ContractAddress.Hex(), cursor.LastScannedBlock))
	}

	recordVals := make([]string, 0, len(r.Records)+1)
	recordVals = append(recordVals, "KEY|STATUS|DIRECTION|SOURCE TX|AMOUNT|ATTEMPTS|DROPS|LAST ERROR")

	for _, record := range r.Records {
		direction, sourceTx, amount := "", "", ""

		if record.Intent != nil {
			direction = record.Intent.Direction.String()
			sourceTx = record.Intent.SourceTxHash.Hex()

			if record.Intent.Amount != nil {
				amount = record.Intent.Amount.String()
			}
		}

		recordVals = append(recordVals, fmt.Sprintf("%s|%s|%s|%s|%s|%d|%d|%s",
			record.IdempotencyKey, record.Status, direction, sourceTx, amount,
			record.Attempts, record.Drops, record.LastError))
	}

	buffer.WriteString("[RELAY STATUS]\n")
	buffer.WriteString(common.FormatKV(countVals))
	buffer.WriteString("\n\n[CURSORS]\n")
	buffer.WriteString(common.FormatList(cursorVals))
	buffer.WriteString("\n\n[RECORDS]\n")
	buffer.WriteString(common.FormatList(recordVals))
	buffer.WriteString("\n")

	return buffer.String()
}
