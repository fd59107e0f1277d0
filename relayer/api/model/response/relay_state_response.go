package response

import (
	"github.com/Giveth/giveth-bridge/relayer/core"
)

type RelayRecordResponse struct {
	Key               string `json:"key"`
	Status            string `json:"status"`
	NeedsAttention    bool   `json:"needsAttention"`
	Direction         string `json:"direction"`
	EventKind         string `json:"eventKind"`
	SourceChain       string `json:"sourceChain"`
	SourceTxHash      string `json:"sourceTxHash"`
	SourceBlock       uint64 `json:"sourceBlock"`
	LogIndex          uint   `json:"logIndex"`
	Payer             string `json:"payer"`
	Payee             string `json:"payee"`
	Token             string `json:"token"`
	Amount            string `json:"amount"`
	DestinationTxHash string `json:"destinationTxHash"`
	Attempts          uint32 `json:"attempts"`
	Drops             uint32 `json:"drops"`
	LastAttemptBlock  uint64 `json:"lastAttemptBlock"`
	LastError         string `json:"lastError"`
}

func NewRelayRecordResponse(record *core.RelayRecord) *RelayRecordResponse {
	result := &RelayRecordResponse{
		Key:               record.IdempotencyKey,
		Status:            string(record.Status),
		NeedsAttention:    record.Status.NeedsAttention(),
		DestinationTxHash: record.DestinationTxHash,
		Attempts:          record.Attempts,
		Drops:             record.Drops,
		LastAttemptBlock:  record.LastAttemptBlock,
		LastError:         record.LastError,
	}

	if intent := record.Intent; intent != nil {
		result.Direction = intent.Direction.String()
		result.EventKind = intent.EventKind.String()
		result.SourceChain = intent.SourceChain
		result.SourceTxHash = intent.SourceTxHash.Hex()
		result.SourceBlock = intent.SourceBlock
		result.LogIndex = intent.LogIndex
		result.Payer = intent.Payer.Hex()
		result.Payee = intent.Payee.Hex()
		result.Token = intent.Token.Hex()

		if intent.Amount != nil {
			result.Amount = intent.Amount.String()
		}
	}

	return result
}

type RelayRecordsResponse struct {
	Status  string                 `json:"status"`
	Records []*RelayRecordResponse `json:"records"`
}

func NewRelayRecordsResponse(status core.RelayStatus, records []*core.RelayRecord) *RelayRecordsResponse {
	result := &RelayRecordsResponse{
		Status:  string(status),
		Records: make([]*RelayRecordResponse, len(records)),
	}

	for i, record := range records {
		result.Records[i] = NewRelayRecordResponse(record)
	}

	return result
}

type ScanCursorResponse struct {
	Chain            string `json:"chain"`
	Contract         string `json:"contract"`
	LastScannedBlock uint64 `json:"lastScannedBlock"`
}

type ScanCursorsResponse struct {
	Cursors []*ScanCursorResponse `json:"cursors"`
}

func NewScanCursorsResponse(cursors []*core.ScanCursor) *ScanCursorsResponse {
	result := &ScanCursorsResponse{
		Cursors: make([]*ScanCursorResponse, len(cursors)),
	}

	for i, cursor := range cursors {
		result.Cursors[i] = &ScanCursorResponse{
			Chain:            cursor.Chain,
			Contract:         cursor.ContractAddress.Hex(),
			LastScannedBlock: cursor.LastScannedBlock,
		}
	}

	return result
}

type StatusCountsResponse struct {
	Counts         map[string]int `json:"counts"`
	NeedsAttention int            `json:"needsAttention"`
	InFlight       int            `json:"inFlight"`
}

func NewStatusCountsResponse(counts map[core.RelayStatus]int) *StatusCountsResponse {
	result := &StatusCountsResponse{
		Counts: make(map[string]int, len(counts)),
	}

	for status, cnt := range counts {
		result.Counts[string(status)] = cnt

		if status.NeedsAttention() {
			result.NeedsAttention += cnt
		} else if !status.IsTerminal() {
			result.InFlight += cnt
		}
	}

	return result
}
