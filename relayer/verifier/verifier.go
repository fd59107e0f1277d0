package verifier

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/Giveth/giveth-bridge/relayer/relayer"
	"github.com/Giveth/giveth-bridge/telemetry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

type VerifierImpl struct {
	config     *core.RelayerConfiguration
	sources    map[string]core.ChainEventSource
	normalizer core.EventNormalizer
	db         core.RelayStateStore
	logger     hclog.Logger
}

var _ core.Verifier = (*VerifierImpl)(nil)

func NewVerifier(
	config *core.RelayerConfiguration,
	sources map[string]core.ChainEventSource,
	normalizer core.EventNormalizer,
	db core.RelayStateStore,
	logger hclog.Logger,
) *VerifierImpl {
	return &VerifierImpl{
		config:     config,
		sources:    sources,
		normalizer: normalizer,
		db:         db,
		logger:     logger,
	}
}

// Verify checks every submitted relay against its destination receipt. Records whose receipt is not
// deep enough yet are left alone. Results are returned only for records which got confirmed or flagged.
func (v *VerifierImpl) Verify(ctx context.Context) ([]*core.VerificationResult, error) {
	records, err := v.db.GetRecordsByStatus(core.RelayStatusSubmitted, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to get submitted relay records: %w", err)
	}

	var (
		results   []*core.VerificationResult
		errs      []error
		destHeads = map[string]uint64{}
		blocked   = map[string]bool{}
	)

	for _, record := range records {
		destChainID := record.Intent.DestinationChain()
		if blocked[destChainID] {
			continue
		}

		destHead, exists := destHeads[destChainID]
		if !exists {
			destHead, err = v.sources[destChainID].GetLatestBlockNumber(ctx)
			if err != nil {
				blocked[destChainID] = true

				errs = append(errs, fmt.Errorf("verification on %s skipped: %w", destChainID, err))

				continue
			}

			destHeads[destChainID] = destHead
		}

		result, err := v.verifyRecord(ctx, record, destHead)
		if err != nil {
			if !errors.Is(err, core.ErrTransientChain) {
				return results, errors.Join(append(errs, err)...)
			}

			blocked[destChainID] = true

			errs = append(errs, fmt.Errorf("verification on %s stopped: %w", destChainID, err))

			continue
		}

		if result != nil {
			results = append(results, result)
		}
	}

	return results, errors.Join(errs...)
}

func (v *VerifierImpl) verifyRecord(
	ctx context.Context, record *core.RelayRecord, destHead uint64,
) (*core.VerificationResult, error) {
	destChainID := record.Intent.DestinationChain()
	destConfig := v.config.GetChain(destChainID)

	receipt, err := v.sources[destChainID].GetTxReceipt(ctx, common.HexToHash(record.DestinationTxHash))
	if err != nil {
		return nil, err
	}

	var result *core.VerificationResult

	switch receipt.Status {
	case core.ReceiptStatusNotFound:
		if destHead < record.LastAttemptBlock+v.config.DropWindow {
			return nil, nil
		}

		record.ToDropped(v.config.MaxAttempts)

		v.logger.Warn("destination tx dropped", "key", record.IdempotencyKey, "chain", destChainID,
			"drops", record.Drops, "status", record.Status)
		telemetry.UpdateVerifierResubmitCounter(destChainID, 1)

	case core.ReceiptStatusReverted:
		if destHead < receipt.BlockNumber+destConfig.ConfirmationDepth {
			return nil, nil
		}

		record.ToReverted(v.config.MaxAttempts)

		v.logger.Warn("destination tx reverted", "key", record.IdempotencyKey, "chain", destChainID,
			"attempts", record.Attempts, "status", record.Status)
		telemetry.UpdateVerifierResubmitCounter(destChainID, 1)

	case core.ReceiptStatusSuccessful:
		if destHead < receipt.BlockNumber+destConfig.ConfirmationDepth {
			return nil, nil
		}

		result = &core.VerificationResult{IdempotencyKey: record.IdempotencyKey}
		result.Discrepancy = v.findDiscrepancy(record.Intent, receipt, destConfig.GetBridgeAddress())
		result.Matched = result.Discrepancy == ""

		if result.Matched {
			record.ToConfirmed()

			v.logger.Info("relay confirmed", "key", record.IdempotencyKey, "chain", destChainID,
				"tx", record.DestinationTxHash, "block", receipt.BlockNumber)
			telemetry.UpdateVerifierConfirmedCounter(destChainID, 1)
		} else {
			record.ToMismatch(result.Discrepancy)

			v.logger.Error("relay verification failed", "record", record, "err", &core.VerificationMismatchError{
				IdempotencyKey:    record.IdempotencyKey,
				DestinationTxHash: record.DestinationTxHash,
				Discrepancy:       result.Discrepancy,
			})
			telemetry.UpdateVerifierMismatchCounter(destChainID, 1)
		}
	}

	if record.Status == core.RelayStatusFailed {
		telemetry.UpdateRelayerPermanentFailuresCounter(destChainID, 1)
	}

	if err := v.db.PutRecord(record); err != nil {
		return nil, fmt.Errorf("failed to persist relay record %s: %w", record.IdempotencyKey, err)
	}

	return result, nil
}

// findDiscrepancy returns an empty string when the receipt holds a bridge event matching the intent
func (v *VerifierImpl) findDiscrepancy(
	intent *core.RelayIntent, receipt *core.TxReceipt, bridgeAddress common.Address,
) string {
	expectedKind := core.EventKindDeposit
	if intent.Direction == core.DirectionForeignToHome {
		expectedKind = core.EventKindPaymentAuthorized
	}

	var candidates []*core.ConfirmationEvent

	for _, rawEvent := range receipt.Events {
		if rawEvent.Address != bridgeAddress || rawEvent.Kind() != expectedKind {
			continue
		}

		confirmation, err := v.normalizer.NormalizeConfirmation(rawEvent)
		if err != nil {
			return fmt.Sprintf("invalid %s event: %v", expectedKind, err)
		}

		candidates = append(candidates, confirmation)
	}

	if len(candidates) == 0 {
		return fmt.Sprintf("no %s event emitted by %s", expectedKind, bridgeAddress)
	}

	// prefer the event referencing our source tx when a single tx carries several
	confirmation := candidates[0]

	for _, candidate := range candidates {
		if candidate.SourceTxHash == intent.SourceTxHash {
			confirmation = candidate

			break
		}
	}

	return CompareConfirmation(intent, confirmation, v.config)
}

// CompareConfirmation lists every field of the destination event which disagrees with the intent
func CompareConfirmation(
	intent *core.RelayIntent, confirmation *core.ConfirmationEvent, config *core.RelayerConfiguration,
) string {
	var diffs []string

	addDiff := func(field string, expected, actual interface{}) {
		diffs = append(diffs, fmt.Sprintf("%s: expected %v, got %v", field, expected, actual))
	}

	if confirmation.SourceTxHash != intent.SourceTxHash {
		addDiff("source tx", intent.SourceTxHash, confirmation.SourceTxHash)
	}

	if confirmation.Token != intent.Token {
		addDiff("token", intent.Token, confirmation.Token)
	}

	if confirmation.Amount == nil || intent.Amount == nil || confirmation.Amount.Cmp(intent.Amount) != 0 {
		addDiff("amount", intent.Amount, confirmation.Amount)
	}

	switch confirmation.EventKind {
	case core.EventKindDeposit:
		if confirmation.Payer != intent.Payer {
			addDiff("sender", intent.Payer, confirmation.Payer)
		}

		expectedData, err := expectedLiquidPledgingData(intent, config)
		if err != nil {
			addDiff("data", err, confirmation.Data)
		} else if !bytes.Equal(expectedData, confirmation.Data) {
			addDiff("data", common.Bytes2Hex(expectedData), common.Bytes2Hex(confirmation.Data))
		}

	case core.EventKindPaymentAuthorized:
		if confirmation.Payee != intent.Payee {
			addDiff("recipient", intent.Payee, confirmation.Payee)
		}
	}

	return strings.Join(diffs, "; ")
}

func expectedLiquidPledgingData(intent *core.RelayIntent, config *core.RelayerConfiguration) ([]byte, error) {
	sideToken, err := config.GetSideToken(intent.Token)
	if err != nil {
		return nil, err
	}

	return relayer.BuildLiquidPledgingData(intent, sideToken)
}
