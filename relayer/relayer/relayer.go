package relayer

import (
	"context"
	"errors"
	"fmt"
	"sort"

	bridgeCommon "github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/Giveth/giveth-bridge/telemetry"
	"github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

var sourceEventKinds = map[string][]core.EventKind{
	bridgeCommon.ChainIDStrHome:    {core.EventKindDonate, core.EventKindDonateAndCreateGiver},
	bridgeCommon.ChainIDStrForeign: {core.EventKindWithdraw},
}

type RelayerImpl struct {
	config     *core.RelayerConfiguration
	sources    map[string]core.ChainEventSource
	submitters map[string]core.ChainTransactionSubmitter
	normalizer core.EventNormalizer
	db         core.RelayStateStore
	logger     hclog.Logger
}

var _ core.Relayer = (*RelayerImpl)(nil)

func NewRelayer(
	config *core.RelayerConfiguration,
	sources map[string]core.ChainEventSource,
	submitters map[string]core.ChainTransactionSubmitter,
	normalizer core.EventNormalizer,
	db core.RelayStateStore,
	logger hclog.Logger,
) *RelayerImpl {
	return &RelayerImpl{
		config:     config,
		sources:    sources,
		submitters: submitters,
		normalizer: normalizer,
		db:         db,
		logger:     logger,
	}
}

// Poll scans both bridge contracts for new events, records them as pending relays and
// submits every relay that still has attempts left. Errors of one direction do not stop the other.
func (r *RelayerImpl) Poll(ctx context.Context) error {
	var errs []error

	for _, chainID := range []string{bridgeCommon.ChainIDStrHome, bridgeCommon.ChainIDStrForeign} {
		if err := r.scan(ctx, chainID); err != nil {
			r.logger.Error("scan failed", "chain", chainID, "err", err)

			errs = append(errs, fmt.Errorf("scan of %s failed: %w", chainID, err))
		}
	}

	if err := r.submitPending(ctx); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// scan persists all intents of the confirmed block range before the cursor is moved past them
func (r *RelayerImpl) scan(ctx context.Context, chainID string) error {
	source := r.sources[chainID]
	chainConfig := r.config.GetChain(chainID)
	contract := chainConfig.GetBridgeAddress()

	fromBlock, toBlock, ok, err := r.getBlockRange(ctx, source, chainConfig)
	if err != nil || !ok {
		return err
	}

	r.logger.Debug("scanning", "chain", chainID, "from", fromBlock, "to", toBlock)

	rawEvents, err := r.getEvents(ctx, source, contract, fromBlock, toBlock)
	if err != nil {
		return err
	}

	intents, err := r.normalize(ctx, source, rawEvents)
	if err != nil {
		return err
	}

	newRecords, err := r.getNewRecords(intents)
	if err != nil {
		return err
	}

	if len(newRecords) > 0 {
		if err := r.db.PutRecords(newRecords); err != nil {
			return fmt.Errorf("failed to persist relay records: %w", err)
		}

		telemetry.UpdateRelayerIntentsDiscoveredCounter(chainID, len(newRecords))

		r.logger.Info("new relay intents", "chain", chainID, "count", len(newRecords),
			"from", fromBlock, "to", toBlock)
	}

	err = r.db.SetCursor(&core.ScanCursor{
		Chain:            chainID,
		ContractAddress:  contract,
		LastScannedBlock: toBlock,
	})
	if err != nil {
		return fmt.Errorf("failed to persist scan cursor: %w", err)
	}

	telemetry.UpdateScannerCursor(chainID, toBlock)

	return nil
}

// getBlockRange returns ok false when there are no new confirmed blocks
func (r *RelayerImpl) getBlockRange(
	ctx context.Context, source core.ChainEventSource, chainConfig core.ChainConfig,
) (uint64, uint64, bool, error) {
	head, err := source.GetLatestBlockNumber(ctx)
	if err != nil {
		return 0, 0, false, err
	}

	if head < chainConfig.ConfirmationDepth {
		return 0, 0, false, nil
	}

	toBlock := head - chainConfig.ConfirmationDepth
	fromBlock := chainConfig.StartBlock
	// blocks up to lastScanned are re-scanned for reorgs and do not count towards MaxBlockRange
	lastScanned := fromBlock

	cursor, err := r.db.GetCursor(chainConfig.ChainID, chainConfig.GetBridgeAddress())
	if err != nil {
		return 0, 0, false, fmt.Errorf("failed to get scan cursor: %w", err)
	}

	if cursor != nil {
		fromBlock = max(fromBlock, bridgeCommon.SafeSubtract(cursor.LastScannedBlock, r.config.ReorgWindow, 0))
		lastScanned = max(lastScanned, cursor.LastScannedBlock)
	}

	if toBlock < fromBlock {
		return 0, 0, false, nil
	}

	if r.config.MaxBlockRange > 0 && toBlock > lastScanned && toBlock-lastScanned > r.config.MaxBlockRange {
		toBlock = lastScanned + r.config.MaxBlockRange
	}

	return fromBlock, toBlock, true, nil
}

func (r *RelayerImpl) getEvents(
	ctx context.Context, source core.ChainEventSource, contract common.Address, fromBlock, toBlock uint64,
) ([]*core.RawEvent, error) {
	var result []*core.RawEvent

	for _, kind := range sourceEventKinds[source.GetChainID()] {
		events, err := source.GetEvents(ctx, contract, kind, fromBlock, toBlock)
		if err != nil {
			return nil, err
		}

		result = append(result, events...)
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].BlockNumber != result[j].BlockNumber {
			return result[i].BlockNumber < result[j].BlockNumber
		}

		return result[i].LogIndex < result[j].LogIndex
	})

	return result, nil
}

func (r *RelayerImpl) normalize(
	ctx context.Context, source core.ChainEventSource, rawEvents []*core.RawEvent,
) ([]*core.RelayIntent, error) {
	txMetas := map[common.Hash]*core.TxMeta{}
	intents := make([]*core.RelayIntent, 0, len(rawEvents))

	for _, rawEvent := range rawEvents {
		txMeta, exists := txMetas[rawEvent.TxHash]
		if !exists {
			meta, err := source.GetTxMeta(ctx, rawEvent.TxHash)
			if err != nil {
				return nil, err
			}

			txMetas[rawEvent.TxHash] = meta
			txMeta = meta
		}

		intent, err := r.normalizer.Normalize(rawEvent, txMeta)
		if err != nil {
			// a malformed event never becomes valid, so it must not block the cursor
			r.logger.Error("failed to normalize event", "chain", source.GetChainID(),
				"event", rawEvent.Name, "tx", rawEvent.TxHash, "logIndex", rawEvent.LogIndex, "err", err)
			telemetry.UpdateRelayerInvalidEventsCounter(source.GetChainID(), 1)

			continue
		} else if intent == nil {
			continue
		}

		intents = append(intents, intent)
	}

	return intents, nil
}

// getNewRecords returns pending records for intents which are not known yet.
// Known intents are left as they are, submission of pending ones happens in submitPending.
func (r *RelayerImpl) getNewRecords(intents []*core.RelayIntent) ([]*core.RelayRecord, error) {
	var (
		result []*core.RelayRecord
		seen   = make(map[string]bool, len(intents))
	)

	for _, intent := range intents {
		if seen[intent.IdempotencyKey] {
			continue
		}

		seen[intent.IdempotencyKey] = true

		record, err := r.db.GetRecord(intent.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("failed to get relay record %s: %w", intent.IdempotencyKey, err)
		}

		if record != nil {
			r.logger.Debug("relay intent already known", "key", intent.IdempotencyKey, "status", record.Status)

			continue
		}

		result = append(result, core.NewRelayRecord(intent))
	}

	return result, nil
}

// submitPending submits records oldest attempt first. A transient error of a destination chain stops
// further submissions to that chain for this cycle and leaves the records untouched.
func (r *RelayerImpl) submitPending(ctx context.Context) error {
	records, err := r.db.ScanPending(r.config.MaxAttempts, 0)
	if err != nil {
		return fmt.Errorf("failed to scan pending relay records: %w", err)
	}

	var (
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
			destHead, err = r.sources[destChainID].GetLatestBlockNumber(ctx)
			if err != nil {
				blocked[destChainID] = true

				errs = append(errs, fmt.Errorf("submissions to %s skipped: %w", destChainID, err))

				continue
			}

			destHeads[destChainID] = destHead
		}

		if err := r.submit(ctx, record, destHead); err != nil {
			if !errors.Is(err, core.ErrTransientChain) {
				return errors.Join(append(errs, err)...)
			}

			blocked[destChainID] = true

			errs = append(errs, fmt.Errorf("submissions to %s stopped: %w", destChainID, err))
		}
	}

	return errors.Join(errs...)
}

// submit sends the destination call of a single record and stores the outcome.
// Only transient chain errors and store errors are returned.
func (r *RelayerImpl) submit(ctx context.Context, record *core.RelayRecord, destHead uint64) error {
	destChainID := record.Intent.DestinationChain()

	call, err := BuildDestinationCall(record.Intent, r.config)
	if err == nil {
		var txHash string

		txHash, err = r.submitters[destChainID].Submit(ctx, call)
		if err == nil {
			record.ToSubmitted(txHash, destHead)

			telemetry.UpdateRelayerSubmitSucceededCounter(destChainID, 1)

			r.logger.Info("relay submitted", "key", record.IdempotencyKey, "chain", destChainID,
				"method", call.Method, "tx", txHash, "attempts", record.Attempts)
		}
	}

	if err != nil {
		if errors.Is(err, core.ErrTransientChain) {
			return err
		}

		record.ToSubmissionFailed(err, destHead, r.config.MaxAttempts)

		telemetry.UpdateRelayerSubmitFailedCounter(destChainID, 1)

		if record.Status == core.RelayStatusFailed {
			telemetry.UpdateRelayerPermanentFailuresCounter(destChainID, 1)

			r.logger.Error("relay failed permanently", "record", record,
				"err", fmt.Errorf("%w: %w", core.ErrPermanentRelayFailure, err))
		} else {
			r.logger.Warn("relay submission failed", "key", record.IdempotencyKey, "chain", destChainID,
				"attempts", record.Attempts, "err", err)
		}
	}

	if err := r.db.PutRecord(record); err != nil {
		// the stored record is still pending, the next cycle sends this relay again
		if record.Status == core.RelayStatusSubmitted {
			r.logger.Error("submitted relay tx not recorded", "key", record.IdempotencyKey,
				"chain", destChainID, "tx", record.DestinationTxHash, "err", err)
		}

		return fmt.Errorf("failed to persist relay record %s: %w", record.IdempotencyKey, err)
	}

	return nil
}
