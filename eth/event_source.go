package eth

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	cardanowallet "github.com/Ethernal-Tech/cardano-infrastructure/wallet"
	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
)

const (
	defaultQueryAttempts = 4
	defaultQueryWaitTime = time.Second
)

// EventSource reads bridge events, transactions and receipts from an evm node
type EventSource struct {
	chainID       string
	ethHelper     *EthHelperWrapper
	queryAttempts int
	queryWaitTime time.Duration
	logger        hclog.Logger
}

var _ core.ChainEventSource = (*EventSource)(nil)

func NewEventSource(chainID string, ethHelper *EthHelperWrapper, logger hclog.Logger) *EventSource {
	return &EventSource{
		chainID:       chainID,
		ethHelper:     ethHelper,
		queryAttempts: defaultQueryAttempts,
		queryWaitTime: defaultQueryWaitTime,
		logger:        logger,
	}
}

func (s *EventSource) GetChainID() string {
	return s.chainID
}

func (s *EventSource) GetLatestBlockNumber(ctx context.Context) (uint64, error) {
	return query(ctx, s, func(ctx context.Context, helper ethtxhelper.IEthTxHelper) (uint64, error) {
		return helper.GetClient().BlockNumber(ctx)
	})
}

func (s *EventSource) GetEvents(
	ctx context.Context, contract ethcommon.Address, kind core.EventKind, fromBlock, toBlock uint64,
) ([]*core.RawEvent, error) {
	if fromBlock > toBlock {
		return []*core.RawEvent{}, nil
	}

	_, event, err := ethcontracts.EventABI(kind.String())
	if err != nil {
		return nil, err
	}

	filter := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: []ethcommon.Address{contract},
		Topics:    [][]ethcommon.Hash{{event.ID}},
	}

	logs, err := query(ctx, s, func(ctx context.Context, helper ethtxhelper.IEthTxHelper) ([]types.Log, error) {
		return helper.GetClient().FilterLogs(ctx, filter)
	})
	if err != nil {
		return nil, err
	}

	events := make([]*core.RawEvent, 0, len(logs))

	for _, log := range logs {
		if log.Removed {
			continue
		}

		rawEvent, err := DecodeLog(log)
		if err != nil {
			return nil, fmt.Errorf("failed to decode %s log of tx %s: %w", kind, log.TxHash, err)
		}

		if rawEvent != nil {
			events = append(events, rawEvent)
		}
	}

	s.logger.Debug("events retrieved", "chain", s.chainID, "kind", kind,
		"from", fromBlock, "to", toBlock, "count", len(events))

	return events, nil
}

func (s *EventSource) GetTxMeta(ctx context.Context, txHash ethcommon.Hash) (*core.TxMeta, error) {
	tx, err := query(ctx, s, func(ctx context.Context, helper ethtxhelper.IEthTxHelper) (*types.Transaction, error) {
		tx, _, err := helper.GetClient().TransactionByHash(ctx, txHash)

		return tx, err
	})
	if err != nil {
		return nil, err
	}

	from, err := types.Sender(types.LatestSignerForChainID(tx.ChainId()), tx)
	if err != nil {
		return nil, fmt.Errorf("failed to recover sender of tx %s: %w", txHash, err)
	}

	return &core.TxMeta{
		Hash:  txHash,
		From:  from,
		Value: tx.Value(),
	}, nil
}

func (s *EventSource) GetTxReceipt(ctx context.Context, txHash ethcommon.Hash) (*core.TxReceipt, error) {
	notFound := &core.TxReceipt{TxHash: txHash, Status: core.ReceiptStatusNotFound}

	receipt, err := query(ctx, s, func(ctx context.Context, helper ethtxhelper.IEthTxHelper) (*types.Receipt, error) {
		receipt, err := helper.GetClient().TransactionReceipt(ctx, txHash)
		if errors.Is(err, ethereum.NotFound) {
			return nil, nil
		}

		return receipt, err
	})
	if err != nil {
		return nil, err
	} else if receipt == nil {
		return notFound, nil
	}

	header, err := query(ctx, s, func(ctx context.Context, helper ethtxhelper.IEthTxHelper) (*types.Header, error) {
		return helper.GetClient().HeaderByNumber(ctx, receipt.BlockNumber)
	})
	if err != nil {
		return nil, err
	}

	// receipt of a block which has been reorged out
	if header.Hash() != receipt.BlockHash {
		s.logger.Warn("receipt is not canonical", "chain", s.chainID, "tx", txHash,
			"block", receipt.BlockNumber, "receipt block hash", receipt.BlockHash, "canonical hash", header.Hash())

		return notFound, nil
	}

	return ToTxReceipt(receipt, s.logger), nil
}

// DecodeLog decodes a bridge contract log. Logs of unknown events return nil without error.
func DecodeLog(log types.Log) (*core.RawEvent, error) {
	if len(log.Topics) == 0 {
		return nil, nil
	}

	contractABI, event := findEvent(log.Topics[0])
	if contractABI == nil {
		return nil, nil
	}

	values := map[string]interface{}{}

	if len(log.Data) > 0 {
		if err := contractABI.UnpackIntoMap(values, event.Name, log.Data); err != nil {
			return nil, err
		}
	}

	var indexed abi.Arguments

	for _, input := range event.Inputs {
		if input.Indexed {
			indexed = append(indexed, input)
		}
	}

	if err := abi.ParseTopicsIntoMap(values, indexed, log.Topics[1:]); err != nil {
		return nil, err
	}

	return &core.RawEvent{
		Name:        event.Name,
		Address:     log.Address,
		TxHash:      log.TxHash,
		BlockNumber: log.BlockNumber,
		BlockHash:   log.BlockHash,
		LogIndex:    log.Index,
		Values:      values,
	}, nil
}

// ToTxReceipt keeps the bridge events of a successful receipt. Logs which do not decode as a bridge
// event, like those of a token or LiquidPledging contract sharing a topic, are skipped.
func ToTxReceipt(receipt *types.Receipt, logger hclog.Logger) *core.TxReceipt {
	result := &core.TxReceipt{
		TxHash:      receipt.TxHash,
		Status:      core.ReceiptStatusReverted,
		BlockNumber: receipt.BlockNumber.Uint64(),
	}

	if receipt.Status != types.ReceiptStatusSuccessful {
		return result
	}

	result.Status = core.ReceiptStatusSuccessful

	for _, log := range receipt.Logs {
		rawEvent, err := DecodeLog(*log)
		if err != nil {
			logger.Debug("skipping undecodable log", "tx", receipt.TxHash, "index", log.Index,
				"address", log.Address, "err", err)

			continue
		}

		if rawEvent != nil {
			result.Events = append(result.Events, rawEvent)
		}
	}

	return result
}

func findEvent(topic ethcommon.Hash) (*abi.ABI, *abi.Event) {
	for _, contractABI := range []*abi.ABI{ethcontracts.GivethBridgeABI, ethcontracts.ForeignGivethBridgeABI} {
		if event, err := contractABI.EventByID(topic); err == nil {
			return contractABI, event
		}
	}

	return nil, nil
}

// query runs fn until it succeeds, fails with an error which is not worth retrying or runs out of attempts
func query[T any](
	ctx context.Context, s *EventSource, fn func(context.Context, ethtxhelper.IEthTxHelper) (T, error),
) (result T, err error) {
	var lastErr error

	err = cardanowallet.ExecuteWithRetry(ctx, s.queryAttempts, s.queryWaitTime, func() (bool, error) {
		helper, err := s.ethHelper.GetEthHelper()
		if err != nil {
			return false, err
		}

		value, err := fn(ctx, helper)
		if err != nil {
			lastErr = s.ethHelper.ProcessError(err)

			return false, lastErr
		}

		result = value

		return true, nil
	}, ethtxhelper.IsRetryableEthError)
	if errors.Is(err, cardanowallet.ErrWaitForTransactionTimeout) && lastErr != nil {
		err = lastErr
	}

	if err != nil {
		return result, core.NewTransientChainError(s.chainID, err)
	}

	return result, nil
}
