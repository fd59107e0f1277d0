package eth

import (
	"context"
	"math/big"

	"github.com/Giveth/giveth-bridge/common"
	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
)

const defaultGasLimitMultiplier = 1.5

// Submitter sends bridge calls signed by the relayer wallet. Resending after node failures is done by
// the tx helper with the already signed tx.
type Submitter struct {
	chainID            string
	ethHelper          *EthHelperWrapper
	gasLimitMultiplier float64
	logger             hclog.Logger
}

var _ core.ChainTransactionSubmitter = (*Submitter)(nil)

func NewSubmitter(chainID string, ethHelper *EthHelperWrapper, logger hclog.Logger) *Submitter {
	return &Submitter{
		chainID:            chainID,
		ethHelper:          ethHelper,
		gasLimitMultiplier: defaultGasLimitMultiplier,
		logger:             logger,
	}
}

func (s *Submitter) Submit(ctx context.Context, call *core.DestinationCall) (string, error) {
	input, err := PackDestinationCall(call)
	if err != nil {
		return "", s.submissionError(call, err)
	}

	contractABI, _ := ethcontracts.MethodABI(call.Method)

	ethTxHelper, err := s.ethHelper.GetEthHelper()
	if err != nil {
		return "", core.NewTransientChainError(s.chainID, err)
	}

	value := call.Value
	if value == nil {
		value = big.NewInt(0)
	}

	gasLimit, estimatedGas, err := ethTxHelper.EstimateGas(
		ctx, s.ethHelper.GetWallet().GetAddress(), call.Contract, value, s.gasLimitMultiplier, input)
	if err != nil {
		return "", s.classifyError(call, s.ethHelper.ProcessError(err))
	}

	s.logger.Debug("gas estimated", "chain", s.chainID, "method", call.Method,
		"estimated", estimatedGas, "limit", gasLimit)

	tx, err := s.ethHelper.SendTx(ctx, bind.TransactOpts{GasLimit: gasLimit, Value: value},
		func(opts *bind.TransactOpts) (*types.Transaction, error) {
			client := ethTxHelper.GetClient()
			contract := bind.NewBoundContract(call.Contract, *contractABI, client, client, client)

			return contract.RawTransact(opts, input)
		})
	if err != nil {
		return "", s.classifyError(call, err)
	}

	return tx.Hash().String(), nil
}

// PackDestinationCall abi encodes the bridge method call
func PackDestinationCall(call *core.DestinationCall) ([]byte, error) {
	contractABI, err := ethcontracts.MethodABI(call.Method)
	if err != nil {
		return nil, err
	}

	return contractABI.Pack(call.Method, call.Args...)
}

// classifyError separates node failures, which leave the record untouched, from rejected calls.
// A stale nonce is a node state problem as well, the next cycle signs with a fresh one.
func (s *Submitter) classifyError(call *core.DestinationCall, err error) error {
	if ethtxhelper.IsRetryableEthError(err) || ethtxhelper.IsNonceTooLowError(err) ||
		common.IsContextDoneErr(err) || isConnectionError(err) {
		return core.NewTransientChainError(s.chainID, err)
	}

	return s.submissionError(call, err)
}

func (s *Submitter) submissionError(call *core.DestinationCall, err error) error {
	return &core.SubmissionError{
		Chain:  s.chainID,
		Method: call.Method,
		Err:    err,
	}
}
