package eth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"

	"github.com/Giveth/giveth-bridge/common"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
)

// EthHelperWrapper lazily creates the tx helper and recreates it after connection failures
type EthHelperWrapper struct {
	wallet      ethtxhelper.IEthTxWallet
	ethTxHelper ethtxhelper.IEthTxHelper
	opts        []ethtxhelper.TxRelayerOption
	lock        sync.Mutex
	sendLock    sync.Mutex
	logger      hclog.Logger
}

func NewEthHelperWrapper(
	logger hclog.Logger,
	opts ...ethtxhelper.TxRelayerOption,
) *EthHelperWrapper {
	return &EthHelperWrapper{
		opts:   append([]ethtxhelper.TxRelayerOption(nil), opts...),
		logger: logger,
	}
}

func NewEthHelperWrapperWithWallet(
	wallet ethtxhelper.IEthTxWallet, logger hclog.Logger,
	opts ...ethtxhelper.TxRelayerOption,
) *EthHelperWrapper {
	return &EthHelperWrapper{
		wallet: wallet,
		opts:   append([]ethtxhelper.TxRelayerOption(nil), opts...),
		logger: logger,
	}
}

func (e *EthHelperWrapper) GetEthHelper() (ethtxhelper.IEthTxHelper, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.ethTxHelper != nil {
		return e.ethTxHelper, nil
	}

	ethTxHelper, err := ethtxhelper.NewEThTxHelper(e.opts...)
	if err != nil {
		return nil, fmt.Errorf("error while NewEThTxHelper: %w", err)
	}

	e.ethTxHelper = ethTxHelper

	return ethTxHelper, nil
}

func (e *EthHelperWrapper) GetWallet() ethtxhelper.IEthTxWallet {
	return e.wallet
}

// ProcessError drops the cached helper when the connection looks broken so the next call redials
func (e *EthHelperWrapper) ProcessError(err error) error {
	var netErr net.Error

	if errors.Is(err, net.ErrClosed) || common.IsContextDoneErr(err) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		e.lock.Lock()
		e.ethTxHelper = nil
		e.lock.Unlock()
	}

	return err
}

// SendTx signs and broadcasts a single tx. Submissions are serialized so nonces stay ordered.
// It does not wait for the receipt, inclusion is checked later by the verifier. A tx whose broadcast
// outcome is unknown is returned without error for the same reason.
func (e *EthHelperWrapper) SendTx(
	ctx context.Context, txOpts bind.TransactOpts, handler ethtxhelper.SendTxFunc,
) (*types.Transaction, error) {
	if e.wallet == nil {
		return nil, errors.New("wallet is not configured")
	}

	ethTxHelper, err := e.GetEthHelper()
	if err != nil {
		return nil, fmt.Errorf("error while GetEthHelper: %w", err)
	}

	e.sendLock.Lock()
	defer e.sendLock.Unlock()

	tx, err := ethTxHelper.SendTx(ctx, e.wallet, txOpts, handler)
	if errors.Is(err, ethtxhelper.ErrBroadcastUncertain) {
		e.logger.Warn("tx may not have reached the node", "hash", tx.Hash().String(),
			"nonce", tx.Nonce(), "err", e.ProcessError(err))

		return tx, nil
	} else if err != nil {
		return nil, fmt.Errorf("error while SendTx: %w", e.ProcessError(err))
	}

	e.logger.Info("tx has been sent", "hash", tx.Hash().String(),
		"nonce", tx.Nonce(), "gas limit", tx.Gas(), "gas price", tx.GasPrice())

	return tx, nil
}
