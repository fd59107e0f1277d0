package ethtxhelper

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	bridgeCommon "github.com/Giveth/giveth-bridge/common"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

type SendTxFunc func(*bind.TransactOpts) (*types.Transaction, error)

const (
	defaultGasLimit         = uint64(5_242_880) // 0x500000
	defaultNumRetries       = uint64(5)
	defaultRetryWaitTime    = 2 * time.Second
	defaultGasFeeMultiplier = 170 // 170%
)

// ErrBroadcastUncertain is returned together with the signed tx when the node may hold the tx
// although it never confirmed receiving it
var ErrBroadcastUncertain = errors.New("tx broadcast outcome is unknown")

type IEthTxHelper interface {
	GetClient() *ethclient.Client
	SendTx(ctx context.Context, wallet IEthTxWallet,
		txOpts bind.TransactOpts, sendTxHandler SendTxFunc) (*types.Transaction, error)
	EstimateGas(
		ctx context.Context, from, to common.Address, value *big.Int, gasLimitMultiplier float64, input []byte,
	) (uint64, uint64, error)
	PopulateTxOpts(ctx context.Context, from common.Address, txOpts *bind.TransactOpts) error
}

type EthTxHelperImpl struct {
	client           *ethclient.Client
	nodeURL          string
	numRetries       uint64
	retryWaitTime    time.Duration
	gasFeeMultiplier uint64
	isDynamic        bool
	chainID          *big.Int
	nonceStrategy    NonceStrategy
}

var _ IEthTxHelper = (*EthTxHelperImpl)(nil)

func NewEThTxHelper(opts ...TxRelayerOption) (*EthTxHelperImpl, error) {
	t := &EthTxHelperImpl{
		numRetries:       defaultNumRetries,
		retryWaitTime:    defaultRetryWaitTime,
		gasFeeMultiplier: defaultGasFeeMultiplier,
		nonceStrategy:    NonceStrategyFactory(NonceNodePendingStrategy),
	}
	for _, opt := range opts {
		opt(t)
	}

	client, err := ethclient.Dial(t.nodeURL)
	if err != nil {
		return nil, err
	}

	t.client = client

	return t, nil
}

func (t *EthTxHelperImpl) GetClient() *ethclient.Client {
	return t.client
}

// SendTx populates missing tx options (nonce, gas) for the wallet, lets sendTxHandler build and sign the tx
// without sending it and broadcasts that signed tx. Retries resend the very same tx, so a retry can never
// consume a second nonce. Callers sharing a wallet must serialize calls to keep nonces in order.
func (t *EthTxHelperImpl) SendTx(
	ctx context.Context, wallet IEthTxWallet, txOptsParam bind.TransactOpts, sendTxHandler SendTxFunc,
) (*types.Transaction, error) {
	chainID := t.chainID
	if chainID == nil {
		retChainID, err := t.client.ChainID(ctx)
		if err != nil {
			return nil, err
		}

		chainID = retChainID
	}

	txOptsRes, err := wallet.GetTransactOpts(chainID)
	if err != nil {
		return nil, err
	}

	copyTxOpts(txOptsRes, &txOptsParam)

	if txOptsRes.Nonce == nil {
		nonce, err := t.nonceStrategy.GetNextNonce(ctx, t.client, wallet.GetAddress())
		if err != nil {
			return nil, err
		}

		txOptsRes.Nonce = new(big.Int).SetUint64(nonce)
	}

	if err := t.PopulateTxOpts(ctx, wallet.GetAddress(), txOptsRes); err != nil {
		return nil, err
	}

	txOptsRes.NoSend = true

	tx, err := sendTxHandler(txOptsRes)
	if err != nil {
		t.nonceStrategy.UpdateNonce(wallet.GetAddress(), txOptsRes.Nonce.Uint64(), false)

		return nil, err
	}

	err = t.broadcast(ctx, tx)

	// after an uncertain broadcast the next nonce comes from the node pending state
	t.nonceStrategy.UpdateNonce(wallet.GetAddress(), tx.Nonce(), err == nil)

	if err != nil && !errors.Is(err, ErrBroadcastUncertain) {
		return nil, err
	}

	return tx, err
}

// broadcast sends the signed tx until the node accepts it or a definitive error is returned
func (t *EthTxHelperImpl) broadcast(ctx context.Context, tx *types.Transaction) error {
	var (
		uncertain bool
		lastErr   error
	)

	for count := uint64(0); count <= t.numRetries; count++ {
		if count > 0 {
			select {
			case <-ctx.Done():
				return t.broadcastFailed(ctx.Err(), uncertain)
			case <-time.After(t.retryWaitTime):
			}
		}

		err := t.client.SendTransaction(ctx, tx)

		switch {
		case err == nil || IsKnownTxError(err):
			return nil
		case uncertain && IsNonceTooLowError(err):
			// the nonce of the tx which reached the node is used up, most likely by that tx
			return fmt.Errorf("%w: %w", ErrBroadcastUncertain, err)
		case IsBroadcastUncertainError(err):
			uncertain = true
		case !IsRetryableEthError(err):
			return t.broadcastFailed(err, uncertain)
		}

		lastErr = err
	}

	return t.broadcastFailed(lastErr, uncertain)
}

func (t *EthTxHelperImpl) broadcastFailed(err error, uncertain bool) error {
	if uncertain {
		return fmt.Errorf("%w: %w", ErrBroadcastUncertain, err)
	}

	return err
}

func (t *EthTxHelperImpl) EstimateGas(
	ctx context.Context, from, to common.Address, value *big.Int, gasLimitMultiplier float64, input []byte,
) (uint64, uint64, error) {
	estimatedGas, err := t.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  from,
		To:    &to,
		Value: value,
		Data:  input,
	})
	if err != nil {
		return 0, 0, err
	}

	return uint64(float64(estimatedGas) * gasLimitMultiplier), estimatedGas, nil
}

func (t *EthTxHelperImpl) PopulateTxOpts(
	ctx context.Context, from common.Address, txOpts *bind.TransactOpts,
) error {
	txOpts.Context = ctx
	txOpts.From = from

	if txOpts.Nonce == nil {
		nonce, err := t.client.PendingNonceAt(ctx, txOpts.From)
		if err != nil {
			return err
		}

		txOpts.Nonce = new(big.Int).SetUint64(nonce)
	}

	if txOpts.GasLimit == 0 {
		txOpts.GasLimit = defaultGasLimit
	}

	if !t.isDynamic {
		if txOpts.GasPrice == nil {
			gasPrice, err := t.client.SuggestGasPrice(ctx)
			if err != nil {
				return err
			}

			txOpts.GasPrice = bridgeCommon.MulPercentage(gasPrice, t.gasFeeMultiplier)
		}
	} else if txOpts.GasFeeCap == nil || txOpts.GasTipCap == nil {
		gasTipCap, err := t.client.SuggestGasTipCap(ctx)
		if err != nil {
			return err
		}

		txOpts.GasTipCap = bridgeCommon.MulPercentage(gasTipCap, t.gasFeeMultiplier)

		hs, err := t.client.FeeHistory(ctx, 1, nil, nil)
		if err != nil {
			return err
		}

		gasFeeCap := new(big.Int).Add(hs.BaseFee[len(hs.BaseFee)-1], gasTipCap)

		txOpts.GasFeeCap = bridgeCommon.MulPercentage(gasFeeCap, t.gasFeeMultiplier)
	}

	return nil
}

type TxRelayerOption func(*EthTxHelperImpl)

func WithDynamicTx(value bool) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.isDynamic = value
	}
}

func WithNodeURL(nodeURL string) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.nodeURL = nodeURL
	}
}

func WithRetryWaitTime(retryWaitTime time.Duration) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.retryWaitTime = retryWaitTime
	}
}

// WithNumRetries sets how many times a signed tx is resent after a failed eth_sendRawTransaction
func WithNumRetries(numRetries uint64) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.numRetries = numRetries
	}
}

func WithGasFeeMultiplier(gasFeeMultiplier uint64) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		if gasFeeMultiplier > 0 {
			t.gasFeeMultiplier = gasFeeMultiplier
		}
	}
}

func WithChainID(chainID *big.Int) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.chainID = chainID
	}
}

func WithNonceStrategyType(strategy NonceStrategyType) TxRelayerOption {
	return func(t *EthTxHelperImpl) {
		t.nonceStrategy = NonceStrategyFactory(strategy)
	}
}

func copyTxOpts(dst, src *bind.TransactOpts) {
	dst.NoSend = src.NoSend
	dst.GasPrice = src.GasPrice
	dst.GasFeeCap = src.GasFeeCap
	dst.GasTipCap = src.GasTipCap
	dst.GasLimit = src.GasLimit
	dst.Nonce = src.Nonce
	dst.Value = src.Value
}
