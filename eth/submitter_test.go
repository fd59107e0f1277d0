package eth

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

const (
	testNodeChainID = 1337
	testRelayerPk   = "93c91e490bfd3736d17d04f53a10093e9cf2435309f4be1f5751381c8e201d23"
)

type rpcRequest struct {
	ID     json.RawMessage   `json:"id"`
	Method string            `json:"method"`
	Params []json.RawMessage `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

type rpcResponse struct {
	Version string          `json:"jsonrpc"`
	ID      json.RawMessage `json:"id"`
	Result  interface{}     `json:"result,omitempty"`
	Error   *rpcError       `json:"error,omitempty"`
}

// fakeNode is a minimal json-rpc node. A dropped send still lands in its pool when keepDropped is set,
// the connection is closed before the node answers.
type fakeNode struct {
	lock sync.Mutex

	// number of eth_sendRawTransaction calls answered by closing the connection
	dropSends   int
	keepDropped bool
	// error returned for every send after the dropped ones
	sendErr string

	pool      map[common.Hash]*types.Transaction
	received  map[common.Hash]int
	sendCalls int
}

func newFakeNode(dropSends int, keepDropped bool) *fakeNode {
	return &fakeNode{
		dropSends:   dropSends,
		keepDropped: keepDropped,
		pool:        map[common.Hash]*types.Transaction{},
		received:    map[common.Hash]int{},
	}
}

func (n *fakeNode) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)

		return
	}

	n.lock.Lock()
	defer n.lock.Unlock()

	var (
		result interface{}
		rpcErr *rpcError
	)

	switch req.Method {
	case "eth_chainId":
		result = hexutil.Uint64(testNodeChainID)
	case "eth_estimateGas":
		result = hexutil.Uint64(60_000)
	case "eth_gasPrice":
		result = (*hexutil.Big)(big.NewInt(1_000_000_000))
	case "eth_getTransactionCount":
		result = hexutil.Uint64(len(n.pool))
	case "eth_sendRawTransaction":
		tx, err := decodeRawTx(req.Params)
		if err != nil {
			rpcErr = &rpcError{Code: -32602, Message: err.Error()}

			break
		}

		n.sendCalls++
		n.received[tx.Hash()]++

		if n.dropSends > 0 {
			n.dropSends--

			if n.keepDropped {
				n.pool[tx.Hash()] = tx
			}

			n.hangUp(w)

			return
		}

		switch _, exists := n.pool[tx.Hash()]; {
		case n.sendErr != "":
			rpcErr = &rpcError{Code: -32000, Message: n.sendErr}
		case exists:
			rpcErr = &rpcError{Code: -32000, Message: "already known"}
		default:
			n.pool[tx.Hash()] = tx
			result = tx.Hash()
		}
	default:
		rpcErr = &rpcError{Code: -32601, Message: "method not found"}
	}

	w.Header().Set("Content-Type", "application/json")

	_ = json.NewEncoder(w).Encode(rpcResponse{Version: "2.0", ID: req.ID, Result: result, Error: rpcErr})
}

func (n *fakeNode) hangUp(w http.ResponseWriter) {
	hijacker, ok := w.(http.Hijacker)
	if !ok {
		http.Error(w, "hijacking not supported", http.StatusInternalServerError)

		return
	}

	conn, _, err := hijacker.Hijack()
	if err == nil {
		_ = conn.Close()
	}
}

func (n *fakeNode) poolTxs() []*types.Transaction {
	n.lock.Lock()
	defer n.lock.Unlock()

	txs := make([]*types.Transaction, 0, len(n.pool))
	for _, tx := range n.pool {
		txs = append(txs, tx)
	}

	return txs
}

func (n *fakeNode) stats() (int, int) {
	n.lock.Lock()
	defer n.lock.Unlock()

	return n.sendCalls, len(n.received)
}

func decodeRawTx(params []json.RawMessage) (*types.Transaction, error) {
	var encoded hexutil.Bytes

	if len(params) == 0 {
		return nil, errors.New("missing raw tx")
	}

	if err := json.Unmarshal(params[0], &encoded); err != nil {
		return nil, err
	}

	tx := new(types.Transaction)

	return tx, tx.UnmarshalBinary(encoded)
}

func newTestSubmitter(t *testing.T, nodeURL string, numRetries uint64) (*Submitter, *ethtxhelper.EthTxWallet) {
	t.Helper()

	wallet, err := ethtxhelper.NewEthTxWallet(testRelayerPk)
	require.NoError(t, err)

	ethHelper := NewEthHelperWrapperWithWallet(wallet, hclog.NewNullLogger(),
		ethtxhelper.WithNodeURL(nodeURL),
		ethtxhelper.WithChainID(big.NewInt(testNodeChainID)),
		ethtxhelper.WithNonceStrategyType(ethtxhelper.NonceCombinedStrategy),
		ethtxhelper.WithRetryWaitTime(time.Millisecond),
		ethtxhelper.WithNumRetries(numRetries))

	return NewSubmitter("foreign", ethHelper, hclog.NewNullLogger()), wallet
}

func newTestDepositCall() *core.DestinationCall {
	return &core.DestinationCall{
		Chain:    "foreign",
		Contract: common.HexToAddress("0xF0"),
		Method:   ethcontracts.MethodDeposit,
		Args: []interface{}{
			common.HexToAddress("0x5e"), common.Address{}, big.NewInt(1000),
			[32]byte(common.HexToHash("0xbb")), []byte{1, 2, 3},
		},
	}
}

func TestSubmitter_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("accepted", func(t *testing.T) {
		node := newFakeNode(0, false)
		srv := httptest.NewServer(node)
		defer srv.Close()

		submitter, wallet := newTestSubmitter(t, srv.URL, 3)

		hash, err := submitter.Submit(ctx, newTestDepositCall())
		require.NoError(t, err)

		txs := node.poolTxs()
		require.Len(t, txs, 1)
		require.Equal(t, txs[0].Hash().String(), hash)
		require.Equal(t, uint64(0), txs[0].Nonce())
		require.Equal(t, uint64(90_000), txs[0].Gas())

		sender, err := types.Sender(types.LatestSignerForChainID(big.NewInt(testNodeChainID)), txs[0])
		require.NoError(t, err)
		require.Equal(t, wallet.GetAddress(), sender)

		input, err := PackDestinationCall(newTestDepositCall())
		require.NoError(t, err)
		require.Equal(t, input, txs[0].Data())

		hash, err = submitter.Submit(ctx, newTestDepositCall())
		require.NoError(t, err)
		require.Len(t, node.poolTxs(), 2)
		require.NotEqual(t, txs[0].Hash().String(), hash)
	})

	t.Run("connection dropped after the node took the tx", func(t *testing.T) {
		node := newFakeNode(1, true)
		srv := httptest.NewServer(node)
		defer srv.Close()

		submitter, _ := newTestSubmitter(t, srv.URL, 3)

		hash, err := submitter.Submit(ctx, newTestDepositCall())
		require.NoError(t, err)

		sendCalls, distinctTxs := node.stats()
		require.Equal(t, 2, sendCalls)
		require.Equal(t, 1, distinctTxs)

		txs := node.poolTxs()
		require.Len(t, txs, 1)
		require.Equal(t, uint64(0), txs[0].Nonce())
		require.Equal(t, txs[0].Hash().String(), hash)
	})

	t.Run("connection always dropped", func(t *testing.T) {
		node := newFakeNode(100, false)
		srv := httptest.NewServer(node)
		defer srv.Close()

		submitter, _ := newTestSubmitter(t, srv.URL, 2)

		hash, err := submitter.Submit(ctx, newTestDepositCall())
		require.NoError(t, err)
		require.NotEmpty(t, hash)

		sendCalls, distinctTxs := node.stats()
		require.Equal(t, 3, sendCalls)
		require.Equal(t, 1, distinctTxs)
	})

	t.Run("nonce used up after dropped connection", func(t *testing.T) {
		node := newFakeNode(1, false)
		node.sendErr = "nonce too low"
		srv := httptest.NewServer(node)
		defer srv.Close()

		submitter, _ := newTestSubmitter(t, srv.URL, 3)

		hash, err := submitter.Submit(ctx, newTestDepositCall())
		require.NoError(t, err)
		require.NotEmpty(t, hash)

		sendCalls, distinctTxs := node.stats()
		require.Equal(t, 2, sendCalls)
		require.Equal(t, 1, distinctTxs)
	})

	t.Run("rejected by the node", func(t *testing.T) {
		node := newFakeNode(0, false)
		node.sendErr = "insufficient funds for gas * price + value"
		srv := httptest.NewServer(node)
		defer srv.Close()

		submitter, _ := newTestSubmitter(t, srv.URL, 3)

		_, err := submitter.Submit(ctx, newTestDepositCall())
		require.ErrorContains(t, err, "insufficient funds")
		require.NotErrorIs(t, err, core.ErrTransientChain)

		sendCalls, _ := node.stats()
		require.Equal(t, 1, sendCalls)
	})

	t.Run("node unreachable", func(t *testing.T) {
		srv := httptest.NewServer(newFakeNode(0, false))
		srv.Close()

		submitter, _ := newTestSubmitter(t, srv.URL, 3)

		_, err := submitter.Submit(ctx, newTestDepositCall())
		require.ErrorIs(t, err, core.ErrTransientChain)
	})
}
