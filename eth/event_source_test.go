package eth

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"
)

func TestDecodeLog(t *testing.T) {
	bridgeAddr := common.HexToAddress("0xB1")
	token := common.HexToAddress("0x7e")
	sender := common.HexToAddress("0x5e")
	txHash := common.HexToHash("0xaa")
	homeTx := common.HexToHash("0xbb")

	t.Run("Donate", func(t *testing.T) {
		event := ethcontracts.GivethBridgeABI.Events["Donate"]

		data, err := event.Inputs.NonIndexed().Pack(uint64(3), uint64(8), token, big.NewInt(1000))
		require.NoError(t, err)

		rawEvent, err := DecodeLog(types.Log{
			Address:     bridgeAddr,
			Topics:      []common.Hash{event.ID},
			Data:        data,
			BlockNumber: 15,
			TxHash:      txHash,
			Index:       2,
		})
		require.NoError(t, err)
		require.NotNil(t, rawEvent)
		require.Equal(t, "Donate", rawEvent.Name)
		require.Equal(t, core.EventKindDonate, rawEvent.Kind())
		require.Equal(t, bridgeAddr, rawEvent.Address)
		require.Equal(t, uint64(15), rawEvent.BlockNumber)
		require.Equal(t, uint(2), rawEvent.LogIndex)
		require.Equal(t, uint64(3), rawEvent.Values["giverId"])
		require.Equal(t, uint64(8), rawEvent.Values["receiverId"])
		require.Equal(t, token, rawEvent.Values["token"])
		require.Equal(t, big.NewInt(1000), rawEvent.Values["amount"])
	})

	t.Run("Deposit with indexed sender", func(t *testing.T) {
		event := ethcontracts.ForeignGivethBridgeABI.Events["Deposit"]

		data, err := event.Inputs.NonIndexed().Pack(token, big.NewInt(55), [32]byte(homeTx), []byte{1, 2, 3})
		require.NoError(t, err)

		rawEvent, err := DecodeLog(types.Log{
			Topics: []common.Hash{event.ID, common.BytesToHash(sender.Bytes())},
			Data:   data,
		})
		require.NoError(t, err)
		require.Equal(t, core.EventKindDeposit, rawEvent.Kind())
		require.Equal(t, sender, rawEvent.Values["sender"])
		require.Equal(t, big.NewInt(55), rawEvent.Values["amount"])
		require.Equal(t, [32]byte(homeTx), rawEvent.Values["homeTx"])
		require.Equal(t, []byte{1, 2, 3}, rawEvent.Values["data"])
	})

	t.Run("unknown topic", func(t *testing.T) {
		rawEvent, err := DecodeLog(types.Log{Topics: []common.Hash{common.HexToHash("0x1234")}})
		require.NoError(t, err)
		require.Nil(t, rawEvent)

		rawEvent, err = DecodeLog(types.Log{})
		require.NoError(t, err)
		require.Nil(t, rawEvent)
	})

	t.Run("corrupted data", func(t *testing.T) {
		event := ethcontracts.GivethBridgeABI.Events["Donate"]

		_, err := DecodeLog(types.Log{Topics: []common.Hash{event.ID}, Data: []byte{1, 2}})
		require.Error(t, err)
	})
}

func TestToTxReceipt(t *testing.T) {
	event := ethcontracts.ForeignGivethBridgeABI.Events["Withdraw"]
	deposit := ethcontracts.ForeignGivethBridgeABI.Events["Deposit"]

	data, err := event.Inputs.NonIndexed().Pack(common.HexToAddress("0x7e"), big.NewInt(9))
	require.NoError(t, err)

	logs := []*types.Log{
		{Topics: []common.Hash{common.HexToHash("0x99")}},
		// same topic emitted by another contract with a different layout
		{Address: common.HexToAddress("0x1F"), Topics: []common.Hash{deposit.ID}, Data: []byte{1, 2}, Index: 1},
		{Topics: []common.Hash{event.ID, common.BytesToHash(common.HexToAddress("0x1").Bytes())}, Data: data, Index: 2},
	}

	receipt := ToTxReceipt(&types.Receipt{
		Status:      types.ReceiptStatusSuccessful,
		TxHash:      common.HexToHash("0x01"),
		BlockNumber: big.NewInt(30),
		Logs:        logs,
	}, hclog.NewNullLogger())
	require.Equal(t, core.ReceiptStatusSuccessful, receipt.Status)
	require.Equal(t, uint64(30), receipt.BlockNumber)
	require.Len(t, receipt.Events, 1)
	require.Equal(t, core.EventKindWithdraw, receipt.Events[0].Kind())
	require.Equal(t, uint(2), receipt.Events[0].LogIndex)

	receipt = ToTxReceipt(&types.Receipt{
		Status:      types.ReceiptStatusFailed,
		BlockNumber: big.NewInt(31),
		Logs:        logs,
	}, hclog.NewNullLogger())
	require.Equal(t, core.ReceiptStatusReverted, receipt.Status)
	require.Empty(t, receipt.Events)
}

func TestEventSource_GetEventsInvertedRange(t *testing.T) {
	source := NewEventSource("home", NewEthHelperWrapper(hclog.NewNullLogger()), hclog.NewNullLogger())

	events, err := source.GetEvents(context.Background(), common.HexToAddress("0x1"), core.EventKindDonate, 10, 9)
	require.NoError(t, err)
	require.Empty(t, events)
	require.Equal(t, "home", source.GetChainID())
}

func TestPackDestinationCall(t *testing.T) {
	input, err := PackDestinationCall(&core.DestinationCall{
		Method: ethcontracts.MethodDeposit,
		Args: []interface{}{
			common.HexToAddress("0x1"), common.HexToAddress("0x2"), big.NewInt(5),
			[32]byte(common.HexToHash("0x3")), []byte{0xaa},
		},
	})
	require.NoError(t, err)
	require.Equal(t, ethcontracts.ForeignGivethBridgeABI.Methods[ethcontracts.MethodDeposit].ID, input[:4])

	_, err = PackDestinationCall(&core.DestinationCall{Method: ethcontracts.MethodDeposit})
	require.Error(t, err)

	_, err = PackDestinationCall(&core.DestinationCall{Method: "unknown"})
	require.Error(t, err)
}

func TestSubmitter_ClassifyError(t *testing.T) {
	submitter := NewSubmitter("foreign", NewEthHelperWrapper(hclog.NewNullLogger()), hclog.NewNullLogger())
	call := &core.DestinationCall{Method: ethcontracts.MethodDeposit}

	err := submitter.classifyError(call, errors.New("dial tcp 127.0.0.1:8545: connect: connection refused"))
	require.ErrorIs(t, err, core.ErrTransientChain)

	err = submitter.classifyError(call, errors.New("nonce too low"))
	require.ErrorIs(t, err, core.ErrTransientChain)

	err = submitter.classifyError(call, errors.New("execution reverted"))

	var submissionErr *core.SubmissionError

	require.ErrorAs(t, err, &submissionErr)
	require.Equal(t, "foreign", submissionErr.Chain)
	require.Equal(t, ethcontracts.MethodDeposit, submissionErr.Method)
	require.NotErrorIs(t, err, core.ErrTransientChain)
}

func TestSubmitter_SubmitPackFailure(t *testing.T) {
	submitter := NewSubmitter("home", NewEthHelperWrapper(hclog.NewNullLogger()), hclog.NewNullLogger())

	_, err := submitter.Submit(context.Background(), &core.DestinationCall{Method: ethcontracts.MethodAuthorizePayment})

	var submissionErr *core.SubmissionError

	require.ErrorAs(t, err, &submissionErr)
}

func TestEventSource_Query(t *testing.T) {
	ctx := context.Background()
	ethHelper := NewEthHelperWrapper(hclog.NewNullLogger(), ethtxhelper.WithNodeURL("http://127.0.0.1:1"))
	source := NewEventSource("home", ethHelper, hclog.NewNullLogger())
	source.queryWaitTime = time.Millisecond

	t.Run("retries node errors", func(t *testing.T) {
		calls := 0

		value, err := query(ctx, source, func(context.Context, ethtxhelper.IEthTxHelper) (uint64, error) {
			calls++
			if calls < 3 {
				return 0, errors.New("replacement tx underpriced")
			}

			return 77, nil
		})
		require.NoError(t, err)
		require.Equal(t, uint64(77), value)
		require.Equal(t, 3, calls)
	})

	t.Run("stops on other errors", func(t *testing.T) {
		calls := 0

		_, err := query(ctx, source, func(context.Context, ethtxhelper.IEthTxHelper) (uint64, error) {
			calls++

			return 0, errors.New("execution reverted")
		})
		require.ErrorIs(t, err, core.ErrTransientChain)
		require.ErrorContains(t, err, "execution reverted")
		require.Equal(t, 1, calls)
	})

	t.Run("reports the last error when attempts run out", func(t *testing.T) {
		calls := 0

		_, err := query(ctx, source, func(context.Context, ethtxhelper.IEthTxHelper) (uint64, error) {
			calls++

			return 0, errors.New("intrinsic gas too low")
		})
		require.ErrorIs(t, err, core.ErrTransientChain)
		require.ErrorContains(t, err, "intrinsic gas too low")
		require.Equal(t, defaultQueryAttempts, calls)
	})
}
