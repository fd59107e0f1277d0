package relayer

import (
	"fmt"
	"math/big"

	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
)

// BuildDestinationCall maps an intent to the bridge call on the opposite chain:
// deposit on the foreign bridge for home donations and authorizePayment on the home bridge for withdrawals
func BuildDestinationCall(intent *core.RelayIntent, config *core.RelayerConfiguration) (*core.DestinationCall, error) {
	destChain := config.GetChain(intent.DestinationChain())

	switch intent.Direction {
	case core.DirectionHomeToForeign:
		sideToken, err := config.GetSideToken(intent.Token)
		if err != nil {
			return nil, err
		}

		data, err := BuildLiquidPledgingData(intent, sideToken)
		if err != nil {
			return nil, err
		}

		return &core.DestinationCall{
			Chain:    destChain.ChainID,
			Contract: destChain.GetBridgeAddress(),
			Method:   ethcontracts.MethodDeposit,
			Args: []interface{}{
				intent.Payer, intent.Token, new(big.Int).Set(intent.Amount), [32]byte(intent.SourceTxHash), data,
			},
		}, nil

	case core.DirectionForeignToHome:
		return &core.DestinationCall{
			Chain:    destChain.ChainID,
			Contract: destChain.GetBridgeAddress(),
			Method:   ethcontracts.MethodAuthorizePayment,
			Args: []interface{}{
				"", [32]byte(intent.SourceTxHash), intent.Payee, intent.Token, new(big.Int).Set(intent.Amount),
				big.NewInt(0),
			},
		}, nil
	}

	return nil, fmt.Errorf("unsupported direction %s for %s", intent.Direction, intent.IdempotencyKey)
}

// BuildLiquidPledgingData returns the calldata the foreign bridge forwards to LiquidPledging with the deposit.
// The deposit itself names the main token, the pledge is made in the side token minted for it.
func BuildLiquidPledgingData(intent *core.RelayIntent, sideToken common.Address) ([]byte, error) {
	switch intent.EventKind {
	case core.EventKindDonate:
		return ethcontracts.LiquidPledgingABI.Pack(ethcontracts.MethodDonate,
			intent.GiverID, intent.ReceiverID, sideToken, intent.Amount)
	case core.EventKindDonateAndCreateGiver:
		return ethcontracts.LiquidPledgingABI.Pack(ethcontracts.MethodAddGiverAndDonate,
			intent.ReceiverID, intent.Payer, sideToken, intent.Amount)
	default:
		return nil, fmt.Errorf("no liquid pledging call for %s", intent.EventKind)
	}
}
