package normalizer

import (
	"errors"
	"fmt"
	"math/big"

	bridgeCommon "github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
)

var ErrInvalidEvent = errors.New("invalid event")

type EventNormalizerImpl struct{}

var _ core.EventNormalizer = (*EventNormalizerImpl)(nil)

func NewEventNormalizer() *EventNormalizerImpl {
	return &EventNormalizerImpl{}
}

func (n *EventNormalizerImpl) Normalize(rawEvent *core.RawEvent, txMeta *core.TxMeta) (*core.RelayIntent, error) {
	kind := rawEvent.Kind()

	switch kind {
	case core.EventKindDonate, core.EventKindDonateAndCreateGiver, core.EventKindWithdraw:
	default:
		return nil, nil
	}

	values := eventValues(rawEvent)

	amount, err := values.bigInt("amount")
	if err != nil {
		return nil, err
	}

	token, err := values.address("token")
	if err != nil {
		return nil, err
	}

	intent := &core.RelayIntent{
		EventKind:    kind,
		Amount:       new(big.Int).Set(amount),
		Token:        token,
		SourceTxHash: rawEvent.TxHash,
		SourceBlock:  rawEvent.BlockNumber,
		LogIndex:     rawEvent.LogIndex,
	}

	switch kind {
	case core.EventKindDonate:
		if txMeta == nil {
			return nil, fmt.Errorf("%w: %s tx %s has no tx metadata", ErrInvalidEvent, kind, rawEvent.TxHash)
		}

		if intent.GiverID, err = values.uint64("giverId"); err != nil {
			return nil, err
		}

		if intent.ReceiverID, err = values.uint64("receiverId"); err != nil {
			return nil, err
		}

		intent.SourceChain = bridgeCommon.ChainIDStrHome
		intent.Direction = core.DirectionHomeToForeign
		intent.Payer = txMeta.From

	case core.EventKindDonateAndCreateGiver:
		if intent.Payer, err = values.address("giver"); err != nil {
			return nil, err
		}

		if intent.ReceiverID, err = values.uint64("receiverId"); err != nil {
			return nil, err
		}

		intent.SourceChain = bridgeCommon.ChainIDStrHome
		intent.Direction = core.DirectionHomeToForeign

	case core.EventKindWithdraw:
		if txMeta == nil {
			return nil, fmt.Errorf("%w: %s tx %s has no tx metadata", ErrInvalidEvent, kind, rawEvent.TxHash)
		}

		if intent.Payee, err = values.address("recipient"); err != nil {
			return nil, err
		}

		intent.SourceChain = bridgeCommon.ChainIDStrForeign
		intent.Direction = core.DirectionForeignToHome
		intent.Payer = txMeta.From
	}

	intent.IdempotencyKey = core.ToIdempotencyKey(intent.SourceChain, rawEvent.TxHash, rawEvent.LogIndex)

	return intent, nil
}

func (n *EventNormalizerImpl) NormalizeConfirmation(rawEvent *core.RawEvent) (*core.ConfirmationEvent, error) {
	kind := rawEvent.Kind()
	if kind != core.EventKindDeposit && kind != core.EventKindPaymentAuthorized {
		return nil, nil
	}

	values := eventValues(rawEvent)

	amount, err := values.bigInt("amount")
	if err != nil {
		return nil, err
	}

	token, err := values.address("token")
	if err != nil {
		return nil, err
	}

	confirmation := &core.ConfirmationEvent{
		EventKind: kind,
		Amount:    new(big.Int).Set(amount),
		Token:     token,
	}

	if kind == core.EventKindDeposit {
		if confirmation.Payer, err = values.address("sender"); err != nil {
			return nil, err
		}

		if confirmation.SourceTxHash, err = values.hash("homeTx"); err != nil {
			return nil, err
		}

		if confirmation.Data, err = values.bytes("data"); err != nil {
			return nil, err
		}
	} else {
		if confirmation.Payee, err = values.address("recipient"); err != nil {
			return nil, err
		}

		if confirmation.SourceTxHash, err = values.hash("reference"); err != nil {
			return nil, err
		}
	}

	return confirmation, nil
}

type eventValueGetter struct {
	name   string
	values map[string]interface{}
}

func eventValues(rawEvent *core.RawEvent) eventValueGetter {
	return eventValueGetter{name: rawEvent.Name, values: rawEvent.Values}
}

func (g eventValueGetter) get(key string) (interface{}, error) {
	value, exists := g.values[key]
	if !exists || value == nil {
		return nil, fmt.Errorf("%w: %s has no %s", ErrInvalidEvent, g.name, key)
	}

	return value, nil
}

func (g eventValueGetter) typeErr(key string, value interface{}) error {
	return fmt.Errorf("%w: %s.%s has unexpected type %T", ErrInvalidEvent, g.name, key, value)
}

func (g eventValueGetter) bigInt(key string) (*big.Int, error) {
	value, err := g.get(key)
	if err != nil {
		return nil, err
	}

	result, ok := value.(*big.Int)
	if !ok || result == nil {
		return nil, g.typeErr(key, value)
	}

	return result, nil
}

func (g eventValueGetter) uint64(key string) (uint64, error) {
	value, err := g.get(key)
	if err != nil {
		return 0, err
	}

	switch v := value.(type) {
	case uint64:
		return v, nil
	case *big.Int:
		if v.IsUint64() {
			return v.Uint64(), nil
		}
	}

	return 0, g.typeErr(key, value)
}

func (g eventValueGetter) address(key string) (common.Address, error) {
	value, err := g.get(key)
	if err != nil {
		return common.Address{}, err
	}

	result, ok := value.(common.Address)
	if !ok {
		return common.Address{}, g.typeErr(key, value)
	}

	return result, nil
}

func (g eventValueGetter) hash(key string) (common.Hash, error) {
	value, err := g.get(key)
	if err != nil {
		return common.Hash{}, err
	}

	switch v := value.(type) {
	case [32]byte:
		return common.Hash(v), nil
	case common.Hash:
		return v, nil
	}

	return common.Hash{}, g.typeErr(key, value)
}

func (g eventValueGetter) bytes(key string) ([]byte, error) {
	value, err := g.get(key)
	if err != nil {
		return nil, err
	}

	result, ok := value.([]byte)
	if !ok {
		return nil, g.typeErr(key, value)
	}

	return result, nil
}
