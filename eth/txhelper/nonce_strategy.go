package ethtxhelper

import (
	"context"
	"fmt"
	"sync"

	"github.com/ethereum/go-ethereum/common"
)

type NonceStrategyType int

const (
	NonceNodePendingStrategy NonceStrategyType = iota
	NonceInMemoryStrategy
	NonceCombinedStrategy
)

// NonceClient is the subset of ethclient.Client used for nonce retrieval
type NonceClient interface {
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
}

type NonceStrategy interface {
	GetNextNonce(ctx context.Context, client NonceClient, addr common.Address) (uint64, error)
	UpdateNonce(addr common.Address, value uint64, success bool)
}

func NonceStrategyFactory(strategy NonceStrategyType) NonceStrategy {
	switch strategy {
	case NonceInMemoryStrategy:
		return &nonceInMemoryStrategyImpl{
			lastNonceMap: map[common.Address]uint64{},
		}
	case NonceCombinedStrategy:
		return &nonceCombinedStrategyImpl{
			lastNonceMap: map[common.Address]uint64{},
		}
	default:
		return &nonceNodePendingStrategyImpl{}
	}
}

type nonceNodePendingStrategyImpl struct{}

func (a *nonceNodePendingStrategyImpl) GetNextNonce(
	ctx context.Context, client NonceClient, addr common.Address,
) (uint64, error) {
	return client.PendingNonceAt(ctx, addr)
}

func (a *nonceNodePendingStrategyImpl) UpdateNonce(addr common.Address, value uint64, success bool) {
}

type nonceInMemoryStrategyImpl struct {
	lastNonceMap map[common.Address]uint64
	lock         sync.Mutex
}

func (a *nonceInMemoryStrategyImpl) GetNextNonce(
	ctx context.Context, client NonceClient, addr common.Address,
) (nextNonce uint64, err error) {
	a.lock.Lock()
	value, exists := a.lastNonceMap[addr]
	a.lock.Unlock()

	if exists {
		return value + 1, nil
	}

	nextNonce, err = client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("error while getting next nonce: %w", err)
	}

	return nextNonce, nil
}

func (a *nonceInMemoryStrategyImpl) UpdateNonce(addr common.Address, value uint64, success bool) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if success {
		a.lastNonceMap[addr] = value
	} else {
		delete(a.lastNonceMap, addr)
	}
}

type nonceCombinedStrategyImpl struct {
	lastNonceMap map[common.Address]uint64
	lock         sync.Mutex
}

func (a *nonceCombinedStrategyImpl) GetNextNonce(
	ctx context.Context, client NonceClient, addr common.Address,
) (nextNonce uint64, err error) {
	nextNonce, err = client.PendingNonceAt(ctx, addr)
	if err != nil {
		return 0, fmt.Errorf("error while PendingNonceAt: %w", err)
	}

	a.lock.Lock()
	defer a.lock.Unlock()

	// if pending txpool nonce is less than saved nonce => next nonce should be taken
	// from previous value + 1
	if prevValue, exists := a.lastNonceMap[addr]; exists && prevValue >= nextNonce {
		nextNonce = prevValue + 1
	}

	return nextNonce, nil
}

func (a *nonceCombinedStrategyImpl) UpdateNonce(addr common.Address, value uint64, success bool) {
	a.lock.Lock()
	defer a.lock.Unlock()

	if success {
		a.lastNonceMap[addr] = value
	}
}
