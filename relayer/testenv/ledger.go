package testenv

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/Giveth/giveth-bridge/eth"
	ethcontracts "github.com/Giveth/giveth-bridge/eth/contracts"
	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

var errLedgerUnavailable = errors.New("ledger unavailable")

type ledgerTx struct {
	hash   common.Hash
	from   common.Address
	value  *big.Int
	status core.ReceiptStatus
	events []*core.RawEvent
	block  uint64
}

type ledgerBlock struct {
	number uint64
	hash   common.Hash
	txs    []*ledgerTx
}

// EventTamper may change the values of an event emitted by a destination call before it is mined
type EventTamper func(name string, values map[string]interface{})

// Ledger is a deterministic single node chain holding one bridge contract.
// It serves as both the event source and the transaction submitter of its chain.
// Blocks are mined explicitly with MineBlocks or automatically after every transaction.
type Ledger struct {
	chainID        string
	bridgeAddress  common.Address
	relayerAddress common.Address
	autoMine       bool

	lock        sync.Mutex
	blocks      []*ledgerBlock
	txs         map[common.Hash]*ledgerTx
	mempool     []*ledgerTx
	txCounter   uint64
	generation  uint64
	unavailable bool

	submitFailures []error
	dropNext       int
	revertNext     int
	tamper         EventTamper
	submissions    []*core.DestinationCall
	tokenMapping   map[common.Address]common.Address
}

var (
	_ core.ChainEventSource          = (*Ledger)(nil)
	_ core.ChainTransactionSubmitter = (*Ledger)(nil)
)

func NewLedger(chainID string, bridgeAddress, relayerAddress common.Address, autoMine bool) *Ledger {
	l := &Ledger{
		chainID:        chainID,
		bridgeAddress:  bridgeAddress,
		relayerAddress: relayerAddress,
		autoMine:       autoMine,
		txs:            map[common.Hash]*ledgerTx{},
		tokenMapping:   map[common.Address]common.Address{},
	}

	l.blocks = []*ledgerBlock{{number: 0, hash: l.blockHash(0)}}

	return l
}

func (l *Ledger) GetChainID() string {
	return l.chainID
}

func (l *Ledger) BridgeAddress() common.Address {
	return l.bridgeAddress
}

func (l *Ledger) GetLatestBlockNumber(_ context.Context) (uint64, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.unavailable {
		return 0, core.NewTransientChainError(l.chainID, errLedgerUnavailable)
	}

	return l.head(), nil
}

func (l *Ledger) GetEvents(
	_ context.Context, contract common.Address, kind core.EventKind, fromBlock, toBlock uint64,
) ([]*core.RawEvent, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.unavailable {
		return nil, core.NewTransientChainError(l.chainID, errLedgerUnavailable)
	}

	result := []*core.RawEvent{}

	for number := fromBlock; number <= toBlock && number <= l.head(); number++ {
		for _, tx := range l.blocks[number].txs {
			for _, event := range tx.events {
				if event.Address == contract && event.Kind() == kind {
					result = append(result, copyEvent(event))
				}
			}
		}
	}

	return result, nil
}

func (l *Ledger) GetTxMeta(_ context.Context, txHash common.Hash) (*core.TxMeta, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.unavailable {
		return nil, core.NewTransientChainError(l.chainID, errLedgerUnavailable)
	}

	tx, exists := l.txs[txHash]
	if !exists {
		return nil, fmt.Errorf("tx %s not found on %s", txHash, l.chainID)
	}

	return &core.TxMeta{Hash: tx.hash, From: tx.from, Value: new(big.Int).Set(tx.value)}, nil
}

func (l *Ledger) GetTxReceipt(_ context.Context, txHash common.Hash) (*core.TxReceipt, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.unavailable {
		return nil, core.NewTransientChainError(l.chainID, errLedgerUnavailable)
	}

	tx, exists := l.txs[txHash]
	if !exists {
		return &core.TxReceipt{TxHash: txHash, Status: core.ReceiptStatusNotFound}, nil
	}

	receipt := &core.TxReceipt{
		TxHash:      txHash,
		Status:      tx.status,
		BlockNumber: tx.block,
		Events:      make([]*core.RawEvent, len(tx.events)),
	}

	for i, event := range tx.events {
		receipt.Events[i] = copyEvent(event)
	}

	return receipt, nil
}

// Submit executes a bridge call sent by the relayer account. The call is packed with the real contract abi
// so malformed calls are rejected the same way a node would reject them.
func (l *Ledger) Submit(_ context.Context, call *core.DestinationCall) (string, error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if l.unavailable {
		return "", core.NewTransientChainError(l.chainID, errLedgerUnavailable)
	}

	if len(l.submitFailures) > 0 {
		err := l.submitFailures[0]
		l.submitFailures = l.submitFailures[1:]

		return "", err
	}

	if call.Contract != l.bridgeAddress {
		return "", l.submissionError(call, fmt.Errorf("no bridge at %s", call.Contract))
	}

	events, err := l.execute(call)
	if err != nil {
		return "", l.submissionError(call, err)
	}

	l.submissions = append(l.submissions, call)

	tx := l.newTx(l.relayerAddress, call.Value)

	switch {
	case l.dropNext > 0:
		l.dropNext--

		return tx.hash.Hex(), nil
	case l.revertNext > 0:
		l.revertNext--
		tx.status = core.ReceiptStatusReverted
	default:
		tx.events = events
	}

	l.enqueue(tx)

	return tx.hash.Hex(), nil
}

// Donate emits a GivethBridge Donate event sent by from
func (l *Ledger) Donate(
	from common.Address, giverID, receiverID uint64, token common.Address, amount *big.Int,
) common.Hash {
	return l.emit(from, amount, core.EventKindDonate, map[string]interface{}{
		"giverId":    giverID,
		"receiverId": receiverID,
		"token":      token,
		"amount":     new(big.Int).Set(amount),
	})
}

// DonateAndCreateGiver emits a GivethBridge DonateAndCreateGiver event sent by from
func (l *Ledger) DonateAndCreateGiver(
	from, giver common.Address, receiverID uint64, token common.Address, amount *big.Int,
) common.Hash {
	return l.emit(from, amount, core.EventKindDonateAndCreateGiver, map[string]interface{}{
		"giver":      giver,
		"receiverId": receiverID,
		"token":      token,
		"amount":     new(big.Int).Set(amount),
	})
}

// Withdraw emits a ForeignGivethBridge Withdraw event for the sender
func (l *Ledger) Withdraw(from, token common.Address, amount *big.Int) common.Hash {
	return l.emit(from, big.NewInt(0), core.EventKindWithdraw, map[string]interface{}{
		"recipient": from,
		"token":     token,
		"amount":    new(big.Int).Set(amount),
	})
}

// EmitRaw adds an arbitrary event, used to feed malformed events to the relayer
func (l *Ledger) EmitRaw(from common.Address, name string, values map[string]interface{}) common.Hash {
	l.lock.Lock()
	defer l.lock.Unlock()

	tx := l.newTx(from, big.NewInt(0))
	tx.events = []*core.RawEvent{{Name: name, Address: l.bridgeAddress, Values: values}}

	l.enqueue(tx)

	return tx.hash
}

// MineBlocks mines count blocks. Queued transactions go into the first one.
func (l *Ledger) MineBlocks(count int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	for i := 0; i < count; i++ {
		l.mine()
	}
}

// Reorg removes the latest depth blocks and returns the hashes of the transactions they held.
// Removed transactions are forgotten.
func (l *Ledger) Reorg(depth uint64) []common.Hash {
	l.lock.Lock()
	defer l.lock.Unlock()

	if depth > l.head() {
		depth = l.head()
	}

	l.generation++

	var removed []common.Hash

	for _, block := range l.blocks[uint64(len(l.blocks))-depth:] {
		for _, tx := range block.txs {
			delete(l.txs, tx.hash)
			removed = append(removed, tx.hash)
		}
	}

	l.blocks = l.blocks[:uint64(len(l.blocks))-depth]

	return removed
}

// ReorgAndReinclude replaces the latest depth blocks with a chain which holds the same transactions
// one block later
func (l *Ledger) ReorgAndReinclude(depth uint64) {
	l.lock.Lock()
	defer l.lock.Unlock()

	if depth > l.head() {
		depth = l.head()
	}

	l.generation++

	removedBlocks := l.blocks[uint64(len(l.blocks))-depth:]
	l.blocks = l.blocks[:uint64(len(l.blocks))-depth]

	l.mine()

	for _, block := range removedBlocks {
		l.mempool = append(l.mempool, block.txs...)
		l.mine()
	}
}

func (l *Ledger) SetUnavailable(value bool) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.unavailable = value
}

// FailSubmissions makes the next submissions return the given errors in order
func (l *Ledger) FailSubmissions(errs ...error) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.submitFailures = append(l.submitFailures, errs...)
}

// DropSubmissions makes the next count accepted submissions disappear without being mined
func (l *Ledger) DropSubmissions(count int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.dropNext += count
}

// RevertSubmissions makes the next count accepted submissions get mined as reverted
func (l *Ledger) RevertSubmissions(count int) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.revertNext += count
}

// MapToken registers the side token a deposit of mainToken mints and pledges
func (l *Ledger) MapToken(mainToken, sideToken common.Address) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.tokenMapping[mainToken] = sideToken
}

func (l *Ledger) SetEventTamper(tamper EventTamper) {
	l.lock.Lock()
	defer l.lock.Unlock()

	l.tamper = tamper
}

// Submissions returns every bridge call accepted by the ledger
func (l *Ledger) Submissions() []*core.DestinationCall {
	l.lock.Lock()
	defer l.lock.Unlock()

	return append([]*core.DestinationCall(nil), l.submissions...)
}

// PledgedBalance sums the liquid pledging donations of the side token to receiverID carried by
// canonical Deposit events
func (l *Ledger) PledgedBalance(receiverID uint64, sideToken common.Address) *big.Int {
	l.lock.Lock()
	defer l.lock.Unlock()

	total := big.NewInt(0)

	l.forEachCanonicalEvent(core.EventKindDeposit, func(event *core.RawEvent) {
		data, _ := event.Values["data"].([]byte)

		donationReceiver, donationToken, amount, err := decodeDonation(data)
		if err == nil && donationReceiver == receiverID && donationToken == sideToken {
			total.Add(total, amount)
		}
	})

	return total
}

// AuthorizedPayments sums the canonical PaymentAuthorized amounts for recipient
func (l *Ledger) AuthorizedPayments(recipient, token common.Address) *big.Int {
	l.lock.Lock()
	defer l.lock.Unlock()

	total := big.NewInt(0)

	l.forEachCanonicalEvent(core.EventKindPaymentAuthorized, func(event *core.RawEvent) {
		if event.Values["recipient"] == recipient && event.Values["token"] == token {
			if amount, ok := event.Values["amount"].(*big.Int); ok {
				total.Add(total, amount)
			}
		}
	})

	return total
}

func (l *Ledger) execute(call *core.DestinationCall) ([]*core.RawEvent, error) {
	input, err := eth.PackDestinationCall(call)
	if err != nil {
		return nil, err
	}

	contractABI, err := ethcontracts.MethodABI(call.Method)
	if err != nil {
		return nil, err
	}

	args, err := contractABI.Methods[call.Method].Inputs.Unpack(input[4:])
	if err != nil {
		return nil, err
	}

	var event *core.RawEvent

	switch call.Method {
	case ethcontracts.MethodDeposit:
		mainToken := args[1].(common.Address) //nolint:forcetypeassert

		sideToken, exists := l.tokenMapping[mainToken]
		if !exists {
			return nil, fmt.Errorf("execution reverted: token %s is not mapped", mainToken)
		}

		_, pledgeToken, _, err := decodeDonation(args[4].([]byte)) //nolint:forcetypeassert
		if err != nil {
			return nil, fmt.Errorf("liquid pledging call failed: %w", err)
		} else if pledgeToken != sideToken {
			return nil, fmt.Errorf("liquid pledging call failed: pledge token %s is not the side token %s",
				pledgeToken, sideToken)
		}

		event = &core.RawEvent{
			Name: core.EventKindDeposit.String(),
			Values: map[string]interface{}{
				"sender": args[0],
				"token":  args[1],
				"amount": args[2],
				"homeTx": args[3],
				"data":   args[4],
			},
		}

	case ethcontracts.MethodAuthorizePayment:
		event = &core.RawEvent{
			Name: core.EventKindPaymentAuthorized.String(),
			Values: map[string]interface{}{
				"idPayment": new(big.Int).SetUint64(uint64(len(l.submissions))),
				"recipient": args[2],
				"amount":    args[4],
				"token":     args[3],
				"reference": args[1],
			},
		}

	default:
		return nil, fmt.Errorf("method %s is not executable on %s", call.Method, l.chainID)
	}

	event.Address = l.bridgeAddress

	if l.tamper != nil {
		l.tamper(event.Name, event.Values)
	}

	return []*core.RawEvent{event}, nil
}

func (l *Ledger) emit(
	from common.Address, value *big.Int, kind core.EventKind, values map[string]interface{},
) common.Hash {
	l.lock.Lock()
	defer l.lock.Unlock()

	tx := l.newTx(from, value)
	tx.events = []*core.RawEvent{{Name: kind.String(), Address: l.bridgeAddress, Values: values}}

	l.enqueue(tx)

	return tx.hash
}

func (l *Ledger) newTx(from common.Address, value *big.Int) *ledgerTx {
	l.txCounter++

	if value == nil {
		value = big.NewInt(0)
	}

	return &ledgerTx{
		hash: crypto.Keccak256Hash(
			[]byte(l.chainID), []byte("tx"), new(big.Int).SetUint64(l.txCounter).Bytes()),
		from:   from,
		value:  new(big.Int).Set(value),
		status: core.ReceiptStatusSuccessful,
	}
}

func (l *Ledger) enqueue(tx *ledgerTx) {
	l.mempool = append(l.mempool, tx)

	if l.autoMine {
		l.mine()
	}
}

func (l *Ledger) mine() {
	number := uint64(len(l.blocks))
	block := &ledgerBlock{number: number, hash: l.blockHash(number), txs: l.mempool}
	logIndex := uint(0)

	for _, tx := range block.txs {
		tx.block = number

		for _, event := range tx.events {
			event.TxHash = tx.hash
			event.BlockNumber = number
			event.BlockHash = block.hash
			event.LogIndex = logIndex
			logIndex++
		}

		l.txs[tx.hash] = tx
	}

	l.mempool = nil
	l.blocks = append(l.blocks, block)
}

func (l *Ledger) head() uint64 {
	return uint64(len(l.blocks) - 1)
}

func (l *Ledger) blockHash(number uint64) common.Hash {
	return crypto.Keccak256Hash([]byte(l.chainID), new(big.Int).SetUint64(number).Bytes(),
		new(big.Int).SetUint64(l.generation).Bytes())
}

func (l *Ledger) forEachCanonicalEvent(kind core.EventKind, handler func(event *core.RawEvent)) {
	for _, block := range l.blocks {
		for _, tx := range block.txs {
			if tx.status != core.ReceiptStatusSuccessful {
				continue
			}

			for _, event := range tx.events {
				if event.Address == l.bridgeAddress && event.Kind() == kind {
					handler(event)
				}
			}
		}
	}
}

func (l *Ledger) submissionError(call *core.DestinationCall, err error) error {
	return &core.SubmissionError{Chain: l.chainID, Method: call.Method, Err: err}
}

// decodeDonation reads the receiver, token and amount of liquid pledging calldata
func decodeDonation(data []byte) (uint64, common.Address, *big.Int, error) {
	if len(data) < 4 {
		return 0, common.Address{}, nil, errors.New("missing liquid pledging method")
	}

	method, err := ethcontracts.LiquidPledgingABI.MethodById(data[:4])
	if err != nil {
		return 0, common.Address{}, nil, err
	}

	args, err := method.Inputs.Unpack(data[4:])
	if err != nil {
		return 0, common.Address{}, nil, err
	}

	var receiverID uint64

	switch method.Name {
	case ethcontracts.MethodDonate:
		receiverID, _ = args[1].(uint64)
	case ethcontracts.MethodAddGiverAndDonate:
		receiverID, _ = args[0].(uint64)
	}

	token, _ := args[2].(common.Address)
	amount, _ := args[3].(*big.Int)

	if amount == nil {
		return 0, common.Address{}, nil, fmt.Errorf("invalid %s amount", method.Name)
	}

	return receiverID, token, amount, nil
}

func copyEvent(event *core.RawEvent) *core.RawEvent {
	values := make(map[string]interface{}, len(event.Values))
	for k, v := range event.Values {
		values[k] = v
	}

	result := *event
	result.Values = values

	return &result
}
