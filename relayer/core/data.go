package core

import (
	"fmt"
	"math/big"
	"strconv"

	bridgeCommon "github.com/Giveth/giveth-bridge/common"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

type Direction uint8

const (
	DirectionHomeToForeign Direction = iota + 1
	DirectionForeignToHome
)

func (d Direction) String() string {
	switch d {
	case DirectionHomeToForeign:
		return "home->foreign"
	case DirectionForeignToHome:
		return "foreign->home"
	default:
		return "unknown"
	}
}

type EventKind uint8

const (
	EventKindUnknown EventKind = iota
	// source events
	EventKindDonate
	EventKindDonateAndCreateGiver
	EventKindWithdraw
	// destination confirmation events
	EventKindDeposit
	EventKindPaymentAuthorized
)

var eventKindNames = map[EventKind]string{
	EventKindDonate:               "Donate",
	EventKindDonateAndCreateGiver: "DonateAndCreateGiver",
	EventKindWithdraw:             "Withdraw",
	EventKindDeposit:              "Deposit",
	EventKindPaymentAuthorized:    "PaymentAuthorized",
}

func (k EventKind) String() string {
	if name, exists := eventKindNames[k]; exists {
		return name
	}

	return "Unknown"
}

// ParseEventKind maps a contract event name to its kind. Unrecognized names yield EventKindUnknown.
func ParseEventKind(name string) EventKind {
	for kind, kindName := range eventKindNames {
		if kindName == name {
			return kind
		}
	}

	return EventKindUnknown
}

// RawEvent is a decoded log entry emitted by a monitored contract
type RawEvent struct {
	Name        string
	Address     common.Address
	TxHash      common.Hash
	BlockNumber uint64
	BlockHash   common.Hash
	LogIndex    uint
	// Values holds both indexed and non-indexed arguments keyed by abi argument name
	Values map[string]interface{}
}

func (e *RawEvent) Kind() EventKind {
	return ParseEventKind(e.Name)
}

type TxMeta struct {
	Hash  common.Hash
	From  common.Address
	Value *big.Int
}

// RelayIntent is the chain agnostic form of a source event. It is never modified after creation.
type RelayIntent struct {
	IdempotencyKey string         `json:"key"`
	SourceChain    string         `json:"sourceChain"`
	Direction      Direction      `json:"direction"`
	EventKind      EventKind      `json:"eventKind"`
	Payer          common.Address `json:"payer"`
	Payee          common.Address `json:"payee"`
	GiverID        uint64         `json:"giverId"`
	ReceiverID     uint64         `json:"receiverId"`
	Amount         *big.Int       `json:"amount"`
	Token          common.Address `json:"token"`
	SourceTxHash   common.Hash    `json:"sourceTxHash"`
	SourceBlock    uint64         `json:"sourceBlock"`
	LogIndex       uint           `json:"logIndex"`
}

func (ri RelayIntent) DestinationChain() string {
	return bridgeCommon.OtherChainID(ri.SourceChain)
}

func (ri RelayIntent) String() string {
	return fmt.Sprintf("{key=%s, chain=%s, kind=%s, tx=%s, amount=%s}",
		ri.IdempotencyKey, ri.SourceChain, ri.EventKind, ri.SourceTxHash, ri.Amount)
}

// ToIdempotencyKey is deterministic in (sourceChain, sourceTxHash, logIndex) so rescanning a
// block range always yields the same keys
func ToIdempotencyKey(sourceChain string, sourceTxHash common.Hash, logIndex uint) string {
	preimage := append(append([]byte(sourceChain), ':'), []byte(sourceTxHash.Hex())...)
	preimage = append(append(preimage, ':'), []byte(strconv.FormatUint(uint64(logIndex), 10))...)

	return crypto.Keccak256Hash(preimage).Hex()
}

// ConfirmationEvent is the normalized form of the event a destination call emits
type ConfirmationEvent struct {
	EventKind    EventKind
	Payer        common.Address
	Payee        common.Address
	Amount       *big.Int
	Token        common.Address
	SourceTxHash common.Hash
	Data         []byte
}

type ReceiptStatus uint8

const (
	ReceiptStatusNotFound ReceiptStatus = iota
	ReceiptStatusSuccessful
	ReceiptStatusReverted
)

type TxReceipt struct {
	TxHash      common.Hash
	Status      ReceiptStatus
	BlockNumber uint64
	Events      []*RawEvent
}

// DestinationCall is a contract method invocation on the destination chain
type DestinationCall struct {
	Chain    string
	Contract common.Address
	Method   string
	Args     []interface{}
	Value    *big.Int
}

type ScanCursor struct {
	Chain            string         `json:"chain"`
	ContractAddress  common.Address `json:"contract"`
	LastScannedBlock uint64         `json:"lastScannedBlock"`
}

type VerificationResult struct {
	IdempotencyKey string
	Matched        bool
	Discrepancy    string
}
