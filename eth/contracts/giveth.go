package ethcontracts

import (
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

const givethBridgeABIJSON = `[
	{"type":"event","name":"Donate","anonymous":false,"inputs":[
		{"name":"giverId","type":"uint64","indexed":false},
		{"name":"receiverId","type":"uint64","indexed":false},
		{"name":"token","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"DonateAndCreateGiver","anonymous":false,"inputs":[
		{"name":"giver","type":"address","indexed":false},
		{"name":"receiverId","type":"uint64","indexed":false},
		{"name":"token","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"event","name":"PaymentAuthorized","anonymous":false,"inputs":[
		{"name":"idPayment","type":"uint256","indexed":true},
		{"name":"recipient","type":"address","indexed":true},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"token","type":"address","indexed":false},
		{"name":"reference","type":"bytes32","indexed":false}]},
	{"type":"function","name":"donate","stateMutability":"payable","outputs":[],"inputs":[
		{"name":"giverId","type":"uint64"},
		{"name":"receiverId","type":"uint64"},
		{"name":"token","type":"address"},
		{"name":"_amount","type":"uint256"}]},
	{"type":"function","name":"donateAndCreateGiver","stateMutability":"payable","outputs":[],"inputs":[
		{"name":"giver","type":"address"},
		{"name":"receiverId","type":"uint64"},
		{"name":"token","type":"address"},
		{"name":"_amount","type":"uint256"}]},
	{"type":"function","name":"authorizePayment","stateMutability":"nonpayable","outputs":[{"name":"","type":"uint256"}],"inputs":[
		{"name":"_name","type":"string"},
		{"name":"_reference","type":"bytes32"},
		{"name":"_recipient","type":"address"},
		{"name":"_token","type":"address"},
		{"name":"_amount","type":"uint256"},
		{"name":"_paymentDelay","type":"uint256"}]}
]`

const foreignGivethBridgeABIJSON = `[
	{"type":"event","name":"Deposit","anonymous":false,"inputs":[
		{"name":"sender","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false},
		{"name":"homeTx","type":"bytes32","indexed":false},
		{"name":"data","type":"bytes","indexed":false}]},
	{"type":"event","name":"Withdraw","anonymous":false,"inputs":[
		{"name":"recipient","type":"address","indexed":true},
		{"name":"token","type":"address","indexed":false},
		{"name":"amount","type":"uint256","indexed":false}]},
	{"type":"function","name":"deposit","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"sender","type":"address"},
		{"name":"mainToken","type":"address"},
		{"name":"amount","type":"uint256"},
		{"name":"homeTx","type":"bytes32"},
		{"name":"data","type":"bytes"}]},
	{"type":"function","name":"withdraw","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"sideToken","type":"address"},
		{"name":"amount","type":"uint256"}]}
]`

const liquidPledgingABIJSON = `[
	{"type":"function","name":"donate","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"idGiver","type":"uint64"},
		{"name":"idReceiver","type":"uint64"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"}]},
	{"type":"function","name":"addGiverAndDonate","stateMutability":"nonpayable","outputs":[],"inputs":[
		{"name":"idReceiver","type":"uint64"},
		{"name":"donorAddress","type":"address"},
		{"name":"token","type":"address"},
		{"name":"amount","type":"uint256"}]}
]`

const (
	MethodDeposit           = "deposit"
	MethodAuthorizePayment  = "authorizePayment"
	MethodDonate            = "donate"
	MethodAddGiverAndDonate = "addGiverAndDonate"
)

var (
	GivethBridgeABI        = mustParseABI("GivethBridge", givethBridgeABIJSON)
	ForeignGivethBridgeABI = mustParseABI("ForeignGivethBridge", foreignGivethBridgeABIJSON)
	LiquidPledgingABI      = mustParseABI("LiquidPledging", liquidPledgingABIJSON)
)

// EventABI returns the abi describing the given event name together with the contract abi it belongs to.
// Events of both bridge contracts are unique by name.
func EventABI(name string) (*abi.ABI, abi.Event, error) {
	for _, contractABI := range []*abi.ABI{GivethBridgeABI, ForeignGivethBridgeABI} {
		if event, exists := contractABI.Events[name]; exists {
			return contractABI, event, nil
		}
	}

	return nil, abi.Event{}, fmt.Errorf("unknown event: %s", name)
}

// MethodABI returns the contract abi which declares the bridge method
func MethodABI(method string) (*abi.ABI, error) {
	for _, contractABI := range []*abi.ABI{GivethBridgeABI, ForeignGivethBridgeABI} {
		if _, exists := contractABI.Methods[method]; exists {
			return contractABI, nil
		}
	}

	return nil, fmt.Errorf("unknown bridge method: %s", method)
}

func mustParseABI(name, value string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(value))
	if err != nil {
		panic(fmt.Sprintf("invalid %s abi: %v", name, err))
	}

	return &parsed
}
