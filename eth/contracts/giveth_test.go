package ethcontracts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEventABI(t *testing.T) {
	for name, expected := range map[string]interface{}{
		"Donate":               GivethBridgeABI,
		"DonateAndCreateGiver": GivethBridgeABI,
		"PaymentAuthorized":    GivethBridgeABI,
		"Deposit":              ForeignGivethBridgeABI,
		"Withdraw":             ForeignGivethBridgeABI,
	} {
		contractABI, event, err := EventABI(name)
		require.NoError(t, err)
		require.Same(t, expected, contractABI)
		require.Equal(t, name, event.Name)
	}

	_, _, err := EventABI("Transfer")
	require.ErrorContains(t, err, "unknown event")
}

func TestMethodABI(t *testing.T) {
	contractABI, err := MethodABI(MethodDeposit)
	require.NoError(t, err)
	require.Same(t, ForeignGivethBridgeABI, contractABI)

	contractABI, err = MethodABI(MethodAuthorizePayment)
	require.NoError(t, err)
	require.Same(t, GivethBridgeABI, contractABI)

	_, err = MethodABI(MethodAddGiverAndDonate)
	require.Error(t, err)

	require.Contains(t, LiquidPledgingABI.Methods, MethodAddGiverAndDonate)
	require.Contains(t, LiquidPledgingABI.Methods, MethodDonate)
}
