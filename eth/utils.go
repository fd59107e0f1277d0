package eth

import (
	"fmt"
	"strings"

	"github.com/Ethernal-Tech/cardano-infrastructure/secrets"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
)

var connectionErrorMessages = []string{
	"connection refused",
	"connection reset",
	"no such host",
	"EOF",
}

func GetRelayerKeyName(chainID string) string {
	return fmt.Sprintf("%s_relayer_evm_key", chainID)
}

func GetRelayerEVMPrivateKey(secretsManager secrets.SecretsManager, chainID string) (*ethtxhelper.EthTxWallet, error) {
	return ethtxhelper.LoadEthTxWallet(secretsManager, GetRelayerKeyName(chainID))
}

// CreateAndSaveRelayerEVMPrivateKey stores pk (or a freshly generated key when pk is empty) for the chain
func CreateAndSaveRelayerEVMPrivateKey(
	secretsManager secrets.SecretsManager, chainID string, pk string, forceRegenerate bool,
) (*ethtxhelper.EthTxWallet, error) {
	keyName := GetRelayerKeyName(chainID)

	if secretsManager.HasSecret(keyName) {
		if !forceRegenerate {
			return GetRelayerEVMPrivateKey(secretsManager, chainID)
		}

		if err := secretsManager.RemoveSecret(keyName); err != nil {
			return nil, err
		}
	}

	var (
		ethWallet *ethtxhelper.EthTxWallet
		err       error
	)

	if pk != "" {
		ethWallet, err = ethtxhelper.NewEthTxWallet(pk)
	} else {
		ethWallet, err = ethtxhelper.GenerateNewEthTxWallet()
	}

	if err != nil {
		return nil, err
	}

	return ethWallet, ethWallet.Save(secretsManager, keyName)
}

func isConnectionError(err error) bool {
	errStr := err.Error()

	for _, msg := range connectionErrorMessages {
		if strings.Contains(errStr, msg) {
			return true
		}
	}

	return false
}
