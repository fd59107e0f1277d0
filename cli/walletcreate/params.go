package cliwalletcreate

import (
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/eth"
	"github.com/spf13/cobra"
)

const (
	dataDirFlag         = "data-dir"
	secretsConfigFlag   = "secrets-config"
	chainIDFlag         = "chain"
	privateKeyFlag      = "pk"
	forceRegenerateFlag = "force"
	showPrivateKeyFlag  = "show-pk"

	dataDirFlagDesc         = "(mandatory secrets-config not specified) Path to the data directory when using local secrets manager" //nolint:lll
	secretsConfigFlagDesc   = "(mandatory data-dir not specified) Path to the secrets manager config file"
	chainIDFlagDesc         = "chain ID (home, foreign)"
	privateKeyFlagDesc      = "hex encoded private key to import instead of generating a new one"
	forceRegenerateFlagDesc = "force regenerating keys even if they exist in specified directory"
	showPrivateKeyFlagDesc  = "show private key in output"
)

type walletCreateParams struct {
	dataDir         string
	secretsConfig   string
	chainID         string
	privateKey      string
	forceRegenerate bool
	showPrivateKey  bool
}

func (ip *walletCreateParams) validateFlags() error {
	if ip.dataDir == "" && ip.secretsConfig == "" {
		return fmt.Errorf("specify at least one of: %s, %s", dataDirFlag, secretsConfigFlag)
	}

	if !common.IsKnownChainID(ip.chainID) {
		return fmt.Errorf("--%s flag must be one of: %s, %s", chainIDFlag, common.ChainIDStrHome, common.ChainIDStrForeign)
	}

	return nil
}

func (ip *walletCreateParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&ip.dataDir,
		dataDirFlag,
		"",
		dataDirFlagDesc,
	)

	cmd.Flags().StringVar(
		&ip.secretsConfig,
		secretsConfigFlag,
		"",
		secretsConfigFlagDesc,
	)

	cmd.Flags().StringVar(
		&ip.chainID,
		chainIDFlag,
		"",
		chainIDFlagDesc,
	)

	cmd.Flags().StringVar(
		&ip.privateKey,
		privateKeyFlag,
		"",
		privateKeyFlagDesc,
	)

	cmd.Flags().BoolVar(
		&ip.forceRegenerate,
		forceRegenerateFlag,
		false,
		forceRegenerateFlagDesc,
	)

	cmd.Flags().BoolVar(
		&ip.showPrivateKey,
		showPrivateKeyFlag,
		false,
		showPrivateKeyFlagDesc,
	)

	cmd.MarkFlagsMutuallyExclusive(dataDirFlag, secretsConfigFlag)
}

func (ip *walletCreateParams) Execute(_ common.OutputFormatter) (common.ICommandResult, error) {
	secretsManager, err := common.GetSecretsManager(ip.dataDir, ip.secretsConfig, true)
	if err != nil {
		return nil, err
	}

	evmWallet, err := eth.CreateAndSaveRelayerEVMPrivateKey(secretsManager, ip.chainID, ip.privateKey, ip.forceRegenerate)
	if err != nil {
		return nil, err
	}

	pk, pub, addr := evmWallet.GetHexData()

	return &evmCmdResult{
		ChainID:        ip.chainID,
		PrivateKey:     pk,
		PublicKey:      pub,
		Address:        addr,
		showPrivateKey: ip.showPrivateKey,
	}, nil
}
