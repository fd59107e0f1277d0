package cliwalletcreate

import (
	"github.com/Giveth/giveth-bridge/common"
	"github.com/spf13/cobra"
)

var walletCreateParamsData = &walletCreateParams{}

func GetWalletCreateCommand() *cobra.Command {
	walletCreateCmd := &cobra.Command{
		Use:     "wallet-create",
		Short:   "creates or imports the relayer evm key of a chain into the secrets manager",
		PreRunE: runPreRun,
		Run:     common.GetCliRunCommand(walletCreateParamsData),
	}

	walletCreateParamsData.setFlags(walletCreateCmd)

	return walletCreateCmd
}

func runPreRun(_ *cobra.Command, _ []string) error {
	return walletCreateParamsData.validateFlags()
}
