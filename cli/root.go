package cli

import (
	"fmt"
	"os"

	clirelayer "github.com/Giveth/giveth-bridge/cli/relayer"
	clireplay "github.com/Giveth/giveth-bridge/cli/replay"
	clireport "github.com/Giveth/giveth-bridge/cli/report"
	cliruncycle "github.com/Giveth/giveth-bridge/cli/runcycle"
	cliversion "github.com/Giveth/giveth-bridge/cli/version"
	cliwalletcreate "github.com/Giveth/giveth-bridge/cli/walletcreate"
	"github.com/Giveth/giveth-bridge/common"
	"github.com/spf13/cobra"
)

type RootCommand struct {
	baseCmd *cobra.Command
}

func NewRootCommand() *RootCommand {
	rootCommand := &RootCommand{
		baseCmd: &cobra.Command{
			Short: "cli commands for giveth bridge",
		},
	}

	common.RegisterJSONOutputFlag(rootCommand.baseCmd)

	rootCommand.registerSubCommands()

	return rootCommand
}

func (rc *RootCommand) registerSubCommands() {
	rc.baseCmd.AddCommand(
		cliversion.GetVersionCommand(),
		cliwalletcreate.GetWalletCreateCommand(),
		clirelayer.GetRunRelayerCommand(),
		cliruncycle.GetRunCycleCommand(),
		clireport.GetReportCommand(),
		clireplay.GetReplayCommand(),
	)
}

func (rc *RootCommand) Execute() {
	if err := rc.baseCmd.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)

		os.Exit(1)
	}
}
