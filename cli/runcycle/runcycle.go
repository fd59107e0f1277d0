package cliruncycle

import (
	"github.com/Giveth/giveth-bridge/common"
	"github.com/spf13/cobra"
)

var runCycleParamsData = &runCycleParams{}

func GetRunCycleCommand() *cobra.Command {
	runCycleCmd := &cobra.Command{
		Use:   "run-cycle",
		Short: "runs exactly one poll and verify cycle and reports relay counts",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return runCycleParamsData.validateFlags()
		},
		Run: common.GetCliRunCommand(runCycleParamsData),
	}

	runCycleParamsData.setFlags(runCycleCmd)

	return runCycleCmd
}
