package clireport

import (
	"github.com/Giveth/giveth-bridge/common"
	"github.com/spf13/cobra"
)

var reportParamsData = &reportParams{}

func GetReportCommand() *cobra.Command {
	reportCmd := &cobra.Command{
		Use:   "report",
		Short: "reports relay counts, scan cursors and the records needing attention",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return reportParamsData.validateFlags()
		},
		Run: common.GetCliRunCommand(reportParamsData),
	}

	reportParamsData.setFlags(reportCmd)

	return reportCmd
}
