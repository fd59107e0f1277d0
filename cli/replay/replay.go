package clireplay

import (
	"github.com/Giveth/giveth-bridge/common"
	"github.com/spf13/cobra"
)

var replayParamsData = &replayParams{}

func GetReplayCommand() *cobra.Command {
	replayCmd := &cobra.Command{
		Use:   "replay",
		Short: "resets a failed relay record to pending so the relayer submits it again",
		PreRunE: func(_ *cobra.Command, _ []string) error {
			return replayParamsData.validateFlags()
		},
		Run: common.GetCliRunCommand(replayParamsData),
	}

	replayParamsData.setFlags(replayCmd)

	return replayCmd
}
