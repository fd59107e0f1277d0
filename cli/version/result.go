package cliversion

import (
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
)

type versionCmdResult struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Branch    string `json:"branch"`
	BuildTime string `json:"buildTime"`
}

func (r *versionCmdResult) GetOutput() string {
	return common.FormatKV([]string{
		fmt.Sprintf("Version|%s", r.Version),
		fmt.Sprintf("Commit|%s", r.Commit),
		fmt.Sprintf("Branch|%s", r.Branch),
		fmt.Sprintf("Build Time|%s", r.BuildTime),
	}) + "\n"
}
