package cliruncycle

import (
	"bytes"
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
)

type CmdResult struct {
	Counts     map[string]int `json:"counts"`
	CycleError string         `json:"cycleError,omitempty"`
}

func (r CmdResult) GetOutput() string {
	var buffer bytes.Buffer

	vals := make([]string, 0, len(core.AllRelayStatuses)+1)
	for _, status := range core.AllRelayStatuses {
		vals = append(vals, fmt.Sprintf("%s|%d", status, r.Counts[string(status)]))
	}

	if r.CycleError != "" {
		vals = append(vals, fmt.Sprintf("error|%s", r.CycleError))
	}

	buffer.WriteString("[CYCLE]\n")
	buffer.WriteString(common.FormatKV(vals))
	buffer.WriteString("\n")

	return buffer.String()
}
