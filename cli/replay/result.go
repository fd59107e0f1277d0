package clireplay

import (
	"bytes"
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
)

type CmdResult struct {
	Record *core.RelayRecord `json:"record"`
}

func (r CmdResult) GetOutput() string {
	var buffer bytes.Buffer

	buffer.WriteString("[REPLAYED]\n")
	buffer.WriteString(common.FormatKV([]string{
		fmt.Sprintf("Key|%s", r.Record.IdempotencyKey),
		fmt.Sprintf("Status|%s", r.Record.Status),
		fmt.Sprintf("Intent|%s", r.Record.Intent),
	}))
	buffer.WriteString("\n")

	return buffer.String()
}
