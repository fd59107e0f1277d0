package cliwalletcreate

import (
	"bytes"
	"fmt"

	"github.com/Giveth/giveth-bridge/common"
)

type evmCmdResult struct {
	ChainID        string `json:"chainId"`
	PrivateKey     string `json:"privateKey,omitempty"`
	PublicKey      string `json:"publicKey"`
	Address        string `json:"address"`
	showPrivateKey bool
}

func (r evmCmdResult) GetOutput() string {
	var (
		buffer bytes.Buffer
		vals   []string
	)

	if r.showPrivateKey {
		vals = append(vals, fmt.Sprintf("Private Key|%s", r.PrivateKey))
	}

	vals = append(vals,
		fmt.Sprintf("Public Key|%s", r.PublicKey),
		fmt.Sprintf("Address|%s", r.Address))

	buffer.WriteString("\n[RELAYER SECRETS ")
	buffer.WriteString(r.ChainID)
	buffer.WriteString("]\n")
	buffer.WriteString(common.FormatKV(vals))
	buffer.WriteString("\n")

	return buffer.String()
}
