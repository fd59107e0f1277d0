package main

import (
	"github.com/Giveth/giveth-bridge/cli"
)

func main() {
	cli.NewRootCommand().Execute()
}
