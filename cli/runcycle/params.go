package cliruncycle

import (
	"context"
	"fmt"

	"github.com/Ethernal-Tech/cardano-infrastructure/logger"
	"github.com/Giveth/giveth-bridge/common"
	relayerCore "github.com/Giveth/giveth-bridge/relayer/core"
	relayermanager "github.com/Giveth/giveth-bridge/relayer/relayer_manager"
	"github.com/spf13/cobra"
)

const (
	configFlag     = "config"
	configFlagDesc = "path to config json file (relayer_config.json next to the executable by default)"
)

type runCycleParams struct {
	config string
}

func (p *runCycleParams) validateFlags() error {
	return nil
}

func (p *runCycleParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&p.config,
		configFlag,
		"",
		configFlagDesc,
	)
}

func (p *runCycleParams) Execute(outputter common.OutputFormatter) (common.ICommandResult, error) {
	config, err := relayerCore.LoadRelayerManagerConfig(p.config)
	if err != nil {
		return nil, err
	}

	logger, err := logger.NewLogger(config.Logger)
	if err != nil {
		return nil, err
	}

	relayerManager, err := relayermanager.NewRelayerManager(config, logger)
	if err != nil {
		return nil, err
	}

	defer relayerManager.Stop() //nolint:errcheck

	_, _ = outputter.Write([]byte("Running poll and verify cycle...\n"))

	cycleErr := relayerManager.RunCycle(context.Background())

	counts, err := relayerManager.GetDatabase().CountByStatus()
	if err != nil {
		return nil, fmt.Errorf("failed to count relay records: %w", err)
	}

	result := &CmdResult{Counts: make(map[string]int, len(counts))}

	for status, cnt := range counts {
		result.Counts[string(status)] = cnt
	}

	if cycleErr != nil {
		result.CycleError = cycleErr.Error()
	}

	return result, nil
}
