package clirelayer

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/Ethernal-Tech/cardano-infrastructure/logger"
	"github.com/Giveth/giveth-bridge/api"
	apiCore "github.com/Giveth/giveth-bridge/api/core"
	apiUtils "github.com/Giveth/giveth-bridge/api/utils"
	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/api/controllers"
	relayerCore "github.com/Giveth/giveth-bridge/relayer/core"
	relayermanager "github.com/Giveth/giveth-bridge/relayer/relayer_manager"
	"github.com/Giveth/giveth-bridge/telemetry"
	"github.com/spf13/cobra"
)

var initParamsData = &initParams{}

func GetRunRelayerCommand() *cobra.Command {
	runRelayerCmd := &cobra.Command{
		Use:     "run-relayer",
		Short:   "runs the bridge relayer until interrupted",
		PreRunE: runPreRun,
		Run:     runCommand,
	}

	initParamsData.setFlags(runRelayerCmd)

	return runRelayerCmd
}

func runPreRun(_ *cobra.Command, _ []string) error {
	return initParamsData.validateFlags()
}

func runCommand(cmd *cobra.Command, _ []string) {
	outputter := common.InitializeOutputter(cmd)
	defer outputter.WriteOutput()

	_, _ = outputter.Write([]byte("Starting relayer...\n"))

	config, err := relayerCore.LoadRelayerManagerConfig(initParamsData.config)
	if err != nil {
		outputter.SetError(err)

		return
	}

	logger, err := logger.NewLogger(config.Logger)
	if err != nil {
		outputter.SetError(err)

		return
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Error("PANIC", "err", r)
			outputter.SetError(fmt.Errorf("%v", r))
		}
	}()

	ctx, cancelCtx := context.WithCancel(context.Background())
	defer cancelCtx()

	telemetryService := telemetry.NewTelemetry(config.Telemetry, logger.Named("telemetry"))
	if err := telemetryService.Start(); err != nil {
		logger.Error("telemetry start failed", "err", err)
		outputter.SetError(err)

		return
	}

	defer func() {
		if err := telemetryService.Close(context.Background()); err != nil {
			logger.Error("telemetry close failed", "err", err)
		}
	}()

	relayerManager, err := relayermanager.NewRelayerManager(config, logger)
	if err != nil {
		logger.Error("relayer manager creation failed", "err", err)
		outputter.SetError(err)

		return
	}

	if err := relayerManager.Start(); err != nil {
		outputter.SetError(err)

		return
	}

	defer func() {
		if err := relayerManager.Stop(); err != nil {
			logger.Error("relayer manager stop failed", "err", err)
		}
	}()

	if config.API.IsEnabled() {
		apiLogger, err := apiUtils.NewAPILogger(config.Logger)
		if err != nil {
			outputter.SetError(err)

			return
		}

		apiObj, err := api.NewAPI(ctx, config.API, []apiCore.APIController{
			controllers.NewRelayStateController(relayerManager.GetDatabase(), apiLogger.Named("relay_state_controller")),
		}, apiLogger)
		if err != nil {
			outputter.SetError(err)

			return
		}

		go apiObj.Start()

		defer func() {
			if err := apiObj.Dispose(); err != nil {
				logger.Error("api dispose failed", "err", err)
			}
		}()
	}

	_, _ = outputter.Write([]byte("Relayer has been started\n"))

	signalChannel := make(chan os.Signal, 1)
	// Notify the signalChannel when the interrupt signal is received (Ctrl+C)
	signal.Notify(signalChannel, os.Interrupt, syscall.SIGTERM)

	<-signalChannel

	outputter.SetCommandResult(&CmdResult{})
}
