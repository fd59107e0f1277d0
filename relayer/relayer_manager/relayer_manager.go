package relayermanager

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/eth"
	ethtxhelper "github.com/Giveth/giveth-bridge/eth/txhelper"
	"github.com/Giveth/giveth-bridge/relayer/core"
	databaseaccess "github.com/Giveth/giveth-bridge/relayer/database_access"
	"github.com/Giveth/giveth-bridge/relayer/normalizer"
	"github.com/Giveth/giveth-bridge/relayer/relayer"
	"github.com/Giveth/giveth-bridge/relayer/verifier"
	"github.com/Giveth/giveth-bridge/telemetry"
	"github.com/hashicorp/go-hclog"
)

type RelayerManagerImpl struct {
	config   *core.RelayerManagerConfiguration
	db       core.Database
	relayer  core.Relayer
	verifier core.Verifier
	logger   hclog.Logger

	cycleLock sync.Mutex
	cancelCtx context.CancelFunc
	loopDone  chan struct{}
}

var _ core.RelayerManager = (*RelayerManagerImpl)(nil)

// NewRelayerManager connects to both chains described by config and opens the relay database
func NewRelayerManager(
	config *core.RelayerManagerConfiguration, logger hclog.Logger,
) (*RelayerManagerImpl, error) {
	secretsManager, err := common.GetSecretsManager(
		config.Secrets.DataDir, config.Secrets.ConfigPath, config.Secrets.DataDir != "")
	if err != nil {
		return nil, fmt.Errorf("failed to create secrets manager: %w", err)
	}

	sources := map[string]core.ChainEventSource{}
	submitters := map[string]core.ChainTransactionSubmitter{}

	for _, chainConfig := range []core.ChainConfig{config.Relayer.HomeChain, config.Relayer.ForeignChain} {
		chainLogger := logger.Named(strings.ToUpper(chainConfig.ChainID))

		wallet, err := eth.GetRelayerEVMPrivateKey(secretsManager, chainConfig.ChainID)
		if err != nil {
			return nil, fmt.Errorf("failed to load relayer key for %s: %w", chainConfig.ChainID, err)
		}

		ethHelper := eth.NewEthHelperWrapperWithWallet(wallet, chainLogger, getTxHelperOptions(chainConfig)...)

		sources[chainConfig.ChainID] = eth.NewEventSource(chainConfig.ChainID, ethHelper, chainLogger)
		submitters[chainConfig.ChainID] = eth.NewSubmitter(chainConfig.ChainID, ethHelper, chainLogger)

		logger.Info("chain configured", "chain", chainConfig.ChainID,
			"bridge", chainConfig.BridgeAddress, "relayer", wallet.GetAddressHex())
	}

	db, err := databaseaccess.NewDatabase(filepath.Join(config.DbsPath, databaseaccess.DBFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to open relayer database: %w", err)
	}

	return NewRelayerManagerWithChains(config, sources, submitters, db, logger), nil
}

func getTxHelperOptions(chainConfig core.ChainConfig) []ethtxhelper.TxRelayerOption {
	opts := []ethtxhelper.TxRelayerOption{
		ethtxhelper.WithNodeURL(chainConfig.NodeURL),
		ethtxhelper.WithDynamicTx(chainConfig.DynamicTx),
		ethtxhelper.WithGasFeeMultiplier(chainConfig.GasFeeMultiplier),
		ethtxhelper.WithNonceStrategyType(ethtxhelper.NonceCombinedStrategy),
	}

	if chainConfig.EvmChainID > 0 {
		opts = append(opts, ethtxhelper.WithChainID(new(big.Int).SetUint64(chainConfig.EvmChainID)))
	}

	return opts
}

// NewRelayerManagerWithChains builds the manager around already constructed chain adapters
func NewRelayerManagerWithChains(
	config *core.RelayerManagerConfiguration,
	sources map[string]core.ChainEventSource,
	submitters map[string]core.ChainTransactionSubmitter,
	db core.Database,
	logger hclog.Logger,
) *RelayerManagerImpl {
	eventNormalizer := normalizer.NewEventNormalizer()

	return &RelayerManagerImpl{
		config: config,
		db:     db,
		relayer: relayer.NewRelayer(
			&config.Relayer, sources, submitters, eventNormalizer, db, logger.Named("relayer")),
		verifier: verifier.NewVerifier(
			&config.Relayer, sources, eventNormalizer, db, logger.Named("verifier")),
		logger: logger,
	}
}

func (rm *RelayerManagerImpl) GetDatabase() core.Database {
	return rm.db
}

// RunCycle runs one poll followed by one verification. Cycles never overlap.
func (rm *RelayerManagerImpl) RunCycle(ctx context.Context) error {
	rm.cycleLock.Lock()
	defer rm.cycleLock.Unlock()

	pollErr := rm.relayer.Poll(ctx)
	if pollErr != nil {
		pollErr = fmt.Errorf("poll failed: %w", pollErr)
	}

	results, verifyErr := rm.verifier.Verify(ctx)
	if verifyErr != nil {
		verifyErr = fmt.Errorf("verify failed: %w", verifyErr)
	}

	for _, result := range results {
		if !result.Matched {
			rm.logger.Error("relay needs attention", "key", result.IdempotencyKey, "discrepancy", result.Discrepancy)
		}
	}

	if counts, err := rm.db.CountByStatus(); err == nil {
		for status, cnt := range counts {
			telemetry.UpdateRelayStatusGauge(string(status), cnt)
		}
	}

	return errors.Join(pollErr, verifyErr)
}

func (rm *RelayerManagerImpl) Start() error {
	ctx, cancelCtx := context.WithCancel(context.Background())

	rm.cancelCtx = cancelCtx
	rm.loopDone = make(chan struct{})

	go rm.loop(ctx)

	rm.logger.Info("Relayer started", "pullTime", rm.config.PullTime())

	return nil
}

func (rm *RelayerManagerImpl) Stop() error {
	if rm.cancelCtx != nil {
		rm.cancelCtx()
		<-rm.loopDone
	}

	rm.logger.Info("Relayer stopped")

	return rm.db.Close()
}

func (rm *RelayerManagerImpl) loop(ctx context.Context) {
	defer close(rm.loopDone)

	ticker := time.NewTicker(rm.config.PullTime())
	defer ticker.Stop()

	for {
		if err := rm.RunCycle(ctx); err != nil && !common.IsContextDoneErr(err) {
			rm.logger.Error("cycle failed", "err", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
