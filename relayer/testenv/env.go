package testenv

import (
	"context"
	"path/filepath"

	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
	databaseaccess "github.com/Giveth/giveth-bridge/relayer/database_access"
	relayermanager "github.com/Giveth/giveth-bridge/relayer/relayer_manager"
	ethcommon "github.com/ethereum/go-ethereum/common"
	"github.com/hashicorp/go-hclog"
)

var (
	HomeBridgeAddress    = ethcommon.HexToAddress("0x8fed3F9126e7051DeA6c530920cb0BAE5ffa17a8")
	ForeignBridgeAddress = ethcommon.HexToAddress("0x8f86403A4DE0BB5791fa46B8e795C547942fE4Cf")
	RelayerAddress       = ethcommon.HexToAddress("0x90F79bf6EB2c4f870365E785982E1f101E93b906")
	// HomeTokenETH is the native currency on the home chain, ForeignTokenETH the token minted for it on foreign
	HomeTokenETH    = ethcommon.Address{}
	ForeignTokenETH = ethcommon.HexToAddress("0xe7f1725E7734CE288F8367e1Bb143E90bb3F0512")
)

// Env is a home and a foreign ledger bridged by a relayer manager backed by a real bbolt database
type Env struct {
	Home    *Ledger
	Foreign *Ledger
	Config  *core.RelayerManagerConfiguration
	DB      core.Database
	Manager *relayermanager.RelayerManagerImpl
}

type EnvOption func(config *core.RelayerManagerConfiguration)

func WithMaxAttempts(maxAttempts uint32) EnvOption {
	return func(config *core.RelayerManagerConfiguration) {
		config.Relayer.MaxAttempts = maxAttempts
	}
}

func WithConfirmationDepth(home, foreign uint64) EnvOption {
	return func(config *core.RelayerManagerConfiguration) {
		config.Relayer.HomeChain.ConfirmationDepth = home
		config.Relayer.ForeignChain.ConfirmationDepth = foreign
	}
}

func WithReorgWindow(reorgWindow uint64) EnvOption {
	return func(config *core.RelayerManagerConfiguration) {
		config.Relayer.ReorgWindow = reorgWindow
	}
}

func WithDropWindow(dropWindow uint64) EnvOption {
	return func(config *core.RelayerManagerConfiguration) {
		config.Relayer.DropWindow = dropWindow
	}
}

// NewEnv creates both ledgers with auto mining and opens the relay database inside dbsPath
func NewEnv(dbsPath string, logger hclog.Logger, opts ...EnvOption) (*Env, error) {
	config := &core.RelayerManagerConfiguration{
		Relayer: core.RelayerConfiguration{
			HomeChain: core.ChainConfig{
				ChainID:       common.ChainIDStrHome,
				BridgeAddress: HomeBridgeAddress.Hex(),
			},
			ForeignChain: core.ChainConfig{
				ChainID:       common.ChainIDStrForeign,
				BridgeAddress: ForeignBridgeAddress.Hex(),
			},
			ReorgWindow: 2,
			MaxAttempts: 3,
			DropWindow:  3,
			TokenMapping: map[ethcommon.Address]ethcommon.Address{
				HomeTokenETH: ForeignTokenETH,
			},
		},
		DbsPath: dbsPath,
	}

	for _, opt := range opts {
		opt(config)
	}

	config.SetDefaults()

	if err := config.Relayer.Validate(); err != nil {
		return nil, err
	}

	db, err := databaseaccess.NewDatabase(filepath.Join(dbsPath, databaseaccess.DBFileName))
	if err != nil {
		return nil, err
	}

	home := NewLedger(common.ChainIDStrHome, HomeBridgeAddress, RelayerAddress, true)
	foreign := NewLedger(common.ChainIDStrForeign, ForeignBridgeAddress, RelayerAddress, true)

	for mainToken, sideToken := range config.Relayer.TokenMapping {
		foreign.MapToken(mainToken, sideToken)
	}

	manager := relayermanager.NewRelayerManagerWithChains(config,
		map[string]core.ChainEventSource{common.ChainIDStrHome: home, common.ChainIDStrForeign: foreign},
		map[string]core.ChainTransactionSubmitter{common.ChainIDStrHome: home, common.ChainIDStrForeign: foreign},
		db, logger)

	return &Env{
		Home:    home,
		Foreign: foreign,
		Config:  config,
		DB:      db,
		Manager: manager,
	}, nil
}

// RunCycles runs count synchronous poll and verify cycles and returns the first error
func (e *Env) RunCycles(ctx context.Context, count int) error {
	for i := 0; i < count; i++ {
		if err := e.Manager.RunCycle(ctx); err != nil {
			return err
		}
	}

	return nil
}

// Record returns the relay record of the event with logIndex emitted by the source transaction
func (e *Env) Record(sourceChain string, sourceTx ethcommon.Hash, logIndex uint) (*core.RelayRecord, error) {
	return e.DB.GetRecord(core.ToIdempotencyKey(sourceChain, sourceTx, logIndex))
}

func (e *Env) Close() error {
	return e.DB.Close()
}
