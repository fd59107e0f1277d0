package core

import (
	"errors"
	"fmt"
	"time"

	"github.com/Ethernal-Tech/cardano-infrastructure/logger"
	apiCore "github.com/Giveth/giveth-bridge/api/core"
	"github.com/Giveth/giveth-bridge/common"
	"github.com/Giveth/giveth-bridge/telemetry"
	ethcommon "github.com/ethereum/go-ethereum/common"
)

const (
	defaultMaxAttempts   = uint32(5)
	defaultMaxBlockRange = uint64(5_000)
	defaultPullTimeMilis = uint64(15_000)
	defaultAPIKeyHeader  = "X-API-Key"
)

type ChainConfig struct {
	ChainID           string `json:"chainId"`
	NodeURL           string `json:"nodeUrl"`
	BridgeAddress     string `json:"bridgeAddress"`
	StartBlock        uint64 `json:"startBlock"`
	ConfirmationDepth uint64 `json:"confirmationDepth"`
	DynamicTx         bool   `json:"dynamicTx"`
	GasFeeMultiplier  uint64 `json:"gasFeeMultiplier"`
	// EvmChainID is used for signing. When zero it is read from the node before every send.
	EvmChainID uint64 `json:"evmChainId"`
}

func (c ChainConfig) GetBridgeAddress() ethcommon.Address {
	return ethcommon.HexToAddress(c.BridgeAddress)
}

func (c ChainConfig) validate() error {
	if !common.IsKnownChainID(c.ChainID) {
		return fmt.Errorf("unknown chain id: %s", c.ChainID)
	}

	if !ethcommon.IsHexAddress(c.BridgeAddress) {
		return fmt.Errorf("invalid bridge address for %s: %s", c.ChainID, c.BridgeAddress)
	}

	return nil
}

type RelayerConfiguration struct {
	HomeChain    ChainConfig `json:"homeChain"`
	ForeignChain ChainConfig `json:"foreignChain"`
	// ReorgWindow is the number of already scanned blocks which are scanned again every cycle
	ReorgWindow uint64 `json:"reorgWindow"`
	MaxAttempts uint32 `json:"maxAttempts"`
	// MaxBlockRange limits a single scan. Zero means unlimited.
	MaxBlockRange uint64 `json:"maxBlockRange"`
	// DropWindow is the number of destination blocks after which an unknown submitted tx is considered dropped
	DropWindow uint64 `json:"dropWindow"`
	// TokenMapping maps home (main) tokens to the foreign (side) tokens pledged in LiquidPledging
	TokenMapping map[ethcommon.Address]ethcommon.Address `json:"tokenMapping"`
}

// GetSideToken returns the foreign token minted for a deposit of mainToken
func (c *RelayerConfiguration) GetSideToken(mainToken ethcommon.Address) (ethcommon.Address, error) {
	sideToken, exists := c.TokenMapping[mainToken]
	if !exists {
		return ethcommon.Address{}, fmt.Errorf("%w: %s", ErrUnmappedToken, mainToken)
	}

	return sideToken, nil
}

func (c *RelayerConfiguration) GetChain(chainID string) ChainConfig {
	if chainID == common.ChainIDStrHome {
		return c.HomeChain
	}

	return c.ForeignChain
}

func (c *RelayerConfiguration) Validate() error {
	if err := c.HomeChain.validate(); err != nil {
		return err
	}

	if err := c.ForeignChain.validate(); err != nil {
		return err
	}

	if c.HomeChain.ChainID != common.ChainIDStrHome {
		return fmt.Errorf("homeChain chain id must be %s: %s", common.ChainIDStrHome, c.HomeChain.ChainID)
	}

	if c.ForeignChain.ChainID != common.ChainIDStrForeign {
		return fmt.Errorf("foreignChain chain id must be %s: %s", common.ChainIDStrForeign, c.ForeignChain.ChainID)
	}

	if len(c.TokenMapping) == 0 {
		return errors.New("tokenMapping must contain at least one token")
	}

	for mainToken, sideToken := range c.TokenMapping {
		if sideToken == (ethcommon.Address{}) {
			return fmt.Errorf("side token of %s must not be the zero address", mainToken)
		}
	}

	if c.MaxAttempts == 0 {
		return errors.New("maxAttempts must be greater than zero")
	}

	return nil
}

// SecretsConfig points either to a secrets manager config file or to a local secrets directory
type SecretsConfig struct {
	DataDir    string `json:"dataDir"`
	ConfigPath string `json:"configPath"`
}

type RelayerManagerConfiguration struct {
	Relayer       RelayerConfiguration      `json:"relayer"`
	PullTimeMilis uint64                    `json:"pullTime"`
	DbsPath       string                    `json:"dbsPath"`
	Secrets       SecretsConfig             `json:"secrets"`
	Logger        logger.LoggerConfig       `json:"logger"`
	Telemetry     telemetry.TelemetryConfig `json:"telemetry"`
	API           apiCore.APIConfig         `json:"api"`
}

func (c *RelayerManagerConfiguration) SetDefaults() {
	if c.Relayer.MaxAttempts == 0 {
		c.Relayer.MaxAttempts = defaultMaxAttempts
	}

	if c.Relayer.MaxBlockRange == 0 {
		c.Relayer.MaxBlockRange = defaultMaxBlockRange
	}

	if c.PullTimeMilis == 0 {
		c.PullTimeMilis = defaultPullTimeMilis
	}

	if c.API.APIKeyHeader == "" {
		c.API.APIKeyHeader = defaultAPIKeyHeader
	}

	if c.Relayer.DropWindow == 0 {
		c.Relayer.DropWindow = c.Relayer.ReorgWindow + 1 +
			max(c.Relayer.HomeChain.ConfirmationDepth, c.Relayer.ForeignChain.ConfirmationDepth)
	}
}

func (c *RelayerManagerConfiguration) Validate() error {
	for _, chain := range []ChainConfig{c.Relayer.HomeChain, c.Relayer.ForeignChain} {
		if !common.IsValidURL(chain.NodeURL) {
			return fmt.Errorf("invalid node url for %s: %s", chain.ChainID, chain.NodeURL)
		}
	}

	if c.DbsPath == "" {
		return errors.New("dbsPath must be specified")
	}

	if c.Secrets.DataDir == "" && c.Secrets.ConfigPath == "" {
		return errors.New("secrets dataDir or configPath must be specified")
	}

	return c.Relayer.Validate()
}

// LoadRelayerManagerConfig reads the config file (relayer_config.json next to the executable when path is empty),
// fills out defaults and validates the result
func LoadRelayerManagerConfig(path string) (*RelayerManagerConfiguration, error) {
	config, err := common.LoadConfig[RelayerManagerConfiguration](path, "relayer")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	config.SetDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

func (c *RelayerManagerConfiguration) PullTime() time.Duration {
	return time.Millisecond * time.Duration(c.PullTimeMilis)
}
