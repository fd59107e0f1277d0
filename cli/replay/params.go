package clireplay

import (
	"fmt"
	"path/filepath"

	"github.com/Giveth/giveth-bridge/common"
	relayerCore "github.com/Giveth/giveth-bridge/relayer/core"
	databaseaccess "github.com/Giveth/giveth-bridge/relayer/database_access"
	"github.com/spf13/cobra"
)

const (
	configFlag = "config"
	keyFlag    = "key"

	configFlagDesc = "path to config json file (relayer_config.json next to the executable by default)"
	keyFlagDesc    = "idempotency key of the failed relay record"
)

type replayParams struct {
	config string
	key    string
}

func (p *replayParams) validateFlags() error {
	if p.key == "" {
		return fmt.Errorf("--%s flag not specified", keyFlag)
	}

	return nil
}

func (p *replayParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&p.config,
		configFlag,
		"",
		configFlagDesc,
	)
	cmd.Flags().StringVar(
		&p.key,
		keyFlag,
		"",
		keyFlagDesc,
	)
}

func (p *replayParams) Execute(_ common.OutputFormatter) (common.ICommandResult, error) {
	config, err := relayerCore.LoadRelayerManagerConfig(p.config)
	if err != nil {
		return nil, err
	}

	db, err := databaseaccess.NewDatabase(filepath.Join(config.DbsPath, databaseaccess.DBFileName))
	if err != nil {
		return nil, err
	}

	defer db.Close()

	record, err := replayRecord(db, p.key)
	if err != nil {
		return nil, err
	}

	return &CmdResult{Record: record}, nil
}

// replayRecord gives a failed record a fresh attempts budget. Mismatched records are never replayed.
func replayRecord(db relayerCore.RelayStateStore, key string) (*relayerCore.RelayRecord, error) {
	record, err := db.GetRecord(key)
	if err != nil {
		return nil, err
	}

	if record == nil {
		return nil, fmt.Errorf("relay record %s not found", key)
	}

	if record.Status != relayerCore.RelayStatusFailed {
		return nil, fmt.Errorf("relay record %s is %s, only failed records can be replayed", key, record.Status)
	}

	record.ToReplay()

	if err := db.PutRecord(record); err != nil {
		return nil, err
	}

	return record, nil
}
