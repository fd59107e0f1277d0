package clireport

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
	statusFlag = "status"
	limitFlag  = "limit"

	configFlagDesc = "path to config json file (relayer_config.json next to the executable by default)"
	statusFlagDesc = "list records with this status instead of the ones needing attention"
	limitFlagDesc  = "maximum number of records listed per status"

	defaultLimit = 50
)

type reportParams struct {
	config string
	status string
	limit  int
}

func (p *reportParams) validateFlags() error {
	if p.status != "" {
		if _, err := relayerCore.ParseRelayStatus(p.status); err != nil {
			return err
		}
	}

	if p.limit <= 0 {
		return fmt.Errorf("--%s must be positive", limitFlag)
	}

	return nil
}

func (p *reportParams) setFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(
		&p.config,
		configFlag,
		"",
		configFlagDesc,
	)
	cmd.Flags().StringVar(
		&p.status,
		statusFlag,
		"",
		statusFlagDesc,
	)
	cmd.Flags().IntVar(
		&p.limit,
		limitFlag,
		defaultLimit,
		limitFlagDesc,
	)
}

func (p *reportParams) Execute(_ common.OutputFormatter) (common.ICommandResult, error) {
	config, err := relayerCore.LoadRelayerManagerConfig(p.config)
	if err != nil {
		return nil, err
	}

	db, err := databaseaccess.NewDatabase(filepath.Join(config.DbsPath, databaseaccess.DBFileName))
	if err != nil {
		return nil, err
	}

	defer db.Close()

	statuses := []relayerCore.RelayStatus{relayerCore.RelayStatusFailed, relayerCore.RelayStatusMismatch}
	if p.status != "" {
		statuses = []relayerCore.RelayStatus{relayerCore.RelayStatus(p.status)}
	}

	return buildReport(db, statuses, p.limit)
}

func buildReport(
	db relayerCore.RelayStateStore, statuses []relayerCore.RelayStatus, limit int,
) (*CmdResult, error) {
	counts, err := db.CountByStatus()
	if err != nil {
		return nil, err
	}

	cursors, err := db.GetAllCursors()
	if err != nil {
		return nil, err
	}

	result := &CmdResult{
		Counts:  make(map[string]int, len(counts)),
		Cursors: cursors,
	}

	for status, cnt := range counts {
		result.Counts[string(status)] = cnt
	}

	for _, status := range statuses {
		records, err := db.GetRecordsByStatus(status, limit)
		if err != nil {
			return nil, err
		}

		result.Records = append(result.Records, records...)
	}

	return result, nil
}
