package databaseaccess

import (
	"fmt"
	"path/filepath"

	infracommon "github.com/Ethernal-Tech/cardano-infrastructure/common"
	"github.com/Giveth/giveth-bridge/relayer/core"
)

// DBFileName is the relay database file inside the configured dbs directory
const DBFileName = "relayer.db"

func NewDatabase(filePath string) (core.Database, error) {
	if err := infracommon.CreateDirSafe(filepath.Dir(filePath), 0770); err != nil {
		return nil, fmt.Errorf("failed to create directory for relayer database: %w", err)
	}

	db := &BBoltDatabase{}
	if err := db.Init(filePath); err != nil {
		return nil, err
	}

	return db, nil
}
