package databaseaccess

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/Giveth/giveth-bridge/relayer/core"
	"github.com/ethereum/go-ethereum/common"
	"go.etcd.io/bbolt"
)

var (
	relayRecordsBucket = []byte("relayRecords")
	scanCursorsBucket  = []byte("scanCursors")
)

// every status has its own index bucket holding the keys of records in that status
func statusIndexBucket(status core.RelayStatus) []byte {
	return []byte("status_" + string(status))
}

func cursorKey(chain string, contract common.Address) []byte {
	return []byte(chain + ":" + strings.ToLower(contract.Hex()))
}

type BBoltDatabase struct {
	db *bbolt.DB
}

const openTimeout = 5 * time.Second

var _ core.Database = (*BBoltDatabase)(nil)

func (bd *BBoltDatabase) Init(filePath string) error {
	// the file lock is exclusive, so operator commands fail while a relayer holds it
	db, err := bbolt.Open(filePath, 0660, &bbolt.Options{Timeout: openTimeout})
	if err != nil {
		return fmt.Errorf("could not open db: %w", err)
	}

	bd.db = db

	buckets := [][]byte{relayRecordsBucket, scanCursorsBucket}
	for _, status := range core.AllRelayStatuses {
		buckets = append(buckets, statusIndexBucket(status))
	}

	return db.Update(func(tx *bbolt.Tx) error {
		for _, bn := range buckets {
			_, err := tx.CreateBucketIfNotExists(bn)
			if err != nil {
				return fmt.Errorf("could not bucket: %s, err: %w", string(bn), err)
			}
		}

		return nil
	})
}

func (bd *BBoltDatabase) Close() error {
	return bd.db.Close()
}

func (bd *BBoltDatabase) GetRecord(key string) (result *core.RelayRecord, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		result, err = getRecord(tx, []byte(key))

		return err
	})

	return result, err
}

// PutRecord upserts the record. Status changes are checked against the stored record
// inside the same transaction so concurrent writers cannot skip a state.
func (bd *BBoltDatabase) PutRecord(record *core.RelayRecord) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		return putRecord(tx, record)
	})
}

func (bd *BBoltDatabase) PutRecords(records []*core.RelayRecord) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		for _, record := range records {
			if err := putRecord(tx, record); err != nil {
				return err
			}
		}

		return nil
	})
}

func (bd *BBoltDatabase) ScanPending(maxAttempts uint32, limit int) ([]*core.RelayRecord, error) {
	var result []*core.RelayRecord

	err := bd.db.View(func(tx *bbolt.Tx) error {
		for _, status := range []core.RelayStatus{core.RelayStatusPending, core.RelayStatusFailed} {
			records, err := getRecordsByStatus(tx, status, 0)
			if err != nil {
				return err
			}

			for _, record := range records {
				if record.CanBeSubmitted(maxAttempts) {
					result = append(result, record)
				}
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(result, func(i, j int) bool {
		if result[i].LastAttemptBlock != result[j].LastAttemptBlock {
			return result[i].LastAttemptBlock < result[j].LastAttemptBlock
		}

		return result[i].IdempotencyKey < result[j].IdempotencyKey
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

func (bd *BBoltDatabase) GetRecordsByStatus(status core.RelayStatus, limit int) (result []*core.RelayRecord, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		result, err = getRecordsByStatus(tx, status, limit)

		return err
	})

	return result, err
}

func (bd *BBoltDatabase) CountByStatus() (map[core.RelayStatus]int, error) {
	result := make(map[core.RelayStatus]int, len(core.AllRelayStatuses))

	err := bd.db.View(func(tx *bbolt.Tx) error {
		for _, status := range core.AllRelayStatuses {
			result[status] = tx.Bucket(statusIndexBucket(status)).Stats().KeyN
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func (bd *BBoltDatabase) GetCursor(chain string, contract common.Address) (result *core.ScanCursor, err error) {
	err = bd.db.View(func(tx *bbolt.Tx) error {
		result, err = getCursor(tx, cursorKey(chain, contract))

		return err
	})

	return result, err
}

// SetCursor stores the cursor unless a higher block has already been stored for the same contract
func (bd *BBoltDatabase) SetCursor(cursor *core.ScanCursor) error {
	return bd.db.Update(func(tx *bbolt.Tx) error {
		key := cursorKey(cursor.Chain, cursor.ContractAddress)

		existing, err := getCursor(tx, key)
		if err != nil {
			return err
		}

		if existing != nil && existing.LastScannedBlock >= cursor.LastScannedBlock {
			return nil
		}

		bytes, err := json.Marshal(cursor)
		if err != nil {
			return fmt.Errorf("could not marshal scan cursor: %w", err)
		}

		if err := tx.Bucket(scanCursorsBucket).Put(key, bytes); err != nil {
			return fmt.Errorf("scan cursor write error: %w", err)
		}

		return nil
	})
}

func (bd *BBoltDatabase) GetAllCursors() ([]*core.ScanCursor, error) {
	var result []*core.ScanCursor

	err := bd.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(scanCursorsBucket).ForEach(func(k, v []byte) error {
			var cursor *core.ScanCursor

			if err := json.Unmarshal(v, &cursor); err != nil {
				return fmt.Errorf("could not unmarshal scan cursor %s: %w", string(k), err)
			}

			result = append(result, cursor)

			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func getRecord(tx *bbolt.Tx, key []byte) (*core.RelayRecord, error) {
	bytes := tx.Bucket(relayRecordsBucket).Get(key)
	if bytes == nil {
		return nil, nil
	}

	var record *core.RelayRecord

	if err := json.Unmarshal(bytes, &record); err != nil {
		return nil, fmt.Errorf("could not unmarshal relay record %s: %w", string(key), err)
	}

	return record, nil
}

func putRecord(tx *bbolt.Tx, record *core.RelayRecord) error {
	if record.IdempotencyKey == "" {
		return fmt.Errorf("relay record without key: %s", record)
	}

	key := record.DBKey()

	existing, err := getRecord(tx, key)
	if err != nil {
		return err
	}

	if existing != nil {
		if err := existing.IsTransitionPossible(record.Status); err != nil {
			return err
		}

		if err := tx.Bucket(statusIndexBucket(existing.Status)).Delete(key); err != nil {
			return fmt.Errorf("relay status index delete error: %w", err)
		}
	}

	bytes, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("could not marshal relay record: %w", err)
	}

	if err := tx.Bucket(relayRecordsBucket).Put(key, bytes); err != nil {
		return fmt.Errorf("relay record write error: %w", err)
	}

	indexBucket := tx.Bucket(statusIndexBucket(record.Status))
	if indexBucket == nil {
		return fmt.Errorf("unknown relay status: %s", record.Status)
	}

	if err := indexBucket.Put(key, []byte{}); err != nil {
		return fmt.Errorf("relay status index write error: %w", err)
	}

	return nil
}

func getRecordsByStatus(tx *bbolt.Tx, status core.RelayStatus, limit int) ([]*core.RelayRecord, error) {
	indexBucket := tx.Bucket(statusIndexBucket(status))
	if indexBucket == nil {
		return nil, fmt.Errorf("unknown relay status: %s", status)
	}

	var result []*core.RelayRecord

	cursor := indexBucket.Cursor()

	for k, _ := cursor.First(); k != nil && (limit <= 0 || len(result) < limit); k, _ = cursor.Next() {
		record, err := getRecord(tx, k)
		if err != nil {
			return nil, err
		}

		if record != nil {
			result = append(result, record)
		}
	}

	return result, nil
}

func getCursor(tx *bbolt.Tx, key []byte) (*core.ScanCursor, error) {
	bytes := tx.Bucket(scanCursorsBucket).Get(key)
	if bytes == nil {
		return nil, nil
	}

	var cursor *core.ScanCursor

	if err := json.Unmarshal(bytes, &cursor); err != nil {
		return nil, fmt.Errorf("could not unmarshal scan cursor %s: %w", string(key), err)
	}

	return cursor, nil
}
