package history

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/go-logr/logr"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/util"
	benchxerrors "kubegems.io/benchx/pkg/errors"
	"kubegems.io/benchx/pkg/types"
)

const keyPrefix = "run/"

func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(".benchx", "history")
	}
	return filepath.Join(home, ".benchx", "history")
}

type Store struct {
	db *leveldb.DB
}

func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("history path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, fmt.Errorf("open history %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// key sorts records by start time.
func key(record types.RunRecord) []byte {
	return []byte(keyPrefix + record.Started.UTC().Format(time.RFC3339Nano) + "/" + record.ID)
}

func (s *Store) Put(ctx context.Context, record types.RunRecord) error {
	content, err := json.Marshal(record)
	if err != nil {
		return err
	}
	return s.db.Put(key(record), content, nil)
}

// List returns records newest first. limit <= 0 returns all of them.
func (s *Store) List(ctx context.Context, limit int) ([]types.RunRecord, error) {
	log := logr.FromContextOrDiscard(ctx)

	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	records := []types.RunRecord{}
	for ok := iter.Last(); ok; ok = iter.Prev() {
		record := types.RunRecord{}
		if err := json.Unmarshal(iter.Value(), &record); err != nil {
			log.Error(err, "skip corrupted history record", "key", string(iter.Key()))
			continue
		}
		records = append(records, record)
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, iter.Error()
}

// Get scans for the record with id.
func (s *Store) Get(ctx context.Context, id string) (*types.RunRecord, error) {
	iter := s.db.NewIterator(util.BytesPrefix([]byte(keyPrefix)), nil)
	defer iter.Release()

	suffix := []byte("/" + id)
	for iter.Next() {
		if !bytes.HasSuffix(iter.Key(), suffix) {
			continue
		}
		record := &types.RunRecord{}
		if err := json.Unmarshal(iter.Value(), record); err != nil {
			return nil, err
		}
		return record, nil
	}
	if err := iter.Error(); err != nil {
		return nil, err
	}
	return nil, benchxerrors.NewRunNotFoundError(id)
}

// Publish records a finished run.
func (s *Store) Publish(ctx context.Context, report *types.Report) error {
	return s.Put(ctx, report.Record())
}
