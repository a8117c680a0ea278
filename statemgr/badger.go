// Package statemgr persists controller state that must survive a restart,
// the consistent checkpoint record of each topology.
package statemgr

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"

	"github.com/dgraph-io/badger/v2"
	"github.com/dgraph-io/badger/v2/options"
	"github.com/pkg/errors"
)

type Store struct {
	log *logging.Logger
	cfg Config
	db  *badger.DB
}

func badgerOptionsFromConfig(cfg Config, dir string, log *logging.Logger) badger.Options {
	if len(dir) == 0 {
		return badger.DefaultOptions("").
			WithInMemory(true).
			WithLogger(log.Named(badgerNamedLogger))
	}
	return badger.DefaultOptions(dir).
		WithSyncWrites(bool(cfg.SyncWrites)).
		WithTableLoadingMode(options.FileIO).
		WithValueLogLoadingMode(options.FileIO).
		WithNumVersionsToKeep(1).
		WithMaxTableSize(16 << 20).
		WithNumMemtables(1).
		WithNumLevelZeroTables(1).
		WithNumLevelZeroTablesStall(2).
		WithValueLogFileSize(int64(cfg.ValueLogFileSize.Get())).
		WithCompactL0OnClose(true).
		WithLogger(log.Named(badgerNamedLogger))
}

// NewStore opens the state store. A relative cfg.Dir is resolved against
// home.
func NewStore(log *logging.Logger, cfg Config, home string) (*Store, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	dir := cfg.Dir
	if len(dir) > 0 && !filepath.IsAbs(dir) {
		dir = filepath.Join(home, dir)
	}
	db, err := badger.Open(badgerOptionsFromConfig(cfg, dir, log))
	if err != nil {
		return nil, errors.Wrap(err, "error opening badger database for the state store")
	}
	if len(dir) == 0 {
		log.Warn("state store is in memory, checkpoint records will not survive a restart")
	} else {
		log.Info("state store opened", logging.String("dir", dir))
	}
	return &Store{
		log: log,
		cfg: cfg,
		db:  db,
	}, nil
}

// ReloadConf updates the internal configuration.
func (s *Store) ReloadConf(cfg Config) {
	s.log.Info("reloading configuration")
	if s.log.GetLevel() != cfg.Level.Get() {
		s.log.Info("updating log level",
			logging.String("old", s.log.GetLevel().String()),
			logging.String("new", cfg.Level.String()),
		)
		s.log.SetLevel(cfg.Level.Get())
	}
	s.cfg = cfg
}

func (s *Store) Close() error {
	return s.db.Close()
}

func recordKey(topology string) []byte {
	return []byte(fmt.Sprintf("T:%s_R:checkpoint", topology))
}

// GetRecord returns the consistent checkpoint record of topology, the empty
// record if none was ever saved.
func (s *Store) GetRecord(ctx context.Context, topology string) (types.CheckpointRecord, error) {
	if err := ctx.Err(); err != nil {
		return types.CheckpointRecord{}, err
	}
	var buf []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordKey(topology))
		if err != nil {
			return err
		}
		buf, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return types.CheckpointRecord{}, nil
	}
	if err != nil {
		return types.CheckpointRecord{}, errors.Wrapf(err, "could not read checkpoint record of %s", topology)
	}

	var rec types.CheckpointRecord
	if err := json.Unmarshal(buf, &rec); err != nil {
		s.log.Error("unable to unmarshal checkpoint record from badger store",
			logging.String("topology", topology),
			logging.Error(err),
		)
		return types.CheckpointRecord{}, errors.Wrapf(err, "corrupted checkpoint record of %s", topology)
	}
	return rec, nil
}

// SetRecord replaces the checkpoint record of topology.
func (s *Store) SetRecord(ctx context.Context, topology string, rec types.CheckpointRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "unable to marshal checkpoint record")
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordKey(topology), buf)
	})
	if err != nil {
		s.log.Error("unable to save checkpoint record in badger",
			logging.String("topology", topology),
			logging.CheckpointID(rec.MostRecent),
			logging.Error(err),
		)
		return errors.Wrapf(err, "could not save checkpoint record of %s", topology)
	}
	s.log.Debug("checkpoint record saved",
		logging.String("topology", topology),
		logging.CheckpointID(rec.MostRecent),
	)
	return nil
}

