package storage

import (
	"path/filepath"

	"github.com/stratastream/stateful/logging"

	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/filter"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

const levelDBName = "states.db"

// LevelDB keeps instance states in a single LevelDB database, keyed by the
// same relative path LocalFS uses. A Put is atomic and synced.
type LevelDB struct {
	log *logging.Logger
	db  *leveldb.DB
}

func NewLevelDB(log *logging.Logger, root string) (*LevelDB, error) {
	path := filepath.Join(root, levelDBName)
	db, err := leveldb.OpenFile(path, &opt.Options{
		Filter:          filter.NewBloomFilter(10),
		BlockCacher:     opt.NoCacher,
		OpenFilesCacher: opt.NoCacher,
	})
	if err != nil {
		return nil, errors.Wrap(err, "could not open LevelDB checkpoint database")
	}
	log.Info("storing checkpoints in LevelDB", logging.String("path", path))
	return &LevelDB{
		log: log,
		db:  db,
	}, nil
}

func (l *LevelDB) Store(key Key, state []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	if err := l.db.Put([]byte(key.relPath()), state, &opt.WriteOptions{Sync: true}); err != nil {
		l.log.Error("checkpoint failed",
			logging.String("key", key.String()),
			logging.Error(err),
		)
		return errors.Wrapf(err, "could not store %s", key)
	}
	return nil
}

func (l *LevelDB) Restore(key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	state, err := l.db.Get([]byte(key.relPath()), &opt.ReadOptions{})
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "could not restore %s", key)
	}
	return state, nil
}

func (l *LevelDB) Close() error {
	return l.db.Close()
}
