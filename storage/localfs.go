package storage

import (
	"os"
	"path/filepath"

	vgfs "github.com/stratastream/stateful/libs/fs"
	"github.com/stratastream/stateful/logging"

	"github.com/pkg/errors"
)

// LocalFS keeps every instance state in its own file under
// root/checkpointId/component/taskId.
type LocalFS struct {
	log    *logging.Logger
	root   string
	rename vgfs.Renamer
}

type LocalFSOption func(*LocalFS)

// WithRenamer replaces the final rename of a Store.
func WithRenamer(r vgfs.Renamer) LocalFSOption {
	return func(l *LocalFS) {
		l.rename = r
	}
}

func NewLocalFS(log *logging.Logger, root string, opts ...LocalFSOption) (*LocalFS, error) {
	if len(root) == 0 {
		return nil, errors.New("local file system root directory not set")
	}
	if err := vgfs.EnsureDir(root); err != nil {
		return nil, errors.Wrap(err, "could not create checkpoint root")
	}
	l := &LocalFS{
		log:    log,
		root:   root,
		rename: os.Rename,
	}
	for _, o := range opts {
		o(l)
	}
	log.Info("storing checkpoints on the local file system", logging.String("root", root))
	return l, nil
}

func (l *LocalFS) path(key Key) string {
	return filepath.Join(l.root, key.relPath())
}

func (l *LocalFS) Store(key Key, state []byte) error {
	if err := key.Validate(); err != nil {
		return err
	}
	path := l.path(key)
	if err := vgfs.WriteFileAtomic(path, state, l.rename); err != nil {
		l.log.Error("checkpoint failed",
			logging.String("key", key.String()),
			logging.Error(err),
		)
		return errors.Wrapf(err, "could not store %s", key)
	}
	l.log.Debug("checkpoint successful",
		logging.String("key", key.String()),
		logging.String("path", path),
		logging.Int("bytes", len(state)),
	)
	return nil
}

func (l *LocalFS) Restore(key Key) ([]byte, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}
	path := l.path(key)
	exists, err := vgfs.FileExists(path)
	if err != nil {
		return nil, errors.Wrapf(err, "could not restore %s", key)
	}
	if !exists {
		return nil, errors.Wrapf(ErrNotFound, "%s", key)
	}
	state, err := vgfs.ReadFile(path)
	if err != nil {
		l.log.Error("restore checkpoint failed",
			logging.String("key", key.String()),
			logging.Error(err),
		)
		return nil, errors.Wrapf(err, "could not restore %s", key)
	}
	return state, nil
}

func (l *LocalFS) Close() error {
	return nil
}
