// Package storage persists the serialized state of task instances, one blob
// per checkpoint, component and task.
package storage

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/types"

	"github.com/pkg/errors"
)

var (
	ErrNotFound           = errors.New("instance state not found")
	ErrUnknownBackendType = errors.New("unknown storage backend type")
	ErrInvalidKey         = errors.New("invalid instance state key")
)

// Key addresses the state of one task for one checkpoint.
type Key struct {
	Topology     string
	CheckpointID types.CheckpointID
	Component    string
	Task         types.TaskID
}

// Validate checks the key names a single file under the backend root.
func (k Key) Validate() error {
	if k.CheckpointID.IsEmpty() {
		return errors.Wrap(ErrInvalidKey, "empty checkpoint id")
	}
	if _, err := types.ParseCheckpointID(string(k.CheckpointID)); err != nil {
		return errors.Wrap(ErrInvalidKey, err.Error())
	}
	switch {
	case len(k.Component) == 0:
		return errors.Wrap(ErrInvalidKey, "empty component")
	case k.Component == "." || k.Component == "..", strings.ContainsAny(k.Component, `/\`):
		return errors.Wrapf(ErrInvalidKey, "component %q is not a plain name", k.Component)
	}
	return nil
}

// relPath is checkpointId/component/taskId.
func (k Key) relPath() string {
	return filepath.Join(string(k.CheckpointID), k.Component, strconv.FormatInt(int64(k.Task), 10))
}

func (k Key) String() string {
	return fmt.Sprintf("%s %s %s %d", k.Topology, k.CheckpointID, k.Component, k.Task)
}

// Backend stores instance states. Store must be atomic: a failed or
// interrupted Store leaves the previous value of the key intact.
//
//go:generate go run github.com/golang/mock/mockgen -destination mocks/backend_mock.go -package mocks github.com/stratastream/stateful/storage Backend
type Backend interface {
	Store(key Key, state []byte) error
	// Restore returns ErrNotFound when nothing was stored under key.
	Restore(key Key) ([]byte, error)
	Close() error
}

// New opens the backend selected by cfg. root is the directory Root is
// resolved against when relative.
func New(log *logging.Logger, cfg Config, home string) (Backend, error) {
	log = log.Named(namedLogger)
	log.SetLevel(cfg.Level.Get())

	root := cfg.Root
	if !filepath.IsAbs(root) {
		root = filepath.Join(home, root)
	}

	switch cfg.Type {
	case TypeLocalFS:
		return NewLocalFS(log, root)
	case TypeLevelDB:
		return NewLevelDB(log, root)
	default:
		return nil, errors.Wrapf(ErrUnknownBackendType, "%q", cfg.Type)
	}
}
