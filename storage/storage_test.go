package storage_test

import (
	"errors"
	"path/filepath"
	"testing"

	vgtest "github.com/stratastream/stateful/libs/test"
	"github.com/stratastream/stateful/logging"
	"github.com/stratastream/stateful/storage"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var key = storage.Key{
	Topology:     "word-count",
	CheckpointID: "00000000000000000001-0000000004",
	Component:    "count",
	Task:         3,
}

func TestBackends(t *testing.T) {
	for _, typ := range []string{storage.TypeLocalFS, storage.TypeLevelDB} {
		typ := typ
		t.Run(typ, func(t *testing.T) {
			t.Run("stored state is restored", func(t *testing.T) { testStoreRestore(t, typ) })
			t.Run("restoring a missing key fails", func(t *testing.T) { testRestoreMissing(t, typ) })
			t.Run("a later store replaces the state", func(t *testing.T) { testOverwrite(t, typ) })
			t.Run("malformed keys are refused", func(t *testing.T) { testInvalidKey(t, typ) })
		})
	}
}

func newBackend(t *testing.T, typ string) storage.Backend {
	t.Helper()
	cfg := storage.NewDefaultConfig()
	cfg.Type = typ
	b, err := storage.New(logging.NewTestLogger(), cfg, t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { b.Close() })
	return b
}

func testStoreRestore(t *testing.T, typ string) {
	b := newBackend(t, typ)
	require.NoError(t, b.Store(key, []byte("the:1 quick:2")))
	state, err := b.Restore(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("the:1 quick:2"), state)
}

func testRestoreMissing(t *testing.T, typ string) {
	b := newBackend(t, typ)
	other := key
	other.Task = 4
	require.NoError(t, b.Store(key, []byte("x")))
	_, err := b.Restore(other)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testOverwrite(t *testing.T, typ string) {
	b := newBackend(t, typ)
	require.NoError(t, b.Store(key, []byte("first")))
	require.NoError(t, b.Store(key, []byte("second")))
	state, err := b.Restore(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("second"), state)
}

func testInvalidKey(t *testing.T, typ string) {
	b := newBackend(t, typ)
	bad := []storage.Key{
		{Topology: key.Topology, Component: key.Component, Task: key.Task},
		{Topology: key.Topology, CheckpointID: "..", Component: key.Component, Task: key.Task},
		{Topology: key.Topology, CheckpointID: "ck1", Component: key.Component, Task: key.Task},
		{Topology: key.Topology, CheckpointID: key.CheckpointID, Task: key.Task},
		{Topology: key.Topology, CheckpointID: key.CheckpointID, Component: "..", Task: key.Task},
		{Topology: key.Topology, CheckpointID: key.CheckpointID, Component: "../../etc", Task: key.Task},
		{Topology: key.Topology, CheckpointID: key.CheckpointID, Component: `count\..`, Task: key.Task},
	}
	for _, k := range bad {
		assert.ErrorIs(t, b.Store(k, []byte("x")), storage.ErrInvalidKey, k.String())
		_, err := b.Restore(k)
		assert.ErrorIs(t, err, storage.ErrInvalidKey, k.String())
	}
}

func TestLocalFSStaysUnderRoot(t *testing.T) {
	parent := t.TempDir()
	root := filepath.Join(parent, "root")
	l, err := storage.NewLocalFS(logging.NewTestLogger(), root)
	require.NoError(t, err)

	escaping := storage.Key{Topology: key.Topology, CheckpointID: "..", Component: "..", Task: 7}
	require.ErrorIs(t, l.Store(escaping, []byte("x")), storage.ErrInvalidKey)
	vgtest.AssertNoFile(t, filepath.Join(parent, "7"))
}

func TestUnknownBackend(t *testing.T) {
	cfg := storage.NewDefaultConfig()
	cfg.Type = "hdfs"
	_, err := storage.New(logging.NewTestLogger(), cfg, t.TempDir())
	assert.ErrorIs(t, err, storage.ErrUnknownBackendType)
}

func TestLocalFSLayout(t *testing.T) {
	root := t.TempDir()
	l, err := storage.NewLocalFS(logging.NewTestLogger(), root)
	require.NoError(t, err)
	require.NoError(t, l.Store(key, []byte("state")))

	path := filepath.Join(root, string(key.CheckpointID), "count", "3")
	vgtest.AssertFileContent(t, path, []byte("state"))
	vgtest.AssertFileAccess(t, path)
	vgtest.AssertNoHiddenFiles(t, root)
}

func TestLocalFSCrashBeforeRename(t *testing.T) {
	root := t.TempDir()
	log := logging.NewTestLogger()
	l, err := storage.NewLocalFS(log, root)
	require.NoError(t, err)
	require.NoError(t, l.Store(key, []byte("committed")))

	crash := errors.New("process killed")
	crashing, err := storage.NewLocalFS(log, root, storage.WithRenamer(func(string, string) error {
		return crash
	}))
	require.NoError(t, err)
	require.ErrorIs(t, crashing.Store(key, []byte("half written")), crash)

	state, err := l.Restore(key)
	require.NoError(t, err)
	assert.Equal(t, []byte("committed"), state)
}
