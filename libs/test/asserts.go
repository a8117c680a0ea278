// Package test holds file system assertions shared by the storage tests.
package test

import (
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func AssertDirAccess(t *testing.T, dirPath string) {
	t.Helper()
	assertMode(t, dirPath, true, 0o700, 0o777)
}

func AssertFileAccess(t *testing.T, filePath string) {
	t.Helper()
	assertMode(t, filePath, false, 0o600, 0o666)
}

// AssertFileContent checks the file at path holds exactly want.
func AssertFileContent(t *testing.T, path string, want []byte) {
	t.Helper()
	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

// AssertNoFile checks nothing exists at path.
func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	_, err := os.Stat(path)
	assert.ErrorIs(t, err, fs.ErrNotExist)
}

// AssertNoHiddenFiles checks no file under root starts with a dot, as
// temporary files of atomic writes do.
func AssertNoHiddenFiles(t *testing.T, root string) {
	t.Helper()
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasPrefix(d.Name(), ".") {
			t.Errorf("unexpected hidden file %s", path)
		}
		return nil
	})
	require.NoError(t, err)
}

func assertMode(t *testing.T, path string, dir bool, unix, windows fs.FileMode) {
	t.Helper()
	stats, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, dir, stats.IsDir())
	want := unix
	if runtime.GOOS == "windows" {
		want = windows
	}
	assert.Equal(t, want, stats.Mode().Perm())
}
