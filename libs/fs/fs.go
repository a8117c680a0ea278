// Package fs holds the file helpers shared by the storage backends and the
// config loader.
package fs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

var ErrIsDirectory = errors.New("path is a directory")

// EnsureDir creates path and its parents if they do not exist.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, os.ModeDir|0o700); err != nil {
		return fmt.Errorf("could not create directory %s: %w", path, err)
	}
	return nil
}

// FileExists reports whether path exists and is a regular file. A directory
// at path is an error.
func FileExists(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	if info.IsDir() {
		return false, fmt.Errorf("%s: %w", path, ErrIsDirectory)
	}
	return true, nil
}

func ReadFile(path string) ([]byte, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read file %s: %w", path, err)
	}
	return buf, nil
}

func WriteFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("could not write file %s: %w", path, err)
	}
	return nil
}

// Renamer moves a fully written temporary file over its final name.
type Renamer func(oldpath, newpath string) error

// WriteFileAtomic writes data next to path under a temporary name, syncs it
// and renames it over path. Until the rename, any file already at path is
// left untouched. Missing parent directories are created.
func WriteFileAtomic(path string, data []byte, rename Renamer) error {
	if rename == nil {
		rename = os.Rename
	}
	dir, name := filepath.Split(path)
	if err := EnsureDir(dir); err != nil {
		return err
	}
	tmp := filepath.Join(dir, "."+name)
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("could not create temporary file %s: %w", tmp, err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return fmt.Errorf("could not write temporary file %s: %w", tmp, err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return fmt.Errorf("could not sync temporary file %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("could not close temporary file %s: %w", tmp, err)
	}
	if err := rename(tmp, path); err != nil {
		return fmt.Errorf("could not move %s into place: %w", tmp, err)
	}
	return syncDir(dir)
}

// syncDir makes the rename durable.
func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return fmt.Errorf("could not open directory %s: %w", dir, err)
	}
	defer d.Close()
	if err := d.Sync(); err != nil {
		return fmt.Errorf("could not sync directory %s: %w", dir, err)
	}
	return nil
}
