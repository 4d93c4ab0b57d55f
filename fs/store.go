package fs

import (
	"errors"
	"os"
	"path/filepath"

	"github.com/fwojciec/locmirror"
)

// Ensure Store implements locmirror.Store at compile time.
var _ locmirror.Store = (*Store)(nil)

// Store reads and writes mirrored files on the local filesystem.
// Writes go to a temporary file in the destination directory that is
// renamed into place, so a crash never leaves a partial file at path.
type Store struct{}

// NewStore creates a new Store.
func NewStore() *Store {
	return &Store{}
}

// Exists reports whether a regular file exists at path.
func (s *Store) Exists(path string) (bool, error) {
	info, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	} else if err != nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

// Read returns the contents of the file at path.
func (s *Store) Read(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// Write saves body at path, creating parent directories as needed.
func (s *Store) Write(path string, body []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err := os.Chmod(tmpName, 0644); err != nil {
		os.Remove(tmpName)
		return err
	}

	// Atomically move into place
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return err
	}
	return nil
}
