package store

import (
	"fmt"
	"os"
	"path/filepath"
)

// DBFile is the database file name inside the store directory.
const DBFile = "lifesim.db"

// DBPath returns the database path for dir.
func DBPath(dir string) string {
	return filepath.Join(dir, DBFile)
}

// EnsureDir creates dir if it doesn't exist.
func EnsureDir(dir string) error {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("failed to create store directory: %w", err)
	}
	return nil
}
