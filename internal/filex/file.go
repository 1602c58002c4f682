package filex

import (
	"fmt"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold the file at path.
// Paths without a directory part, and SQLite URIs like ":memory:" or
// "file:...", are left alone.
func EnsureParentDir(path string) error {
	if path == "" || path[0] == ':' || len(path) > 5 && path[:5] == "file:" {
		return nil
	}

	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}

	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}
