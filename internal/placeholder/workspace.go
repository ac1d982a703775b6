package placeholder

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
)

// ResetDir deletes dir and everything under it, then recreates it empty.
//
// Entries are removed deepest first: paths are sorted in reverse, and every
// path sorts after its parent, so files and subdirectories go before the
// directories holding them.
func ResetDir(dir string) error {
	if _, err := os.Lstat(dir); err == nil {
		var paths []string
		err := filepath.WalkDir(dir, func(path string, _ fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			paths = append(paths, path)
			return nil
		})
		if err != nil {
			return fmt.Errorf("clear %s: %w", dir, err)
		}

		slices.Sort(paths)
		slices.Reverse(paths)
		for _, path := range paths {
			if err := os.Remove(path); err != nil {
				return fmt.Errorf("clear %s: %w", dir, err)
			}
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("clear %s: %w", dir, err)
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	return nil
}
