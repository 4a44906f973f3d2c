// Package fsutil clears and purges working directories.
package fsutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// ClearDir creates dir if it does not exist, otherwise it removes all of its contents. The directory itself is kept.
func ClearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return os.MkdirAll(dir, 0755)
	} else if err != nil {
		return err
	}
	for _, entry := range entries {
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			return err
		}
	}
	return nil
}

// PurgeExcept recursively removes everything in dir except the files in keep. Paths in keep are relative to dir or absolute. Directories that contain a kept file are kept as well.
func PurgeExcept(dir string, keep []string) error {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return err
	}
	kept := map[string]bool{}
	for _, filename := range keep {
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(absDir, filename)
		}
		filename = filepath.Clean(filename)
		rel, err := filepath.Rel(absDir, filename)
		if err != nil || rel == ".." || 3 <= len(rel) && rel[:3] == ".."+string(filepath.Separator) {
			return fmt.Errorf("%s: not inside %s", filename, dir)
		}
		kept[filename] = true
	}
	_, err = purge(absDir, kept)
	return err
}

// purge returns whether anything in dir was kept.
func purge(dir string, kept map[string]bool) (bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false, err
	}
	hasKept := false
	for _, entry := range entries {
		filename := filepath.Join(dir, entry.Name())
		if kept[filename] {
			hasKept = true
			continue
		} else if entry.IsDir() {
			keepDir, err := purge(filename, kept)
			if err != nil {
				return false, err
			} else if keepDir {
				hasKept = true
				continue
			}
		}
		if err := os.RemoveAll(filename); err != nil {
			return false, err
		}
	}
	return hasKept, nil
}
