// Package scan enumerates the regular files under a watched root.
package scan

import (
	"io/fs"
	"iter"
	"path/filepath"
)

// Files lazily yields the POSIX relative path of every regular file under
// root, walking subdirectories. Directories and symlinks are excluded. The
// sequence is finite and restartable: ranging again re-walks the tree.
//
// A walk error is yielded as the second value and ends the sequence.
func Files(root string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		walkErr := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			if !d.Type().IsRegular() {
				return nil
			}

			rel, err := filepath.Rel(root, path)
			if err != nil {
				return err
			}
			if !yield(filepath.ToSlash(rel), nil) {
				return fs.SkipAll
			}
			return nil
		})
		if walkErr != nil {
			yield("", walkErr)
		}
	}
}
