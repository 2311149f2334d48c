// Package workspace models the watched root on disk: where the bookkeeping
// files live and the single-instance lock that keeps two mirrors from
// running a pass against the same tree.
package workspace

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"

	"github.com/boxmirror/boxmirror/internal/mirror/filter"
	"github.com/boxmirror/boxmirror/internal/mirror/ledger"
	"github.com/boxmirror/boxmirror/internal/utils"
)

var ErrWorkspaceLocked = errors.New("workspace locked by another process")

type Workspace struct {
	// Root is the resolved absolute path of the watched directory.
	Root string

	flock *flock.Flock
}

func New(rootDir string) (*Workspace, error) {
	root, err := utils.ResolvePath(rootDir)
	if err != nil {
		return nil, fmt.Errorf("resolve workspace root %s: %w", rootDir, err)
	}

	return &Workspace{
		Root:  root,
		flock: flock.New(filepath.Join(root, filter.LockFilename)),
	}, nil
}

// Bootstrap creates the watched root if it does not exist yet.
func (w *Workspace) Bootstrap() error {
	return utils.EnsureDir(w.Root)
}

// LedgerPath is the checksum ledger location inside the workspace.
func (w *Workspace) LedgerPath() string {
	return filepath.Join(w.Root, ledger.DefaultFilename)
}

// IgnorePath is the ignore rules file location inside the workspace.
func (w *Workspace) IgnorePath() string {
	return filepath.Join(w.Root, filter.DefaultFilename)
}

// AbsPath maps a POSIX relative path to its absolute location under Root.
func (w *Workspace) AbsPath(relPath string) string {
	return filepath.Join(w.Root, filepath.FromSlash(relPath))
}

// Lock takes the single-instance lock. It does not block: a second instance
// gets ErrWorkspaceLocked immediately.
func (w *Workspace) Lock() error {
	if err := utils.EnsureDir(w.Root); err != nil {
		return fmt.Errorf("create workspace root %s: %w", w.Root, err)
	}

	locked, err := w.flock.TryLock()
	if err != nil {
		return fmt.Errorf("lock workspace: %w", err)
	}
	if !locked {
		return ErrWorkspaceLocked
	}
	return nil
}

// Unlock releases the lock and removes the lock file. It is a no-op when
// this process does not hold the lock.
func (w *Workspace) Unlock() error {
	if !w.flock.Locked() {
		return nil
	}

	if err := w.flock.Unlock(); err != nil {
		return fmt.Errorf("unlock workspace: %w", err)
	}
	return os.Remove(w.flock.Path())
}
