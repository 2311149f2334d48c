// Package engine runs sync passes between the local workspace and the
// remote folder. A pass is fully sequential: scan, diff against the checksum
// ledger, transfer what changed, then commit the new ledger.
package engine

import (
	"context"
	"path"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/workspace"
)

// Remote is the slice of the cloud API the engine needs. *dropsdk.Client
// satisfies it; tests substitute fakes.
type Remote interface {
	Upload(ctx context.Context, localPath, remotePath string) error
	CreateFolder(ctx context.Context, path string) error
	ListFolder(ctx context.Context, path string, recursive bool) ([]*dropsdk.Metadata, error)
	Download(ctx context.Context, path string) ([]byte, *dropsdk.Metadata, error)
}

var _ Remote = (*dropsdk.Client)(nil)

// Engine drives upload and download passes for one workspace against one
// remote root. It owns no shared state across passes beyond the on-disk
// ledger; the folder cache lives for a single pass only.
type Engine struct {
	ws         *workspace.Workspace
	remote     Remote
	remoteRoot string
}

func New(ws *workspace.Workspace, remote Remote, remoteRoot string) *Engine {
	return &Engine{
		ws:         ws,
		remote:     remote,
		remoteRoot: remoteRoot,
	}
}

// PassStats summarizes one completed pass.
type PassStats struct {
	Scanned     int
	Ignored     int
	Transferred int
	Unchanged   int
	Failed      int
}

// remotePath maps a POSIX relative path to its remote destination.
func (e *Engine) remotePath(relPath string) string {
	return e.remoteRoot + "/" + relPath
}

// folderCache tracks remote folders already confirmed this pass, so each
// parent costs at most one create call.
type folderCache map[string]struct{}

// ensureRemoteFolder creates the parent folder of remotePath unless a prior
// transfer in this pass already confirmed it. "Already exists" is success.
func (e *Engine) ensureRemoteFolder(ctx context.Context, cache folderCache, remotePath string) error {
	parent := path.Dir(remotePath)
	if parent == "" || parent == "/" || parent == "." {
		return nil
	}
	if _, ok := cache[parent]; ok {
		return nil
	}

	if err := e.remote.CreateFolder(ctx, parent); err != nil {
		return err
	}
	cache[parent] = struct{}{}
	return nil
}
