package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/filter"
	"github.com/boxmirror/boxmirror/internal/mirror/ledger"
	"github.com/boxmirror/boxmirror/internal/utils"
)

// DownloadPass mirrors the remote folder into the local workspace. Files are
// fetched and written only when the remote content differs from what is on
// disk; the comparison uses the same MD5 digest the upload direction uses.
// Per-file failures are logged and the pass continues, except an auth
// failure, which aborts the pass so the caller can refresh the token.
func (e *Engine) DownloadPass(ctx context.Context) (*PassStats, error) {
	stats := &PassStats{}

	if err := e.ws.Bootstrap(); err != nil {
		return nil, fmt.Errorf("create local root: %w", err)
	}

	rules, err := filter.Load(e.ws.Root)
	if err != nil {
		return nil, fmt.Errorf("load ignore rules: %w", err)
	}

	entries, err := e.remote.ListFolder(ctx, e.remoteRoot, true)
	if err != nil {
		return nil, fmt.Errorf("list remote folder: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsFile() {
			continue
		}

		relPath, ok := e.relFromRemote(entry)
		if !ok {
			slog.Warn("remote entry outside root, skipping", "path", entry.PathDisplay)
			continue
		}
		if rules.Match(relPath) {
			slog.Debug("ignored by pattern", "path", relPath)
			stats.Ignored++
			continue
		}
		stats.Scanned++

		switch err := e.downloadOne(ctx, entry, relPath); {
		case err == errUnchanged:
			stats.Unchanged++
		case errors.Is(err, dropsdk.ErrAuth):
			// Every remaining fetch would be rejected the same way; surface
			// the error so the caller can refresh the token and rerun.
			return nil, fmt.Errorf("download %s: %w", relPath, err)
		case err != nil:
			stats.Failed++
			slog.Error("download failed", "path", relPath, "error", err)
		default:
			stats.Transferred++
		}
	}

	slog.Info("download pass done",
		"scanned", stats.Scanned,
		"transferred", stats.Transferred,
		"unchanged", stats.Unchanged,
		"ignored", stats.Ignored,
		"failed", stats.Failed)
	return stats, nil
}

var errUnchanged = fmt.Errorf("content unchanged")

// relFromRemote strips the remote root prefix. Remote paths are compared
// case-insensitively since the server lowercases path_lower.
func (e *Engine) relFromRemote(entry *dropsdk.Metadata) (string, bool) {
	prefix := strings.ToLower(e.remoteRoot) + "/"
	if !strings.HasPrefix(entry.PathLower, prefix) {
		return "", false
	}

	// Prefer the display path for local naming when its length lines up.
	if len(entry.PathDisplay) == len(entry.PathLower) {
		return entry.PathDisplay[len(prefix):], true
	}
	return entry.PathLower[len(prefix):], true
}

func (e *Engine) downloadOne(ctx context.Context, entry *dropsdk.Metadata, relPath string) error {
	remotePath := entry.PathLower
	localPath := e.ws.AbsPath(relPath)

	data, _, err := e.remote.Download(ctx, remotePath)
	if err != nil {
		return err
	}

	if utils.FileExists(localPath) {
		localHash, err := ledger.HashFile(localPath)
		if err == nil && localHash == ledger.HashBytes(data) {
			slog.Debug("no change", "path", relPath)
			return errUnchanged
		}
	}

	if err := utils.EnsureParent(localPath); err != nil {
		return fmt.Errorf("ensure parent dir: %w", err)
	}
	slog.Info("downloading updated file", "path", relPath, "remote", remotePath)
	if err := os.WriteFile(localPath, data, 0o644); err != nil {
		return fmt.Errorf("write local file: %w", err)
	}
	return nil
}
