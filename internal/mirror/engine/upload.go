package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/filter"
	"github.com/boxmirror/boxmirror/internal/mirror/ledger"
	"github.com/boxmirror/boxmirror/internal/mirror/scan"
)

// candidate is a scanned file whose current hash differs from the ledger.
type candidate struct {
	relPath string
	newHash string
}

// UploadPass mirrors local changes to the remote folder.
//
// Ledger semantics on failure: a file whose upload fails keeps its old
// recorded hash (or stays absent when it had none), so the change is picked
// up again next pass. A new hash is recorded only after the upload
// succeeded; an unconfirmed transfer must never look committed.
//
// An auth failure aborts the whole pass and is returned, since every
// remaining transfer would be rejected the same way; the caller refreshes
// the token and reruns.
func (e *Engine) UploadPass(ctx context.Context) (*PassStats, error) {
	stats := &PassStats{}

	rules, err := filter.Load(e.ws.Root)
	if err != nil {
		return nil, fmt.Errorf("load ignore rules: %w", err)
	}

	prior, err := ledger.Load(e.ws.LedgerPath())
	if err != nil {
		return nil, fmt.Errorf("load ledger: %w", err)
	}

	// Scan and diff. The next ledger starts from every unchanged file's
	// current hash; changed files join it once their transfer succeeds.
	next := make(map[string]string)
	var changed []candidate

	for relPath, err := range scan.Files(e.ws.Root) {
		if err != nil {
			return nil, fmt.Errorf("scan workspace: %w", err)
		}

		if rules.Match(relPath) {
			slog.Debug("ignored by pattern", "path", relPath)
			stats.Ignored++
			continue
		}
		stats.Scanned++

		hash, err := ledger.HashFile(e.ws.AbsPath(relPath))
		if err != nil {
			slog.Error("hash failed, skipping file", "path", relPath, "error", err)
			stats.Failed++
			continue
		}

		if prior[relPath] == hash {
			stats.Unchanged++
			next[relPath] = hash
			continue
		}
		changed = append(changed, candidate{relPath: relPath, newHash: hash})
	}

	// Transfer phase.
	cache := make(folderCache)
	for i, c := range changed {
		if err := e.uploadOne(ctx, cache, c); err != nil {
			stats.Failed++
			slog.Error("upload failed", "path", c.relPath, "error", err)

			// Keep the stale entry so the next pass retries the file.
			if oldHash, ok := prior[c.relPath]; ok {
				next[c.relPath] = oldHash
			}

			if errors.Is(err, dropsdk.ErrAuth) {
				// A rejected token fails every remaining transfer the same
				// way. Commit what did succeed and surface the error so the
				// caller can refresh the token and rerun the pass.
				keepPrior(changed[i+1:], prior, next, stats)
				if saveErr := ledger.Save(e.ws.LedgerPath(), next); saveErr != nil {
					return nil, fmt.Errorf("commit ledger: %w", saveErr)
				}
				return nil, fmt.Errorf("upload %s: %w", c.relPath, err)
			}

			if errors.Is(err, dropsdk.ErrInsufficientSpace) {
				slog.Error("remote out of space, skipping remaining transfers")
				keepPrior(changed[i+1:], prior, next, stats)
				break
			}
			continue
		}

		stats.Transferred++
		next[c.relPath] = c.newHash
	}

	// Commit the full new hash set, replacing the prior ledger.
	if err := ledger.Save(e.ws.LedgerPath(), next); err != nil {
		return nil, fmt.Errorf("commit ledger: %w", err)
	}

	slog.Info("upload pass done",
		"scanned", stats.Scanned,
		"transferred", stats.Transferred,
		"unchanged", stats.Unchanged,
		"ignored", stats.Ignored,
		"failed", stats.Failed)
	return stats, nil
}

// keepPrior preserves the old recorded hash of candidates whose transfer
// never ran, so the next pass picks them up again.
func keepPrior(rest []candidate, prior, next map[string]string, stats *PassStats) {
	for _, c := range rest {
		if oldHash, ok := prior[c.relPath]; ok {
			next[c.relPath] = oldHash
		}
		stats.Failed++
	}
}

func (e *Engine) uploadOne(ctx context.Context, cache folderCache, c candidate) error {
	remotePath := e.remotePath(c.relPath)

	if err := e.ensureRemoteFolder(ctx, cache, remotePath); err != nil {
		return fmt.Errorf("ensure remote folder: %w", err)
	}

	slog.Info("uploading changed file", "path", c.relPath, "remote", remotePath)
	if err := e.remote.Upload(ctx, e.ws.AbsPath(c.relPath), remotePath); err != nil {
		return err
	}
	return nil
}
