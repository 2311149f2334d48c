// Package timetravel selects a historical revision of one remote file by
// date, optional exact size and 1-based rank, paging the revision history
// newest to oldest.
package timetravel

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
)

// History is the slice of the remote API the selector needs.
// *dropsdk.Client satisfies it.
type History interface {
	ListRevisions(ctx context.Context, path string, limit int, beforeRev string) (*dropsdk.RevisionPage, error)
	RestoreRevision(ctx context.Context, path, rev string) (*dropsdk.Metadata, error)
}

var _ History = (*dropsdk.Client)(nil)

// Query describes which revision to pick.
type Query struct {
	// Path is the remote file path.
	Path string
	// Cutoff: only revisions modified at or before this UTC instant match.
	Cutoff time.Time
	// Size, when >= 0, restricts matches to this exact byte count.
	Size int64
	// Nth is the 1-based rank among matches, scanning newest to oldest.
	Nth int
	// PerPage is the page size, capped at the server limit of 100.
	PerPage int
	// MaxPages, when > 0, caps how many pages are fetched.
	MaxPages int
}

// Result reports the outcome of a selection scan.
type Result struct {
	// Chosen is the Nth match, nil when the scan exhausted history (or hit
	// MaxPages) first.
	Chosen *dropsdk.Revision
	// Matches holds every qualifying revision seen, newest first.
	Matches []*dropsdk.Revision
	// PagesScanned counts the listing calls made.
	PagesScanned int
	// Paged is true when more than the first page was needed.
	Paged bool
	// OldestSeen is the last entry of the last fetched page. When no match
	// exists it shows how far back the accessible history goes.
	OldestSeen *dropsdk.Revision
}

// FindByDate scans path's revisions newest to oldest and returns as soon as the
// Nth qualifying revision is found. On exhaustion it returns a nil Chosen
// with whatever matched. Listing errors abort the scan.
func FindByDate(ctx context.Context, h History, q Query) (*Result, error) {
	cutoff := q.Cutoff.UTC()
	nth := max(1, q.Nth)
	perPage := max(1, min(q.PerPage, dropsdk.MaxRevisionPageSize))

	res := &Result{}
	beforeRev := ""

	for {
		page, err := h.ListRevisions(ctx, q.Path, perPage, beforeRev)
		if err != nil {
			return nil, fmt.Errorf("list revisions for %s: %w", q.Path, err)
		}
		res.PagesScanned++
		if beforeRev != "" {
			res.Paged = true
		}

		if len(page.Entries) > 0 {
			res.OldestSeen = page.Entries[len(page.Entries)-1]
		}

		for _, rev := range page.Entries {
			slog.Debug("revision", "rev", rev.Rev, "modified", rev.ServerModified, "size", rev.Size)
			if rev.ServerModified.IsZero() {
				continue
			}
			if rev.ServerModified.UTC().After(cutoff) {
				continue
			}
			if q.Size >= 0 && rev.Size != q.Size {
				continue
			}

			res.Matches = append(res.Matches, rev)
			if len(res.Matches) >= nth {
				res.Chosen = res.Matches[nth-1]
				return res, nil
			}
		}

		if !page.HasMore || len(page.Entries) == 0 {
			return res, nil
		}

		// Page onward from the oldest rev on this page.
		beforeRev = page.Entries[len(page.Entries)-1].Rev
		if beforeRev == "" {
			return res, nil
		}

		if q.MaxPages > 0 && res.PagesScanned >= q.MaxPages {
			return res, nil
		}
	}
}

// Restore applies the chosen revision on the remote.
func Restore(ctx context.Context, h History, path, rev string) (*dropsdk.Metadata, error) {
	meta, err := h.RestoreRevision(ctx, path, rev)
	if err != nil {
		return nil, fmt.Errorf("restore %s to %s: %w", path, rev, err)
	}
	return meta, nil
}
