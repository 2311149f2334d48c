package timetravel

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
)

// ParseCutoff turns a target-date flag into an inclusive UTC cutoff. A bare
// `YYYY-MM-DD` means end of that day in UTC; anything longer must be
// ISO-8601 and a missing zone is taken as UTC.
func ParseCutoff(s string) (time.Time, error) {
	if len(s) == len("2006-01-02") {
		day, err := time.Parse("2006-01-02", s)
		if err != nil {
			return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
		}
		return time.Date(day.Year(), day.Month(), day.Day(), 23, 59, 59, 999_000_000, time.UTC), nil
	}

	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q: want YYYY-MM-DD or ISO-8601", s)
}

// WriteSummary prints the scan parameters and outcome of a selection run.
func WriteSummary(w io.Writer, q Query, res *Result, execute bool) {
	if execute {
		fmt.Fprintln(w, "== Action Summary ==")
	} else {
		fmt.Fprintln(w, "== Dry-Run Summary ==")
	}
	fmt.Fprintf(w, "Path:          %s\n", q.Path)
	fmt.Fprintf(w, "Target date:   %s\n", q.Cutoff.UTC().Format(time.RFC3339))
	if q.Size >= 0 {
		fmt.Fprintf(w, "Size filter:   %d bytes (%s)\n", q.Size, humanize.IBytes(uint64(q.Size)))
	}
	fmt.Fprintf(w, "Rank:          %d\n", max(1, q.Nth))
	fmt.Fprintf(w, "Pages scanned: %d\n", res.PagesScanned)
	fmt.Fprintf(w, "Paged:         %v\n", res.Paged)
}

// WriteMatches lists up to n qualifying revisions, newest first.
func WriteMatches(w io.Writer, res *Result, n int) {
	show := min(n, len(res.Matches))
	fmt.Fprintf(w, "\nMatching revisions (newest first), showing %d of %d:\n", show, len(res.Matches))
	if show == 0 {
		fmt.Fprintln(w, "  (no matches)")
		return
	}

	for _, rev := range res.Matches[:show] {
		fmt.Fprintf(w, "  %s  %-12s  %s  %s\n",
			rev.ServerModified.UTC().Format(time.RFC3339),
			humanize.IBytes(uint64(rev.Size)),
			rev.Rev,
			shortHash(rev.ContentHash))
	}
}

// WriteChosen describes the revision a restore would target.
func WriteChosen(w io.Writer, rev *dropsdk.Revision) {
	fmt.Fprintln(w, "\nChosen revision:")
	fmt.Fprintf(w, "  modified: %s\n", rev.ServerModified.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  rev:      %s\n", rev.Rev)
	fmt.Fprintf(w, "  size:     %d bytes (%s)\n", rev.Size, humanize.IBytes(uint64(rev.Size)))
	if rev.ContentHash != "" {
		fmt.Fprintf(w, "  hash:     %s\n", rev.ContentHash)
	}
}

// WriteNoMatch explains an empty result, pointing at the oldest accessible
// revision so "target date predates all history" is diagnosable.
func WriteNoMatch(w io.Writer, res *Result) {
	fmt.Fprintln(w, "\nNo matching revision for the given criteria.")
	if res.OldestSeen != nil {
		fmt.Fprintf(w, "Oldest seen: %s (rev=%s, size=%s)\n",
			res.OldestSeen.ServerModified.UTC().Format(time.RFC3339),
			res.OldestSeen.Rev,
			humanize.IBytes(uint64(res.OldestSeen.Size)))
	} else {
		fmt.Fprintln(w, "This file has no accessible revisions.")
	}
}

func shortHash(h string) string {
	if len(h) > 10 {
		return h[:10] + "…"
	}
	if h == "" {
		return strings.Repeat("-", 10)
	}
	return h
}
