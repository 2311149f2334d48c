package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boxmirror/boxmirror/internal/dropsdk"
	"github.com/boxmirror/boxmirror/internal/mirror/timetravel"
)

type fakeHistory struct {
	revisions []*dropsdk.Revision
	restored  []string
}

func (f *fakeHistory) ListRevisions(_ context.Context, _ string, limit int, beforeRev string) (*dropsdk.RevisionPage, error) {
	start := 0
	if beforeRev != "" {
		for i, rev := range f.revisions {
			if rev.Rev == beforeRev {
				start = i + 1
				break
			}
		}
	}
	end := min(start+limit, len(f.revisions))
	return &dropsdk.RevisionPage{
		Entries: f.revisions[start:end],
		HasMore: end < len(f.revisions),
	}, nil
}

func (f *fakeHistory) RestoreRevision(_ context.Context, _, rev string) (*dropsdk.Metadata, error) {
	f.restored = append(f.restored, rev)
	return &dropsdk.Metadata{Tag: "file", Rev: rev}, nil
}

func day(d int) time.Time {
	return time.Date(2025, time.June, d, 12, 0, 0, 0, time.UTC)
}

func twoRevisions() *fakeHistory {
	return &fakeHistory{revisions: []*dropsdk.Revision{
		{Rev: "r2", ServerModified: day(2), Size: 100},
		{Rev: "r1", ServerModified: day(1), Size: 200},
	}}
}

func query(cutoff time.Time) timetravel.Query {
	return timetravel.Query{Path: "/f", Cutoff: cutoff, Size: -1, Nth: 1, PerPage: 100}
}

func TestTimetravelRun_DryRunOmitsMatchList(t *testing.T) {
	h := twoRevisions()
	var out strings.Builder

	err := timetravelRun(context.Background(), &out, h, query(day(2)), timetravelOpts{listN: 10})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Dry-Run Summary")
	assert.Contains(t, out.String(), "Chosen revision")
	assert.NotContains(t, out.String(), "Matching revisions")
	assert.Empty(t, h.restored)
}

func TestTimetravelRun_DryRunNoMatchFails(t *testing.T) {
	h := twoRevisions()
	var out strings.Builder

	err := timetravelRun(context.Background(), &out, h, query(day(0)), timetravelOpts{listN: 10})
	assert.Error(t, err)
	assert.Contains(t, out.String(), "No matching revision")
	assert.Empty(t, h.restored)
}

func TestTimetravelRun_ListModeIsReadOnly(t *testing.T) {
	h := twoRevisions()
	var out strings.Builder

	// Even combined with execute, listing must never restore.
	err := timetravelRun(context.Background(), &out, h, query(day(2)), timetravelOpts{
		listN: 10, listOnly: true, execute: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Matching revisions")
	assert.Contains(t, out.String(), "r2")
	assert.NotContains(t, out.String(), "Chosen revision")
	assert.Empty(t, h.restored)
}

func TestTimetravelRun_ListModeNoMatchStillSucceeds(t *testing.T) {
	h := twoRevisions()
	var out strings.Builder

	err := timetravelRun(context.Background(), &out, h, query(day(0)), timetravelOpts{
		listN: 10, listOnly: true,
	})
	require.NoError(t, err)
	assert.Contains(t, out.String(), "(no matches)")
}

func TestTimetravelRun_ExecuteRestoresChosen(t *testing.T) {
	h := twoRevisions()
	var out strings.Builder

	err := timetravelRun(context.Background(), &out, h, query(day(2)), timetravelOpts{
		listN: 10, execute: true,
	})
	require.NoError(t, err)

	assert.Contains(t, out.String(), "Action Summary")
	assert.Equal(t, []string{"r2"}, h.restored)
}
