package main

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmbackup/internal/config"
	"elmbackup/internal/journal"
	"elmbackup/internal/logging"
	"elmbackup/internal/manifest"
	"elmbackup/internal/model"
)

type fixedResumer struct {
	next  model.Position
	ok    bool
	err   error
	calls int
}

func (f *fixedResumer) NextPosition(context.Context, string) (model.Position, bool, error) {
	f.calls++
	return f.next, f.ok, f.err
}

func testRun(start model.Position, given bool) *run {
	return &run{
		folder:     "backup-Q4-2026",
		start:      start,
		startGiven: given,
		cfg:        &config.Config{},
		log:        logging.Discard(),
	}
}

func TestStartPositionExplicitWins(t *testing.T) {
	res := &fixedResumer{next: model.Position{Row: 9, Index: 1}, ok: true}
	r := testRun(model.Position{Row: 2}, true)

	start, err := r.startPosition(context.Background(), res, true)
	require.NoError(t, err)
	assert.Equal(t, model.Position{Row: 2}, start)
	assert.Zero(t, res.calls)
}

func TestStartPositionWithoutResume(t *testing.T) {
	r := testRun(model.Position{}, false)

	start, err := r.startPosition(context.Background(), nil, false)
	require.NoError(t, err)
	assert.Equal(t, model.Position{}, start)
}

func TestStartPositionFromJournal(t *testing.T) {
	res := &fixedResumer{next: model.Position{Row: 4, Index: 1}, ok: true}
	r := testRun(model.Position{}, false)

	start, err := r.startPosition(context.Background(), res, true)
	require.NoError(t, err)
	assert.Equal(t, model.Position{Row: 4, Index: 1}, start)
	assert.Equal(t, 1, res.calls)
}

func TestStartPositionEmptyJournal(t *testing.T) {
	r := testRun(model.Position{}, false)

	start, err := r.startPosition(context.Background(), &fixedResumer{}, true)
	require.NoError(t, err)
	assert.Equal(t, model.Position{}, start)
}

func TestStartPositionErrors(t *testing.T) {
	r := testRun(model.Position{}, false)

	_, err := r.startPosition(context.Background(), nil, true)
	assert.ErrorContains(t, err, "needs the journal")

	_, err = r.startPosition(context.Background(), &fixedResumer{err: errors.New("locked")}, true)
	assert.ErrorContains(t, err, "locked")
}

func TestResumeAfterInterruptedRerun(t *testing.T) {
	ctx := context.Background()
	store, err := journal.Open(ctx, filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	record := func(row int) {
		require.NoError(t, store.Record(ctx, journal.Entry{
			Folder:   "backup-Q4-2026",
			Position: model.Position{Row: row},
			Label:    "label",
			Status:   model.StatusArchived,
		}))
	}
	record(9)
	for row := 2; row <= 4; row++ {
		record(row)
	}

	start, err := testRun(model.Position{}, false).startPosition(ctx, store, true)
	require.NoError(t, err)
	assert.Equal(t, model.Position{Row: 4, Index: 1}, start)
}

func TestResolveDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELM_BUCKET", "lab-archive")
	t.Setenv("PARTITION", "normal")

	r, err := resolve(nil, "")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultFolder(time.Now()), r.folder)
	assert.Equal(t, manifest.DefaultFile, r.manifestPath)
	assert.False(t, r.startGiven)
	assert.Equal(t, "lab-archive", r.cfg.Bucket)
	assert.NotNil(t, r.log)
}

func TestResolvePositionals(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("ELM_BUCKET", "lab-archive")
	t.Setenv("PARTITION", "normal")

	r, err := resolve([]string{"backup-Q1-2026", "paths.csv", "3.4"}, "")
	require.NoError(t, err)
	assert.Equal(t, "backup-Q1-2026", r.folder)
	assert.Equal(t, "paths.csv", r.manifestPath)
	assert.True(t, r.startGiven)
	assert.Equal(t, model.Position{Row: 3, Index: 4}, r.start)
}

func TestResolveRejectsBadArguments(t *testing.T) {
	_, err := resolve([]string{"a", "b", "1", "extra"}, "")
	assert.ErrorContains(t, err, "too many arguments")

	_, err = resolve([]string{"a", "b", "1.x"}, "")
	assert.ErrorIs(t, err, model.ErrInvalidPosition)
}

func TestPrintSummaryShowsLastPath(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, model.Summary{
		Rows: 3, TotalRows: 5, Archived: 4, Failed: 1,
		Skipped: map[model.SkipReason]int{model.SkipEmpty: 2},
		Last:    model.Position{Row: 2, Index: 6},
	}, false)

	assert.Contains(t, buf.String(), "Done: 3/5 rows, 4 archived, 1 failed, 2 skipped")
	assert.Contains(t, buf.String(), "Last path handled: 2.6")

	buf.Reset()
	printSummary(&buf, model.Summary{TotalRows: 5}, false)
	assert.NotContains(t, buf.String(), "Last path handled")
}

func TestUsageExplainsFolderQuarters(t *testing.T) {
	var buf bytes.Buffer
	usage(&buf)
	assert.Contains(t, buf.String(), "calendar")
	assert.Contains(t, buf.String(), "Jan-Mar is Q1")
}
