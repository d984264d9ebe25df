// Package driver walks the manifest and hands each path to the archive tool,
// one at a time.
package driver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"elmbackup/internal/archive"
	"elmbackup/internal/journal"
	"elmbackup/internal/manifest"
	"elmbackup/internal/model"
	"elmbackup/internal/plan"
)

// ErrInterrupted is returned when the context is cancelled mid-run. The
// summary's Next field holds the position to resume from.
var ErrInterrupted = errors.New("backup interrupted")

// Recorder receives the outcome of each handled item.
type Recorder interface {
	Record(ctx context.Context, e journal.Entry) error
}

// Config wires a Driver.
type Config struct {
	Planner *plan.Planner
	Runner  archive.Runner
	Journal Recorder     // optional
	Out     io.Writer    // console; defaults to stdout
	Logger  *slog.Logger // defaults to slog.Default()
	DryRun  bool
}

// Driver runs a backup sequentially.
type Driver struct {
	planner *plan.Planner
	runner  archive.Runner
	journal Recorder
	out     io.Writer
	log     *slog.Logger
	dryRun  bool
	now     func() time.Time
}

// New creates a Driver.
func New(cfg Config) *Driver {
	d := &Driver{
		planner: cfg.Planner,
		runner:  cfg.Runner,
		journal: cfg.Journal,
		out:     cfg.Out,
		log:     cfg.Logger,
		dryRun:  cfg.DryRun,
		now:     time.Now,
	}
	if d.out == nil {
		d.out = os.Stdout
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	return d
}

// Run processes m from start. Rows are handled in order; within the start row
// processing begins at start.Index, every later row begins at its first path.
// Failed and skipped paths never stop the run.
func (d *Driver) Run(ctx context.Context, m *manifest.Manifest, start model.Position) (model.Summary, error) {
	sum := model.Summary{
		TotalRows: m.Len(),
		Skipped:   map[model.SkipReason]int{},
		Last:      start,
		Next:      start,
	}
	if start.Row >= m.Len() {
		d.log.Warn("start row is past the end of the manifest", "start", start.String(), "rows", m.Len())
		sum.Next = model.Position{Row: m.Len()}
		return sum, nil
	}

	for r := start.Row; r < m.Len(); r++ {
		row := m.Rows[r]
		if ctx.Err() != nil {
			return d.interrupted(sum, model.Position{Row: r})
		}

		fmt.Fprintln(d.out, rowBanner(row))

		items, err := d.planner.RowItems(row)
		if err != nil {
			fmt.Fprintf(d.out, "Could not list %s: %v. Skipping row.\n", row.Path, err)
			d.log.Warn("row expansion failed", "row", r, "path", row.Path, "error", err)
		}

		idx := 0
		if r == start.Row && start.Index != 0 {
			fmt.Fprintf(d.out, "Resuming from row %d, path %d/%d\n", r, start.Index+1, len(items))
			idx = start.Index
		}

		for ; idx < len(items); idx++ {
			it := items[idx]
			if ctx.Err() != nil {
				return d.interrupted(sum, it.Position)
			}
			if err := d.handle(ctx, row, it, &sum); err != nil {
				return d.interrupted(sum, it.Position)
			}
			sum.Last = it.Position
		}

		sum.Rows++
		fmt.Fprintf(d.out, "\nFinished row %d/%d\n", r+1, m.Len())
	}

	sum.Next = model.Position{Row: m.Len()}
	return sum, nil
}

// handle processes one item. It only returns an error when the context was
// cancelled while the transfer ran.
func (d *Driver) handle(ctx context.Context, row model.Row, it model.Item, sum *model.Summary) error {
	reason, err := model.Inspect(it.Source)
	if reason != model.SkipNone {
		fmt.Fprintln(d.out, model.SkipMessage(it.Source, reason))
		it.Status, it.Reason = model.StatusSkipped, reason
		if err != nil {
			it.Detail = err.Error()
		}
		sum.Skipped[reason]++
		d.record(ctx, it, 0, d.now())
		return nil
	}

	cmd := d.planner.Command(row, it.Label, it.Source, it.Destination)
	fmt.Fprintf(d.out, "Running command:\n%s\n", cmd)
	if d.dryRun {
		sum.Planned++
		return nil
	}

	started := d.now()
	res, err := d.runner.Run(ctx, cmd)
	exitCode := 0
	if res != nil {
		exitCode = res.ExitCode
	}

	if err != nil {
		if ctx.Err() != nil {
			d.log.Warn("transfer interrupted", "label", it.Label, "source", it.Source)
			return err
		}
		fmt.Fprintf(d.out, "Error running command: %s\n%v\n", cmd, err)
		fmt.Fprintf(d.out, "Skipping path %s\n", it.Source)
		d.log.Error("transfer failed", "label", it.Label, "source", it.Source, "exit_code", exitCode, "error", err)

		it.Status = model.StatusFailed
		it.Detail = err.Error()
		if res != nil && res.Tail != "" {
			it.Detail += "\n" + res.Tail
		}
		sum.Failed++
		d.record(ctx, it, exitCode, started)
		return nil
	}

	fmt.Fprintf(d.out, "\nFinished backing up path: %s\n\n", it.Source)
	d.log.Info("transfer finished", "label", it.Label, "source", it.Source, "destination", it.Destination, "duration", d.now().Sub(started).Round(time.Second))
	it.Status = model.StatusArchived
	sum.Archived++
	d.record(ctx, it, exitCode, started)
	return nil
}

func (d *Driver) record(ctx context.Context, it model.Item, exitCode int, started time.Time) {
	if d.journal == nil || d.dryRun {
		return
	}
	err := d.journal.Record(context.WithoutCancel(ctx), journal.Entry{
		Folder:      d.planner.Folder,
		Position:    it.Position,
		Label:       it.Label,
		Source:      it.Source,
		Destination: it.Destination,
		Status:      it.Status,
		Reason:      it.Reason,
		Detail:      it.Detail,
		ExitCode:    exitCode,
		StartedAt:   started,
		FinishedAt:  d.now(),
	})
	if err != nil {
		d.log.Warn("journal write failed", "label", it.Label, "error", err)
	}
}

func (d *Driver) interrupted(sum model.Summary, at model.Position) (model.Summary, error) {
	sum.Interrupted = true
	sum.Next = at
	d.log.Warn("backup interrupted", "resume_from", at.String())
	return sum, ErrInterrupted
}
