// Package plan turns manifest rows into transfer items.
package plan

import (
	"elmbackup/internal/archive"
	"elmbackup/internal/manifest"
	"elmbackup/internal/model"
)

// Planner expands rows into items for one backup folder.
type Planner struct {
	Folder    string
	Bucket    string
	Partition string
	Program   string
}

// RowItems expands row into pending items, one per path, each carrying its
// label, destination and rendered command.
func (p *Planner) RowItems(row model.Row) ([]model.Item, error) {
	paths, err := manifest.Expand(row)
	if err != nil {
		return nil, err
	}

	items := make([]model.Item, 0, len(paths))
	for i, src := range paths {
		items = append(items, p.Item(row, i, src))
	}
	return items, nil
}

// Item builds the pending item for the index-th path of row.
func (p *Planner) Item(row model.Row, index int, src string) model.Item {
	label := archive.Label(p.Folder, row.Number, index)
	dst := archive.Destination(p.Bucket, p.Folder, src)
	cmd := p.Command(row, label, src, dst)
	return model.Item{
		Position:    model.Position{Row: row.Number, Index: index},
		Source:      src,
		Destination: dst,
		Label:       label,
		Command:     cmd.String(),
		Status:      model.StatusPending,
	}
}

// Command is the transfer invocation for one item.
func (p *Planner) Command(row model.Row, label, src, dst string) archive.Command {
	return archive.Build(p.Program, archive.Transfer{
		Label:           label,
		Partition:       p.Partition,
		JobRequirements: row.JobRequirements,
		Source:          src,
		Destination:     dst,
	})
}

// Build plans every row from start onwards without running anything. Items
// that would be skipped are marked so; the rest stay pending. The start index
// only applies to the start row.
func (p *Planner) Build(m *manifest.Manifest, start model.Position) model.Plan {
	out := model.Plan{
		Folder: p.Folder,
		Bucket: p.Bucket,
		Start:  start,
	}

	for r := start.Row; r < m.Len(); r++ {
		row := m.Rows[r]
		rp := model.RowPlan{Row: row}

		items, err := p.RowItems(row)
		if err != nil {
			rp.Err = err.Error()
		}
		first := 0
		if r == start.Row {
			first = min(start.Index, len(items))
		}
		for _, it := range items[first:] {
			reason, err := model.Inspect(it.Source)
			if reason != model.SkipNone {
				it.Status = model.StatusSkipped
				it.Reason = reason
				if err != nil {
					it.Detail = err.Error()
				}
			}
			rp.Items = append(rp.Items, it)
		}
		out.Rows = append(out.Rows, rp)
	}
	return out
}

// Items flattens the plan in execution order.
func Items(pl model.Plan) []model.Item {
	var items []model.Item
	for _, rp := range pl.Rows {
		items = append(items, rp.Items...)
	}
	return items
}
