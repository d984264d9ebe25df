package plan

import (
	"fmt"
	"strings"

	"elmbackup/internal/model"
)

// Counts tallies the items of a plan by outcome.
type Counts struct {
	Pending int
	Skipped map[model.SkipReason]int
}

// Count tallies pl.
func Count(pl model.Plan) Counts {
	c := Counts{Skipped: map[model.SkipReason]int{}}
	for _, it := range Items(pl) {
		if it.Status == model.StatusSkipped {
			c.Skipped[it.Reason]++
			continue
		}
		c.Pending++
	}
	return c
}

// GenerateReport renders the plan as plain text. With verbose set every item
// shows its full command line.
func GenerateReport(pl model.Plan, verbose bool) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Backup folder: %s\n", pl.Folder)
	fmt.Fprintf(&b, "Bucket:        %s\n", pl.Bucket)
	fmt.Fprintf(&b, "Start:         %s\n", pl.Start)
	b.WriteString(strings.Repeat("=", 60) + "\n")

	for _, rp := range pl.Rows {
		fmt.Fprintf(&b, "\nRow %d: %s", rp.Row.Number, rp.Row.Path)
		if rp.Row.TarChildrenSeparately {
			b.WriteString(" (children separately)")
		}
		if rp.Row.JobRequirements != "" {
			fmt.Fprintf(&b, " [%s]", rp.Row.JobRequirements)
		}
		b.WriteString("\n")

		if rp.Err != "" {
			fmt.Fprintf(&b, "  %s %s\n", model.IconFailed, rp.Err)
		}
		if len(rp.Items) == 0 && rp.Err == "" {
			b.WriteString("  (nothing to archive)\n")
		}
		for _, it := range rp.Items {
			fmt.Fprintf(&b, "  %s %-8s %s", it.Icon(), it.Position, it.Source)
			if it.Status == model.StatusSkipped {
				fmt.Fprintf(&b, "  [skip: %s]", it.Reason)
			}
			b.WriteString("\n")
			if verbose && it.Status != model.StatusSkipped {
				fmt.Fprintf(&b, "      %s\n", it.Command)
			}
		}
	}

	c := Count(pl)
	b.WriteString("\n" + strings.Repeat("=", 60) + "\n")
	fmt.Fprintf(&b, "%d to archive, %d missing, %d files, %d empty", c.Pending,
		c.Skipped[model.SkipMissing], c.Skipped[model.SkipFile], c.Skipped[model.SkipEmpty])
	if n := c.Skipped[model.SkipUnreadable]; n > 0 {
		fmt.Fprintf(&b, ", %d unreadable", n)
	}
	b.WriteString("\n")
	return b.String()
}
