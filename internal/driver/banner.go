package driver

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"

	"elmbackup/internal/model"
)

var bannerStyle = lipgloss.NewStyle().
	Bold(true).
	Foreground(lipgloss.Color("205")).
	Border(lipgloss.DoubleBorder(), true, false).
	BorderForeground(lipgloss.Color("63")).
	MarginTop(1)

// rowBanner is the block printed before each manifest row so the row stands
// out in long scheduler logs.
func rowBanner(row model.Row) string {
	jobs := row.JobRequirements
	if jobs == "" {
		jobs = "(default)"
	}
	text := fmt.Sprintf("Backing up path: %s, tar_children_separately: %t, job_requirements: %s",
		row.Path, row.TarChildrenSeparately, jobs)
	return bannerStyle.Render(text)
}
