package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"elmbackup/internal/model"
	"elmbackup/internal/plan"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))

	selectedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("229")).Background(lipgloss.Color("57"))
	normalStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dimmedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	labelStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("81")).Bold(true)
	adviceStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208")) // Orange

	activeColor = lipgloss.Color("205")
	borderColor = lipgloss.Color("63")
)

func (m AppModel) View() string {
	if m.Loading {
		return "\n  Expanding manifest... please wait.\n"
	}
	if m.Err != nil {
		return fmt.Sprintf("\n  Error: %v\n", m.Err)
	}

	leftWidth, rightWidth, interiorHeight := m.layout()

	left := lipgloss.NewStyle().
		Width(leftWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(activeColor).
		Render(m.renderList(leftWidth, interiorHeight))

	right := lipgloss.NewStyle().
		Width(rightWidth).
		Height(interiorHeight).
		Border(lipgloss.NormalBorder()).
		BorderForeground(borderColor).
		Render(m.DetailsViewport.View())

	header := titleStyle.Render(fmt.Sprintf("elmbackup plan: %s", m.Plan.Folder)) +
		dimmedStyle.Render(fmt.Sprintf("  bucket %s, starting at %s", m.Plan.Bucket, m.Plan.Start))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		lipgloss.JoinHorizontal(lipgloss.Top, left, right),
		m.renderFooter(),
	)
}

// layout splits the window into the two panels. Subtracting 6 for borders
// and a little slack, 6 for title/footer.
func (m AppModel) layout() (leftWidth, rightWidth, interiorHeight int) {
	netWidth := max(m.WindowSize.Width-6, 20)
	leftWidth = netWidth / 2
	rightWidth = netWidth - leftWidth
	boxHeight := max(m.WindowSize.Height-6, 6)
	interiorHeight = max(boxHeight-2, 2)
	return leftWidth, rightWidth, interiorHeight
}

func (m AppModel) renderList(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Items"))
	b.WriteString("\n\n")

	if len(m.FilteredIndices) == 0 {
		b.WriteString(dimmedStyle.Render("  nothing to show"))
		return b.String()
	}

	// Keep the cursor roughly centered once the list overflows.
	visible := max(height-2, 1)
	start, end := 0, len(m.FilteredIndices)
	if end > visible {
		start = max(m.SelectedIdx-visible/2, 0)
		if start+visible > end {
			start = end - visible
		}
		end = start + visible
	}

	for i := start; i < end; i++ {
		it := m.Items[m.FilteredIndices[i]]
		line := fmt.Sprintf("%s %-7s %s", it.Icon(), it.Position, it.Source)
		if w := width - 2; w > 3 {
			line = ansi.Truncate(line, w, "...")
		}

		style := normalStyle
		switch {
		case i == m.SelectedIdx:
			style = selectedStyle
		case it.Status == model.StatusSkipped:
			style = dimmedStyle
		}
		b.WriteString(style.Render(line))
		b.WriteString("\n")
	}
	return strings.TrimSuffix(b.String(), "\n")
}

func (m AppModel) renderDetails(width int) string {
	it, ok := m.Selected()
	if !ok {
		return titleStyle.Render("Details")
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Details"))
	b.WriteString("\n\n")

	field := func(name, value string) {
		b.WriteString(labelStyle.Render(name))
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Width(width - 2).Render(value))
		b.WriteString("\n\n")
	}
	field("Position", it.Position.String())
	field("Source", it.Source)
	field("Destination", it.Destination)
	field("Label", it.Label)

	if it.Status == model.StatusSkipped {
		b.WriteString(adviceStyle.Render(model.SkipMessage(it.Source, it.Reason)))
		if it.Detail != "" {
			b.WriteString("\n" + dimmedStyle.Render(it.Detail))
		}
		return b.String()
	}
	field("Command", it.Command)
	return strings.TrimSuffix(b.String(), "\n")
}

func (m AppModel) renderFooter() string {
	c := plan.Count(m.Plan)
	stats := fmt.Sprintf("%d to archive, %d skipped", c.Pending, len(m.Items)-c.Pending)

	if m.InputMode {
		return "Filter: " + m.InputBuffer.View()
	}

	keys := "↑/↓ move  pgup/pgdn scroll details  / filter  s toggle skipped  q quit"
	if m.SearchActive {
		keys = fmt.Sprintf("filter %q (esc clears)  ", m.InputBuffer.Value()) + keys
	}
	if m.HideSkipped {
		stats += " (hidden)"
	}
	return dimmedStyle.Render(stats + "  |  " + keys)
}
