package tui

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"elmbackup/internal/model"
)

func samplePlan() model.Plan {
	return model.Plan{
		Folder: "backup-Q4-2026",
		Bucket: "lab",
		Rows: []model.RowPlan{
			{Row: model.Row{Number: 0, Path: "/oak/projects"}, Items: []model.Item{
				{Position: model.Position{Row: 0, Index: 0}, Source: "/oak/projects/alpha", Label: "backup-Q4-2026-0.0", Status: model.StatusPending, Command: "elm_archive transfer ..."},
				{Position: model.Position{Row: 0, Index: 1}, Source: "/oak/projects/beta", Label: "backup-Q4-2026-0.1", Status: model.StatusSkipped, Reason: model.SkipEmpty},
			}},
			{Row: model.Row{Number: 1, Path: "/oak/scans"}, Items: []model.Item{
				{Position: model.Position{Row: 1}, Source: "/oak/scans", Label: "backup-Q4-2026-1.0", Status: model.StatusPending},
			}},
		},
	}
}

func update(t *testing.T, m AppModel, msg tea.Msg) AppModel {
	t.Helper()
	next, _ := m.Update(msg)
	out, ok := next.(AppModel)
	require.True(t, ok)
	return out
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func loaded(t *testing.T) AppModel {
	m := InitialModel(func() (model.Plan, error) { return samplePlan(), nil })
	msg := m.Init()()
	return update(t, m, msg)
}

func TestPlanLoads(t *testing.T) {
	m := loaded(t)

	assert.False(t, m.Loading)
	assert.Len(t, m.Items, 3)
	assert.Equal(t, []int{0, 1, 2}, m.FilteredIndices)

	it, ok := m.Selected()
	require.True(t, ok)
	assert.Equal(t, "/oak/projects/alpha", it.Source)
}

func TestLoadError(t *testing.T) {
	m := InitialModel(func() (model.Plan, error) { return model.Plan{}, errors.New("no manifest") })
	m = update(t, m, m.Init()())

	assert.False(t, m.Loading)
	assert.EqualError(t, m.Err, "no manifest")
	assert.Contains(t, m.View(), "no manifest")
}

func TestNavigation(t *testing.T) {
	m := loaded(t)

	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	m = update(t, m, key("j"))
	assert.Equal(t, 2, m.SelectedIdx, "cursor stops at the last item")

	m = update(t, m, key("k"))
	assert.Equal(t, 1, m.SelectedIdx)

	m = update(t, m, key("g"))
	assert.Equal(t, 0, m.SelectedIdx)
	m = update(t, m, key("G"))
	assert.Equal(t, 2, m.SelectedIdx)
}

func TestToggleSkipped(t *testing.T) {
	m := loaded(t)
	m = update(t, m, key("G"))

	m = update(t, m, key("s"))
	assert.True(t, m.HideSkipped)
	assert.Equal(t, []int{0, 2}, m.FilteredIndices)
	assert.Equal(t, 1, m.SelectedIdx)

	m = update(t, m, key("s"))
	assert.Equal(t, []int{0, 1, 2}, m.FilteredIndices)
}

func TestFilter(t *testing.T) {
	m := loaded(t)

	m = update(t, m, key("/"))
	assert.True(t, m.InputMode)
	m = update(t, m, key("scan"))
	m = update(t, m, tea.KeyMsg{Type: tea.KeyEnter})

	assert.False(t, m.InputMode)
	assert.True(t, m.SearchActive)
	assert.Equal(t, []int{2}, m.FilteredIndices)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.SearchActive)
	assert.Len(t, m.FilteredIndices, 3)
}

func TestViewRenders(t *testing.T) {
	m := loaded(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 160, Height: 30})

	view := m.View()
	assert.Contains(t, view, "backup-Q4-2026")
	assert.Contains(t, view, "/oak/projects/alpha")
	assert.Contains(t, view, "2 to archive, 1 skipped")
}

func TestListTruncatesByWidth(t *testing.T) {
	m := InitialModel(func() (model.Plan, error) {
		return model.Plan{Rows: []model.RowPlan{{Items: []model.Item{
			{Source: "/data/" + strings.Repeat("é", 80), Status: model.StatusPending},
		}}}}, nil
	})
	m = update(t, m, m.Init()())

	list := m.renderList(24, 10)
	assert.True(t, utf8.ValidString(list))
	assert.Contains(t, list, "...")
}

func TestDetailsScroll(t *testing.T) {
	m := loaded(t)
	m = update(t, m, tea.WindowSizeMsg{Width: 80, Height: 14})
	assert.Equal(t, 0, m.DetailsViewport.YOffset)
	assert.Greater(t, m.DetailsViewport.TotalLineCount(), m.DetailsViewport.Height)

	m = update(t, m, tea.KeyMsg{Type: tea.KeyPgDown})
	assert.Positive(t, m.DetailsViewport.YOffset)

	m = update(t, m, key("j"))
	assert.Equal(t, 0, m.DetailsViewport.YOffset, "moving the cursor resets the details pane")
	assert.Contains(t, m.View(), "Position")
}
