package tui

import (
	"elmbackup/internal/model"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
)

// AppModel holds the TUI state.
type AppModel struct {
	// Data
	Plan    model.Plan
	Items   []model.Item // Plan items in execution order
	Loading bool
	Err     error

	// UI State
	SelectedIdx int // Index into FilteredIndices
	WindowSize  tea.WindowSizeMsg
	HideSkipped bool

	// Search State
	InputMode       bool
	InputBuffer     textinput.Model
	FilteredIndices []int // Indices of Items to show
	SearchActive    bool

	// Components
	DetailsViewport viewport.Model // Scrollable details pane

	load func() (model.Plan, error)
}

// InitialModel returns the initial state. load builds the plan; it runs once
// in the background when the program starts.
func InitialModel(load func() (model.Plan, error)) AppModel {
	ti := textinput.New()
	ti.Placeholder = "path or label..."
	ti.CharLimit = 120
	ti.Width = 30

	return AppModel{
		Loading:         true,
		InputBuffer:     ti,
		DetailsViewport: viewport.New(0, 0),
		load:            load,
	}
}

// Init starts loading the plan.
func (m AppModel) Init() tea.Cmd {
	return LoadPlanCmd(m.load)
}

// Selected returns the highlighted item, if any.
func (m AppModel) Selected() (model.Item, bool) {
	if m.SelectedIdx < 0 || m.SelectedIdx >= len(m.FilteredIndices) {
		return model.Item{}, false
	}
	return m.Items[m.FilteredIndices[m.SelectedIdx]], true
}
