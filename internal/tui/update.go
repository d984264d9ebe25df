package tui

import (
	"strings"

	"elmbackup/internal/model"
	"elmbackup/internal/plan"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
)

// MsgPlanReady indicates that the plan has been built.
type MsgPlanReady model.Plan

// MsgError indicates an error occurred.
type MsgError error

// Update handles events. The details pane is refilled after every event and
// scrolled back to the top when the selection moves.
func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	before, _ := m.Selected()
	next, cmd := m.handle(msg)
	after, _ := next.Selected()
	next.syncDetails(before.Position != after.Position || before.Source != after.Source)
	return next, cmd
}

func (m AppModel) handle(msg tea.Msg) (AppModel, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.WindowSize = msg
		return m, nil

	case MsgPlanReady:
		m.Loading = false
		m.Plan = model.Plan(msg)
		m.Items = plan.Items(m.Plan)
		m.applyFilter()
		return m, nil

	case MsgError:
		m.Err = msg
		m.Loading = false
		return m, nil

	case tea.KeyMsg:
		if m.InputMode {
			switch msg.Type {
			case tea.KeyEnter:
				m.InputMode = false
				m.InputBuffer.Blur()
				m.applyFilter()
				return m, nil
			case tea.KeyEsc:
				m.clearSearch()
				return m, nil
			}
			m.InputBuffer, cmd = m.InputBuffer.Update(msg)
			m.applyFilter()
			return m, cmd
		}

		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "esc":
			if m.SearchActive {
				m.clearSearch()
			}
		case "up", "k":
			if m.SelectedIdx > 0 {
				m.SelectedIdx--
			}
		case "down", "j":
			if m.SelectedIdx < len(m.FilteredIndices)-1 {
				m.SelectedIdx++
			}
		case "g", "home":
			m.SelectedIdx = 0
		case "G", "end":
			if n := len(m.FilteredIndices); n > 0 {
				m.SelectedIdx = n - 1
			}
		case "pgdown", "ctrl+d":
			m.DetailsViewport.HalfPageDown()
		case "pgup", "ctrl+u":
			m.DetailsViewport.HalfPageUp()
		case "s":
			m.HideSkipped = !m.HideSkipped
			m.applyFilter()
		case "/":
			m.InputMode = true
			m.InputBuffer.Focus()
			m.InputBuffer.SetValue("")
			return m, textinput.Blink
		}
	}

	return m, cmd
}

func (m *AppModel) syncDetails(reset bool) {
	_, rightWidth, height := m.layout()
	m.DetailsViewport.Width = rightWidth
	m.DetailsViewport.Height = height
	m.DetailsViewport.SetContent(m.renderDetails(rightWidth))
	if reset {
		m.DetailsViewport.GotoTop()
	}
}

func (m *AppModel) clearSearch() {
	m.InputMode = false
	m.InputBuffer.Blur()
	m.InputBuffer.SetValue("")
	m.applyFilter()
}

// applyFilter recomputes FilteredIndices from the search term and the
// skipped-item toggle, keeping the cursor in range.
func (m *AppModel) applyFilter() {
	term := strings.ToLower(strings.TrimSpace(m.InputBuffer.Value()))
	m.SearchActive = term != ""

	filtered := []int{}
	for i, it := range m.Items {
		if m.HideSkipped && it.Status == model.StatusSkipped {
			continue
		}
		if term != "" &&
			!strings.Contains(strings.ToLower(it.Source), term) &&
			!strings.Contains(strings.ToLower(it.Label), term) {
			continue
		}
		filtered = append(filtered, i)
	}
	m.FilteredIndices = filtered

	if m.SelectedIdx >= len(m.FilteredIndices) {
		m.SelectedIdx = max(len(m.FilteredIndices)-1, 0)
	}
}

// LoadPlanCmd builds the plan in the background.
func LoadPlanCmd(load func() (model.Plan, error)) tea.Cmd {
	return func() tea.Msg {
		if load == nil {
			return MsgPlanReady(model.Plan{})
		}
		pl, err := load()
		if err != nil {
			return MsgError(err)
		}
		return MsgPlanReady(pl)
	}
}
