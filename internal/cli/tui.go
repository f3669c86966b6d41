package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hydrokit/negflo/pkg/negflo"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// ModeListModel - Interactive mode selection
// =============================================================================

// ModeListModel is the bubbletea model for picking smoothing modes.
// Space toggles a mode, enter confirms. Confirming with nothing toggled
// selects the mode under the cursor.
type ModeListModel struct {
	Modes     []negflo.Mode
	Cursor    int
	Checked   map[negflo.Mode]bool
	Selected  []negflo.Mode
	Cancelled bool
}

// NewModeListModel creates a mode list with the given modes pre-checked.
func NewModeListModel(modes []negflo.Mode, checked ...negflo.Mode) ModeListModel {
	m := ModeListModel{
		Modes:   modes,
		Checked: make(map[negflo.Mode]bool, len(checked)),
	}
	for _, c := range checked {
		m.Checked[c] = true
	}
	return m
}

func (m ModeListModel) Init() tea.Cmd {
	return nil
}

func (m ModeListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		m.Cancelled = true
		return m, tea.Quit
	case "up", "k":
		if m.Cursor > 0 {
			m.Cursor--
		}
	case "down", "j":
		if m.Cursor < len(m.Modes)-1 {
			m.Cursor++
		}
	case " ", "x":
		mode := m.Modes[m.Cursor]
		if !implemented(mode) {
			return m, nil
		}
		m.Checked[mode] = !m.Checked[mode]
	case "enter":
		m.Selected = nil
		for _, mode := range m.Modes {
			if m.Checked[mode] {
				m.Selected = append(m.Selected, mode)
			}
		}
		if len(m.Selected) == 0 {
			mode := m.Modes[m.Cursor]
			if !implemented(mode) {
				return m, nil
			}
			m.Selected = []negflo.Mode{mode}
		}
		return m, tea.Quit
	}
	return m, nil
}

func (m ModeListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Smoothing Modes"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  space toggle  ⏎ confirm  q quit"))
	b.WriteString("\n\n")

	for i, mode := range m.Modes {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		box := "[ ]"
		if m.Checked[mode] {
			box = "[x]"
		}
		line := fmt.Sprintf("%s%s %-4s %s", cursor, box, mode, listDimStyle.Render(mode.Description()))

		switch {
		case !implemented(mode):
			b.WriteString(listDimStyle.Render(line))
		case i == m.Cursor:
			b.WriteString(listSelectedStyle.Render(line))
		default:
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func implemented(mode negflo.Mode) bool {
	return mode != negflo.ModeSegmented
}

// pickModes runs the interactive mode picker. It returns nil when the user
// quits without confirming.
func pickModes(initial []negflo.Mode) ([]negflo.Mode, error) {
	model := NewModeListModel(negflo.AllModes(), initial...)
	final, err := tea.NewProgram(model).Run()
	if err != nil {
		return nil, fmt.Errorf("mode picker: %w", err)
	}
	result := final.(ModeListModel)
	if result.Cancelled {
		return nil, nil
	}
	return result.Selected, nil
}
