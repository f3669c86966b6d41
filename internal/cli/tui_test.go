package cli

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hydrokit/negflo/pkg/negflo"
)

func press(m ModeListModel, keys ...string) ModeListModel {
	for _, k := range keys {
		var msg tea.KeyMsg
		switch k {
		case "up":
			msg = tea.KeyMsg{Type: tea.KeyUp}
		case "down":
			msg = tea.KeyMsg{Type: tea.KeyDown}
		case "enter":
			msg = tea.KeyMsg{Type: tea.KeyEnter}
		case "space":
			msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
		case "esc":
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		default:
			msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(k)}
		}
		next, _ := m.Update(msg)
		m = next.(ModeListModel)
	}
	return m
}

func TestModeListEnterSelectsCursor(t *testing.T) {
	m := NewModeListModel(negflo.AllModes())
	m = press(m, "down", "down", "down", "enter")

	if len(m.Selected) != 1 || m.Selected[0] != negflo.ModeForward {
		t.Errorf("Selected = %v, want [sm2]", m.Selected)
	}
}

func TestModeListToggle(t *testing.T) {
	m := NewModeListModel(negflo.AllModes(), negflo.ModeClip)
	m = press(m, "down", "down", "j", "x", "enter")

	want := []negflo.Mode{negflo.ModeClip, negflo.ModeForward}
	if len(m.Selected) != 2 || m.Selected[0] != want[0] || m.Selected[1] != want[1] {
		t.Errorf("Selected = %v, want %v", m.Selected, want)
	}
}

func TestModeListSkipsSegmented(t *testing.T) {
	modes := []negflo.Mode{negflo.ModeSegmented}
	m := press(NewModeListModel(modes), "x", "enter")
	if m.Checked[negflo.ModeSegmented] || m.Selected != nil {
		t.Errorf("sm6 should not be selectable: checked=%v selected=%v", m.Checked, m.Selected)
	}
	if !strings.Contains(m.View(), "sm6") {
		t.Error("sm6 should still be listed")
	}
}

func TestModeListCancel(t *testing.T) {
	m := press(NewModeListModel(negflo.AllModes()), "esc")
	if !m.Cancelled {
		t.Error("esc should cancel")
	}
}
