package protect

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
)

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "ctrl+s":
		return tea.KeyMsg{Type: tea.KeyCtrlS}
	case "ctrl+p":
		return tea.KeyMsg{Type: tea.KeyCtrlP}
	case "q":
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func TestSuppressKeyOnlyWhileInstalled(t *testing.T) {
	g := New()
	assert.False(t, g.SuppressKey(keyMsg("ctrl+s")))

	g.Install()
	assert.True(t, g.SuppressKey(keyMsg("ctrl+s")))
	assert.True(t, g.SuppressKey(keyMsg("ctrl+p")))
	assert.False(t, g.SuppressKey(keyMsg("q")), "navigation keys pass through")

	g.Uninstall()
	assert.False(t, g.SuppressKey(keyMsg("ctrl+s")))
}

func TestObscureOnBlur(t *testing.T) {
	g := New()
	g.Install()

	g.HandleFocus(tea.BlurMsg{})
	assert.True(t, g.Obscured())

	g.HandleFocus(tea.FocusMsg{})
	assert.False(t, g.Obscured())
}

func TestUninstallClearsObscured(t *testing.T) {
	g := New()
	g.Install()
	g.HandleFocus(tea.BlurMsg{})

	g.Uninstall()
	assert.False(t, g.Obscured())
	assert.False(t, g.Installed())
}

func TestFocusIgnoredWhenUninstalled(t *testing.T) {
	g := New()
	g.HandleFocus(tea.BlurMsg{})
	assert.False(t, g.Obscured())
}
