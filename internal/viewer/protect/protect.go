// Package protect implements the capture-deterrence layer for the
// page viewer. Everything here is reversible and best-effort: the
// goal is to stop casual page dumps, not to defeat a determined user
// pointing a camera at the screen.
package protect

import (
	tea "github.com/charmbracelet/bubbletea"
)

// Guard suppresses save/print style key chords while mounted and
// blanks the frame when the terminal loses focus. Unmounting restores
// normal behaviour completely.
type Guard struct {
	installed bool
	obscured  bool
}

// New returns an uninstalled guard.
func New() *Guard {
	return &Guard{}
}

// Install arms the guard. Idempotent.
func (g *Guard) Install() {
	g.installed = true
}

// Uninstall disarms the guard and clears any obscured state, so
// nothing of the deterrence survives the viewer.
func (g *Guard) Uninstall() {
	g.installed = false
	g.obscured = false
}

// Installed reports whether the guard is armed.
func (g *Guard) Installed() bool {
	return g.installed
}

// SuppressKey reports whether the key chord should be swallowed
// before it reaches the rest of the program. Only chords associated
// with saving or printing the screen are blocked; navigation and quit
// keys always pass through.
func (g *Guard) SuppressKey(msg tea.KeyMsg) bool {
	if !g.installed {
		return false
	}
	switch msg.String() {
	case "ctrl+s", "ctrl+p", "ctrl+shift+s", "ctrl+shift+p":
		return true
	}
	return false
}

// HandleFocus feeds terminal focus transitions. While unfocused the
// frame is obscured so a backgrounded terminal holds no page content.
func (g *Guard) HandleFocus(msg tea.Msg) {
	if !g.installed {
		return
	}
	switch msg.(type) {
	case tea.BlurMsg:
		g.obscured = true
	case tea.FocusMsg:
		g.obscured = false
	}
}

// Obscured reports whether page content must be replaced with a blank
// frame this render.
func (g *Guard) Obscured() bool {
	return g.installed && g.obscured
}
