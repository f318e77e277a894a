package views

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/hayasui/manga-t/pkg/models"
)

// ViewType identifies the active screen
type ViewType int

const (
	ViewLogin ViewType = iota
	ViewLibrary
	ViewDetails
	ViewChapters
	ViewReader
	ViewRecent
)

// View is the interface all screens implement
type View interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (View, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Cross-view messages

// LoginSuccessMsg is sent after a successful login
type LoginSuccessMsg struct {
	User  models.User
	Token string
}

// LogoutMsg is sent when the user logs out
type LogoutMsg struct{}

// OpenMangaMsg opens a series' chapter list
type OpenMangaMsg struct {
	Manga models.Manga
}

// ShowMangaDetailsMsg opens the series detail screen
type ShowMangaDetailsMsg struct {
	Manga models.Manga
}

// OpenChapterMsg opens the reader on one chapter of a series. Chapters
// carries the full ordered list so the reader can walk to adjacent
// chapters without another fetch.
type OpenChapterMsg struct {
	Manga    models.Manga
	Chapters []models.Chapter
	Index    int
}

// BalanceChangedMsg announces the user's coin balance after a purchase
type BalanceChangedMsg struct {
	Balance int
}

// ErrorMsg reports an error to the app shell
type ErrorMsg struct {
	Err error
}

// ClearErrorMsg clears the error bar
type ClearErrorMsg struct{}

// SwitchViewMsg requests a view change
type SwitchViewMsg struct {
	View ViewType
}

// ThemeChangedMsg announces a theme switch
type ThemeChangedMsg struct {
	Name string
}

// SwitchTo returns a command that switches to the given view
func SwitchTo(view ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: view}
	}
}

// NotifyThemeChanged returns a command announcing a theme switch
func NotifyThemeChanged(name string) tea.Cmd {
	return func() tea.Msg {
		return ThemeChangedMsg{Name: name}
	}
}
