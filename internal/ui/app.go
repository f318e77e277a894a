package ui

import (
	"os"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/internal/ui/terminal"
	"github.com/hayasui/manga-t/internal/ui/views"
	"github.com/hayasui/manga-t/internal/viewer/stage"
	"github.com/hayasui/manga-t/pkg/models"
)

// App is the main application model
type App struct {
	config *config.Config
	client *api.Client
	keys   KeyMap

	currentView views.ViewType
	prevView    views.ViewType

	width  int
	height int

	user *models.User

	loginView    views.View
	libraryView  views.View
	detailsView  views.View
	chaptersView views.View
	readerView   views.View
	recentView   views.View

	termMode terminal.TermImageMode

	err       error
	statusMsg string
	showHelp  bool
}

// NewApp creates a new application instance. Terminal geometry and the
// image protocol are detected once by the caller and threaded through.
func NewApp(cfg *config.Config, geom stage.Geometry, termMode terminal.TermImageMode) *App {
	client := api.NewClient(cfg.ServerURL, cfg.Token)

	app := &App{
		config:      cfg,
		client:      client,
		keys:        DefaultKeyMap(),
		currentView: views.ViewLogin,
		termMode:    termMode,
		width:       80,
		height:      24,
	}

	app.loginView = views.NewLoginView(client, cfg)
	app.libraryView = views.NewLibraryView(client, cfg)
	app.detailsView = views.NewMangaDetailsView(client, cfg)
	app.chaptersView = views.NewChaptersView(client)
	app.readerView = views.NewReaderView(client, cfg, geom, termMode)
	app.recentView = views.NewRecentView(client, cfg)

	if cfg.IsAuthenticated() {
		app.currentView = views.ViewLibrary
	}

	return app
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.getCurrentView().Init(),
		tea.SetWindowTitle("manga-t"),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.loginView.SetSize(msg.Width, msg.Height)
		a.libraryView.SetSize(msg.Width, msg.Height)
		a.detailsView.SetSize(msg.Width, msg.Height)
		a.chaptersView.SetSize(msg.Width, msg.Height)
		a.recentView.SetSize(msg.Width, msg.Height)
		// The reader debounces resize re-renders, so it sees the raw
		// message instead of a plain SetSize.
		var cmd tea.Cmd
		a.readerView, cmd = a.readerView.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, a.keys.Quit):
			if a.currentView == views.ViewReader {
				return a.switchView(views.ViewChapters)
			}
			return a, tea.Quit

		case key.Matches(msg, a.keys.Help):
			a.showHelp = !a.showHelp
			return a, nil

		case key.Matches(msg, a.keys.Escape):
			if a.showHelp {
				a.showHelp = false
				return a, nil
			}
			switch a.currentView {
			case views.ViewChapters, views.ViewDetails, views.ViewRecent:
				return a.switchView(views.ViewLibrary)
			}
			// The reader keeps Esc for its own chrome toggle; use q to
			// leave it.
		}

	case views.LoginSuccessMsg:
		a.user = &msg.User
		a.config.Username = msg.User.Username
		return a.switchView(views.ViewLibrary)

	case views.LogoutMsg:
		a.user = nil
		_ = a.config.ClearToken()
		return a.switchView(views.ViewLogin)

	case views.OpenMangaMsg:
		a.chaptersView.(*views.ChaptersView).SetManga(msg.Manga)
		return a.switchView(views.ViewChapters)

	case views.ShowMangaDetailsMsg:
		a.detailsView.(*views.MangaDetailsView).SetManga(msg.Manga)
		return a.switchView(views.ViewDetails)

	case views.OpenChapterMsg:
		a.readerView.(*views.ReaderView).SetChapter(msg.Manga, msg.Chapters, msg.Index)
		return a.switchView(views.ViewReader)

	case views.BalanceChangedMsg:
		if a.user != nil {
			a.user.Balance = msg.Balance
		}
		return a, nil

	case views.ErrorMsg:
		a.err = msg.Err
		return a, nil

	case views.ClearErrorMsg:
		a.err = nil
		return a, nil

	case views.ThemeChangedMsg:
		return a, nil

	case views.SwitchViewMsg:
		return a.switchView(msg.View)
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.currentView {
	case views.ViewLogin:
		a.loginView, cmd = a.loginView.Update(msg)
	case views.ViewLibrary:
		a.libraryView, cmd = a.libraryView.Update(msg)
	case views.ViewDetails:
		a.detailsView, cmd = a.detailsView.Update(msg)
	case views.ViewChapters:
		a.chaptersView, cmd = a.chaptersView.Update(msg)
	case views.ViewReader:
		a.readerView, cmd = a.readerView.Update(msg)
	case views.ViewRecent:
		a.recentView, cmd = a.recentView.Update(msg)
	}
	cmds = append(cmds, cmd)

	return a, tea.Batch(cmds...)
}

// View implements tea.Model
func (a *App) View() string {
	var content string
	switch a.currentView {
	case views.ViewLogin:
		content = a.loginView.View()
	case views.ViewLibrary:
		content = a.libraryView.View()
	case views.ViewDetails:
		content = a.detailsView.View()
	case views.ViewChapters:
		content = a.chaptersView.View()
	case views.ViewReader:
		content = a.readerView.View()
	case views.ViewRecent:
		content = a.recentView.View()
	default:
		content = "Unknown view"
	}

	if a.err != nil {
		errorBar := styles.ErrorStyle.Render("Error: " + a.err.Error())
		content = lipgloss.JoinVertical(lipgloss.Left, content, errorBar)
	}

	if a.showHelp {
		content = a.renderHelp()
	}

	return content
}

// switchView changes the current view and initializes it
func (a *App) switchView(view views.ViewType) (*App, tea.Cmd) {
	// Leaving the reader tears the viewer down and clears any page
	// images still on screen.
	if a.currentView == views.ViewReader && view != views.ViewReader {
		a.readerView.(*views.ReaderView).Teardown()
		if seq := terminal.ClearImages(a.termMode); seq != "" {
			os.Stdout.WriteString(seq)
		}
	}

	a.prevView = a.currentView
	a.currentView = view
	a.err = nil

	return a, a.getCurrentView().Init()
}

// getCurrentView returns the current view model
func (a *App) getCurrentView() views.View {
	switch a.currentView {
	case views.ViewLogin:
		return a.loginView
	case views.ViewLibrary:
		return a.libraryView
	case views.ViewDetails:
		return a.detailsView
	case views.ViewChapters:
		return a.chaptersView
	case views.ViewReader:
		return a.readerView
	case views.ViewRecent:
		return a.recentView
	default:
		return a.loginView
	}
}

// renderHelp renders the help overlay
func (a *App) renderHelp() string {
	help := styles.Dialog.Width(60).Render(
		styles.DialogTitle.Render("Keyboard Shortcuts") + "\n\n" +
			styles.HelpKey.Render("Catalog") + "\n" +
			"  j/↓     Move down\n" +
			"  k/↑     Move up\n" +
			"  /       Search\n" +
			"  c       Category filter\n" +
			"  i       Series details\n" +
			"  R       Recently read\n" +
			"  Enter   Open series\n\n" +
			styles.HelpKey.Render("Chapters") + "\n" +
			"  Enter   Read / unlock chapter\n" +
			"  r       Refresh\n\n" +
			styles.HelpKey.Render("Reader") + "\n" +
			"  j/k     Scroll (vertical mode) / turn page\n" +
			"  h/l     Previous/next page\n" +
			"  g/G     First/last page\n" +
			"  +/-     Zoom\n" +
			"  [/]     Brightness\n" +
			"  m       Reading mode\n" +
			"  Esc     Toggle header\n\n" +
			styles.HelpKey.Render("General") + "\n" +
			"  q       Quit/Back\n" +
			"  ?       Toggle help\n",
	)

	return lipgloss.Place(
		a.width,
		a.height,
		lipgloss.Center,
		lipgloss.Center,
		help,
	)
}
