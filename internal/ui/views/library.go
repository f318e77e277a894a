package views

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/pkg/models"
)

// Category filters the catalog cycles through with `c`. Empty means all.
var categoryCycle = []string{"", "action", "romance", "comedy", "drama", "fantasy"}

// LibraryView displays the manga catalog
type LibraryView struct {
	client *api.Client
	config *config.Config

	manga  []models.Manga
	cursor int
	offset int // for scrolling

	loading     bool
	err         error
	searchMode  bool
	searchInput textinput.Model

	categoryIdx int

	page     int
	pageSize int
	total    int

	width  int
	height int
}

// NewLibraryView creates a new catalog view
func NewLibraryView(client *api.Client, cfg *config.Config) *LibraryView {
	searchInput := textinput.New()
	searchInput.Placeholder = "Search manga..."
	searchInput.CharLimit = 100
	searchInput.Width = 40

	return &LibraryView{
		client:      client,
		config:      cfg,
		pageSize:    50,
		page:        1,
		searchInput: searchInput,
		width:       80,
		height:      24,
	}
}

// mangaLoadedMsg is sent when the catalog page is loaded
type mangaLoadedMsg struct {
	manga []models.Manga
	total int
	err   error
}

// Init implements View
func (v *LibraryView) Init() tea.Cmd {
	v.loading = true
	return v.loadManga()
}

// Update implements View
func (v *LibraryView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		// Handle search mode
		if v.searchMode {
			switch msg.String() {
			case "esc":
				v.searchMode = false
				v.searchInput.Blur()
				return v, nil
			case "enter":
				v.searchMode = false
				v.searchInput.Blur()
				v.page = 1
				return v, v.loadManga()
			default:
				var cmd tea.Cmd
				v.searchInput, cmd = v.searchInput.Update(msg)
				return v, cmd
			}
		}

		switch msg.String() {
		case "j", "down":
			v.moveCursor(1)
		case "k", "up":
			v.moveCursor(-1)
		case "g", "home":
			v.cursor = 0
			v.offset = 0
		case "G", "end":
			v.cursor = len(v.manga) - 1
			v.updateOffset()
		case "ctrl+d", "pgdown":
			v.moveCursor(v.visibleLines() / 2)
		case "ctrl+u", "pgup":
			v.moveCursor(-v.visibleLines() / 2)
		case "/":
			v.searchMode = true
			v.searchInput.Focus()
			return v, textinput.Blink
		case "c":
			// Cycle category filter
			v.categoryIdx = (v.categoryIdx + 1) % len(categoryCycle)
			v.page = 1
			v.cursor = 0
			v.offset = 0
			return v, v.loadManga()
		case "enter":
			if len(v.manga) > 0 && v.cursor < len(v.manga) {
				m := v.manga[v.cursor]
				return v, func() tea.Msg {
					return OpenMangaMsg{Manga: m}
				}
			}
		case "i":
			if len(v.manga) > 0 && v.cursor < len(v.manga) {
				m := v.manga[v.cursor]
				return v, func() tea.Msg {
					return ShowMangaDetailsMsg{Manga: m}
				}
			}
		case "n":
			if v.hasNextPage() {
				v.page++
				return v, v.loadManga()
			}
		case "p":
			if v.page > 1 {
				v.page--
				return v, v.loadManga()
			}
		case "r":
			return v, v.loadManga()
		case "R":
			// Recently read
			return v, SwitchTo(ViewRecent)
		case "T":
			newTheme := styles.NextTheme()
			if v.config != nil {
				_ = v.config.SetTheme(newTheme)
			}
			return v, NotifyThemeChanged(newTheme)
		}

	case mangaLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.manga = msg.manga
		v.total = msg.total
		v.err = nil
		if v.cursor >= len(v.manga) {
			v.cursor = max(0, len(v.manga)-1)
		}
		return v, nil
	}

	return v, nil
}

// View implements View
func (v *LibraryView) View() string {
	var b strings.Builder

	b.WriteString(v.renderHeader() + "\n")

	if v.searchMode {
		b.WriteString(styles.InputFieldFocused.Render(v.searchInput.View()) + "\n")
	}

	if v.loading {
		b.WriteString(v.placeCenter(styles.MutedText.Render("Loading catalog...")))
		return b.String()
	}

	if v.err != nil {
		b.WriteString(v.placeCenter(styles.ErrorStyle.Render("Error: " + v.err.Error())))
		return b.String()
	}

	if len(v.manga) == 0 {
		b.WriteString(v.placeCenter(styles.MutedText.Render("No manga found")))
		return b.String()
	}

	visibleLines := v.visibleLines()
	for i := v.offset; i < min(v.offset+visibleLines, len(v.manga)); i++ {
		b.WriteString(v.renderMangaLine(v.manga[i], i == v.cursor) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderFooter())
	return b.String()
}

// SetSize implements View
func (v *LibraryView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.searchInput.Width = min(40, width-10)
}

func (v *LibraryView) placeCenter(content string) string {
	return lipgloss.Place(v.width, v.height-4, lipgloss.Center, lipgloss.Center, content)
}

// renderHeader renders the header bar
func (v *LibraryView) renderHeader() string {
	titleText := " Catalog "
	if cat := categoryCycle[v.categoryIdx]; cat != "" {
		titleText = " Catalog: " + cat + " "
	}
	title := styles.TitleBar.Render(titleText)

	searchInfo := ""
	if v.searchInput.Value() != "" {
		searchInfo = styles.SecondaryText.Render(fmt.Sprintf(" [Search: %s]", v.searchInput.Value()))
	}

	totalPages := (v.total + v.pageSize - 1) / v.pageSize
	if totalPages < 1 {
		totalPages = 1
	}
	pageInfo := styles.Help.Render(fmt.Sprintf(" Page %d/%d ", v.page, totalPages))

	left := title + searchInfo
	gap := v.width - lipgloss.Width(left) - lipgloss.Width(pageInfo)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + pageInfo
}

// renderMangaLine renders a single catalog line
func (v *LibraryView) renderMangaLine(m models.Manga, selected bool) string {
	status := " "
	switch m.Status {
	case models.StatusOngoing:
		status = styles.BadgeOngoing.Render("O")
	case models.StatusCompleted:
		status = styles.BadgeCompleted.Render("C")
	case models.StatusHiatus:
		status = styles.MutedText.Render("H")
	}

	line := fmt.Sprintf("%s - %s (%d ch)", m.Title, m.Author, m.ChapterCount)
	maxWidth := v.width - 8
	if maxWidth > 0 {
		line = styles.TruncateText(line, maxWidth)
	}

	if selected {
		return styles.ListItemSelected.Width(v.width).Render("▸ " + status + " " + line)
	}
	return styles.ListItem.Render("  " + status + " " + line)
}

// renderFooter renders the footer help
func (v *LibraryView) renderFooter() string {
	help := []string{
		styles.HelpKey.Render("j/k") + styles.Help.Render(" nav"),
		styles.HelpKey.Render("enter") + styles.Help.Render(" chapters"),
		styles.HelpKey.Render("i") + styles.Help.Render(" info"),
		styles.HelpKey.Render("/") + styles.Help.Render(" search"),
		styles.HelpKey.Render("c") + styles.Help.Render(" category"),
		styles.HelpKey.Render("R") + styles.Help.Render(" recent"),
		styles.HelpKey.Render("q") + styles.Help.Render(" quit"),
	}

	themeName := styles.CurrentTheme().Name
	themeIndicator := styles.MutedText.Render(" [Theme: "+themeName+"] ") +
		styles.HelpKey.Render("T") + styles.Help.Render(" change")

	helpText := strings.Join(help, "  ")
	gap := v.width - lipgloss.Width(helpText) - lipgloss.Width(themeIndicator)
	if gap < 0 {
		gap = 0
	}
	return helpText + strings.Repeat(" ", gap) + themeIndicator
}

// loadManga fetches a catalog page from the API
func (v *LibraryView) loadManga() tea.Cmd {
	return func() tea.Msg {
		resp, err := v.client.ListManga(v.page, v.pageSize, categoryCycle[v.categoryIdx], v.searchInput.Value())
		if err != nil {
			return mangaLoadedMsg{err: err}
		}
		return mangaLoadedMsg{manga: resp.Manga, total: resp.Total}
	}
}

// moveCursor moves the cursor by delta
func (v *LibraryView) moveCursor(delta int) {
	v.cursor += delta
	if v.cursor >= len(v.manga) {
		v.cursor = len(v.manga) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	v.updateOffset()
}

// updateOffset ensures the cursor is visible
func (v *LibraryView) updateOffset() {
	visibleLines := v.visibleLines()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visibleLines {
		v.offset = v.cursor - visibleLines + 1
	}
}

// visibleLines returns the number of visible catalog lines
func (v *LibraryView) visibleLines() int {
	lines := v.height - 5
	if v.searchMode {
		lines--
	}
	if lines < 1 {
		lines = 1
	}
	return lines
}

// hasNextPage returns true if there are more pages
func (v *LibraryView) hasNextPage() bool {
	return v.page*v.pageSize < v.total
}

// Helper functions
func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
