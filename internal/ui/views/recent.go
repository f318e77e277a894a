package views

import (
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
)

// RecentView lists recently read chapters from local history
type RecentView struct {
	client *api.Client
	config *config.Config

	cursor int

	loading bool
	err     error

	width  int
	height int
}

// NewRecentView creates the recently-read view
func NewRecentView(client *api.Client, cfg *config.Config) *RecentView {
	return &RecentView{
		client: client,
		config: cfg,
		width:  80,
		height: 24,
	}
}

// recentMangaResolvedMsg carries the series record for a history entry
type recentMangaResolvedMsg struct {
	msg OpenMangaMsg
	err error
}

// Init implements View
func (v *RecentView) Init() tea.Cmd {
	v.cursor = 0
	v.err = nil
	return nil
}

// Update implements View
func (v *RecentView) Update(msg tea.Msg) (View, tea.Cmd) {
	entries := v.config.RecentlyRead

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "j", "down":
			if v.cursor < len(entries)-1 {
				v.cursor++
			}
		case "k", "up":
			if v.cursor > 0 {
				v.cursor--
			}
		case "enter":
			if v.cursor < len(entries) && !v.loading {
				v.loading = true
				slug := entries[v.cursor].MangaSlug
				return v, v.resolveManga(slug)
			}
		}

	case recentMangaResolvedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		return v, func() tea.Msg { return msg.msg }
	}

	return v, nil
}

// resolveManga fetches the series for a history entry; history only
// stores the slug.
func (v *RecentView) resolveManga(slug string) tea.Cmd {
	return func() tea.Msg {
		m, err := v.client.GetManga(slug)
		if err != nil {
			return recentMangaResolvedMsg{err: err}
		}
		return recentMangaResolvedMsg{msg: OpenMangaMsg{Manga: *m}}
	}
}

// View implements View
func (v *RecentView) View() string {
	entries := v.config.RecentlyRead

	var b strings.Builder
	b.WriteString(styles.TitleBar.Render(" Recently Read ") + "\n\n")

	if len(entries) == 0 {
		b.WriteString(lipgloss.Place(v.width, v.height-4, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Nothing read yet")))
		return b.String()
	}

	if v.err != nil {
		b.WriteString(styles.ErrorStyle.Render("Error: "+v.err.Error()) + "\n")
	}

	for i, e := range entries {
		line := fmt.Sprintf("%s  %s", styles.TruncateText(e.Title, v.width-20), relativeTime(e.OpenedAt))
		if i == v.cursor {
			b.WriteString(styles.ListItemSelected.Width(v.width).Render("▸ "+line) + "\n")
		} else {
			b.WriteString(styles.ListItem.Render("  "+line) + "\n")
		}
	}

	b.WriteString("\n")
	help := []string{
		styles.HelpKey.Render("j/k") + styles.Help.Render(" nav"),
		styles.HelpKey.Render("enter") + styles.Help.Render(" open series"),
		styles.HelpKey.Render("esc") + styles.Help.Render(" back"),
	}
	b.WriteString(styles.FooterBar.Width(v.width).Render(strings.Join(help, "  ")))
	return b.String()
}

// SetSize implements View
func (v *RecentView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// relativeTime renders a short "how long ago" label
func relativeTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	d := time.Since(t)
	switch {
	case d < time.Minute:
		return "just now"
	case d < time.Hour:
		return fmt.Sprintf("%dm ago", int(d.Minutes()))
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(d.Hours()))
	default:
		return fmt.Sprintf("%dd ago", int(d.Hours()/24))
	}
}
