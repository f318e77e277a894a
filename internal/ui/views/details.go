package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/pkg/models"
)

// MangaDetailsView displays detailed series information
type MangaDetailsView struct {
	client *api.Client
	config *config.Config

	manga *models.Manga

	// Chapter list, loaded async for the free/paid breakdown
	chapters []models.Chapter
	chErr    error

	width  int
	height int
}

// NewMangaDetailsView creates a new series details view
func NewMangaDetailsView(client *api.Client, cfg *config.Config) *MangaDetailsView {
	return &MangaDetailsView{
		client: client,
		config: cfg,
		width:  80,
		height: 24,
	}
}

// SetManga sets the series to display
func (v *MangaDetailsView) SetManga(m models.Manga) {
	v.manga = &m
	v.chapters = nil
	v.chErr = nil
}

// detailsChaptersLoadedMsg is sent when the chapter list arrives
type detailsChaptersLoadedMsg struct {
	chapters []models.Chapter
	err      error
}

// Init implements View
func (v *MangaDetailsView) Init() tea.Cmd {
	if v.manga == nil {
		return nil
	}
	slug := v.manga.Slug
	return func() tea.Msg {
		resp, err := v.client.GetChaptersForManga(slug)
		if err != nil {
			return detailsChaptersLoadedMsg{err: err}
		}
		return detailsChaptersLoadedMsg{chapters: resp.Chapters}
	}
}

// Update implements View
func (v *MangaDetailsView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q", "i":
			return v, SwitchTo(ViewLibrary)
		case "enter":
			if v.manga != nil {
				m := *v.manga
				return v, func() tea.Msg {
					return OpenMangaMsg{Manga: m}
				}
			}
		}

	case detailsChaptersLoadedMsg:
		if msg.err == nil {
			v.chapters = msg.chapters
		}
		v.chErr = msg.err
	}

	return v, nil
}

// View implements View
func (v *MangaDetailsView) View() string {
	if v.manga == nil {
		return ""
	}
	m := v.manga

	var b strings.Builder
	b.WriteString(styles.DialogTitle.Render(styles.TruncateText(m.Title, 50)) + "\n")
	b.WriteString(styles.SeriesAuthor.Render("by "+m.Author) + "\n\n")

	status := m.Status
	if status == "" {
		status = "unknown"
	}
	b.WriteString(styles.InputLabel.Render("Status: ") + status + "\n")
	if len(m.Categories) > 0 {
		b.WriteString(styles.InputLabel.Render("Categories: ") + strings.Join(m.Categories, ", ") + "\n")
	}
	b.WriteString(styles.InputLabel.Render("Chapters: ") + fmt.Sprintf("%d", m.ChapterCount) + "\n")

	if v.chapters != nil {
		free, locked := 0, 0
		for i := range v.chapters {
			if v.chapters[i].Readable(i) {
				free++
			} else {
				locked++
			}
		}
		b.WriteString(styles.InputLabel.Render("Readable now: ") +
			fmt.Sprintf("%d  ", free) +
			styles.MutedText.Render(fmt.Sprintf("(%d locked)", locked)) + "\n")
	} else if v.chErr != nil {
		b.WriteString(styles.MutedText.Render("Chapter list unavailable") + "\n")
	}

	if m.Description != "" {
		b.WriteString("\n" + styles.MutedText.Render(wordwrap.String(m.Description, 56)) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(styles.HelpKey.Render("enter") + styles.Help.Render(" chapters  ") +
		styles.HelpKey.Render("esc") + styles.Help.Render(" back"))

	dialog := styles.Dialog.Width(60).Render(b.String())
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, dialog)
}

// SetSize implements View
func (v *MangaDetailsView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

