package views

import (
	"fmt"
	"image"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/config"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/internal/ui/terminal"
	"github.com/hayasui/manga-t/internal/viewer"
	"github.com/hayasui/manga-t/internal/viewer/stage"
	"github.com/hayasui/manga-t/pkg/models"
)

// markReadDelay is how long a chapter must stay open before it counts
// as read. Opening the wrong chapter and backing out immediately
// should not touch reading history.
const markReadDelay = 2 * time.Second

// ReaderView hosts the page viewer for one chapter and handles chapter
// boundary navigation within the series.
type ReaderView struct {
	client *api.Client
	config *config.Config

	manga    models.Manga
	chapters []models.Chapter
	index    int

	chapter *models.Chapter
	vw      *viewer.Model

	geom     stage.Geometry
	termMode terminal.TermImageMode

	loading    bool
	err        error
	markSeq    int
	markedRead bool

	width  int
	height int
}

// NewReaderView creates a new reader view
func NewReaderView(client *api.Client, cfg *config.Config, geom stage.Geometry, termMode terminal.TermImageMode) *ReaderView {
	return &ReaderView{
		client:   client,
		config:   cfg,
		geom:     geom,
		termMode: termMode,
		width:    80,
		height:   24,
	}
}

// SetChapter points the reader at one chapter of a series. The full
// chapter list rides along so boundary navigation needs no refetch.
func (v *ReaderView) SetChapter(manga models.Manga, chapters []models.Chapter, index int) {
	v.Teardown()
	v.manga = manga
	v.chapters = chapters
	v.index = index
	v.chapter = nil
	v.err = nil
	v.markedRead = false
}

// Teardown unmounts the viewer and persists any reading preferences
// the user changed while reading. The app shell calls this before
// switching away.
func (v *ReaderView) Teardown() {
	if v.vw == nil {
		return
	}
	if v.vw.Mode() != v.config.Mode {
		_ = v.config.SetMode(v.vw.Mode())
	}
	if v.vw.Scale() != v.config.Scale {
		_ = v.config.SetScale(v.vw.Scale())
	}
	v.vw.Unmount()
	v.vw = nil
}

// TermMode exposes the detected image protocol for cleanup sequences.
func (v *ReaderView) TermMode() terminal.TermImageMode {
	return v.termMode
}

// chapterContentMsg carries the full chapter record, including page
// content the list endpoint omits.
type chapterContentMsg struct {
	chapter *models.Chapter
	seq     int
	err     error
}

// markReadMsg fires after the mark-read delay.
type markReadMsg struct {
	seq int
}

// Init implements View
func (v *ReaderView) Init() tea.Cmd {
	if v.index < 0 || v.index >= len(v.chapters) {
		v.err = fmt.Errorf("no such chapter")
		return nil
	}
	v.loading = true
	v.err = nil
	v.markSeq++
	seq := v.markSeq
	id := v.chapters[v.index].ID
	return func() tea.Msg {
		ch, err := v.client.GetChapterByID(id)
		return chapterContentMsg{chapter: ch, seq: seq, err: err}
	}
}

// Update implements View
func (v *ReaderView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case chapterContentMsg:
		if msg.seq != v.markSeq {
			return v, nil
		}
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		return v, v.mountViewer(msg.chapter)

	case markReadMsg:
		if msg.seq != v.markSeq || v.markedRead || v.chapter == nil {
			return v, nil
		}
		v.markedRead = true
		id := v.chapter.ID
		client := v.client
		return v, func() tea.Msg {
			// Best effort; reading continues regardless.
			_ = client.MarkChapterAsRead(id)
			return nil
		}

	case viewer.NextChapterRequestedMsg:
		return v.openAdjacent(v.index + 1)

	case viewer.PrevChapterRequestedMsg:
		return v.openAdjacent(v.index - 1)

	case viewer.PageChangedMsg:
		// Committed transitions, including reaching the chapter's end;
		// position is session-local, nothing to persist.
		return v, nil

	case tea.WindowSizeMsg:
		v.width = msg.Width
		v.height = msg.Height
		if v.vw != nil {
			var cmd tea.Cmd
			cmd = v.vw.SetSize(msg.Width, msg.Height)
			return v, cmd
		}
		return v, nil
	}

	if v.vw != nil {
		var cmd tea.Cmd
		v.vw, cmd = v.vw.Update(msg)
		return v, cmd
	}
	return v, nil
}

// mountViewer builds a fresh viewer for the fetched chapter.
func (v *ReaderView) mountViewer(ch *models.Chapter) tea.Cmd {
	v.chapter = ch

	var urls []string
	for _, img := range ch.Images {
		urls = append(urls, img.URL)
	}

	title := ch.Title
	if title == "" {
		title = fmt.Sprintf("%s — Chapter %d", v.manga.Title, ch.Number)
	}

	watermark := v.config.Watermark
	if watermark == "" {
		watermark = v.config.Username
	}

	var encoder viewer.Encoder
	if v.termMode != terminal.TermModeNone {
		mode := v.termMode
		encoder = func(img image.Image) (string, error) {
			return terminal.RenderImageToString(img, mode, terminal.PageImageID)
		}
	}

	v.vw = viewer.New(v.client, v.geom, encoder, viewer.Options{
		Title:          title,
		DocumentURL:    ch.DocumentURL,
		Images:         urls,
		Watermark:      watermark,
		Mode:           v.config.Mode,
		Scale:          v.config.Scale,
		Brightness:     v.config.Brightness,
		ContainerWidth: v.config.ContainerWidth,
		ShowNavigation: true,
		RenderAllPages: v.config.RenderAll,
	})
	_ = v.vw.SetSize(v.width, v.height)

	_ = v.config.AddRecentlyRead(v.manga.Slug, ch.ID, title)

	seq := v.markSeq
	markCmd := tea.Tick(markReadDelay, func(time.Time) tea.Msg {
		return markReadMsg{seq: seq}
	})
	return tea.Batch(v.vw.Init(), markCmd)
}

// openAdjacent moves to a neighboring chapter. A locked neighbor sends
// the user back to the chapter list to unlock it; walking off either
// end of the series does the same.
func (v *ReaderView) openAdjacent(index int) (View, tea.Cmd) {
	if index < 0 || index >= len(v.chapters) {
		return v, SwitchTo(ViewChapters)
	}
	ch := v.chapters[index]
	if !ch.Readable(index) || !ch.HasContent() {
		return v, SwitchTo(ViewChapters)
	}
	v.SetChapter(v.manga, v.chapters, index)
	return v, v.Init()
}

// View implements View
func (v *ReaderView) View() string {
	if v.loading {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Opening chapter..."))
	}
	if v.err != nil {
		return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center,
			styles.ErrorStyle.Render("Error: "+v.err.Error()))
	}
	if v.vw == nil {
		return ""
	}
	return v.vw.View()
}

// SetSize implements View
func (v *ReaderView) SetSize(width, height int) {
	v.width = width
	v.height = height
	if v.vw != nil {
		_ = v.vw.SetSize(width, height)
	}
}
