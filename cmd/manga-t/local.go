package main

import (
	"image"

	"github.com/hayasui/manga-t/internal/ui/terminal"
	"github.com/hayasui/manga-t/internal/viewer"
	"github.com/hayasui/manga-t/internal/viewer/stage"

	tea "github.com/charmbracelet/bubbletea"
)

// localReader is the program model for viewer-only mode: one viewer,
// no server, no other views.
type localReader struct {
	vw *viewer.Model
}

func newLocalReader(geom stage.Geometry, termMode terminal.TermImageMode, opts viewer.Options) *localReader {
	var encoder viewer.Encoder
	if termMode != terminal.TermModeNone {
		encoder = func(img image.Image) (string, error) {
			return terminal.RenderImageToString(img, termMode, terminal.PageImageID)
		}
	}
	return &localReader{
		vw: viewer.New(nil, geom, encoder, opts),
	}
}

func (m *localReader) Init() tea.Cmd {
	return m.vw.Init()
}

func (m *localReader) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.vw.Unmount()
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		return m, m.vw.SetSize(msg.Width, msg.Height)
	case viewer.NextChapterRequestedMsg, viewer.PrevChapterRequestedMsg:
		// No adjacent chapters in local mode.
		return m, nil
	}

	var cmd tea.Cmd
	m.vw, cmd = m.vw.Update(msg)
	return m, cmd
}

func (m *localReader) View() string {
	return m.vw.View()
}
