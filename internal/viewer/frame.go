package viewer

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/internal/viewer/sched"
	"github.com/hayasui/manga-t/internal/viewer/stage"
	"github.com/hayasui/manga-t/internal/viewer/track"
)

// chromeRows is the rows reserved for the header and footer. They stay
// reserved while the chrome is hidden so the content viewport does not
// jump when it reappears.
const chromeRows = 2

// View implements the component view.
func (m *Model) View() string {
	var b strings.Builder

	contentRows := m.height - chromeRows
	if contentRows < 1 {
		contentRows = 1
	}

	b.WriteString(m.renderHeader() + "\n")

	switch {
	case m.state == StateLoading:
		b.WriteString(m.placeCenter(contentRows, m.renderProgress()))
	case m.state == StateNotFound, m.state == StateError:
		b.WriteString(m.placeCenter(contentRows, m.renderLoadError()))
	case m.guard.Obscured():
		b.WriteString(m.placeCenter(contentRows, styles.MutedText.Render("Reading paused")))
	case m.encoder == nil:
		b.WriteString(m.placeCenter(contentRows,
			styles.MutedText.Render("Terminal does not support images.\n\nSupported terminals: Kitty, iTerm2, or Sixel-capable terminals.")))
	default:
		b.WriteString(m.renderFrame())
	}

	b.WriteString("\n")
	b.WriteString(m.renderFooter())
	return b.String()
}

// renderFrame composites the visible slice of the page column and
// encodes it for the terminal, caching the escape string until
// something invalidates it.
func (m *Model) renderFrame() string {
	if !m.frameDirty && m.frame != "" {
		return m.frame
	}

	var entries []stage.Placed
	if m.strategy == sched.SinglePage {
		surf := m.stage.SurfaceFor(m.currentPage)
		if surf == nil {
			msg := fmt.Sprintf("Rendering page %d...", m.currentPage)
			if m.pageErr != "" {
				msg = "Page failed: " + m.pageErr
			}
			return m.placeCenter(m.height-chromeRows, styles.MutedText.Render(msg))
		}
		entries = []stage.Placed{{Surface: surf, Top: 0, Height: surf.DisplayHeight}}
	} else {
		for _, e := range m.layout.Extents() {
			entries = append(entries, stage.Placed{
				Surface: m.stage.SurfaceFor(e.Page),
				Top:     e.Top,
				Height:  e.Height,
			})
		}
	}

	scrollTop := m.scrollTop
	if m.strategy == sched.SinglePage {
		scrollTop = 0
	}
	frame := stage.Composite(entries, scrollTop, m.viewportPxWidth(), m.viewportPxHeight(), m.brightness)

	out, err := m.encoder(frame)
	if err != nil {
		return m.placeCenter(m.height-chromeRows, styles.ErrorStyle.Render("Render error: "+err.Error()))
	}
	m.frame = out
	m.frameDirty = false
	return out
}

// renderHeader draws the title bar: chapter title left, reading
// position right. Hidden chrome leaves the row blank.
func (m *Model) renderHeader() string {
	if !m.chrome.Visible(m.clock()) {
		return ""
	}

	maxTitle := 40
	if m.width > 0 && m.width/2 < maxTitle {
		maxTitle = m.width / 2
	}
	left := styles.SeriesTitle.Render(styles.TruncateText(m.opts.Title, maxTitle))

	right := ""
	if m.pageCount > 0 {
		pos := fmt.Sprintf("%d/%d", m.currentPage, m.pageCount)
		if m.strategy != sched.SinglePage && m.layout != nil {
			pct := m.progressPercent()
			pos += fmt.Sprintf("  %d%%", pct)
		}
		if m.strategy == sched.RenderAll && len(m.batches) > 0 && !m.allRendered {
			pos += fmt.Sprintf("  rendering %d%%", m.batchIdx*100/len(m.batches))
		}
		if m.scale != 1.0 {
			pos += fmt.Sprintf("  [%d%%]", int(m.scale*100))
		}
		right = styles.MutedText.Render(pos)
	}

	gap := m.width - lipgloss.Width(left) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return left + strings.Repeat(" ", gap) + right
}

// renderFooter draws the mode-sensitive key help, or the next-chapter
// prompt once the end of the chapter is reached.
func (m *Model) renderFooter() string {
	if !m.chrome.Visible(m.clock()) || !m.opts.ShowNavigation {
		return ""
	}

	if m.endReached {
		help := []string{
			styles.HelpKey.Render("l/→") + styles.Help.Render(" next chapter"),
			styles.HelpKey.Render("k/↑") + styles.Help.Render(" keep reading"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
		return styles.FooterBar.Width(m.width).Render(strings.Join(help, "  "))
	}

	var help []string
	switch {
	case m.state != StateReady:
		help = []string{
			styles.HelpKey.Render("r") + styles.Help.Render(" retry"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
	case m.strategy == sched.Continuous || m.strategy == sched.RenderAll:
		help = []string{
			styles.HelpKey.Render("j/k") + styles.Help.Render(" scroll"),
			styles.HelpKey.Render("h/l") + styles.Help.Render(" page"),
			styles.HelpKey.Render("+/-") + styles.Help.Render(" zoom"),
			styles.HelpKey.Render("m") + styles.Help.Render(" mode"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
		if m.allRendered {
			help = append([]string{styles.HelpKey.Render("l/→") + styles.Help.Render(" next chapter")}, help...)
		}
	default:
		help = []string{
			styles.HelpKey.Render("h/l") + styles.Help.Render(" prev/next"),
			styles.HelpKey.Render("g/G") + styles.Help.Render(" first/last"),
			styles.HelpKey.Render("+/-") + styles.Help.Render(" zoom"),
			styles.HelpKey.Render("m") + styles.Help.Render(" mode"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
	}
	return styles.FooterBar.Width(m.width).Render(strings.Join(help, "  "))
}

// renderProgress draws the loading readout with its coarse checkpoint
// bar.
func (m *Model) renderProgress() string {
	pct := int(m.progress.Load())
	barWidth := 30
	if m.width-10 < barWidth {
		barWidth = m.width - 10
	}
	if barWidth < 5 {
		barWidth = 5
	}
	filled := pct * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)
	return styles.MutedText.Render(fmt.Sprintf("Loading chapter...\n\n%s %d%%", bar, pct))
}

// renderLoadError draws the classified failure with its reader-facing
// message and the retry hint.
func (m *Model) renderLoadError() string {
	msg := "Could not load this chapter."
	if m.loadErr != nil {
		msg = m.loadErr.Message()
	}
	lines := styles.ErrorStyle.Render(msg) + "\n\n" +
		styles.HelpKey.Render("r") + styles.Help.Render(" retry  ") +
		styles.HelpKey.Render("q") + styles.Help.Render(" back")
	if m.retries > 0 {
		lines += "\n" + styles.MutedText.Render(fmt.Sprintf("attempt %d", m.retries+1))
	}
	return lines
}

// progressPercent is the scroll progress through the whole column.
func (m *Model) progressPercent() int {
	return track.Progress(m.scrollTop, m.layout.TotalHeight(), m.viewportPxHeight())
}

func (m *Model) placeCenter(rows int, content string) string {
	return lipgloss.Place(m.width, rows, lipgloss.Center, lipgloss.Center, content)
}
