package views

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/hayasui/manga-t/internal/api"
	"github.com/hayasui/manga-t/internal/ui/styles"
	"github.com/hayasui/manga-t/pkg/models"
)

// ChaptersView lists a series' chapters and gates paid ones behind the
// purchase dialog. The leading chapters of every series are free; the
// rest unlock individually from the user's coin balance.
type ChaptersView struct {
	client *api.Client

	manga    models.Manga
	chapters []models.Chapter
	cursor   int
	offset   int

	balance    int
	hasBalance bool

	loading bool
	err     error

	confirmPurchase bool
	purchaseIdx     int
	purchasing      bool

	width  int
	height int
}

// NewChaptersView creates a new chapter list view
func NewChaptersView(client *api.Client) *ChaptersView {
	return &ChaptersView{
		client: client,
		width:  80,
		height: 24,
	}
}

// SetManga points the view at a series
func (v *ChaptersView) SetManga(m models.Manga) {
	v.manga = m
	v.chapters = nil
	v.cursor = 0
	v.offset = 0
	v.err = nil
	v.confirmPurchase = false
}

// chaptersLoadedMsg is sent when the chapter list is loaded
type chaptersLoadedMsg struct {
	chapters []models.Chapter
	err      error
}

// balanceLoadedMsg carries the user's current coin balance
type balanceLoadedMsg struct {
	balance int
	err     error
}

// chapterPurchasedMsg is the result of a purchase attempt
type chapterPurchasedMsg struct {
	chapter models.Chapter
	balance int
	err     error
}

// Init implements View
func (v *ChaptersView) Init() tea.Cmd {
	v.loading = true
	return tea.Batch(v.loadChapters(), v.loadBalance())
}

// Update implements View
func (v *ChaptersView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if v.confirmPurchase {
			return v.handlePurchaseKey(msg)
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
			v.cursor = len(v.chapters) - 1
			v.updateOffset()
		case "r":
			return v, tea.Batch(v.loadChapters(), v.loadBalance())
		case "enter":
			return v.openSelected()
		}

	case chaptersLoadedMsg:
		v.loading = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.chapters = msg.chapters
		v.err = nil
		if v.cursor >= len(v.chapters) {
			v.cursor = max(0, len(v.chapters)-1)
		}
		return v, nil

	case balanceLoadedMsg:
		if msg.err == nil {
			v.balance = msg.balance
			v.hasBalance = true
		}
		return v, nil

	case chapterPurchasedMsg:
		v.purchasing = false
		v.confirmPurchase = false
		if msg.err != nil {
			v.err = msg.err
			return v, nil
		}
		v.err = nil
		v.balance = msg.balance
		v.hasBalance = true
		// Replace the unlocked chapter in place
		for i := range v.chapters {
			if v.chapters[i].ID == msg.chapter.ID {
				v.chapters[i] = msg.chapter
				break
			}
		}
		return v, func() tea.Msg {
			return BalanceChangedMsg{Balance: msg.balance}
		}
	}

	return v, nil
}

// openSelected opens the selected chapter, or raises the purchase
// dialog when it is still locked.
func (v *ChaptersView) openSelected() (View, tea.Cmd) {
	if len(v.chapters) == 0 || v.cursor >= len(v.chapters) {
		return v, nil
	}
	ch := v.chapters[v.cursor]
	if !ch.HasContent() {
		v.err = fmt.Errorf("chapter %d is still processing", ch.Number)
		return v, nil
	}
	if !ch.Readable(v.cursor) {
		v.confirmPurchase = true
		v.purchaseIdx = v.cursor
		return v, nil
	}

	manga, chapters, idx := v.manga, v.chapters, v.cursor
	return v, func() tea.Msg {
		return OpenChapterMsg{Manga: manga, Chapters: chapters, Index: idx}
	}
}

func (v *ChaptersView) handlePurchaseKey(msg tea.KeyMsg) (View, tea.Cmd) {
	if v.purchasing {
		return v, nil
	}
	switch msg.String() {
	case "y", "Y", "enter":
		ch := v.chapters[v.purchaseIdx]
		if v.hasBalance && v.balance < ch.Price {
			v.confirmPurchase = false
			v.err = fmt.Errorf("not enough coins: chapter costs %d, balance is %d", ch.Price, v.balance)
			return v, nil
		}
		v.purchasing = true
		return v, v.purchase(ch.ID)
	case "n", "N", "esc":
		v.confirmPurchase = false
	}
	return v, nil
}

// View implements View
func (v *ChaptersView) View() string {
	if v.confirmPurchase && v.purchaseIdx < len(v.chapters) {
		return v.renderPurchaseDialog()
	}

	var b strings.Builder
	b.WriteString(v.renderHeader() + "\n")

	if v.loading {
		b.WriteString(lipgloss.Place(v.width, v.height-4, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("Loading chapters...")))
		return b.String()
	}
	if v.err != nil {
		b.WriteString(lipgloss.Place(v.width, v.height-4, lipgloss.Center, lipgloss.Center,
			styles.ErrorStyle.Render("Error: "+v.err.Error())))
		return b.String()
	}
	if len(v.chapters) == 0 {
		b.WriteString(lipgloss.Place(v.width, v.height-4, lipgloss.Center, lipgloss.Center,
			styles.MutedText.Render("No chapters yet")))
		return b.String()
	}

	visibleLines := v.visibleLines()
	for i := v.offset; i < min(v.offset+visibleLines, len(v.chapters)); i++ {
		b.WriteString(v.renderChapterLine(i) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderFooter())
	return b.String()
}

// SetSize implements View
func (v *ChaptersView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

func (v *ChaptersView) renderHeader() string {
	title := styles.TitleBar.Render(" " + styles.TruncateText(v.manga.Title, v.width/2) + " ")

	right := ""
	if v.hasBalance {
		right = styles.SecondaryText.Render(fmt.Sprintf(" %d coins ", v.balance))
	}

	gap := v.width - lipgloss.Width(title) - lipgloss.Width(right)
	if gap < 0 {
		gap = 0
	}
	return title + strings.Repeat(" ", gap) + right
}

// renderChapterLine renders one chapter row with its access badge.
func (v *ChaptersView) renderChapterLine(i int) string {
	ch := v.chapters[i]

	var badge string
	switch {
	case !ch.HasContent():
		badge = styles.MutedText.Render("  ...  ")
	case ch.IsFree(i):
		badge = styles.BadgeFree.Render(" FREE ")
	case ch.Purchased:
		badge = styles.SuccessStyle.Render("  ✓  ")
	default:
		badge = styles.BadgePaid.Render(fmt.Sprintf(" %dc ", ch.Price))
	}

	title := ch.Title
	if title == "" {
		title = fmt.Sprintf("Chapter %d", ch.Number)
	}
	line := fmt.Sprintf("%3d  %s", ch.Number, styles.TruncateText(title, v.width-20))

	if i == v.cursor {
		return styles.ListItemSelected.Width(v.width - lipgloss.Width(badge)).Render("▸ "+line) + badge
	}
	return styles.ListItem.Render("  "+line) + badge
}

func (v *ChaptersView) renderFooter() string {
	help := []string{
		styles.HelpKey.Render("j/k") + styles.Help.Render(" nav"),
		styles.HelpKey.Render("enter") + styles.Help.Render(" read/unlock"),
		styles.HelpKey.Render("r") + styles.Help.Render(" refresh"),
		styles.HelpKey.Render("esc") + styles.Help.Render(" back"),
	}
	return styles.FooterBar.Width(v.width).Render(strings.Join(help, "  "))
}

// renderPurchaseDialog renders the unlock confirmation.
func (v *ChaptersView) renderPurchaseDialog() string {
	ch := v.chapters[v.purchaseIdx]
	title := ch.Title
	if title == "" {
		title = fmt.Sprintf("Chapter %d", ch.Number)
	}

	body := styles.DialogTitle.Render("Unlock chapter?") + "\n\n" +
		styles.SeriesTitle.Render(styles.TruncateText(title, 40)) + "\n\n" +
		styles.SecondaryText.Render(fmt.Sprintf("Price: %d coins", ch.Price))
	if v.hasBalance {
		body += styles.MutedText.Render(fmt.Sprintf("   Balance: %d", v.balance))
	}
	body += "\n\n"
	if v.purchasing {
		body += styles.MutedText.Render("Purchasing...")
	} else {
		body += styles.Help.Render("Press ") + styles.HelpKey.Render("y") +
			styles.Help.Render(" to unlock, ") + styles.HelpKey.Render("n") +
			styles.Help.Render(" to cancel")
	}

	dialog := styles.Dialog.Width(50).Render(body)
	return lipgloss.Place(v.width, v.height, lipgloss.Center, lipgloss.Center, dialog)
}

// loadChapters fetches the ordered chapter list
func (v *ChaptersView) loadChapters() tea.Cmd {
	slug := v.manga.Slug
	return func() tea.Msg {
		resp, err := v.client.GetChaptersForManga(slug)
		if err != nil {
			return chaptersLoadedMsg{err: err}
		}
		return chaptersLoadedMsg{chapters: resp.Chapters}
	}
}

// loadBalance refreshes the user's coin balance
func (v *ChaptersView) loadBalance() tea.Cmd {
	return func() tea.Msg {
		user, err := v.client.GetCurrentUser()
		if err != nil || user == nil {
			return balanceLoadedMsg{err: err}
		}
		return balanceLoadedMsg{balance: user.Balance}
	}
}

func (v *ChaptersView) purchase(chapterID string) tea.Cmd {
	return func() tea.Msg {
		resp, err := v.client.PurchaseChapter(chapterID)
		if err != nil {
			return chapterPurchasedMsg{err: err}
		}
		return chapterPurchasedMsg{chapter: resp.Chapter, balance: resp.Balance}
	}
}

func (v *ChaptersView) moveCursor(delta int) {
	v.cursor += delta
	if v.cursor >= len(v.chapters) {
		v.cursor = len(v.chapters) - 1
	}
	if v.cursor < 0 {
		v.cursor = 0
	}
	v.updateOffset()
}

func (v *ChaptersView) updateOffset() {
	visibleLines := v.visibleLines()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visibleLines {
		v.offset = v.cursor - visibleLines + 1
	}
}

func (v *ChaptersView) visibleLines() int {
	lines := v.height - 5
	if lines < 1 {
		lines = 1
	}
	return lines
}
