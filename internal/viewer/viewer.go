// Package viewer is the chapter page viewer: it resolves a chapter's
// content into a document, schedules page renders for the active
// reading mode, and composites rendered surfaces into terminal frames.
// It is a self-contained bubbletea component; the hosting view owns
// chapter identity and reacts to the navigation messages it emits.
package viewer

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/hayasui/manga-t/internal/viewer/protect"
	"github.com/hayasui/manga-t/internal/viewer/render"
	"github.com/hayasui/manga-t/internal/viewer/sched"
	"github.com/hayasui/manga-t/internal/viewer/source"
	"github.com/hayasui/manga-t/internal/viewer/stage"
	"github.com/hayasui/manga-t/internal/viewer/track"
)

// SwipeThresholdPx is the minimum horizontal drag, in logical pixels,
// that counts as a page-turn swipe.
const SwipeThresholdPx = 50

// loadPollInterval is how often the loading screen refreshes its
// progress readout.
const loadPollInterval = 120 * time.Millisecond

// State is the viewer lifecycle state.
type State int

const (
	StateLoading State = iota
	StateReady
	StateError
	StateNotFound
)

// Encoder turns a composited frame into the terminal escape string
// that displays it. A nil encoder leaves frames blank, which is what
// tests and image-less terminals want.
type Encoder func(image.Image) (string, error)

// Options configure one viewer instance for one chapter.
type Options struct {
	Title       string
	DocumentURL string
	Images      []string

	Watermark      string
	Mode           string  // vertical | horizontal | swipe
	CurrentPage    int     // 1-based starting page, 0 = first
	Scale          float64 // user zoom, 1.0 = fit
	Brightness     int     // percent
	ContainerWidth int     // percent of terminal width
	ShowNavigation bool
	RenderAllPages bool
}

// Model is the viewer component.
type Model struct {
	opts    Options
	loader  *source.Loader
	geom    stage.Geometry
	encoder Encoder

	stage    *stage.Stage
	renderer *render.Renderer
	layout   *sched.Layout
	strategy sched.Strategy
	tracker  *track.Tracker
	chrome   *track.Chrome
	guard    *protect.Guard

	state    State
	loadErr  *source.LoadError
	pageErr  string
	retries  int
	progress atomic.Int32

	doc       source.Document
	pageCount int

	mode       string
	scale      float64
	brightness int

	currentPage int
	scrollTop   int
	endReached  bool

	width  int // cells
	height int

	rendering   bool
	batches     [][]int
	batchIdx    int
	allRendered bool

	resizeSeq   int
	chromeTimer bool

	dragging    bool
	dragOriginX int

	frame      string
	frameDirty bool

	clock func() time.Time
}

// New builds a viewer for the given chapter content. The fetcher is
// usually the API client; geom comes from one-time startup detection.
func New(fetcher source.Fetcher, geom stage.Geometry, encoder Encoder, opts Options) *Model {
	if opts.Scale <= 0 {
		opts.Scale = 1.0
	}
	if opts.Brightness <= 0 {
		opts.Brightness = 100
	}
	if opts.ContainerWidth <= 0 {
		opts.ContainerWidth = 100
	}
	page := opts.CurrentPage
	if page < 1 {
		page = 1
	}
	return &Model{
		opts:        opts,
		loader:      source.NewLoader(fetcher),
		geom:        geom,
		encoder:     encoder,
		stage:       stage.New(),
		renderer:    render.New(),
		tracker:     track.New(),
		chrome:      track.NewChrome(),
		guard:       protect.New(),
		state:       StateLoading,
		mode:        opts.Mode,
		scale:       opts.Scale,
		brightness:  opts.Brightness,
		currentPage: page,
		width:       80,
		height:      24,
		clock:       time.Now,
	}
}

// Init mounts the stage, arms the capture guard, and starts resolving
// the document.
func (m *Model) Init() tea.Cmd {
	m.stage.Mount()
	m.guard.Install()
	m.strategy = sched.ForMode(m.mode, m.opts.RenderAllPages)
	return tea.Batch(m.resolveCmd(), m.pollProgress())
}

// Unmount tears the viewer down. Everything the anti-capture layer and
// the renderer set up is released; in-flight decodes that complete
// afterwards hit the unmounted stage and are refused there.
func (m *Model) Unmount() {
	m.renderer.CancelAll()
	m.stage.Unmount()
	m.guard.Uninstall()
	if m.doc != nil {
		m.doc.Close()
		m.doc = nil
	}
}

// State returns the lifecycle state.
func (m *Model) State() State { return m.state }

// CurrentPage returns the 1-based page shown in the header.
func (m *Model) CurrentPage() int { return m.currentPage }

// PageCount returns the resolved page count, 0 while loading.
func (m *Model) PageCount() int { return m.pageCount }

// Mode returns the active reading mode.
func (m *Model) Mode() string { return m.mode }

// Scale returns the current user zoom.
func (m *Model) Scale() float64 { return m.scale }

// EndReached reports whether the end-of-chapter transition has fired.
func (m *Model) EndReached() bool { return m.endReached }

// GoToPage jumps to a 1-based page, clamped to the document. The host
// calls it to push an externally chosen page into the viewer; the
// viewer never updates the host the other way except through its
// messages.
func (m *Model) GoToPage(page int) tea.Cmd {
	if page < 1 {
		page = 1
	}
	if m.pageCount > 0 && page > m.pageCount {
		page = m.pageCount
	}
	return m.goToPage(page)
}

// SetSize updates the viewer's cell dimensions. Re-rendering waits for
// the debounce interval so a drag-resize does not spawn a render per
// tick.
func (m *Model) SetSize(width, height int) tea.Cmd {
	if width == m.width && height == m.height {
		return nil
	}
	m.width = width
	m.height = height
	m.frameDirty = true
	if m.state != StateReady {
		return nil
	}
	m.resizeSeq++
	seq := m.resizeSeq
	return tea.Tick(sched.ResizeDebounce, func(time.Time) tea.Msg {
		return resizeSettledMsg{seq: seq}
	})
}

// Update implements the component update loop.
func (m *Model) Update(msg tea.Msg) (*Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.guard.SuppressKey(msg) {
			return m, nil
		}
		return m, m.handleKey(msg)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.FocusMsg, tea.BlurMsg:
		m.guard.HandleFocus(msg)
		m.frameDirty = true
		return m, nil

	case docResolvedMsg:
		return m, m.handleResolved(msg)

	case loadTickMsg:
		if m.state != StateLoading {
			return m, nil
		}
		return m, m.pollProgress()

	case surfaceReadyMsg:
		return m, m.handleSurfaceReady(msg)

	case windowStepMsg:
		return m, m.handleWindowStep(msg)

	case batchDoneMsg:
		return m, m.handleBatchDone(msg)

	case resizeSettledMsg:
		if msg.seq != m.resizeSeq || m.state != StateReady {
			return m, nil
		}
		return m, m.rebuild()

	case chromeTickMsg:
		m.chromeTimer = false
		m.frameDirty = true
		return m, nil
	}

	return m, nil
}

// resolveCmd starts (or retries) document resolution. The retry count
// is baked into the fetch URL so no cache along the way can replay the
// failure.
func (m *Model) resolveCmd() tea.Cmd {
	m.state = StateLoading
	m.loadErr = nil
	m.progress.Store(0)

	req := m.renderer.Begin(context.Background())
	opts := source.Options{
		DocumentURL: m.opts.DocumentURL,
		Images:      m.opts.Images,
		RetryToken:  m.retries,
	}
	return func() tea.Msg {
		res, err := m.loader.Resolve(req.Ctx, opts, func(pct int) {
			m.progress.Store(int32(pct))
		})
		return docResolvedMsg{res: res, err: err, gen: req.Generation()}
	}
}

func (m *Model) pollProgress() tea.Cmd {
	return tea.Tick(loadPollInterval, func(time.Time) tea.Msg {
		return loadTickMsg{}
	})
}

func (m *Model) handleResolved(msg docResolvedMsg) tea.Cmd {
	if !m.renderer.Current(msg.gen) {
		// Superseded by a retry or teardown; release the document if
		// one was produced.
		if msg.res != nil && msg.res.Doc != nil {
			msg.res.Doc.Close()
		}
		return nil
	}
	if msg.err != nil {
		var le *source.LoadError
		if errors.As(msg.err, &le) {
			m.loadErr = le
		} else {
			m.loadErr = source.Classify(msg.err, 0)
		}
		if m.loadErr.Kind == source.ErrNotFound {
			m.state = StateNotFound
		} else {
			m.state = StateError
		}
		return nil
	}

	m.doc = msg.res.Doc
	m.pageCount = msg.res.PageCount
	m.state = StateReady
	m.layout = sched.NewLayout(m.pageCount, m.estimatedHeight())
	if m.currentPage > m.pageCount {
		m.currentPage = m.pageCount
	}
	m.scrollTop = m.scrollTarget(m.currentPage)
	m.frameDirty = true
	return m.startRenders()
}

// startRenders kicks off the initial render work for the active
// strategy.
func (m *Model) startRenders() tea.Cmd {
	switch m.strategy {
	case sched.SinglePage:
		return m.renderCurrent()
	case sched.RenderAll:
		m.batches = sched.Batches(m.pageCount)
		m.batchIdx = 0
		m.allRendered = false
		return m.startBatch()
	default:
		return m.startWindow(sched.EagerPages(m.pageCount))
	}
}

// rebuild discards every surface and re-renders for the current
// geometry, scale and mode. Used after resize settles and after any
// display-parameter change that invalidates backing bitmaps.
func (m *Model) rebuild() tea.Cmd {
	m.renderer.CancelAll()
	stage.SafeClear(m.stage)
	m.layout.Reset(m.estimatedHeight())
	m.rendering = false
	m.allRendered = false
	m.endReached = false
	m.tracker.Reset()
	m.clampScroll()
	m.frameDirty = true
	return m.startRenders()
}

// renderCurrent renders exactly the current page, replacing whatever
// single surface was attached.
func (m *Model) renderCurrent() tea.Cmd {
	req := m.renderer.Begin(context.Background())
	stage.SafeClear(m.stage)
	m.pageErr = ""
	m.frameDirty = true
	doc, page, params := m.doc, m.currentPage, m.renderParams()
	return func() tea.Msg {
		surf, err := render.RenderPage(req.Ctx, doc, page, params)
		return surfaceReadyMsg{surf: surf, page: page, gen: req.Generation(), err: err}
	}
}

// startWindow renders a set of continuous-mode pages, strictly one
// page at a time in the given order. Beginning a window supersedes
// whatever render was in flight.
func (m *Model) startWindow(pages []int) tea.Cmd {
	if len(pages) == 0 {
		return nil
	}
	m.rendering = true
	req := m.renderer.Begin(context.Background())
	return m.windowStep(req, pages, nil)
}

// windowStep decodes the head of the window. The chain continues from
// the step handler, so at most one decode is ever in flight.
func (m *Model) windowStep(req *render.Request, pages, done []int) tea.Cmd {
	doc, params := m.doc, m.renderParams()
	page, rest := pages[0], pages[1:]
	return func() tea.Msg {
		surf, err := render.RenderPage(req.Ctx, doc, page, params)
		return windowStepMsg{req: req, surf: surf, page: page, rest: rest, done: append(done, page), err: err}
	}
}

func (m *Model) startBatch() tea.Cmd {
	if m.batchIdx >= len(m.batches) {
		return nil
	}
	batch := m.batches[m.batchIdx]
	m.rendering = true
	req := m.renderer.Begin(context.Background())
	doc, params, idx := m.doc, m.renderParams(), m.batchIdx
	return func() tea.Msg {
		surfs := sched.RunBatch(req.Ctx, batch, func(ctx context.Context, page int) (*stage.Surface, error) {
			return render.RenderPage(ctx, doc, page, params)
		})
		return batchDoneMsg{pages: batch, surfs: surfs, idx: idx, gen: req.Generation()}
	}
}

// handleSurfaceReady attaches a single-page render if it is still the
// latest. A completion that lost the race attaches nothing; the stage
// refuses it even if the generation check were skipped.
func (m *Model) handleSurfaceReady(msg surfaceReadyMsg) tea.Cmd {
	if !m.renderer.Current(msg.gen) {
		return nil
	}
	if msg.err != nil {
		m.pageErr = msg.err.Error()
		m.frameDirty = true
		return nil
	}
	if msg.page != m.currentPage {
		return nil
	}
	stage.SafeAppend(m.stage, msg.surf)
	if m.layout != nil {
		m.layout.MarkRendered(msg.page)
		m.layout.SetHeight(msg.page, msg.surf.DisplayHeight)
	}
	m.frameDirty = true
	return nil
}

func (m *Model) attachBatch(pages []int, surfs []*stage.Surface) {
	for i, surf := range surfs {
		if surf == nil {
			continue
		}
		if !stage.SafeAppend(m.stage, surf) {
			continue
		}
		m.layout.MarkRendered(pages[i])
		m.layout.SetHeight(pages[i], surf.DisplayHeight)
	}
	m.clampScroll()
	m.frameDirty = true
}

// handleWindowStep attaches one window page and starts the next. A
// failed page is skipped silently; it stays unrendered and a later
// scroll can request it again. When the chain drains, attached heights
// may have pulled more placeholders into the lookahead window, so a
// fresh pass starts for any pending page this one did not already try.
func (m *Model) handleWindowStep(msg windowStepMsg) tea.Cmd {
	if !m.renderer.Current(msg.req.Generation()) || m.state != StateReady {
		return nil
	}
	if msg.err == nil && msg.surf != nil {
		if stage.SafeAppend(m.stage, msg.surf) {
			m.layout.MarkRendered(msg.page)
			m.layout.SetHeight(msg.page, msg.surf.DisplayHeight)
		}
		m.clampScroll()
		m.frameDirty = true
	}
	if len(msg.rest) > 0 {
		return m.windowStep(msg.req, msg.rest, msg.done)
	}
	m.rendering = false
	pending := m.layout.PendingInWindow(m.scrollTop, m.viewportPxHeight(), sched.LookaheadPx)
	return m.startWindow(withoutPages(pending, msg.done))
}

func withoutPages(pages, drop []int) []int {
	if len(drop) == 0 {
		return pages
	}
	skip := make(map[int]bool, len(drop))
	for _, p := range drop {
		skip[p] = true
	}
	var out []int
	for _, p := range pages {
		if !skip[p] {
			out = append(out, p)
		}
	}
	return out
}

func (m *Model) handleBatchDone(msg batchDoneMsg) tea.Cmd {
	if !m.renderer.Current(msg.gen) || m.state != StateReady {
		return nil
	}
	m.rendering = false
	m.attachBatch(msg.pages, msg.surfs)
	m.batchIdx = msg.idx + 1
	if m.batchIdx >= len(m.batches) {
		m.allRendered = true
		m.frameDirty = true
		return nil
	}
	return m.startBatch()
}

// handleKey processes viewer key bindings. Vertical scrolling keys
// move the viewport in the scrolling strategies and turn pages in
// single-page mode; horizontal keys always turn pages.
func (m *Model) handleKey(msg tea.KeyMsg) tea.Cmd {
	if m.state == StateError || m.state == StateNotFound {
		if msg.String() == "r" {
			m.retries++
			return tea.Batch(m.resolveCmd(), m.pollProgress())
		}
		return nil
	}
	if m.state != StateReady {
		return nil
	}

	switch msg.String() {
	case "down", "j":
		if m.strategy != sched.SinglePage {
			return m.scrollBy(track.ScrollStepPx)
		}
		return m.nextPage()
	case "up", "k":
		if m.strategy != sched.SinglePage {
			return m.scrollBy(-track.ScrollStepPx)
		}
		return m.prevPage()
	case "pgdown", " ":
		if m.strategy != sched.SinglePage {
			return m.scrollBy(m.viewportPxHeight())
		}
		return m.nextPage()
	case "pgup":
		if m.strategy != sched.SinglePage {
			return m.scrollBy(-m.viewportPxHeight())
		}
		return m.prevPage()
	case "right", "l":
		return m.nextPage()
	case "left", "h":
		return m.prevPage()
	case "g", "home":
		return m.goToPage(1)
	case "G", "end":
		return m.goToPage(m.pageCount)
	case "+", "=":
		return m.setScale(m.scale + 0.25)
	case "-", "_":
		return m.setScale(m.scale - 0.25)
	case "[":
		m.setBrightness(m.brightness - 10)
	case "]":
		m.setBrightness(m.brightness + 10)
	case "m":
		return m.cycleMode()
	case "esc":
		m.chrome.Toggle()
		m.frameDirty = true
	}
	return nil
}

// handleMouse processes wheel scrolling, swipe drags and the
// top-of-screen chrome reveal.
func (m *Model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if m.state != StateReady {
		return nil
	}

	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		if m.strategy != sched.SinglePage {
			return m.scrollBy(3 * m.geom.CellHeight)
		}
	case msg.Button == tea.MouseButtonWheelUp:
		if m.strategy != sched.SinglePage {
			return m.scrollBy(-3 * m.geom.CellHeight)
		}
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft:
		if m.mode == "swipe" {
			m.dragging = true
			m.dragOriginX = msg.X
		}
	case msg.Action == tea.MouseActionRelease && m.dragging:
		m.dragging = false
		deltaPx := (msg.X - m.dragOriginX) * m.geom.CellWidth
		if deltaPx <= -SwipeThresholdPx {
			return m.nextPage()
		}
		if deltaPx >= SwipeThresholdPx {
			return m.prevPage()
		}
	case msg.Action == tea.MouseActionMotion:
		if m.height > 0 && msg.Y*10 < m.height {
			m.chrome.OnPointerTop(m.clock())
			m.frameDirty = true
		}
	}
	return nil
}

// scrollBy moves the continuous viewport, feeding the tracker and the
// chrome state machine; backfill renders start for any placeholder
// that scrolled into the lookahead window.
func (m *Model) scrollBy(delta int) tea.Cmd {
	now := m.clock()
	m.scrollTop += delta
	m.clampScroll()
	m.frameDirty = true
	m.chrome.OnScroll(now, m.scrollTop)

	viewH := m.viewportPxHeight()
	ev := m.tracker.Observe(now, m.scrollTop, m.layout.TotalHeight(), viewH,
		m.layout.RenderedCount(), m.pageCount, func() int {
			return m.layout.MostVisible(m.scrollTop, viewH)
		})

	var cmds []tea.Cmd
	if ev.InferredPage > 0 {
		m.currentPage = ev.InferredPage
	}
	if ev.ReachedEnd {
		m.currentPage = m.pageCount
		m.endReached = true
		cmds = append(cmds, emit(PageChangedMsg{Page: m.pageCount}))
	}

	// Backfill is continuous-mode only; render-all's batch chain
	// already covers every page.
	if m.strategy == sched.Continuous && !m.rendering {
		pending := m.layout.PendingInWindow(m.scrollTop, viewH, sched.LookaheadPx)
		if cmd := m.startWindow(pending); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	if !m.chromeTimer {
		m.chromeTimer = true
		cmds = append(cmds, tea.Tick(track.ChromeHideDelay+10*time.Millisecond, func(time.Time) tea.Msg {
			return chromeTickMsg{}
		}))
	}
	return tea.Batch(cmds...)
}

func (m *Model) clampScroll() {
	limit := 0
	if m.layout != nil {
		limit = m.layout.TotalHeight() - m.viewportPxHeight()
	}
	if limit < 0 {
		limit = 0
	}
	if m.scrollTop > limit {
		m.scrollTop = limit
	}
	if m.scrollTop < 0 {
		m.scrollTop = 0
	}
}

// nextPage advances one page, or asks the host for the next chapter
// when already on the last page.
func (m *Model) nextPage() tea.Cmd {
	if m.currentPage >= m.pageCount {
		return emit(NextChapterRequestedMsg{})
	}
	return m.goToPage(m.currentPage + 1)
}

func (m *Model) prevPage() tea.Cmd {
	if m.currentPage <= 1 {
		return emit(PrevChapterRequestedMsg{})
	}
	return m.goToPage(m.currentPage - 1)
}

// goToPage commits a page transition. Single-page strategies replace
// the lone surface; continuous mode jumps the scroll position to the
// page's band.
func (m *Model) goToPage(page int) tea.Cmd {
	if page < 1 || page > m.pageCount || m.state != StateReady {
		return nil
	}
	m.currentPage = page
	m.frameDirty = true

	if m.strategy == sched.Continuous || m.strategy == sched.RenderAll {
		m.scrollTop = m.scrollTarget(page)
		m.clampScroll()
		cmds := []tea.Cmd{emit(PageChangedMsg{Page: page})}
		if m.strategy == sched.Continuous && !m.rendering {
			pending := m.layout.PendingInWindow(m.scrollTop, m.viewportPxHeight(), sched.LookaheadPx)
			if cmd := m.startWindow(pending); cmd != nil {
				cmds = append(cmds, cmd)
			}
		}
		return tea.Batch(cmds...)
	}

	return tea.Batch(emit(PageChangedMsg{Page: page}), m.renderCurrent())
}

func (m *Model) scrollTarget(page int) int {
	if m.layout == nil {
		return 0
	}
	if e, ok := m.layout.Extent(page); ok {
		return e.Top
	}
	return 0
}

func (m *Model) setScale(scale float64) tea.Cmd {
	if scale < 0.5 {
		scale = 0.5
	}
	if scale > 3.0 {
		scale = 3.0
	}
	if scale == m.scale {
		return nil
	}
	m.scale = scale
	if m.state != StateReady {
		return nil
	}
	return m.rebuild()
}

func (m *Model) setBrightness(pct int) {
	if pct < 30 {
		pct = 30
	}
	if pct > 150 {
		pct = 150
	}
	m.brightness = pct
	m.frameDirty = true
}

// cycleMode rotates vertical -> horizontal -> swipe. Switching in or
// out of continuous mode changes the render strategy, so surfaces are
// rebuilt.
func (m *Model) cycleMode() tea.Cmd {
	switch m.mode {
	case "vertical":
		m.mode = "horizontal"
	case "horizontal":
		m.mode = "swipe"
	default:
		m.mode = "vertical"
	}
	prev := m.strategy
	m.strategy = sched.ForMode(m.mode, m.opts.RenderAllPages)
	if m.state != StateReady {
		return nil
	}
	if m.strategy == prev {
		m.frameDirty = true
		return nil
	}
	return m.rebuild()
}

// renderParams resolves the current display inputs.
func (m *Model) renderParams() render.Params {
	return render.Params{
		Geometry:   m.geom,
		ViewportPx: m.viewportPxWidth(),
		Scale:      m.scale,
		Watermark:  m.opts.Watermark,
	}
}

// viewportPxWidth is the logical pixel width of the reading column's
// container.
func (m *Model) viewportPxWidth() int {
	px := m.geom.ViewportWidth(m.width)
	return px * m.opts.ContainerWidth / 100
}

// viewportPxHeight is the logical pixel height of the content area,
// excluding the header and footer rows.
func (m *Model) viewportPxHeight() int {
	rows := m.height - chromeRows
	if rows < 1 {
		rows = 1
	}
	return m.geom.ViewportHeight(rows)
}

// estimatedHeight is the placeholder band height used before a page's
// real size is known. Pages are assumed taller than wide.
func (m *Model) estimatedHeight() int {
	target := m.geom.TargetPageWidth(m.viewportPxWidth())
	return int(float64(target) * 1.5 * m.scale)
}

func emit(msg tea.Msg) tea.Cmd {
	return func() tea.Msg { return msg }
}
