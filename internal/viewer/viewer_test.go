package viewer

import (
	"context"
	"image"
	"sync"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasui/manga-t/internal/viewer/sched"
	"github.com/hayasui/manga-t/internal/viewer/source"
	"github.com/hayasui/manga-t/internal/viewer/stage"
	"github.com/hayasui/manga-t/internal/viewer/track"
)

// stubDoc is an in-memory document whose pages are all one size.
type stubDoc struct {
	pages int
}

func (d *stubDoc) Kind() source.Kind { return source.ImageList }
func (d *stubDoc) PageCount() int    { return d.pages }
func (d *stubDoc) Close() error      { return nil }

func (d *stubDoc) PageSize(page int) (float64, float64, error) {
	return 800, 1200, nil
}

func (d *stubDoc) DecodePage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, int(800*scale), int(1200*scale))), nil
}

// readyModel builds a model already past resolution, with a pinned
// clock so chrome and throttle state is deterministic.
func readyModel(t *testing.T, geom stage.Geometry, mode string, pages int) *Model {
	t.Helper()
	m := New(nil, geom, nil, Options{Title: "Ch. 1", Mode: mode})
	m.Init()
	m.doc = &stubDoc{pages: pages}
	m.pageCount = pages
	m.state = StateReady
	m.layout = sched.NewLayout(pages, m.estimatedHeight())
	base := time.Now()
	m.clock = func() time.Time { return base }
	t.Cleanup(m.Unmount)
	return m
}

// runCmd executes a command tree and collects the leaf messages.
func runCmd(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	msg := cmd()
	if batch, ok := msg.(tea.BatchMsg); ok {
		var out []tea.Msg
		for _, c := range batch {
			out = append(out, runCmd(c)...)
		}
		return out
	}
	return []tea.Msg{msg}
}

func hasMsg[T tea.Msg](msgs []tea.Msg) bool {
	for _, m := range msgs {
		if _, ok := m.(T); ok {
			return true
		}
	}
	return false
}

func TestNewClampsOptions(t *testing.T) {
	m := New(nil, stage.Default(), nil, Options{Mode: "vertical", Scale: -1, CurrentPage: 0})
	assert.Equal(t, 1.0, m.Scale())
	assert.Equal(t, 1, m.CurrentPage())
	assert.Equal(t, StateLoading, m.State())
}

func TestInitSelectsStrategy(t *testing.T) {
	for mode, want := range map[string]sched.Strategy{
		"vertical":   sched.Continuous,
		"horizontal": sched.SinglePage,
		"swipe":      sched.SinglePage,
	} {
		m := New(nil, stage.Default(), nil, Options{Mode: mode})
		m.Init()
		assert.Equal(t, want, m.strategy, mode)
		m.Unmount()
	}
}

func TestSwipeThreshold(t *testing.T) {
	// One dragged cell maps to exactly CellWidth logical pixels, so
	// the cell width decides which side of the threshold a one-cell
	// drag lands on.
	tests := []struct {
		name      string
		cellWidth int
		turned    bool
	}{
		{"under threshold", SwipeThresholdPx - 1, false},
		{"at threshold", SwipeThresholdPx, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geom := stage.Geometry{CellWidth: tt.cellWidth, CellHeight: 16, PixelRatio: 1}
			m := readyModel(t, geom, "swipe", 10)
			m.currentPage = 5

			m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 10})
			require.True(t, m.dragging)
			_, cmd := m.Update(tea.MouseMsg{Action: tea.MouseActionRelease, X: 9})

			if tt.turned {
				assert.Equal(t, 6, m.CurrentPage(), "leftward swipe advances")
				assert.True(t, hasMsg[PageChangedMsg](runCmd(cmd)))
			} else {
				assert.Equal(t, 5, m.CurrentPage())
			}
		})
	}
}

func TestSwipeRightGoesBack(t *testing.T) {
	geom := stage.Geometry{CellWidth: 60, CellHeight: 16, PixelRatio: 1}
	m := readyModel(t, geom, "swipe", 10)
	m.currentPage = 5

	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonLeft, X: 5})
	m.Update(tea.MouseMsg{Action: tea.MouseActionRelease, X: 6})
	assert.Equal(t, 4, m.CurrentPage())
}

func TestPageTurnAtBoundariesRequestsChapter(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 3)

	m.currentPage = 3
	msgs := runCmd(m.nextPage())
	assert.True(t, hasMsg[NextChapterRequestedMsg](msgs))
	assert.Equal(t, 3, m.CurrentPage(), "boundary turn does not move")

	m.currentPage = 1
	msgs = runCmd(m.prevPage())
	assert.True(t, hasMsg[PrevChapterRequestedMsg](msgs))
}

func TestGoToPageEmitsPageChanged(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 10)

	msgs := runCmd(m.goToPage(7))
	assert.Equal(t, 7, m.CurrentPage())
	assert.True(t, hasMsg[PageChangedMsg](msgs))

	assert.Nil(t, m.goToPage(0))
	assert.Nil(t, m.goToPage(11))
	assert.Equal(t, 7, m.CurrentPage())
}

func TestContinuousScrollReachesEnd(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 3)
	for p := 1; p <= 3; p++ {
		m.layout.MarkRendered(p)
		m.layout.SetHeight(p, 200)
	}

	var msgs []tea.Msg
	for i := 0; i < 50 && !m.EndReached(); i++ {
		msgs = append(msgs, runCmd(m.scrollBy(200))...)
	}

	require.True(t, m.EndReached())
	assert.Equal(t, 3, m.CurrentPage())
	assert.True(t, hasMsg[PageChangedMsg](msgs))
}

func TestEndNotReachedWhilePagesPending(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 3)
	m.layout.MarkRendered(1)
	for p := 1; p <= 3; p++ {
		m.layout.SetHeight(p, 200)
	}

	for i := 0; i < 50; i++ {
		m.scrollBy(200)
	}
	assert.False(t, m.EndReached())
}

func TestSetScaleClampsAndRebuilds(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 3)

	m.setScale(9)
	assert.Equal(t, 3.0, m.Scale())
	m.setScale(0.1)
	assert.Equal(t, 0.5, m.Scale())
	assert.Nil(t, m.setScale(0.5), "no-op when unchanged")
}

func TestSetBrightnessClamps(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 1)
	m.setBrightness(10)
	assert.Equal(t, 30, m.brightness)
	m.setBrightness(900)
	assert.Equal(t, 150, m.brightness)
}

func TestCycleModeChangesStrategy(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 3)
	require.Equal(t, sched.Continuous, m.strategy)

	m.cycleMode()
	assert.Equal(t, "horizontal", m.Mode())
	assert.Equal(t, sched.SinglePage, m.strategy)

	m.cycleMode()
	assert.Equal(t, "swipe", m.Mode())
	assert.Equal(t, sched.SinglePage, m.strategy)

	m.cycleMode()
	assert.Equal(t, "vertical", m.Mode())
	assert.Equal(t, sched.Continuous, m.strategy)
}

func TestStaleSurfaceIsDiscarded(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 3)

	cmd := m.renderCurrent()
	msg := cmd()
	ready, ok := msg.(surfaceReadyMsg)
	require.True(t, ok)
	require.NoError(t, ready.err)

	// A newer render supersedes the one that just completed.
	m.renderer.Begin(context.Background())
	m.handleSurfaceReady(ready)
	assert.Equal(t, 0, m.stage.Count())
}

func TestCurrentSurfaceAttaches(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 3)

	cmd := m.renderCurrent()
	ready, ok := cmd().(surfaceReadyMsg)
	require.True(t, ok)
	require.NoError(t, ready.err)

	m.handleSurfaceReady(ready)
	assert.Equal(t, 1, m.stage.Count())
	assert.True(t, m.stage.Rendered(1))
}

func TestSurfaceRefusedAfterUnmount(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 3)

	cmd := m.renderCurrent()
	ready, ok := cmd().(surfaceReadyMsg)
	require.True(t, ok)

	m.Unmount()
	m.handleSurfaceReady(ready)
	assert.Equal(t, 0, m.stage.Count())
}

func TestResizeDebounceIgnoresStaleSeq(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 3)

	cmd := m.SetSize(100, 40)
	require.NotNil(t, cmd)
	first := m.resizeSeq
	m.SetSize(120, 40)

	// The first debounce timer fires after a second resize arrived.
	_, out := m.Update(resizeSettledMsg{seq: first})
	assert.Nil(t, out)
}

// countingDoc records decode order and peak decode concurrency.
type countingDoc struct {
	stubDoc
	mu       sync.Mutex
	order    []int
	inFlight int
	peak     int
}

func (d *countingDoc) DecodePage(ctx context.Context, page int, scale float64) (image.Image, error) {
	d.mu.Lock()
	d.order = append(d.order, page)
	d.inFlight++
	if d.inFlight > d.peak {
		d.peak = d.inFlight
	}
	d.mu.Unlock()
	time.Sleep(time.Millisecond)
	d.mu.Lock()
	d.inFlight--
	d.mu.Unlock()
	return d.stubDoc.DecodePage(ctx, page, scale)
}

func TestEagerWindowRendersOneAtATime(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 8)
	doc := &countingDoc{stubDoc: stubDoc{pages: 8}}
	m.doc = doc

	cmd := m.startWindow(sched.EagerPages(m.pageCount))
	for cmd != nil {
		step, ok := cmd().(windowStepMsg)
		require.True(t, ok)
		_, cmd = m.Update(step)
	}

	assert.Equal(t, []int{1, 2, 3, 4, 5}, doc.order)
	assert.Equal(t, 1, doc.peak)
	assert.False(t, m.rendering)
	assert.Equal(t, []int{1, 2, 3, 4, 5}, m.stage.Pages())
}

func TestWindowChainDropsWhenSuperseded(t *testing.T) {
	m := readyModel(t, stage.Default(), "vertical", 8)

	cmd := m.startWindow(sched.EagerPages(m.pageCount))
	step, ok := cmd().(windowStepMsg)
	require.True(t, ok)

	// A newer window takes over before the first step lands.
	m.startWindow([]int{6})
	_, out := m.Update(step)
	assert.Nil(t, out)
	assert.Equal(t, 0, m.stage.Count())
}

func renderAllModel(t *testing.T, pages int) *Model {
	t.Helper()
	m := New(nil, stage.Default(), nil, Options{Title: "Ch. 1", Mode: "vertical", RenderAllPages: true})
	m.Init()
	m.doc = &stubDoc{pages: pages}
	m.pageCount = pages
	m.state = StateReady
	m.layout = sched.NewLayout(pages, m.estimatedHeight())
	base := time.Now()
	m.clock = func() time.Time { return base }
	t.Cleanup(m.Unmount)
	return m
}

func TestRenderAllAttachesEveryBatchInOrder(t *testing.T) {
	m := renderAllModel(t, 12)
	require.Equal(t, sched.RenderAll, m.strategy)

	attached := []int{0}
	cmd := m.startRenders()
	for cmd != nil {
		done, ok := cmd().(batchDoneMsg)
		require.True(t, ok)
		_, cmd = m.Update(done)
		attached = append(attached, m.stage.Count())
	}

	assert.Equal(t, []int{0, 5, 10, 12}, attached)
	assert.True(t, m.allRendered)
	assert.Equal(t, 12, m.layout.RenderedCount())
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}, m.stage.Pages())
}

func TestRenderAllScrollsLikeAColumn(t *testing.T) {
	m := renderAllModel(t, 12)

	cmd := m.startRenders()
	for cmd != nil {
		done, ok := cmd().(batchDoneMsg)
		require.True(t, ok)
		_, cmd = m.Update(done)
	}
	require.True(t, m.allRendered)

	before := m.scrollTop
	m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'j'}})
	assert.Equal(t, before+track.ScrollStepPx, m.scrollTop)
	assert.Equal(t, 1, m.CurrentPage())

	afterKey := m.scrollTop
	m.Update(tea.MouseMsg{Action: tea.MouseActionPress, Button: tea.MouseButtonWheelDown})
	assert.Greater(t, m.scrollTop, afterKey)

	var msgs []tea.Msg
	for i := 0; i < 200 && !m.EndReached(); i++ {
		msgs = append(msgs, runCmd(m.scrollBy(400))...)
	}
	require.True(t, m.EndReached())
	assert.Equal(t, 12, m.CurrentPage())
	assert.True(t, hasMsg[PageChangedMsg](msgs))
}

func TestGoToPageClampsExternalOverride(t *testing.T) {
	m := readyModel(t, stage.Default(), "horizontal", 10)

	cmd := m.GoToPage(42)
	assert.Equal(t, 10, m.CurrentPage())
	assert.True(t, hasMsg[PageChangedMsg](runCmd(cmd)))

	cmd = m.GoToPage(0)
	assert.Equal(t, 1, m.CurrentPage())
	assert.True(t, hasMsg[PageChangedMsg](runCmd(cmd)))
}
