package track

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	tests := []struct {
		name                        string
		scrollTop, total, viewportH int
		want                        int
	}{
		{"top", 0, 2000, 500, 0},
		{"middle", 750, 2000, 500, 50},
		{"bottom", 1500, 2000, 500, 100},
		{"past bottom clamps", 1800, 2000, 500, 100},
		{"negative clamps", -50, 2000, 500, 0},
		{"shorter than viewport", 0, 300, 500, 100},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(tt.scrollTop, tt.total, tt.viewportH))
		})
	}
}

func TestAtBottom(t *testing.T) {
	// 2000 total, 500 viewport: bottom is scrollTop 1500, threshold 100.
	assert.False(t, AtBottom(1400, 2000, 500))
	assert.True(t, AtBottom(1401, 2000, 500))
	assert.True(t, AtBottom(1500, 2000, 500))
}

func TestObserveEndFiresOnce(t *testing.T) {
	tr := New()
	now := time.Now()

	ev := tr.Observe(now, 1500, 2000, 500, 10, 10, nil)
	assert.True(t, ev.ReachedEnd)

	// Still at the bottom: latched, no second event.
	ev = tr.Observe(now.Add(time.Second), 1500, 2000, 500, 10, 10, nil)
	assert.False(t, ev.ReachedEnd)

	// Scroll away, come back: re-armed.
	tr.Observe(now.Add(2*time.Second), 200, 2000, 500, 10, 10, nil)
	ev = tr.Observe(now.Add(3*time.Second), 1500, 2000, 500, 10, 10, nil)
	assert.True(t, ev.ReachedEnd)
}

func TestObserveEndNeedsAllPagesRendered(t *testing.T) {
	tr := New()
	now := time.Now()

	// At the bottom, but only 4 of 10 pages have surfaces.
	ev := tr.Observe(now, 1500, 2000, 500, 4, 10, nil)
	assert.False(t, ev.ReachedEnd)

	// The latch must not have been consumed by the partial state.
	ev = tr.Observe(now.Add(time.Second), 1500, 2000, 500, 10, 10, nil)
	assert.True(t, ev.ReachedEnd)
}

func TestObserveEmptyDocumentNeverEnds(t *testing.T) {
	tr := New()
	ev := tr.Observe(time.Now(), 0, 0, 500, 0, 0, nil)
	assert.False(t, ev.ReachedEnd)
}

func TestObserveInferThrottle(t *testing.T) {
	tr := New()
	now := time.Now()
	calls := 0
	mostVisible := func() int {
		calls++
		return 3
	}

	ev := tr.Observe(now, 100, 2000, 500, 10, 10, mostVisible)
	assert.Equal(t, 3, ev.InferredPage)

	// Inside the throttle window: no call, zero page.
	ev = tr.Observe(now.Add(PageInferThrottle/2), 200, 2000, 500, 10, 10, mostVisible)
	assert.Equal(t, 0, ev.InferredPage)
	assert.Equal(t, 1, calls)

	ev = tr.Observe(now.Add(PageInferThrottle), 300, 2000, 500, 10, 10, mostVisible)
	assert.Equal(t, 3, ev.InferredPage)
	assert.Equal(t, 2, calls)
}

func TestObserveResetRearms(t *testing.T) {
	tr := New()
	now := time.Now()

	ev := tr.Observe(now, 1500, 2000, 500, 10, 10, nil)
	assert.True(t, ev.ReachedEnd)

	tr.Reset()
	ev = tr.Observe(now.Add(time.Millisecond), 1500, 2000, 500, 10, 10, nil)
	assert.True(t, ev.ReachedEnd)
}

func TestChromeHideAfterScrollDown(t *testing.T) {
	c := NewChrome()
	now := time.Now()

	assert.True(t, c.Visible(now))

	// First observation only sets the anchor.
	c.OnScroll(now, 0)
	assert.True(t, c.Visible(now))

	// Below the arming distance: nothing happens.
	c.OnScroll(now, ChromeHideScrollPx-1)
	assert.True(t, c.Visible(now.Add(time.Second)))

	c.OnScroll(now, ChromeHideScrollPx)
	assert.True(t, c.Visible(now), "hide is delayed, not instant")
	assert.False(t, c.Visible(now.Add(ChromeHideDelay)))
}

func TestChromeScrollUpRevealsInstantly(t *testing.T) {
	c := NewChrome()
	now := time.Now()

	c.OnScroll(now, 0)
	c.OnScroll(now, 500)
	assert.False(t, c.Visible(now.Add(ChromeHideDelay)))

	c.OnScroll(now.Add(ChromeHideDelay), 480)
	assert.True(t, c.Visible(now.Add(ChromeHideDelay)))
}

func TestChromePointerTopPins(t *testing.T) {
	c := NewChrome()
	now := time.Now()

	c.OnScroll(now, 0)
	c.OnPointerTop(now)

	// Scrolling down inside the pinned window must not hide.
	c.OnScroll(now.Add(time.Second), 500)
	assert.True(t, c.Visible(now.Add(2*time.Second)))

	// After the pin expires the same scroll arms the hide again.
	late := now.Add(ChromeForceShowFor + time.Second)
	c.OnScroll(late, 1000)
	assert.False(t, c.Visible(late.Add(ChromeHideDelay)))
}

func TestChromeToggle(t *testing.T) {
	c := NewChrome()
	now := time.Now()

	c.Toggle()
	assert.False(t, c.Visible(now))
	c.Toggle()
	assert.True(t, c.Visible(now))
}
