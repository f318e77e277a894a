// Package track maps viewport scroll position to reading progress, the
// current-page signal, and the end-of-document transition. All state
// machines take the current time as an argument so tests drive the
// clock directly.
package track

import "time"

const (
	// PageInferThrottle bounds how often the current-page inference
	// runs; the percent progress signal is not throttled.
	PageInferThrottle = 500 * time.Millisecond
	// BottomThresholdPx is how close to the column bottom counts as
	// "reached the end".
	BottomThresholdPx = 100
	// ScrollStepPx is the fixed keyboard scroll delta.
	ScrollStepPx = 300
)

// Event is what one scroll observation produced.
type Event struct {
	// ReachedEnd fires exactly once per arrival at the bottom; it is
	// re-armed only after scrolling away from the bottom.
	ReachedEnd bool
	// InferredPage is the most-visible page, or 0 when the inference
	// was throttled this tick. It is display-only: committed
	// page-change events come exclusively from the end-of-document
	// transition in continuous mode.
	InferredPage int
}

// Tracker watches scroll ticks for one viewer instance.
type Tracker struct {
	lastInfer time.Time
	atBottom  bool
}

// New returns a tracker with the bottom latch unarmed.
func New() *Tracker {
	return &Tracker{}
}

// Progress converts scroll position to a 0..100 percentage of the
// scrollable range.
func Progress(scrollTop, totalHeight, viewportHeight int) int {
	scrollable := totalHeight - viewportHeight
	if scrollable <= 0 {
		return 100
	}
	pct := scrollTop * 100 / scrollable
	if pct < 0 {
		return 0
	}
	if pct > 100 {
		return 100
	}
	return pct
}

// AtBottom reports whether the viewport is within the bottom threshold.
func AtBottom(scrollTop, totalHeight, viewportHeight int) bool {
	return totalHeight-(scrollTop+viewportHeight) < BottomThresholdPx
}

// Observe processes one scroll tick. The end-of-document transition
// only fires when every page has a rendered surface, so a half-loaded
// chapter cannot report completion. mostVisible is only invoked when
// the throttle window has elapsed.
func (t *Tracker) Observe(now time.Time, scrollTop, totalHeight, viewportHeight int, renderedCount, pageCount int, mostVisible func() int) Event {
	var ev Event

	bottom := AtBottom(scrollTop, totalHeight, viewportHeight)
	if bottom && renderedCount == pageCount && pageCount > 0 {
		if !t.atBottom {
			t.atBottom = true
			ev.ReachedEnd = true
		}
	} else if !bottom {
		t.atBottom = false
	}

	if mostVisible != nil && now.Sub(t.lastInfer) >= PageInferThrottle {
		t.lastInfer = now
		ev.InferredPage = mostVisible()
	}

	return ev
}

// Reset clears the bottom latch and throttle, for source changes.
func (t *Tracker) Reset() {
	t.atBottom = false
	t.lastInfer = time.Time{}
}
