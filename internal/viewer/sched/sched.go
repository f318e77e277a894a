// Package sched decides which pages to render when. The continuous
// strategy renders a small eager window and backfills the rest as their
// placeholders scroll near the viewport; single-page mode keeps exactly
// one surface alive; render-all decodes the whole chapter in ordered
// batches.
package sched

import (
	"context"
	"sync"
	"time"

	"github.com/hayasui/manga-t/internal/viewer/stage"
)

// Strategy selects how pages are scheduled.
type Strategy int

const (
	// Continuous renders an eager window and backfills lazily.
	Continuous Strategy = iota
	// SinglePage renders only the current page.
	SinglePage
	// RenderAll renders the whole chapter up front in batches.
	RenderAll
)

// Scheduling constants.
const (
	// EagerWindow is how many leading pages continuous mode renders
	// up front, strictly in order.
	EagerWindow = 5
	// LookaheadPx triggers a placeholder's render when it comes within
	// this many logical pixels of the viewport.
	LookaheadPx = 200
	// BatchSize bounds parallel decodes in render-all mode.
	BatchSize = 5
	// ResizeDebounce is how long a resize must be quiet before the
	// current page re-renders.
	ResizeDebounce = 300 * time.Millisecond
)

// ForMode maps a configured mode name to a strategy. Unknown names get
// the continuous default.
func ForMode(mode string, renderAll bool) Strategy {
	switch mode {
	case "horizontal", "swipe":
		return SinglePage
	case "vertical":
		if renderAll {
			return RenderAll
		}
		return Continuous
	default:
		if renderAll {
			return RenderAll
		}
		return Continuous
	}
}

// EagerPages returns the pages continuous mode renders immediately,
// 1..min(EagerWindow, pageCount), in render order.
func EagerPages(pageCount int) []int {
	n := EagerWindow
	if pageCount < n {
		n = pageCount
	}
	pages := make([]int, 0, n)
	for p := 1; p <= n; p++ {
		pages = append(pages, p)
	}
	return pages
}

// Batches splits 1..pageCount into render-all batches of size
// BatchSize, preserving ascending page order.
func Batches(pageCount int) [][]int {
	var out [][]int
	for start := 1; start <= pageCount; start += BatchSize {
		end := start + BatchSize - 1
		if end > pageCount {
			end = pageCount
		}
		batch := make([]int, 0, end-start+1)
		for p := start; p <= end; p++ {
			batch = append(batch, p)
		}
		out = append(out, batch)
	}
	return out
}

// RunBatch decodes one batch's pages in parallel and returns surfaces
// in ascending page order regardless of completion order. A page whose
// render fails yields a nil slot; per-page failures are local and the
// batch carries on.
func RunBatch(ctx context.Context, pages []int, renderFn func(ctx context.Context, page int) (*stage.Surface, error)) []*stage.Surface {
	out := make([]*stage.Surface, len(pages))
	var wg sync.WaitGroup
	for i, page := range pages {
		wg.Add(1)
		go func(i, page int) {
			defer wg.Done()
			surf, err := renderFn(ctx, page)
			if err != nil {
				return
			}
			out[i] = surf
		}(i, page)
	}
	wg.Wait()
	return out
}
