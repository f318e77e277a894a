package sched

// Extent is one page's band in the continuous scroll column. Pages that
// have not rendered yet occupy a placeholder band at an estimated
// height, so the column has stable offsets for visibility math before
// every page is decoded.
type Extent struct {
	Page     int // 1-based
	Top      int // logical px from column top
	Height   int // logical px
	Rendered bool
}

// Layout tracks per-page extents for the continuous strategies. It is
// pure bookkeeping; the viewer owns when to consult it.
type Layout struct {
	extents []Extent
}

// NewLayout builds a column of pageCount placeholder bands, each at the
// estimated height.
func NewLayout(pageCount, estimatedHeight int) *Layout {
	if estimatedHeight < 1 {
		estimatedHeight = 1
	}
	l := &Layout{extents: make([]Extent, pageCount)}
	top := 0
	for i := range l.extents {
		l.extents[i] = Extent{Page: i + 1, Top: top, Height: estimatedHeight}
		top += estimatedHeight
	}
	return l
}

// PageCount returns the number of pages in the column.
func (l *Layout) PageCount() int { return len(l.extents) }

// SetHeight replaces a page's band height (typically when its real
// rendered height becomes known) and shifts everything below it.
func (l *Layout) SetHeight(page, height int) {
	idx := page - 1
	if idx < 0 || idx >= len(l.extents) || height < 1 {
		return
	}
	l.extents[idx].Height = height
	l.reflow()
}

// MarkRendered flags a page so the visibility window stops proposing it.
func (l *Layout) MarkRendered(page int) {
	idx := page - 1
	if idx < 0 || idx >= len(l.extents) {
		return
	}
	l.extents[idx].Rendered = true
}

// Reset returns every page to an unrendered placeholder of the given
// height. Used when the mode or scale changes and surfaces are dropped.
func (l *Layout) Reset(estimatedHeight int) {
	if estimatedHeight < 1 {
		estimatedHeight = 1
	}
	for i := range l.extents {
		l.extents[i].Rendered = false
		l.extents[i].Height = estimatedHeight
	}
	l.reflow()
}

func (l *Layout) reflow() {
	top := 0
	for i := range l.extents {
		l.extents[i].Top = top
		top += l.extents[i].Height
	}
}

// Extents returns a copy of the column bands in page order.
func (l *Layout) Extents() []Extent {
	out := make([]Extent, len(l.extents))
	copy(out, l.extents)
	return out
}

// Extent returns one page's band.
func (l *Layout) Extent(page int) (Extent, bool) {
	idx := page - 1
	if idx < 0 || idx >= len(l.extents) {
		return Extent{}, false
	}
	return l.extents[idx], true
}

// TotalHeight is the full column height in logical px.
func (l *Layout) TotalHeight() int {
	if len(l.extents) == 0 {
		return 0
	}
	last := l.extents[len(l.extents)-1]
	return last.Top + last.Height
}

// RenderedCount returns how many pages have rendered surfaces.
func (l *Layout) RenderedCount() int {
	n := 0
	for _, e := range l.extents {
		if e.Rendered {
			n++
		}
	}
	return n
}

// PendingInWindow returns the unrendered pages whose bands intersect
// the viewport extended by the lookahead margin, in page order. This is
// the visibility-observer trigger: each returned page should be
// rendered and marked so it is not proposed again.
func (l *Layout) PendingInWindow(scrollTop, viewportH, lookahead int) []int {
	lo := scrollTop - lookahead
	hi := scrollTop + viewportH + lookahead
	var pages []int
	for _, e := range l.extents {
		if e.Rendered {
			continue
		}
		if e.Top+e.Height < lo || e.Top > hi {
			continue
		}
		pages = append(pages, e.Page)
	}
	return pages
}

// MostVisible returns the page with the largest overlap with the
// viewport, or 0 for an empty layout. Ties go to the earlier page.
func (l *Layout) MostVisible(scrollTop, viewportH int) int {
	best, bestOverlap := 0, -1
	lo, hi := scrollTop, scrollTop+viewportH
	for _, e := range l.extents {
		top, bottom := e.Top, e.Top+e.Height
		overlap := min(bottom, hi) - max(top, lo)
		if overlap > bestOverlap {
			best, bestOverlap = e.Page, overlap
		}
	}
	return best
}
