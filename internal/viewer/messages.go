package viewer

import (
	"github.com/hayasui/manga-t/internal/viewer/render"
	"github.com/hayasui/manga-t/internal/viewer/source"
	"github.com/hayasui/manga-t/internal/viewer/stage"
)

// Messages other components listen for. The hosting view decides what
// a chapter boundary means; the viewer only announces it.

// PageChangedMsg announces a committed page transition: every page
// change in single-page modes, and reaching the end of the document in
// continuous mode. Scroll-by inference in continuous mode updates the
// header but never produces this message.
type PageChangedMsg struct {
	Page int
}

// NextChapterRequestedMsg is sent when the user navigates past the
// last page.
type NextChapterRequestedMsg struct{}

// PrevChapterRequestedMsg is sent when the user navigates before the
// first page.
type PrevChapterRequestedMsg struct{}

// Internal messages.

// docResolvedMsg carries the loader result. gen ties it to the render
// generation that admitted the load.
type docResolvedMsg struct {
	res *source.Result
	err error
	gen uint64
}

// loadTickMsg polls load progress while the loader runs.
type loadTickMsg struct{}

// surfaceReadyMsg is one finished single-page render.
type surfaceReadyMsg struct {
	surf *stage.Surface
	page int
	gen  uint64
	err  error
}

// windowStepMsg is one finished page of a continuous-mode window.
// Windows render strictly one page at a time: rest holds the pages
// still to go and done the pages this pass has already attempted, so a
// failed page is not immediately retried.
type windowStepMsg struct {
	req  *render.Request
	surf *stage.Surface
	page int
	rest []int
	done []int
	err  error
}

// batchDoneMsg is one finished render-all batch.
type batchDoneMsg struct {
	pages []int
	surfs []*stage.Surface
	idx   int
	gen   uint64
}

// resizeSettledMsg fires when a resize has been quiet for the debounce
// interval. Stale sequence numbers are ignored.
type resizeSettledMsg struct {
	seq int
}

// chromeTickMsg re-renders so a pending chrome auto-hide deadline can
// take effect.
type chromeTickMsg struct{}
