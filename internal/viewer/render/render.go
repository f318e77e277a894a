// Package render turns document pages into sized pixel surfaces. It
// owns the single-in-flight invariant: a viewer issues renders through
// one Renderer, and beginning a new render cancels whatever was still
// running, with a generation token deciding whether a completion may
// still be used.
package render

import (
	"context"
	"image"
	"image/draw"
	"math"
	"sync"
	"sync/atomic"

	"github.com/hayasui/manga-t/internal/viewer/source"
	"github.com/hayasui/manga-t/internal/viewer/stage"
)

// Params carries the display inputs of a render.
type Params struct {
	Geometry   stage.Geometry
	ViewportPx int     // viewport width in logical pixels
	Scale      float64 // user zoom multiplier, 1.0 = fit
	Watermark  string  // empty = no stamp
}

// Plan is the resolved scale math for one page render.
type Plan struct {
	BaseScale     float64 // target display width / natural width
	Quality       float64 // backing oversampling factor
	DisplayWidth  int     // logical px, what layout uses
	DisplayHeight int
	BackingWidth  int // backing bitmap px
	BackingHeight int
}

// PlanPage computes the scale plan for a page of the given natural size.
// The backing bitmap is rendered at BaseScale*Scale*Quality and the
// display size divides the quality factor back out.
func PlanPage(naturalW, naturalH float64, p Params) Plan {
	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	target := float64(p.Geometry.TargetPageWidth(p.ViewportPx))
	if naturalW <= 0 {
		naturalW = 1
	}
	base := target / naturalW
	quality := p.Geometry.QualityMultiplier()
	return Plan{
		BaseScale:     base,
		Quality:       quality,
		DisplayWidth:  int(math.Round(naturalW * base * scale)),
		DisplayHeight: int(math.Round(naturalH * base * scale)),
		BackingWidth:  int(math.Round(naturalW * base * scale * quality)),
		BackingHeight: int(math.Round(naturalH * base * scale * quality)),
	}
}

// Renderer enforces at most one in-flight render per viewer instance.
type Renderer struct {
	gen    atomic.Uint64
	mu     sync.Mutex
	cancel context.CancelFunc
}

// New returns a renderer with no render in flight.
func New() *Renderer {
	return &Renderer{}
}

// Request is one render admission: a context that dies when a newer
// request preempts it, plus the generation token to check at attach.
type Request struct {
	Ctx context.Context

	r      *Renderer
	gen    uint64
	cancel context.CancelFunc
}

// Begin cancels any in-flight render and opens a new request. The
// cancellation is best-effort: an operation that already produced
// output may still complete, which is why attach sites must check
// Stale first.
func (r *Renderer) Begin(parent context.Context) *Request {
	gen := r.gen.Add(1)
	ctx, cancel := context.WithCancel(parent)

	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
	}
	r.cancel = cancel
	r.mu.Unlock()

	return &Request{Ctx: ctx, r: r, gen: gen, cancel: cancel}
}

// Stale reports whether a newer request has superseded this one. Any
// output produced by a stale request must be discarded, never attached.
func (q *Request) Stale() bool {
	return q.r.gen.Load() != q.gen
}

// Generation returns the request's token, for completion messages.
func (q *Request) Generation() uint64 { return q.gen }

// Cancel aborts this request's context explicitly, e.g. when the
// viewer unmounts before the completion message arrives.
func (q *Request) Cancel() { q.cancel() }

// Current reports whether gen is still the latest admitted render.
func (r *Renderer) Current(gen uint64) bool {
	return r.gen.Load() == gen
}

// CancelAll preempts whatever is in flight without starting a new
// render. Used on unmount and on source changes.
func (r *Renderer) CancelAll() {
	r.gen.Add(1)
	r.mu.Lock()
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.mu.Unlock()
}

// RenderPage decodes and paints a single 1-based page into a surface
// sized by the plan, stamping the watermark after the page content.
// It does not attach the surface; the caller owns the staleness check
// and the stage mutation.
func RenderPage(ctx context.Context, doc source.Document, page int, p Params) (*stage.Surface, error) {
	naturalW, naturalH, err := doc.PageSize(page)
	if err != nil {
		return nil, err
	}
	plan := PlanPage(naturalW, naturalH, p)

	scale := p.Scale
	if scale <= 0 {
		scale = 1
	}
	img, err := doc.DecodePage(ctx, page, plan.BaseScale*scale*plan.Quality)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rgba := toRGBA(img)
	if p.Watermark != "" {
		StampWatermark(rgba, p.Watermark)
	}

	return &stage.Surface{
		PageNumber:      page,
		Image:           rgba,
		DisplayWidth:    plan.DisplayWidth,
		DisplayHeight:   plan.DisplayHeight,
		PixelMultiplier: plan.Quality,
	}, nil
}

func toRGBA(img image.Image) *image.RGBA {
	if rgba, ok := img.(*image.RGBA); ok {
		return rgba
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)
	return rgba
}
