package render

import (
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hayasui/manga-t/internal/viewer/source"
	"github.com/hayasui/manga-t/internal/viewer/stage"
)

func wideParams(viewportPx int, scale float64) Params {
	return Params{
		Geometry:   stage.Default(),
		ViewportPx: viewportPx,
		Scale:      scale,
	}
}

func TestPlanPageDesktopColumn(t *testing.T) {
	// 1000px-wide natural page in a wide viewport: fit to the 600px
	// column, backing doubled for quality.
	plan := PlanPage(1000, 1500, wideParams(1200, 1.0))

	assert.InDelta(t, 0.6, plan.BaseScale, 1e-9)
	assert.Equal(t, 2.0, plan.Quality)
	assert.Equal(t, 600, plan.DisplayWidth)
	assert.Equal(t, 900, plan.DisplayHeight)
	assert.Equal(t, 1200, plan.BackingWidth)
	assert.Equal(t, 1800, plan.BackingHeight)
}

func TestPlanPageNarrowViewportFullBleed(t *testing.T) {
	plan := PlanPage(1000, 1500, wideParams(500, 1.0))
	assert.Equal(t, 500, plan.DisplayWidth)
	assert.Equal(t, 1000, plan.BackingWidth)
}

func TestPlanPageUserZoom(t *testing.T) {
	plan := PlanPage(1000, 1500, wideParams(1200, 1.5))
	assert.Equal(t, 900, plan.DisplayWidth)
	assert.Equal(t, 1800, plan.BackingWidth)

	// Non-positive zoom falls back to fit.
	plan = PlanPage(1000, 1500, wideParams(1200, 0))
	assert.Equal(t, 600, plan.DisplayWidth)
}

func TestPlanPageDenseDisplay(t *testing.T) {
	p := wideParams(1200, 1.0)
	p.Geometry.PixelRatio = 3.0
	plan := PlanPage(1000, 1500, p)

	assert.Equal(t, 3.0, plan.Quality)
	assert.Equal(t, 600, plan.DisplayWidth, "display size ignores quality")
	assert.Equal(t, 1800, plan.BackingWidth)
}

func TestBeginSupersedesPrior(t *testing.T) {
	r := New()

	q1 := r.Begin(context.Background())
	assert.False(t, q1.Stale())
	assert.True(t, r.Current(q1.Generation()))

	q2 := r.Begin(context.Background())
	assert.True(t, q1.Stale())
	assert.Error(t, q1.Ctx.Err(), "superseded request is cancelled")
	assert.False(t, q2.Stale())
	assert.NoError(t, q2.Ctx.Err())
}

func TestCancelAll(t *testing.T) {
	r := New()
	q := r.Begin(context.Background())

	r.CancelAll()
	assert.True(t, q.Stale())
	assert.Error(t, q.Ctx.Err())
	assert.False(t, r.Current(q.Generation()))
}

func TestRequestCancel(t *testing.T) {
	r := New()
	q := r.Begin(context.Background())
	q.Cancel()
	assert.Error(t, q.Ctx.Err())
	// Explicit cancel kills the context but not the admission; the
	// caller decides whether to begin a replacement.
	assert.False(t, q.Stale())
}

// fixedDoc is a single-size in-memory document.
type fixedDoc struct {
	w, h float64
}

func (d *fixedDoc) Kind() source.Kind { return source.ImageList }
func (d *fixedDoc) PageCount() int    { return 1 }
func (d *fixedDoc) Close() error      { return nil }

func (d *fixedDoc) PageSize(page int) (float64, float64, error) {
	return d.w, d.h, nil
}

func (d *fixedDoc) DecodePage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return image.NewRGBA(image.Rect(0, 0, int(d.w*scale), int(d.h*scale))), nil
}

func TestRenderPageProducesPlannedSurface(t *testing.T) {
	doc := &fixedDoc{w: 1000, h: 1500}
	surf, err := RenderPage(context.Background(), doc, 1, wideParams(1200, 1.0))
	require.NoError(t, err)

	assert.Equal(t, 1, surf.PageNumber)
	assert.Equal(t, 600, surf.DisplayWidth)
	assert.Equal(t, 900, surf.DisplayHeight)
	assert.Equal(t, 2.0, surf.PixelMultiplier)
	assert.Equal(t, 1200, surf.Image.Bounds().Dx())
	assert.False(t, surf.Attached())
}

func TestRenderPageHonorsCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RenderPage(ctx, &fixedDoc{w: 100, h: 100}, 1, wideParams(1200, 1.0))
	assert.Error(t, err)
}

func TestWatermarkChangesPixels(t *testing.T) {
	plain := image.NewRGBA(image.Rect(0, 0, 400, 600))
	stamped := image.NewRGBA(image.Rect(0, 0, 400, 600))
	StampWatermark(stamped, "reader@example.com")

	assert.NotEqual(t, plain.Pix, stamped.Pix)
}
