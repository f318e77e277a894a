// Package stage owns the pixel surfaces a viewer has attached and the
// compositing of those surfaces into a single terminal frame.
//
// Renders complete on background goroutines, and the hosting model can
// reset or unmount the viewer while a decode is still in flight. Every
// mutation therefore re-checks liveness under the stage lock instead of
// trusting that an earlier successful attach is still valid.
package stage

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"sort"
	"sync"
)

// ErrExportDisabled is returned by Surface.Export while the surface is
// attached to a stage. Pages are meant to be viewed, not saved; this is
// deterrence, not a security boundary.
var ErrExportDisabled = errors.New("stage: surface export is disabled")

// Surface is the painted output for one page: a backing bitmap rendered
// at quality-multiplied resolution plus the logical size it occupies.
type Surface struct {
	PageNumber      int
	Image           image.Image
	DisplayWidth    int
	DisplayHeight   int
	PixelMultiplier float64

	parent *Stage
}

// Attached reports whether the surface currently belongs to a stage.
func (sf *Surface) Attached() bool {
	return sf != nil && sf.parent != nil
}

// Export refuses to serialize a surface.
func (sf *Surface) Export() ([]byte, error) {
	return nil, ErrExportDisabled
}

// Stage is the shared container for attached surfaces. A viewer owns
// exactly one stage for its lifetime; unmounting detaches everything and
// bumps the mount generation so stale attaches are refused.
type Stage struct {
	mu       sync.Mutex
	mounted  bool
	mountGen uint64
	surfaces []*Surface
	rendered map[int]bool
}

// New returns an unmounted stage.
func New() *Stage {
	return &Stage{rendered: make(map[int]bool)}
}

// Mount makes the stage accept surfaces and returns the mount generation.
func (s *Stage) Mount() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mounted = true
	s.mountGen++
	return s.mountGen
}

// Unmount detaches all surfaces and refuses further mutation until the
// next Mount.
func (s *Stage) Unmount() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.detachAllLocked()
	s.mounted = false
}

// Generation returns the current mount generation.
func (s *Stage) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mountGen
}

// Append attaches a surface, keeping surfaces sorted by page number and
// recording the page as rendered. It returns false instead of mutating
// when the stage is unmounted, the surface is already attached, or a
// surface for the same page is already present.
func (s *Stage) Append(sf *Surface) bool {
	if s == nil || sf == nil || sf.Image == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted || sf.parent != nil {
		return false
	}
	if s.rendered[sf.PageNumber] {
		return false
	}
	sf.parent = s
	s.surfaces = append(s.surfaces, sf)
	sort.Slice(s.surfaces, func(i, j int) bool {
		return s.surfaces[i].PageNumber < s.surfaces[j].PageNumber
	})
	s.rendered[sf.PageNumber] = true
	return true
}

// Remove detaches a single surface. It returns false when the surface is
// not attached to this stage; a surface that vanished because of an
// intervening Clear or Unmount is not an error.
func (s *Stage) Remove(sf *Surface) bool {
	if s == nil || sf == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if sf.parent != s {
		return false
	}
	for i, cur := range s.surfaces {
		if cur == sf {
			s.surfaces = append(s.surfaces[:i], s.surfaces[i+1:]...)
			delete(s.rendered, sf.PageNumber)
			sf.parent = nil
			return true
		}
	}
	// Parent pointer said attached but the slice disagrees; repair and
	// report failure rather than panicking.
	sf.parent = nil
	return false
}

// Clear detaches every surface. Returns false only when the stage is
// unmounted.
func (s *Stage) Clear() bool {
	if s == nil {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.mounted {
		return false
	}
	s.detachAllLocked()
	return true
}

func (s *Stage) detachAllLocked() {
	for _, sf := range s.surfaces {
		sf.parent = nil
	}
	s.surfaces = nil
	s.rendered = make(map[int]bool)
}

// Rendered reports whether a surface for the page is attached.
func (s *Stage) Rendered(page int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rendered[page]
}

// Count returns the number of attached surfaces.
func (s *Stage) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.surfaces)
}

// Pages returns the attached page numbers in ascending order.
func (s *Stage) Pages() []int {
	s.mu.Lock()
	defer s.mu.Unlock()
	pages := make([]int, len(s.surfaces))
	for i, sf := range s.surfaces {
		pages[i] = sf.PageNumber
	}
	return pages
}

// SurfaceFor returns the attached surface for a page, or nil.
func (s *Stage) SurfaceFor(page int) *Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sf := range s.surfaces {
		if sf.PageNumber == page {
			return sf
		}
	}
	return nil
}

// Surfaces returns the attached surfaces in ascending page order.
func (s *Stage) Surfaces() []*Surface {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]*Surface, len(s.surfaces))
	copy(out, s.surfaces)
	return out
}

// SafeAppend, SafeRemove and SafeClear are the last line of defense for
// render completions racing viewer teardown: they tolerate nil values
// and swallow anything the mutation might panic with, reporting plain
// failure instead of crashing the program.

func SafeAppend(s *Stage, sf *Surface) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.Append(sf)
}

func SafeRemove(s *Stage, sf *Surface) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.Remove(sf)
}

func SafeClear(s *Stage) (ok bool) {
	defer func() {
		if recover() != nil {
			ok = false
		}
	}()
	return s.Clear()
}

// Placed positions one surface (or a placeholder gap, when Surface is
// nil) inside the scroll column.
type Placed struct {
	Surface *Surface
	Top     int // logical px from column top
	Height  int // logical px
}

// Composite paints the visible slice of the scroll column into a single
// RGBA frame of viewport size. Entries wholly outside the viewport are
// skipped; nil surfaces leave their placeholder band as background.
// Brightness is a percentage applied to painted page pixels.
func Composite(entries []Placed, scrollTop, width, height, brightness int) *image.RGBA {
	frame := image.NewRGBA(image.Rect(0, 0, width, height))
	bg := color.RGBA{R: 0x11, G: 0x11, B: 0x11, A: 0xFF}
	draw.Draw(frame, frame.Bounds(), &image.Uniform{C: bg}, image.Point{}, draw.Src)

	for _, e := range entries {
		if e.Surface == nil || e.Surface.Image == nil {
			continue
		}
		top := e.Top - scrollTop
		if top+e.Height < 0 || top > height {
			continue
		}
		// Center horizontally; the backing bitmap is already sized to
		// display dimensions by the renderer's scale math.
		x := (width - e.Surface.DisplayWidth) / 2
		if x < 0 {
			x = 0
		}
		dst := image.Rect(x, top, x+e.Surface.DisplayWidth, top+e.Surface.DisplayHeight)
		drawScaled(frame, dst, e.Surface.Image)
	}

	if brightness != 100 {
		applyBrightness(frame, brightness)
	}
	return frame
}

// drawScaled paints src into dst using nearest sampling. The backing
// bitmap is quality-multiplied, so downsampling here is what keeps the
// on-screen size at the logical display size.
func drawScaled(frame *image.RGBA, dst image.Rectangle, src image.Image) {
	sb := src.Bounds()
	dw, dh := dst.Dx(), dst.Dy()
	if dw <= 0 || dh <= 0 || sb.Dx() <= 0 || sb.Dy() <= 0 {
		return
	}
	clipped := dst.Intersect(frame.Bounds())
	for y := clipped.Min.Y; y < clipped.Max.Y; y++ {
		sy := sb.Min.Y + (y-dst.Min.Y)*sb.Dy()/dh
		for x := clipped.Min.X; x < clipped.Max.X; x++ {
			sx := sb.Min.X + (x-dst.Min.X)*sb.Dx()/dw
			frame.Set(x, y, src.At(sx, sy))
		}
	}
}

// applyBrightness scales RGB channels in place by percent/100.
func applyBrightness(frame *image.RGBA, percent int) {
	if percent < 0 {
		percent = 0
	}
	pix := frame.Pix
	for i := 0; i < len(pix); i += 4 {
		for c := 0; c < 3; c++ {
			v := int(pix[i+c]) * percent / 100
			if v > 255 {
				v = 255
			}
			pix[i+c] = uint8(v)
		}
	}
}
