package stage

import (
	"os"
	"strconv"
	"strings"
)

// Desktop-style column cap, in logical pixels. Wide terminals render
// pages into a fixed-width column; narrow ones get the full viewport.
const DesktopColumnWidth = 600

// NarrowViewportWidth is the logical width below which the viewer is
// treated as a narrow (full-bleed) viewport.
const NarrowViewportWidth = 768

// Geometry describes the terminal's cell-to-pixel mapping. It is
// resolved once at program start, not at import time, so tests can
// construct whatever geometry they need.
type Geometry struct {
	CellWidth  int     // pixels per terminal column
	CellHeight int     // pixels per terminal row
	PixelRatio float64 // device pixel ratio analogue
}

// Default returns a conservative geometry for terminals that do not
// report pixel sizes.
func Default() Geometry {
	return Geometry{CellWidth: 8, CellHeight: 16, PixelRatio: 1.0}
}

// Detect resolves geometry from the MANGAT_CELL_PIXELS override
// ("WxH[@ratio]", e.g. "10x20@2") or falls back to Default.
func Detect() Geometry {
	g := Default()
	spec := os.Getenv("MANGAT_CELL_PIXELS")
	if spec == "" {
		return g
	}
	ratioPart := ""
	if at := strings.IndexByte(spec, '@'); at >= 0 {
		ratioPart = spec[at+1:]
		spec = spec[:at]
	}
	parts := strings.SplitN(spec, "x", 2)
	if len(parts) == 2 {
		if w, err := strconv.Atoi(parts[0]); err == nil && w > 0 {
			g.CellWidth = w
		}
		if h, err := strconv.Atoi(parts[1]); err == nil && h > 0 {
			g.CellHeight = h
		}
	}
	if ratioPart != "" {
		if r, err := strconv.ParseFloat(ratioPart, 64); err == nil && r > 0 {
			g.PixelRatio = r
		}
	}
	return g
}

// QualityMultiplier is the backing-bitmap oversampling factor: at least
// 2x so pages stay sharp on dense displays, higher when the terminal
// reports a denser ratio.
func (g Geometry) QualityMultiplier() float64 {
	if g.PixelRatio > 2 {
		return g.PixelRatio
	}
	return 2
}

// ViewportWidth converts a column count to logical pixels.
func (g Geometry) ViewportWidth(cols int) int {
	return cols * g.CellWidth
}

// ViewportHeight converts a row count to logical pixels.
func (g Geometry) ViewportHeight(rows int) int {
	return rows * g.CellHeight
}

// TargetPageWidth computes the display width for a page: full-bleed on
// narrow viewports, the fixed desktop column otherwise.
func (g Geometry) TargetPageWidth(viewportPx int) int {
	if viewportPx < NarrowViewportWidth {
		return viewportPx
	}
	return DesktopColumnWidth
}
