package render

import (
	"image"
	"image/color"
	"math"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/math/fixed"
)

// Watermark appearance: translucent, tilted across the page center,
// sized relative to the page so it scales with the backing bitmap.
const (
	watermarkAngleDeg  = -15
	watermarkAlpha     = 38 // ~15% of 255
	watermarkWidthFrac = 0.055
)

var (
	watermarkFontOnce sync.Once
	watermarkFont     *opentype.Font
)

func loadWatermarkFont() *opentype.Font {
	watermarkFontOnce.Do(func() {
		f, err := opentype.Parse(gobold.TTF)
		if err != nil {
			// The embedded Go font cannot fail to parse; treat it as
			// "no watermark" rather than crashing a render.
			return
		}
		watermarkFont = f
	})
	return watermarkFont
}

// StampWatermark paints text rotated about the page center, after the
// page content, at low opacity. Failures degrade to an unstamped page.
func StampWatermark(dst *image.RGBA, text string) {
	if text == "" {
		return
	}
	f := loadWatermarkFont()
	if f == nil {
		return
	}

	b := dst.Bounds()
	sizePx := float64(b.Dx()) * watermarkWidthFrac
	if sizePx < 8 {
		sizePx = 8
	}
	face, err := opentype.NewFace(f, &opentype.FaceOptions{
		Size:    sizePx,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	if err != nil {
		return
	}
	defer face.Close()

	textW := font.MeasureString(face, text).Ceil()
	metrics := face.Metrics()
	textH := metrics.Ascent.Ceil() + metrics.Descent.Ceil()
	if textW <= 0 || textH <= 0 {
		return
	}

	// Draw the text onto its own transparent strip, then rotate the
	// strip into place; rotating glyph rasterization directly is not
	// something the font drawer offers.
	strip := image.NewRGBA(image.Rect(0, 0, textW, textH))
	drawer := &font.Drawer{
		Dst:  strip,
		Src:  image.NewUniform(color.NRGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: watermarkAlpha}),
		Face: face,
		Dot:  fixed.P(0, metrics.Ascent.Ceil()),
	}
	drawer.DrawString(text)

	theta := watermarkAngleDeg * math.Pi / 180
	sin, cos := math.Sin(theta), math.Cos(theta)
	cx := float64(b.Min.X+b.Max.X) / 2
	cy := float64(b.Min.Y+b.Max.Y) / 2
	hw := float64(textW) / 2
	hh := float64(textH) / 2

	// Rotate about the strip center, then translate the center onto
	// the page center.
	m := f64.Aff3{
		cos, -sin, cx - cos*hw + sin*hh,
		sin, cos, cy - sin*hw - cos*hh,
	}
	xdraw.BiLinear.Transform(dst, m, strip, strip.Bounds(), xdraw.Over, nil)
}
