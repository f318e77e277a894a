// Package terminal detects the terminal's image protocol and encodes
// frames for it. Detection runs once at program start; everything else
// is pure encoding.
package terminal

import (
	"bytes"
	"fmt"
	"image"
	"image/color/palette"
	"image/draw"

	"github.com/BourgeoisBear/rasterm"
)

// TermImageMode represents the terminal's image display capability
type TermImageMode int

const (
	// TermModeNone indicates no image support
	TermModeNone TermImageMode = iota
	// TermModeKitty indicates Kitty graphics protocol support
	TermModeKitty
	// TermModeIterm indicates iTerm2 graphics protocol support
	TermModeIterm
	// TermModeSixel indicates Sixel graphics protocol support
	TermModeSixel
)

// PageImageID is a stable ID for the reader's page frame (for Kitty
// protocol), so each new frame replaces the previous one in place.
const PageImageID uint32 = 2741

// String returns a human-readable name for the terminal mode
func (m TermImageMode) String() string {
	switch m {
	case TermModeKitty:
		return "Kitty"
	case TermModeIterm:
		return "iTerm2"
	case TermModeSixel:
		return "Sixel"
	default:
		return "None"
	}
}

// DetectTerminalMode checks which image protocol the terminal supports
func DetectTerminalMode() TermImageMode {
	if rasterm.IsKittyCapable() {
		return TermModeKitty
	}

	if rasterm.IsItermCapable() {
		return TermModeIterm
	}

	if capable, _ := rasterm.IsSixelCapable(); capable {
		return TermModeSixel
	}

	return TermModeNone
}

// ImageToPaletted converts an image to the paletted form Sixel requires
func ImageToPaletted(img image.Image) *image.Paletted {
	bounds := img.Bounds()
	paletted := image.NewPaletted(bounds, palette.Plan9)
	draw.Draw(paletted, bounds, img, bounds.Min, draw.Src)
	return paletted
}

// RenderImageToString encodes an image as the escape string that
// displays it. For Kitty, an optional image ID allows targeted
// replacement and clearing.
func RenderImageToString(img image.Image, mode TermImageMode, kittyID ...uint32) (string, error) {
	var buf bytes.Buffer
	var renderErr error

	switch mode {
	case TermModeKitty:
		opts := rasterm.KittyImgOpts{}
		if len(kittyID) > 0 {
			opts.ImageId = kittyID[0]
		}
		renderErr = rasterm.KittyWriteImage(&buf, img, opts)
	case TermModeIterm:
		renderErr = rasterm.ItermWriteImage(&buf, img)
	case TermModeSixel:
		// Encode into the buffer, not stdout, so bubbletea owns all
		// terminal writes.
		paletted := ImageToPaletted(img)
		renderErr = rasterm.SixelWriteImage(&buf, paletted)
	default:
		return "", nil // no-op for unsupported terminals
	}

	if renderErr != nil {
		return "", renderErr
	}
	return buf.String(), nil
}

// SupportsImages returns true if the terminal supports any image protocol
func SupportsImages() bool {
	return DetectTerminalMode() != TermModeNone
}

// ClearPageImage returns the escape sequence that clears the reader's
// page frame without disturbing the rest of the screen.
func ClearPageImage(mode TermImageMode) string {
	switch mode {
	case TermModeKitty:
		// Delete by ID; other UI elements are untouched.
		return fmt.Sprintf("\x1b_Ga=d,i=%d\x1b\\", PageImageID)
	case TermModeIterm, TermModeSixel:
		// These protocols tie images to the character grid. Clear from
		// line 2 (below the header) to the end of the screen.
		return "\x1b[2;1H\x1b[J"
	default:
		return ""
	}
}

// ClearImages returns the escape sequence to clear all terminal images.
// Printed before switching away from views that display pages.
func ClearImages(mode TermImageMode) string {
	switch mode {
	case TermModeKitty:
		// a=d (action=delete), d=A (delete all images)
		return "\x1b_Ga=d,d=A\x1b\\"
	case TermModeIterm, TermModeSixel:
		// Inline images live in the text buffer; a screen clear removes
		// them.
		return "\x1b[2J\x1b[H"
	default:
		return ""
	}
}
