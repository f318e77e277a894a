package stage

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSurface(page int) *Surface {
	return &Surface{
		PageNumber:      page,
		Image:           image.NewRGBA(image.Rect(0, 0, 4, 4)),
		DisplayWidth:    4,
		DisplayHeight:   4,
		PixelMultiplier: 1,
	}
}

func TestAppendKeepsPageOrder(t *testing.T) {
	s := New()
	s.Mount()

	require.True(t, s.Append(testSurface(3)))
	require.True(t, s.Append(testSurface(1)))
	require.True(t, s.Append(testSurface(2)))

	assert.Equal(t, []int{1, 2, 3}, s.Pages())
	assert.Equal(t, 3, s.Count())
	assert.True(t, s.Rendered(2))
	assert.False(t, s.Rendered(4))
}

func TestAppendRefusesDuplicatePage(t *testing.T) {
	s := New()
	s.Mount()

	require.True(t, s.Append(testSurface(1)))
	assert.False(t, s.Append(testSurface(1)))
	assert.Equal(t, 1, s.Count())
}

func TestAppendRefusesWhenUnmounted(t *testing.T) {
	s := New()
	assert.False(t, s.Append(testSurface(1)))

	s.Mount()
	s.Unmount()
	assert.False(t, s.Append(testSurface(1)))
	assert.Equal(t, 0, s.Count())
}

func TestUnmountDetachesEverything(t *testing.T) {
	s := New()
	s.Mount()
	sf := testSurface(1)
	require.True(t, s.Append(sf))
	assert.True(t, sf.Attached())

	s.Unmount()
	assert.False(t, sf.Attached())
	assert.Equal(t, 0, s.Count())
	assert.False(t, s.Rendered(1))
}

func TestMountGenerationAdvances(t *testing.T) {
	s := New()
	g1 := s.Mount()
	s.Unmount()
	g2 := s.Mount()
	assert.Greater(t, g2, g1)
	assert.Equal(t, g2, s.Generation())
}

func TestRemove(t *testing.T) {
	s := New()
	s.Mount()
	sf := testSurface(1)
	require.True(t, s.Append(sf))

	assert.True(t, s.Remove(sf))
	assert.False(t, sf.Attached())
	assert.False(t, s.Rendered(1))

	// Removing again is a no-op, not an error.
	assert.False(t, s.Remove(sf))
}

func TestClearAllowsReattach(t *testing.T) {
	s := New()
	s.Mount()
	require.True(t, s.Append(testSurface(1)))
	require.True(t, s.Clear())
	assert.Equal(t, 0, s.Count())

	// The page can be attached again after a clear.
	assert.True(t, s.Append(testSurface(1)))

	s.Unmount()
	assert.False(t, s.Clear())
}

func TestSafeVariantsTolerateNil(t *testing.T) {
	assert.False(t, SafeAppend(nil, testSurface(1)))
	assert.False(t, SafeRemove(nil, nil))
	assert.False(t, SafeClear(nil))

	s := New()
	s.Mount()
	assert.False(t, SafeAppend(s, nil))
	assert.True(t, SafeAppend(s, testSurface(1)))
}

func TestSurfaceExportDisabled(t *testing.T) {
	sf := testSurface(1)
	data, err := sf.Export()
	assert.Nil(t, data)
	assert.ErrorIs(t, err, ErrExportDisabled)
}

func TestCompositePaintsVisibleBand(t *testing.T) {
	white := image.NewRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			white.Set(x, y, color.White)
		}
	}
	sf := &Surface{PageNumber: 1, Image: white, DisplayWidth: 10, DisplayHeight: 10}

	frame := Composite([]Placed{{Surface: sf, Top: 0, Height: 10}}, 0, 10, 20, 100)
	require.Equal(t, image.Rect(0, 0, 10, 20), frame.Bounds())

	r, _, _, _ := frame.At(5, 5).RGBA()
	assert.Equal(t, uint32(0xFFFF), r, "page band is painted")

	r, g, b, _ := frame.At(5, 15).RGBA()
	assert.Equal(t, uint32(0x1111), r, "below the page is background")
	assert.Equal(t, r, g)
	assert.Equal(t, g, b)
}

func TestCompositeSkipsOffscreenAndNil(t *testing.T) {
	sf := testSurface(1)
	entries := []Placed{
		{Surface: nil, Top: 0, Height: 100},
		{Surface: sf, Top: 500, Height: 4},
	}
	// Viewport covers 0..20: the real surface at 500 is offscreen.
	frame := Composite(entries, 0, 10, 20, 100)

	r, _, _, _ := frame.At(5, 5).RGBA()
	assert.Equal(t, uint32(0x1111), r)
}

func TestCompositeBrightness(t *testing.T) {
	white := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			white.Set(x, y, color.White)
		}
	}
	sf := &Surface{PageNumber: 1, Image: white, DisplayWidth: 4, DisplayHeight: 4}

	frame := Composite([]Placed{{Surface: sf, Top: 0, Height: 4}}, 0, 4, 4, 50)
	r, _, _, _ := frame.At(1, 1).RGBA()
	// 255 * 50 / 100 = 127.
	assert.Equal(t, uint32(127*0x101), r)
}
