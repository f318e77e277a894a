package stage

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectFromEnv(t *testing.T) {
	tests := []struct {
		name string
		spec string
		want Geometry
	}{
		{"unset", "", Geometry{CellWidth: 8, CellHeight: 16, PixelRatio: 1.0}},
		{"width and height", "10x20", Geometry{CellWidth: 10, CellHeight: 20, PixelRatio: 1.0}},
		{"with ratio", "10x20@2", Geometry{CellWidth: 10, CellHeight: 20, PixelRatio: 2.0}},
		{"fractional ratio", "8x16@1.5", Geometry{CellWidth: 8, CellHeight: 16, PixelRatio: 1.5}},
		{"garbage falls back", "bogus", Geometry{CellWidth: 8, CellHeight: 16, PixelRatio: 1.0}},
		{"zero dims ignored", "0x0@0", Geometry{CellWidth: 8, CellHeight: 16, PixelRatio: 1.0}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MANGAT_CELL_PIXELS", tt.spec)
			assert.Equal(t, tt.want, Detect())
		})
	}
}

func TestQualityMultiplier(t *testing.T) {
	assert.Equal(t, 2.0, Geometry{PixelRatio: 1.0}.QualityMultiplier())
	assert.Equal(t, 2.0, Geometry{PixelRatio: 2.0}.QualityMultiplier())
	assert.Equal(t, 3.0, Geometry{PixelRatio: 3.0}.QualityMultiplier())
}

func TestViewportConversions(t *testing.T) {
	g := Geometry{CellWidth: 10, CellHeight: 20}
	assert.Equal(t, 800, g.ViewportWidth(80))
	assert.Equal(t, 480, g.ViewportHeight(24))
}

func TestTargetPageWidth(t *testing.T) {
	g := Default()
	assert.Equal(t, 500, g.TargetPageWidth(500), "narrow viewports are full bleed")
	assert.Equal(t, 767, g.TargetPageWidth(767))
	assert.Equal(t, DesktopColumnWidth, g.TargetPageWidth(768))
	assert.Equal(t, DesktopColumnWidth, g.TargetPageWidth(1920))
}
