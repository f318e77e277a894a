package styles

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTruncateText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "One Piece", 20, "One Piece"},
		{"exact", "One Piece", 9, "One Piece"},
		{"truncated", "One Piece Chapter 1045", 12, "One Piece C…"},
		{"zero width", "One Piece", 0, ""},
		{"wide runes", "ワンピース", 5, "ワン…"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, TruncateText(tt.in, tt.width))
		})
	}
}

func TestGetThemeFallsBack(t *testing.T) {
	assert.Equal(t, "dark", GetTheme("no-such-theme").Name)
	assert.Equal(t, "nord", GetTheme("nord").Name)
}

func TestNextThemeCycles(t *testing.T) {
	SetCurrentTheme("dark")
	seen := map[string]bool{}
	for range BuiltinThemes {
		seen[NextTheme()] = true
	}
	assert.Len(t, seen, len(BuiltinThemes))
	assert.Equal(t, "dark", CurrentTheme().Name)
	SetCurrentTheme("dark")
}
