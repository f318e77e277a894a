package source

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyByStatus(t *testing.T) {
	base := fmt.Errorf("boom")
	tests := []struct {
		name   string
		status int
		want   ErrorKind
	}{
		{"not found", 404, ErrNotFound},
		{"unauthorized", 401, ErrForbidden},
		{"forbidden", 403, ErrForbidden},
		{"server error", 500, ErrServer},
		{"bad gateway", 502, ErrServer},
		{"no status", 0, ErrGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			le := Classify(base, tt.status)
			assert.Equal(t, tt.want, le.Kind)
			assert.ErrorIs(t, le, base)
		})
	}
}

func TestClassifyTimeout(t *testing.T) {
	le := Classify(fmt.Errorf("fetch: %w", context.DeadlineExceeded), 0)
	assert.Equal(t, ErrTimeout, le.Kind)
}

func TestClassifyPassesThroughLoadError(t *testing.T) {
	orig := NewLoadError(ErrInvalidDocument, errors.New("bad header"))
	le := Classify(fmt.Errorf("wrapped: %w", orig), 0)
	assert.Same(t, orig, le)
}

func TestErrorKindMessages(t *testing.T) {
	kinds := []ErrorKind{ErrGeneric, ErrNetwork, ErrInvalidDocument, ErrNotFound, ErrForbidden, ErrServer, ErrTimeout}
	seen := map[string]bool{}
	for _, k := range kinds {
		msg := k.Message()
		assert.NotEmpty(t, msg)
		assert.False(t, seen[msg], "each kind has a distinct message")
		seen[msg] = true
	}
}

func TestNewImageListEmpty(t *testing.T) {
	_, err := NewImageList(nil, nil)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrNotFound, le.Kind)
}

func TestImageListLocalPages(t *testing.T) {
	dir := t.TempDir()
	paths := make([]string, 3)
	for i := range paths {
		p := filepath.Join(dir, fmt.Sprintf("page-%d.png", i+1))
		f, err := os.Create(p)
		require.NoError(t, err)
		img := image.NewRGBA(image.Rect(0, 0, 20+10*i, 30))
		require.NoError(t, png.Encode(f, img))
		require.NoError(t, f.Close())
		paths[i] = p
	}

	doc, err := NewImageList(paths, nil)
	require.NoError(t, err)
	defer doc.Close()

	assert.Equal(t, ImageList, doc.Kind())
	assert.Equal(t, 3, doc.PageCount())

	w, h, err := doc.PageSize(2)
	require.NoError(t, err)
	assert.Equal(t, 30.0, w)
	assert.Equal(t, 30.0, h)

	img, err := doc.DecodePage(context.Background(), 1, 1.0)
	require.NoError(t, err)
	assert.Equal(t, 20, img.Bounds().Dx())

	// Scaled decode resizes proportionally.
	img, err = doc.DecodePage(context.Background(), 1, 2.0)
	require.NoError(t, err)
	assert.Equal(t, 40, img.Bounds().Dx())

	_, err = doc.DecodePage(context.Background(), 4, 1.0)
	assert.Error(t, err)
}

func TestResolveImageListReportsCompletion(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "page.png")
	f, err := os.Create(p)
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewRGBA(image.Rect(0, 0, 5, 5))))
	require.NoError(t, f.Close())

	var pcts []int
	res, err := NewLoader(nil).Resolve(context.Background(), Options{Images: []string{p}}, func(pct int) {
		pcts = append(pcts, pct)
	})
	require.NoError(t, err)
	defer res.Doc.Close()

	assert.Equal(t, 1, res.PageCount)
	assert.Equal(t, []int{100}, pcts)
}

func TestResolveWithNothingToLoad(t *testing.T) {
	_, err := NewLoader(nil).Resolve(context.Background(), Options{}, nil)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrNotFound, le.Kind)
}

func TestResolveMissingLocalDocument(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "gone.pdf")
	_, err := NewLoader(nil).Resolve(context.Background(), Options{DocumentURL: missing}, nil)
	var le *LoadError
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrNotFound, le.Kind)

	_, err = NewLoader(nil).Resolve(context.Background(), Options{DocumentURL: "file://" + missing}, nil)
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrNotFound, le.Kind)
}

func TestIsLocalRef(t *testing.T) {
	assert.True(t, IsLocalRef("file:///tmp/chapter.pdf"))
	assert.True(t, IsLocalRef("/tmp/chapter.pdf"))
	assert.True(t, IsLocalRef("./chapter.pdf"))
	assert.False(t, IsLocalRef("https://cdn.example.com/chapter.pdf"))
	assert.False(t, IsLocalRef("http://host/x.pdf"))
}

func TestAppendRetryToken(t *testing.T) {
	got := appendRetryToken("https://host/doc.pdf", 2)
	assert.True(t, strings.HasPrefix(got, "https://host/doc.pdf?retry=2&t="))

	got = appendRetryToken("https://host/doc.pdf?sig=abc", 1)
	assert.True(t, strings.HasPrefix(got, "https://host/doc.pdf?sig=abc&retry=1&t="))
}
