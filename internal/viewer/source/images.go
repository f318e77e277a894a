package source

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"sync"

	"github.com/nfnt/resize"
	_ "golang.org/x/image/webp"
)

// imageListDocument is a virtual document over an ordered list of page
// image URLs. Resolution is synchronous (page count is the list length);
// each page's bytes are fetched and decoded lazily on first use, then
// cached for the life of the chapter.
type imageListDocument struct {
	urls    []string
	fetcher Fetcher

	mu    sync.Mutex
	cache map[int]image.Image
}

// NewImageList builds a document over page image URLs. The fetcher may
// be nil when every URL is a local path.
func NewImageList(urls []string, fetcher Fetcher) (Document, error) {
	if len(urls) == 0 {
		return nil, NewLoadError(ErrNotFound, fmt.Errorf("empty image list"))
	}
	return &imageListDocument{
		urls:    urls,
		fetcher: fetcher,
		cache:   make(map[int]image.Image),
	}, nil
}

func (d *imageListDocument) Kind() Kind     { return ImageList }
func (d *imageListDocument) PageCount() int { return len(d.urls) }

func (d *imageListDocument) PageSize(page int) (float64, float64, error) {
	img, err := d.pageImage(context.Background(), page)
	if err != nil {
		return 0, 0, err
	}
	b := img.Bounds()
	return float64(b.Dx()), float64(b.Dy()), nil
}

func (d *imageListDocument) DecodePage(ctx context.Context, page int, scale float64) (image.Image, error) {
	img, err := d.pageImage(ctx, page)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if scale <= 0 || scale == 1 {
		return img, nil
	}
	b := img.Bounds()
	w := uint(float64(b.Dx()) * scale)
	if w == 0 {
		w = 1
	}
	return resize.Resize(w, 0, img, resize.Lanczos3), nil
}

// pageImage returns the decoded image for a 1-based page, fetching and
// caching it on first use.
func (d *imageListDocument) pageImage(ctx context.Context, page int) (image.Image, error) {
	if page < 1 || page > len(d.urls) {
		return nil, fmt.Errorf("page %d out of range 1..%d", page, len(d.urls))
	}

	d.mu.Lock()
	if img, ok := d.cache[page]; ok {
		d.mu.Unlock()
		return img, nil
	}
	d.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, status, err := d.fetchPage(ctx, d.urls[page-1])
	if err != nil {
		return nil, Classify(err, status)
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, NewLoadError(ErrInvalidDocument, fmt.Errorf("page %d: %w", page, err))
	}

	d.mu.Lock()
	d.cache[page] = img
	d.mu.Unlock()
	return img, nil
}

// fetchPage loads one page's bytes: local paths read directly, remote
// URLs go through the proxy first with a direct fallback.
func (d *imageListDocument) fetchPage(ctx context.Context, u string) ([]byte, int, error) {
	if IsLocalRef(u) {
		data, err := os.ReadFile(strings.TrimPrefix(u, "file://"))
		return data, 0, err
	}
	if d.fetcher == nil {
		return nil, 0, fmt.Errorf("no fetcher for remote image %s", u)
	}
	data, status, err := d.fetcher.FetchViaProxy(ctx, u)
	if err == nil {
		return data, status, nil
	}
	return d.fetcher.FetchDirect(ctx, u)
}

func (d *imageListDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.cache = make(map[int]image.Image)
	return nil
}
