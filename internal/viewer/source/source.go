// Package source resolves a chapter's content into a page-by-page
// decodable document, from either a remote multi-page PDF or an ordered
// list of page image URLs.
package source

import (
	"context"
	"image"
)

// Kind identifies what backs a document.
type Kind int

const (
	// RemoteDocument is a parsed multi-page document (PDF).
	RemoteDocument Kind = iota
	// ImageList is a virtual document over discrete page images.
	ImageList
)

// String returns a short name for the kind.
func (k Kind) String() string {
	if k == ImageList {
		return "images"
	}
	return "document"
}

// Document is a resolved, decodable multi-page source. A document is
// created once per chapter load, owned exclusively by one viewer, and
// closed when that viewer unmounts or its source changes.
//
// Implementations must be safe for use from the viewer's render
// goroutine; they are not required to support concurrent decodes.
type Document interface {
	Kind() Kind
	PageCount() int
	// PageSize returns the natural (unscaled) dimensions of a 1-based
	// page, in logical pixels.
	PageSize(page int) (w, h float64, err error)
	// DecodePage rasterizes a 1-based page at the given scale relative
	// to its natural size.
	DecodePage(ctx context.Context, page int, scale float64) (image.Image, error)
	Close() error
}

// Fetcher retrieves remote binary assets. The API client satisfies it;
// tests substitute their own. The context bounds the whole fetch, so a
// superseded or unmounted load cancels its network work instead of
// letting it run to a discarded completion.
type Fetcher interface {
	// FetchViaProxy retrieves a URL through the server's same-origin
	// proxy endpoint. Returns body bytes and the HTTP status.
	FetchViaProxy(ctx context.Context, url string) ([]byte, int, error)
	// FetchDirect retrieves a URL without the proxy.
	FetchDirect(ctx context.Context, url string) ([]byte, int, error)
}
