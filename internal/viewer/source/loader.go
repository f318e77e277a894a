package source

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gen2brain/go-fitz"
)

// Options selects what to load. Images and DocumentURL are mutually
// exclusive; a non-empty Images wins.
type Options struct {
	DocumentURL string
	Images      []string
	// RetryToken distinguishes manual retries so nothing upstream can
	// serve a cached failure. It is appended to remote fetches.
	RetryToken int
}

// Progress receives coarse load checkpoints (20/40/60/80/100) for a
// host progress bar.
type Progress func(percent int)

// Result is a successfully resolved document.
type Result struct {
	Doc       Document
	PageCount int
}

// Loader resolves documents. The zero value is not usable; construct
// with NewLoader.
type Loader struct {
	fetcher Fetcher
	client  *http.Client
}

// NewLoader builds a loader over the given fetcher. The fetcher may be
// nil for purely local use.
func NewLoader(fetcher Fetcher) *Loader {
	return &Loader{
		fetcher: fetcher,
		// No extra client-side timeout beyond the transport default: a
		// failed fetch surfaces immediately and retry is manual.
		client: &http.Client{},
	}
}

// Resolve produces a document from the options, reporting coarse
// progress as it advances. On failure the returned error is always a
// *LoadError.
func (l *Loader) Resolve(ctx context.Context, opts Options, progress Progress) (*Result, error) {
	report := func(pct int) {
		if progress != nil {
			progress(pct)
		}
	}

	if len(opts.Images) > 0 {
		doc, err := NewImageList(opts.Images, l.fetcher)
		if err != nil {
			return nil, Classify(err, 0)
		}
		report(100)
		return &Result{Doc: doc, PageCount: doc.PageCount()}, nil
	}

	if opts.DocumentURL == "" {
		return nil, NewLoadError(ErrNotFound, fmt.Errorf("no document URL and no images"))
	}

	report(20)
	doc, err := l.resolveRemote(ctx, opts, report)
	if err != nil {
		return nil, Classify(err, 0)
	}
	report(80)
	res := &Result{Doc: doc, PageCount: doc.PageCount()}
	report(100)
	return res, nil
}

// resolveRemote walks the fallback chain for a document URL:
//
//  1. a local path or file:// reference opens directly, no network
//  2. fetch through the same-origin proxy and parse the payload
//  3. stream the remote URL straight into the PDF library's reader
//  4. raw direct fetch with explicit headers, then parse
//
// The first success wins; the last failure is the one reported.
func (l *Loader) resolveRemote(ctx context.Context, opts Options, report Progress) (Document, error) {
	u := opts.DocumentURL

	if IsLocalRef(u) {
		path := strings.TrimPrefix(u, "file://")
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				return nil, NewLoadError(ErrNotFound, err)
			}
			return nil, Classify(err, 0)
		}
		return NewPDFFromPath(path)
	}

	fetchURL := u
	if opts.RetryToken > 0 {
		fetchURL = appendRetryToken(u, opts.RetryToken)
	}

	var lastErr error
	var lastStatus int

	if l.fetcher != nil {
		data, status, err := l.fetcher.FetchViaProxy(ctx, fetchURL)
		if err == nil {
			report(40)
			doc, perr := NewPDFFromBytes(data)
			if perr == nil {
				report(60)
				return doc, nil
			}
			lastErr = perr
		} else {
			lastErr, lastStatus = err, status
		}
	}

	if doc, err := l.openThroughReader(ctx, fetchURL); err == nil {
		report(60)
		return doc, nil
	} else if lastErr == nil {
		lastErr = err
	}

	data, status, err := l.rawFetch(ctx, fetchURL)
	if err == nil {
		report(40)
		doc, perr := NewPDFFromBytes(data)
		if perr == nil {
			report(60)
			return doc, nil
		}
		return nil, perr
	}
	if lastErr == nil {
		lastErr, lastStatus = err, status
	}
	return nil, Classify(lastErr, lastStatus)
}

// openThroughReader hands the response stream to the document parser
// without buffering the whole payload first.
func (l *Loader) openThroughReader(ctx context.Context, u string) (Document, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return nil, Classify(fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, u), resp.StatusCode)
	}
	doc, err := fitz.NewFromReader(resp.Body)
	if err != nil {
		return nil, NewLoadError(ErrInvalidDocument, err)
	}
	return wrapPDF(doc)
}

// rawFetch is the last-resort direct fetch with explicit headers.
func (l *Loader) rawFetch(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/pdf,application/octet-stream")
	req.Header.Set("Cache-Control", "no-cache")
	if l.fetcher == nil {
		resp, err := l.client.Do(req)
		if err != nil {
			return nil, 0, err
		}
		defer resp.Body.Close()
		if resp.StatusCode >= 400 {
			return nil, resp.StatusCode, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, u)
		}
		data, err := io.ReadAll(resp.Body)
		return data, resp.StatusCode, err
	}
	return l.fetcher.FetchDirect(ctx, u)
}

// IsLocalRef reports whether a URL refers to a local filesystem object,
// which can be opened with no network round-trip.
func IsLocalRef(u string) bool {
	if strings.HasPrefix(u, "file://") {
		return true
	}
	if strings.Contains(u, "://") {
		return false
	}
	_, err := os.Stat(u)
	return err == nil || strings.HasPrefix(u, "/") || strings.HasPrefix(u, "./") || strings.HasPrefix(u, "../")
}

func appendRetryToken(u string, token int) string {
	sep := "?"
	if strings.Contains(u, "?") {
		sep = "&"
	}
	return fmt.Sprintf("%s%sretry=%d&t=%d", u, sep, token, time.Now().Unix())
}
