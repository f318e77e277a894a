package source

import (
	"context"
	"fmt"
	"image"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// baseDPI is the resolution at which page bounds are reported, so a
// decode at scale 1.0 matches the natural page size.
const baseDPI = 72

// pdfDocument adapts a parsed PDF to the Document interface. MuPDF
// handles are not safe for concurrent use, so every call holds the
// document lock.
type pdfDocument struct {
	mu  sync.Mutex
	doc *fitz.Document
}

// NewPDFFromPath opens a document from the local filesystem.
func NewPDFFromPath(path string) (Document, error) {
	doc, err := fitz.New(path)
	if err != nil {
		return nil, NewLoadError(ErrInvalidDocument, err)
	}
	return wrapPDF(doc)
}

// NewPDFFromBytes parses a document from an in-memory payload.
func NewPDFFromBytes(data []byte) (Document, error) {
	doc, err := fitz.NewFromMemory(data)
	if err != nil {
		return nil, NewLoadError(ErrInvalidDocument, err)
	}
	return wrapPDF(doc)
}

func wrapPDF(doc *fitz.Document) (Document, error) {
	if doc.NumPage() == 0 {
		doc.Close()
		return nil, NewLoadError(ErrInvalidDocument, fmt.Errorf("document has no pages"))
	}
	return &pdfDocument{doc: doc}, nil
}

func (d *pdfDocument) Kind() Kind { return RemoteDocument }

func (d *pdfDocument) PageCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc.NumPage()
}

func (d *pdfDocument) PageSize(page int) (float64, float64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPageLocked(page); err != nil {
		return 0, 0, err
	}
	bounds, err := d.doc.Bound(page - 1)
	if err != nil {
		return 0, 0, fmt.Errorf("page %d bounds: %w", page, err)
	}
	return float64(bounds.Dx()), float64(bounds.Dy()), nil
}

func (d *pdfDocument) DecodePage(ctx context.Context, page int, scale float64) (image.Image, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.checkPageLocked(page); err != nil {
		return nil, err
	}
	if scale <= 0 {
		scale = 1
	}
	img, err := d.doc.ImageDPI(page-1, baseDPI*scale)
	if err != nil {
		return nil, fmt.Errorf("decode page %d: %w", page, err)
	}
	// The decode itself is uninterruptible; honor a cancellation that
	// landed while it ran by discarding the output.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return img, nil
}

func (d *pdfDocument) checkPageLocked(page int) error {
	if d.doc == nil {
		return fmt.Errorf("document is closed")
	}
	if page < 1 || page > d.doc.NumPage() {
		return fmt.Errorf("page %d out of range 1..%d", page, d.doc.NumPage())
	}
	return nil
}

func (d *pdfDocument) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.doc == nil {
		return nil
	}
	err := d.doc.Close()
	d.doc = nil
	return err
}
