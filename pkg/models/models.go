package models

import "time"

// User represents an authenticated reader account
type User struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Balance   int       `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// Manga status constants
const (
	StatusOngoing   = "ongoing"
	StatusCompleted = "completed"
	StatusHiatus    = "hiatus"
)

// Manga represents a series in the catalog
type Manga struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Title        string    `json:"title"`
	Author       string    `json:"author"`
	Description  string    `json:"description"`
	Status       string    `json:"status"`
	CoverURL     string    `json:"cover_url,omitempty"`
	Categories   []string  `json:"categories,omitempty"`
	ChapterCount int       `json:"chapter_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ChapterImage is one page of a chapter served as a discrete image
type ChapterImage struct {
	Order int    `json:"order"`
	URL   string `json:"url"`
}

// Chapter represents a single chapter of a manga. Content is either an
// ordered image list or a single multi-page document URL; Images wins
// when both are present and non-empty.
type Chapter struct {
	ID          string         `json:"id"`
	MangaSlug   string         `json:"manga_slug"`
	Title       string         `json:"title"`
	Number      int            `json:"number"`
	Images      []ChapterImage `json:"images,omitempty"`
	DocumentURL string         `json:"document_url,omitempty"`
	Price       int            `json:"price"`
	Purchased   bool           `json:"purchased"`
	PublishedAt time.Time      `json:"published_at"`
}

// HasContent reports whether the chapter has any readable pages yet.
// A chapter can exist in the catalog before its pages finish processing.
func (c *Chapter) HasContent() bool {
	return len(c.Images) > 0 || c.DocumentURL != ""
}

// FreeChapterCount is how many leading chapters are readable without purchase.
const FreeChapterCount = 3

// IsFree reports whether the chapter is readable without purchase.
// The first chapters of every series are free; ordering comes from the
// chapter list the server returns, not from this record.
func (c *Chapter) IsFree(indexInSeries int) bool {
	return indexInSeries < FreeChapterCount || c.Price == 0
}

// Readable reports whether the chapter can be opened by the current user.
func (c *Chapter) Readable(indexInSeries int) bool {
	return c.IsFree(indexInSeries) || c.Purchased
}

// MangaListResponse is the catalog listing envelope
type MangaListResponse struct {
	Manga []Manga `json:"manga"`
	Count int     `json:"count"`
	Total int     `json:"total"`
	Page  int     `json:"page"`
	Limit int     `json:"limit"`
}

// ChapterListResponse is the per-series chapter listing envelope
type ChapterListResponse struct {
	Chapters []Chapter `json:"chapters"`
	Count    int       `json:"count"`
}

// AuthResponse represents login response
type AuthResponse struct {
	Token   string `json:"token"`
	Message string `json:"message,omitempty"`
	User    User   `json:"user"`
}

// PurchaseResponse is returned after buying a chapter
type PurchaseResponse struct {
	Chapter Chapter `json:"chapter"`
	Balance int     `json:"balance"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error string `json:"error"`
}
