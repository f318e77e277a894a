package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hayasui/manga-t/pkg/models"
)

// Client is the HTTP client for the manga server API
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewClient creates a new API client
func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: baseURL,
		token:   token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SetToken updates the authentication token
func (c *Client) SetToken(token string) {
	c.token = token
}

// BaseURL returns the configured server URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// request makes an HTTP request to the API
func (c *Client) request(method, path string, body interface{}) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequest(method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	return c.httpClient.Do(req)
}

// parseResponse reads and unmarshals the response body
func parseResponse[T any](resp *http.Response) (T, error) {
	var result T
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return result, err
	}

	if resp.StatusCode >= 400 {
		var errResp models.ErrorResponse
		if err := json.Unmarshal(body, &errResp); err != nil {
			return result, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
		}
		return result, fmt.Errorf("%s", errResp.Error)
	}

	if err := json.Unmarshal(body, &result); err != nil {
		return result, err
	}

	return result, nil
}

// Authentication methods

// Login authenticates a user
func (c *Client) Login(username, password string) (*models.AuthResponse, error) {
	resp, err := c.request("POST", "/api/auth/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.AuthResponse](resp)
}

// GetCurrentUser returns the authenticated user, including balance
func (c *Client) GetCurrentUser() (*models.User, error) {
	resp, err := c.request("GET", "/api/auth/me", nil)
	if err != nil {
		return nil, err
	}

	result, err := parseResponse[map[string]*models.User](resp)
	if err != nil {
		return nil, err
	}
	return result["user"], nil
}

// Catalog methods

// ListManga returns a page of the manga catalog with optional filtering
func (c *Client) ListManga(page, limit int, category, search string) (*models.MangaListResponse, error) {
	params := url.Values{}
	if page > 0 {
		params.Set("page", fmt.Sprintf("%d", page))
	}
	if limit > 0 {
		params.Set("limit", fmt.Sprintf("%d", limit))
	}
	if category != "" {
		params.Set("category", category)
	}
	if search != "" {
		params.Set("search", search)
	}

	path := "/api/manga"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	resp, err := c.request("GET", path, nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.MangaListResponse](resp)
}

// GetManga returns a single series by slug
func (c *Client) GetManga(slug string) (*models.Manga, error) {
	resp, err := c.request("GET", "/api/manga/"+url.PathEscape(slug), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.Manga](resp)
}

// GetChaptersForManga returns the ordered chapter list for a series
func (c *Client) GetChaptersForManga(slug string) (*models.ChapterListResponse, error) {
	resp, err := c.request("GET", "/api/manga/"+url.PathEscape(slug)+"/chapters", nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.ChapterListResponse](resp)
}

// GetChapterByID returns a single chapter record, including its page
// image list or document URL when the caller may read it
func (c *Client) GetChapterByID(id string) (*models.Chapter, error) {
	resp, err := c.request("GET", "/api/chapters/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.Chapter](resp)
}

// PurchaseChapter buys access to a chapter from the user's balance
func (c *Client) PurchaseChapter(chapterID string) (*models.PurchaseResponse, error) {
	resp, err := c.request("POST", "/api/chapters/"+url.PathEscape(chapterID)+"/purchase", nil)
	if err != nil {
		return nil, err
	}
	return parseResponse[*models.PurchaseResponse](resp)
}

// MarkChapterAsRead records reading progress for a chapter
func (c *Client) MarkChapterAsRead(chapterID string) error {
	resp, err := c.request("POST", "/api/chapters/"+url.PathEscape(chapterID)+"/read", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("failed to mark chapter read: %s", string(body))
	}
	return nil
}

// Binary fetch methods, used by the viewer's document loader

// ProxyURL returns the same-origin proxy endpoint for a remote asset.
// The proxy normalizes headers and sidesteps origin restrictions the
// upstream CDN may apply to direct clients.
func (c *Client) ProxyURL(remote string) string {
	return c.baseURL + "/api/proxy?url=" + url.QueryEscape(remote)
}

// FetchViaProxy retrieves a remote binary asset through the server proxy
func (c *Client) FetchViaProxy(ctx context.Context, remote string) ([]byte, int, error) {
	return c.fetchBinary(ctx, c.ProxyURL(remote))
}

// FetchDirect retrieves a remote binary asset without the proxy
func (c *Client) FetchDirect(ctx context.Context, remote string) ([]byte, int, error) {
	return c.fetchBinary(ctx, remote)
}

func (c *Client) fetchBinary(ctx context.Context, u string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", u, nil)
	if err != nil {
		return nil, 0, err
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, err
	}
	if resp.StatusCode >= 400 {
		return nil, resp.StatusCode, fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, u)
	}
	return data, resp.StatusCode, nil
}

// Health checks if the server is available
func (c *Client) Health() error {
	resp, err := c.request("GET", "/health", nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != 200 {
		return fmt.Errorf("server unhealthy: status %d", resp.StatusCode)
	}
	return nil
}
