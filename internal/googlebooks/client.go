// Package googlebooks fetches book metadata by ISBN from the Google Books
// volumes API. Responses are cached in the SQLite response cache (with
// negative caching for unknown ISBNs) and requests are rate limited.
package googlebooks

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/cache"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/config"
	"github.com/GiuseppeMinardi/book-library/internal/ratelimit"
)

// baseURL is a package variable so tests can point the client at a test server.
var baseURL = "https://www.googleapis.com/books/v1"

// Result is one normalized Google Books lookup: the flattened volume
// metadata plus the author and category name lists used for linking.
type Result struct {
	Metadata   catalog.BookMetadata `json:"metadata"`
	Authors    []string             `json:"authors"`
	Categories []string             `json:"categories"`
}

// Client queries the Google Books API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	clientOnce  sync.Once
	limiterOnce sync.Once
}

// NewClient creates a Google Books client.
func NewClient() *Client {
	return &Client{}
}

// cachedResult wraps a lookup with a not-found marker so misses are
// cacheable too.
type cachedResult struct {
	Result   *Result `json:"result"`
	NotFound bool    `json:"not_found"`
}

// volumesResponse matches the Google Books API response structure.
type volumesResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		VolumeInfo struct {
			Title         string   `json:"title"`
			Authors       []string `json:"authors"`
			Publisher     string   `json:"publisher"`
			PublishedDate string   `json:"publishedDate"`
			Description   string   `json:"description"`
			PageCount     int      `json:"pageCount"`
			Categories    []string `json:"categories"`
			PrintType     string   `json:"printType"`
			Language      string   `json:"language"`
			InfoLink      string   `json:"infoLink"`
			ImageLinks    struct {
				Thumbnail      string `json:"thumbnail"`
				SmallThumbnail string `json:"smallThumbnail"`
			} `json:"imageLinks"`
		} `json:"volumeInfo"`
	} `json:"items"`
}

// FetchByISBN returns the metadata for a normalized ISBN. A missing ISBN
// surfaces as apierr.ErrNotFound; an unreachable API as
// apierr.ErrServiceUnavailable. The raw response is cached by ISBN so
// retries do not refetch.
func (c *Client) FetchByISBN(ctx context.Context, isbn string) (*Result, error) {
	if isbn == "" {
		return nil, apierr.NewMalformedISBNError(isbn)
	}

	cached, _, err := cache.GetOrFetchWithTTL("googlebooks_cache", isbn, func() (*cachedResult, error) {
		return c.fetchFromAPI(ctx, isbn)
	}, cache.SelectNegativeTTL(func(r *cachedResult) bool {
		return r.NotFound
	}))
	if err != nil {
		return nil, err
	}

	if cached.NotFound {
		return nil, fmt.Errorf("no Google Books match for ISBN %s: %w", isbn, apierr.ErrNotFound)
	}
	return cached.Result, nil
}

func (c *Client) fetchFromAPI(ctx context.Context, isbn string) (*cachedResult, error) {
	limiter := c.getRateLimiter()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	url := fmt.Sprintf("%s/volumes?q=isbn:%s", baseURL, isbn)
	if apiKey := config.GoogleBooksAPIKey; apiKey != "" {
		url = fmt.Sprintf("%s&key=%s", url, apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("google books request for ISBN %s: %w: %v", isbn, apierr.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("google books returned status %d for ISBN %s: %w", resp.StatusCode, isbn, apierr.ErrServiceUnavailable)
	}

	var result volumesResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding google books response for ISBN %s: %w", isbn, err)
	}

	if result.TotalItems == 0 || len(result.Items) == 0 {
		return &cachedResult{NotFound: true}, nil
	}

	// Use the first item (best match).
	vol := result.Items[0].VolumeInfo

	thumbnail := vol.ImageLinks.Thumbnail
	if thumbnail == "" {
		thumbnail = vol.ImageLinks.SmallThumbnail
	}
	if thumbnail != "" {
		// Remove zoom parameter for higher quality.
		thumbnail = strings.Replace(thumbnail, "zoom=1", "zoom=0", 1)
	}

	return &cachedResult{Result: &Result{
		Metadata: catalog.BookMetadata{
			ISBN:          isbn,
			Title:         vol.Title,
			Publisher:     vol.Publisher,
			PublishedDate: vol.PublishedDate,
			Description:   vol.Description,
			PageCount:     vol.PageCount,
			PrintType:     vol.PrintType,
			Language:      vol.Language,
			InfoLink:      vol.InfoLink,
			Thumbnail:     thumbnail,
		},
		Authors:    vol.Authors,
		Categories: vol.Categories,
	}}, nil
}

func (c *Client) getHTTPClient() *http.Client {
	c.clientOnce.Do(func() {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	})
	return c.httpClient
}

func (c *Client) getRateLimiter() *ratelimit.Limiter {
	c.limiterOnce.Do(func() {
		c.rateLimiter = ratelimit.New("GoogleBooks", 1)
	})
	return c.rateLimiter
}
