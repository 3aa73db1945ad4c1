// Package openlibrary fetches author biographies from the OpenLibrary
// author API: a name search picks the best-matching author key, then the
// author detail endpoint supplies dates, biography and profile link.
// Lookups are cached by author name with negative caching for misses.
package openlibrary

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/cache"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/ratelimit"
)

// baseURL is a package variable so tests can point the client at a test server.
var baseURL = "https://openlibrary.org"

// Client queries the OpenLibrary author API.
type Client struct {
	httpClient  *http.Client
	rateLimiter *ratelimit.Limiter
	clientOnce  sync.Once
	limiterOnce sync.Once
}

// NewClient creates an OpenLibrary client.
func NewClient() *Client {
	return &Client{}
}

type cachedAuthor struct {
	Details  *catalog.AuthorDetails `json:"details"`
	NotFound bool                   `json:"not_found"`
}

type authorSearchResponse struct {
	NumFound int `json:"numFound"`
	Docs     []struct {
		Key  string `json:"key"`
		Name string `json:"name"`
	} `json:"docs"`
}

// bioText accepts OpenLibrary's two biography encodings: a plain string
// or a {"type": "/type/text", "value": "..."} object.
type bioText string

func (b *bioText) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*b = bioText(s)
		return nil
	}
	var obj struct {
		Value string `json:"value"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("unexpected bio encoding: %w", err)
	}
	*b = bioText(obj.Value)
	return nil
}

type authorDetailResponse struct {
	Name      string  `json:"name"`
	BirthDate string  `json:"birth_date"`
	DeathDate string  `json:"death_date"`
	Bio       bioText `json:"bio"`
}

// FetchAuthor returns biographical details for an author name. A name with
// no OpenLibrary match surfaces as apierr.ErrNotFound; an unreachable API
// as apierr.ErrServiceUnavailable. Nationality and sex are not provided by
// this source, so those fields stay empty and their columns stay NULL.
func (c *Client) FetchAuthor(ctx context.Context, name string) (*catalog.AuthorDetails, error) {
	if name == "" {
		return nil, fmt.Errorf("author name is required")
	}

	cached, _, err := cache.GetOrFetchWithTTL("openlibrary_cache", name, func() (*cachedAuthor, error) {
		return c.fetchFromAPI(ctx, name)
	}, cache.SelectNegativeTTL(func(r *cachedAuthor) bool {
		return r.NotFound
	}))
	if err != nil {
		return nil, err
	}

	if cached.NotFound {
		return nil, fmt.Errorf("no OpenLibrary author match for %q: %w", name, apierr.ErrNotFound)
	}
	return cached.Details, nil
}

func (c *Client) fetchFromAPI(ctx context.Context, name string) (*cachedAuthor, error) {
	limiter := c.getRateLimiter()
	if err := limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	searchURL := fmt.Sprintf("%s/search/authors.json?q=%s", baseURL, url.QueryEscape(name))
	var search authorSearchResponse
	if err := c.getJSON(ctx, searchURL, &search); err != nil {
		return nil, err
	}

	if search.NumFound == 0 || len(search.Docs) == 0 {
		return &cachedAuthor{NotFound: true}, nil
	}

	// Use the first doc (best match).
	key := search.Docs[0].Key

	detailURL := fmt.Sprintf("%s/authors/%s.json", baseURL, key)
	var detail authorDetailResponse
	if err := c.getJSON(ctx, detailURL, &detail); err != nil {
		return nil, err
	}

	return &cachedAuthor{Details: &catalog.AuthorDetails{
		BirthDate:  detail.BirthDate,
		DeathDate:  detail.DeathDate,
		Bio:        string(detail.Bio),
		AuthorLink: fmt.Sprintf("https://openlibrary.org/authors/%s", key),
	}}, nil
}

func (c *Client) getJSON(ctx context.Context, url string, target any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return fmt.Errorf("openlibrary request: %w: %v", apierr.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("openlibrary returned status %d: %w", resp.StatusCode, apierr.ErrServiceUnavailable)
	}

	if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
		return fmt.Errorf("decoding openlibrary response: %w", err)
	}
	return nil
}

func (c *Client) getHTTPClient() *http.Client {
	c.clientOnce.Do(func() {
		c.httpClient = &http.Client{Timeout: 10 * time.Second}
	})
	return c.httpClient
}

func (c *Client) getRateLimiter() *ratelimit.Limiter {
	c.limiterOnce.Do(func() {
		c.rateLimiter = ratelimit.New("OpenLibrary", 1)
	})
	return c.rateLimiter
}
