// Package authors implements the author biography enrichment pipeline
// backed by the OpenLibrary API.
package authors

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/openlibrary"
)

// bioFetcher is satisfied by the OpenLibrary client.
type bioFetcher interface {
	FetchAuthor(ctx context.Context, name string) (*catalog.AuthorDetails, error)
}

// EnrichResult counts the outcome of one enrichment batch.
type EnrichResult struct {
	Enriched int
	Missed   int
	Failed   int
}

func (r EnrichResult) String() string {
	return fmt.Sprintf("%d enriched, %d missed, %d failed", r.Enriched, r.Missed, r.Failed)
}

// EnrichWithParams opens the catalog at storePath and fills in biography
// details for every author that still lacks one. Lookup misses are
// counted, never fatal.
func EnrichWithParams(storePath string) (EnrichResult, error) {
	store, err := catalog.Open(storePath)
	if err != nil {
		return EnrichResult{}, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	return runEnrichment(context.Background(), store, openlibrary.NewClient())
}

func runEnrichment(ctx context.Context, store *catalog.Store, fetcher bioFetcher) (EnrichResult, error) {
	var result EnrichResult

	pending, err := store.AuthorsMissingBio()
	if err != nil {
		return result, fmt.Errorf("failed to list authors missing a bio: %w", err)
	}
	if len(pending) == 0 {
		slog.Info("No authors need enrichment")
		return result, nil
	}

	for _, author := range pending {
		details, err := fetcher.FetchAuthor(ctx, author.Name)
		if err != nil {
			switch {
			case errors.Is(err, apierr.ErrNotFound):
				slog.Warn("No OpenLibrary record for author", "name", author.Name)
				result.Missed++
			case errors.Is(err, apierr.ErrServiceUnavailable):
				slog.Warn("OpenLibrary unavailable", "name", author.Name, "error", err)
				result.Failed++
			default:
				slog.Warn("Author lookup failed", "name", author.Name, "error", err)
				result.Failed++
			}
			continue
		}

		if _, err := store.AddAuthor(author.Name, *details); err != nil {
			slog.Warn("Could not update author", "name", author.Name, "error", err)
			result.Failed++
			continue
		}

		slog.Info("Enriched author", "name", author.Name)
		result.Enriched++
	}

	return result, nil
}
