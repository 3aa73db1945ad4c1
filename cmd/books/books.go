// Package books implements the catalog import pipeline: ISBN sources,
// Google Books lookups and catalog writes.
package books

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/config"
	"github.com/GiuseppeMinardi/book-library/internal/googlebooks"
	"github.com/GiuseppeMinardi/book-library/internal/isbn"
	"github.com/GiuseppeMinardi/book-library/internal/ollama"
)

// metadataFetcher is satisfied by the Google Books client.
type metadataFetcher interface {
	FetchByISBN(ctx context.Context, isbn string) (*googlebooks.Result, error)
}

// summarizer writes a short description for a book that arrived without
// one, so it can still be embedded later. A nil summarizer disables the
// fallback.
type summarizer interface {
	Summarize(ctx context.Context, title string, authors []string) (string, error)
}

// ollamaSummarizer asks a local Ollama model to describe the book from
// its title and authors.
type ollamaSummarizer struct {
	client *ollama.Client
	model  string
}

func (s *ollamaSummarizer) Summarize(ctx context.Context, title string, authors []string) (string, error) {
	prompt := title
	if len(authors) > 0 {
		prompt = fmt.Sprintf("%s by %s", title, strings.Join(authors, ", "))
	}
	return s.client.Generate(ctx, s.model, prompt)
}

// newSummarizer builds the configured description fallback, or nil when
// no summary model is configured.
func newSummarizer() summarizer {
	if config.SummaryModel == "" {
		return nil
	}
	return &ollamaSummarizer{client: ollama.NewClient(config.OllamaURL), model: config.SummaryModel}
}

// ImportResult counts the outcome of one import batch.
type ImportResult struct {
	Added   int
	Skipped int
	Failed  int
}

func (r ImportResult) String() string {
	return fmt.Sprintf("%d added, %d skipped, %d failed", r.Added, r.Skipped, r.Failed)
}

// ImportWithParams opens the catalog at storePath and imports the given
// ISBNs. Per-ISBN problems are counted and logged, never fatal; only a
// store that cannot be opened returns an error.
func ImportWithParams(storePath string, isbns []string) (ImportResult, error) {
	store, err := catalog.Open(storePath)
	if err != nil {
		return ImportResult{}, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	return runImport(context.Background(), store, googlebooks.NewClient(), newSummarizer(), isbns), nil
}

// runImport processes one batch. A malformed ISBN or a failed metadata
// lookup skips that ISBN and the batch continues; Failed counts only
// catalog errors.
func runImport(ctx context.Context, store *catalog.Store, fetcher metadataFetcher, sum summarizer, isbns []string) ImportResult {
	var result ImportResult

	for _, raw := range isbns {
		normalized, err := isbn.NormalizeAndValidate(raw)
		if err != nil {
			slog.Warn("Skipping malformed ISBN", "isbn", raw, "error", err)
			result.Skipped++
			continue
		}

		exists, err := store.HasBook(normalized)
		if err != nil {
			slog.Warn("Could not check for existing book", "isbn", normalized, "error", err)
			result.Failed++
			continue
		}
		if exists {
			slog.Info("Book already in catalog", "isbn", normalized)
			result.Skipped++
			continue
		}

		lookup, err := fetcher.FetchByISBN(ctx, normalized)
		if err != nil {
			switch {
			case errors.Is(err, apierr.ErrNotFound):
				slog.Warn("No metadata found for ISBN, skipping", "isbn", normalized)
			case errors.Is(err, apierr.ErrServiceUnavailable):
				slog.Warn("Metadata service unavailable, skipping", "isbn", normalized, "error", err)
			default:
				slog.Warn("Metadata lookup failed, skipping", "isbn", normalized, "error", err)
			}
			result.Skipped++
			continue
		}

		fillMissingDescription(ctx, sum, lookup)

		if _, err := store.AddBook(lookup.Metadata, lookup.Authors, lookup.Categories); err != nil {
			slog.Warn("Could not store book", "isbn", normalized, "error", err)
			result.Failed++
			continue
		}

		slog.Info("Added book", "isbn", normalized, "title", lookup.Metadata.Title)
		result.Added++
	}

	return result
}

// fillMissingDescription generates a description when the lookup came
// back without one. Generation failures only log; the book is stored
// either way.
func fillMissingDescription(ctx context.Context, sum summarizer, lookup *googlebooks.Result) {
	if sum == nil || strings.TrimSpace(lookup.Metadata.Description) != "" {
		return
	}

	generated, err := sum.Summarize(ctx, lookup.Metadata.Title, lookup.Authors)
	if err != nil {
		slog.Warn("Could not generate description", "title", lookup.Metadata.Title, "error", err)
		return
	}
	if generated == "" {
		return
	}

	slog.Info("Generated description", "title", lookup.Metadata.Title)
	lookup.Metadata.Description = generated
}
