// Package embeddings implements the embedding pipeline: it walks books
// with a description and authors with a biography, asks Ollama for a
// vector per configured model and stores the result.
package embeddings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/embedding"
	"github.com/GiuseppeMinardi/book-library/internal/ollama"
)

// embedder is satisfied by the Ollama client.
type embedder interface {
	Embed(ctx context.Context, modelName, text string) ([]float32, error)
}

// EmbedResult counts the outcome of one embedding batch.
type EmbedResult struct {
	Embedded int
	Skipped  int
	Failed   int
}

func (r EmbedResult) String() string {
	return fmt.Sprintf("%d embedded, %d skipped, %d failed", r.Embedded, r.Skipped, r.Failed)
}

// entityText is one candidate row: an entity id plus the text to embed.
type entityText struct {
	ID   string
	Text string
}

// EmbedWithParams opens the catalog at storePath and computes missing
// embeddings for every model in models against the Ollama server at
// ollamaURL. Already-embedded (entity, model) pairs are left untouched,
// so a re-run is a no-op.
func EmbedWithParams(storePath, ollamaURL string, models []string) (EmbedResult, error) {
	store, err := catalog.Open(storePath)
	if err != nil {
		return EmbedResult{}, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer func() { _ = store.Close() }()

	emb, err := embedding.NewStore(store.DB())
	if err != nil {
		return EmbedResult{}, fmt.Errorf("failed to open embedding store: %w", err)
	}

	return runEmbedding(context.Background(), store, emb, ollama.NewClient(ollamaURL), models)
}

func runEmbedding(ctx context.Context, store *catalog.Store, emb *embedding.Store, client embedder, models []string) (EmbedResult, error) {
	var result EmbedResult

	for _, model := range models {
		books, err := pendingBooks(store, model)
		if err != nil {
			return result, err
		}
		authors, err := pendingAuthors(store, model)
		if err != nil {
			return result, err
		}

		slog.Info("Computing embeddings", "model", model, "books", len(books), "authors", len(authors))

		stop := embedBatch(ctx, emb, client, embedding.KindBook, model, books, &result)
		if stop {
			continue
		}
		embedBatch(ctx, emb, client, embedding.KindAuthor, model, authors, &result)
	}

	return result, nil
}

// embedBatch embeds one entity list for one model. It reports true when
// the model should be abandoned for this run (unknown model or a dead
// service), so the caller can move on to the next model.
func embedBatch(ctx context.Context, emb *embedding.Store, client embedder, kind embedding.EntityKind, model string, entities []entityText, result *EmbedResult) bool {
	for _, entity := range entities {
		if entity.Text == "" {
			result.Skipped++
			continue
		}

		vec, err := client.Embed(ctx, model, entity.Text)
		if err != nil {
			switch {
			case errors.Is(err, apierr.ErrModelNotFound):
				slog.Warn("Model not available on Ollama server", "model", model)
				return true
			case errors.Is(err, apierr.ErrServiceUnavailable):
				slog.Warn("Ollama unreachable, abandoning model for this run", "model", model, "error", err)
				result.Failed++
				return true
			default:
				slog.Warn("Embedding failed", "model", model, "id", entity.ID, "error", err)
				result.Failed++
				continue
			}
		}

		if err := emb.Add(kind, entity.ID, model, vec); err != nil {
			slog.Warn("Could not store embedding", "model", model, "id", entity.ID, "error", err)
			result.Failed++
			continue
		}
		result.Embedded++
	}
	return false
}

// pendingBooks lists books that still lack a (book, model) embedding.
// Text may come back empty when the book has no description.
func pendingBooks(store *catalog.Store, model string) ([]entityText, error) {
	return pendingEntities(store, `
		SELECT b.id, COALESCE(b.description, '')
		FROM books b
		LEFT JOIN book_embeddings e ON e.book_id = b.id AND e.model_name = ?
		WHERE e.book_id IS NULL
		ORDER BY b.title`, model)
}

// pendingAuthors lists authors that still lack an (author, model) embedding.
func pendingAuthors(store *catalog.Store, model string) ([]entityText, error) {
	return pendingEntities(store, `
		SELECT a.id, COALESCE(a.bio, '')
		FROM authors a
		LEFT JOIN author_embeddings e ON e.author_id = a.id AND e.model_name = ?
		WHERE e.author_id IS NULL
		ORDER BY a.name`, model)
}

func pendingEntities(store *catalog.Store, query, model string) ([]entityText, error) {
	rows, err := store.DB().Query(query, model)
	if err != nil {
		return nil, fmt.Errorf("failed to list embedding candidates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entities []entityText
	for rows.Next() {
		var e entityText
		if err := rows.Scan(&e.ID, &e.Text); err != nil {
			return nil, fmt.Errorf("failed to scan embedding candidate: %w", err)
		}
		entities = append(entities, e)
	}
	return entities, rows.Err()
}
