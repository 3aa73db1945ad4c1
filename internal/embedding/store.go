// Package embedding stores per-model vector embeddings for books and
// authors in the catalog database. Rows are keyed by (entity id, model
// name); writing over an existing pair replaces it, so re-running the
// embedding pipeline never accumulates duplicates.
package embedding

import (
	"database/sql"
	"fmt"
)

var schemas = []string{
	`CREATE TABLE IF NOT EXISTS book_embeddings (
		book_id TEXT NOT NULL,
		model_name TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (book_id, model_name),
		FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS author_embeddings (
		author_id TEXT NOT NULL,
		model_name TEXT NOT NULL,
		embedding BLOB NOT NULL,
		created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (author_id, model_name),
		FOREIGN KEY (author_id) REFERENCES authors (id) ON DELETE CASCADE
	);`,
}

// EntityKind selects which embedding table an operation targets.
type EntityKind string

const (
	// KindBook targets book_embeddings.
	KindBook EntityKind = "book"
	// KindAuthor targets author_embeddings.
	KindAuthor EntityKind = "author"
)

func (k EntityKind) table() (table, idColumn string, err error) {
	switch k {
	case KindBook:
		return "book_embeddings", "book_id", nil
	case KindAuthor:
		return "author_embeddings", "author_id", nil
	default:
		return "", "", fmt.Errorf("unknown entity kind: %s", k)
	}
}

// Store reads and writes embedding rows. It shares the catalog's database
// handle so the two live in the same file.
type Store struct {
	db *sql.DB
}

// NewStore wraps db and ensures the embedding tables exist.
func NewStore(db *sql.DB) (*Store, error) {
	if db == nil {
		return nil, fmt.Errorf("embedding: db is nil")
	}
	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			return nil, fmt.Errorf("failed to create embedding table: %w", err)
		}
	}
	return &Store{db: db}, nil
}

// Has reports whether an embedding exists for (entity, model).
func (s *Store) Has(kind EntityKind, entityID, modelName string) (bool, error) {
	table, idColumn, err := kind.table()
	if err != nil {
		return false, err
	}

	query := fmt.Sprintf("SELECT 1 FROM %s WHERE %s = ? AND model_name = ? LIMIT 1", table, idColumn)
	var one int
	err = s.db.QueryRow(query, entityID, modelName).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check embedding for %s %s: %w", kind, entityID, err)
	}
	return true, nil
}

// Add stores a vector for (entity, model), replacing any existing row for
// the same pair.
func (s *Store) Add(kind EntityKind, entityID, modelName string, vec []float32) error {
	table, idColumn, err := kind.table()
	if err != nil {
		return err
	}

	query := fmt.Sprintf(
		"INSERT OR REPLACE INTO %s (%s, model_name, embedding, created_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)",
		table, idColumn,
	)
	if _, err := s.db.Exec(query, entityID, modelName, Encode(vec)); err != nil {
		return fmt.Errorf("failed to store embedding for %s %s: %w", kind, entityID, err)
	}
	return nil
}

// Get returns the stored vector for (entity, model). The boolean
// distinguishes an absent row from a stored empty vector.
func (s *Store) Get(kind EntityKind, entityID, modelName string) ([]float32, bool, error) {
	table, idColumn, err := kind.table()
	if err != nil {
		return nil, false, err
	}

	query := fmt.Sprintf("SELECT embedding FROM %s WHERE %s = ? AND model_name = ?", table, idColumn)
	var blob []byte
	err = s.db.QueryRow(query, entityID, modelName).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load embedding for %s %s: %w", kind, entityID, err)
	}

	vec, err := Decode(blob)
	if err != nil {
		return nil, false, fmt.Errorf("failed to decode embedding for %s %s: %w", kind, entityID, err)
	}
	return vec, true, nil
}

// Neighbor is one result of a similarity ranking.
type Neighbor struct {
	ID         string
	Title      string
	Similarity float64
}

// SimilarBooks ranks the stored book embeddings for modelName by cosine
// similarity against the book identified by isbn and returns the top k
// other books. Brute force over all rows; fine at personal-library scale.
func (s *Store) SimilarBooks(isbn, modelName string, k int) ([]Neighbor, error) {
	if k <= 0 {
		return nil, nil
	}

	var queryID string
	var queryBlob []byte
	err := s.db.QueryRow(`
		SELECT b.id, e.embedding
		FROM books b
		JOIN book_embeddings e ON e.book_id = b.id AND e.model_name = ?
		WHERE b.isbn = ?`, modelName, isbn).Scan(&queryID, &queryBlob)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("no %s embedding stored for ISBN %s", modelName, isbn)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load query embedding: %w", err)
	}

	queryVec, err := Decode(queryBlob)
	if err != nil {
		return nil, fmt.Errorf("failed to decode query embedding: %w", err)
	}

	rows, err := s.db.Query(`
		SELECT b.id, b.title, e.embedding
		FROM books b
		JOIN book_embeddings e ON e.book_id = b.id AND e.model_name = ?
		WHERE b.id != ?`, modelName, queryID)
	if err != nil {
		return nil, fmt.Errorf("failed to scan book embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var neighbors []Neighbor
	for rows.Next() {
		var n Neighbor
		var blob []byte
		if err := rows.Scan(&n.ID, &n.Title, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan embedding row: %w", err)
		}
		vec, err := Decode(blob)
		if err != nil {
			return nil, fmt.Errorf("failed to decode embedding for book %s: %w", n.ID, err)
		}
		sim, err := CosineSimilarity(queryVec, vec)
		if err != nil {
			// Mixed vector lengths under one model name; skip the row.
			continue
		}
		n.Similarity = sim
		neighbors = append(neighbors, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate embedding rows: %w", err)
	}

	sortNeighbors(neighbors)
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}
	return neighbors, nil
}
