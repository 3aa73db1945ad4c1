package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// AddBook resolves or creates the book by ISBN, resolves or creates each
// author and category by name, and inserts any missing link rows. The
// whole call runs in one transaction: either every constituent row
// commits or none do, so a half-linked book never becomes visible.
// Re-adding an existing ISBN returns the existing id and does not touch
// its attributes.
func (s *Store) AddBook(meta BookMetadata, authorNames, categoryNames []string) (string, error) {
	if meta.ISBN == "" {
		return "", fmt.Errorf("cannot add book without an ISBN")
	}
	if meta.Title == "" {
		return "", fmt.Errorf("cannot add book without a title")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	bookID, created, err := resolveBook(tx, meta)
	if err != nil {
		return "", err
	}

	for _, name := range authorNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		authorID, err := resolveAuthor(tx, name)
		if err != nil {
			return "", err
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO book_authors (book_id, author_id) VALUES (?, ?)",
			bookID, authorID,
		); err != nil {
			return "", fmt.Errorf("failed to link author %q: %w", name, err)
		}
	}

	for _, name := range categoryNames {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		categoryID, err := resolveCategory(tx, name)
		if err != nil {
			return "", err
		}
		if _, err := tx.Exec(
			"INSERT OR IGNORE INTO book_categories (book_id, category_id) VALUES (?, ?)",
			bookID, categoryID,
		); err != nil {
			return "", fmt.Errorf("failed to link category %q: %w", name, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("failed to commit book: %w", err)
	}

	if created {
		slog.Info("Added book to catalog", "title", meta.Title, "isbn", meta.ISBN)
	} else {
		slog.Debug("Book already in catalog", "isbn", meta.ISBN, "id", bookID)
	}

	return bookID, nil
}

// HasBook reports whether a book with the given ISBN already exists.
func (s *Store) HasBook(isbn string) (bool, error) {
	var one int
	err := s.db.QueryRow("SELECT 1 FROM books WHERE isbn = ? LIMIT 1", isbn).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check ISBN %s: %w", isbn, err)
	}
	return true, nil
}

// resolveBook looks up the book by ISBN and inserts a new row when absent.
// Reports whether a new row was created.
func resolveBook(tx *sql.Tx, meta BookMetadata) (string, bool, error) {
	var existingID string
	err := tx.QueryRow("SELECT id FROM books WHERE isbn = ?", meta.ISBN).Scan(&existingID)
	if err == nil {
		return existingID, false, nil
	}
	if err != sql.ErrNoRows {
		return "", false, fmt.Errorf("failed to look up ISBN %s: %w", meta.ISBN, err)
	}

	bookID := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO books
		(id, title, publisher, published_date, description, page_count, print_type, language, info_link, thumbnail, isbn)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		bookID,
		meta.Title,
		nullable(meta.Publisher),
		nullable(meta.PublishedDate),
		nullable(meta.Description),
		nullableInt(meta.PageCount),
		nullable(meta.PrintType),
		nullable(meta.Language),
		nullable(meta.InfoLink),
		nullable(meta.Thumbnail),
		meta.ISBN,
	)
	if err != nil {
		return "", false, fmt.Errorf("failed to insert book %q: %w", meta.Title, err)
	}
	return bookID, true, nil
}

// resolveAuthor returns the id for the author name, inserting a bare row
// on first sight. Biographical fields stay NULL until enrichment.
func resolveAuthor(tx *sql.Tx, name string) (string, error) {
	var existingID string
	err := tx.QueryRow("SELECT id FROM authors WHERE name = ?", name).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up author %q: %w", name, err)
	}

	authorID := uuid.NewString()
	if _, err := tx.Exec("INSERT INTO authors (id, name) VALUES (?, ?)", authorID, name); err != nil {
		return "", fmt.Errorf("failed to insert author %q: %w", name, err)
	}
	return authorID, nil
}

func resolveCategory(tx *sql.Tx, name string) (string, error) {
	var existingID string
	err := tx.QueryRow("SELECT id FROM categories WHERE name = ?", name).Scan(&existingID)
	if err == nil {
		return existingID, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("failed to look up category %q: %w", name, err)
	}

	categoryID := uuid.NewString()
	if _, err := tx.Exec("INSERT INTO categories (id, name) VALUES (?, ?)", categoryID, name); err != nil {
		return "", fmt.Errorf("failed to insert category %q: %w", name, err)
	}
	return categoryID, nil
}

func nullableInt(n int) any {
	if n <= 0 {
		return nil
	}
	return n
}
