// Package catalog owns the relational book catalog: books, authors,
// categories and their many-to-many links. Natural keys (ISBN, author
// name, category name) are upsert keys: adding a duplicate resolves to
// the existing row instead of creating a second one.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// Store wraps the SQLite catalog database. Obtain one with Open and
// release it with Close; pipelines receive it as an injected dependency
// so tests can run against a temp-file or in-memory instance.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (creating if necessary) the catalog database at path and
// ensures the schema exists. This is the only failure that aborts a run.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog database: %w", err)
	}

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to catalog database: %w", err), closeErr)
	}

	for _, schema := range schemas {
		if _, err := db.Exec(schema); err != nil {
			closeErr := db.Close()
			return nil, errors.Join(fmt.Errorf("failed to create catalog table: %w", err), closeErr)
		}
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DB exposes the underlying handle so sibling stores (embeddings) can
// share the same database file.
func (s *Store) DB() *sql.DB {
	return s.db
}

// RunQuery executes a read-only query with bound parameters and returns
// the result rows as column-name keyed maps. Write access to the catalog
// is confined to the Add* methods.
func (s *Store) RunQuery(query string, args ...any) ([]map[string]any, error) {
	trimmed := strings.ToUpper(strings.TrimSpace(query))
	if !strings.HasPrefix(trimmed, "SELECT") && !strings.HasPrefix(trimmed, "WITH") {
		return nil, fmt.Errorf("RunQuery only accepts read queries")
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to run query: %w", err)
	}
	defer func() { _ = rows.Close() }()

	columns, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("failed to read columns: %w", err)
	}

	var results []map[string]any
	for rows.Next() {
		values := make([]any, len(columns))
		scanTargets := make([]any, len(columns))
		for i := range values {
			scanTargets[i] = &values[i]
		}
		if err := rows.Scan(scanTargets...); err != nil {
			return nil, fmt.Errorf("failed to scan row: %w", err)
		}

		row := make(map[string]any, len(columns))
		for i, col := range columns {
			row[col] = values[i]
		}
		results = append(results, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rows: %w", err)
	}

	return results, nil
}

// nullable converts an empty string to NULL so unset attributes stay
// distinguishable from populated ones.
func nullable(s string) any {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return s
}
