package catalog

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// AddAuthor resolves or creates an author by name. When the author already
// exists the call is an update path that fills only NULL columns: a
// populated biography field is never overwritten with a new value.
func (s *Store) AddAuthor(name string, details AuthorDetails) (string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return "", fmt.Errorf("cannot add author without a name")
	}

	var existingID string
	err := s.db.QueryRow("SELECT id FROM authors WHERE name = ?", name).Scan(&existingID)
	switch {
	case err == nil:
		if err := s.fillMissingAuthorFields(existingID, details); err != nil {
			return "", err
		}
		return existingID, nil
	case err != sql.ErrNoRows:
		return "", fmt.Errorf("failed to look up author %q: %w", name, err)
	}

	authorID := uuid.NewString()
	_, err = s.db.Exec(
		`INSERT INTO authors (id, name, birth_date, death_date, nationality, sex, bio, author_link)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		authorID,
		name,
		nullable(details.BirthDate),
		nullable(details.DeathDate),
		nullable(details.Nationality),
		nullable(details.Sex),
		nullable(details.Bio),
		nullable(details.AuthorLink),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert author %q: %w", name, err)
	}

	slog.Info("Added author to catalog", "name", name)
	return authorID, nil
}

// fillMissingAuthorFields updates only columns that are currently NULL.
// COALESCE keeps the stored value whenever one exists.
func (s *Store) fillMissingAuthorFields(authorID string, details AuthorDetails) error {
	_, err := s.db.Exec(
		`UPDATE authors SET
			birth_date  = COALESCE(birth_date, ?),
			death_date  = COALESCE(death_date, ?),
			nationality = COALESCE(nationality, ?),
			sex         = COALESCE(sex, ?),
			bio         = COALESCE(bio, ?),
			author_link = COALESCE(author_link, ?)
		WHERE id = ?`,
		nullable(details.BirthDate),
		nullable(details.DeathDate),
		nullable(details.Nationality),
		nullable(details.Sex),
		nullable(details.Bio),
		nullable(details.AuthorLink),
		authorID,
	)
	if err != nil {
		return fmt.Errorf("failed to update author %s: %w", authorID, err)
	}
	return nil
}

// AuthorsMissingBio returns the authors that still have no biography, for
// the enrichment pipeline. Re-running the pipeline retries exactly this set.
func (s *Store) AuthorsMissingBio() ([]AuthorRecord, error) {
	rows, err := s.db.Query("SELECT id, name FROM authors WHERE bio IS NULL ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("failed to query authors missing bio: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var authors []AuthorRecord
	for rows.Next() {
		var a AuthorRecord
		if err := rows.Scan(&a.ID, &a.Name); err != nil {
			return nil, fmt.Errorf("failed to scan author row: %w", err)
		}
		authors = append(authors, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate author rows: %w", err)
	}

	return authors, nil
}
