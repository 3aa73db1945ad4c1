// Package reporting holds the fixed catalog of read-only aggregation
// queries behind the stats command and the dashboard. Every parameter is
// bound, never concatenated, and nothing is cached: each invocation
// re-executes against the live store.
package reporting

import (
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
)

// Report is one named aggregation query with its bound arguments.
type Report struct {
	Name  string
	Title string
	SQL   string
	Args  []any
}

// Run executes the report against the store.
func Run(store *catalog.Store, r Report) ([]map[string]any, error) {
	return store.RunQuery(r.SQL, r.Args...)
}

// Summary reports library-wide totals.
func Summary() Report {
	return Report{
		Name:  "summary",
		Title: "Library Overview",
		SQL: `SELECT
			(SELECT COUNT(*) FROM books) AS total_books,
			(SELECT COUNT(*) FROM authors) AS total_authors,
			(SELECT COUNT(*) FROM categories) AS total_categories,
			(SELECT ROUND(AVG(page_count), 1) FROM books WHERE page_count IS NOT NULL) AS avg_pages,
			(SELECT MAX(page_count) FROM books) AS max_pages`,
	}
}

// BooksByLanguage breaks the collection down per language code.
func BooksByLanguage() Report {
	return Report{
		Name:  "books-by-language",
		Title: "Books by Language",
		SQL: `SELECT language, COUNT(*) AS book_count
			FROM books
			WHERE language IS NOT NULL
			GROUP BY language
			ORDER BY book_count DESC, language`,
	}
}

// BooksByCategory counts books per category label.
func BooksByCategory() Report {
	return Report{
		Name:  "books-by-category",
		Title: "Books by Category",
		SQL: `SELECT c.name, COUNT(bc.book_id) AS book_count
			FROM categories c
			LEFT JOIN book_categories bc ON bc.category_id = c.id
			GROUP BY c.id
			ORDER BY book_count DESC, c.name`,
	}
}

// BooksByPublisher counts books per publisher.
func BooksByPublisher() Report {
	return Report{
		Name:  "books-by-publisher",
		Title: "Books by Publisher",
		SQL: `SELECT publisher, COUNT(*) AS book_count
			FROM books
			WHERE publisher IS NOT NULL
			GROUP BY publisher
			ORDER BY book_count DESC, publisher`,
	}
}

// BooksForPublisher lists the titles held for one publisher.
func BooksForPublisher(publisher string) Report {
	return Report{
		Name:  "books-for-publisher",
		Title: "Books for Publisher",
		SQL: `SELECT title, published_date, page_count
			FROM books
			WHERE publisher = ?
			ORDER BY title`,
		Args: []any{publisher},
	}
}

// TopAuthors ranks authors by how many books of theirs the library holds.
func TopAuthors(limit int) Report {
	return Report{
		Name:  "top-authors",
		Title: "Most Represented Authors",
		SQL: `SELECT a.name, COUNT(ba.book_id) AS book_count
			FROM authors a
			JOIN book_authors ba ON ba.author_id = a.id
			GROUP BY a.id
			ORDER BY book_count DESC, a.name
			LIMIT ?`,
		Args: []any{limit},
	}
}

// BooksForAuthor lists the titles linked to one author name.
func BooksForAuthor(name string) Report {
	return Report{
		Name:  "books-for-author",
		Title: "Books for Author",
		SQL: `SELECT b.title, b.published_date, b.isbn
			FROM books b
			JOIN book_authors ba ON ba.book_id = b.id
			JOIN authors a ON a.id = ba.author_id
			WHERE a.name = ?
			ORDER BY b.title`,
		Args: []any{name},
	}
}

// BooksForCategory lists the titles linked to one category name.
func BooksForCategory(name string) Report {
	return Report{
		Name:  "books-for-category",
		Title: "Books for Category",
		SQL: `SELECT b.title, b.published_date, b.isbn
			FROM books b
			JOIN book_categories bc ON bc.book_id = b.id
			JOIN categories c ON c.id = bc.category_id
			WHERE c.name = ?
			ORDER BY b.title`,
		Args: []any{name},
	}
}

// LongestBooks ranks books by page count.
func LongestBooks(limit int) Report {
	return Report{
		Name:  "longest-books",
		Title: "Longest Books",
		SQL: `SELECT title, page_count
			FROM books
			WHERE page_count IS NOT NULL
			ORDER BY page_count DESC, title
			LIMIT ?`,
		Args: []any{limit},
	}
}

// BooksWithoutAuthors lists orphan books with no author link.
func BooksWithoutAuthors() Report {
	return Report{
		Name:  "books-without-authors",
		Title: "Books Without Authors",
		SQL: `SELECT b.title, b.isbn
			FROM books b
			LEFT JOIN book_authors ba ON ba.book_id = b.id
			WHERE ba.book_id IS NULL
			ORDER BY b.title`,
	}
}

// BooksWithoutCategories lists orphan books with no category link.
func BooksWithoutCategories() Report {
	return Report{
		Name:  "books-without-categories",
		Title: "Books Without Categories",
		SQL: `SELECT b.title, b.isbn
			FROM books b
			LEFT JOIN book_categories bc ON bc.book_id = b.id
			WHERE bc.book_id IS NULL
			ORDER BY b.title`,
	}
}

// BooksPerYear builds a publication timeline from the free-text
// published_date column (first four characters as the year).
func BooksPerYear() Report {
	return Report{
		Name:  "books-per-year",
		Title: "Publication Timeline",
		SQL: `SELECT substr(published_date, 1, 4) AS year, COUNT(*) AS book_count
			FROM books
			WHERE published_date IS NOT NULL
			GROUP BY year
			ORDER BY year`,
	}
}

// AuthorsByNationality breaks enriched authors down per nationality.
func AuthorsByNationality() Report {
	return Report{
		Name:  "authors-by-nationality",
		Title: "Authors by Nationality",
		SQL: `SELECT nationality, COUNT(*) AS author_count
			FROM authors
			WHERE nationality IS NOT NULL
			GROUP BY nationality
			ORDER BY author_count DESC, nationality`,
	}
}

// EmbeddingCoverage counts stored embeddings per model and entity kind.
func EmbeddingCoverage() Report {
	return Report{
		Name:  "embedding-coverage",
		Title: "Embedding Coverage",
		SQL: `SELECT model_name, 'book' AS entity, COUNT(*) AS embedded
			FROM book_embeddings
			GROUP BY model_name
			UNION ALL
			SELECT model_name, 'author' AS entity, COUNT(*) AS embedded
			FROM author_embeddings
			GROUP BY model_name
			ORDER BY model_name, entity`,
	}
}

// Catalog returns the fixed report set shown in the dashboard, using
// default parameters where a report takes any.
func Catalog() []Report {
	return []Report{
		Summary(),
		TopAuthors(10),
		BooksByCategory(),
		BooksByLanguage(),
		BooksByPublisher(),
		LongestBooks(10),
		BooksPerYear(),
		AuthorsByNationality(),
		BooksWithoutAuthors(),
		BooksWithoutCategories(),
		EmbeddingCoverage(),
	}
}
