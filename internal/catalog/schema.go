package catalog

// Schema statements for the catalog tables. All ids are TEXT UUIDs;
// isbn, author name and category name carry the UNIQUE constraints that
// back the natural-key upserts.
var schemas = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		publisher TEXT,
		published_date TEXT,
		description TEXT,
		page_count INTEGER,
		print_type TEXT,
		language TEXT,
		info_link TEXT,
		thumbnail TEXT,
		isbn TEXT UNIQUE NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS authors (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		birth_date TEXT,
		death_date TEXT,
		nationality TEXT,
		sex TEXT,
		bio TEXT,
		author_link TEXT
	);`,

	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE
	);`,

	`CREATE TABLE IF NOT EXISTS book_authors (
		book_id TEXT,
		author_id TEXT,
		PRIMARY KEY (book_id, author_id),
		FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE,
		FOREIGN KEY (author_id) REFERENCES authors (id) ON DELETE CASCADE
	);`,

	`CREATE TABLE IF NOT EXISTS book_categories (
		book_id TEXT,
		category_id TEXT,
		PRIMARY KEY (book_id, category_id),
		FOREIGN KEY (book_id) REFERENCES books (id) ON DELETE CASCADE,
		FOREIGN KEY (category_id) REFERENCES categories (id) ON DELETE CASCADE
	);`,
}
