package embedding

import (
	"path/filepath"
	"testing"

	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStores(t *testing.T) (*catalog.Store, *Store) {
	t.Helper()

	cat, err := catalog.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = cat.Close() })

	emb, err := NewStore(cat.DB())
	require.NoError(t, err)
	return cat, emb
}

func addBook(t *testing.T, cat *catalog.Store, isbn, title, description string) string {
	t.Helper()

	id, err := cat.AddBook(catalog.BookMetadata{
		ISBN:        isbn,
		Title:       title,
		Description: description,
	}, nil, nil)
	require.NoError(t, err)
	return id
}

func TestStoreAndRetrieveEmbedding(t *testing.T) {
	cat, emb := openTestStores(t)
	bookID := addBook(t, cat, "9780140136296", "Coming Up for Air", "A novel.")

	vec := []float32{0.1, -0.5, 2.25, 0}
	require.NoError(t, emb.Add(KindBook, bookID, "nomic-embed-text", vec))

	got, found, err := emb.Get(KindBook, bookID, "nomic-embed-text")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, vec, got)
}

func TestGetDistinguishesAbsenceFromEmpty(t *testing.T) {
	cat, emb := openTestStores(t)
	bookID := addBook(t, cat, "9780140136296", "Coming Up for Air", "A novel.")

	_, found, err := emb.Get(KindBook, bookID, "nomic-embed-text")
	require.NoError(t, err)
	assert.False(t, found, "no row stored yet")

	require.NoError(t, emb.Add(KindBook, bookID, "nomic-embed-text", []float32{}))

	got, found, err := emb.Get(KindBook, bookID, "nomic-embed-text")
	require.NoError(t, err)
	assert.True(t, found, "stored empty vector is still a stored row")
	assert.Empty(t, got)
}

func TestAddReplacesExistingPair(t *testing.T) {
	cat, emb := openTestStores(t)
	bookID := addBook(t, cat, "9780140136296", "Coming Up for Air", "A novel.")

	require.NoError(t, emb.Add(KindBook, bookID, "nomic-embed-text", []float32{1, 2, 3}))
	require.NoError(t, emb.Add(KindBook, bookID, "nomic-embed-text", []float32{4, 5, 6}))

	got, found, err := emb.Get(KindBook, bookID, "nomic-embed-text")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, []float32{4, 5, 6}, got)

	rows, err := cat.RunQuery("SELECT COUNT(*) AS n FROM book_embeddings WHERE book_id = ?", bookID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, rows[0]["n"], "replace, not accumulate")
}

func TestEmbeddingsPerModelAreIndependent(t *testing.T) {
	cat, emb := openTestStores(t)
	bookID := addBook(t, cat, "9780140136296", "Coming Up for Air", "A novel.")

	require.NoError(t, emb.Add(KindBook, bookID, "model-a", []float32{1, 2}))
	require.NoError(t, emb.Add(KindBook, bookID, "model-b", []float32{3, 4, 5}))

	hasA, err := emb.Has(KindBook, bookID, "model-a")
	require.NoError(t, err)
	assert.True(t, hasA)

	hasC, err := emb.Has(KindBook, bookID, "model-c")
	require.NoError(t, err)
	assert.False(t, hasC)

	gotB, found, err := emb.Get(KindBook, bookID, "model-b")
	require.NoError(t, err)
	require.True(t, found)
	assert.Len(t, gotB, 3)
}

func TestAuthorEmbeddings(t *testing.T) {
	cat, emb := openTestStores(t)

	authorID, err := cat.AddAuthor("George Orwell", catalog.AuthorDetails{Bio: "English novelist."})
	require.NoError(t, err)

	require.NoError(t, emb.Add(KindAuthor, authorID, "nomic-embed-text", []float32{0.5, 0.5}))

	has, err := emb.Has(KindAuthor, authorID, "nomic-embed-text")
	require.NoError(t, err)
	assert.True(t, has)

	// Book table is untouched by author embeddings.
	has, err = emb.Has(KindBook, authorID, "nomic-embed-text")
	require.NoError(t, err)
	assert.False(t, has)
}

func TestUnknownEntityKind(t *testing.T) {
	_, emb := openTestStores(t)

	_, err := emb.Has(EntityKind("magazine"), "id", "model")
	assert.Error(t, err)
}

func TestSimilarBooks(t *testing.T) {
	cat, emb := openTestStores(t)

	a := addBook(t, cat, "9780451524935", "1984", "Dystopia.")
	b := addBook(t, cat, "9780140136296", "Coming Up for Air", "Pre-war England.")
	c := addBook(t, cat, "9780156439619", "The Waves", "Experimental novel.")

	require.NoError(t, emb.Add(KindBook, a, "m", []float32{1, 0, 0}))
	require.NoError(t, emb.Add(KindBook, b, "m", []float32{0.9, 0.1, 0}))
	require.NoError(t, emb.Add(KindBook, c, "m", []float32{0, 0, 1}))

	neighbors, err := emb.SimilarBooks("9780451524935", "m", 2)
	require.NoError(t, err)
	require.Len(t, neighbors, 2)
	assert.Equal(t, "Coming Up for Air", neighbors[0].Title)
	assert.Greater(t, neighbors[0].Similarity, neighbors[1].Similarity)
}

func TestSimilarBooksMissingQueryEmbedding(t *testing.T) {
	cat, emb := openTestStores(t)
	addBook(t, cat, "9780451524935", "1984", "Dystopia.")

	_, err := emb.SimilarBooks("9780451524935", "m", 3)
	assert.Error(t, err)
}
