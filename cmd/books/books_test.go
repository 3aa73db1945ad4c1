package books

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/GiuseppeMinardi/book-library/internal/catalog"
	"github.com/GiuseppeMinardi/book-library/internal/googlebooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFetcher struct {
	results map[string]*googlebooks.Result
	errs    map[string]error
	calls   []string
}

func (f *fakeFetcher) FetchByISBN(_ context.Context, isbn string) (*googlebooks.Result, error) {
	f.calls = append(f.calls, isbn)
	if err, ok := f.errs[isbn]; ok {
		return nil, err
	}
	if r, ok := f.results[isbn]; ok {
		return r, nil
	}
	return nil, apierr.ErrNotFound
}

type fakeSummarizer struct {
	text  string
	err   error
	calls []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, title string, _ []string) (string, error) {
	f.calls = append(f.calls, title)
	return f.text, f.err
}

func openImportStore(t *testing.T) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(filepath.Join(t.TempDir(), "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func orwellResult() *googlebooks.Result {
	return &googlebooks.Result{
		Metadata: catalog.BookMetadata{
			ISBN:  "9780451524935",
			Title: "1984",
		},
		Authors:    []string{"George Orwell"},
		Categories: []string{"Fiction"},
	}
}

func storedDescription(t *testing.T, store *catalog.Store, isbn string) string {
	t.Helper()
	rows, err := store.RunQuery("SELECT description FROM books WHERE isbn = ?", isbn)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	desc, _ := rows[0]["description"].(string)
	return desc
}

func TestRunImportAddsNewBook(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{results: map[string]*googlebooks.Result{
		"9780451524935": orwellResult(),
	}}

	result := runImport(context.Background(), store, fetcher, nil, []string{"978-0-451-52493-5"})

	assert.Equal(t, ImportResult{Added: 1}, result)

	exists, err := store.HasBook("9780451524935")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestRunImportSkipsExistingWithoutFetching(t *testing.T) {
	store := openImportStore(t)
	_, err := store.AddBook(catalog.BookMetadata{ISBN: "9780451524935", Title: "1984"}, nil, nil)
	require.NoError(t, err)

	fetcher := &fakeFetcher{}
	result := runImport(context.Background(), store, fetcher, nil, []string{"9780451524935"})

	assert.Equal(t, ImportResult{Skipped: 1}, result)
	assert.Empty(t, fetcher.calls, "existing books must not hit the API")
}

func TestRunImportSkipsMalformedISBNs(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{}

	result := runImport(context.Background(), store, fetcher, nil, []string{"not-an-isbn", ""})

	assert.Equal(t, ImportResult{Skipped: 2}, result)
	assert.Empty(t, fetcher.calls)
}

func TestRunImportMalformedAmongValid(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{results: map[string]*googlebooks.Result{
		"9780451524935": orwellResult(),
		"9780140136296": {
			Metadata: catalog.BookMetadata{ISBN: "9780140136296", Title: "Coming Up for Air"},
			Authors:  []string{"George Orwell"},
		},
	}}

	result := runImport(context.Background(), store, fetcher, nil, []string{
		"9780451524935", "not-an-isbn", "9780140136296",
	})

	assert.Equal(t, ImportResult{Added: 2, Skipped: 1}, result)
}

func TestRunImportContinuesPastFetchErrors(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{
		results: map[string]*googlebooks.Result{
			"9780451524935": orwellResult(),
		},
		errs: map[string]error{
			"9780140136296": apierr.ErrServiceUnavailable,
			"9788806219420": apierr.ErrNotFound,
		},
	}

	result := runImport(context.Background(), store, fetcher, nil, []string{
		"9780140136296", "9788806219420", "9780451524935",
	})

	assert.Equal(t, ImportResult{Added: 1, Skipped: 2}, result)
}

func TestRunImportGeneratesMissingDescription(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{results: map[string]*googlebooks.Result{
		"9780451524935": orwellResult(),
	}}
	sum := &fakeSummarizer{text: "A dystopian novel about surveillance."}

	result := runImport(context.Background(), store, fetcher, sum, []string{"9780451524935"})

	assert.Equal(t, ImportResult{Added: 1}, result)
	assert.Equal(t, []string{"1984"}, sum.calls)
	assert.Equal(t, "A dystopian novel about surveillance.", storedDescription(t, store, "9780451524935"))
}

func TestRunImportKeepsExistingDescription(t *testing.T) {
	store := openImportStore(t)
	lookup := orwellResult()
	lookup.Metadata.Description = "Winston Smith rewrites history for the Party."
	fetcher := &fakeFetcher{results: map[string]*googlebooks.Result{
		"9780451524935": lookup,
	}}
	sum := &fakeSummarizer{text: "should not be used"}

	result := runImport(context.Background(), store, fetcher, sum, []string{"9780451524935"})

	assert.Equal(t, ImportResult{Added: 1}, result)
	assert.Empty(t, sum.calls, "books with a description must not be summarized")
	assert.Equal(t, "Winston Smith rewrites history for the Party.", storedDescription(t, store, "9780451524935"))
}

func TestRunImportAddsBookWhenSummaryFails(t *testing.T) {
	store := openImportStore(t)
	fetcher := &fakeFetcher{results: map[string]*googlebooks.Result{
		"9780451524935": orwellResult(),
	}}
	sum := &fakeSummarizer{err: errors.New("ollama down")}

	result := runImport(context.Background(), store, fetcher, sum, []string{"9780451524935"})

	assert.Equal(t, ImportResult{Added: 1}, result)
	exists, err := store.HasBook("9780451524935")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImportResultString(t *testing.T) {
	assert.Equal(t, "2 added, 1 skipped, 3 failed", ImportResult{Added: 2, Skipped: 1, Failed: 3}.String())
}
