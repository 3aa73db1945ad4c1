package cmd

import (
	"os"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GiuseppeMinardi/book-library/cmd/authors"
	"github.com/GiuseppeMinardi/book-library/cmd/books"
	"github.com/GiuseppeMinardi/book-library/cmd/embeddings"
	"github.com/GiuseppeMinardi/book-library/internal/config"
)

func resetCmdState(t *testing.T) {
	t.Cleanup(viper.Reset)
	viper.Reset()
}

func parseCLI(t *testing.T, args ...string) (*CLI, *kong.Context) {
	t.Helper()

	originalArgs := os.Args
	os.Args = append([]string{"book-library"}, args...)
	t.Cleanup(func() { os.Args = originalArgs })

	cli := &CLI{}
	ctx := kong.Parse(cli,
		kong.Name("book-library"),
		kong.Description("A personal book catalog."),
		kong.UsageOnError(),
		kong.Exit(func(code int) {
			t.Fatalf("unexpected Kong exit %d", code)
		}),
	)

	return cli, ctx
}

func TestAddCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "add", "9780451524935", "978-0-14-044913-6")

	assert.Equal(t, []string{"9780451524935", "978-0-14-044913-6"}, cli.Add.ISBNs)
}

func TestImportCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "import", "-f", "isbns.csv")
	assert.Equal(t, "isbns.csv", cli.Import.CSVFile)

	cli, _ = parseCLI(t, "import", "--sheet-id", "abc123")
	assert.Equal(t, "abc123", cli.Import.SheetID)
}

func TestImportCommandRequiresSource(t *testing.T) {
	resetCmdState(t)

	cli, ctx := parseCLI(t, "import")
	updateGlobalConfig(cli)

	err := ctx.Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ISBN source is required")
}

func TestEmbedCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "embed", "--model", "nomic-embed-text", "--model", "mxbai-embed-large")
	assert.Equal(t, []string{"nomic-embed-text", "mxbai-embed-large"}, cli.Embed.Model)
}

func TestSimilarCommandParsing(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "similar", "9780451524935", "-k", "3")
	assert.Equal(t, "9780451524935", cli.Similar.ISBN)
	assert.Equal(t, 3, cli.Similar.Limit)
}

func TestCLIDefaultFlags(t *testing.T) {
	resetCmdState(t)

	cli, _ := parseCLI(t, "stats")

	assert.Equal(t, "library.db", cli.DB)
	assert.Equal(t, "./cache.db", cli.CacheDBFile)
	assert.Equal(t, "720h", cli.CacheTTL)

	cli, _ = parseCLI(t, "similar", "9780451524935")
	assert.Equal(t, 5, cli.Similar.Limit, "similar defaults to 5 neighbours")
}

func TestUpdateGlobalConfigSetsViperValues(t *testing.T) {
	resetCmdState(t)

	cli := &CLI{
		DB:          "/tmp/library.db",
		CacheDBFile: "/tmp/cache.db",
		CacheTTL:    "12h",
	}

	updateGlobalConfig(cli)

	assert.Equal(t, "/tmp/library.db", viper.GetString("store.dbfile"))
	assert.Equal(t, "/tmp/cache.db", viper.GetString("cache.dbfile"))
	assert.Equal(t, "12h", viper.GetString("cache.ttl"))
}

func TestEmbedCommandUsesConfiguredModels(t *testing.T) {
	resetCmdState(t)

	viper.Set("ollama.models", []string{"nomic-embed-text"})
	viper.Set("ollama.url", "http://localhost:11434")
	config.InitConfig()

	var gotModels []string
	origEmbed := runEmbed
	runEmbed = func(storePath, ollamaURL string, models []string) (embeddings.EmbedResult, error) {
		gotModels = models
		return embeddings.EmbedResult{}, nil
	}
	t.Cleanup(func() { runEmbed = origEmbed })

	cmd := &EmbedCmd{}
	require.NoError(t, cmd.Run())
	assert.Equal(t, []string{"nomic-embed-text"}, gotModels)
}

func TestAddCommandDelegatesToImport(t *testing.T) {
	resetCmdState(t)
	viper.Set("store.dbfile", "/tmp/library.db")

	var gotISBNs []string
	origImport := runImport
	runImport = func(storePath string, isbns []string) (books.ImportResult, error) {
		assert.Equal(t, "/tmp/library.db", storePath)
		gotISBNs = isbns
		return books.ImportResult{Added: len(isbns)}, nil
	}
	t.Cleanup(func() { runImport = origImport })

	cmd := &AddCmd{ISBNs: []string{"9780451524935"}}
	require.NoError(t, cmd.Run())
	assert.Equal(t, []string{"9780451524935"}, gotISBNs)
}

func TestEnrichAuthorsDelegates(t *testing.T) {
	resetCmdState(t)

	called := false
	origEnrich := runEnrich
	runEnrich = func(storePath string) (authors.EnrichResult, error) {
		called = true
		return authors.EnrichResult{}, nil
	}
	t.Cleanup(func() { runEnrich = origEnrich })

	cmd := &EnrichAuthorsCmd{}
	require.NoError(t, cmd.Run())
	assert.True(t, called)
}

func TestInitLogging(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
	}{
		{"default", ""},
		{"debug", "debug"},
		{"warn", "WARN"},
		{"error", "error"},
		{"invalid", "invalid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				t.Setenv("BOOKLIB_LOG_LEVEL", tt.envValue)
			}
			require.NotPanics(t, func() {
				initLogging()
			})
		})
	}
}
