package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/lepinkainen/humanlog"
	"github.com/spf13/viper"

	"github.com/GiuseppeMinardi/book-library/cmd/authors"
	"github.com/GiuseppeMinardi/book-library/cmd/books"
	"github.com/GiuseppeMinardi/book-library/cmd/embeddings"
	"github.com/GiuseppeMinardi/book-library/cmd/stats"
	"github.com/GiuseppeMinardi/book-library/internal/config"
)

var (
	runImport    = books.ImportWithParams
	runEnrich    = authors.EnrichWithParams
	runEmbed     = embeddings.EmbedWithParams
	runStats     = stats.StatsWithParams
	runSimilar   = stats.SimilarWithParams
	runDashboard = stats.DashboardWithParams
)

// CLI represents the complete command structure for the book-library application
type CLI struct {
	// Global flags
	DB string `help:"Path to the catalog SQLite database file" default:"library.db"`

	// Cache flags
	CacheDBFile string `help:"Path to cache SQLite database file" default:"./cache.db"`
	CacheTTL    string `help:"Cache time-to-live duration (e.g., 720h for 30 days)" default:"720h"`

	Add           AddCmd           `cmd:"" help:"Add one or more books by ISBN"`
	Import        ImportCmd        `cmd:"" help:"Bulk import ISBNs from a CSV file or a Google Sheet"`
	EnrichAuthors EnrichAuthorsCmd `cmd:"" name:"enrich-authors" help:"Fill in author biographies from OpenLibrary"`
	Embed         EmbedCmd         `cmd:"" help:"Compute missing embeddings through Ollama"`
	Similar       SimilarCmd       `cmd:"" help:"List books similar to one ISBN by embedding distance"`
	Stats         StatsCmd         `cmd:"" help:"Print the report catalog"`
	Dashboard     DashboardCmd     `cmd:"" help:"Browse reports interactively"`
}

// AddCmd adds individual books by ISBN.
type AddCmd struct {
	ISBNs []string `arg:"" help:"ISBNs to add (ISBN-10 or ISBN-13, hyphens allowed)"`
}

// ImportCmd bulk imports ISBNs from a CSV source.
type ImportCmd struct {
	CSVFile string `short:"f" help:"Path to a CSV file with ISBNs in the first column"`
	SheetID string `help:"Google Sheets document ID to read instead of a local file"`
}

// EnrichAuthorsCmd fills in missing author biographies.
type EnrichAuthorsCmd struct{}

// EmbedCmd computes missing embeddings.
type EmbedCmd struct {
	Model []string `help:"Ollama model names to embed with (defaults to ollama.models from config)"`
}

// SimilarCmd ranks books near one ISBN.
type SimilarCmd struct {
	ISBN  string `arg:"" help:"ISBN of the query book"`
	Model string `help:"Ollama model whose embeddings to compare (defaults to the first configured model)"`
	Limit int    `short:"k" help:"Number of neighbours to show" default:"5"`
}

// StatsCmd prints every report once.
type StatsCmd struct{}

// DashboardCmd starts the interactive report browser.
type DashboardCmd struct{}

// Execute runs the Kong-based CLI
func Execute() {
	initLogging()
	initConfig()

	var cli CLI

	ctx := kong.Parse(&cli,
		kong.Name("book-library"),
		kong.Description("A personal book catalog: ISBN imports, author enrichment, embeddings and reports."),
		kong.UsageOnError(),
	)

	updateGlobalConfig(&cli)

	err := ctx.Run()
	if err != nil {
		slog.Error("Command failed", "error", err)
		os.Exit(1)
	}
}

func initConfig() {
	viper.SetDefault("store.dbfile", "library.db")
	viper.SetDefault("googlebooks.apikey", "")

	// Cache defaults
	viper.SetDefault("cache.dbfile", "./cache.db")
	viper.SetDefault("cache.ttl", "720h") // 30 days

	// Ollama defaults
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.models", []string{"nomic-embed-text"})
	viper.SetDefault("ollama.summary_model", "")

	// Enable environment variable support
	viper.AutomaticEnv()
	if err := viper.BindEnv("googlebooks.apikey", "GOOGLE_BOOKS_API_KEY"); err != nil {
		slog.Error("Failed to bind environment variable", "error", err)
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			slog.Info("Config file not found, writing default config file...")
			if err := viper.SafeWriteConfig(); err != nil {
				slog.Error("Error writing config file", "error", err)
			}
			os.Exit(0)
		} else {
			slog.Error("Fatal error config file", "error", err)
			os.Exit(1)
		}
	}

	config.InitConfig()
}

func updateGlobalConfig(cli *CLI) {
	viper.Set("store.dbfile", cli.DB)

	// Update cache config
	viper.Set("cache.dbfile", cli.CacheDBFile)
	viper.Set("cache.ttl", cli.CacheTTL)
}

// Run methods for each command

func (a *AddCmd) Run() error {
	result, err := runImport(config.StoreFile(), a.ISBNs)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func (i *ImportCmd) Run() error {
	var isbns []string
	var err error

	switch {
	case i.SheetID != "":
		isbns, err = books.LoadISBNsFromSheet(i.SheetID)
	case i.CSVFile != "":
		isbns, err = books.LoadISBNsFromCSV(i.CSVFile)
	default:
		// Fall back to config so a configured sheet imports with no flags.
		if sheetID := viper.GetString("import.sheetid"); sheetID != "" {
			isbns, err = books.LoadISBNsFromSheet(sheetID)
		} else {
			return fmt.Errorf("an ISBN source is required (provide --csvfile, --sheet-id or import.sheetid in config)")
		}
	}
	if err != nil {
		return err
	}

	result, err := runImport(config.StoreFile(), isbns)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func (e *EnrichAuthorsCmd) Run() error {
	result, err := runEnrich(config.StoreFile())
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func (e *EmbedCmd) Run() error {
	models := e.Model
	if len(models) == 0 {
		models = config.EmbeddingModels
	}
	if len(models) == 0 {
		return fmt.Errorf("no embedding models configured (provide --model or ollama.models in config)")
	}

	result, err := runEmbed(config.StoreFile(), config.OllamaURL, models)
	if err != nil {
		return err
	}
	fmt.Println(result)
	return nil
}

func (s *SimilarCmd) Run() error {
	model := s.Model
	if model == "" && len(config.EmbeddingModels) > 0 {
		model = config.EmbeddingModels[0]
	}
	if model == "" {
		return fmt.Errorf("no embedding model configured (provide --model or ollama.models in config)")
	}

	return runSimilar(config.StoreFile(), s.ISBN, model, s.Limit)
}

func (s *StatsCmd) Run() error {
	return runStats(config.StoreFile())
}

func (d *DashboardCmd) Run() error {
	return runDashboard(config.StoreFile())
}

func initLogging() {
	level := slog.LevelInfo
	switch strings.ToLower(os.Getenv("BOOKLIB_LOG_LEVEL")) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	handler := humanlog.NewHandler(os.Stdout, &humanlog.Options{
		Level: level,
	})

	slog.SetDefault(slog.New(handler))
}
