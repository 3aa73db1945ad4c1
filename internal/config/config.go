package config

import (
	"github.com/spf13/viper"
)

// Global configuration variables
var (
	// GoogleBooksAPIKey is the optional API key sent with Google Books lookups
	GoogleBooksAPIKey string
	// OllamaURL is the base URL of the Ollama server used for embeddings
	OllamaURL string
	// EmbeddingModels lists the Ollama models to compute embeddings with
	EmbeddingModels []string
	// SummaryModel is the Ollama model used to write a description when
	// Google Books has none. Empty disables the fallback.
	SummaryModel string
)

// InitConfig initializes the global configuration
func InitConfig() {
	// Set default values
	viper.SetDefault("store.dbfile", "library.db")
	viper.SetDefault("cache.dbfile", "cache.db")
	viper.SetDefault("ollama.url", "http://localhost:11434")
	viper.SetDefault("ollama.models", []string{"nomic-embed-text"})
	viper.SetDefault("ollama.summary_model", "")

	// Get values from viper
	GoogleBooksAPIKey = viper.GetString("googlebooks.apikey")
	OllamaURL = viper.GetString("ollama.url")
	EmbeddingModels = viper.GetStringSlice("ollama.models")
	SummaryModel = viper.GetString("ollama.summary_model")
}

// StoreFile returns the path of the catalog database.
func StoreFile() string {
	return viper.GetString("store.dbfile")
}
