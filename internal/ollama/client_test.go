package ollama

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbed(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/embed", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req embedRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		assert.Equal(t, "A novel about memory.", req.Input)

		_, _ = w.Write([]byte(`{"embeddings": [[0.25, -0.5, 1.0]]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	vec, err := client.Embed(context.Background(), "nomic-embed-text", "A novel about memory.")
	require.NoError(t, err)
	assert.Equal(t, []float32{0.25, -0.5, 1.0}, vec)
}

func TestEmbedUnknownModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model \"no-such-model\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Embed(context.Background(), "no-such-model", "text")
	assert.True(t, errors.Is(err, apierr.ErrModelNotFound))
	assert.False(t, errors.Is(err, apierr.ErrServiceUnavailable), "unknown model is not an outage")
}

func TestEmbedNonJSONErrorBody(t *testing.T) {
	// A reverse proxy in front of Ollama answers with an HTML error page.
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`<html><body><h1>502 Bad Gateway</h1></body></html>`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Embed(context.Background(), "nomic-embed-text", "text")
	assert.True(t, errors.Is(err, apierr.ErrServiceUnavailable))
	assert.False(t, errors.Is(err, apierr.ErrModelNotFound))
}

func TestEmbedServiceUnreachable(t *testing.T) {
	server := httptest.NewServer(nil)
	url := server.URL
	server.Close() // nothing listening anymore

	client := NewClient(url)
	_, err := client.Embed(context.Background(), "nomic-embed-text", "text")
	assert.True(t, errors.Is(err, apierr.ErrServiceUnavailable))
}

func TestEmbedRejectsEmptyInput(t *testing.T) {
	client := NewClient("")

	_, err := client.Embed(context.Background(), "", "text")
	assert.Error(t, err)

	_, err = client.Embed(context.Background(), "nomic-embed-text", "")
	assert.Error(t, err)
}

func TestEmbedEmptyResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embeddings": []}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Embed(context.Background(), "nomic-embed-text", "text")
	assert.Error(t, err)
}

func TestGenerate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "llama3.2", req.Model)
		assert.Equal(t, "1984 by George Orwell", req.Prompt)
		assert.False(t, req.Stream)

		_, _ = w.Write([]byte(`{"response": "A dystopian novel about surveillance.\n"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	text, err := client.Generate(context.Background(), "llama3.2", "1984 by George Orwell")
	require.NoError(t, err)
	assert.Equal(t, "A dystopian novel about surveillance.", text)
}

func TestGenerateUnknownModel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error": "model \"no-such-model\" not found, try pulling it first"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL)
	_, err := client.Generate(context.Background(), "no-such-model", "a prompt")
	assert.True(t, errors.Is(err, apierr.ErrModelNotFound))
}

func TestGenerateRejectsEmptyInput(t *testing.T) {
	client := NewClient("")

	_, err := client.Generate(context.Background(), "", "prompt")
	assert.Error(t, err)

	_, err = client.Generate(context.Background(), "llama3.2", "")
	assert.Error(t, err)
}
