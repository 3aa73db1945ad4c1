// Package ollama invokes a local Ollama instance to compute text
// embeddings and generate short texts. An unknown model name and an
// unreachable service report distinct error kinds so the pipelines can
// tell a config typo from an outage.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/GiuseppeMinardi/book-library/internal/apierr"
)

// DefaultBaseURL is the standard local Ollama endpoint.
const DefaultBaseURL = "http://localhost:11434"

// Client calls the Ollama API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	clientOnce sync.Once
}

// NewClient creates a client for the Ollama instance at baseURL. An empty
// baseURL selects DefaultBaseURL.
func NewClient(baseURL string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/")}
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

type generateRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
	Stream bool   `json:"stream"`
}

type generateResponse struct {
	Response string `json:"response"`
}

// Embed computes the embedding vector for text under the given model.
func (c *Client) Embed(ctx context.Context, modelName, text string) ([]float32, error) {
	if modelName == "" {
		return nil, fmt.Errorf("model name is required")
	}
	if text == "" {
		return nil, fmt.Errorf("cannot embed empty text")
	}

	body, err := c.post(ctx, "/api/embed", modelName, embedRequest{Model: modelName, Input: text})
	if err != nil {
		return nil, err
	}

	var result embedResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decoding ollama embed response: %w", err)
	}

	if len(result.Embeddings) == 0 || len(result.Embeddings[0]) == 0 {
		return nil, fmt.Errorf("ollama returned no embedding for model %s", modelName)
	}
	return result.Embeddings[0], nil
}

// Generate produces a single completion for prompt under the given model.
// The import pipeline uses it to synthesize a book description when the
// metadata source has none.
func (c *Client) Generate(ctx context.Context, modelName, prompt string) (string, error) {
	if modelName == "" {
		return "", fmt.Errorf("model name is required")
	}
	if prompt == "" {
		return "", fmt.Errorf("cannot generate from an empty prompt")
	}

	body, err := c.post(ctx, "/api/generate", modelName, generateRequest{Model: modelName, Prompt: prompt})
	if err != nil {
		return "", err
	}

	var result generateResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return "", fmt.Errorf("decoding ollama generate response: %w", err)
	}

	return strings.TrimSpace(result.Response), nil
}

// post sends one JSON request and returns the raw response body. Status is
// classified before the body is interpreted, so a proxy's HTML error page
// still maps to ErrServiceUnavailable instead of a decode error.
func (c *Client) post(ctx context.Context, path, modelName string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding ollama request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating ollama request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.getHTTPClient().Do(req)
	if err != nil {
		return nil, fmt.Errorf("ollama request: %w: %v", apierr.ErrServiceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading ollama response: %w: %v", apierr.ErrServiceUnavailable, err)
	}

	if resp.StatusCode != http.StatusOK {
		// Ollama reports unknown models as a 404 with a JSON error body
		// naming the model. Anything else, JSON or not, is an outage.
		var apiErr struct {
			Error string `json:"error"`
		}
		_ = json.Unmarshal(respBody, &apiErr)
		if resp.StatusCode == http.StatusNotFound && strings.Contains(apiErr.Error, "not found") {
			return nil, fmt.Errorf("model %q: %w", modelName, apierr.ErrModelNotFound)
		}
		return nil, fmt.Errorf("ollama returned status %d: %w", resp.StatusCode, apierr.ErrServiceUnavailable)
	}

	return respBody, nil
}

func (c *Client) getHTTPClient() *http.Client {
	c.clientOnce.Do(func() {
		// Embedding large descriptions on CPU can be slow.
		c.httpClient = &http.Client{Timeout: 120 * time.Second}
	})
	return c.httpClient
}
