// Package ollama implements the local classification backend against an
// Ollama server's generate API.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/zombar/painscope/models"
	"github.com/zombar/painscope/prompt"
)

const (
	DefaultBaseURL = "http://localhost:11434"
	DefaultModel   = "llama3.1:8b"

	// Local models can take minutes on long prompts.
	requestTimeout = 120 * time.Second

	temperature = 0.3
	numPredict  = 500
)

// Client calls a single Ollama model for post classification.
type Client struct {
	baseURL    string
	model      string
	httpClient *http.Client
	prompts    *prompt.Renderer
}

// NewClient creates an Ollama backend client. Empty arguments fall back to
// the defaults.
func NewClient(baseURL, model string, prompts *prompt.Renderer) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if prompts == nil {
		prompts = prompt.NewRenderer("")
	}
	return &Client{
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout:   requestTimeout,
			Transport: otelhttp.NewTransport(nil),
		},
		prompts: prompts,
	}
}

// Classify renders the classification prompt for one post and returns the
// model's raw reply text.
func (c *Client) Classify(ctx context.Context, title, content, source string) (string, error) {
	return c.Generate(ctx, c.prompts.Render(title, content, source))
}

// Generate runs a non-streaming completion for the given prompt.
func (c *Client) Generate(ctx context.Context, promptText string) (string, error) {
	payload := models.OllamaRequest{
		Model:  c.model,
		Prompt: promptText,
		Stream: false,
		Options: &models.OllamaOptions{
			Temperature: temperature,
			NumPredict:  numPredict,
		},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshaling generate request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/generate", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("creating generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling ollama: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("ollama returned status %d: %s", resp.StatusCode, msg)
	}

	var result models.OllamaResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decoding generate response: %w", err)
	}
	return result.Response, nil
}
