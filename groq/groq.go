// Package groq implements the remote classification backend against Groq's
// OpenAI-compatible chat completions API.
package groq

import (
	"context"
	"fmt"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"github.com/zombar/painscope/prompt"
)

const (
	DefaultBaseURL = "https://api.groq.com/openai/v1"
	DefaultModel   = "llama-3.1-8b-instant"

	temperature = 0.3
	maxTokens   = 500
)

// Client calls a Groq-hosted model for post classification.
type Client struct {
	client  openai.Client
	model   string
	prompts *prompt.Renderer
}

// NewClient creates a Groq backend client. The API key is required; empty
// base URL and model fall back to the defaults.
func NewClient(apiKey, baseURL, model string, prompts *prompt.Renderer) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("groq api key is required")
	}
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if model == "" {
		model = DefaultModel
	}
	if prompts == nil {
		prompts = prompt.NewRenderer("")
	}

	client := openai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(baseURL),
	)
	return &Client{
		client:  client,
		model:   model,
		prompts: prompts,
	}, nil
}

// Classify renders the classification prompt for one post and returns the
// model's raw reply text.
func (c *Client) Classify(ctx context.Context, title, content, source string) (string, error) {
	response, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			{
				OfUser: &openai.ChatCompletionUserMessageParam{
					Content: openai.ChatCompletionUserMessageParamContentUnion{
						OfString: openai.String(c.prompts.Render(title, content, source)),
					},
				},
			},
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		return "", fmt.Errorf("groq request failed: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from groq")
	}
	return response.Choices[0].Message.Content, nil
}
