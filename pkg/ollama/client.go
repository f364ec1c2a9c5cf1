// Package ollama implements the llm.Provider capability on top of a local
// Ollama server, including the vision variant for scene extraction.
package ollama

import (
	"context"
	"encoding/base64"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/ollama/ollama/api"
)

// DefaultTimeout bounds a call when the caller's context has no deadline.
// Local models on CPU can be slow, so this is generous.
const DefaultTimeout = 300 * time.Second

// Client wraps the Ollama API client as an llm.VisionProvider.
type Client struct {
	client *api.Client
	model  string
}

// NewClient creates a new Ollama provider against the given server URL,
// ignoring any path component (e.g. a pasted /api/chat URL works).
func NewClient(ollamaURL, model string) (*Client, error) {
	parsedURL, err := url.Parse(ollamaURL)
	if err != nil {
		return nil, fmt.Errorf("invalid URL: %w", err)
	}

	baseURL := &url.URL{
		Scheme: parsedURL.Scheme,
		Host:   parsedURL.Host,
	}

	return &Client{
		client: api.NewClient(baseURL, http.DefaultClient),
		model:  model,
	}, nil
}

// Name implements llm.Provider.
func (c *Client) Name() string { return "ollama" }

// Generate implements llm.Provider.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	req := c.chatRequest(systemPrompt, userPrompt, maxTokens, temperature, false, nil)

	var content string
	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama chat error: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return content, nil
}

// GenerateStream implements llm.Provider. Each partial chunk is forwarded
// to fn as it arrives.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64, fn func(chunk string) error) error {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	req := c.chatRequest(systemPrompt, userPrompt, maxTokens, temperature, true, nil)

	err := c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		if resp.Message.Content == "" {
			return nil
		}
		return fn(resp.Message.Content)
	})
	if err != nil {
		return fmt.Errorf("ollama chat stream error: %w", err)
	}
	return nil
}

// GenerateWithImage implements llm.VisionProvider. The media type is ignored
// because Ollama takes raw image bytes.
func (c *Client) GenerateWithImage(ctx context.Context, systemPrompt, userPrompt, imageB64, _ string, maxTokens int, temperature float64) (string, error) {
	ctx, cancel := ensureDeadline(ctx)
	defer cancel()

	imgBytes, err := base64.StdEncoding.DecodeString(imageB64)
	if err != nil {
		return "", fmt.Errorf("failed to decode base64 image: %w", err)
	}

	req := c.chatRequest(systemPrompt, userPrompt, maxTokens, temperature, false, []api.ImageData{api.ImageData(imgBytes)})

	var content string
	err = c.client.Chat(ctx, req, func(resp api.ChatResponse) error {
		content = resp.Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("ollama vision chat error: %w", err)
	}
	if content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return content, nil
}

func (c *Client) chatRequest(systemPrompt, userPrompt string, maxTokens int, temperature float64, stream bool, images []api.ImageData) *api.ChatRequest {
	messages := []api.Message{}
	if systemPrompt != "" {
		messages = append(messages, api.Message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, api.Message{
		Role:    "user",
		Content: userPrompt,
		Images:  images,
	})

	options := map[string]any{
		"temperature": temperature,
	}
	if maxTokens > 0 {
		options["num_predict"] = maxTokens
	}

	return &api.ChatRequest{
		Model:    c.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
}

func ensureDeadline(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, hasDeadline := ctx.Deadline(); hasDeadline {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, DefaultTimeout)
}
