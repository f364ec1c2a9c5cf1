// Package openrouter implements the llm.Provider capability over any
// OpenAI-compatible chat-completions endpoint: OpenRouter, OpenAI, or a
// local llama.cpp server.
package openrouter

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Known endpoint base URLs.
const (
	OpenRouterBaseURL = "https://openrouter.ai/api/v1"
	OpenAIBaseURL     = "https://api.openai.com/v1"
)

// Options configures a Client.
type Options struct {
	// Name tags analyses produced through this client ("openrouter",
	// "openai", "llamacpp").
	Name string
	// BaseURL of the chat-completions API, without trailing slash.
	BaseURL string
	APIKey  string
	Model   string
	// Referer and Title are sent as HTTP-Referer / X-Title headers when set
	// (OpenRouter app attribution).
	Referer string
	Title   string
	// Timeout bounds a call when the caller's context has no deadline.
	Timeout time.Duration
}

// Client is an OpenAI-compatible chat-completions client.
type Client struct {
	opts       Options
	httpClient *http.Client
}

// NewClient creates a new client. An empty BaseURL defaults to OpenRouter.
func NewClient(opts Options) (*Client, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = OpenRouterBaseURL
	}
	opts.BaseURL = strings.TrimSuffix(opts.BaseURL, "/")
	if opts.Name == "" {
		opts.Name = "openrouter"
	}
	if opts.Model == "" {
		return nil, fmt.Errorf("openrouter: model is required")
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 5 * time.Minute
	}

	return &Client{
		opts:       opts,
		httpClient: &http.Client{Timeout: opts.Timeout},
	}, nil
}

// Name implements llm.Provider.
func (c *Client) Name() string { return c.opts.Name }

// OpenAI-compatible wire types.
type message struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string or []contentPart
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type chatRequest struct {
	Model       string    `json:"model"`
	Messages    []message `json:"messages"`
	Temperature float64   `json:"temperature,omitempty"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Stream      bool      `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
}

// Generate implements llm.Provider.
func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error) {
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    buildMessages(systemPrompt, userPrompt),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}
	return c.complete(ctx, req)
}

// GenerateWithImage implements llm.VisionProvider using a data-URL image
// content part alongside the text prompt.
func (c *Client) GenerateWithImage(ctx context.Context, systemPrompt, userPrompt, imageB64, mediaType string, maxTokens int, temperature float64) (string, error) {
	if mediaType == "" {
		mediaType = "image/jpeg"
	}
	content := []contentPart{
		{Type: "image_url", ImageURL: &imageURL{URL: "data:" + mediaType + ";base64," + imageB64}},
		{Type: "text", Text: userPrompt},
	}

	messages := []message{}
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: content})

	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    messages,
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      false,
	}
	return c.complete(ctx, req)
}

// GenerateStream implements llm.Provider by consuming the SSE response
// line-by-line and forwarding content deltas to fn.
func (c *Client) GenerateStream(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64, fn func(chunk string) error) error {
	req := chatRequest{
		Model:       c.opts.Model,
		Messages:    buildMessages(systemPrompt, userPrompt),
		Temperature: temperature,
		MaxTokens:   maxTokens,
		Stream:      true,
	}

	resp, err := c.send(ctx, req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")
		if data == "[DONE]" {
			return nil
		}

		var chunk streamChunk
		if err := json.Unmarshal([]byte(data), &chunk); err != nil {
			// Skip keep-alives and malformed lines.
			continue
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		if content := chunk.Choices[0].Delta.Content; content != "" {
			if err := fn(content); err != nil {
				return err
			}
		}
		if chunk.Choices[0].FinishReason != "" {
			return nil
		}
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("%s stream read failed: %w", c.opts.Name, err)
	}
	return nil
}

func (c *Client) complete(ctx context.Context, req chatRequest) (string, error) {
	resp, err := c.send(ctx, req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%s read response failed: %w", c.opts.Name, err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("%s parse response failed: %w", c.opts.Name, err)
	}
	if len(parsed.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", c.opts.Name)
	}

	text := extractText(parsed.Choices[0].Message.Content)
	if text == "" {
		return "", fmt.Errorf("%s: no text content in response", c.opts.Name)
	}
	return text, nil
}

func (c *Client) send(ctx context.Context, payload chatRequest) (*http.Response, error) {
	// Per-call timeout is enforced by httpClient.Timeout, covering the body
	// read of streamed responses too; the caller's ctx can cancel earlier.
	jsonData, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s marshal request failed: %w", c.opts.Name, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.opts.BaseURL+"/chat/completions", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("%s create request failed: %w", c.opts.Name, err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.opts.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.opts.APIKey)
	}
	if c.opts.Referer != "" {
		req.Header.Set("HTTP-Referer", c.opts.Referer)
	}
	if c.opts.Title != "" {
		req.Header.Set("X-Title", c.opts.Title)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s request failed: %w", c.opts.Name, err)
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("%s: server returned status %d: %s", c.opts.Name, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return resp, nil
}

func buildMessages(systemPrompt, userPrompt string) []message {
	messages := []message{}
	if systemPrompt != "" {
		messages = append(messages, message{Role: "system", Content: systemPrompt})
	}
	messages = append(messages, message{Role: "user", Content: userPrompt})
	return messages
}

// extractText handles both plain-string and content-part response formats.
func extractText(content any) string {
	switch v := content.(type) {
	case string:
		return v
	case []any:
		for _, item := range v {
			if partMap, ok := item.(map[string]any); ok {
				if text, ok := partMap["text"].(string); ok && text != "" {
					return text
				}
			}
		}
	}
	return ""
}
