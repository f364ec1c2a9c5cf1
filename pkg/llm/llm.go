// Package llm defines the text-generation capability the analysis pipeline
// consumes, plus the response-cleanup helpers shared by every provider.
package llm

import (
	"context"
	"errors"
	"regexp"
	"strings"
)

// ErrNotConfigured is returned by the factory when no provider is selected.
var ErrNotConfigured = errors.New("llm: provider not configured")

// Provider generates text from a system/user prompt pair. Implementations
// hold no per-request state and are safe for concurrent use; the composition
// root constructs one per configuration and reuses it across runs.
type Provider interface {
	// Name identifies the provider for source tagging and logs.
	Name() string

	// Generate returns the complete response text.
	Generate(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64) (string, error)

	// GenerateStream calls fn with each response chunk as it arrives. The
	// chunks are raw model output; reasoning-tag cleanup is the consumer's
	// responsibility once the stream is fully drained.
	GenerateStream(ctx context.Context, systemPrompt, userPrompt string, maxTokens int, temperature float64, fn func(chunk string) error) error
}

// VisionProvider additionally accepts an image payload alongside the prompts.
type VisionProvider interface {
	Provider

	// GenerateWithImage sends a base64-encoded image with the given media
	// type together with the prompts.
	GenerateWithImage(ctx context.Context, systemPrompt, userPrompt, imageB64, mediaType string, maxTokens int, temperature float64) (string, error)
}

// Reasoning-tag patterns, applied in order: terminated blocks first so that
// an unterminated <thinking> is not wiped to end-of-string prematurely.
var thinkTagPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?is)<think[^>]*>.*?</think>`),
	regexp.MustCompile(`(?is)<thinking[^>]*>.*?</thinking>`),
	regexp.MustCompile(`(?is)<think[^>]*>.*$`),
	regexp.MustCompile(`(?is)<thinking[^>]*>.*$`),
}

var excessNewlines = regexp.MustCompile(`\n{3,}`)

// CleanThinkTags removes <think>...</think> and <thinking>...</thinking>
// blocks, including unterminated ones running to end-of-string, collapses
// runs of 3+ newlines to two, and trims the result. Reasoning models leak
// these tags even when the prompt forbids them.
func CleanThinkTags(text string) string {
	if text == "" {
		return ""
	}
	for _, p := range thinkTagPatterns {
		text = p.ReplaceAllString(text, "")
	}
	text = excessNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
