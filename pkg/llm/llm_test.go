package llm

import (
	"encoding/json"
	"testing"
)

func TestCleanThinkTags(t *testing.T) {
	if got := CleanThinkTags("<think>ignore me</think>Hello"); got != "Hello" {
		t.Errorf("Expected %q, got %q", "Hello", got)
	}

	if got := CleanThinkTags("<thinking>unterminated"); got != "" {
		t.Errorf("Expected empty string for unterminated block, got %q", got)
	}

	if got := CleanThinkTags("<THINKING>upper</THINKING>ok"); got != "ok" {
		t.Errorf("Expected case-insensitive match, got %q", got)
	}

	if got := CleanThinkTags("a\n\n\n\n\nb"); got != "a\n\nb" {
		t.Errorf("Expected newline collapse, got %q", got)
	}

	if got := CleanThinkTags(""); got != "" {
		t.Errorf("Expected empty input to stay empty, got %q", got)
	}
}

func TestCleanThinkTagsLeavesPlainText(t *testing.T) {
	in := "Обычный текст анализа без размышлений."
	if got := CleanThinkTags(in); got != in {
		t.Errorf("Plain text should pass through, got %q", got)
	}
}

func decode(t *testing.T, raw json.RawMessage) map[string]any {
	t.Helper()
	var m map[string]any
	if err := json.Unmarshal(raw, &m); err != nil {
		t.Fatalf("extracted candidate does not parse: %v", err)
	}
	return m
}

func TestExtractJSONDirect(t *testing.T) {
	raw := ExtractJSON(`  {"a": 1}  `)
	if raw == nil {
		t.Fatal("Expected direct parse to succeed")
	}
	if m := decode(t, raw); m["a"].(float64) != 1 {
		t.Errorf("Expected a=1, got %v", m["a"])
	}
}

func TestExtractJSONCodeBlock(t *testing.T) {
	text := "Sure! ```json\n{\"a\": 1}\n``` hope this helps"
	raw := ExtractJSON(text)
	if raw == nil {
		t.Fatal("Expected code block extraction to succeed")
	}
	if m := decode(t, raw); m["a"].(float64) != 1 {
		t.Errorf("Expected a=1, got %v", m["a"])
	}
}

func TestExtractJSONBraceMatching(t *testing.T) {
	raw := ExtractJSON(`{"a": {"b": 1}} trailing garbage`)
	if raw == nil {
		t.Fatal("Expected brace matching to succeed")
	}
	m := decode(t, raw)
	inner, ok := m["a"].(map[string]any)
	if !ok {
		t.Fatalf("Expected nested object, got %v", m["a"])
	}
	if inner["b"].(float64) != 1 {
		t.Errorf("Expected b=1, got %v", inner["b"])
	}
}

func TestExtractJSONBracesInsideStrings(t *testing.T) {
	raw := ExtractJSON(`prefix {"text": "a } b { c", "n": 2} suffix`)
	if raw == nil {
		t.Fatal("Expected extraction to ignore braces inside strings")
	}
	if m := decode(t, raw); m["n"].(float64) != 2 {
		t.Errorf("Expected n=2, got %v", m["n"])
	}
}

func TestExtractJSONGarbage(t *testing.T) {
	if raw := ExtractJSON("no json here at all"); raw != nil {
		t.Errorf("Expected nil for garbage, got %s", raw)
	}
	if raw := ExtractJSON("{broken"); raw != nil {
		t.Errorf("Expected nil for unbalanced braces, got %s", raw)
	}
	if raw := ExtractJSON(""); raw != nil {
		t.Errorf("Expected nil for empty input, got %s", raw)
	}
}
