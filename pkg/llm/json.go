package llm

import (
	"encoding/json"
	"regexp"
	"strings"
)

var codeBlockPattern = regexp.MustCompile("```(?:json)?\\s*(\\{[\\s\\S]*?\\})\\s*```")

// ExtractJSON recovers a JSON object from model output that may wrap it in
// prose, markdown fences, or a preamble. It tries, in order: the whole
// trimmed text, each fenced code block, and finally brace matching from the
// first '{'. Returns nil when nothing parseable is found; never fails hard.
func ExtractJSON(text string) json.RawMessage {
	if text == "" {
		return nil
	}

	trimmed := strings.TrimSpace(text)
	if isJSONObject(trimmed) {
		return json.RawMessage(trimmed)
	}

	for _, m := range codeBlockPattern.FindAllStringSubmatch(text, -1) {
		if isJSONObject(m[1]) {
			return json.RawMessage(m[1])
		}
	}

	if candidate := matchBraces(text); candidate != "" && isJSONObject(candidate) {
		return json.RawMessage(candidate)
	}

	return nil
}

func isJSONObject(s string) bool {
	var obj map[string]json.RawMessage
	return json.Unmarshal([]byte(s), &obj) == nil
}

// matchBraces finds the minimal balanced {...} starting at the first '{',
// tracking string state so that braces inside JSON strings do not count.
func matchBraces(text string) string {
	start := strings.Index(text, "{")
	if start < 0 {
		return ""
	}

	depth := 0
	inString := false
	escaped := false

	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			escaped = true
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
