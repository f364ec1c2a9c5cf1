// Package markers parses inline citation markers out of generated analysis
// text. A marker has the form {type|value|label} with an optional label and
// links a narrative claim to underlying feature evidence.
package markers

import (
	"fmt"
	"html"
	"regexp"
	"strings"
)

var markerPattern = regexp.MustCompile(`\{(\w+)\|([^}|]+)(?:\|([^}]+))?\}`)

type markerStyle struct {
	Icon     string
	CSSClass string
}

var markerStyles = map[string]markerStyle{
	"color":       {Icon: "palette", CSSClass: "marker-color"},
	"technique":   {Icon: "brush", CSSClass: "marker-technique"},
	"composition": {Icon: "layers", CSSClass: "marker-composition"},
	"mood":        {Icon: "heart", CSSClass: "marker-mood"},
	"era":         {Icon: "clock", CSSClass: "marker-era"},
	"artist":      {Icon: "user", CSSClass: "marker-artist"},
}

var genericStyle = markerStyle{Icon: "info", CSSClass: "marker-generic"}

// InlineMarker is one extracted citation.
type InlineMarker struct {
	ID       string `json:"id"`
	Type     string `json:"type"`
	Value    string `json:"value"`
	Label    string `json:"label"`
	Icon     string `json:"icon"`
	CSSClass string `json:"css_class"`
	// Position is the byte offset of the marker's opening brace in the
	// raw text, not a code-point index. Slice the raw Go string with it.
	Position int `json:"position"`
}

// RichSummary is the parsed form of a marker-bearing summary text.
type RichSummary struct {
	RawText     string         `json:"raw_text"`
	CleanedText string         `json:"cleaned_text"`
	Markers     []InlineMarker `json:"markers"`
	HTMLText    string         `json:"html_text"`
	MarkerCount int            `json:"marker_count"`
}

// Parse extracts all inline markers from text. The cleaned text carries
// [[MARKER_marker_N]] placeholders in marker positions, the HTML text
// carries styled spans. Text without markers passes through unchanged.
func Parse(text string) RichSummary {
	var extracted []InlineMarker

	matches := markerPattern.FindAllStringSubmatchIndex(text, -1)
	for i, m := range matches {
		markerType := strings.ToLower(text[m[2]:m[3]])
		value := strings.TrimSpace(text[m[4]:m[5]])
		label := value
		if m[6] >= 0 {
			label = strings.TrimSpace(text[m[6]:m[7]])
		}
		style, ok := markerStyles[markerType]
		if !ok {
			style = genericStyle
		}
		extracted = append(extracted, InlineMarker{
			ID:       fmt.Sprintf("marker_%d", i),
			Type:     markerType,
			Value:    value,
			Label:    label,
			Icon:     style.Icon,
			CSSClass: style.CSSClass,
			Position: m[0],
		})
	}

	cleaned := text
	htmlText := text
	if len(extracted) > 0 {
		var cb, hb strings.Builder
		last := 0
		for i, m := range matches {
			cb.WriteString(text[last:m[0]])
			hb.WriteString(text[last:m[0]])
			cb.WriteString("[[MARKER_" + extracted[i].ID + "]]")
			hb.WriteString(toHTMLSpan(extracted[i]))
			last = m[1]
		}
		cb.WriteString(text[last:])
		hb.WriteString(text[last:])
		cleaned = cb.String()
		htmlText = hb.String()
	}

	if extracted == nil {
		extracted = []InlineMarker{}
	}
	return RichSummary{
		RawText:     text,
		CleanedText: cleaned,
		Markers:     extracted,
		HTMLText:    htmlText,
		MarkerCount: len(extracted),
	}
}

func toHTMLSpan(m InlineMarker) string {
	value := html.EscapeString(m.Value)
	label := html.EscapeString(m.Label)

	if m.Type == "color" && strings.HasPrefix(m.Value, "#") {
		return fmt.Sprintf(
			`<span class="inline-marker %s" data-type="%s" data-value="%s"><span class="color-swatch" style="background-color:%s"></span>%s</span>`,
			m.CSSClass, m.Type, value, value, label)
	}
	return fmt.Sprintf(
		`<span class="inline-marker %s" data-type="%s" data-value="%s" data-icon="%s">%s</span>`,
		m.CSSClass, m.Type, value, m.Icon, label)
}

// ExtractAllColors returns the hex codes of all color markers.
func ExtractAllColors(ms []InlineMarker) []string {
	var hexes []string
	for _, m := range ms {
		if m.Type == "color" && strings.HasPrefix(m.Value, "#") {
			hexes = append(hexes, m.Value)
		}
	}
	return hexes
}
