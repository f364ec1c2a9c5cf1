// Package scene extracts semantic scene features from artwork images using
// a vision-capable LLM. Extraction degrades to empty features when no
// vision provider is configured or the call fails.
package scene

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog"

	"github.com/artlab/art-analyzer/pkg/llm"
	"github.com/artlab/art-analyzer/pkg/processing"
	"github.com/artlab/art-analyzer/pkg/types"
)

const systemPrompt = `You are a meticulous visual analyst for an art catalog. You examine artwork images and report what is depicted. Respond with a single JSON object and nothing else. No markdown fences, no reasoning preamble.`

const userPrompt = `Examine this artwork and return JSON with exactly these fields:
{
  "detected_objects": ["list of concrete objects and figures visible"],
  "style_tags": ["short visual style descriptors"],
  "description": "two or three sentences describing the scene",
  "detected_text": [{"text": "...", "language": "ISO code", "confidence": 0.0}],
  "primary_subject": "the single main subject",
  "mood": "one or two words",
  "setting": "where the scene takes place"
}
Use empty lists when nothing applies. Report text fragments only if actually legible.`

// Config controls how the image is encoded for the vision model.
type Config struct {
	MaxTokens   int
	Temperature float64
	SendFormat  string
	SendMaxDim  int
	SendQuality int
	Timeout     time.Duration
}

// DefaultConfig returns the vision extraction defaults.
func DefaultConfig() Config {
	return Config{
		MaxTokens:   2500,
		Temperature: 0.3,
		SendFormat:  "jpg",
		SendMaxDim:  1024,
		SendQuality: 85,
		Timeout:     120 * time.Second,
	}
}

// Extractor sends artwork images to a vision LLM and parses the structured
// response. A nil vision provider disables extraction entirely.
type Extractor struct {
	vision llm.VisionProvider
	config Config
	proc   *processing.Processor
	log    zerolog.Logger
}

// NewExtractor creates an Extractor. vision may be nil.
func NewExtractor(vision llm.VisionProvider, logger zerolog.Logger) *Extractor {
	return NewExtractorWithConfig(vision, DefaultConfig(), logger)
}

// NewExtractorWithConfig creates an Extractor with custom configuration.
func NewExtractorWithConfig(vision llm.VisionProvider, config Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		vision: vision,
		config: config,
		proc:   processing.NewProcessor(),
		log:    logger,
	}
}

// Enabled reports whether a vision provider is configured.
func (e *Extractor) Enabled() bool { return e.vision != nil }

// Extract returns scene features for the image at path. It never returns
// an error: every failure mode yields empty or partial features.
func (e *Extractor) Extract(ctx context.Context, path string) types.SceneFeatures {
	if e.vision == nil {
		e.log.Info().Msg("vision provider not configured, skipping scene extraction")
		return emptyFeatures()
	}

	img, err := e.proc.LoadImage(path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("scene extraction: cannot load image")
		return emptyFeatures()
	}

	b64, err := e.proc.PrepareImageForModel(img, e.config.SendFormat, e.config.SendMaxDim, e.config.SendQuality)
	if err != nil {
		e.log.Error().Err(err).Msg("scene extraction: cannot encode image")
		return emptyFeatures()
	}

	if e.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.config.Timeout)
		defer cancel()
	}

	response, err := e.vision.GenerateWithImage(ctx, systemPrompt, userPrompt,
		b64, processing.MediaTypeFor("."+e.config.SendFormat),
		e.config.MaxTokens, e.config.Temperature)
	if err != nil {
		e.log.Error().Err(err).Str("provider", e.vision.Name()).Msg("vision scene extraction failed")
		f := emptyFeatures()
		f.Description = "Vision analysis failed: " + err.Error()
		return f
	}

	return e.parseResponse(response)
}

func (e *Extractor) parseResponse(response string) types.SceneFeatures {
	raw := llm.ExtractJSON(llm.CleanThinkTags(response))
	if raw == nil {
		e.log.Warn().Msg("vision response is not valid JSON, keeping raw description")
		f := emptyFeatures()
		f.Description = truncate(response, 500)
		return f
	}

	var features types.SceneFeatures
	if err := json.Unmarshal(raw, &features); err != nil {
		e.log.Warn().Err(err).Msg("vision JSON does not match the scene schema")
		f := emptyFeatures()
		f.Description = truncate(response, 500)
		return f
	}
	if features.DetectedObjects == nil {
		features.DetectedObjects = []string{}
	}
	if features.StyleTags == nil {
		features.StyleTags = []string{}
	}
	if features.DetectedText == nil {
		features.DetectedText = []types.DetectedText{}
	}
	return features
}

func emptyFeatures() types.SceneFeatures {
	return types.SceneFeatures{
		DetectedObjects: []string{},
		StyleTags:       []string{},
		DetectedText:    []types.DetectedText{},
	}
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
