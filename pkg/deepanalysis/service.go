// Package deepanalysis orchestrates the multi-stage artwork analysis: CV
// feature extraction, a dependency-ordered chain of LLM interpretation
// calls, and a final marker-annotated synthesis. Every interpretation
// failure degrades to a deterministic stub; only an unreadable input image
// is a fatal error.
package deepanalysis

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/artlab/art-analyzer/pkg/composition"
	"github.com/artlab/art-analyzer/pkg/llm"
	"github.com/artlab/art-analyzer/pkg/markers"
	"github.com/artlab/art-analyzer/pkg/palette"
	"github.com/artlab/art-analyzer/pkg/scene"
	"github.com/artlab/art-analyzer/pkg/types"
)

// Config holds per-call-type limits for the interpretation chain.
type Config struct {
	StandardTimeout  time.Duration
	SynthesisTimeout time.Duration

	MaxTokens           int
	HistoricalMaxTokens int
	SynthesisMaxTokens  int

	Temperature          float64
	SynthesisTemperature float64
}

// DefaultConfig returns the interpretation defaults. The synthesis call
// requests the largest output and gets the longest timeout.
func DefaultConfig() Config {
	return Config{
		StandardTimeout:      60 * time.Second,
		SynthesisTimeout:     180 * time.Second,
		MaxTokens:            2500,
		HistoricalMaxTokens:  1500,
		SynthesisMaxTokens:   8000,
		Temperature:          0.7,
		SynthesisTemperature: 0.75,
	}
}

// FullResult is the complete deep-analysis payload: every interpretation,
// every raw feature set, and the parsed rich summary.
type FullResult struct {
	RunID               string                    `json:"run_id"`
	Color               types.ColorAnalysis       `json:"color"`
	ColorFeatures       types.ColorFeatures       `json:"color_features"`
	Composition         types.CompositionAnalysis `json:"composition"`
	CompositionFeatures types.CompositionFeatures `json:"composition_features"`
	Scene               types.SceneAnalysis       `json:"scene"`
	SceneFeatures       types.SceneFeatures       `json:"scene_features"`
	Technique           types.TechniqueAnalysis   `json:"technique"`
	Historical          types.HistoricalAnalysis  `json:"historical"`
	Summary             markers.RichSummary       `json:"summary"`
}

// ModuleResult is the payload of a single-module run. Features is nil for
// the technique and historical modules, which have no feature set of their
// own.
type ModuleResult struct {
	Module   string `json:"module"`
	Features any    `json:"features"`
	Analysis any    `json:"analysis"`
}

// Service runs deep analyses. It is safe for concurrent use: the provider
// and extractors hold no per-run state.
type Service struct {
	provider llm.Provider
	colors   *palette.Extractor
	comp     *composition.Analyzer
	scenes   *scene.Extractor
	config   Config
	log      zerolog.Logger
}

// NewService creates a Service. provider may be nil for a stub-only
// service; vision may be nil to disable scene extraction.
func NewService(provider llm.Provider, vision llm.VisionProvider, logger zerolog.Logger) *Service {
	return NewServiceWithConfig(provider, vision, DefaultConfig(), scene.DefaultConfig(), logger)
}

// NewServiceWithConfig creates a Service with custom limits.
func NewServiceWithConfig(provider llm.Provider, vision llm.VisionProvider,
	config Config, sceneConfig scene.Config, logger zerolog.Logger) *Service {
	return &Service{
		provider: provider,
		colors:   palette.NewExtractor(logger),
		comp:     composition.NewAnalyzer(logger),
		scenes:   scene.NewExtractorWithConfig(vision, sceneConfig, logger),
		config:   config,
		log:      logger,
	}
}

// RunFullDeepAnalysis runs the complete pipeline on one image. The only
// error it returns is an unreadable input file; every downstream failure
// degrades inside its stage.
func (s *Service) RunFullDeepAnalysis(ctx context.Context, imagePath string, preds *types.PredictionSet) (*FullResult, error) {
	if err := checkReadable(imagePath); err != nil {
		return nil, err
	}
	runID := uuid.NewString()
	log := s.log.With().Str("run_id", runID).Str("image", imagePath).Logger()

	log.Info().Msg("extracting visual features")
	colorFeatures := s.colors.Extract(imagePath)
	compFeatures := s.comp.Extract(imagePath)
	sceneFeatures := s.scenes.Extract(ctx, imagePath)

	log.Info().Msg("interpreting color psychology")
	colorAnalysis := s.analyzeColor(ctx, colorFeatures)

	log.Info().Msg("interpreting composition")
	compAnalysis := s.analyzeComposition(ctx, compFeatures)

	log.Info().Msg("interpreting scene")
	sceneAnalysis := s.analyzeScene(ctx, sceneFeatures, preds)

	log.Info().Msg("interpreting technique")
	techniqueAnalysis := s.analyzeTechnique(ctx, preds, colorFeatures, compFeatures)

	log.Info().Msg("interpreting historical context")
	historicalAnalysis := s.analyzeHistorical(ctx, preds,
		colorAnalysis, compAnalysis, sceneAnalysis, techniqueAnalysis)

	log.Info().Msg("generating summary synthesis")
	summary := s.generateSummary(ctx, preds,
		colorAnalysis, compAnalysis, sceneAnalysis, techniqueAnalysis, historicalAnalysis)

	return &FullResult{
		RunID:               runID,
		Color:               colorAnalysis,
		ColorFeatures:       colorFeatures,
		Composition:         compAnalysis,
		CompositionFeatures: compFeatures,
		Scene:               sceneAnalysis,
		SceneFeatures:       sceneFeatures,
		Technique:           techniqueAnalysis,
		Historical:          historicalAnalysis,
		Summary:             summary,
	}, nil
}

// RunSingleModuleAnalysis runs one module in isolation. The technique and
// historical modules re-run their feature-extraction dependencies since
// nothing is cached across calls.
func (s *Service) RunSingleModuleAnalysis(ctx context.Context, module, imagePath string, preds *types.PredictionSet) (*ModuleResult, error) {
	if err := checkReadable(imagePath); err != nil {
		return nil, err
	}

	switch module {
	case "color":
		features := s.colors.Extract(imagePath)
		return &ModuleResult{Module: module, Features: features, Analysis: s.analyzeColor(ctx, features)}, nil

	case "composition":
		features := s.comp.Extract(imagePath)
		return &ModuleResult{Module: module, Features: features, Analysis: s.analyzeComposition(ctx, features)}, nil

	case "scene":
		features := s.scenes.Extract(ctx, imagePath)
		return &ModuleResult{Module: module, Features: features, Analysis: s.analyzeScene(ctx, features, preds)}, nil

	case "technique":
		colorFeatures := s.colors.Extract(imagePath)
		compFeatures := s.comp.Extract(imagePath)
		analysis := s.analyzeTechnique(ctx, preds, colorFeatures, compFeatures)
		return &ModuleResult{Module: module, Analysis: analysis}, nil

	case "historical":
		colorFeatures := s.colors.Extract(imagePath)
		compFeatures := s.comp.Extract(imagePath)
		sceneFeatures := s.scenes.Extract(ctx, imagePath)

		colorAnalysis := s.analyzeColor(ctx, colorFeatures)
		compAnalysis := s.analyzeComposition(ctx, compFeatures)
		sceneAnalysis := s.analyzeScene(ctx, sceneFeatures, preds)
		techniqueAnalysis := s.analyzeTechnique(ctx, preds, colorFeatures, compFeatures)

		analysis := s.analyzeHistorical(ctx, preds,
			colorAnalysis, compAnalysis, sceneAnalysis, techniqueAnalysis)
		return &ModuleResult{Module: module, Analysis: analysis}, nil

	default:
		return nil, fmt.Errorf("unknown analysis module %q", module)
	}
}

func checkReadable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("image not readable: %w", err)
	}
	f.Close()
	return nil
}
