// Package artanalyzer provides deep artwork analysis: classical
// computer-vision feature extraction combined with a chain of LLM
// interpretation calls producing a cited, Russian-language catalog entry.
//
// Basic usage:
//
//	package main
//
//	import (
//		"context"
//		"fmt"
//		"log"
//
//		artanalyzer "github.com/artlab/art-analyzer"
//		"github.com/artlab/art-analyzer/pkg/types"
//	)
//
//	func main() {
//		// Stub-only analyzer: no LLM configured, feature extraction
//		// plus deterministic fallback narratives.
//		a := artanalyzer.New(nil, nil)
//
//		preds := &types.PredictionSet{
//			Artists: []types.Prediction{{Name: "claude-monet", Probability: 0.82}},
//		}
//		result, err := a.Analyze(context.Background(), "painting.jpg", preds)
//		if err != nil {
//			log.Fatal(err)
//		}
//
//		fmt.Printf("dominant color: %s (%s)\n",
//			result.ColorFeatures.DominantColors[0].Hex,
//			result.ColorFeatures.DominantColors[0].Name)
//		fmt.Println(result.Summary.CleanedText)
//	}
//
// The package consists of these main components:
//
//  1. Feature extraction (pkg/palette, pkg/composition, pkg/scene):
//     dominant colors via k-means, spectral-residual saliency, symmetry,
//     rule-of-thirds scoring, and vision-LLM scene features.
//  2. Interpretation (pkg/deepanalysis): per-domain LLM calls in a fixed
//     dependency order, each degrading to a deterministic stub.
//  3. Marker parsing (pkg/markers): the {type|value|label} inline-citation
//     grammar for the final synthesis text.
//  4. Providers (pkg/ollama, pkg/openrouter): interchangeable llm.Provider
//     backends, including vision-capable variants.
package artanalyzer

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/artlab/art-analyzer/pkg/deepanalysis"
	"github.com/artlab/art-analyzer/pkg/llm"
	"github.com/artlab/art-analyzer/pkg/scene"
	"github.com/artlab/art-analyzer/pkg/types"
)

// Version of the art analyzer library
const Version = "1.0.0"

// Analyzer is a high-level interface over the deep-analysis pipeline.
type Analyzer struct {
	service *deepanalysis.Service
}

// New creates an Analyzer with default configuration. Both providers may
// be nil: a nil text provider yields stub narratives, a nil vision
// provider disables scene extraction.
func New(provider llm.Provider, vision llm.VisionProvider) *Analyzer {
	return &Analyzer{service: deepanalysis.NewService(provider, vision, zerolog.Nop())}
}

// NewWithConfig creates an Analyzer with custom interpretation limits and
// a logger.
func NewWithConfig(provider llm.Provider, vision llm.VisionProvider,
	config deepanalysis.Config, sceneConfig scene.Config, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		service: deepanalysis.NewServiceWithConfig(provider, vision, config, sceneConfig, logger),
	}
}

// Analyze runs the full deep-analysis pipeline on one image.
func (a *Analyzer) Analyze(ctx context.Context, imagePath string, preds *types.PredictionSet) (*deepanalysis.FullResult, error) {
	return a.service.RunFullDeepAnalysis(ctx, imagePath, preds)
}

// AnalyzeModule runs exactly one analysis module: "color", "composition",
// "scene", "technique" or "historical".
func (a *Analyzer) AnalyzeModule(ctx context.Context, module, imagePath string, preds *types.PredictionSet) (*deepanalysis.ModuleResult, error) {
	return a.service.RunSingleModuleAnalysis(ctx, module, imagePath, preds)
}
