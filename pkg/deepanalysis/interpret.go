package deepanalysis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/artlab/art-analyzer/pkg/llm"
	"github.com/artlab/art-analyzer/pkg/markers"
	"github.com/artlab/art-analyzer/pkg/types"
)

// generate runs one provider call with a per-call timeout and strips
// reasoning tags from the response.
func (s *Service) generate(ctx context.Context, system, user string, maxTokens int, temperature float64, timeout time.Duration) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}
	response, err := s.provider.Generate(ctx, system, user, maxTokens, temperature)
	if err != nil {
		return "", err
	}
	return llm.CleanThinkTags(response), nil
}

func (s *Service) analyzeColor(ctx context.Context, features types.ColorFeatures) types.ColorAnalysis {
	if s.provider == nil {
		return stubColorAnalysis(features)
	}
	cleaned, err := s.generate(ctx, colorSystemPrompt, buildColorPrompt(features),
		s.config.MaxTokens, s.config.Temperature, s.config.StandardTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("color interpretation failed")
		return stubColorAnalysis(features)
	}

	if raw := llm.ExtractJSON(cleaned); raw != nil {
		var a types.ColorAnalysis
		if json.Unmarshal(raw, &a) == nil {
			a.Source = s.provider.Name()
			return a
		}
	}
	s.log.Warn().Msg("color interpretation JSON unparseable, keeping raw text")
	return types.ColorAnalysis{
		PaletteInterpretation: truncate(cleaned, 500),
		MoodTags:              []string{"неопределённый"},
		ColorHarmony:          "смешанная",
		EmotionalImpact:       "Требуется дополнительный анализ.",
		Source:                s.provider.Name(),
	}
}

func (s *Service) analyzeComposition(ctx context.Context, features types.CompositionFeatures) types.CompositionAnalysis {
	if s.provider == nil {
		return stubCompositionAnalysis(features)
	}
	cleaned, err := s.generate(ctx, compositionSystemPrompt, buildCompositionPrompt(features),
		s.config.MaxTokens, s.config.Temperature, s.config.StandardTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("composition interpretation failed")
		return stubCompositionAnalysis(features)
	}

	if raw := llm.ExtractJSON(cleaned); raw != nil {
		var a types.CompositionAnalysis
		if json.Unmarshal(raw, &a) == nil {
			a.Source = s.provider.Name()
			return a
		}
	}
	s.log.Warn().Msg("composition interpretation JSON unparseable, keeping raw text")
	return types.CompositionAnalysis{
		CompositionType:    "смешанная",
		BalanceDescription: truncate(cleaned, 300),
		VisualFlow:         "Требуется дополнительный анализ.",
		FocalPointAnalysis: "Основной фокус в центральной части.",
		SpatialDepth:       "Умеренная глубина.",
		DynamismLevel:      "moderate",
		Source:             s.provider.Name(),
	}
}

func (s *Service) analyzeScene(ctx context.Context, features types.SceneFeatures, preds *types.PredictionSet) types.SceneAnalysis {
	if s.provider == nil {
		return stubSceneAnalysis()
	}
	cleaned, err := s.generate(ctx, sceneSystemPrompt, buildScenePrompt(features, preds),
		s.config.MaxTokens, s.config.Temperature, s.config.StandardTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("scene interpretation failed")
		return stubSceneAnalysis()
	}

	if raw := llm.ExtractJSON(cleaned); raw != nil {
		var a types.SceneAnalysis
		if json.Unmarshal(raw, &a) == nil {
			if a.CulturalReferences == nil {
				a.CulturalReferences = []string{}
			}
			a.Source = s.provider.Name()
			return a
		}
	}
	s.log.Warn().Msg("scene interpretation JSON unparseable, keeping raw text")
	return types.SceneAnalysis{
		NarrativeInterpretation: truncate(cleaned, 400),
		Symbolism:               "Требуется дополнительный анализ.",
		SubjectAnalysis:         "Анализ сюжета.",
		CulturalReferences:      []string{},
		Source:                  s.provider.Name(),
	}
}

func (s *Service) analyzeTechnique(ctx context.Context, preds *types.PredictionSet,
	colors types.ColorFeatures, comp types.CompositionFeatures) types.TechniqueAnalysis {
	if s.provider == nil {
		return stubTechniqueAnalysis(preds)
	}
	cleaned, err := s.generate(ctx, techniqueSystemPrompt, buildTechniquePrompt(preds, colors, comp),
		s.config.MaxTokens, s.config.Temperature, s.config.StandardTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("technique interpretation failed")
		return stubTechniqueAnalysis(preds)
	}

	if raw := llm.ExtractJSON(cleaned); raw != nil {
		var a types.TechniqueAnalysis
		if json.Unmarshal(raw, &a) == nil {
			if a.TechnicalSkillIndicators == nil {
				a.TechnicalSkillIndicators = []string{}
			}
			a.Source = s.provider.Name()
			return a
		}
	}
	s.log.Warn().Msg("technique interpretation JSON unparseable, keeping raw text")
	return types.TechniqueAnalysis{
		Brushwork:                truncate(cleaned, 300),
		LightAnalysis:            "Требуется дополнительный анализ.",
		SpatialTreatment:         "Анализ пространства.",
		MediumEstimation:         "неизвестно",
		TechnicalSkillIndicators: []string{},
		Source:                   s.provider.Name(),
	}
}

// analyzeHistorical is the last interpretation stage and consumes every
// prior analysis as read-only context.
func (s *Service) analyzeHistorical(ctx context.Context, preds *types.PredictionSet,
	color types.ColorAnalysis, comp types.CompositionAnalysis,
	scn types.SceneAnalysis, tech types.TechniqueAnalysis) types.HistoricalAnalysis {
	if s.provider == nil {
		return stubHistoricalAnalysis(preds)
	}
	cleaned, err := s.generate(ctx, historicalSystemPrompt,
		buildHistoricalPrompt(preds, color, comp, scn, tech),
		s.config.HistoricalMaxTokens, s.config.Temperature, s.config.StandardTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("historical interpretation failed")
		return stubHistoricalAnalysis(preds)
	}

	if raw := llm.ExtractJSON(cleaned); raw != nil {
		var a types.HistoricalAnalysis
		if json.Unmarshal(raw, &a) == nil {
			if a.ArtMovementConnections == nil {
				a.ArtMovementConnections = []string{}
			}
			a.Source = s.provider.Name()
			return a
		}
	}
	s.log.Warn().Msg("historical interpretation JSON unparseable, keeping raw text")
	return types.HistoricalAnalysis{
		EstimatedEra:           "Неопределённая эпоха",
		ArtMovementConnections: []string{},
		ArtisticInfluences:     truncate(cleaned, 400),
		HistoricalSignificance: "Требуется дополнительный анализ.",
		CulturalContext:        "Анализ контекста.",
		ConfidenceNote:         "Это интерпретация, а не строгая атрибуция.",
		Source:                 s.provider.Name(),
	}
}

// generateSummary produces the final marker-annotated catalog entry. The
// summary has no structured JSON shape, so the raw text goes straight to
// the marker parser.
func (s *Service) generateSummary(ctx context.Context, preds *types.PredictionSet,
	color types.ColorAnalysis, comp types.CompositionAnalysis,
	scn types.SceneAnalysis, tech types.TechniqueAnalysis,
	hist types.HistoricalAnalysis) markers.RichSummary {
	if s.provider == nil {
		return markers.Parse(stubSummary(preds))
	}
	cleaned, err := s.generate(ctx, summarySystemPrompt,
		buildSummaryPrompt(preds, color, comp, scn, tech, hist),
		s.config.SynthesisMaxTokens, s.config.SynthesisTemperature, s.config.SynthesisTimeout)
	if err != nil {
		s.log.Error().Err(err).Str("provider", s.provider.Name()).Msg("summary synthesis failed")
		return markers.Parse(stubSummary(preds))
	}
	return markers.Parse(cleaned)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
