package deepanalysis

import (
	"fmt"
	"strings"

	"github.com/artlab/art-analyzer/pkg/types"
)

// Deterministic fallbacks used when no text provider is configured or a
// provider call fails. The narrative is intentionally minimal and always
// tagged with the stub source.

func stubColorAnalysis(features types.ColorFeatures) types.ColorAnalysis {
	var names []string
	for i, c := range features.DominantColors {
		if i >= 3 {
			break
		}
		names = append(names, c.Name)
	}
	return types.ColorAnalysis{
		PaletteInterpretation: fmt.Sprintf("Палитра состоит преимущественно из %s.", strings.Join(names, ", ")),
		MoodTags:              []string{"нейтральный"},
		ColorHarmony:          "смешанная",
		EmotionalImpact:       "Анализ недоступен (LLM не настроен).",
		Source:                types.SourceStub,
	}
}

func stubCompositionAnalysis(features types.CompositionFeatures) types.CompositionAnalysis {
	compositionType := "balanced"
	if features.VisualWeightDistribution != "balanced" {
		compositionType = "asymmetrical"
	}
	return types.CompositionAnalysis{
		CompositionType:    compositionType,
		BalanceDescription: fmt.Sprintf("Визуальный вес: %s.", features.VisualWeightDistribution),
		VisualFlow:         "Анализ недоступен.",
		FocalPointAnalysis: fmt.Sprintf("Соответствие правилу третей: %.0f%%.", features.RuleOfThirdsAlignment*100),
		SpatialDepth:       "Анализ недоступен.",
		DynamismLevel:      "moderate",
		Source:             types.SourceStub,
	}
}

func stubSceneAnalysis() types.SceneAnalysis {
	return types.SceneAnalysis{
		NarrativeInterpretation: "Анализ сюжета недоступен (LLM не настроен).",
		Symbolism:               "Символика не определена.",
		SubjectAnalysis:         "Требуется настройка LLM.",
		CulturalReferences:      []string{},
		Source:                  types.SourceStub,
	}
}

func stubTechniqueAnalysis(preds *types.PredictionSet) types.TechniqueAnalysis {
	artist := preds.TopArtist("неизвестный")
	return types.TechniqueAnalysis{
		Brushwork:                fmt.Sprintf("Стиль похож на работы %s.", artist),
		LightAnalysis:            "Анализ света недоступен.",
		SpatialTreatment:         "Анализ пространства недоступен.",
		MediumEstimation:         "неизвестно",
		TechnicalSkillIndicators: []string{},
		Source:                   types.SourceStub,
	}
}

func stubHistoricalAnalysis(preds *types.PredictionSet) types.HistoricalAnalysis {
	style := preds.TopStyle("неизвестный стиль")
	return types.HistoricalAnalysis{
		EstimatedEra:           "Неопределённая эпоха",
		ArtMovementConnections: []string{style},
		ArtisticInfluences:     "Анализ влияний недоступен (LLM не настроен).",
		HistoricalSignificance: "Требуется настройка LLM для анализа.",
		CulturalContext:        "Контекст не определён.",
		ConfidenceNote:         "Данные ограничены из-за отсутствия LLM.",
		Source:                 types.SourceStub,
	}
}

// stubSummary is plain Markdown without citation-marker syntax, so a
// degraded run yields a summary with zero markers.
func stubSummary(preds *types.PredictionSet) string {
	artist := preds.TopArtist("неизвестный художник")
	return fmt.Sprintf(`## Сводный анализ

Произведение демонстрирует стилистическое сходство с работами %s.
Характерные мазки и композиционное построение указывают на сложившуюся художественную традицию.

Для получения полного глубокого анализа необходимо настроить LLM-провайдер в конфигурации приложения.

*Примечание: данный анализ является предварительным и требует расширенной интерпретации.*`, artist)
}
