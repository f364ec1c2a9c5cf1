package deepanalysis

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/artlab/art-analyzer/pkg/types"
)

const colorSystemPrompt = `You are an art critic specializing in color theory and color psychology. You receive measured color data for a painting and interpret it for a Russian-language art catalog. Respond with a single JSON object with exactly these fields, all narrative values in Russian:
{"palette_interpretation": "...", "mood_tags": ["..."], "color_harmony": "...", "emotional_impact": "..."}
No markdown fences, no reasoning preamble, JSON only.`

const compositionSystemPrompt = `You are an art critic specializing in pictorial composition. You receive measured composition metrics for a painting and interpret them for a Russian-language art catalog. Respond with a single JSON object with exactly these fields, narrative values in Russian:
{"composition_type": "...", "balance_description": "...", "visual_flow": "...", "focal_point_analysis": "...", "spatial_depth": "...", "dynamism_level": "low|moderate|high"}
No markdown fences, no reasoning preamble, JSON only.`

const sceneSystemPrompt = `You are an art historian interpreting the subject matter of a painting. You receive scene features observed in the image plus classifier predictions for the likely artist and style. Respond with a single JSON object with exactly these fields, narrative values in Russian:
{"narrative_interpretation": "...", "symbolism": "...", "subject_analysis": "...", "text_interpretation": "..." or null, "cultural_references": ["..."]}
No markdown fences, no reasoning preamble, JSON only.`

const techniqueSystemPrompt = `You are an expert in painting technique and materials. You receive classifier predictions plus measured color and composition data for an artwork. Infer the likely technique for a Russian-language art catalog. Respond with a single JSON object with exactly these fields, narrative values in Russian:
{"brushwork": "...", "light_analysis": "...", "spatial_treatment": "...", "medium_estimation": "...", "technical_skill_indicators": ["..."]}
No markdown fences, no reasoning preamble, JSON only.`

const historicalSystemPrompt = `You are an art historian placing an artwork in its historical context. You receive classifier predictions and four prior analyses (color, composition, scene, technique). Synthesize a historical assessment for a Russian-language art catalog. Never present attribution as certain. Respond with a single JSON object with exactly these fields, narrative values in Russian:
{"estimated_era": "...", "art_movement_connections": ["..."], "artistic_influences": "...", "historical_significance": "...", "cultural_context": "...", "confidence_note": "..."}
No markdown fences, no reasoning preamble, JSON only.`

const summarySystemPrompt = `You are a senior art critic writing a deep catalog entry in Russian. You receive the complete multi-stage analysis of one artwork: classifier predictions, color psychology, composition, scene, technique, and historical context.

Write a single continuous Russian-language essay of at least 2000 words, in Markdown, with exactly these sections in this order:
## Общее впечатление
## Цвет и свет
## Композиция
## Сюжет и символика
## Техника исполнения
## Исторический контекст
## Заключение

Cite concrete evidence inline using marker syntax: {type|value|label} where type is one of color, technique, composition, mood, era, artist. Examples: {color|#8b4513|тёплая сиена}, {technique|импасто}, {artist|Клод Моне}. Use the exact hex codes from the color data when citing colors. Place at least one marker in every section. Write the essay directly, no reasoning preamble, no JSON.`

func featuresJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

// formatPrediction turns a classifier slug like "vincent-van-gogh" into a
// readable name.
func formatPrediction(p types.Prediction) string {
	name := strings.ReplaceAll(p.Name, "-", " ")
	name = strings.ReplaceAll(name, "_", " ")
	words := strings.Fields(name)
	for i, w := range words {
		// Uppercase the first rune, not the first byte, so Cyrillic
		// names survive.
		r, size := utf8.DecodeRuneInString(w)
		words[i] = string(unicode.ToUpper(r)) + w[size:]
	}
	return fmt.Sprintf("%s (%.0f%%)", strings.Join(words, " "), p.Probability*100)
}

func formatPredictions(preds *types.PredictionSet) string {
	if preds == nil {
		return "Предсказания классификатора недоступны."
	}
	var b strings.Builder
	section := func(title string, items []types.Prediction) {
		if len(items) == 0 {
			return
		}
		b.WriteString(title + ":\n")
		for _, p := range items {
			b.WriteString("  - " + formatPrediction(p) + "\n")
		}
	}
	section("Художники", preds.Artists)
	section("Жанры", preds.Genres)
	section("Стили", preds.Styles)
	if b.Len() == 0 {
		return "Предсказания классификатора недоступны."
	}
	return b.String()
}

func buildColorPrompt(features types.ColorFeatures) string {
	return "Измеренные цветовые характеристики картины:\n\n" + featuresJSON(features) +
		"\n\nИнтерпретируй палитру, её гармонию и эмоциональное воздействие."
}

func buildCompositionPrompt(features types.CompositionFeatures) string {
	return "Измеренные композиционные характеристики картины:\n\n" + featuresJSON(features) +
		"\n\nОпредели тип композиции и опиши баланс, визуальный поток и глубину."
}

func buildScenePrompt(features types.SceneFeatures, preds *types.PredictionSet) string {
	return "Наблюдаемые элементы сцены:\n\n" + featuresJSON(features) +
		"\n\nПредсказания классификатора:\n" + formatPredictions(preds) +
		"\n\nИнтерпретируй сюжет, символику и культурные отсылки."
}

func buildTechniquePrompt(preds *types.PredictionSet, colors types.ColorFeatures, comp types.CompositionFeatures) string {
	return "Предсказания классификатора:\n" + formatPredictions(preds) +
		"\n\nЦветовые характеристики:\n" + featuresJSON(colors) +
		"\n\nКомпозиционные характеристики:\n" + featuresJSON(comp) +
		"\n\nОцени манеру письма, работу со светом и вероятную технику."
}

func buildHistoricalPrompt(preds *types.PredictionSet,
	color types.ColorAnalysis, comp types.CompositionAnalysis,
	scn types.SceneAnalysis, tech types.TechniqueAnalysis) string {
	return "Предсказания классификатора:\n" + formatPredictions(preds) +
		"\n\nАнализ цвета:\n" + featuresJSON(color) +
		"\n\nАнализ композиции:\n" + featuresJSON(comp) +
		"\n\nАнализ сюжета:\n" + featuresJSON(scn) +
		"\n\nАнализ техники:\n" + featuresJSON(tech) +
		"\n\nПомести произведение в исторический контекст."
}

func buildSummaryPrompt(preds *types.PredictionSet,
	color types.ColorAnalysis, comp types.CompositionAnalysis,
	scn types.SceneAnalysis, tech types.TechniqueAnalysis,
	hist types.HistoricalAnalysis) string {
	return "Предсказания классификатора:\n" + formatPredictions(preds) +
		"\n\nАнализ цвета:\n" + featuresJSON(color) +
		"\n\nАнализ композиции:\n" + featuresJSON(comp) +
		"\n\nАнализ сюжета:\n" + featuresJSON(scn) +
		"\n\nАнализ техники:\n" + featuresJSON(tech) +
		"\n\nИсторический контекст:\n" + featuresJSON(hist) +
		"\n\nНапиши полную каталожную статью."
}
