package deepanalysis

import (
	"context"
	"errors"
	"image/color"
	"path/filepath"
	"strings"
	"testing"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"

	"github.com/artlab/art-analyzer/pkg/types"
)

type fakeProvider struct {
	respond func(system, user string) (string, error)
	calls   int
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Generate(ctx context.Context, system, user string, maxTokens int, temperature float64) (string, error) {
	f.calls++
	return f.respond(system, user)
}

// GenerateStream delivers the response in small rune-sized pieces so stream
// consumers are tested against multi-chunk delivery, not one big chunk.
func (f *fakeProvider) GenerateStream(ctx context.Context, system, user string, maxTokens int, temperature float64, fn func(chunk string) error) error {
	text, err := f.respond(system, user)
	if err != nil {
		return err
	}
	runes := []rune(text)
	for i := 0; i < len(runes); i += 16 {
		end := i + 16
		if end > len(runes) {
			end = len(runes)
		}
		if err := fn(string(runes[i:end])); err != nil {
			return err
		}
	}
	return nil
}

func failingProvider() *fakeProvider {
	return &fakeProvider{respond: func(system, user string) (string, error) {
		return "", errors.New("connection refused")
	}}
}

// mergedJSON carries the fields of every interpretation schema so one
// response parses into any of the typed analyses.
const mergedJSON = `{
	"palette_interpretation": "Тёплая палитра.",
	"mood_tags": ["спокойный"],
	"color_harmony": "монохромная",
	"emotional_impact": "Умиротворение.",
	"composition_type": "центральная",
	"balance_description": "Уравновешенная.",
	"visual_flow": "К центру.",
	"focal_point_analysis": "Один фокус.",
	"spatial_depth": "Малая.",
	"dynamism_level": "low",
	"narrative_interpretation": "Пейзаж.",
	"symbolism": "Покой.",
	"subject_analysis": "Природа.",
	"cultural_references": ["романтизм"],
	"brushwork": "Гладкая.",
	"light_analysis": "Рассеянный свет.",
	"spatial_treatment": "Плоскостная.",
	"medium_estimation": "масло",
	"technical_skill_indicators": ["лессировка"],
	"estimated_era": "XIX век",
	"art_movement_connections": ["реализм"],
	"artistic_influences": "Барбизонская школа.",
	"historical_significance": "Типичный образец.",
	"cultural_context": "Европейская традиция.",
	"confidence_note": "Предположительно."
}`

const markerSummary = `## Общее впечатление

Палитра построена на {color|#cc0000|насыщенном красном}, что отсылает к работам {artist|Test Artist}.`

func workingProvider() *fakeProvider {
	return &fakeProvider{respond: func(system, user string) (string, error) {
		if strings.Contains(system, "senior art critic") {
			return markerSummary, nil
		}
		return "<think>draft</think>" + mergedJSON, nil
	}}
}

func testPredictions() *types.PredictionSet {
	return &types.PredictionSet{
		Artists: []types.Prediction{{Name: "Test Artist", Probability: 0.9}},
	}
}

func solidRedImage(t *testing.T) string {
	t.Helper()
	img := imaging.New(256, 256, color.NRGBA{R: 255, A: 255})
	path := filepath.Join(t.TempDir(), "red.png")
	if err := imaging.Save(img, path); err != nil {
		t.Fatalf("saving test image: %v", err)
	}
	return path
}

func TestFullAnalysisStubOnly(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	result, err := s.RunFullDeepAnalysis(context.Background(), solidRedImage(t), testPredictions())
	if err != nil {
		t.Fatalf("RunFullDeepAnalysis: %v", err)
	}

	if result.RunID == "" {
		t.Error("RunID is empty")
	}
	if len(result.ColorFeatures.DominantColors) == 0 {
		t.Fatal("no dominant colors extracted")
	}
	if got := result.ColorFeatures.DominantColors[0].Temperature; got != "warm" {
		t.Errorf("dominant color temperature = %q, want warm", got)
	}
	if got := result.CompositionFeatures.VisualWeightDistribution; got != "balanced" {
		t.Errorf("visual weight = %q, want balanced", got)
	}
	if result.Summary.RawText == "" {
		t.Error("summary raw text is empty")
	}
	if result.Summary.MarkerCount != 0 {
		t.Errorf("stub summary marker count = %d, want 0", result.Summary.MarkerCount)
	}
	if !strings.Contains(result.Summary.RawText, "Test Artist") {
		t.Errorf("stub summary should mention the top artist: %q", result.Summary.RawText)
	}

	for name, source := range map[string]string{
		"color":       result.Color.Source,
		"composition": result.Composition.Source,
		"scene":       result.Scene.Source,
		"technique":   result.Technique.Source,
		"historical":  result.Historical.Source,
	} {
		if source != types.SourceStub {
			t.Errorf("%s source = %q, want stub", name, source)
		}
	}
}

func TestFullAnalysisDegradesOnProviderFailure(t *testing.T) {
	provider := failingProvider()
	s := NewService(provider, nil, zerolog.Nop())

	result, err := s.RunFullDeepAnalysis(context.Background(), solidRedImage(t), testPredictions())
	if err != nil {
		t.Fatalf("interpretation failures must not propagate: %v", err)
	}
	if provider.calls != 6 {
		t.Errorf("provider called %d times, want 6 (five interpretations + synthesis)", provider.calls)
	}
	for name, source := range map[string]string{
		"color":       result.Color.Source,
		"composition": result.Composition.Source,
		"scene":       result.Scene.Source,
		"technique":   result.Technique.Source,
		"historical":  result.Historical.Source,
	} {
		if source != types.SourceStub {
			t.Errorf("%s source = %q, want stub after provider failure", name, source)
		}
	}
	if result.Summary.RawText == "" {
		t.Error("degraded run must still carry a placeholder summary")
	}
	if result.Summary.MarkerCount != 0 {
		t.Errorf("placeholder summary marker count = %d, want 0", result.Summary.MarkerCount)
	}
}

func TestFullAnalysisWithWorkingProvider(t *testing.T) {
	s := NewService(workingProvider(), nil, zerolog.Nop())

	result, err := s.RunFullDeepAnalysis(context.Background(), solidRedImage(t), testPredictions())
	if err != nil {
		t.Fatalf("RunFullDeepAnalysis: %v", err)
	}

	if result.Color.Source != "fake" {
		t.Errorf("color source = %q, want fake", result.Color.Source)
	}
	if result.Color.PaletteInterpretation != "Тёплая палитра." {
		t.Errorf("palette interpretation = %q", result.Color.PaletteInterpretation)
	}
	if result.Composition.DynamismLevel != "low" {
		t.Errorf("dynamism = %q, want low", result.Composition.DynamismLevel)
	}
	if result.Historical.EstimatedEra != "XIX век" {
		t.Errorf("era = %q", result.Historical.EstimatedEra)
	}

	if result.Summary.MarkerCount != 2 {
		t.Fatalf("summary marker count = %d, want 2", result.Summary.MarkerCount)
	}
	if strings.Contains(result.Summary.CleanedText, "{color|") {
		t.Errorf("cleaned text still contains marker syntax: %q", result.Summary.CleanedText)
	}
	if !strings.Contains(result.Summary.HTMLText, `data-value="#cc0000"`) {
		t.Errorf("html text missing color marker span: %q", result.Summary.HTMLText)
	}
}

func TestFullAnalysisUnreadableImage(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	if _, err := s.RunFullDeepAnalysis(context.Background(), "/nonexistent/art.jpg", nil); err == nil {
		t.Fatal("expected error for unreadable image")
	}
}

func TestSingleModuleColor(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	result, err := s.RunSingleModuleAnalysis(context.Background(), "color", solidRedImage(t), nil)
	if err != nil {
		t.Fatalf("RunSingleModuleAnalysis: %v", err)
	}

	features, ok := result.Features.(types.ColorFeatures)
	if !ok {
		t.Fatalf("Features is %T, want ColorFeatures", result.Features)
	}
	if len(features.DominantColors) == 0 {
		t.Error("no dominant colors")
	}
	analysis, ok := result.Analysis.(types.ColorAnalysis)
	if !ok {
		t.Fatalf("Analysis is %T, want ColorAnalysis", result.Analysis)
	}
	if analysis.Source != types.SourceStub {
		t.Errorf("source = %q, want stub", analysis.Source)
	}
}

func TestSingleModuleTechniqueHasNoFeatures(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	result, err := s.RunSingleModuleAnalysis(context.Background(), "technique", solidRedImage(t), testPredictions())
	if err != nil {
		t.Fatalf("RunSingleModuleAnalysis: %v", err)
	}
	if result.Features != nil {
		t.Errorf("technique Features = %v, want nil", result.Features)
	}
	analysis := result.Analysis.(types.TechniqueAnalysis)
	if !strings.Contains(analysis.Brushwork, "Test Artist") {
		t.Errorf("stub brushwork should cite the top artist: %q", analysis.Brushwork)
	}
}

func TestSingleModuleHistoricalRerunsDependencies(t *testing.T) {
	provider := &fakeProvider{respond: func(system, user string) (string, error) {
		return mergedJSON, nil
	}}
	s := NewService(provider, nil, zerolog.Nop())

	result, err := s.RunSingleModuleAnalysis(context.Background(), "historical", solidRedImage(t), testPredictions())
	if err != nil {
		t.Fatalf("RunSingleModuleAnalysis: %v", err)
	}
	if provider.calls != 5 {
		t.Errorf("provider called %d times, want 5 (four dependencies + historical)", provider.calls)
	}
	analysis := result.Analysis.(types.HistoricalAnalysis)
	if analysis.Source != "fake" {
		t.Errorf("source = %q, want fake", analysis.Source)
	}
}

func TestSingleModuleUnknown(t *testing.T) {
	s := NewService(nil, nil, zerolog.Nop())
	if _, err := s.RunSingleModuleAnalysis(context.Background(), "astrology", solidRedImage(t), nil); err == nil {
		t.Fatal("expected error for unknown module")
	}
}

func TestStreamedChunksReassembleToFullResponse(t *testing.T) {
	provider := &fakeProvider{respond: func(system, user string) (string, error) {
		return mergedJSON, nil
	}}

	direct, err := provider.Generate(context.Background(), "system", "user", 100, 0.7)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	var b strings.Builder
	chunks := 0
	err = provider.GenerateStream(context.Background(), "system", "user", 100, 0.7, func(chunk string) error {
		chunks++
		b.WriteString(chunk)
		return nil
	})
	if err != nil {
		t.Fatalf("GenerateStream: %v", err)
	}
	if chunks < 2 {
		t.Errorf("Expected multi-chunk delivery, got %d chunk(s)", chunks)
	}
	if b.String() != direct {
		t.Errorf("Reassembled stream differs from full response:\n%q\nvs\n%q", b.String(), direct)
	}
}
