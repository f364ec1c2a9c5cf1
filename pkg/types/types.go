package types

// Prediction is one ranked label from the artwork classifier.
type Prediction struct {
	Name        string  `json:"name"`
	Probability float64 `json:"probability"`
}

// PredictionSet bundles the classifier output, each list ordered by
// descending probability.
type PredictionSet struct {
	Artists []Prediction `json:"artists"`
	Genres  []Prediction `json:"genres"`
	Styles  []Prediction `json:"styles"`
}

// TopArtist returns the highest-probability artist name, or fallback when
// the set is empty.
func (p *PredictionSet) TopArtist(fallback string) string {
	if p == nil || len(p.Artists) == 0 || p.Artists[0].Name == "" {
		return fallback
	}
	return p.Artists[0].Name
}

// TopStyle returns the highest-probability style name, or fallback when
// the set is empty.
func (p *PredictionSet) TopStyle(fallback string) string {
	if p == nil || len(p.Styles) == 0 || p.Styles[0].Name == "" {
		return fallback
	}
	return p.Styles[0].Name
}

// DominantColor is one k-means cluster centroid summarized for presentation.
type DominantColor struct {
	Hex         string     `json:"hex"`
	RGB         [3]int     `json:"rgb"`
	LAB         [3]float64 `json:"lab"`
	Percentage  float64    `json:"percentage"`
	Name        string     `json:"name"`
	Temperature string     `json:"temperature"`
}

// ColorFeatures holds everything the color extractor computes for one image.
type ColorFeatures struct {
	DominantColors    []DominantColor `json:"dominant_colors"`
	WarmRatio         float64         `json:"warm_ratio"`
	CoolRatio         float64         `json:"cool_ratio"`
	Brightness        float64         `json:"brightness"`
	OverallContrast   float64         `json:"overall_contrast"`
	OverallSaturation float64         `json:"overall_saturation"`
}

// FocalPoint is a salient local maximum with normalized coordinates.
type FocalPoint struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Strength float64 `json:"strength"`
}

// VanishingPoint is an estimated perspective convergence point, normalized.
type VanishingPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// CompositionFeatures holds the saliency-derived composition metrics.
type CompositionFeatures struct {
	SaliencyCenterX          float64          `json:"saliency_center_x"`
	SaliencyCenterY          float64          `json:"saliency_center_y"`
	RuleOfThirdsAlignment    float64          `json:"rule_of_thirds_alignment"`
	HorizontalSymmetry       float64          `json:"horizontal_symmetry"`
	VerticalSymmetry         float64          `json:"vertical_symmetry"`
	VisualWeightDistribution string           `json:"visual_weight_distribution"`
	FocalPoints              []FocalPoint     `json:"focal_points"`
	PerspectiveLinesDetected bool             `json:"perspective_lines_detected"`
	VanishingPoints          []VanishingPoint `json:"vanishing_points"`
}

// DetectedText is a text fragment the vision model found in the image.
type DetectedText struct {
	Text       string  `json:"text"`
	Language   string  `json:"language"`
	Confidence float64 `json:"confidence"`
}

// SceneFeatures holds the vision-model scene extraction result. All fields
// are empty when vision is disabled or the call fails.
type SceneFeatures struct {
	DetectedObjects []string       `json:"detected_objects"`
	StyleTags       []string       `json:"style_tags"`
	Description     string         `json:"description,omitempty"`
	DetectedText    []DetectedText `json:"detected_text"`
	PrimarySubject  string         `json:"primary_subject,omitempty"`
	Mood            string         `json:"mood,omitempty"`
	Setting         string         `json:"setting,omitempty"`
}

// SourceStub tags analyses produced without any LLM call.
const SourceStub = "stub"

// ColorAnalysis is the color-psychology interpretation narrative.
type ColorAnalysis struct {
	PaletteInterpretation string   `json:"palette_interpretation"`
	MoodTags              []string `json:"mood_tags"`
	ColorHarmony          string   `json:"color_harmony"`
	EmotionalImpact       string   `json:"emotional_impact"`
	Source                string   `json:"source"`
}

// CompositionAnalysis is the composition interpretation narrative.
type CompositionAnalysis struct {
	CompositionType    string `json:"composition_type"`
	BalanceDescription string `json:"balance_description"`
	VisualFlow         string `json:"visual_flow"`
	FocalPointAnalysis string `json:"focal_point_analysis"`
	SpatialDepth       string `json:"spatial_depth"`
	DynamismLevel      string `json:"dynamism_level"`
	Source             string `json:"source"`
}

// SceneAnalysis is the scene/semantic interpretation narrative.
type SceneAnalysis struct {
	NarrativeInterpretation string   `json:"narrative_interpretation"`
	Symbolism               string   `json:"symbolism"`
	SubjectAnalysis         string   `json:"subject_analysis"`
	TextInterpretation      string   `json:"text_interpretation,omitempty"`
	CulturalReferences      []string `json:"cultural_references"`
	Source                  string   `json:"source"`
}

// TechniqueAnalysis is the technique interpretation narrative.
type TechniqueAnalysis struct {
	Brushwork                string   `json:"brushwork"`
	LightAnalysis            string   `json:"light_analysis"`
	SpatialTreatment         string   `json:"spatial_treatment"`
	MediumEstimation         string   `json:"medium_estimation"`
	TechnicalSkillIndicators []string `json:"technical_skill_indicators"`
	Source                   string   `json:"source"`
}

// HistoricalAnalysis is the historical-context interpretation narrative.
// It is the last interpretation stage and consumes all prior analyses.
type HistoricalAnalysis struct {
	EstimatedEra           string   `json:"estimated_era"`
	ArtMovementConnections []string `json:"art_movement_connections"`
	ArtisticInfluences     string   `json:"artistic_influences"`
	HistoricalSignificance string   `json:"historical_significance"`
	CulturalContext        string   `json:"cultural_context"`
	ConfidenceNote         string   `json:"confidence_note"`
	Source                 string   `json:"source"`
}
