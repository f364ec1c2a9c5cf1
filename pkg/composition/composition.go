// Package composition extracts composition features from artwork images:
// spectral-residual saliency, symmetry, rule-of-thirds alignment, visual
// weight distribution, and a perspective heuristic.
package composition

import (
	"image"
	"math"
	"sort"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/artlab/art-analyzer/pkg/processing"
	"github.com/artlab/art-analyzer/pkg/types"
)

// Visual weight distribution labels.
const (
	WeightBalanced    = "balanced"
	WeightLeftHeavy   = "left-heavy"
	WeightRightHeavy  = "right-heavy"
	WeightTopHeavy    = "top-heavy"
	WeightBottomHeavy = "bottom-heavy"
)

// Config holds tunables for composition extraction.
type Config struct {
	// SaliencyMaxDim bounds the grayscale downsample for the saliency map.
	SaliencyMaxDim int
	// SymmetryMaxDim bounds the downsample for symmetry comparison.
	SymmetryMaxDim int
	// PerspectiveMaxDim bounds the downsample for edge-density detection.
	PerspectiveMaxDim int
	// EdgeDensityThreshold is the mean edge intensity over a center strip
	// above which perspective lines are assumed. A crude heuristic with an
	// uncalibrated constant.
	EdgeDensityThreshold float64
	// WeightThreshold is the relative difference below which the image
	// counts as balanced.
	WeightThreshold float64
	// MaxFocalPoints limits the reported focal points.
	MaxFocalPoints int
	// LocalMaxWindow is the neighborhood size of the focal-point search.
	LocalMaxWindow int
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		SaliencyMaxDim:       256,
		SymmetryMaxDim:       128,
		PerspectiveMaxDim:    400,
		EdgeDensityThreshold: 30,
		WeightThreshold:      0.15,
		MaxFocalPoints:       5,
		LocalMaxWindow:       20,
	}
}

// Analyzer computes CompositionFeatures from image files. Extraction never
// fails: internal errors degrade to neutral defaults and are logged.
type Analyzer struct {
	config     Config
	strategies []SaliencyStrategy
	proc       *processing.Processor
	log        zerolog.Logger
}

// NewAnalyzer creates an Analyzer with the default strategy chain.
func NewAnalyzer(logger zerolog.Logger) *Analyzer {
	return NewAnalyzerWithConfig(DefaultConfig(), DefaultStrategies(), logger)
}

// NewAnalyzerWithConfig creates an Analyzer with custom configuration and
// an ordered saliency strategy chain.
func NewAnalyzerWithConfig(config Config, strategies []SaliencyStrategy, logger zerolog.Logger) *Analyzer {
	return &Analyzer{
		config:     config,
		strategies: strategies,
		proc:       processing.NewProcessor(),
		log:        logger,
	}
}

// Extract computes all composition features for the image at path.
func (a *Analyzer) Extract(path string) types.CompositionFeatures {
	img, err := a.proc.LoadImage(path)
	if err != nil {
		a.log.Error().Err(err).Str("path", path).Msg("composition extraction: cannot load image")
		return defaultFeatures()
	}
	return a.ExtractFromImage(img)
}

// ExtractFromImage computes all composition features for an already decoded
// image.
func (a *Analyzer) ExtractFromImage(img image.Image) types.CompositionFeatures {
	gray := a.proc.GrayFloat(a.proc.Downsample(img, a.config.SaliencyMaxDim, a.config.SaliencyMaxDim))
	saliency := a.SaliencyMap(gray)

	centerX, centerY := centerOfMass(saliency)
	hSym, vSym := a.symmetry(img)
	alignment, focalPoints := a.ruleOfThirds(saliency)
	weight := a.visualWeight(saliency)
	hasPerspective, vanishing := a.detectPerspective(img)

	return types.CompositionFeatures{
		SaliencyCenterX:          centerX,
		SaliencyCenterY:          centerY,
		RuleOfThirdsAlignment:    alignment,
		HorizontalSymmetry:       hSym,
		VerticalSymmetry:         vSym,
		VisualWeightDistribution: weight,
		FocalPoints:              focalPoints,
		PerspectiveLinesDetected: hasPerspective,
		VanishingPoints:          vanishing,
	}
}

func defaultFeatures() types.CompositionFeatures {
	return types.CompositionFeatures{
		SaliencyCenterX:          0.5,
		SaliencyCenterY:          0.5,
		RuleOfThirdsAlignment:    0.3,
		HorizontalSymmetry:       0.5,
		VerticalSymmetry:         0.5,
		VisualWeightDistribution: WeightBalanced,
		FocalPoints:              []types.FocalPoint{{X: 0.5, Y: 0.5, Strength: 0.5}},
		VanishingPoints:          []types.VanishingPoint{},
	}
}

// SaliencyMap runs the strategy chain over the grayscale grid, falling
// through to the next strategy on failure. The last resort cannot fail for
// non-empty input; an empty input yields a 1x1 zero map.
func (a *Analyzer) SaliencyMap(gray [][]float64) [][]float64 {
	for _, s := range a.strategies {
		m, err := s.Compute(gray)
		if err == nil {
			return m
		}
		a.log.Warn().Err(err).Str("strategy", s.Name()).Msg("saliency strategy failed, trying next")
	}
	a.log.Error().Msg("all saliency strategies failed")
	return [][]float64{{0}}
}

func centerOfMass(saliency [][]float64) (float64, float64) {
	h := len(saliency)
	w := len(saliency[0])

	total, sumX, sumY := 0.0, 0.0, 0.0
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := saliency[y][x]
			total += v
			sumX += float64(x) * v
			sumY += float64(y) * v
		}
	}
	if total <= 0 {
		return 0.5, 0.5
	}
	return sumX / total / float64(w), sumY / total / float64(h)
}

// symmetry compares mirrored halves at a small downsample; a score of 1
// means pixel-perfect mirror symmetry.
func (a *Analyzer) symmetry(img image.Image) (horizontal, vertical float64) {
	gray := a.proc.GrayFloat(a.proc.Downsample(img, a.config.SymmetryMaxDim, a.config.SymmetryMaxDim))
	h := len(gray)
	if h == 0 {
		return 0.5, 0.5
	}
	w := len(gray[0])

	// Left vs mirrored right.
	half := w / 2
	if half > 0 {
		diff, n := 0.0, 0
		for y := 0; y < h; y++ {
			for x := 0; x < half; x++ {
				diff += math.Abs(gray[y][x] - gray[y][w-1-x])
				n++
			}
		}
		horizontal = 1.0 - diff/float64(n)/255.0
	} else {
		horizontal = 0.5
	}

	// Top vs mirrored bottom.
	half = h / 2
	if half > 0 {
		diff, n := 0.0, 0
		for y := 0; y < half; y++ {
			for x := 0; x < w; x++ {
				diff += math.Abs(gray[y][x] - gray[h-1-y][x])
				n++
			}
		}
		vertical = 1.0 - diff/float64(n)/255.0
	} else {
		vertical = 0.5
	}
	return horizontal, vertical
}

// ruleOfThirds finds focal points (local saliency maxima above
// mean+stddev), scores their proximity to the four third lines weighted by
// strength, and averages. No focal points yields the documented 0.3
// default with one synthetic center point.
func (a *Analyzer) ruleOfThirds(saliency [][]float64) (float64, []types.FocalPoint) {
	h := len(saliency)
	w := len(saliency[0])

	flat := make([]float64, 0, h*w)
	for _, row := range saliency {
		flat = append(flat, row...)
	}
	threshold := stat.Mean(flat, nil) + stat.StdDev(flat, nil)

	focal := a.findFocalPoints(saliency, threshold)
	if len(focal) == 0 {
		return 0.3, []types.FocalPoint{{X: 0.5, Y: 0.5, Strength: 0.5}}
	}

	thirdW := []float64{float64(w) / 3, 2 * float64(w) / 3}
	thirdH := []float64{float64(h) / 3, 2 * float64(h) / 3}

	totalAlignment, totalStrength := 0.0, 0.0
	for _, fp := range focal {
		xPx := fp.X * float64(w)
		yPx := fp.Y * float64(h)

		minXDist := math.Min(math.Abs(xPx-thirdW[0]), math.Abs(xPx-thirdW[1]))
		minYDist := math.Min(math.Abs(yPx-thirdH[0]), math.Abs(yPx-thirdH[1]))

		xAlign := 1.0 - math.Min(minXDist/(float64(w)/6), 1.0)
		yAlign := 1.0 - math.Min(minYDist/(float64(h)/6), 1.0)

		totalAlignment += (xAlign + yAlign) / 2 * fp.Strength
		totalStrength += fp.Strength
	}

	if totalStrength <= 0 {
		return 0.3, focal
	}
	return totalAlignment / totalStrength, focal
}

func (a *Analyzer) findFocalPoints(saliency [][]float64, threshold float64) []types.FocalPoint {
	h := len(saliency)
	w := len(saliency[0])
	half := a.config.LocalMaxWindow / 2

	var focal []types.FocalPoint
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := saliency[y][x]
			if v <= threshold {
				continue
			}
			isMax := true
			for dy := -half; dy <= half && isMax; dy++ {
				for dx := -half; dx <= half; dx++ {
					ny, nx := y+dy, x+dx
					if ny < 0 || ny >= h || nx < 0 || nx >= w {
						continue
					}
					if saliency[ny][nx] > v {
						isMax = false
						break
					}
				}
			}
			if isMax {
				focal = append(focal, types.FocalPoint{
					X:        float64(x) / float64(w),
					Y:        float64(y) / float64(h),
					Strength: v,
				})
			}
		}
	}

	sort.Slice(focal, func(i, j int) bool { return focal[i].Strength > focal[j].Strength })
	if len(focal) > a.config.MaxFocalPoints {
		focal = focal[:a.config.MaxFocalPoints]
	}
	return focal
}

// visualWeight compares half-image saliency means: balanced when both
// relative differences stay under the threshold, else the axis with the
// larger difference wins.
func (a *Analyzer) visualWeight(saliency [][]float64) string {
	h := len(saliency)
	w := len(saliency[0])

	var left, right, top, bottom float64
	var leftN, rightN, topN, bottomN int
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := saliency[y][x]
			if x < w/2 {
				left += v
				leftN++
			} else {
				right += v
				rightN++
			}
			if y < h/2 {
				top += v
				topN++
			} else {
				bottom += v
				bottomN++
			}
		}
	}
	left /= math.Max(float64(leftN), 1)
	right /= math.Max(float64(rightN), 1)
	top /= math.Max(float64(topN), 1)
	bottom /= math.Max(float64(bottomN), 1)

	hDiff := (left - right) / (left + right + 1e-10)
	vDiff := (top - bottom) / (top + bottom + 1e-10)

	if math.Abs(hDiff) < a.config.WeightThreshold && math.Abs(vDiff) < a.config.WeightThreshold {
		return WeightBalanced
	}
	if math.Abs(hDiff) > math.Abs(vDiff) {
		if hDiff > 0 {
			return WeightLeftHeavy
		}
		return WeightRightHeavy
	}
	if vDiff > 0 {
		return WeightTopHeavy
	}
	return WeightBottomHeavy
}

// detectPerspective checks edge density over the center strips of a
// Laplacian-filtered image. Above the threshold a synthetic upper-center
// vanishing point is emitted, the common case for landscapes and
// architecture.
func (a *Analyzer) detectPerspective(img image.Image) (bool, []types.VanishingPoint) {
	gray := a.proc.GrayFloat(a.proc.Downsample(img, a.config.PerspectiveMaxDim, a.config.PerspectiveMaxDim))
	h := len(gray)
	if h < 3 {
		return false, []types.VanishingPoint{}
	}
	w := len(gray[0])
	if w < 3 {
		return false, []types.VanishingPoint{}
	}

	edges := laplacianEdges(gray)

	var vStrip, hStrip float64
	var vN, hN int
	for y := 0; y < h; y++ {
		for x := w / 3; x < 2*w/3; x++ {
			vStrip += edges[y][x]
			vN++
		}
	}
	for y := h / 3; y < 2*h/3; y++ {
		for x := 0; x < w; x++ {
			hStrip += edges[y][x]
			hN++
		}
	}
	if vN > 0 {
		vStrip /= float64(vN)
	}
	if hN > 0 {
		hStrip /= float64(hN)
	}

	if vStrip > a.config.EdgeDensityThreshold || hStrip > a.config.EdgeDensityThreshold {
		return true, []types.VanishingPoint{{X: 0.5, Y: 0.3}}
	}
	return false, []types.VanishingPoint{}
}

// laplacianEdges applies a 3x3 edge kernel (8-neighbor Laplacian) with
// output clamped to [0,255].
func laplacianEdges(gray [][]float64) [][]float64 {
	h := len(gray)
	w := len(gray[0])

	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		if y == 0 || y == h-1 {
			continue
		}
		for x := 1; x < w-1; x++ {
			v := 8*gray[y][x] -
				gray[y-1][x-1] - gray[y-1][x] - gray[y-1][x+1] -
				gray[y][x-1] - gray[y][x+1] -
				gray[y+1][x-1] - gray[y+1][x] - gray[y+1][x+1]
			if v < 0 {
				v = 0
			}
			if v > 255 {
				v = 255
			}
			out[y][x] = v
		}
	}
	return out
}
