// Package palette extracts dominant-color features from artwork images:
// seeded k-means clustering, LAB conversion, temperature tagging, and
// overall brightness/contrast/saturation metrics.
package palette

import (
	"fmt"
	"image"
	"math"
	"math/rand"

	"github.com/disintegration/imaging"
	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/stat"

	"github.com/artlab/art-analyzer/pkg/processing"
	"github.com/artlab/art-analyzer/pkg/types"
)

// Temperature tags for dominant colors.
const (
	TemperatureWarm    = "warm"
	TemperatureCool    = "cool"
	TemperatureNeutral = "neutral"
)

// namedColor pairs a reference RGB with its Russian display name.
type namedColor struct {
	rgb  [3]int
	name string
}

// Reference palette for nearest-name lookup. Names are user-facing.
var colorNames = []namedColor{
	{[3]int{255, 0, 0}, "красный"},
	{[3]int{0, 255, 0}, "зелёный"},
	{[3]int{0, 0, 255}, "синий"},
	{[3]int{255, 255, 0}, "жёлтый"},
	{[3]int{255, 165, 0}, "оранжевый"},
	{[3]int{128, 0, 128}, "фиолетовый"},
	{[3]int{255, 192, 203}, "розовый"},
	{[3]int{165, 42, 42}, "коричневый"},
	{[3]int{0, 0, 0}, "чёрный"},
	{[3]int{255, 255, 255}, "белый"},
	{[3]int{128, 128, 128}, "серый"},
	{[3]int{0, 128, 128}, "бирюзовый"},
	{[3]int{128, 0, 0}, "бордовый"},
	{[3]int{0, 128, 0}, "тёмно-зелёный"},
	{[3]int{0, 0, 128}, "тёмно-синий"},
	{[3]int{245, 222, 179}, "пшеничный"},
	{[3]int{210, 180, 140}, "загар"},
	{[3]int{139, 69, 19}, "сиена"},
	{[3]int{205, 133, 63}, "охра"},
}

// Config holds tunables for color extraction.
type Config struct {
	NumColors     int
	MaxIterations int
	Seed          int64
	// ClusterMaxDim bounds the downsample used for k-means.
	ClusterMaxDim int
	// MetricsMaxDim bounds the downsample used for the luma metrics.
	MetricsMaxDim int
}

// DefaultConfig returns the extraction defaults.
func DefaultConfig() Config {
	return Config{
		NumColors:     7,
		MaxIterations: 20,
		Seed:          42,
		ClusterMaxDim: 200,
		MetricsMaxDim: 300,
	}
}

// Extractor computes ColorFeatures from image files. Extraction never
// fails: internal errors degrade to neutral defaults and are logged.
type Extractor struct {
	config Config
	proc   *processing.Processor
	log    zerolog.Logger
}

// NewExtractor creates an Extractor with default configuration.
func NewExtractor(logger zerolog.Logger) *Extractor {
	return NewExtractorWithConfig(DefaultConfig(), logger)
}

// NewExtractorWithConfig creates an Extractor with custom configuration.
func NewExtractorWithConfig(config Config, logger zerolog.Logger) *Extractor {
	return &Extractor{
		config: config,
		proc:   processing.NewProcessor(),
		log:    logger,
	}
}

// Extract computes all color features for the image at path.
func (e *Extractor) Extract(path string) types.ColorFeatures {
	img, err := e.proc.LoadImage(path)
	if err != nil {
		e.log.Error().Err(err).Str("path", path).Msg("color extraction: cannot load image")
		return defaultFeatures()
	}
	return e.ExtractFromImage(img)
}

// ExtractFromImage computes all color features for an already decoded image.
func (e *Extractor) ExtractFromImage(img image.Image) types.ColorFeatures {
	clusterPixels := collectPixels(e.proc.Downsample(img, e.config.ClusterMaxDim, e.config.ClusterMaxDim))
	colors := e.dominantColors(clusterPixels)

	metricPixels := collectPixels(e.proc.Downsample(img, e.config.MetricsMaxDim, e.config.MetricsMaxDim))
	brightness, contrast, saturation := lumaMetrics(metricPixels)

	warmRatio, coolRatio := warmCoolRatio(colors)

	return types.ColorFeatures{
		DominantColors:    colors,
		WarmRatio:         warmRatio,
		CoolRatio:         coolRatio,
		Brightness:        brightness,
		OverallContrast:   contrast,
		OverallSaturation: saturation,
	}
}

func defaultFeatures() types.ColorFeatures {
	return types.ColorFeatures{
		DominantColors:    []types.DominantColor{},
		WarmRatio:         0.5,
		CoolRatio:         0.5,
		Brightness:        0.5,
		OverallContrast:   0.5,
		OverallSaturation: 0.5,
	}
}

func collectPixels(img image.Image) [][3]float64 {
	nrgba := imaging.Clone(img)
	b := nrgba.Bounds()
	w, h := b.Dx(), b.Dy()

	pixels := make([][3]float64, 0, w*h)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*nrgba.Stride + x*4
			pixels = append(pixels, [3]float64{
				float64(nrgba.Pix[i]),
				float64(nrgba.Pix[i+1]),
				float64(nrgba.Pix[i+2]),
			})
		}
	}
	return pixels
}

// dominantColors runs seeded k-means over the pixel cloud and summarizes
// each non-empty cluster, ordered by area share.
func (e *Extractor) dominantColors(pixels [][3]float64) []types.DominantColor {
	if len(pixels) == 0 {
		return []types.DominantColor{}
	}

	k := e.config.NumColors
	if k > len(pixels) {
		k = len(pixels)
	}

	rng := rand.New(rand.NewSource(e.config.Seed))
	perm := rng.Perm(len(pixels))

	centroids := make([][3]float64, k)
	for i := 0; i < k; i++ {
		centroids[i] = pixels[perm[i]]
	}

	labels := make([]int, len(pixels))
	for iter := 0; iter < e.config.MaxIterations; iter++ {
		for i, px := range pixels {
			labels[i] = nearestCentroid(px, centroids)
		}

		sums := make([][3]float64, k)
		counts := make([]int, k)
		for i, px := range pixels {
			c := labels[i]
			sums[c][0] += px[0]
			sums[c][1] += px[1]
			sums[c][2] += px[2]
			counts[c]++
		}

		maxShift := 0.0
		for c := 0; c < k; c++ {
			if counts[c] == 0 {
				continue
			}
			next := [3]float64{
				sums[c][0] / float64(counts[c]),
				sums[c][1] / float64(counts[c]),
				sums[c][2] / float64(counts[c]),
			}
			shift := sqDist(centroids[c], next)
			if shift > maxShift {
				maxShift = shift
			}
			centroids[c] = next
		}
		if maxShift < 1e-6 {
			break
		}
	}

	counts := make([]int, k)
	for _, l := range labels {
		counts[l]++
	}

	colors := make([]types.DominantColor, 0, k)
	for c := 0; c < k; c++ {
		if counts[c] == 0 {
			continue
		}
		rgb := [3]int{
			clampByte(centroids[c][0]),
			clampByte(centroids[c][1]),
			clampByte(centroids[c][2]),
		}
		colors = append(colors, types.DominantColor{
			Hex:         fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2]),
			RGB:         rgb,
			LAB:         RGBToLAB(rgb[0], rgb[1], rgb[2]),
			Percentage:  float64(counts[c]) / float64(len(pixels)),
			Name:        NearestColorName(rgb[0], rgb[1], rgb[2]),
			Temperature: ColorTemperature(rgb[0], rgb[1], rgb[2]),
		})
	}

	// Sort by area share, descending.
	for i := 0; i < len(colors)-1; i++ {
		for j := i + 1; j < len(colors); j++ {
			if colors[i].Percentage < colors[j].Percentage {
				colors[i], colors[j] = colors[j], colors[i]
			}
		}
	}
	return colors
}

func nearestCentroid(px [3]float64, centroids [][3]float64) int {
	best := 0
	bestDist := math.MaxFloat64
	for c, ct := range centroids {
		d := sqDist(px, ct)
		if d < bestDist {
			bestDist = d
			best = c
		}
	}
	return best
}

func sqDist(a, b [3]float64) float64 {
	dr := a[0] - b[0]
	dg := a[1] - b[1]
	db := a[2] - b[2]
	return dr*dr + dg*dg + db*db
}

func clampByte(v float64) int {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return int(v + 0.5)
}

// lumaMetrics returns brightness, contrast, and saturation over the pixel
// cloud, each normalized to [0,1].
func lumaMetrics(pixels [][3]float64) (brightness, contrast, saturation float64) {
	if len(pixels) == 0 {
		return 0.5, 0.5, 0.5
	}

	luma := make([]float64, len(pixels))
	satSum := 0.0
	for i, px := range pixels {
		// ITU-R BT.601 luma weights.
		luma[i] = 0.299*px[0] + 0.587*px[1] + 0.114*px[2]

		maxC := math.Max(px[0], math.Max(px[1], px[2]))
		minC := math.Min(px[0], math.Min(px[1], px[2]))
		if maxC > 0 {
			satSum += (maxC - minC) / maxC
		}
	}

	brightness = stat.Mean(luma, nil) / 255.0
	contrast = math.Min(1.0, stat.StdDev(luma, nil)/128.0)
	saturation = satSum / float64(len(pixels))
	return brightness, contrast, saturation
}

func warmCoolRatio(colors []types.DominantColor) (warm, cool float64) {
	warmTotal, coolTotal := 0.0, 0.0
	for _, c := range colors {
		switch c.Temperature {
		case TemperatureWarm:
			warmTotal += c.Percentage
		case TemperatureCool:
			coolTotal += c.Percentage
		}
	}
	total := warmTotal + coolTotal
	if total == 0 {
		return 0.5, 0.5
	}
	return warmTotal / total, coolTotal / total
}

// ColorTemperature classifies an RGB value as warm, cool, or neutral from
// its hue. Pure grays have no hue and classify as neutral.
func ColorTemperature(r, g, b int) string {
	maxC := maxInt(r, maxInt(g, b))
	minC := minInt(r, minInt(g, b))
	if maxC == minC {
		return TemperatureNeutral
	}

	d := float64(maxC - minC)
	var h float64
	switch maxC {
	case r:
		h = float64(g-b) / d
		if g < b {
			h += 6
		}
	case g:
		h = float64(b-r)/d + 2
	default:
		h = float64(r-g)/d + 4
	}
	h /= 6

	switch {
	case h < 0.17 || h > 0.92:
		return TemperatureWarm
	case h < 0.42:
		return TemperatureNeutral
	case h < 0.75:
		return TemperatureCool
	default:
		return TemperatureWarm
	}
}

// NearestColorName finds the closest reference color by squared RGB
// distance and returns its display name.
func NearestColorName(r, g, b int) string {
	best := "неизвестный"
	bestDist := math.MaxFloat64
	for _, ref := range colorNames {
		dr := float64(r - ref.rgb[0])
		dg := float64(g - ref.rgb[1])
		db := float64(b - ref.rgb[2])
		d := dr*dr + dg*dg + db*db
		if d < bestDist {
			bestDist = d
			best = ref.name
		}
	}
	return best
}

// RGBToLAB converts sRGB to CIELAB via linear RGB and XYZ (D65 illuminant).
func RGBToLAB(r, g, b int) [3]float64 {
	rl := srgbToLinear(float64(r) / 255.0)
	gl := srgbToLinear(float64(g) / 255.0)
	bl := srgbToLinear(float64(b) / 255.0)

	x := rl*0.4124564 + gl*0.3575761 + bl*0.1804375
	y := rl*0.2126729 + gl*0.7151522 + bl*0.0721750
	z := rl*0.0193339 + gl*0.1191920 + bl*0.9503041

	// Normalize for D65 white point.
	x /= 0.95047
	z /= 1.08883

	fx := labF(x)
	fy := labF(y)
	fz := labF(z)

	return [3]float64{
		116*fy - 16,
		500 * (fx - fy),
		200 * (fy - fz),
	}
}

func srgbToLinear(c float64) float64 {
	if c > 0.04045 {
		return math.Pow((c+0.055)/1.055, 2.4)
	}
	return c / 12.92
}

func labF(t float64) float64 {
	if t > 0.008856 {
		return math.Cbrt(t)
	}
	return 7.787*t + 16.0/116.0
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
