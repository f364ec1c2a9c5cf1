package composition

import (
	"image"
	"image/color"
	"math"
	"testing"

	"github.com/rs/zerolog"
)

func newAnalyzer() *Analyzer {
	return NewAnalyzer(zerolog.Nop())
}

func uniformImage(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

// splitImage is black on the left half and white on the right half.
func splitImage(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			if x < w/2 {
				img.Set(x, y, color.Black)
			} else {
				img.Set(x, y, color.White)
			}
		}
	}
	return img
}

// blobImage is black with a white square whose top-left corner is at (bx, by).
func blobImage(w, h, bx, by, size int) *image.RGBA {
	img := uniformImage(w, h, color.Black)
	for y := by; y < by+size && y < h; y++ {
		for x := bx; x < bx+size && x < w; x++ {
			img.Set(x, y, color.White)
		}
	}
	return img
}

func TestSaliencyMapNormalization(t *testing.T) {
	a := newAnalyzer()
	proc := a.proc

	img := blobImage(128, 128, 40, 40, 30)
	gray := proc.GrayFloat(img)
	saliency := a.SaliencyMap(gray)

	minV, maxV := math.Inf(1), math.Inf(-1)
	for _, row := range saliency {
		for _, v := range row {
			if v < 0 || v > 1 {
				t.Fatalf("saliency value %f out of [0,1]", v)
			}
			minV = math.Min(minV, v)
			maxV = math.Max(maxV, v)
		}
	}
	if minV > 1e-6 {
		t.Errorf("expected a pixel near the lower bound, min = %g", minV)
	}
	if maxV < 0.99 {
		t.Errorf("expected a pixel near the upper bound, max = %g", maxV)
	}
}

func TestConstantImageDefaults(t *testing.T) {
	a := newAnalyzer()
	f := a.ExtractFromImage(uniformImage(128, 128, color.Gray{Y: 128}))

	if f.RuleOfThirdsAlignment != 0.3 {
		t.Errorf("RuleOfThirdsAlignment = %f, want 0.3", f.RuleOfThirdsAlignment)
	}
	if len(f.FocalPoints) != 1 {
		t.Fatalf("got %d focal points, want exactly 1 synthetic point", len(f.FocalPoints))
	}
	fp := f.FocalPoints[0]
	if fp.X != 0.5 || fp.Y != 0.5 || fp.Strength != 0.5 {
		t.Errorf("synthetic focal point = %+v, want {0.5 0.5 0.5}", fp)
	}
	if f.VisualWeightDistribution != WeightBalanced {
		t.Errorf("VisualWeightDistribution = %q, want %q", f.VisualWeightDistribution, WeightBalanced)
	}
	if f.SaliencyCenterX != 0.5 || f.SaliencyCenterY != 0.5 {
		t.Errorf("saliency center = (%f, %f), want (0.5, 0.5)", f.SaliencyCenterX, f.SaliencyCenterY)
	}
	if f.HorizontalSymmetry < 0.99 || f.VerticalSymmetry < 0.99 {
		t.Errorf("constant image symmetry = (%f, %f), want near 1",
			f.HorizontalSymmetry, f.VerticalSymmetry)
	}
	if f.PerspectiveLinesDetected {
		t.Error("constant image should not trigger perspective detection")
	}
}

func TestSymmetryAsymmetricImage(t *testing.T) {
	a := newAnalyzer()
	hSym, _ := a.symmetry(splitImage(128, 128))
	if hSym > 0.2 {
		t.Errorf("horizontal symmetry of half-black/half-white = %f, want near 0", hSym)
	}
}

func TestSymmetryMirroredImage(t *testing.T) {
	a := newAnalyzer()
	// White vertical band in the exact center mirrors onto itself.
	img := blobImage(128, 128, 48, 0, 32)
	hSym, _ := a.symmetry(img)
	if hSym < 0.95 {
		t.Errorf("horizontal symmetry of centered band = %f, want near 1", hSym)
	}
}

func TestRuleOfThirdsPeakOnThirdLine(t *testing.T) {
	a := newAnalyzer()

	// Single salient peak exactly on the upper-left third intersection.
	saliency := make([][]float64, 90)
	for y := range saliency {
		saliency[y] = make([]float64, 90)
	}
	saliency[30][30] = 1.0

	alignment, focal := a.ruleOfThirds(saliency)
	if len(focal) != 1 {
		t.Fatalf("got %d focal points, want 1", len(focal))
	}
	if math.Abs(alignment-1.0) > 1e-9 {
		t.Errorf("alignment = %f, want 1.0 for a peak on the third line", alignment)
	}
	if math.Abs(focal[0].X-30.0/90.0) > 1e-9 || math.Abs(focal[0].Y-30.0/90.0) > 1e-9 {
		t.Errorf("focal point = (%f, %f), want (1/3, 1/3)", focal[0].X, focal[0].Y)
	}
}

func TestRuleOfThirdsFocalPointCap(t *testing.T) {
	a := newAnalyzer()

	// More isolated peaks than the cap allows.
	saliency := make([][]float64, 200)
	for y := range saliency {
		saliency[y] = make([]float64, 200)
	}
	for i := 0; i < 8; i++ {
		saliency[25*i+10][25*i+10] = 1.0 - float64(i)*0.01
	}

	_, focal := a.ruleOfThirds(saliency)
	if len(focal) != a.config.MaxFocalPoints {
		t.Fatalf("got %d focal points, want %d", len(focal), a.config.MaxFocalPoints)
	}
	for i := 1; i < len(focal); i++ {
		if focal[i].Strength > focal[i-1].Strength {
			t.Error("focal points not sorted by descending strength")
		}
	}
}

func TestVisualWeightLabels(t *testing.T) {
	a := newAnalyzer()

	grid := func(fill func(x, y int) float64) [][]float64 {
		s := make([][]float64, 40)
		for y := range s {
			s[y] = make([]float64, 40)
			for x := range s[y] {
				s[y][x] = fill(x, y)
			}
		}
		return s
	}

	tests := []struct {
		name string
		fill func(x, y int) float64
		want string
	}{
		{"uniform", func(x, y int) float64 { return 0.5 }, WeightBalanced},
		{"left", func(x, y int) float64 {
			if x < 20 {
				return 1.0
			}
			return 0.1
		}, WeightLeftHeavy},
		{"right", func(x, y int) float64 {
			if x >= 20 {
				return 1.0
			}
			return 0.1
		}, WeightRightHeavy},
		{"top", func(x, y int) float64 {
			if y < 20 {
				return 1.0
			}
			return 0.1
		}, WeightTopHeavy},
		{"bottom", func(x, y int) float64 {
			if y >= 20 {
				return 1.0
			}
			return 0.1
		}, WeightBottomHeavy},
	}
	for _, tt := range tests {
		if got := a.visualWeight(grid(tt.fill)); got != tt.want {
			t.Errorf("%s: visualWeight = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestCenterOfMass(t *testing.T) {
	saliency := make([][]float64, 100)
	for y := range saliency {
		saliency[y] = make([]float64, 100)
	}
	saliency[20][70] = 1.0

	cx, cy := centerOfMass(saliency)
	if math.Abs(cx-0.7) > 1e-9 || math.Abs(cy-0.2) > 1e-9 {
		t.Errorf("center of mass = (%f, %f), want (0.7, 0.2)", cx, cy)
	}

	zero := make([][]float64, 10)
	for y := range zero {
		zero[y] = make([]float64, 10)
	}
	cx, cy = centerOfMass(zero)
	if cx != 0.5 || cy != 0.5 {
		t.Errorf("zero-mass center = (%f, %f), want (0.5, 0.5)", cx, cy)
	}
}

func TestExtractMissingFile(t *testing.T) {
	a := newAnalyzer()
	f := a.Extract("/nonexistent/painting.jpg")

	if f.RuleOfThirdsAlignment != 0.3 || f.VisualWeightDistribution != WeightBalanced {
		t.Errorf("missing file should yield defaults, got %+v", f)
	}
	if len(f.FocalPoints) != 1 {
		t.Errorf("got %d focal points, want 1 synthetic default", len(f.FocalPoints))
	}
}

func TestExtractFromImageBounds(t *testing.T) {
	a := newAnalyzer()
	f := a.ExtractFromImage(blobImage(200, 150, 120, 30, 40))

	inUnit := func(name string, v float64) {
		if v < 0 || v > 1 {
			t.Errorf("%s = %f, out of [0,1]", name, v)
		}
	}
	inUnit("SaliencyCenterX", f.SaliencyCenterX)
	inUnit("SaliencyCenterY", f.SaliencyCenterY)
	inUnit("RuleOfThirdsAlignment", f.RuleOfThirdsAlignment)
	inUnit("HorizontalSymmetry", f.HorizontalSymmetry)
	inUnit("VerticalSymmetry", f.VerticalSymmetry)

	if len(f.FocalPoints) == 0 || len(f.FocalPoints) > a.config.MaxFocalPoints {
		t.Errorf("got %d focal points, want between 1 and %d", len(f.FocalPoints), a.config.MaxFocalPoints)
	}
	for _, fp := range f.FocalPoints {
		inUnit("FocalPoint.X", fp.X)
		inUnit("FocalPoint.Y", fp.Y)
	}

	switch f.VisualWeightDistribution {
	case WeightBalanced, WeightLeftHeavy, WeightRightHeavy, WeightTopHeavy, WeightBottomHeavy:
	default:
		t.Errorf("unexpected weight label %q", f.VisualWeightDistribution)
	}
}

func TestSpectralResidualRejectsConstant(t *testing.T) {
	s := &SpectralResidual{BlurSigma: 10}
	gray := make([][]float64, 16)
	for y := range gray {
		gray[y] = make([]float64, 16)
		for x := range gray[y] {
			gray[y][x] = 128
		}
	}
	if _, err := s.Compute(gray); err == nil {
		t.Fatal("expected error for constant input")
	}
}
