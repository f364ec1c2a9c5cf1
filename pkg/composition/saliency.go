package composition

import (
	"fmt"
	"math"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
)

// SaliencyStrategy computes a saliency map from a grayscale grid with
// values in [0,255]. The returned map is min-max normalized to [0,1].
// Strategies are ordered primary-first; a failing strategy makes the
// analyzer fall through to the next one.
type SaliencyStrategy interface {
	Name() string
	Compute(gray [][]float64) ([][]float64, error)
}

// DefaultStrategies returns the ordered strategy chain: spectral residual,
// then gradient magnitude with Gaussian smoothing, then gradient magnitude
// with a box blur as the last resort.
func DefaultStrategies() []SaliencyStrategy {
	return []SaliencyStrategy{
		&SpectralResidual{BlurSigma: 10},
		&GradientSaliency{BlurSigma: 5},
		&GradientBoxSaliency{KernelSize: 5},
	}
}

// SpectralResidual implements the Hou/Zhang spectral-residual saliency
// detector: the residual of the log-amplitude spectrum against its local
// average captures the "novel" part of the image.
type SpectralResidual struct {
	// BlurSigma is the Gaussian smoothing applied to the reconstructed map.
	BlurSigma float64
}

func (s *SpectralResidual) Name() string { return "spectral-residual" }

func (s *SpectralResidual) Compute(gray [][]float64) ([][]float64, error) {
	h := len(gray)
	if h == 0 || len(gray[0]) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	w := len(gray[0])
	if isConstant(gray) {
		// A zero-variance image has no spectral structure and the
		// residual reconstruction degenerates to FFT noise.
		return nil, fmt.Errorf("constant image has no spectral residual")
	}

	freq := make([][]complex128, h)
	for y := 0; y < h; y++ {
		row := make([]complex128, w)
		for x := 0; x < w; x++ {
			row[x] = complex(gray[y][x], 0)
		}
		freq[y] = row
	}
	fft2d(freq, false)

	logAmp := make([][]float64, h)
	phase := make([][]float64, h)
	for y := 0; y < h; y++ {
		logAmp[y] = make([]float64, w)
		phase[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			logAmp[y][x] = math.Log(cmplx.Abs(freq[y][x]) + 1e-10)
			phase[y][x] = cmplx.Phase(freq[y][x])
		}
	}

	avgLogAmp := boxFilter(logAmp, 3)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			residual := logAmp[y][x] - avgLogAmp[y][x]
			freq[y][x] = cmplx.Rect(math.Exp(residual), phase[y][x])
		}
	}
	fft2d(freq, true)

	saliency := make([][]float64, h)
	for y := 0; y < h; y++ {
		saliency[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			m := cmplx.Abs(freq[y][x])
			saliency[y][x] = m * m
		}
	}

	saliency = gaussianBlur(saliency, s.BlurSigma)
	normalize(saliency)
	return saliency, nil
}

// GradientSaliency approximates saliency by smoothed gradient magnitude.
type GradientSaliency struct {
	BlurSigma float64
}

func (s *GradientSaliency) Name() string { return "gradient-gaussian" }

func (s *GradientSaliency) Compute(gray [][]float64) ([][]float64, error) {
	edges, err := gradientMagnitude(gray)
	if err != nil {
		return nil, err
	}
	saliency := gaussianBlur(edges, s.BlurSigma)
	normalize(saliency)
	return saliency, nil
}

// GradientBoxSaliency is the last-resort strategy: gradient magnitude with
// a plain box blur.
type GradientBoxSaliency struct {
	KernelSize int
}

func (s *GradientBoxSaliency) Name() string { return "gradient-box" }

func (s *GradientBoxSaliency) Compute(gray [][]float64) ([][]float64, error) {
	edges, err := gradientMagnitude(gray)
	if err != nil {
		return nil, err
	}
	size := s.KernelSize
	if size < 3 {
		size = 3
	}
	saliency := boxFilter(edges, size)
	normalize(saliency)
	return saliency, nil
}

func gradientMagnitude(gray [][]float64) ([][]float64, error) {
	h := len(gray)
	if h == 0 || len(gray[0]) == 0 {
		return nil, fmt.Errorf("empty image")
	}
	w := len(gray[0])

	edges := make([][]float64, h)
	for y := 0; y < h; y++ {
		edges[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			gx, gy := 0.0, 0.0
			if x+1 < w {
				gx = gray[y][x+1] - gray[y][x]
			}
			if y+1 < h {
				gy = gray[y+1][x] - gray[y][x]
			}
			edges[y][x] = math.Hypot(gx, gy)
		}
	}
	return edges, nil
}

// fft2d transforms data in place: rows first, then columns. The inverse
// transform is unnormalized, which is fine because every consumer min-max
// normalizes afterwards.
func fft2d(data [][]complex128, inverse bool) {
	h := len(data)
	w := len(data[0])

	rowFFT := fourier.NewCmplxFFT(w)
	for y := 0; y < h; y++ {
		if inverse {
			rowFFT.Sequence(data[y], data[y])
		} else {
			rowFFT.Coefficients(data[y], data[y])
		}
	}

	colFFT := fourier.NewCmplxFFT(h)
	col := make([]complex128, h)
	for x := 0; x < w; x++ {
		for y := 0; y < h; y++ {
			col[y] = data[y][x]
		}
		if inverse {
			colFFT.Sequence(col, col)
		} else {
			colFFT.Coefficients(col, col)
		}
		for y := 0; y < h; y++ {
			data[y][x] = col[y]
		}
	}
}

// boxFilter applies a size x size mean filter with edge clamping.
func boxFilter(grid [][]float64, size int) [][]float64 {
	h := len(grid)
	w := len(grid[0])
	half := size / 2

	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			sum, count := 0.0, 0
			for dy := -half; dy <= half; dy++ {
				for dx := -half; dx <= half; dx++ {
					ny, nx := clampIdx(y+dy, h), clampIdx(x+dx, w)
					sum += grid[ny][nx]
					count++
				}
			}
			out[y][x] = sum / float64(count)
		}
	}
	return out
}

// gaussianBlur applies a separable Gaussian kernel with edge clamping.
func gaussianBlur(grid [][]float64, sigma float64) [][]float64 {
	if sigma <= 0 {
		return grid
	}
	h := len(grid)
	w := len(grid[0])

	radius := int(math.Ceil(3 * sigma))
	kernel := make([]float64, 2*radius+1)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}

	// Horizontal pass.
	tmp := make([][]float64, h)
	for y := 0; y < h; y++ {
		tmp[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				acc += grid[y][clampIdx(x+i, w)] * kernel[i+radius]
			}
			tmp[y][x] = acc
		}
	}

	// Vertical pass.
	out := make([][]float64, h)
	for y := 0; y < h; y++ {
		out[y] = make([]float64, w)
		for x := 0; x < w; x++ {
			acc := 0.0
			for i := -radius; i <= radius; i++ {
				acc += tmp[clampIdx(y+i, h)][x] * kernel[i+radius]
			}
			out[y][x] = acc
		}
	}
	return out
}

// normalize rescales the grid to [0,1] in place.
func normalize(grid [][]float64) {
	minV, maxV := math.MaxFloat64, -math.MaxFloat64
	for _, row := range grid {
		for _, v := range row {
			if v < minV {
				minV = v
			}
			if v > maxV {
				maxV = v
			}
		}
	}
	span := maxV - minV + 1e-10
	for y := range grid {
		for x := range grid[y] {
			grid[y][x] = (grid[y][x] - minV) / span
		}
	}
}

func isConstant(grid [][]float64) bool {
	first := grid[0][0]
	for _, row := range grid {
		for _, v := range row {
			if v != first {
				return false
			}
		}
	}
	return true
}

func clampIdx(i, n int) int {
	if i < 0 {
		return 0
	}
	if i >= n {
		return n - 1
	}
	return i
}
