package analyzer

import (
	"image"
	"sync"

	"gonum.org/v1/gonum/stat"
)

type metricsCalculator struct {
	slicePool sync.Pool
}

// NewMetricsCalculator creates a new metrics calculator using Gonum
func NewMetricsCalculator() MetricsCalculator {
	return &metricsCalculator{
		slicePool: sync.Pool{
			New: func() interface{} {
				s := make([]float64, 0, 1024)
				return &s
			},
		},
	}
}

// CalculateLaplacianVariance computes the variance of the 4-neighbour Laplacian
func (mc *metricsCalculator) CalculateLaplacianVariance(gray *image.Gray) float64 {
	bounds := gray.Bounds()
	width, height := bounds.Dx(), bounds.Dy()
	if width < 3 || height < 3 {
		return 0
	}

	buf := mc.slicePool.Get().(*[]float64)
	data := (*buf)[:0]
	defer func() {
		*buf = data[:0]
		mc.slicePool.Put(buf)
	}()

	// Laplacian kernel: [0, 1, 0; 1, -4, 1; 0, 1, 0]
	for y := bounds.Min.Y + 1; y < bounds.Max.Y-1; y++ {
		for x := bounds.Min.X + 1; x < bounds.Max.X-1; x++ {
			center := float64(gray.GrayAt(x, y).Y)
			top := float64(gray.GrayAt(x, y-1).Y)
			bottom := float64(gray.GrayAt(x, y+1).Y)
			left := float64(gray.GrayAt(x-1, y).Y)
			right := float64(gray.GrayAt(x+1, y).Y)

			data = append(data, -4*center+top+bottom+left+right)
		}
	}

	return stat.Variance(data, nil)
}

// CalculateLuminance returns the mean gray level in [0,1]
func (mc *metricsCalculator) CalculateLuminance(gray *image.Gray) float64 {
	if len(gray.Pix) == 0 {
		return 0
	}

	bounds := gray.Bounds()
	var total float64
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			total += float64(gray.GrayAt(x, y).Y)
		}
	}
	return total / float64(bounds.Dx()*bounds.Dy()) / 255.0
}
