package imaging

import (
	"image"
	"image/color"

	"github.com/nfnt/resize"
)

const (
	InputSize     = 224
	InputChannels = 3
)

// Tensor is a dense float32 array in row-major order.
type Tensor struct {
	Shape []int64
	Data  []float32
}

// Len is the number of elements implied by Shape.
func (t Tensor) Len() int {
	n := 1
	for _, d := range t.Shape {
		n *= int(d)
	}
	return n
}

// InputShape is the batch-of-one NHWC shape the classifier consumes.
func InputShape() []int64 {
	return []int64{1, InputSize, InputSize, InputChannels}
}

// Preprocess resizes img to 224x224 with bicubic interpolation and scales
// each channel from [0,255] to [0,1], producing a [1,224,224,3] batch.
// Images that are already 224x224 are not resampled.
func Preprocess(img image.Image) Tensor {
	b := img.Bounds()
	if b.Dx() != InputSize || b.Dy() != InputSize {
		img = resize.Resize(InputSize, InputSize, img, resize.Bicubic)
		b = img.Bounds()
	}

	data := make([]float32, InputSize*InputSize*InputChannels)
	for y := 0; y < InputSize; y++ {
		for x := 0; x < InputSize; x++ {
			c := color.NRGBAModel.Convert(img.At(b.Min.X+x, b.Min.Y+y)).(color.NRGBA)
			i := (y*InputSize + x) * InputChannels
			data[i+0] = float32(c.R) / 255.0
			data[i+1] = float32(c.G) / 255.0
			data[i+2] = float32(c.B) / 255.0
		}
	}

	return Tensor{Shape: InputShape(), Data: data}
}
