// Package imaging turns uploaded bytes into the input batch the classifier
// expects, and back into an inline preview for the result page.
package imaging

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/jpeg"
	_ "image/png"

	apperrors "rice-leaf-inspector/internal/errors"
)

var acceptedFormats = map[string]bool{
	"jpeg": true,
	"png":  true,
}

// Decode parses JPEG or PNG bytes. Any other content, including formats
// that another package may have registered with image, is a decode error.
// The header is checked first; images declaring more than maxPixels pixels
// are rejected before any bitmap is allocated. maxPixels <= 0 disables the limit.
func Decode(data []byte, maxPixels int) (image.Image, string, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewDecodeError("failed to decode image", err)
	}
	if !acceptedFormats[format] {
		return nil, format, apperrors.NewDecodeError("unsupported image format: "+format, nil)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, format, apperrors.NewDecodeError("image has no pixels", nil)
	}
	if maxPixels > 0 && int64(cfg.Width)*int64(cfg.Height) > int64(maxPixels) {
		return nil, format, apperrors.NewDecodeError("image dimensions exceed the pixel limit", nil).
			WithDetails(fmt.Sprintf("%dx%d is more than %d pixels", cfg.Width, cfg.Height, maxPixels))
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", apperrors.NewDecodeError("failed to decode image", err)
	}
	if !acceptedFormats[format] {
		return nil, format, apperrors.NewDecodeError("unsupported image format: "+format, nil)
	}

	b := img.Bounds()
	if b.Dx() == 0 || b.Dy() == 0 {
		return nil, format, apperrors.NewDecodeError("image has no pixels", nil)
	}
	return img, format, nil
}

// ToRGB returns an opaque copy of img with straight (non-premultiplied)
// colour values. Alpha is dropped, not composited.
func ToRGB(img image.Image) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			i := out.PixOffset(x-b.Min.X, y-b.Min.Y)
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = 0xff
		}
	}
	return out
}
