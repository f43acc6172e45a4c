package analyzer

import (
	"image"
	"image/draw"

	"github.com/nfnt/resize"

	"rice-leaf-inspector/pkg/models"
)

const (
	HintBlurry       = "blurry"
	HintUnderexposed = "underexposed"
	HintOverexposed  = "overexposed"
)

type qualityAnalyzer struct {
	options QualityOptions
	calc    MetricsCalculator
	texts   map[string]string
}

// NewQualityAnalyzer creates an analyzer. texts maps hint codes to the
// messages shown to the user; missing codes fall back to the code itself.
func NewQualityAnalyzer(options QualityOptions, texts map[string]string) QualityAnalyzer {
	return &qualityAnalyzer{
		options: options,
		calc:    NewMetricsCalculator(),
		texts:   texts,
	}
}

func (a *qualityAnalyzer) Analyze(img image.Image) models.QualityReport {
	if a.options.MaxDimension > 0 {
		img = resize.Thumbnail(a.options.MaxDimension, a.options.MaxDimension, img, resize.Bilinear)
	}
	gray := toGray(img)

	report := models.QualityReport{
		LaplacianVar: a.calc.CalculateLaplacianVariance(gray),
		AvgLuminance: a.calc.CalculateLuminance(gray),
	}

	report.Blurry = report.LaplacianVar < a.options.BlurThreshold
	report.Underexposed = report.AvgLuminance < a.options.DarkThreshold
	report.Overexposed = report.AvgLuminance > a.options.BrightThreshold

	if report.Blurry {
		report.Hints = append(report.Hints, a.hint(HintBlurry, report.LaplacianVar))
	}
	if report.Underexposed {
		report.Hints = append(report.Hints, a.hint(HintUnderexposed, report.AvgLuminance))
	}
	if report.Overexposed {
		report.Hints = append(report.Hints, a.hint(HintOverexposed, report.AvgLuminance))
	}
	return report
}

func (a *qualityAnalyzer) hint(code string, value float64) models.QualityHint {
	msg, ok := a.texts[code]
	if !ok || msg == "" {
		msg = code
	}
	return models.QualityHint{Code: code, Message: msg, Value: value}
}

func toGray(img image.Image) *image.Gray {
	if g, ok := img.(*image.Gray); ok {
		return g
	}
	b := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(gray, gray.Bounds(), img, b.Min, draw.Src)
	return gray
}
