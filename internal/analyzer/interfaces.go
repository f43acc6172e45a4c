package analyzer

import (
	"image"

	"rice-leaf-inspector/pkg/models"
)

// QualityAnalyzer reports photo problems that may make a prediction less
// reliable. It never changes the prediction itself.
type QualityAnalyzer interface {
	Analyze(img image.Image) models.QualityReport
}

// MetricsCalculator handles image metrics computation
type MetricsCalculator interface {
	CalculateLaplacianVariance(gray *image.Gray) float64
	CalculateLuminance(gray *image.Gray) float64
}
