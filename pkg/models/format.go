package models

import (
	"fmt"
	"math"
)

// ConfidencePercent formats a [0,1] score as shown on the page, e.g. "80.00%".
func ConfidencePercent(confidence float64) string {
	return fmt.Sprintf("%.2f%%", clamp01(confidence)*100)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
