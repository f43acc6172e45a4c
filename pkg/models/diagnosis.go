package models

import (
	"html/template"
	"time"
)

// CategoryScore is the probability the model assigned to one category
type CategoryScore struct {
	Category    string  `json:"category"`
	Probability float64 `json:"probability"`
}

// QualityHint is a non-blocking remark about the uploaded photo
type QualityHint struct {
	Code    string  `json:"code"`
	Message string  `json:"message"`
	Value   float64 `json:"value"`
}

// QualityReport holds the measurements behind the quality hints
type QualityReport struct {
	LaplacianVar float64       `json:"laplacian_var"`
	AvgLuminance float64       `json:"avg_luminance"`
	Blurry       bool          `json:"blurry"`
	Underexposed bool          `json:"underexposed"`
	Overexposed  bool          `json:"overexposed"`
	Hints        []QualityHint `json:"hints,omitempty"`
}

// Diagnosis is the result of one upload: exactly one prediction with its advice
type Diagnosis struct {
	Filename          string          `json:"filename"`
	Format            string          `json:"format"`
	Width             int             `json:"width"`
	Height            int             `json:"height"`
	Category          string          `json:"category"`
	Confidence        float64         `json:"confidence"`
	ConfidencePercent string          `json:"confidence_percent"`
	Probabilities     []CategoryScore `json:"probabilities"`
	Advisory          string          `json:"advisory"`
	Quality           QualityReport   `json:"quality"`
	Timestamp         time.Time       `json:"timestamp"`
	ProcessingTimeSec float64         `json:"processing_time_sec"`

	// Page-only fields
	AdvisoryHTML template.HTML `json:"-"`
	PreviewURI   template.URL  `json:"-"`
}

// ConfidenceWidth is the confidence as a CSS width for the progress bar
func (d *Diagnosis) ConfidenceWidth() string {
	return ConfidencePercent(d.Confidence)
}
