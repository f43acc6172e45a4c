package analyzer

// QualityOptions sets the thresholds behind the photo quality hints
type QualityOptions struct {
	// Laplacian variance below this marks the photo as blurry
	BlurThreshold float64

	// Mean luminance bounds, in [0,1]
	DarkThreshold   float64
	BrightThreshold float64

	// Longest side the photo is scaled down to before measuring
	MaxDimension uint
}

// DefaultOptions returns default quality options
func DefaultOptions() QualityOptions {
	return QualityOptions{
		BlurThreshold:   100.0,
		DarkThreshold:   0.15,
		BrightThreshold: 0.92,
		MaxDimension:    1024,
	}
}
