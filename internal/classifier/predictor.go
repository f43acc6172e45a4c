// Package classifier loads the rice leaf model and turns its output vector
// into a category and a confidence score.
package classifier

import (
	"context"

	"rice-leaf-inspector/internal/imaging"
)

// Predictor runs one forward pass over a preprocessed batch and returns the
// raw output vector for its single image.
type Predictor interface {
	Predict(ctx context.Context, input imaging.Tensor) ([]float32, error)
	Close() error
}
