package classifier

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"rice-leaf-inspector/internal/category"
	apperrors "rice-leaf-inspector/internal/errors"
	"rice-leaf-inspector/internal/imaging"
)

// distributionTolerance is how far a vector's sum may stray from 1 before
// it is treated as logits. Sums within it are rescaled to exactly 1.
const distributionTolerance = 1e-3

// Prediction is the outcome of one forward pass.
type Prediction struct {
	Category      category.Category
	Index         int
	Confidence    float64   // probability of Category, in [0,1]
	Probabilities []float64 // one entry per category, in model order
}

// Classifier maps model output onto the declared categories.
type Classifier struct {
	predictor Predictor
}

// New wraps a predictor.
func New(p Predictor) *Classifier {
	return &Classifier{predictor: p}
}

// Classify runs the model on one batch. Ties go to the lowest index.
func (c *Classifier) Classify(ctx context.Context, input imaging.Tensor) (Prediction, error) {
	if want := inputLen(); len(input.Data) != want || input.Len() != want {
		return Prediction{}, apperrors.NewInferenceError(
			fmt.Sprintf("input tensor has %d values, expected %d", len(input.Data), want), nil)
	}

	raw, err := c.predictor.Predict(ctx, input)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return Prediction{}, apperrors.NewTimeoutError("inference did not complete in time", err)
		}
		return Prediction{}, apperrors.NewInferenceError("model inference failed", err)
	}

	probs, err := Normalize(raw)
	if err != nil {
		return Prediction{}, err
	}

	idx := floats.MaxIdx(probs)
	cat, err := category.FromIndex(idx)
	if err != nil {
		return Prediction{}, err
	}

	return Prediction{
		Category:      cat,
		Index:         idx,
		Confidence:    probs[idx],
		Probabilities: probs,
	}, nil
}

// Close releases the underlying predictor.
func (c *Classifier) Close() error {
	return c.predictor.Close()
}

// Normalize validates a raw output vector and returns it as a probability
// distribution. Vectors with negative entries or a sum away from 1 are
// passed through softmax; everything is clamped to [0,1] and rescaled so
// the result sums to 1.
func Normalize(raw []float32) ([]float64, error) {
	if len(raw) != category.Count {
		return nil, apperrors.NewIntegrationError(
			fmt.Sprintf("model returned %d values, expected %d", len(raw), category.Count), nil)
	}

	probs := make([]float64, len(raw))
	negative := false
	for i, v := range raw {
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, apperrors.NewInferenceError(fmt.Sprintf("model returned non-finite value at index %d", i), nil)
		}
		if f < 0 {
			negative = true
		}
		probs[i] = f
	}

	if negative || math.Abs(floats.Sum(probs)-1) > distributionTolerance {
		softmax(probs)
	}

	for i, p := range probs {
		probs[i] = math.Max(0, math.Min(1, p))
	}
	if sum := floats.Sum(probs); sum > 0 && sum != 1 {
		floats.Scale(1/sum, probs)
	}
	return probs, nil
}

func inputLen() int {
	return imaging.InputSize * imaging.InputSize * imaging.InputChannels
}

func softmax(v []float64) {
	maxVal := floats.Max(v)
	var sum float64
	for i := range v {
		v[i] = math.Exp(v[i] - maxVal)
		sum += v[i]
	}
	floats.Scale(1/sum, v)
}
