// Package category holds the fixed set of rice leaf classes and the order
// contract between that set and the classifier's output vector.
package category

import (
	"fmt"
	"strings"

	"github.com/arbovm/levenshtein"

	apperrors "rice-leaf-inspector/internal/errors"
)

// Category is one of the five rice leaf disease or health labels.
type Category string

const (
	BacterialLeafBlight Category = "Bacterial Leaf Blight"
	BrownSpot           Category = "Brown Spot"
	Healthy             Category = "Healthy"
	NarrowBrownSpot     Category = "Narrow Brown Spot"
	Tungro              Category = "Tungro"
)

// ordered must match the label order the model was trained with.
var ordered = [...]Category{
	BacterialLeafBlight,
	BrownSpot,
	Healthy,
	NarrowBrownSpot,
	Tungro,
}

// Count is the length of the classifier's probability vector.
const Count = len(ordered)

// All returns the categories in model output order.
func All() []Category {
	out := make([]Category, Count)
	copy(out, ordered[:])
	return out
}

// FromIndex maps a position in the model output to its category.
func FromIndex(i int) (Category, error) {
	if i < 0 || i >= Count {
		return "", apperrors.NewIntegrationError(
			fmt.Sprintf("class index %d outside of the %d known categories", i, Count), nil)
	}
	return ordered[i], nil
}

// Index returns the position of c in the model output, or -1.
func (c Category) Index() int {
	for i, known := range ordered {
		if known == c {
			return i
		}
	}
	return -1
}

func (c Category) String() string {
	return string(c)
}

// Parse resolves a label exactly as declared. Unknown labels produce an error
// naming the closest known category.
func Parse(name string) (Category, error) {
	c := Category(strings.TrimSpace(name))
	if c.Index() >= 0 {
		return c, nil
	}
	return "", fmt.Errorf("unknown category %q (did you mean %q?)", name, Closest(name))
}

// Closest returns the known category with the smallest edit distance to name.
func Closest(name string) Category {
	needle := strings.ToLower(strings.TrimSpace(name))
	best := ordered[0]
	bestDist := -1
	for _, c := range ordered {
		d := levenshtein.Distance(needle, strings.ToLower(string(c)))
		if bestDist < 0 || d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// VerifyOrder checks labels shipped with a model against the declared order.
// An empty list cannot be checked and passes; callers should log that.
func VerifyOrder(labels []string) error {
	if len(labels) == 0 {
		return nil
	}
	if len(labels) != Count {
		return apperrors.NewIntegrationError(
			fmt.Sprintf("model declares %d classes, expected %d", len(labels), Count), nil)
	}
	for i, label := range labels {
		if strings.TrimSpace(label) != string(ordered[i]) {
			return apperrors.NewIntegrationError(
				fmt.Sprintf("model class %d is %q, expected %q", i, label, ordered[i]), nil)
		}
	}
	return nil
}
