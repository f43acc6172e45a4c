package classifier

import (
	"encoding/json"
	"fmt"
	"os"
	"slices"

	"rice-leaf-inspector/internal/category"
	"rice-leaf-inspector/internal/imaging"
)

// Metadata describes an exported model. It is optional; when present its
// class list is checked against the declared category order.
type Metadata struct {
	InputShape  []int64  `json:"input_shape"`
	OutputShape []int64  `json:"output_shape"`
	Classes     []string `json:"classes"`
	ImageSize   int      `json:"image_size"`
	InputName   string   `json:"input_name"`
	OutputName  string   `json:"output_name"`
}

// LoadMetadata reads and validates a metadata JSON file.
func LoadMetadata(path string) (*Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read metadata: %w", err)
	}

	var meta Metadata
	if err := json.Unmarshal(data, &meta); err != nil {
		return nil, fmt.Errorf("failed to parse metadata: %w", err)
	}
	if err := meta.Validate(); err != nil {
		return nil, err
	}
	return &meta, nil
}

// Validate checks the declared shapes and the class order.
func (m *Metadata) Validate() error {
	if len(m.InputShape) > 0 && !slices.Equal(m.InputShape, imaging.InputShape()) {
		return fmt.Errorf("model input shape %v, expected %v", m.InputShape, imaging.InputShape())
	}
	if len(m.OutputShape) > 0 && !slices.Equal(m.OutputShape, OutputShape()) {
		return fmt.Errorf("model output shape %v, expected %v", m.OutputShape, OutputShape())
	}
	if m.ImageSize != 0 && m.ImageSize != imaging.InputSize {
		return fmt.Errorf("model image size %d, expected %d", m.ImageSize, imaging.InputSize)
	}
	return category.VerifyOrder(m.Classes)
}

// OutputShape is one probability vector over the known categories.
func OutputShape() []int64 {
	return []int64{1, int64(category.Count)}
}
