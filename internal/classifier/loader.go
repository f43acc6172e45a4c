package classifier

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"rice-leaf-inspector/internal/logger"
)

// LoaderOptions locate the model artifact and its optional metadata.
type LoaderOptions struct {
	ModelPath         string
	MetadataPath      string
	InputName         string
	OutputName        string
	SharedLibraryPath string
}

// Load reads the metadata (if any), checks the class order contract and
// opens the model. Every error here is fatal for the process.
func Load(opts LoaderOptions) (*ONNXModel, error) {
	inputName, outputName := opts.InputName, opts.OutputName

	if opts.MetadataPath != "" {
		meta, err := LoadMetadata(opts.MetadataPath)
		if err != nil {
			return nil, fmt.Errorf("model metadata %s: %w", opts.MetadataPath, err)
		}
		if len(meta.Classes) == 0 {
			logger.WithField("metadata", opts.MetadataPath).
				Warn("Model metadata lists no classes; category order cannot be verified")
		}
		if meta.InputName != "" {
			inputName = meta.InputName
		}
		if meta.OutputName != "" {
			outputName = meta.OutputName
		}
	} else {
		logger.Warn("No model metadata configured; category order is assumed to match the model")
	}

	logger.WithFields(logrus.Fields{
		"model":  opts.ModelPath,
		"input":  inputName,
		"output": outputName,
	}).Info("Loading classifier model")

	return NewONNXModel(ONNXOptions{
		ModelPath:         opts.ModelPath,
		InputName:         inputName,
		OutputName:        outputName,
		SharedLibraryPath: opts.SharedLibraryPath,
	})
}
