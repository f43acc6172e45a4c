package classifier

import (
	"context"
	"errors"
	"fmt"
	"os"

	ort "github.com/yalue/onnxruntime_go"

	"rice-leaf-inspector/internal/imaging"
)

// ONNXOptions configures the ONNX Runtime backed predictor.
type ONNXOptions struct {
	ModelPath         string
	InputName         string
	OutputName        string
	SharedLibraryPath string
}

// ErrModelClosed is returned by Predict after Close.
var ErrModelClosed = errors.New("model is closed")

// ONNXModel owns one ONNX Runtime session with preallocated tensors.
// The tensors are shared, so Predict serializes callers through a
// one-slot semaphore.
type ONNXModel struct {
	sem          chan struct{}
	session      *ort.AdvancedSession
	inputTensor  *ort.Tensor[float32]
	outputTensor *ort.Tensor[float32]
}

// NewONNXModel loads the model artifact. A missing or malformed artifact
// is returned as an error; there is no fallback model.
func NewONNXModel(opts ONNXOptions) (*ONNXModel, error) {
	if _, err := os.Stat(opts.ModelPath); err != nil {
		return nil, fmt.Errorf("model artifact unavailable: %w", err)
	}

	if opts.SharedLibraryPath != "" {
		ort.SetSharedLibraryPath(opts.SharedLibraryPath)
	}
	if !ort.IsInitialized() {
		if err := ort.InitializeEnvironment(); err != nil {
			return nil, fmt.Errorf("failed to initialize ONNX environment: %w", err)
		}
	}

	inputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(imaging.InputShape()...))
	if err != nil {
		return nil, fmt.Errorf("failed to create input tensor: %w", err)
	}

	outputTensor, err := ort.NewEmptyTensor[float32](ort.NewShape(OutputShape()...))
	if err != nil {
		inputTensor.Destroy()
		return nil, fmt.Errorf("failed to create output tensor: %w", err)
	}

	session, err := ort.NewAdvancedSession(opts.ModelPath,
		[]string{opts.InputName}, []string{opts.OutputName},
		[]ort.Value{inputTensor}, []ort.Value{outputTensor},
		nil)
	if err != nil {
		inputTensor.Destroy()
		outputTensor.Destroy()
		return nil, fmt.Errorf("failed to create ONNX session (check input/output names): %w", err)
	}

	return &ONNXModel{
		sem:          make(chan struct{}, 1),
		session:      session,
		inputTensor:  inputTensor,
		outputTensor: outputTensor,
	}, nil
}

// Predict copies input into the session, runs it and returns a copy of the
// output. The context bounds the wait for the session as well as the call:
// a request queued behind other uploads gives up at its deadline. A run that
// has started is not interrupted.
func (m *ONNXModel) Predict(ctx context.Context, input imaging.Tensor) ([]float32, error) {
	select {
	case m.sem <- struct{}{}:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	defer func() { <-m.sem }()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if m.session == nil {
		return nil, ErrModelClosed
	}

	inputData := m.inputTensor.GetData()
	if len(input.Data) != len(inputData) {
		return nil, fmt.Errorf("input size mismatch: expected %d, got %d", len(inputData), len(input.Data))
	}
	copy(inputData, input.Data)

	if err := m.session.Run(); err != nil {
		return nil, fmt.Errorf("inference failed: %w", err)
	}

	output := m.outputTensor.GetData()
	result := make([]float32, len(output))
	copy(result, output)
	return result, nil
}

// Close releases the session, its tensors and the runtime environment.
func (m *ONNXModel) Close() error {
	m.sem <- struct{}{}
	defer func() { <-m.sem }()

	if m.inputTensor != nil {
		m.inputTensor.Destroy()
		m.inputTensor = nil
	}
	if m.outputTensor != nil {
		m.outputTensor.Destroy()
		m.outputTensor = nil
	}
	if m.session != nil {
		m.session.Destroy()
		m.session = nil
	}
	return ort.DestroyEnvironment()
}
