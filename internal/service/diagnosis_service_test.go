package service

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"strings"
	"sync"
	"testing"
	"time"

	"rice-leaf-inspector/internal/advisory"
	"rice-leaf-inspector/internal/analyzer"
	"rice-leaf-inspector/internal/category"
	"rice-leaf-inspector/internal/classifier"
	apperrors "rice-leaf-inspector/internal/errors"
	"rice-leaf-inspector/internal/imaging"
	"rice-leaf-inspector/internal/observer"
	"rice-leaf-inspector/pkg/validation"
)

type fixedPredictor struct {
	output []float32
	last   imaging.Tensor
}

func (f *fixedPredictor) Predict(ctx context.Context, input imaging.Tensor) ([]float32, error) {
	f.last = input
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return append([]float32(nil), f.output...), nil
}

func (f *fixedPredictor) Close() error { return nil }

type recordingObserver struct {
	mu     sync.Mutex
	events []observer.PredictionEvent
}

func (r *recordingObserver) OnEvent(ctx context.Context, event observer.PredictionEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingObserver) GetObserverName() string { return "recording" }

func (r *recordingObserver) types() []observer.EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]observer.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.EventType
	}
	return out
}

func pngBytes(t *testing.T, width, height int, fill color.Color) []byte {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, fill)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

const testMaxPixels = 100000

func newTestService(t *testing.T, output []float32) (DiagnosisService, *fixedPredictor, *advisory.Table, *recordingObserver) {
	t.Helper()
	table, err := advisory.Default()
	if err != nil {
		t.Fatal(err)
	}

	predictor := &fixedPredictor{output: output}
	events := observer.NewEventPublisher()
	rec := &recordingObserver{}
	events.Subscribe(rec)

	svc := NewDiagnosisService(Dependencies{
		Validator:        validation.NewUploadValidator(1 << 20),
		Classifier:       classifier.New(predictor),
		Advisories:       table,
		Quality:          analyzer.NewQualityAnalyzer(analyzer.DefaultOptions(), table.Page().Hints),
		Events:           events,
		InferenceTimeout: time.Second,
		MaxImagePixels:   testMaxPixels,
	})
	return svc, predictor, table, rec
}

func TestDiagnose_AllWhiteImage(t *testing.T) {
	svc, predictor, table, rec := newTestService(t, []float32{0.1, 0.6, 0.1, 0.1, 0.1})

	diag, err := svc.Diagnose(context.Background(), Upload{
		Filename: "white.png",
		Data:     pngBytes(t, 224, 224, color.White),
	})
	if err != nil {
		t.Fatalf("Diagnose: %v", err)
	}

	for i, v := range predictor.last.Data {
		if v != 1.0 {
			t.Fatalf("Expected preprocessed batch of 1.0, got %f at %d", v, i)
		}
	}

	if diag.Category != string(category.BrownSpot) {
		t.Errorf("Expected Brown Spot, got %s", diag.Category)
	}
	if diag.Confidence < 0 || diag.Confidence > 1 {
		t.Errorf("Confidence %f outside [0,1]", diag.Confidence)
	}
	want, _ := table.Lookup(category.BrownSpot)
	if diag.Advisory != want {
		t.Errorf("Advisory is not the table entry verbatim:\n%s\nvs\n%s", diag.Advisory, want)
	}
	if len(diag.Probabilities) != category.Count {
		t.Errorf("Expected %d probabilities, got %d", category.Count, len(diag.Probabilities))
	}
	if !strings.HasPrefix(string(diag.PreviewURI), "data:image/png;base64,") {
		t.Error("Expected inline PNG preview")
	}
	if diag.Width != 224 || diag.Height != 224 || diag.Format != "png" {
		t.Errorf("Unexpected image info %dx%d %s", diag.Width, diag.Height, diag.Format)
	}
	if !diag.Quality.Overexposed {
		t.Error("Expected an all-white photo to be flagged as overexposed")
	}

	got := rec.types()
	if len(got) != 2 || got[0] != observer.UploadReceived || got[1] != observer.PredictionCompleted {
		t.Errorf("Unexpected events %v", got)
	}
}

func TestDiagnose_Tungro(t *testing.T) {
	svc, _, table, _ := newTestService(t, []float32{0.05, 0.05, 0.05, 0.05, 0.80})

	diag, err := svc.Diagnose(context.Background(), Upload{
		Filename: "leaf.png",
		Data:     pngBytes(t, 300, 200, color.NRGBA{200, 170, 40, 255}),
	})
	if err != nil {
		t.Fatal(err)
	}

	if diag.Category != "Tungro" {
		t.Errorf("Expected Tungro, got %s", diag.Category)
	}
	if diag.ConfidencePercent != "80.00%" {
		t.Errorf("Expected 80.00%%, got %s", diag.ConfidencePercent)
	}
	want, _ := table.Lookup(category.Tungro)
	if diag.Advisory != want {
		t.Error("Expected the Tungro advisory verbatim")
	}
	if !strings.Contains(string(diag.AdvisoryHTML), "Tungro (Virus oleh Wereng Hijau)") {
		t.Errorf("Unexpected advisory HTML %s", diag.AdvisoryHTML)
	}
}

func TestDiagnose_BadUploadDoesNotAffectNextOne(t *testing.T) {
	svc, _, _, rec := newTestService(t, []float32{0.9, 0.025, 0.025, 0.025, 0.025})

	_, err := svc.Diagnose(context.Background(), Upload{Filename: "leaf.jpg", Data: []byte("GIF89a but not really")})
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Fatalf("Expected decode error, got %v", err)
	}

	diag, err := svc.Diagnose(context.Background(), Upload{Filename: "leaf.png", Data: pngBytes(t, 50, 50, color.NRGBA{20, 120, 30, 255})})
	if err != nil {
		t.Fatalf("Expected the next upload to succeed, got %v", err)
	}
	if diag.Category != string(category.BacterialLeafBlight) {
		t.Errorf("Unexpected category %s", diag.Category)
	}

	rec.mu.Lock()
	failed := rec.events[1]
	rec.mu.Unlock()
	if failed.EventType != observer.PredictionFailed || failed.ErrorType != string(apperrors.ErrorTypeDecode) {
		t.Errorf("Expected decode failure event, got %+v", failed)
	}
}

func TestDiagnose_OversizedImageDoesNotAffectNextOne(t *testing.T) {
	svc, predictor, _, rec := newTestService(t, []float32{0.05, 0.05, 0.8, 0.05, 0.05})

	// 400x400 compresses to a few hundred bytes but declares 160000 pixels.
	_, err := svc.Diagnose(context.Background(), Upload{
		Filename: "huge.png",
		Data:     pngBytes(t, 400, 400, color.White),
	})
	if !apperrors.IsType(err, apperrors.ErrorTypeDecode) {
		t.Fatalf("Expected decode error for an image over the pixel limit, got %v", err)
	}
	if predictor.last.Data != nil {
		t.Error("Oversized image must not reach the model")
	}

	diag, err := svc.Diagnose(context.Background(), Upload{
		Filename: "leaf.png",
		Data:     pngBytes(t, 224, 224, color.NRGBA{20, 120, 30, 255}),
	})
	if err != nil {
		t.Fatalf("Expected the next upload to succeed, got %v", err)
	}
	if diag.Category != string(category.Healthy) {
		t.Errorf("Unexpected category %s", diag.Category)
	}

	got := rec.types()
	want := []observer.EventType{
		observer.UploadReceived, observer.PredictionFailed,
		observer.UploadReceived, observer.PredictionCompleted,
	}
	if len(got) != len(want) {
		t.Fatalf("Expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Event %d: expected %s, got %s", i, want[i], got[i])
		}
	}
}

func TestDiagnose_Errors(t *testing.T) {
	tests := []struct {
		name     string
		output   []float32
		upload   Upload
		wantType apperrors.ErrorType
	}{
		{"gif extension", []float32{1, 0, 0, 0, 0}, Upload{Filename: "leaf.gif", Data: []byte{1}}, apperrors.ErrorTypeValidation},
		{"empty file", []float32{1, 0, 0, 0, 0}, Upload{Filename: "leaf.png"}, apperrors.ErrorTypeValidation},
		{"model/category mismatch", []float32{0.5, 0.5, 0, 0}, Upload{Filename: "leaf.png"}, apperrors.ErrorTypeIntegration},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, _, _ := newTestService(t, tt.output)
			if tt.upload.Data == nil && tt.wantType == apperrors.ErrorTypeIntegration {
				tt.upload.Data = pngBytes(t, 10, 10, color.White)
			}
			diag, err := svc.Diagnose(context.Background(), tt.upload)
			if diag != nil {
				t.Error("Expected no partial diagnosis on failure")
			}
			if !apperrors.IsType(err, tt.wantType) {
				t.Errorf("Expected %s error, got %v", tt.wantType, err)
			}
		})
	}
}

func TestCategories(t *testing.T) {
	svc, _, _, _ := newTestService(t, nil)
	if got := svc.Categories(); len(got) != category.Count || got[4] != category.Tungro {
		t.Errorf("Unexpected categories %v", got)
	}
}
