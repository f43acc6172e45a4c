package service

import (
	"context"
	"html/template"
	"time"

	"rice-leaf-inspector/internal/advisory"
	"rice-leaf-inspector/internal/analyzer"
	"rice-leaf-inspector/internal/category"
	"rice-leaf-inspector/internal/classifier"
	apperrors "rice-leaf-inspector/internal/errors"
	"rice-leaf-inspector/internal/imaging"
	"rice-leaf-inspector/internal/observer"
	"rice-leaf-inspector/pkg/models"
	"rice-leaf-inspector/pkg/validation"
)

// Upload is one user-submitted image
type Upload struct {
	Filename  string
	Data      []byte
	RequestID string
}

// DiagnosisService turns an uploaded leaf photo into a prediction with advice
type DiagnosisService interface {
	// Diagnose yields exactly one diagnosis or one error for the upload
	Diagnose(ctx context.Context, upload Upload) (*models.Diagnosis, error)

	// Categories lists the categories in model output order
	Categories() []category.Category
}

// Dependencies groups what the service needs; everything is shared read-only
type Dependencies struct {
	Validator        *validation.UploadValidator
	Classifier       *classifier.Classifier
	Advisories       *advisory.Table
	Quality          analyzer.QualityAnalyzer
	Events           observer.Subject
	InferenceTimeout time.Duration

	// MaxImagePixels bounds the declared width*height of an upload; 0 means no limit.
	MaxImagePixels int
}

type diagnosisService struct {
	deps Dependencies
}

// NewDiagnosisService creates a new diagnosis service
func NewDiagnosisService(deps Dependencies) DiagnosisService {
	if deps.Events == nil {
		deps.Events = observer.NewEventPublisher()
	}
	return &diagnosisService{deps: deps}
}

func (s *diagnosisService) Categories() []category.Category {
	return category.All()
}

func (s *diagnosisService) Diagnose(ctx context.Context, upload Upload) (*models.Diagnosis, error) {
	start := time.Now()
	s.publish(ctx, observer.PredictionEvent{
		EventType: observer.UploadReceived,
		RequestID: upload.RequestID,
		Filename:  upload.Filename,
		Metadata:  map[string]interface{}{"bytes": len(upload.Data)},
	})

	diagnosis, err := s.diagnose(ctx, upload)
	elapsed := time.Since(start)
	if err != nil {
		s.publish(ctx, observer.PredictionEvent{
			EventType:      observer.PredictionFailed,
			RequestID:      upload.RequestID,
			Filename:       upload.Filename,
			ProcessingTime: elapsed,
			ErrorType:      string(apperrors.TypeOf(err)),
			ErrorMessage:   err.Error(),
		})
		return nil, err
	}

	diagnosis.ProcessingTimeSec = elapsed.Seconds()
	s.publish(ctx, observer.PredictionEvent{
		EventType:      observer.PredictionCompleted,
		RequestID:      upload.RequestID,
		Filename:       upload.Filename,
		Category:       diagnosis.Category,
		Confidence:     diagnosis.Confidence,
		ProcessingTime: elapsed,
		Success:        true,
		Metadata:       map[string]interface{}{"hints": len(diagnosis.Quality.Hints)},
	})
	return diagnosis, nil
}

func (s *diagnosisService) diagnose(ctx context.Context, upload Upload) (*models.Diagnosis, error) {
	if err := s.deps.Validator.ValidateUpload(upload.Filename, upload.Data); err != nil {
		return nil, err
	}

	decoded, format, err := imaging.Decode(upload.Data, s.deps.MaxImagePixels)
	if err != nil {
		return nil, err
	}
	rgb := imaging.ToRGB(decoded)

	preview, err := imaging.PreviewDataURI(rgb)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build image preview", err)
	}

	batch := imaging.Preprocess(rgb)

	inferCtx := ctx
	if s.deps.InferenceTimeout > 0 {
		var cancel context.CancelFunc
		inferCtx, cancel = context.WithTimeout(ctx, s.deps.InferenceTimeout)
		defer cancel()
	}
	prediction, err := s.deps.Classifier.Classify(inferCtx, batch)
	if err != nil {
		return nil, err
	}

	text, err := s.deps.Advisories.Lookup(prediction.Category)
	if err != nil {
		return nil, err
	}
	html, err := s.deps.Advisories.HTML(prediction.Category)
	if err != nil {
		return nil, err
	}

	var quality models.QualityReport
	if s.deps.Quality != nil {
		quality = s.deps.Quality.Analyze(rgb)
	}

	scores := make([]models.CategoryScore, 0, len(prediction.Probabilities))
	for i, c := range category.All() {
		scores = append(scores, models.CategoryScore{
			Category:    c.String(),
			Probability: prediction.Probabilities[i],
		})
	}

	return &models.Diagnosis{
		Filename:          upload.Filename,
		Format:            format,
		Width:             rgb.Bounds().Dx(),
		Height:            rgb.Bounds().Dy(),
		Category:          prediction.Category.String(),
		Confidence:        prediction.Confidence,
		ConfidencePercent: models.ConfidencePercent(prediction.Confidence),
		Probabilities:     scores,
		Advisory:          text,
		Quality:           quality,
		Timestamp:         time.Now().UTC(),
		AdvisoryHTML:      html,
		// PNG data URI produced locally, never user-controlled
		PreviewURI: template.URL(preview),
	}, nil
}

func (s *diagnosisService) publish(ctx context.Context, event observer.PredictionEvent) {
	s.deps.Events.NotifyObservers(ctx, event)
}
