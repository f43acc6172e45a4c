package observer

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/sirupsen/logrus"
)

// PredictionEvent represents one step of handling an upload
type PredictionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	RequestID      string                 `json:"request_id,omitempty"`
	Filename       string                 `json:"filename,omitempty"`
	Category       string                 `json:"category,omitempty"`
	Confidence     float64                `json:"confidence,omitempty"`
	ProcessingTime time.Duration          `json:"processing_time"`
	Success        bool                   `json:"success"`
	ErrorType      string                 `json:"error_type,omitempty"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of prediction event
type EventType string

const (
	// UploadReceived when an upload enters the pipeline
	UploadReceived EventType = "upload_received"
	// PredictionCompleted when a category and advisory were produced
	PredictionCompleted EventType = "prediction_completed"
	// PredictionFailed when the upload was rejected or inference failed
	PredictionFailed EventType = "prediction_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event PredictionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event PredictionEvent)
}

// LoggingObserver logs prediction events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles prediction events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event PredictionEvent) {
	fields := logrus.Fields{
		"event_type":         event.EventType,
		"request_id":         event.RequestID,
		"filename":           event.Filename,
		"processing_time_ms": event.ProcessingTime.Milliseconds(),
		"success":            event.Success,
	}
	if event.Category != "" {
		fields["category"] = event.Category
		fields["confidence"] = event.Confidence
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
		fields["error_type"] = event.ErrorType
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case UploadReceived:
		o.logger.WithFields(fields).Debug("Upload received")
	case PredictionCompleted:
		o.logger.WithFields(fields).Info("Prediction completed")
	case PredictionFailed:
		if event.ErrorType == "integration" {
			o.logger.WithFields(fields).Error("Prediction failed: category/model/advisory mismatch")
			return
		}
		o.logger.WithFields(fields).Warn("Prediction failed")
	default:
		o.logger.WithFields(fields).Info("Prediction event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver exports prediction events as Prometheus metrics
type MetricsObserver struct {
	uploads     prometheus.Counter
	predictions *prometheus.CounterVec
	failures    *prometheus.CounterVec
	duration    prometheus.Histogram
	confidence  prometheus.Histogram
}

// NewMetricsObserver creates the collectors and registers them with reg
func NewMetricsObserver(reg prometheus.Registerer) (*MetricsObserver, error) {
	o := &MetricsObserver{
		uploads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "rice_uploads_total",
			Help: "Number of leaf images received.",
		}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rice_predictions_total",
			Help: "Successful predictions by category.",
		}, []string{"category"}),
		failures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rice_prediction_failures_total",
			Help: "Failed uploads by error type.",
		}, []string{"type"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rice_prediction_duration_seconds",
			Help:    "Time from upload to rendered prediction.",
			Buckets: prometheus.DefBuckets,
		}),
		confidence: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "rice_prediction_confidence",
			Help:    "Confidence of the predicted category.",
			Buckets: prometheus.LinearBuckets(0.1, 0.1, 10),
		}),
	}

	for _, c := range []prometheus.Collector{o.uploads, o.predictions, o.failures, o.duration, o.confidence} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// OnEvent handles prediction events by updating metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event PredictionEvent) {
	switch event.EventType {
	case UploadReceived:
		o.uploads.Inc()
	case PredictionCompleted:
		o.predictions.WithLabelValues(event.Category).Inc()
		o.duration.Observe(event.ProcessingTime.Seconds())
		o.confidence.Observe(event.Confidence)
	case PredictionFailed:
		o.failures.WithLabelValues(event.ErrorType).Inc()
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers delivers the event to every observer in subscription
// order. Observers are cheap, so delivery happens on the caller's goroutine.
func (p *EventPublisher) NotifyObservers(ctx context.Context, event PredictionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	for _, obs := range observers {
		notify(ctx, obs, event)
	}
}

func notify(ctx context.Context, obs Observer, event PredictionEvent) {
	defer func() {
		if r := recover(); r != nil {
			// Log panic but don't fail the upload
			logrus.WithField("observer", obs.GetObserverName()).
				WithField("panic", r).
				Error("Observer panicked while handling event")
		}
	}()
	obs.OnEvent(ctx, event)
}
