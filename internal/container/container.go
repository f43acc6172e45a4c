package container

import (
	"context"
	"fmt"
	"net/http"

	"rice-leaf-inspector/internal/advisory"
	"rice-leaf-inspector/internal/analyzer"
	"rice-leaf-inspector/internal/classifier"
	"rice-leaf-inspector/internal/config"
	"rice-leaf-inspector/internal/factory"
	"rice-leaf-inspector/internal/logger"
	"rice-leaf-inspector/internal/observer"
	"rice-leaf-inspector/internal/service"
	"rice-leaf-inspector/internal/transport"
	"rice-leaf-inspector/pkg/validation"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Container holds all application dependencies
type Container struct {
	config           *config.Config
	advisories       *advisory.Table
	classifier       *classifier.Classifier
	events           *observer.EventPublisher
	registry         *prometheus.Registry
	diagnosisService service.DiagnosisService
	handler          http.Handler
}

// NewContainer resolves the model artifact, loads the advisory table and the
// model, and wires the HTTP handler. Any failure here should stop the process.
func NewContainer(ctx context.Context, cfg *config.Config) (*Container, error) {
	table, err := advisory.Load(cfg.Advisory)
	if err != nil {
		return nil, fmt.Errorf("failed to load advisories: %w", err)
	}

	modelRepository, err := factory.NewModelRepository(cfg.Model, cfg.Azure, factory.NewStorageFactory())
	if err != nil {
		return nil, err
	}
	modelPath, err := modelRepository.Resolve(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve model: %w", err)
	}

	model, err := classifier.Load(classifier.LoaderOptions{
		ModelPath:         modelPath,
		MetadataPath:      cfg.Model.MetadataPath,
		InputName:         cfg.Model.InputName,
		OutputName:        cfg.Model.OutputName,
		SharedLibraryPath: cfg.Model.RuntimeLib,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load model: %w", err)
	}

	c, err := assemble(cfg, table, model)
	if err != nil {
		_ = model.Close()
		return nil, err
	}
	return c, nil
}

// assemble builds everything downstream of a loaded predictor.
func assemble(cfg *config.Config, table *advisory.Table, predictor classifier.Predictor) (*Container, error) {
	events := observer.NewEventPublisher()
	events.Subscribe(observer.NewLoggingObserver(logger.Logger))

	var registry *prometheus.Registry
	if cfg.Metrics {
		registry = prometheus.NewRegistry()
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		metrics, err := observer.NewMetricsObserver(registry)
		if err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
		events.Subscribe(metrics)
	}

	clf := classifier.New(predictor)
	diagnosisService := service.NewDiagnosisService(service.Dependencies{
		Validator:        validation.NewUploadValidator(cfg.MaxRequestBodySize),
		Classifier:       clf,
		Advisories:       table,
		Quality:          analyzer.NewQualityAnalyzer(analyzer.DefaultOptions(), table.Page().Hints),
		Events:           events,
		InferenceTimeout: cfg.InferenceTimeout,
		MaxImagePixels:   cfg.MaxImagePixels,
	})

	opts := transport.Options{
		MaxRequestBodySize: cfg.MaxRequestBodySize,
		RequestTimeout:     cfg.RequestTimeout,
	}
	if registry != nil {
		opts.Metrics = registry
	}
	handler := transport.NewHandler(diagnosisService, table.Page(), opts)

	return &Container{
		config:           cfg,
		advisories:       table,
		classifier:       clf,
		events:           events,
		registry:         registry,
		diagnosisService: diagnosisService,
		handler:          handler,
	}, nil
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Config returns the configuration
func (c *Container) Config() *config.Config {
	return c.config
}

// Close releases the model session.
func (c *Container) Close() error {
	return c.classifier.Close()
}
