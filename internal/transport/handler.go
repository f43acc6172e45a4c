package transport

import (
	"context"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"rice-leaf-inspector/internal/advisory"
	apperrors "rice-leaf-inspector/internal/errors"
	"rice-leaf-inspector/internal/logger"
	"rice-leaf-inspector/internal/service"
	"rice-leaf-inspector/pkg/models"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// UploadField is the multipart form field carrying the leaf photo.
const UploadField = "image"

const version = "1.0.0"

// Options configures the HTTP surface.
type Options struct {
	MaxRequestBodySize int64
	RequestTimeout     time.Duration

	// Metrics is exposed on /metrics when set.
	Metrics prometheus.Gatherer
}

type handler struct {
	svc  service.DiagnosisService
	page advisory.Page
	opts Options
}

func NewHandler(svc service.DiagnosisService, page advisory.Page, opts Options) http.Handler {
	h := &handler{svc: svc, page: page, opts: opts}

	r := gin.New()
	r.SetHTMLTemplate(pageTemplate)

	// Add middleware
	r.Use(
		gin.Recovery(),
		requestID(),
		requestLogger(),
		requestSizeLimiter(opts.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/", h.showPage)
	r.POST("/", h.submitPage)
	r.GET("/health", h.healthCheck)

	api := r.Group("/api/v1")
	api.POST("/predict", h.predict)
	api.GET("/categories", h.categories)

	if opts.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(opts.Metrics, promhttp.HandlerOpts{})))
	}

	r.NoRoute(func(c *gin.Context) {
		_ = c.Error(apperrors.NewNotFoundError("no such route", nil).WithDetails(c.Request.URL.Path))
	})

	return r
}

func (h *handler) showPage(c *gin.Context) {
	c.HTML(http.StatusOK, pageTemplateName, pageView{Page: h.page})
}

func (h *handler) submitPage(c *gin.Context) {
	view := pageView{Page: h.page, RequestID: requestIDFrom(c)}

	diagnosis, err := h.diagnoseUpload(c)
	if err != nil {
		logFailure(c, err)
		view.Error = userMessage(err)
		c.HTML(apperrors.GetStatusCode(err), pageTemplateName, view)
		return
	}

	view.Result = diagnosis
	c.HTML(http.StatusOK, pageTemplateName, view)
}

func (h *handler) predict(c *gin.Context) {
	diagnosis, err := h.diagnoseUpload(c)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, diagnosis)
}

func (h *handler) categories(c *gin.Context) {
	all := h.svc.Categories()
	names := make([]string, len(all))
	for i, cat := range all {
		names[i] = cat.String()
	}
	c.JSON(http.StatusOK, models.CategoriesResponse{Categories: names})
}

func (h *handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:     "available",
		Version:    version,
		Time:       time.Now().UTC().Format(time.RFC3339),
		Categories: len(h.svc.Categories()),
	})
}

func (h *handler) diagnoseUpload(c *gin.Context) (*models.Diagnosis, error) {
	ctx := c.Request.Context()
	if h.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opts.RequestTimeout)
		defer cancel()
	}

	if limit := h.opts.MaxRequestBodySize; limit > 0 && c.Request.ContentLength > limit {
		return nil, apperrors.NewTooLargeError("upload exceeds the size limit", nil)
	}

	header, err := c.FormFile(UploadField)
	if err != nil {
		return nil, uploadError(err)
	}

	data, err := readUpload(header)
	if err != nil {
		return nil, uploadError(err)
	}

	logger.WithFields(logrus.Fields{
		"request_id": requestIDFrom(c),
		"filename":   header.Filename,
		"bytes":      len(data),
	}).Debug("Received upload")

	return h.svc.Diagnose(ctx, service.Upload{
		Filename:  header.Filename,
		Data:      data,
		RequestID: requestIDFrom(c),
	})
}

func readUpload(header *multipart.FileHeader) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}

func uploadError(err error) error {
	var maxErr *http.MaxBytesError
	switch {
	case errors.As(err, &maxErr):
		return apperrors.NewTooLargeError("upload exceeds the size limit", err)
	case errors.Is(err, http.ErrMissingFile):
		return apperrors.NewValidationError("no image uploaded", err).
			WithDetails("send the photo in the \"" + UploadField + "\" form field")
	default:
		return apperrors.NewValidationError("malformed upload", err)
	}
}

// userMessage is what the page shows for err; internal causes stay in the log.
func userMessage(err error) string {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		return "request processing failed"
	}
	switch appErr.Type {
	case apperrors.ErrorTypeInference, apperrors.ErrorTypeIntegration, apperrors.ErrorTypeInternal:
		return "the model could not process this image, please try again later"
	}
	if appErr.Details != "" {
		return appErr.Message + ": " + appErr.Details
	}
	return appErr.Message
}
