package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"rice-leaf-inspector/pkg/validation"
)

const (
	DefaultModelPath   = "mobilenetv2_rice.onnx"
	DefaultInputName   = "input"
	DefaultOutputName  = "output"
	defaultMaxBodySize = 10 * 1024 * 1024 // 10MB

	// DefaultMaxImagePixels matches the usual decompression bomb threshold
	// for photo uploads (about 9459x9459).
	DefaultMaxImagePixels = 89478485
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	InferenceTimeout   time.Duration
	MaxRequestBodySize int64
	MaxImagePixels     int
	LogLevel           string

	Model    ModelConfig
	Azure    AzureConfig
	Metrics  bool
	Advisory string // optional YAML override of the embedded advisory table
}

// ModelConfig locates the classifier artifact and describes its graph.
type ModelConfig struct {
	Path         string
	MetadataPath string
	InputName    string
	OutputName   string
	RuntimeLib   string
	URL          string
}

// AzureConfig is the optional blob source for the model artifact.
type AzureConfig struct {
	Account   string
	Key       string
	Container string
	Blob      string
}

// Enabled reports whether all Azure settings are present.
func (a AzureConfig) Enabled() bool {
	return a.Account != "" && a.Key != "" && a.Container != "" && a.Blob != ""
}

func (a AzureConfig) partial() bool {
	set := 0
	for _, v := range []string{a.Account, a.Key, a.Container, a.Blob} {
		if v != "" {
			set++
		}
	}
	return set > 0 && set < 4
}

func (c *Config) ServerAddress() string {
	// Trim any whitespace from host and port
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

// LoadFromEnv reads the process environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func LoadFromEnv() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	// Set defaults
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "8080"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 30*time.Second),
		InferenceTimeout:   parseDurationOrDefault("INFERENCE_TIMEOUT", 20*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", defaultMaxBodySize),
		MaxImagePixels:     int(parseIntOrDefault("MAX_IMAGE_PIXELS", DefaultMaxImagePixels)),
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		Model: ModelConfig{
			Path:         getEnvOrDefault("MODEL_PATH", DefaultModelPath),
			MetadataPath: strings.TrimSpace(os.Getenv("MODEL_METADATA_PATH")),
			InputName:    getEnvOrDefault("MODEL_INPUT_NAME", DefaultInputName),
			OutputName:   getEnvOrDefault("MODEL_OUTPUT_NAME", DefaultOutputName),
			RuntimeLib:   strings.TrimSpace(os.Getenv("ONNXRUNTIME_LIB")),
			URL:          strings.TrimSpace(os.Getenv("MODEL_URL")),
		},
		Azure: AzureConfig{
			Account:   strings.TrimSpace(os.Getenv("AZURE_STORAGE_ACCOUNT")),
			Key:       strings.TrimSpace(os.Getenv("AZURE_STORAGE_KEY")),
			Container: strings.TrimSpace(os.Getenv("AZURE_MODEL_CONTAINER")),
			Blob:      strings.TrimSpace(os.Getenv("AZURE_MODEL_BLOB")),
		},
		Metrics:  parseBoolOrDefault("METRICS_ENABLED", true),
		Advisory: strings.TrimSpace(os.Getenv("ADVISORY_PATH")),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and cross-field constraints.
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0 (got %s)", c.RequestTimeout)
	}
	// Zero disables the per-inference deadline; the request deadline still applies.
	if c.InferenceTimeout < 0 {
		return fmt.Errorf("INFERENCE_TIMEOUT must not be negative (got %s)", c.InferenceTimeout)
	}
	if strings.TrimSpace(c.Model.Path) == "" {
		return fmt.Errorf("MODEL_PATH must not be empty")
	}
	if c.Model.URL != "" {
		if err := validation.NewURLValidator().ValidateURL(c.Model.URL); err != nil {
			return fmt.Errorf("invalid MODEL_URL: %w", err)
		}
	}
	if c.Azure.partial() {
		return fmt.Errorf("AZURE_STORAGE_ACCOUNT, AZURE_STORAGE_KEY, AZURE_MODEL_CONTAINER and AZURE_MODEL_BLOB must be set together")
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// parseDurationOrDefault falls back only when the value is unset or does not
// parse; zero and negative durations are returned for Validate to judge.
func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func parseBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return b
		}
	}
	return defaultValue
}
