package config

import (
	"strings"
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"HOST", "PORT", "REQUEST_TIMEOUT", "INFERENCE_TIMEOUT", "MAX_REQUEST_BODY_SIZE", "MAX_IMAGE_PIXELS",
		"LOG_LEVEL", "MODEL_PATH", "MODEL_METADATA_PATH", "MODEL_INPUT_NAME",
		"MODEL_OUTPUT_NAME", "ONNXRUNTIME_LIB", "MODEL_URL", "AZURE_STORAGE_ACCOUNT",
		"AZURE_STORAGE_KEY", "AZURE_MODEL_CONTAINER", "AZURE_MODEL_BLOB",
		"METRICS_ENABLED", "ADVISORY_PATH",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Expected defaults to load, got: %v", err)
	}

	if cfg.ServerAddress() != "0.0.0.0:8080" {
		t.Errorf("Unexpected address %s", cfg.ServerAddress())
	}
	if cfg.RequestTimeout != 30*time.Second || cfg.InferenceTimeout != 20*time.Second {
		t.Errorf("Unexpected timeouts %s / %s", cfg.RequestTimeout, cfg.InferenceTimeout)
	}
	if cfg.MaxRequestBodySize != 10*1024*1024 {
		t.Errorf("Unexpected body size %d", cfg.MaxRequestBodySize)
	}
	if cfg.MaxImagePixels != DefaultMaxImagePixels {
		t.Errorf("Unexpected pixel limit %d", cfg.MaxImagePixels)
	}
	if cfg.Model.Path != DefaultModelPath {
		t.Errorf("Unexpected model path %s", cfg.Model.Path)
	}
	if cfg.Model.InputName != "input" || cfg.Model.OutputName != "output" {
		t.Errorf("Unexpected node names %s / %s", cfg.Model.InputName, cfg.Model.OutputName)
	}
	if !cfg.Metrics {
		t.Error("Expected metrics enabled by default")
	}
	if cfg.Azure.Enabled() {
		t.Error("Expected Azure source disabled by default")
	}
}

func TestLoadFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("INFERENCE_TIMEOUT", "5s")
	t.Setenv("MODEL_PATH", "/models/rice.onnx")
	t.Setenv("MODEL_URL", "https://models.example.com/rice.onnx")
	t.Setenv("METRICS_ENABLED", "false")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.Port)
	}
	if cfg.InferenceTimeout != 5*time.Second {
		t.Errorf("Expected 5s, got %s", cfg.InferenceTimeout)
	}
	if cfg.Model.Path != "/models/rice.onnx" || cfg.Model.URL == "" {
		t.Errorf("Unexpected model config %+v", cfg.Model)
	}
	if cfg.Metrics {
		t.Error("Expected metrics disabled")
	}
}

func TestLoadFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{"non numeric port", map[string]string{"PORT": "http"}, "invalid PORT"},
		{"port out of range", map[string]string{"PORT": "70000"}, "invalid PORT"},
		{"negative body size", map[string]string{"MAX_REQUEST_BODY_SIZE": "-1"}, "MAX_REQUEST_BODY_SIZE"},
		{"zero pixel limit", map[string]string{"MAX_IMAGE_PIXELS": "0"}, "MAX_IMAGE_PIXELS"},
		{"zero request timeout", map[string]string{"REQUEST_TIMEOUT": "0s"}, "REQUEST_TIMEOUT"},
		{"negative inference timeout", map[string]string{"INFERENCE_TIMEOUT": "-5s"}, "INFERENCE_TIMEOUT"},
		{"bad model url", map[string]string{"MODEL_URL": "ftp://models/rice.onnx"}, "MODEL_URL"},
		{"partial azure", map[string]string{"AZURE_STORAGE_ACCOUNT": "acct"}, "must be set together"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := LoadFromEnv()
			if err == nil {
				t.Fatal("Expected error, got none")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestLoadFromEnv_ZeroInferenceTimeout(t *testing.T) {
	for _, value := range []string{"0", "0s"} {
		t.Run(value, func(t *testing.T) {
			clearEnv(t)
			t.Setenv("INFERENCE_TIMEOUT", value)
			t.Setenv("MAX_IMAGE_PIXELS", "1000000")

			cfg, err := LoadFromEnv()
			if err != nil {
				t.Fatalf("Expected zero inference timeout to be accepted, got %v", err)
			}
			if cfg.InferenceTimeout != 0 {
				t.Errorf("Expected inference timeout 0, got %s", cfg.InferenceTimeout)
			}
			if cfg.MaxImagePixels != 1000000 {
				t.Errorf("Expected pixel limit 1000000, got %d", cfg.MaxImagePixels)
			}
		})
	}
}

func TestAzureConfig_Enabled(t *testing.T) {
	full := AzureConfig{Account: "a", Key: "k", Container: "models", Blob: "rice.onnx"}
	if !full.Enabled() {
		t.Error("Expected full Azure config to be enabled")
	}
	if full.partial() {
		t.Error("Full config must not be partial")
	}
	if (AzureConfig{}).partial() {
		t.Error("Empty config must not be partial")
	}
}
