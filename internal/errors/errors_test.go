package errors

import (
	"fmt"
	"io"
	"net/http"
	"strings"
	"testing"
)

func TestConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantType   ErrorType
		wantStatus int
	}{
		{"validation", NewValidationError("bad field", nil), ErrorTypeValidation, http.StatusBadRequest},
		{"too large", NewTooLargeError("too big", nil), ErrorTypeTooLarge, http.StatusRequestEntityTooLarge},
		{"decode", NewDecodeError("not an image", io.ErrUnexpectedEOF), ErrorTypeDecode, http.StatusUnsupportedMediaType},
		{"inference", NewInferenceError("run failed", nil), ErrorTypeInference, http.StatusInternalServerError},
		{"integration", NewIntegrationError("order mismatch", nil), ErrorTypeIntegration, http.StatusInternalServerError},
		{"timeout", NewTimeoutError("slow", nil), ErrorTypeTimeout, http.StatusGatewayTimeout},
		{"not found", NewNotFoundError("missing", nil), ErrorTypeNotFound, http.StatusNotFound},
		{"internal", NewInternalError("boom", nil), ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Type != tt.wantType {
				t.Errorf("Expected type %s, got %s", tt.wantType, tt.err.Type)
			}
			if tt.err.StatusCode != tt.wantStatus {
				t.Errorf("Expected status %d, got %d", tt.wantStatus, tt.err.StatusCode)
			}
			if GetStatusCode(tt.err) != tt.wantStatus {
				t.Errorf("GetStatusCode returned %d", GetStatusCode(tt.err))
			}
			if !IsType(tt.err, tt.wantType) {
				t.Errorf("IsType(%s) = false", tt.wantType)
			}
		})
	}
}

func TestAppError_ErrorAndUnwrap(t *testing.T) {
	err := NewDecodeError("not an image", io.ErrUnexpectedEOF)
	if !strings.Contains(err.Error(), "caused by") {
		t.Errorf("Expected cause in message, got %q", err.Error())
	}
	if err.Unwrap() != io.ErrUnexpectedEOF {
		t.Error("Expected Unwrap to return the cause")
	}

	plain := NewValidationError("bad", nil)
	if plain.Error() != "validation: bad" {
		t.Errorf("Unexpected message %q", plain.Error())
	}
}

func TestWrappedAppError(t *testing.T) {
	wrapped := fmt.Errorf("diagnose: %w", NewIntegrationError("missing advisory", nil))

	if !IsType(wrapped, ErrorTypeIntegration) {
		t.Error("Expected IsType to see through wrapping")
	}
	if GetStatusCode(wrapped) != http.StatusInternalServerError {
		t.Errorf("Unexpected status %d", GetStatusCode(wrapped))
	}
	if TypeOf(wrapped) != ErrorTypeIntegration {
		t.Errorf("Unexpected type %s", TypeOf(wrapped))
	}
}

func TestForeignError(t *testing.T) {
	err := io.EOF
	if IsType(err, ErrorTypeValidation) {
		t.Error("Foreign error must not match an AppError type")
	}
	if GetStatusCode(err) != http.StatusInternalServerError {
		t.Errorf("Expected 500 for foreign error, got %d", GetStatusCode(err))
	}
	if TypeOf(err) != ErrorTypeInternal {
		t.Errorf("Expected internal type, got %s", TypeOf(err))
	}
}
