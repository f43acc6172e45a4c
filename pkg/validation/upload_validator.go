package validation

import (
	"path/filepath"
	"slices"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	apperrors "rice-leaf-inspector/internal/errors"
)

// AllowedExtensions are the file extensions offered by the upload control.
var AllowedExtensions = []string{"jpg", "jpeg", "png"}

var allowedMIMETypes = []string{"image/jpeg", "image/png"}

// UploadValidator rejects uploads before they reach the image decoder.
// The extension restricts what the form offers; the sniffed content type is
// what actually decides, since an extension proves nothing.
type UploadValidator struct {
	maxBytes int64
}

// NewUploadValidator creates a validator; maxBytes <= 0 disables the size check.
func NewUploadValidator(maxBytes int64) *UploadValidator {
	return &UploadValidator{maxBytes: maxBytes}
}

// ValidateUpload checks the file name, size and sniffed content type
func (v *UploadValidator) ValidateUpload(filename string, data []byte) error {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(filename)), ".")
	if !slices.Contains(AllowedExtensions, ext) {
		return apperrors.NewValidationError("file type not allowed", nil).
			WithDetails("accepted extensions: " + strings.Join(AllowedExtensions, ", "))
	}

	if len(data) == 0 {
		return apperrors.NewValidationError("uploaded file is empty", nil)
	}

	if v.maxBytes > 0 && int64(len(data)) > v.maxBytes {
		return apperrors.NewTooLargeError("uploaded file is too large", nil)
	}

	mtype := mimetype.Detect(data)
	if !mtype.Is(allowedMIMETypes[0]) && !mtype.Is(allowedMIMETypes[1]) {
		return apperrors.NewDecodeError("uploaded file is not a JPEG or PNG image", nil).
			WithDetails("detected content type: " + mtype.String())
	}

	return nil
}
