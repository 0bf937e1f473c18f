package utils

import (
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"selfiebox/models"
)

// MediaType strips parameters and case from a Content-Type value.
func MediaType(contentType string) string {
	mt, _, _ := strings.Cut(contentType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

// Sniff detects the content type of r from its leading bytes.
func Sniff(r io.Reader) (string, error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", err
	}
	return MediaType(mt.String()), nil
}

// ValidateUpload checks the declared type against allowed and the size
// against maxSize (0 means unlimited). Errors wrap models.ErrValidation.
func ValidateUpload(f models.UploadedFile, allowed []string, maxSize int64) error {
	ct := MediaType(f.ContentType)
	if ct == "" {
		return fmt.Errorf("%w: missing content type", models.ErrValidation)
	}
	ok := false
	for _, a := range allowed {
		if MediaType(a) == ct {
			ok = true
			break
		}
	}
	if !ok {
		return fmt.Errorf("%w: content type %q is not allowed", models.ErrValidation, ct)
	}
	if maxSize > 0 && f.Size > maxSize {
		return fmt.Errorf("%w: file is larger than %d bytes", models.ErrValidation, maxSize)
	}
	return nil
}
