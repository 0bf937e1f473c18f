package utils

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"selfiebox/models"
)

const maxExtLen = 10

// UniqueName builds "<unix-millis>-<random><ext>" for an upload. Two calls in
// the same millisecond differ in the random part.
func UniqueName(meta models.UploadMeta) string {
	return fmt.Sprintf("%d-%d%s", meta.ReceivedAt.UnixMilli(), uuid.New().ID(), CleanExt(meta.OriginalName))
}

// CleanExt returns the lower-cased extension of name, or "" when it holds
// anything but ASCII letters and digits.
func CleanExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) < 2 || len(ext) > maxExtLen {
		return ""
	}
	for _, r := range ext[1:] {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return ""
		}
	}
	return ext
}
