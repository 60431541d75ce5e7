// file: internal/catalog/dataurl.go
// version: 1.0.0
// guid: 3a628933-06ff-411f-a4f2-403d2649fc25

package catalog

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/jdfalk/cliqbook/internal/apperrors"
)

// Default upload limits.
const (
	DefaultMaxBookFileBytes = 5 * 1024 * 1024
	DefaultMaxCoverBytes    = 2 * 1024 * 1024
)

// UploadLimits caps the size of uploaded files before they are inlined.
type UploadLimits struct {
	BookFile int64
	Cover    int64
}

// DefaultUploadLimits returns 5 MiB for book files and 2 MiB for covers.
func DefaultUploadLimits() UploadLimits {
	return UploadLimits{BookFile: DefaultMaxBookFileBytes, Cover: DefaultMaxCoverBytes}
}

// Uploads carries files attached to a book form. A nil field means "keep
// whatever the book already has".
type Uploads struct {
	Cover    []byte
	BookFile []byte
}

// DataURL inlines data as a base64 data URL, sniffing the media type from
// the content. field names the form field in validation errors.
func DataURL(field string, data []byte, max int64) (string, error) {
	if len(data) == 0 {
		return "", apperrors.Invalid(field, "file is empty")
	}
	if max > 0 && int64(len(data)) > max {
		return "", apperrors.Invalid(field, fmt.Sprintf("file is too large, the limit is %s", humanBytes(max)))
	}
	mediaType, _, _ := strings.Cut(mimetype.Detect(data).String(), ";")
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

func coverDataURL(data []byte, max int64) (string, error) {
	if len(data) > 0 && !strings.HasPrefix(mimetype.Detect(data).String(), "image/") {
		return "", apperrors.Invalid("cover", "must be an image")
	}
	return DataURL("cover", data, max)
}

func humanBytes(n int64) string {
	const mib = 1024 * 1024
	if n%mib == 0 {
		return fmt.Sprintf("%dMB", n/mib)
	}
	return fmt.Sprintf("%d bytes", n)
}
