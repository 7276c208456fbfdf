package usecases

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	"github.com/samirrijal/wildlens/internal/core/domain"
)

// DefaultMaxImageBytes caps decoded uploads.
const DefaultMaxImageBytes = 8 << 20

// decodeImage decodes a base64 photo as sent by the camera screen. A
// "data:image/...;base64," prefix is tolerated. It returns the bytes and the
// sniffed MIME type.
func decodeImage(encoded string, maxBytes int) ([]byte, string, error) {
	encoded = strings.TrimSpace(encoded)
	if i := strings.Index(encoded, ";base64,"); i >= 0 && strings.HasPrefix(encoded, "data:") {
		encoded = encoded[i+len(";base64,"):]
	}
	if encoded == "" {
		return nil, "", fmt.Errorf("%w: image is required", domain.ErrInvalidInput)
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxImageBytes
	}
	if base64.StdEncoding.DecodedLen(len(encoded)) > maxBytes+3 {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidInput, maxBytes)
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(encoded, "="))
		if err != nil {
			return nil, "", fmt.Errorf("%w: image is not valid base64", domain.ErrInvalidInput)
		}
	}
	if len(data) > maxBytes {
		return nil, "", fmt.Errorf("%w: image larger than %d bytes", domain.ErrInvalidInput, maxBytes)
	}

	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return nil, "", fmt.Errorf("%w: unsupported content type %s", domain.ErrInvalidInput, mime)
	}
	return data, mime, nil
}
