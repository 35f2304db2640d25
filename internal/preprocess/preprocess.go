// Package preprocess prepares a user-selected photo for upload: it validates
// the content type and size and, when the photo is merely too large,
// re-encodes it to fit. The server re-validates independently; this is
// best-effort hardening on the client side of the wire.
package preprocess

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/disintegration/imaging"

	"server/internal/domain"

	_ "golang.org/x/image/webp" // register webp decoding
)

const (
	// MaxBytes is the upload ceiling shared with the server-side check.
	MaxBytes = 4 << 20
	// MaxDimension bounds either side of a re-encoded photo.
	MaxDimension = 2048

	jpegQuality = 85
)

var allowedTypes = map[string]struct{}{
	"image/jpeg": {},
	"image/png":  {},
	"image/webp": {},
}

// Allowed reports whether the content type is on the upload whitelist.
func Allowed(contentType string) bool {
	_, ok := allowedTypes[normalizeContentType(contentType)]
	return ok
}

// Result is the photo as it will be transferred.
type Result struct {
	Data        []byte
	ContentType string
	Reencoded   bool
}

type limits struct {
	maxBytes     int
	maxDimension int
	quality      int
}

var defaultLimits = limits{maxBytes: MaxBytes, maxDimension: MaxDimension, quality: jpegQuality}

// Prepare returns the original blob when it is within bounds, or a
// re-encoded JPEG that is. A wrong content type fails immediately:
// re-encoding cannot fix a format the policy rejects.
func Prepare(data []byte, contentType string) (*Result, error) {
	return prepare(data, contentType, defaultLimits)
}

func prepare(data []byte, contentType string, lim limits) (*Result, error) {
	ct := normalizeContentType(contentType)
	if _, ok := allowedTypes[ct]; !ok {
		return nil, fmt.Errorf("%w: unsupported content type %q", domain.ErrInvalidFile, contentType)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: empty photo", domain.ErrInvalidFile)
	}
	if len(data) <= lim.maxBytes {
		return &Result{Data: data, ContentType: ct}, nil
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%w: undecodable image: %v", domain.ErrInvalidFile, err)
	}
	// Fit never upscales; the aspect ratio is preserved.
	img = imaging.Fit(img, lim.maxDimension, lim.maxDimension, imaging.Lanczos)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(lim.quality)); err != nil {
		return nil, fmt.Errorf("%w: re-encode failed: %v", domain.ErrInvalidFile, err)
	}
	if buf.Len() > lim.maxBytes {
		return nil, fmt.Errorf("%w: photo still exceeds %d bytes after re-encoding", domain.ErrInvalidFile, lim.maxBytes)
	}
	return &Result{Data: buf.Bytes(), ContentType: "image/jpeg", Reencoded: true}, nil
}

func normalizeContentType(contentType string) string {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if idx := strings.Index(ct, ";"); idx >= 0 {
		ct = strings.TrimSpace(ct[:idx])
	}
	return ct
}
