// Package datauri turns raw file bytes into RFC 2397 data URIs so a photo can
// live inside a student record instead of on a file server.
package datauri

import (
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DefaultMaxBytes caps uploads at 2 MiB.
const DefaultMaxBytes = 2 << 20

var (
	// ErrEmpty is returned for a zero-length payload.
	ErrEmpty = errors.New("datauri: empty payload")
	// ErrTooLarge is returned when the payload exceeds the configured limit.
	ErrTooLarge = errors.New("datauri: payload too large")
	// ErrNotImage is returned when the sniffed type is not image/*.
	ErrNotImage = errors.New("datauri: payload is not an image")
	// ErrMalformed is returned by Decode for anything but a base64 data URI.
	ErrMalformed = errors.New("datauri: malformed data URI")
)

// Encoded is the result of an encoding.
type Encoded struct {
	URI      string
	MIMEType string
	Size     int
}

// EncodeImage sniffs data and returns a base64 data URI. Only image types
// are accepted. maxBytes <= 0 means DefaultMaxBytes.
func EncodeImage(data []byte, maxBytes int) (Encoded, error) {
	if len(data) == 0 {
		return Encoded{}, ErrEmpty
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	if len(data) > maxBytes {
		return Encoded{}, fmt.Errorf("%w: %d bytes (limit %d)", ErrTooLarge, len(data), maxBytes)
	}

	mtype := mimetype.Detect(data)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return Encoded{}, fmt.Errorf("%w: detected %s", ErrNotImage, mtype.String())
	}

	return Encoded{
		URI:      "data:" + mtype.String() + ";base64," + base64.StdEncoding.EncodeToString(data),
		MIMEType: mtype.String(),
		Size:     len(data),
	}, nil
}

// IsDataURI reports whether s already is a data URI.
func IsDataURI(s string) bool {
	return strings.HasPrefix(s, "data:")
}

// Decode splits a base64 data URI back into its media type and bytes.
func Decode(uri string) (mediaType string, data []byte, err error) {
	if !IsDataURI(uri) {
		return "", nil, fmt.Errorf("%w: missing data: scheme", ErrMalformed)
	}
	header, payload, ok := strings.Cut(strings.TrimPrefix(uri, "data:"), ",")
	if !ok {
		return "", nil, fmt.Errorf("%w: missing comma separator", ErrMalformed)
	}
	mediaType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, fmt.Errorf("%w: only base64 payloads are supported", ErrMalformed)
	}
	data, err = base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return mediaType, data, nil
}

// Reencode checks a client-supplied data URI the way EncodeImage checks raw
// bytes and returns it rebuilt with the sniffed media type. The declared
// type is ignored.
func Reencode(uri string, maxBytes int) (Encoded, error) {
	_, data, err := Decode(uri)
	if err != nil {
		return Encoded{}, err
	}
	return EncodeImage(data, maxBytes)
}
