package datauri

import (
	"bytes"
	"encoding/base64"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// 1x1 transparent PNG.
var tinyPNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

func TestEncodeImage_PNG(t *testing.T) {
	enc, err := EncodeImage(tinyPNG, 0)
	require.NoError(t, err)

	assert.Equal(t, "image/png", enc.MIMEType)
	assert.Equal(t, len(tinyPNG), enc.Size)
	assert.True(t, IsDataURI(enc.URI))

	mediaType, data, err := Decode(enc.URI)
	require.NoError(t, err)
	assert.Equal(t, "image/png", mediaType)
	assert.True(t, bytes.Equal(tinyPNG, data))
}

func TestEncodeImage_Rejects(t *testing.T) {
	_, err := EncodeImage(nil, 0)
	assert.ErrorIs(t, err, ErrEmpty)

	_, err = EncodeImage([]byte("just some notes about a student"), 0)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = EncodeImage(tinyPNG, 10)
	assert.ErrorIs(t, err, ErrTooLarge)
}

func TestDecode_Malformed(t *testing.T) {
	for _, uri := range []string{
		"https://picsum.photos/200",
		"data:image/png;base64",
		"data:text/plain,hello",
		"data:image/png;base64,!!!",
	} {
		_, _, err := Decode(uri)
		assert.ErrorIs(t, err, ErrMalformed, uri)
	}
}

func TestReencode(t *testing.T) {
	enc, err := EncodeImage(tinyPNG, 0)
	require.NoError(t, err)

	mislabelled := strings.Replace(enc.URI, "image/png", "image/gif", 1)
	got, err := Reencode(mislabelled, 0)
	require.NoError(t, err)
	assert.Equal(t, enc.URI, got.URI, "the sniffed type wins")

	_, err = Reencode("data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("plain text, not pixels")), 0)
	assert.ErrorIs(t, err, ErrNotImage)

	_, err = Reencode(enc.URI, 10)
	assert.ErrorIs(t, err, ErrTooLarge)
}
