package mimetype_test

import (
	"testing"

	"github.com/lablia/docflow/internal/mimetype"
	"github.com/stretchr/testify/assert"
)

func TestDetect(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		filename string
		want     string
	}{
		{"pdf magic", []byte("%PDF-1.7 rest"), "", "application/pdf"},
		{"png magic", []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}, "", "image/png"},
		{"jpeg magic", []byte{0xFF, 0xD8, 0xFF, 0xE0}, "", "image/jpeg"},
		{"gif magic", []byte("GIF89a"), "", "image/gif"},
		{"webp riff", append([]byte("RIFF"), append([]byte{0x10, 0x00, 0x00, 0x00}, []byte("WEBPVP8 ")...)...), "", "image/webp"},
		{"riff but not webp", append([]byte("RIFF"), append([]byte{0x10, 0x00, 0x00, 0x00}, []byte("WAVEfmt ")...)...), "", "application/octet-stream"},
		{"unknown bytes no filename", []byte{0x00, 0x01, 0x02}, "", "application/octet-stream"},
		{"extension wins over bytes", []byte{0x00, 0x01, 0x02}, "scan.pdf", "application/pdf"},
		{"uppercase extension", []byte{0x00}, "PHOTO.JPG", "image/jpeg"},
		{"unknown extension falls back to sniffing", []byte("%PDF-1.4"), "document.bin", "application/pdf"},
		{"empty data", nil, "", "application/octet-stream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, mimetype.Detect(tt.data, tt.filename))
		})
	}
}

func TestIsSupported(t *testing.T) {
	assert.True(t, mimetype.IsSupported("application/pdf"))
	assert.True(t, mimetype.IsSupported("image/png"))
	assert.True(t, mimetype.IsSupported("image/webp"))
	assert.False(t, mimetype.IsSupported("application/octet-stream"))
	assert.False(t, mimetype.IsSupported("text/plain"))
}
