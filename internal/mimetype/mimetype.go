// Package mimetype resolves the media type of uploaded attachments.
// Filename extensions win over content sniffing; unknown content falls
// back to application/octet-stream.
package mimetype

import (
	"bytes"
	"path/filepath"
	"strings"
)

const (
	PDF         = "application/pdf"
	JPEG        = "image/jpeg"
	PNG         = "image/png"
	GIF         = "image/gif"
	WebP        = "image/webp"
	OctetStream = "application/octet-stream"
)

var byExtension = map[string]string{
	".pdf":  PDF,
	".jpg":  JPEG,
	".jpeg": JPEG,
	".png":  PNG,
	".gif":  GIF,
	".webp": WebP,
}

// Detect returns the media type for attachment data. A recognized
// filename extension takes precedence; otherwise the leading bytes are
// matched against known signatures.
func Detect(data []byte, filename string) string {
	if filename != "" {
		ext := strings.ToLower(filepath.Ext(filename))
		if mime, ok := byExtension[ext]; ok {
			return mime
		}
	}
	return sniff(data)
}

func sniff(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte("%PDF-")):
		return PDF
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8, 0xFF}):
		return JPEG
	case bytes.HasPrefix(data, []byte{0x89, 0x50, 0x4E, 0x47}):
		return PNG
	case bytes.HasPrefix(data, []byte("GIF")):
		return GIF
	case isWebP(data):
		return WebP
	default:
		return OctetStream
	}
}

// WebP is a RIFF container: "RIFF" <4-byte size> "WEBP".
func isWebP(data []byte) bool {
	return len(data) >= 12 &&
		bytes.Equal(data[0:4], []byte("RIFF")) &&
		bytes.Equal(data[8:12], []byte("WEBP"))
}

// IsSupported reports whether the extraction models accept the media
// type. Images and PDFs go through; everything else is dropped from the
// turn with a warning.
func IsSupported(mime string) bool {
	return mime == PDF || strings.HasPrefix(mime, "image/")
}
