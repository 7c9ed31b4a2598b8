// Package acquire normalizes incoming images into the payload shape the
// classification boundary consumes, and tracks the camera capability grant.
package acquire

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	// ErrEmptyImage indicates an upload or frame with no bytes.
	ErrEmptyImage = errors.New("image is empty")

	// ErrNotAnImage indicates the content does not sniff as an image type.
	ErrNotAnImage = errors.New("file is not a readable image")
)

// Payload is a normalized image: the raw bytes for same-origin display plus
// the data-URI encoding sent to the classification service.
type Payload struct {
	// MIMEType is the sniffed content type (e.g., "image/jpeg").
	MIMEType string

	// Data is the raw image bytes, served back as the display handle.
	Data []byte
}

// DataURI returns the base64 data-URI representation with embedded MIME
// type, the wire format the classification service expects.
func (p Payload) DataURI() string {
	return fmt.Sprintf("data:%s;base64,%s", p.MIMEType, base64.StdEncoding.EncodeToString(p.Data))
}

// FromFile normalizes a user-selected file into a Payload. The content type
// is sniffed from the bytes, never trusted from the file name.
func FromFile(name string, data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: %s", ErrEmptyImage, name)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Payload{}, fmt.Errorf("%w: %s detected as %s", ErrNotAnImage, name, mime)
	}
	return Payload{MIMEType: mime, Data: data}, nil
}

// FromCameraFrame normalizes a captured camera frame into a Payload.
func FromCameraFrame(data []byte) (Payload, error) {
	if len(data) == 0 {
		return Payload{}, fmt.Errorf("%w: camera frame", ErrEmptyImage)
	}
	mime := http.DetectContentType(data)
	if !strings.HasPrefix(mime, "image/") {
		return Payload{}, fmt.Errorf("%w: camera frame detected as %s", ErrNotAnImage, mime)
	}
	return Payload{MIMEType: mime, Data: data}, nil
}
