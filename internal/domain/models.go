package domain

import (
	"fmt"
	"os"
	"time"
)

// Document represents the source PDF file being processed
type Document struct {
	FilePath   string
	TotalPages int // 0 when the rendering engine does not report it
}

// RasterImage is the first page of a Document rendered as a PNG bitmap.
type RasterImage struct {
	PageNumber int
	Data       []byte
	Width      int
	Height     int
	Encoding   string
}

// Len returns the encoded size in bytes.
func (r *RasterImage) Len() int {
	return len(r.Data)
}

// MediaType returns the MIME type of the encoded image.
func (r *RasterImage) MediaType() string {
	return "image/" + r.Encoding
}

// WriteTemp writes the image to a new temporary file in dir (os.TempDir when
// empty). The returned cleanup func removes the file.
func (r *RasterImage) WriteTemp(dir, pattern string) (string, func(), error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", nil, IOError("Failed to create temporary image file", err)
	}
	path := f.Name()
	cleanup := func() { _ = os.Remove(path) }

	if _, err := f.Write(r.Data); err != nil {
		f.Close()
		cleanup()
		return "", nil, IOError(fmt.Sprintf("Failed to write image to %s", path), err)
	}
	if err := f.Close(); err != nil {
		cleanup()
		return "", nil, IOError(fmt.Sprintf("Failed to close %s", path), err)
	}
	return path, cleanup, nil
}

// UploadedAsset is the handle a hosted service returns for an uploaded image.
type UploadedAsset struct {
	ID      string
	Purpose string
}

// ModelReply is the raw text returned by a vision model.
type ModelReply struct {
	Text    string
	Backend string
	Model   string
	// Handle is the uploaded asset ID (hosted) or the local image path.
	Handle string
}

// EventType represents the type of stream event
type EventType string

const (
	EventStart       EventType = "start"
	EventAssetReady  EventType = "asset_ready"
	EventGenerating  EventType = "generating"
	EventRawOutput   EventType = "raw_output"
	EventParsed      EventType = "parsed"
	EventParseFailed EventType = "parse_failed"
	EventError       EventType = "error"
	EventComplete    EventType = "complete"
)

// StreamEvent represents an event emitted during processing
type StreamEvent struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// ParseFailurePayload is the payload of an EventParseFailed event.
type ParseFailurePayload struct {
	Raw   string
	Error string
}

// AssetReadyPayload is the payload of an EventAssetReady event. Handle is the
// uploaded file ID (hosted), the temporary image path (local) or empty when the
// image travels inline with the request (compat).
type AssetReadyPayload struct {
	Backend string
	Handle  string
}
