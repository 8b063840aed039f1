package llm

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/spherical/vision-extractor/internal/domain"
)

func testImage(t *testing.T) *domain.RasterImage {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 4, 2))
	img.SetGray(1, 1, color.Gray{Y: 200})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	return &domain.RasterImage{PageNumber: 1, Data: buf.Bytes(), Width: 4, Height: 2, Encoding: "png"}
}

// eventRecorder collects emitted events in order.
type eventRecorder struct {
	events []domain.StreamEvent
}

func (r *eventRecorder) emit() domain.Emitter {
	return func(e domain.StreamEvent) { r.events = append(r.events, e) }
}

func (r *eventRecorder) types() []domain.EventType {
	out := make([]domain.EventType, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}
