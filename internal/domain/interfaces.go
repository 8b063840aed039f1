package domain

import (
	"context"
	"time"
)

// Emitter receives progress events synchronously, in pipeline order.
type Emitter func(StreamEvent)

// Emit delivers an event stamped with the current time. A nil Emitter drops it.
func (e Emitter) Emit(t EventType, payload interface{}) {
	if e == nil {
		return
	}
	e(StreamEvent{Type: t, Payload: payload, Timestamp: time.Now()})
}

// Rasterizer renders the first page of a PDF document
type Rasterizer interface {
	Rasterize(ctx context.Context, doc *Document) (*RasterImage, error)
}

// Backend sends a rendered page and a prompt to a vision model
type Backend interface {
	// Submit issues exactly one model request and returns the raw reply.
	// Implementations emit EventAssetReady and EventGenerating through emit.
	Submit(ctx context.Context, image *RasterImage, prompt string, emit Emitter) (*ModelReply, error)

	// Name identifies the backend variant ("hosted", "local", "compat")
	Name() string
}
