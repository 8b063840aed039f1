// Package extractor is the library entry point: render page 1 of a PDF, send
// it to a vision model and interpret the reply as JSON.
package extractor

import (
	"context"

	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/extract"
	"github.com/spherical/vision-extractor/internal/interpret"
	"github.com/spherical/vision-extractor/internal/llm"
	"github.com/spherical/vision-extractor/internal/observability"
	"github.com/spherical/vision-extractor/internal/pdf"
)

// Re-export event types for public API
type (
	StreamEvent         = domain.StreamEvent
	EventType           = domain.EventType
	AssetReadyPayload   = domain.AssetReadyPayload
	ParseFailurePayload = domain.ParseFailurePayload
	ModelReply          = domain.ModelReply
)

// Re-export processing types
type (
	Config  = config.Config
	Outcome = extract.Outcome
	Result  = interpret.Result
)

// Event type constants
const (
	EventStart       = domain.EventStart
	EventAssetReady  = domain.EventAssetReady
	EventGenerating  = domain.EventGenerating
	EventRawOutput   = domain.EventRawOutput
	EventParsed      = domain.EventParsed
	EventParseFailed = domain.EventParseFailed
	EventError       = domain.EventError
	EventComplete    = domain.EventComplete
)

// DefaultConfig returns the built-in configuration.
func DefaultConfig() *Config {
	return config.DefaultConfig()
}

// Option customizes a Client.
type Option func(*clientOptions)

type clientOptions struct {
	events     domain.Emitter
	logger     *observability.Logger
	rasterizer domain.Rasterizer
	backend    domain.Backend
}

// WithEvents delivers progress events to fn, synchronously and in order.
func WithEvents(fn func(StreamEvent)) Option {
	return func(o *clientOptions) { o.events = fn }
}

// WithLogger sets the logger used by every pipeline stage.
func WithLogger(logger *observability.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithBackend replaces the configured model backend.
func WithBackend(backend domain.Backend) Option {
	return func(o *clientOptions) { o.backend = backend }
}

// WithRasterizer replaces the configured page renderer.
func WithRasterizer(rasterizer domain.Rasterizer) Option {
	return func(o *clientOptions) { o.rasterizer = rasterizer }
}

// Client is the main entry point for the vision extractor library
type Client struct {
	service *extract.Service
	config  *Config
}

// NewClient creates a client from .env, VISION_* environment variables and
// the built-in defaults.
func NewClient(opts ...Option) (*Client, error) {
	cfg, err := config.Load("")
	if err != nil {
		return nil, err
	}
	return NewClientWithConfig(cfg, opts...)
}

// NewClientWithConfig creates a client with custom configuration
func NewClientWithConfig(cfg *Config, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, domain.ConfigError("config is required", nil)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	o := clientOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = observability.NewLogger(observability.LogConfig{
			Level:       cfg.Observability.LogLevel,
			Format:      cfg.Observability.LogFormat,
			ServiceName: "vision-extractor",
		})
	}

	if o.rasterizer == nil {
		converter, err := pdf.NewConverter(pdf.OptionsFromConfig(cfg.Rasterizer, o.logger))
		if err != nil {
			return nil, err
		}
		o.rasterizer = converter
	}

	if o.backend == nil {
		backend, err := llm.New(cfg, o.logger)
		if err != nil {
			return nil, err
		}
		o.backend = backend
	}

	service := extract.NewService(o.rasterizer, o.backend, extract.Options{
		StripCodeFences: cfg.Interpreter.StripCodeFences,
		Events:          o.events,
		Logger:          o.logger,
	})

	return &Client{service: service, config: cfg}, nil
}

// Process runs the pipeline once for pdfPath using the configured prompt
// file. An empty pdfPath falls back to the configured document path.
func (c *Client) Process(ctx context.Context, pdfPath string) (*Outcome, error) {
	if pdfPath == "" {
		pdfPath = c.config.Document.Path
	}
	return c.service.Run(ctx, extract.Request{
		DocumentPath: pdfPath,
		PromptPath:   c.config.Prompt.Path,
	})
}
