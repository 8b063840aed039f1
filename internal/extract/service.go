// Package extract runs the single-page extraction pipeline: load the prompt,
// render page 1, ask the model and interpret its reply.
package extract

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/interpret"
	"github.com/spherical/vision-extractor/internal/observability"
	"github.com/spherical/vision-extractor/internal/prompt"
)

// Request names the inputs of one run.
type Request struct {
	DocumentPath string
	PromptPath   string
}

// Outcome is the result of a completed run. A reply that is not valid JSON is
// still a completed run; see Result.OK.
type Outcome struct {
	RunID    string
	Document *domain.Document
	Image    *domain.RasterImage
	Reply    *domain.ModelReply
	Result   *interpret.Result
	Duration time.Duration
}

// Options configures a Service.
type Options struct {
	// StripCodeFences removes a surrounding markdown fence before decoding.
	StripCodeFences bool
	// Events receives progress events in pipeline order.
	Events domain.Emitter
	Logger *observability.Logger
}

// Service orchestrates the extraction process
type Service struct {
	rasterizer domain.Rasterizer
	backend    domain.Backend
	loadPrompt func(path string) (string, error)
	interpOpts []interpret.Option
	emit       domain.Emitter
	logger     *observability.Logger
}

// NewService creates a new extraction service
func NewService(rasterizer domain.Rasterizer, backend domain.Backend, opts Options) *Service {
	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	var interpOpts []interpret.Option
	if opts.StripCodeFences {
		interpOpts = append(interpOpts, interpret.WithCodeFenceStripping())
	}

	return &Service{
		rasterizer: rasterizer,
		backend:    backend,
		loadPrompt: prompt.Load,
		interpOpts: interpOpts,
		emit:       opts.Events,
		logger:     logger.WithOperation("extract"),
	}
}

// Run executes the pipeline once. It returns an error only for failures that
// abort the run; an unparseable reply is reported on Outcome.Result.
func (s *Service) Run(ctx context.Context, req Request) (*Outcome, error) {
	startTime := time.Now()
	runID := uuid.NewString()
	logger := s.logger.WithRunID(runID)
	doc := &domain.Document{FilePath: req.DocumentPath}

	s.emit.Emit(domain.EventStart, req.DocumentPath)
	logger.Info().Str("document", req.DocumentPath).Str("backend", s.backend.Name()).Msg("Starting extraction")

	promptText, err := s.loadPrompt(req.PromptPath)
	if err != nil {
		return nil, s.fail(logger, err)
	}
	if promptText == "" {
		logger.Warn().Str("path", req.PromptPath).Msg("Prompt file is empty")
	}

	image, err := s.rasterizer.Rasterize(ctx, doc)
	if err != nil {
		return nil, s.fail(logger, err)
	}

	reply, err := s.backend.Submit(ctx, image, promptText, s.emit)
	if err != nil {
		return nil, s.fail(logger, err)
	}

	s.emit.Emit(domain.EventRawOutput, reply.Text)

	result := interpret.Interpret(reply.Text, s.interpOpts...)
	if result.OK {
		s.emit.Emit(domain.EventParsed, result.Pretty())
	} else {
		logger.Warn().Err(result.Err).Msg("Model reply is not valid JSON")
		s.emit.Emit(domain.EventParseFailed, domain.ParseFailurePayload{
			Raw:   result.Raw,
			Error: result.Err.Error(),
		})
	}

	duration := time.Since(startTime)
	s.emit.Emit(domain.EventComplete, fmt.Sprintf("Extraction complete in %v", duration.Round(time.Millisecond)))
	logger.Info().Dur("duration", duration).Str("model", reply.Model).Msg("Extraction complete")

	return &Outcome{
		RunID:    runID,
		Document: doc,
		Image:    image,
		Reply:    reply,
		Result:   result,
		Duration: duration,
	}, nil
}

// fail reports err as an error event and returns it unchanged.
func (s *Service) fail(logger *observability.Logger, err error) error {
	logger.Error().Err(err).Msg("Extraction failed")
	s.emit.Emit(domain.EventError, err.Error())
	return err
}
