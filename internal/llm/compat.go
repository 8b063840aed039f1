package llm

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"time"

	gogpt "github.com/sashabaranov/go-openai"

	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/observability"
)

const (
	defaultCompatURL     = "https://openrouter.ai/api/v1"
	defaultCompatModel   = "google/gemini-2.5-flash-preview-09-2025"
	defaultCompatTimeout = 5 * time.Minute
)

// CompatOptions configures a CompatBackend.
type CompatOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Timeout time.Duration
	Logger  *observability.Logger
}

// CompatBackend talks to any OpenAI-compatible chat completions endpoint
// (OpenRouter by default). The image is sent inline as a data URI.
type CompatBackend struct {
	client  *gogpt.Client
	hasKey  bool
	model   string
	baseURL string
	timeout time.Duration
	logger  *observability.Logger
}

// NewCompatBackend creates the compat backend. A missing API key is only
// reported when Submit is called.
func NewCompatBackend(opts CompatOptions) *CompatBackend {
	if opts.Model == "" {
		opts.Model = defaultCompatModel
	}
	if opts.BaseURL == "" {
		opts.BaseURL = defaultCompatURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultCompatTimeout
	}
	if opts.Logger == nil {
		opts.Logger = observability.Nop()
	}

	clientCfg := gogpt.DefaultConfig(opts.APIKey)
	clientCfg.BaseURL = strings.TrimRight(opts.BaseURL, "/")

	return &CompatBackend{
		client:  gogpt.NewClientWithConfig(clientCfg),
		hasKey:  opts.APIKey != "",
		model:   opts.Model,
		baseURL: clientCfg.BaseURL,
		timeout: opts.Timeout,
		logger:  opts.Logger.WithBackend("compat"),
	}
}

// Name implements domain.Backend.
func (b *CompatBackend) Name() string { return "compat" }

// Submit implements domain.Backend.
func (b *CompatBackend) Submit(ctx context.Context, image *domain.RasterImage, prompt string, emit domain.Emitter) (*domain.ModelReply, error) {
	if !b.hasKey {
		return nil, domain.AuthError("API key for the OpenAI-compatible endpoint is not set", nil)
	}

	dataURI := "data:" + image.MediaType() + ";base64," + base64.StdEncoding.EncodeToString(image.Data)
	emit.Emit(domain.EventAssetReady, domain.AssetReadyPayload{Backend: b.Name()})

	req := gogpt.ChatCompletionRequest{
		Model: b.model,
		Messages: []gogpt.ChatCompletionMessage{{
			Role: gogpt.ChatMessageRoleUser,
			MultiContent: []gogpt.ChatMessagePart{
				{Type: gogpt.ChatMessagePartTypeText, Text: prompt},
				{Type: gogpt.ChatMessagePartTypeImageURL, ImageURL: &gogpt.ChatMessageImageURL{
					URL:    dataURI,
					Detail: gogpt.ImageURLDetailHigh,
				}},
			},
		}},
	}

	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	emit.Emit(domain.EventGenerating, nil)
	b.logger.Debug().Str("model", b.model).Str("base_url", b.baseURL).Msg("Sending chat completion")

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classify("chat completion", compatStatus(err), err, domain.ModelRequestError)
	}
	if len(resp.Choices) == 0 {
		return nil, domain.ModelRequestError("chat completion returned no choices", nil)
	}

	text := resp.Choices[0].Message.Content
	b.logger.Info().Str("response_id", resp.ID).Int("chars", len(text)).Msg("Received model reply")

	return &domain.ModelReply{
		Text:    text,
		Backend: b.Name(),
		Model:   b.model,
	}, nil
}

// compatStatus extracts the HTTP status from a go-openai error, or 0.
func compatStatus(err error) int {
	var apiErr *gogpt.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *gogpt.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	return 0
}

