package llm

import (
	"bytes"
	"context"
	"errors"
	"time"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/responses"
	"github.com/openai/openai-go/shared"

	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/observability"
)

const (
	defaultHostedModel   = "gpt-4.1-mini"
	defaultHostedTimeout = 5 * time.Minute
	uploadFilename       = "image.png"
)

// HostedOptions configures a HostedBackend.
type HostedOptions struct {
	APIKey  string
	Model   string
	BaseURL string
	Detail  string // low, high or auto
	Timeout time.Duration
	Logger  *observability.Logger
}

// HostedBackend uploads the page through the OpenAI Files API and references
// the returned file ID from a single Responses API request.
type HostedBackend struct {
	client  openai.Client
	hasKey  bool
	model   string
	detail  responses.ResponseInputImageDetail
	timeout time.Duration
	logger  *observability.Logger
}

// NewHostedBackend creates the hosted backend. A missing API key is only
// reported when Submit is called.
func NewHostedBackend(opts HostedOptions) *HostedBackend {
	if opts.Model == "" {
		opts.Model = defaultHostedModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = defaultHostedTimeout
	}
	if opts.Logger == nil {
		opts.Logger = observability.Nop()
	}

	clientOpts := []option.RequestOption{
		option.WithAPIKey(opts.APIKey),
		option.WithMaxRetries(0),
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}

	return &HostedBackend{
		client:  openai.NewClient(clientOpts...),
		hasKey:  opts.APIKey != "",
		model:   opts.Model,
		detail:  imageDetail(opts.Detail),
		timeout: opts.Timeout,
		logger:  opts.Logger.WithBackend("hosted"),
	}
}

func imageDetail(v string) responses.ResponseInputImageDetail {
	switch v {
	case "low":
		return responses.ResponseInputImageDetailLow
	case "auto":
		return responses.ResponseInputImageDetailAuto
	default:
		return responses.ResponseInputImageDetailHigh
	}
}

// Name implements domain.Backend.
func (b *HostedBackend) Name() string { return "hosted" }

// Submit implements domain.Backend.
func (b *HostedBackend) Submit(ctx context.Context, image *domain.RasterImage, prompt string, emit domain.Emitter) (*domain.ModelReply, error) {
	if !b.hasKey {
		return nil, domain.AuthError("OpenAI API key is not set", nil)
	}

	asset, err := b.upload(ctx, image)
	if err != nil {
		return nil, err
	}
	emit.Emit(domain.EventAssetReady, domain.AssetReadyPayload{Backend: b.Name(), Handle: asset.ID})

	emit.Emit(domain.EventGenerating, nil)
	text, err := b.respond(ctx, asset.ID, prompt)
	if err != nil {
		return nil, err
	}

	return &domain.ModelReply{
		Text:    text,
		Backend: b.Name(),
		Model:   b.model,
		Handle:  asset.ID,
	}, nil
}

func (b *HostedBackend) upload(ctx context.Context, image *domain.RasterImage) (*domain.UploadedAsset, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	b.logger.Debug().Int("bytes", image.Len()).Msg("Uploading page image")

	file, err := b.client.Files.New(ctx, openai.FileNewParams{
		File:    openai.File(bytes.NewReader(image.Data), uploadFilename, image.MediaType()),
		Purpose: openai.FilePurposeVision,
	})
	if err != nil {
		return nil, classify("file upload", statusOf(err), err, domain.UploadError)
	}
	if file.ID == "" {
		return nil, domain.UploadError("file upload returned no file ID", nil)
	}

	b.logger.Info().Str("file_id", file.ID).Msg("Uploaded page image")

	return &domain.UploadedAsset{ID: file.ID, Purpose: string(openai.FilePurposeVision)}, nil
}

func (b *HostedBackend) respond(ctx context.Context, fileID, prompt string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, b.timeout)
	defer cancel()

	content := responses.ResponseInputMessageContentListParam{
		{OfInputText: &responses.ResponseInputTextParam{Text: prompt}},
		{OfInputImage: &responses.ResponseInputImageParam{
			FileID: openai.String(fileID),
			Detail: b.detail,
		}},
	}

	params := responses.ResponseNewParams{
		Model: shared.ResponsesModel(b.model),
		Input: responses.ResponseNewParamsInputUnion{
			OfInputItemList: responses.ResponseInputParam{
				responses.ResponseInputItemParamOfMessage(content, responses.EasyInputMessageRoleUser),
			},
		},
	}

	b.logger.Debug().Str("model", b.model).Str("file_id", fileID).Msg("Requesting response")

	resp, err := b.client.Responses.New(ctx, params)
	if err != nil {
		return "", classify("responses request", statusOf(err), err, domain.ModelRequestError)
	}
	if resp.Error.Message != "" {
		return "", domain.ModelRequestError("responses request failed: "+resp.Error.Message, nil)
	}

	text := resp.OutputText()
	b.logger.Info().Str("response_id", resp.ID).Int("chars", len(text)).Msg("Received model reply")
	return text, nil
}

// statusOf returns the HTTP status carried by an SDK error, or 0.
func statusOf(err error) int {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
