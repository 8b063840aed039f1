package llm

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/observability"
)

const (
	defaultOllamaHost  = "http://localhost:11434"
	defaultLocalModel  = "llava"
	localImagePattern  = "vision-extractor-page-*.png"
	maxErrorBodyLength = 2048
)

// LocalOptions configures a LocalBackend.
type LocalOptions struct {
	Host    string
	Model   string
	TempDir string
	// HTTPClient overrides the default client, which has no timeout.
	HTTPClient *http.Client
	Logger     *observability.Logger
}

// LocalBackend sends the page to a locally running Ollama server. The image
// is written to a temporary file first and referenced from there.
type LocalBackend struct {
	host       string
	model      string
	tempDir    string
	httpClient *http.Client
	logger     *observability.Logger
}

type ollamaMessage struct {
	Role    string   `json:"role"`
	Content string   `json:"content"`
	Images  []string `json:"images,omitempty"`
}

type ollamaChatRequest struct {
	Model    string          `json:"model"`
	Messages []ollamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
}

// NewLocalBackend creates a backend for an Ollama server.
func NewLocalBackend(opts LocalOptions) *LocalBackend {
	if opts.Host == "" {
		opts.Host = defaultOllamaHost
	}
	if opts.Model == "" {
		opts.Model = defaultLocalModel
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = observability.Nop()
	}

	return &LocalBackend{
		host:       strings.TrimRight(opts.Host, "/"),
		model:      opts.Model,
		tempDir:    opts.TempDir,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger.WithBackend("local"),
	}
}

// Name implements domain.Backend.
func (b *LocalBackend) Name() string { return "local" }

// Submit implements domain.Backend.
func (b *LocalBackend) Submit(ctx context.Context, image *domain.RasterImage, prompt string, emit domain.Emitter) (*domain.ModelReply, error) {
	path, cleanup, err := image.WriteTemp(b.tempDir, localImagePattern)
	if err != nil {
		return nil, err
	}
	defer cleanup()

	emit.Emit(domain.EventAssetReady, domain.AssetReadyPayload{Backend: b.Name(), Handle: path})

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("Failed to read image %s", path), err)
	}

	body, err := json.Marshal(ollamaChatRequest{
		Model: b.model,
		Messages: []ollamaMessage{{
			Role:    "user",
			Content: prompt,
			Images:  []string{base64.StdEncoding.EncodeToString(data)},
		}},
		Stream: true,
	})
	if err != nil {
		return nil, domain.ModelRequestError("Failed to marshal request", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return nil, domain.ModelRequestError("Failed to build request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	emit.Emit(domain.EventGenerating, nil)
	b.logger.Debug().Str("model", b.model).Str("host", b.host).Str("image", path).Msg("Sending chat request")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, domain.ModelRequestError(fmt.Sprintf("ollama chat request to %s failed", b.host), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodyLength))
		return nil, domain.ModelRequestError(
			fmt.Sprintf("ollama returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))), nil)
	}

	text, err := NewStreamParser(resp.Body).ParseAll()
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, domain.ModelRequestError("ollama chat request interrupted", ctxErr)
		}
		return nil, domain.ModelRequestError("Failed to read ollama response stream", err)
	}

	b.logger.Info().Int("chars", len(text)).Msg("Received model reply")

	return &domain.ModelReply{
		Text:    text,
		Backend: b.Name(),
		Model:   b.model,
		Handle:  path,
	}, nil
}
