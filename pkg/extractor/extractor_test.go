package extractor

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/mocks"
	"github.com/spherical/vision-extractor/internal/observability"
	"github.com/spherical/vision-extractor/internal/pdf/pdftest"
)

func localConfig(t *testing.T, reply string) *Config {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		_, _ = io.WriteString(w, `{"message":{"role":"assistant","content":`+reply+`},"done":true}`+"\n")
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	promptPath := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Return the invoice number as JSON.\n"), 0o644))

	cfg := DefaultConfig()
	cfg.Document.Path = pdftest.WriteFile(t, "invoice.pdf", pdftest.PageSize{Width: 200, Height: 100})
	cfg.Prompt.Path = promptPath
	cfg.Rasterizer.Engine = config.EngineMuPDF
	cfg.Rasterizer.DPI = 72
	cfg.Rasterizer.TempDir = dir
	cfg.Backend.Kind = config.BackendLocal
	cfg.Backend.Local.Host = srv.URL
	return cfg
}

func TestClient_Process(t *testing.T) {
	cfg := localConfig(t, `"{\"invoice_number\": \"A123\"}"`)

	var events []EventType
	client, err := NewClientWithConfig(cfg,
		WithLogger(observability.Nop()),
		WithEvents(func(e StreamEvent) { events = append(events, e.Type) }),
	)
	require.NoError(t, err)

	out, err := client.Process(context.Background(), "")
	require.NoError(t, err)

	require.True(t, out.Result.OK)
	assert.Equal(t, "{\n  \"invoice_number\": \"A123\"\n}", out.Result.Pretty())
	assert.Equal(t, "local", out.Reply.Backend)
	assert.Equal(t, "llava", out.Reply.Model)
	assert.Equal(t, []EventType{
		EventStart, EventAssetReady, EventGenerating, EventRawOutput, EventParsed, EventComplete,
	}, events)
}

func TestClient_ProcessParseFailure(t *testing.T) {
	cfg := localConfig(t, `"Sorry, I cannot read this image."`)

	client, err := NewClientWithConfig(cfg, WithLogger(observability.Nop()))
	require.NoError(t, err)

	out, err := client.Process(context.Background(), cfg.Document.Path)
	require.NoError(t, err)

	assert.False(t, out.Result.OK)
	assert.Equal(t, "Sorry, I cannot read this image.", out.Result.Raw)
	assert.Error(t, out.Result.Err)
}

func TestClient_ProcessMissingDocument(t *testing.T) {
	cfg := localConfig(t, `"{}"`)

	client, err := NewClientWithConfig(cfg, WithLogger(observability.Nop()))
	require.NoError(t, err)

	_, err = client.Process(context.Background(), filepath.Join(t.TempDir(), "nope.pdf"))
	assert.True(t, domain.IsType(err, domain.ErrorTypeIO), "got %v", err)
}

func TestClient_InjectedComponentsReplaceConfigured(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	dir := t.TempDir()
	promptPath := filepath.Join(dir, "prompt.txt")
	require.NoError(t, os.WriteFile(promptPath, []byte("Extract the total"), 0o644))

	// Neither the configured poppler renderer nor the hosted backend could
	// serve this run: the document does not exist and no credential is set.
	cfg := DefaultConfig()
	cfg.Prompt.Path = promptPath
	docPath := filepath.Join(dir, "absent.pdf")

	image := &domain.RasterImage{PageNumber: 1, Data: []byte("png"), Width: 1, Height: 1, Encoding: "png"}
	rasterizer := &mocks.MockRasterizer{}
	rasterizer.On("Rasterize", mock.Anything, mock.MatchedBy(func(doc *domain.Document) bool {
		return doc.FilePath == docPath
	})).Return(image, nil).Once()

	backend := &mocks.MockBackend{}
	backend.On("Name").Return("stub").Maybe()
	backend.On("Submit", mock.Anything, image, "Extract the total").
		Return(&domain.ModelReply{Text: `{"total": 42}`, Backend: "stub", Model: "stub-model"}, nil).Once()

	client, err := NewClientWithConfig(cfg,
		WithLogger(observability.Nop()),
		WithRasterizer(rasterizer),
		WithBackend(backend),
	)
	require.NoError(t, err)

	out, err := client.Process(context.Background(), docPath)
	require.NoError(t, err)

	assert.True(t, out.Result.OK)
	assert.Equal(t, "stub", out.Reply.Backend)
	assert.Same(t, image, out.Image)
	rasterizer.AssertExpectations(t)
	backend.AssertExpectations(t)
}

func TestNewClientWithConfig_Invalid(t *testing.T) {
	_, err := NewClientWithConfig(nil)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))

	cfg := DefaultConfig()
	cfg.Backend.Kind = "fax"
	_, err = NewClientWithConfig(cfg)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConfig))
}
