package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"

	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/domain"
	"github.com/spherical/vision-extractor/internal/observability"
)

// firstPage is the only page ever rendered.
const firstPage = 1

// engine renders page 1 of a PDF as PNG bytes. pages is the document page
// count when the engine knows it, otherwise 0.
type engine interface {
	name() string
	render(ctx context.Context, pdfPath string, dpi int) (data []byte, pages int, err error)
}

// Options configures a Converter.
type Options struct {
	Engine         string
	DPI            int
	ToolchainPaths []string
	TempDir        string
	Logger         *observability.Logger
}

// OptionsFromConfig maps rasterizer configuration onto converter options.
func OptionsFromConfig(cfg config.RasterizerConfig, logger *observability.Logger) Options {
	return Options{
		Engine:         cfg.Engine,
		DPI:            cfg.DPI,
		ToolchainPaths: cfg.ToolchainPaths,
		TempDir:        cfg.TempDir,
		Logger:         logger,
	}
}

// Converter implements domain.Rasterizer on top of a rendering engine
type Converter struct {
	engine    engine
	dpi       int
	validator *Validator
	logger    *observability.Logger
}

// NewConverter creates a converter for the configured engine
func NewConverter(opts Options) (*Converter, error) {
	validator := NewValidator()
	if err := validator.ValidateDPI(opts.DPI); err != nil {
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = observability.Nop()
	}

	var eng engine
	switch opts.Engine {
	case config.EnginePoppler, "":
		eng = &popplerEngine{candidates: opts.ToolchainPaths, tempDir: opts.TempDir}
	case config.EngineMuPDF:
		eng = &fitzEngine{}
	default:
		return nil, domain.ConfigError(fmt.Sprintf("unknown rasterizer engine %q", opts.Engine), nil)
	}

	return &Converter{
		engine:    eng,
		dpi:       opts.DPI,
		validator: validator,
		logger:    logger.WithOperation("rasterize"),
	}, nil
}

// Rasterize renders the first page of doc as a PNG. Later pages are ignored.
func (c *Converter) Rasterize(ctx context.Context, doc *domain.Document) (*domain.RasterImage, error) {
	if err := c.validator.ValidatePDFPath(doc.FilePath); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.logger.Debug().
		Str("path", doc.FilePath).
		Str("engine", c.engine.name()).
		Int("dpi", c.dpi).
		Msg("Rendering first page")

	data, pages, err := c.engine.render(ctx, doc.FilePath, c.dpi)
	if err != nil {
		return nil, err
	}

	if pages > 0 {
		doc.TotalPages = pages
		if pages > 1 {
			c.logger.Debug().Int("pages", pages).Msg("Document has more than one page; only page 1 is rendered")
		}
	}

	cfg, err := png.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, domain.ConversionError("Rendered page is not a decodable PNG", err)
	}

	c.logger.Info().
		Int("width", cfg.Width).
		Int("height", cfg.Height).
		Int("bytes", len(data)).
		Msg("Rendered first page")

	return &domain.RasterImage{
		PageNumber: firstPage,
		Data:       data,
		Width:      cfg.Width,
		Height:     cfg.Height,
		Encoding:   "png",
	}, nil
}

// encodePNG encodes img with the default (deterministic) PNG encoder.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
