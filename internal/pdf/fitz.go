package pdf

import (
	"context"

	"github.com/gen2brain/go-fitz"

	"github.com/spherical/vision-extractor/internal/domain"
)

// fitzEngine renders in-process with MuPDF through go-fitz.
type fitzEngine struct{}

func (e *fitzEngine) name() string { return "mupdf" }

func (e *fitzEngine) render(ctx context.Context, pdfPath string, dpi int) ([]byte, int, error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, 0, domain.ConversionError("Failed to open PDF", err)
	}
	defer doc.Close()

	pageCount := doc.NumPage()
	if pageCount == 0 {
		return nil, 0, domain.ConversionError("PDF has no pages", nil)
	}

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	img, err := doc.ImageDPI(firstPage-1, float64(dpi))
	if err != nil {
		return nil, 0, domain.ConversionError("Failed to render page 1", err)
	}

	data, err := encodePNG(img)
	if err != nil {
		return nil, 0, domain.ConversionError("Failed to encode page 1 as PNG", err)
	}

	return data, pageCount, nil
}
