package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spherical/vision-extractor/internal/domain"
)

// popplerEngine shells out to pdftoppm, located through the configured
// candidate directories.
type popplerEngine struct {
	candidates []string
	tempDir    string
}

func (e *popplerEngine) name() string { return "poppler" }

func (e *popplerEngine) render(ctx context.Context, pdfPath string, dpi int) ([]byte, int, error) {
	tool, err := LocateTool(pdftoppmBinary, e.candidates)
	if err != nil {
		return nil, 0, err
	}

	outDir, err := os.MkdirTemp(e.tempDir, "vision-extractor-*")
	if err != nil {
		return nil, 0, domain.IOError("Failed to create temp directory", err)
	}
	defer os.RemoveAll(outDir)

	prefix := filepath.Join(outDir, "page")
	args := []string{
		"-f", strconv.Itoa(firstPage),
		"-l", strconv.Itoa(firstPage),
		"-r", strconv.Itoa(dpi),
		"-png",
		"-singlefile",
		pdfPath,
		prefix,
	}

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, tool, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, 0, ctxErr
		}
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = "no diagnostic output"
		}
		return nil, 0, domain.ConversionError(fmt.Sprintf("%s failed: %s", filepath.Base(tool), msg), err)
	}

	data, err := os.ReadFile(prefix + ".png")
	if err != nil {
		return nil, 0, domain.ConversionError("pdftoppm produced no image for page 1", err)
	}

	return data, 0, nil
}
