package pdf

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spherical/vision-extractor/internal/config"
	"github.com/spherical/vision-extractor/internal/domain"
)

// pdfSignature is the header every PDF file starts with.
var pdfSignature = []byte("%PDF-")

// Validator provides input validation for PDF files
type Validator struct{}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{}
}

// ValidatePDFPath checks that path names a readable file carrying a PDF
// header. Missing or unreadable files are io errors; anything that is not a
// PDF is a conversion error.
func (v *Validator) ValidatePDFPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return domain.IOError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return domain.IOError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return domain.IOError(fmt.Sprintf("cannot access file: %s", path), err)
	}

	if info.IsDir() {
		return domain.IOError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}

	file, err := os.Open(path)
	if err != nil {
		return domain.IOError(fmt.Sprintf("cannot open file: %s", path), err)
	}
	defer file.Close()

	header := make([]byte, 1024)
	n, err := io.ReadFull(file, header)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return domain.IOError(fmt.Sprintf("cannot read file: %s", path), err)
	}

	// Some producers prepend junk before the header; the format allows it
	// within the first 1024 bytes.
	if !bytes.Contains(header[:n], pdfSignature) {
		ext := strings.ToLower(filepath.Ext(path))
		return domain.ConversionError(fmt.Sprintf("file is not a PDF document (extension %q)", ext), nil)
	}

	return nil
}

// ValidateDPI validates the rendering resolution
func (v *Validator) ValidateDPI(dpi int) error {
	if dpi < config.MinDPI || dpi > config.MaxDPI {
		return domain.ValidationError(fmt.Sprintf("dpi must be between %d and %d, got %d", config.MinDPI, config.MaxDPI, dpi), nil)
	}
	return nil
}
