// Package prompt reads the instruction text sent alongside the page image.
package prompt

import (
	"fmt"
	"os"
	"strings"

	"github.com/spherical/vision-extractor/internal/domain"
)

// Load returns the contents of the prompt file with surrounding whitespace
// removed. A file holding only whitespace yields an empty prompt.
func Load(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", domain.IOError("Prompt path is empty", nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", domain.IOError(fmt.Sprintf("Failed to read prompt file %s", path), err)
	}

	return strings.TrimSpace(string(data)), nil
}
