package pdf

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spherical/vision-extractor/internal/domain"
)

// pdftoppmBinary is the poppler tool used to render pages.
const pdftoppmBinary = "pdftoppm"

// LocateTool finds name inside the first candidate directory that holds an
// executable with that name, then falls back to the default search path.
func LocateTool(name string, candidates []string) (string, error) {
	binary := name
	if runtime.GOOS == "windows" && !strings.HasSuffix(binary, ".exe") {
		binary += ".exe"
	}

	for _, dir := range candidates {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		path := filepath.Join(dir, binary)
		if isExecutable(path) {
			return path, nil
		}
	}

	path, err := exec.LookPath(name)
	if err == nil {
		return path, nil
	}

	return "", domain.ConversionError(
		fmt.Sprintf("%s not found in %s or on PATH; install poppler or configure rasterizer.toolchain_paths",
			name, strings.Join(candidates, ", ")),
		err,
	)
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode().Perm()&0o111 != 0
}
