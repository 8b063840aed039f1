package pdf

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spherical/vision-extractor/internal/domain"
)

func fakeTool(t *testing.T, dir, name string, mode os.FileMode) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\nexit 0\n"), mode))
	return path
}

func TestLocateTool_PrefersCandidatesInOrder(t *testing.T) {
	first, second := t.TempDir(), t.TempDir()
	fakeTool(t, first, "pdftoppm", 0o755)
	fakeTool(t, second, "pdftoppm", 0o755)

	got, err := LocateTool("pdftoppm", []string{filepath.Join(t.TempDir(), "absent"), first, second})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(first, "pdftoppm"), got)
}

func TestLocateTool_SkipsNonExecutableCandidates(t *testing.T) {
	noExec, withExec := t.TempDir(), t.TempDir()
	fakeTool(t, noExec, "pdftoppm", 0o644)
	want := fakeTool(t, withExec, "pdftoppm", 0o755)

	got, err := LocateTool("pdftoppm", []string{"", noExec, withExec})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateTool_FallsBackToPath(t *testing.T) {
	pathDir := t.TempDir()
	want := fakeTool(t, pathDir, "pdftoppm", 0o755)
	t.Setenv("PATH", pathDir)

	got, err := LocateTool("pdftoppm", []string{t.TempDir()})
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestLocateTool_NotFound(t *testing.T) {
	t.Setenv("PATH", t.TempDir())

	_, err := LocateTool("pdftoppm", []string{"/opt/homebrew/opt/poppler/bin-missing"})
	require.Error(t, err)
	assert.True(t, domain.IsType(err, domain.ErrorTypeConversion))
	assert.Contains(t, err.Error(), "toolchain_paths")
}
