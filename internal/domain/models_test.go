package domain

import (
	"errors"
	"fmt"
	"os"
	"testing"
)

func TestDomainError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *DomainError
		want string
	}{
		{
			name: "without cause",
			err:  AuthError("credential missing", nil),
			want: "[auth] credential missing",
		},
		{
			name: "with cause",
			err:  IOError("cannot read prompt", errors.New("permission denied")),
			want: "[io] cannot read prompt: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestIsType_FindsWrappedDomainError(t *testing.T) {
	base := UploadError("upload rejected", errors.New("502"))
	wrapped := fmt.Errorf("submit: %w", base)

	if !IsType(wrapped, ErrorTypeUpload) {
		t.Error("Expected wrapped error to be recognised as upload error")
	}
	if IsType(wrapped, ErrorTypeAuth) {
		t.Error("Upload error must not be reported as auth error")
	}
	if IsType(nil, ErrorTypeUpload) {
		t.Error("nil error has no type")
	}
	if got := TypeOf(errors.New("plain")); got != "" {
		t.Errorf("Expected empty type for plain error, got %q", got)
	}
}

func TestRasterImage_WriteTemp(t *testing.T) {
	img := &RasterImage{PageNumber: 1, Data: []byte("\x89PNG-data"), Encoding: "png"}

	path, cleanup, err := img.WriteTemp(t.TempDir(), "page-*.png")
	if err != nil {
		t.Fatalf("WriteTemp failed: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Expected temp file to exist: %v", err)
	}
	if string(data) != string(img.Data) {
		t.Errorf("Temp file content mismatch: %q", data)
	}
	if img.Len() != len(data) {
		t.Errorf("Len() = %d, want %d", img.Len(), len(data))
	}
	if img.MediaType() != "image/png" {
		t.Errorf("MediaType() = %s", img.MediaType())
	}

	cleanup()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("Expected cleanup to remove %s", path)
	}
}

func TestRasterImage_WriteTempMissingDir(t *testing.T) {
	img := &RasterImage{Data: []byte("x"), Encoding: "png"}

	_, _, err := img.WriteTemp("/nonexistent/dir/for/test", "page-*.png")
	if !IsType(err, ErrorTypeIO) {
		t.Errorf("Expected io error, got %v", err)
	}
}

func TestEmitter_NilIsSafe(t *testing.T) {
	var emit Emitter
	emit.Emit(EventStart, "ignored")

	var got []StreamEvent
	emit = func(e StreamEvent) { got = append(got, e) }
	emit.Emit(EventGenerating, nil)

	if len(got) != 1 || got[0].Type != EventGenerating {
		t.Fatalf("Expected one generating event, got %+v", got)
	}
	if got[0].Timestamp.IsZero() {
		t.Error("Expected event timestamp to be set")
	}
}
