// Package mocks holds testify mocks of the pipeline interfaces.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/spherical/vision-extractor/internal/domain"
)

// MockRasterizer is a mock implementation of domain.Rasterizer.
type MockRasterizer struct {
	mock.Mock
}

func (m *MockRasterizer) Rasterize(ctx context.Context, doc *domain.Document) (*domain.RasterImage, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RasterImage), args.Error(1)
}

// MockBackend is a mock implementation of domain.Backend. Submit emits the
// asset-ready and generating events before returning, like real backends.
type MockBackend struct {
	mock.Mock
}

func (m *MockBackend) Submit(ctx context.Context, image *domain.RasterImage, prompt string, emit domain.Emitter) (*domain.ModelReply, error) {
	args := m.Called(ctx, image, prompt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	reply := args.Get(0).(*domain.ModelReply)
	emit.Emit(domain.EventAssetReady, domain.AssetReadyPayload{Backend: reply.Backend, Handle: reply.Handle})
	emit.Emit(domain.EventGenerating, nil)
	return reply, args.Error(1)
}

func (m *MockBackend) Name() string {
	args := m.Called()
	return args.String(0)
}
