// filepath: internal/services/mocks/thumbnailer_mock.go
package mocks

import (
	"context"

	"mediashelf/internal/models"
	"mediashelf/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockThumbnailer is a mock implementation of services.Thumbnailer
type MockThumbnailer struct {
	mock.Mock
}

var _ services.Thumbnailer = (*MockThumbnailer)(nil)

func (m *MockThumbnailer) Generate(ctx context.Context, req models.ThumbnailRequest) error {
	args := m.Called(ctx, req)
	return args.Error(0)
}
