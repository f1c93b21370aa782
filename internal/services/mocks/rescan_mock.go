// filepath: internal/services/mocks/rescan_mock.go
package mocks

import (
	"context"

	"mediashelf/internal/models"
	"mediashelf/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockRescanService is a mock implementation of services.RescanService
type MockRescanService struct {
	mock.Mock
}

var _ services.RescanService = (*MockRescanService)(nil)

func (m *MockRescanService) Start() {
	m.Called()
}

func (m *MockRescanService) Stop() {
	m.Called()
}

func (m *MockRescanService) TriggerRescan(ctx context.Context) (*models.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconcileReport), args.Error(1)
}
