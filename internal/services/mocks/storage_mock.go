// filepath: internal/services/mocks/storage_mock.go
package mocks

import (
	"context"

	"mediashelf/internal/models"
	"mediashelf/internal/services"

	"github.com/stretchr/testify/mock"
)

// MockStorageService mocks the file storage operations
type MockStorageService struct {
	mock.Mock
}

var _ services.Storage = (*MockStorageService)(nil)

func (m *MockStorageService) AbsPath(rel string) (string, error) {
	args := m.Called(rel)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) ThumbnailPath(rel string) (string, error) {
	args := m.Called(rel)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) MoveItemFile(oldRel, newRel string) error {
	args := m.Called(oldRel, newRel)
	return args.Error(0)
}

func (m *MockStorageService) MoveThumbnail(oldRel, newRel string) error {
	args := m.Called(oldRel, newRel)
	return args.Error(0)
}

func (m *MockStorageService) RemoveItemFiles(rel string) error {
	args := m.Called(rel)
	return args.Error(0)
}

func (m *MockStorageService) Hash(rel string, isDir bool) (string, error) {
	args := m.Called(rel, isDir)
	return args.String(0), args.Error(1)
}

func (m *MockStorageService) Scan(ctx context.Context) ([]models.ScanEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ScanEntry), args.Error(1)
}
