// filepath: internal/housekeeping/service_test.go
package housekeeping

import (
	"context"
	"errors"
	"testing"
	"time"

	"mediashelf/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockReconciler is a mock implementation of the Reconciler interface for testing.
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ScanAndReconcile(ctx context.Context) (*models.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ReconcileReport), args.Error(1)
}

func setupTest(interval time.Duration) (*Service, *MockReconciler) {
	mockReconciler := new(MockReconciler)
	service := NewService(Dependencies{Reconciler: mockReconciler}, interval)
	return service, mockReconciler
}

func TestScheduleNextRun(t *testing.T) {
	now := time.Now()

	t.Run("Next run in future", func(t *testing.T) {
		service, _ := setupTest(time.Hour)
		service.lastRun = now.Add(-30 * time.Minute)
		assert.Equal(t, 30*time.Minute, service.scheduleNextRun(now))
	})

	t.Run("Next run in past", func(t *testing.T) {
		service, _ := setupTest(time.Hour)
		service.lastRun = now.Add(-90 * time.Minute)
		assert.Equal(t, MinCheckInterval, service.scheduleNextRun(now))
	})

	t.Run("Interval below the minimum", func(t *testing.T) {
		service, _ := setupTest(time.Second)
		service.lastRun = now
		assert.Equal(t, MinCheckInterval, service.scheduleNextRun(now))
	})
}

func TestTrigger(t *testing.T) {
	service, mockReconciler := setupTest(time.Hour)
	report := &models.ReconcileReport{RunID: "run", Scanned: 3, Inserted: 2}
	mockReconciler.On("ScanAndReconcile", mock.Anything).Return(report, nil).Once()

	before := time.Now()
	got, err := service.Trigger(context.Background())
	require.NoError(t, err)
	assert.Equal(t, report, got)
	assert.False(t, service.LastRun().Before(before))
	mockReconciler.AssertExpectations(t)
}

func TestTrigger_Failure(t *testing.T) {
	service, mockReconciler := setupTest(time.Hour)
	mockReconciler.On("ScanAndReconcile", mock.Anything).Return(nil, errors.New("disk gone")).Once()

	_, err := service.Trigger(context.Background())
	assert.ErrorContains(t, err, "disk gone")
	mockReconciler.AssertExpectations(t)
}

func TestStartRunsImmediately(t *testing.T) {
	service, mockReconciler := setupTest(time.Hour)
	ran := make(chan struct{})
	mockReconciler.On("ScanAndReconcile", mock.Anything).
		Run(func(args mock.Arguments) { close(ran) }).
		Return(&models.ReconcileReport{RunID: "first"}, nil).Once()

	service.Start()
	select {
	case <-ran:
	case <-time.After(5 * time.Second):
		t.Fatal("rescan did not run on start")
	}
	service.Stop()
	mockReconciler.AssertExpectations(t)
}

func TestStartDisabled(t *testing.T) {
	service, mockReconciler := setupTest(0)
	service.Start()
	service.Stop()
	mockReconciler.AssertNotCalled(t, "ScanAndReconcile", mock.Anything)
}

func TestStart_Twice(t *testing.T) {
	t.Run("Disabled", func(t *testing.T) {
		service, mockReconciler := setupTest(0)
		service.Start()
		assert.NotPanics(t, service.Start)
		service.Stop()
		mockReconciler.AssertNotCalled(t, "ScanAndReconcile", mock.Anything)
	})

	t.Run("Single loop", func(t *testing.T) {
		service, mockReconciler := setupTest(time.Hour)
		ran := make(chan struct{}, 2)
		mockReconciler.On("ScanAndReconcile", mock.Anything).
			Run(func(args mock.Arguments) { ran <- struct{}{} }).
			Return(&models.ReconcileReport{RunID: "only"}, nil)

		service.Start()
		service.Start()
		select {
		case <-ran:
		case <-time.After(5 * time.Second):
			t.Fatal("rescan did not run on start")
		}
		select {
		case <-ran:
			t.Fatal("a second loop ran a rescan")
		case <-time.After(200 * time.Millisecond):
		}
		service.Stop()
		mockReconciler.AssertNumberOfCalls(t, "ScanAndReconcile", 1)
	})
}
