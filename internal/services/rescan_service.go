// filepath: internal/services/rescan_service.go
package services

import (
	"context"
	"time"

	"mediashelf/internal/housekeeping"
	"mediashelf/internal/models"
)

// RescanService defines the interface for the periodic library rescan.
type RescanService interface {
	Start()
	Stop()
	TriggerRescan(ctx context.Context) (*models.ReconcileReport, error)
}

var _ RescanService = (*rescanService)(nil)

// rescanService manages the lifecycle of the background rescan worker
// and provides a method for manual triggering.
type rescanService struct {
	worker *housekeeping.Service
}

// NewRescanService creates a new RescanService running reconciler every interval.
func NewRescanService(reconciler ReconcileService, interval time.Duration) *rescanService {
	deps := housekeeping.Dependencies{
		Reconciler: reconciler, // The reconcile service satisfies the Reconciler interface
	}
	return &rescanService{worker: housekeeping.NewService(deps, interval)}
}

// Start begins the background rescan worker.
func (s *rescanService) Start() {
	s.worker.Start()
}

// Stop terminates the background rescan worker.
func (s *rescanService) Stop() {
	s.worker.Stop()
}

// TriggerRescan runs a rescan now. The automatic timer counts from this run.
func (s *rescanService) TriggerRescan(ctx context.Context) (*models.ReconcileReport, error) {
	return s.worker.Trigger(ctx)
}
