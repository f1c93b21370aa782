// filepath: internal/housekeeping/interfaces.go
package housekeeping

import (
	"context"

	"mediashelf/internal/models"
)

// Reconciler is the library rescan required by the housekeeping service.
// This decouples the scheduling logic from the concrete reconciliation service.
type Reconciler interface {
	ScanAndReconcile(ctx context.Context) (*models.ReconcileReport, error)
}
