// filepath: internal/housekeeping/tasks.go
package housekeeping

import (
	"context"
	"fmt"
	"time"

	"mediashelf/internal/logging"
	"mediashelf/internal/models"
)

// Dependencies defines the required services for the housekeeping tasks.
type Dependencies struct {
	Reconciler Reconciler
}

// RunRescan executes one rescan of the library and logs its outcome.
func RunRescan(ctx context.Context, deps Dependencies) (*models.ReconcileReport, error) {
	report, err := deps.Reconciler.ScanAndReconcile(ctx)
	if err != nil && report == nil {
		return nil, fmt.Errorf("rescan failed: %w", err)
	}

	logging.Log.Infof("Rescan %s complete in %s: %d scanned, %d inserted, %d updated, %d duplicates, %d failed.",
		report.RunID,
		time.Duration(report.DurationSecs*float64(time.Second)).Round(time.Millisecond),
		report.Scanned, report.Inserted, report.Updated, report.Duplicates, report.Failed)
	return report, err
}
