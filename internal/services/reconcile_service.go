// filepath: internal/services/reconcile_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/repository"
	"mediashelf/internal/shared"
	"mediashelf/internal/storage"

	"github.com/oklog/ulid/v2"
	"github.com/sirupsen/logrus"
)

var _ ReconcileService = (*reconcileService)(nil)

// maxCompositeChildren is the number of child thumbnails a folder thumbnail is built from.
const maxCompositeChildren = 4

// reconcileService brings the item store in line with what is on disk.
type reconcileService struct {
	Repo        *repository.Repository
	Storage     Storage
	Thumbnailer Thumbnailer
	Cfg         *config.Config
}

// NewReconcileService creates a new ReconcileService.
func NewReconcileService(repo *repository.Repository, storage Storage, thumbnailer Thumbnailer, cfg *config.Config) *reconcileService {
	return &reconcileService{
		Repo:        repo,
		Storage:     storage,
		Thumbnailer: thumbnailer,
		Cfg:         cfg,
	}
}

// ScanAndReconcile walks the library and reconciles everything found.
func (s *reconcileService) ScanAndReconcile(ctx context.Context) (*models.ReconcileReport, error) {
	entries, err := s.Storage.Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scan library: %w", err)
	}
	return s.Reconcile(ctx, entries)
}

// Reconcile inserts unseen paths, updates changed file types and leaves
// everything else alone. Entries must list parents before their children.
// A failing entry is recorded in the report and the run continues; a
// cancelled context stops the run between entries.
func (s *reconcileService) Reconcile(ctx context.Context, entries []models.ScanEntry) (*models.ReconcileReport, error) {
	start := time.Now()
	report := &models.ReconcileReport{RunID: ulid.Make().String()}
	log := logging.Log.WithField("run_id", report.RunID)
	log.Infof("Reconcile: starting with %d entries", len(entries))

	var folders []int64
	for _, entry := range entries {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		report.Scanned++

		item, err := s.reconcileEntry(ctx, entry, report, log)
		if err != nil {
			report.Failed++
			report.Errors = append(report.Errors, fmt.Sprintf("%s: %v", entry.RelPath, err))
			log.Warnf("Reconcile: %s: %v", entry.RelPath, err)
			continue
		}
		if item != nil && item.IsFolder() {
			folders = append(folders, item.ID)
		}
	}

	// Folder composites are built from child thumbnails, so deepest folders go first.
	for i := len(folders) - 1; i >= 0 && !report.Cancelled; i-- {
		if ctx.Err() != nil {
			report.Cancelled = true
			break
		}
		s.folderThumbnail(ctx, folders[i], report, log)
	}

	report.DurationSecs = time.Since(start).Seconds()
	log.WithFields(logrus.Fields{
		"scanned":    report.Scanned,
		"inserted":   report.Inserted,
		"updated":    report.Updated,
		"duplicates": report.Duplicates,
		"failed":     report.Failed,
		"cancelled":  report.Cancelled,
	}).Info("Reconcile: finished")

	if report.Cancelled {
		return report, ctx.Err()
	}
	return report, nil
}

// reconcileEntry handles one scanned entry and returns the stored item, or nil
// when nothing is stored for it.
func (s *reconcileService) reconcileEntry(ctx context.Context, entry models.ScanEntry, report *models.ReconcileReport, log *logrus.Entry) (*models.Item, error) {
	if err := repository.ValidateRelPath(entry.RelPath); err != nil {
		return nil, err
	}
	fileType := ClassifyEntry(entry, s.Cfg.ShortVideoMaxBytes)

	existing, err := s.Repo.GetItemByPath(ctx, entry.RelPath)
	switch {
	case err == nil:
		if existing.FileType != fileType {
			if err := s.Repo.UpdateFileType(ctx, existing.ID, fileType); err != nil {
				return nil, err
			}
			log.Debugf("Reconcile: %s changed from %s to %s", entry.RelPath, existing.FileType, fileType)
			existing.FileType = fileType
			report.Updated++
		} else {
			report.Unchanged++
		}
		s.fileThumbnail(ctx, existing, false, report, log)
		return existing, nil
	case !errors.Is(err, shared.ErrNotFound):
		return nil, err
	}

	if fileType == models.FileTypeUnknown {
		report.Skipped++
		return nil, nil
	}

	item := &models.Item{
		Name:     path.Base(entry.RelPath),
		Path:     entry.RelPath,
		FileType: fileType,
	}
	if parentRel := storage.ParentRel(entry.RelPath); parentRel != "" {
		parent, err := s.Repo.GetItemByPath(ctx, parentRel)
		if err == nil && parent.IsFolder() {
			item.ParentID = &parent.ID
		} else if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
	}

	item.ContentHash, err = s.Storage.Hash(entry.RelPath, entry.IsDir)
	if err != nil {
		return nil, err
	}

	created, err := s.Repo.InsertItem(ctx, item)
	if errors.Is(err, shared.ErrConflict) {
		report.Duplicates++
		log.Infof("Reconcile: %s duplicates stored content: %v", entry.RelPath, err)
		if s.Cfg.Library.DiscardDuplicates && !entry.IsDir {
			if err := s.Storage.RemoveItemFiles(entry.RelPath); err != nil {
				return nil, err
			}
			report.Discarded++
		}
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	report.Inserted++

	s.fileThumbnail(ctx, created, false, report, log)
	return created, nil
}

// fileThumbnail renders the thumbnail of a non-folder item. Failures are logged only.
func (s *reconcileService) fileThumbnail(ctx context.Context, item *models.Item, force bool, report *models.ReconcileReport, log *logrus.Entry) {
	if s.Thumbnailer == nil || item.IsFolder() || item.FileType == models.FileTypeUnknown {
		return
	}
	req, err := s.thumbnailRequest(item, force)
	if err == nil {
		err = s.Thumbnailer.Generate(ctx, req)
	}
	if err != nil {
		log.Warnf("Reconcile: thumbnail for %s failed: %v", item.Path, err)
		return
	}
	report.Thumbnails++
}

// folderThumbnail renders a composite of the first child thumbnails of a folder.
func (s *reconcileService) folderThumbnail(ctx context.Context, folderID int64, report *models.ReconcileReport, log *logrus.Entry) {
	if s.Thumbnailer == nil {
		return
	}
	folder, err := s.Repo.GetItem(ctx, folderID)
	if err != nil {
		log.Warnf("Reconcile: folder %d vanished: %v", folderID, err)
		return
	}
	children, _, err := s.Repo.FindChildren(ctx, folderID, maxCompositeChildren, 0)
	if err != nil {
		log.Warnf("Reconcile: children of %s: %v", folder.Path, err)
		return
	}

	req, err := s.thumbnailRequest(folder, true)
	if err != nil {
		log.Warnf("Reconcile: thumbnail for %s failed: %v", folder.Path, err)
		return
	}
	for _, child := range children {
		if p, err := s.Storage.ThumbnailPath(child.Path); err == nil {
			req.Children = append(req.Children, p)
		}
	}
	if len(req.Children) == 0 {
		return
	}
	if err := s.Thumbnailer.Generate(ctx, req); err != nil {
		log.Warnf("Reconcile: thumbnail for %s failed: %v", folder.Path, err)
		return
	}
	report.Thumbnails++
}

func (s *reconcileService) thumbnailRequest(item *models.Item, force bool) (models.ThumbnailRequest, error) {
	src, err := s.Storage.AbsPath(item.Path)
	if err != nil {
		return models.ThumbnailRequest{}, err
	}
	dst, err := s.Storage.ThumbnailPath(item.Path)
	if err != nil {
		return models.ThumbnailRequest{}, err
	}
	return models.ThumbnailRequest{Source: src, FileType: item.FileType, Dest: dst, Force: force}, nil
}
