// filepath: internal/services/interfaces.go
package services

import (
	"context"

	"mediashelf/internal/models"
)

// Auditor defines the interface for recording library mutations.
type Auditor interface {
	// Log records an event.
	// action: what happened (e.g., "item.move", "tag.delete")
	// actor: who did it
	// resource: what was affected (e.g., "Item:101", "Tag:cat")
	// details: structured metadata about the event
	Log(ctx context.Context, action string, actor string, resource string, details map[string]interface{})
}

// Thumbnailer renders thumbnails. Only success or failure is reported.
type Thumbnailer interface {
	Generate(ctx context.Context, req models.ThumbnailRequest) error
}

// Storage defines the filesystem operations the services need.
type Storage interface {
	AbsPath(rel string) (string, error)
	ThumbnailPath(rel string) (string, error)
	MoveItemFile(oldRel, newRel string) error
	MoveThumbnail(oldRel, newRel string) error
	RemoveItemFiles(rel string) error
	Hash(rel string, isDir bool) (string, error)
	Scan(ctx context.Context) ([]models.ScanEntry, error)
}

// TagService defines the interface for the tag service.
type TagService interface {
	UpdateItemTags(ctx context.Context, itemID int64, names []string) (*models.TagUpdateResult, error)
	ListUsage(ctx context.Context) ([]models.TagUsage, error)
	GetDependencies(ctx context.Context, name string) ([]models.Tag, error)
	SetDependencies(ctx context.Context, name string, deps []string) error
	UpdateTag(ctx context.Context, name, newName string, deps []string) (*models.Tag, error)
	SetAlias(ctx context.Context, name, target string) error
	DeleteTag(ctx context.Context, name string) error
}

// ItemService defines the interface for the item service.
type ItemService interface {
	Insert(ctx context.Context, item *models.Item) (*models.Item, error)
	Move(ctx context.Context, id int64, newParentID *int64, newName string) (*models.MoveResult, error)
	Delete(ctx context.Context, id int64) (*models.DeleteResult, error)
	Folders(ctx context.Context) ([]models.Item, error)
}

// ListingService defines the interface for the listing service.
type ListingService interface {
	List(ctx context.Context, req models.ListingRequest) (*models.Listing, error)
}

// ReconcileService defines the interface for the reconciliation service.
type ReconcileService interface {
	Reconcile(ctx context.Context, entries []models.ScanEntry) (*models.ReconcileReport, error)
	ScanAndReconcile(ctx context.Context) (*models.ReconcileReport, error)
}
