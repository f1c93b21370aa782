// filepath: internal/models/models.go
// Package models contains the core data structures for the application.
package models

import (
	"errors"
	"fmt"
	"strings"

	"mediashelf/internal/shared"
)

// FileType classifies an item.
type FileType string

const (
	FileTypeFolder     FileType = "folder"
	FileTypeImage      FileType = "image"
	FileTypeVideo      FileType = "video"
	FileTypeVideoShort FileType = "video_short"
	FileTypeUnknown    FileType = "unknown"
)

// Valid reports whether t is one of the known file types.
func (t FileType) Valid() bool {
	switch t {
	case FileTypeFolder, FileTypeImage, FileTypeVideo, FileTypeVideoShort, FileTypeUnknown:
		return true
	}
	return false
}

// SeriesTag is the tag name that switches a folder into series view.
const SeriesTag = "series"

// MaxTagNameLength is the longest accepted tag name, in bytes.
const MaxTagNameLength = 64

// Item is a folder or media file in the library tree.
// Path is relative to the library root and uses forward slashes.
type Item struct {
	ID          int64    `json:"id"`
	Name        string   `json:"name"`
	Path        string   `json:"path"`
	FileType    FileType `json:"file_type"`
	CreatedAt   int64    `json:"created_at"`
	ParentID    *int64   `json:"parent_id,omitempty"`
	ContentHash string   `json:"content_hash"`
}

// IsFolder reports whether the item is a folder.
func (i *Item) IsFolder() bool { return i.FileType == FileTypeFolder }

// Tag is a vocabulary entry. AliasOf points at the canonical tag, if any.
type Tag struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	AliasOf   *int64 `json:"alias_of,omitempty"`
	CreatedAt int64  `json:"created_at"`
}

// TagUsage is a tag together with the number of distinct items linked to it.
type TagUsage struct {
	Tag
	Count int `json:"count"`
}

// NormalizeTagName trims and lower-cases a tag name and checks its length.
func NormalizeTagName(name string) (string, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	if normalized == "" {
		return "", fmt.Errorf("%w: tag name is empty", shared.ErrValidation)
	}
	if len(normalized) > MaxTagNameLength {
		return "", fmt.Errorf("%w: tag name longer than %d bytes", shared.ErrValidation, MaxTagNameLength)
	}
	return normalized, nil
}

// TagFailure records a requested tag name that could not be resolved.
type TagFailure struct {
	Name string `json:"name"`
	Err  error  `json:"-"`
}

// TagUpdateResult describes the outcome of replacing the tags of an item.
type TagUpdateResult struct {
	ItemID  int64        `json:"item_id"`
	Roots   []int64      `json:"roots"`
	Closure []int64      `json:"closure"`
	Added   []int64      `json:"added"`
	Removed []int64      `json:"removed"`
	Failed  []TagFailure `json:"failed,omitempty"`
}

// Err returns a PartialFailure error when some requested names failed, nil otherwise.
func (r *TagUpdateResult) Err() error {
	if r == nil || len(r.Failed) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Failed))
	for _, f := range r.Failed {
		errs = append(errs, fmt.Errorf("tag %q: %w", f.Name, f.Err))
	}
	return fmt.Errorf("%w: %d of the requested tags failed: %w", shared.ErrPartialFailure, len(r.Failed), errors.Join(errs...))
}

// DeletedItem is the minimal metadata needed to clean up files after a tree deletion.
type DeletedItem struct {
	ID       int64
	Path     string
	FileType FileType
}

// DeleteResult describes the outcome of deleting an item subtree.
type DeleteResult struct {
	Deleted    []DeletedItem `json:"-"`
	Count      int           `json:"count"`
	FileErrors []error       `json:"-"`
}

// Err returns a PartialFailure error when some files could not be removed.
func (r *DeleteResult) Err() error {
	if r == nil || len(r.FileErrors) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %d files could not be removed: %w", shared.ErrPartialFailure, len(r.FileErrors), errors.Join(r.FileErrors...))
}

// MoveResult describes the outcome of moving an item.
// ThumbnailErr is set when the item moved but its thumbnail did not follow.
type MoveResult struct {
	Item         *Item  `json:"item"`
	OldPath      string `json:"old_path"`
	ThumbnailErr error  `json:"-"`
}

// ListingMode names which of the listing branches produced a page.
type ListingMode string

const (
	ListingModeItem    ListingMode = "item"
	ListingModeTags    ListingMode = "tags"
	ListingModeDefault ListingMode = "default"
)

// ListingRequest selects what a listing shows. ItemID wins over Tags.
type ListingRequest struct {
	ItemID *int64
	Tags   []string
	Page   int
}

// Listing is one page of the library with its tag facets.
type Listing struct {
	Mode        ListingMode    `json:"mode"`
	Items       []Item         `json:"items"`
	Item        *Item          `json:"item,omitempty"`
	ItemTags    []string       `json:"item_tags,omitempty"`
	SeriesView  bool           `json:"series_view"`
	Page        int            `json:"page"`
	PageSize    int            `json:"page_size"`
	TotalItems  int            `json:"total_items"`
	TotalPages  int            `json:"total_pages"`
	Facets      map[string]int `json:"facets"`
	RequestTags []string       `json:"request_tags,omitempty"`
}

// ScanEntry is one filesystem entry observed under the library root.
type ScanEntry struct {
	RelPath string
	IsDir   bool
	Size    int64
	ModTime int64
}

// ReconcileReport summarizes a reconciliation run.
type ReconcileReport struct {
	RunID        string   `json:"run_id"`
	Scanned      int      `json:"scanned"`
	Inserted     int      `json:"inserted"`
	Updated      int      `json:"updated"`
	Unchanged    int      `json:"unchanged"`
	Skipped      int      `json:"skipped"`
	Duplicates   int      `json:"duplicates"`
	Discarded    int      `json:"discarded"`
	Failed       int      `json:"failed"`
	Thumbnails   int      `json:"thumbnails"`
	Errors       []string `json:"errors,omitempty"`
	Cancelled    bool     `json:"cancelled"`
	DurationSecs float64  `json:"duration_secs"`
}

// ThumbnailRequest asks for the thumbnail of one item to be rendered.
// Children holds up to four child sources for folder composites.
type ThumbnailRequest struct {
	Source   string
	FileType FileType
	Dest     string
	Force    bool
	Children []string
}
