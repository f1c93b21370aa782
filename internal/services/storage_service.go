// filepath: internal/services/storage_service.go
package services

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"
	"mediashelf/internal/models"
	"mediashelf/internal/shared"
	"mediashelf/internal/storage"

	"github.com/spf13/afero"
)

var _ Storage = (*StorageService)(nil)

// StorageService provides an interface for interacting with the library on disk.
// It wraps the 'internal/storage' package to be injectable.
type StorageService struct {
	Fs           afero.Fs
	Root         string
	ThumbnailDir string
}

// NewStorageService creates a new StorageService over fs.
func NewStorageService(cfg *config.Config, fs afero.Fs) *StorageService {
	return &StorageService{
		Fs:           fs,
		Root:         cfg.Library.Root,
		ThumbnailDir: cfg.Library.ThumbnailDir,
	}
}

// AbsPath resolves a library relative path.
func (s *StorageService) AbsPath(rel string) (string, error) {
	p, err := storage.Resolve(s.Root, rel)
	if err != nil {
		logging.Log.Warnf("Path traversal attempt blocked for: %s", rel)
		return "", fmt.Errorf("%w: %v", shared.ErrValidation, err)
	}
	return p, nil
}

// ThumbnailPath resolves the thumbnail file of a library relative path.
func (s *StorageService) ThumbnailPath(rel string) (string, error) {
	return s.AbsPath(storage.ThumbnailRel(s.ThumbnailDir, rel))
}

// thumbnailDirPath resolves the directory holding the thumbnails of a folder's contents.
func (s *StorageService) thumbnailDirPath(rel string) (string, error) {
	return s.AbsPath(s.ThumbnailDir + "/" + rel)
}

// MoveItemFile moves the backing file or directory of an item.
func (s *StorageService) MoveItemFile(oldRel, newRel string) error {
	src, err := s.AbsPath(oldRel)
	if err != nil {
		return err
	}
	dst, err := s.AbsPath(newRel)
	if err != nil {
		return err
	}
	if err := storage.MoveFile(s.Fs, src, dst); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrIO, err)
	}
	return nil
}

// MoveThumbnail moves the thumbnail of an item and, for folders, the
// thumbnails of its contents. Missing thumbnails are skipped.
func (s *StorageService) MoveThumbnail(oldRel, newRel string) error {
	var errs []error

	src, err := s.ThumbnailPath(oldRel)
	if err != nil {
		return err
	}
	dst, err := s.ThumbnailPath(newRel)
	if err != nil {
		return err
	}
	if err := s.moveIfExists(src, dst); err != nil {
		errs = append(errs, err)
	}

	srcDir, err := s.thumbnailDirPath(oldRel)
	if err != nil {
		return err
	}
	dstDir, err := s.thumbnailDirPath(newRel)
	if err != nil {
		return err
	}
	if err := s.moveIfExists(srcDir, dstDir); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", shared.ErrIO, errors.Join(errs...))
	}
	return nil
}

func (s *StorageService) moveIfExists(src, dst string) error {
	if _, err := s.Fs.Stat(src); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return storage.MoveFile(s.Fs, src, dst)
}

// RemoveItemFiles deletes the backing file and the thumbnail of an item.
// Files that are already gone are not an error.
func (s *StorageService) RemoveItemFiles(rel string) error {
	var errs []error
	if p, err := s.AbsPath(rel); err != nil {
		errs = append(errs, err)
	} else if err := storage.RemovePath(s.Fs, p); err != nil {
		errs = append(errs, err)
	}
	if p, err := s.ThumbnailPath(rel); err != nil {
		errs = append(errs, err)
	} else if err := storage.RemovePath(s.Fs, p); err != nil {
		errs = append(errs, err)
	}
	if p, err := s.thumbnailDirPath(rel); err == nil {
		if err := storage.RemovePath(s.Fs, p); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %s: %w", shared.ErrIO, rel, errors.Join(errs...))
	}
	return nil
}

// Hash returns the content key of an entry: a digest of the bytes for files,
// of the relative path for directories.
func (s *StorageService) Hash(rel string, isDir bool) (string, error) {
	if isDir {
		return storage.HashPath(rel), nil
	}
	p, err := s.AbsPath(rel)
	if err != nil {
		return "", err
	}
	sum, err := storage.HashFile(s.Fs, p)
	if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrIO, err)
	}
	return sum, nil
}

// Scan lists the library, leaving out the thumbnail directory.
func (s *StorageService) Scan(ctx context.Context) ([]models.ScanEntry, error) {
	if exists, err := afero.DirExists(s.Fs, s.Root); err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrIO, err)
	} else if !exists {
		return nil, fmt.Errorf("%w: library root %s does not exist", shared.ErrIO, s.Root)
	}
	entries, err := storage.Walk(ctx, s.Fs, s.Root, strings.Trim(s.ThumbnailDir, "/"))
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %v", shared.ErrIO, err)
	}
	return entries, nil
}
