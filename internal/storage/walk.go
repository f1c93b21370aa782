package storage

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"mediashelf/internal/models"

	"github.com/spf13/afero"
)

// Walk lists every file and directory below root as slash separated relative
// paths, parents before children. Entries whose relative path is in skip are
// left out together with their contents, as are hidden entries.
func Walk(ctx context.Context, fs afero.Fs, root string, skip ...string) ([]models.ScanEntry, error) {
	skipped := make(map[string]struct{}, len(skip))
	for _, s := range skip {
		skipped[filepath.ToSlash(filepath.Clean(s))] = struct{}{}
	}

	var entries []models.ScanEntry
	err := afero.Walk(fs, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		if rel == "." {
			return nil
		}
		rel = filepath.ToSlash(rel)

		_, skip := skipped[rel]
		if skip || info.Name()[0] == '.' {
			if info.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		entries = append(entries, models.ScanEntry{
			RelPath: rel,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			ModTime: info.ModTime().Unix(),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	// lexical order on the slash path keeps parents ahead of their children
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].RelPath < entries[j].RelPath })
	return entries, nil
}
