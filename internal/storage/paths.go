// internal/storage/paths.go
package storage

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
)

// ThumbnailExt is appended to the relative path of an item to name its thumbnail.
const ThumbnailExt = ".jpg"

// Resolve joins a slash separated path relative to root and checks that the
// result stays inside root.
func Resolve(root, rel string) (string, error) {
	full := filepath.Join(root, filepath.FromSlash(rel))

	// --- SECURITY: Prevent Path Traversal ---
	cleaned := filepath.Clean(full)
	cleanedRoot := filepath.Clean(root)
	if cleaned == cleanedRoot || !strings.HasPrefix(cleaned, cleanedRoot+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path %q: potential path traversal", rel)
	}
	return cleaned, nil
}

// ThumbnailRel returns the path of the thumbnail of rel, relative to the library root.
func ThumbnailRel(thumbDir, rel string) string {
	return path.Join(thumbDir, rel) + ThumbnailExt
}

// ParentRel returns the relative path of the directory holding rel, or "" at the root.
func ParentRel(rel string) string {
	dir := path.Dir(rel)
	if dir == "." || dir == "/" {
		return ""
	}
	return dir
}
