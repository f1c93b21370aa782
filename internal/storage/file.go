// filepath: internal/storage/file.go
// Package storage provides functionality for storing and managing the files of the library.
package storage

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
	"golang.org/x/crypto/blake2b"
)

// SaveFile saves data from a reader to path, creating missing directories.
// It streams the data to avoid loading it entirely into memory.
func SaveFile(fs afero.Fs, data io.Reader, path string) (int64, error) {
	if err := fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return 0, fmt.Errorf("could not create directory: %w", err)
	}
	f, err := fs.Create(path)
	if err != nil {
		return 0, fmt.Errorf("could not create file: %w", err)
	}
	defer f.Close()

	size, err := io.Copy(f, data)
	if err != nil {
		return 0, fmt.Errorf("could not write file: %w", err)
	}
	return size, nil
}

// MoveFile renames src to dst, creating the destination directory.
// It refuses to overwrite an existing destination.
func MoveFile(fs afero.Fs, src, dst string) error {
	if _, err := fs.Stat(src); err != nil {
		return fmt.Errorf("source %s: %w", src, err)
	}
	if _, err := fs.Stat(dst); err == nil {
		return fmt.Errorf("destination %s already exists", dst)
	} else if !errors.Is(err, os.ErrNotExist) {
		return err
	}
	if err := fs.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return fmt.Errorf("could not create directory: %w", err)
	}
	if err := fs.Rename(src, dst); err != nil {
		return fmt.Errorf("could not move %s to %s: %w", src, dst, err)
	}
	return nil
}

// RemovePath deletes a file or a directory tree. A missing path is not an error.
func RemovePath(fs afero.Fs, path string) error {
	info, err := fs.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	if info.IsDir() {
		err = fs.RemoveAll(path)
	} else {
		err = fs.Remove(path)
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete %s: %w", path, err)
	}
	return nil
}

// HashFile returns the hex encoded BLAKE2b-256 digest of the file contents.
func HashFile(fs afero.Fs, path string) (string, error) {
	f, err := fs.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h, err := blake2b.New256(nil)
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("could not read %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashPath returns the digest used as the content key of a folder.
func HashPath(rel string) string {
	sum := blake2b.Sum256([]byte(rel))
	return hex.EncodeToString(sum[:])
}
