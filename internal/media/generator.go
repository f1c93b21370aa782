// filepath: internal/media/generator.go
package media

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/jpeg"
	"path/filepath"

	"mediashelf/internal/config"
	"mediashelf/internal/logging"
	"mediashelf/internal/models"

	"github.com/spf13/afero"
)

// Generator renders item thumbnails onto a filesystem.
type Generator struct {
	Fs    afero.Fs
	Width int
}

// NewGenerator creates a thumbnail generator and resolves ffmpeg once.
func NewGenerator(fs afero.Fs, cfg config.MediaConfig) *Generator {
	Initialize(cfg.FFmpegPath)
	width := cfg.ThumbnailWidth
	if width <= 0 {
		width = DefaultThumbnailWidth
	}
	return &Generator{Fs: fs, Width: width}
}

// Generate writes the thumbnail described by req.
// An existing destination is kept unless req.Force is set.
func (g *Generator) Generate(ctx context.Context, req models.ThumbnailRequest) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !req.Force {
		if _, err := g.Fs.Stat(req.Dest); err == nil {
			return nil
		}
	}

	var data []byte
	var err error
	switch req.FileType {
	case models.FileTypeImage:
		data, err = g.imageThumbnail(req.Source)
	case models.FileTypeVideo, models.FileTypeVideoShort:
		data, err = g.videoThumbnail(ctx, req.Source)
	case models.FileTypeFolder:
		data, err = g.folderThumbnail(req.Children)
	default:
		return fmt.Errorf("no thumbnail for file type %q", req.FileType)
	}
	if err != nil {
		return fmt.Errorf("thumbnail for %s: %w", req.Source, err)
	}
	return g.write(req.Dest, data)
}

func (g *Generator) imageThumbnail(source string) ([]byte, error) {
	f, err := g.Fs.Open(source)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var buf bytes.Buffer
	if err := CreateImageThumbnail(f, &buf, g.Width); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// videoThumbnail hands the source path to ffmpeg, so the filesystem must be backed by the OS.
func (g *Generator) videoThumbnail(ctx context.Context, source string) ([]byte, error) {
	if _, err := g.Fs.Stat(source); err != nil {
		return nil, err
	}
	return ExtractVideoFrame(ctx, source, g.Width)
}

func (g *Generator) folderThumbnail(children []string) ([]byte, error) {
	tiles := make([]image.Image, 0, len(children))
	for _, child := range children {
		img, err := g.decode(child)
		if err != nil {
			logging.Log.Debugf("Skipping composite tile %s: %v", child, err)
			continue
		}
		tiles = append(tiles, img)
	}
	if len(tiles) == 0 {
		return nil, fmt.Errorf("none of %d child thumbnails could be read", len(children))
	}

	out, err := Composite(tiles, g.Width)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, out, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode composite to jpeg: %w", err)
	}
	return buf.Bytes(), nil
}

func (g *Generator) decode(p string) (image.Image, error) {
	f, err := g.Fs.Open(p)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func (g *Generator) write(dest string, data []byte) error {
	if err := g.Fs.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create thumbnail directory: %w", err)
	}
	if err := afero.WriteFile(g.Fs, dest, data, 0o644); err != nil {
		_ = g.Fs.Remove(dest)
		return fmt.Errorf("failed to write thumbnail %s: %w", dest, err)
	}
	return nil
}
