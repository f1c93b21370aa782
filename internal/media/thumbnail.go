// filepath: internal/media/thumbnail.go
package media

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"io"

	// Import decoders for common formats
	_ "image/gif"
	_ "image/png"

	"golang.org/x/image/draw"

	// Pure Go decoders for the remaining library formats
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

const (
	// DefaultThumbnailWidth is the width of a thumbnail when none is configured.
	DefaultThumbnailWidth = 300
	// thumbnailQuality is the JPEG quality of written thumbnails.
	thumbnailQuality = 75
)

// ScaleToWidth returns img scaled to width with its aspect ratio kept.
// Images narrower than width are not scaled up.
func ScaleToWidth(img image.Image, width int) (image.Image, error) {
	b := img.Bounds()
	origWidth, origHeight := b.Dx(), b.Dy()
	if origWidth == 0 || origHeight == 0 {
		return nil, fmt.Errorf("cannot create thumbnail for zero-dimension image")
	}
	if origWidth <= width {
		return img, nil
	}

	newHeight := (origHeight * width) / origWidth
	if newHeight < 1 {
		newHeight = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, width, newHeight))
	draw.ApproxBiLinear.Scale(dst, dst.Rect, img, b, draw.Over, nil)
	return dst, nil
}

// CreateImageThumbnail decodes an image from src and writes a JPEG thumbnail of the given width to dst.
func CreateImageThumbnail(src io.Reader, dst io.Writer, width int) error {
	img, _, err := image.Decode(src)
	if err != nil {
		return fmt.Errorf("could not decode image for thumbnail: %w", err)
	}
	scaled, err := ScaleToWidth(img, width)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(dst, scaled, &jpeg.Options{Quality: thumbnailQuality}); err != nil {
		return fmt.Errorf("failed to encode thumbnail to jpeg: %w", err)
	}
	return nil
}

// Composite tiles up to four images into a 2x2 grid of the given width.
// Each tile keeps its aspect ratio and is centered in its cell.
func Composite(tiles []image.Image, width int) (image.Image, error) {
	if len(tiles) == 0 {
		return nil, fmt.Errorf("no images to composite")
	}
	if len(tiles) > 4 {
		tiles = tiles[:4]
	}

	const gap = 1
	cell := (width - 3*gap) / 2
	if cell < 1 {
		return nil, fmt.Errorf("composite width %d is too small", width)
	}
	out := image.NewRGBA(image.Rect(0, 0, width, width))
	draw.Draw(out, out.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	for i, tile := range tiles {
		b := tile.Bounds()
		if b.Dx() == 0 || b.Dy() == 0 {
			continue
		}
		// fit the tile inside the cell
		w, h := cell, (b.Dy()*cell)/b.Dx()
		if h > cell {
			w, h = (b.Dx()*cell)/b.Dy(), cell
		}
		x0 := gap + (i%2)*(cell+gap) + (cell-w)/2
		y0 := gap + (i/2)*(cell+gap) + (cell-h)/2
		draw.ApproxBiLinear.Scale(out, image.Rect(x0, y0, x0+w, y0+h), tile, b, draw.Over, nil)
	}
	return out, nil
}
