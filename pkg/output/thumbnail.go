package output

import (
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/nfnt/resize"
)

// Thumbnail scales src down to fit within maxSize x maxSize, keeping the aspect ratio.
// Images that already fit are returned unchanged.
func Thumbnail(src image.Image, maxSize uint) image.Image {
	return resize.Thumbnail(maxSize, maxSize, src, resize.Bilinear)
}

// ThumbnailPath returns the sibling path used for a thumbnail of path, always a PNG
func ThumbnailPath(path string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "_thumb.png"
}

// SaveThumbnail writes a thumbnail of src next to path and returns its location
func SaveThumbnail(path string, src image.Image, maxSize uint) (string, error) {
	thumbPath := ThumbnailPath(path)
	if err := imaging.Save(Thumbnail(src, maxSize), thumbPath); err != nil {
		return "", fmt.Errorf("failed to save thumbnail: %w", err)
	}
	return thumbPath, nil
}
