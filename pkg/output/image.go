package output

import (
	"fmt"
	"image"
	"image/color"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/disintegration/imaging"
)

// ToRGBA converts a rendered image to an 8-bit Go image
func ToRGBA(img *renderer.Image, opts Options) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := pixelColor(img, x, y, opts)
			out.SetNRGBA(x, y, color.NRGBA{R: toByte(c.X), G: toByte(c.Y), B: toByte(c.Z), A: 255})
		}
	}
	return out
}

// Encode writes img to w in the given format
func Encode(w io.Writer, img *renderer.Image, format imaging.Format, opts Options) error {
	if err := imaging.Encode(w, ToRGBA(img, opts), format); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// Save writes img to path, choosing the encoding from the file extension.
// .ppm files are written as P3; every format imaging supports is accepted as well.
func Save(path string, img *renderer.Image, opts Options) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	if strings.EqualFold(filepath.Ext(path), ".ppm") {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		if err := WritePPM(f, img, opts); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}

	if _, err := imaging.FormatFromFilename(path); err != nil {
		return fmt.Errorf("unsupported output format for %s: %w", path, err)
	}
	if err := imaging.Save(ToRGBA(img, opts), path); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
