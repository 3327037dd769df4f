package output

import (
	"bufio"
	"fmt"
	"io"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
)

// Options controls how accumulated pixel sums become 8-bit colors
type Options struct {
	Gamma float64 // Gamma applied after averaging; 0 or 1 writes linear values
}

// DefaultOptions writes linear values
func DefaultOptions() Options {
	return Options{Gamma: 1.0}
}

// pixelColor averages, gamma corrects and clamps a pixel to [0, 1]
func pixelColor(img *renderer.Image, x, y int, opts Options) core.Vec3 {
	c := img.At(x, y)
	if opts.Gamma > 0 && opts.Gamma != 1.0 {
		c = c.GammaCorrect(opts.Gamma)
	}
	return c.Clamp(0, 1)
}

// toByte maps a clamped channel value to 0..255
func toByte(v float64) uint8 {
	return uint8(255.999 * v)
}

// WritePPM writes img as a plain-text PPM (P3), top row first
func WritePPM(w io.Writer, img *renderer.Image, opts Options) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P3\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("failed to write PPM header: %w", err)
	}

	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := pixelColor(img, x, y, opts)
			if _, err := fmt.Fprintf(bw, "%d %d %d\n", toByte(c.X), toByte(c.Y), toByte(c.Z)); err != nil {
				return fmt.Errorf("failed to write PPM pixels: %w", err)
			}
		}
	}

	return bw.Flush()
}

// WritePPMBinary writes img as a binary PPM (P6), top row first
func WritePPMBinary(w io.Writer, img *renderer.Image, opts Options) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P6\n%d %d\n255\n", img.Width, img.Height); err != nil {
		return fmt.Errorf("failed to write PPM header: %w", err)
	}

	row := make([]byte, 3*img.Width)
	for y := 0; y < img.Height; y++ {
		for x := 0; x < img.Width; x++ {
			c := pixelColor(img, x, y, opts)
			row[3*x], row[3*x+1], row[3*x+2] = toByte(c.X), toByte(c.Y), toByte(c.Z)
		}
		if _, err := bw.Write(row); err != nil {
			return fmt.Errorf("failed to write PPM pixels: %w", err)
		}
	}

	return bw.Flush()
}
