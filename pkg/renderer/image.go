package renderer

import (
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// Image is a dense grid of accumulated color sums in output order:
// the top row first, each row left to right.
type Image struct {
	Width           int
	Height          int
	SamplesPerPixel int
	Pixels          []core.Vec3 // Per-pixel sums of SamplesPerPixel samples
}

// NewImage allocates a black image
func NewImage(width, height, samplesPerPixel int) *Image {
	return &Image{
		Width:           width,
		Height:          height,
		SamplesPerPixel: samplesPerPixel,
		Pixels:          make([]core.Vec3, width*height),
	}
}

// Sum returns the accumulated color sum at column x, row y (y = 0 is the top row)
func (img *Image) Sum(x, y int) core.Vec3 {
	return img.Pixels[y*img.Width+x]
}

// At returns the mean color at column x, row y (y = 0 is the top row)
func (img *Image) At(x, y int) core.Vec3 {
	return averageSamples(img.Sum(x, y), img.SamplesPerPixel)
}

// averageSamples divides an accumulated sum by its sample count
func averageSamples(sum core.Vec3, samples int) core.Vec3 {
	if samples <= 0 {
		return core.Vec3{}
	}
	return sum.Multiply(1.0 / float64(samples))
}

// assembleImage concatenates chunk results that are already sorted top-down
func assembleImage(width, height, samplesPerPixel int, results []ChunkResult) (*Image, error) {
	img := &Image{
		Width:           width,
		Height:          height,
		SamplesPerPixel: samplesPerPixel,
		Pixels:          make([]core.Vec3, 0, width*height),
	}

	expectedTop := height
	for _, result := range results {
		if result.Chunk.EndRow != expectedTop {
			return nil, fmt.Errorf("missing rows %d-%d in render output", result.Chunk.EndRow, expectedTop-1)
		}
		if len(result.Pixels) != result.Chunk.Rows()*width {
			return nil, fmt.Errorf("%s returned %d pixels, expected %d", result.Chunk, len(result.Pixels), result.Chunk.Rows()*width)
		}
		img.Pixels = append(img.Pixels, result.Pixels...)
		expectedTop = result.Chunk.StartRow
	}
	if expectedTop != 0 {
		return nil, fmt.Errorf("missing rows 0-%d in render output", expectedTop-1)
	}

	return img, nil
}

// AverageLuminance returns the mean perceptual luminance of the image's averaged colors
func AverageLuminance(img *Image) float64 {
	if img == nil || len(img.Pixels) == 0 {
		return 0
	}
	total := 0.0
	for _, sum := range img.Pixels {
		total += averageSamples(sum, img.SamplesPerPixel).Luminance()
	}
	return total / float64(len(img.Pixels))
}
