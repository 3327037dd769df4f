package renderer

import (
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// RenderStats contains statistics about the rendering process
type RenderStats struct {
	TotalPixels     int           // Total number of pixels rendered
	TotalSamples    int           // Total number of camera samples taken
	SamplesPerPixel int           // Samples taken for every pixel
	Chunks          int           // Number of row chunks
	Workers         int           // Number of concurrent workers
	Duration        time.Duration // Wall-clock render time
}

// Add accumulates the pixel and sample counts of other into s
func (s *RenderStats) Add(other RenderStats) {
	s.TotalPixels += other.TotalPixels
	s.TotalSamples += other.TotalSamples
}

// SamplesPerSecond returns the sampling throughput of the render
func (s RenderStats) SamplesPerSecond() float64 {
	if s.Duration <= 0 {
		return 0
	}
	return float64(s.TotalSamples) / s.Duration.Seconds()
}

// ChunkCompletionResult contains information about a completed chunk for progress callbacks
type ChunkCompletionResult struct {
	Chunk           Chunk
	Pixels          []core.Vec3 // Accumulated sums for the chunk, top row first
	Width           int
	SamplesPerPixel int

	// Progress information
	ChunkNumber   int // Number of chunks completed so far (1-based)
	TotalChunks   int // Total number of chunks in the image
	RowsCompleted int // Rows finished so far across all chunks
}

