package renderer

import (
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// chunksPerWorker controls the automatic chunk size; more chunks than workers keeps
// every worker busy when some rows are much more expensive than others
const chunksPerWorker = 4

// Chunk is a contiguous band of image rows [StartRow, EndRow).
// Row 0 is the bottom of the image.
type Chunk struct {
	Index    int
	StartRow int
	EndRow   int
}

// Rows returns the number of rows in the chunk
func (c Chunk) Rows() int {
	return c.EndRow - c.StartRow
}

func (c Chunk) String() string {
	return fmt.Sprintf("chunk %d (rows %d-%d)", c.Index, c.StartRow, c.EndRow-1)
}

// ChunkResult holds the accumulated color sums of one chunk.
// Pixels are ordered from the chunk's top row (EndRow-1) down, each row left to right.
type ChunkResult struct {
	Chunk  Chunk
	Pixels []core.Vec3
	Stats  RenderStats
}

// AutoChunkSize picks a chunk height for the given image height and worker count
func AutoChunkSize(height, numWorkers int) int {
	numWorkers = max(1, numWorkers)
	target := numWorkers * chunksPerWorker
	return max(1, (height+target-1)/target)
}

// PlanChunks partitions height rows into contiguous chunks of at most chunkSize rows,
// starting from the bottom row. Chunk indices increase with row index.
func PlanChunks(height, chunkSize int) []Chunk {
	if height <= 0 {
		return nil
	}
	chunkSize = max(1, chunkSize)

	chunks := make([]Chunk, 0, (height+chunkSize-1)/chunkSize)
	for start := 0; start < height; start += chunkSize {
		chunks = append(chunks, Chunk{
			Index:    len(chunks),
			StartRow: start,
			EndRow:   min(start+chunkSize, height),
		})
	}
	return chunks
}
