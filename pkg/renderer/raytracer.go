package renderer

import (
	"context"
	"math/rand"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
)

// Scene is the read-only view of a scene the renderer needs
type Scene interface {
	GetCamera() core.Camera
	GetWorld() geometry.Shape
}

// Config controls how a render is parallelised
type Config struct {
	NumWorkers int   // Number of parallel workers (0 = use CPU count)
	ChunkSize  int   // Rows per chunk (0 = derive from height and workers)
	Seed       int64 // Base seed; every row derives its own generator from it
}

// DefaultConfig returns sensible default values
func DefaultConfig() Config {
	return Config{
		NumWorkers: 0,
		ChunkSize:  0,
		Seed:       42,
	}
}

// Raytracer renders a scene into an Image using row chunks rendered in parallel
type Raytracer struct {
	scene      Scene
	sampling   core.SamplingConfig
	config     Config
	integrator integrator.Integrator
	logger     core.Logger
}

// NewRaytracer creates a new raytracer with the path tracing integrator
func NewRaytracer(scene Scene, sampling core.SamplingConfig) *Raytracer {
	return &Raytracer{
		scene:      scene,
		sampling:   sampling,
		config:     DefaultConfig(),
		integrator: integrator.NewPathTracingIntegrator(nil),
		logger:     core.NopLogger{},
	}
}

// SetSamplingConfig updates the sampling configuration
func (rt *Raytracer) SetSamplingConfig(sampling core.SamplingConfig) {
	rt.sampling = sampling
}

// SetConfig updates the parallelism configuration
func (rt *Raytracer) SetConfig(config Config) {
	rt.config = config
}

// SetIntegrator replaces the light transport algorithm
func (rt *Raytracer) SetIntegrator(integ integrator.Integrator) {
	rt.integrator = integ
}

// SetLogger replaces the logger used for render progress
func (rt *Raytracer) SetLogger(logger core.Logger) {
	rt.logger = logger
}

// rowSeed derives an independent generator seed for a row, so results do not
// depend on which worker renders the row or how rows are chunked
func rowSeed(base int64, row int) int64 {
	return base*1_000_003 + int64(row)
}

// SamplePixel returns the sum of SamplesPerPixel radiance samples for pixel (i, j).
// j = 0 is the bottom row.
func (rt *Raytracer) SamplePixel(i, j int, camera core.Camera, world geometry.Shape, sampler core.Sampler) core.Vec3 {
	width, height := rt.sampling.Width, rt.sampling.Height
	uScale := float64(max(width-1, 1))
	vScale := float64(max(height-1, 1))

	colorAccum := core.Vec3{X: 0, Y: 0, Z: 0}
	for sample := 0; sample < rt.sampling.SamplesPerPixel; sample++ {
		// Convert pixel coordinates to normalized coordinates with jitter
		s := (float64(i) + sampler.Get1D()) / uScale
		t := (float64(j) + sampler.Get1D()) / vScale

		ray := camera.GetRay(s, t, sampler)
		colorAccum = colorAccum.Add(rt.integrator.RayColor(ray, world, sampler, rt.sampling.MaxDepth))
	}
	return colorAccum
}

// RenderChunk renders every pixel of a chunk into a private buffer, top row first
func (rt *Raytracer) RenderChunk(ctx context.Context, chunk Chunk) (ChunkResult, error) {
	camera := rt.scene.GetCamera()
	world := rt.scene.GetWorld()
	width := rt.sampling.Width

	pixels := make([]core.Vec3, 0, chunk.Rows()*width)
	for j := chunk.EndRow - 1; j >= chunk.StartRow; j-- {
		if err := ctx.Err(); err != nil {
			return ChunkResult{}, err
		}

		sampler := core.NewRandomSampler(rand.New(rand.NewSource(rowSeed(rt.config.Seed, j))))
		for i := 0; i < width; i++ {
			pixels = append(pixels, rt.SamplePixel(i, j, camera, world, sampler))
		}
	}

	pixelCount := chunk.Rows() * width
	return ChunkResult{
		Chunk:  chunk,
		Pixels: pixels,
		Stats: RenderStats{
			TotalPixels:  pixelCount,
			TotalSamples: pixelCount * rt.sampling.SamplesPerPixel,
		},
	}, nil
}

// Render renders the whole image. chunkCallback, if not nil, is called once per
// finished chunk, possibly from several goroutines at once.
// A failing chunk fails the whole render; no partial image is returned.
func (rt *Raytracer) Render(ctx context.Context, chunkCallback func(ChunkCompletionResult)) (*Image, RenderStats, error) {
	if err := rt.sampling.Validate(); err != nil {
		return nil, RenderStats{}, err
	}

	startTime := time.Now()
	width, height := rt.sampling.Width, rt.sampling.Height

	pool := NewWorkerPool(ctx, rt.config.NumWorkers)
	chunkSize := rt.config.ChunkSize
	if chunkSize <= 0 {
		chunkSize = AutoChunkSize(height, pool.GetNumWorkers())
	}
	chunks := PlanChunks(height, chunkSize)

	rt.logger.Printf("Rendering %dx%d at %d samples per pixel: %d chunks of up to %d rows on %d workers\n",
		width, height, rt.sampling.SamplesPerPixel, len(chunks), chunkSize, pool.GetNumWorkers())

	if chunkCallback != nil {
		pool.OnComplete(func(result ChunkResult, completed, rowsCompleted int) {
			chunkCallback(ChunkCompletionResult{
				Chunk:           result.Chunk,
				Pixels:          result.Pixels,
				Width:           width,
				SamplesPerPixel: rt.sampling.SamplesPerPixel,
				ChunkNumber:     completed,
				TotalChunks:     len(chunks),
				RowsCompleted:   rowsCompleted,
			})
		})
	}

	for _, chunk := range chunks {
		pool.Submit(ChunkTask{Chunk: chunk, Render: rt.RenderChunk})
	}

	results, err := pool.Wait()
	if err != nil {
		return nil, RenderStats{}, err
	}

	img, err := assembleImage(width, height, rt.sampling.SamplesPerPixel, results)
	if err != nil {
		return nil, RenderStats{}, err
	}

	stats := RenderStats{
		SamplesPerPixel: rt.sampling.SamplesPerPixel,
		Chunks:          len(chunks),
		Workers:         pool.GetNumWorkers(),
	}
	for _, result := range results {
		stats.Add(result.Stats)
	}
	stats.Duration = time.Since(startTime)

	rt.logger.Printf("Render completed in %v (%.0f samples/s)\n", stats.Duration, stats.SamplesPerSecond())
	return img, stats, nil
}
