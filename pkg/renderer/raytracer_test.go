package renderer

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
	"github.com/google/go-cmp/cmp"
)

// testScene implements Scene for testing
type testScene struct {
	camera core.Camera
	world  geometry.Shape
}

func (s testScene) GetCamera() core.Camera  { return s.camera }
func (s testScene) GetWorld() geometry.Shape { return s.world }

// planeCamera returns rays whose origin encodes the image-plane coordinates (s, t)
type planeCamera struct{}

func (planeCamera) GetRay(s, t float64, sampler core.Sampler) core.Ray {
	return core.NewRay(core.NewVec3(s, t, 0), core.NewVec3(0, 0, -1))
}

// originIntegrator returns the ray origin as the color, optionally panicking above a given t
type originIntegrator struct {
	panicAbove float64
}

func (oi originIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Vec3 {
	if oi.panicAbove > 0 && ray.Origin.Y > oi.panicAbove {
		panic("integrator exploded")
	}
	return ray.Origin
}

func createTestScene(width, height int) testScene {
	cameraConfig := geometry.DefaultCameraConfig()
	cameraConfig.AspectRatio = float64(width) / float64(height)

	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, material.NewDielectric(1.5)),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))),
	)
	return testScene{camera: geometry.NewCamera(cameraConfig), world: world}
}

func renderTestImage(t *testing.T, scene Scene, sampling core.SamplingConfig, config Config) *Image {
	t.Helper()
	rt := NewRaytracer(scene, sampling)
	rt.SetConfig(config)
	img, _, err := rt.Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	return img
}

func TestRender_IndependentOfWorkersAndChunks(t *testing.T) {
	sampling := core.SamplingConfig{Width: 16, Height: 9, SamplesPerPixel: 4, MaxDepth: 10}
	scene := createTestScene(sampling.Width, sampling.Height)

	reference := renderTestImage(t, scene, sampling, Config{NumWorkers: 1, ChunkSize: sampling.Height, Seed: 7})

	configs := []Config{
		{NumWorkers: 1, ChunkSize: 1, Seed: 7},
		{NumWorkers: 3, ChunkSize: 2, Seed: 7},
		{NumWorkers: 8, ChunkSize: 1, Seed: 7},
		{NumWorkers: 4, ChunkSize: 0, Seed: 7},
		{NumWorkers: 2, ChunkSize: 5, Seed: 7},
	}
	for _, config := range configs {
		img := renderTestImage(t, scene, sampling, config)
		if diff := cmp.Diff(reference.Pixels, img.Pixels); diff != "" {
			t.Errorf("Render with %+v differs from single worker render (-want +got):\n%s", config, diff)
		}
	}
}

func TestRender_SeedChangesNoise(t *testing.T) {
	sampling := core.SamplingConfig{Width: 8, Height: 6, SamplesPerPixel: 2, MaxDepth: 5}
	scene := createTestScene(sampling.Width, sampling.Height)

	a := renderTestImage(t, scene, sampling, Config{NumWorkers: 2, Seed: 1})
	b := renderTestImage(t, scene, sampling, Config{NumWorkers: 2, Seed: 2})
	if cmp.Equal(a.Pixels, b.Pixels) {
		t.Error("Expected different seeds to produce different samples")
	}
}

func TestRender_RowOrderAndSampleCoordinates(t *testing.T) {
	width, height := 5, 4
	sampling := core.SamplingConfig{Width: width, Height: height, SamplesPerPixel: 1, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{})
	rt.SetConfig(Config{NumWorkers: 2, ChunkSize: 1, Seed: 3})

	img, _, err := rt.Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	for y := 0; y < height; y++ {
		j := height - 1 - y // first output row is the top of the image
		for x := 0; x < width; x++ {
			c := img.At(x, y)
			minS, maxS := float64(x)/float64(width-1), float64(x+1)/float64(width-1)
			minT, maxT := float64(j)/float64(height-1), float64(j+1)/float64(height-1)
			if c.X < minS || c.X >= maxS {
				t.Errorf("Pixel (%d,%d): s=%f outside [%f,%f)", x, y, c.X, minS, maxS)
			}
			if c.Y < minT || c.Y >= maxT {
				t.Errorf("Pixel (%d,%d): t=%f outside [%f,%f)", x, y, c.Y, minT, maxT)
			}
		}
	}
}

func TestRender_SingleRowAndColumn(t *testing.T) {
	sampling := core.SamplingConfig{Width: 1, Height: 1, SamplesPerPixel: 3, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{})

	img, _, err := rt.Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	c := img.At(0, 0)
	if math.IsNaN(c.X) || math.IsInf(c.X, 0) || math.IsNaN(c.Y) || math.IsInf(c.Y, 0) {
		t.Errorf("Expected finite sample coordinates for a 1x1 image, got %v", c)
	}
}

func TestRender_Stats(t *testing.T) {
	sampling := core.SamplingConfig{Width: 6, Height: 5, SamplesPerPixel: 3, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{})
	rt.SetConfig(Config{NumWorkers: 2, ChunkSize: 2})

	_, stats, err := rt.Render(context.Background(), nil)
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if stats.TotalPixels != 30 {
		t.Errorf("Expected 30 pixels, got %d", stats.TotalPixels)
	}
	if stats.TotalSamples != 90 {
		t.Errorf("Expected 90 samples, got %d", stats.TotalSamples)
	}
	if stats.Chunks != 3 {
		t.Errorf("Expected 3 chunks, got %d", stats.Chunks)
	}
	if stats.Workers != 2 {
		t.Errorf("Expected 2 workers, got %d", stats.Workers)
	}
}

func TestRender_ChunkCallback(t *testing.T) {
	width, height := 4, 7
	sampling := core.SamplingConfig{Width: width, Height: height, SamplesPerPixel: 1, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{})
	rt.SetConfig(Config{NumWorkers: 3, ChunkSize: 2})

	var mu sync.Mutex
	var callbacks []ChunkCompletionResult
	img, _, err := rt.Render(context.Background(), func(result ChunkCompletionResult) {
		mu.Lock()
		defer mu.Unlock()
		callbacks = append(callbacks, result)
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}

	if len(callbacks) != 4 {
		t.Fatalf("Expected 4 chunk callbacks, got %d", len(callbacks))
	}

	seenNumbers := make(map[int]bool)
	maxRows := 0
	for _, cb := range callbacks {
		seenNumbers[cb.ChunkNumber] = true
		maxRows = max(maxRows, cb.RowsCompleted)
		if cb.TotalChunks != 4 {
			t.Errorf("Expected TotalChunks 4, got %d", cb.TotalChunks)
		}
		if cb.Width != width {
			t.Errorf("Expected width %d, got %d", width, cb.Width)
		}
		if len(cb.Pixels) != cb.Chunk.Rows()*width {
			t.Errorf("%s: expected %d pixels, got %d", cb.Chunk, cb.Chunk.Rows()*width, len(cb.Pixels))
		}

		// Chunk pixels must match the final image rows
		topY := height - cb.Chunk.EndRow
		for k, sum := range cb.Pixels {
			if !sum.Equals(img.Sum(k%width, topY+k/width)) {
				t.Errorf("%s: pixel %d does not match the final image", cb.Chunk, k)
				break
			}
		}
	}
	for n := 1; n <= 4; n++ {
		if !seenNumbers[n] {
			t.Errorf("Missing callback with ChunkNumber %d", n)
		}
	}
	if maxRows != height {
		t.Errorf("Expected final RowsCompleted %d, got %d", height, maxRows)
	}
}

func TestRender_PanicFailsRender(t *testing.T) {
	sampling := core.SamplingConfig{Width: 4, Height: 8, SamplesPerPixel: 1, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{panicAbove: 0.5})
	rt.SetConfig(Config{NumWorkers: 2, ChunkSize: 1})

	img, _, err := rt.Render(context.Background(), nil)
	if err == nil {
		t.Fatal("Expected an error from a panicking chunk")
	}
	if !strings.Contains(err.Error(), "panicked") {
		t.Errorf("Expected panic in error message, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image from a failed render")
	}
}

func TestRender_CancelledContext(t *testing.T) {
	sampling := core.SamplingConfig{Width: 4, Height: 4, SamplesPerPixel: 1, MaxDepth: 1}
	rt := NewRaytracer(testScene{camera: planeCamera{}}, sampling)
	rt.SetIntegrator(originIntegrator{})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	img, _, err := rt.Render(ctx, nil)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
	if img != nil {
		t.Error("Expected no image from a cancelled render")
	}
}

func TestRender_InvalidSampling(t *testing.T) {
	tests := []struct {
		name     string
		sampling core.SamplingConfig
	}{
		{"Zero width", core.SamplingConfig{Width: 0, Height: 4, SamplesPerPixel: 1, MaxDepth: 1}},
		{"Zero height", core.SamplingConfig{Width: 4, Height: 0, SamplesPerPixel: 1, MaxDepth: 1}},
		{"Zero samples", core.SamplingConfig{Width: 4, Height: 4, SamplesPerPixel: 0, MaxDepth: 1}},
		{"Negative depth", core.SamplingConfig{Width: 4, Height: 4, SamplesPerPixel: 1, MaxDepth: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rt := NewRaytracer(testScene{camera: planeCamera{}}, tt.sampling)
			if _, _, err := rt.Render(context.Background(), nil); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestRender_EmptyWorldShowsSky(t *testing.T) {
	sampling := core.SamplingConfig{Width: 8, Height: 6, SamplesPerPixel: 4, MaxDepth: 5}
	cameraConfig := geometry.DefaultCameraConfig()
	cameraConfig.AspectRatio = 8.0 / 6.0
	scene := testScene{camera: geometry.NewCamera(cameraConfig), world: geometry.NewHittableList()}

	img := renderTestImage(t, scene, sampling, DefaultConfig())

	for y := 0; y < sampling.Height; y++ {
		for x := 0; x < sampling.Width; x++ {
			c := img.At(x, y)
			if c.Z < 0.999 || c.X < 0.5-1e-9 || c.X > 1+1e-9 {
				t.Errorf("Pixel (%d,%d) = %v is not a sky color", x, y, c)
			}
		}
	}

	// Sky gets bluer towards the top
	if img.At(0, 0).X >= img.At(0, sampling.Height-1).X {
		t.Errorf("Expected top row bluer than bottom row: top %v bottom %v", img.At(0, 0), img.At(0, sampling.Height-1))
	}
}

func TestRender_DepthZeroIsBlack(t *testing.T) {
	sampling := core.SamplingConfig{Width: 4, Height: 3, SamplesPerPixel: 2, MaxDepth: 0}
	scene := createTestScene(sampling.Width, sampling.Height)

	img := renderTestImage(t, scene, sampling, DefaultConfig())
	for i, sum := range img.Pixels {
		if !sum.Equals(core.Vec3{}) {
			t.Fatalf("Pixel %d: expected black at depth 0, got %v", i, sum)
		}
	}
}
