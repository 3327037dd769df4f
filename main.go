package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/output"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/google/shlex"
	"github.com/joho/godotenv"
)

// argsEnvVar holds extra command line arguments, tokenised like a shell would
const argsEnvVar = "RAYTRACER_ARGS"

// cliConfig holds everything the command line controls
type cliConfig struct {
	SceneName  string
	SceneFile  string
	Width      int
	Height     int
	Samples    int
	Depth      int
	Workers    int
	ChunkSize  int
	Seed       int64
	Gamma      float64
	Output     string
	Thumbnail  uint
	S3Bucket   string
	S3Prefix   string
	Integrator string
	Help       bool
}

func newFlagSet(cfg *cliConfig) *flag.FlagSet {
	fs := flag.NewFlagSet("raytracer", flag.ContinueOnError)
	fs.StringVar(&cfg.SceneName, "scene", "default", "Scene: 'default', 'materials', 'random', 'normals' or the name of a JSON file in scenes/")
	fs.StringVar(&cfg.SceneFile, "scene-file", "", "Path to a JSON scene file (overrides -scene)")
	fs.IntVar(&cfg.Width, "width", 0, "Image width (0 = scene default)")
	fs.IntVar(&cfg.Height, "height", 0, "Image height (0 = derived from the camera aspect ratio)")
	fs.IntVar(&cfg.Samples, "samples", 0, "Samples per pixel (0 = scene default)")
	fs.IntVar(&cfg.Depth, "depth", -1, "Maximum bounce depth (-1 = scene default)")
	fs.IntVar(&cfg.Workers, "workers", 0, "Number of parallel workers (0 = CPU count)")
	fs.IntVar(&cfg.ChunkSize, "chunk", 0, "Rows per chunk (0 = automatic)")
	fs.Int64Var(&cfg.Seed, "seed", 42, "Random seed")
	fs.Float64Var(&cfg.Gamma, "gamma", 1.0, "Gamma applied when writing the image (1 = linear)")
	fs.StringVar(&cfg.Output, "o", "", "Output file; the extension picks the format (default output/<scene>/render_<timestamp>.png)")
	fs.UintVar(&cfg.Thumbnail, "thumbnail", 0, "Also write a thumbnail no larger than this many pixels (0 = none)")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", "", "Upload the render to this S3 bucket (default $S3_BUCKET)")
	fs.StringVar(&cfg.S3Prefix, "s3-prefix", "", "Key prefix for S3 uploads (default $S3_PREFIX)")
	fs.StringVar(&cfg.Integrator, "integrator", "", "Integrator: 'path' or 'normal' (default: scene preference)")
	fs.BoolVar(&cfg.Help, "help", false, "Show help information")
	return fs
}

// parseArgs parses command line arguments, with any arguments from RAYTRACER_ARGS placed first
// so that explicit arguments win
func parseArgs(args []string) (cliConfig, *flag.FlagSet, error) {
	var cfg cliConfig
	fs := newFlagSet(&cfg)

	if extra := os.Getenv(argsEnvVar); extra != "" {
		tokens, err := shlex.Split(extra)
		if err != nil {
			return cfg, fs, fmt.Errorf("invalid %s: %w", argsEnvVar, err)
		}
		args = append(tokens, args...)
	}

	if err := fs.Parse(args); err != nil {
		return cfg, fs, err
	}
	return cfg, fs, nil
}

func printHelp(fs *flag.FlagSet) {
	fmt.Println("Sphere Raytracer")
	fmt.Println("Usage: raytracer [options]")
	fmt.Println()
	fmt.Println("Options:")
	fs.SetOutput(os.Stdout)
	fs.PrintDefaults()
	fmt.Println()
	fmt.Println("Available scenes:")
	for _, info := range scene.BuiltInScenes() {
		fmt.Printf("  %-10s %s\n", info.ID, info.Description)
	}
	if jsonScenes, err := scene.ListJSONScenes(); err == nil {
		for _, info := range jsonScenes {
			fmt.Printf("  %-10s %s\n", strings.TrimPrefix(info.ID, "json:"), info.DisplayName)
		}
	}
	fmt.Println()
	fmt.Printf("Extra arguments may be given in $%s. A .env file in the working directory is loaded first.\n", argsEnvVar)
}

// createScene resolves the scene to render: an explicit file, a built-in scene,
// a JSON scene by name, or a path to a JSON file
func createScene(cfg cliConfig) (*scene.Scene, error) {
	if cfg.SceneFile != "" {
		return scene.LoadJSONFile(cfg.SceneFile)
	}

	name := cfg.SceneName
	if name == "" {
		return nil, fmt.Errorf("no scene given")
	}
	if strings.HasSuffix(strings.ToLower(name), ".json") {
		return scene.LoadJSONFile(name)
	}

	for _, info := range scene.BuiltInScenes() {
		if info.ID == name {
			return scene.Create(name, cfg.Seed)
		}
	}
	return scene.Create("json:"+name, cfg.Seed)
}

// applyOverrides copies explicit command line settings onto the scene
func applyOverrides(s *scene.Scene, cfg cliConfig) {
	if cfg.Width > 0 {
		s.Resize(cfg.Width, cfg.Height)
	} else if cfg.Height > 0 {
		s.Resize(s.SamplingConfig.Width, cfg.Height)
	}
	if cfg.Samples > 0 {
		s.SamplingConfig.SamplesPerPixel = cfg.Samples
	}
	if cfg.Depth >= 0 {
		s.SamplingConfig.MaxDepth = cfg.Depth
	}
	if cfg.Integrator != "" {
		s.Integrator = cfg.Integrator
	}
}

// outputPath returns the requested output file, or a timestamped PNG under output/<scene>/
func outputPath(cfg cliConfig, now time.Time) string {
	if cfg.Output != "" {
		return cfg.Output
	}

	sceneName := cfg.SceneName
	if cfg.SceneFile != "" {
		sceneName = strings.TrimSuffix(filepath.Base(cfg.SceneFile), filepath.Ext(cfg.SceneFile))
	}
	sceneName = strings.TrimSuffix(filepath.Base(sceneName), ".json")

	timestamp := now.Format("20060102_150405")
	return filepath.Join("output", sceneName, fmt.Sprintf("render_%s.png", timestamp))
}

// run renders the configured scene and writes every requested output. It returns the image path.
func run(ctx context.Context, cfg cliConfig, logger core.Logger) (string, error) {
	selectedScene, err := createScene(cfg)
	if err != nil {
		return "", fmt.Errorf("failed to create scene: %w", err)
	}
	applyOverrides(selectedScene, cfg)

	integ, err := integrator.New(selectedScene.Integrator, nil)
	if err != nil {
		return "", err
	}

	raytracer := renderer.NewRaytracer(selectedScene, selectedScene.SamplingConfig)
	raytracer.SetIntegrator(integ)
	raytracer.SetLogger(logger)
	raytracer.SetConfig(renderer.Config{
		NumWorkers: cfg.Workers,
		ChunkSize:  cfg.ChunkSize,
		Seed:       cfg.Seed,
	})

	logger.Printf("Scene has %d spheres\n", selectedScene.GetPrimitiveCount())

	height := selectedScene.SamplingConfig.Height
	img, stats, err := raytracer.Render(ctx, func(result renderer.ChunkCompletionResult) {
		logger.Printf("Chunk %d/%d done, %d/%d rows\n", result.ChunkNumber, result.TotalChunks, result.RowsCompleted, height)
	})
	if err != nil {
		return "", fmt.Errorf("render failed: %w", err)
	}

	logger.Printf("Rendered %d pixels, %d samples on %d workers in %v\n",
		stats.TotalPixels, stats.TotalSamples, stats.Workers, stats.Duration)

	opts := output.Options{Gamma: cfg.Gamma}
	filename := outputPath(cfg, time.Now())
	if err := output.Save(filename, img, opts); err != nil {
		return "", err
	}
	logger.Printf("Render saved as %s\n", filename)

	files := []string{filename}
	if cfg.Thumbnail > 0 {
		thumbPath, err := output.SaveThumbnail(filename, output.ToRGBA(img, opts), cfg.Thumbnail)
		if err != nil {
			return "", err
		}
		logger.Printf("Thumbnail saved as %s\n", thumbPath)
		files = append(files, thumbPath)
	}

	if err := upload(ctx, cfg, files, logger); err != nil {
		return "", err
	}

	return filename, nil
}

// upload publishes files to S3 when a bucket is configured
func upload(ctx context.Context, cfg cliConfig, files []string, logger core.Logger) error {
	s3Config := output.S3ConfigFromEnv()
	if cfg.S3Bucket != "" {
		s3Config.Bucket = cfg.S3Bucket
	}
	if cfg.S3Prefix != "" {
		s3Config.Prefix = cfg.S3Prefix
	}
	if s3Config.Bucket == "" {
		return nil
	}

	uploader, err := output.NewS3Uploader(s3Config)
	if err != nil {
		return err
	}
	for _, file := range files {
		key, err := uploader.UploadFile(ctx, file)
		if err != nil {
			return err
		}
		logger.Printf("Uploaded s3://%s/%s\n", s3Config.Bucket, key)
	}
	return nil
}

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	cfg, fs, err := parseArgs(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatalf("Error: %v", err)
	}

	if cfg.Help {
		printHelp(fs)
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	log.Println("Starting Sphere Raytracer...")
	if _, err := run(ctx, cfg, renderer.NewDefaultLogger()); err != nil {
		log.Fatalf("Error: %v", err)
	}
}
