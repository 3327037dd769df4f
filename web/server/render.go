package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/integrator"
	"github.com/df07/go-sphere-tracer/pkg/output"
	"github.com/df07/go-sphere-tracer/pkg/renderer"
	"github.com/df07/go-sphere-tracer/pkg/scene"
	"github.com/disintegration/imaging"
	"github.com/gorilla/websocket"
)

const (
	// writeWait bounds a single websocket write
	writeWait = 10 * time.Second

	// largeRenderSamples is the camera sample count above which streamed renders log a warning
	largeRenderSamples = 50_000_000
)

// ChunkUpdate represents a finished chunk sent over the websocket
type ChunkUpdate struct {
	ChunkNumber   int    `json:"chunkNumber"`   // Chunks finished so far (1-based)
	TotalChunks   int    `json:"totalChunks"`   // Total number of chunks in the image
	Top           int    `json:"top"`           // First image row of the chunk, counted from the top
	Rows          int    `json:"rows"`          // Rows in the chunk
	RowsCompleted int    `json:"rowsCompleted"` // Rows finished so far
	ImageData     string `json:"imageData"`     // Base64 encoded PNG of just this chunk
}

// CompleteUpdate is the final event of a successful streamed render
type CompleteUpdate struct {
	Width          int     `json:"width"`
	Height         int     `json:"height"`
	ElapsedMs      int64   `json:"elapsedMs"`
	TotalPixels    int     `json:"totalPixels"`
	TotalSamples   int     `json:"totalSamples"`
	Chunks         int     `json:"chunks"`
	Workers        int     `json:"workers"`
	SamplesPerSec  float64 `json:"samplesPerSecond"`
	PrimitiveCount int     `json:"primitiveCount"`
	ImageData      string  `json:"imageData"` // Base64 encoded PNG of the whole image
}

// StreamEvent is the envelope for every websocket message
type StreamEvent struct {
	Type string          `json:"type"` // "console", "chunk", "error", "complete"
	Data json.RawMessage `json:"data"`
}

// RenderingPipeline contains the configured scene and raytracer
type RenderingPipeline struct {
	Scene     *scene.Scene
	Raytracer *renderer.Raytracer
}

// setupRenderingPipeline creates and configures the scene and raytracer
func (s *Server) setupRenderingPipeline(req *RenderRequest, logger core.Logger) (*RenderingPipeline, error) {
	sceneObj, err := s.createScene(req)
	if err != nil {
		return nil, err
	}

	integ, err := integrator.New(sceneObj.Integrator, nil)
	if err != nil {
		return nil, err
	}

	raytracer := renderer.NewRaytracer(sceneObj, sceneObj.SamplingConfig)
	raytracer.SetIntegrator(integ)
	raytracer.SetLogger(logger)
	raytracer.SetConfig(renderer.Config{
		NumWorkers: req.Workers,
		ChunkSize:  req.ChunkSize,
		Seed:       req.Seed,
	})

	return &RenderingPipeline{
		Scene:     sceneObj,
		Raytracer: raytracer,
	}, nil
}

// handleRender renders synchronously and responds with a PNG
func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	pipeline, err := s.setupRenderingPipeline(req, renderer.NewDefaultLogger())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	img, stats, err := pipeline.Raytracer.Render(r.Context(), nil)
	if err != nil {
		writeError(w, http.StatusInternalServerError, fmt.Sprintf("Rendering failed: %v", err))
		return
	}

	var buf bytes.Buffer
	if err := output.Encode(&buf, img, imaging.PNG, output.Options{Gamma: req.Gamma}); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("X-Render-Duration-Ms", strconv.FormatInt(stats.Duration.Milliseconds(), 10))
	w.Header().Set("X-Render-Samples", strconv.Itoa(stats.TotalSamples))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		log.Printf("Error writing render response: %v", err)
	}
}

// handleRenderStream renders while streaming console output and finished chunks over a websocket
func (s *Server) handleRenderStream(w http.ResponseWriter, r *http.Request) {
	// Validate before upgrading so bad requests get a normal HTTP error
	req, err := s.parseRenderRequest(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Invalid request: %v", err))
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied to the client
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// The client never sends anything; a read error means it went away
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	// Single writer goroutine; websocket connections allow one concurrent writer
	events := make(chan StreamEvent, 100)
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.writeEvents(ctx, conn, events)
	}()

	consoleChan, webLogger := s.setupConsoleLogging()
	consoleDone := make(chan struct{})
	go func() {
		defer close(consoleDone)
		s.streamConsoleMessages(ctx, consoleChan, events)
	}()

	eventType, data := s.runStreamedRender(ctx, req, webLogger, events)

	// Flush console output so the final event is always last
	close(consoleChan)
	<-consoleDone
	s.sendEvent(ctx, events, eventType, data)
	close(events)
	<-writerDone

	conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(writeWait))
}

// runStreamedRender renders the request, emitting chunk events as they finish.
// It returns the final "complete" or "error" event for the caller to send.
func (s *Server) runStreamedRender(ctx context.Context, req *RenderRequest, logger *WebLogger, events chan<- StreamEvent) (string, interface{}) {
	pipeline, err := s.setupRenderingPipeline(req, logger)
	if err != nil {
		return "error", err.Error()
	}

	sampling := pipeline.Scene.SamplingConfig
	if sampling.Width*sampling.Height*sampling.SamplesPerPixel > largeRenderSamples {
		logger.Warnf("Large render (%dx%d at %d samples per pixel) may take a while\n",
			sampling.Width, sampling.Height, sampling.SamplesPerPixel)
	}

	opts := output.Options{Gamma: req.Gamma}
	height := pipeline.Scene.SamplingConfig.Height
	startTime := time.Now()

	img, stats, err := pipeline.Raytracer.Render(ctx, func(result renderer.ChunkCompletionResult) {
		s.handleChunkUpdate(ctx, events, result, height, opts)
	})
	if err != nil {
		return "error", fmt.Sprintf("Rendering failed: %v", err)
	}

	imageData, err := imageToBase64PNG(img, opts)
	if err != nil {
		return "error", err.Error()
	}

	return "complete", CompleteUpdate{
		Width:          img.Width,
		Height:         img.Height,
		ElapsedMs:      time.Since(startTime).Milliseconds(),
		TotalPixels:    stats.TotalPixels,
		TotalSamples:   stats.TotalSamples,
		Chunks:         stats.Chunks,
		Workers:        stats.Workers,
		SamplesPerSec:  stats.SamplesPerSecond(),
		PrimitiveCount: pipeline.Scene.GetPrimitiveCount(),
		ImageData:      imageData,
	}
}

// handleChunkUpdate encodes a finished chunk as a PNG strip and queues it
func (s *Server) handleChunkUpdate(ctx context.Context, events chan<- StreamEvent, result renderer.ChunkCompletionResult, height int, opts output.Options) {
	strip := &renderer.Image{
		Width:           result.Width,
		Height:          result.Chunk.Rows(),
		SamplesPerPixel: result.SamplesPerPixel,
		Pixels:          result.Pixels,
	}
	stripData, err := imageToBase64PNG(strip, opts)
	if err != nil {
		log.Printf("Error encoding %s: %v", result.Chunk, err)
		return
	}

	s.sendEvent(ctx, events, "chunk", ChunkUpdate{
		ChunkNumber:   result.ChunkNumber,
		TotalChunks:   result.TotalChunks,
		Top:           height - result.Chunk.EndRow,
		Rows:          result.Chunk.Rows(),
		RowsCompleted: result.RowsCompleted,
		ImageData:     stripData,
	})
}

// setupConsoleLogging creates console channel and web logger for a render
func (s *Server) setupConsoleLogging() (chan ConsoleMessage, *WebLogger) {
	consoleChan := make(chan ConsoleMessage, 50)
	renderID := fmt.Sprintf("render-%d", time.Now().UnixNano())
	webLogger := NewWebLogger(renderID, consoleChan)
	return consoleChan, webLogger
}

// streamConsoleMessages forwards console messages as events until consoleChan is closed
func (s *Server) streamConsoleMessages(ctx context.Context, consoleChan <-chan ConsoleMessage, events chan<- StreamEvent) {
	for consoleMsg := range consoleChan {
		s.sendEvent(ctx, events, "console", consoleMsg)
	}
}

// sendEvent marshals data and queues it, giving up if the client has gone away
func (s *Server) sendEvent(ctx context.Context, events chan<- StreamEvent, eventType string, data interface{}) {
	raw, err := json.Marshal(data)
	if err != nil {
		log.Printf("Error marshaling %s event: %v", eventType, err)
		return
	}

	select {
	case events <- StreamEvent{Type: eventType, Data: raw}:
	case <-ctx.Done():
		// Client disconnected, don't block
	}
}

// writeEvents writes queued events to the websocket until the channel is closed
func (s *Server) writeEvents(ctx context.Context, conn *websocket.Conn, events <-chan StreamEvent) {
	failed := false
	for event := range events {
		// After a disconnect or failed write keep draining so senders never block
		if failed || ctx.Err() != nil {
			continue
		}

		conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := conn.WriteJSON(event); err != nil {
			log.Printf("Websocket write failed: %v", err)
			failed = true
		}
	}
}

// imageToBase64PNG converts an image to base64-encoded PNG
func imageToBase64PNG(img *renderer.Image, opts output.Options) (string, error) {
	var buf bytes.Buffer
	if err := output.Encode(&buf, img, imaging.PNG, opts); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
