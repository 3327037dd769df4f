package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
)

// Scene contains all the elements needed for rendering
type Scene struct {
	Camera         *geometry.Camera
	World          *geometry.HittableList // Objects in the scene, in insertion order
	SamplingConfig core.SamplingConfig
	CameraConfig   geometry.CameraConfig
	Integrator     string // Preferred integrator name; empty means path tracing
}

// GetCamera returns the scene camera
func (s *Scene) GetCamera() core.Camera {
	return s.Camera
}

// GetWorld returns the scene's shapes as a single intersectable
func (s *Scene) GetWorld() geometry.Shape {
	return s.World
}

// GetPrimitiveCount returns the total number of primitive objects in the scene
func (s *Scene) GetPrimitiveCount() int {
	return s.World.Len()
}

// newScene assembles a scene from a camera configuration (with optional overrides) and sampling defaults.
// The image height follows the camera aspect ratio.
func newScene(cameraConfig geometry.CameraConfig, sampling core.SamplingConfig, cameraOverrides []geometry.CameraConfig) *Scene {
	if len(cameraOverrides) > 0 {
		cameraConfig = geometry.MergeCameraConfig(cameraConfig, cameraOverrides[0])
	}
	if sampling.Height == 0 {
		sampling.Height = core.HeightForAspect(sampling.Width, cameraConfig.AspectRatio)
	}

	return &Scene{
		Camera:         geometry.NewCamera(cameraConfig),
		World:          geometry.NewHittableList(),
		SamplingConfig: sampling,
		CameraConfig:   cameraConfig,
	}
}

// Resize changes the output resolution. A zero height keeps the camera's aspect ratio;
// otherwise the camera is rebuilt so the viewport matches width/height.
func (s *Scene) Resize(width, height int) {
	if width <= 0 {
		return
	}
	if height <= 0 {
		height = core.HeightForAspect(width, s.CameraConfig.AspectRatio)
	} else {
		s.CameraConfig.AspectRatio = float64(width) / float64(height)
		s.Camera = geometry.NewCamera(s.CameraConfig)
	}
	s.SamplingConfig.Width = width
	s.SamplingConfig.Height = height
}
