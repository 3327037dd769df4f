package scene

import (
	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// previewSampling is the default sampling with the height left to the camera aspect ratio
func previewSampling() core.SamplingConfig {
	sampling := core.DefaultSamplingConfig()
	sampling.Height = 0
	return sampling
}

// NewDefaultScene creates a diffuse sphere resting on a large ground sphere
func NewDefaultScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	s := newScene(geometry.DefaultCameraConfig(), previewSampling(), cameraOverrides)

	diffuseGray := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))

	s.World.Add(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, diffuseGray),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, diffuseGray),
	)

	return s
}

// NewNormalsScene is the default scene shaded by surface normal
func NewNormalsScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	s := NewDefaultScene(cameraOverrides...)
	s.Integrator = "normal"
	s.SamplingConfig.SamplesPerPixel = 10
	return s
}

// NewMaterialsScene creates a row of three spheres showing every material:
// hollow glass on the left, diffuse in the middle and fuzzy metal on the right
func NewMaterialsScene(cameraOverrides ...geometry.CameraConfig) *Scene {
	cameraConfig := geometry.CameraConfig{
		Center:        core.NewVec3(3, 3, 2),
		LookAt:        core.NewVec3(0, 0, -1),
		Up:            core.NewVec3(0, 1, 0),
		VFov:          20.0,
		AspectRatio:   16.0 / 9.0,
		Aperture:      0.2,
		FocusDistance: 0.0, // Focus on the centre sphere
	}

	s := newScene(cameraConfig, previewSampling(), cameraOverrides)

	ground := material.NewLambertian(core.NewVec3(0.8, 0.8, 0.0))
	center := material.NewLambertian(core.NewVec3(0.1, 0.2, 0.5))
	glass := material.NewDielectric(1.5)
	gold := material.NewMetal(core.NewVec3(0.8, 0.6, 0.2), 0.3)

	s.World.Add(
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, center),
		geometry.NewSphere(core.NewVec3(-1, 0, -1), 0.5, glass),
		// Negative radius flips the normals inward, making the glass sphere a thin shell
		geometry.NewSphere(core.NewVec3(-1, 0, -1), -0.45, glass),
		geometry.NewSphere(core.NewVec3(1, 0, -1), 0.5, gold),
	)

	return s
}
