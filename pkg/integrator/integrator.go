package integrator

import (
	"fmt"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
)

// ShadowAcneEpsilon is the lower t bound for every scene query.
// Secondary rays start on a surface, and floating point error would otherwise let them hit it again.
const ShadowAcneEpsilon = 0.001

// Integrator defines the interface for light transport algorithms.
// Implementations must be safe for concurrent use by render workers.
type Integrator interface {
	// RayColor returns the radiance estimate along ray with depth bounces remaining
	RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Vec3
}

// Background supplies the color seen by rays that escape the scene
type Background interface {
	Color(ray core.Ray) core.Vec3
}

// GradientBackground blends vertically between two colors by ray direction
type GradientBackground struct {
	TopColor    core.Vec3
	BottomColor core.Vec3
}

// NewSkyBackground returns the white-to-sky-blue gradient
func NewSkyBackground() GradientBackground {
	return GradientBackground{
		TopColor:    core.NewVec3(0.5, 0.7, 1.0),
		BottomColor: core.NewVec3(1.0, 1.0, 1.0),
	}
}

// Color implements Background
func (g GradientBackground) Color(ray core.Ray) core.Vec3 {
	unitDirection := ray.Direction.Normalize()

	// Map y from [-1,1] to [0,1]
	t := 0.5 * (unitDirection.Y + 1.0)

	// Linear interpolation: (1-t)*bottom + t*top
	return g.BottomColor.Multiply(1.0 - t).Add(g.TopColor.Multiply(t))
}

// New returns the integrator registered under name
func New(name string, background Background) (Integrator, error) {
	switch name {
	case "", "path":
		return NewPathTracingIntegrator(background), nil
	case "normal":
		return NewNormalIntegrator(background), nil
	default:
		return nil, fmt.Errorf("unknown integrator %q (supported: path, normal)", name)
	}
}
