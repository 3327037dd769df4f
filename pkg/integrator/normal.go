package integrator

import (
	"math"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
)

// NormalIntegrator shades the first hit by its surface normal, mapped to [0,1] per channel.
// It ignores materials and is useful for checking geometry and camera setup.
type NormalIntegrator struct {
	background Background
}

// NewNormalIntegrator creates a new normal-shading integrator
func NewNormalIntegrator(background Background) *NormalIntegrator {
	if background == nil {
		background = NewSkyBackground()
	}
	return &NormalIntegrator{background: background}
}

// RayColor implements Integrator
func (ni *NormalIntegrator) RayColor(ray core.Ray, world geometry.Shape, sampler core.Sampler, depth int) core.Vec3 {
	if depth <= 0 {
		return core.Vec3{}
	}

	hit, isHit := world.Hit(ray, 0, math.Inf(1))
	if !isHit {
		return ni.background.Color(ray)
	}

	return hit.Normal.Add(core.NewVec3(1, 1, 1)).Multiply(0.5)
}
