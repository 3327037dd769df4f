package material

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
)

// fixedSampler returns the same values on every call
type fixedSampler struct {
	value1D float64
	value3D core.Vec3
}

func (f fixedSampler) Get1D() float64 { return f.value1D }
func (f fixedSampler) Get3D() core.Vec3 {
	return f.value3D
}

func TestLambertian_AlwaysScatters(t *testing.T) {
	albedo := core.NewVec3(0.5, 0.6, 0.7)
	lambertian := NewLambertian(albedo)
	normal := core.NewVec3(0, 1, 0)
	hit := HitRecord{
		Point:     core.NewVec3(0, 0, 0),
		Normal:    normal,
		T:         1,
		FrontFace: true,
		Material:  lambertian,
	}
	rayIn := core.NewRay(core.NewVec3(0, 1, 1), core.NewVec3(0, -1, -1))

	for seed := int64(0); seed < 200; seed++ {
		sampler := core.NewSeededSampler(seed)
		scatter, didScatter := lambertian.Scatter(rayIn, hit, sampler)
		if !didScatter {
			t.Fatalf("Lambertian absorbed a ray with seed %d", seed)
		}
		if scatter.Attenuation != albedo {
			t.Errorf("Expected attenuation %v, got %v", albedo, scatter.Attenuation)
		}
		if scatter.Scattered.Origin != hit.Point {
			t.Errorf("Scattered ray should start at hit point, got %v", scatter.Scattered.Origin)
		}
		// normal + unit vector always lies in the closed hemisphere of the normal
		if scatter.Scattered.Direction.Dot(normal) < -1e-12 {
			t.Errorf("Scattered direction %v points into the surface", scatter.Scattered.Direction)
		}
	}
}

func TestLambertian_DegenerateDirectionFallsBackToNormal(t *testing.T) {
	lambertian := NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	normal := core.NewVec3(0, 1, 0)
	hit := HitRecord{Point: core.NewVec3(0, 0, 0), Normal: normal, FrontFace: true}

	// (0.5, 0.25, 0.5) maps to (0, -0.5, 0) in the unit cube, which normalizes to -normal
	sampler := fixedSampler{value3D: core.NewVec3(0.5, 0.25, 0.5)}

	scatter, didScatter := lambertian.Scatter(core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0)), hit, sampler)
	if !didScatter {
		t.Fatal("Lambertian should scatter")
	}
	if scatter.Scattered.Direction != normal {
		t.Errorf("Expected fallback to normal %v, got %v", normal, scatter.Scattered.Direction)
	}
	if math.IsNaN(scatter.Scattered.Direction.Length()) {
		t.Error("Scattered direction must not be NaN")
	}
}
