package integrator

import (
	"math"
	"testing"

	"github.com/df07/go-sphere-tracer/pkg/core"
	"github.com/df07/go-sphere-tracer/pkg/geometry"
	"github.com/df07/go-sphere-tracer/pkg/material"
)

// MockMaterial implements material.Material for testing
type MockMaterial struct {
	scatterFn func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool)
}

func (m MockMaterial) Scatter(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
	return m.scatterFn(rayIn, hit, sampler)
}

// MockShape implements geometry.Shape for testing
type MockShape struct {
	hitFn func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool)
}

func (m MockShape) Hit(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
	return m.hitFn(ray, tMin, tMax)
}

func vecNear(a, b core.Vec3, tolerance float64) bool {
	return a.Subtract(b).Length() <= tolerance
}

func createTestWorld() *geometry.HittableList {
	lambertian := material.NewLambertian(core.NewVec3(0.7, 0.3, 0.3))
	ground := material.NewLambertian(core.NewVec3(0.5, 0.5, 0.5))
	return geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1), 0.5, lambertian),
		geometry.NewSphere(core.NewVec3(0, -100.5, -1), 100, ground),
	)
}

func TestPathTracingDepthZeroIsBlack(t *testing.T) {
	integrator := NewPathTracingIntegrator(nil)
	world := createTestWorld()
	sampler := core.NewSeededSampler(42)

	rays := []core.Ray{
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), // at the sphere
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 1, 0)),  // at the sky
		core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, -1, 0)), // at the ground
	}
	for _, depth := range []int{0, -1, -50} {
		for _, ray := range rays {
			if c := integrator.RayColor(ray, world, sampler, depth); c != (core.Vec3{}) {
				t.Errorf("Expected black at depth %d, got %v", depth, c)
			}
		}
	}
}

func TestPathTracingSkyGradient(t *testing.T) {
	integrator := NewPathTracingIntegrator(nil)
	empty := geometry.NewHittableList()
	sampler := core.NewSeededSampler(1)

	tests := []struct {
		name      string
		direction core.Vec3
		expected  core.Vec3
	}{
		{"Straight up is sky blue", core.NewVec3(0, 1, 0), core.NewVec3(0.5, 0.7, 1.0)},
		{"Straight down is white", core.NewVec3(0, -1, 0), core.NewVec3(1, 1, 1)},
		{"Horizon is halfway", core.NewVec3(0, 0, -3), core.NewVec3(0.75, 0.85, 1.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), tt.direction), empty, sampler, 5)
			if !vecNear(c, tt.expected, 1e-9) {
				t.Errorf("Expected %v, got %v", tt.expected, c)
			}
		})
	}
}

func TestPathTracingAttenuationMultipliesAlongPath(t *testing.T) {
	attenuation := core.NewVec3(0.5, 0.25, 1.0)
	mat := MockMaterial{
		scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
			return material.ScatterResult{
				Scattered:   core.NewRay(hit.Point, core.NewVec3(0, 1, 0)),
				Attenuation: attenuation,
			}, true
		},
	}

	// Hit only rays travelling down; the scattered ray goes straight up into the sky
	shape := MockShape{
		hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			if tMin != ShadowAcneEpsilon {
				t.Errorf("Expected tMin %f, got %f", ShadowAcneEpsilon, tMin)
			}
			if ray.Direction.Y < 0 {
				return &material.HitRecord{
					Point:     core.NewVec3(0, 0, 0),
					Normal:    core.NewVec3(0, 1, 0),
					T:         1,
					FrontFace: true,
					Material:  mat,
				}, true
			}
			return nil, false
		},
	}

	integrator := NewPathTracingIntegrator(nil)
	ray := core.NewRay(core.NewVec3(0, 1, 0), core.NewVec3(0, -1, 0))
	c := integrator.RayColor(ray, shape, core.NewSeededSampler(3), 10)

	expected := attenuation.MultiplyVec(core.NewVec3(0.5, 0.7, 1.0))
	if !vecNear(c, expected, 1e-9) {
		t.Errorf("Expected %v, got %v", expected, c)
	}

	// With a single bounce left, the scattered ray has no budget
	if c := integrator.RayColor(ray, shape, core.NewSeededSampler(3), 1); c != (core.Vec3{}) {
		t.Errorf("Expected black when the budget runs out, got %v", c)
	}
}

func TestPathTracingAbsorbedRayIsBlack(t *testing.T) {
	absorber := MockMaterial{
		scatterFn: func(rayIn core.Ray, hit material.HitRecord, sampler core.Sampler) (material.ScatterResult, bool) {
			return material.ScatterResult{}, false
		},
	}
	world := geometry.NewHittableList(geometry.NewSphere(core.NewVec3(0, 0, -2), 1, absorber))

	integrator := NewPathTracingIntegrator(nil)
	c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), world, core.NewSeededSampler(1), 50)
	if c != (core.Vec3{}) {
		t.Errorf("Expected black for absorbed ray, got %v", c)
	}
}

func TestPathTracingBounceBudgetIsEnforced(t *testing.T) {
	// Two facing perfect mirrors trap the ray forever without a budget
	mirror := material.NewMetal(core.NewVec3(1, 1, 1), 0)
	world := geometry.NewHittableList(
		geometry.NewSphere(core.NewVec3(0, 0, -1001), 1000, mirror),
		geometry.NewSphere(core.NewVec3(0, 0, 1001), 1000, mirror),
	)

	calls := 0
	counting := MockShape{
		hitFn: func(ray core.Ray, tMin, tMax float64) (*material.HitRecord, bool) {
			calls++
			return world.Hit(ray, tMin, tMax)
		},
	}

	integrator := NewPathTracingIntegrator(nil)
	depth := 7
	c := integrator.RayColor(core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1)), counting, core.NewSeededSampler(1), depth)

	if c != (core.Vec3{}) {
		t.Errorf("Trapped ray should end black, got %v", c)
	}
	if calls != depth {
		t.Errorf("Expected %d scene queries, got %d", depth, calls)
	}
}

func TestPathTracingDiffuseSphereIsDarkerThanSky(t *testing.T) {
	integrator := NewPathTracingIntegrator(nil)
	world := createTestWorld()
	sampler := core.NewSeededSampler(11)

	ray := core.NewRay(core.NewVec3(0, 0, 0), core.NewVec3(0, 0, -1))
	var sum core.Vec3
	const samples = 500
	for i := 0; i < samples; i++ {
		c := integrator.RayColor(ray, world, sampler, 50)
		if math.IsNaN(c.X) || math.IsNaN(c.Y) || math.IsNaN(c.Z) {
			t.Fatalf("NaN radiance at sample %d", i)
		}
		sum = sum.Add(c)
	}
	mean := sum.Divide(samples)

	sky := integrator.RayColor(ray, geometry.NewHittableList(), sampler, 50)
	if mean.Luminance() >= sky.Luminance() {
		t.Errorf("Diffuse sphere %v should be darker than sky %v", mean, sky)
	}
	if mean.Luminance() <= 0 {
		t.Errorf("Diffuse sphere should receive some light, got %v", mean)
	}
}

func TestNew(t *testing.T) {
	for _, name := range []string{"", "path", "normal"} {
		if _, err := New(name, nil); err != nil {
			t.Errorf("Unexpected error for %q: %v", name, err)
		}
	}
	if _, err := New("bdpt", nil); err == nil {
		t.Error("Expected error for unknown integrator")
	}
}
