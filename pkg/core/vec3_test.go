package core

import (
	"math"
	"testing"
)

func TestVec3_Normalize_UnitLength(t *testing.T) {
	tests := []struct {
		name   string
		vector Vec3
	}{
		{"Axis aligned", NewVec3(3, 0, 0)},
		{"Negative components", NewVec3(-1, -2, -3)},
		{"Tiny vector", NewVec3(1e-6, 2e-6, -3e-6)},
		{"Large vector", NewVec3(1e6, -4e5, 7e5)},
		{"Already unit", NewVec3(0, 1, 0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			length := tt.vector.Normalize().Length()
			if math.Abs(length-1.0) > 1e-9 {
				t.Errorf("Expected unit length, got %f", length)
			}
		})
	}
}

func TestVec3_Arithmetic(t *testing.T) {
	a := NewVec3(1, 2, 3)
	b := NewVec3(4, -5, 6)

	tests := []struct {
		name     string
		result   Vec3
		expected Vec3
	}{
		{"Add", a.Add(b), NewVec3(5, -3, 9)},
		{"Subtract", a.Subtract(b), NewVec3(-3, 7, -3)},
		{"Multiply", a.Multiply(2), NewVec3(2, 4, 6)},
		{"Divide", b.Divide(2), NewVec3(2, -2.5, 3)},
		{"MultiplyVec", a.MultiplyVec(b), NewVec3(4, -10, 18)},
		{"Negate", a.Negate(), NewVec3(-1, -2, -3)},
		{"Cross", NewVec3(1, 0, 0).Cross(NewVec3(0, 1, 0)), NewVec3(0, 0, 1)},
		{"Clamp", NewVec3(-1, 0.5, 2).Clamp(0, 1), NewVec3(0, 0.5, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.result.Subtract(tt.expected).Length() > 1e-12 {
				t.Errorf("Expected %v, got %v", tt.expected, tt.result)
			}
		})
	}

	if a.Dot(b) != 12 {
		t.Errorf("Expected dot product 12, got %f", a.Dot(b))
	}
	if a.LengthSquared() != 14 {
		t.Errorf("Expected squared length 14, got %f", a.LengthSquared())
	}
}

func TestVec3_NearZero(t *testing.T) {
	tests := []struct {
		name     string
		vector   Vec3
		expected bool
	}{
		{"Zero", NewVec3(0, 0, 0), true},
		{"Below epsilon", NewVec3(1e-9, -1e-9, 5e-9), true},
		{"One component at epsilon", NewVec3(1e-8, 0, 0), false},
		{"Regular vector", NewVec3(0, 0.1, 0), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.vector.NearZero(); got != tt.expected {
				t.Errorf("NearZero(%v) = %v, expected %v", tt.vector, got, tt.expected)
			}
		})
	}
}

func TestReflect_PreservesLengthAndFlipsNormalComponent(t *testing.T) {
	normals := []Vec3{
		NewVec3(0, 1, 0),
		NewVec3(1, 1, 0).Normalize(),
		NewVec3(-0.3, 0.2, 0.9).Normalize(),
	}
	vectors := []Vec3{
		NewVec3(1, -1, 0),
		NewVec3(0.2, -3, 4),
		NewVec3(-5, 0.5, 0.1),
	}

	for _, n := range normals {
		for _, v := range vectors {
			r := Reflect(v, n)
			if math.Abs(r.Length()-v.Length()) > 1e-9 {
				t.Errorf("Reflect(%v, %v) changed length: %f vs %f", v, n, r.Length(), v.Length())
			}
			if math.Abs(r.Dot(n)+v.Dot(n)) > 1e-9 {
				t.Errorf("Reflect(%v, %v) normal component %f, expected %f", v, n, r.Dot(n), -v.Dot(n))
			}
		}
	}
}

func TestRefract(t *testing.T) {
	n := NewVec3(0, 1, 0)

	t.Run("Matched index does not bend", func(t *testing.T) {
		uv := NewVec3(1, -1, 0).Normalize()
		refracted := Refract(uv, n, 1.0)
		if refracted.Subtract(uv).Length() > 1e-9 {
			t.Errorf("Expected %v, got %v", uv, refracted)
		}
	})

	t.Run("Entering denser medium bends toward normal", func(t *testing.T) {
		uv := NewVec3(1, -1, 0).Normalize()
		refracted := Refract(uv, n, 1.0/1.5)
		if math.Abs(refracted.Length()-1) > 1e-9 {
			t.Errorf("Expected unit refracted vector, got length %f", refracted.Length())
		}
		sinIn := math.Abs(uv.X)
		sinOut := math.Abs(refracted.X)
		if math.Abs(sinIn/1.5-sinOut) > 1e-9 {
			t.Errorf("Snell's law violated: sin in %f, sin out %f", sinIn, sinOut)
		}
	})
}

func TestRay_At(t *testing.T) {
	tests := []struct {
		name     string
		ray      Ray
		param    float64
		expected Vec3
	}{
		{"At origin", NewRay(NewVec3(1, 2, 3), NewVec3(1, 0, 0)), 0, NewVec3(1, 2, 3)},
		{"Unit step", NewRay(NewVec3(1, 2, 3), NewVec3(1, 0, 0)), 1, NewVec3(2, 2, 3)},
		{"Scaled direction", NewRay(NewVec3(0, 0, 0), NewVec3(2, 3, 4)), 2, NewVec3(4, 6, 8)},
		{"Negative t", NewRay(NewVec3(5, 5, 5), NewVec3(-1, -1, -1)), -2, NewVec3(7, 7, 7)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ray.At(tt.param); !got.Equals(tt.expected) {
				t.Errorf("At(%f) = %v, expected %v", tt.param, got, tt.expected)
			}
		})
	}
}

func TestVec3_GammaCorrect(t *testing.T) {
	c := NewVec3(0.25, 1, 0)
	if got := c.GammaCorrect(1.0); !got.Equals(c) {
		t.Errorf("Gamma 1 should be identity, got %v", got)
	}
	got := c.GammaCorrect(2.0)
	if math.Abs(got.X-0.5) > 1e-12 || got.Y != 1 || got.Z != 0 {
		t.Errorf("Expected (0.5, 1, 0), got %v", got)
	}
}
