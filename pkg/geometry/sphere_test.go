package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/material"
)

func testMaterial() material.Material {
	return material.NewSolid(mgl64.Vec3{0.8, 0.8, 0.8}, 1.0)
}

func TestSphereIntersection(t *testing.T) {
	unit := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())
	offset := NewObject(Sphere,
		mgl64.Vec3{2, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())
	small := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.5, 0.5, 0.5},
		testMaterial())

	tests := []struct {
		name         string
		object       Object
		ray          core.Ray
		wantHit      bool
		wantPoint    mgl64.Vec3
		wantNormal   mgl64.Vec3
		wantDistance float64
	}{
		{
			name:         "head-on hit from +z",
			object:       unit,
			ray:          core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}),
			wantHit:      true,
			wantPoint:    mgl64.Vec3{0, 0, 1},
			wantNormal:   mgl64.Vec3{0, 0, 1},
			wantDistance: 2,
		},
		{
			name:    "miss above the sphere",
			object:  unit,
			ray:     core.NewRay(mgl64.Vec3{0, 2, 3}, mgl64.Vec3{0, 0, -1}),
			wantHit: false,
		},
		{
			name:    "sphere behind the ray",
			object:  unit,
			ray:     core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1}),
			wantHit: false,
		},
		{
			name:         "translated sphere",
			object:       offset,
			ray:          core.NewRay(mgl64.Vec3{2, 0, 3}, mgl64.Vec3{0, 0, -1}),
			wantHit:      true,
			wantPoint:    mgl64.Vec3{2, 0, 1},
			wantNormal:   mgl64.Vec3{0, 0, 1},
			wantDistance: 2,
		},
		{
			name:         "scaled sphere, world distance",
			object:       small,
			ray:          core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}),
			wantHit:      true,
			wantPoint:    mgl64.Vec3{0, 0, 0.5},
			wantNormal:   mgl64.Vec3{0, 0, 1},
			wantDistance: 2.5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := tt.object.Intersect(tt.ray)
			if ok != tt.wantHit {
				t.Fatalf("Intersect hit = %v, want %v", ok, tt.wantHit)
			}
			if !ok {
				return
			}
			if !hit.Point.ApproxEqualThreshold(tt.wantPoint, 1e-9) {
				t.Errorf("Point = %v, want %v", hit.Point, tt.wantPoint)
			}
			if !hit.Normal.ApproxEqualThreshold(tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
			if math.Abs(hit.Distance-tt.wantDistance) > 1e-9 {
				t.Errorf("Distance = %v, want %v", hit.Distance, tt.wantDistance)
			}
		})
	}
}

func TestSphereNonUniformScaleNormal(t *testing.T) {
	// An ellipsoid stretched along x. At a point off the axes the
	// geometric normal is not the radial direction; it must come from the
	// inverse-transpose, staying perpendicular to the surface.
	obj := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 1, 1},
		testMaterial())

	ray := core.NewRay(mgl64.Vec3{1, 0.5, 3}, mgl64.Vec3{0, 0, -1})
	hit, ok := obj.Intersect(ray)
	if !ok {
		t.Fatal("Expected a hit on the ellipsoid")
	}

	if math.Abs(hit.Normal.Len()-1) > 1e-9 {
		t.Errorf("Normal not unit length: %v", hit.Normal.Len())
	}

	// Implicit surface (x/2)² + y² + z² = 1 has gradient (x/2, 2y, 2z).
	p := hit.Point
	gradient := mgl64.Vec3{p.X() / 2, 2 * p.Y(), 2 * p.Z()}.Normalize()
	if !hit.Normal.ApproxEqualThreshold(gradient, 1e-9) {
		t.Errorf("Normal = %v, want surface gradient %v", hit.Normal, gradient)
	}
}

func TestSphereRotationInvariant(t *testing.T) {
	// Rotating a uniform sphere must not change the hit.
	plain := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())
	rotated := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0.3, 1.1, 2.0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	ray := core.NewRay(mgl64.Vec3{0.2, -0.3, 3}, mgl64.Vec3{0, 0, -1})

	h1, ok1 := plain.Intersect(ray)
	h2, ok2 := rotated.Intersect(ray)
	if !ok1 || !ok2 {
		t.Fatalf("Expected hits on both spheres, got %v and %v", ok1, ok2)
	}
	if !h1.Point.ApproxEqualThreshold(h2.Point, 1e-9) {
		t.Errorf("Rotated sphere hit %v, want %v", h2.Point, h1.Point)
	}
	if math.Abs(h1.Distance-h2.Distance) > 1e-9 {
		t.Errorf("Rotated sphere distance %v, want %v", h2.Distance, h1.Distance)
	}
}

func TestSphereBackIntersection(t *testing.T) {
	obj := NewObject(Sphere,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	// From inside the sphere the far surface is ahead.
	ray := core.NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1})
	hit, ok := obj.IntersectBack(ray)
	if !ok {
		t.Fatal("Expected a back-face hit from inside")
	}
	want := mgl64.Vec3{0, 0, -1}
	if !hit.Point.ApproxEqualThreshold(want, 1e-9) {
		t.Errorf("Back hit point = %v, want %v", hit.Point, want)
	}
	if math.Abs(hit.Distance-1) > 1e-9 {
		t.Errorf("Back hit distance = %v, want 1", hit.Distance)
	}

	// From outside, the back test returns the far side of the sphere.
	ray = core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1})
	hit, ok = obj.IntersectBack(ray)
	if !ok {
		t.Fatal("Expected a back-face hit through the sphere")
	}
	if math.Abs(hit.Distance-4) > 1e-9 {
		t.Errorf("Far-side distance = %v, want 4", hit.Distance)
	}
}
