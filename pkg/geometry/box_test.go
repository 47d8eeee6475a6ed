package geometry

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
)

func TestBoxSixFaces(t *testing.T) {
	obj := NewObject(Box,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	tests := []struct {
		name       string
		origin     mgl64.Vec3
		direction  mgl64.Vec3
		wantNormal mgl64.Vec3
	}{
		{"+x face", mgl64.Vec3{3, 0, 0}, mgl64.Vec3{-1, 0, 0}, mgl64.Vec3{1, 0, 0}},
		{"-x face", mgl64.Vec3{-3, 0, 0}, mgl64.Vec3{1, 0, 0}, mgl64.Vec3{-1, 0, 0}},
		{"+y face", mgl64.Vec3{0, 3, 0}, mgl64.Vec3{0, -1, 0}, mgl64.Vec3{0, 1, 0}},
		{"-y face", mgl64.Vec3{0, -3, 0}, mgl64.Vec3{0, 1, 0}, mgl64.Vec3{0, -1, 0}},
		{"+z face", mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}, mgl64.Vec3{0, 0, 1}},
		{"-z face", mgl64.Vec3{0, 0, -3}, mgl64.Vec3{0, 0, 1}, mgl64.Vec3{0, 0, -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hit, ok := obj.Intersect(core.NewRay(tt.origin, tt.direction))
			if !ok {
				t.Fatal("Expected a hit")
			}
			if !hit.Normal.ApproxEqualThreshold(tt.wantNormal, 1e-9) {
				t.Errorf("Normal = %v, want %v", hit.Normal, tt.wantNormal)
			}
			if math.Abs(hit.Distance-2) > 1e-9 {
				t.Errorf("Distance = %v, want 2", hit.Distance)
			}
		})
	}
}

func TestBoxAxisParallelRay(t *testing.T) {
	// Zero direction components produce infinities in the slab
	// reciprocals; the comparisons must still work.
	obj := NewObject(Box,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	// Inside the slab on x and y, hits the +z face.
	hit, ok := obj.Intersect(core.NewRay(mgl64.Vec3{0.5, -0.5, 3}, mgl64.Vec3{0, 0, -1}))
	if !ok {
		t.Fatal("Expected a hit for an axis-parallel ray inside the slabs")
	}
	if !hit.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 0, 1}, 1e-9) {
		t.Errorf("Normal = %v, want +z", hit.Normal)
	}

	// Outside the x slab: parallel ray can never enter.
	if _, ok := obj.Intersect(core.NewRay(mgl64.Vec3{2, 0, 3}, mgl64.Vec3{0, 0, -1})); ok {
		t.Error("Expected a miss for a parallel ray outside the slab")
	}
}

func TestBoxBehindRay(t *testing.T) {
	obj := NewObject(Box,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	if _, ok := obj.Intersect(core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1})); ok {
		t.Error("Expected a miss for a box behind the ray")
	}
}

func TestBoxScaledAndTranslated(t *testing.T) {
	obj := NewObject(Box,
		mgl64.Vec3{5, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{2, 1, 1},
		testMaterial())

	hit, ok := obj.Intersect(core.NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}))
	if !ok {
		t.Fatal("Expected a hit")
	}
	// Box spans x in [3, 7]; entry face at x=3.
	if !hit.Point.ApproxEqualThreshold(mgl64.Vec3{3, 0, 0}, 1e-9) {
		t.Errorf("Point = %v, want (3,0,0)", hit.Point)
	}
	if math.Abs(hit.Distance-3) > 1e-9 {
		t.Errorf("Distance = %v, want 3", hit.Distance)
	}
}

func TestBoxRotated(t *testing.T) {
	// Box rotated 45 degrees about y: its xz cross-section is a diamond
	// with vertices at distance sqrt(2). A ray offset from the center hits
	// the facing edge x+z = sqrt(2).
	obj := NewObject(Box,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, math.Pi / 4, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	hit, ok := obj.Intersect(core.NewRay(mgl64.Vec3{0.2, 0, 3}, mgl64.Vec3{0, 0, -1}))
	if !ok {
		t.Fatal("Expected a hit on the rotated box")
	}
	wantZ := math.Sqrt(2) - 0.2
	if math.Abs(hit.Point.Z()-wantZ) > 1e-9 {
		t.Errorf("Hit z = %v, want %v", hit.Point.Z(), wantZ)
	}
}

func TestBoxBackIntersection(t *testing.T) {
	obj := NewObject(Box,
		mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 1, 1},
		testMaterial())

	// From inside, the exit face is +z behind the travel direction -z.
	hit, ok := obj.IntersectBack(core.NewRay(mgl64.Vec3{0, 0, 0}, mgl64.Vec3{0, 0, -1}))
	if !ok {
		t.Fatal("Expected a back-face hit from inside")
	}
	if !hit.Point.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("Exit point = %v, want (0,0,-1)", hit.Point)
	}
	if !hit.Normal.ApproxEqualThreshold(mgl64.Vec3{0, 0, -1}, 1e-9) {
		t.Errorf("Exit normal = %v, want -z", hit.Normal)
	}

	// From outside, the exit face is the far side.
	hit, ok = obj.IntersectBack(core.NewRay(mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}))
	if !ok {
		t.Fatal("Expected a back-face hit through the box")
	}
	if math.Abs(hit.Distance-4) > 1e-9 {
		t.Errorf("Exit distance = %v, want 4", hit.Distance)
	}
}

func TestIntersectAABB(t *testing.T) {
	boxMin := mgl64.Vec3{-1, -1, -1}
	boxMax := mgl64.Vec3{1, 1, 1}

	tests := []struct {
		name      string
		origin    mgl64.Vec3
		direction mgl64.Vec3
		want      bool
	}{
		{"head-on", mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, -1}, true},
		{"from inside", mgl64.Vec3{0, 0, 0}, mgl64.Vec3{1, 0, 0}, true},
		{"miss to the side", mgl64.Vec3{3, 0, 3}, mgl64.Vec3{0, 0, -1}, false},
		{"behind the ray", mgl64.Vec3{0, 0, 3}, mgl64.Vec3{0, 0, 1}, false},
		{"axis-parallel inside slab", mgl64.Vec3{0.5, 0.5, 3}, mgl64.Vec3{0, 0, -1}, true},
		{"axis-parallel outside slab", mgl64.Vec3{2, 0, 3}, mgl64.Vec3{0, 0, -1}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := IntersectAABB(core.NewRay(tt.origin, tt.direction), boxMin, boxMax)
			if got != tt.want {
				t.Errorf("IntersectAABB = %v, want %v", got, tt.want)
			}
		})
	}
}
