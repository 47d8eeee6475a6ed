package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Ray represents a ray with an origin and direction.
// Directions are unit length by convention, but transforms may denormalize
// them; code that depends on unit length must normalize explicitly.
type Ray struct {
	Origin    mgl64.Vec3
	Direction mgl64.Vec3
}

// NewRay creates a new ray
func NewRay(origin, direction mgl64.Vec3) Ray {
	return Ray{Origin: origin, Direction: direction}
}

// At returns the point at parameter t along the ray
func (r Ray) At(t float64) mgl64.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Hit describes the nearest intersection found for a ray.
// When a lookup reports no hit, Point and Normal are not meaningful and
// Distance is MissDistance; callers must check the hit flag first.
type Hit struct {
	Object   int        // index of the hit object in the scene
	Point    mgl64.Vec3 // world space
	Normal   mgl64.Vec3 // unit length, world space
	Distance float64    // world-space distance from the ray origin
}

// MissDistance is the sentinel distance for "no hit". The largest finite
// float keeps minimum comparisons against real hits branch-free.
const MissDistance = math.MaxFloat64

// MissHit returns the sentinel no-hit value.
func MissHit() Hit {
	return Hit{Object: -1, Distance: MissDistance}
}
