package geometry

import (
	"math"

	"github.com/glimmer-rt/glimmer/pkg/core"
)

// intersectSphere tests the ray against the implicit unit sphere in the
// object's local space.
func (o *Object) intersectSphere(ray core.Ray) (core.Hit, bool) {
	local := o.localRay(ray)

	// Quadratic t² + 2bt + c = 0 for a unit sphere at the origin with a
	// unit local direction.
	b := local.Origin.Dot(local.Direction)
	c := local.Origin.Dot(local.Origin) - 1

	discriminant := b*b - c
	if discriminant < 0 {
		return core.MissHit(), false
	}

	// Near root. Rays starting inside or behind the surface are rejected;
	// inside-looking-out is not specially handled.
	t := -b - math.Sqrt(discriminant)
	if t < 0 {
		return core.MissHit(), false
	}

	// For a unit sphere at the origin, the local hit position is the
	// local normal.
	localPoint := local.At(t)
	return o.worldHit(ray, localPoint, localPoint), true
}
