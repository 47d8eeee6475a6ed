package geometry

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
)

// boxSlabs runs the slab method for the unit box [-1,1]³ against a
// local-space ray. Zero direction components produce signed infinities in
// the reciprocal; the comparison chain handles them per IEEE-754 semantics.
func boxSlabs(local core.Ray) (tNear, tFar float64, nearAxis, farAxis int, ok bool) {
	tNear = math.Inf(-1)
	tFar = math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		inv := 1.0 / local.Direction[axis]
		t1 := (-1 - local.Origin[axis]) * inv
		t2 := (1 - local.Origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tNear {
			tNear = t1
			nearAxis = axis
		}
		if t2 < tFar {
			tFar = t2
			farAxis = axis
		}
	}

	return tNear, tFar, nearAxis, farAxis, tNear <= tFar
}

// axisNormal returns the unit normal of the box face on the given axis,
// facing against the ray direction component sign when entering (sign=-1)
// or along it when exiting (sign=+1).
func axisNormal(direction mgl64.Vec3, axis int, sign float64) mgl64.Vec3 {
	var n mgl64.Vec3
	if direction[axis] >= 0 {
		n[axis] = sign
	} else {
		n[axis] = -sign
	}
	return n
}

// intersectBox tests the ray against the implicit unit box in the object's
// local space, reporting the entry face.
func (o *Object) intersectBox(ray core.Ray) (core.Hit, bool) {
	local := o.localRay(ray)

	tNear, tFar, nearAxis, _, ok := boxSlabs(local)
	if !ok || tFar < 0 || tNear < 0 {
		return core.MissHit(), false
	}

	localPoint := local.At(tNear)
	localNormal := axisNormal(local.Direction, nearAxis, -1)
	return o.worldHit(ray, localPoint, localNormal), true
}

// IntersectBack tests the ray against the object's far surface, reporting
// the exit face. Interior-surface lookups (e.g. where a refracted ray
// leaves a glass box) use this instead of the entry test. Spheres fall back
// to the far quadratic root.
func (o *Object) IntersectBack(ray core.Ray) (core.Hit, bool) {
	switch o.Kind {
	case Sphere:
		return o.intersectSphereBack(ray)
	case Box:
		return o.intersectBoxBack(ray)
	}
	return core.MissHit(), false
}

func (o *Object) intersectBoxBack(ray core.Ray) (core.Hit, bool) {
	local := o.localRay(ray)

	tNear, tFar, _, farAxis, ok := boxSlabs(local)
	if !ok || tFar < 0 || tNear > tFar {
		return core.MissHit(), false
	}

	localPoint := local.At(tFar)
	localNormal := axisNormal(local.Direction, farAxis, 1)
	return o.worldHit(ray, localPoint, localNormal), true
}

func (o *Object) intersectSphereBack(ray core.Ray) (core.Hit, bool) {
	local := o.localRay(ray)

	b := local.Origin.Dot(local.Direction)
	c := local.Origin.Dot(local.Origin) - 1

	discriminant := b*b - c
	if discriminant < 0 {
		return core.MissHit(), false
	}

	t := -b + math.Sqrt(discriminant)
	if t < 0 {
		return core.MissHit(), false
	}

	localPoint := local.At(t)
	return o.worldHit(ray, localPoint, localPoint), true
}

// IntersectAABB is a coarse boolean overlap test between a ray and an
// axis-aligned box given by two opposite corners in the ray's own
// coordinate space. It reports whether the ray's slab interval is
// non-empty; no hit record is produced. Intended as a culling primitive
// ahead of the exact per-primitive tests.
func IntersectAABB(ray core.Ray, boxMin, boxMax mgl64.Vec3) bool {
	tNear := math.Inf(-1)
	tFar := math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		inv := 1.0 / ray.Direction[axis]
		t1 := (boxMin[axis] - ray.Origin[axis]) * inv
		t2 := (boxMax[axis] - ray.Origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tNear = math.Max(tNear, t1)
		tFar = math.Min(tFar, t2)
	}

	return tNear <= tFar && tFar >= 0
}
