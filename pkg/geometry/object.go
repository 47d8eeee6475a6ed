package geometry

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/material"
)

// Kind tags the analytic primitive an object is built from.
type Kind int

const (
	Sphere Kind = iota // implicit unit sphere at the local origin
	Box                // implicit unit box spanning [-1,1]³ in local space
)

var kindNames = map[Kind]string{
	Sphere: "sphere",
	Box:    "box",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses an object kind name as used in scene files.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown object kind %q", name)
}

// Object is a transformed analytic primitive with a material. The three
// matrices are kept in lock-step by SetPose: InverseTransform is always the
// exact inverse of Transform, and NormalTransform its transpose (for normal
// correction under non-uniform scale). Mutate the pose only through SetPose.
type Object struct {
	Kind     Kind
	Material material.Material

	Position mgl64.Vec3
	Rotation mgl64.Vec3 // Euler angles in radians, applied X then Y then Z
	Scale    mgl64.Vec3

	Transform        mgl64.Mat4 // object -> world
	InverseTransform mgl64.Mat4 // world -> object
	NormalTransform  mgl64.Mat4 // transpose of InverseTransform
}

// NewObject creates an object and computes its transform matrices.
func NewObject(kind Kind, position, rotation, scale mgl64.Vec3, mat material.Material) Object {
	o := Object{Kind: kind, Material: mat}
	o.SetPose(position, rotation, scale)
	return o
}

// SetPose updates the object's pose and recomputes all three matrices.
// Recomputation happens on mutation, never lazily, so readers can use the
// matrices without checking freshness.
func (o *Object) SetPose(position, rotation, scale mgl64.Vec3) {
	o.Position = position
	o.Rotation = rotation
	o.Scale = scale

	rot := mgl64.HomogRotate3DZ(rotation[2]).
		Mul4(mgl64.HomogRotate3DY(rotation[1])).
		Mul4(mgl64.HomogRotate3DX(rotation[0]))

	o.Transform = mgl64.Translate3D(position[0], position[1], position[2]).
		Mul4(rot).
		Mul4(mgl64.Scale3D(scale[0], scale[1], scale[2]))
	o.InverseTransform = o.Transform.Inv()
	o.NormalTransform = o.InverseTransform.Transpose()
}

// Intersect tests the ray against the object, dispatching on its kind.
// The returned hit has no object index; the scene traversal fills that in.
func (o *Object) Intersect(ray core.Ray) (core.Hit, bool) {
	switch o.Kind {
	case Sphere:
		return o.intersectSphere(ray)
	case Box:
		return o.intersectBox(ray)
	}
	return core.MissHit(), false
}

// transformPoint applies the full affine transform to a position
// (homogeneous coordinate 1).
func transformPoint(m mgl64.Mat4, p mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(p.Vec4(1)).Vec3()
}

// transformDirection applies only the linear part of the transform to a
// direction (homogeneous coordinate 0). Directions are never translated.
func transformDirection(m mgl64.Mat4, d mgl64.Vec3) mgl64.Vec3 {
	return m.Mul4x1(d.Vec4(0)).Vec3()
}

// localRay transforms a world-space ray into the object's local space.
// The local direction is normalized so parametric distances are in local
// units; hit distances are recomputed in world space afterwards.
func (o *Object) localRay(ray core.Ray) core.Ray {
	return core.Ray{
		Origin:    transformPoint(o.InverseTransform, ray.Origin),
		Direction: transformDirection(o.InverseTransform, ray.Direction).Normalize(),
	}
}

// worldHit converts a local-space hit position and normal back to world
// space. Distance is recomputed as the world-space distance from the ray
// origin: local parametric t is not comparable across objects with
// different scales.
func (o *Object) worldHit(ray core.Ray, localPoint, localNormal mgl64.Vec3) core.Hit {
	point := transformPoint(o.Transform, localPoint)
	normal := transformDirection(o.NormalTransform, localNormal).Normalize()
	return core.Hit{
		Object:   -1,
		Point:    point,
		Normal:   normal,
		Distance: point.Sub(ray.Origin).Len(),
	}
}
