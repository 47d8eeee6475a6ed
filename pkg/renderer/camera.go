package renderer

import (
	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/scene"
)

var worldUp = mgl64.Vec3{0, 1, 0}

const (
	nearClip = 0.1
	farClip  = 100.0
)

// Camera owns the projection/view matrices and their inverses, and hands
// out world-space primary ray directions. Every pose or lens change bumps
// the revision counter, which the pipeline uses to invalidate the primary
// ray cache and restart accumulation.
type Camera struct {
	position    mgl64.Vec3
	forward     mgl64.Vec3 // unit length
	verticalFOV float64    // radians

	width, height int

	proj    mgl64.Mat4
	invProj mgl64.Mat4
	view    mgl64.Mat4
	invView mgl64.Mat4

	revision uint64
}

// NewCamera creates a camera from a scene camera spec and screen size.
func NewCamera(spec scene.CameraSpec, width, height int) *Camera {
	c := &Camera{
		position:    spec.Position,
		forward:     spec.Forward.Normalize(),
		verticalFOV: spec.VerticalFOV,
		width:       width,
		height:      height,
	}
	c.recalcProj()
	c.recalcView()
	return c
}

// Position returns the camera's world position.
func (c *Camera) Position() mgl64.Vec3 { return c.position }

// Forward returns the camera's unit forward direction.
func (c *Camera) Forward() mgl64.Vec3 { return c.forward }

// Revision advances whenever the camera pose, lens, or screen size change.
func (c *Camera) Revision() uint64 { return c.revision }

// referenceUp returns the up vector used to orient the camera. World up
// degenerates when forward points straight up or down, so it falls back
// to the z axis.
func (c *Camera) referenceUp() mgl64.Vec3 {
	if cross := c.forward.Cross(worldUp); cross.Dot(cross) >= 1e-12 {
		return worldUp
	}
	return mgl64.Vec3{0, 0, 1}
}

// Basis returns the camera's right and up vectors, used for sub-pixel
// jitter offsets.
func (c *Camera) Basis() (right, up mgl64.Vec3) {
	right = c.forward.Cross(c.referenceUp()).Normalize()
	up = right.Cross(c.forward).Normalize()
	return right, up
}

// Move translates the camera along its forward/right/up basis.
func (c *Camera) Move(forward, right, up float64) {
	if forward == 0 && right == 0 && up == 0 {
		return
	}
	rightDir, _ := c.Basis()
	c.position = c.position.
		Add(c.forward.Mul(forward)).
		Add(rightDir.Mul(right)).
		Add(worldUp.Mul(up))
	c.recalcView()
}

// Rotate applies yaw and pitch deltas in radians to the forward direction.
func (c *Camera) Rotate(yaw, pitch float64) {
	if yaw == 0 && pitch == 0 {
		return
	}
	right, _ := c.Basis()
	q := mgl64.QuatRotate(-pitch, right).Mul(mgl64.QuatRotate(-yaw, worldUp)).Normalize()
	c.forward = q.Rotate(c.forward).Normalize()
	c.recalcView()
}

// SetPose replaces the camera position and forward direction outright.
func (c *Camera) SetPose(position, forward mgl64.Vec3) {
	c.position = position
	c.forward = forward.Normalize()
	c.recalcView()
}

// SetFOV updates the vertical field of view in radians.
func (c *Camera) SetFOV(fov float64) {
	if mgl64.FloatEqual(fov, c.verticalFOV) {
		return
	}
	c.verticalFOV = fov
	c.recalcProj()
}

// SetScreenSize updates the projection for a new output size in pixels.
func (c *Camera) SetScreenSize(width, height int) {
	if width == c.width && height == c.height {
		return
	}
	c.width = width
	c.height = height
	c.recalcProj()
}

// RayDirection computes the world-space unit ray direction through the
// center of pixel (x, y): pixel to NDC, unprojected through the inverse
// projection (with perspective divide), then rotated into world space by
// the linear part of the inverse view. Directions use a zero homogeneous
// coordinate; they are never translated.
func (c *Camera) RayDirection(x, y int) mgl64.Vec3 {
	ndcX := (float64(x)+0.5)/float64(c.width)*2 - 1
	ndcY := 1 - (float64(y)+0.5)/float64(c.height)*2

	target := c.invProj.Mul4x1(mgl64.Vec4{ndcX, ndcY, 1, 1})
	viewDir := target.Vec3().Mul(1 / target.W()).Normalize()
	return c.invView.Mul4x1(viewDir.Vec4(0)).Vec3().Normalize()
}

func (c *Camera) recalcProj() {
	aspect := float64(c.width) / float64(c.height)
	c.proj = mgl64.Perspective(c.verticalFOV, aspect, nearClip, farClip)
	c.invProj = c.proj.Inv()
	c.revision++
}

func (c *Camera) recalcView() {
	c.view = mgl64.LookAtV(c.position, c.position.Add(c.forward), c.referenceUp())
	c.invView = c.view.Inv()
	c.revision++
}
