package integrator

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/material"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

const (
	// sunDiskCosine gates the angular sun-disk term: directions whose dot
	// with the sun direction exceed it count as hitting the disk. Models a
	// small sun without true area-light sampling.
	sunDiskCosine = 0.999

	// Self-intersection offset: relative to hit distance with an absolute
	// floor, so large scenes do not re-hit the surface they just left.
	epsilonScale = 1e-4
	epsilonFloor = 1e-4
)

// highlightTint replaces material shading on the selected object.
var highlightTint = mgl64.Vec3{1.0, 0.55, 0.1}

// PathTracer shades rays against a frame-stable scene snapshot. It holds
// only read-only state, so a single instance is shared by all pixel
// workers of a frame.
type PathTracer struct {
	world    *scene.Snapshot
	settings core.RenderSettings
}

// New creates a path tracer for one frame's snapshot and settings.
func New(world *scene.Snapshot, settings core.RenderSettings) *PathTracer {
	return &PathTracer{world: world, settings: settings}
}

// SamplePixel computes one sample's color for the active render mode.
// Monte-Carlo modes (Realistic, RayDirDebug) trace a full path; the other
// modes take a single intersection. The advanced seed is returned so the
// caller can chain further samples.
func (pt *PathTracer) SamplePixel(ray core.Ray, seed core.Seed) (mgl64.Vec3, core.Seed) {
	switch pt.settings.Mode {
	case core.ModeRealistic:
		radiance, _, seed := pt.trace(ray, seed)
		return radiance, seed
	case core.ModeRayDirDebug:
		_, lastDir, seed := pt.trace(ray, seed)
		return core.Remap01(lastDir.Normalize()), seed
	case core.ModeNoiseDebug:
		v, seed := core.Next1D(seed)
		return core.Gray(v), seed
	}
	return pt.sampleFlat(ray, seed)
}

// sampleFlat handles the single-intersection modes. A miss returns the sky
// color directly; the sun-disk term is specific to the path integrator.
func (pt *PathTracer) sampleFlat(ray core.Ray, seed core.Seed) (mgl64.Vec3, core.Seed) {
	hit, ok := pt.world.Intersect(ray)
	if !ok {
		return pt.settings.SkyColor, seed
	}

	mat := pt.world.Objects[hit.Object].Material
	switch pt.settings.Mode {
	case core.ModePreview:
		return pt.shadePreview(hit, mat), seed
	case core.ModePosition:
		return core.Remap01(hit.Point), seed
	case core.ModeNormal:
		return core.Remap01(hit.Normal), seed
	case core.ModeDepth:
		return core.Gray(hit.Distance / 100), seed
	case core.ModeFresnel:
		return core.Gray(pt.fresnel(ray, hit, mat)), seed
	case core.ModeRoughness:
		return core.Gray(math.Max(mat.Roughness-pt.fresnel(ray, hit, mat), 0)), seed
	}
	return pt.settings.SkyColor, seed
}

// trace is the iterative path loop. It returns the accumulated radiance,
// the direction of the last ray segment (for the ray-direction debug
// view), and the advanced seed.
func (pt *PathTracer) trace(ray core.Ray, seed core.Seed) (mgl64.Vec3, mgl64.Vec3, core.Seed) {
	light := mgl64.Vec3{}
	throughput := mgl64.Vec3{1, 1, 1}
	current := ray

	for bounce := 0; bounce <= pt.settings.MaxBounces; bounce++ {
		hit, ok := pt.world.Intersect(current)
		if !ok {
			light = light.Add(core.MulElem(throughput, pt.skyRadiance(current.Direction)))
			return light, current.Direction, seed
		}

		mat := pt.world.Objects[hit.Object].Material

		if hit.Object == pt.settings.HighlightIndex {
			// Editor visualization: the tint replaces material shading for
			// this bounce; the path still scatters.
			light = light.Add(core.MulElem(throughput, highlightTint))
		} else {
			switch mat.Kind {
			case material.Emissive:
				// Emission is added before any throughput update for this
				// surface: an emissive-only scene yields exactly
				// base * strength after one bounce.
				emitted := mat.BaseColor.Mul(mat.EmissiveStrength)
				light = light.Add(core.MulElem(throughput, emitted))
				return light, current.Direction, seed

			case material.Transmissive:
				var opaque bool
				var next core.Ray
				opaque, next, throughput, seed = pt.scatterTransmissive(current, hit, mat, throughput, seed)
				if !opaque {
					current = next
					continue
				}
				// Opacity roll shades this bounce as a solid surface.
				throughput = core.MulElem(throughput, mat.BaseColor)

			case material.Solid:
				throughput = core.MulElem(throughput, mat.BaseColor)
			}
		}

		current, seed = pt.scatterOpaque(current, hit, mat, seed)
	}

	if pt.settings.SkyAtBounceCap {
		light = light.Add(core.MulElem(throughput, pt.skyRadiance(current.Direction)))
	}
	return light, current.Direction, seed
}

// scatterOpaque picks the next bounce direction for an opaque surface:
// a stochastic choice between the specular and diffuse lobes, with the
// specular probability adjusted by the Schlick-Fresnel term and the
// specular direction itself blended toward diffuse by roughness².
func (pt *PathTracer) scatterOpaque(current core.Ray, hit core.Hit, mat material.Material, seed core.Seed) (core.Ray, core.Seed) {
	unit := current.Direction.Normalize()

	diffuse, seed := core.SampleHemisphere(seed, hit.Normal)
	specular := core.Reflect(unit, hit.Normal)

	specularChance := material.Schlick(1.0, mat.IOR, unit, hit.Normal, mat.SpecularChance, 1.0)
	pick, seed := core.Next1D(seed)

	var direction mgl64.Vec3
	if pick < specularChance {
		// Squaring roughness compresses its perceptual non-linearity.
		direction = core.Lerp(specular, diffuse, mat.Roughness*mat.Roughness).Normalize()
	} else {
		direction = diffuse
	}

	return core.Ray{
		Origin:    hit.Point.Add(hit.Normal.Mul(offsetEpsilon(hit.Distance))),
		Direction: direction,
	}, seed
}

// scatterTransmissive handles the refractive material path. With
// probability mat.Opacity the surface is shaded as opaque instead
// (opaque=true and the returned ray is unused). Otherwise the ray either
// reflects off or refracts through the boundary, Fresnel-weighted, and the
// throughput is tinted by the base color.
func (pt *PathTracer) scatterTransmissive(current core.Ray, hit core.Hit, mat material.Material, throughput mgl64.Vec3, seed core.Seed) (bool, core.Ray, mgl64.Vec3, core.Seed) {
	roll, seed := core.Next1D(seed)
	if roll < mat.Opacity {
		return true, core.Ray{}, throughput, seed
	}

	unit := current.Direction.Normalize()

	// Flip the shading normal when exiting the medium.
	normal := hit.Normal
	n1, n2 := 1.0, mat.IOR
	if unit.Dot(hit.Normal) > 0 {
		normal = normal.Mul(-1)
		n1, n2 = mat.IOR, 1.0
	}

	reflectChance := material.Schlick(n1, n2, unit, normal, mat.SpecularChance, 1.0)
	pick, seed := core.Next1D(seed)

	eps := offsetEpsilon(hit.Distance)
	var next core.Ray
	if pick < reflectChance {
		next = core.Ray{
			Origin:    hit.Point.Add(normal.Mul(eps)),
			Direction: core.Reflect(unit, normal),
		}
	} else {
		next = core.Ray{
			Origin:    hit.Point.Sub(normal.Mul(eps)), // pushed through the boundary
			Direction: material.Refract(unit, normal, n1/n2),
		}
		throughput = core.MulElem(throughput, mat.BaseColor)
	}

	return false, next, throughput, seed
}

// skyRadiance is the terminal no-hit contribution: the sky color plus the
// sun disk when the escaping direction is close enough to the sun.
func (pt *PathTracer) skyRadiance(direction mgl64.Vec3) mgl64.Vec3 {
	radiance := pt.settings.SkyColor
	if direction.Normalize().Dot(pt.settings.SunDirection) > sunDiskCosine {
		radiance = radiance.Add(pt.settings.SunColor.Mul(pt.settings.SunStrength))
	}
	return radiance
}

// shadePreview is the analytic single-bounce shading used by the preview
// mode: base color scaled by the sun lambert term with an ambient floor.
func (pt *PathTracer) shadePreview(hit core.Hit, mat material.Material) mgl64.Vec3 {
	shade := math.Max(hit.Normal.Dot(pt.settings.SunDirection)*pt.settings.SunStrength, 0.1)

	color := mat.BaseColor
	if mat.Kind == material.Emissive {
		color = mat.BaseColor.Mul(math.Max(mat.EmissiveStrength, 1))
	}
	color = color.Mul(shade)

	if hit.Object == pt.settings.HighlightIndex {
		color = color.Add(highlightTint.Mul(0.25))
	}
	return color
}

// fresnel computes the viewer-angle Schlick term used by the Fresnel and
// roughness debug views.
func (pt *PathTracer) fresnel(ray core.Ray, hit core.Hit, mat material.Material) float64 {
	return material.Schlick(1.0, mat.IOR, ray.Direction.Normalize(), hit.Normal, mat.SpecularChance, 1.0)
}

func offsetEpsilon(distance float64) float64 {
	return math.Max(epsilonFloor, distance*epsilonScale)
}
