package renderer

import (
	"image/color"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
)

// ACES filmic approximation constants (Narkowicz rational fit).
const (
	acesA = 2.51
	acesB = 0.03
	acesC = 2.43
	acesD = 0.59
	acesE = 0.14
)

// Display converts a pixel's accumulated linear radiance sum to its final
// display color: normalize by frame count when accumulating, apply the tone
// curve, gamma-encode with exponent 1/2.2, clamp to [0,1].
func Display(sum mgl64.Vec3, frameIndex int, accumulate bool, curve core.ToneCurve) mgl64.Vec3 {
	c := sum
	if accumulate && frameIndex > 0 {
		c = c.Mul(1 / float64(frameIndex))
	}

	switch curve {
	case core.ToneCurveFilmic:
		c = filmic(c)
	case core.ToneCurveNone:
		// Pass through; clamping below handles out-of-range values.
	}

	return core.Clamp01(core.GammaEncode(core.Clamp01(c), 2.2))
}

// filmic applies the ACES approximation x(ax+b) / (x(cx+d)+e) per channel,
// clamped to [0,1]. Maps 0 to 0 and asymptotically approaches 1.
func filmic(v mgl64.Vec3) mgl64.Vec3 {
	f := func(x float64) float64 {
		return mgl64.Clamp((x*(acesA*x+acesB))/(x*(acesC*x+acesD)+acesE), 0, 1)
	}
	return mgl64.Vec3{f(v[0]), f(v[1]), f(v[2])}
}

// toRGBA converts a display color with channels in [0,1] to an 8-bit RGBA
// pixel.
func toRGBA(v mgl64.Vec3) color.RGBA {
	return color.RGBA{
		R: uint8(255 * v[0]),
		G: uint8(255 * v[1]),
		B: uint8(255 * v[2]),
		A: 255,
	}
}
