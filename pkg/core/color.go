package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Linear RGB colors are carried as mgl64.Vec3. The helpers below cover the
// component-wise operations mathgl does not provide on vectors.

// MulElem returns the component-wise (Hadamard) product of two vectors.
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}

// Lerp linearly interpolates between a and b by t.
func Lerp(a, b mgl64.Vec3, t float64) mgl64.Vec3 {
	return a.Mul(1 - t).Add(b.Mul(t))
}

// Gray returns a grayscale color with all channels set to v.
func Gray(v float64) mgl64.Vec3 {
	return mgl64.Vec3{v, v, v}
}

// Clamp01 clamps each component to [0, 1].
func Clamp01(v mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		mgl64.Clamp(v[0], 0, 1),
		mgl64.Clamp(v[1], 0, 1),
		mgl64.Clamp(v[2], 0, 1),
	}
}

// GammaEncode applies gamma encoding with the given exponent denominator,
// i.e. each channel becomes pow(c, 1/gamma).
func GammaEncode(v mgl64.Vec3, gamma float64) mgl64.Vec3 {
	inv := 1.0 / gamma
	return mgl64.Vec3{
		math.Pow(v[0], inv),
		math.Pow(v[1], inv),
		math.Pow(v[2], inv),
	}
}

// Luminance returns the perceptual luminance of an RGB color
// using standard weights: 0.299*R + 0.587*G + 0.114*B.
func Luminance(v mgl64.Vec3) float64 {
	return 0.299*v[0] + 0.587*v[1] + 0.114*v[2]
}

// Remap01 maps a vector with components in [-1,1] to [0,1].
// Used by the position/normal/direction debug views.
func Remap01(v mgl64.Vec3) mgl64.Vec3 {
	return v.Mul(0.5).Add(mgl64.Vec3{0.5, 0.5, 0.5})
}

// Reflect mirrors v about the unit normal n: v - 2*dot(v,n)*n.
func Reflect(v, n mgl64.Vec3) mgl64.Vec3 {
	return v.Sub(n.Mul(2 * v.Dot(n)))
}
