package core

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Seed is the state of the pure-function sampler. Every sampling function
// consumes a seed and returns the advanced one; there is no hidden state, so
// the same seed always produces the same sequence across runs and processes.
type Seed uint32

// NewPixelSeed derives a per-pixel, per-frame seed. Adjacent pixels and
// consecutive frames land far apart in the hash's state space, which keeps
// visible correlation (banding) out of the noise.
func NewPixelSeed(x, y, width, frameIndex int) Seed {
	return Seed(uint32(y*width+x)*1973 + uint32(frameIndex)*926153)
}

// pcg is a PCG-style integer hash (permuted congruential generator output
// function over an LCG step).
func pcg(state uint32) uint32 {
	state = state*747796405 + 2891336453
	word := ((state >> ((state >> 28) + 4)) ^ state) * 277803737
	return (word >> 22) ^ word
}

// Next1D returns a float64 in [0, 1) and the advanced seed.
func Next1D(seed Seed) (float64, Seed) {
	s := pcg(uint32(seed))
	return float64(s) / (1 << 32), Seed(s)
}

// Next2D returns two floats in [0, 1) and the advanced seed.
func Next2D(seed Seed) (mgl64.Vec2, Seed) {
	x, seed := Next1D(seed)
	y, seed := Next1D(seed)
	return mgl64.Vec2{x, y}, seed
}

// Next3D returns three floats in [0, 1) and the advanced seed.
func Next3D(seed Seed) (mgl64.Vec3, Seed) {
	x, seed := Next1D(seed)
	y, seed := Next1D(seed)
	z, seed := Next1D(seed)
	return mgl64.Vec3{x, y, z}, seed
}

// SamplePointInUnitSphere generates a point inside the unit sphere using the
// inverse CDF method, avoiding rejection sampling.
func SamplePointInUnitSphere(sample mgl64.Vec3) mgl64.Vec3 {
	// r = ∛(u₁) accounts for volume scaling; cos(θ) uniform on [-1,1]
	r := math.Pow(sample[0], 1.0/3.0)
	phi := 2 * math.Pi * sample[1]
	cosTheta := 2*sample[2] - 1
	sinTheta := math.Sqrt(1 - cosTheta*cosTheta)

	return mgl64.Vec3{
		r * sinTheta * math.Cos(phi),
		r * sinTheta * math.Sin(phi),
		r * cosTheta,
	}
}

// SampleHemisphere generates an approximately cosine-weighted direction in
// the hemisphere around the unit normal: a uniform point in the unit sphere
// is added to the normal and the sum normalized. This is a cheap
// approximation rather than an unbiased cosine sampler; the bias is accepted
// for interactive use. Returns the direction and the advanced seed.
func SampleHemisphere(seed Seed, normal mgl64.Vec3) (mgl64.Vec3, Seed) {
	p, seed := Next3D(seed)
	dir := normal.Add(SamplePointInUnitSphere(p))
	if dir.Dot(dir) < 1e-12 {
		// Degenerate opposite of the normal; fall back to the normal itself.
		return normal, seed
	}
	dir = dir.Normalize()
	if dir.Dot(normal) < 0 {
		dir = dir.Mul(-1)
	}
	return dir, seed
}
