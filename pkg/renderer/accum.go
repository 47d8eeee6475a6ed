package renderer

import (
	"github.com/go-gl/mathgl/mgl64"
)

// AccumBuffer is the persistent per-pixel running sum of linear radiance
// across frames. Sums stay raw (non-averaged, non-gamma-encoded) so
// accumulation is numerically exact; averaging and encoding happen only at
// display time. Channels can exceed 1.0 before tone mapping.
type AccumBuffer struct {
	width, height int
	sum           []mgl64.Vec3
}

// NewAccumBuffer creates a zeroed accumulation buffer.
func NewAccumBuffer(width, height int) *AccumBuffer {
	return &AccumBuffer{
		width:  width,
		height: height,
		sum:    make([]mgl64.Vec3, width*height),
	}
}

// Reset zeroes the buffer, reallocating if the size changed.
func (b *AccumBuffer) Reset(width, height int) {
	if width != b.width || height != b.height {
		b.width = width
		b.height = height
		b.sum = make([]mgl64.Vec3, width*height)
		return
	}
	for i := range b.sum {
		b.sum[i] = mgl64.Vec3{}
	}
}

// Add folds one frame's radiance sample into the pixel. The first frame of
// a sequence, or any frame with accumulation disabled, overwrites instead
// of summing.
func (b *AccumBuffer) Add(x, y int, sample mgl64.Vec3, frameIndex int, accumulate bool) {
	i := y*b.width + x
	if frameIndex <= 1 || !accumulate {
		b.sum[i] = sample
		return
	}
	b.sum[i] = b.sum[i].Add(sample)
}

// At returns the raw accumulated sum for a pixel.
func (b *AccumBuffer) At(x, y int) mgl64.Vec3 {
	return b.sum[y*b.width+x]
}
