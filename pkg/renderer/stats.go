package renderer

import "time"

// FrameStats summarizes one rendered frame.
type FrameStats struct {
	FrameIndex      int // accumulation frame count after this frame
	Width, Height   int
	SamplesPerPixel int // in-frame samples per pixel
	TotalSamples    int
	Elapsed         time.Duration
}
