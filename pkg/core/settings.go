package core

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// RenderMode selects what the shading pass writes per pixel.
type RenderMode int

const (
	ModePreview RenderMode = iota // analytic single-bounce shading
	ModeRealistic                 // Monte-Carlo path tracing
	ModePosition                  // world position remapped to [0,1]
	ModeNormal                    // world normal remapped to [0,1]
	ModeDepth                     // hit distance / 100 as grayscale
	ModeFresnel                   // Schlick term as grayscale
	ModeRoughness                 // roughness minus Fresnel, clamped, grayscale
	ModeRayDirDebug               // final bounce direction of a traced path
	ModeNoiseDebug                // raw RNG output as grayscale
)

var modeNames = map[RenderMode]string{
	ModePreview:     "preview",
	ModeRealistic:   "realistic",
	ModePosition:    "position",
	ModeNormal:      "normal",
	ModeDepth:       "depth",
	ModeFresnel:     "fresnel",
	ModeRoughness:   "roughness",
	ModeRayDirDebug: "raydir",
	ModeNoiseDebug:  "noise",
}

func (m RenderMode) String() string {
	if name, ok := modeNames[m]; ok {
		return name
	}
	return fmt.Sprintf("mode(%d)", int(m))
}

// ParseRenderMode parses a mode name as used by the CLI and scene files.
func ParseRenderMode(name string) (RenderMode, error) {
	for mode, n := range modeNames {
		if n == name {
			return mode, nil
		}
	}
	return 0, fmt.Errorf("unknown render mode %q", name)
}

// MonteCarlo reports whether the mode averages multiple stochastic samples
// per pixel per frame. The other modes take a single deterministic sample.
func (m RenderMode) MonteCarlo() bool {
	return m == ModeRealistic || m == ModeRayDirDebug
}

// ToneCurve selects the HDR tone-mapping curve applied at display time.
type ToneCurve int

const (
	ToneCurveNone   ToneCurve = iota // pass through, rely on display clamping
	ToneCurveFilmic                  // ACES approximation
)

// RenderSettings is the per-frame render configuration. It is mutated only
// by the surrounding application and is read-only to the rendering core
// within a frame.
type RenderSettings struct {
	Mode            RenderMode
	MaxBounces      int  // >= 0
	SamplesPerFrame int  // >= 1
	Accumulate      bool // temporal accumulation across frames
	HighlightIndex  int  // selected object index, -1 for none

	SkyColor     mgl64.Vec3
	SunColor     mgl64.Vec3
	SunDirection mgl64.Vec3 // unit length
	SunStrength  float64    // >= 0

	ToneCurve ToneCurve

	// SkyAtBounceCap adds an implicit final bounce-to-sky term when a path
	// reaches the bounce cap instead of terminating with what it has.
	SkyAtBounceCap bool
}

// DefaultRenderSettings returns the settings the interactive app starts with.
func DefaultRenderSettings() RenderSettings {
	return RenderSettings{
		Mode:            ModeRealistic,
		MaxBounces:      5,
		SamplesPerFrame: 1,
		Accumulate:      true,
		HighlightIndex:  -1,
		SkyColor:        mgl64.Vec3{0.5, 0.7, 0.9},
		SunColor:        mgl64.Vec3{1.0, 0.95, 0.85},
		SunDirection:    SunDirection(0.8, 0.9),
		SunStrength:     1.0,
		ToneCurve:       ToneCurveFilmic,
	}
}

// SunDirection converts sun rotation (azimuth) and elevation angles in
// radians to a unit direction vector.
func SunDirection(rotation, elevation float64) mgl64.Vec3 {
	dir := mgl64.Vec3{
		math.Cos(rotation) * math.Cos(elevation),
		math.Sin(elevation),
		math.Sin(rotation) * math.Cos(elevation),
	}
	return dir.Normalize()
}
