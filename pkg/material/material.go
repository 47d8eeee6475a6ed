package material

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Kind tags the shading behavior of a material.
type Kind int

const (
	Solid       Kind = iota // opaque diffuse/specular surface
	Emissive                // emits light, terminates paths
	Transmissive            // refractive surface (glass-like)
)

var kindNames = map[Kind]string{
	Solid:        "solid",
	Emissive:     "emissive",
	Transmissive: "transmissive",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind parses a material kind name as used in scene files.
func ParseKind(name string) (Kind, error) {
	for kind, n := range kindNames {
		if n == name {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown material kind %q", name)
}

// Material is a plain shading record. Fields beyond BaseColor and Roughness
// are meaningful only for the kinds noted on each.
type Material struct {
	Kind      Kind
	BaseColor mgl64.Vec3 // linear RGB, conventionally in [0,1], not clamped
	Roughness float64    // [0,1]

	EmissiveStrength float64 // >= 0, Emissive only
	IOR              float64 // > 0, index of refraction for Fresnel/refraction
	SpecularChance   float64 // [0,1], baseline specular lobe probability
	Opacity          float64 // [0,1], Transmissive only: chance to shade as opaque
}

// NewSolid creates an opaque material.
func NewSolid(color mgl64.Vec3, roughness float64) Material {
	return Material{
		Kind:           Solid,
		BaseColor:      color,
		Roughness:      roughness,
		IOR:            1.5,
		SpecularChance: 0.02,
	}
}

// NewEmissive creates a light-emitting material.
func NewEmissive(color mgl64.Vec3, strength float64) Material {
	return Material{
		Kind:             Emissive,
		BaseColor:        color,
		EmissiveStrength: strength,
		IOR:              1.0,
	}
}

// NewTransmissive creates a refractive glass-like material.
func NewTransmissive(color mgl64.Vec3, roughness, ior float64) Material {
	return Material{
		Kind:           Transmissive,
		BaseColor:      color,
		Roughness:      roughness,
		IOR:            ior,
		SpecularChance: 0.02,
	}
}

// Schlick computes the Fresnel reflect amount for a ray crossing from a
// medium with refractive index n1 into n2, rescaled to [f0, f90]. Under
// total internal reflection it returns f90 outright.
func Schlick(n1, n2 float64, incident, normal mgl64.Vec3, f0, f90 float64) float64 {
	r0 := (n1 - n2) / (n1 + n2)
	r0 *= r0

	cosX := -normal.Dot(incident)
	if n1 > n2 {
		// Exiting a denser medium: check for total internal reflection.
		ratio := n1 / n2
		sinT2 := ratio * ratio * (1 - cosX*cosX)
		if sinT2 > 1 {
			return f90
		}
		cosX = math.Sqrt(1 - sinT2)
	}

	x := 1 - cosX
	reflectance := r0 + (1-r0)*x*x*x*x*x
	return f0 + (f90-f0)*reflectance
}

// Refract bends a unit direction through a surface with unit normal n using
// Snell's law. etaiOverEtat is the ratio of refractive indices across the
// boundary. The caller must have rejected total internal reflection.
func Refract(uv, n mgl64.Vec3, etaiOverEtat float64) mgl64.Vec3 {
	cosTheta := math.Min(-uv.Dot(n), 1.0)
	rOutPerp := uv.Add(n.Mul(cosTheta)).Mul(etaiOverEtat)
	rOutParallel := n.Mul(-math.Sqrt(math.Abs(1.0 - rOutPerp.Dot(rOutPerp))))
	return rOutPerp.Add(rOutParallel)
}
