package scene

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
	"github.com/go-gl/mathgl/mgl64"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/geometry"
	"github.com/glimmer-rt/glimmer/pkg/material"
)

// CameraSpec is the camera pose a scene file requests. The renderer owns
// the live camera; this is only the starting point.
type CameraSpec struct {
	Position    mgl64.Vec3
	Forward     mgl64.Vec3
	VerticalFOV float64 // radians
}

// DefaultCameraSpec matches the interactive app's starting camera.
func DefaultCameraSpec() CameraSpec {
	return CameraSpec{
		Position:    mgl64.Vec3{0, 0, 3},
		Forward:     mgl64.Vec3{0, 0, -1},
		VerticalFOV: 1.0472, // 60 degrees
	}
}

type fileRoot struct {
	Settings fileSettings `toml:"settings"`
	Camera   fileCamera   `toml:"camera"`
	Objects  []fileObject `toml:"objects"`
}

type fileSettings struct {
	Mode            string     `toml:"mode"`
	MaxBounces      *int       `toml:"max-bounces"`
	SamplesPerFrame *int       `toml:"samples-per-frame"`
	Accumulate      *bool      `toml:"accumulate"`
	SkyColor        []float64  `toml:"sky-color"`
	SunColor        []float64  `toml:"sun-color"`
	SunRotation     *float64   `toml:"sun-rotation"`
	SunElevation    *float64   `toml:"sun-elevation"`
	SunStrength     *float64   `toml:"sun-strength"`
	ToneCurve       string     `toml:"tone-curve"`
	SkyAtBounceCap  *bool      `toml:"sky-at-bounce-cap"`
}

type fileCamera struct {
	Position []float64 `toml:"position"`
	Forward  []float64 `toml:"forward"`
	FOV      *float64  `toml:"fov"`
}

type fileObject struct {
	Name     string       `toml:"name"`
	Kind     string       `toml:"kind"`
	Position []float64    `toml:"position"`
	Rotation []float64    `toml:"rotation"`
	Scale    []float64    `toml:"scale"`
	Material fileMaterial `toml:"material"`
}

type fileMaterial struct {
	Kind             string    `toml:"kind"`
	Color            []float64 `toml:"color"`
	Roughness        *float64  `toml:"roughness"`
	EmissiveStrength *float64  `toml:"emissive-strength"`
	IOR              *float64  `toml:"ior"`
	SpecularChance   *float64  `toml:"specular-chance"`
	Opacity          *float64  `toml:"opacity"`
}

// LoadFile reads a TOML scene description: the object list plus optional
// render settings and camera overrides on top of the defaults.
func LoadFile(path string) (*Scene, core.RenderSettings, CameraSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, core.RenderSettings{}, CameraSpec{}, fmt.Errorf("reading scene file: %w", err)
	}
	return Load(data)
}

// Load parses a TOML scene description.
func Load(data []byte) (*Scene, core.RenderSettings, CameraSpec, error) {
	var root fileRoot
	if err := toml.Unmarshal(data, &root); err != nil {
		return nil, core.RenderSettings{}, CameraSpec{}, fmt.Errorf("parsing scene file: %w", err)
	}

	settings, err := root.Settings.apply(core.DefaultRenderSettings())
	if err != nil {
		return nil, core.RenderSettings{}, CameraSpec{}, err
	}

	camera, err := root.Camera.apply(DefaultCameraSpec())
	if err != nil {
		return nil, core.RenderSettings{}, CameraSpec{}, err
	}

	s := New()
	for i, fo := range root.Objects {
		obj, err := fo.build()
		if err != nil {
			return nil, core.RenderSettings{}, CameraSpec{}, fmt.Errorf("object %d (%q): %w", i, fo.Name, err)
		}
		name := fo.Name
		if name == "" {
			name = fmt.Sprintf("Object %d", i)
		}
		if _, err := s.Add(name, obj); err != nil {
			return nil, core.RenderSettings{}, CameraSpec{}, err
		}
	}

	return s, settings, camera, nil
}

func (fs fileSettings) apply(settings core.RenderSettings) (core.RenderSettings, error) {
	if fs.Mode != "" {
		mode, err := core.ParseRenderMode(fs.Mode)
		if err != nil {
			return settings, err
		}
		settings.Mode = mode
	}
	if fs.MaxBounces != nil {
		if *fs.MaxBounces < 0 {
			return settings, fmt.Errorf("max-bounces must be >= 0, got %d", *fs.MaxBounces)
		}
		settings.MaxBounces = *fs.MaxBounces
	}
	if fs.SamplesPerFrame != nil {
		if *fs.SamplesPerFrame < 1 {
			return settings, fmt.Errorf("samples-per-frame must be >= 1, got %d", *fs.SamplesPerFrame)
		}
		settings.SamplesPerFrame = *fs.SamplesPerFrame
	}
	if fs.Accumulate != nil {
		settings.Accumulate = *fs.Accumulate
	}
	if fs.SkyColor != nil {
		v, err := vec3From(fs.SkyColor, "sky-color")
		if err != nil {
			return settings, err
		}
		settings.SkyColor = v
	}
	if fs.SunColor != nil {
		v, err := vec3From(fs.SunColor, "sun-color")
		if err != nil {
			return settings, err
		}
		settings.SunColor = v
	}
	if fs.SunRotation != nil || fs.SunElevation != nil {
		rotation, elevation := 0.8, 0.9
		if fs.SunRotation != nil {
			rotation = *fs.SunRotation
		}
		if fs.SunElevation != nil {
			elevation = *fs.SunElevation
		}
		settings.SunDirection = core.SunDirection(rotation, elevation)
	}
	if fs.SunStrength != nil {
		settings.SunStrength = *fs.SunStrength
	}
	switch fs.ToneCurve {
	case "":
	case "none":
		settings.ToneCurve = core.ToneCurveNone
	case "filmic":
		settings.ToneCurve = core.ToneCurveFilmic
	default:
		return settings, fmt.Errorf("unknown tone-curve %q", fs.ToneCurve)
	}
	if fs.SkyAtBounceCap != nil {
		settings.SkyAtBounceCap = *fs.SkyAtBounceCap
	}
	return settings, nil
}

func (fc fileCamera) apply(spec CameraSpec) (CameraSpec, error) {
	if fc.Position != nil {
		v, err := vec3From(fc.Position, "camera.position")
		if err != nil {
			return spec, err
		}
		spec.Position = v
	}
	if fc.Forward != nil {
		v, err := vec3From(fc.Forward, "camera.forward")
		if err != nil {
			return spec, err
		}
		spec.Forward = v.Normalize()
	}
	if fc.FOV != nil {
		spec.VerticalFOV = *fc.FOV
	}
	return spec, nil
}

func (fo fileObject) build() (geometry.Object, error) {
	kind, err := geometry.ParseKind(fo.Kind)
	if err != nil {
		return geometry.Object{}, err
	}

	position := mgl64.Vec3{0, 0, 0}
	if fo.Position != nil {
		if position, err = vec3From(fo.Position, "position"); err != nil {
			return geometry.Object{}, err
		}
	}
	rotation := mgl64.Vec3{0, 0, 0}
	if fo.Rotation != nil {
		if rotation, err = vec3From(fo.Rotation, "rotation"); err != nil {
			return geometry.Object{}, err
		}
	}
	scale := mgl64.Vec3{1, 1, 1}
	if fo.Scale != nil {
		if scale, err = vec3From(fo.Scale, "scale"); err != nil {
			return geometry.Object{}, err
		}
	}

	mat, err := fo.Material.build()
	if err != nil {
		return geometry.Object{}, err
	}

	return geometry.NewObject(kind, position, rotation, scale, mat), nil
}

func (fm fileMaterial) build() (material.Material, error) {
	color := mgl64.Vec3{0.8, 0.8, 0.8}
	if fm.Color != nil {
		var err error
		if color, err = vec3From(fm.Color, "material.color"); err != nil {
			return material.Material{}, err
		}
	}

	kindName := fm.Kind
	if kindName == "" {
		kindName = "solid"
	}
	kind, err := material.ParseKind(kindName)
	if err != nil {
		return material.Material{}, err
	}

	var mat material.Material
	switch kind {
	case material.Solid:
		mat = material.NewSolid(color, 1.0)
	case material.Emissive:
		mat = material.NewEmissive(color, 1.0)
	case material.Transmissive:
		mat = material.NewTransmissive(color, 0.0, 1.5)
	}

	if fm.Roughness != nil {
		mat.Roughness = mgl64.Clamp(*fm.Roughness, 0, 1)
	}
	if fm.EmissiveStrength != nil {
		if *fm.EmissiveStrength < 0 {
			return material.Material{}, fmt.Errorf("emissive-strength must be >= 0")
		}
		mat.EmissiveStrength = *fm.EmissiveStrength
	}
	if fm.IOR != nil {
		if *fm.IOR <= 0 {
			return material.Material{}, fmt.Errorf("ior must be > 0")
		}
		mat.IOR = *fm.IOR
	}
	if fm.SpecularChance != nil {
		mat.SpecularChance = mgl64.Clamp(*fm.SpecularChance, 0, 1)
	}
	if fm.Opacity != nil {
		mat.Opacity = mgl64.Clamp(*fm.Opacity, 0, 1)
	}
	return mat, nil
}

func vec3From(values []float64, field string) (mgl64.Vec3, error) {
	if len(values) != 3 {
		return mgl64.Vec3{}, fmt.Errorf("%s must have exactly 3 components, got %d", field, len(values))
	}
	return mgl64.Vec3{values[0], values[1], values[2]}, nil
}
