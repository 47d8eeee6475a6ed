package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/geometry"
	"github.com/glimmer-rt/glimmer/pkg/material"
	"github.com/glimmer-rt/glimmer/pkg/renderer"
	"github.com/glimmer-rt/glimmer/pkg/scene"
)

// SettingsRequest is a partial settings update. Nil fields keep their
// current value. Sun rotation and elevation must arrive together since
// only the resulting direction is stored.
type SettingsRequest struct {
	Mode            *string     `json:"mode"`
	MaxBounces      *int        `json:"maxBounces"`
	SamplesPerFrame *int        `json:"samplesPerFrame"`
	Accumulate      *bool       `json:"accumulate"`
	SkyColor        *[3]float64 `json:"skyColor"`
	SunColor        *[3]float64 `json:"sunColor"`
	SunRotation     *float64    `json:"sunRotation"`
	SunElevation    *float64    `json:"sunElevation"`
	SunStrength     *float64    `json:"sunStrength"`
	ToneCurve       *string     `json:"toneCurve"`
	SkyAtBounceCap  *bool       `json:"skyAtBounceCap"`
}

// handleSettings applies a partial settings update. Any change restarts
// accumulation at the next frame boundary.
func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		writeJSON(w, http.StatusOK, settingsResponse(s.renderer.Settings()))
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SettingsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	settings := s.renderer.Settings()
	if err := applySettings(&settings, req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	s.renderer.SetSettings(settings)
	writeJSON(w, http.StatusOK, settingsResponse(settings))
}

func applySettings(settings *core.RenderSettings, req SettingsRequest) error {
	if req.Mode != nil {
		m, err := core.ParseRenderMode(*req.Mode)
		if err != nil {
			return err
		}
		settings.Mode = m
	}
	if req.MaxBounces != nil {
		if *req.MaxBounces < 0 {
			return fmt.Errorf("maxBounces must be non-negative")
		}
		settings.MaxBounces = *req.MaxBounces
	}
	if req.SamplesPerFrame != nil {
		if *req.SamplesPerFrame < 1 {
			return fmt.Errorf("samplesPerFrame must be at least 1")
		}
		settings.SamplesPerFrame = *req.SamplesPerFrame
	}
	if req.Accumulate != nil {
		settings.Accumulate = *req.Accumulate
	}
	if req.SkyColor != nil {
		settings.SkyColor = mgl64.Vec3(*req.SkyColor)
	}
	if req.SunColor != nil {
		settings.SunColor = mgl64.Vec3(*req.SunColor)
	}
	if (req.SunRotation == nil) != (req.SunElevation == nil) {
		return fmt.Errorf("sunRotation and sunElevation must be set together")
	}
	if req.SunRotation != nil {
		settings.SunDirection = core.SunDirection(*req.SunRotation, *req.SunElevation)
	}
	if req.SunStrength != nil {
		settings.SunStrength = *req.SunStrength
	}
	if req.ToneCurve != nil {
		switch *req.ToneCurve {
		case "none":
			settings.ToneCurve = core.ToneCurveNone
		case "filmic":
			settings.ToneCurve = core.ToneCurveFilmic
		default:
			return fmt.Errorf("unknown toneCurve %q", *req.ToneCurve)
		}
	}
	if req.SkyAtBounceCap != nil {
		settings.SkyAtBounceCap = *req.SkyAtBounceCap
	}
	return nil
}

func settingsResponse(settings core.RenderSettings) map[string]interface{} {
	toneCurve := "filmic"
	if settings.ToneCurve == core.ToneCurveNone {
		toneCurve = "none"
	}
	return map[string]interface{}{
		"mode":            settings.Mode.String(),
		"maxBounces":      settings.MaxBounces,
		"samplesPerFrame": settings.SamplesPerFrame,
		"accumulate":      settings.Accumulate,
		"skyColor":        settings.SkyColor,
		"sunColor":        settings.SunColor,
		"sunDirection":    settings.SunDirection,
		"sunStrength":     settings.SunStrength,
		"toneCurve":       toneCurve,
		"skyAtBounceCap":  settings.SkyAtBounceCap,
	}
}

// CameraRequest moves, rotates, or re-poses the camera.
type CameraRequest struct {
	Action   string      `json:"action"` // "move", "rotate", "pose", "fov"
	Forward  float64     `json:"forward"`
	Right    float64     `json:"right"`
	Up       float64     `json:"up"`
	Yaw      float64     `json:"yaw"`
	Pitch    float64     `json:"pitch"`
	Position *[3]float64 `json:"position"`
	LookDir  *[3]float64 `json:"lookDir"`
	FOV      float64     `json:"fov"`
}

// handleCamera applies a camera edit. The renderer notices the camera
// revision change, rebuilds its primary-ray cache, and restarts
// accumulation.
func (s *Server) handleCamera(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req CameraRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	var applyErr error
	s.renderer.UpdateCamera(func(c *renderer.Camera) {
		switch req.Action {
		case "move":
			c.Move(req.Forward, req.Right, req.Up)
		case "rotate":
			c.Rotate(req.Yaw, req.Pitch)
		case "pose":
			if req.Position == nil || req.LookDir == nil {
				applyErr = fmt.Errorf("pose requires position and lookDir")
				return
			}
			c.SetPose(mgl64.Vec3(*req.Position), mgl64.Vec3(*req.LookDir))
		case "fov":
			if req.FOV <= 0 {
				applyErr = fmt.Errorf("fov must be positive")
				return
			}
			c.SetFOV(req.FOV)
		default:
			applyErr = fmt.Errorf("unknown camera action %q", req.Action)
		}
	})
	if applyErr != nil {
		writeError(w, http.StatusBadRequest, applyErr)
		return
	}

	var position, forward mgl64.Vec3
	s.renderer.UpdateCamera(func(c *renderer.Camera) {
		position = c.Position()
		forward = c.Forward()
	})
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"position": position,
		"forward":  forward,
	})
}

// MaterialSpec is the JSON form of a material. Nil fields fall back to
// the base material passed to toMaterial.
type MaterialSpec struct {
	Kind             *string     `json:"kind"`
	Color            *[3]float64 `json:"color"`
	Roughness        *float64    `json:"roughness"`
	EmissiveStrength *float64    `json:"emissiveStrength"`
	IOR              *float64    `json:"ior"`
	SpecularChance   *float64    `json:"specularChance"`
	Opacity          *float64    `json:"opacity"`
}

func (ms *MaterialSpec) toMaterial(base material.Material) (material.Material, error) {
	out := base
	if ms.Kind != nil {
		k, err := material.ParseKind(*ms.Kind)
		if err != nil {
			return material.Material{}, err
		}
		out.Kind = k
	}
	if ms.Color != nil {
		out.BaseColor = mgl64.Vec3(*ms.Color)
	}
	if ms.Roughness != nil {
		out.Roughness = *ms.Roughness
	}
	if ms.EmissiveStrength != nil {
		out.EmissiveStrength = *ms.EmissiveStrength
	}
	if ms.IOR != nil {
		out.IOR = *ms.IOR
	}
	if ms.SpecularChance != nil {
		out.SpecularChance = *ms.SpecularChance
	}
	if ms.Opacity != nil {
		out.Opacity = *ms.Opacity
	}
	return out, nil
}

// ObjectResponse is the JSON form of one scene object.
type ObjectResponse struct {
	ID       string           `json:"id"`
	Name     string           `json:"name"`
	Kind     string           `json:"kind"`
	Position [3]float64       `json:"position"`
	Rotation [3]float64       `json:"rotation"`
	Scale    [3]float64       `json:"scale"`
	Material MaterialResponse `json:"material"`
}

// MaterialResponse is the JSON form of a material.
type MaterialResponse struct {
	Kind             string     `json:"kind"`
	Color            [3]float64 `json:"color"`
	Roughness        float64    `json:"roughness"`
	EmissiveStrength float64    `json:"emissiveStrength"`
	IOR              float64    `json:"ior"`
	SpecularChance   float64    `json:"specularChance"`
	Opacity          float64    `json:"opacity"`
}

// handleScene returns the object list and the current selection.
func (s *Server) handleScene(w http.ResponseWriter, r *http.Request) {
	infos, selected := s.scene.List()
	objects := make([]ObjectResponse, len(infos))
	for i, info := range infos {
		objects[i] = objectResponse(info)
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"objects":  objects,
		"selected": selected,
	})
}

func objectResponse(info scene.ObjectInfo) ObjectResponse {
	o := info.Object
	return ObjectResponse{
		ID:       info.ID.String(),
		Name:     info.Name,
		Kind:     o.Kind.String(),
		Position: [3]float64(o.Position),
		Rotation: [3]float64(o.Rotation),
		Scale:    [3]float64(o.Scale),
		Material: MaterialResponse{
			Kind:             o.Material.Kind.String(),
			Color:            [3]float64(o.Material.BaseColor),
			Roughness:        o.Material.Roughness,
			EmissiveStrength: o.Material.EmissiveStrength,
			IOR:              o.Material.IOR,
			SpecularChance:   o.Material.SpecularChance,
			Opacity:          o.Material.Opacity,
		},
	}
}

// AddRequest creates a new scene object. Unset fields take the defaults
// of a unit gray solid.
type AddRequest struct {
	Name     string        `json:"name"`
	Kind     string        `json:"kind"`
	Position *[3]float64   `json:"position"`
	Rotation *[3]float64   `json:"rotation"`
	Scale    *[3]float64   `json:"scale"`
	Material *MaterialSpec `json:"material"`
}

func (s *Server) handleSceneAdd(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req AddRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	kind, err := geometry.ParseKind(req.Kind)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	position := mgl64.Vec3{0, 0, 0}
	rotation := mgl64.Vec3{0, 0, 0}
	scale := mgl64.Vec3{1, 1, 1}
	if req.Position != nil {
		position = mgl64.Vec3(*req.Position)
	}
	if req.Rotation != nil {
		rotation = mgl64.Vec3(*req.Rotation)
	}
	if req.Scale != nil {
		scale = mgl64.Vec3(*req.Scale)
	}

	mat := material.NewSolid(mgl64.Vec3{0.8, 0.8, 0.8}, 1.0)
	if req.Material != nil {
		mat, err = req.Material.toMaterial(mat)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
	}

	name := req.Name
	if name == "" {
		name = fmt.Sprintf("New %s", kind)
	}

	id, err := s.scene.Add(name, geometry.NewObject(kind, position, rotation, scale, mat))
	if err != nil {
		writeError(w, http.StatusConflict, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"id": id.String()})
}

// UpdateRequest edits an existing object. Nil fields keep their current
// value; pose fields are re-applied as a unit so the object's matrices
// stay consistent.
type UpdateRequest struct {
	ID       string        `json:"id"`
	Name     *string       `json:"name"`
	Position *[3]float64   `json:"position"`
	Rotation *[3]float64   `json:"rotation"`
	Scale    *[3]float64   `json:"scale"`
	Material *MaterialSpec `json:"material"`
}

func (s *Server) handleSceneUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}

	info, ok := s.findObject(id)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Errorf("no object with id %s", id))
		return
	}

	if req.Name != nil {
		if err := s.scene.Rename(id, *req.Name); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}

	if req.Position != nil || req.Rotation != nil || req.Scale != nil {
		position := info.Object.Position
		rotation := info.Object.Rotation
		scale := info.Object.Scale
		if req.Position != nil {
			position = mgl64.Vec3(*req.Position)
		}
		if req.Rotation != nil {
			rotation = mgl64.Vec3(*req.Rotation)
		}
		if req.Scale != nil {
			scale = mgl64.Vec3(*req.Scale)
		}
		if err := s.scene.SetPose(id, position, rotation, scale); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}

	if req.Material != nil {
		mat, err := req.Material.toMaterial(info.Object.Material)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		if err := s.scene.SetMaterial(id, mat); err != nil {
			writeError(w, http.StatusNotFound, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// RemoveRequest deletes an object by ID.
type RemoveRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSceneRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req RemoveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	id, err := uuid.Parse(req.ID)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid id: %v", err))
		return
	}
	if err := s.scene.Remove(id); err != nil {
		writeError(w, http.StatusNotFound, err)
		return
	}
	s.syncHighlight()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SelectRequest changes the selected object; index -1 clears it.
type SelectRequest struct {
	Index int `json:"index"`
}

func (s *Server) handleSceneSelect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, fmt.Errorf("invalid request: %v", err))
		return
	}

	s.scene.Select(req.Index)
	s.syncHighlight()
	writeJSON(w, http.StatusOK, map[string]int{"selected": s.scene.SelectedIndex()})
}

// syncHighlight copies the scene selection into the render settings so
// the tracer tints the selected object.
func (s *Server) syncHighlight() {
	settings := s.renderer.Settings()
	settings.HighlightIndex = s.scene.SelectedIndex()
	s.renderer.SetSettings(settings)
}

func (s *Server) findObject(id uuid.UUID) (scene.ObjectInfo, bool) {
	infos, _ := s.scene.List()
	for _, info := range infos {
		if info.ID == id {
			return info, true
		}
	}
	return scene.ObjectInfo{}, false
}
