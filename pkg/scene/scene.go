package scene

import (
	"fmt"
	"sync"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"

	"github.com/glimmer-rt/glimmer/pkg/core"
	"github.com/glimmer-rt/glimmer/pkg/geometry"
	"github.com/glimmer-rt/glimmer/pkg/material"
)

// MaxObjects bounds the number of live objects. This is a resource-budget
// decision, not an algorithmic requirement; exceeding it is rejected at
// mutation time so the render core never has to check.
const MaxObjects = 50

// Scene is the editable object list. The editor mutates it between frames;
// the renderer reads it only through Snapshot, so in-flight frames never
// observe a partial edit.
type Scene struct {
	mu       sync.RWMutex
	objects  []geometry.Object
	names    []string
	ids      []uuid.UUID
	selected int // index into objects, -1 for none
	revision uint64
}

// New creates an empty scene.
func New() *Scene {
	return &Scene{selected: -1}
}

// Default returns the scene the interactive app starts with: a single
// gray sphere of radius 0.5 at the origin.
func Default() *Scene {
	s := New()
	_, _ = s.Add("Default sphere", geometry.NewObject(
		geometry.Sphere,
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0, 0, 0},
		mgl64.Vec3{0.5, 0.5, 0.5},
		material.NewSolid(mgl64.Vec3{0.8, 0.8, 0.8}, 1.0),
	))
	s.Select(0)
	return s
}

// Add appends an object, returning its stable ID. Exceeding MaxObjects is
// a configuration error.
func (s *Scene) Add(name string, obj geometry.Object) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.objects) >= MaxObjects {
		return uuid.Nil, fmt.Errorf("scene is full: capacity %d reached", MaxObjects)
	}

	id := uuid.New()
	s.objects = append(s.objects, obj)
	s.names = append(s.names, name)
	s.ids = append(s.ids, id)
	s.revision++
	return id, nil
}

// Remove deletes the object with the given ID, preserving the order of the
// remaining objects.
func (s *Scene) Remove(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return err
	}

	s.objects = append(s.objects[:i], s.objects[i+1:]...)
	s.names = append(s.names[:i], s.names[i+1:]...)
	s.ids = append(s.ids[:i], s.ids[i+1:]...)

	if s.selected == i {
		s.selected = -1
	} else if s.selected > i {
		s.selected--
	}
	s.revision++
	return nil
}

// SetPose updates an object's pose; the object recomputes its transform,
// inverse and normal matrices in lock-step.
func (s *Scene) SetPose(id uuid.UUID, position, rotation, scale mgl64.Vec3) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return err
	}
	s.objects[i].SetPose(position, rotation, scale)
	s.revision++
	return nil
}

// SetMaterial replaces an object's material.
func (s *Scene) SetMaterial(id uuid.UUID, mat material.Material) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return err
	}
	s.objects[i].Material = mat
	s.revision++
	return nil
}

// Rename changes an object's editor-facing name. Names do not affect
// rendering, so the revision is left alone.
func (s *Scene) Rename(id uuid.UUID, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, err := s.indexLocked(id)
	if err != nil {
		return err
	}
	s.names[i] = name
	return nil
}

// Select marks the object at index as selected for the highlight render
// path; -1 clears the selection.
func (s *Scene) Select(index int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < -1 || index >= len(s.objects) {
		index = -1
	}
	if s.selected != index {
		s.selected = index
		s.revision++
	}
}

// IDs returns the object IDs in scene order.
func (s *Scene) IDs() []uuid.UUID {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]uuid.UUID, len(s.ids))
	copy(out, s.ids)
	return out
}

// Names returns the object names in scene order.
func (s *Scene) Names() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, len(s.names))
	copy(out, s.names)
	return out
}

// SelectedIndex returns the selected object index, -1 for none.
func (s *Scene) SelectedIndex() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

// ObjectInfo pairs an object with its stable ID and editor name.
type ObjectInfo struct {
	ID     uuid.UUID
	Name   string
	Object geometry.Object
}

// List returns the objects with their IDs and names in scene order, plus
// the selected index, as one consistent view.
func (s *Scene) List() ([]ObjectInfo, int) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ObjectInfo, len(s.objects))
	for i := range s.objects {
		out[i] = ObjectInfo{ID: s.ids[i], Name: s.names[i], Object: s.objects[i]}
	}
	return out, s.selected
}

// Len returns the number of live objects.
func (s *Scene) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.objects)
}

// Revision returns a counter that advances on every render-visible
// mutation. The renderer resets its accumulation buffer when it changes.
func (s *Scene) Revision() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.revision
}

// Snapshot captures a frame-stable copy of the scene for the render
// workers. The swap is atomic from the renderer's point of view: either a
// frame sees the whole edit or none of it.
func (s *Scene) Snapshot() *Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	objects := make([]geometry.Object, len(s.objects))
	copy(objects, s.objects)
	return &Snapshot{
		Objects:  objects,
		Selected: s.selected,
		Revision: s.revision,
	}
}

func (s *Scene) indexLocked(id uuid.UUID) (int, error) {
	for i, oid := range s.ids {
		if oid == id {
			return i, nil
		}
	}
	return 0, fmt.Errorf("no object with id %s", id)
}

// Snapshot is a read-only view of the scene shared by all pixels of a
// frame. It must not be mutated.
type Snapshot struct {
	Objects  []geometry.Object
	Selected int // selected object index, -1 for none
	Revision uint64
}

// Intersect scans all objects linearly and returns the nearest hit.
// Ties keep the first object found; coincident surfaces are degenerate
// input. An empty scene or a full miss returns ok=false.
func (s *Snapshot) Intersect(ray core.Ray) (core.Hit, bool) {
	closest := core.MissHit()
	found := false

	for i := range s.Objects {
		hit, ok := s.Objects[i].Intersect(ray)
		if ok && hit.Distance < closest.Distance {
			hit.Object = i
			closest = hit
			found = true
		}
	}

	return closest, found
}
