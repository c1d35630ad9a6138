package scene

import (
	"fmt"

	"github.com/aleskucera/simview/internal/protocol"
	"github.com/aleskucera/simview/internal/sim/terrain"
)

// Scene is everything a model message defines: one entity state per body, the
// batch layout, and the optional terrain. It lives until the next model
// message replaces it wholesale; the batch count never changes within a
// scene's lifetime.
type Scene struct {
	batchCount  int
	scalarNames []string
	dt          float64
	collapse    bool

	layout  *BatchLayout
	terrain *terrain.Set

	bodies map[string]*EntityState
	order  []string
}

// Build constructs a scene from a model message. Static descriptors are
// validated loudly: a malformed shape, a duplicate body name, or inconsistent
// terrain data fails the whole model, since nothing can safely render it.
func Build(model *protocol.ModelMsg) (*Scene, error) {
	if model == nil {
		return nil, fmt.Errorf("nil model")
	}
	if model.SimBatches < 1 {
		return nil, fmt.Errorf("model declares %d batches, need at least 1", model.SimBatches)
	}
	if len(model.Bodies) == 0 {
		return nil, fmt.Errorf("model declares no bodies")
	}

	layout, err := NewBatchLayout(model.SimBatches, DefaultSpacing, model.Collapse)
	if err != nil {
		return nil, err
	}

	s := &Scene{
		batchCount:  model.SimBatches,
		scalarNames: model.ScalarNames,
		dt:          model.Dt,
		collapse:    model.Collapse,
		layout:      layout,
		bodies:      map[string]*EntityState{},
	}

	if model.Terrain != nil {
		ts, err := terrain.NewSet(model.Terrain, model.SimBatches)
		if err != nil {
			return nil, err
		}
		s.terrain = ts
	}

	ing := s.Ingestor()
	for _, def := range model.Bodies {
		if def.Name == "" {
			return nil, fmt.Errorf("body with empty name")
		}
		if _, dup := s.bodies[def.Name]; dup {
			return nil, fmt.Errorf("duplicate body %q", def.Name)
		}
		shape, err := NewShape(def.Shape)
		if err != nil {
			return nil, fmt.Errorf("body %q: %w", def.Name, err)
		}
		points, err := toVec3s(def.BodyPoints)
		if err != nil {
			return nil, fmt.Errorf("body %q points: %w", def.Name, err)
		}
		desc := BodyDescriptor{
			Name:            def.Name,
			Shape:           shape,
			CollisionPoints: points,
			ScalarNames:     model.ScalarNames,
		}
		st := NewEntityState(desc, model.SimBatches, layout, def.AvailableAttributes)
		layout.Subscribe(st)
		s.bodies[def.Name] = st
		s.order = append(s.order, def.Name)

		// Initial pose, same batched semantics as a state frame.
		ing.applyFloats(st, def.BodyTransform, st.SetTransform)
	}

	return s, nil
}

func (s *Scene) BatchCount() int       { return s.batchCount }
func (s *Scene) ScalarNames() []string { return s.scalarNames }
func (s *Scene) Dt() float64           { return s.dt }
func (s *Scene) Collapsed() bool       { return s.collapse }

func (s *Scene) Layout() *BatchLayout  { return s.layout }
func (s *Scene) Terrain() *terrain.Set { return s.terrain }

// Body returns the entity state of a named body, or nil.
func (s *Scene) Body(name string) *EntityState { return s.bodies[name] }

// BodyNames returns the bodies in model order.
func (s *Scene) BodyNames() []string { return s.order }

// Ingestor returns the frame-application entry point for this scene.
func (s *Scene) Ingestor() *Ingestor { return &Ingestor{scene: s} }

// HeightAtWorld answers a world-space terrain height query for a batch,
// resolving the batch offset through the layout. Without terrain it returns 0.
func (s *Scene) HeightAtWorld(x, y float64, batch int) float64 {
	if s.terrain == nil {
		return 0
	}
	return s.terrain.HeightAtWorld(x, y, batch, s.layout)
}

// Dispose releases the retained per-batch buffers and detaches every body
// from the layout. The scene must not be used afterwards.
func (s *Scene) Dispose() {
	for _, name := range s.order {
		st := s.bodies[name]
		s.layout.Unsubscribe(st)
		st.dispose()
	}
	s.bodies = nil
	s.order = nil
	s.terrain = nil
}
