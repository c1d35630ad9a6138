package scene

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aleskucera/simview/internal/protocol"
)

func TestBuildValidation(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*protocol.ModelMsg)
	}{
		{"zero batches", func(m *protocol.ModelMsg) { m.SimBatches = 0 }},
		{"no bodies", func(m *protocol.ModelMsg) { m.Bodies = nil }},
		{"empty body name", func(m *protocol.ModelMsg) { m.Bodies[0].Name = "" }},
		{"duplicate body name", func(m *protocol.ModelMsg) { m.Bodies[1].Name = m.Bodies[0].Name }},
		{"bad shape", func(m *protocol.ModelMsg) { m.Bodies[0].Shape = protocol.ShapeDef{Type: protocol.ShapeSphere} }},
		{"short body point", func(m *protocol.ModelMsg) { m.Bodies[0].BodyPoints = [][]float64{{1, 2}} }},
		{"bad terrain", func(m *protocol.ModelMsg) {
			m.Terrain = &protocol.TerrainDef{}
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := testModel(2)
			tc.mutate(m)
			if _, err := Build(m); err == nil {
				t.Error("invalid model accepted")
			}
		})
	}

	if _, err := Build(nil); err == nil {
		t.Error("nil model accepted")
	}
}

func TestBuildInitialPose(t *testing.T) {
	m := testModel(2)
	m.Bodies[0].BodyTransform = protocol.BatchedFloats{
		Values:  [][]float64{{0, 0, 1, 1, 0, 0, 0}, {0, 0, 2, 1, 0, 0, 0}},
		Batched: true,
	}
	s := buildScene(t, m)

	st := s.Body("chassis")
	if got := st.OriginalPosition(0); got != (mgl64.Vec3{0, 0, 1}) {
		t.Errorf("batch 0 initial position = %v", got)
	}
	// World position includes the layout offset from construction on.
	if got := st.Position(1); got != (mgl64.Vec3{10, 0, 2}) {
		t.Errorf("batch 1 initial world position = %v", got)
	}
}

func TestBuildWithTerrain(t *testing.T) {
	m := testModel(2)
	m.Terrain = &protocol.TerrainDef{
		Dimensions: protocol.TerrainDims{SizeX: 4, SizeY: 4, ResolutionX: 2, ResolutionY: 2},
		Bounds:     protocol.TerrainBounds{MaxX: 4, MaxY: 4, MaxZ: 1},
		HeightData: protocol.BatchedFloats{Values: [][]float64{{1, 1, 1, 1}}},
	}
	s := buildScene(t, m)

	if got := s.HeightAtWorld(2, 2, 0); math.Abs(got-1) > 1e-12 {
		t.Errorf("batch 0 terrain height = %g, want 1", got)
	}
	// Batch 1 is offset by the layout spacing; the query follows it.
	if got := s.HeightAtWorld(12, 2, 1); math.Abs(got-1) > 1e-12 {
		t.Errorf("batch 1 terrain height = %g, want 1", got)
	}
	if got := s.HeightAtWorld(2, 2, 1); got != 0 {
		t.Errorf("batch 1 un-offset terrain height = %g, want 0", got)
	}
}

func TestBuildWithoutTerrain(t *testing.T) {
	s := buildScene(t, testModel(1))
	if s.Terrain() != nil {
		t.Error("terrain present without definition")
	}
	if got := s.HeightAtWorld(0, 0, 0); got != 0 {
		t.Errorf("terrainless height = %g, want 0", got)
	}
}

func TestBodyNamesOrder(t *testing.T) {
	s := buildScene(t, testModel(1))
	names := s.BodyNames()
	if len(names) != 2 || names[0] != "chassis" || names[1] != "probe" {
		t.Errorf("body order = %v", names)
	}
}

func TestDispose(t *testing.T) {
	s := buildScene(t, testModel(2))
	st := s.Body("chassis")
	s.Dispose()

	if s.Body("chassis") != nil {
		t.Error("body still resolvable after dispose")
	}
	// A relayout after dispose must not reach the detached entity.
	s.Layout().SetOffset(1, mgl64.Vec3{50, 0, 0})
	_ = st
}
