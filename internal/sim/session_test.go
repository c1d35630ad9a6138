package sim

import (
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/aleskucera/simview/internal/protocol"
)

func testModel() *protocol.ModelMsg {
	return &protocol.ModelMsg{
		Type:       protocol.TypeModel,
		SimBatches: 2,
		Bodies: []protocol.BodyDef{
			{Name: "chassis", Shape: protocol.ShapeDef{Type: protocol.ShapeSphere, Radius: 0.5}},
		},
	}
}

func TestHandleModelBuildsScene(t *testing.T) {
	s := NewSession(clock.NewMock(), nil)
	if s.Scene() != nil || s.Scheduler() != nil {
		t.Fatal("session has scene before any model")
	}
	if err := s.HandleModel(testModel()); err != nil {
		t.Fatalf("handle model: %v", err)
	}
	if s.Scene() == nil || s.Scheduler() == nil {
		t.Fatal("scene or scheduler missing after model")
	}
	if s.Scene().BatchCount() != 2 {
		t.Errorf("batch count = %d", s.Scene().BatchCount())
	}
}

func TestHandleModelFailureKeepsOldScene(t *testing.T) {
	s := NewSession(clock.NewMock(), nil)
	if err := s.HandleModel(testModel()); err != nil {
		t.Fatalf("handle model: %v", err)
	}
	old := s.Scene()

	bad := testModel()
	bad.SimBatches = 0
	if err := s.HandleModel(bad); err == nil {
		t.Fatal("invalid model accepted")
	}
	if s.Scene() != old {
		t.Error("failed model replaced the scene")
	}
	if s.Scene().Body("chassis") == nil {
		t.Error("old scene was disposed on failure")
	}
}

func TestHandleModelPreservesSpeed(t *testing.T) {
	s := NewSession(clock.NewMock(), nil)
	if err := s.HandleModel(testModel()); err != nil {
		t.Fatalf("handle model: %v", err)
	}
	s.Scheduler().SetSpeed(2.5)

	if err := s.HandleModel(testModel()); err != nil {
		t.Fatalf("handle second model: %v", err)
	}
	if got := s.Scheduler().Speed(); got != 2.5 {
		t.Errorf("speed after model replace = %g, want preserved", got)
	}
}

func TestHandleStateBeforeModel(t *testing.T) {
	s := NewSession(clock.NewMock(), nil)
	if err := s.HandleState(protocol.Frame{Time: 0}); err == nil {
		t.Error("state before model accepted")
	}
	if err := s.LoadStates(nil); err == nil {
		t.Error("states before model accepted")
	}
}

func TestHandleMessageRouting(t *testing.T) {
	s := NewSession(clock.NewMock(), nil)

	model := []byte(`{
		"type": "model",
		"simBatches": 1,
		"bodies": [{"name": "chassis", "shape": {"type": 2, "radius": 0.5}}]
	}`)
	if err := s.HandleMessage(model); err != nil {
		t.Fatalf("route model: %v", err)
	}

	state := []byte(`{"type": "state", "time": 0.1, "bodies": [{"name": "chassis", "position": [1, 2, 3]}]}`)
	if err := s.HandleMessage(state); err != nil {
		t.Fatalf("route state: %v", err)
	}
	if got := s.Scheduler().Timeline().Len(); got != 1 {
		t.Errorf("timeline length = %d", got)
	}

	if err := s.HandleMessage([]byte(`{"type": "telemetry"}`)); err == nil {
		t.Error("unknown type routed without error")
	}
	if err := s.HandleMessage([]byte(`garbage`)); err == nil {
		t.Error("malformed message routed without error")
	}
}
