package scene

import (
	"testing"

	"github.com/aleskucera/simview/internal/protocol"
)

func TestNewShape(t *testing.T) {
	valid := []struct {
		name string
		def  protocol.ShapeDef
		typ  ShapeType
	}{
		{"box", protocol.ShapeDef{Type: protocol.ShapeBox, Hx: 1, Hy: 2, Hz: 3}, ShapeBox},
		{"sphere", protocol.ShapeDef{Type: protocol.ShapeSphere, Radius: 0.5}, ShapeSphere},
		{"cylinder", protocol.ShapeDef{Type: protocol.ShapeCylinder, Radius: 0.5, Height: 2}, ShapeCylinder},
		{"custom", protocol.ShapeDef{Type: protocol.ShapeCustom, Points: [][]float64{{0, 0, 0}, {1, 0, 0}}}, ShapeCustom},
	}
	for _, tc := range valid {
		t.Run(tc.name, func(t *testing.T) {
			sh, err := NewShape(tc.def)
			if err != nil {
				t.Fatalf("new shape: %v", err)
			}
			if sh.Type != tc.typ {
				t.Errorf("type = %v, want %v", sh.Type, tc.typ)
			}
		})
	}

	invalid := []struct {
		name string
		def  protocol.ShapeDef
	}{
		{"box without extents", protocol.ShapeDef{Type: protocol.ShapeBox}},
		{"sphere without radius", protocol.ShapeDef{Type: protocol.ShapeSphere}},
		{"cylinder without height", protocol.ShapeDef{Type: protocol.ShapeCylinder, Radius: 1}},
		{"custom without points", protocol.ShapeDef{Type: protocol.ShapeCustom}},
		{"custom with short point", protocol.ShapeDef{Type: protocol.ShapeCustom, Points: [][]float64{{1, 2}}}},
		{"unknown code", protocol.ShapeDef{Type: 9}},
	}
	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewShape(tc.def); err == nil {
				t.Error("invalid shape accepted")
			}
		})
	}
}
