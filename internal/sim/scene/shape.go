package scene

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aleskucera/simview/internal/protocol"
)

type ShapeType int

const (
	ShapeCustom ShapeType = iota
	ShapeBox
	ShapeSphere
	ShapeCylinder
)

func (t ShapeType) String() string {
	switch t {
	case ShapeCustom:
		return "custom"
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCylinder:
		return "cylinder"
	}
	return fmt.Sprintf("shape(%d)", int(t))
}

// Shape is a tagged variant, immutable once a body is constructed. Only the
// fields of the active variant are meaningful.
type Shape struct {
	Type ShapeType

	// Box half extents.
	Hx, Hy, Hz float64

	// Sphere and cylinder.
	Radius float64
	Height float64

	// Custom geometry points.
	Points []mgl64.Vec3
}

// NewShape validates a wire shape definition. A malformed static descriptor
// cannot render anything, so unlike the dynamic-state paths this fails loudly.
func NewShape(def protocol.ShapeDef) (Shape, error) {
	switch def.Type {
	case protocol.ShapeCustom:
		if len(def.Points) == 0 {
			return Shape{}, fmt.Errorf("custom shape without points")
		}
		pts, err := toVec3s(def.Points)
		if err != nil {
			return Shape{}, fmt.Errorf("custom shape: %w", err)
		}
		return Shape{Type: ShapeCustom, Points: pts}, nil
	case protocol.ShapeBox:
		if def.Hx <= 0 || def.Hy <= 0 || def.Hz <= 0 {
			return Shape{}, fmt.Errorf("box with non-positive half extents (%g, %g, %g)", def.Hx, def.Hy, def.Hz)
		}
		return Shape{Type: ShapeBox, Hx: def.Hx, Hy: def.Hy, Hz: def.Hz}, nil
	case protocol.ShapeSphere:
		if def.Radius <= 0 {
			return Shape{}, fmt.Errorf("sphere with non-positive radius %g", def.Radius)
		}
		return Shape{Type: ShapeSphere, Radius: def.Radius}, nil
	case protocol.ShapeCylinder:
		if def.Radius <= 0 || def.Height <= 0 {
			return Shape{}, fmt.Errorf("cylinder with non-positive dimensions (r=%g, h=%g)", def.Radius, def.Height)
		}
		return Shape{Type: ShapeCylinder, Radius: def.Radius, Height: def.Height}, nil
	}
	return Shape{}, fmt.Errorf("unrecognized shape type %d", def.Type)
}

func toVec3s(rows [][]float64) ([]mgl64.Vec3, error) {
	out := make([]mgl64.Vec3, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("point %d has %d components, want 3", i, len(row))
		}
		out[i] = mgl64.Vec3{row[0], row[1], row[2]}
	}
	return out, nil
}
