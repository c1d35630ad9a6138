package scene

// RenderMode selects how body geometry is drawn by the rendering layer.
type RenderMode int

const (
	RenderMesh RenderMode = iota
	RenderWireframe
	RenderPoints
)

func (m RenderMode) String() string {
	switch m {
	case RenderMesh:
		return "mesh"
	case RenderWireframe:
		return "wireframe"
	case RenderPoints:
		return "points"
	}
	return "mesh"
}

// ViewConfig is the global display configuration consumed by the rendering
// layer. It is plain data: entity state never stores visibility, so toggling
// a kind on or off needs no state walk.
type ViewConfig struct {
	Mode         RenderMode
	VisibleKinds map[VectorKind]bool
	ShowContacts bool
}

// DefaultViewConfig shows meshes with every vector kind visible.
func DefaultViewConfig() ViewConfig {
	visible := make(map[VectorKind]bool, len(VectorKinds))
	for _, k := range VectorKinds {
		visible[k] = true
	}
	return ViewConfig{Mode: RenderMesh, VisibleKinds: visible, ShowContacts: true}
}
