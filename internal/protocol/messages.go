package protocol

import "encoding/json"

// model (server -> viewer): static scene definition, sent once per session.
// A later model message redefines the whole scene.
type ModelMsg struct {
	Type        string      `json:"type"`
	SimBatches  int         `json:"simBatches"`
	ScalarNames []string    `json:"scalarNames,omitempty"`
	Dt          float64     `json:"dt,omitempty"`
	Collapse    bool        `json:"collapse,omitempty"`
	Bodies      []BodyDef   `json:"bodies"`
	Terrain     *TerrainDef `json:"terrain,omitempty"`
}

// Shape type codes on the wire.
const (
	ShapeCustom   = 0
	ShapeBox      = 1
	ShapeSphere   = 2
	ShapeCylinder = 3
)

type ShapeDef struct {
	Type   int         `json:"type"`
	Hx     float64     `json:"hx,omitempty"`
	Hy     float64     `json:"hy,omitempty"`
	Hz     float64     `json:"hz,omitempty"`
	Radius float64     `json:"radius,omitempty"`
	Height float64     `json:"height,omitempty"`
	Points [][]float64 `json:"points,omitempty"`
}

type BodyDef struct {
	Name string   `json:"name"`
	Shape ShapeDef `json:"shape"`
	// Initial pose, [x,y,z,w,qx,qy,qz] per batch or flat for batch 0.
	BodyTransform BatchedFloats `json:"bodyTransform,omitempty"`
	BodyPoints    [][]float64   `json:"bodyPoints,omitempty"`
	// Optional vector kinds this body will ever report ("velocity",
	// "angularVelocity", "force", "torque", "contacts"). Absent kinds stay
	// permanently unavailable.
	AvailableAttributes []string `json:"availableAttributes,omitempty"`
}

type TerrainDims struct {
	SizeX       float64 `json:"sizeX"`
	SizeY       float64 `json:"sizeY"`
	ResolutionX int     `json:"resolutionX"`
	ResolutionY int     `json:"resolutionY"`
}

type TerrainBounds struct {
	MinX float64 `json:"minX"`
	MaxX float64 `json:"maxX"`
	MinY float64 `json:"minY"`
	MaxY float64 `json:"maxY"`
	MinZ float64 `json:"minZ"`
	MaxZ float64 `json:"maxZ"`
}

type TerrainDef struct {
	Dimensions TerrainDims   `json:"dimensions"`
	Bounds     TerrainBounds `json:"bounds"`
	// Row-major heights (row = Y), one array per batch or a single shared one.
	HeightData BatchedFloats `json:"heightData"`
	Normals    BatchedVec3s  `json:"normals,omitempty"`
	// A singleton terrain is shared by every batch even when simBatches > 1.
	IsSingleton bool `json:"isSingleton,omitempty"`
}

// Frame is one timestamped snapshot of all bodies' dynamic state.
type Frame struct {
	Time   float64     `json:"time"`
	Bodies []BodyState `json:"bodies"`
}

// state (server -> viewer): one frame, appended to the timeline in order.
type StateMsg struct {
	Type string `json:"type"`
	Frame
}

// BodyState carries any subset of one body's dynamic fields for one frame.
// Two encodings exist for the vector data and both must decode:
//
//   - combined: transform [7] = pos+quat, velocity [6] = linear+angular,
//     force [6] = force+torque
//   - split: position [3], orientation [4], velocity [3], angularVelocity [3],
//     force [3], torque [3]
//
// Scalar values appear either under a "scalars" object or as top-level keys
// named after the model's scalarNames; each is one float per batch.
type BodyState struct {
	Name            string
	Transform       BatchedFloats
	Position        BatchedFloats
	Orientation     BatchedFloats
	Velocity        BatchedFloats
	AngularVelocity BatchedFloats
	Force           BatchedFloats
	Torque          BatchedFloats
	Contacts        BatchedInts
	Scalars         map[string][]float64
}

func (s *BodyState) UnmarshalJSON(b []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for key, val := range raw {
		var err error
		switch key {
		case "name":
			err = json.Unmarshal(val, &s.Name)
		case "transform":
			err = json.Unmarshal(val, &s.Transform)
		case "position":
			err = json.Unmarshal(val, &s.Position)
		case "orientation":
			err = json.Unmarshal(val, &s.Orientation)
		case "velocity":
			err = json.Unmarshal(val, &s.Velocity)
		case "angularVelocity":
			err = json.Unmarshal(val, &s.AngularVelocity)
		case "force":
			err = json.Unmarshal(val, &s.Force)
		case "torque":
			err = json.Unmarshal(val, &s.Torque)
		case "contacts":
			err = json.Unmarshal(val, &s.Contacts)
		case "scalars":
			err = json.Unmarshal(val, &s.Scalars)
		default:
			// Top-level scalar field, keyed by scalar name.
			var vals []float64
			if json.Unmarshal(val, &vals) == nil {
				if s.Scalars == nil {
					s.Scalars = map[string][]float64{}
				}
				s.Scalars[key] = vals
			}
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func (s BodyState) MarshalJSON() ([]byte, error) {
	out := map[string]any{"name": s.Name}
	if !s.Transform.Empty() {
		out["transform"] = s.Transform
	}
	if !s.Position.Empty() {
		out["position"] = s.Position
	}
	if !s.Orientation.Empty() {
		out["orientation"] = s.Orientation
	}
	if !s.Velocity.Empty() {
		out["velocity"] = s.Velocity
	}
	if !s.AngularVelocity.Empty() {
		out["angularVelocity"] = s.AngularVelocity
	}
	if !s.Force.Empty() {
		out["force"] = s.Force
	}
	if !s.Torque.Empty() {
		out["torque"] = s.Torque
	}
	if !s.Contacts.Empty() {
		out["contacts"] = s.Contacts
	}
	if len(s.Scalars) > 0 {
		out["scalars"] = s.Scalars
	}
	return json.Marshal(out)
}

// error (server -> viewer).
type ErrorMsg struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// get_model / get_states (viewer -> server).
type RequestMsg struct {
	Type string `json:"type"`
}
