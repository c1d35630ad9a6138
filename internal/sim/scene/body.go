package scene

import (
	"sort"

	"github.com/go-gl/mathgl/mgl64"
)

// VectorKind names an optional per-body dynamic quantity. The wire values
// match the model message's availableAttributes entries.
type VectorKind string

const (
	KindLinearVelocity  VectorKind = "velocity"
	KindAngularVelocity VectorKind = "angularVelocity"
	KindLinearForce     VectorKind = "force"
	KindTorque          VectorKind = "torque"

	// AttrContacts is carried in availableAttributes alongside the vector
	// kinds but is not itself a vector.
	AttrContacts = "contacts"
)

// VectorKinds lists every kind in a stable order.
var VectorKinds = []VectorKind{KindLinearVelocity, KindAngularVelocity, KindLinearForce, KindTorque}

// Indicator is the derived geometry of one directional marker (an arrow):
// unit direction, scaled length, and head dimensions capped so large
// magnitudes do not produce oversized heads.
type Indicator struct {
	Length     float64
	Dir        mgl64.Vec3
	HeadLength float64
	HeadWidth  float64
}

const (
	// Below this scaled length an indicator collapses to zero instead of
	// normalizing a near-zero vector.
	indicatorEpsilon = 1e-6

	headLengthRatio = 0.2
	headLengthMax   = 0.5
	headWidthRatio  = 0.1
	headWidthMax    = 0.25
)

// BodyDescriptor is the static definition of a body, created once from the
// model message and immutable for the body's lifetime.
type BodyDescriptor struct {
	Name            string
	Shape           Shape
	CollisionPoints []mgl64.Vec3
	ScalarNames     []string
}

// EntityState holds one body's dynamic state for every batch. Every array is
// sized to the batch count at construction and never resized; a new model
// message replaces the whole entity.
//
// Which vector kinds a body carries is fixed once: either the model declares
// them (availableAttributes) or they are locked in from the first state
// payload that mentions the body. Setters for unavailable kinds are no-ops.
type EntityState struct {
	desc       BodyDescriptor
	batchCount int
	layout     *BatchLayout

	available         map[VectorKind]bool
	contactsAvailable bool
	capsResolved      bool

	// Position before the batch offset is applied; world position is
	// re-derived from it whenever the layout changes.
	originalPos []mgl64.Vec3
	worldPos    []mgl64.Vec3
	orientation []mgl64.Quat

	vectors    map[VectorKind][]mgl64.Vec3
	indicators map[VectorKind][]Indicator
	// Indicator length per unit of vector magnitude.
	vectorScale float64

	contacts         []map[int]struct{}
	contactIntensity [][]float64

	scalars map[string][]float64
}

// NewEntityState builds the per-batch state arrays for one body. declared is
// the model's availableAttributes list; nil means the capability set is
// resolved from the first state payload instead.
func NewEntityState(desc BodyDescriptor, batchCount int, layout *BatchLayout, declared []string) *EntityState {
	st := &EntityState{
		desc:        desc,
		batchCount:  batchCount,
		layout:      layout,
		available:   map[VectorKind]bool{},
		originalPos: make([]mgl64.Vec3, batchCount),
		worldPos:    make([]mgl64.Vec3, batchCount),
		orientation: make([]mgl64.Quat, batchCount),
		vectors:     map[VectorKind][]mgl64.Vec3{},
		indicators:  map[VectorKind][]Indicator{},
		vectorScale: 1,
		contacts:    make([]map[int]struct{}, batchCount),
		scalars:     map[string][]float64{},
	}
	for i := range st.orientation {
		st.orientation[i] = mgl64.QuatIdent()
	}
	for i := range st.worldPos {
		st.worldPos[i] = layout.OffsetOf(i)
	}
	for i := range st.contacts {
		st.contacts[i] = map[int]struct{}{}
	}
	st.contactIntensity = make([][]float64, batchCount)
	for i := range st.contactIntensity {
		st.contactIntensity[i] = make([]float64, len(desc.CollisionPoints))
	}
	for _, name := range desc.ScalarNames {
		st.scalars[name] = make([]float64, batchCount)
	}
	if declared != nil {
		st.resolveCapabilities(declared)
	}
	return st
}

func (st *EntityState) resolveCapabilities(attrs []string) {
	for _, a := range attrs {
		if a == AttrContacts {
			st.contactsAvailable = true
			continue
		}
		for _, k := range VectorKinds {
			if VectorKind(a) == k {
				st.available[k] = true
				st.vectors[k] = make([]mgl64.Vec3, st.batchCount)
				st.indicators[k] = make([]Indicator, st.batchCount)
			}
		}
	}
	st.capsResolved = true
}

// CapabilitiesResolved reports whether the available-vector set is locked.
func (st *EntityState) CapabilitiesResolved() bool { return st.capsResolved }

// Descriptor returns the body's static definition.
func (st *EntityState) Descriptor() BodyDescriptor { return st.desc }

func (st *EntityState) BatchCount() int { return st.batchCount }

// Available reports whether a vector kind was present at construction.
func (st *EntityState) Available(kind VectorKind) bool { return st.available[kind] }

// ContactsAvailable reports whether the body reports contact state.
func (st *EntityState) ContactsAvailable() bool { return st.contactsAvailable }

// SetVectorScale sets the indicator length per unit of magnitude and
// recomputes every indicator.
func (st *EntityState) SetVectorScale(scale float64) {
	if scale <= 0 {
		return
	}
	st.vectorScale = scale
	for kind, vecs := range st.vectors {
		for batch, v := range vecs {
			st.indicators[kind][batch] = deriveIndicator(v, scale)
		}
	}
}

// SetPosition stores the batch-relative position and re-derives the world
// position through the layout offset. Values beyond the third component are
// ignored; fewer than three is a no-op.
func (st *EntityState) SetPosition(vals []float64, batch int) {
	if batch < 0 || batch >= st.batchCount || len(vals) < 3 {
		return
	}
	p := mgl64.Vec3{vals[0], vals[1], vals[2]}
	st.originalPos[batch] = p
	st.worldPos[batch] = p.Add(st.layout.OffsetOf(batch))
}

// SetOrientation stores a unit quaternion given scalar-first (w, x, y, z).
// Orientation is batch-offset independent.
func (st *EntityState) SetOrientation(vals []float64, batch int) {
	if batch < 0 || batch >= st.batchCount || len(vals) < 4 {
		return
	}
	st.orientation[batch] = mgl64.Quat{W: vals[0], V: mgl64.Vec3{vals[1], vals[2], vals[3]}}
}

// SetTransform applies a combined [x,y,z,w,qx,qy,qz] pose.
func (st *EntityState) SetTransform(vals []float64, batch int) {
	if len(vals) < 7 {
		return
	}
	st.SetPosition(vals[:3], batch)
	st.SetOrientation(vals[3:7], batch)
}

// SetVector stores one optional vector quantity and recomputes its
// indicator. Unavailable kinds, out-of-range batches, and short payloads are
// all silent no-ops.
func (st *EntityState) SetVector(kind VectorKind, vals []float64, batch int) {
	if !st.available[kind] || batch < 0 || batch >= st.batchCount || len(vals) < 3 {
		return
	}
	v := mgl64.Vec3{vals[0], vals[1], vals[2]}
	st.vectors[kind][batch] = v
	st.indicators[kind][batch] = deriveIndicator(v, st.vectorScale)
}

func (st *EntityState) SetLinearVelocity(vals []float64, batch int) {
	st.SetVector(KindLinearVelocity, vals, batch)
}

func (st *EntityState) SetAngularVelocity(vals []float64, batch int) {
	st.SetVector(KindAngularVelocity, vals, batch)
}

func (st *EntityState) SetLinearForce(vals []float64, batch int) {
	st.SetVector(KindLinearForce, vals, batch)
}

func (st *EntityState) SetTorque(vals []float64, batch int) {
	st.SetVector(KindTorque, vals, batch)
}

// SetContacts replaces the active-contact set for a batch: all intensity
// markers are cleared first, then each in-range index is marked. Indices
// outside the collision-point range are ignored.
func (st *EntityState) SetContacts(indices []int, batch int) {
	if !st.contactsAvailable || batch < 0 || batch >= st.batchCount {
		return
	}
	set := st.contacts[batch]
	for k := range set {
		delete(set, k)
	}
	intensity := st.contactIntensity[batch]
	for i := range intensity {
		intensity[i] = 0
	}
	for _, idx := range indices {
		if idx < 0 || idx >= len(st.desc.CollisionPoints) {
			continue
		}
		set[idx] = struct{}{}
		intensity[idx] = 1
	}
}

// SetScalars stores per-batch values for one declared scalar. Unknown names
// are ignored; excess values are dropped and missing ones left unchanged.
func (st *EntityState) SetScalars(name string, vals []float64) {
	dst, ok := st.scalars[name]
	if !ok {
		return
	}
	n := len(vals)
	if n > st.batchCount {
		n = st.batchCount
	}
	copy(dst[:n], vals[:n])
}

// OffsetChanged re-derives the world position of one batch from its stored
// original position. BatchLayout calls this on SetOffset.
func (st *EntityState) OffsetChanged(batch int, offset mgl64.Vec3) {
	if batch < 0 || batch >= st.batchCount {
		return
	}
	st.worldPos[batch] = st.originalPos[batch].Add(offset)
}

// Position returns the world-space position of a batch instance.
func (st *EntityState) Position(batch int) mgl64.Vec3 {
	if batch < 0 || batch >= st.batchCount {
		return mgl64.Vec3{}
	}
	return st.worldPos[batch]
}

// OriginalPosition returns the batch-relative position before offsetting.
func (st *EntityState) OriginalPosition(batch int) mgl64.Vec3 {
	if batch < 0 || batch >= st.batchCount {
		return mgl64.Vec3{}
	}
	return st.originalPos[batch]
}

func (st *EntityState) Orientation(batch int) mgl64.Quat {
	if batch < 0 || batch >= st.batchCount {
		return mgl64.QuatIdent()
	}
	return st.orientation[batch]
}

// Vector returns the stored value of an optional kind, or zero when the kind
// is unavailable.
func (st *EntityState) Vector(kind VectorKind, batch int) mgl64.Vec3 {
	vecs, ok := st.vectors[kind]
	if !ok || batch < 0 || batch >= st.batchCount {
		return mgl64.Vec3{}
	}
	return vecs[batch]
}

// IndicatorOf returns the derived marker geometry of an optional kind.
func (st *EntityState) IndicatorOf(kind VectorKind, batch int) Indicator {
	inds, ok := st.indicators[kind]
	if !ok || batch < 0 || batch >= st.batchCount {
		return Indicator{}
	}
	return inds[batch]
}

// ContactIndices returns the sorted active contact indices of a batch.
func (st *EntityState) ContactIndices(batch int) []int {
	if batch < 0 || batch >= st.batchCount {
		return nil
	}
	out := make([]int, 0, len(st.contacts[batch]))
	for idx := range st.contacts[batch] {
		out = append(out, idx)
	}
	sort.Ints(out)
	return out
}

// ContactIntensity returns the marker intensity for one collision point.
func (st *EntityState) ContactIntensity(batch, point int) float64 {
	if batch < 0 || batch >= st.batchCount || point < 0 || point >= len(st.desc.CollisionPoints) {
		return 0
	}
	return st.contactIntensity[batch][point]
}

// Scalar returns the per-batch values of a declared scalar.
func (st *EntityState) Scalar(name string) []float64 { return st.scalars[name] }

// dispose releases the retained per-batch buffers.
func (st *EntityState) dispose() {
	st.originalPos = nil
	st.worldPos = nil
	st.orientation = nil
	st.vectors = nil
	st.indicators = nil
	st.contacts = nil
	st.contactIntensity = nil
	st.scalars = nil
}

func deriveIndicator(v mgl64.Vec3, scale float64) Indicator {
	mag := v.Len()
	length := mag * scale
	if length < indicatorEpsilon {
		// Normalizing a near-zero vector is numerically unstable; collapse
		// the marker instead.
		return Indicator{}
	}
	return Indicator{
		Length:     length,
		Dir:        v.Mul(1 / mag),
		HeadLength: minF(length*headLengthRatio, headLengthMax),
		HeadWidth:  minF(length*headWidthRatio, headWidthMax),
	}
}

func minF(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
