package scene

import (
	"github.com/aleskucera/simview/internal/protocol"
)

// Ingestor routes a frame's partially-specified body payloads into the
// entity states. It is deliberately tolerant: unknown bodies, absent fields,
// short payloads, and out-of-range batches all degrade silently, because a
// live visualization consumes a best-effort stream.
type Ingestor struct {
	scene *Scene
}

// Apply mutates every addressed body's state from one frame. Fields absent
// from a body's payload are left untouched; a per-batch field that supplies
// fewer entries than the batch count leaves the trailing batches stale, and
// entries beyond the batch count are dropped.
func (ing *Ingestor) Apply(frame protocol.Frame) {
	for _, bs := range frame.Bodies {
		st := ing.scene.Body(bs.Name)
		if st == nil {
			continue
		}
		if !st.CapabilitiesResolved() {
			st.resolveCapabilities(presentAttributes(bs))
		}

		ing.applyFloats(st, bs.Transform, st.SetTransform)
		ing.applyFloats(st, bs.Position, st.SetPosition)
		ing.applyFloats(st, bs.Orientation, st.SetOrientation)

		// velocity and force exist in two arities: the combined encoding
		// packs linear+angular into 6 components, the split encoding
		// carries 3 and uses separate angularVelocity/torque fields.
		ing.applyFloats(st, bs.Velocity, func(vals []float64, batch int) {
			if len(vals) >= 6 {
				st.SetLinearVelocity(vals[:3], batch)
				st.SetAngularVelocity(vals[3:6], batch)
				return
			}
			st.SetLinearVelocity(vals, batch)
		})
		ing.applyFloats(st, bs.Force, func(vals []float64, batch int) {
			if len(vals) >= 6 {
				st.SetLinearForce(vals[:3], batch)
				st.SetTorque(vals[3:6], batch)
				return
			}
			st.SetLinearForce(vals, batch)
		})
		ing.applyFloats(st, bs.AngularVelocity, st.SetAngularVelocity)
		ing.applyFloats(st, bs.Torque, st.SetTorque)

		ing.applyInts(st, bs.Contacts, st.SetContacts)

		for name, vals := range bs.Scalars {
			st.SetScalars(name, vals)
		}
	}
}

// applyFloats fans a batched field out to a setter: the single-batch
// encoding targets batch 0 only, the per-batch encoding targets batches
// 0..min(batchCount, supplied)-1.
func (ing *Ingestor) applyFloats(st *EntityState, f protocol.BatchedFloats, set func([]float64, int)) {
	if f.Empty() {
		return
	}
	if !f.Batched {
		set(f.Values[0], 0)
		return
	}
	n := len(f.Values)
	if n > st.BatchCount() {
		n = st.BatchCount()
	}
	for i := 0; i < n; i++ {
		set(f.Values[i], i)
	}
}

func (ing *Ingestor) applyInts(st *EntityState, f protocol.BatchedInts, set func([]int, int)) {
	if f.Empty() {
		return
	}
	if !f.Batched {
		set(f.Values[0], 0)
		return
	}
	n := len(f.Values)
	if n > st.BatchCount() {
		n = st.BatchCount()
	}
	for i := 0; i < n; i++ {
		set(f.Values[i], i)
	}
}

// presentAttributes derives a body's capability set from the first state
// payload that mentions it, for models that declared none.
func presentAttributes(bs protocol.BodyState) []string {
	var attrs []string
	if !bs.Velocity.Empty() {
		attrs = append(attrs, string(KindLinearVelocity))
		if batchArity(bs.Velocity) >= 6 {
			attrs = append(attrs, string(KindAngularVelocity))
		}
	}
	if !bs.AngularVelocity.Empty() {
		attrs = append(attrs, string(KindAngularVelocity))
	}
	if !bs.Force.Empty() {
		attrs = append(attrs, string(KindLinearForce))
		if batchArity(bs.Force) >= 6 {
			attrs = append(attrs, string(KindTorque))
		}
	}
	if !bs.Torque.Empty() {
		attrs = append(attrs, string(KindTorque))
	}
	if !bs.Contacts.Empty() {
		attrs = append(attrs, AttrContacts)
	}
	return attrs
}

func batchArity(f protocol.BatchedFloats) int {
	if len(f.Values) == 0 {
		return 0
	}
	return len(f.Values[0])
}
