package protocol

import (
	"bytes"
	"encoding/json"
)

// Dynamic state fields arrive in one of two encodings: a flat vector that
// targets batch 0 only, or a vector per batch. The wire format carries no tag,
// so the decoder sniffs the first element: if it is itself an array the field
// is per-batch, otherwise it is single-batch. Documents produced by older
// writers rely on this rule, so it must not change.

// BatchedFloats is a float field in either encoding. A zero BatchedFloats
// (absent or empty field) applies to nothing.
type BatchedFloats struct {
	Values  [][]float64
	Batched bool
}

func (f *BatchedFloats) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		f.Values = nil
		f.Batched = false
		return nil
	}
	if startsWithArray(raw[0]) {
		var vals [][]float64
		if err := json.Unmarshal(b, &vals); err != nil {
			return err
		}
		f.Values = vals
		f.Batched = true
		return nil
	}
	var one []float64
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	f.Values = [][]float64{one}
	f.Batched = false
	return nil
}

func (f BatchedFloats) MarshalJSON() ([]byte, error) {
	if !f.Batched {
		if len(f.Values) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(f.Values)
}

// Empty reports whether the field carries no data to apply.
func (f BatchedFloats) Empty() bool { return len(f.Values) == 0 }

// BatchedInts is an integer-set field (contact indices) in either encoding.
type BatchedInts struct {
	Values  [][]int
	Batched bool
}

func (f *BatchedInts) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		f.Values = nil
		f.Batched = false
		return nil
	}
	if startsWithArray(raw[0]) {
		var vals [][]int
		if err := json.Unmarshal(b, &vals); err != nil {
			return err
		}
		f.Values = vals
		f.Batched = true
		return nil
	}
	var one []int
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	f.Values = [][]int{one}
	f.Batched = false
	return nil
}

func (f BatchedInts) MarshalJSON() ([]byte, error) {
	if !f.Batched {
		if len(f.Values) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(f.Values)
}

func (f BatchedInts) Empty() bool { return len(f.Values) == 0 }

// BatchedVec3s is a list-of-3-vectors field that may carry one list per batch
// (terrain normals). The sniff goes one level deeper: a single encoding is
// [[x,y,z], ...], a per-batch encoding is [[[x,y,z], ...], ...].
type BatchedVec3s struct {
	Values  [][][]float64
	Batched bool
}

func (f *BatchedVec3s) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	if len(raw) == 0 {
		f.Values = nil
		f.Batched = false
		return nil
	}
	var first []json.RawMessage
	if err := json.Unmarshal(raw[0], &first); err != nil {
		return err
	}
	if len(first) > 0 && startsWithArray(first[0]) {
		var vals [][][]float64
		if err := json.Unmarshal(b, &vals); err != nil {
			return err
		}
		f.Values = vals
		f.Batched = true
		return nil
	}
	var one [][]float64
	if err := json.Unmarshal(b, &one); err != nil {
		return err
	}
	f.Values = [][][]float64{one}
	f.Batched = false
	return nil
}

func (f BatchedVec3s) MarshalJSON() ([]byte, error) {
	if !f.Batched {
		if len(f.Values) == 0 {
			return []byte("[]"), nil
		}
		return json.Marshal(f.Values[0])
	}
	return json.Marshal(f.Values)
}

func (f BatchedVec3s) Empty() bool { return len(f.Values) == 0 }

func startsWithArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '['
}
