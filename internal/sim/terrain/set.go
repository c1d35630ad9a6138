package terrain

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/aleskucera/simview/internal/protocol"
)

// OffsetSource resolves the world-space placement offset of a batch. The
// batch layout implements it; terrain pulls the current offset on every query
// instead of caching it, so layout changes need no terrain-side invalidation.
type OffsetSource interface {
	OffsetOf(batch int) mgl64.Vec3
}

// Set owns the height fields of all batches. A singleton set holds one field
// shared by every batch; otherwise each batch has its own. World-space
// queries subtract the batch offset first, mapping the point back into the
// batch-relative frame the height data lives in.
type Set struct {
	fields     []*HeightField
	singleton  bool
	batchCount int
}

// NewSet builds the terrain of a model message. Construction is strict: a
// heightmap count that matches neither 1 nor batchCount is an error, as is a
// grid/data length mismatch.
func NewSet(def *protocol.TerrainDef, batchCount int) (*Set, error) {
	if def == nil {
		return nil, fmt.Errorf("nil terrain definition")
	}
	if batchCount < 1 {
		return nil, fmt.Errorf("terrain batch count %d: need at least 1", batchCount)
	}
	dims := def.Dimensions
	bounds := Bounds{
		MinX: def.Bounds.MinX, MaxX: def.Bounds.MaxX,
		MinY: def.Bounds.MinY, MaxY: def.Bounds.MaxY,
		MinZ: def.Bounds.MinZ, MaxZ: def.Bounds.MaxZ,
	}

	heightBatches := def.HeightData.Values
	singleton := def.IsSingleton || len(heightBatches) == 1
	if len(heightBatches) == 0 {
		return nil, fmt.Errorf("terrain has no height data")
	}
	if !singleton && len(heightBatches) != batchCount {
		return nil, fmt.Errorf("terrain has %d heightmaps for %d batches", len(heightBatches), batchCount)
	}

	normalBatches := def.Normals.Values
	if len(normalBatches) != 0 && len(normalBatches) != len(heightBatches) {
		return nil, fmt.Errorf("terrain has %d normal sets for %d heightmaps", len(normalBatches), len(heightBatches))
	}

	fields := make([]*HeightField, len(heightBatches))
	for i, heights := range heightBatches {
		var normals []mgl64.Vec3
		if len(normalBatches) != 0 {
			var err error
			normals, err = toVec3s(normalBatches[i])
			if err != nil {
				return nil, fmt.Errorf("terrain batch %d: %w", i, err)
			}
		}
		hf, err := NewHeightField(dims.SizeX, dims.SizeY, dims.ResolutionX, dims.ResolutionY, bounds, heights, normals)
		if err != nil {
			return nil, fmt.Errorf("terrain batch %d: %w", i, err)
		}
		fields[i] = hf
	}

	return &Set{fields: fields, singleton: singleton, batchCount: batchCount}, nil
}

func (s *Set) Singleton() bool  { return s.singleton }
func (s *Set) BatchCount() int  { return s.batchCount }

// Field returns the height field backing a batch, or nil for an out-of-range
// batch index.
func (s *Set) Field(batch int) *HeightField {
	if batch < 0 || batch >= s.batchCount {
		return nil
	}
	if s.singleton {
		return s.fields[0]
	}
	return s.fields[batch]
}

// HeightAtWorld answers a world-space height query for a batch: the batch
// offset is subtracted before the batch-relative field is consulted.
func (s *Set) HeightAtWorld(x, y float64, batch int, offsets OffsetSource) float64 {
	f := s.Field(batch)
	if f == nil {
		return 0
	}
	off := offsets.OffsetOf(batch)
	return f.HeightAt(x-off.X(), y-off.Y())
}

// NormalAtWorld is the world-space analogue of NormalAt.
func (s *Set) NormalAtWorld(x, y float64, batch int, offsets OffsetSource) mgl64.Vec3 {
	f := s.Field(batch)
	if f == nil {
		return defaultNormal
	}
	off := offsets.OffsetOf(batch)
	return f.NormalAt(x-off.X(), y-off.Y())
}

// InBoundsWorld reports whether a world-space point lies on a batch's terrain.
func (s *Set) InBoundsWorld(x, y float64, batch int, offsets OffsetSource) bool {
	f := s.Field(batch)
	if f == nil {
		return false
	}
	off := offsets.OffsetOf(batch)
	return f.InBounds(x-off.X(), y-off.Y())
}

// Update swaps the height data of every batch from a replacement definition.
// The grid dimensions must match the original construction.
func (s *Set) Update(def *protocol.TerrainDef) error {
	if def == nil {
		return fmt.Errorf("nil terrain definition")
	}
	heightBatches := def.HeightData.Values
	if len(heightBatches) != len(s.fields) {
		return fmt.Errorf("terrain update has %d heightmaps, want %d", len(heightBatches), len(s.fields))
	}
	normalBatches := def.Normals.Values
	if len(normalBatches) != 0 && len(normalBatches) != len(heightBatches) {
		return fmt.Errorf("terrain update has %d normal sets for %d heightmaps", len(normalBatches), len(heightBatches))
	}
	for i, heights := range heightBatches {
		var normals []mgl64.Vec3
		if len(normalBatches) != 0 {
			var err error
			normals, err = toVec3s(normalBatches[i])
			if err != nil {
				return fmt.Errorf("terrain batch %d: %w", i, err)
			}
		}
		if err := s.fields[i].Update(heights, normals); err != nil {
			return fmt.Errorf("terrain batch %d: %w", i, err)
		}
	}
	return nil
}

func toVec3s(rows [][]float64) ([]mgl64.Vec3, error) {
	out := make([]mgl64.Vec3, len(rows))
	for i, row := range rows {
		if len(row) < 3 {
			return nil, fmt.Errorf("normal %d has %d components, want 3", i, len(row))
		}
		out[i] = mgl64.Vec3{row[0], row[1], row[2]}
	}
	return out, nil
}
