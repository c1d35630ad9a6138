package terrain

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Bounds is the axis-aligned extent of a height field in world space.
type Bounds struct {
	MinX, MaxX float64
	MinY, MaxY float64
	MinZ, MaxZ float64
}

// HeightField is a regular grid of terrain elevation samples plus optional
// per-sample surface normals. Heights are row-major with row = Y. Point
// queries use bilinear interpolation and never fail: out-of-bounds queries
// return a defined default (height 0, normal +Z).
type HeightField struct {
	sizeX, sizeY float64
	resX, resY   int
	bounds       Bounds

	heights []float64
	normals []mgl64.Vec3 // nil when the source carried no normals
}

var defaultNormal = mgl64.Vec3{0, 0, 1}

func NewHeightField(sizeX, sizeY float64, resX, resY int, bounds Bounds, heights []float64, normals []mgl64.Vec3) (*HeightField, error) {
	if resX < 2 || resY < 2 {
		return nil, fmt.Errorf("heightfield resolution %dx%d: need at least 2x2", resX, resY)
	}
	if len(heights) != resX*resY {
		return nil, fmt.Errorf("heightfield data length %d does not match %dx%d grid", len(heights), resX, resY)
	}
	if normals != nil && len(normals) != resX*resY {
		return nil, fmt.Errorf("heightfield normals length %d does not match %dx%d grid", len(normals), resX, resY)
	}
	return &HeightField{
		sizeX:   sizeX,
		sizeY:   sizeY,
		resX:    resX,
		resY:    resY,
		bounds:  bounds,
		heights: heights,
		normals: normals,
	}, nil
}

func (h *HeightField) Bounds() Bounds         { return h.bounds }
func (h *HeightField) Resolution() (int, int) { return h.resX, h.resY }
func (h *HeightField) Size() (float64, float64) {
	return h.sizeX, h.sizeY
}

// HasNormals reports whether the source supplied surface normals.
func (h *HeightField) HasNormals() bool { return h.normals != nil }

// cell resolves the containing grid cell and fractional offsets for a world
// coordinate. ok is false when the cell is outside the interpolable interior.
func (h *HeightField) cell(x, y float64) (ix, iy int, fx, fy float64, ok bool) {
	gx := (x - h.bounds.MinX) / h.sizeX * float64(h.resX-1)
	gy := (y - h.bounds.MinY) / h.sizeY * float64(h.resY-1)
	ix = int(math.Floor(gx))
	iy = int(math.Floor(gy))
	if ix < 0 || ix >= h.resX-1 || iy < 0 || iy >= h.resY-1 {
		return 0, 0, 0, 0, false
	}
	return ix, iy, gx - float64(ix), gy - float64(iy), true
}

// InBounds reports whether (x, y) falls inside the interpolable grid interior.
func (h *HeightField) InBounds(x, y float64) bool {
	_, _, _, _, ok := h.cell(x, y)
	return ok
}

// HeightAt returns the bilinearly interpolated height at (x, y), or 0 when
// the point is out of bounds.
func (h *HeightField) HeightAt(x, y float64) float64 {
	ix, iy, fx, fy, ok := h.cell(x, y)
	if !ok {
		return 0
	}
	i00 := iy*h.resX + ix
	i10 := i00 + 1
	i01 := i00 + h.resX
	i11 := i01 + 1
	h0 := h.heights[i00]*(1-fx) + h.heights[i10]*fx
	h1 := h.heights[i01]*(1-fx) + h.heights[i11]*fx
	return h0*(1-fy) + h1*fy
}

// NormalAt returns the interpolated unit surface normal at (x, y). Out of
// bounds, or without source normals, it returns +Z. The blended normal is
// re-normalized; linear blending of unit vectors alone shrinks the result.
func (h *HeightField) NormalAt(x, y float64) mgl64.Vec3 {
	if h.normals == nil {
		return defaultNormal
	}
	ix, iy, fx, fy, ok := h.cell(x, y)
	if !ok {
		return defaultNormal
	}
	i00 := iy*h.resX + ix
	i10 := i00 + 1
	i01 := i00 + h.resX
	i11 := i01 + 1
	n0 := h.normals[i00].Mul(1 - fx).Add(h.normals[i10].Mul(fx))
	n1 := h.normals[i01].Mul(1 - fx).Add(h.normals[i11].Mul(fx))
	n := n0.Mul(1 - fy).Add(n1.Mul(fy))
	if n.Len() < 1e-12 {
		return defaultNormal
	}
	return n.Normalize()
}

// NormalizedHeightAt maps the height at (x, y) into [0, 1] over the vertical
// bounds, for use with a ColorMap.
func (h *HeightField) NormalizedHeightAt(x, y float64) float64 {
	span := h.bounds.MaxZ - h.bounds.MinZ
	if span <= 0 {
		return 0
	}
	t := (h.HeightAt(x, y) - h.bounds.MinZ) / span
	return math.Min(1, math.Max(0, t))
}

// Update atomically swaps the backing arrays. Derived visual state held by
// callers must be invalidated by them.
func (h *HeightField) Update(heights []float64, normals []mgl64.Vec3) error {
	if len(heights) != h.resX*h.resY {
		return fmt.Errorf("heightfield update length %d does not match %dx%d grid", len(heights), h.resX, h.resY)
	}
	if normals != nil && len(normals) != h.resX*h.resY {
		return fmt.Errorf("heightfield update normals length %d does not match %dx%d grid", len(normals), h.resX, h.resY)
	}
	h.heights = heights
	h.normals = normals
	return nil
}

// ColorMap shades a normalized height in [0, 1] as RGB. The rendering layer
// supplies the concrete function.
type ColorMap func(t float64) [3]float64
