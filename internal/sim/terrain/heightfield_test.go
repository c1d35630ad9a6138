package terrain

import (
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
)

func mustField(t *testing.T, sizeX, sizeY float64, resX, resY int, bounds Bounds, heights []float64, normals []mgl64.Vec3) *HeightField {
	t.Helper()
	h, err := NewHeightField(sizeX, sizeY, resX, resY, bounds, heights, normals)
	if err != nil {
		t.Fatalf("new heightfield: %v", err)
	}
	return h
}

func TestNewHeightFieldValidation(t *testing.T) {
	bounds := Bounds{MaxX: 1, MaxY: 1, MaxZ: 1}
	if _, err := NewHeightField(1, 1, 1, 2, bounds, []float64{0, 0}, nil); err == nil {
		t.Error("1xN resolution accepted")
	}
	if _, err := NewHeightField(1, 1, 2, 2, bounds, []float64{0, 0, 0}, nil); err == nil {
		t.Error("mismatched data length accepted")
	}
	if _, err := NewHeightField(1, 1, 2, 2, bounds, make([]float64, 4), make([]mgl64.Vec3, 3)); err == nil {
		t.Error("mismatched normals length accepted")
	}
}

func TestHeightAtSamplePoints(t *testing.T) {
	// 3x3 grid over [0,10]x[0,10], row-major with row = Y.
	heights := []float64{
		0, 1, 2,
		3, 4, 5,
		6, 7, 8,
	}
	h := mustField(t, 10, 10, 3, 3, Bounds{MaxX: 10, MaxY: 10, MinZ: 0, MaxZ: 8}, heights, nil)

	cases := []struct {
		name string
		x, y float64
		want float64
	}{
		{"origin corner", 0, 0, 0},
		{"grid point (1,0)", 5, 0, 1},
		{"grid point (0,1)", 0, 5, 3},
		{"center of first cell", 2.5, 2.5, 2},
		{"grid point (1,1)", 5, 5, 4},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := h.HeightAt(tc.x, tc.y)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Errorf("HeightAt(%g, %g) = %g, want %g", tc.x, tc.y, got, tc.want)
			}
		})
	}
}

func TestHeightAtOutOfBounds(t *testing.T) {
	h := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MaxZ: 1}, []float64{5, 5, 5, 5}, nil)
	for _, p := range [][2]float64{{-1, 0}, {0, -1}, {11, 5}, {5, 11}} {
		if got := h.HeightAt(p[0], p[1]); got != 0 {
			t.Errorf("HeightAt(%g, %g) = %g, want 0", p[0], p[1], got)
		}
		if h.InBounds(p[0], p[1]) {
			t.Errorf("InBounds(%g, %g) = true", p[0], p[1])
		}
	}
}

func TestNormalAt(t *testing.T) {
	up := mgl64.Vec3{0, 0, 1}
	tilted := mgl64.Vec3{1, 0, 1}.Normalize()
	normals := []mgl64.Vec3{up, tilted, up, tilted}
	h := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MaxZ: 1}, make([]float64, 4), normals)

	// Blended normals must come back unit length.
	n := h.NormalAt(5, 5)
	if math.Abs(n.Len()-1) > 1e-12 {
		t.Errorf("blended normal length %g, want 1", n.Len())
	}
	if n.Z() <= 0 {
		t.Errorf("blended normal points down: %v", n)
	}

	// Out of bounds and missing normals both fall back to +Z.
	if got := h.NormalAt(-1, 0); got != up {
		t.Errorf("out-of-bounds normal = %v, want +Z", got)
	}
	flat := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MaxZ: 1}, make([]float64, 4), nil)
	if got := flat.NormalAt(5, 5); got != up {
		t.Errorf("normal without source data = %v, want +Z", got)
	}
}

func TestNormalizedHeightAt(t *testing.T) {
	h := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MinZ: 2, MaxZ: 6}, []float64{4, 4, 4, 4}, nil)
	if got := h.NormalizedHeightAt(5, 5); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("normalized height = %g, want 0.5", got)
	}
	// Out of bounds height is 0, below MinZ, so the clamp engages.
	if got := h.NormalizedHeightAt(-1, 0); got != 0 {
		t.Errorf("normalized out-of-bounds height = %g, want 0", got)
	}
	degenerate := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MinZ: 3, MaxZ: 3}, []float64{3, 3, 3, 3}, nil)
	if got := degenerate.NormalizedHeightAt(5, 5); got != 0 {
		t.Errorf("zero-span normalized height = %g, want 0", got)
	}
}

func TestUpdate(t *testing.T) {
	h := mustField(t, 10, 10, 2, 2, Bounds{MaxX: 10, MaxY: 10, MaxZ: 1}, make([]float64, 4), nil)
	if err := h.Update([]float64{1, 1, 1, 1}, nil); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := h.HeightAt(5, 5); math.Abs(got-1) > 1e-12 {
		t.Errorf("height after update = %g, want 1", got)
	}
	if err := h.Update([]float64{1, 1}, nil); err == nil {
		t.Error("short update accepted")
	}
}
