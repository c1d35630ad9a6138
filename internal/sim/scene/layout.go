package scene

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultSpacing separates neighboring batches along X when the model does
// not collapse them onto a shared origin.
const DefaultSpacing = 10.0

// LayoutObserver is notified synchronously whenever a batch offset changes.
// Observers must not mutate the layout from inside the callback; nested
// SetOffset calls are rejected.
type LayoutObserver interface {
	OffsetChanged(batch int, offset mgl64.Vec3)
}

// BatchLayout maps a batch index to its world-space placement offset and
// back to a (row, col) grid position. It is the sole source of truth for
// offsets; dependents pull the current value instead of caching it.
type BatchLayout struct {
	batchCount int
	cols       int
	spacing    float64
	offsets    []mgl64.Vec3

	observers []LayoutObserver
	notifying bool
}

func NewBatchLayout(batchCount int, spacing float64, collapse bool) (*BatchLayout, error) {
	if batchCount < 1 {
		return nil, fmt.Errorf("batch count %d: need at least 1", batchCount)
	}
	if spacing <= 0 {
		spacing = DefaultSpacing
	}
	l := &BatchLayout{
		batchCount: batchCount,
		cols:       1,
		spacing:    spacing,
		offsets:    make([]mgl64.Vec3, batchCount),
	}
	if !collapse {
		for i := range l.offsets {
			l.offsets[i] = mgl64.Vec3{float64(i) * spacing, 0, 0}
		}
		l.cols = batchCount
	}
	return l, nil
}

func (l *BatchLayout) BatchCount() int { return l.batchCount }
func (l *BatchLayout) Cols() int       { return l.cols }

// Subscribe registers an observer for offset changes.
func (l *BatchLayout) Subscribe(ob LayoutObserver) {
	l.observers = append(l.observers, ob)
}

// Unsubscribe removes a previously registered observer.
func (l *BatchLayout) Unsubscribe(ob LayoutObserver) {
	for i, o := range l.observers {
		if o == ob {
			l.observers = append(l.observers[:i], l.observers[i+1:]...)
			return
		}
	}
}

// OffsetOf returns the placement offset of a batch. Out-of-range indices
// resolve to the zero offset; that is the defined default, not an error.
func (l *BatchLayout) OffsetOf(batch int) mgl64.Vec3 {
	if batch < 0 || batch >= l.batchCount {
		return mgl64.Vec3{}
	}
	return l.offsets[batch]
}

// SetOffset places a batch and synchronously pushes the change to every
// observer. Calls with an out-of-range index are no-ops, as are reentrant
// calls made from inside an observer callback.
func (l *BatchLayout) SetOffset(batch int, offset mgl64.Vec3) {
	if batch < 0 || batch >= l.batchCount {
		return
	}
	if l.notifying {
		return
	}
	l.offsets[batch] = offset
	l.notifying = true
	for _, ob := range l.observers {
		ob.OffsetChanged(batch, offset)
	}
	l.notifying = false
}

// ArrangeGrid lays the batches out on a row/col grid with the layout's
// spacing: columns advance along X, rows along Y.
func (l *BatchLayout) ArrangeGrid(cols int) {
	if cols < 1 {
		cols = 1
	}
	l.cols = cols
	for i := 0; i < l.batchCount; i++ {
		row, col := i/cols, i%cols
		l.SetOffset(i, mgl64.Vec3{float64(col) * l.spacing, float64(row) * l.spacing, 0})
	}
}

// RowColOf returns the grid position of a batch under the current column count.
func (l *BatchLayout) RowColOf(batch int) (row, col int) {
	cols := l.cols
	if cols < 1 {
		cols = 1
	}
	return batch / cols, batch % cols
}

// IndexFromRowCol resolves a grid position back to a batch index, or -1 when
// the position falls outside the layout.
func (l *BatchLayout) IndexFromRowCol(row, col int) int {
	cols := l.cols
	if cols < 1 {
		cols = 1
	}
	if row < 0 || col < 0 || col >= cols {
		return -1
	}
	idx := row*cols + col
	if idx >= l.batchCount {
		return -1
	}
	return idx
}

// Neighbor resolves the batch adjacent to current in the direction of the
// given azimuth (radians, screen space: 0 along +X/columns, pi/2 along
// +Y/rows). The direction is projected onto the layout axes and the nearest
// cardinal wins; on an exact diagonal the horizontal axis is preferred. When
// no neighbor exists in that direction the current batch is returned.
func (l *BatchLayout) Neighbor(current int, azimuth float64) int {
	if current < 0 || current >= l.batchCount {
		return current
	}
	dx := math.Cos(azimuth)
	dy := math.Sin(azimuth)
	row, col := l.RowColOf(current)
	if math.Abs(dx) >= math.Abs(dy) {
		if dx >= 0 {
			col++
		} else {
			col--
		}
	} else {
		if dy >= 0 {
			row++
		} else {
			row--
		}
	}
	idx := l.IndexFromRowCol(row, col)
	if idx < 0 {
		return current
	}
	return idx
}
