package playback

import (
	"sort"

	"github.com/aleskucera/simview/internal/protocol"
)

// Timeline is the time-sorted sequence of animation frames. It is replaced
// wholesale when a new state document arrives; incremental additions re-sort.
// Frames with equal timestamps keep their ingest order.
type Timeline struct {
	frames []protocol.Frame
}

func NewTimeline(frames []protocol.Frame) *Timeline {
	t := &Timeline{}
	t.Replace(frames)
	return t
}

// Replace swaps in a new frame sequence.
func (t *Timeline) Replace(frames []protocol.Frame) {
	t.frames = make([]protocol.Frame, len(frames))
	copy(t.frames, frames)
	sort.SliceStable(t.frames, func(i, j int) bool {
		return t.frames[i].Time < t.frames[j].Time
	})
}

// AddFrame appends one frame and restores the ordering invariant.
func (t *Timeline) AddFrame(f protocol.Frame) {
	t.frames = append(t.frames, f)
	sort.SliceStable(t.frames, func(i, j int) bool {
		return t.frames[i].Time < t.frames[j].Time
	})
}

func (t *Timeline) Len() int { return len(t.frames) }

// Frame returns the frame at an index.
func (t *Timeline) Frame(i int) (protocol.Frame, bool) {
	if i < 0 || i >= len(t.frames) {
		return protocol.Frame{}, false
	}
	return t.frames[i], true
}

// Duration is the timestamp of the last frame, or 0 for an empty timeline.
func (t *Timeline) Duration() float64 {
	if len(t.frames) == 0 {
		return 0
	}
	return t.frames[len(t.frames)-1].Time
}

// IndexAt returns the index of the frame active at a playback time: the
// greatest i with frames[i].Time <= at, clamped to 0 when every frame lies
// in the future. Returns -1 only for an empty timeline.
func (t *Timeline) IndexAt(at float64) int {
	if len(t.frames) == 0 {
		return -1
	}
	// First frame with Time > at, minus one.
	i := sort.Search(len(t.frames), func(i int) bool {
		return t.frames[i].Time > at
	})
	if i == 0 {
		return 0
	}
	return i - 1
}
