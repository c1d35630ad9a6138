package playback

import (
	"log"
	"math"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/aleskucera/simview/internal/protocol"
)

// State is the scheduler's playback state.
type State int

const (
	Stopped State = iota
	Playing
	Paused
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Playing:
		return "playing"
	case Paused:
		return "paused"
	}
	return "stopped"
}

// Applier consumes a resolved frame; the scene ingestor implements it.
type Applier interface {
	Apply(frame protocol.Frame)
}

// FrameFunc observes active-frame changes.
type FrameFunc func(index int, frame protocol.Frame)

// Scheduler maps wall-clock time onto the timeline: speed-scaled, looping
// over the total duration, with deterministic single-stepping. All methods
// must be called from the single logical scheduling thread; Tick is expected
// at frame-callback cadence while playing.
type Scheduler struct {
	clk      clock.Clock
	log      *log.Logger
	timeline *Timeline
	applier  Applier

	state State
	speed float64
	// Effective wall-clock origin of the current play run. Recomputed on
	// SetSpeed so simTime stays continuous across a speed change.
	playStart time.Time
	// Sim time frozen while paused or stopped.
	frozenAt float64
	index    int

	recorder       Recorder
	recording      bool
	recordSeq      int
	recordStartSim float64

	observers []FrameFunc
}

func NewScheduler(clk clock.Clock, applier Applier, logger *log.Logger) *Scheduler {
	if clk == nil {
		clk = clock.New()
	}
	return &Scheduler{
		clk:      clk,
		log:      logger,
		timeline: NewTimeline(nil),
		applier:  applier,
		speed:    1,
	}
}

func (s *Scheduler) State() State        { return s.state }
func (s *Scheduler) Speed() float64      { return s.speed }
func (s *Scheduler) Index() int          { return s.index }
func (s *Scheduler) Timeline() *Timeline { return s.timeline }

// LoadAnimation replaces the timeline and resets playback to Stopped at
// index 0. An in-flight recording is ended first.
func (s *Scheduler) LoadAnimation(frames []protocol.Frame) {
	s.stopRecording()
	s.timeline.Replace(frames)
	s.state = Stopped
	s.frozenAt = 0
	s.index = 0
	if f, ok := s.timeline.Frame(0); ok {
		s.dispatch(0, f)
	}
}

// AddFrame appends one frame to the timeline, preserving its ordering.
func (s *Scheduler) AddFrame(f protocol.Frame) {
	s.timeline.AddFrame(f)
}

// Play starts or resumes playback from the current sim time.
func (s *Scheduler) Play() {
	if s.state == Playing || s.timeline.Len() == 0 {
		return
	}
	s.playStart = s.clk.Now().Add(-time.Duration(s.frozenAt / s.speed * float64(time.Second)))
	s.state = Playing
}

// Pause freezes playback immediately. Pausing while not playing is a no-op.
func (s *Scheduler) Pause() {
	if s.state != Playing {
		return
	}
	s.frozenAt = s.simTime()
	s.state = Paused
}

// Stop halts playback, rewinds to the first frame, and ends any recording.
func (s *Scheduler) Stop() {
	s.stopRecording()
	s.state = Stopped
	s.frozenAt = 0
	s.index = 0
	if f, ok := s.timeline.Frame(0); ok {
		s.dispatch(0, f)
	}
}

// SetSpeed rescales the wall-clock mapping without a jump in sim time.
func (s *Scheduler) SetSpeed(factor float64) {
	if factor <= 0 {
		return
	}
	if s.state == Playing {
		cur := s.simTime()
		s.speed = factor
		s.playStart = s.clk.Now().Add(-time.Duration(cur / factor * float64(time.Second)))
		return
	}
	s.speed = factor
}

// StepForward advances exactly one frame, clamped at the end. Stepping
// while playing implicitly pauses first.
func (s *Scheduler) StepForward() { s.step(1) }

// StepBackward rewinds exactly one frame, clamped at the start.
func (s *Scheduler) StepBackward() { s.step(-1) }

func (s *Scheduler) step(delta int) {
	if s.timeline.Len() == 0 {
		return
	}
	if s.state == Playing {
		s.Pause()
	} else if s.state == Stopped {
		s.state = Paused
	}
	next := s.index + delta
	if next < 0 {
		next = 0
	}
	if next >= s.timeline.Len() {
		next = s.timeline.Len() - 1
	}
	f, _ := s.timeline.Frame(next)
	// Freeze sim time on the stepped frame so resuming is consistent.
	s.frozenAt = f.Time
	if next != s.index {
		s.index = next
		s.dispatch(next, f)
	}
}

// OnFrame registers an observer for active-frame changes.
func (s *Scheduler) OnFrame(fn FrameFunc) {
	s.observers = append(s.observers, fn)
}

// Tick resolves the active frame for the current wall-clock instant and
// dispatches it if it changed. While a recording is active it also hands the
// capture collaborator one frame per tick, and ends the recording once a
// full loop of the total duration has been captured.
func (s *Scheduler) Tick() {
	if s.state != Playing || s.timeline.Len() == 0 {
		return
	}
	sim := s.simTime()
	lt := s.loopTime(sim)
	idx := s.timeline.IndexAt(lt)
	if idx >= 0 && idx != s.index {
		f, _ := s.timeline.Frame(idx)
		s.index = idx
		s.dispatch(idx, f)
	}
	if s.recording {
		f, _ := s.timeline.Frame(s.index)
		s.recordSeq++
		if err := s.recorder.Capture(CaptureFrame{
			Seq:        s.recordSeq,
			SimTime:    sim,
			FrameIndex: s.index,
			FrameTime:  f.Time,
		}); err != nil && s.log != nil {
			s.log.Printf("capture frame %d: %v", s.recordSeq, err)
		}
		if dur := s.timeline.Duration(); dur > 0 && sim-s.recordStartSim >= dur {
			s.stopRecording()
		}
	}
}

// StartRecording acquires the capture collaborator. Recording is layered on
// playing: starting while not playing is rejected by returning false.
func (s *Scheduler) StartRecording(rec Recorder, meta RecordingMeta) (bool, error) {
	if s.state != Playing || rec == nil || s.recording {
		return false, nil
	}
	meta.Speed = s.speed
	meta.Frames = s.timeline.Len()
	meta.Duration = s.timeline.Duration()
	if err := rec.Begin(meta); err != nil {
		return false, err
	}
	s.recorder = rec
	s.recording = true
	s.recordSeq = 0
	s.recordStartSim = s.simTime()
	return true, nil
}

// StopRecording ends an active recording, releasing the capture handle.
func (s *Scheduler) StopRecording() { s.stopRecording() }

// Recording reports whether a capture run is active.
func (s *Scheduler) Recording() bool { return s.recording }

func (s *Scheduler) stopRecording() {
	if !s.recording {
		return
	}
	s.recording = false
	if err := s.recorder.End(); err != nil && s.log != nil {
		s.log.Printf("end recording: %v", err)
	}
	s.recorder = nil
}

func (s *Scheduler) simTime() float64 {
	if s.state != Playing {
		return s.frozenAt
	}
	return s.clk.Now().Sub(s.playStart).Seconds() * s.speed
}

func (s *Scheduler) loopTime(sim float64) float64 {
	dur := s.timeline.Duration()
	if dur <= 0 || sim <= 0 {
		return 0
	}
	// Wrap only once sim time exceeds the total duration, so the final
	// frame stays active at exactly sim == duration.
	if sim <= dur {
		return sim
	}
	return math.Mod(sim, dur)
}

func (s *Scheduler) dispatch(index int, f protocol.Frame) {
	if s.applier != nil {
		s.applier.Apply(f)
	}
	for _, fn := range s.observers {
		fn(index, f)
	}
}
