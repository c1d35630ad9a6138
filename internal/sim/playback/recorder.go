package playback

import "time"

// RecordingMeta describes one capture run.
type RecordingMeta struct {
	ID        string    `json:"id"`
	StartedAt time.Time `json:"startedAt"`
	Speed     float64   `json:"speed"`
	Frames    int       `json:"frames"`
	Duration  float64   `json:"duration"`
}

// CaptureFrame is what the scheduler hands the recorder on every tick while
// a recording is active.
type CaptureFrame struct {
	Seq        int     `json:"seq"`
	SimTime    float64 `json:"simTime"`
	FrameIndex int     `json:"frameIndex"`
	FrameTime  float64 `json:"frameTime"`
}

// Recorder is the external capture collaborator. The scheduler acquires it
// with Begin and guarantees End through every stop path, explicit or the
// automatic end-of-loop stop.
type Recorder interface {
	Begin(meta RecordingMeta) error
	Capture(f CaptureFrame) error
	End() error
}
