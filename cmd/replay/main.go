package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/google/uuid"

	"github.com/aleskucera/simview/internal/persistence/record"
	"github.com/aleskucera/simview/internal/persistence/store"
	"github.com/aleskucera/simview/internal/protocol"
	"github.com/aleskucera/simview/internal/sim"
	"github.com/aleskucera/simview/internal/sim/playback"
)

// replay drives a saved simulation document through the full playback path
// on a mock clock: build the scene from the model, load the timeline, play
// one complete loop at the requested speed, and report per-frame progress.
func main() {
	var (
		simPath  = flag.String("sim", "", "simulation document (.json, .json.zst, .json.gz)")
		speed    = flag.Float64("speed", 1.0, "playback speed factor")
		tickRate = flag.Int("tick_rate", 60, "scheduler ticks per second")
		capture  = flag.String("record", "", "directory to write a capture file into (empty disables)")
		verbose  = flag.Bool("v", false, "print every frame change")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[replay] ", log.LstdFlags|log.Lmicroseconds)

	if *simPath == "" {
		logger.Fatal("missing -sim")
	}
	if *speed <= 0 || *tickRate <= 0 {
		logger.Fatal("speed and tick_rate must be positive")
	}

	doc, err := store.LoadDocument(*simPath)
	if err != nil {
		logger.Fatalf("load %s: %v", *simPath, err)
	}

	mock := clock.NewMock()
	session := sim.NewSession(mock, logger)
	if err := session.HandleModel(&doc.Model); err != nil {
		logger.Fatalf("build scene: %v", err)
	}
	if err := session.LoadStates(doc.States); err != nil {
		logger.Fatalf("load states: %v", err)
	}

	sched := session.Scheduler()
	sched.SetSpeed(*speed)

	dispatched := 0
	lastTime := -1.0
	monotonic := true
	sched.OnFrame(func(index int, f protocol.Frame) {
		dispatched++
		// Within one loop dispatch times never go backwards; a single drop
		// back to the first frame marks the wrap.
		if f.Time < lastTime && index != 0 {
			monotonic = false
			logger.Printf("dispatch went backwards: frame %d t=%.4f after t=%.4f", index, f.Time, lastTime)
		}
		lastTime = f.Time
		if *verbose {
			logger.Printf("frame %d t=%.4f", index, f.Time)
		}
	})

	logger.Printf("scene: batches=%d bodies=%d frames=%d duration=%.3fs speed=%.2f",
		session.Scene().BatchCount(), len(session.Scene().BodyNames()),
		sched.Timeline().Len(), sched.Timeline().Duration(), *speed)

	sched.Play()

	if *capture != "" {
		writer := record.NewWriter(*capture)
		id := uuid.NewString()
		meta := playback.RecordingMeta{ID: id, StartedAt: time.Now().UTC()}
		ok, err := sched.StartRecording(writer, meta)
		if err != nil {
			logger.Fatalf("start recording: %v", err)
		}
		if ok {
			logger.Printf("recording to %s", writer.Path(id))
		}
	}

	dur := sched.Timeline().Duration()
	tick := time.Duration(float64(time.Second) / float64(*tickRate))
	wallBudget := time.Duration(dur / *speed * float64(time.Second))

	for elapsed := time.Duration(0); elapsed <= wallBudget+tick; elapsed += tick {
		mock.Add(tick)
		sched.Tick()
	}
	sched.Stop()

	if !monotonic {
		logger.Fatal("replay failed: non-monotonic dispatch order")
	}
	fmt.Printf("replay ok: frames=%d dispatched=%d duration=%.3fs\n",
		sched.Timeline().Len(), dispatched, dur)
}
