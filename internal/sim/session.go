// Package sim ties the scene and playback layers into a message-driven
// session: a model message builds the scene, state messages populate the
// timeline, and the scheduler drives frames back into the scene.
package sim

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/benbjohnson/clock"

	"github.com/aleskucera/simview/internal/protocol"
	"github.com/aleskucera/simview/internal/sim/playback"
	"github.com/aleskucera/simview/internal/sim/scene"
)

// Session owns the live scene and its scheduler. Message ingestion follows
// replace-then-publish: a new model builds the replacement scene completely
// before the old one is torn down, so a tick never observes a half-built
// scene. Transport errors leave the previous scene and timeline active.
type Session struct {
	log *log.Logger
	clk clock.Clock

	scene *scene.Scene
	sched *playback.Scheduler
}

func NewSession(clk clock.Clock, logger *log.Logger) *Session {
	if clk == nil {
		clk = clock.New()
	}
	return &Session{log: logger, clk: clk}
}

// Scene returns the current scene, nil before the first model message.
func (s *Session) Scene() *scene.Scene { return s.scene }

// Scheduler returns the playback scheduler, nil before the first model.
func (s *Session) Scheduler() *playback.Scheduler { return s.sched }

// HandleModel replaces the whole scene from a model message. On failure the
// previous scene stays active.
func (s *Session) HandleModel(model *protocol.ModelMsg) error {
	next, err := scene.Build(model)
	if err != nil {
		return err
	}
	speed := 1.0
	if s.sched != nil {
		speed = s.sched.Speed()
		s.sched.Stop()
	}
	if s.scene != nil {
		s.scene.Dispose()
	}
	s.scene = next
	s.sched = playback.NewScheduler(s.clk, next.Ingestor(), s.log)
	s.sched.SetSpeed(speed)
	return nil
}

// HandleState appends one frame to the timeline. Frames arriving before any
// model are dropped.
func (s *Session) HandleState(f protocol.Frame) error {
	if s.sched == nil {
		return fmt.Errorf("state before model")
	}
	s.sched.AddFrame(f)
	return nil
}

// LoadStates replaces the timeline wholesale and resets playback.
func (s *Session) LoadStates(frames []protocol.Frame) error {
	if s.sched == nil {
		return fmt.Errorf("states before model")
	}
	s.sched.LoadAnimation(frames)
	return nil
}

// HandleMessage routes one raw inbound message by type. Malformed payloads
// are reported but never crash the session.
func (s *Session) HandleMessage(raw []byte) error {
	base, err := protocol.DecodeBase(raw)
	if err != nil {
		return fmt.Errorf("decode message: %w", err)
	}
	switch base.Type {
	case protocol.TypeModel:
		var model protocol.ModelMsg
		if err := json.Unmarshal(raw, &model); err != nil {
			return fmt.Errorf("decode model: %w", err)
		}
		return s.HandleModel(&model)
	case protocol.TypeState:
		var msg protocol.StateMsg
		if err := json.Unmarshal(raw, &msg); err != nil {
			return fmt.Errorf("decode state: %w", err)
		}
		return s.HandleState(msg.Frame)
	default:
		return fmt.Errorf("unknown message type %q", base.Type)
	}
}
