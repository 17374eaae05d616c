// Package coretest provides an in-memory core.Sink for relay tests.
package coretest

import (
	"errors"
	"sync"

	"github.com/dkeye/devcircle/internal/core"
)

var ErrFull = errors.New("sink full")

// RecordingSink keeps every frame it accepts. Capacity < 0 means unbounded.
type RecordingSink struct {
	ID       core.SessionID
	Capacity int

	mu     sync.Mutex
	frames []core.Frame
	closed bool
}

func NewSink(id string) *RecordingSink {
	return &RecordingSink{ID: core.SessionID(id), Capacity: -1}
}

func (s *RecordingSink) SID() core.SessionID { return s.ID }

func (s *RecordingSink) TrySend(f core.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return errors.New("sink closed")
	}
	if s.Capacity >= 0 && len(s.frames) >= s.Capacity {
		return ErrFull
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *RecordingSink) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *RecordingSink) Frames() []core.Frame {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]core.Frame, len(s.frames))
	copy(out, s.frames)
	return out
}

func (s *RecordingSink) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}
