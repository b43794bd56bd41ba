// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"time"

	"github.com/reel-foundation/reel/lib/display"
	"github.com/reel-foundation/reel/lib/video"
)

// Scheduler converts the recording's event-driven timeline into frames
// at a fixed interval. Synchronization instructions carry session
// timestamps; the scheduler emits one composite per elapsed frame
// boundary, duplicating the most recent state across gaps. Emitted
// presentation timestamps are monotonically non-decreasing and spaced
// at exactly the frame interval.
type Scheduler struct {
	display  *display.Display
	sink     video.FrameSink
	interval time.Duration

	// running is false until the first frame is emitted. The first
	// sync establishes the session epoch and emits at pts zero.
	running bool

	// epoch is the first sync's timestamp in milliseconds. Recordings
	// carry absolute timestamps; all scheduling is epoch-relative.
	epoch int64

	// lastEmitted is the presentation timestamp of the most recent
	// emitted frame.
	lastEmitted time.Duration

	// dirty is true when the display has mutated since the last
	// emitted frame. Finish uses it to avoid losing a trailing visual
	// change that no frame ever reflected.
	dirty bool
}

// NewScheduler creates a scheduler emitting to sink at the given frame
// rate.
func NewScheduler(d *display.Display, sink video.FrameSink, frameRate int) *Scheduler {
	return &Scheduler{
		display:  d,
		sink:     sink,
		interval: time.Second / time.Duration(frameRate),
	}
}

// MarkDirty records that the display mutated. The dispatcher calls this
// for every content-affecting instruction.
func (s *Scheduler) MarkDirty() {
	s.dirty = true
}

// Sync advances the timeline to the given session timestamp
// (milliseconds) and emits every frame whose boundary has elapsed.
//
// The first sync emits a single frame at pts zero. Later syncs emit
// floor(delta / interval) duplicates of the current composite, where
// delta is the epoch-relative time since the last emitted frame; any
// sub-interval remainder rolls into the next sync's delta. A timestamp
// earlier than the last emitted frame clamps to no advance — the output
// clock never moves backward, even for malformed recordings.
func (s *Scheduler) Sync(timestamp int64) error {
	if !s.running {
		s.running = true
		s.epoch = timestamp
		s.lastEmitted = 0
		return s.emit(0, 1)
	}

	elapsed := time.Duration(timestamp-s.epoch) * time.Millisecond
	if elapsed < s.lastEmitted {
		elapsed = s.lastEmitted
	}

	count := int((elapsed - s.lastEmitted) / s.interval)
	if count == 0 {
		return nil
	}
	firstPts := s.lastEmitted + s.interval
	s.lastEmitted += time.Duration(count) * s.interval
	return s.emit(firstPts, count)
}

// Finish emits one final frame if the display mutated after the last
// emitted frame, so a trailing visual change without a closing sync
// still reaches the output.
func (s *Scheduler) Finish() error {
	if !s.dirty {
		return nil
	}
	if !s.running {
		s.running = true
		s.lastEmitted = 0
		return s.emit(0, 1)
	}
	s.lastEmitted += s.interval
	return s.emit(s.lastEmitted, 1)
}

// emit composites the current display state once and pushes it count
// times starting at firstPts. All frames within one burst are
// bit-identical by construction — instructions between two syncs are
// fully applied before emission — so a single composite serves the
// whole burst. While the display has no storage yet (no size
// instruction), there is nothing to show and emission is skipped; the
// timeline still advances.
func (s *Scheduler) emit(firstPts time.Duration, count int) error {
	s.dirty = false
	frame := s.display.Composite()
	if frame == nil {
		return nil
	}
	for index := 0; index < count; index++ {
		pts := firstPts + time.Duration(index)*s.interval
		if err := s.sink.Push(frame, pts); err != nil {
			return fmt.Errorf("encoding frame at %v: %w", pts, err)
		}
	}
	return nil
}
