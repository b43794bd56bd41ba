// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/reel-foundation/reel/lib/display"
	"github.com/reel-foundation/reel/lib/protocol"
	"github.com/reel-foundation/reel/lib/video"
)

// readChunkSize is the read granularity for draining a recording. Large
// enough to amortize syscalls, small enough that the parse buffer stays
// modest between instructions.
const readChunkSize = 64 * 1024

// defaultFrameRate applies when Config.FrameRate is unset.
const defaultFrameRate = 25

// Config carries the tunable parts of a transcoding run.
type Config struct {
	// FrameRate is the output frame rate in frames per second.
	FrameRate int

	// Logger receives per-instruction diagnostics. Nil discards them.
	Logger *slog.Logger
}

// Pipeline wires a protocol parser, a display, a frame scheduler and a
// dispatcher into one transcoding run. Create one per recording.
type Pipeline struct {
	parser     protocol.Parser
	dispatcher *Dispatcher
	scheduler  *Scheduler
	logger     *slog.Logger
}

// New creates a pipeline emitting frames to sink. A zero FrameRate
// falls back to the default rather than producing a zero interval.
func New(sink video.FrameSink, config Config) *Pipeline {
	logger := config.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if config.FrameRate <= 0 {
		config.FrameRate = defaultFrameRate
	}
	d := display.New()
	scheduler := NewScheduler(d, sink, config.FrameRate)
	return &Pipeline{
		dispatcher: NewDispatcher(d, scheduler, logger),
		scheduler:  scheduler,
		logger:     logger,
	}
}

// Run drains the recording from source, dispatching every instruction
// in order, and finishes the frame timeline at end of input. It does
// not close the sink; the caller owns the sink's lifecycle.
func (p *Pipeline) Run(source io.Reader) error {
	chunk := make([]byte, readChunkSize)
	instructions := 0
	for {
		read, readErr := source.Read(chunk)
		if read > 0 {
			p.parser.Feed(chunk[:read])
			for {
				instruction, err := p.parser.Next()
				if errors.Is(err, protocol.ErrIncomplete) {
					break
				}
				if err != nil {
					return fmt.Errorf("after %d instructions: %w", instructions, err)
				}
				if err := p.dispatcher.Dispatch(instruction); err != nil {
					return fmt.Errorf("after %d instructions: %w", instructions, err)
				}
				instructions++
			}
		}
		if readErr == io.EOF {
			break
		}
		if readErr != nil {
			return fmt.Errorf("reading recording: %w", readErr)
		}
	}

	if err := p.parser.Close(); err != nil {
		return fmt.Errorf("after %d instructions: %w", instructions, err)
	}
	p.logger.Debug("recording drained", "instructions", instructions)
	return p.scheduler.Finish()
}
