// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/reel-foundation/reel/lib/display"
	"github.com/reel-foundation/reel/lib/protocol"
)

// maxDimension bounds layer sizes and rectangle extents. Recorded
// displays top out at a few thousand pixels per axis; anything past
// 64k is a corrupt or hostile recording, not a big screen.
const maxDimension = 1 << 16

// maxCoordinate bounds positions and offsets, which may legitimately
// be negative (layers partly off screen).
const maxCoordinate = 1 << 24

// ArgumentError reports a structurally invalid instruction argument:
// non-numeric where a number is required, or a numeric value outside
// its sane range. Per the error taxonomy this is fatal — the recording
// cannot be trusted past it.
type ArgumentError struct {
	Opcode string
	Index  int
	Value  string
	Reason string
}

func (e *ArgumentError) Error() string {
	return fmt.Sprintf("pipeline: %q argument %d (%q): %s", e.Opcode, e.Index, e.Value, e.Reason)
}

// handlerFunc applies one decoded instruction to the run's state.
type handlerFunc func(d *Dispatcher, args []string) error

// handlers is the static opcode table, built once. Opcodes absent from
// the table are tolerated and ignored so that recordings made by newer
// protocol dialects still transcode.
var handlers = map[string]handlerFunc{
	"size":     (*Dispatcher).handleSize,
	"rect":     (*Dispatcher).handleRect,
	"cfill":    (*Dispatcher).handleCFill,
	"copy":     (*Dispatcher).handleCopy,
	"transfer": (*Dispatcher).handleTransfer,
	"move":     (*Dispatcher).handleMove,
	"shade":    (*Dispatcher).handleShade,
	"dispose":  (*Dispatcher).handleDispose,
	"cursor":   (*Dispatcher).handleCursor,
	"mouse":    (*Dispatcher).handleMouse,
	"img":      (*Dispatcher).handleImg,
	"blob":     (*Dispatcher).handleBlob,
	"end":      (*Dispatcher).handleEnd,
	"png":      (*Dispatcher).handlePNG,
	"sync":     (*Dispatcher).handleSync,
}

// Dispatcher maps decoded instructions onto display mutations and
// scheduler events. It is the sole owner of the display during a run.
type Dispatcher struct {
	display   *display.Display
	scheduler *Scheduler
	streams   map[int]*imageStream
	logger    *slog.Logger
}

// NewDispatcher creates a dispatcher over the given display and
// scheduler.
func NewDispatcher(d *display.Display, scheduler *Scheduler, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		display:   d,
		scheduler: scheduler,
		streams:   make(map[int]*imageStream),
		logger:    logger,
	}
}

// Dispatch applies one instruction. A nil return covers both applied
// instructions and tolerated no-ops; a non-nil return is fatal for the
// run.
func (d *Dispatcher) Dispatch(instruction protocol.Instruction) error {
	handler, ok := handlers[instruction.Opcode]
	if !ok {
		d.logger.Debug("ignoring unknown opcode", "opcode", instruction.Opcode)
		return nil
	}
	return handler(d, instruction.Args)
}

// compositeMode interprets a channel mask argument. The transcoder
// renders source (0x0C) and source-over (0x0E); every other mask
// degrades to source-over rather than failing the run.
func (d *Dispatcher) compositeMode(mask int) display.CompositeMode {
	switch display.CompositeMode(mask) {
	case display.ModeSource:
		return display.ModeSource
	case display.ModeOver:
		return display.ModeOver
	default:
		d.logger.Debug("unsupported channel mask, using source-over", "mask", mask)
		return display.ModeOver
	}
}

// Argument parsing helpers. Each returns *ArgumentError on violation.

func requireArgs(opcode string, args []string, count int) error {
	if len(args) < count {
		return &ArgumentError{
			Opcode: opcode,
			Index:  len(args),
			Reason: fmt.Sprintf("missing argument (want %d, got %d)", count, len(args)),
		}
	}
	return nil
}

func parseInt(opcode string, args []string, index int) (int, error) {
	value, err := strconv.Atoi(args[index])
	if err != nil {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: "not a valid integer"}
	}
	return value, nil
}

// parseDimension parses a width or height: non-negative and bounded.
func parseDimension(opcode string, args []string, index int) (int, error) {
	value, err := parseInt(opcode, args, index)
	if err != nil {
		return 0, err
	}
	if value < 0 {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: "negative dimension"}
	}
	if value > maxDimension {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: fmt.Sprintf("dimension exceeds %d", maxDimension)}
	}
	return value, nil
}

// parseCoordinate parses a position, offset or z-order: signed but
// bounded in magnitude.
func parseCoordinate(opcode string, args []string, index int) (int, error) {
	value, err := parseInt(opcode, args, index)
	if err != nil {
		return 0, err
	}
	if value > maxCoordinate || value < -maxCoordinate {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: "coordinate magnitude too large"}
	}
	return value, nil
}

// parseChannel parses an 8-bit color or opacity value.
func parseChannel(opcode string, args []string, index int) (uint8, error) {
	value, err := parseInt(opcode, args, index)
	if err != nil {
		return 0, err
	}
	if value < 0 || value > 0xFF {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: "value outside 0-255"}
	}
	return uint8(value), nil
}

// parseTimestamp parses a session timestamp in milliseconds.
func parseTimestamp(opcode string, args []string, index int) (int64, error) {
	value, err := strconv.ParseInt(args[index], 10, 64)
	if err != nil || value < 0 {
		return 0, &ArgumentError{Opcode: opcode, Index: index, Value: args[index], Reason: "not a valid timestamp"}
	}
	return value, nil
}
