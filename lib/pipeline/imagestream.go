// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"

	// Registered decoders for the image formats recordings carry.
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/reel-foundation/reel/lib/display"
)

// imageStream accumulates a chunked image transfer. An img instruction
// opens the stream, blob instructions append base64-decoded chunks, and
// end decodes the assembled payload and draws it.
type imageStream struct {
	mode     display.CompositeMode
	layerID  int
	x, y     int
	mimetype string
	data     []byte
}

func (d *Dispatcher) handleImg(args []string) error {
	if err := requireArgs("img", args, 6); err != nil {
		return err
	}
	streamID, err := parseInt("img", args, 0)
	if err != nil {
		return err
	}
	mask, err := parseInt("img", args, 1)
	if err != nil {
		return err
	}
	layerID, err := parseInt("img", args, 2)
	if err != nil {
		return err
	}
	mimetype := args[3]
	x, err := parseCoordinate("img", args, 4)
	if err != nil {
		return err
	}
	y, err := parseCoordinate("img", args, 5)
	if err != nil {
		return err
	}
	// Re-opening an identifier abandons any half-transferred stream on
	// it; the recording side never interleaves two transfers on one id.
	d.streams[streamID] = &imageStream{
		mode:     d.compositeMode(mask),
		layerID:  layerID,
		x:        x,
		y:        y,
		mimetype: mimetype,
	}
	return nil
}

func (d *Dispatcher) handleBlob(args []string) error {
	if err := requireArgs("blob", args, 2); err != nil {
		return err
	}
	streamID, err := parseInt("blob", args, 0)
	if err != nil {
		return err
	}
	stream, ok := d.streams[streamID]
	if !ok {
		// Blobs also carry non-image streams (audio, clipboard) whose
		// opening instructions we never handle.
		d.logger.Debug("blob for unknown stream, ignoring", "stream", streamID)
		return nil
	}
	chunk, err := base64.StdEncoding.DecodeString(args[1])
	if err != nil {
		return &ArgumentError{Opcode: "blob", Index: 1, Value: args[1], Reason: "invalid base64 payload"}
	}
	stream.data = append(stream.data, chunk...)
	return nil
}

func (d *Dispatcher) handleEnd(args []string) error {
	if err := requireArgs("end", args, 1); err != nil {
		return err
	}
	streamID, err := parseInt("end", args, 0)
	if err != nil {
		return err
	}
	stream, ok := d.streams[streamID]
	if !ok {
		d.logger.Debug("end for unknown stream, ignoring", "stream", streamID)
		return nil
	}
	delete(d.streams, streamID)

	decoded, format, err := image.Decode(bytes.NewReader(stream.data))
	if err != nil {
		return fmt.Errorf("pipeline: decoding %q stream %d (%d bytes): %w",
			stream.mimetype, streamID, len(stream.data), err)
	}
	d.logger.Debug("drawing image stream",
		"stream", streamID, "format", format, "layer", stream.layerID,
		"x", stream.x, "y", stream.y)
	d.display.DrawImage(stream.layerID, stream.x, stream.y, decoded, stream.mode)
	d.scheduler.MarkDirty()
	return nil
}

// handlePNG implements the legacy single-instruction image draw: the
// whole base64 PNG rides in the final argument instead of a stream.
func (d *Dispatcher) handlePNG(args []string) error {
	if err := requireArgs("png", args, 5); err != nil {
		return err
	}
	mask, err := parseInt("png", args, 0)
	if err != nil {
		return err
	}
	layerID, err := parseInt("png", args, 1)
	if err != nil {
		return err
	}
	x, err := parseCoordinate("png", args, 2)
	if err != nil {
		return err
	}
	y, err := parseCoordinate("png", args, 3)
	if err != nil {
		return err
	}
	payload, err := base64.StdEncoding.DecodeString(args[4])
	if err != nil {
		return &ArgumentError{Opcode: "png", Index: 4, Value: args[4], Reason: "invalid base64 payload"}
	}
	decoded, _, err := image.Decode(bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("pipeline: decoding inline png (%d bytes): %w", len(payload), err)
	}
	d.display.DrawImage(layerID, x, y, decoded, d.compositeMode(mask))
	d.scheduler.MarkDirty()
	return nil
}
