// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"image"
	"image/color"

	"github.com/reel-foundation/reel/lib/display"
)

func (d *Dispatcher) handleSize(args []string) error {
	if err := requireArgs("size", args, 3); err != nil {
		return err
	}
	layerID, err := parseInt("size", args, 0)
	if err != nil {
		return err
	}
	width, err := parseDimension("size", args, 1)
	if err != nil {
		return err
	}
	height, err := parseDimension("size", args, 2)
	if err != nil {
		return err
	}
	d.display.Resize(layerID, width, height)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleRect(args []string) error {
	if err := requireArgs("rect", args, 5); err != nil {
		return err
	}
	layerID, err := parseInt("rect", args, 0)
	if err != nil {
		return err
	}
	x, err := parseCoordinate("rect", args, 1)
	if err != nil {
		return err
	}
	y, err := parseCoordinate("rect", args, 2)
	if err != nil {
		return err
	}
	width, err := parseDimension("rect", args, 3)
	if err != nil {
		return err
	}
	height, err := parseDimension("rect", args, 4)
	if err != nil {
		return err
	}
	// Setting the path has no pixel effect; the following fill does.
	d.display.SetRect(layerID, x, y, width, height)
	return nil
}

func (d *Dispatcher) handleCFill(args []string) error {
	if err := requireArgs("cfill", args, 6); err != nil {
		return err
	}
	mask, err := parseInt("cfill", args, 0)
	if err != nil {
		return err
	}
	layerID, err := parseInt("cfill", args, 1)
	if err != nil {
		return err
	}
	red, err := parseChannel("cfill", args, 2)
	if err != nil {
		return err
	}
	green, err := parseChannel("cfill", args, 3)
	if err != nil {
		return err
	}
	blue, err := parseChannel("cfill", args, 4)
	if err != nil {
		return err
	}
	alpha, err := parseChannel("cfill", args, 5)
	if err != nil {
		return err
	}
	d.display.Fill(layerID, color.NRGBA{R: red, G: green, B: blue, A: alpha}, d.compositeMode(mask))
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleCopy(args []string) error {
	if err := requireArgs("copy", args, 9); err != nil {
		return err
	}
	sourceID, err := parseInt("copy", args, 0)
	if err != nil {
		return err
	}
	sourceX, err := parseCoordinate("copy", args, 1)
	if err != nil {
		return err
	}
	sourceY, err := parseCoordinate("copy", args, 2)
	if err != nil {
		return err
	}
	width, err := parseDimension("copy", args, 3)
	if err != nil {
		return err
	}
	height, err := parseDimension("copy", args, 4)
	if err != nil {
		return err
	}
	mask, err := parseInt("copy", args, 5)
	if err != nil {
		return err
	}
	destinationID, err := parseInt("copy", args, 6)
	if err != nil {
		return err
	}
	destinationX, err := parseCoordinate("copy", args, 7)
	if err != nil {
		return err
	}
	destinationY, err := parseCoordinate("copy", args, 8)
	if err != nil {
		return err
	}
	sourceRect := image.Rect(sourceX, sourceY, sourceX+width, sourceY+height)
	d.display.Copy(sourceID, sourceRect, d.compositeMode(mask), destinationID, destinationX, destinationY)
	d.scheduler.MarkDirty()
	return nil
}

// transferFunctionSource is the only transfer function the transcoder
// applies (a plain source copy). The protocol defines a full binary
// transfer-function table, but recordings in practice only ever carry
// SRC; the rest degrade to logged no-ops.
const transferFunctionSource = 0x3

func (d *Dispatcher) handleTransfer(args []string) error {
	if err := requireArgs("transfer", args, 9); err != nil {
		return err
	}
	sourceID, err := parseInt("transfer", args, 0)
	if err != nil {
		return err
	}
	sourceX, err := parseCoordinate("transfer", args, 1)
	if err != nil {
		return err
	}
	sourceY, err := parseCoordinate("transfer", args, 2)
	if err != nil {
		return err
	}
	width, err := parseDimension("transfer", args, 3)
	if err != nil {
		return err
	}
	height, err := parseDimension("transfer", args, 4)
	if err != nil {
		return err
	}
	function, err := parseInt("transfer", args, 5)
	if err != nil {
		return err
	}
	destinationID, err := parseInt("transfer", args, 6)
	if err != nil {
		return err
	}
	destinationX, err := parseCoordinate("transfer", args, 7)
	if err != nil {
		return err
	}
	destinationY, err := parseCoordinate("transfer", args, 8)
	if err != nil {
		return err
	}
	if function != transferFunctionSource {
		d.logger.Debug("unsupported transfer function, skipping", "function", function)
		return nil
	}
	sourceRect := image.Rect(sourceX, sourceY, sourceX+width, sourceY+height)
	d.display.Copy(sourceID, sourceRect, display.ModeSource, destinationID, destinationX, destinationY)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleMove(args []string) error {
	if err := requireArgs("move", args, 5); err != nil {
		return err
	}
	layerID, err := parseInt("move", args, 0)
	if err != nil {
		return err
	}
	parentID, err := parseInt("move", args, 1)
	if err != nil {
		return err
	}
	x, err := parseCoordinate("move", args, 2)
	if err != nil {
		return err
	}
	y, err := parseCoordinate("move", args, 3)
	if err != nil {
		return err
	}
	z, err := parseCoordinate("move", args, 4)
	if err != nil {
		return err
	}
	d.display.Move(layerID, parentID, x, y, z)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleShade(args []string) error {
	if err := requireArgs("shade", args, 2); err != nil {
		return err
	}
	layerID, err := parseInt("shade", args, 0)
	if err != nil {
		return err
	}
	opacity, err := parseChannel("shade", args, 1)
	if err != nil {
		return err
	}
	d.display.Shade(layerID, opacity)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleDispose(args []string) error {
	if err := requireArgs("dispose", args, 1); err != nil {
		return err
	}
	layerID, err := parseInt("dispose", args, 0)
	if err != nil {
		return err
	}
	d.display.Dispose(layerID)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleCursor(args []string) error {
	if err := requireArgs("cursor", args, 7); err != nil {
		return err
	}
	hotspotX, err := parseCoordinate("cursor", args, 0)
	if err != nil {
		return err
	}
	hotspotY, err := parseCoordinate("cursor", args, 1)
	if err != nil {
		return err
	}
	sourceID, err := parseInt("cursor", args, 2)
	if err != nil {
		return err
	}
	sourceX, err := parseCoordinate("cursor", args, 3)
	if err != nil {
		return err
	}
	sourceY, err := parseCoordinate("cursor", args, 4)
	if err != nil {
		return err
	}
	width, err := parseDimension("cursor", args, 5)
	if err != nil {
		return err
	}
	height, err := parseDimension("cursor", args, 6)
	if err != nil {
		return err
	}
	sourceRect := image.Rect(sourceX, sourceY, sourceX+width, sourceY+height)
	d.display.SetCursor(hotspotX, hotspotY, sourceID, sourceRect)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleMouse(args []string) error {
	// Recordings append button state and a timestamp after the
	// coordinates; only the position matters for rendering.
	if err := requireArgs("mouse", args, 2); err != nil {
		return err
	}
	x, err := parseCoordinate("mouse", args, 0)
	if err != nil {
		return err
	}
	y, err := parseCoordinate("mouse", args, 1)
	if err != nil {
		return err
	}
	d.display.MoveCursor(x, y)
	d.scheduler.MarkDirty()
	return nil
}

func (d *Dispatcher) handleSync(args []string) error {
	// Newer dialects append a frame counter after the timestamp;
	// extra arguments are ignored for forward compatibility.
	if err := requireArgs("sync", args, 1); err != nil {
		return err
	}
	timestamp, err := parseTimestamp("sync", args, 0)
	if err != nil {
		return err
	}
	return d.scheduler.Sync(timestamp)
}
