// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"image"
	"image/color"
	"image/draw"
)

// CompositeMode selects how source pixels combine with destination
// pixels. The values are the channel masks from the instruction
// protocol; only the two the transcoder renders are named. Unrenderable
// masks are normalized to ModeOver by the dispatcher before they reach
// the display.
type CompositeMode uint8

const (
	// ModeSource replaces destination pixels with source pixels,
	// including alpha.
	ModeSource CompositeMode = 0x0C

	// ModeOver alpha-blends source pixels onto destination pixels
	// (Porter-Duff source-over). This is the default drawing mode.
	ModeOver CompositeMode = 0x0E
)

// drawOp maps a composite mode to the stdlib draw operator.
func (mode CompositeMode) drawOp() draw.Op {
	if mode == ModeSource {
		return draw.Src
	}
	return draw.Over
}

// opaque is the default layer opacity.
const opaque = 0xFF

// Layer is one raster surface: pixel contents plus the placement and
// compositing attributes the composite traversal reads. Pixel data is
// premultiplied RGBA (image.RGBA's native representation).
type Layer struct {
	id int

	// pixels is nil while the layer is 0×0 (implicit creation, or an
	// explicit zero-size resize that released the backing storage).
	pixels *image.RGBA

	// x and y position the layer relative to its parent.
	x, y int

	// parent is the identifier of the containing layer. Composite
	// traversal is depth-first through this relation starting at the
	// root.
	parent int

	// z orders the layer among its siblings; higher renders later
	// (on top). Ties break by ascending identifier.
	z int

	// opacity scales the whole layer during compositing. 255 is fully
	// opaque. Nested layers multiply their ancestors' opacity.
	opacity uint8

	// pendingRect is the rectangle path set by the most recent rect
	// operation, consumed by the next fill.
	pendingRect    image.Rectangle
	hasPendingRect bool
}

func newLayer(id int) *Layer {
	return &Layer{id: id, opacity: opaque}
}

// Size returns the layer's current dimensions.
func (layer *Layer) Size() (width, height int) {
	if layer.pixels == nil {
		return 0, 0
	}
	bounds := layer.pixels.Bounds()
	return bounds.Dx(), bounds.Dy()
}

// bounds returns the layer's pixel rectangle, or the empty rectangle
// for a 0×0 layer.
func (layer *Layer) bounds() image.Rectangle {
	if layer.pixels == nil {
		return image.Rectangle{}
	}
	return layer.pixels.Bounds()
}

// resize reallocates the layer's pixel storage. New storage is fully
// transparent; surviving content is not preserved across a resize
// (matching the recorded protocol, where a size change always precedes
// a full repaint). Zero or negative dimensions release the storage and
// leave the identifier valid for a future resize.
func (layer *Layer) resize(width, height int) {
	if width <= 0 || height <= 0 {
		layer.pixels = nil
		return
	}
	layer.pixels = image.NewRGBA(image.Rect(0, 0, width, height))
}

// fill composites a solid color over rect, clipped to the layer.
func (layer *Layer) fill(rect image.Rectangle, fillColor color.RGBA, mode CompositeMode) {
	if layer.pixels == nil {
		return
	}
	target := rect.Intersect(layer.pixels.Bounds())
	if target.Empty() {
		return
	}
	draw.Draw(layer.pixels, target, image.NewUniform(fillColor), image.Point{}, mode.drawOp())
}

// drawImage composites source onto the layer with its top-left corner
// at (x, y), clipped to the layer. The source read point shifts by the
// same amount clipping moved the target, so the surviving pixels are
// the correctly aligned portion of the image.
func (layer *Layer) drawImage(x, y int, source image.Image, mode CompositeMode) {
	if layer.pixels == nil {
		return
	}
	sourceBounds := source.Bounds()
	target := image.Rect(x, y, x+sourceBounds.Dx(), y+sourceBounds.Dy())
	clipped := target.Intersect(layer.pixels.Bounds())
	if clipped.Empty() {
		return
	}
	sourcePoint := sourceBounds.Min.Add(clipped.Min.Sub(target.Min))
	draw.Draw(layer.pixels, clipped, source, sourcePoint, mode.drawOp())
}
