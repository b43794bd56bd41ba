// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"image"
	"image/color"
	"image/draw"
)

// Display owns the virtual screen for one transcoding run: the layer
// arena, keyed by identifier, and the cursor state. It is created once
// per run and never shared between runs.
type Display struct {
	layers map[int]*Layer
	cursor cursorState
}

// cursorState is the pointer image composited above all content layers.
// The hotspot offsets the image so that the recorded pointer position
// is the "tip" rather than the top-left corner.
type cursorState struct {
	x, y     int
	hotspotX int
	hotspotY int
	pixels   *image.RGBA
}

// New creates an empty display. The root layer (identifier zero) exists
// immediately at 0×0; a size instruction gives it real storage.
func New() *Display {
	d := &Display{layers: make(map[int]*Layer)}
	d.layers[0] = newLayer(0)
	return d
}

// Layer returns the layer with the given identifier, materializing it
// at 0×0 on first reference.
func (d *Display) Layer(id int) *Layer {
	if layer, ok := d.layers[id]; ok {
		return layer
	}
	layer := newLayer(id)
	d.layers[id] = layer
	return layer
}

// lookup returns the layer only if it currently exists. Operations that
// degrade to a no-op on missing references (copy sources, cursor
// sources) use this instead of Layer to avoid materializing the target.
func (d *Display) lookup(id int) (*Layer, bool) {
	layer, ok := d.layers[id]
	return layer, ok
}

// Resize reallocates the identified layer's pixel storage, clearing it
// to transparent. A disposed identifier is implicitly re-created here.
func (d *Display) Resize(id, width, height int) {
	d.Layer(id).resize(width, height)
}

// SetRect stores the pending rectangle path on the identified layer.
// The next Fill against the layer consumes it.
func (d *Display) SetRect(id, x, y, width, height int) {
	layer := d.Layer(id)
	layer.pendingRect = image.Rect(x, y, x+width, y+height)
	layer.hasPendingRect = true
}

// Fill composites a solid color over the layer's pending rectangle.
// fillColor carries straight (non-premultiplied) alpha as recorded in
// the protocol; it is premultiplied here to match the pixel format.
// Without a pending rectangle this is a no-op.
func (d *Display) Fill(id int, fillColor color.NRGBA, mode CompositeMode) {
	layer := d.Layer(id)
	if !layer.hasPendingRect {
		return
	}
	premultiplied := color.RGBAModel.Convert(fillColor).(color.RGBA)
	layer.fill(layer.pendingRect, premultiplied, mode)
	layer.hasPendingRect = false
}

// DrawImage composites a decoded image onto the identified layer with
// its top-left corner at (x, y), clipping to the layer's bounds.
func (d *Display) DrawImage(id, x, y int, source image.Image, mode CompositeMode) {
	d.Layer(id).drawImage(x, y, source, mode)
}

// Copy blits sourceRect from the source layer/buffer onto the
// destination at (destinationX, destinationY). Both ends clip. A
// missing or empty source is a no-op — the destination is untouched.
// Overlapping self-copies go through an intermediate so the blit reads
// only original pixels.
func (d *Display) Copy(sourceID int, sourceRect image.Rectangle, mode CompositeMode, destinationID, destinationX, destinationY int) {
	source, ok := d.lookup(sourceID)
	if !ok || source.pixels == nil {
		return
	}
	clipped := sourceRect.Intersect(source.pixels.Bounds())
	if clipped.Empty() {
		return
	}

	var sourceImage image.Image = source.pixels
	sourcePoint := clipped.Min
	if sourceID == destinationID {
		intermediate := image.NewRGBA(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
		draw.Draw(intermediate, intermediate.Bounds(), source.pixels, clipped.Min, draw.Src)
		sourceImage = intermediate
		sourcePoint = image.Point{}
	}

	// Shift the destination origin by however much the source rect was
	// clipped, so the surviving pixels land where the full blit would
	// have put them.
	destinationX += clipped.Min.X - sourceRect.Min.X
	destinationY += clipped.Min.Y - sourceRect.Min.Y

	destination := d.Layer(destinationID)
	if destination.pixels == nil {
		return
	}
	target := image.Rect(destinationX, destinationY, destinationX+clipped.Dx(), destinationY+clipped.Dy())
	clippedTarget := target.Intersect(destination.pixels.Bounds())
	if clippedTarget.Empty() {
		return
	}
	offset := clippedTarget.Min.Sub(target.Min)
	draw.Draw(destination.pixels, clippedTarget, sourceImage, sourcePoint.Add(offset), mode.drawOp())
}

// Move sets the identified layer's parent and placement. Pixel contents
// are unaffected.
func (d *Display) Move(id, parentID, x, y, z int) {
	layer := d.Layer(id)
	layer.parent = parentID
	layer.x = x
	layer.y = y
	layer.z = z
}

// Shade sets the identified layer's opacity. Pixel contents are
// unaffected; the opacity applies at composite time.
func (d *Display) Shade(id int, opacity uint8) {
	d.Layer(id).opacity = opacity
}

// Dispose releases the identified layer's pixel storage and removes it
// from the arena. The identifier becomes available for re-creation on
// the next reference. The root layer cannot be disposed; disposing it
// is a no-op.
func (d *Display) Dispose(id int) {
	if id == 0 {
		return
	}
	delete(d.layers, id)
}

// SetCursor replaces the cursor image with a copy of sourceRect from
// the identified layer, anchored at the given hotspot. A missing or
// empty source clears the cursor.
func (d *Display) SetCursor(hotspotX, hotspotY, sourceID int, sourceRect image.Rectangle) {
	d.cursor.hotspotX = hotspotX
	d.cursor.hotspotY = hotspotY
	d.cursor.pixels = nil

	source, ok := d.lookup(sourceID)
	if !ok || source.pixels == nil {
		return
	}
	clipped := sourceRect.Intersect(source.pixels.Bounds())
	if clipped.Empty() {
		return
	}
	pixels := image.NewRGBA(image.Rect(0, 0, clipped.Dx(), clipped.Dy()))
	draw.Draw(pixels, pixels.Bounds(), source.pixels, clipped.Min, draw.Src)
	d.cursor.pixels = pixels
}

// MoveCursor updates the recorded pointer position.
func (d *Display) MoveCursor(x, y int) {
	d.cursor.x = x
	d.cursor.y = y
}
