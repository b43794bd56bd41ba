// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package display

import (
	"image"
	"image/color"
	"image/draw"
	"sort"
)

// Composite produces the full raster for the current display state:
// the root layer's pixels, every visible descendant layer blended in
// stacking order, and the cursor last, above all content, unaffected
// by layer opacity rules.
//
// Traversal is depth-first through the parent relation; siblings render
// in ascending z, ties broken by ascending identifier. A child's
// opacity multiplies its ancestors' opacity. Off-screen buffers
// (negative identifiers) never render.
//
// Composite is a pure function of the display state. It returns a
// freshly allocated image on every call, or nil while the root layer
// has no storage (no size instruction has arrived yet).
func (d *Display) Composite() *image.RGBA {
	root := d.layers[0]
	if root.pixels == nil {
		return nil
	}

	output := image.NewRGBA(root.pixels.Bounds())
	draw.Draw(output, output.Bounds(), root.pixels, image.Point{}, draw.Src)

	d.compositeChildren(output, 0, 0, 0, opaque)
	d.compositeCursor(output)
	return output
}

// compositeChildren renders the visible children of parentID onto
// output. absoluteX/absoluteY are the parent's accumulated screen
// offset; ancestorOpacity is the product of opacities on the path from
// the root.
func (d *Display) compositeChildren(output *image.RGBA, parentID, absoluteX, absoluteY int, ancestorOpacity uint8) {
	children := d.childrenOf(parentID)
	for _, child := range children {
		childX := absoluteX + child.x
		childY := absoluteY + child.y
		effectiveOpacity := uint8(uint32(ancestorOpacity) * uint32(child.opacity) / opaque)

		if child.pixels != nil && effectiveOpacity > 0 {
			bounds := child.pixels.Bounds()
			target := image.Rect(childX, childY, childX+bounds.Dx(), childY+bounds.Dy())
			target = target.Intersect(output.Bounds())
			if !target.Empty() {
				sourcePoint := bounds.Min.Add(target.Min.Sub(image.Pt(childX, childY)))
				if effectiveOpacity == opaque {
					draw.Draw(output, target, child.pixels, sourcePoint, draw.Over)
				} else {
					mask := image.NewUniform(color.Alpha{A: effectiveOpacity})
					draw.DrawMask(output, target, child.pixels, sourcePoint, mask, image.Point{}, draw.Over)
				}
			}
		}

		d.compositeChildren(output, child.id, childX, childY, effectiveOpacity)
	}
}

// childrenOf returns the visible layers parented to parentID in render
// order. Only strictly positive identifiers can be children: the root
// is never a child of anything, and buffers never render.
func (d *Display) childrenOf(parentID int) []*Layer {
	var children []*Layer
	for id, layer := range d.layers {
		if id <= 0 || layer.parent != parentID {
			continue
		}
		children = append(children, layer)
	}
	sort.Slice(children, func(i, j int) bool {
		if children[i].z != children[j].z {
			return children[i].z < children[j].z
		}
		return children[i].id < children[j].id
	})
	return children
}

// compositeCursor blends the cursor image topmost, offset by its
// hotspot, clipped to the output.
func (d *Display) compositeCursor(output *image.RGBA) {
	if d.cursor.pixels == nil {
		return
	}
	bounds := d.cursor.pixels.Bounds()
	x := d.cursor.x - d.cursor.hotspotX
	y := d.cursor.y - d.cursor.hotspotY
	target := image.Rect(x, y, x+bounds.Dx(), y+bounds.Dy()).Intersect(output.Bounds())
	if target.Empty() {
		return
	}
	sourcePoint := bounds.Min.Add(target.Min.Sub(image.Pt(x, y)))
	draw.Draw(output, target, d.cursor.pixels, sourcePoint, draw.Over)
}
