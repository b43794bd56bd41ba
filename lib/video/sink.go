// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package video

import (
	"fmt"
	"image"
	"time"

	xdraw "golang.org/x/image/draw"
)

// FrameSink consumes composited frames in presentation order. Push may
// retain nothing: the caller is free to reuse or mutate the frame after
// Push returns. Close flushes any internally buffered frames and
// finalizes the output; a Close failure still leaves whatever was
// already written on disk — callers must not assume atomicity.
type FrameSink interface {
	Push(frame *image.RGBA, pts time.Duration) error
	Close() error
}

// FitPolicy selects how a source frame maps onto output dimensions
// with a different aspect ratio.
type FitPolicy string

const (
	// FitLetterbox scales the source to the largest centered rectangle
	// that preserves its aspect ratio, leaving black bars on the
	// remaining axis. This is the default.
	FitLetterbox FitPolicy = "letterbox"

	// FitStretch scales the source to fill the output exactly,
	// distorting when aspect ratios differ.
	FitStretch FitPolicy = "stretch"
)

// ParseFitPolicy validates a fit policy name from configuration.
func ParseFitPolicy(name string) (FitPolicy, error) {
	switch FitPolicy(name) {
	case FitLetterbox:
		return FitLetterbox, nil
	case FitStretch:
		return FitStretch, nil
	default:
		return "", fmt.Errorf("unknown fit policy %q (want %q or %q)", name, FitLetterbox, FitStretch)
	}
}

// FitRect returns the destination rectangle within an output of
// outputWidth×outputHeight that a source of sourceWidth×sourceHeight
// scales into under the given policy.
func FitRect(sourceWidth, sourceHeight, outputWidth, outputHeight int, policy FitPolicy) image.Rectangle {
	if policy == FitStretch || sourceWidth <= 0 || sourceHeight <= 0 {
		return image.Rect(0, 0, outputWidth, outputHeight)
	}

	// Compare aspect ratios without floating point:
	// source wider ⇔ sourceWidth·outputHeight > outputWidth·sourceHeight.
	if sourceWidth*outputHeight > outputWidth*sourceHeight {
		scaledHeight := outputWidth * sourceHeight / sourceWidth
		top := (outputHeight - scaledHeight) / 2
		return image.Rect(0, top, outputWidth, top+scaledHeight)
	}
	scaledWidth := outputHeight * sourceWidth / sourceHeight
	left := (outputWidth - scaledWidth) / 2
	return image.Rect(left, 0, left+scaledWidth, outputHeight)
}

// Scaler converts composited frames to fixed output dimensions,
// applying the configured fit policy. It reuses one output allocation
// across frames; the returned image is valid until the next Scale call.
type Scaler struct {
	width  int
	height int
	policy FitPolicy
	output *image.RGBA
}

// NewScaler creates a scaler producing width×height frames.
func NewScaler(width, height int, policy FitPolicy) *Scaler {
	return &Scaler{
		width:  width,
		height: height,
		policy: policy,
		output: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// Scale maps source onto the output dimensions. Letterbox bars are
// opaque black. A source already at the output dimensions is returned
// as-is without copying.
func (s *Scaler) Scale(source *image.RGBA) *image.RGBA {
	bounds := source.Bounds()
	if bounds.Dx() == s.width && bounds.Dy() == s.height {
		return source
	}

	// Reset to opaque black; the scaled content may not cover the
	// whole output.
	for index := range s.output.Pix {
		if index%4 == 3 {
			s.output.Pix[index] = 0xFF
		} else {
			s.output.Pix[index] = 0x00
		}
	}

	target := FitRect(bounds.Dx(), bounds.Dy(), s.width, s.height, s.policy)
	if !target.Empty() {
		xdraw.ApproxBiLinear.Scale(s.output, target, source, bounds, xdraw.Over, nil)
	}
	return s.output
}
