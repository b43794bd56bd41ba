// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package video

import (
	"image"
	"image/color"
	"testing"
)

func TestFitRect(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name                      string
		sourceWidth, sourceHeight int
		outputWidth, outputHeight int
		policy                    FitPolicy
		want                      image.Rectangle
	}{
		{
			name:        "equal aspect fills output",
			sourceWidth: 320, sourceHeight: 240,
			outputWidth: 640, outputHeight: 480,
			policy: FitLetterbox,
			want:   image.Rect(0, 0, 640, 480),
		},
		{
			name:        "wider source gets horizontal bars",
			sourceWidth: 1280, sourceHeight: 480,
			outputWidth: 640, outputHeight: 480,
			policy: FitLetterbox,
			want:   image.Rect(0, 120, 640, 360),
		},
		{
			name:        "taller source gets vertical bars",
			sourceWidth: 480, sourceHeight: 960,
			outputWidth: 640, outputHeight: 480,
			policy: FitLetterbox,
			want:   image.Rect(200, 0, 440, 480),
		},
		{
			name:        "stretch ignores aspect",
			sourceWidth: 1280, sourceHeight: 480,
			outputWidth: 640, outputHeight: 480,
			policy: FitStretch,
			want:   image.Rect(0, 0, 640, 480),
		},
		{
			name:        "degenerate source falls back to full output",
			sourceWidth: 0, sourceHeight: 0,
			outputWidth: 640, outputHeight: 480,
			policy: FitLetterbox,
			want:   image.Rect(0, 0, 640, 480),
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			got := FitRect(test.sourceWidth, test.sourceHeight, test.outputWidth, test.outputHeight, test.policy)
			if got != test.want {
				t.Errorf("FitRect: got %v, want %v", got, test.want)
			}
		})
	}
}

func TestParseFitPolicy(t *testing.T) {
	t.Parallel()
	if policy, err := ParseFitPolicy("letterbox"); err != nil || policy != FitLetterbox {
		t.Errorf("letterbox: got (%v, %v)", policy, err)
	}
	if policy, err := ParseFitPolicy("stretch"); err != nil || policy != FitStretch {
		t.Errorf("stretch: got (%v, %v)", policy, err)
	}
	if _, err := ParseFitPolicy("pillarbox"); err == nil {
		t.Error("unknown policy: expected error")
	}
}

func TestScalePassThroughAtOutputSize(t *testing.T) {
	t.Parallel()
	scaler := NewScaler(4, 4, FitLetterbox)
	source := image.NewRGBA(image.Rect(0, 0, 4, 4))
	if got := scaler.Scale(source); got != source {
		t.Error("source at output dimensions was copied instead of passed through")
	}
}

func TestScaleLetterboxBarsAreBlack(t *testing.T) {
	t.Parallel()
	scaler := NewScaler(8, 8, FitLetterbox)

	// A 8×4 all-white source letterboxed into 8×8: rows 0-1 and 6-7
	// are bars.
	source := image.NewRGBA(image.Rect(0, 0, 8, 4))
	for index := range source.Pix {
		source.Pix[index] = 0xFF
	}

	output := scaler.Scale(source)
	black := color.RGBA{A: 0xFF}
	if got := output.RGBAAt(4, 0); got != black {
		t.Errorf("top bar pixel: got %v, want opaque black", got)
	}
	if got := output.RGBAAt(4, 7); got != black {
		t.Errorf("bottom bar pixel: got %v, want opaque black", got)
	}
	if got := output.RGBAAt(4, 4); got.R != 0xFF {
		t.Errorf("content pixel: got %v, want white", got)
	}
}

func TestScaleStretchCoversOutput(t *testing.T) {
	t.Parallel()
	scaler := NewScaler(8, 8, FitStretch)
	source := image.NewRGBA(image.Rect(0, 0, 2, 8))
	for index := range source.Pix {
		source.Pix[index] = 0xFF
	}

	output := scaler.Scale(source)
	for _, x := range []int{0, 4, 7} {
		if got := output.RGBAAt(x, 4); got.R != 0xFF {
			t.Errorf("stretched pixel at x=%d: got %v, want white", x, got)
		}
	}
}
