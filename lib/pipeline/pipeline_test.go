// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package pipeline

import (
	"bytes"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/reel-foundation/reel/lib/protocol"
)

// captureSink records every pushed frame so tests can assert on the
// emitted timeline and pixels. Frames are cloned because the scheduler
// reuses one composite across a duplicate burst.
type captureSink struct {
	frames []capturedFrame
	closed bool
}

type capturedFrame struct {
	pts    time.Duration
	pixels *image.RGBA
}

func (s *captureSink) Push(frame *image.RGBA, pts time.Duration) error {
	clone := image.NewRGBA(frame.Bounds())
	copy(clone.Pix, frame.Pix)
	s.frames = append(s.frames, capturedFrame{pts: pts, pixels: clone})
	return nil
}

func (s *captureSink) Close() error {
	s.closed = true
	return nil
}

func (s *captureSink) timestamps() []time.Duration {
	timestamps := make([]time.Duration, len(s.frames))
	for index, frame := range s.frames {
		timestamps[index] = frame.pts
	}
	return timestamps
}

// recording renders instructions to wire format.
func recording(instructions ...protocol.Instruction) string {
	var builder strings.Builder
	for _, instruction := range instructions {
		builder.WriteString(instruction.String())
	}
	return builder.String()
}

func instruction(opcode string, args ...string) protocol.Instruction {
	return protocol.Instruction{Opcode: opcode, Args: args}
}

// transcode runs a recording through a fresh 25 fps pipeline (40 ms
// frame interval) and returns the captured sink.
func transcode(t *testing.T, source string) (*captureSink, error) {
	t.Helper()
	sink := &captureSink{}
	pipeline := New(sink, Config{FrameRate: 25})
	err := pipeline.Run(strings.NewReader(source))
	return sink, err
}

func equalTimestamps(got, want []time.Duration) bool {
	if len(got) != len(want) {
		return false
	}
	for index := range got {
		if got[index] != want[index] {
			return false
		}
	}
	return true
}

func TestRegularSyncsEmitOneFramePerInterval(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "0"),
		instruction("sync", "40"),
		instruction("sync", "80"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Errorf("timestamps: got %v, want %v", got, want)
	}
}

func TestGapDuplicatesMostRecentFrame(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("rect", "0", "0", "0", "4", "4"),
		instruction("cfill", "14", "0", "255", "0", "0", "255"),
		instruction("sync", "0"),
		instruction("sync", "200"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}

	want := []time.Duration{
		0,
		40 * time.Millisecond, 80 * time.Millisecond, 120 * time.Millisecond,
		160 * time.Millisecond, 200 * time.Millisecond,
	}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Fatalf("timestamps: got %v, want %v", got, want)
	}
	for index := 1; index < len(sink.frames); index++ {
		if !bytes.Equal(sink.frames[index].pixels.Pix, sink.frames[0].pixels.Pix) {
			t.Errorf("frame %d differs from frame 0; duplicates must be identical", index)
		}
	}
	if got := sink.frames[0].pixels.RGBAAt(2, 2); got != (color.RGBA{R: 0xFF, A: 0xFF}) {
		t.Errorf("filled pixel: got %v, want opaque red", got)
	}
}

func TestAbsoluteTimestampsRebaseToFirstSync(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "1700000000000"),
		instruction("sync", "1700000000080"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Errorf("timestamps: got %v, want %v", got, want)
	}
}

func TestBackwardTimestampClampsWithoutRegressing(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "0"),
		instruction("sync", "100"),
		instruction("sync", "60"),
		instruction("sync", "140"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond, 120 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Errorf("timestamps: got %v, want %v", got, want)
	}
}

func TestZeroFrameRateFallsBackToDefault(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "0"),
		instruction("sync", "80"),
	)
	sink := &captureSink{}
	pipeline := New(sink, Config{}) // zero FrameRate: default 25 fps
	if err := pipeline.Run(strings.NewReader(source)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{0, 40 * time.Millisecond, 80 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Errorf("timestamps: got %v, want %v", got, want)
	}
}

func TestUnknownOpcodeIsIgnored(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("hologram", "1", "2", "3"),
		instruction("sync", "0"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Errorf("frames: got %d, want 1", len(sink.frames))
	}
}

func TestInvalidArgumentsAbortTheRun(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		source string
	}{
		{
			name:   "non-numeric dimension",
			source: recording(instruction("size", "0", "abc", "4")),
		},
		{
			name:   "negative dimension",
			source: recording(instruction("size", "0", "-1", "4")),
		},
		{
			name:   "missing arguments",
			source: recording(instruction("cfill", "14", "0")),
		},
		{
			name:   "negative timestamp",
			source: recording(instruction("sync", "-5")),
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			t.Parallel()
			_, err := transcode(t, test.source)
			var argumentErr *ArgumentError
			if !errors.As(err, &argumentErr) {
				t.Errorf("Run: got %v, want *ArgumentError", err)
			}
		})
	}
}

func TestMalformedFramingAbortsTheRun(t *testing.T) {
	t.Parallel()
	_, err := transcode(t, "4.size,1.0,x.4,1.4;")
	var malformedErr *protocol.MalformedError
	if !errors.As(err, &malformedErr) {
		t.Errorf("Run: got %v, want *MalformedError", err)
	}
}

func TestTruncatedRecordingAbortsTheRun(t *testing.T) {
	t.Parallel()
	_, err := transcode(t, "4.size,1.0,1.4")
	var malformedErr *protocol.MalformedError
	if !errors.As(err, &malformedErr) {
		t.Errorf("Run: got %v, want *MalformedError", err)
	}
}

func TestTrailingMutationEmitsFinalFrame(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "0"),
		instruction("rect", "0", "0", "0", "4", "4"),
		instruction("cfill", "14", "0", "0", "255", "0", "255"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []time.Duration{0, 40 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Fatalf("timestamps: got %v, want %v", got, want)
	}
	if got := sink.frames[1].pixels.RGBAAt(2, 2); got != (color.RGBA{G: 0xFF, A: 0xFF}) {
		t.Errorf("final frame pixel: got %v, want opaque green", got)
	}
}

func TestCleanQuietTailEmitsNothingExtra(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("sync", "0"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Errorf("frames: got %d, want 1 (no trailing frame without mutation)", len(sink.frames))
	}
}

func TestSyncBeforeSizeAdvancesWithoutFrames(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("sync", "0"),
		instruction("sync", "40"),
		instruction("size", "0", "4", "4"),
		instruction("sync", "80"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	// The first two syncs have no storage to composite; only the third
	// produces a frame, at its position in the timeline.
	want := []time.Duration{80 * time.Millisecond}
	if got := sink.timestamps(); !equalTimestamps(got, want) {
		t.Errorf("timestamps: got %v, want %v", got, want)
	}
}

// encodePNG renders a solid image to base64 PNG for image-stream tests.
func encodePNG(t *testing.T, width, height int, fill color.RGBA) string {
	t.Helper()
	source := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			source.SetRGBA(x, y, fill)
		}
	}
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, source); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buffer.Bytes())
}

func TestImageStreamMatchesLegacyInlineDraw(t *testing.T) {
	t.Parallel()
	payload := encodePNG(t, 2, 2, color.RGBA{B: 0xFF, A: 0xFF})

	// Split the payload across two blobs to exercise accumulation.
	half := len(payload) / 2
	// Base64 decodes in 4-byte quanta; keep the split aligned.
	half -= half % 4

	streamed := recording(
		instruction("size", "0", "4", "4"),
		instruction("img", "1", "14", "0", "image/png", "1", "1"),
		instruction("blob", "1", payload[:half]),
		instruction("blob", "1", payload[half:]),
		instruction("end", "1"),
		instruction("sync", "0"),
	)
	inline := recording(
		instruction("size", "0", "4", "4"),
		instruction("png", "14", "0", "1", "1", payload),
		instruction("sync", "0"),
	)

	streamedSink, err := transcode(t, streamed)
	if err != nil {
		t.Fatalf("streamed Run: %v", err)
	}
	inlineSink, err := transcode(t, inline)
	if err != nil {
		t.Fatalf("inline Run: %v", err)
	}

	if len(streamedSink.frames) != 1 || len(inlineSink.frames) != 1 {
		t.Fatalf("frames: got %d streamed, %d inline, want 1 each",
			len(streamedSink.frames), len(inlineSink.frames))
	}
	if !bytes.Equal(streamedSink.frames[0].pixels.Pix, inlineSink.frames[0].pixels.Pix) {
		t.Error("streamed and inline draws produced different pixels")
	}
	if got := streamedSink.frames[0].pixels.RGBAAt(1, 1); got != (color.RGBA{B: 0xFF, A: 0xFF}) {
		t.Errorf("drawn pixel: got %v, want opaque blue", got)
	}
	if got := streamedSink.frames[0].pixels.RGBAAt(3, 3); got != (color.RGBA{}) {
		t.Errorf("undrawn pixel: got %v, want untouched transparent", got)
	}
}

func TestInlineDrawClipsAtNegativePosition(t *testing.T) {
	t.Parallel()

	// 2×2 image with distinct corners: red top-left, green bottom-right.
	corner := image.NewRGBA(image.Rect(0, 0, 2, 2))
	corner.SetRGBA(0, 0, color.RGBA{R: 0xFF, A: 0xFF})
	corner.SetRGBA(1, 1, color.RGBA{G: 0xFF, A: 0xFF})
	var buffer bytes.Buffer
	if err := png.Encode(&buffer, corner); err != nil {
		t.Fatalf("encoding test png: %v", err)
	}
	payload := base64.StdEncoding.EncodeToString(buffer.Bytes())

	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("png", "14", "0", "-1", "-1", payload),
		instruction("sync", "0"),
	)
	sink, err := transcode(t, source)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("frames: got %d, want 1", len(sink.frames))
	}

	// Only the image's bottom-right pixel lands on the layer, at (0,0).
	frame := sink.frames[0].pixels
	if got := frame.RGBAAt(0, 0); got != (color.RGBA{G: 0xFF, A: 0xFF}) {
		t.Errorf("pixel (0,0): got %v, want image bottom-right (green)", got)
	}
	if got := frame.RGBAAt(1, 1); got != (color.RGBA{}) {
		t.Errorf("pixel (1,1): got %v, want untouched", got)
	}
}

func TestBlobForUnknownStreamIsIgnored(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("blob", "7", base64.StdEncoding.EncodeToString([]byte("audio"))),
		instruction("end", "7"),
		instruction("sync", "0"),
	)
	if _, err := transcode(t, source); err != nil {
		t.Fatalf("Run: %v", err)
	}
}

func TestCorruptImagePayloadAbortsTheRun(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("img", "1", "14", "0", "image/png", "0", "0"),
		instruction("blob", "1", base64.StdEncoding.EncodeToString([]byte("not a png"))),
		instruction("end", "1"),
	)
	if _, err := transcode(t, source); err == nil {
		t.Error("Run: expected decode error for corrupt payload")
	}
}

func TestSplitReadsAcrossInstructionBoundaries(t *testing.T) {
	t.Parallel()
	source := recording(
		instruction("size", "0", "4", "4"),
		instruction("rect", "0", "0", "0", "4", "4"),
		instruction("cfill", "14", "0", "255", "255", "255", "255"),
		instruction("sync", "0"),
	)
	sink := &captureSink{}
	pipeline := New(sink, Config{FrameRate: 25})
	// One byte at a time: every instruction arrives fragmented.
	if err := pipeline.Run(iotest(source)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(sink.frames) != 1 {
		t.Fatalf("frames: got %d, want 1", len(sink.frames))
	}
	if got := sink.frames[0].pixels.RGBAAt(0, 0); got != (color.RGBA{0xFF, 0xFF, 0xFF, 0xFF}) {
		t.Errorf("pixel: got %v, want white", got)
	}
}

// iotest returns a reader delivering one byte per Read call.
func iotest(source string) *oneByteReader {
	return &oneByteReader{data: []byte(source)}
}

type oneByteReader struct {
	data []byte
	next int
}

func (r *oneByteReader) Read(p []byte) (int, error) {
	if r.next >= len(r.data) {
		return 0, io.EOF
	}
	p[0] = r.data[r.next]
	r.next++
	return 1, nil
}
