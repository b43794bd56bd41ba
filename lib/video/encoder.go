// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package video

import (
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/asticode/go-astiav"
)

// EncoderConfig selects the output video's container, codec and
// geometry. These options affect only the encoder; decoding and
// dispatch never see them.
type EncoderConfig struct {
	// Path is the output file. The container format is inferred from
	// its extension by FFmpeg.
	Path string

	// Codec is the encoder name as known to libavcodec (for example
	// "mpeg4", "libx264").
	Codec string

	// Width and Height are the output dimensions in pixels.
	Width  int
	Height int

	// Bitrate is the target bitrate in bits per second.
	Bitrate int

	// FrameRate is the constant output frame rate in frames per second.
	FrameRate int

	// Fit controls letterboxing when source and output aspect ratios
	// differ.
	Fit FitPolicy
}

// Encoder is the production FrameSink: it scales composited frames to
// the configured dimensions, converts them to YUV and writes them
// through FFmpeg into the output container.
type Encoder struct {
	formatContext *astiav.FormatContext
	codecContext  *astiav.CodecContext
	stream        *astiav.Stream
	ioContext     *astiav.IOContext
	scaleContext  *astiav.SoftwareScaleContext
	rgbaFrame     *astiav.Frame
	yuvFrame      *astiav.Frame
	packet        *astiav.Packet
	scaler        *Scaler
	frameInterval time.Duration
	headerWritten bool
}

// NewEncoder opens the output container and codec. Any failure here is
// the spec's CodecInitFailed: nothing has been written and the run must
// abort.
func NewEncoder(config EncoderConfig) (*Encoder, error) {
	if config.Width <= 0 || config.Height <= 0 {
		return nil, fmt.Errorf("invalid output dimensions %dx%d", config.Width, config.Height)
	}
	if config.FrameRate <= 0 {
		return nil, fmt.Errorf("invalid frame rate %d", config.FrameRate)
	}

	codec := astiav.FindEncoderByName(config.Codec)
	if codec == nil {
		return nil, fmt.Errorf("codec %q not found", config.Codec)
	}

	formatContext, err := astiav.AllocOutputFormatContext(nil, "", config.Path)
	if err != nil {
		return nil, fmt.Errorf("allocating output context for %s: %w", config.Path, err)
	}

	encoder := &Encoder{
		formatContext: formatContext,
		scaler:        NewScaler(config.Width, config.Height, config.Fit),
		frameInterval: time.Second / time.Duration(config.FrameRate),
	}

	codecContext := astiav.AllocCodecContext(codec)
	if codecContext == nil {
		encoder.free()
		return nil, errors.New("allocating codec context")
	}
	encoder.codecContext = codecContext

	codecContext.SetWidth(config.Width)
	codecContext.SetHeight(config.Height)
	codecContext.SetPixelFormat(astiav.PixelFormatYuv420P)
	codecContext.SetTimeBase(astiav.NewRational(1, config.FrameRate))
	codecContext.SetFramerate(astiav.NewRational(config.FrameRate, 1))
	codecContext.SetBitRate(int64(config.Bitrate))
	if formatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagGlobalheader) {
		codecContext.SetFlags(codecContext.Flags().Add(astiav.CodecContextFlagGlobalHeader))
	}

	if err := codecContext.Open(codec, nil); err != nil {
		encoder.free()
		return nil, fmt.Errorf("opening codec %q: %w", config.Codec, err)
	}

	stream := formatContext.NewStream(codec)
	if stream == nil {
		encoder.free()
		return nil, errors.New("allocating output stream")
	}
	stream.SetTimeBase(codecContext.TimeBase())
	if err := stream.CodecParameters().FromCodecContext(codecContext); err != nil {
		encoder.free()
		return nil, fmt.Errorf("copying codec parameters: %w", err)
	}
	encoder.stream = stream

	if !formatContext.OutputFormat().Flags().Has(astiav.IOFormatFlagNofile) {
		ioContext, err := astiav.OpenIOContext(config.Path, astiav.NewIOContextFlags(astiav.IOContextFlagWrite), nil, nil)
		if err != nil {
			encoder.free()
			return nil, fmt.Errorf("opening %s: %w", config.Path, err)
		}
		encoder.ioContext = ioContext
		formatContext.SetPb(ioContext)
	}

	if err := formatContext.WriteHeader(nil); err != nil {
		encoder.free()
		return nil, fmt.Errorf("writing container header: %w", err)
	}
	encoder.headerWritten = true

	scaleContext, err := astiav.CreateSoftwareScaleContext(
		config.Width, config.Height, astiav.PixelFormatRgba,
		config.Width, config.Height, astiav.PixelFormatYuv420P,
		astiav.NewSoftwareScaleContextFlags(astiav.SoftwareScaleContextFlagBilinear),
	)
	if err != nil {
		encoder.free()
		return nil, fmt.Errorf("creating pixel format converter: %w", err)
	}
	encoder.scaleContext = scaleContext

	rgbaFrame := astiav.AllocFrame()
	rgbaFrame.SetWidth(config.Width)
	rgbaFrame.SetHeight(config.Height)
	rgbaFrame.SetPixelFormat(astiav.PixelFormatRgba)
	if err := rgbaFrame.AllocBuffer(1); err != nil {
		encoder.free()
		return nil, fmt.Errorf("allocating RGBA frame: %w", err)
	}
	encoder.rgbaFrame = rgbaFrame

	yuvFrame := astiav.AllocFrame()
	yuvFrame.SetWidth(config.Width)
	yuvFrame.SetHeight(config.Height)
	yuvFrame.SetPixelFormat(astiav.PixelFormatYuv420P)
	if err := yuvFrame.AllocBuffer(1); err != nil {
		encoder.free()
		return nil, fmt.Errorf("allocating YUV frame: %w", err)
	}
	encoder.yuvFrame = yuvFrame

	encoder.packet = astiav.AllocPacket()
	return encoder, nil
}

// Push scales frame to the output dimensions, converts it to YUV and
// encodes it at the given presentation timestamp. The scheduler hands
// in pts values that are exact multiples of the frame interval.
func (e *Encoder) Push(frame *image.RGBA, pts time.Duration) error {
	scaled := e.scaler.Scale(frame)
	if err := e.rgbaFrame.Data().FromImage(scaled); err != nil {
		return fmt.Errorf("loading frame pixels: %w", err)
	}
	if err := e.scaleContext.ScaleFrame(e.rgbaFrame, e.yuvFrame); err != nil {
		return fmt.Errorf("converting frame to YUV: %w", err)
	}

	e.yuvFrame.SetPts(int64(pts / e.frameInterval))
	return e.encode(e.yuvFrame)
}

// Close drains the encoder, finalizes the container and releases all
// FFmpeg state. Partial output is left on disk on failure; cleanup is
// the caller's policy.
func (e *Encoder) Close() error {
	defer e.free()

	// Drain: a nil frame signals end of stream to the codec.
	encodeErr := e.encode(nil)

	var trailerErr error
	if e.headerWritten {
		trailerErr = e.formatContext.WriteTrailer()
	}

	var closeErr error
	if e.ioContext != nil {
		closeErr = e.ioContext.Close()
		e.ioContext = nil
	}

	if encodeErr != nil {
		return fmt.Errorf("flushing encoder: %w", encodeErr)
	}
	if trailerErr != nil {
		return fmt.Errorf("writing container trailer: %w", trailerErr)
	}
	if closeErr != nil {
		return fmt.Errorf("closing output: %w", closeErr)
	}
	return nil
}

// encode sends one frame (or nil to flush) and writes every packet the
// codec produces.
func (e *Encoder) encode(frame *astiav.Frame) error {
	if err := e.codecContext.SendFrame(frame); err != nil {
		return fmt.Errorf("sending frame to encoder: %w", err)
	}
	for {
		err := e.codecContext.ReceivePacket(e.packet)
		if errors.Is(err, astiav.ErrEagain) || errors.Is(err, astiav.ErrEof) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("receiving packet from encoder: %w", err)
		}
		e.packet.SetStreamIndex(e.stream.Index())
		e.packet.RescaleTs(e.codecContext.TimeBase(), e.stream.TimeBase())
		writeErr := e.formatContext.WriteInterleavedFrame(e.packet)
		e.packet.Unref()
		if writeErr != nil {
			return fmt.Errorf("writing packet: %w", writeErr)
		}
	}
}

// free releases all allocated FFmpeg state. Safe to call with partially
// initialized fields.
func (e *Encoder) free() {
	if e.packet != nil {
		e.packet.Free()
		e.packet = nil
	}
	if e.rgbaFrame != nil {
		e.rgbaFrame.Free()
		e.rgbaFrame = nil
	}
	if e.yuvFrame != nil {
		e.yuvFrame.Free()
		e.yuvFrame = nil
	}
	if e.scaleContext != nil {
		e.scaleContext.Free()
		e.scaleContext = nil
	}
	if e.codecContext != nil {
		e.codecContext.Free()
		e.codecContext = nil
	}
	if e.ioContext != nil {
		e.ioContext.Close()
		e.ioContext = nil
	}
	if e.formatContext != nil {
		e.formatContext.Free()
		e.formatContext = nil
	}
}
