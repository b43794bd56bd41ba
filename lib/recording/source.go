// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package recording

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Format identifies the on-disk compression of a recording file,
// detected from its leading magic bytes.
type Format int

const (
	FormatPlain Format = iota
	FormatGzip
	FormatZstd
	FormatLZ4
)

// String returns the human-readable name of a format.
func (f Format) String() string {
	switch f {
	case FormatPlain:
		return "plain"
	case FormatGzip:
		return "gzip"
	case FormatZstd:
		return "zstd"
	case FormatLZ4:
		return "lz4"
	default:
		return fmt.Sprintf("unknown(%d)", int(f))
	}
}

var (
	magicGzip = []byte{0x1F, 0x8B}
	magicZstd = []byte{0x28, 0xB5, 0x2F, 0xFD}
	magicLZ4  = []byte{0x04, 0x22, 0x4D, 0x18}
)

// Source is an open recording stream with decompression applied.
type Source struct {
	reader io.Reader
	format Format
	close  func() error
}

// Read reads decompressed recording bytes.
func (s *Source) Read(p []byte) (int, error) {
	return s.reader.Read(p)
}

// Format reports the detected on-disk compression.
func (s *Source) Format() Format {
	return s.format
}

// Close releases the decompressor (if any) and the underlying file.
func (s *Source) Close() error {
	return s.close()
}

// Open opens the recording file at path, sniffing its leading bytes
// for a compression magic and wrapping the appropriate decompressor.
// Files without a recognized magic are read as-is.
func Open(path string) (*Source, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	source, err := newSource(file, file.Close)
	if err != nil {
		file.Close()
		return nil, fmt.Errorf("opening recording %s: %w", path, err)
	}
	return source, nil
}

// NewSource wraps an arbitrary stream with the same magic sniffing as
// Open. closeUnderlying releases the stream; nil means nothing to
// release.
func NewSource(reader io.Reader, closeUnderlying func() error) (*Source, error) {
	if closeUnderlying == nil {
		closeUnderlying = func() error { return nil }
	}
	return newSource(reader, closeUnderlying)
}

func newSource(reader io.Reader, closeUnderlying func() error) (*Source, error) {
	buffered := bufio.NewReader(reader)
	magic, err := buffered.Peek(4)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("sniffing compression magic: %w", err)
	}

	switch {
	case bytes.HasPrefix(magic, magicGzip):
		decompressor, err := gzip.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("opening gzip stream: %w", err)
		}
		return &Source{
			reader: decompressor,
			format: FormatGzip,
			close: func() error {
				closeErr := decompressor.Close()
				if underlyingErr := closeUnderlying(); closeErr == nil {
					closeErr = underlyingErr
				}
				return closeErr
			},
		}, nil

	case bytes.HasPrefix(magic, magicZstd):
		decompressor, err := zstd.NewReader(buffered)
		if err != nil {
			return nil, fmt.Errorf("opening zstd stream: %w", err)
		}
		return &Source{
			reader: decompressor,
			format: FormatZstd,
			close: func() error {
				decompressor.Close()
				return closeUnderlying()
			},
		}, nil

	case bytes.HasPrefix(magic, magicLZ4):
		return &Source{
			reader: lz4.NewReader(buffered),
			format: FormatLZ4,
			close:  closeUnderlying,
		}, nil

	default:
		return &Source{
			reader: buffered,
			format: FormatPlain,
			close:  closeUnderlying,
		}, nil
	}
}
