// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

package protocol

import (
	"errors"
	"fmt"
)

// ErrIncomplete reports that the buffered bytes do not yet contain a
// complete instruction. This is a normal streaming outcome, not a
// failure: feed more bytes and call Next again. The parser consumes
// nothing when returning ErrIncomplete, so the retry is idempotent.
var ErrIncomplete = errors.New("protocol: instruction incomplete")

// maxElementLength is the maximum declared length of a single element.
// Image blobs are the largest legitimate elements (a few kilobytes of
// base64 per chunk); 16 MB is a generous defensive cap. A declared
// length beyond it means corrupt framing, not a large payload.
const maxElementLength = 16 * 1024 * 1024

// MalformedError reports corrupt instruction framing. Malformed input
// is unrecoverable: the element boundaries are lost and the rest of the
// stream cannot be trusted, so the whole run must abort.
type MalformedError struct {
	// Offset is the byte position within the current buffer at which
	// the corruption was detected.
	Offset int

	// Reason describes the framing violation.
	Reason string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("protocol: malformed instruction at offset %d: %s", e.Offset, e.Reason)
}

// Parser decodes framed instructions from an incrementally fed byte
// buffer. Zero value is ready to use. Not safe for concurrent use; each
// transcoding run owns its own Parser.
type Parser struct {
	buffer []byte
}

// Feed appends bytes from the source stream to the parse buffer.
func (p *Parser) Feed(data []byte) {
	p.buffer = append(p.buffer, data...)
}

// Buffered returns the number of bytes awaiting parsing.
func (p *Parser) Buffered() int {
	return len(p.buffer)
}

// Next decodes the next complete instruction from the buffer. Returns
// ErrIncomplete when more bytes are needed (nothing consumed), or a
// *MalformedError on corrupt framing.
func (p *Parser) Next() (Instruction, error) {
	elements, consumed, err := scanInstruction(p.buffer)
	if err != nil {
		return Instruction{}, err
	}

	// Drop the consumed prefix. Copying down instead of re-slicing
	// keeps the buffer from pinning the whole recording in memory.
	remaining := copy(p.buffer, p.buffer[consumed:])
	p.buffer = p.buffer[:remaining]

	return Instruction{Opcode: elements[0], Args: elements[1:]}, nil
}

// Close checks for clean end-of-stream. End of input with an empty
// buffer is a clean termination; leftover bytes mean the recording was
// truncated mid-instruction.
func (p *Parser) Close() error {
	if len(p.buffer) == 0 {
		return nil
	}
	return &MalformedError{
		Offset: len(p.buffer),
		Reason: "stream ends mid-instruction",
	}
}

// scanInstruction parses one instruction from the head of data. On
// success it returns the decoded elements and the number of bytes
// consumed (through the terminating semicolon).
func scanInstruction(data []byte) (elements []string, consumed int, err error) {
	offset := 0
	for {
		length, lengthEnd, err := scanLength(data, offset)
		if err != nil {
			return nil, 0, err
		}

		payloadStart := lengthEnd + 1 // skip the '.'
		separatorAt := payloadStart + length
		if separatorAt >= len(data) {
			return nil, 0, ErrIncomplete
		}

		elements = append(elements, string(data[payloadStart:separatorAt]))

		switch data[separatorAt] {
		case ',':
			offset = separatorAt + 1
		case ';':
			return elements, separatorAt + 1, nil
		default:
			return nil, 0, &MalformedError{
				Offset: separatorAt,
				Reason: fmt.Sprintf("expected ',' or ';' after element, got %q", data[separatorAt]),
			}
		}
	}
}

// scanLength parses the decimal length field starting at offset and
// returns its value and the index of the '.' delimiter.
func scanLength(data []byte, offset int) (length, delimiterAt int, err error) {
	position := offset
	for {
		if position >= len(data) {
			return 0, 0, ErrIncomplete
		}
		character := data[position]
		if character == '.' {
			if position == offset {
				return 0, 0, &MalformedError{Offset: position, Reason: "empty length field"}
			}
			return length, position, nil
		}
		if character < '0' || character > '9' {
			return 0, 0, &MalformedError{
				Offset: position,
				Reason: fmt.Sprintf("invalid character %q in length field", character),
			}
		}
		length = length*10 + int(character-'0')
		if length > maxElementLength {
			return 0, 0, &MalformedError{
				Offset: offset,
				Reason: fmt.Sprintf("element length exceeds %d bytes", maxElementLength),
			}
		}
		position++
	}
}
