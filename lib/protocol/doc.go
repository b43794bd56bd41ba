// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package protocol implements the framed instruction stream format used
// by recorded remote-display sessions.
//
// An instruction is a sequence of length-prefixed elements terminated by
// a semicolon. Each element is written as the decimal byte length, a
// period, exactly that many bytes of UTF-8, and a separator: a comma
// between elements, a semicolon after the last. The first element is the
// opcode; the remaining elements are its arguments:
//
//	4.size,1.0,4.1024,3.768;
//
// The Parser consumes this format incrementally. Recordings arrive as
// byte streams (files, pipes, decompressors), so an instruction may span
// read boundaries; Next reports ErrIncomplete until enough bytes have
// been fed, and a retry after more input resumes from the same offset
// with nothing consumed or duplicated. Corrupt framing is unrecoverable
// and surfaces as *MalformedError.
package protocol
