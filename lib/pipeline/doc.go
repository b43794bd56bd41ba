// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package pipeline runs the instruction-to-video transcoding loop:
// bytes from a recording feed the protocol parser, decoded instructions
// dispatch against the display model, and synchronization instructions
// drive the frame scheduler, which resamples the recording's irregular
// update timeline into constant-rate frames for the video sink.
//
// The pipeline is strictly single-threaded: decode, dispatch, schedule
// and encode happen in recorded order, and compositing only runs
// between dispatches. Independent recordings transcode concurrently by
// running wholly separate Pipeline instances; nothing here is shared.
//
// Error policy follows the recording-replay taxonomy: corrupt framing
// and invalid numeric arguments abort the run; unknown opcodes are
// ignored for forward compatibility; references to missing layers,
// buffers or streams degrade to logged no-ops.
package pipeline
