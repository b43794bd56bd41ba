// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package video delivers composited frames to a video file.
//
// The frame scheduler talks to a FrameSink: a narrow push-frame
// contract (frame plus presentation timestamp, then close). The
// production sink is Encoder, backed by FFmpeg through go-astiav; tests
// substitute in-memory sinks. Geometry — scaling composited frames to
// the output dimensions, letterboxing when aspect ratios differ — is
// pure Go (golang.org/x/image/draw) and lives outside the cgo boundary
// so it can be unit tested without FFmpeg.
package video
