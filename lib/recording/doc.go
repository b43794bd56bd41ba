// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package recording handles session recording files on disk: opening
// them with transparent decompression (recordings are commonly stored
// gzip-, zstd- or lz4-compressed), hashing them for identification, and
// parsing the timing companion files some capture tools write alongside
// the instruction stream.
package recording
