// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package display models the virtual screen that a recorded session's
// drawing instructions mutate: a set of layered raster surfaces with
// position, stacking order, and opacity, plus a cursor composited above
// everything.
//
// Identifiers split into two namespaces. Non-negative identifiers are
// on-screen layers; layer zero is the root canvas and always exists.
// Negative identifiers are off-screen buffers used as sources for
// copy-style operations; they hold pixels but never render. A layer
// referenced before explicit creation is materialized at 0×0 — real
// recordings may be truncated at the start, so forward references are
// tolerated rather than rejected.
//
// All drawing operations clip silently to the target's bounds. They
// never write out of bounds and never fail merely because an update
// partially or fully exceeds them. Composite is a pure function of the
// display state: it allocates a fresh raster on every call and mutates
// nothing.
//
// The Display is single-owner state. The instruction dispatcher is the
// only mutator during a run, and compositing happens strictly between
// dispatches; nothing here locks.
package display
