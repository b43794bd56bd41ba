// Copyright 2026 The Reel Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for reel commands.
//
// Configuration is loaded from a single YAML file specified by the
// REEL_CONFIG environment variable or a --config flag. There are no
// fallbacks or automatic discovery; flags override file values, and
// built-in defaults cover everything else.
package config
