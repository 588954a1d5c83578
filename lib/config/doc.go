// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package config provides configuration loading for Logring binaries.
//
// Configuration is loaded from a single YAML file specified by:
//   - LOGRING_CONFIG environment variable, or
//   - --config flag passed to the command
//
// There are no fallbacks or automatic discovery. When no file is
// named, the built-in defaults apply and command-line flags are the
// only override. This keeps deployed configuration deterministic and
// auditable with no hidden overrides.
package config
