// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers for Logring packages.
//
// The helpers fall into two groups: channel operations with timeout
// safety valves (RequireReceive, RequireClosed), and filesystem
// polling for tests that drive the rotator engine and need to wait for
// a worker to act on disk (WaitForPath, WaitForGone, WaitForQuiet).
package testutil
