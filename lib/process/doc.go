// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package process provides entrypoint helpers shared by Logring
// binaries.
package process
