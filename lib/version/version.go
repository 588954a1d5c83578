// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of Logring binaries.
package version

// version is overridden at link time:
//
//	go build -ldflags "-X github.com/logring/logring/lib/version.version=v1.2.3"
var version = "dev"

// Info returns the version string for --version output.
func Info() string {
	return version
}
