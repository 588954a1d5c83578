// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"strconv"
	"time"
)

// pollInterval is how often the WaitFor helpers re-check their
// condition. Short enough that tests stay fast, long enough not to
// spin.
const pollInterval = 10 * time.Millisecond

// WaitForPath polls until path exists or timeout elapses, then fails
// the test on timeout. Use this to wait for a worker to create a file
// (a generation slot, an archive) without racing the worker.
func WaitForPath(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); err == nil {
			return
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("timed out after %v waiting for %s to appear", timeout, path)
}

// WaitForGone polls until path no longer exists or timeout elapses,
// then fails the test on timeout.
func WaitForGone(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, path string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return
		}
		time.Sleep(pollInterval)
	}
	t.Fatalf("timed out after %v waiting for %s to disappear", timeout, path)
}

// WaitForQuiet polls the directory listing until it has not changed for
// at least the quiet duration, or fails the test after timeout. Tests
// use this to detect engine quiescence before asserting on the final
// directory contents.
func WaitForQuiet(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, dir string, quiet, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	last := snapshotDir(dir)
	stableSince := time.Now()
	for time.Now().Before(deadline) {
		time.Sleep(pollInterval)
		current := snapshotDir(dir)
		if current != last {
			last = current
			stableSince = time.Now()
			continue
		}
		if time.Since(stableSince) >= quiet {
			return
		}
	}
	t.Fatalf("timed out after %v waiting for %s to go quiet", timeout, dir)
}

// snapshotDir returns a fingerprint of the directory: every entry name
// and size concatenated. Errors collapse to an empty fingerprint so a
// transiently missing directory reads as "changed".
func snapshotDir(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	var fingerprint string
	for _, entry := range entries {
		info, err := entry.Info()
		if err != nil {
			continue
		}
		fingerprint += entry.Name() + "\x00" + strconv.FormatInt(info.Size(), 10) + "\x00"
	}
	return fingerprint
}
