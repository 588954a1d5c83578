// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// watcher subscribes to file-appearance events (IN_CREATE and
// IN_MOVED_TO) on a single directory via inotify and emits basenames
// in kernel delivery order. It never reorders or coalesces: every
// event in a read batch is emitted in batch order.
type watcher struct {
	fd     int
	dir    string
	logger *slog.Logger

	// initial is the directory listing captured right after the watch
	// was installed. Emitting it before the event loop lets a restart
	// pick up segments that appeared while the daemon was down. The
	// scan runs after InotifyAddWatch, not before, so a file landing
	// between scan and subscription is impossible: it is either in
	// the listing or generates an event (or both — a duplicate event
	// for an already-ingested segment is a benign skip downstream).
	initial []string
}

// newWatcher subscribes to dir. Any failure here prevents engine
// startup.
func newWatcher(dir string, logger *slog.Logger) (*watcher, error) {
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("inotify_init1: %w", err)
	}

	if _, err := unix.InotifyAddWatch(fd, dir, unix.IN_CREATE|unix.IN_MOVED_TO); err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("inotify_add_watch on %s: %w", dir, err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		unix.Close(fd)
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	var initial []string
	for _, entry := range entries {
		if entry.Type().IsRegular() {
			initial = append(initial, entry.Name())
		}
	}

	return &watcher{fd: fd, dir: dir, logger: logger, initial: initial}, nil
}

// run emits basenames on events until ctx is cancelled or the inotify
// read fails. Closes events and the inotify fd on exit.
//
// Uses poll(2) with a 100ms timeout so the goroutine remains
// responsive to cancellation without burning CPU on a tight loop.
func (w *watcher) run(ctx context.Context, events chan<- string) {
	defer close(events)
	defer unix.Close(w.fd)

	for _, name := range w.initial {
		select {
		case events <- name:
		case <-ctx.Done():
			return
		}
	}

	buffer := make([]byte, 64*1024)
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		pollDescriptors := []unix.PollFd{{Fd: int32(w.fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			w.logger.Error("inotify poll failed", "dir", w.dir, "error", err)
			return
		}
		if count == 0 {
			continue // timeout, check cancellation
		}

		bytesRead, err := unix.Read(w.fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			w.logger.Error("inotify read failed", "dir", w.dir, "error", err)
			return
		}

		for _, name := range decodeEventNames(buffer[:bytesRead]) {
			select {
			case events <- name:
			case <-ctx.Done():
				return
			}
		}
	}
}

// decodeEventNames walks a buffer of raw inotify events and collects
// the basenames, in buffer order. Events without a name (directory
// self-events) are skipped.
//
// Inotify event layout (from inotify(7)):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, padded to alignment
//	};
func decodeEventNames(buffer []byte) []string {
	var names []string
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}

		if nameLength > 0 {
			// The name is null-padded to an alignment boundary.
			// Find the actual string by stopping at the first null.
			nameBytes := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
			if name := nullTerminatedString(nameBytes); name != "" {
				names = append(names, name)
			}
		}

		offset += eventSize
	}
	return names
}

// nullTerminatedString extracts a string from a null-padded byte
// slice, stopping at the first null byte.
func nullTerminatedString(data []byte) string {
	for i, b := range data {
		if b == 0 {
			return string(data[:i])
		}
	}
	return string(data)
}
