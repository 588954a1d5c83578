// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/sys/unix"
)

// appendFile transfers the entire content of srcPath onto the tail of
// dstPath with sendfile(2), keeping the copy in kernel space. Returns
// the number of bytes transferred.
//
// Linux sendfile returns EINVAL when the destination descriptor has
// O_APPEND set, so the destination is opened plain O_WRONLY and seeked
// to its end first. The engine only calls this under the watcher gate,
// so nothing else moves the destination while the transfer runs.
func appendFile(dstPath, srcPath string) (int64, error) {
	src, err := os.Open(srcPath)
	if err != nil {
		return 0, fmt.Errorf("opening source %s: %w", srcPath, err)
	}
	defer src.Close()

	info, err := src.Stat()
	if err != nil {
		return 0, fmt.Errorf("stat source %s: %w", srcPath, err)
	}

	dst, err := os.OpenFile(dstPath, os.O_WRONLY, 0)
	if err != nil {
		return 0, fmt.Errorf("opening destination %s: %w", dstPath, err)
	}
	defer dst.Close()

	if _, err := dst.Seek(0, io.SeekEnd); err != nil {
		return 0, fmt.Errorf("seeking to end of %s: %w", dstPath, err)
	}

	var offset int64
	size := info.Size()
	for offset < size {
		n, err := unix.Sendfile(int(dst.Fd()), int(src.Fd()), &offset, int(size-offset))
		if err == unix.EINTR || err == unix.EAGAIN {
			continue
		}
		if err != nil {
			return offset, fmt.Errorf("sendfile %s -> %s at offset %d: %w", srcPath, dstPath, offset, err)
		}
		if n == 0 {
			break // source truncated underneath us
		}
	}
	if offset != size {
		return offset, fmt.Errorf("short transfer %s -> %s: %d of %d bytes", srcPath, dstPath, offset, size)
	}
	return offset, nil
}
