// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"archive/tar"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
)

// NativeArchiver packages in-process: stdlib tar framing over
// klauspost gzip. Output is interchangeable with `tar -czf`.
//
// On any failure the partial archive file is removed, so a failed
// packaging never leaves a truncated .tar.gz behind for the next
// rotation cycle to trip over.
type NativeArchiver struct{}

// Create implements [Archiver]. The context is checked between
// members; an in-flight member copy is not interrupted.
func (a *NativeArchiver) Create(ctx context.Context, archivePath, dir string, members []string) (err error) {
	if len(members) == 0 {
		return fmt.Errorf("no members to package into %s", archivePath)
	}

	out, err := os.OpenFile(archivePath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("creating archive %s: %w", archivePath, err)
	}
	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("closing archive %s: %w", archivePath, closeErr)
		}
		if err != nil {
			os.Remove(archivePath)
		}
	}()

	gz, err := gzip.NewWriterLevel(out, gzip.DefaultCompression)
	if err != nil {
		return fmt.Errorf("initializing gzip writer: %w", err)
	}
	tw := tar.NewWriter(gz)

	for _, member := range members {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("packaging %s: %w", archivePath, ctxErr)
		}
		if err := addMember(tw, dir, member); err != nil {
			return err
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("finalizing tar stream: %w", err)
	}
	if err := gz.Close(); err != nil {
		return fmt.Errorf("finalizing gzip stream: %w", err)
	}
	return nil
}

// addMember appends one file to the tar stream under its relative
// name.
func addMember(tw *tar.Writer, dir, member string) error {
	path := filepath.Join(dir, member)

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("opening member %s: %w", path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat member %s: %w", path, err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("building tar header for %s: %w", path, err)
	}
	header.Name = member

	if err := tw.WriteHeader(header); err != nil {
		return fmt.Errorf("writing tar header for %s: %w", member, err)
	}
	if _, err := io.Copy(tw, f); err != nil {
		return fmt.Errorf("copying member %s: %w", path, err)
	}
	return nil
}
