// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import "context"

// Archiver packages a list of files into one compressed archive.
type Archiver interface {
	// Create writes a gzip-compressed tar archive at archivePath
	// containing members, whose names are relative to dir. The
	// archive entries carry the relative names only. A nil error
	// means the archive is complete on disk; on error no promise is
	// made about partial output beyond ExecArchiver/NativeArchiver's
	// documented behavior.
	Create(ctx context.Context, archivePath, dir string, members []string) error
}
