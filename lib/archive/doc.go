// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package archive packages groups of rotated generation files into
// gzip-compressed tar archives.
//
// Two packagers implement the [Archiver] contract: [ExecArchiver]
// shells out to an external tar binary (the deployment default, so
// operators keep whatever tar their platform ships), and
// [NativeArchiver] packages in-process for hosts without a usable tar.
// Both take member names relative to the source directory so archive
// entries never embed absolute paths.
package archive
