// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Package rotor implements the log rotation and archival engine.
//
// The engine watches a single directory for sealed log segments —
// files a producer finalizes by atomically renaming its active
// <base>.log to <base>.<epoch>.bak — and maintains, per stream, a
// bounded ring of numbered generations (<base>.log.0 through
// <base>.log.N) plus an asynchronous compression pipeline. Filling the
// terminal slot hands generations 1..N to the compressor, which
// packages them into a timestamped tar.gz, deletes the stream's
// previous archive, and removes the packaged originals.
//
// Two long-lived workers cooperate: the rotator consumes watch events
// and shifts rings, the compressor packages terminal rings. While a
// compression is in flight, newly sealed segments are appended onto
// generation 0 instead of rotated, so no segment is ever dropped no
// matter when it lands. After each compression the engine settles any
// generation 0 created this way back into the ring.
//
// All shared state lives on the [Engine]; there are no package
// globals. The engine persists nothing outside the watch directory
// itself, so restarting over whatever files are on disk is safe.
package rotor
