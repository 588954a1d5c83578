// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/logring/logring/lib/archive"
)

// archiveTimestampLayout is the timestamp embedded in archive names,
// in local time: <base>.log_2026-08-05_14-03-57.tar.gz.
const archiveTimestampLayout = "2006-01-02_15-04-05"

// compress is the compressor worker loop. It waits on the counting
// signal and handles one pending stream per token until the context
// is cancelled.
func (e *Engine) compress(ctx context.Context) {
	logger := e.logger.With("component", "compressor")
	for {
		select {
		case <-ctx.Done():
			return
		case <-e.compressReady:
			e.compressOne(ctx, logger)
		}
	}
}

// compressOne packages the first pending stream, then settles any
// generation 0 files created by the append path while the packaging
// ran.
//
// zipActive stays set from here until settle has the watcher gate:
// clearing it any earlier opens a window where the rotator, having
// just read it as false, renames a fresh segment over a still-staged
// generation 0 and discards the appended bytes. settle owns the
// clear.
func (e *Engine) compressOne(ctx context.Context, logger *slog.Logger) {
	e.zipActive.Store(true)

	e.generationMu.Lock()
	stream := -1
	var terminal string
	for i := range e.streams {
		if e.streams[i].pendingCompression {
			stream = i
			terminal = e.streams[i].terminalPath
			e.streams[i].pendingCompression = false
			break
		}
	}
	if stream < 0 {
		// Spurious token: the pending stream was already handled.
		// Segments may still have staged onto slot 0 while zipActive
		// was up, so settle runs regardless.
		e.generationMu.Unlock()
		e.settle(logger)
		return
	}

	err := e.packageStream(ctx, logger, stream, terminal)
	e.generationMu.Unlock()

	base := e.registry.Base(stream)
	if err != nil {
		logger.Error("compression failed", "stream", base, "terminal", terminal, "error", err)
		e.metrics.ArchiveFailures.WithLabelValues(base).Inc()
	}

	e.settle(logger)
}

// packageStream runs archive steps for one stream under the
// generation lock: parse the terminal path, compose the timestamped
// target, collect surviving generations 1..N, delete the stream's
// prior archive, package, record bookkeeping, and delete the
// originals.
//
// On archiver failure the originals are untouched and the bookkeeping
// keeps its old value; the prior archive may already be gone, which
// is the accepted tradeoff for never holding two full archives of one
// stream on disk.
func (e *Engine) packageStream(ctx context.Context, logger *slog.Logger, stream int, terminal string) error {
	baseName, maxIndex, err := parseTerminalPath(terminal)
	if err != nil {
		return err
	}

	timestamp := e.now().Format(archiveTimestampLayout)
	newArchive := filepath.Join(e.watchDir, fmt.Sprintf("%s.log_%s.tar.gz", baseName, timestamp))

	var members []string
	for k := 1; k <= maxIndex; k++ {
		name := fmt.Sprintf("%s.log.%d", baseName, k)
		if pathExists(filepath.Join(e.watchDir, name)) {
			members = append(members, name)
		}
	}
	if len(members) == 0 {
		return fmt.Errorf("no generations to package for %s", baseName)
	}

	state := &e.streams[stream]
	if e.deletePrior && state.lastArchivePath != "" && pathExists(state.lastArchivePath) {
		if err := os.Remove(state.lastArchivePath); err != nil {
			logger.Error("removing prior archive", "stream", baseName, "path", state.lastArchivePath, "error", err)
		}
		if sidecar := state.lastArchivePath + archive.SidecarSuffix; pathExists(sidecar) {
			if err := os.Remove(sidecar); err != nil {
				logger.Error("removing prior archive sidecar", "stream", baseName, "path", sidecar, "error", err)
			}
		}
	}

	if err := e.archiver.Create(ctx, newArchive, e.watchDir, members); err != nil {
		return fmt.Errorf("packaging %d generations into %s: %w", len(members), newArchive, err)
	}

	if e.checksumArchives {
		digest, err := archive.WriteSidecar(newArchive)
		if err != nil {
			logger.Error("writing archive checksum", "stream", baseName, "path", newArchive, "error", err)
		} else {
			logger.Info("archive checksum", "stream", baseName, "path", newArchive, "blake3", digest)
		}
	}

	state.lastArchivePath = newArchive

	if e.deleteOriginals {
		for _, member := range members {
			path := filepath.Join(e.watchDir, member)
			if err := os.Remove(path); err != nil {
				logger.Error("removing packaged generation", "stream", baseName, "path", path, "error", err)
			}
		}
	}

	logger.Info("archive created", "stream", baseName, "path", newArchive, "members", len(members))
	e.metrics.ArchivesCreated.WithLabelValues(baseName).Inc()
	return nil
}

// settle folds back any generation 0 created by the append path while
// a compression ran. The watcher gate is held so no event dispatch
// interleaves; each present generation 0 is shifted with the full
// Step-B chain rather than a bare rename to slot 1, because a stream
// that staged a segment during the compression of a *different*
// stream may still hold live generations 1..k that a bare rename
// would overwrite. In the common case (only the compressed stream has
// a generation 0, its higher slots just deleted) the chain degrades
// to exactly the one rename.
//
// A settle shift that fills a terminal slot signals the compressor
// again, like any other shift.
func (e *Engine) settle(logger *slog.Logger) {
	e.watcherGate.Lock()
	defer e.watcherGate.Unlock()

	// zipActive is cleared only here, under the gate: no ingest can
	// ever observe a staged generation 0 with the flag already false,
	// which is the combination that would let the rotate path rename
	// over staged bytes. A segment dispatched after the gate releases
	// finds slot 0 already shifted away.
	e.zipActive.Store(false)

	for i := 0; i < e.registry.Len(); i++ {
		if pathExists(e.genPath(i, 0)) {
			logger.Debug("settling staged generation", "stream", e.registry.Base(i))
			e.shift(logger, i)
		}
	}
}

// parseTerminalPath splits a terminal generation path like
// "var/log/ipstrc.log.5" into the stream base name ("ipstrc") and the
// numeric slot index (5). A suffix that does not parse as an integer
// is malformed input: the event is skipped and logged by the caller.
func parseTerminalPath(terminal string) (string, int, error) {
	filename := filepath.Base(terminal)
	lastDot := strings.LastIndex(filename, ".")
	if lastDot < 0 {
		return "", 0, fmt.Errorf("terminal path %s has no numeric suffix", terminal)
	}
	index, err := strconv.Atoi(filename[lastDot+1:])
	if err != nil {
		return "", 0, fmt.Errorf("terminal path %s: suffix is not an integer: %w", terminal, err)
	}
	base := strings.TrimSuffix(filename[:lastDot], ".log")
	if base == "" || base == filename[:lastDot] {
		return "", 0, fmt.Errorf("terminal path %s is not a generation file", terminal)
	}
	return base, index, nil
}
