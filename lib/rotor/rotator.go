// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
)

// rotate is the rotator worker loop. It consumes basenames from the
// watcher in delivery order until the channel closes (watcher died) or
// the context is cancelled.
func (e *Engine) rotate(ctx context.Context, events <-chan string) {
	logger := e.logger.With("component", "rotator")
	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-events:
			if !ok {
				logger.Info("event channel closed, rotator exiting")
				return
			}
			e.dispatch(logger, name)
		}
	}
}

// dispatch classifies one basename and ingests sealed segments. The
// watcher gate is held across the entire handling so the compressor's
// settle step never interleaves with an event.
func (e *Engine) dispatch(logger *slog.Logger, name string) {
	stream, class := e.registry.Classify(name)
	switch class {
	case classIgnored:
		return
	case classDerivative:
		logger.Debug("ignoring derivative artifact", "name", name)
		return
	case classSelfStaged:
		logger.Debug("ignoring self-staged name", "name", name)
		return
	case classSealed:
	}

	e.watcherGate.Lock()
	defer e.watcherGate.Unlock()
	e.ingest(logger, stream, name)
}

// ingest is Step A: absorb one sealed segment into generation 0 of
// its stream, then shift the ring unless a compression is active.
func (e *Engine) ingest(logger *slog.Logger, stream int, name string) {
	base := e.registry.Base(stream)
	segPath := filepath.Join(e.watchDir, name)

	if !pathExists(segPath) {
		// Benign race: another consumer (or an earlier duplicate
		// event) already took the file.
		logger.Warn("sealed segment vanished before ingest", "stream", base, "path", segPath)
		return
	}

	if e.registry.isDummyMarker(stream, name) {
		e.settleMarker(logger, stream, segPath)
		return
	}

	g0 := e.genPath(stream, 0)

	if e.zipActive.Load() {
		// Compression in flight: absorb without touching the ring.
		// The post-compression settle step folds this generation 0
		// back in.
		if pathExists(g0) {
			e.absorb(logger, stream, g0, segPath)
			return
		}
		if err := os.Rename(segPath, g0); err != nil {
			logger.Error("renaming sealed segment", "stream", base, "from", segPath, "to", g0, "error", err)
			return
		}
		logger.Debug("staged sealed segment during compression", "stream", base, "path", g0)
		e.metrics.SegmentsIngested.WithLabelValues(base).Inc()
		return
	}

	// At rest the ring holds no generation 0, but a partial shift
	// failure can leave one behind. rename(2) over it would discard
	// those bytes, so an existing slot 0 is appended to instead and
	// the combined segment shifts as one generation.
	if pathExists(g0) {
		if !e.absorb(logger, stream, g0, segPath) {
			return
		}
	} else {
		if err := os.Rename(segPath, g0); err != nil {
			// The access check passed but the rename lost a race;
			// abort this event's shift.
			logger.Error("renaming sealed segment", "stream", base, "from", segPath, "to", g0, "error", err)
			return
		}
		logger.Debug("ingested sealed segment", "stream", base, "path", g0)
		e.metrics.SegmentsIngested.WithLabelValues(base).Inc()
	}

	e.shift(logger, stream)
}

// absorb appends a sealed segment's bytes onto an existing generation
// 0 and deletes the segment. Returns false only when the append
// itself failed and the segment is untouched on disk.
//
// A failed delete still counts as absorbed: the bytes are already in
// slot 0, and the leftover segment file is truncated to zero so a
// later event or restart sweep re-ingests nothing rather than a
// duplicate of bytes the ring already holds.
func (e *Engine) absorb(logger *slog.Logger, stream int, g0, segPath string) bool {
	base := e.registry.Base(stream)

	bytes, err := appendFile(g0, segPath)
	if err != nil {
		logger.Error("appending sealed segment", "stream", base, "path", segPath, "error", err)
		return false
	}
	if err := os.Remove(segPath); err != nil {
		logger.Error("removing appended segment", "stream", base, "path", segPath, "error", err)
		if truncErr := os.Truncate(segPath, 0); truncErr != nil {
			logger.Error("truncating appended segment leftover", "stream", base, "path", segPath, "error", truncErr)
		}
	}
	logger.Debug("appended sealed segment", "stream", base, "path", segPath, "bytes", bytes)
	e.metrics.SegmentsAppended.WithLabelValues(base).Inc()
	return true
}

// settleMarker handles a settle marker event: shift the ring if a
// generation 0 is present, then delete the marker file. No bytes are
// ingested.
func (e *Engine) settleMarker(logger *slog.Logger, stream int, markerPath string) {
	base := e.registry.Base(stream)
	if pathExists(e.genPath(stream, 0)) {
		e.shift(logger, stream)
	}
	if err := os.Remove(markerPath); err != nil && !os.IsNotExist(err) {
		logger.Error("removing settle marker", "stream", base, "path", markerPath, "error", err)
		return
	}
	logger.Debug("settle marker handled", "stream", base)
}

// shift is Step B: under the generation lock, free the terminal slot
// and rename each present generation one slot forward, highest first
// so no slot is ever overwritten. Filling the terminal slot marks the
// stream pending and signals the compressor with one token.
//
// A rename failure mid-chain is logged and skipped: the ring is left
// in a legal partially-shifted state and the next event for the
// stream re-establishes it. Nothing here retries.
func (e *Engine) shift(logger *slog.Logger, stream int) {
	base := e.registry.Base(stream)
	newlyPending := false

	e.generationMu.Lock()
	terminal := e.genPath(stream, e.maxGenerations)
	if pathExists(terminal) {
		if err := os.Remove(terminal); err != nil {
			logger.Error("removing terminal generation", "stream", base, "path", terminal, "error", err)
		}
	}

	for k := e.maxGenerations - 1; k >= 0; k-- {
		from := e.genPath(stream, k)
		if !pathExists(from) {
			continue
		}
		to := e.genPath(stream, k+1)
		if err := os.Rename(from, to); err != nil {
			logger.Error("shifting generation", "stream", base, "from", from, "to", to, "error", err)
			continue
		}
		if k == e.maxGenerations-1 {
			state := &e.streams[stream]
			state.terminalPath = to
			if !state.pendingCompression {
				state.pendingCompression = true
				newlyPending = true
			}
		}
	}
	e.generationMu.Unlock()

	e.metrics.Shifts.WithLabelValues(base).Inc()

	if newlyPending {
		logger.Debug("terminal generation filled", "stream", base)
		select {
		case e.compressReady <- struct{}{}:
		default:
			// Capacity equals the registry size and tokens are
			// one-per-pending-stream, so this cannot fill.
			logger.Error("compression signal dropped", "stream", base)
		}
	}
}
