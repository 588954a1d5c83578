// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/logring/logring/lib/archive"
)

// discardLogger silences engine output in tests.
func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testClock returns an injectable clock that advances one second per
// call, so consecutive archives get distinct timestamped names.
func testClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2026, 8, 5, 10, 0, 0, 0, time.Local)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

// newTestEngine builds an unstarted engine over dir with the default
// registry, ring depth 5, and the native packager. Tests drive the
// worker methods directly; engine_test.go covers the started path.
func newTestEngine(t *testing.T, dir string) *Engine {
	t.Helper()
	engine, err := New(Options{
		WatchDir:           dir,
		Registry:           defaultTestRegistry(),
		Archiver:           &archive.NativeArchiver{},
		DeletePriorArchive: true,
		DeleteOriginals:    true,
		Logger:             discardLogger(),
		Now:                testClock(),
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return engine
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading %s: %v", path, err)
	}
	return string(data)
}

func TestShiftChain(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	for k := 0; k <= 2; k++ {
		writeFile(t, engine.genPath(0, k), "gen")
	}

	engine.shift(discardLogger(), 0)

	if pathExists(engine.genPath(0, 0)) {
		t.Error("log.0 still present after shift")
	}
	for k := 1; k <= 3; k++ {
		if !pathExists(engine.genPath(0, k)) {
			t.Errorf("log.%d missing after shift", k)
		}
	}
	if pathExists(engine.genPath(0, 4)) {
		t.Error("log.4 present after shift of a three-slot ring")
	}
	if engine.streams[0].pendingCompression {
		t.Error("pendingCompression set without filling the terminal slot")
	}
}

func TestShiftPreservesContent(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	writeFile(t, engine.genPath(0, 0), "newest")
	writeFile(t, engine.genPath(0, 1), "older")

	engine.shift(discardLogger(), 0)

	if got := readFile(t, engine.genPath(0, 1)); got != "newest" {
		t.Errorf("log.1 = %q, want %q", got, "newest")
	}
	if got := readFile(t, engine.genPath(0, 2)); got != "older" {
		t.Errorf("log.2 = %q, want %q", got, "older")
	}
}

func TestShiftFillsTerminal(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	for k := 0; k <= 4; k++ {
		writeFile(t, engine.genPath(0, k), "gen")
	}

	engine.shift(discardLogger(), 0)

	if !pathExists(engine.genPath(0, 5)) {
		t.Fatal("terminal slot log.5 not filled")
	}
	state := engine.streams[0]
	if !state.pendingCompression {
		t.Error("pendingCompression not set after terminal fill")
	}
	if state.terminalPath != engine.genPath(0, 5) {
		t.Errorf("terminalPath = %q, want %q", state.terminalPath, engine.genPath(0, 5))
	}
	select {
	case <-engine.compressReady:
	default:
		t.Error("no compression token signalled after terminal fill")
	}
}

func TestShiftRemovesStaleTerminal(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	writeFile(t, engine.genPath(0, 5), "stale terminal")
	writeFile(t, engine.genPath(0, 0), "fresh")

	engine.shift(discardLogger(), 0)

	if got := readFile(t, engine.genPath(0, 1)); got != "fresh" {
		t.Errorf("log.1 = %q, want %q", got, "fresh")
	}
	if pathExists(engine.genPath(0, 5)) {
		t.Error("stale terminal generation survived the shift")
	}
}

func TestShiftSignalsOncePerPendingStream(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	for k := 0; k <= 4; k++ {
		writeFile(t, engine.genPath(0, k), "gen")
	}
	engine.shift(discardLogger(), 0)

	// A second terminal fill while still pending must not queue a
	// second token.
	for k := 0; k <= 4; k++ {
		writeFile(t, engine.genPath(0, k), "gen2")
	}
	engine.shift(discardLogger(), 0)

	tokens := 0
	for {
		select {
		case <-engine.compressReady:
			tokens++
			continue
		default:
		}
		break
	}
	if tokens != 1 {
		t.Errorf("queued %d compression tokens, want 1", tokens)
	}
}

func TestIngestRenamesAndShifts(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	sealed := filepath.Join(dir, "ipstrc.100.bak")
	writeFile(t, sealed, "segment bytes")

	engine.ingest(discardLogger(), 0, "ipstrc.100.bak")

	if pathExists(sealed) {
		t.Error("sealed segment still present after ingest")
	}
	if got := readFile(t, engine.genPath(0, 1)); got != "segment bytes" {
		t.Errorf("log.1 = %q, want the segment bytes", got)
	}
	if pathExists(engine.genPath(0, 0)) {
		t.Error("log.0 present after a full ingest cycle")
	}
}

func TestIngestAppendsOntoLingeringG0(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	// A partial shift failure can leave slot 0 occupied at rest. The
	// next ingest must keep those bytes, not rename over them.
	writeFile(t, engine.genPath(0, 0), "lingering|")
	sealed := filepath.Join(dir, "ipstrc.150.bak")
	writeFile(t, sealed, "next segment")

	engine.ingest(discardLogger(), 0, "ipstrc.150.bak")

	if pathExists(sealed) {
		t.Error("sealed segment still present after ingest")
	}
	if got := readFile(t, engine.genPath(0, 1)); got != "lingering|next segment" {
		t.Errorf("log.1 = %q, want lingering bytes followed by the segment", got)
	}
	if pathExists(engine.genPath(0, 0)) {
		t.Error("log.0 present after a full ingest cycle")
	}
}

func TestIngestVanishedSegment(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	engine.ingest(discardLogger(), 0, "ipstrc.100.bak")

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("ingest of a vanished segment created %d files", len(entries))
	}
}

func TestIngestAppendsDuringCompression(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	writeFile(t, engine.genPath(0, 0), "first ")
	sealed := filepath.Join(dir, "ipstrc.200.bak")
	writeFile(t, sealed, "second")

	engine.zipActive.Store(true)
	engine.ingest(discardLogger(), 0, "ipstrc.200.bak")

	if got := readFile(t, engine.genPath(0, 0)); got != "first second" {
		t.Errorf("log.0 = %q, want appended order preserved", got)
	}
	if pathExists(sealed) {
		t.Error("sealed segment not removed after append")
	}
	if pathExists(engine.genPath(0, 1)) {
		t.Error("ring shifted during active compression")
	}
}

func TestIngestStagesDuringCompressionWithoutG0(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	sealed := filepath.Join(dir, "ipstrc.300.bak")
	writeFile(t, sealed, "staged")

	engine.zipActive.Store(true)
	engine.ingest(discardLogger(), 0, "ipstrc.300.bak")

	if got := readFile(t, engine.genPath(0, 0)); got != "staged" {
		t.Errorf("log.0 = %q, want %q", got, "staged")
	}
	if pathExists(engine.genPath(0, 1)) {
		t.Error("ring shifted during active compression")
	}
}

func TestSettleMarkerShiftsAndDeletes(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	writeFile(t, engine.genPath(0, 0), "staged content")
	marker := filepath.Join(dir, "ipstrc.dummy.bak")
	writeFile(t, marker, "")

	engine.ingest(discardLogger(), 0, "ipstrc.dummy.bak")

	if pathExists(marker) {
		t.Error("settle marker not deleted")
	}
	if got := readFile(t, engine.genPath(0, 1)); got != "staged content" {
		t.Errorf("log.1 = %q, want the staged content", got)
	}
	if pathExists(engine.genPath(0, 0)) {
		t.Error("log.0 still present after marker settle")
	}
}

func TestSettleMarkerWithoutG0JustDeletes(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	marker := filepath.Join(dir, "ipstrc.dummy.bak")
	writeFile(t, marker, "")

	engine.ingest(discardLogger(), 0, "ipstrc.dummy.bak")

	if pathExists(marker) {
		t.Error("settle marker not deleted")
	}
	if pathExists(engine.genPath(0, 1)) {
		t.Error("marker settle invented a generation")
	}
}

func TestIngestStreamIsolation(t *testing.T) {
	dir := t.TempDir()
	engine := newTestEngine(t, dir)

	writeFile(t, engine.genPath(1, 0), "pdtrc gen")
	sealed := filepath.Join(dir, "ipstrc.400.bak")
	writeFile(t, sealed, "ipstrc segment")

	engine.ingest(discardLogger(), 0, "ipstrc.400.bak")

	if got := readFile(t, engine.genPath(1, 0)); got != "pdtrc gen" {
		t.Errorf("pdtrc log.0 = %q, altered by an ipstrc ingest", got)
	}
	if pathExists(engine.genPath(1, 1)) {
		t.Error("pdtrc ring shifted by an ipstrc ingest")
	}
}
