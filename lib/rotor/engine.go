// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package rotor

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/logring/logring/lib/archive"
)

// Options configures an Engine. WatchDir, Registry, and Archiver are
// required; the rest have working zero-value defaults noted per field.
type Options struct {
	// WatchDir is the directory monitored for sealed segments. Must
	// exist and be a writable directory.
	WatchDir string

	// Registry is the ordered stream table.
	Registry *Registry

	// MaxGenerations is the ring depth N. Defaults to 5.
	MaxGenerations int

	// Archiver packages terminal rings.
	Archiver archive.Archiver

	// DeletePriorArchive removes a stream's previous archive when a
	// new one is produced.
	DeletePriorArchive bool

	// DeleteOriginals removes packaged generation files after a
	// successful archive.
	DeleteOriginals bool

	// ChecksumArchives writes a BLAKE3 digest sidecar for each
	// produced archive.
	ChecksumArchives bool

	// Logger receives engine log output. Defaults to slog.Default().
	Logger *slog.Logger

	// Metrics receives engine counters. Defaults to unregistered
	// instruments.
	Metrics *Metrics

	// Now supplies archive timestamps. Defaults to time.Now. Tests
	// inject a fixed clock to get predictable archive names.
	Now func() time.Time
}

// streamState is the per-stream rotation bookkeeping. terminalPath and
// pendingCompression are mutated only under the generation lock.
// lastArchivePath is owned by the compressor worker exclusively.
type streamState struct {
	terminalPath       string
	pendingCompression bool
	lastArchivePath    string
}

// Engine owns the two long-lived workers and every piece of state
// they share. Create with New, start with Start, stop by cancelling
// the context passed to Start, then Wait for the workers to drain.
type Engine struct {
	watchDir         string
	registry         *Registry
	maxGenerations   int
	archiver         archive.Archiver
	deletePrior      bool
	deleteOriginals  bool
	checksumArchives bool
	logger           *slog.Logger
	metrics          *Metrics
	now              func() time.Time

	// generationMu is the generation-namespace lock: the Step-B shift,
	// the compressor's packaging and cleanup, and all streamState
	// mutation happen under it. The Step-A ingest into generation 0
	// (rename or append) does not take it; that runs under watcherGate
	// only, so it never blocks on a compressor holding this lock.
	generationMu sync.Mutex

	// watcherGate fences event dispatch: the rotator holds it for the
	// whole handling of one event, the compressor takes it to settle
	// freshly-created generation 0 files after a compression without
	// interleaving with an event.
	watcherGate sync.Mutex

	// zipActive is set by the compressor around its work and read by
	// the rotator to choose append-vs-rotate without blocking on the
	// compressor.
	zipActive atomic.Bool

	// compressReady is the counting signal from rotator to
	// compressor: one token per newly terminal stream. Capacity
	// equals the registry size, which bounds the number of streams
	// that can be pending at once, so a send never drops.
	compressReady chan struct{}

	streams []streamState

	watcher *watcher
	ready   chan struct{}
	wg      sync.WaitGroup
}

// New validates options and builds an engine. No filesystem access
// happens here; Start performs the directory checks and inotify
// subscription.
func New(opts Options) (*Engine, error) {
	if opts.WatchDir == "" {
		return nil, fmt.Errorf("watch directory is required")
	}
	if opts.Registry == nil || opts.Registry.Len() == 0 {
		return nil, fmt.Errorf("a non-empty stream registry is required")
	}
	if opts.Archiver == nil {
		return nil, fmt.Errorf("an archiver is required")
	}
	if opts.MaxGenerations == 0 {
		opts.MaxGenerations = 5
	}
	if opts.MaxGenerations < 1 {
		return nil, fmt.Errorf("max generations must be >= 1, got %d", opts.MaxGenerations)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Metrics == nil {
		opts.Metrics = NewMetrics(nil)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	return &Engine{
		watchDir:         opts.WatchDir,
		registry:         opts.Registry,
		maxGenerations:   opts.MaxGenerations,
		archiver:         opts.Archiver,
		deletePrior:      opts.DeletePriorArchive,
		deleteOriginals:  opts.DeleteOriginals,
		checksumArchives: opts.ChecksumArchives,
		logger:           opts.Logger,
		metrics:          opts.Metrics,
		now:              opts.Now,
		compressReady:    make(chan struct{}, opts.Registry.Len()),
		streams:          make([]streamState, opts.Registry.Len()),
		ready:            make(chan struct{}),
	}, nil
}

// Start subscribes to the watch directory and launches the watcher,
// rotator, and compressor workers. It returns once all three have
// entered their loops, so a caller that sees a nil error knows no
// event can be missed from here on. Errors are initialization
// failures; the engine is unusable after one.
func (e *Engine) Start(ctx context.Context) error {
	info, err := os.Stat(e.watchDir)
	if err != nil {
		return fmt.Errorf("watch directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("watch directory %s is not a directory", e.watchDir)
	}

	w, err := newWatcher(e.watchDir, e.logger.With("component", "watcher"))
	if err != nil {
		return fmt.Errorf("subscribing to %s: %w", e.watchDir, err)
	}
	e.watcher = w

	events := make(chan string, 64)
	entered := make(chan struct{}, 3)

	e.wg.Add(3)
	go func() {
		defer e.wg.Done()
		entered <- struct{}{}
		w.run(ctx, events)
	}()
	go func() {
		defer e.wg.Done()
		entered <- struct{}{}
		e.rotate(ctx, events)
	}()
	go func() {
		defer e.wg.Done()
		entered <- struct{}{}
		e.compress(ctx)
	}()

	for i := 0; i < 3; i++ {
		<-entered
	}
	close(e.ready)

	e.logger.Info("engine started",
		"watch_dir", e.watchDir,
		"streams", e.registry.Len(),
		"max_generations", e.maxGenerations)
	return nil
}

// Ready returns a channel closed once all workers have entered their
// loops.
func (e *Engine) Ready() <-chan struct{} { return e.ready }

// Wait blocks until every worker has exited. Call after cancelling
// the Start context.
func (e *Engine) Wait() { e.wg.Wait() }

// stemPath returns <watch_dir>/<base> for the stream at index i.
func (e *Engine) stemPath(i int) string {
	return filepath.Join(e.watchDir, e.registry.Base(i))
}

// genPath returns the generation slot path <watch_dir>/<base>.log.<k>.
func (e *Engine) genPath(i, k int) string {
	return fmt.Sprintf("%s.log.%d", e.stemPath(i), k)
}

// pathExists reports whether path exists. Errors other than not-exist
// read as existing, which keeps the rotation conservative: a slot we
// cannot stat is a slot we must not overwrite silently.
func pathExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
