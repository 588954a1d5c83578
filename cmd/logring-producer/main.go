// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

// Logring-producer generates synthetic trace traffic for exercising
// the rotation daemon. It runs one writer per stream, appending
// timestamped trace lines to <base>.log and sealing the file by
// atomic rename to <base>.<epoch>.bak whenever it outgrows the size
// limit — the exact contract the rotator expects from a real
// producer.
//
// This is a test and load harness, not part of the rotation engine.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/logring/logring/lib/process"
	"github.com/logring/logring/lib/version"
)

func main() {
	if err := run(); err != nil {
		process.Fatal(err)
	}
}

func run() error {
	var (
		dir         string
		streams     []string
		maxSize     int64
		interval    time.Duration
		showVersion bool
	)

	pflag.StringVar(&dir, "dir", "var/log", "directory to write active logs and sealed segments into")
	pflag.StringSliceVar(&streams, "streams", []string{"ipstrc", "pdtrc", "ipmgr", "inttrc"}, "stream base names to produce")
	pflag.Int64Var(&maxSize, "max-size", 10*1024, "seal the active file once it exceeds this many bytes")
	pflag.DurationVar(&interval, "interval", 10*time.Millisecond, "delay between trace lines per stream")
	pflag.BoolVar(&showVersion, "version", false, "print version information and exit")
	pflag.Parse()

	if showVersion {
		fmt.Printf("logring-producer %s\n", version.Info())
		return nil
	}
	if len(streams) == 0 {
		return fmt.Errorf("--streams must name at least one stream")
	}
	if maxSize < 1 {
		return fmt.Errorf("--max-size must be positive, got %d", maxSize)
	}
	if info, err := os.Stat(dir); err != nil {
		return fmt.Errorf("output directory: %w", err)
	} else if !info.IsDir() {
		return fmt.Errorf("output directory %s is not a directory", dir)
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup
	for _, base := range streams {
		writer := &streamWriter{
			dir:      dir,
			base:     base,
			maxSize:  maxSize,
			interval: interval,
			messages: messagesFor(base),
			logger:   logger.With("stream", base),
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer.run(ctx)
		}()
	}

	wg.Wait()
	return nil
}

// streamWriter produces trace lines for one stream and seals the
// active file at the size limit.
type streamWriter struct {
	dir      string
	base     string
	maxSize  int64
	interval time.Duration
	messages []string
	logger   *slog.Logger
}

// activePath is the producer-owned live file, <dir>/<base>.log.
func (w *streamWriter) activePath() string {
	return filepath.Join(w.dir, w.base+".log")
}

// run emits lines until the context is cancelled.
func (w *streamWriter) run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := w.emit(); err != nil {
				w.logger.Error("emitting trace line", "error", err)
			}
		}
	}
}

// emit appends one trace line to the active file and seals the file
// when it has outgrown the limit. Sealing is a single atomic rename,
// so the rotator observes the segment all-at-once via IN_MOVED_TO.
func (w *streamWriter) emit() error {
	path := w.activePath()

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening %s: %w", path, err)
	}
	if _, err := f.WriteString(traceLine(time.Now(), w.messages)); err != nil {
		f.Close()
		return fmt.Errorf("writing to %s: %w", path, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}

	if info.Size() <= w.maxSize {
		return nil
	}

	sealed := filepath.Join(w.dir, sealName(w.base, time.Now()))
	if err := os.Rename(path, sealed); err != nil {
		return fmt.Errorf("sealing %s: %w", path, err)
	}
	w.logger.Info("sealed segment", "path", sealed, "bytes", info.Size())
	return nil
}

// sealName composes the sealed-segment filename <base>.<epoch>.bak.
// The epoch token is nanoseconds so that two seals of one stream
// never reuse a name, and it contains no dots, per the rotator's
// producer contract.
func sealName(base string, now time.Time) string {
	return fmt.Sprintf("%s.%d.bak", base, now.UnixNano())
}

// logLevels are the levels trace lines cycle through, weighted toward
// the informational end like real trace output.
var logLevels = []string{"INFO", "INFO", "INFO", "WARN", "DEBUG", "ERROR"}

// traceLine renders one synthetic trace line. Message templates may
// carry one %d verb for a random value.
func traceLine(now time.Time, messages []string) string {
	level := logLevels[rand.Intn(len(logLevels))]
	message := messages[rand.Intn(len(messages))]
	if strings.Contains(message, "%d") {
		message = fmt.Sprintf(message, rand.Intn(1000))
	}
	return fmt.Sprintf("[%s] [%s] %s\n", now.Format("2006-01-02 15:04:05"), level, message)
}
