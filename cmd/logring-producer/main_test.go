// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestSealNameShape(t *testing.T) {
	now := time.Date(2026, 8, 5, 10, 0, 0, 123456789, time.UTC)
	name := sealName("ipstrc", now)

	if !strings.HasPrefix(name, "ipstrc.") || !strings.HasSuffix(name, ".bak") {
		t.Fatalf("sealName = %q, want ipstrc.<epoch>.bak", name)
	}
	token := strings.TrimSuffix(strings.TrimPrefix(name, "ipstrc."), ".bak")
	if token == "" {
		t.Error("epoch token is empty")
	}
	if strings.Contains(token, ".") {
		t.Errorf("epoch token %q contains a dot", token)
	}
}

func TestSealNameUnique(t *testing.T) {
	a := sealName("pdtrc", time.Unix(0, 1))
	b := sealName("pdtrc", time.Unix(0, 2))
	if a == b {
		t.Errorf("sealName reused %q for distinct times", a)
	}
}

func TestTraceLineShape(t *testing.T) {
	now := time.Date(2026, 8, 5, 14, 30, 0, 0, time.UTC)
	line := traceLine(now, messagesFor("pdtrc"))

	if !strings.HasPrefix(line, "[2026-08-05 14:30:00] [") {
		t.Errorf("line %q does not start with the timestamp", line)
	}
	if !strings.HasSuffix(line, "\n") {
		t.Errorf("line %q is not newline terminated", line)
	}
	if strings.Contains(line, "%!") {
		t.Errorf("line %q carries a formatting error", line)
	}
}

func TestMessagesForKnownStreams(t *testing.T) {
	for _, base := range []string{"ipstrc", "pdtrc", "ipmgr", "inttrc", "other"} {
		if len(messagesFor(base)) == 0 {
			t.Errorf("messagesFor(%q) is empty", base)
		}
	}
}

func TestEmitSealsAtSizeLimit(t *testing.T) {
	dir := t.TempDir()
	writer := &streamWriter{
		dir:      dir,
		base:     "ipstrc",
		maxSize:  64,
		interval: time.Millisecond,
		messages: messagesFor("ipstrc"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	// Each line is well under the limit; emitting repeatedly must
	// eventually seal exactly once the active file outgrows it.
	var sealed []string
	for i := 0; i < 20; i++ {
		if err := writer.emit(); err != nil {
			t.Fatalf("emit %d: %v", i, err)
		}
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("ReadDir: %v", err)
		}
		sealed = sealed[:0]
		for _, entry := range entries {
			if strings.HasSuffix(entry.Name(), ".bak") {
				sealed = append(sealed, entry.Name())
			}
		}
		if len(sealed) > 0 {
			break
		}
	}
	if len(sealed) == 0 {
		t.Fatal("no sealed segment produced after 20 emits over a 64-byte limit")
	}

	info, err := os.Stat(filepath.Join(dir, sealed[0]))
	if err != nil {
		t.Fatalf("stat sealed segment: %v", err)
	}
	if info.Size() <= writer.maxSize {
		t.Errorf("sealed at %d bytes, below the %d-byte limit", info.Size(), writer.maxSize)
	}
}

func TestEmitKeepsWritingAfterSeal(t *testing.T) {
	dir := t.TempDir()
	writer := &streamWriter{
		dir:      dir,
		base:     "pdtrc",
		maxSize:  1, // every emit seals
		interval: time.Millisecond,
		messages: messagesFor("pdtrc"),
		logger:   slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := writer.emit(); err != nil {
		t.Fatalf("first emit: %v", err)
	}
	if err := writer.emit(); err != nil {
		t.Fatalf("emit after seal: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("ReadDir: %v", err)
	}
	bakCount := 0
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".bak") {
			bakCount++
		}
	}
	if bakCount != 2 {
		t.Errorf("found %d sealed segments, want 2", bakCount)
	}
}
