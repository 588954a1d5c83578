// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDigestDeterministic(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a")
	pathB := filepath.Join(dir, "b")
	for _, p := range []string{pathA, pathB} {
		if err := os.WriteFile(p, []byte("same content"), 0o644); err != nil {
			t.Fatalf("writing %s: %v", p, err)
		}
	}

	digestA, err := Digest(pathA)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	digestB, err := Digest(pathB)
	if err != nil {
		t.Fatalf("Digest: %v", err)
	}
	if digestA != digestB {
		t.Errorf("digests differ for identical content: %s vs %s", digestA, digestB)
	}
	if len(digestA) != 64 {
		t.Errorf("digest length = %d hex chars, want 64", len(digestA))
	}
}

func TestDigestDistinguishesContent(t *testing.T) {
	dir := t.TempDir()
	pathA := filepath.Join(dir, "a")
	pathB := filepath.Join(dir, "b")
	os.WriteFile(pathA, []byte("one"), 0o644)
	os.WriteFile(pathB, []byte("two"), 0o644)

	digestA, _ := Digest(pathA)
	digestB, _ := Digest(pathB)
	if digestA == digestB {
		t.Error("digests identical for different content")
	}
}

func TestWriteSidecar(t *testing.T) {
	dir := t.TempDir()
	archivePath := filepath.Join(dir, "ipstrc.log_2026-08-05_10-00-00.tar.gz")
	if err := os.WriteFile(archivePath, []byte("pretend archive"), 0o644); err != nil {
		t.Fatalf("writing archive: %v", err)
	}

	digest, err := WriteSidecar(archivePath)
	if err != nil {
		t.Fatalf("WriteSidecar: %v", err)
	}

	data, err := os.ReadFile(archivePath + SidecarSuffix)
	if err != nil {
		t.Fatalf("reading sidecar: %v", err)
	}
	line := string(data)
	if !strings.HasPrefix(line, digest+"  ") {
		t.Errorf("sidecar %q does not start with the digest", line)
	}
	if !strings.Contains(line, filepath.Base(archivePath)) {
		t.Errorf("sidecar %q does not name the archive", line)
	}
}

func TestDigestMissingFile(t *testing.T) {
	if _, err := Digest(filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Fatal("Digest of a missing file succeeded, want error")
	}
}
