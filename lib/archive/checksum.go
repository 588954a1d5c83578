// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/zeebo/blake3"
)

// SidecarSuffix is appended to an archive path to form its digest
// sidecar filename.
const SidecarSuffix = ".b3"

// Digest returns the hex-encoded BLAKE3 digest of the file at path.
func Digest(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s for digest: %w", path, err)
	}
	defer f.Close()

	hasher := blake3.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// WriteSidecar computes the archive's BLAKE3 digest and records it in
// a sidecar file next to the archive, in the conventional
// "<digest>  <filename>" checksum format. Returns the digest.
func WriteSidecar(archivePath string) (string, error) {
	digest, err := Digest(archivePath)
	if err != nil {
		return "", err
	}
	line := fmt.Sprintf("%s  %s\n", digest, filepath.Base(archivePath))
	if err := os.WriteFile(archivePath+SidecarSuffix, []byte(line), 0o644); err != nil {
		return "", fmt.Errorf("writing digest sidecar: %w", err)
	}
	return digest, nil
}
