// Copyright 2026 The Logring Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecArchiver packages by invoking an external tar-compatible binary:
//
//	<command> -czf <archivePath> -C <dir> <members...>
//
// Success is exit status zero. The child's stderr is captured and
// folded into the returned error so a packaging failure produces one
// self-contained log line.
type ExecArchiver struct {
	// Command is the packager binary, resolved via PATH unless
	// absolute. Typically "tar".
	Command string
}

// Create implements [Archiver].
func (a *ExecArchiver) Create(ctx context.Context, archivePath, dir string, members []string) error {
	if len(members) == 0 {
		return fmt.Errorf("no members to package into %s", archivePath)
	}

	args := append([]string{"-czf", archivePath, "-C", dir}, members...)
	cmd := exec.CommandContext(ctx, a.Command, args...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if exitErr, ok := err.(*exec.ExitError); ok {
			if detail != "" {
				return fmt.Errorf("%s exited %d: %s", a.Command, exitErr.ExitCode(), detail)
			}
			return fmt.Errorf("%s exited %d", a.Command, exitErr.ExitCode())
		}
		return fmt.Errorf("running %s: %w", a.Command, err)
	}
	return nil
}
