package util

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// ErrNoCommand is returned when an empty argv is executed.
var ErrNoCommand = errors.New("no command configured")

// waitDelay bounds how long Run waits for output pipes after the process
// is killed. A grandchild holding stdout open would otherwise outlive ctx.
const waitDelay = time.Second

// ExecWithOutputContext runs argv in workDir and returns trimmed stdout.
// If the command fails, stderr content is included in the error message.
// A command still running when ctx ends is killed and ctx's error is returned.
func ExecWithOutputContext(ctx context.Context, workDir string, argv ...string) (string, error) {
	if len(argv) == 0 || argv[0] == "" {
		return "", ErrNoCommand
	}
	c := exec.CommandContext(ctx, argv[0], argv[1:]...) //nolint:gosec // G204: argv comes from operator config
	c.Dir = workDir
	c.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	c.Stdout = &stdout
	c.Stderr = &stderr

	if err := c.Run(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", fmt.Errorf("%s: %w", argv[0], ctxErr)
		}
		errMsg := strings.TrimSpace(stderr.String())
		if errMsg != "" {
			return "", fmt.Errorf("%s", errMsg)
		}
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// ExecRunContext runs argv in workDir bounded by ctx, discarding stdout.
func ExecRunContext(ctx context.Context, workDir string, argv ...string) error {
	_, err := ExecWithOutputContext(ctx, workDir, argv...)
	return err
}
