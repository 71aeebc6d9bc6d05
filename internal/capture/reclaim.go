package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"time"
)

// DefaultReclaimTimeout bounds each individual reclaim command.
const DefaultReclaimTimeout = 5 * time.Second

// Reclaimer frees a contended device before open. Implementations are
// best-effort: the returned error is for logging only, and Reclaim must
// return within its own bounded time so it can never deadlock an open call.
type Reclaimer interface {
	Reclaim(ctx context.Context) error
}

// CommandReclaimer evicts device holders by running a fixed command list,
// each bounded by Timeout. Command failures are collected, not fatal; a
// missing service or an empty process match is the common case.
type CommandReclaimer struct {
	Commands [][]string
	Timeout  time.Duration
}

// NewCameraReclaimer returns the reclaim sequence for the camera: stop the
// display manager that autostarts a preview, then kill stale pipeline
// holders.
func NewCameraReclaimer() *CommandReclaimer {
	return &CommandReclaimer{
		Commands: [][]string{
			{"systemctl", "stop", "lightdm"},
			{"pkill", "-9", "-f", "mipi"},
			{"pkill", "-9", "-f", "cam"},
		},
		Timeout: DefaultReclaimTimeout,
	}
}

// Reclaim runs each command in order. Every command gets its own timeout;
// the joined error reports which ones failed.
func (r *CommandReclaimer) Reclaim(ctx context.Context) error {
	timeout := r.Timeout
	if timeout <= 0 {
		timeout = DefaultReclaimTimeout
	}

	var errs []error
	for _, argv := range r.Commands {
		if len(argv) == 0 {
			continue
		}
		if err := runCommand(ctx, timeout, argv); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", argv[0], err))
		}
	}
	return errors.Join(errs...)
}

// runCommand executes one argv with a deadline, capturing stderr for the
// error message.
func runCommand(ctx context.Context, timeout time.Duration, argv []string) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("timed out after %s", timeout)
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return fmt.Errorf("%w: %s", err, s)
		}
		return err
	}
	return nil
}
