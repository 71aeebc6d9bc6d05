package action

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
)

// runHookCommand is the production hook runner. The caller supplies the
// deadline; stderr is captured for the error message.
func runHookCommand(ctx context.Context, argv []string) error {
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	if ctx.Err() == context.DeadlineExceeded {
		return fmt.Errorf("%s timed out", argv[0])
	}
	if err != nil {
		if s := stderr.String(); s != "" {
			return fmt.Errorf("%w: %s", err, s)
		}
		return err
	}
	return nil
}
