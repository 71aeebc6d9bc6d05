package capture

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestNewCameraReclaimer(t *testing.T) {
	r := NewCameraReclaimer()

	if len(r.Commands) == 0 {
		t.Fatal("camera reclaimer has no commands")
	}
	if r.Timeout != DefaultReclaimTimeout {
		t.Errorf("Timeout = %s, want %s", r.Timeout, DefaultReclaimTimeout)
	}
	for i, argv := range r.Commands {
		if len(argv) == 0 {
			t.Errorf("command %d is empty", i)
		}
	}
}

func TestCommandReclaimer_RunsAllCommands(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	marker := filepath.Join(t.TempDir(), "ran")
	r := &CommandReclaimer{
		Commands: [][]string{
			{"true"},
			{"touch", marker},
		},
		Timeout: 5 * time.Second,
	}

	if err := r.Reclaim(context.Background()); err != nil {
		t.Fatalf("Reclaim: %v", err)
	}
	if _, err := os.Stat(marker); err != nil {
		t.Errorf("second command did not run: %v", err)
	}
}

func TestCommandReclaimer_ContinuesPastFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	marker := filepath.Join(t.TempDir(), "ran")
	r := &CommandReclaimer{
		Commands: [][]string{
			{"false"},
			{"touch", marker},
		},
		Timeout: 5 * time.Second,
	}

	err := r.Reclaim(context.Background())
	if err == nil {
		t.Fatal("expected an error from the failing command")
	}
	if !strings.Contains(err.Error(), "false") {
		t.Errorf("error %q should name the failing command", err)
	}
	if _, statErr := os.Stat(marker); statErr != nil {
		t.Errorf("later command should still run after a failure: %v", statErr)
	}
}

func TestCommandReclaimer_TimesOut(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test")
	}

	r := &CommandReclaimer{
		Commands: [][]string{{"sleep", "5"}},
		Timeout:  100 * time.Millisecond,
	}

	start := time.Now()
	err := r.Reclaim(context.Background())
	elapsed := time.Since(start)

	if err == nil {
		t.Fatal("expected a timeout error")
	}
	if !strings.Contains(err.Error(), "timed out") {
		t.Errorf("error %q should mention the timeout", err)
	}
	if elapsed > 2*time.Second {
		t.Errorf("reclaim took %s, the timeout did not bound it", elapsed)
	}
}

func TestCommandReclaimer_SkipsEmptyCommands(t *testing.T) {
	r := &CommandReclaimer{
		Commands: [][]string{{}, nil},
		Timeout:  time.Second,
	}

	if err := r.Reclaim(context.Background()); err != nil {
		t.Errorf("empty commands should be skipped, got %v", err)
	}
}
