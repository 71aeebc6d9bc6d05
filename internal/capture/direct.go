package capture

import (
	"bufio"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"gocv.io/x/gocv"
)

const (
	// shimStartTimeout bounds the sensor init handshake so a wedged MIPI
	// pipeline cannot stall open indefinitely.
	shimStartTimeout = 10 * time.Second

	// shimStopTimeout bounds teardown before the shim is killed outright.
	shimStopTimeout = 2 * time.Second
)

// directBackend reaches the MIPI pipeline through the vendor capture shim, a
// Python process that owns the direct-memory camera API. Settings go to the
// shim as one JSON line; each "next" request yields a 4-byte big-endian
// length-prefixed NV12 frame on stdout. A zero length is a transient miss.
type directBackend struct {
	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
	width  int
	height int
	broken bool
}

func newDirectBackend(config Config) (*directBackend, error) {
	scriptPath := findShimScript(config.ShimPath)
	if scriptPath == "" {
		return nil, fmt.Errorf("camera_service.py not found")
	}

	// The vendor capture API lives in the system Python, never a venv.
	cmd := exec.Command("python3", scriptPath)

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return nil, fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start capture shim: %w", err)
	}

	b := &directBackend{
		cmd:    cmd,
		stdin:  stdin,
		stdout: bufio.NewReader(stdout),
		width:  config.Width,
		height: config.Height,
	}

	settings, err := json.Marshal(map[string]int{
		"width":  config.Width,
		"height": config.Height,
		"fps":    config.FPS,
	})
	if err != nil {
		b.kill()
		return nil, fmt.Errorf("encode settings: %w", err)
	}
	if _, err := stdin.Write(append(settings, '\n')); err != nil {
		b.kill()
		return nil, fmt.Errorf("write settings: %w", err)
	}

	if err := b.awaitReady(); err != nil {
		b.kill()
		return nil, err
	}

	return b, nil
}

// awaitReady reads the shim's init handshake with a deadline. A non-ok status
// means the pipeline could not open at the requested geometry.
func (b *directBackend) awaitReady() error {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := b.stdout.ReadString('\n')
		ch <- result{line, err}
	}()

	timer := time.NewTimer(shimStartTimeout)
	defer timer.Stop()

	select {
	case r := <-ch:
		if r.err != nil {
			return fmt.Errorf("read shim handshake: %w", r.err)
		}
		var status struct {
			Status string `json:"status"`
			Error  string `json:"error"`
		}
		if err := json.Unmarshal([]byte(r.line), &status); err != nil {
			return fmt.Errorf("parse shim handshake: %w", err)
		}
		if status.Status != "ok" {
			return fmt.Errorf("shim init failed: %s", status.Error)
		}
		return nil
	case <-timer.C:
		return fmt.Errorf("shim handshake timed out after %s", shimStartTimeout)
	}
}

// Capture requests one frame and converts it from NV12 to BGR. Any protocol
// failure marks the backend broken; captures return nil from then on.
func (b *directBackend) Capture() *gocv.Mat {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.broken || b.cmd == nil {
		return nil
	}

	if _, err := io.WriteString(b.stdin, "next\n"); err != nil {
		b.fail()
		return nil
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(b.stdout, header); err != nil {
		b.fail()
		return nil
	}

	length := binary.BigEndian.Uint32(header)
	if length == 0 {
		// Transient miss; the sensor had no frame ready.
		return nil
	}
	if int(length) != NV12Size(b.width, b.height) {
		b.fail()
		return nil
	}

	payload := make([]byte, length)
	if _, err := io.ReadFull(b.stdout, payload); err != nil {
		b.fail()
		return nil
	}

	mat, err := NV12ToBGR(payload, b.width, b.height)
	if err != nil {
		return nil
	}
	return mat
}

// Release shuts the shim down, waiting briefly before killing it.
func (b *directBackend) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.cmd == nil {
		return nil
	}

	b.stdin.Close()

	done := make(chan error, 1)
	go func(cmd *exec.Cmd) { done <- cmd.Wait() }(b.cmd)

	var err error
	select {
	case err = <-done:
	case <-time.After(shimStopTimeout):
		b.cmd.Process.Kill()
		err = fmt.Errorf("capture shim did not exit within %s", shimStopTimeout)
		<-done
	}

	b.cmd = nil
	b.stdin = nil
	b.stdout = nil
	return err
}

func (b *directBackend) Kind() BackendKind {
	return DirectMemory
}

// fail marks the stream unusable and reaps the shim. Callers hold the mutex.
func (b *directBackend) fail() {
	b.broken = true
	b.kill()
}

func (b *directBackend) kill() {
	if b.cmd == nil {
		return
	}
	if b.stdin != nil {
		b.stdin.Close()
	}
	if b.cmd.Process != nil {
		b.cmd.Process.Kill()
		b.cmd.Wait()
	}
	b.cmd = nil
	b.stdin = nil
	b.stdout = nil
}

// findShimScript locates the capture shim. An explicit override wins;
// otherwise the usual install locations are searched.
func findShimScript(override string) string {
	if override != "" {
		if _, err := os.Stat(override); err == nil {
			return override
		}
		return ""
	}

	execPath, err := os.Executable()
	var execDir string
	if err == nil {
		execDir = filepath.Dir(execPath)
	}

	candidates := []string{
		"scripts/camera_service.py",
		"../scripts/camera_service.py",
		filepath.Join(execDir, "scripts/camera_service.py"),
		filepath.Join(os.Getenv("HOME"), ".mudra/scripts/camera_service.py"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			absPath, err := filepath.Abs(path)
			if err == nil {
				return absPath
			}
			return path
		}
	}
	return ""
}
