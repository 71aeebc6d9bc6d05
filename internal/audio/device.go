// Package audio plays and records WAV clips through the board's ALSA
// command-line utilities. The sound device is a contended single-holder
// resource, so every operation first evicts stale holders of /dev/snd.
package audio

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"
)

// EvictTimeout bounds the holder lookup during device eviction.
const EvictTimeout = 5 * time.Second

// Default stream parameters for the on-board codec. Card and device numbers
// have no package default: zero is a valid id, so they pass through as
// configured.
const (
	DefaultChannels     = 4
	DefaultSampleRate   = 48000
	DefaultBits         = 16
	DefaultFragments    = 4
	DefaultFragmentSize = 512
)

// Config holds the fixed parameters passed to the playback and capture
// tools.
type Config struct {
	Card           int
	PlaybackDevice int
	CaptureDevice  int
	Channels       int
	SampleRate     int
	Bits           int
	Fragments      int
	FragmentSize   int

	// Tinyplay and Tinycap name the tool binaries; bare names resolve
	// against PATH.
	Tinyplay string
	Tinycap  string

	// DeviceGlob matches the sound device nodes checked for stale
	// holders before each operation.
	DeviceGlob string
}

// withDefaults fills zero fields with the package defaults.
func (c Config) withDefaults() Config {
	if c.Channels <= 0 {
		c.Channels = DefaultChannels
	}
	if c.SampleRate <= 0 {
		c.SampleRate = DefaultSampleRate
	}
	if c.Bits <= 0 {
		c.Bits = DefaultBits
	}
	if c.Fragments <= 0 {
		c.Fragments = DefaultFragments
	}
	if c.FragmentSize <= 0 {
		c.FragmentSize = DefaultFragmentSize
	}
	if c.Tinyplay == "" {
		c.Tinyplay = "tinyplay"
	}
	if c.Tinycap == "" {
		c.Tinycap = "tinycap"
	}
	if c.DeviceGlob == "" {
		c.DeviceGlob = "/dev/snd/*"
	}
	return c
}

// Runner executes external commands. The production runner shells out; tests
// inject a fake to script tool behaviour.
type Runner interface {
	// Run executes argv for effect, returning an error that includes
	// captured stderr on failure.
	Run(ctx context.Context, argv []string) error

	// Output executes argv and returns its stdout.
	Output(ctx context.Context, argv []string) (string, error)
}

// Device drives one sound card through tinyplay and tinycap. Play and Record
// block until the tool exits; bound them with the caller's context.
type Device struct {
	config Config
	runner Runner
}

// New creates a Device for the configured card.
func New(config Config) *Device {
	return &Device{
		config: config.withDefaults(),
		runner: execRunner{},
	}
}

// DeviceError reports a failed operation against the sound hardware.
type DeviceError struct {
	Op   string
	Path string
	Err  error
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *DeviceError) Unwrap() error {
	return e.Err
}

// Play plays the WAV file at path through the playback device, blocking
// until playback completes.
func (d *Device) Play(ctx context.Context, path string) error {
	d.evict(ctx)

	argv := []string{
		d.config.Tinyplay, path,
		"-D", strconv.Itoa(d.config.Card),
		"-d", strconv.Itoa(d.config.PlaybackDevice),
	}
	if err := d.runner.Run(ctx, argv); err != nil {
		return &DeviceError{Op: "play", Path: path, Err: err}
	}
	return nil
}

// Record captures duration of audio from the capture device into the WAV
// file at path, blocking for the full duration. Durations round up to whole
// seconds, the finest granularity the capture tool accepts.
func (d *Device) Record(ctx context.Context, path string, duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("record %s: non-positive duration %s", path, duration)
	}
	seconds := int(math.Ceil(duration.Seconds()))

	d.evict(ctx)

	argv := []string{
		d.config.Tinycap, path,
		"-D", strconv.Itoa(d.config.Card),
		"-d", strconv.Itoa(d.config.CaptureDevice),
		"-c", strconv.Itoa(d.config.Channels),
		"-r", strconv.Itoa(d.config.SampleRate),
		"-b", strconv.Itoa(d.config.Bits),
		"-p", strconv.Itoa(d.config.FragmentSize),
		"-n", strconv.Itoa(d.config.Fragments),
		"-t", strconv.Itoa(seconds),
	}
	if err := d.runner.Run(ctx, argv); err != nil {
		return &DeviceError{Op: "record", Path: path, Err: err}
	}
	return nil
}

// evict force-kills any process holding a sound device node. Eviction is
// best-effort hygiene: every failure is logged and swallowed, the following
// tool invocation decides whether the device is actually usable.
func (d *Device) evict(ctx context.Context) {
	nodes, err := filepath.Glob(d.config.DeviceGlob)
	if err != nil || len(nodes) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(ctx, EvictTimeout)
	defer cancel()

	out, err := d.runner.Output(ctx, append([]string{"lsof"}, nodes...))
	if err != nil {
		// lsof exits non-zero when nothing holds the device.
		slog.Debug("audio holder lookup returned nothing", "err", err)
		return
	}

	pids := parseHolderPIDs(out)
	if len(pids) == 0 {
		return
	}

	slog.Info("evicting audio device holders", "pids", pids)
	argv := []string{"kill", "-9"}
	for _, pid := range pids {
		argv = append(argv, strconv.Itoa(pid))
	}
	if err := d.runner.Run(ctx, argv); err != nil {
		slog.Warn("audio holder eviction failed", "err", err)
	}
}

// parseHolderPIDs extracts the distinct PID column values from lsof output,
// skipping the daemon's own process.
func parseHolderPIDs(out string) []int {
	self := os.Getpid()
	seen := make(map[int]bool)

	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[1])
		if err != nil || pid == self {
			continue
		}
		seen[pid] = true
	}

	pids := make([]int, 0, len(seen))
	for pid := range seen {
		pids = append(pids, pid)
	}
	sort.Ints(pids)
	return pids
}
