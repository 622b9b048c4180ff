package indicator

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// sysfsLEDRoot is where the kernel LED class exposes devices.
const sysfsLEDRoot = "/sys/class/leds"

// SysfsLED drives a kernel LED class device through its brightness
// attribute.
type SysfsLED struct {
	// Path is the brightness attribute path.
	Path string
}

var _ Output = (*SysfsLED)(nil)

// NewSysfsLED returns an output for the named LED, e.g. "status" for
// /sys/class/leds/status/brightness.
func NewSysfsLED(name string) *SysfsLED {
	return &SysfsLED{Path: filepath.Join(sysfsLEDRoot, name, "brightness")}
}

// Set implements Output.
func (l *SysfsLED) Set(on bool) error {
	v := []byte("0")
	if on {
		v = []byte("1")
	}
	if err := os.WriteFile(l.Path, v, 0644); err != nil {
		return fmt.Errorf("led write: %w", err)
	}
	return nil
}

// SimOutput is an in-memory Output for tests and the device simulator.
type SimOutput struct {
	mu sync.Mutex

	level       bool
	sets        int
	transitions int

	// FailSet, when non-nil, is returned by every Set call.
	FailSet error
}

var _ Output = (*SimOutput)(nil)

// NewSimOutput returns an output that starts dark.
func NewSimOutput() *SimOutput {
	return &SimOutput{}
}

// Set implements Output.
func (o *SimOutput) Set(on bool) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.FailSet != nil {
		return o.FailSet
	}
	if on != o.level {
		o.transitions++
	}
	o.level = on
	o.sets++
	return nil
}

// Level returns the current output level.
func (o *SimOutput) Level() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.level
}

// Sets returns how many writes the output received.
func (o *SimOutput) Sets() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.sets
}

// Transitions returns how many writes changed the level.
func (o *SimOutput) Transitions() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.transitions
}
