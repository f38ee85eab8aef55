// Package testrom runs test ROMs that report their verdict over the serial
// port and classifies the result.
package testrom

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richardwooding/dmgcore/internal/cartridge"
	"github.com/richardwooding/dmgcore/internal/emulator"
)

// Result represents the result of running a test ROM.
type Result struct {
	Output  string
	Passed  bool
	Failed  bool
	Timeout bool
	Frames  uint64
	Error   error
}

// Run loads a ROM image from disk and runs it until it reports a verdict or
// the timeout expires.
func Run(romPath string, timeout time.Duration, opts ...emulator.Option) *Result {
	data, err := cartridge.LoadFile(romPath)
	if err != nil {
		return &Result{Error: fmt.Errorf("failed to read ROM: %w", err)}
	}
	return RunImage(data, timeout, opts...)
}

// RunImage runs an in-memory ROM image.
func RunImage(data []byte, timeout time.Duration, opts ...emulator.Option) *Result {
	result := &Result{}

	emu, err := emulator.New(data, opts...)
	if err != nil {
		result.Error = fmt.Errorf("failed to create emulator: %w", err)
		return result
	}

	output, err := emu.RunUntilOutput(timeout)
	result.Output = output
	result.Frames = emu.PPU.Frames()

	if err != nil {
		if errors.Is(err, emulator.ErrTimeout) {
			result.Timeout = true
		}
		result.Error = err
		return result
	}

	// "Failed" wins when both strings are present.
	result.Failed = strings.Contains(output, "Failed")
	result.Passed = strings.Contains(output, "Passed") && !result.Failed

	return result
}

// String returns a human-readable representation of the result.
func (r *Result) String() string {
	if r.Error != nil && !r.Timeout {
		return fmt.Sprintf("ERROR: %v", r.Error)
	}

	if r.Timeout {
		return "TIMEOUT"
	}

	if r.Passed {
		return "PASSED"
	}

	if r.Failed {
		return "FAILED"
	}

	return "UNKNOWN"
}

// IsSuccess returns true if the test passed.
func (r *Result) IsSuccess() bool {
	return r.Passed && !r.Failed && r.Error == nil
}
