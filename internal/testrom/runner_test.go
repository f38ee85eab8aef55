package testrom

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// serialROM builds an image that prints msg over the serial port and then
// spins forever.
func serialROM(msg string) []byte {
	rom := make([]byte, 0x8000)
	pc := 0x0100
	emit := func(b ...byte) {
		copy(rom[pc:], b)
		pc += len(b)
	}
	for i := 0; i < len(msg); i++ {
		emit(0x3E, msg[i], 0xE0, 0x01) // LD A,c ; LDH (SB),A
		emit(0x3E, 0x81, 0xE0, 0x02)   // LD A,0x81 ; LDH (SC),A
	}
	emit(0x18, 0xFE) // JR -2
	return rom
}

func writeROM(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestRunImage(t *testing.T) {
	tests := []struct {
		name    string
		msg     string
		want    string
		success bool
	}{
		{"passed", "cpu ok\nPassed\n", "PASSED", true},
		{"failed", "Failed #3\n", "FAILED", false},
		{"both", "Passed? Failed\n", "FAILED", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := RunImage(serialROM(tt.msg), time.Second)
			if result.Error != nil {
				t.Fatalf("Error = %v", result.Error)
			}
			if got := result.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
			if result.IsSuccess() != tt.success {
				t.Errorf("IsSuccess() = %v, want %v", result.IsSuccess(), tt.success)
			}
			if result.Output != tt.msg {
				t.Errorf("Output = %q, want %q", result.Output, tt.msg)
			}
		})
	}
}

func TestRunImageTimeout(t *testing.T) {
	result := RunImage(serialROM(""), 20*time.Millisecond)
	if !result.Timeout {
		t.Fatalf("Timeout = false, want true (result %s)", result)
	}
	if got := result.String(); got != "TIMEOUT" {
		t.Errorf("String() = %q, want TIMEOUT", got)
	}
	if result.IsSuccess() {
		t.Error("IsSuccess() = true for a timeout")
	}
	if result.Frames == 0 {
		t.Error("Frames = 0, want the frames run before giving up")
	}
}

func TestRunImageTooSmall(t *testing.T) {
	result := RunImage(make([]byte, 16), time.Second)
	if result.Error == nil {
		t.Fatal("Error = nil, want a cartridge error")
	}
	if result.Timeout {
		t.Error("Timeout = true for a load error")
	}
}

func TestRun(t *testing.T) {
	path := writeROM(t, "pass.gb", serialROM("Passed\n"))
	if result := Run(path, time.Second); !result.IsSuccess() {
		t.Errorf("Run = %s, want PASSED", result)
	}
}

func TestRunCompressed(t *testing.T) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(serialROM("Passed\n")); err != nil {
		t.Fatalf("gzip write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip close: %v", err)
	}

	path := writeROM(t, "pass.gb.gz", buf.Bytes())
	if result := Run(path, time.Second); !result.IsSuccess() {
		t.Errorf("Run = %s, want PASSED", result)
	}
}

func TestRunMissingFile(t *testing.T) {
	result := Run(filepath.Join(t.TempDir(), "missing.gb"), time.Second)
	if result.Error == nil {
		t.Fatal("Error = nil, want a read error")
	}
	if got := result.String(); got[:6] != "ERROR:" {
		t.Errorf("String() = %q, want ERROR prefix", got)
	}
}
