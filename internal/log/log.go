// Package log provides the leveled logger shared by the emulator components.
package log

import (
	"fmt"
	"io"
	"strings"
	"sync"
)

// Level is the minimum severity a logger writes.
type Level uint8

// Log levels, lowest first.
const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

// String returns the tag printed in front of each entry.
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return fmt.Sprintf("LEVEL(%d)", uint8(l))
	}
}

// ParseLevel converts a level name (case-insensitive) to a Level.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

// Logger is implemented by every logger handed to the emulator.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

type logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// New returns a logger writing entries at or above level to out.
func New(out io.Writer, level Level) Logger {
	return &logger{out: out, level: level}
}

func (l *logger) log(level Level, format string, args ...interface{}) {
	if level < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "[%s]\t"+format+"\n", append([]interface{}{level}, args...)...)
}

func (l *logger) Debugf(format string, args ...interface{}) { l.log(LevelDebug, format, args...) }
func (l *logger) Infof(format string, args ...interface{})  { l.log(LevelInfo, format, args...) }
func (l *logger) Warnf(format string, args ...interface{})  { l.log(LevelWarn, format, args...) }
func (l *logger) Errorf(format string, args ...interface{}) { l.log(LevelError, format, args...) }
