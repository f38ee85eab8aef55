package log

// nullLogger is a logger that does nothing.
type nullLogger struct{}

func (nullLogger) Debugf(string, ...interface{}) {}
func (nullLogger) Infof(string, ...interface{})  {}
func (nullLogger) Warnf(string, ...interface{})  {}
func (nullLogger) Errorf(string, ...interface{}) {}

// NewNullLogger returns a logger that discards everything.
func NewNullLogger() Logger {
	return nullLogger{}
}

// Once wraps a logger so that each distinct message key is only warned about
// the first time it is seen. Used for known gaps such as unemulated hardware.
type Once struct {
	Logger
	seen map[string]bool
}

// NewOnce returns a Once around l.
func NewOnce(l Logger) *Once {
	return &Once{Logger: l, seen: make(map[string]bool)}
}

// Warn logs a warning for key unless one was already logged.
func (o *Once) Warn(key, format string, args ...interface{}) {
	if o.seen[key] {
		return
	}
	o.seen[key] = true
	o.Warnf(format, args...)
}
