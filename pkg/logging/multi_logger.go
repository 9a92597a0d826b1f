package logging

import "errors"

// MultiLogger fans every call out to a fixed set of loggers, for
// example console output on stderr plus JSON Lines files.
type MultiLogger struct {
	loggers []Logger
}

// NewMultiLogger creates a logger that writes to all of loggers in
// order.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

func (m *MultiLogger) each(fn func(Logger)) {
	for _, l := range m.loggers {
		fn(l)
	}
}

func (m *MultiLogger) Info(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Info(msg, fields...) })
}

func (m *MultiLogger) Warn(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Warn(msg, fields...) })
}

func (m *MultiLogger) Error(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Error(msg, fields...) })
}

func (m *MultiLogger) Debug(msg string, fields ...Field) {
	m.each(func(l Logger) { l.Debug(msg, fields...) })
}

// LogIgnored forwards entry unchanged. Loggers without an ignored
// record sink drop it.
func (m *MultiLogger) LogIgnored(entry IgnoredRecordLog) {
	m.each(func(l Logger) { l.LogIgnored(entry) })
}

// WithFields derives every inner logger.
func (m *MultiLogger) WithFields(fields ...Field) Logger {
	derived := make([]Logger, 0, len(m.loggers))
	m.each(func(l Logger) { derived = append(derived, l.WithFields(fields...)) })
	return &MultiLogger{loggers: derived}
}

// Close closes every logger, even after a failure, and joins the
// errors.
func (m *MultiLogger) Close() error {
	var errs []error
	m.each(func(l Logger) {
		if err := l.Close(); err != nil {
			errs = append(errs, err)
		}
	})
	return errors.Join(errs...)
}
