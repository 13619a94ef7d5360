package scanner

import (
	"io"
	"os"
)

// DefaultMaxLineBytes is the longest log line a scan accepts.
const DefaultMaxLineBytes = 1 << 20

// Opener opens a device's log file.
type Opener func(path string) (io.ReadCloser, error)

func openFile(path string) (io.ReadCloser, error) {
	return os.Open(path) //nolint:gosec // path is operator-supplied
}

// Logger defines the logging interface used by the Scanner.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Option configures a Scanner.
type Option func(*Scanner)

// WithOpener replaces os.Open for reading log files.
func WithOpener(open Opener) Option {
	return func(s *Scanner) {
		s.open = open
	}
}

// WithSinks adds sinks that receive every finished scan.
func WithSinks(sinks ...ResultSink) Option {
	return func(s *Scanner) {
		s.sinks = append(s.sinks, sinks...)
	}
}

// WithOccurrenceSink sets the sink notified of each occurrence once a scan succeeds.
func WithOccurrenceSink(sink OccurrenceSink) Option {
	return func(s *Scanner) {
		s.occurrences = sink
	}
}

// WithLogger sets the scanner's logger.
func WithLogger(logger Logger) Option {
	return func(s *Scanner) {
		s.logger = logger
	}
}

// WithMaxLineBytes sets the longest accepted line. Values <= 0 keep the default.
func WithMaxLineBytes(n int) Option {
	return func(s *Scanner) {
		if n > 0 {
			s.maxLineBytes = n
		}
	}
}
