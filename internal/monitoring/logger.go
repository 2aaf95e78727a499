package monitoring

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

var logger = newConsoleLogger(os.Stderr)

// Logf is the package-level diagnostic logger. It defaults to an info-level
// zerolog console writer but may be replaced by SetLogger. Tests or
// production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = defaultLogf

func defaultLogf(format string, v ...interface{}) {
	logger.Info().Msgf(format, v...)
}

func newConsoleLogger(w io.Writer) zerolog.Logger {
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	if f, ok := w.(*os.File); !ok || f != os.Stderr {
		out.NoColor = true
	}
	return zerolog.New(out).Level(zerolog.InfoLevel).With().Timestamp().Logger()
}

// SetLogger replaces the package logger. Passing nil will set a no-op logger
// and silence the structured logger as well.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		logger = zerolog.Nop()
		return
	}
	Logf = f
}

// Snapshot captures the current loggers and returns a function that puts
// them back.
func Snapshot() (restore func()) {
	logf, l := Logf, logger
	return func() {
		Logf = logf
		logger = l
	}
}

// SetOutput sends both Logf and the structured logger to w.
func SetOutput(w io.Writer) {
	lvl := logger.GetLevel()
	logger = newConsoleLogger(w).Level(lvl)
	Logf = defaultLogf
}

// SetLevel changes the minimum level of the structured logger.
func SetLevel(level zerolog.Level) {
	logger = logger.Level(level)
}

// Logger returns the structured logger for events that carry fields.
func Logger() *zerolog.Logger {
	return &logger
}

// Debugf logs at debug level; it is dropped unless SetLevel enabled it.
func Debugf(format string, v ...interface{}) {
	logger.Debug().Msgf(format, v...)
}

// Warnf logs at warn level.
func Warnf(format string, v ...interface{}) {
	logger.Warn().Msgf(format, v...)
}
