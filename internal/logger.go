package internal

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

// logMu guards the level and output, which commands change while
// background effects are logging
var (
	logMu     sync.RWMutex
	logLevel            = LogLevelInfo
	logOutput io.Writer = os.Stderr
	logger              = newLogger(os.Stderr)
)

func newLogger(w io.Writer) zerolog.Logger {
	noColor := true
	if f, ok := w.(*os.File); ok {
		noColor = !isatty.IsTerminal(f.Fd())
	}
	out := zerolog.ConsoleWriter{Out: w, TimeFormat: time.DateTime, NoColor: noColor}
	return zerolog.New(out).With().Timestamp().Logger()
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logMu.Lock()
	defer logMu.Unlock()
	logLevel = level
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// SetLogOutput redirects log output and returns a func that restores the
// previous writer. The popup points it at a file or io.Discard so log
// lines do not tear the terminal UI; restore before closing that file.
func SetLogOutput(w io.Writer) (restore func()) {
	logMu.Lock()
	prev := logOutput
	logOutput = w
	logger = newLogger(w)
	logMu.Unlock()
	return func() { SetLogOutput(prev) }
}

// current returns the active logger and level
func current() (zerolog.Logger, LogLevel) {
	logMu.RLock()
	defer logMu.RUnlock()
	return logger, logLevel
}

// Logger returns a structured logger filtered at the current level
func Logger() zerolog.Logger {
	l, level := current()
	return l.Level(zerologLevel(level))
}

func zerologLevel(level LogLevel) zerolog.Level {
	switch level {
	case LogLevelError:
		return zerolog.ErrorLevel
	case LogLevelWarn:
		return zerolog.WarnLevel
	case LogLevelDebug:
		return zerolog.DebugLevel
	default:
		return zerolog.InfoLevel
	}
}

func logError(format string, args ...interface{}) {
	if l, level := current(); level >= LogLevelError {
		l.Error().Msgf(format, args...)
	}
}

func logWarn(format string, args ...interface{}) {
	if l, level := current(); level >= LogLevelWarn {
		l.Warn().Msgf(format, args...)
	}
}

func logInfo(format string, args ...interface{}) {
	if l, level := current(); level >= LogLevelInfo {
		l.Info().Msgf(format, args...)
	}
}

func logDebug(format string, args ...interface{}) {
	if l, level := current(); level >= LogLevelDebug {
		l.Debug().Msgf(format, args...)
	}
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logError(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logWarn(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logInfo(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logDebug(format, args...)
}
