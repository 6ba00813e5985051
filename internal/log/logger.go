package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger is the process-wide logger. It writes colored console output to
// stderr until Setup or Discard replaces it.
var Logger zerolog.Logger

var mu sync.Mutex

func init() {
	Logger = newConsole(os.Stderr, zerolog.InfoLevel)
	log.Logger = Logger
}

func newConsole(out io.Writer, level zerolog.Level) zerolog.Logger {
	output := zerolog.ConsoleWriter{
		Out:        out,
		TimeFormat: "15:04:05",
		NoColor:    out != os.Stderr && out != os.Stdout,
	}
	return zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Logger()
}

// ParseLevel maps a level name such as "debug" or "WARN" to a zerolog level.
// An empty name means info.
func ParseLevel(name string) (zerolog.Level, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return zerolog.InfoLevel, nil
	}
	lvl, err := zerolog.ParseLevel(name)
	if err != nil {
		return zerolog.NoLevel, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return lvl, nil
}

// Setup replaces the global logger with a console logger writing to out at
// the named level.
func Setup(out io.Writer, level string) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	mu.Lock()
	defer mu.Unlock()
	Logger = newConsole(out, lvl)
	log.Logger = Logger
	return nil
}

// Discard silences all logging. The terminal display uses it so log lines
// never land on top of the rendered screen.
func Discard() {
	mu.Lock()
	defer mu.Unlock()
	Logger = zerolog.Nop()
	log.Logger = Logger
}

// Info starts an info-level event.
func Info() *zerolog.Event {
	return Logger.Info()
}

// Error starts an error-level event.
func Error() *zerolog.Event {
	return Logger.Error()
}

// Warn starts a warning-level event.
func Warn() *zerolog.Event {
	return Logger.Warn()
}

// Debug starts a debug-level event.
func Debug() *zerolog.Event {
	return Logger.Debug()
}

// Fatal starts a fatal event; sending it exits the process.
func Fatal() *zerolog.Event {
	return Logger.Fatal()
}

// With returns a child logger carrying the given backend id, for code that
// logs several events about the same backend.
func With(backend string) zerolog.Logger {
	return Logger.With().Str("backend", backend).Logger()
}
