package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"

	corelogger "github.com/kilianp07/berthplan/core/logger"
)

// Logger mirrors the core logger interface.
type Logger = corelogger.Logger

// NopLogger implements Logger with no-op methods.
type NopLogger struct{}

func (NopLogger) Debugf(string, ...any)         {}
func (NopLogger) Debugw(string, map[string]any) {}
func (NopLogger) Infof(string, ...any)          {}
func (NopLogger) Warnf(string, ...any)          {}
func (NopLogger) Errorf(string, ...any)         {}

// Options selects the output of loggers created after Configure.
type Options struct {
	// Format is "json" or "console". Empty means json, or console when
	// APP_ENV=dev.
	Format string
	// File, when set, receives a JSON copy of every entry, rotated at
	// MaxSizeMB.
	File      string
	MaxSizeMB int
}

var (
	mu  sync.RWMutex
	out io.Writer = defaultWriter()
)

func defaultWriter() io.Writer {
	if strings.EqualFold(os.Getenv("APP_ENV"), "dev") {
		return consoleWriter()
	}
	return os.Stdout
}

func consoleWriter() io.Writer {
	return zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
}

func output() io.Writer {
	mu.RLock()
	defer mu.RUnlock()
	return out
}

// Configure sets the output of new loggers. The returned closer releases the
// log file, if any.
func Configure(o Options) (io.Closer, error) {
	var w io.Writer
	switch strings.ToLower(o.Format) {
	case "":
		w = defaultWriter()
	case "json":
		w = os.Stdout
	case "console":
		w = consoleWriter()
	default:
		return nil, fmt.Errorf("unknown log format %q", o.Format)
	}
	var closer io.Closer = io.NopCloser(nil)
	if o.File != "" {
		lj := &lumberjack.Logger{Filename: o.File, MaxSize: o.MaxSizeMB, MaxBackups: 3}
		w = io.MultiWriter(w, lj)
		closer = lj
	}
	mu.Lock()
	out = w
	mu.Unlock()
	return closer, nil
}

// New returns a Logger for the given component.
func New(component string) Logger {
	return NewZerologLogger(component)
}

// SetLevel sets the minimum level for every logger. Accepted values are the
// zerolog level names; an empty string keeps the current level.
func SetLevel(level string) error {
	if strings.TrimSpace(level) == "" {
		return nil
	}
	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	return nil
}
