// Package logger owns the process-wide zerolog logger.
//
// main calls Init once; packages that are not handed a logger explicitly use
// Get or Component. Levels, lowest first: trace, debug, info, warn, error.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls logger behaviour at initialisation time.
type Options struct {
	// Level is the minimum level; unknown or empty values mean "info".
	Level string
	// Pretty switches to coloured console output for local development.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
	// Service, when set, is stamped on every entry as "service".
	Service string
}

var (
	mu       sync.Mutex
	instance *zerolog.Logger
)

// New builds a logger from opts without touching the process-wide one.
func New(opts Options) zerolog.Logger {
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	ctx := zerolog.New(out).
		Level(parseLevel(opts.Level)).
		With().
		Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	if opts.Pretty {
		ctx = ctx.Caller()
	}
	return ctx.Logger()
}

// Init installs the process-wide logger. Only the first call has an effect;
// later calls return the logger already installed.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		zerolog.TimeFieldFormat = time.RFC3339Nano
		l := New(opts)
		instance = &l
	}
	return *instance
}

// Get returns the process-wide logger. It panics before Init.
func Get() zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		panic("logger: Get() called before Init()")
	}
	return *instance
}

// Component returns a child logger tagged with the component name, e.g.
// "marketplace" or "dispatcher".
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the process-wide logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	instance = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "warning" {
		s = "warn"
	}
	lvl, err := zerolog.ParseLevel(s)
	if err != nil || lvl == zerolog.NoLevel {
		return zerolog.InfoLevel
	}
	return lvl
}
