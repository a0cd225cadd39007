// Package obslog provides the package-level structured logger shared by
// every component on the subsystem's non-happy paths (forwarder failures,
// completion callbacks, kill/getpid). It wraps zerolog the way the teacher
// corpus's logger packages wrap it: one process-wide logger, configurable
// level and output, component-scoped via With().Str("component", ...).
package obslog

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/rs/zerolog"
)

var (
	mu     sync.RWMutex
	logger = zerolog.New(os.Stderr).With().Timestamp().Logger().Level(zerolog.InfoLevel)
)

// Configure sets the global level and output format. level is parsed with
// zerolog.ParseLevel; an unrecognized level falls back to Info. format
// "console" renders human-readable output, anything else stays JSON.
func Configure(level, format string) {
	mu.Lock()
	defer mu.Unlock()

	parsed, err := zerolog.ParseLevel(level)
	if err != nil {
		parsed = zerolog.InfoLevel
	}

	var out io.Writer = os.Stderr
	if strings.EqualFold(format, "console") {
		out = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	}

	logger = zerolog.New(out).With().Timestamp().Logger().Level(parsed)
}

// Component returns a logger scoped to the given component name.
func Component(name string) zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger.With().Str("component", name).Logger()
}
