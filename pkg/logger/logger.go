package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Config holds logger configuration.
type Config struct {
	Level  string
	Pretty bool
}

var (
	global zerolog.Logger
	once   sync.Once
)

func init() {
	// Safe default before Init() is called.
	global = zerolog.New(os.Stdout).With().Timestamp().Logger()
}

// Init initialises the global logger. Call once at service startup.
func Init(cfg Config) {
	once.Do(func() {
		var w io.Writer = os.Stdout
		if cfg.Pretty {
			w = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.Kitchen}
		}
		global = zerolog.New(w).Level(parseLevel(cfg.Level)).With().Timestamp().Logger()
	})
}

// L returns the global logger.
func L() *zerolog.Logger {
	return &global
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}
