package logging

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"
)

// New builds the process logger. format is "console" or "json".
func New(w io.Writer, level, format string) (zerolog.Logger, error) {
	lvl, err := zerolog.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return zerolog.Nop(), fmt.Errorf("invalid LOG_LEVEL %q", level)
	}
	if lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}

	switch strings.ToLower(format) {
	case "", "console":
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	case "json":
	default:
		return zerolog.Nop(), fmt.Errorf("invalid LOG_FORMAT %q (want console or json)", format)
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Str("service", "trabook").Logger(), nil
}

// Install makes l the global logger and the fallback for zerolog.Ctx.
func Install(l zerolog.Logger) {
	zlog.Logger = l
	zerolog.DefaultContextLogger = &zlog.Logger
}
