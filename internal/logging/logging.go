// Package logging configures the process-wide zerolog logger.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options selects the level and optional rotating log file.
type Options struct {
	Level string // ERROR, WARN, INFO, DEBUG or TRACE
	File  string // empty disables the file sink
}

// ParseLevel maps the LOG_LEVEL names onto zerolog levels. Unknown values
// fall back to info.
func ParseLevel(s string) zerolog.Level {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "ERROR":
		return zerolog.ErrorLevel
	case "WARN", "WARNING":
		return zerolog.WarnLevel
	case "DEBUG":
		return zerolog.DebugLevel
	case "TRACE":
		return zerolog.TraceLevel
	}
	return zerolog.InfoLevel
}

// Init installs the global logger: console on stderr, plus a rotating file
// when opts.File is set.
func Init(opts Options) {
	zerolog.SetGlobalLevel(ParseLevel(opts.Level))

	isTerminal := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	console := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
		NoColor:    !isTerminal,
	}

	var out io.Writer = console
	if opts.File != "" {
		file := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    16, // megabytes
			MaxBackups: 8,
			MaxAge:     90, // days
			Compress:   true,
		}
		out = zerolog.MultiLevelWriter(console, file)
	}

	log.Logger = zerolog.New(out).
		With().
		Timestamp().
		Logger()
}

// InitFromEnv reads LOG_LEVEL and LOG_FILE.
func InitFromEnv() {
	Init(Options{Level: os.Getenv("LOG_LEVEL"), File: os.Getenv("LOG_FILE")})
}
