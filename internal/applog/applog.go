// Package applog wires zerolog into the core, replacing the teacher's
// log.Printf debug hooks with structured fields. Field names mirror the
// ones the original Rust core logs via tracing: job_event, job_id,
// job_kind, percent, items_done, items_total, bytes_done, bytes_total,
// error_code, retry_hint, error_message.
package applog

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Logger is a thin alias so callers don't import zerolog directly.
type Logger = zerolog.Logger

var base Logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}).With().Timestamp().Logger()

// Named returns a child logger tagged with a package name in its "pkg"
// field. Only the filter's default level (applied by Init) governs it; the
// filter's per-package entries are not applied to named loggers.
func Named(name string) Logger {
	return base.With().Str("pkg", name).Logger()
}

// Init rebinds the base logger's destination and applies a parsed filter's
// default level. Call once from cmd/twinfm before constructing any
// component loggers.
func Init(out io.Writer, filter *Filter) {
	level := zerolog.InfoLevel
	if filter != nil {
		level = filter.Default
	}
	base = zerolog.New(zerolog.ConsoleWriter{Out: out, TimeFormat: "15:04:05"}).Level(level).With().Timestamp().Logger()
}

// Filter is the parsed form of the RUST_LOG-style `<name>=<level>,...`
// environment variable described in spec §6, defaulting to "rc=info,warn".
type Filter struct {
	Default zerolog.Level
	PerPkg  map[string]zerolog.Level
}

// ParseFilter parses a value like "rc=info,warn" or "jobs=debug,background=warn,info".
// A bare level with no "name=" prefix sets the default level for any
// package not otherwise named. Unrecognized level names are ignored rather
// than failing, matching the "never fail loading" texture of the other
// config parsers in this module.
func ParseFilter(spec string) *Filter {
	f := &Filter{Default: zerolog.InfoLevel, PerPkg: map[string]zerolog.Level{}}
	if spec == "" {
		return f
	}
	for _, part := range strings.Split(spec, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if name, lvl, ok := strings.Cut(part, "="); ok {
			level, err := zerolog.ParseLevel(strings.TrimSpace(lvl))
			if err != nil {
				continue
			}
			f.PerPkg[strings.TrimSpace(name)] = level
			continue
		}
		level, err := zerolog.ParseLevel(part)
		if err != nil {
			continue
		}
		f.Default = level
	}
	return f
}

// LevelFor resolves the effective level for a named package, falling back
// to the filter's default.
func (f *Filter) LevelFor(name string) zerolog.Level {
	if f == nil {
		return zerolog.InfoLevel
	}
	if lvl, ok := f.PerPkg[name]; ok {
		return lvl
	}
	return f.Default
}

// DefaultFilterSpec is the spec §6 default: "rc=info,warn".
const DefaultFilterSpec = "rc=info,warn"
