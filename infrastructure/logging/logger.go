// Package logging writes droid's structured logs through bolt.
package logging

import (
	"io"
	"os"
	"sync/atomic"

	"github.com/felixgeelhaar/bolt/v3"

	domainconfig "github.com/felixgeelhaar/droid-go/domain/config"
)

// Config is the scenario's logging block plus the writer the CLI chose.
type Config struct {
	Level  string
	Format string
	Output io.Writer
}

// FromScenario turns a scenario logging block into a Config. Empty
// settings fall back to info and console.
func FromScenario(c domainconfig.LoggingConfig, out io.Writer) Config {
	cfg := Config{Level: c.Level, Format: c.Format, Output: out}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "console"
	}
	return cfg
}

var levels = map[string]bolt.Level{
	"trace": bolt.TRACE,
	"debug": bolt.DEBUG,
	"info":  bolt.INFO,
	"warn":  bolt.WARN,
	"error": bolt.ERROR,
}

// levelOf maps a scenario level name to bolt. Unknown names log at info;
// the scenario validator rejects them before a run starts.
func levelOf(name string) bolt.Level {
	if l, ok := levels[name]; ok {
		return l
	}
	return bolt.INFO
}

// New builds a logger. A nil Output writes to stderr.
func New(c Config) *bolt.Logger {
	out := c.Output
	if out == nil {
		out = os.Stderr
	}

	var h bolt.Handler = bolt.NewConsoleHandler(out)
	if c.Format == "json" {
		h = bolt.NewJSONHandler(out)
	}
	return bolt.New(h).SetLevel(levelOf(c.Level))
}

var process atomic.Pointer[bolt.Logger]

// Init installs the process logger. Every droid run calls it, so the
// latest scenario's settings win.
func Init(c Config) {
	process.Store(New(c))
}

// Get returns the process logger, installing a console logger at info
// on first use.
func Get() *bolt.Logger {
	if l := process.Load(); l != nil {
		return l
	}
	process.CompareAndSwap(nil, New(Config{}))
	return process.Load()
}

// Entry is a pending log line that droid fields are added to.
type Entry struct {
	ev *bolt.Event
}

// Add applies f and returns the entry for chaining.
func (e *Entry) Add(f Field) *Entry {
	e.ev = f(e.ev)
	return e
}

// Msg writes the line.
func (e *Entry) Msg(msg string) {
	e.ev.Msg(msg)
}

// Trace, Debug, Info, Warn and Error start an entry on the process logger.
func Trace() *Entry { return &Entry{ev: Get().Trace()} }
func Debug() *Entry { return &Entry{ev: Get().Debug()} }
func Info() *Entry  { return &Entry{ev: Get().Info()} }
func Warn() *Entry  { return &Entry{ev: Get().Warn()} }
func Error() *Entry { return &Entry{ev: Get().Error()} }
