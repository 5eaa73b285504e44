// Package diag is the diagnostics sink the dependency graph reports through.
//
// A Sink only records: it never panics and never returns an error, so graph
// code can report a malformed summary or a failed write and carry on with
// its own fallback.
package diag

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// Severity orders diagnostics from most to least severe.
type Severity int

const (
	Error Severity = iota
	Warning
	Remark
	Note
)

func (s Severity) String() string {
	switch s {
	case Error:
		return "error"
	case Warning:
		return "warning"
	case Remark:
		return "remark"
	case Note:
		return "note"
	default:
		return fmt.Sprintf("Severity(%d)", int(s))
	}
}

// Diagnostic is one reported message.
type Diagnostic struct {
	Severity Severity
	Message  string
	// Path is the file the message is about, if any.
	Path string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s", d.Severity, d.Message)
}

// Sink accepts diagnostics.
type Sink interface {
	Emit(d Diagnostic)
}

// Errorf builds an error diagnostic.
func Errorf(path, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Error, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Warningf builds a warning diagnostic.
func Warningf(path, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Warning, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Remarkf builds a remark diagnostic.
func Remarkf(path, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: Remark, Path: path, Message: fmt.Sprintf(format, args...)}
}

// Discard drops everything.
var Discard Sink = discard{}

type discard struct{}

func (discard) Emit(Diagnostic) {}

// Collector keeps every diagnostic it receives. It is safe for concurrent use.
type Collector struct {
	mu    sync.Mutex
	diags []Diagnostic
}

// Emit records d.
func (c *Collector) Emit(d Diagnostic) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.diags = append(c.diags, d)
}

// Diagnostics returns a copy of what was recorded, in order.
func (c *Collector) Diagnostics() []Diagnostic {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Diagnostic(nil), c.diags...)
}

// HasErrors reports whether an Error-severity diagnostic was recorded.
func (c *Collector) HasErrors() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, d := range c.diags {
		if d.Severity == Error {
			return true
		}
	}
	return false
}

// LogSink forwards diagnostics to a structured logger.
type LogSink struct {
	Logger *slog.Logger
}

// Emit logs d at the level matching its severity.
func (s LogSink) Emit(d Diagnostic) {
	if s.Logger == nil {
		return
	}
	level := slog.LevelInfo
	switch d.Severity {
	case Error:
		level = slog.LevelError
	case Warning:
		level = slog.LevelWarn
	case Note:
		level = slog.LevelDebug
	}
	attrs := []any{"severity", d.Severity.String()}
	if d.Path != "" {
		attrs = append(attrs, "path", d.Path)
	}
	s.Logger.Log(context.Background(), level, d.Message, attrs...)
}

// Multi fans a diagnostic out to several sinks.
type Multi []Sink

// Emit forwards d to every non-nil sink.
func (m Multi) Emit(d Diagnostic) {
	for _, s := range m {
		if s != nil {
			s.Emit(d)
		}
	}
}
