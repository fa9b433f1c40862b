// Package logging provides the minimal printf-style logging contract used
// across the coordination and execution layers.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"reflect"
	"sync"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel int

const (
	DEBUG LogLevel = iota
	INFO
	WARN
	ERROR
)

func (l LogLevel) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// Logger defines a minimal, printf-style logging contract.
//
// Every component in this module depends on this interface rather than a
// concrete logger so tests and embedders can substitute their own sink.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Debug(string, ...any) {}
func (nopLogger) Info(string, ...any)  {}
func (nopLogger) Warn(string, ...any)  {}
func (nopLogger) Error(string, ...any) {}

// Nop returns a logger that discards all output.
func Nop() Logger {
	return nopLogger{}
}

// IsNil reports whether logger is nil or wraps a nil pointer receiver.
func IsNil(logger Logger) bool {
	if logger == nil {
		return true
	}
	val := reflect.ValueOf(logger)
	switch val.Kind() {
	case reflect.Ptr, reflect.Interface, reflect.Slice, reflect.Map, reflect.Func:
		return val.IsNil()
	default:
		return false
	}
}

// OrNop returns logger when non-nil, otherwise a no-op logger.
func OrNop(logger Logger) Logger {
	if IsNil(logger) {
		return Nop()
	}
	return logger
}

// ComponentLogger writes levelled, component-tagged lines to a writer.
type ComponentLogger struct {
	mu        sync.Mutex
	out       *log.Logger
	level     LogLevel
	component string
}

// New returns a ComponentLogger writing to stderr at INFO level.
func New(component string) *ComponentLogger {
	return NewWithWriter(component, os.Stderr, INFO)
}

// NewWithWriter returns a ComponentLogger writing to w at the given level.
func NewWithWriter(component string, w io.Writer, level LogLevel) *ComponentLogger {
	return &ComponentLogger{
		out:       log.New(w, "", 0),
		level:     level,
		component: component,
	}
}

// SetLevel sets the minimum log level.
func (l *ComponentLogger) SetLevel(level LogLevel) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.level = level
}

// WithComponent returns a copy of the logger scoped to another component.
func (l *ComponentLogger) WithComponent(component string) *ComponentLogger {
	l.mu.Lock()
	defer l.mu.Unlock()
	return &ComponentLogger{out: l.out, level: l.level, component: component}
}

func (l *ComponentLogger) log(level LogLevel, format string, args ...any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if level < l.level {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.out.Printf("[%s] [%s] [%s] %s",
		time.Now().Format("2006-01-02 15:04:05.000"), level, l.component, msg)
}

func (l *ComponentLogger) Debug(format string, args ...any) { l.log(DEBUG, format, args...) }
func (l *ComponentLogger) Info(format string, args ...any)  { l.log(INFO, format, args...) }
func (l *ComponentLogger) Warn(format string, args ...any)  { l.log(WARN, format, args...) }
func (l *ComponentLogger) Error(format string, args ...any) { l.log(ERROR, format, args...) }

var _ Logger = (*ComponentLogger)(nil)
