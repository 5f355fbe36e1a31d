// Package logx is the harness's leveled console logger. Diagnostic output is
// not part of any contract; scenarios and the dispatcher log through it so
// the default run stays quiet and -v turns the machinery visible.
package logx

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// Level controls which messages a Logger emits.
type Level int

const (
	// LevelDebug shows per-task and per-worker machinery.
	LevelDebug Level = iota
	// LevelInfo shows scenario-level progress.
	LevelInfo
	// LevelWarn shows recoverable oddities.
	LevelWarn
	// LevelError shows captured faults and scenario failures.
	LevelError
	// LevelSilent suppresses everything.
	LevelSilent
)

var (
	debugTag = color.New(color.FgHiBlack).Sprint("DEBUG")
	infoTag  = color.New(color.FgCyan).Sprint("INFO ")
	warnTag  = color.New(color.FgYellow).Sprint("WARN ")
	errorTag = color.New(color.FgRed, color.Bold).Sprint("ERROR")
)

// Logger writes timestamped, level-tagged lines to a single writer.
type Logger struct {
	mu    sync.Mutex
	out   io.Writer
	level Level
}

// New returns a Logger writing to stderr at the given minimum level.
func New(level Level) *Logger {
	return &Logger{out: os.Stderr, level: level}
}

// NewWriter returns a Logger targeting an explicit writer, mainly for tests.
func NewWriter(out io.Writer, level Level) *Logger {
	return &Logger{out: out, level: level}
}

// Discard returns a Logger that drops everything.
func Discard() *Logger {
	return &Logger{out: io.Discard, level: LevelSilent}
}

func (l *Logger) logf(lv Level, tag, format string, args ...any) {
	if l == nil || lv < l.level {
		return
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	fmt.Fprintf(l.out, "%s %s %s\n",
		time.Now().Format("15:04:05.000"), tag, fmt.Sprintf(format, args...))
}

// Debugf logs at LevelDebug.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(LevelDebug, debugTag, format, args...)
}

// Infof logs at LevelInfo.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(LevelInfo, infoTag, format, args...)
}

// Warnf logs at LevelWarn.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(LevelWarn, warnTag, format, args...)
}

// Errorf logs at LevelError.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(LevelError, errorTag, format, args...)
}

// Timed logs the duration and outcome of fn at Info/Error level.
func (l *Logger) Timed(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	if err != nil {
		l.Errorf("%s failed after %v: %v", name, time.Since(start).Round(time.Millisecond), err)
	} else {
		l.Infof("%s completed in %v", name, time.Since(start).Round(time.Millisecond))
	}
	return err
}
