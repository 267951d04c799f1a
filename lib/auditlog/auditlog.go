// Package auditlog is the append-only sink every migration component
// reports structured events to. A log is opened once at batch start and
// closed once at batch end; events are written in insertion order.
package auditlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/mazen160/go-random"
)

type Level string

const (
	LevelInfo    Level = "INFO"
	LevelWarning Level = "WARNING"
	LevelError   Level = "ERROR"
)

type Field struct {
	Key   string
	Value string
}

// Event is one structured, human-readable record of an extraction or
// replay outcome.
type Event struct {
	Time    time.Time
	Run     string
	Level   Level
	Message string
	Fields  []Field
	// Attention marks soft fallbacks that need manual review, such as
	// a substituted author or publish date.
	Attention bool
}

// Log appends events to a file. Safe for concurrent use; extraction of
// several posts may run in parallel.
type Log struct {
	mu  sync.Mutex
	w   io.WriteCloser
	run string

	attention []Event
}

// Open opens (creating or appending to) the audit log file at path and
// assigns a random run id that groups this run's events.
func Open(path string) (*Log, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit log: %w", err)
	}
	run, err := random.String(8)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &Log{w: f, run: run}, nil
}

// NewWithWriter is Open for an arbitrary writer, used in tests.
func NewWithWriter(w io.WriteCloser, run string) *Log {
	return &Log{w: w, run: run}
}

func (l *Log) Run() string {
	return l.run
}

// Append writes one event. Event.Time and Event.Run are filled in if
// unset. Write errors are reported to slog rather than the caller:
// losing an audit line must not fail the migration it describes.
func (l *Log) Append(e Event) {
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	if e.Run == "" {
		e.Run = l.run
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if e.Attention {
		l.attention = append(l.attention, e)
	}
	_, err := io.WriteString(l.w, render(e))
	if err != nil {
		slog.Error("failed to append audit event", "message", e.Message, "err", err)
	}
}

func (l *Log) Info(message string, fields ...Field) {
	l.Append(Event{Level: LevelInfo, Message: message, Fields: fields})
}

func (l *Log) Warning(message string, fields ...Field) {
	l.Append(Event{Level: LevelWarning, Message: message, Fields: fields, Attention: true})
}

func (l *Log) Error(message string, fields ...Field) {
	l.Append(Event{Level: LevelError, Message: message, Fields: fields})
}

// Separator writes the run-delimiting marker line the log has always
// carried between batches.
func (l *Log) Separator() {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := io.WriteString(l.w, "*********************\n\n")
	if err != nil {
		slog.Error("failed to write audit separator", "err", err)
	}
}

// Attention returns the events flagged for manual review so far, in
// insertion order.
func (l *Log) Attention() []Event {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]Event, len(l.attention))
	copy(out, l.attention)
	return out
}

func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Close()
}

func render(e Event) string {
	var b strings.Builder
	fmt.Fprintf(
		&b, "[%s] %s %s: %s\n",
		e.Run,
		e.Time.Format("2006-01-02 15:04:05"),
		e.Level,
		e.Message,
	)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "    %s: %s\n", f.Key, f.Value)
	}
	if e.Attention {
		b.WriteString("    ATTENTION REQUIRED\n")
	}
	b.WriteString("\n")
	return b.String()
}
