package formui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// logRecordMsg delivers a log record to the footer of the form.
type logRecordMsg struct {
	summary string
	level   slog.Level
}

// logFadeMsg clears the footer once a record has been shown long enough.
type logFadeMsg struct {
	summary string
}

const logFadeDelay = 5 * time.Second

// LogHandler is a slog.Handler that sends records into a bubbletea program
// so they show in the form footer instead of corrupting the screen. Records
// arriving before SetProgram are dropped.
//
// Handlers derived with WithAttrs or WithGroup share the program pointer.
type LogHandler struct {
	level   slog.Level
	program *atomic.Pointer[tea.Program]
	attrs   []slog.Attr
	group   string
}

// NewLogHandler creates a handler delivering records at or above level.
func NewLogHandler(level slog.Level) *LogHandler {
	return &LogHandler{
		level:   level,
		program: &atomic.Pointer[tea.Program]{},
	}
}

// SetProgram sets the program receiving records. Safe to call from any
// goroutine.
func (h *LogHandler) SetProgram(p *tea.Program) {
	h.program.Store(p)
}

func (h *LogHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level
}

func (h *LogHandler) Handle(_ context.Context, record slog.Record) error {
	p := h.program.Load()
	if p == nil {
		return nil
	}
	// Records are often logged from inside Update, and Send blocks until the
	// program loop reads the message.
	go p.Send(logRecordMsg{summary: h.summarize(record), level: record.Level})
	return nil
}

// summarize formats a record as "message (key=value, ...)".
func (h *LogHandler) summarize(record slog.Record) string {
	var parts []string
	add := func(attr slog.Attr) bool {
		k := attr.Key
		if h.group != "" {
			k = h.group + "." + k
		}
		parts = append(parts, fmt.Sprintf("%s=%s", k, attr.Value))
		return true
	}
	for _, attr := range h.attrs {
		add(attr)
	}
	record.Attrs(add)

	if len(parts) == 0 {
		return record.Message
	}
	return record.Message + " (" + strings.Join(parts, ", ") + ")"
}

func (h *LogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	clone := *h
	clone.attrs = append(append([]slog.Attr(nil), h.attrs...), attrs...)
	return &clone
}

func (h *LogHandler) WithGroup(name string) slog.Handler {
	clone := *h
	if clone.group == "" {
		clone.group = name
	} else {
		clone.group += "." + name
	}
	return &clone
}

func fadeLog(summary string) tea.Cmd {
	return tea.Tick(logFadeDelay, func(time.Time) tea.Msg {
		return logFadeMsg{summary: summary}
	})
}
