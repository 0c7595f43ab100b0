package logger

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// InstanceLogHandler wraps an slog.Handler and additionally appends any log
// record carrying a "run_id" attribute to that run's own event log file, so
// an operator chasing one instance's behavior can tail a single file instead
// of grepping the daemon's combined JSON stream. This is separate from the
// emulator's own console log (its stdout/stderr, captured directly by the
// Instance Supervisor): this file carries only the manager's own lifecycle
// log lines (spawned, stopped, cleanup warnings) for that run.
//
// Implementation follows the slog handler guide for shared state across
// WithAttrs/WithGroup: https://pkg.go.dev/golang.org/x/example/slog-handler-guide
type InstanceLogHandler struct {
	slog.Handler
	logPathFunc func(runID string) string
	state       *sharedState // shared across all handlers derived via WithAttrs/WithGroup
}

// sharedState holds state that must be shared across all handler instances
// derived from the same parent via WithAttrs/WithGroup.
type sharedState struct {
	mu        sync.Mutex
	fileCache map[string]*os.File
}

// NewInstanceLogHandler creates a new handler that wraps the given handler
// and writes run-tagged log records to a per-instance event log file.
// logPathFunc should return the event log path for a given run id.
func NewInstanceLogHandler(wrapped slog.Handler, logPathFunc func(runID string) string) *InstanceLogHandler {
	return &InstanceLogHandler{
		Handler:     wrapped,
		logPathFunc: logPathFunc,
		state: &sharedState{
			fileCache: make(map[string]*os.File),
		},
	}
}

// Handle processes a log record, passing it to the wrapped handler and
// additionally appending it to the run's event log when a "run_id"
// attribute is present.
func (h *InstanceLogHandler) Handle(ctx context.Context, r slog.Record) error {
	if err := h.Handler.Handle(ctx, r); err != nil {
		return err
	}

	var runID string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key == "run_id" {
			runID = a.Value.String()
			return false
		}
		return true
	})

	if runID != "" {
		h.writeToInstanceLog(runID, r)
	}

	return nil
}

// writeToInstanceLog appends one formatted line to the run's event log.
func (h *InstanceLogHandler) writeToInstanceLog(runID string, r slog.Record) {
	logPath := h.logPathFunc(runID)
	if logPath == "" {
		return
	}

	timestamp := r.Time.Format(time.RFC3339)
	level := r.Level.String()
	msg := r.Message

	var attrs []string
	r.Attrs(func(a slog.Attr) bool {
		if a.Key != "run_id" {
			attrs = append(attrs, fmt.Sprintf("%s=%v", a.Key, a.Value))
		}
		return true
	})

	line := fmt.Sprintf("%s %s %s", timestamp, level, msg)
	for _, attr := range attrs {
		line += " " + attr
	}
	line += "\n"

	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	f, ok := h.state.fileCache[runID]
	if !ok {
		dir := filepath.Dir(logPath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return
		}

		var err error
		f, err = os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return
		}
		h.state.fileCache[runID] = f
	}

	f.WriteString(line)
}

// Enabled reports whether the handler handles records at the given level.
func (h *InstanceLogHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.Handler.Enabled(ctx, level)
}

// WithAttrs returns a new handler with the given attributes, sharing the
// parent's mutex and file cache.
func (h *InstanceLogHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &InstanceLogHandler{
		Handler:     h.Handler.WithAttrs(attrs),
		logPathFunc: h.logPathFunc,
		state:       h.state,
	}
}

// WithGroup returns a new handler with the given group name, sharing the
// parent's mutex and file cache.
func (h *InstanceLogHandler) WithGroup(name string) slog.Handler {
	return &InstanceLogHandler{
		Handler:     h.Handler.WithGroup(name),
		logPathFunc: h.logPathFunc,
		state:       h.state,
	}
}

// CloseInstanceLog closes and evicts a cached file handle for a run.
// Call this once the run's stop has finished cleanup.
func (h *InstanceLogHandler) CloseInstanceLog(runID string) {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	if f, ok := h.state.fileCache[runID]; ok {
		f.Close()
		delete(h.state.fileCache, runID)
	}
}

// CloseAll closes every cached file handle. Call during daemon shutdown.
func (h *InstanceLogHandler) CloseAll() {
	h.state.mu.Lock()
	defer h.state.mu.Unlock()

	for id, f := range h.state.fileCache {
		f.Close()
		delete(h.state.fileCache, id)
	}
}
