package audit

import (
	"context"
	"log/slog"
)

// Event represents an audit entry for a tool execution.
type Event struct {
	// Type describes the event kind (tool_call, tool_ok, tool_error).
	Type string
	// Tool is the tool name.
	Tool string
	// CorrelationID links related events.
	CorrelationID string
	// Status is the outcome status.
	Status string
	// Items counts processed batch items, when applicable.
	Items int
	// Reason provides additional context.
	Reason string
}

// Logger records audit events.
type Logger interface {
	// Record stores an audit event.
	Record(ctx context.Context, event Event)
}

// StdLogger writes audit events to slog.
type StdLogger struct {
	logger *slog.Logger
}

// New returns a StdLogger.
func New(logger *slog.Logger) *StdLogger {
	return &StdLogger{logger: logger}
}

// Record logs an audit event.
func (l *StdLogger) Record(_ context.Context, event Event) {
	if l == nil || l.logger == nil {
		return
	}
	l.logger.Info("audit",
		"type", event.Type,
		"tool", event.Tool,
		"correlation_id", event.CorrelationID,
		"status", event.Status,
		"items", event.Items,
		"reason", event.Reason,
	)
}
