// Package worker consumes dataset change events and records them in
// the audit log.
package worker

import (
	"context"
	"fmt"

	"trackit/internal/events"
	"trackit/internal/log"
	"trackit/internal/store"
)

// AuditWorker turns change events into audit log entries.
type AuditWorker struct {
	audit  store.AuditLog
	logger *log.Logger
}

func NewAuditWorker(audit store.AuditLog, logger *log.Logger) *AuditWorker {
	return &AuditWorker{
		audit:  audit,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleChange records a single change event. Store errors bubble up
// so the consumer can requeue the delivery; incomplete events are
// marked unprocessable so they are dropped rather than redelivered
// forever.
func (w *AuditWorker) HandleChange(ctx context.Context, event *events.ChangeEvent) error {
	if event.Email == "" || event.Kind == "" {
		return fmt.Errorf("incomplete change event %+v: %w", event, events.ErrUnprocessable)
	}

	entry := store.AuditEntry{
		Email:      event.Email,
		Kind:       event.Kind,
		EntityID:   event.EntityID,
		OccurredAt: event.OccurredAt,
	}
	if err := w.audit.Record(ctx, entry); err != nil {
		return fmt.Errorf("record audit entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Change event recorded",
		log.FieldUserEmail, event.Email,
		log.FieldEventKind, event.Kind)
	return nil
}

// Run consumes change events until the context ends.
func (w *AuditWorker) Run(ctx context.Context, client *events.Client) error {
	return client.ConsumeChanges(ctx, func(event *events.ChangeEvent) error {
		return w.HandleChange(ctx, event)
	})
}
