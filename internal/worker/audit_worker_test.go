package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"trackit/internal/events"
	"trackit/internal/log"
	"trackit/internal/store/memory"
)

func TestHandleChange(t *testing.T) {
	st := memory.New()
	w := NewAuditWorker(st, log.New(log.DefaultConfig()))
	ctx := context.Background()

	event := events.NewChangeEvent("alice@example.com", events.KindExpenseAdded, "42")
	if err := w.HandleChange(ctx, &event); err != nil {
		t.Fatalf("handle: %v", err)
	}

	entries, err := st.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Email != "alice@example.com" || got.Kind != events.KindExpenseAdded || got.EntityID != "42" {
		t.Fatalf("entry = %+v", got)
	}
	if got.OccurredAt.IsZero() || time.Since(got.OccurredAt) > time.Minute {
		t.Fatalf("timestamp off: %v", got.OccurredAt)
	}
}

// Incomplete events can never succeed on redelivery, so they must be
// marked unprocessable for the consumer to drop.
func TestHandleChangeRejectsIncomplete(t *testing.T) {
	st := memory.New()
	w := NewAuditWorker(st, log.New(log.DefaultConfig()))

	for _, event := range []events.ChangeEvent{
		{Kind: events.KindExpenseAdded},
		{Email: "a@example.com"},
	} {
		e := event
		err := w.HandleChange(context.Background(), &e)
		if err == nil {
			t.Fatalf("expected error for %+v", e)
		}
		if !errors.Is(err, events.ErrUnprocessable) {
			t.Fatalf("error for %+v = %v, want ErrUnprocessable", e, err)
		}
	}

	entries, err := st.Recent(context.Background(), 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Fatalf("incomplete events must not be recorded, got %d", len(entries))
	}
}
