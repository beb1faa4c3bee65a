// Package store defines the persistence ports and shared types for the
// credential registry, the per-user datasets, and the audit log.
package store

import (
	"context"
	"time"

	"trackit/internal/core"
)

// Ports for outbound persistence adapters.
type (
	// Registry holds the signup credential records, one per email.
	Registry interface {
		// Create appends a credential record. It fails with
		// core.ErrDuplicateUser when the email is already registered.
		Create(ctx context.Context, cred core.Credential) error
		// Find looks a credential up by email. An unknown email resolves
		// to core.ErrUserNotFound; callers must treat that as a result,
		// not a transport fault.
		Find(ctx context.Context, email string) (core.Credential, error)
		// All returns every credential record. Malformed stored data
		// resolves to an empty list, never an error.
		All(ctx context.Context) ([]core.Credential, error)
	}

	// Datasets persists one dataset per user email.
	Datasets interface {
		// Load returns the stored dataset, or the default dataset when
		// nothing (or nothing readable) is stored for that email.
		Load(ctx context.Context, email string) (core.Dataset, error)
		// Save overwrites the stored dataset unconditionally. Last
		// writer wins; there is no merge and no conflict detection.
		Save(ctx context.Context, email string, ds core.Dataset) error
	}

	// AuditLog records dataset change events consumed off the wire.
	AuditLog interface {
		Record(ctx context.Context, entry AuditEntry) error
		Recent(ctx context.Context, limit int) ([]AuditEntry, error)
	}
)

// AuditEntry is one recorded dataset change.
type AuditEntry struct {
	ID         int64     `json:"id"`
	Email      string    `json:"email"`
	Kind       string    `json:"kind"`
	EntityID   string    `json:"entity_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
