// Package memory provides in-memory store adapters, used for the memory
// data backend and as fakes in tests.
package memory

import (
	"context"
	"sync"

	"trackit/internal/core"
	"trackit/internal/store"
)

type Store struct {
	mu       sync.Mutex
	users    []core.Credential
	datasets map[string]core.Dataset
	audit    []store.AuditEntry
	nextID   int64
}

var (
	_ store.Registry = (*Store)(nil)
	_ store.Datasets = (*Store)(nil)
	_ store.AuditLog = (*Store)(nil)
)

func New() *Store {
	return &Store{datasets: make(map[string]core.Dataset)}
}

// Create implements store.Registry.
func (s *Store) Create(_ context.Context, cred core.Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == cred.Email {
			return core.ErrDuplicateUser
		}
	}
	s.users = append(s.users, cred)
	return nil
}

// Find implements store.Registry.
func (s *Store) Find(_ context.Context, email string) (core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return core.Credential{}, core.ErrUserNotFound
}

// All implements store.Registry.
func (s *Store) All(_ context.Context) ([]core.Credential, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Credential(nil), s.users...), nil
}

// Load implements store.Datasets. Unknown emails fall back to the
// default dataset.
func (s *Store) Load(_ context.Context, email string) (core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ds, ok := s.datasets[email]
	if !ok {
		return core.DefaultDataset(), nil
	}
	return cloneDataset(ds), nil
}

// Save implements store.Datasets. Unconditional overwrite.
func (s *Store) Save(_ context.Context, email string, ds core.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[email] = cloneDataset(ds)
	return nil
}

// Record implements store.AuditLog.
func (s *Store) Record(_ context.Context, entry store.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	entry.ID = s.nextID
	s.audit = append(s.audit, entry)
	return nil
}

// Recent implements store.AuditLog, newest first.
func (s *Store) Recent(_ context.Context, limit int) ([]store.AuditEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

// cloneDataset copies the slices so callers cannot alias stored state.
func cloneDataset(ds core.Dataset) core.Dataset {
	return core.Dataset{
		Expenses:   append([]core.Expense{}, ds.Expenses...),
		Categories: append([]core.Category{}, ds.Categories...),
	}
}
