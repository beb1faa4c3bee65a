// Package sqlite implements the store ports on a single durable
// key-value namespace backed by SQLite.
//
// Two logical namespaces share the kv table: "users" holds the one
// credential collection, "data" holds one dataset row per user email.
// Audit entries get their own table. Unreadable stored JSON is treated
// as absent and replaced with the empty default, favoring availability
// over strict correctness.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"trackit/internal/cache"
	"trackit/internal/core"
	"trackit/internal/store"

	_ "modernc.org/sqlite"
)

const (
	nsUsers = "users"
	nsData  = "data"

	// usersKey is the single key under nsUsers holding the whole
	// credential collection as a JSON array.
	usersKey = "all"
)

type Store struct {
	db *sql.DB

	// Read-through cache for datasets; invalidated on every Save so a
	// read after a write always sees the written lists.
	datasets *cache.LRUCache[core.Dataset]
}

var (
	_ store.Registry = (*Store)(nil)
	_ store.Datasets = (*Store)(nil)
	_ store.AuditLog = (*Store)(nil)
)

func New(dbPath string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Store{
		db:       db,
		datasets: cache.NewLRUCache[core.Dataset](256, 5*time.Minute),
	}, nil
}

func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// DatasetCache exposes the dataset cache for cleanup registration.
func (s *Store) DatasetCache() cache.Cleaner {
	return s.datasets
}

func (s *Store) getValue(ctx context.Context, ns, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM kv WHERE ns = ? AND k = ?`, ns, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("read kv %s/%s: %w", ns, key, err)
	}
	return v, true, nil
}

func (s *Store) setValue(ctx context.Context, ns, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO kv (ns, k, v, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(ns, k) DO UPDATE SET v = excluded.v, updated_at = excluded.updated_at`,
		ns, key, value, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("write kv %s/%s: %w", ns, key, err)
	}
	return nil
}

// All implements store.Registry. Malformed stored JSON resolves to an
// empty collection, never an error.
func (s *Store) All(ctx context.Context) ([]core.Credential, error) {
	raw, ok, err := s.getValue(ctx, nsUsers, usersKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []core.Credential{}, nil
	}
	var creds []core.Credential
	if err := json.Unmarshal([]byte(raw), &creds); err != nil {
		slog.WarnContext(ctx, "Malformed credential collection, treating as empty", "error", err)
		return []core.Credential{}, nil
	}
	return creds, nil
}

// Create implements store.Registry.
func (s *Store) Create(ctx context.Context, cred core.Credential) error {
	creds, err := s.All(ctx)
	if err != nil {
		return err
	}
	for _, c := range creds {
		if c.Email == cred.Email {
			return core.ErrDuplicateUser
		}
	}
	creds = append(creds, cred)
	raw, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("marshal credentials: %w", err)
	}
	if err := s.setValue(ctx, nsUsers, usersKey, string(raw)); err != nil {
		return err
	}

	slog.InfoContext(ctx, "Credential record created", "user_email", cred.Email)
	return nil
}

// Find implements store.Registry.
func (s *Store) Find(ctx context.Context, email string) (core.Credential, error) {
	creds, err := s.All(ctx)
	if err != nil {
		return core.Credential{}, err
	}
	for _, c := range creds {
		if c.Email == email {
			return c, nil
		}
	}
	return core.Credential{}, core.ErrUserNotFound
}

// Load implements store.Datasets. Absent or unreadable rows resolve to
// the default dataset.
func (s *Store) Load(ctx context.Context, email string) (core.Dataset, error) {
	if ds, ok := s.datasets.Get(email); ok {
		return cloneDataset(ds), nil
	}

	raw, ok, err := s.getValue(ctx, nsData, email)
	if err != nil {
		return core.Dataset{}, err
	}
	if !ok {
		return core.DefaultDataset(), nil
	}

	var ds core.Dataset
	if err := json.Unmarshal([]byte(raw), &ds); err != nil {
		slog.WarnContext(ctx, "Malformed dataset, falling back to default",
			"user_email", email, "error", err)
		return core.DefaultDataset(), nil
	}
	if ds.Expenses == nil {
		ds.Expenses = []core.Expense{}
	}
	if ds.Categories == nil {
		ds.Categories = []core.Category{}
	}

	s.datasets.Set(email, ds)
	return cloneDataset(ds), nil
}

// cloneDataset isolates callers from the cached copy. Loaded datasets
// get mutated in place before Save, and the cache entry must not see
// those writes.
func cloneDataset(ds core.Dataset) core.Dataset {
	return core.Dataset{
		Expenses:   append([]core.Expense{}, ds.Expenses...),
		Categories: append([]core.Category{}, ds.Categories...),
	}
}

// Save implements store.Datasets. Unconditional overwrite, last writer
// wins.
func (s *Store) Save(ctx context.Context, email string, ds core.Dataset) error {
	raw, err := json.Marshal(ds)
	if err != nil {
		return fmt.Errorf("marshal dataset: %w", err)
	}
	if err := s.setValue(ctx, nsData, email, string(raw)); err != nil {
		return err
	}
	s.datasets.Delete(email)

	slog.DebugContext(ctx, "Dataset saved",
		"user_email", email,
		"expenses", len(ds.Expenses),
		"categories", len(ds.Categories))
	return nil
}

// Record implements store.AuditLog.
func (s *Store) Record(ctx context.Context, entry store.AuditEntry) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO audit_log (email, kind, entity_id, occurred_at) VALUES (?, ?, ?, ?)`,
		entry.Email, entry.Kind, entry.EntityID, entry.OccurredAt.UTC())
	if err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// Recent implements store.AuditLog, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]store.AuditEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, email, kind, entity_id, occurred_at FROM audit_log ORDER BY id DESC LIMIT ?`,
		limit)
	if err != nil {
		return nil, fmt.Errorf("query audit log: %w", err)
	}
	defer rows.Close()

	var out []store.AuditEntry
	for rows.Next() {
		var e store.AuditEntry
		if err := rows.Scan(&e.ID, &e.Email, &e.Kind, &e.EntityID, &e.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan audit entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
