package memory

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"trackit/internal/core"
	"trackit/internal/store"
)

func TestRegistryDuplicate(t *testing.T) {
	s := New()
	ctx := context.Background()
	cred := core.Credential{Name: "Alice", Email: "alice@example.com", Password: "pw"}

	if err := s.Create(ctx, cred); err != nil {
		t.Fatalf("first create: %v", err)
	}
	if err := s.Create(ctx, cred); !errors.Is(err, core.ErrDuplicateUser) {
		t.Fatalf("second create = %v, want ErrDuplicateUser", err)
	}
	all, err := s.All(ctx)
	if err != nil {
		t.Fatalf("all: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("duplicate create must not append, got %d records", len(all))
	}
}

func TestRegistryFindNotFound(t *testing.T) {
	s := New()
	_, err := s.Find(context.Background(), "ghost@example.com")
	if !errors.Is(err, core.ErrUserNotFound) {
		t.Fatalf("got %v, want ErrUserNotFound", err)
	}
}

func TestDatasetRoundTrip(t *testing.T) {
	s := New()
	ctx := context.Background()
	ds := core.Dataset{
		Expenses: []core.Expense{
			{ID: "a", Description: "x", Amount: core.Money{Cents: 12000}, CategoryID: "1", Date: "2024-01-01"},
		},
		Categories: []core.Category{
			{ID: "1", Name: "Food", Budget: core.Money{Cents: 50000}, Color: "#f00"},
		},
	}
	if err := s.Save(ctx, "alice@example.com", ds); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := s.Load(ctx, "alice@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if !reflect.DeepEqual(got, ds) {
		t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, ds)
	}
}

func TestDatasetLoadDefaultsWhenAbsent(t *testing.T) {
	s := New()
	got, err := s.Load(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Categories) != 5 || len(got.Expenses) != 0 {
		t.Fatalf("expected default dataset, got %+v", got)
	}
}

func TestDatasetSaveIsolation(t *testing.T) {
	s := New()
	ctx := context.Background()
	ds := core.Dataset{Expenses: []core.Expense{{ID: "a", Date: "2024-01-01", Amount: core.Money{Cents: 1}}}}
	if err := s.Save(ctx, "a@example.com", ds); err != nil {
		t.Fatal(err)
	}
	ds.Expenses[0].ID = "mutated"
	got, _ := s.Load(ctx, "a@example.com")
	if got.Expenses[0].ID != "a" {
		t.Fatal("stored dataset aliased the caller's slice")
	}
}

func TestAuditLog(t *testing.T) {
	s := New()
	ctx := context.Background()
	for _, kind := range []string{"expense_added", "expense_deleted", "category_added"} {
		if err := s.Record(ctx, store.AuditEntry{Email: "a@example.com", Kind: kind}); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(got) != 2 || got[0].Kind != "category_added" || got[1].Kind != "expense_deleted" {
		t.Fatalf("expected newest first, got %+v", got)
	}
}
