package auth

import (
	"testing"

	"trackit/internal/core"
)

func TestSessionsOpenGetClose(t *testing.T) {
	s := NewSessions()
	sess := s.Open(core.User{Name: "Alice", Email: "alice@example.com"})

	got, ok := s.Get(sess.Token)
	if !ok || got.User.Email != "alice@example.com" {
		t.Fatalf("get = %+v %v", got, ok)
	}
	if got.Tab != core.TabOverview {
		t.Fatalf("new sessions start on overview, got %s", got.Tab)
	}

	if !s.Close(sess.Token) {
		t.Fatal("close should report the session existed")
	}
	if s.Close(sess.Token) {
		t.Fatal("second close should report nothing")
	}
	if s.Count() != 0 {
		t.Fatalf("count = %d", s.Count())
	}
}

func TestSessionsDistinctTokens(t *testing.T) {
	s := NewSessions()
	a := s.Open(core.User{Name: "A", Email: "a@example.com"})
	b := s.Open(core.User{Name: "B", Email: "b@example.com"})
	if a.Token == b.Token {
		t.Fatal("tokens must be unique")
	}
}

func TestSwitchTab(t *testing.T) {
	s := NewSessions()
	sess := s.Open(core.User{Name: "A", Email: "a@example.com"})

	if !s.SwitchTab(sess.Token, core.TabSettings) {
		t.Fatal("switch to settings failed")
	}
	got, _ := s.Get(sess.Token)
	if got.Tab != core.TabSettings {
		t.Fatalf("tab = %s", got.Tab)
	}

	if s.SwitchTab(sess.Token, core.Tab("bogus")) {
		t.Fatal("unknown tab must be rejected")
	}
	if s.SwitchTab("no-such-token", core.TabOverview) {
		t.Fatal("unknown token must be rejected")
	}
}

func TestToggleTheme(t *testing.T) {
	s := NewSessions()
	sess := s.Open(core.User{Name: "A", Email: "a@example.com"})

	dark, ok := s.ToggleTheme(sess.Token)
	if !ok || !dark {
		t.Fatalf("first toggle = %v %v", dark, ok)
	}
	dark, _ = s.ToggleTheme(sess.Token)
	if dark {
		t.Fatal("second toggle should flip back")
	}
	if _, ok := s.ToggleTheme("no-such-token"); ok {
		t.Fatal("unknown token must be rejected")
	}
}

// Handlers hold session snapshots across concurrent mutations; the
// registry must never hand out its own mutable copy.
func TestGetReturnsSnapshot(t *testing.T) {
	s := NewSessions()
	sess := s.Open(core.User{Name: "A", Email: "a@example.com"})

	before, ok := s.Get(sess.Token)
	if !ok {
		t.Fatal("expected session")
	}

	if _, ok := s.ToggleTheme(sess.Token); !ok {
		t.Fatal("toggle failed")
	}
	if !s.SwitchTab(sess.Token, core.TabSettings) {
		t.Fatal("switch failed")
	}

	if before.DarkMode {
		t.Fatal("snapshot must not observe later theme toggle")
	}
	if before.Tab != core.TabOverview {
		t.Fatalf("snapshot tab = %s, want overview", before.Tab)
	}

	after, _ := s.Get(sess.Token)
	if !after.DarkMode || after.Tab != core.TabSettings {
		t.Fatalf("registry copy = %+v, want mutated state", after)
	}
}
