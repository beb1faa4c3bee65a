package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"trackit/internal/advice"
	"trackit/internal/auth"
	"trackit/internal/log"
	"trackit/internal/services"
	"trackit/internal/store/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(io.Discard, nil),
	})
	st := memory.New()
	sessions := auth.NewSessions()
	authSvc := auth.NewService(st, st, sessions, logger)
	tracker := services.NewTracker(st, nil, advice.Static{Text: "spend less on snacks"}, logger)

	srv := NewServer(Options{Addr: ":0"}, authSvc, sessions, tracker, logger)
	t.Cleanup(func() { srv.authLimiter.stop() })
	return srv
}

// do runs a request against the router and returns the recorder.
func do(srv *Server, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.RemoteAddr = "203.0.113.7:40000"
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
	return v
}

func signUp(t *testing.T, srv *Server, name, email string) auth.Session {
	t.Helper()
	rec := do(srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": name, "email": email, "password": "hunter2",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, body %s", rec.Code, rec.Body.String())
	}
	return decode[auth.Session](t, rec)
}

func TestHealthz(t *testing.T) {
	srv := newTestServer(t)
	rec := do(srv, http.MethodGet, "/healthz", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if got := rec.Body.String(); got != "ok" {
		t.Fatalf("body = %q", got)
	}
}

func TestSignUpAndDuplicate(t *testing.T) {
	srv := newTestServer(t)

	sess := signUp(t, srv, "Alice", "alice@example.com")
	if sess.Token == "" {
		t.Fatal("expected a session token")
	}
	if sess.View != auth.ViewDashboard {
		t.Fatalf("view = %q, want dashboard", sess.View)
	}
	if sess.User.Email != "alice@example.com" {
		t.Fatalf("email = %q", sess.User.Email)
	}

	rec := do(srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Alice Again", "email": "ALICE@example.com", "password": "other",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate signup status = %d, want 409", rec.Code)
	}
}

func TestSignUpValidation(t *testing.T) {
	srv := newTestServer(t)

	rec := do(srv, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"name": "Bob", "email": "not-an-email", "password": "pw",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestLogIn(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "alice@example.com", "password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong password status = %d, want 401", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "nobody@example.com", "password": "hunter2",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown email status = %d, want 401", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "Alice@Example.com", "password": "hunter2",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d, body %s", rec.Code, rec.Body.String())
	}
}

func TestLogInExternal(t *testing.T) {
	srv := newTestServer(t)
	signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPost, "/api/auth/login/external", "", map[string]string{
		"email": "alice@example.com",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	rec = do(srv, http.MethodPost, "/api/auth/login/external", "", map[string]string{
		"email": "stranger@example.com",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("unknown external login status = %d, want 401", rec.Code)
	}
}

func TestLogOutEndsSession(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d", rec.Code)
	}

	rec = do(srv, http.MethodGet, "/api/session", sess.Token, nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("session after logout status = %d, want 401", rec.Code)
	}

	// Logging out again is harmless.
	rec = do(srv, http.MethodPost, "/api/auth/logout", sess.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("repeat logout status = %d", rec.Code)
	}
}

func TestSessionRequiresToken(t *testing.T) {
	srv := newTestServer(t)

	for _, path := range []string{"/api/session", "/api/dashboard", "/api/expenses", "/api/categories"} {
		rec := do(srv, http.MethodGet, path, "", nil)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("%s without token status = %d, want 401", path, rec.Code)
		}
	}

	rec := do(srv, http.MethodGet, "/api/session", "bogus-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("bogus token status = %d, want 401", rec.Code)
	}
}

func TestSwitchTab(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPut, "/api/session/tab", sess.Token, map[string]string{"tab": "settings"})
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	updated := decode[auth.Session](t, rec)
	if string(updated.Tab) != "settings" {
		t.Fatalf("tab = %q, want settings", updated.Tab)
	}

	rec = do(srv, http.MethodPut, "/api/session/tab", sess.Token, map[string]string{"tab": "bogus"})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bogus tab status = %d, want 400", rec.Code)
	}
}

func TestToggleTheme(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPut, "/api/session/theme", sess.Token, nil)
	first := decode[themeResponse](t, rec)
	if !first.DarkMode {
		t.Fatal("first toggle should enable dark mode")
	}

	rec = do(srv, http.MethodPut, "/api/session/theme", sess.Token, nil)
	second := decode[themeResponse](t, rec)
	if second.DarkMode {
		t.Fatal("second toggle should disable dark mode")
	}
}

func TestExpenseLifecycle(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodGet, "/api/categories", sess.Token, nil)
	cats := decode[[]map[string]any](t, rec)
	if len(cats) == 0 {
		t.Fatal("expected default categories")
	}
	catID := cats[0]["id"].(string)
	catName := cats[0]["name"].(string)

	rec = do(srv, http.MethodPost, "/api/expenses", sess.Token, map[string]string{
		"description": "Groceries",
		"amount":      "42.50",
		"date":        "2026-08-30",
		"category_id": catID,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodPost, "/api/expenses", sess.Token, map[string]string{
		"description": "Mystery",
		"amount":      "5",
		"date":        "2026-08-31",
		"category_id": "no-such-category",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("dangling category status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodGet, "/api/expenses", sess.Token, nil)
	views := decode[[]expenseView](t, rec)
	if len(views) != 2 {
		t.Fatalf("len(expenses) = %d, want 2", len(views))
	}
	// Newest first.
	if views[0].Description != "Mystery" {
		t.Fatalf("first expense = %q, want Mystery", views[0].Description)
	}
	if views[0].Category != "Unknown" {
		t.Fatalf("dangling category name = %q, want Unknown", views[0].Category)
	}
	if views[1].Category != catName {
		t.Fatalf("category name = %q, want %q", views[1].Category, catName)
	}

	rec = do(srv, http.MethodDelete, "/api/expenses/"+views[0].ID, sess.Token, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", rec.Code)
	}

	rec = do(srv, http.MethodDelete, "/api/expenses/"+views[0].ID, sess.Token, nil)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("repeat delete status = %d, want 404", rec.Code)
	}
}

func TestExpenseValidation(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	cases := []struct {
		name string
		body map[string]string
	}{
		{"zero amount", map[string]string{"description": "x", "amount": "0", "date": "2026-08-30", "category_id": "c"}},
		{"bad amount", map[string]string{"description": "x", "amount": "abc", "date": "2026-08-30", "category_id": "c"}},
		{"bad date", map[string]string{"description": "x", "amount": "5", "date": "30/08/2026", "category_id": "c"}},
		{"empty description", map[string]string{"description": "  ", "amount": "5", "date": "2026-08-30", "category_id": "c"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := do(srv, http.MethodPost, "/api/expenses", sess.Token, tc.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400, body %s", rec.Code, rec.Body.String())
			}
		})
	}
}

func TestCategoryBudget(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPost, "/api/categories", sess.Token, map[string]string{
		"name": "Travel", "budget": "250",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add category status = %d, body %s", rec.Code, rec.Body.String())
	}
	cat := decode[map[string]any](t, rec)
	id := cat["id"].(string)

	rec = do(srv, http.MethodPut, "/api/categories/"+id+"/budget", sess.Token, map[string]string{
		"budget": "0",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("zero budget status = %d, body %s", rec.Code, rec.Body.String())
	}

	rec = do(srv, http.MethodPut, "/api/categories/"+id+"/budget", sess.Token, map[string]string{
		"budget": "-10",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("negative budget status = %d, want 400", rec.Code)
	}

	rec = do(srv, http.MethodPut, "/api/categories/missing/budget", sess.Token, map[string]string{
		"budget": "10",
	})
	if rec.Code != http.StatusNotFound {
		t.Fatalf("missing category status = %d, want 404", rec.Code)
	}
}

func TestDashboard(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodGet, "/api/categories", sess.Token, nil)
	cats := decode[[]map[string]any](t, rec)
	catID := cats[0]["id"].(string)

	do(srv, http.MethodPost, "/api/expenses", sess.Token, map[string]string{
		"description": "Lunch", "amount": "12.50", "date": "2026-08-30", "category_id": catID,
	})

	rec = do(srv, http.MethodGet, "/api/dashboard", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}

	var dash struct {
		Summary struct {
			TotalSpent struct {
				Cents int64 `json:"cents"`
			} `json:"total_spent"`
		} `json:"summary"`
		TransactionCount int `json:"transaction_count"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &dash); err != nil {
		t.Fatalf("decode dashboard: %v", err)
	}
	if dash.Summary.TotalSpent.Cents != 1250 {
		t.Fatalf("total spent = %d, want 1250", dash.Summary.TotalSpent.Cents)
	}
	if dash.TransactionCount != 1 {
		t.Fatalf("transaction count = %d, want 1", dash.TransactionCount)
	}
}

func TestAdvice(t *testing.T) {
	srv := newTestServer(t)
	sess := signUp(t, srv, "Alice", "alice@example.com")

	rec := do(srv, http.MethodPost, "/api/advice", sess.Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	resp := decode[adviceResponse](t, rec)
	if resp.Advice != "spend less on snacks" {
		t.Fatalf("advice = %q", resp.Advice)
	}
}

func TestAuthRateLimit(t *testing.T) {
	srv := newTestServer(t)

	var last int
	for i := 0; i < authRateLimit+1; i++ {
		rec := do(srv, http.MethodPost, "/api/auth/login", "", map[string]string{
			"email": "alice@example.com", "password": "wrong",
		})
		last = rec.Code
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("status after %d attempts = %d, want 429", authRateLimit+1, last)
	}
}

func TestSecurityHeaders(t *testing.T) {
	srv := newTestServer(t)
	rec := do(srv, http.MethodGet, "/healthz", "", nil)

	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Fatalf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Fatalf("X-Frame-Options = %q", got)
	}
}
