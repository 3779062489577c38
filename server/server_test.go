package server

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/billbatista/eventfund/eventlogger"
	"github.com/billbatista/eventfund/ledger"
	"github.com/billbatista/eventfund/profile"
	"github.com/billbatista/eventfund/session"
	"github.com/billbatista/eventfund/store"
	"github.com/billbatista/eventfund/user"
	"github.com/google/go-cmp/cmp"
)

var today = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

type recordingAudit struct {
	mu    sync.Mutex
	types []string
}

func (r *recordingAudit) Log(e eventlogger.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types = append(r.types, e.Type)
}

func (r *recordingAudit) has(eventType string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.types, eventType)
}

func setupTestServer(t *testing.T) (http.Handler, *recordingAudit) {
	t.Helper()
	keys, err := store.NewKeyspace(store.LayoutNamespaced)
	if err != nil {
		t.Fatalf("NewKeyspace: %v", err)
	}
	s := store.NewMemory()
	audit := &recordingAudit{}

	eventRepo := ledger.NewRepository(s, keys)
	svc := ledger.NewService(eventRepo,
		ledger.WithClock(func() time.Time { return today }),
		ledger.WithAuditLogger(audit),
	)
	srv := New(svc,
		user.NewRepository(s, keys),
		session.NewRepository(s, keys, time.Hour),
		profile.NewRepository(s, keys, eventRepo),
		audit,
	)
	return srv.Routes(), audit
}

func do(t *testing.T, h http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encoding body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", w.Body.String(), err)
	}
	return v
}

func signup(t *testing.T, h http.Handler, username string) string {
	t.Helper()
	w := do(t, h, "POST", "/users/signup", "", credentials{Username: username, Password: "secret123"})
	if w.Code != http.StatusCreated {
		t.Fatalf("signup: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[sessionResponse](t, w).Token
}

func createEvent(t *testing.T, h http.Handler, token, name string) ledger.Event {
	t.Helper()
	w := do(t, h, "POST", "/events", token, ledger.NewEventInput{
		Name:         name,
		Date:         "2024-06-10",
		ExpenseTypes: []string{"Food", "Venue"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create event: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	return decode[ledger.Event](t, w)
}

func TestHealth(t *testing.T) {
	h, _ := setupTestServer(t)
	w := do(t, h, "GET", "/health", "", nil)
	if w.Code != http.StatusOK || w.Body.String() != "ok" {
		t.Fatalf("got %d %q", w.Code, w.Body.String())
	}
}

func TestSignupLoginLogout(t *testing.T) {
	h, audit := setupTestServer(t)
	signup(t, h, "alice")

	w := do(t, h, "POST", "/users/signup", "", credentials{Username: "alice", Password: "another1"})
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate signup: expected 409, got %d", w.Code)
	}

	w = do(t, h, "POST", "/users/login", "", credentials{Username: "alice", Password: "wrong-pass"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password: expected 401, got %d", w.Code)
	}

	w = do(t, h, "POST", "/users/login", "", credentials{Username: "alice", Password: "secret123"})
	if w.Code != http.StatusOK {
		t.Fatalf("login: expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if cookies := w.Result().Cookies(); len(cookies) != 1 || cookies[0].Name != session.CookieName {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	token := decode[sessionResponse](t, w).Token

	if w := do(t, h, "POST", "/users/logout", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("logout: expected 204, got %d", w.Code)
	}
	if w := do(t, h, "GET", "/events", token, nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("after logout: expected 401, got %d", w.Code)
	}

	for _, eventType := range []string{EventTypeUserRegistered, EventTypeUserLoggedIn} {
		if !audit.has(eventType) {
			t.Errorf("expected audit event %q", eventType)
		}
	}
}

func TestProtectedRoutesRequireSession(t *testing.T) {
	h, _ := setupTestServer(t)
	for _, path := range []string{"/events", "/events/active", "/profile", "/events/1/history"} {
		w := do(t, h, "GET", path, "", nil)
		if w.Code != http.StatusUnauthorized {
			t.Errorf("GET %s: expected 401, got %d", path, w.Code)
		}
		if got := decode[errorResponse](t, w).Error; got == "" {
			t.Errorf("GET %s: expected error message", path)
		}
	}
}

func TestEventFlow(t *testing.T) {
	h, audit := setupTestServer(t)
	token := signup(t, h, "alice")
	event := createEvent(t, h, token, "Picnic")
	base := fmt.Sprintf("/events/%d", event.ID)

	w := do(t, h, "POST", base+"/fundraisers", token, ledger.FundraiserInput{Name: "Bob", Amount: "100"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add fundraiser: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	do(t, h, "POST", base+"/fundraisers", token, ledger.FundraiserInput{Name: "Carol", Amount: "25.50"})

	w = do(t, h, "POST", base+"/expenses", token, ledger.ExpenseInput{Type: "Food", Amount: "40", Message: "snacks"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add expense: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	updated := decode[ledger.Event](t, w)
	if !updated.TotalAmount.Equal(ledger.MustAmount("85.5").Decimal) {
		t.Fatalf("expected balance 85.5, got %s", updated.TotalAmount)
	}

	w = do(t, h, "POST", base+"/fundraisers", token, map[string]any{"fundraiserName": "Dan", "amount": 10})
	if w.Code != http.StatusCreated {
		t.Fatalf("add fundraiser with numeric amount: expected 201, got %d: %s", w.Code, w.Body.String())
	}
	do(t, h, "POST", base+"/expenses", token, map[string]any{"selectedExpenseType": "Venue", "amount": 10})

	w = do(t, h, "GET", base+"/fundraisers?q=car", token, nil)
	found := decode[[]ledger.Fundraiser](t, w)
	if len(found) != 1 || found[0].Name != "Carol" {
		t.Fatalf("search: got %+v", found)
	}

	w = do(t, h, "GET", base+"/statistics", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("statistics: expected 200, got %d", w.Code)
	}
	stats := decode[map[string]any](t, w)
	if stats["totalRaised"] != 135.5 || stats["totalExpense"] != 50.0 || stats["balance"] != 85.5 {
		t.Fatalf("unexpected statistics %v", stats)
	}

	w = do(t, h, "GET", base+"/history", token, nil)
	history := decode[ledger.Event](t, w)
	if len(history.History) != 2 || history.History[0].Message != "snacks" {
		t.Fatalf("history: got %+v", history.History)
	}

	w = do(t, h, "GET", "/events/active", token, nil)
	active := decode[ledger.Index](t, w)
	if diff := cmp.Diff(active.Events, []ledger.Reference{event.Reference()}); diff != "" {
		t.Fatalf("Bad active events; diff (-got +want)\n%s", diff)
	}

	w = do(t, h, "DELETE", base, token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("delete: expected 200, got %d", w.Code)
	}
	if w := do(t, h, "GET", base, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("after delete: expected 404, got %d", w.Code)
	}

	for _, eventType := range []string{
		ledger.EventTypeEventCreated,
		ledger.EventTypeFundraiserAdded,
		ledger.EventTypeExpenseAdded,
		ledger.EventTypeEventDeleted,
	} {
		if !audit.has(eventType) {
			t.Errorf("expected audit event %q", eventType)
		}
	}
}

func TestErrorMapping(t *testing.T) {
	h, _ := setupTestServer(t)
	token := signup(t, h, "alice")
	event := createEvent(t, h, token, "Picnic")
	base := fmt.Sprintf("/events/%d", event.ID)
	do(t, h, "POST", base+"/fundraisers", token, ledger.FundraiserInput{Name: "Bob", Amount: "10"})

	tests := []struct {
		name     string
		method   string
		path     string
		body     any
		wantCode int
	}{
		{"invalid amount", "POST", base + "/fundraisers", ledger.FundraiserInput{Name: "Bob", Amount: "1.234"}, http.StatusBadRequest},
		{"blank fundraiser", "POST", base + "/fundraisers", ledger.FundraiserInput{Amount: "5"}, http.StatusBadRequest},
		{"past date", "POST", "/events", ledger.NewEventInput{Name: "Old", Date: "2024-05-01", ExpenseTypes: []string{"Food"}}, http.StatusBadRequest},
		{"duplicate event", "POST", "/events", ledger.NewEventInput{Name: "Picnic", Date: "2024-06-10", ExpenseTypes: []string{"Food"}}, http.StatusConflict},
		{"insufficient funds", "POST", base + "/expenses", ledger.ExpenseInput{Type: "Food", Amount: "10.01"}, http.StatusConflict},
		{"unknown expense type", "POST", base + "/expenses", ledger.ExpenseInput{Type: "Travel", Amount: "1"}, http.StatusNotFound},
		{"unknown event", "GET", "/events/42/statistics", nil, http.StatusNotFound},
		{"non-numeric id", "GET", "/events/picnic", nil, http.StatusBadRequest},
		{"malformed body", "POST", "/events", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, tt.method, tt.path, token, tt.body)
			if w.Code != tt.wantCode {
				t.Fatalf("Expected status code %d, got %d: %s", tt.wantCode, w.Code, w.Body.String())
			}
			if got := decode[errorResponse](t, w).Error; got == "" {
				t.Fatal("expected error message in body")
			}
		})
	}

	w := do(t, h, "GET", base+"/history", token, nil)
	after := decode[ledger.Event](t, w)
	if len(after.Fundraisers) != 1 || len(after.History) != 0 {
		t.Fatalf("rejected requests changed the record: %+v", after)
	}
}

func TestEventsAreScopedToTheirOwner(t *testing.T) {
	h, _ := setupTestServer(t)
	alice := signup(t, h, "alice")
	bob := signup(t, h, "bobby")
	event := createEvent(t, h, alice, "Picnic")

	w := do(t, h, "GET", fmt.Sprintf("/events/%d/history", event.ID), bob, nil)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's event, got %d", w.Code)
	}
}

func TestProfile(t *testing.T) {
	h, audit := setupTestServer(t)
	token := signup(t, h, "alice")
	createEvent(t, h, token, "Picnic")

	image := "file:///avatar.jpg"
	w := do(t, h, "PUT", "/profile", token, profile.Input{ProfileImage: &image, UserName: "Alice"})
	if w.Code != http.StatusOK {
		t.Fatalf("save profile: expected 200, got %d: %s", w.Code, w.Body.String())
	}

	w = do(t, h, "GET", "/profile", token, nil)
	got := decode[profile.Profile](t, w)
	want := profile.Profile{ProfileImage: &image, UserName: "Alice", EventCount: 1}
	if diff := cmp.Diff(got, want); diff != "" {
		t.Fatalf("Bad profile; diff (-got +want)\n%s", diff)
	}

	if !audit.has(EventTypeProfileUpdated) {
		t.Errorf("expected audit event %q", EventTypeProfileUpdated)
	}
}
