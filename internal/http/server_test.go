package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/text/language"

	"pache/internal/core"
	"pache/internal/service"
	"pache/internal/storage/memory"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	svc := service.NewPacheService(memory.New(), nil, language.Make("fa"))
	s := NewServer(":0", svc)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func doJSON(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.Handler.ServeHTTP(rec, req)
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

func TestHealthEndpoints(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/healthz", "/readyz"} {
		rec := doJSON(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("%s = %d", path, rec.Code)
		}
	}
}

func TestPacheCRUD(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/paches", map[string]string{"name": "trip"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d: %s", rec.Code, rec.Body.String())
	}
	created := decode[core.Pache](t, rec)
	if created.ID == "" || created.Name != "trip" {
		t.Fatalf("created = %+v", created)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list = %d", rec.Code)
	}
	if paches := decode[[]core.Pache](t, rec); len(paches) != 1 {
		t.Errorf("list returned %d paches", len(paches))
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+created.ID, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodPut, "/api/paches/"+created.ID, map[string]any{"name": "renamed"})
	if rec.Code != http.StatusOK {
		t.Fatalf("update = %d: %s", rec.Code, rec.Body.String())
	}
	if updated := decode[core.Pache](t, rec); updated.Name != "renamed" {
		t.Errorf("updated name = %q", updated.Name)
	}

	rec = doJSON(t, s, http.MethodDelete, "/api/paches/"+created.ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+created.ID, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("get after delete = %d", rec.Code)
	}
}

func TestErrorStatusCodes(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/paches", map[string]string{"name": "trip"})
	p := decode[core.Pache](t, rec)

	rec = doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/members", map[string]string{"name": "Ali"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add member = %d", rec.Code)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"missing pache", http.MethodGet, "/api/paches/ghost", nil, http.StatusNotFound},
		{"duplicate member", http.MethodPost, "/api/paches/" + p.ID + "/members", map[string]string{"name": "ali"}, http.StatusConflict},
		{"empty member name", http.MethodPost, "/api/paches/" + p.ID + "/members", map[string]string{"name": "  "}, http.StatusUnprocessableEntity},
		{"malformed body", http.MethodPost, "/api/paches/" + p.ID + "/members", nil, http.StatusBadRequest},
		{"missing member delete", http.MethodDelete, "/api/paches/" + p.ID + "/members/ghost", nil, http.StatusNotFound},
		{"missing expense delete", http.MethodDelete, "/api/paches/" + p.ID + "/expenses/ghost", nil, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := doJSON(t, s, tt.method, tt.path, tt.body)
			if rec.Code != tt.want {
				t.Errorf("got %d, want %d: %s", rec.Code, tt.want, rec.Body.String())
			}
			var payload struct {
				Message string `json:"message"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil || payload.Message == "" {
				t.Errorf("error payload = %q", rec.Body.String())
			}
		})
	}
}

func TestExpenseAndBalanceFlow(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/paches", map[string]string{"name": "trip"})
	p := decode[core.Pache](t, rec)

	var members []core.Member
	for _, name := range []string{"Ali", "Bita", "Sara"} {
		rec := doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/members", map[string]string{"name": name})
		if rec.Code != http.StatusCreated {
			t.Fatalf("add %s = %d", name, rec.Code)
		}
		members = append(members, decode[core.Member](t, rec))
	}

	rec = doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/expenses", map[string]any{
		"description":    "dinner",
		"amount":         100.00,
		"paidById":       members[0].ID,
		"participantIds": []string{members[0].ID, members[1].ID, members[2].ID},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("add expense = %d: %s", rec.Code, rec.Body.String())
	}
	expense := decode[core.Expense](t, rec)
	if len(expense.Shares) != 3 {
		t.Fatalf("shares = %+v", expense.Shares)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+p.ID+"/balances", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("balances = %d", rec.Code)
	}
	balances := decode[[]core.CalculatedBalance](t, rec)
	if len(balances) != 3 {
		t.Fatalf("got %d balances", len(balances))
	}
	byID := map[string]string{}
	for _, b := range balances {
		byID[b.MemberID] = b.Balance.StringFixed(2)
	}
	if byID[members[0].ID] != "66.66" {
		t.Errorf("payer balance = %s", byID[members[0].ID])
	}
	if byID[members[1].ID] != "-33.33" || byID[members[2].ID] != "-33.33" {
		t.Errorf("debtor balances = %v", byID)
	}

	rec = doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/payments", map[string]any{
		"fromMemberId": members[1].ID,
		"toMemberId":   members[0].ID,
		"amount":       33.33,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record payment = %d: %s", rec.Code, rec.Body.String())
	}

	// The payment must invalidate the cached balances.
	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+p.ID+"/balances", nil)
	balances = decode[[]core.CalculatedBalance](t, rec)
	for _, b := range balances {
		if b.MemberID == members[1].ID && !b.Balance.IsZero() {
			t.Errorf("balance after settlement = %s", b.Balance)
		}
	}
}

func TestBalancesUseUnknownMemberPlaceholder(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/paches", map[string]string{"name": "trip"})
	p := decode[core.Pache](t, rec)

	var members []core.Member
	for _, name := range []string{"Ali", "Bita"} {
		rec := doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/members", map[string]string{"name": name})
		members = append(members, decode[core.Member](t, rec))
	}

	doJSON(t, s, http.MethodPost, "/api/paches/"+p.ID+"/expenses", map[string]any{
		"description":    "taxi",
		"amount":         10.00,
		"paidById":       members[1].ID,
		"participantIds": []string{members[0].ID, members[1].ID},
	})

	rec = doJSON(t, s, http.MethodDelete, "/api/paches/"+p.ID+"/members/"+members[1].ID, nil)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete member = %d", rec.Code)
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+p.ID, nil)
	got := decode[core.Pache](t, rec)
	if len(got.Expenses) != 1 {
		t.Fatal("expense history lost with member")
	}

	rec = doJSON(t, s, http.MethodGet, "/api/paches/"+p.ID+"/balances", nil)
	balances := decode[[]core.CalculatedBalance](t, rec)
	if len(balances) != 1 {
		t.Fatalf("got %d balances, want only current members", len(balances))
	}
	if balances[0].MemberID != members[0].ID {
		t.Errorf("balance member = %s", balances[0].MemberID)
	}
}

func TestRateLimitOnMutations(t *testing.T) {
	s := newTestServer(t)

	limited := false
	for i := 0; i < 70; i++ {
		rec := doJSON(t, s, http.MethodPost, "/api/paches", map[string]string{"name": fmt.Sprintf("p%d", i)})
		if rec.Code == http.StatusTooManyRequests {
			limited = true
			break
		}
	}
	if !limited {
		t.Error("mutations never rate limited")
	}

	// Reads are not limited.
	rec := doJSON(t, s, http.MethodGet, "/api/paches", nil)
	if rec.Code != http.StatusOK {
		t.Errorf("read after limit = %d", rec.Code)
	}
}

func TestSecurityHeaders(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/api/paches", nil)
	if got := rec.Header().Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if got := rec.Header().Get("X-Frame-Options"); got != "DENY" {
		t.Errorf("X-Frame-Options = %q", got)
	}
}

func TestIndexServesUI(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodGet, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("index = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("Pache")) {
		t.Error("index page missing app markup")
	}
}
