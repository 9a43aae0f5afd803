package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/W4k4s/herramienta-presupuesto-economilenial/internal/storage"
)

const sampleBudget = `{
	"ingresos": [{"id": "1", "concepto": "Nómina", "cantidad": 2000, "tipo": "mensual"}],
	"gastos": {
		"necesidades": [{"id": "2", "concepto": "Alquiler", "cantidad": 1000}],
		"deseos": [],
		"ahorroInversion": [{"id": "3", "concepto": "Fondo", "cantidad": 400}]
	},
	"distribucion": {"necesidades": 50, "deseos": 30, "ahorroInversion": 20}
}`

var fixedNow = time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)

type fakePublisher struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (p *fakePublisher) PublishBudgetSaved(_ context.Context, identity string, _ time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, identity)
	return p.err
}

type failingRepo struct{ storage.BudgetRepository }

func (failingRepo) Ping(context.Context) error { return errors.New("db down") }

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()
	if opts.Repository == nil {
		opts.Repository = storage.NewMemoryStore()
	}
	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	s := NewServer(opts)
	t.Cleanup(func() { _ = s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, path, identity, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if identity != "" {
		req.Header.Set(defaultIdentityHeader, identity)
	}
	rr := httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(rr.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
	return out
}

func saveBody(doc string) string {
	return `{"budget_data": ` + doc + `}`
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, path := range []string{"/healthz", "/readyz"} {
		rr := do(t, s, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
	}

	down := newTestServer(t, Options{Repository: failingRepo{}})
	rr := do(t, down, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 when the repository is down, got %d", rr.Code)
	}
	if got := decode(t, rr)["status"]; got != "not_ready" {
		t.Fatalf("unexpected status %v", got)
	}
}

func TestBudgetRequiresIdentity(t *testing.T) {
	s := newTestServer(t, Options{})

	for _, tc := range []struct{ method, path string }{
		{http.MethodGet, "/budget"},
		{http.MethodPost, "/budget"},
		{http.MethodPost, "/budget/export?format=csv"},
		{http.MethodGet, "/budget/analysis"},
	} {
		rr := do(t, s, tc.method, tc.path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s %s: expected 401, got %d", tc.method, tc.path, rr.Code)
		}
		if decode(t, rr)["success"] != false {
			t.Fatalf("%s %s: expected success=false", tc.method, tc.path)
		}
	}
}

func TestGetBudgetWhenNothingSaved(t *testing.T) {
	s := newTestServer(t, Options{})

	rr := do(t, s, http.MethodGet, "/budget", "42", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}
	body := decode(t, rr)
	if body["success"] != true || body["data"] != nil {
		t.Fatalf("expected success with null data, got %v", body)
	}
	if _, ok := body["last_updated"]; ok {
		t.Fatalf("last_updated must be omitted when nothing is saved")
	}
}

func TestSaveAndLoadBudget(t *testing.T) {
	pub := &fakePublisher{}
	s := newTestServer(t, Options{Publisher: pub})

	rr := do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget))
	if rr.Code != http.StatusOK {
		t.Fatalf("save status=%d body=%s", rr.Code, rr.Body.String())
	}
	if got := decode(t, rr)["message"]; got != msgSaved {
		t.Fatalf("unexpected message %v", got)
	}
	if len(pub.calls) != 1 || pub.calls[0] != "42" {
		t.Fatalf("expected one publish for 42, got %v", pub.calls)
	}

	rr = do(t, s, http.MethodGet, "/budget", "42", "")
	body := decode(t, rr)
	data, ok := body["data"].(map[string]any)
	if !ok {
		t.Fatalf("expected a document, got %v", body["data"])
	}
	for _, key := range []string{"ingresos", "gastos", "distribucion"} {
		if _, ok := data[key]; !ok {
			t.Fatalf("stored document lacks %q", key)
		}
	}
	if body["last_updated"] == "" {
		t.Fatalf("expected last_updated")
	}

	if other := decode(t, do(t, s, http.MethodGet, "/budget", "7", "")); other["data"] != nil {
		t.Fatalf("identities must not share documents")
	}
}

func TestSaveBudgetSurvivesPublishFailure(t *testing.T) {
	s := newTestServer(t, Options{Publisher: &fakePublisher{err: errors.New("broker down")}})

	rr := do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget))
	if rr.Code != http.StatusOK {
		t.Fatalf("a failed publish must not fail the save, got %d", rr.Code)
	}
}

func TestSaveBudgetRejectsIncompleteDocuments(t *testing.T) {
	s := newTestServer(t, Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty body", ""},
		{"not json", "{"},
		{"missing budget_data", `{"other": 1}`},
		{"null budget_data", `{"budget_data": null}`},
		{"missing distribucion", saveBody(`{"ingresos": [], "gastos": {}}`)},
		{"null gastos", saveBody(`{"ingresos": [], "gastos": null, "distribucion": {}}`)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := do(t, s, http.MethodPost, "/budget", "42", tt.body)
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rr.Code)
			}
		})
	}
}

func TestExport(t *testing.T) {
	s := newTestServer(t, Options{})

	rr := do(t, s, http.MethodPost, "/budget/export?format=xml", "42", saveBody(sampleBudget))
	if rr.Code != http.StatusBadRequest || decode(t, rr)["message"] != "Formato no válido" {
		t.Fatalf("expected 400 Formato no válido, got %d %s", rr.Code, rr.Body.String())
	}

	rr = do(t, s, http.MethodPost, "/budget/export?format=csv", "42", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 without a stored budget, got %d", rr.Code)
	}

	rr = do(t, s, http.MethodPost, "/budget/export?format=csv", "42", saveBody(sampleBudget))
	if rr.Code != http.StatusOK {
		t.Fatalf("csv export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if ct := rr.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := rr.Header().Get("Content-Disposition"); cd != `attachment; filename="presupuesto-economilenial-2024-03-15.csv"` {
		t.Fatalf("unexpected disposition %q", cd)
	}
	if !strings.Contains(rr.Body.String(), "Necesidades,1000.00,50.00,50.00,Sí") {
		t.Fatalf("csv body lacks needs row:\n%s", rr.Body.String())
	}

	do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget))
	rr = do(t, s, http.MethodPost, "/budget/export", "42", `{"format": "pdf"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("pdf export status=%d body=%s", rr.Code, rr.Body.String())
	}
	if !strings.HasPrefix(rr.Body.String(), "%PDF") {
		t.Fatalf("expected a PDF body")
	}
}

func TestAnalysis(t *testing.T) {
	s := newTestServer(t, Options{})

	if rr := do(t, s, http.MethodGet, "/budget/analysis", "42", ""); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 before saving, got %d", rr.Code)
	}

	do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget))
	rr := do(t, s, http.MethodGet, "/budget/analysis", "42", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status=%d", rr.Code)
	}

	var resp analysisResponse
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.TotalIncome != "2000.00" || resp.Data.TotalExpense != "1400.00" || resp.Data.BalanceStatus != "superavit" {
		t.Fatalf("unexpected totals %+v", resp.Data)
	}
	if len(resp.Data.Categories) != 3 {
		t.Fatalf("expected 3 categories, got %d", len(resp.Data.Categories))
	}
	needs := resp.Data.Categories[0]
	if needs.Category != "necesidades" || needs.ActualPct != "50.00" || needs.Status != "green" {
		t.Fatalf("unexpected needs figures %+v", needs)
	}
	wants := resp.Data.Categories[1]
	if wants.Status != "red" {
		t.Fatalf("wants at 0%% must be red, got %+v", wants)
	}
}

func TestAPIToken(t *testing.T) {
	s := newTestServer(t, Options{APIToken: "secret"})

	rr := do(t, s, http.MethodGet, "/budget", "42", "")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rr.Code)
	}

	req := httptest.NewRequest(http.MethodGet, "/budget", nil)
	req.Header.Set(defaultIdentityHeader, "42")
	req.Header.Set("Authorization", "Bearer secret")
	rr = httptest.NewRecorder()
	s.Handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200 with token, got %d", rr.Code)
	}
}

func TestPostRateLimit(t *testing.T) {
	s := newTestServer(t, Options{RateLimitPerMinute: 1})

	if rr := do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget)); rr.Code != http.StatusOK {
		t.Fatalf("first save status=%d", rr.Code)
	}
	rr := do(t, s, http.MethodPost, "/budget", "42", saveBody(sampleBudget))
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	if rr := do(t, s, http.MethodGet, "/budget", "42", ""); rr.Code != http.StatusOK {
		t.Fatalf("GET must not be rate limited, got %d", rr.Code)
	}
}

func TestResponseHeaders(t *testing.T) {
	s := newTestServer(t, Options{})

	rr := do(t, s, http.MethodGet, "/healthz", "", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Fatalf("missing security headers")
	}
	if !strings.HasPrefix(rr.Header().Get("X-Request-ID"), "req_") {
		t.Fatalf("missing request id header")
	}

	rr = do(t, s, http.MethodGet, "/metrics", "", "")
	if !strings.Contains(rr.Body.String(), "http_requests_total") {
		t.Fatalf("metrics output lacks request counter:\n%s", rr.Body.String())
	}
}

func TestSanitizeIdentity(t *testing.T) {
	tests := []struct {
		raw  string
		want string
		ok   bool
	}{
		{" 42 ", "42", true},
		{"", "", false},
		{"   ", "", false},
		{"a\x00b", "", false},
		{strings.Repeat("x", maxIdentityLength+1), "", false},
	}
	for _, tt := range tests {
		got, ok := sanitizeIdentity(tt.raw)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("sanitizeIdentity(%q) = %q,%v", tt.raw, got, ok)
		}
	}
}
