package api

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"

	"studiosim/internal/catalog"
	"studiosim/internal/db"
	"studiosim/internal/feed"
	"studiosim/internal/game"
)

type fakeDelegator struct {
	mu      sync.Mutex
	started []string
	stopped []string
}

func (f *fakeDelegator) Start(id string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, id)
	return true
}

func (f *fakeDelegator) Stop(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = append(f.stopped, id)
}

type testAPI struct {
	t     *testing.T
	srv   *httptest.Server
	deleg *fakeDelegator
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()
	store, err := db.OpenSQLite(filepath.Join(t.TempDir(), "api.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	cat, err := catalog.Default()
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	svc := game.NewService(store, cat, logger, 7)
	deleg := &fakeDelegator{}
	srv := httptest.NewServer(New(logger, svc, feed.NewHub(logger), deleg).Handler())
	t.Cleanup(srv.Close)
	return &testAPI{t: t, srv: srv, deleg: deleg}
}

func (a *testAPI) do(method, path, key, idem string, body any, out any) int {
	a.t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			a.t.Fatalf("marshal: %v", err)
		}
		rdr = bytes.NewReader(raw)
	}
	req, err := http.NewRequest(method, a.srv.URL+path, rdr)
	if err != nil {
		a.t.Fatalf("new request: %v", err)
	}
	if key != "" {
		req.Header.Set("Authorization", "Bearer "+key)
	}
	if idem != "" {
		req.Header.Set("Idempotency-Key", idem)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		a.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			a.t.Fatalf("decode %s %s: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

type companyBody struct {
	Company struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Funds int64  `json:"funds"`
		Month int    `json:"month"`
		Staff []struct {
			ID     string `json:"id"`
			Status string `json:"status"`
		} `json:"staff"`
		Delegation bool `json:"delegation"`
	} `json:"company"`
	Notice string `json:"notice"`
}

func (a *testAPI) create(name string) game.Created {
	a.t.Helper()
	var out game.Created
	if code := a.do(http.MethodPost, "/v1/companies", "", "", map[string]any{"name": name}, &out); code != http.StatusCreated {
		a.t.Fatalf("create status=%d", code)
	}
	return out
}

func TestHealthz(t *testing.T) {
	a := newTestAPI(t)
	var out map[string]any
	if code := a.do(http.MethodGet, "/healthz", "", "", nil, &out); code != http.StatusOK || out["ok"] != true {
		t.Fatalf("healthz status=%d body=%v", code, out)
	}
}

func TestCreateCompanyValidation(t *testing.T) {
	a := newTestAPI(t)
	tests := []struct {
		name string
		body any
		want int
	}{
		{"blank name", map[string]any{"name": "  "}, http.StatusBadRequest},
		{"blocked name", map[string]any{"name": "Admin Games"}, http.StatusBadRequest},
		{"unknown field", map[string]any{"name": "Fine", "funds": 1}, http.StatusBadRequest},
		{"ok", map[string]any{"name": "Fine Games"}, http.StatusCreated},
	}
	for _, tt := range tests {
		if code := a.do(http.MethodPost, "/v1/companies", "", "", tt.body, nil); code != tt.want {
			t.Fatalf("%s: status=%d want %d", tt.name, code, tt.want)
		}
	}
}

func TestCompanyRoutesRequireKey(t *testing.T) {
	a := newTestAPI(t)
	created := a.create("Moonlight Games")
	path := "/v1/companies/" + created.ID

	if code := a.do(http.MethodGet, path, "", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("no key status=%d", code)
	}
	if code := a.do(http.MethodGet, path, "sk_nope", "", nil, nil); code != http.StatusUnauthorized {
		t.Fatalf("wrong key status=%d", code)
	}
	if code := a.do(http.MethodGet, "/v1/companies/missing", created.Key, "", nil, nil); code != http.StatusNotFound {
		t.Fatalf("missing company status=%d", code)
	}

	var view companyBody
	if code := a.do(http.MethodGet, path, created.Key, "", nil, &view); code != http.StatusOK {
		t.Fatalf("view status=%d", code)
	}
	if view.Company.Name != "Moonlight Games" || view.Company.Funds != 84000 {
		t.Fatalf("view=%+v", view.Company)
	}
}

func TestAdvanceAndHistory(t *testing.T) {
	a := newTestAPI(t)
	created := a.create("Moonlight Games")
	base := "/v1/companies/" + created.ID

	var adv companyBody
	if code := a.do(http.MethodPost, base+"/advance", created.Key, "adv-1", nil, &adv); code != http.StatusOK {
		t.Fatalf("advance status=%d", code)
	}
	if adv.Company.Month != 2 {
		t.Fatalf("month=%d want 2", adv.Company.Month)
	}
	if code := a.do(http.MethodPost, base+"/advance", created.Key, "adv-1", nil, nil); code != http.StatusConflict {
		t.Fatalf("replayed advance status=%d want 409", code)
	}

	var hist struct {
		History []struct {
			Month int   `json:"month"`
			Funds int64 `json:"funds"`
		} `json:"history"`
	}
	if code := a.do(http.MethodGet, base+"/history?limit=10", created.Key, "", nil, &hist); code != http.StatusOK {
		t.Fatalf("history status=%d", code)
	}
	if len(hist.History) != 2 || hist.History[1].Funds != adv.Company.Funds {
		t.Fatalf("history=%+v", hist.History)
	}
}

func TestStaffCommands(t *testing.T) {
	a := newTestAPI(t)
	created := a.create("Moonlight Games")
	base := "/v1/companies/" + created.ID
	staffID := created.Company.Staff[0].ID

	var out companyBody
	if code := a.do(http.MethodPost, base+"/staff/"+staffID+"/vacation", created.Key, "", nil, &out); code != http.StatusOK {
		t.Fatalf("vacation status=%d", code)
	}
	if out.Company.Funds != 84000-3000 || out.Notice == "" {
		t.Fatalf("after vacation funds=%d notice=%q", out.Company.Funds, out.Notice)
	}

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"vacation twice", http.MethodPost, "/staff/" + staffID + "/vacation", nil, http.StatusBadRequest},
		{"unknown staff", http.MethodPost, "/staff/ghost/vacation", nil, http.StatusNotFound},
		{"bad skill", http.MethodPost, "/staff/" + staffID + "/train", map[string]any{"skill": "juggling"}, http.StatusBadRequest},
		{"bad role", http.MethodPost, "/staff/" + staffID + "/specialist", map[string]any{"role": "wizard"}, http.StatusBadRequest},
		{"unresearched genre", http.MethodPost, "/projects", map[string]any{"name": "X", "genre_id": "g9", "theme_id": "t1", "platform_id": "p1", "budget": 1000, "staff_ids": []string{created.Company.Staff[1].ID}}, http.StatusBadRequest},
		{"bad research kind", http.MethodPost, "/research", map[string]any{"kind": "alchemy", "item_id": "x"}, http.StatusBadRequest},
		{"no build to cancel", http.MethodPost, "/engines/build/cancel", nil, http.StatusNotFound},
	}
	for _, tt := range tests {
		if code := a.do(tt.method, base+tt.path, created.Key, "", tt.body, nil); code != tt.want {
			t.Fatalf("%s: status=%d want %d", tt.name, code, tt.want)
		}
	}

	var cands struct {
		Candidates []struct {
			Name string `json:"name"`
		} `json:"candidates"`
	}
	if code := a.do(http.MethodGet, base+"/staff/candidates?n=2", created.Key, "", nil, &cands); code != http.StatusOK || len(cands.Candidates) != 2 {
		t.Fatalf("candidates status=%d n=%d", code, len(cands.Candidates))
	}
	hire := map[string]any{"name": cands.Candidates[0].Name, "skills": map[string]int{"programming": 3, "speed": 3}}
	if code := a.do(http.MethodPost, base+"/staff/hire", created.Key, "hire-1", hire, nil); code != http.StatusOK {
		t.Fatalf("hire status=%d", code)
	}
	if code := a.do(http.MethodPost, base+"/staff/hire", created.Key, "hire-1", hire, nil); code != http.StatusConflict {
		t.Fatalf("replayed hire status=%d want 409", code)
	}
}

func TestDelegationToggleNotifiesDelegator(t *testing.T) {
	a := newTestAPI(t)
	created := a.create("Moonlight Games")
	base := "/v1/companies/" + created.ID

	if code := a.do(http.MethodPost, base+"/delegation/cycle", created.Key, "", nil, nil); code != http.StatusConflict {
		t.Fatalf("cycle while off status=%d want 409", code)
	}
	var out companyBody
	if code := a.do(http.MethodPost, base+"/delegation", created.Key, "", map[string]any{"enabled": true}, &out); code != http.StatusOK || !out.Company.Delegation {
		t.Fatalf("delegation on status=%d delegation=%v", code, out.Company.Delegation)
	}
	if code := a.do(http.MethodPost, base+"/delegation/cycle", created.Key, "", nil, &out); code != http.StatusOK || out.Company.Month != 2 {
		t.Fatalf("cycle status=%d month=%d", code, out.Company.Month)
	}
	if code := a.do(http.MethodPost, base+"/delegation", created.Key, "", map[string]any{"enabled": false}, nil); code != http.StatusOK {
		t.Fatalf("delegation off status=%d", code)
	}
	if code := a.do(http.MethodPost, base+"/reset", created.Key, "", nil, &out); code != http.StatusOK || out.Company.Month != 1 {
		t.Fatalf("reset status=%d month=%d", code, out.Company.Month)
	}

	a.deleg.mu.Lock()
	defer a.deleg.mu.Unlock()
	if len(a.deleg.started) != 1 || a.deleg.started[0] != created.ID {
		t.Fatalf("started=%v", a.deleg.started)
	}
	if len(a.deleg.stopped) != 2 {
		t.Fatalf("stopped=%v want off and reset", a.deleg.stopped)
	}
}
