package web

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/core"
	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/JonMunkholm/orderenhancer/internal/settings"
)

type fakeQuerier struct {
	rows []map[string]any
}

func (f *fakeQuerier) QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	return f.rows, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Server: config.ServerConfig{RequestTimeout: 5 * time.Second},
		Export: config.ExportConfig{
			VarDir:          t.TempDir(),
			FallbackDir:     "export",
			UnwantedColumns: export.DefaultUnwantedColumns,
			PhoneColumn:     export.DefaultPhoneColumn,
			MaxConcurrent:   1,
			MaxWaitTime:     time.Second,
		},
		Grid:     config.GridConfig{Placeholder: "غير محدد", Separator: " | ", PageSize: 20},
		Features: config.FeatureConfig{ExcelExport: true, ProductColumns: true},
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *Server {
	t.Helper()
	q := &fakeQuerier{rows: []map[string]any{{
		"increment_id":   "000000007",
		"customer_phone": "0100",
		"governorate":    "الجيزة",
	}}}
	svc, err := core.NewService(q, database.MySQL{}, cfg, core.Options{Settings: settings.StaticSource{}})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	s := NewServer(svc, cfg)
	t.Cleanup(func() { s.Shutdown(context.Background()) })
	return s
}

func do(t *testing.T, s *Server, method, target, body string, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	s.Router().ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	body := decode[healthResponse](t, rec)
	if body.Status != "ok" || body.Exports.MaxConcurrent != 1 {
		t.Errorf("body = %+v", body)
	}
	if rec.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("security headers missing")
	}
}

func TestGrid(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := do(t, s, http.MethodGet, "/api/orders/grid?page=1&store=1", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	page := decode[core.GridPage](t, rec)
	if page.PageSize != 20 || page.StoreID == nil || *page.StoreID != 1 {
		t.Errorf("page = %+v", page)
	}
	if len(page.Rows) != 1 || page.Rows[0].String(grid.ColGovernorate) != "الجيزة" {
		t.Errorf("rows = %v", page.Rows)
	}
}

func TestGrid_BadParams(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		target   string
		wantCode string
	}{
		{"/api/orders/grid?page=abc", "GRID001"},
		{"/api/orders/grid?page=0", "GRID001"},
		{"/api/orders/grid?store=-1", "GRID002"},
		{"/api/orders/grid?store=main", "GRID002"},
	}

	for _, tt := range tests {
		rec := do(t, s, http.MethodGet, tt.target, "")
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: status = %d, want 400", tt.target, rec.Code)
		}
		if got := decode[ErrorResponse](t, rec); got.Code != tt.wantCode {
			t.Errorf("%s: code = %s, want %s", tt.target, got.Code, tt.wantCode)
		}
	}
}

func TestExportAndDownload(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	for _, format := range []string{"csv", "xml"} {
		t.Run(format, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, "/api/orders/export/"+format, "")
			if rec.Code != http.StatusCreated {
				t.Fatalf("export status = %d, body = %s", rec.Code, rec.Body)
			}
			result := decode[exportResponse](t, rec)
			if !strings.HasSuffix(result.File, "."+format) || result.Download != "/api/orders/export/"+result.File {
				t.Fatalf("result = %+v", result)
			}

			rec = do(t, s, http.MethodGet, result.Download, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("download status = %d", rec.Code)
			}
			if ct := rec.Header().Get("Content-Type"); ct != "text/csv; charset=utf-8" {
				t.Errorf("Content-Type = %q", ct)
			}
			body := rec.Body.String()
			if !strings.HasPrefix(body, export.BOM+`"ID",`) {
				t.Errorf("download not post-processed: %q", body[:min(len(body), 40)])
			}
			if strings.Count(body, `"Customer Phone"`) != 1 {
				t.Error("duplicate phone column kept")
			}
		})
	}
}

func TestExport_Errors(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	tests := []struct {
		method, target string
		wantStatus     int
		wantCode       string
	}{
		{http.MethodPost, "/api/orders/export/xlsx", http.StatusBadRequest, "EXP001"},
		{http.MethodGet, "/api/orders/export/missing.csv", http.StatusNotFound, "FILE001"},
		{http.MethodGet, "/api/orders/export/.env", http.StatusBadRequest, "FILE002"},
	}

	for _, tt := range tests {
		rec := do(t, s, tt.method, tt.target, "")
		if rec.Code != tt.wantStatus {
			t.Errorf("%s %s: status = %d, want %d", tt.method, tt.target, rec.Code, tt.wantStatus)
		}
		if got := decode[ErrorResponse](t, rec); got.Code != tt.wantCode {
			t.Errorf("%s %s: code = %s, want %s", tt.method, tt.target, got.Code, tt.wantCode)
		}
	}
}

func TestRewriteExport(t *testing.T) {
	cfg := testConfig(t)
	s := newTestServer(t, cfg)

	path := filepath.Join(cfg.Export.VarDir, "export", "manual.csv")
	if err := os.WriteFile(path, []byte("ID,Lock,Customer Phone,Customer Phone\n1,x,5,5\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	rec := do(t, s, http.MethodPost, "/api/export/rewrite", `{"file":"manual.csv"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	got := decode[rewriteResponse](t, rec)
	if !got.Changed || got.DuplicatePhones != 1 || got.Rows != 1 || len(got.Removed) != 2 {
		t.Errorf("response = %+v", got)
	}

	data, _ := os.ReadFile(path)
	if want := export.BOM + `"ID","Customer Phone"` + "\n" + `"1","5"`; string(data) != want {
		t.Errorf("file = %q, want %q", data, want)
	}

	if rec := do(t, s, http.MethodPost, "/api/export/rewrite", `{"file":"none.csv"}`); rec.Code != http.StatusNotFound {
		t.Errorf("missing file: status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodPost, "/api/export/rewrite", `{`); rec.Code != http.StatusBadRequest {
		t.Errorf("bad body: status = %d", rec.Code)
	}
}

func TestSettings(t *testing.T) {
	s := newTestServer(t, testConfig(t))

	rec := do(t, s, http.MethodGet, "/api/settings?store=3", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[settingsResponse](t, rec)
	if got.StoreID == nil || *got.StoreID != 3 {
		t.Errorf("StoreID = %v", got.StoreID)
	}
	if !got.Flags[settings.PathExcelExport] || got.Flags[settings.PathGovernorateFilter] {
		t.Errorf("Flags = %v", got.Flags)
	}
}

func TestAPIKeyRequired(t *testing.T) {
	cfg := testConfig(t)
	cfg.Security = config.SecurityConfig{RequireAPIKey: true, APIKeys: []string{"k1"}}
	s := newTestServer(t, cfg)

	if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
		t.Errorf("healthz should stay open, status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/settings", ""); rec.Code != http.StatusUnauthorized {
		t.Errorf("no key: status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/settings", "", "X-API-Key", "nope"); rec.Code != http.StatusForbidden {
		t.Errorf("wrong key: status = %d", rec.Code)
	}
	if rec := do(t, s, http.MethodGet, "/api/settings", "", "Authorization", "Bearer k1"); rec.Code != http.StatusOK {
		t.Errorf("bearer key: status = %d", rec.Code)
	}
}

func TestRateLimit(t *testing.T) {
	cfg := testConfig(t)
	cfg.Rate = config.RateLimitConfig{Enabled: true, RequestsPerMinute: 2}
	s := newTestServer(t, cfg)

	for i := 0; i < 2; i++ {
		if rec := do(t, s, http.MethodGet, "/healthz", ""); rec.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i, rec.Code)
		}
	}

	rec := do(t, s, http.MethodGet, "/healthz", "")
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if got := decode[ErrorResponse](t, rec); got.Code != "RATE001" {
		t.Errorf("code = %s", got.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[string]int{
		"FILE001": http.StatusNotFound,
		"GRID002": http.StatusBadRequest,
		"EXP002":  http.StatusServiceUnavailable,
		"EXP004":  http.StatusGatewayTimeout,
		"DB006":   http.StatusBadGateway,
		"ERR000":  http.StatusInternalServerError,
	}
	for code, want := range tests {
		if got := statusFor(code); got != want {
			t.Errorf("statusFor(%s) = %d, want %d", code, got, want)
		}
	}
}
