package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/export"
	"github.com/JonMunkholm/orderenhancer/internal/grid"
	"github.com/JonMunkholm/orderenhancer/internal/settings"
)

type fakeQuerier struct {
	queries []string
	rows    []map[string]any
	err     error
}

func (f *fakeQuerier) QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	f.queries = append(f.queries, query)
	return f.rows, f.err
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Export: config.ExportConfig{
			VarDir:          t.TempDir(),
			FallbackDir:     "export",
			UnwantedColumns: export.DefaultUnwantedColumns,
			PhoneColumn:     export.DefaultPhoneColumn,
			LegacyCharset:   "windows-1256",
			MaxConcurrent:   2,
			MaxWaitTime:     time.Second,
		},
		Grid:     config.GridConfig{Placeholder: "غير محدد", Separator: " | ", PageSize: 10},
		Features: config.FeatureConfig{ExcelExport: true, ProductColumns: true},
	}
}

func newTestService(t *testing.T, cfg *config.Config, q *fakeQuerier, source settings.StaticSource) *Service {
	t.Helper()
	if source == nil {
		source = settings.StaticSource{}
	}
	s, err := NewService(q, database.MySQL{}, cfg, Options{Settings: source})
	if err != nil {
		t.Fatalf("NewService() error = %v", err)
	}
	return s
}

func orderRows() []map[string]any {
	return []map[string]any{{
		"increment_id":           "000000042",
		"status":                 "pending",
		"grand_total":            "150.0000",
		"base_grand_total":       "150.0000",
		"customer_name":          "Ali Hassan",
		"customer_phone":         "01001234567",
		"governorate":            "القاهرة",
		"customer_note":          nil,
		"product_names":          "Shirt | Hat",
		"product_skus":           "SH-1 | HT-2",
		"total_products_ordered": "2 منتج (3 قطعة)",
	}}
}

func readLines(t *testing.T, path string) [][]string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var out [][]string
	for _, line := range strings.Split(strings.TrimPrefix(string(data), export.BOM), "\n") {
		fields, err := export.ParseLine(line)
		if err != nil {
			t.Fatalf("ParseLine(%q) error = %v", line, err)
		}
		if fields != nil {
			out = append(out, fields)
		}
	}
	return out
}

func TestNewService_CreatesExportDir(t *testing.T) {
	cfg := testConfig(t)
	newTestService(t, cfg, &fakeQuerier{}, nil)

	info, err := os.Stat(filepath.Join(cfg.Export.VarDir, "export"))
	if err != nil || !info.IsDir() {
		t.Fatalf("export directory not created: %v", err)
	}
}

func TestNewService_UnknownCharset(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.LegacyCharset = "not-a-charset"

	if _, err := NewService(&fakeQuerier{}, database.MySQL{}, cfg, Options{Settings: settings.StaticSource{}}); err == nil {
		t.Fatal("NewService() expected error for unknown charset")
	}
}

func TestService_LoadGrid(t *testing.T) {
	q := &fakeQuerier{rows: orderRows()}
	s := newTestService(t, testConfig(t), q, nil)

	page, err := s.LoadGrid(context.Background(), 2)
	if err != nil {
		t.Fatalf("LoadGrid() error = %v", err)
	}

	if len(q.queries) != 1 {
		t.Fatalf("executed %d queries, want 1", len(q.queries))
	}
	sql := q.queries[0]
	if !strings.HasSuffix(sql, "LIMIT 10 OFFSET 10") {
		t.Errorf("query does not page: %s", sql)
	}
	if !strings.Contains(sql, "AS `product_names`") {
		t.Errorf("query lacks computed columns: %s", sql)
	}

	wantCols := len(grid.BaseColumns) + len(grid.ComputedColumns)
	if len(page.Columns) != wantCols {
		t.Errorf("Columns has %d entries, want %d", len(page.Columns), wantCols)
	}
	if page.Rows[0].String(grid.ColGovernorate) != "القاهرة" {
		t.Errorf("governorate = %q", page.Rows[0].String(grid.ColGovernorate))
	}
	if s.Events().Count(grid.EventLoadBefore) != 1 {
		t.Error("governorate observer not registered")
	}
}

func TestService_LoadGrid_StoreDisablesColumns(t *testing.T) {
	source := settings.StaticSource{}
	source.Set(settings.PathProductColumns, settings.ScopeStores, 2, "0")

	q := &fakeQuerier{rows: []map[string]any{{"status": "pending", "entity_id": "1"}}}
	s := newTestService(t, testConfig(t), q, source)

	page, err := s.LoadGrid(ContextWithStoreID(context.Background(), 2), 1)
	if err != nil {
		t.Fatalf("LoadGrid() error = %v", err)
	}

	if strings.Contains(q.queries[0], "product_names") {
		t.Errorf("store 2 should not get computed columns: %s", q.queries[0])
	}
	if got := strings.Join(page.Columns, ","); got != "entity_id,status" {
		t.Errorf("Columns = %s, want entity_id,status", got)
	}
	if page.StoreID == nil || *page.StoreID != 2 {
		t.Errorf("StoreID = %v, want 2", page.StoreID)
	}
}

func TestService_LoadGrid_Errors(t *testing.T) {
	s := newTestService(t, testConfig(t), &fakeQuerier{err: errors.New("Error 1146: Table 'sales_order_grid' doesn't exist")}, nil)

	if _, err := s.LoadGrid(context.Background(), 0); MapError(err).Code != "GRID001" {
		t.Errorf("page 0: got %v", err)
	}
	if _, err := s.LoadGrid(context.Background(), 1); MapError(err).Code != "DB006" {
		t.Errorf("missing table: got %v", err)
	}
}

func TestService_ExportGridCsv(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(t, cfg, &fakeQuerier{rows: orderRows()}, nil)

	result, err := s.ExportGridCsv(context.Background())
	if err != nil {
		t.Fatalf("ExportGridCsv() error = %v", err)
	}
	if result.Type != "filename" || !result.Rm {
		t.Errorf("result = %+v", result)
	}
	if filepath.Dir(result.Value) != "export" || filepath.Ext(result.Value) != ".csv" {
		t.Errorf("result.Value = %q, want export/<id>.csv", result.Value)
	}

	path := filepath.Join(cfg.Export.VarDir, result.Value)
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(string(data), export.BOM) {
		t.Error("export lacks UTF-8 BOM")
	}

	lines := readLines(t, path)
	if len(lines) != 2 {
		t.Fatalf("export has %d lines, want 2", len(lines))
	}
	header, row := lines[0], lines[1]
	if len(header) != len(row) {
		t.Fatalf("header has %d fields, row has %d", len(header), len(row))
	}

	phones := 0
	for i, h := range header {
		for _, unwanted := range export.DefaultUnwantedColumns {
			if h == unwanted {
				t.Errorf("unwanted column %q kept", h)
			}
		}
		if h == "Customer Phone" {
			phones++
			if row[i] != "01001234567" {
				t.Errorf("phone = %q", row[i])
			}
		}
		if h == export.LabelProductsOrdered && row[i] != "2 منتج (3 قطعة)" {
			t.Errorf("products ordered = %q", row[i])
		}
	}
	if phones != 1 {
		t.Errorf("export has %d phone columns, want 1", phones)
	}
}

func TestService_ExportGridXml_Disabled(t *testing.T) {
	cfg := testConfig(t)
	cfg.Features.ExcelExport = false
	s := newTestService(t, cfg, &fakeQuerier{rows: orderRows()}, nil)

	result, err := s.ExportGridXml(context.Background())
	if err != nil {
		t.Fatalf("ExportGridXml() error = %v", err)
	}
	if filepath.Ext(result.Value) != ".xml" {
		t.Errorf("result.Value = %q, want .xml", result.Value)
	}

	data, err := os.ReadFile(filepath.Join(cfg.Export.VarDir, result.Value))
	if err != nil {
		t.Fatal(err)
	}
	if strings.HasPrefix(string(data), export.BOM) {
		t.Error("disabled post-processing should leave the file as generated")
	}
	if strings.Count(strings.SplitN(string(data), "\n", 2)[0], "Customer Phone") != 2 {
		t.Error("generated header should carry both phone columns")
	}
}

func TestService_ExportBusy(t *testing.T) {
	cfg := testConfig(t)
	cfg.Export.MaxConcurrent = 1
	cfg.Export.MaxWaitTime = 20 * time.Millisecond
	s := newTestService(t, cfg, &fakeQuerier{rows: orderRows()}, nil)

	if !s.limiter.TryAcquire() {
		t.Fatal("TryAcquire failed")
	}
	defer s.limiter.Release()

	if _, err := s.ExportGridCsv(context.Background()); !errors.Is(err, ErrTooManyExports) {
		t.Errorf("expected ErrTooManyExports, got %v", err)
	}
	if status := s.ExportLimiterStatus(); status.Active != 1 {
		t.Errorf("Active = %d, want 1", status.Active)
	}
}

func TestService_ExportUnknownFormat(t *testing.T) {
	s := newTestService(t, testConfig(t), &fakeQuerier{}, nil)

	if _, err := s.Export(context.Background(), Format("xlsx")); MapError(err).Code != "EXP001" {
		t.Errorf("got %v, want EXP001", err)
	}
}

func TestService_OpenExport(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(t, cfg, &fakeQuerier{}, nil)

	if err := os.WriteFile(filepath.Join(cfg.Export.VarDir, "export", "orders.csv"), []byte("ID\n1\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	data, err := s.OpenExport("orders.csv")
	if err != nil || string(data) != "ID\n1\n" {
		t.Errorf("OpenExport() = %q, %v", data, err)
	}

	if _, err := s.OpenExport("missing.csv"); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("missing: got %v", err)
	}
	for _, name := range []string{"", "../config.php", ".env", "export/orders.csv"} {
		if _, err := s.OpenExport(name); MapError(err).Code != "FILE002" {
			t.Errorf("OpenExport(%q) error = %v, want FILE002", name, err)
		}
	}
}

func TestService_RewriteExport(t *testing.T) {
	cfg := testConfig(t)
	s := newTestService(t, cfg, &fakeQuerier{}, nil)

	path := filepath.Join(cfg.Export.VarDir, "export", "manual.csv")
	if err := os.WriteFile(path, []byte("ID,Lock\n1,x\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	report, err := s.RewriteExport(context.Background(), "manual.csv")
	if err != nil {
		t.Fatalf("RewriteExport() error = %v", err)
	}
	if len(report.Outcome.Removed) != 1 || report.Outcome.Removed[0] != "Lock" {
		t.Errorf("Removed = %v", report.Outcome.Removed)
	}

	if _, err := s.RewriteExport(context.Background(), "nope.csv"); !errors.Is(err, ErrExportNotFound) {
		t.Errorf("missing: got %v", err)
	}
}

func TestService_Flags(t *testing.T) {
	source := settings.StaticSource{}
	source.Set(settings.PathGovernorateFilter, settings.ScopeDefault, 0, "1")
	s := newTestService(t, testConfig(t), &fakeQuerier{}, source)

	flags := s.Flags(context.Background())
	if !flags[settings.PathGovernorateFilter] || !flags[settings.PathExcelExport] || !flags[settings.PathProductColumns] {
		t.Errorf("Flags = %v", flags)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"csv": FormatCSV, " XML ": FormatXML} {
		if got, err := ParseFormat(in); err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("xlsx"); err == nil {
		t.Error("ParseFormat(xlsx) expected error")
	}
}
