package grid

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/events"
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

type staticFlag bool

func (f staticFlag) IsProductColumnsEnabled(ctx context.Context, storeID *int) bool { return bool(f) }

func TestSelect_String(t *testing.T) {
	tests := []struct {
		name string
		sel  *Select
		want string
	}{
		{
			name: "star with no columns",
			sel:  NewSelect(database.MySQL{}).From("sales_order", "so"),
			want: "SELECT * FROM `sales_order` AS so",
		},
		{
			name: "aliased columns, where, order, limit",
			sel: NewSelect(database.MySQL{}).
				From("sales_order_grid", "main_table", Col("id", "main_table.entity_id")).
				Where("main_table.store_id = 1").
				Where("main_table.status = 'pending'").
				Order("main_table.created_at DESC").
				Limit(20, 40),
			want: "SELECT main_table.entity_id AS `id` FROM `sales_order_grid` AS main_table " +
				"WHERE (main_table.store_id = 1) AND (main_table.status = 'pending') " +
				"ORDER BY main_table.created_at DESC LIMIT 20 OFFSET 40",
		},
		{
			name: "postgres identifiers",
			sel:  NewSelect(database.Postgres{}).From("sales_order", "so", Expr("so.customer_note")).Limit(1, 0),
			want: `SELECT so.customer_note FROM "sales_order" AS so LIMIT 1`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.sel.String(); got != tt.want {
				t.Errorf("String() =\n%s\nwant\n%s", got, tt.want)
			}
		})
	}
}

func TestAugmenter_MySQLColumns(t *testing.T) {
	q := &fakeQuerier{}
	c := NewCollection(q, database.MySQL{}, CollectionOptions{TablePrefix: "mg_"})
	NewAugmenter(staticFlag(true), "غير محدد", " | ").AddProductColumns(c)

	sql := c.Select().String()

	mustContain := []string{
		"main_table.entity_id AS `entity_id`",
		"main_table.total_refunded AS `total_refunded`",
		"FROM `mg_sales_order_address` AS soa ",
		"(soa.address_type = 'shipping')",
		"(soa_b.address_type = 'billing')",
		"COALESCE(NULLIF(TRIM(soa.region), ''), NULLIF(TRIM(soa.city), ''), 'غير محدد')",
		", 'غير محدد') AS `governorate`",
		"SELECT soa_phone.telephone FROM `mg_sales_order_address` AS soa_phone",
		"AS `customer_phone`",
		"SELECT so.customer_note FROM `mg_sales_order` AS so WHERE (so.entity_id = main_table.entity_id) LIMIT 1",
		"GROUP_CONCAT(soi.name SEPARATOR ' | ')",
		"GROUP_CONCAT(soi.sku SEPARATOR ' | ')",
		"CONCAT(COUNT(soi.item_id), ' منتج (', CAST(SUM(soi.qty_ordered) AS SIGNED), ' قطعة)')",
		"(soi.parent_item_id IS NULL)",
		"AS `total_products_ordered`",
		"FROM `mg_sales_order_grid` AS main_table",
	}
	for _, s := range mustContain {
		if !strings.Contains(sql, s) {
			t.Errorf("augmented SQL missing %q\n%s", s, sql)
		}
	}

	if strings.Contains(sql, "main_table.*") {
		t.Error("select list was not reset")
	}

	cols := c.Select().ColumnList()
	if len(cols) != len(BaseColumns)+len(ComputedColumns) {
		t.Fatalf("column count = %d, want %d", len(cols), len(BaseColumns)+len(ComputedColumns))
	}
	for i, alias := range ComputedColumns {
		if got := cols[len(BaseColumns)+i].Alias; got != alias {
			t.Errorf("computed column %d = %q, want %q", i, got, alias)
		}
	}
}

func TestAugmenter_PostgresAggregates(t *testing.T) {
	c := NewCollection(&fakeQuerier{}, database.Postgres{}, CollectionOptions{})
	NewAugmenter(staticFlag(true), "n/a", ", ").AddProductColumns(c)

	sql := c.Select().String()
	for _, s := range []string{
		"string_agg(soi.name, ', ')",
		"string_agg(soi.sku, ', ')",
		"(COUNT(soi.item_id) || ' منتج (' || CAST(SUM(soi.qty_ordered) AS BIGINT) || ' قطعة)')",
		`AS "governorate"`,
	} {
		if !strings.Contains(sql, s) {
			t.Errorf("postgres SQL missing %q\n%s", s, sql)
		}
	}
	for _, s := range []string{"GROUP_CONCAT", "CONCAT("} {
		if strings.Contains(sql, s) {
			t.Errorf("postgres SQL must not use %s\n%s", s, sql)
		}
	}
}

func TestAugmenter_BeforeLoad(t *testing.T) {
	t.Run("disabled leaves select untouched", func(t *testing.T) {
		c := NewCollection(&fakeQuerier{}, database.MySQL{}, CollectionOptions{})
		before := c.Select().String()
		NewAugmenter(staticFlag(false), "x", " | ").BeforeLoad(context.Background(), c)
		if got := c.Select().String(); got != before {
			t.Errorf("select changed while disabled:\n%s", got)
		}
	})

	t.Run("loaded collection is not changed", func(t *testing.T) {
		c := NewCollection(&fakeQuerier{}, database.MySQL{}, CollectionOptions{})
		if _, err := c.Load(context.Background()); err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		before := c.Select().String()
		NewAugmenter(staticFlag(true), "x", " | ").BeforeLoad(context.Background(), c)
		if got := c.Select().String(); got != before {
			t.Errorf("select changed after load:\n%s", got)
		}
	})

	t.Run("enabled adds columns", func(t *testing.T) {
		c := NewCollection(&fakeQuerier{}, database.MySQL{}, CollectionOptions{})
		NewAugmenter(staticFlag(true), "x", " | ").BeforeLoad(context.Background(), c)
		if !c.Select().HasColumn(ColProductNames) {
			t.Error("product_names not added")
		}
	})
}

func TestCollection_LoadOnce(t *testing.T) {
	q := &fakeQuerier{rows: []map[string]any{
		{"entity_id": int64(7), "product_names": "Mug | Tee", "customer_note": nil},
	}}
	mgr := events.NewManager()
	dispatched := 0
	mgr.Register(EventLoadBefore, events.ObserverFunc(func(ctx context.Context, e events.Event) {
		if _, ok := e.Get("collection").(*Collection); !ok {
			t.Error("event payload missing collection")
		}
		dispatched++
	}))

	c := NewCollection(q, database.MySQL{}, CollectionOptions{
		Events:  mgr,
		Plugins: []BeforeLoadPlugin{NewAugmenter(staticFlag(true), "x", " | ")},
	})
	c.SetPage(2, 25)

	rows, err := c.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, err := c.Load(context.Background()); err != nil {
		t.Fatalf("second Load() error = %v", err)
	}

	if len(q.queries) != 1 {
		t.Fatalf("query executed %d times, want 1", len(q.queries))
	}
	if dispatched != 1 {
		t.Errorf("load_before dispatched %d times, want 1", dispatched)
	}
	if !strings.HasSuffix(q.queries[0], "LIMIT 25 OFFSET 25") {
		t.Errorf("query does not end with page limit: %s", q.queries[0])
	}
	if !strings.Contains(q.queries[0], "AS `product_names`") {
		t.Error("plugin columns missing from executed query")
	}

	if len(rows) != 1 {
		t.Fatalf("rows = %d, want 1", len(rows))
	}
	if got := rows[0].String("entity_id"); got != "7" {
		t.Errorf("entity_id = %q, want 7", got)
	}
	if got := rows[0].String("customer_note"); got != "" {
		t.Errorf("NULL customer_note = %q, want empty", got)
	}
	if got := rows[0].String("missing"); got != "" {
		t.Errorf("missing column = %q, want empty", got)
	}
}

func TestCollection_LoadError(t *testing.T) {
	q := &fakeQuerier{err: errors.New("connection refused")}
	c := NewCollection(q, database.MySQL{}, CollectionOptions{})

	if _, err := c.Load(context.Background()); err == nil {
		t.Fatal("Load() expected error")
	}
	if c.IsLoaded() {
		t.Error("collection marked loaded after failure")
	}
}

func TestRow_String(t *testing.T) {
	row := Row{
		"created_at": time.Date(2024, 3, 1, 9, 30, 0, 0, time.UTC),
		"total":      150.5,
		"status":     "pending",
	}

	tests := map[string]string{
		"created_at": "2024-03-01 09:30:00",
		"total":      "150.5",
		"status":     "pending",
	}
	for col, want := range tests {
		if got := row.String(col); got != want {
			t.Errorf("String(%q) = %q, want %q", col, got, want)
		}
	}
}
