// Package grid builds and loads the admin sales-order grid.
//
// A Collection owns the not-yet-executed SELECT for one grid page. Before
// it runs the query it dispatches EventLoadBefore and hands itself to every
// registered BeforeLoadPlugin, which is where the Augmenter attaches its
// computed columns. Once loaded, the rows are cached and the query is never
// changed or executed again.
package grid

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/events"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

// EventLoadBefore is dispatched with {"collection": *Collection} right
// before the grid query executes.
const EventLoadBefore = "sales_order_grid_collection_load_before"

// MainTable is the grid index table the outer select reads.
const MainTable = "sales_order_grid"

// Row is one grid record keyed by column alias.
type Row map[string]any

// String returns the value of col formatted for display. NULL becomes "".
func (r Row) String(col string) string {
	v, ok := r[col]
	if !ok || v == nil {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case time.Time:
		return x.Format(time.DateTime)
	}
	return fmt.Sprint(v)
}

// BeforeLoadPlugin may change the collection's select before it executes.
type BeforeLoadPlugin interface {
	BeforeLoad(ctx context.Context, c *Collection)
}

// CollectionOptions configures NewCollection.
type CollectionOptions struct {
	TablePrefix string
	Events      *events.Manager
	Plugins     []BeforeLoadPlugin
	StoreID     *int
}

// Collection is the order grid query and, after Load, its cached rows.
type Collection struct {
	querier database.Querier
	dialect database.Dialect
	prefix  string
	events  *events.Manager
	plugins []BeforeLoadPlugin
	storeID *int

	sel    *Select
	loaded bool
	rows   []Row
}

// NewCollection prepares the default grid select:
// main_table.* ordered by newest order first.
func NewCollection(q database.Querier, d database.Dialect, opts CollectionOptions) *Collection {
	c := &Collection{
		querier: q,
		dialect: d,
		prefix:  opts.TablePrefix,
		events:  opts.Events,
		plugins: opts.Plugins,
		storeID: opts.StoreID,
	}
	c.sel = NewSelect(d).
		From(c.Table(MainTable), "main_table", Expr("main_table.*")).
		Order("main_table.created_at DESC")
	return c
}

// Table returns the physical name of a store table.
func (c *Collection) Table(name string) string { return c.prefix + name }

// Select returns the statement that Load will execute.
func (c *Collection) Select() *Select { return c.sel }

// Dialect returns the SQL dialect of the store database.
func (c *Collection) Dialect() database.Dialect { return c.dialect }

// StoreID returns the store scope the grid is loaded for; nil means default.
func (c *Collection) StoreID() *int { return c.storeID }

// IsLoaded reports whether the query has already executed.
func (c *Collection) IsLoaded() bool { return c.loaded }

// SetPage limits the grid to one page. Pages are 1-based; size <= 0 loads all rows.
func (c *Collection) SetPage(page, size int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		c.sel.Limit(0, 0)
		return
	}
	c.sel.Limit(size, (page-1)*size)
}

// Load executes the select once and caches the result.
func (c *Collection) Load(ctx context.Context) ([]Row, error) {
	if c.loaded {
		return c.rows, nil
	}

	c.events.Dispatch(ctx, EventLoadBefore, map[string]any{"collection": c})
	for _, p := range c.plugins {
		p.BeforeLoad(ctx, c)
	}

	query := c.sel.String()
	logging.FromContext(ctx).Debug("loading order grid", "dialect", c.dialect.Name(), "sql", query)

	maps, err := c.querier.QueryMaps(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("load order grid: %w", err)
	}

	c.rows = make([]Row, len(maps))
	for i, m := range maps {
		c.rows[i] = Row(m)
	}
	c.loaded = true

	return c.rows, nil
}
