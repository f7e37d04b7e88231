// Package settings reads store-scoped feature flags from the store's
// configuration table, falling back to the defaults from config.
package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/JonMunkholm/orderenhancer/internal/database"
	"github.com/JonMunkholm/orderenhancer/internal/logging"
)

// Configuration paths of the three feature flags.
const (
	PathExcelExport       = "order_enhancer/general/enable_excel_export"
	PathGovernorateFilter = "order_enhancer/general/enable_governorate_filter"
	PathProductColumns    = "order_enhancer/general/enable_product_columns"
)

// Scopes a configuration row can be stored under.
const (
	ScopeDefault = "default"
	ScopeStores  = "stores"
)

// ConfigTable is the store's key/value configuration table.
const ConfigTable = "core_config_data"

// Source looks up the raw value stored for path in one scope.
// ok is false when no row exists.
type Source interface {
	Value(ctx context.Context, path, scope string, scopeID int) (value string, ok bool, err error)
}

// DBSource reads core_config_data through a database.Querier.
type DBSource struct {
	querier database.Querier
	query   string
}

// NewDBSource builds the lookup query once for the given dialect and table prefix.
func NewDBSource(q database.Querier, d database.Dialect, tablePrefix string) *DBSource {
	query := fmt.Sprintf(
		"SELECT value FROM %s WHERE path = %s AND scope = %s AND scope_id = %s LIMIT 1",
		d.QuoteIdent(tablePrefix+ConfigTable),
		d.Placeholder(1), d.Placeholder(2), d.Placeholder(3),
	)
	return &DBSource{querier: q, query: query}
}

// Value implements Source.
func (s *DBSource) Value(ctx context.Context, path, scope string, scopeID int) (string, bool, error) {
	rows, err := s.querier.QueryMaps(ctx, s.query, path, scope, scopeID)
	if err != nil {
		return "", false, fmt.Errorf("read %s for %s/%d: %w", path, scope, scopeID, err)
	}
	if len(rows) == 0 {
		return "", false, nil
	}
	v := rows[0]["value"]
	if v == nil {
		return "", true, nil
	}
	return fmt.Sprint(v), true, nil
}

// StaticSource is an in-memory Source keyed by scope, scope id and path.
type StaticSource map[string]string

// Set stores a value for path in scope.
func (s StaticSource) Set(path, scope string, scopeID int, value string) {
	s[staticKey(path, scope, scopeID)] = value
}

// Value implements Source.
func (s StaticSource) Value(_ context.Context, path, scope string, scopeID int) (string, bool, error) {
	v, ok := s[staticKey(path, scope, scopeID)]
	return v, ok, nil
}

func staticKey(path, scope string, scopeID int) string {
	return fmt.Sprintf("%s/%d/%s", scope, scopeID, path)
}

// Store resolves flags: store scope first, then default scope, then the
// configured default.
type Store struct {
	source   Source
	defaults map[string]bool
}

// NewStore returns a Store reading from source with defaults from cfg.
func NewStore(source Source, cfg config.FeatureConfig) *Store {
	return &Store{
		source: source,
		defaults: map[string]bool{
			PathExcelExport:       cfg.ExcelExport,
			PathGovernorateFilter: cfg.GovernorateFilter,
			PathProductColumns:    cfg.ProductColumns,
		},
	}
}

// IsSetFlag reports whether path is enabled for storeID (nil for the default scope).
// Lookup failures are logged and resolve to the configured default.
func (s *Store) IsSetFlag(ctx context.Context, path string, storeID *int) bool {
	if storeID != nil {
		v, ok, err := s.source.Value(ctx, path, ScopeStores, *storeID)
		if err != nil {
			logging.FromContext(ctx).Error("settings lookup failed", "path", path, "store_id", *storeID, "error", err)
			return s.defaults[path]
		}
		if ok {
			return isTruthy(v)
		}
	}

	v, ok, err := s.source.Value(ctx, path, ScopeDefault, 0)
	if err != nil {
		logging.FromContext(ctx).Error("settings lookup failed", "path", path, "error", err)
		return s.defaults[path]
	}
	if ok {
		return isTruthy(v)
	}

	return s.defaults[path]
}

func isTruthy(v string) bool {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "", "0", "false":
		return false
	}
	return true
}

// Helper exposes the feature flags by name.
type Helper struct {
	store *Store
}

// NewHelper wraps store.
func NewHelper(store *Store) *Helper {
	return &Helper{store: store}
}

// IsExcelExportEnabled reports whether export post-processing is on.
func (h *Helper) IsExcelExportEnabled(ctx context.Context, storeID *int) bool {
	return h.store.IsSetFlag(ctx, PathExcelExport, storeID)
}

// IsGovernorateFilterEnabled reports whether the governorate filter observer is on.
func (h *Helper) IsGovernorateFilterEnabled(ctx context.Context, storeID *int) bool {
	return h.store.IsSetFlag(ctx, PathGovernorateFilter, storeID)
}

// IsProductColumnsEnabled reports whether the grid gets the computed columns.
func (h *Helper) IsProductColumnsEnabled(ctx context.Context, storeID *int) bool {
	return h.store.IsSetFlag(ctx, PathProductColumns, storeID)
}

// Flags returns every flag's effective value, keyed by path.
func (h *Helper) Flags(ctx context.Context, storeID *int) map[string]bool {
	return map[string]bool{
		PathExcelExport:       h.IsExcelExportEnabled(ctx, storeID),
		PathGovernorateFilter: h.IsGovernorateFilterEnabled(ctx, storeID),
		PathProductColumns:    h.IsProductColumnsEnabled(ctx, storeID),
	}
}
