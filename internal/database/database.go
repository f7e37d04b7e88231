// Package database opens the store database and exposes a small query
// interface shared by the grid collection and the settings store.
package database

import (
	"context"
	"database/sql/driver"
	"fmt"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/config"
)

// Querier runs a read query and returns every row as a column -> value map.
// Byte slices are converted to strings so callers never see driver types.
type Querier interface {
	QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error)
}

// Open connects to the configured database and returns its Querier together
// with a function that releases the connection pool.
func Open(ctx context.Context, cfg config.DatabaseConfig) (Querier, func(), error) {
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		db, err := NewMySQL(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewSQLXQuerier(db), func() { db.Close() }, nil
	case "postgres":
		pool, err := NewPostgres(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		return NewPgxQuerier(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown database driver: %s", cfg.Driver)
	}
}

// normalizeValue turns driver byte slices into strings and unwraps
// driver.Valuer types such as pgtype.Numeric into plain values.
func normalizeValue(v any) any {
	switch x := v.(type) {
	case []byte:
		return string(x)
	case driver.Valuer:
		dv, err := x.Value()
		if err != nil {
			return v
		}
		if b, ok := dv.([]byte); ok {
			return string(b)
		}
		return dv
	}
	return v
}
