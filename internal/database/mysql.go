package database

import (
	"context"
	"fmt"

	"github.com/JonMunkholm/orderenhancer/internal/config"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// NewMySQL opens a pooled MySQL connection for the store database.
// parseTime is forced on so created_at/updated_at scan as time.Time.
func NewMySQL(ctx context.Context, cfg config.DatabaseConfig) (*sqlx.DB, error) {
	dsn, err := mysql.ParseDSN(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	dsn.ParseTime = true

	db, err := sqlx.Open("mysql", dsn.FormatDSN())
	if err != nil {
		return nil, fmt.Errorf("open mysql: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConns)
	db.SetMaxIdleConns(cfg.MinConns)
	db.SetConnMaxLifetime(cfg.MaxConnLifetime)
	db.SetConnMaxIdleTime(cfg.MaxConnIdleTime)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping mysql: %w", err)
	}

	return db, nil
}

// SQLXQuerier implements Querier over a sqlx connection pool.
type SQLXQuerier struct {
	db *sqlx.DB
}

// NewSQLXQuerier wraps db.
func NewSQLXQuerier(db *sqlx.DB) *SQLXQuerier {
	return &SQLXQuerier{db: db}
}

// QueryMaps implements Querier.
func (q *SQLXQuerier) QueryMaps(ctx context.Context, query string, args ...any) ([]map[string]any, error) {
	rows, err := q.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []map[string]any
	for rows.Next() {
		row := make(map[string]any)
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("scan row: %w", err)
		}
		for k, v := range row {
			row[k] = normalizeValue(v)
		}
		result = append(result, row)
	}

	return result, rows.Err()
}
