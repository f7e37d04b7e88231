package database

import (
	"fmt"
	"strings"
)

// Dialect renders the pieces of SQL that differ between store databases.
// Everything else the queries emit (COALESCE, NULLIF, TRIM, COUNT, SUM,
// correlated subqueries) is shared by MySQL and Postgres.
type Dialect interface {
	Name() string
	QuoteIdent(name string) string
	QuoteString(s string) string
	Placeholder(n int) string
	GroupConcat(expr, separator string) string
	CastInteger(expr string) string
	// Concat joins parts into a string that is NULL when any part is NULL.
	Concat(parts ...string) string
}

// DialectFor returns the dialect for a database driver name.
func DialectFor(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return MySQL{}, nil
	case "postgres":
		return Postgres{}, nil
	default:
		return nil, fmt.Errorf("unknown dialect: %s", driver)
	}
}

// MySQL is the dialect of the stock store schema.
type MySQL struct{}

func (MySQL) Name() string { return "mysql" }

func (MySQL) QuoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (MySQL) QuoteString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (MySQL) Placeholder(int) string { return "?" }

func (d MySQL) GroupConcat(expr, separator string) string {
	return fmt.Sprintf("GROUP_CONCAT(%s SEPARATOR %s)", expr, d.QuoteString(separator))
}

func (MySQL) CastInteger(expr string) string {
	return "CAST(" + expr + " AS SIGNED)"
}

func (MySQL) Concat(parts ...string) string {
	return "CONCAT(" + strings.Join(parts, ", ") + ")"
}

// Postgres renders the same grid against a Postgres copy of the schema.
type Postgres struct{}

func (Postgres) Name() string { return "postgres" }

func (Postgres) QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (Postgres) QuoteString(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (Postgres) Placeholder(n int) string { return fmt.Sprintf("$%d", n) }

func (d Postgres) GroupConcat(expr, separator string) string {
	return fmt.Sprintf("string_agg(%s, %s)", expr, d.QuoteString(separator))
}

func (Postgres) CastInteger(expr string) string {
	return "CAST(" + expr + " AS BIGINT)"
}

// Concat uses || rather than concat(), which skips NULL arguments.
func (Postgres) Concat(parts ...string) string {
	return "(" + strings.Join(parts, " || ") + ")"
}
