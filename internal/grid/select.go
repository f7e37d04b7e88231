package grid

import (
	"strconv"
	"strings"

	"github.com/JonMunkholm/orderenhancer/internal/database"
)

// Column is one entry of a select list. Alias may be empty for bare
// expressions such as main_table.* or the single value of a subquery.
type Column struct {
	Alias string
	Expr  string
}

// Col returns an aliased column.
func Col(alias, expr string) Column { return Column{Alias: alias, Expr: expr} }

// Expr returns an unaliased column.
func Expr(expr string) Column { return Column{Expr: expr} }

// Select builds a single SELECT statement. Conditions and expressions are
// raw SQL fragments; the dialect only quotes table names, aliases and
// literals created through it.
type Select struct {
	dialect database.Dialect
	table   string
	alias   string
	columns []Column
	where   []string
	order   []string
	limit   int
	offset  int
}

// NewSelect starts an empty statement for d.
func NewSelect(d database.Dialect) *Select {
	return &Select{dialect: d}
}

// From sets the source table and appends cols.
func (s *Select) From(table, alias string, cols ...Column) *Select {
	s.table = table
	s.alias = alias
	s.columns = append(s.columns, cols...)
	return s
}

// Columns appends cols to the select list.
func (s *Select) Columns(cols ...Column) *Select {
	s.columns = append(s.columns, cols...)
	return s
}

// ResetColumns clears the select list.
func (s *Select) ResetColumns() *Select {
	s.columns = nil
	return s
}

// ColumnList returns a copy of the select list.
func (s *Select) ColumnList() []Column {
	return append([]Column(nil), s.columns...)
}

// HasColumn reports whether alias is already selected.
func (s *Select) HasColumn(alias string) bool {
	for _, c := range s.columns {
		if c.Alias == alias {
			return true
		}
	}
	return false
}

// Where adds a condition joined with AND.
func (s *Select) Where(cond string) *Select {
	s.where = append(s.where, cond)
	return s
}

// Order appends an ORDER BY term.
func (s *Select) Order(term string) *Select {
	s.order = append(s.order, term)
	return s
}

// Limit sets LIMIT and OFFSET. A zero n removes the limit.
func (s *Select) Limit(n, offset int) *Select {
	s.limit = n
	s.offset = offset
	return s
}

// Dialect returns the dialect the statement renders with.
func (s *Select) Dialect() database.Dialect { return s.dialect }

// String renders the statement.
func (s *Select) String() string {
	var b strings.Builder
	b.WriteString("SELECT ")

	if len(s.columns) == 0 {
		b.WriteString("*")
	}
	for i, c := range s.columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c.Expr)
		if c.Alias != "" {
			b.WriteString(" AS ")
			b.WriteString(s.dialect.QuoteIdent(c.Alias))
		}
	}

	if s.table != "" {
		b.WriteString(" FROM ")
		b.WriteString(s.dialect.QuoteIdent(s.table))
		if s.alias != "" {
			b.WriteString(" AS ")
			b.WriteString(s.alias)
		}
	}

	if len(s.where) > 0 {
		b.WriteString(" WHERE (")
		b.WriteString(strings.Join(s.where, ") AND ("))
		b.WriteString(")")
	}

	if len(s.order) > 0 {
		b.WriteString(" ORDER BY ")
		b.WriteString(strings.Join(s.order, ", "))
	}

	if s.limit > 0 {
		b.WriteString(" LIMIT ")
		b.WriteString(strconv.Itoa(s.limit))
		if s.offset > 0 {
			b.WriteString(" OFFSET ")
			b.WriteString(strconv.Itoa(s.offset))
		}
	}

	return b.String()
}

// Subquery renders the statement wrapped in parentheses for use as a
// scalar expression.
func (s *Select) Subquery() string {
	return "(" + s.String() + ")"
}
