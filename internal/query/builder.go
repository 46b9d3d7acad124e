package query

import (
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

// SortSpec is the per-entity sort whitelist.
// Columns maps normalised keys to SQL expressions; unknown keys use Fallback,
// an empty criteria list uses Default and Tiebreak is always appended last.
type SortSpec struct {
	Columns  map[string]string
	Fallback string
	Default  string
	Tiebreak string
}

// Builder composes a list query as scope, search, filters then sort.
// Conditions are written with "?" and rebound to $n at the end.
type Builder struct {
	columns string
	from    string
	where   []string
	args    []interface{}
	orderBy []string
}

// NewBuilder starts a query selecting columns from a FROM clause (joins included)
func NewBuilder(columns, from string) *Builder {
	return &Builder{columns: columns, from: from}
}

// Where adds a raw condition. Its "?" placeholders consume args in order.
func (b *Builder) Where(cond string, args ...interface{}) *Builder {
	b.where = append(b.where, cond)
	b.args = append(b.args, args...)
	return b
}

// Scope restricts rows to a location. List queries always call it first.
func (b *Builder) Scope(column, location string) *Builder {
	return b.Where(column+" = ?", location)
}

// Search matches term as a case-insensitive substring of any column.
// A blank term adds nothing.
func (b *Builder) Search(term string, columns ...string) *Builder {
	term = strings.TrimSpace(term)
	if term == "" || len(columns) == 0 {
		return b
	}
	pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
	conds := make([]string, len(columns))
	args := make([]interface{}, len(columns))
	for i, col := range columns {
		conds[i] = fmt.Sprintf(`LOWER(%s) LIKE ? ESCAPE '\'`, col)
		args[i] = pattern
	}
	return b.Where("("+strings.Join(conds, " OR ")+")", args...)
}

// In keeps rows whose column is one of values. An empty set adds nothing.
func (b *Builder) In(column string, values []string) *Builder {
	if len(values) == 0 {
		return b
	}
	return b.Where(column+" = ANY(?)", pq.Array(values))
}

// InFold is In compared case-insensitively
func (b *Builder) InFold(column string, values []string) *Builder {
	if len(values) == 0 {
		return b
	}
	lowered := make([]string, len(values))
	for i, v := range values {
		lowered[i] = strings.ToLower(v)
	}
	return b.Where("LOWER("+column+") = ANY(?)", pq.Array(lowered))
}

// OnDate keeps rows whose column falls on the calendar day of t. Nil adds nothing.
func (b *Builder) OnDate(column string, t *time.Time) *Builder {
	if t == nil {
		return b
	}
	return b.Where(column+"::date = ?::date", t.Format(time.DateOnly))
}

// OrderBy resolves criteria through spec. It never fails.
func (b *Builder) OrderBy(criteria []SortCriterion, spec SortSpec) *Builder {
	b.orderBy = ResolveOrder(criteria, spec)
	return b
}

// ResolveOrder turns criteria into ORDER BY terms
func ResolveOrder(criteria []SortCriterion, spec SortSpec) []string {
	if len(criteria) == 0 {
		criteria = ParseSort(spec.Default)
	}

	var terms []string
	used := make(map[string]bool)
	add := func(col string, order Order) {
		if col == "" || used[col] {
			return
		}
		used[col] = true
		terms = append(terms, col+" "+strings.ToUpper(string(order)))
	}

	for _, c := range criteria {
		col, ok := spec.Columns[c.Key()]
		if !ok {
			col = spec.Fallback
		}
		add(col, c.Order)
	}
	add(spec.Tiebreak, Asc)
	return terms
}

func (b *Builder) whereClause() string {
	if len(b.where) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(b.where, " AND ")
}

// CountQuery counts the rows matching every condition, ignoring order and paging
func (b *Builder) CountQuery() (string, []interface{}) {
	q := "SELECT COUNT(*) FROM " + b.from + b.whereClause()
	return sqlx.Rebind(sqlx.DOLLAR, q), b.args
}

// SelectQuery returns the ordered page. A limit below 1 returns every row.
func (b *Builder) SelectQuery(limit, offset int) (string, []interface{}) {
	q := "SELECT " + b.columns + " FROM " + b.from + b.whereClause()
	if len(b.orderBy) > 0 {
		q += " ORDER BY " + strings.Join(b.orderBy, ", ")
	}
	args := append([]interface{}{}, b.args...)
	if limit > 0 {
		q += " LIMIT ? OFFSET ?"
		args = append(args, limit, offset)
	}
	return sqlx.Rebind(sqlx.DOLLAR, q), args
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}
