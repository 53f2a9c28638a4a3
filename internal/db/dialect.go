package db

import (
	"fmt"
	"strconv"
	"strings"
)

// Dialect captures the per-engine spelling of placeholders and identifiers.
type Dialect int

const (
	Postgres Dialect = iota
	MySQL
	SQLServer
	SQLite
)

func (d Dialect) String() string {
	switch d {
	case Postgres:
		return "postgres"
	case MySQL:
		return "mysql"
	case SQLServer:
		return "sqlserver"
	case SQLite:
		return "sqlite"
	default:
		return "dialect(" + strconv.Itoa(int(d)) + ")"
	}
}

// Placeholder returns the bind marker for the n-th (1-based) argument.
func (d Dialect) Placeholder(n int) string {
	switch d {
	case Postgres:
		return "$" + strconv.Itoa(n)
	case SQLServer:
		return "@p" + strconv.Itoa(n)
	default:
		return "?"
	}
}

// QuoteIdent quotes a single identifier segment.
func (d Dialect) QuoteIdent(id string) string {
	switch d {
	case MySQL:
		return "`" + strings.ReplaceAll(id, "`", "``") + "`"
	case SQLServer:
		return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
	default:
		return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
	}
}

// QuoteFQN quotes a possibly schema-qualified name like "public.users"
// segment by segment. Empty segments are dropped.
func (d Dialect) QuoteFQN(name string) string {
	parts := strings.Split(name, ".")
	out := parts[:0]
	for _, p := range parts {
		if p != "" {
			out = append(out, d.QuoteIdent(p))
		}
	}
	return strings.Join(out, ".")
}

// InsertSQL builds a single-row parameterized INSERT.
//
//	Postgres:  INSERT INTO "users" ("name","age") VALUES ($1,$2)
//	SQLServer: INSERT INTO [users] ([name],[age]) VALUES (@p1,@p2)
func (d Dialect) InsertSQL(table string, columns []string) string {
	cols := make([]string, len(columns))
	ph := make([]string, len(columns))
	for i, c := range columns {
		cols[i] = d.QuoteIdent(c)
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.QuoteFQN(table), strings.Join(cols, ","), strings.Join(ph, ","))
}

// SelectColumnSQL builds "SELECT col FROM table WHERE col IS NOT NULL".
func (d Dialect) SelectColumnSQL(table, column string) string {
	c := d.QuoteIdent(column)
	return fmt.Sprintf("SELECT %s FROM %s WHERE %s IS NOT NULL", c, d.QuoteFQN(table), c)
}
