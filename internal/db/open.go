package db

import (
	"context"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"  // "mysql"
	_ "github.com/lib/pq"               // "postgres" via database/sql
	_ "github.com/microsoft/go-mssqldb" // "sqlserver"
	_ "modernc.org/sqlite"              // "sqlite"
)

// Drivers lists the values accepted by Open.
var Drivers = []string{"postgres", "pq", "mysql", "mssql", "sqlite"}

// Open returns a Pool for the named driver:
//
//	postgres  native pgx pool
//	pq        Postgres through lib/pq and database/sql
//	mysql     go-sql-driver/mysql
//	mssql     microsoft/go-mssqldb ("sqlserver")
//	sqlite    modernc.org/sqlite (pure Go)
func Open(ctx context.Context, driver, dsn string) (Pool, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("db: %s: empty DSN", driver)
	}
	switch strings.ToLower(driver) {
	case "postgres", "pgx":
		return NewPgPool(ctx, dsn)
	case "pq":
		return NewSQLPool(ctx, "postgres", dsn, Postgres)
	case "mysql":
		return NewSQLPool(ctx, "mysql", dsn, MySQL)
	case "mssql", "sqlserver":
		return NewSQLPool(ctx, "sqlserver", dsn, SQLServer)
	case "sqlite":
		return NewSQLPool(ctx, "sqlite", dsn, SQLite)
	default:
		return nil, fmt.Errorf("db: unsupported driver %q (want one of %s)", driver, strings.Join(Drivers, ", "))
	}
}
