// This file contains the portable adapter for engines behind database/sql
// (lib/pq, MySQL, SQL Server, SQLite). A unit of work is a dedicated *sql.Conn
// so a transaction never hops between pooled connections.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// sqlConnCore is the subset of *sql.Conn the adapter uses.
type sqlConnCore interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	Close() error
}

type sqlPool struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLPool opens driver/dsn through database/sql and pings it.
func NewSQLPool(ctx context.Context, driver, dsn string, d Dialect) (Pool, error) {
	sdb, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("%s: open: %w", driver, err)
	}
	if d == SQLite {
		// one writer at a time; avoids SQLITE_BUSY between the loader and
		// concurrent readers.
		sdb.SetMaxOpenConns(1)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sdb.PingContext(pingCtx); err != nil {
		_ = sdb.Close()
		return nil, fmt.Errorf("%s: ping: %w", driver, err)
	}
	return WrapSQL(sdb, d), nil
}

// WrapSQL adapts an already opened *sql.DB.
func WrapSQL(sdb *sql.DB, d Dialect) Pool { return &sqlPool{db: sdb, dialect: d} }

func (p *sqlPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return &sqlConn{conn: c}, nil
}

func (p *sqlPool) Dialect() Dialect { return p.dialect }
func (p *sqlPool) Close()           { _ = p.db.Close() }

type sqlConn struct{ conn sqlConnCore }

func (c *sqlConn) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := c.conn.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqlTx{tx: tx}, nil
}

func (c *sqlConn) QueryInts(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := c.conn.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v sql.NullInt64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v.Valid {
			out = append(out, v.Int64)
		}
	}
	return out, rows.Err()
}

// Release returns the connection to the database/sql pool.
func (c *sqlConn) Release() { _ = c.conn.Close() }

type sqlTx struct{ tx *sql.Tx }

func (t *sqlTx) Exec(ctx context.Context, q string, args ...any) error {
	_, err := t.tx.ExecContext(ctx, q, args...)
	return err
}

func (t *sqlTx) Commit(ctx context.Context) error   { return t.tx.Commit() }
func (t *sqlTx) Rollback(ctx context.Context) error { return t.tx.Rollback() }
