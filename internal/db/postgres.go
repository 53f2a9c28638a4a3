// This file contains the native Postgres adapter built on pgxpool. It stays
// testable through the pgConnLike seam, which *pgxpool.Conn satisfies.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

//
// ===========================
//  Interface seam for testing
// ===========================
//

// pgConnLike is the subset of *pgxpool.Conn the adapter uses.
type pgConnLike interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Release()
}

type pgPool struct {
	acquire func(ctx context.Context) (pgConnLike, error)
	close   func()
}

// NewPgPool connects a pgxpool and pings it once to fail fast on bad DSNs.
func NewPgPool(ctx context.Context, dsn string) (Pool, error) {
	p, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: pool: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &pgPool{
		acquire: func(ctx context.Context) (pgConnLike, error) { return p.Acquire(ctx) },
		close:   p.Close,
	}, nil
}

func (p *pgPool) Acquire(ctx context.Context) (Conn, error) {
	c, err := p.acquire(ctx)
	if err != nil {
		return nil, err
	}
	return &pgConn{conn: c}, nil
}

func (p *pgPool) Dialect() Dialect { return Postgres }
func (p *pgPool) Close()           { p.close() }

type pgConn struct{ conn pgConnLike }

func (c *pgConn) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := c.conn.Begin(ctx)
	if err != nil {
		return nil, err
	}
	return &pgTx{tx: tx}, nil
}

func (c *pgConn) QueryInts(ctx context.Context, q string, args ...any) ([]int64, error) {
	rows, err := c.conn.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []int64
	for rows.Next() {
		var v *int64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		if v != nil {
			out = append(out, *v)
		}
	}
	return out, rows.Err()
}

func (c *pgConn) Release() { c.conn.Release() }

type pgTx struct{ tx pgx.Tx }

func (t *pgTx) Exec(ctx context.Context, q string, args ...any) error {
	_, err := t.tx.Exec(ctx, q, args...)
	return err
}

func (t *pgTx) Commit(ctx context.Context) error   { return t.tx.Commit(ctx) }
func (t *pgTx) Rollback(ctx context.Context) error { return t.tx.Rollback(ctx) }

// Detail renders the server-side detail of a Postgres error
// ("23502 null value in column ..."), or "" for anything else.
func Detail(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}
	s := pgErr.Code + " " + pgErr.Message
	if pgErr.Detail != "" {
		s += " (" + pgErr.Detail + ")"
	}
	return s
}
