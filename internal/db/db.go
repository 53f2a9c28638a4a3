// Package db exposes the store as a small set of interfaces so the loader and
// the aggregator stay engine-agnostic.
//
// A Pool hands out units of work (Conn). Every Conn obtained from Acquire must
// be given back with Release, on every exit path. Transactions are scoped to
// a single Conn.
package db

import "context"

// Pool is a shared handle to the store.
type Pool interface {
	// Acquire checks out one unit of work.
	Acquire(ctx context.Context) (Conn, error)
	// Dialect reports how statements must be spelled for this engine.
	Dialect() Dialect
	Close()
}

// Conn is one checked-out connection.
type Conn interface {
	BeginTx(ctx context.Context) (Tx, error)
	// QueryInts runs q and collects the first column of every row.
	// NULL values are skipped.
	QueryInts(ctx context.Context, q string, args ...any) ([]int64, error)
	Release()
}

// Tx is an open transaction.
type Tx interface {
	Exec(ctx context.Context, q string, args ...any) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
