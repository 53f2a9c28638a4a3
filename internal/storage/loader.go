// Package storage persists reshaped users.
//
// Load writes a whole batch inside one transaction on one unit of work: either
// every record becomes visible or none does. There is no partial commit and
// no retry; the first failing insert aborts and rolls back the batch.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"agereport/internal/db"
	"agereport/internal/domain"
)

// DefaultTable is used when LoaderConfig.Table is empty.
const DefaultTable = "users"

// Columns is the insert column order.
var Columns = []string{"name", "age", "address", "additional_info"}

// rollbackTimeout bounds the rollback issued after a failure. It runs on a
// context detached from the caller's so a cancelled run still aborts its
// transaction server-side.
const rollbackTimeout = 5 * time.Second

// LoaderConfig configures a Loader.
type LoaderConfig struct {
	Table string // possibly schema-qualified, e.g. "public.users"
	Job   string // only used to label log lines
}

// InsertError reports the record whose insert aborted the batch.
type InsertError struct {
	Index int // 0-based position in the input slice
	Err   error
}

func (e *InsertError) Error() string {
	msg := fmt.Sprintf("insert record %d: %v", e.Index, e.Err)
	if d := db.Detail(e.Err); d != "" {
		msg += " [" + d + "]"
	}
	return msg
}

func (e *InsertError) Unwrap() error { return e.Err }

// Loader writes users through a db.Pool.
type Loader struct {
	pool      db.Pool
	cfg       LoaderConfig
	insertSQL string
}

// NewLoader prepares the insert statement for pool's dialect.
func NewLoader(pool db.Pool, cfg LoaderConfig) *Loader {
	if cfg.Table == "" {
		cfg.Table = DefaultTable
	}
	return &Loader{
		pool:      pool,
		cfg:       cfg,
		insertSQL: pool.Dialect().InsertSQL(cfg.Table, Columns),
	}
}

// Load inserts users in order within one transaction and returns the number
// inserted. Empty input touches nothing. Every error wraps domain.ErrStore;
// insert failures also carry *InsertError.
func (l *Loader) Load(ctx context.Context, users []domain.User) (int64, error) {
	if len(users) == 0 {
		return 0, nil
	}
	start := time.Now()

	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, fmt.Errorf("loader: acquire: %w: %w", domain.ErrStore, err)
	}
	defer conn.Release()

	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("loader: begin: %w: %w", domain.ErrStore, err)
	}

	for i, u := range users {
		if err := ctx.Err(); err != nil {
			l.rollback(ctx, tx)
			return 0, fmt.Errorf("loader: interrupted at record %d: %w: %w", i, domain.ErrStore, err)
		}
		addr, extra := EncodeObject(u.Address), EncodeObject(u.Extra)
		if err := tx.Exec(ctx, l.insertSQL, u.Name, u.Age, addr, extra); err != nil {
			ie := &InsertError{Index: i, Err: err}
			log.Printf("loader: job=%s table=%s %v; rolling back %d records", l.cfg.Job, l.cfg.Table, ie, i)
			l.rollback(ctx, tx)
			return 0, fmt.Errorf("loader: %w: %w", domain.ErrStore, ie)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		l.rollback(ctx, tx)
		return 0, fmt.Errorf("loader: commit: %w: %w", domain.ErrStore, err)
	}

	n := int64(len(users))
	log.Printf("loader: job=%s table=%s inserted=%d elapsed=%s",
		l.cfg.Job, l.cfg.Table, n, time.Since(start).Truncate(time.Millisecond))
	return n, nil
}

func (l *Loader) rollback(ctx context.Context, tx db.Tx) {
	rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), rollbackTimeout)
	defer cancel()
	if err := tx.Rollback(rctx); err != nil {
		log.Printf("loader: rollback: %v", err)
	}
}

// EncodeObject renders m as a JSON object with sorted keys and no HTML
// escaping. A nil or empty map encodes as "{}".
func EncodeObject(m map[string]string) string {
	if len(m) == 0 {
		return "{}"
	}
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	// map[string]string cannot fail to encode.
	_ = enc.Encode(m)
	return string(bytes.TrimSuffix(buf.Bytes(), []byte("\n")))
}
