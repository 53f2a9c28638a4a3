// Package report computes the age-group distribution over the stored users.
package report

import (
	"context"
	"fmt"

	"agereport/internal/db"
	"agereport/internal/domain"
	"agereport/internal/storage"
)

// Aggregator reads ages back from the store.
type Aggregator struct {
	pool  db.Pool
	query string
}

// NewAggregator builds the age query for pool's dialect. An empty table
// means storage.DefaultTable.
func NewAggregator(pool db.Pool, table string) *Aggregator {
	if table == "" {
		table = storage.DefaultTable
	}
	return &Aggregator{pool: pool, query: pool.Dialect().SelectColumnSQL(table, "age")}
}

// Distribution bucket-counts every non-null age currently stored. An empty
// table yields zero percentages. Errors wrap domain.ErrStore.
func (a *Aggregator) Distribution(ctx context.Context) (domain.Distribution, error) {
	conn, err := a.pool.Acquire(ctx)
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("report: acquire: %w: %w", domain.ErrStore, err)
	}
	raw, err := conn.QueryInts(ctx, a.query)
	conn.Release()
	if err != nil {
		return domain.Distribution{}, fmt.Errorf("report: query ages: %w: %w", domain.ErrStore, err)
	}
	ages := make([]int, len(raw))
	for i, v := range raw {
		ages[i] = int(v)
	}
	return domain.NewDistribution(ages), nil
}
