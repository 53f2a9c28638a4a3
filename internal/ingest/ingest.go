// Package ingest runs one end-to-end ingestion: read the input, decode and
// reshape every row, load them in a single transaction, then report the age
// distribution of everything stored.
//
// Steps run strictly in sequence. Parse anomalies never abort a run; input
// and store failures do, and are reported as domain.ErrIO / domain.ErrStore.
package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/zeebo/xxh3"

	"agereport/internal/datasource"
	"agereport/internal/datasource/httpds"
	"agereport/internal/db"
	"agereport/internal/domain"
	"agereport/internal/metrics"
	"agereport/internal/parser/csv"
	"agereport/internal/parser/lines"
	"agereport/internal/report"
	"agereport/internal/reshape"
	"agereport/internal/storage"
)

// Deps are the collaborators a Runner needs.
type Deps struct {
	Pool db.Pool
	// Source resolves an input location. Defaults to datasource.For.
	Source func(loc string) datasource.Source
}

// Config tunes a Runner.
type Config struct {
	Job     string        // metrics and log label
	Table   string        // destination table; storage.DefaultTable if empty
	Lines   lines.Options // chunk size and trailing-line policy
	Timeout time.Duration // per-run deadline; 0 means none
	HTTP    httpds.Config // used by the default Source for URLs
}

// Result summarizes a successful run.
type Result struct {
	RunID        string
	Path         string
	Rows         int    // data rows decoded
	Inserted     int64  // rows committed
	Checksum     string // xxh3-64 of the accepted lines, hex
	Stats        csv.Stats
	Distribution domain.Distribution
	Elapsed      time.Duration
}

// Runner executes ingestion runs. A Runner holds no per-run state and may be
// shared, but concurrent runs against one table are serialized only by the
// store's transaction isolation.
type Runner struct {
	deps   Deps
	cfg    Config
	loader *storage.Loader
	agg    *report.Aggregator
}

// NewRunner wires a Runner.
func NewRunner(deps Deps, cfg Config) *Runner {
	if cfg.Job == "" {
		cfg.Job = "user_ingest"
	}
	if deps.Source == nil {
		hc := cfg.HTTP
		deps.Source = func(loc string) datasource.Source { return datasource.For(loc, hc) }
	}
	return &Runner{
		deps:   deps,
		cfg:    cfg,
		loader: storage.NewLoader(deps.Pool, storage.LoaderConfig{Table: cfg.Table, Job: cfg.Job}),
		agg:    report.NewAggregator(deps.Pool, cfg.Table),
	}
}

// Aggregator exposes the read side so callers can report without ingesting.
func (r *Runner) Aggregator() *report.Aggregator { return r.agg }

// Run ingests the input at path.
func (r *Runner) Run(ctx context.Context, path string) (res Result, err error) {
	start := time.Now()
	res = Result{RunID: uuid.NewString(), Path: path}
	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}
	log.Printf("ingest: run=%s job=%s start path=%s", res.RunID, r.cfg.Job, path)
	defer func() {
		res.Elapsed = time.Since(start)
		metrics.RecordRun(r.cfg.Job, err)
		if err != nil {
			log.Printf("ingest: run=%s failed after %s: %v", res.RunID, res.Elapsed.Truncate(time.Millisecond), err)
		}
	}()

	users, err := r.parse(ctx, path, &res)
	if err != nil {
		return res, err
	}

	t := time.Now()
	res.Inserted, err = r.loader.Load(ctx, users)
	metrics.RecordStep(r.cfg.Job, "load", err, time.Since(t))
	if err != nil {
		return res, fmt.Errorf("ingest: load: %w", err)
	}
	metrics.RecordRow(r.cfg.Job, "inserted", res.Inserted)

	t = time.Now()
	res.Distribution, err = r.agg.Distribution(ctx)
	metrics.RecordStep(r.cfg.Job, "aggregate", err, time.Since(t))
	if err != nil {
		return res, fmt.Errorf("ingest: aggregate: %w", err)
	}
	for _, s := range res.Distribution.Shares {
		metrics.RecordShare(r.cfg.Job, s.Bucket.String(), s.Percent)
	}
	log.Printf("ingest: run=%s rows=%d inserted=%d checksum=%s\n%s",
		res.RunID, res.Rows, res.Inserted, res.Checksum, res.Distribution)
	return res, nil
}

func (r *Runner) parse(ctx context.Context, path string, res *Result) (_ []domain.User, err error) {
	t := time.Now()
	defer func() { metrics.RecordStep(r.cfg.Job, "parse", err, time.Since(t)) }()

	rc, err := r.deps.Source(path).Open(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: %w: %w", domain.ErrIO, err)
	}
	defer rc.Close()

	hs := &hashingSource{src: lines.NewReader(rc, r.cfg.Lines), h: xxh3.New()}
	dec := csv.NewDecoder(hs)
	rows, err := dec.DecodeAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("ingest: decode %s: %w", path, err)
	}

	res.Rows = len(rows)
	res.Stats = dec.Stats()
	res.Checksum = fmt.Sprintf("%016x", hs.h.Sum64())
	metrics.RecordRow(r.cfg.Job, "decoded", int64(res.Stats.Rows))
	metrics.RecordRow(r.cfg.Job, "short", int64(res.Stats.Short))
	metrics.RecordRow(r.cfg.Job, "surplus", int64(res.Stats.Surplus))
	log.Printf("ingest: run=%s parsed rows=%d short=%d surplus=%d elapsed=%s",
		res.RunID, res.Stats.Rows, res.Stats.Short, res.Stats.Surplus, time.Since(t).Truncate(time.Millisecond))
	return reshape.All(rows), nil
}

// hashingSource feeds every accepted line, newline-terminated, into h.
type hashingSource struct {
	src csv.LineSource
	h   *xxh3.Hasher
}

func (s *hashingSource) NextContext(ctx context.Context) (string, error) {
	line, err := s.src.NextContext(ctx)
	if err != nil {
		return "", err
	}
	_, _ = s.h.Write(append([]byte(line), '\n'))
	return line, nil
}
