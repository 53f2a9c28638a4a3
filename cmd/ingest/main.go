// Command ingest loads a user CSV into the store and reports the age-group
// distribution of everything stored.
//
// By default it serves the HTTP trigger (GET /process). With -once it runs a
// single ingestion, prints the distribution and exits.
//
// QUICK START (Postgres):
//
//	go build -o ingest ./cmd/ingest
//	./ingest --db_user=user --db_password=password --db_host=localhost --db_name=testdb --csv=data.csv
//
// QUICK START (SQLite, one shot):
//
//	./ingest --db_driver=sqlite --dsn=file:users.db --once --csv=data.csv
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"agereport/internal/config"
	"agereport/internal/datasource/httpds"
	"agereport/internal/db"
	"agereport/internal/ingest"
	"agereport/internal/metrics"
	"agereport/internal/metrics/datadog"
	"agereport/internal/metrics/prompush"
	"agereport/internal/monitor"
	"agereport/internal/parser/lines"
	"agereport/internal/webui"
)

// version is stamped at build time with -ldflags "-X main.version=...".
var version = "dev"

const shutdownGrace = 10 * time.Second

// Deps holds the side effects run needs so tests can replace them.
type Deps struct {
	OpenPool   func(ctx context.Context, driver, dsn string) (db.Pool, error)
	NewMonitor func(monitor.Options) (*monitor.Monitor, error)
	// Serve runs srv until it is shut down.
	Serve  func(srv *http.Server) error
	Stdout io.Writer
}

func defaultDeps() Deps {
	return Deps{
		OpenPool:   db.Open,
		NewMonitor: monitor.New,
		Serve:      func(srv *http.Server) error { return srv.ListenAndServe() },
		Stdout:     os.Stdout,
	}
}

// run validates cfg, wires the store, metrics and error reporting, then
// either runs once or serves until ctx is cancelled.
func run(ctx context.Context, cfg *config.Config, deps Deps) error {
	issues := config.Validate(cfg)
	for _, i := range issues {
		log.Printf("config: %s", i)
	}
	if errs := config.Errors(issues); len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %d error(s), first: %w", len(errs), errs[0])
	}
	// Validate has already rejected an unknown policy.
	trailing, _ := lines.ParseTrailingPolicy(cfg.TrailingLine)

	mon, err := deps.NewMonitor(monitor.Options{DSN: cfg.SentryDSN, Release: version, Environment: cfg.Environment})
	if err != nil {
		return err
	}
	defer mon.Flush(2 * time.Second)

	metricsHandler, err := setupMetrics(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := metrics.Flush(); err != nil {
			log.Printf("metrics: final flush: %v", err)
		}
	}()

	pool, err := deps.OpenPool(ctx, cfg.DBDriver, cfg.DatabaseDSN())
	if err != nil {
		mon.CaptureError(err, map[string]string{"job": cfg.Job, "step": "connect"})
		return fmt.Errorf("connect %s: %w", cfg.DBDriver, err)
	}
	defer pool.Close()

	runner := ingest.NewRunner(ingest.Deps{Pool: pool}, ingest.Config{
		Job:     cfg.Job,
		Table:   cfg.Table,
		Lines:   lines.Options{ChunkSize: cfg.ChunkSize, Trailing: trailing},
		Timeout: cfg.Timeout,
		HTTP:    httpds.Config{MaxRetries: cfg.HTTPRetries},
	})

	if cfg.Once {
		res, err := runner.Run(ctx, cfg.CSVPath)
		if err != nil {
			mon.CaptureError(err, map[string]string{"job": cfg.Job, "run_id": res.RunID})
			return err
		}
		fmt.Fprintln(deps.Stdout, res.Distribution)
		return nil
	}

	opts := []webui.Option{webui.WithReporter(mon)}
	if metricsHandler != nil {
		opts = append(opts, webui.WithMetricsHandler(metricsHandler))
	}
	var trigger webui.Runner = runner
	if cfg.MetricsBackend == "pushgateway" {
		trigger = pushingRunner{runner}
	}
	srv := webui.NewServer(webui.Config{Addr: cfg.Addr, CSVPath: cfg.CSVPath, Job: cfg.Job},
		trigger, runner.Aggregator(), opts...)
	return serve(ctx, srv, deps.Serve)
}

// serve runs the HTTP server until ctx is done, then shuts it down and
// waits for an in-flight ingestion.
func serve(ctx context.Context, srv *webui.Server, serveFn func(*http.Server) error) error {
	hs := srv.HTTPServer()
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Printf("webui: listening on %s", hs.Addr)
		if err := serveFn(hs); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve %s: %w", hs.Addr, err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownGrace)
		defer cancel()
		err := hs.Shutdown(sctx)
		srv.Wait(sctx)
		log.Printf("webui: stopped")
		return err
	})
	return g.Wait()
}

// setupMetrics installs the configured backend and returns the scrape
// handler for Prometheus-based backends.
func setupMetrics(cfg *config.Config) (http.Handler, error) {
	switch cfg.MetricsBackend {
	case "prometheus", "pushgateway":
		gw := ""
		if cfg.MetricsBackend == "pushgateway" {
			gw = cfg.PushgatewayURL
		}
		b, err := prompush.NewBackend(cfg.Job, gw)
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
		return b.Handler(), nil
	case "datadog":
		b, err := datadog.NewBackend(datadog.Config{
			Addr:       cfg.DatadogAddr,
			Namespace:  "agereport.",
			GlobalTags: []string{"env:" + cfg.Environment, "job:" + cfg.Job},
		})
		if err != nil {
			return nil, fmt.Errorf("metrics: %w", err)
		}
		metrics.SetBackend(b)
	}
	return nil, nil
}

// pushingRunner pushes to the Pushgateway after every triggered run.
type pushingRunner struct{ *ingest.Runner }

func (r pushingRunner) Run(ctx context.Context, path string) (ingest.Result, error) {
	res, err := r.Runner.Run(ctx, path)
	if ferr := metrics.Flush(); ferr != nil {
		log.Printf("metrics: push after run=%s: %v", res.RunID, ferr)
	}
	return res, err
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, cfg, defaultDeps()); err != nil {
		stop()
		log.Fatal(err)
	}
}
