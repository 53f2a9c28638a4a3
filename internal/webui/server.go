// Package webui exposes the HTTP trigger for ingestion runs.
//
// Routes:
//
//	GET  /              → status page with the current distribution
//	GET  /process       → runs one ingestion; JSON summary
//	POST /process       → same, for the page's button
//	GET  /distribution  → current distribution (JSON, or ?format=text)
//	GET  /healthz       → liveness
//	GET  /metrics       → Prometheus exposition, when a handler is set
package webui

import (
	"context"
	_ "embed"
	"encoding/json"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"agereport/internal/domain"
	"agereport/internal/ingest"
)

// SuccessMessage is returned by /process after a committed run.
const SuccessMessage = "CSV processed and data uploaded successfully!"

// FailureMessage is the only body a failed /process returns.
const FailureMessage = "Failed to process CSV"

// Runner runs one ingestion.
type Runner interface {
	Run(ctx context.Context, path string) (ingest.Result, error)
}

// Aggregator reports the distribution without ingesting.
type Aggregator interface {
	Distribution(ctx context.Context) (domain.Distribution, error)
}

// Reporter receives run failures. monitor.Monitor satisfies it.
type Reporter interface {
	CaptureError(err error, tags map[string]string)
}

// Config controls the server.
type Config struct {
	Addr    string
	CSVPath string // input handed to every run
	Job     string // single-run guard key and reporter tag
}

// Option customizes a Server.
type Option func(*Server)

// WithReporter sends /process failures to rep.
func WithReporter(rep Reporter) Option { return func(s *Server) { s.rep = rep } }

// WithMetricsHandler mounts h at /metrics.
func WithMetricsHandler(h http.Handler) Option { return func(s *Server) { s.metrics = h } }

// Server routes trigger requests to a Runner.
type Server struct {
	cfg     Config
	runner  Runner
	agg     Aggregator
	rep     Reporter
	metrics http.Handler
	mux     *mux.Router
	tmpl    *template.Template
	guard   runGuard
}

// NewServer constructs a Server with routes and the embedded template.
func NewServer(cfg Config, runner Runner, agg Aggregator, opts ...Option) *Server {
	if cfg.Job == "" {
		cfg.Job = "user_ingest"
	}
	s := &Server{
		cfg:    cfg,
		runner: runner,
		agg:    agg,
		mux:    mux.NewRouter(),
		tmpl:   template.Must(template.New("index").Parse(indexHTML)),
	}
	for _, o := range opts {
		o(s)
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/", s.handleIndex).Methods(http.MethodGet)
	s.mux.HandleFunc("/process", s.handleProcess).Methods(http.MethodGet, http.MethodPost)
	s.mux.HandleFunc("/distribution", s.handleDistribution).Methods(http.MethodGet)
	s.mux.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	if s.metrics != nil {
		s.mux.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}
}

// Handler returns the routed handler wrapped in access logging and panic
// recovery.
func (s *Server) Handler() http.Handler {
	h := handlers.RecoveryHandler(handlers.PrintRecoveryStack(true))(s.mux)
	return handlers.CombinedLoggingHandler(log.Writer(), h)
}

// HTTPServer builds an http.Server bound to cfg.Addr.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Wait blocks until any in-flight run finishes or ctx is done.
func (s *Server) Wait(ctx context.Context) { s.guard.WaitAll(ctx) }

type shareJSON struct {
	Group   string  `json:"group"`
	Count   int     `json:"count"`
	Percent float64 `json:"percent"`
}

type distributionJSON struct {
	Total  int         `json:"total"`
	Groups []shareJSON `json:"distribution"`
}

type processJSON struct {
	Message      string      `json:"message"`
	RunID        string      `json:"run_id"`
	Rows         int         `json:"rows"`
	Inserted     int64       `json:"inserted"`
	Checksum     string      `json:"checksum"`
	ElapsedMS    int64       `json:"elapsed_ms"`
	Distribution []shareJSON `json:"distribution"`
}

func shares(d domain.Distribution) []shareJSON {
	out := make([]shareJSON, 0, len(d.Shares))
	for _, sh := range d.Shares {
		out = append(out, shareJSON{Group: sh.Bucket.String(), Count: sh.Count, Percent: sh.Percent})
	}
	return out
}

// handleProcess runs one ingestion. The run is detached from the request so a
// client hangup cannot cut a load short.
func (s *Server) handleProcess(w http.ResponseWriter, r *http.Request) {
	if !s.guard.TryLock(s.cfg.Job) {
		http.Error(w, "ingestion already running", http.StatusConflict)
		return
	}
	defer s.guard.Unlock(s.cfg.Job)

	res, err := s.runner.Run(context.WithoutCancel(r.Context()), s.cfg.CSVPath)
	if err != nil {
		log.Printf("webui: process %s: %v", s.cfg.CSVPath, err)
		if s.rep != nil {
			s.rep.CaptureError(err, map[string]string{"job": s.cfg.Job, "run_id": res.RunID})
		}
		http.Error(w, FailureMessage, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, processJSON{
		Message:      SuccessMessage,
		RunID:        res.RunID,
		Rows:         res.Rows,
		Inserted:     res.Inserted,
		Checksum:     res.Checksum,
		ElapsedMS:    res.Elapsed.Milliseconds(),
		Distribution: shares(res.Distribution),
	})
}

func (s *Server) handleDistribution(w http.ResponseWriter, r *http.Request) {
	d, err := s.agg.Distribution(r.Context())
	if err != nil {
		log.Printf("webui: distribution: %v", err)
		http.Error(w, "Failed to compute distribution", http.StatusInternalServerError)
		return
	}
	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte(d.String() + "\n"))
		return
	}
	writeJSON(w, http.StatusOK, distributionJSON{Total: d.Total, Groups: shares(d)})
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok"))
}

// handleIndex renders the status page. A store error is shown inline.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	data := struct {
		Path string
		Dist domain.Distribution
		Err  string
	}{Path: s.cfg.CSVPath}
	d, err := s.agg.Distribution(r.Context())
	if err != nil {
		log.Printf("webui: index: %v", err)
		data.Err = "distribution unavailable"
	}
	data.Dist = d
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.Execute(w, data); err != nil {
		log.Println("webui: template error:", err)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("webui: encode response: %v", err)
	}
}

//go:embed index.tmpl.html
var indexHTML string
