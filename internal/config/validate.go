package config

import (
	"fmt"
	"slices"
	"strings"

	"agereport/internal/db"
	"agereport/internal/parser/lines"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError blocks startup.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is logged and ignored.
	SeverityWarning IssueSeverity = "warning"
)

// Issue is one validation finding. Path names the flag it concerns.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// MetricsBackends lists the accepted -metrics_backend values.
var MetricsBackends = []string{"none", "prometheus", "pushgateway", "datadog"}

// Validate performs static checks over cfg without mutating it.
func Validate(cfg *Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.CSVPath) == "" {
		add(SeverityError, "csv", "input path must not be empty")
	}
	if cfg.ChunkSize <= 0 {
		add(SeverityError, "chunk_size", "must be > 0, got %d", cfg.ChunkSize)
	}
	if _, err := lines.ParseTrailingPolicy(cfg.TrailingLine); err != nil {
		add(SeverityError, "trailing_line", "%v", err)
	}
	if cfg.HTTPRetries < 0 {
		add(SeverityError, "http_retries", "must be >= 0, got %d", cfg.HTTPRetries)
	}

	if !slices.Contains(db.Drivers, cfg.DBDriver) {
		add(SeverityError, "db_driver", "unsupported driver %q (want one of %s)", cfg.DBDriver, strings.Join(db.Drivers, ", "))
	} else if cfg.DatabaseDSN() == "" {
		add(SeverityError, "dsn", "a DSN is required for driver %q", cfg.DBDriver)
	}
	if strings.TrimSpace(cfg.Table) == "" {
		add(SeverityError, "table", "destination table must not be empty")
	}

	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityWarning, "job", "empty job name; metrics will be unlabeled")
	}
	if cfg.Timeout < 0 {
		add(SeverityError, "timeout", "must be >= 0, got %s", cfg.Timeout)
	}
	if !cfg.Once && strings.TrimSpace(cfg.Addr) == "" {
		add(SeverityError, "addr", "listen address required unless -once is set")
	}

	switch cfg.MetricsBackend {
	case "none":
	case "prometheus":
		if cfg.Once {
			add(SeverityWarning, "metrics_backend", "prometheus is scrape-only; nothing will collect it with -once")
		}
	case "pushgateway":
		if cfg.PushgatewayURL == "" {
			add(SeverityError, "pushgateway_url", "required for the pushgateway backend")
		}
	case "datadog":
		if cfg.DatadogAddr == "" {
			add(SeverityError, "datadog_addr", "required for the datadog backend")
		}
	default:
		add(SeverityError, "metrics_backend", "unknown backend %q (want one of %s)", cfg.MetricsBackend, strings.Join(MetricsBackends, ", "))
	}
	return issues
}

// Errors returns only the blocking issues.
func Errors(issues []Issue) []Issue {
	var out []Issue
	for _, i := range issues {
		if i.Severity == SeverityError {
			out = append(out, i)
		}
	}
	return out
}
