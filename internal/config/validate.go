package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap/zapcore"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that blocks the run.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block the run.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding.
//
// Path is the config key (e.g. "storage.kind"). Message is human-readable.
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

// Error implements the error interface so an Issue can be treated as a single
// error in contexts that expect error.
func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// Err joins every error-severity issue, or returns nil when there are none.
func Err(issues []Issue) error {
	var errs []error
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			errs = append(errs, iss)
		}
	}
	return errors.Join(errs...)
}

var (
	storageKinds = map[string]struct{}{"sqlite": {}, "postgres": {}, "mssql": {}, "mysql": {}}
	metricKinds  = map[string]struct{}{"": {}, "none": {}, "pushgateway": {}, "datadog": {}}
)

// Validate performs static checks over cfg. It does not touch the input file
// or the database; those failures surface at run start as setup errors.
func Validate(cfg Config) []Issue {
	var issues []Issue
	add := func(sev IssueSeverity, path, format string, args ...any) {
		issues = append(issues, Issue{Severity: sev, Path: path, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(cfg.InputCSVFile) == "" {
		add(SeverityError, "input_csv_file", "input_csv_file must not be empty")
	}
	if strings.TrimSpace(cfg.SQLScriptFile) == "" {
		add(SeverityError, "sql_script_file", "sql_script_file must not be empty; the warehouse schema is created from it")
	}
	if cfg.RowsPerIteration <= 0 {
		add(SeverityError, "number_of_rows_per_iteration", "must be > 0, got %d", cfg.RowsPerIteration)
	}
	if cfg.LoadBatchSize < 0 {
		add(SeverityError, "load_batch_size", "must be >= 0, got %d", cfg.LoadBatchSize)
	}

	switch d := cfg.Delimiter; {
	case d == "":
	case utf8.RuneCountInString(d) != 1:
		add(SeverityError, "delimiter", "delimiter must be a single character, got %q", d)
	case d == `"` || d == "\r" || d == "\n" || d == "\uFFFD":
		add(SeverityError, "delimiter", "delimiter %q is not allowed", d)
	}

	if strings.TrimSpace(cfg.Job) == "" {
		add(SeverityWarning, "job", "job is empty; metrics will carry an empty job label")
	}

	if fi, err := os.Stat(cfg.ErrorsDir); err == nil && !fi.IsDir() {
		add(SeverityError, "errors_dir", "%s exists and is not a directory", cfg.ErrorsDir)
	}

	if cfg.HTTP.Timeout < 0 {
		add(SeverityError, "http.timeout", "must be >= 0, got %s", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries < 0 {
		add(SeverityError, "http.max_retries", "must be >= 0, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.HTTP.InsecureSkipVerify {
		add(SeverityWarning, "http.insecure_skip_verify", "TLS certificate verification is disabled")
	}

	issues = append(issues, validateStorage(cfg)...)
	issues = append(issues, validateLogging(cfg.Logging)...)
	issues = append(issues, validateMetrics(cfg.Metrics)...)
	return issues
}

func validateStorage(cfg Config) []Issue {
	var issues []Issue
	kind := cfg.Storage.Kind
	if _, ok := storageKinds[kind]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unsupported storage kind %q (want sqlite, postgres, mssql or mysql)", kind),
		})
		return issues
	}
	if strings.TrimSpace(cfg.DSN()) == "" {
		path := "storage.dsn"
		if kind == "sqlite" {
			path = "sqlite_db_file"
		}
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     path,
			Message:  fmt.Sprintf("%s backend requires a database location", kind),
		})
	}
	if kind != "sqlite" && cfg.SQLiteDBFile != "" && cfg.Storage.DSN != "" {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "sqlite_db_file",
			Message:  fmt.Sprintf("ignored because storage.kind is %q", kind),
		})
	}
	return issues
}

func validateLogging(l Logging) []Issue {
	var issues []Issue
	if l.Level != "" {
		if _, err := zapcore.ParseLevel(l.Level); err != nil {
			issues = append(issues, Issue{Severity: SeverityError, Path: "logging.level", Message: err.Error()})
		}
	}
	switch strings.ToLower(l.Format) {
	case "", "json", "console":
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "logging.format",
			Message:  fmt.Sprintf("unknown format %q (want json or console)", l.Format),
		})
	}
	return issues
}

func validateMetrics(m Metrics) []Issue {
	var issues []Issue
	if _, ok := metricKinds[m.Backend]; !ok {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "metrics.backend",
			Message:  fmt.Sprintf("unknown metrics backend %q (want none, pushgateway or datadog)", m.Backend),
		})
		return issues
	}
	if m.Backend == "pushgateway" && m.PushgatewayURL == "" {
		issues = append(issues, Issue{Severity: SeverityError, Path: "metrics.pushgateway_url", Message: "required when metrics.backend is pushgateway"})
	}
	if m.Backend == "datadog" && m.DatadogAddr == "" {
		issues = append(issues, Issue{Severity: SeverityError, Path: "metrics.datadog_addr", Message: "required when metrics.backend is datadog"})
	}
	return issues
}
