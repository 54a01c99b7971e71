package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write %s: %v", p, err)
	}
	return p
}

func TestLoad_JSONAndDefaults(t *testing.T) {
	path := writeFile(t, "config.json", `{
		"input_csv_file": "data/diagnosis.csv",
		"sqlite_db_file": "warehouse.db",
		"sql_script_file": "configs/sql/sqlite.sql",
		"metrics": {"backend": "datadog", "datadog_addr": "127.0.0.1:8125", "tags": ["env:dev"]}
	}`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.InputCSVFile != "data/diagnosis.csv" || cfg.SQLiteDBFile != "warehouse.db" || cfg.SQLScriptFile != "configs/sql/sqlite.sql" {
		t.Fatalf("file keys not decoded: %+v", cfg)
	}
	if cfg.RowsPerIteration != 1000 {
		t.Errorf("RowsPerIteration default = %d, want 1000", cfg.RowsPerIteration)
	}
	if cfg.Delimiter != "," || cfg.Comma() != ',' {
		t.Errorf("delimiter default = %q", cfg.Delimiter)
	}
	if cfg.ErrorsDir != "." || cfg.Job != "diagnosis_etl" {
		t.Errorf("errors_dir/job defaults = %q/%q", cfg.ErrorsDir, cfg.Job)
	}
	if cfg.Storage.Kind != "sqlite" || cfg.DSN() != "warehouse.db" {
		t.Errorf("storage = %+v dsn=%q", cfg.Storage, cfg.DSN())
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "console" {
		t.Errorf("logging defaults = %+v", cfg.Logging)
	}
	if cfg.HTTP.Timeout != 30*time.Second || cfg.HTTP.MaxRetries != 3 || cfg.HTTP.InsecureSkipVerify {
		t.Errorf("http defaults = %+v", cfg.HTTP)
	}
	if !reflect.DeepEqual(cfg.Metrics.Tags, []string{"env:dev"}) || cfg.Metrics.DatadogAddr != "127.0.0.1:8125" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "config.yaml", "input_csv_file: in.csv\nnumber_of_rows_per_iteration: 3\ndelimiter: \"|\"\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.InputCSVFile != "in.csv" || cfg.RowsPerIteration != 3 || cfg.Comma() != '|' {
		t.Fatalf("cfg = %+v", cfg)
	}
}

// TestLoad_EnvOverrides cannot run in parallel because of t.Setenv.
func TestLoad_EnvOverrides(t *testing.T) {
	path := writeFile(t, "config.json", `{"input_csv_file": "a.csv", "number_of_rows_per_iteration": 10}`)

	t.Setenv("ETL_NUMBER_OF_ROWS_PER_ITERATION", "25")
	t.Setenv("ETL_STORAGE_KIND", "postgres")
	t.Setenv("ETL_STORAGE_DSN", "postgres://etl@localhost/warehouse")
	t.Setenv("ETL_LOGGING_LEVEL", "debug")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RowsPerIteration != 25 {
		t.Errorf("RowsPerIteration = %d, want 25", cfg.RowsPerIteration)
	}
	if cfg.Storage.Kind != "postgres" || cfg.DSN() != "postgres://etl@localhost/warehouse" {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Logging.Level != "debug" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
	if cfg.InputCSVFile != "a.csv" {
		t.Errorf("file value lost: %q", cfg.InputCSVFile)
	}
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	if _, err := Load(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Errorf("explicit missing file should fail")
	}
	bad := writeFile(t, "bad.json", `{"input_csv_file": `)
	if _, err := Load(bad); err == nil {
		t.Errorf("malformed JSON should fail")
	}
	wrongType := writeFile(t, "wrong.json", `{"number_of_rows_per_iteration": "many"}`)
	if _, err := Load(wrongType); err == nil {
		t.Errorf("non-numeric chunk size should fail to decode")
	}
}

func TestDSN(t *testing.T) {
	t.Parallel()

	c := Config{SQLiteDBFile: "w.db"}
	if c.DSN() != "w.db" {
		t.Fatalf("DSN = %q", c.DSN())
	}
	c.Storage.DSN = "file:other.db"
	if c.DSN() != "file:other.db" {
		t.Fatalf("storage.dsn should win, got %q", c.DSN())
	}
}
