// Package config defines the run configuration of the diagnosis ETL and loads
// it with viper from a JSON (or YAML) file plus ETL_-prefixed environment
// variables.
//
// Example (configs/config.json):
//
//	{
//	  "input_csv_file": "data/diagnosis.csv",
//	  "sqlite_db_file": "warehouse.db",
//	  "number_of_rows_per_iteration": 1000,
//	  "sql_script_file": "configs/sql/sqlite.sql"
//	}
//
// Nested keys map to env vars with "_" for ".", e.g. ETL_STORAGE_KIND.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override.
const EnvPrefix = "ETL"

// Config is the full run configuration.
type Config struct {
	InputCSVFile     string `mapstructure:"input_csv_file"`
	SQLiteDBFile     string `mapstructure:"sqlite_db_file"`
	RowsPerIteration int    `mapstructure:"number_of_rows_per_iteration"`
	SQLScriptFile    string `mapstructure:"sql_script_file"`

	// Delimiter is the single field separator of the input file.
	Delimiter string `mapstructure:"delimiter"`
	// ErrorsDir receives the run's errors_<timestamp>.csv.
	ErrorsDir string `mapstructure:"errors_dir"`
	// Job labels metrics and log lines.
	Job string `mapstructure:"job"`
	// LoadBatchSize caps rows per bulk write; 0 writes each table in one call.
	LoadBatchSize int `mapstructure:"load_batch_size"`

	Storage Storage `mapstructure:"storage"`
	HTTP    HTTP    `mapstructure:"http"`
	Logging Logging `mapstructure:"logging"`
	Metrics Metrics `mapstructure:"metrics"`
}

// Storage selects the warehouse backend.
type Storage struct {
	Kind string `mapstructure:"kind"`
	// DSN overrides sqlite_db_file when set.
	DSN string `mapstructure:"dsn"`
}

// HTTP configures the client used when input_csv_file is an http(s) URL.
type HTTP struct {
	Timeout            time.Duration `mapstructure:"timeout"`
	MaxRetries         int           `mapstructure:"max_retries"`
	InsecureSkipVerify bool          `mapstructure:"insecure_skip_verify"`
}

// Logging configures the zap logger.
type Logging struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	File   string `mapstructure:"file"`
}

// Metrics selects and configures the metrics backend.
type Metrics struct {
	Backend        string   `mapstructure:"backend"` // none, pushgateway, datadog
	PushgatewayURL string   `mapstructure:"pushgateway_url"`
	DatadogAddr    string   `mapstructure:"datadog_addr"`
	Namespace      string   `mapstructure:"namespace"`
	Tags           []string `mapstructure:"tags"`
}

// DSN returns the warehouse connection string: storage.dsn when set,
// otherwise sqlite_db_file.
func (c Config) DSN() string {
	if strings.TrimSpace(c.Storage.DSN) != "" {
		return c.Storage.DSN
	}
	return c.SQLiteDBFile
}

// Comma returns the delimiter rune, or ',' when none is configured.
func (c Config) Comma() rune {
	if c.Delimiter == "" {
		return ','
	}
	r, _ := utf8.DecodeRuneInString(c.Delimiter)
	return r
}

// defaults is also the list of keys viper binds to the environment.
var defaults = map[string]any{
	"input_csv_file":               "",
	"sqlite_db_file":               "",
	"number_of_rows_per_iteration": 1000,
	"sql_script_file":              "",
	"delimiter":                    ",",
	"errors_dir":                   ".",
	"job":                          "diagnosis_etl",
	"load_batch_size":              0,
	"storage.kind":                 "sqlite",
	"storage.dsn":                  "",
	"http.timeout":                 "30s",
	"http.max_retries":             3,
	"http.insecure_skip_verify":    false,
	"logging.level":                "info",
	"logging.format":               "console",
	"logging.file":                 "",
	"metrics.backend":              "none",
	"metrics.pushgateway_url":      "",
	"metrics.datadog_addr":         "",
	"metrics.namespace":            "",
	"metrics.tags":                 []string{},
}

// Load reads path (JSON or YAML by extension) and applies environment
// overrides. With an empty path it looks for config.json in "." and
// "./configs"; a missing file is then not an error and only defaults and
// environment apply.
func Load(path string) (Config, error) {
	v := viper.New()
	for k, val := range defaults {
		v.SetDefault(k, val)
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("json")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	return cfg, nil
}
