package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"diagetl/internal/config"
	"diagetl/internal/etl"
	"diagetl/internal/logging"
	"diagetl/internal/probe"
	"diagetl/internal/schema"
	"diagetl/internal/storage"
)

func newRunCmd(cfgPath *string) *cobra.Command {
	var withReport bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the ETL over the configured input file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*cfgPath, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			flush, err := setupMetrics(cfg, log)
			if err != nil {
				return err
			}
			defer flush()

			return runETL(cmd, cfg, log, withReport)
		},
	}
	cmd.Flags().BoolVar(&withReport, "report", true, "print the joined warehouse contents after the run")
	return cmd
}

func runETL(cmd *cobra.Command, cfg config.Config, log *zap.Logger, withReport bool) (err error) {
	ctx := cmd.Context()

	p, err := etl.Open(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := p.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	log.Info("run started",
		zap.String("input", cfg.InputCSVFile),
		zap.String("storage", cfg.Storage.Kind),
		zap.Int("chunk_size", cfg.RowsPerIteration),
	)
	sum, err := p.Run(ctx)
	fields := []zap.Field{
		zap.Int("chunks", sum.Chunks),
		zap.Int("rows_read", sum.RowsRead),
		zap.Int("violations", sum.Violations),
		zap.Int("rows_dropped", sum.RowsDropped),
		zap.Int64("rows_loaded", sum.RowsLoaded),
		zap.Any("violations_by_column", sum.ViolationsByColumn),
		zap.String("error_log", sum.ErrorLog),
		zap.Duration("elapsed", sum.Elapsed),
	}
	if err != nil {
		log.Error("run failed", append(fields, zap.Error(err))...)
		return err
	}
	log.Info("run completed", fields...)

	if !withReport {
		return nil
	}
	rs, err := storage.Report(ctx, p.Repository())
	if err != nil {
		return err
	}
	return printReport(cmd.OutOrStdout(), rs)
}

func newValidateCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check the configuration and exit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := loadConfig(*cfgPath, cmd.ErrOrStderr()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "configuration is valid")
			return nil
		},
	}
}

func newReportCmd(cfgPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "report",
		Short: "Print the joined warehouse contents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			repo, err := storage.New(cmd.Context(), storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.DSN()})
			if err != nil {
				return err
			}
			defer repo.Close()

			rs, err := storage.Report(cmd.Context(), repo)
			if err != nil {
				return err
			}
			return printReport(cmd.OutOrStdout(), rs)
		},
	}
}

func newProbeCmd(cfgPath *string) *cobra.Command {
	var rows int

	cmd := &cobra.Command{
		Use:   "probe",
		Short: "Preview the input: header check, delimiter guess, sample validation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(*cfgPath)
			if err != nil {
				return err
			}
			ctx := cmd.Context()
			src := etl.Source(cfg)
			if err := src.Check(ctx); err != nil {
				return err
			}
			res, err := probe.Inspect(ctx, src, schema.DiagnosisContract(), probe.Options{
				Comma:      cfg.Comma(),
				SampleRows: rows,
			})
			if err != nil {
				return err
			}
			printProbe(cmd.OutOrStdout(), src.Path(), cfg.Comma(), res)
			if !res.HeaderOK() {
				return fmt.Errorf("input header is missing %d contract column(s)", len(res.Missing))
			}
			return nil
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 100, "number of rows to validate")
	return cmd
}

// loadConfig reads and lints the configuration, printing every issue to w.
func loadConfig(path string, w io.Writer) (config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return config.Config{}, err
	}
	issues := config.Validate(cfg)
	for _, iss := range issues {
		fmt.Fprintf(w, "%s: %s: %s\n", iss.Severity, iss.Path, iss.Message)
	}
	if err := config.Err(issues); err != nil {
		return config.Config{}, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cfg config.Config) (*zap.Logger, error) {
	return logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		File:   cfg.Logging.File,
	})
}
