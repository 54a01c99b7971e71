package etl

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"diagetl/internal/config"
	"diagetl/internal/datasource"
	"diagetl/internal/datasource/httpds"
	csvparser "diagetl/internal/parser/csv"
	"diagetl/internal/schema"
	"diagetl/internal/skiplog"
	"diagetl/internal/storage"
)

// Pipeline is a Driver bound to the resources it owns for one run.
type Pipeline struct {
	*Driver

	repo   storage.Repository
	reader *csvparser.Reader
	sink   *skiplog.Sink
	closed bool
}

// Open performs run setup: it checks the input (a local path or an http(s)
// URL), reads the DDL script, opens the configured warehouse and applies the
// script. Every failure is returned as a *SetupError and leaves nothing open.
//
// The storage backend for cfg.Storage.Kind must be registered; import
// diagetl/internal/storage/all for every built-in one.
func Open(ctx context.Context, cfg config.Config, log *zap.Logger) (*Pipeline, error) {
	if log == nil {
		log = zap.NewNop()
	}

	src := Source(cfg)
	if err := src.Check(ctx); err != nil {
		return nil, &SetupError{Op: "check input", Err: err}
	}

	stmts, err := storage.ReadScript(cfg.SQLScriptFile)
	if err != nil {
		return nil, &SetupError{Op: "sql script", Err: err}
	}

	repo, err := storage.New(ctx, storage.Config{Kind: cfg.Storage.Kind, DSN: cfg.DSN()})
	if err != nil {
		return nil, &SetupError{Op: "open storage", Err: err}
	}
	if err := storage.ApplyScript(ctx, repo, stmts); err != nil {
		repo.Close()
		return nil, &SetupError{Op: "apply sql script", Err: err}
	}
	log.Debug("warehouse ready",
		zap.String("kind", cfg.Storage.Kind),
		zap.Int("statements", len(stmts)),
	)

	reader := csvparser.NewReader(src, csvparser.Options{Comma: cfg.Comma()})
	sink := skiplog.NewSink(cfg.ErrorsDir, time.Now(), log)

	return &Pipeline{
		Driver: &Driver{
			Reader:    reader,
			Contract:  schema.DiagnosisContract(),
			Sink:      sink,
			Loader:    storage.NewLoader(repo, cfg.LoadBatchSize, log),
			ChunkSize: cfg.RowsPerIteration,
			Job:       cfg.Job,
			Log:       log,
		},
		repo:   repo,
		reader: reader,
		sink:   sink,
	}, nil
}

// Source returns the input source named by cfg.InputCSVFile.
func Source(cfg config.Config) datasource.Source {
	return datasource.New(cfg.InputCSVFile, httpds.Config{
		Timeout:            cfg.HTTP.Timeout,
		MaxRetries:         cfg.HTTP.MaxRetries,
		InsecureSkipVerify: cfg.HTTP.InsecureSkipVerify,
	})
}

// Run executes the driver and fills in the error log path.
func (p *Pipeline) Run(ctx context.Context) (Summary, error) {
	sum, err := p.Driver.Run(ctx)
	sum.ErrorLog = p.sink.Path()
	return sum, err
}

// Repository exposes the open warehouse, e.g. for the final report.
func (p *Pipeline) Repository() storage.Repository { return p.repo }

// Close releases the reader, the error log and the warehouse. Later calls
// are no-ops.
func (p *Pipeline) Close() error {
	if p.closed {
		return nil
	}
	p.closed = true
	err := errors.Join(p.reader.Close(), p.sink.Close())
	p.repo.Close()
	return err
}
