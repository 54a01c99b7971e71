// Package storage contains the backend-agnostic warehouse contract: the
// Repository interface, the backend registry, DDL script application, the
// star-schema loader and the final report query.
//
// Concrete backends live in sub-packages and register themselves from init;
// import diagetl/internal/storage/all to enable every built-in backend.
package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Repository is the minimal surface the pipeline needs from a warehouse.
type Repository interface {
	// Exec runs one SQL statement (typically DDL).
	Exec(ctx context.Context, sql string) error

	// CopyFrom appends rows to table. Every row is aligned with columns; nil
	// values are written as SQL NULL. It returns the number of rows written.
	CopyFrom(ctx context.Context, table string, columns []string, rows [][]any) (int64, error)

	// Query runs a read-only statement and returns the full result set.
	Query(ctx context.Context, sql string) (ResultSet, error)

	Close()
}

// ResultSet is a fully materialised query result.
type ResultSet struct {
	Columns []string
	Rows    [][]any
}

// Config selects and configures a backend.
type Config struct {
	Kind string // "sqlite", "postgres", "mssql", "mysql"
	DSN  string
}

// Factory opens a Repository for cfg.
type Factory func(ctx context.Context, cfg Config) (Repository, error)

var (
	mu        sync.RWMutex
	factories = map[string]Factory{}
)

// Register installs f for kind. Registering a kind twice replaces the
// previous factory.
func Register(kind string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	factories[kind] = f
}

// New opens a Repository using the factory registered for cfg.Kind.
func New(ctx context.Context, cfg Config) (Repository, error) {
	mu.RLock()
	f, ok := factories[cfg.Kind]
	mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unsupported storage.kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}

// ListKinds returns the registered kinds, sorted. The slice is a copy.
func ListKinds() []string {
	mu.RLock()
	defer mu.RUnlock()
	out := make([]string, 0, len(factories))
	for k := range factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
