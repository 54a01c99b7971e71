package sqlite

import "time"

// Config holds SQLite repository configuration derived from storage.Config.
type Config struct {
	// DSN is a SQLite connection string or file path, e.g.:
	//   "file:warehouse.db?_pragma=busy_timeout(5000)"
	//   "warehouse.db"
	//   ":memory:"
	DSN string

	// PingTimeout bounds the connectivity check in NewRepository.
	PingTimeout time.Duration
}
