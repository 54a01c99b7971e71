package etl

import "fmt"

// SetupError reports a failure before the first chunk is read: the source is
// unreadable, the DDL script is missing or malformed, or the warehouse cannot
// be opened. Op names the setup step.
type SetupError struct {
	Op  string
	Err error
}

func (e *SetupError) Error() string {
	return fmt.Sprintf("setup: %s: %v", e.Op, e.Err)
}

func (e *SetupError) Unwrap() error { return e.Err }
