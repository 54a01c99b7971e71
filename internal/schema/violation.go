package schema

import "fmt"

// EmptyMessage is the failure reason for an empty cell in a column that does
// not allow empty values.
const EmptyMessage = "is empty"

// Violation is a row-and-column scoped validation failure. Row is relative to
// the chunk the violation was found in.
type Violation struct {
	Row    int
	Column string
	Value  string
	Reason string
}

// PatternReason returns the failure reason for a pattern rule.
func PatternReason(pattern string) string {
	return fmt.Sprintf(`does not match the pattern "%s"`, pattern)
}

// String renders the violation in the error log format:
//
//	{row: 2, column: "diagnosis_code"}: "S52515S" does not match the pattern "^[a-zA-Z0-9]{1,5}$"
func (v Violation) String() string {
	return fmt.Sprintf(`{row: %d, column: "%s"}: "%s" %s`, v.Row, v.Column, v.Value, v.Reason)
}
