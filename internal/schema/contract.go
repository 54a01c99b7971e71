// Package schema declares the fixed column contract for diagnosis input files
// and the Violation type produced when a cell breaks it.
//
// The contract is data, not code: each Rule names a column, a rule kind and
// its parameters. A single dispatch routine (transformer.Validate) evaluates
// every rule, so the rules can be inspected and tested without any I/O.
package schema

import (
	"fmt"
	"regexp"
)

// Kind selects how a Rule checks a non-empty cell.
type Kind string

const (
	// KindNone accepts any value.
	KindNone Kind = "none"
	// KindPattern requires the value to match Rule.Pattern.
	KindPattern Kind = "pattern"
	// KindDate requires the value to be parseable as a calendar date.
	KindDate Kind = "date"
)

// Column names of the diagnosis input file, in declared order.
const (
	MemberFirstName      = "member_first_name"
	MemberLastName       = "member_last_name"
	DiagnosisCode        = "diagnosis_code"
	DiagnosisDescription = "diagnosis_description"
	ProcedureCode        = "procedure_code"
	ProcedureDescription = "procedure_description"
	ProviderID           = "provider_id"
	ProviderOrgName      = "provider_org_name"
	ProviderLastName     = "provider_last_name"
	ServiceDate          = "service_date"

	// DateFormatted is the derived YYYYMMDD integer column.
	DateFormatted = "date_formatted"
)

// Rule is one row of the contract table.
type Rule struct {
	Column     string
	Kind       Kind
	Pattern    string // KindPattern only
	AllowEmpty bool
	Message    string // KindDate failure reason

	re *regexp.Regexp
}

// Match reports whether v satisfies the pattern. Rules of other kinds match
// everything.
func (r Rule) Match(v string) bool {
	if r.Kind != KindPattern {
		return true
	}
	if r.re == nil {
		return regexp.MustCompile(r.Pattern).MatchString(v)
	}
	return r.re.MatchString(v)
}

// Contract is an ordered list of column rules.
type Contract struct {
	Name  string
	Rules []Rule
}

// Columns returns the contract's column names in declared order.
func (c Contract) Columns() []string {
	out := make([]string, len(c.Rules))
	for i, r := range c.Rules {
		out[i] = r.Column
	}
	return out
}

// Rule returns the rule for column and whether it exists.
func (c Contract) Rule(column string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Column == column {
			return r, true
		}
	}
	return Rule{}, false
}

// Compile validates every pattern and caches the compiled expressions.
func (c Contract) Compile() (Contract, error) {
	out := Contract{Name: c.Name, Rules: make([]Rule, len(c.Rules))}
	for i, r := range c.Rules {
		if r.Kind == KindPattern {
			re, err := regexp.Compile(r.Pattern)
			if err != nil {
				return Contract{}, fmt.Errorf("schema: column %q: %w", r.Column, err)
			}
			r.re = re
		}
		out.Rules[i] = r
	}
	return out, nil
}

// Patterns as they appear in error log messages.
const (
	DiagnosisCodePattern = `^[a-zA-Z0-9]{1,5}$`
	ProcedureCodePattern = `^[0-9]{1,5}$|^[a-zA-Z][0-9]{1,4}$|^[0-9]{1,4}[a-zA-Z]$`
	ProviderIDPattern    = `^[0-9]{10}$`

	// InvalidDateMessage is the failure reason of the service_date rule.
	InvalidDateMessage = "service_date value is not a valid date"
)

var diagnosis = func() Contract {
	c, err := Contract{
		Name: "diagnosis",
		Rules: []Rule{
			{Column: MemberFirstName, Kind: KindNone, AllowEmpty: true},
			{Column: MemberLastName, Kind: KindNone, AllowEmpty: true},
			{Column: DiagnosisCode, Kind: KindPattern, Pattern: DiagnosisCodePattern},
			{Column: DiagnosisDescription, Kind: KindNone, AllowEmpty: true},
			{Column: ProcedureCode, Kind: KindPattern, Pattern: ProcedureCodePattern},
			{Column: ProcedureDescription, Kind: KindNone, AllowEmpty: true},
			{Column: ProviderID, Kind: KindPattern, Pattern: ProviderIDPattern},
			{Column: ProviderOrgName, Kind: KindNone, AllowEmpty: true},
			{Column: ProviderLastName, Kind: KindNone, AllowEmpty: true},
			{Column: ServiceDate, Kind: KindDate, Message: InvalidDateMessage},
		},
	}.Compile()
	if err != nil {
		panic(err)
	}
	return c
}()

// DiagnosisContract returns the fixed contract for diagnosis input files.
func DiagnosisContract() Contract {
	out := diagnosis
	out.Rules = append([]Rule(nil), diagnosis.Rules...)
	return out
}
