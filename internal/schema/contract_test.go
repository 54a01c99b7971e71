package schema

import (
	"reflect"
	"testing"
)

func TestDiagnosisContract_ColumnOrder(t *testing.T) {
	t.Parallel()

	want := []string{
		"member_first_name", "member_last_name", "diagnosis_code",
		"diagnosis_description", "procedure_code", "procedure_description",
		"provider_id", "provider_org_name", "provider_last_name", "service_date",
	}
	if got := DiagnosisContract().Columns(); !reflect.DeepEqual(got, want) {
		t.Fatalf("columns mismatch\ngot : %v\nwant: %v", got, want)
	}
}

func TestDiagnosisContract_PatternRules(t *testing.T) {
	t.Parallel()

	c := DiagnosisContract()

	cases := []struct {
		column string
		value  string
		want   bool
	}{
		{DiagnosisCode, "S5251", true},
		{DiagnosisCode, "a1", true},
		{DiagnosisCode, "S52515S", false},
		{DiagnosisCode, "!@#$@", false},
		{ProcedureCode, "49180", true},
		{ProcedureCode, "A1234", true},
		{ProcedureCode, "1234F", true},
		{ProcedureCode, "491801234", false},
		{ProcedureCode, "AB123", false},
		{ProcedureCode, "12345F", false},
		{ProviderID, "1234567890", true},
		{ProviderID, "123456789", false},
		{ProviderID, "12345678901", false},
		{ProviderID, "12345abcde", false},
	}
	for _, tc := range cases {
		r, ok := c.Rule(tc.column)
		if !ok {
			t.Fatalf("no rule for %q", tc.column)
		}
		if got := r.Match(tc.value); got != tc.want {
			t.Errorf("%s.Match(%q) = %v want %v", tc.column, tc.value, got, tc.want)
		}
	}
}

func TestDiagnosisContract_EmptyPolicy(t *testing.T) {
	t.Parallel()

	required := map[string]bool{
		DiagnosisCode: true,
		ProcedureCode: true,
		ProviderID:    true,
		ServiceDate:   true,
	}
	for _, r := range DiagnosisContract().Rules {
		if r.AllowEmpty == required[r.Column] {
			t.Errorf("column %q: AllowEmpty=%v", r.Column, r.AllowEmpty)
		}
	}
}

func TestDiagnosisContract_ReturnsCopy(t *testing.T) {
	t.Parallel()

	a := DiagnosisContract()
	a.Rules[0].Column = "changed"
	if DiagnosisContract().Rules[0].Column != MemberFirstName {
		t.Fatalf("DiagnosisContract must return an independent copy")
	}
}

func TestCompile_BadPattern(t *testing.T) {
	t.Parallel()

	_, err := Contract{Rules: []Rule{{Column: "x", Kind: KindPattern, Pattern: "("}}}.Compile()
	if err == nil {
		t.Fatalf("expected compile error for invalid pattern")
	}
}

func TestViolationString(t *testing.T) {
	t.Parallel()

	cases := []struct {
		v    Violation
		want string
	}{
		{
			v:    Violation{Row: 0, Column: ServiceDate, Value: "23 MAOR 20", Reason: InvalidDateMessage},
			want: `{row: 0, column: "service_date"}: "23 MAOR 20" service_date value is not a valid date`,
		},
		{
			v:    Violation{Row: 2, Column: DiagnosisCode, Value: "S52515S", Reason: PatternReason(DiagnosisCodePattern)},
			want: `{row: 2, column: "diagnosis_code"}: "S52515S" does not match the pattern "^[a-zA-Z0-9]{1,5}$"`,
		},
		{
			v:    Violation{Row: 9, Column: ProcedureCode, Value: "491801234", Reason: PatternReason(ProcedureCodePattern)},
			want: `{row: 9, column: "procedure_code"}: "491801234" does not match the pattern "^[0-9]{1,5}$|^[a-zA-Z][0-9]{1,4}$|^[0-9]{1,4}[a-zA-Z]$"`,
		},
	}
	for _, tc := range cases {
		if got := tc.v.String(); got != tc.want {
			t.Errorf("String()\ngot : %s\nwant: %s", got, tc.want)
		}
	}
}
