package engine

import (
	"testing"

	"github.com/priyanka/formpilot/backend/internal/domain"
)

func settingsForTest() Settings {
	s := DefaultSettings()
	s.UserInitiated = true
	return s
}

func skipReasonFor(t *testing.T, result Result, identifier string) SkipReason {
	t.Helper()
	for _, skipped := range result.SkippedFields {
		if skipped.Identifier == identifier {
			return skipped.Reason
		}
	}
	t.Fatalf("field %s was not skipped: %+v", identifier, result)
	return ""
}

func TestAutofillDisabled(t *testing.T) {
	settings := settingsForTest()
	settings.Enabled = false

	field := &stubField{name: "email"}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settings)

	if result.Success {
		t.Fatal("disabled pass must not succeed")
	}
	if result.Message != "Autofill is disabled" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if len(field.setCalls) != 0 {
		t.Fatal("disabled pass must not write values")
	}
}

func TestAutofillEmptyProfile(t *testing.T) {
	result := Autofill(stubDoc{}, FlatValues{}, settingsForTest())
	if result.Message != "No profile data. Configure in Settings." {
		t.Fatalf("unexpected message %q", result.Message)
	}
}

func TestStructuralSkipOrder(t *testing.T) {
	cases := []struct {
		desc   string
		field  stubField
		reason SkipReason
	}{
		{"hidden", stubField{name: "email", typ: "hidden"}, SkipHidden},
		{"hidden precedes disabled", stubField{name: "email", typ: "hidden", disabled: true}, SkipHidden},
		{"disabled", stubField{name: "email", disabled: true}, SkipDisabled},
		{"disabled precedes readonly", stubField{name: "email", disabled: true, readonly: true}, SkipDisabled},
		{"readonly", stubField{name: "email", readonly: true}, SkipReadonly},
		{"already filled", stubField{name: "email", value: "old@example.com"}, SkipAlreadyFilled},
		{"blocked", stubField{name: "password_hint"}, SkipBlockedField},
		{"blocked precedes invalid type", stubField{name: "cvv", typ: "number"}, SkipBlockedField},
		{"invalid type", stubField{name: "email", typ: "number"}, SkipInvalidType},
		{"no match", stubField{name: "favorite_color"}, SkipNoMatch},
	}

	for _, tc := range cases {
		field := tc.field
		result := Autofill(stubDoc{fields: []Candidate{&field}}, fullValues(), settingsForTest())
		got := skipReasonFor(t, result, `name=`+`"`+tc.field.name+`"`)
		if got != tc.reason {
			t.Errorf("%s: skip reason %s, want %s", tc.desc, got, tc.reason)
		}
		if len(field.setCalls) != 0 {
			t.Errorf("%s: skipped field must not be written", tc.desc)
		}
	}
}

func TestWhitespaceValueTreatedAsEmpty(t *testing.T) {
	field := &stubField{name: "email", value: "   "}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settingsForTest())
	if len(result.FilledFields) != 1 {
		t.Fatalf("whitespace-only value should be treated as empty and filled, got %+v", result)
	}
}

func TestSkipFilledFieldsOff(t *testing.T) {
	settings := settingsForTest()
	settings.SkipFilledFields = false

	field := &stubField{name: "email", value: "old@example.com"}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settings)
	if len(result.FilledFields) != 1 {
		t.Fatal("with SkipFilledFields off, pre-filled fields are overwritten")
	}
	if field.value != "jane@example.com" {
		t.Fatalf("value not overwritten, got %q", field.value)
	}
}

func TestTextareaExemptFromTypeCheck(t *testing.T) {
	field := &stubField{tag: "textarea", name: "address"}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settingsForTest())
	if len(result.FilledFields) != 1 {
		t.Fatalf("textarea should be fillable, got %+v", result)
	}
}

func TestLowConfidenceSkips(t *testing.T) {
	// placeholder partial scores 45, below the default threshold of 50
	field := &stubField{placeholder: "enter the email you use"}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settingsForTest())
	got := skipReasonFor(t, result, `placeholder="enter the email you use"`)
	if got != SkipLowConfidence {
		t.Fatalf("skip reason %s, want %s", got, SkipLowConfidence)
	}
}

type policyValues struct {
	FlatValues
	policy domain.AutofillPolicy
}

func (p policyValues) Resolve(key string) Resolved {
	r := p.FlatValues.Resolve(key)
	r.Policy = p.policy
	return r
}

func TestPolicyGate(t *testing.T) {
	cases := []struct {
		policy        domain.AutofillPolicy
		userInitiated bool
		filled        bool
		reason        SkipReason
	}{
		{domain.PolicyNever, true, false, SkipPolicyNever},
		{domain.PolicyConfirm, true, false, SkipPolicyConfirmPending},
		{domain.PolicyOnClick, false, false, SkipPolicyConfirmPending},
		{domain.PolicyOnClick, true, true, ""},
		{domain.PolicyBulkOK, false, true, ""},
	}

	for _, tc := range cases {
		settings := settingsForTest()
		settings.UserInitiated = tc.userInitiated

		field := &stubField{name: "email"}
		vals := policyValues{FlatValues: fullValues(), policy: tc.policy}
		result := Autofill(stubDoc{fields: []Candidate{field}}, vals, settings)

		if tc.filled {
			if len(result.FilledFields) != 1 {
				t.Errorf("policy %s (userInitiated=%v): expected fill, got %+v", tc.policy, tc.userInitiated, result)
			}
			continue
		}
		got := skipReasonFor(t, result, `name="email"`)
		if got != tc.reason {
			t.Errorf("policy %s (userInitiated=%v): skip reason %s, want %s", tc.policy, tc.userInitiated, got, tc.reason)
		}
	}
}

func TestFillPassesOptionsThrough(t *testing.T) {
	settings := settingsForTest()
	settings.HighlightFilled = true
	settings.DispatchEvents = true

	field := &stubField{name: "email"}
	result := Autofill(stubDoc{fields: []Candidate{field}}, fullValues(), settings)

	if !result.Success {
		t.Fatalf("expected success, got %+v", result)
	}
	if result.Message != "Filled 1 field" {
		t.Fatalf("unexpected message %q", result.Message)
	}
	if !field.lastOpts.Highlight || !field.lastOpts.DispatchEvents {
		t.Fatalf("fill options not passed through: %+v", field.lastOpts)
	}
	if field.lastOpts.HighlightDuration != settings.HighlightDuration {
		t.Fatal("highlight duration not passed through")
	}
}

func TestFieldsAreIndependent(t *testing.T) {
	blocked := &stubField{name: "password_hint"}
	email := &stubField{name: "email"}
	unmatched := &stubField{name: "favorite_color"}

	result := Autofill(stubDoc{fields: []Candidate{blocked, email, unmatched}}, fullValues(), settingsForTest())

	if result.TotalInputs != 3 {
		t.Fatalf("TotalInputs = %d, want 3", result.TotalInputs)
	}
	if len(result.FilledFields) != 1 || result.FilledFields[0].FieldKey != "email" {
		t.Fatalf("expected only the email fill, got %+v", result.FilledFields)
	}
	if len(result.SkippedFields) != 2 {
		t.Fatalf("expected 2 skips, got %+v", result.SkippedFields)
	}
}

func TestAnalyzeFormPartition(t *testing.T) {
	fields := []Candidate{
		&stubField{name: "email"},
		&stubField{name: "password_hint"},
		&stubField{name: "favorite_color"},
		&stubField{name: "email", typ: "hidden"},
	}

	analysis := AnalyzeForm(stubDoc{fields: fields}, fullValues(), 50)

	if len(analysis.MatchedFields) != 1 {
		t.Fatalf("expected 1 matched field, got %+v", analysis.MatchedFields)
	}
	if len(analysis.BlockedFields) != 1 {
		t.Fatalf("expected 1 blocked field, got %+v", analysis.BlockedFields)
	}
	// The hidden field is dropped entirely, leaving one unmatched.
	if len(analysis.UnmatchedFields) != 1 {
		t.Fatalf("expected 1 unmatched field, got %+v", analysis.UnmatchedFields)
	}
}
