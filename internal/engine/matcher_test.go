package engine

import (
	"testing"
)

// stubField is a hand-rolled Candidate for driving the engine in tests.
type stubField struct {
	tag          string
	name         string
	id           string
	typ          string
	placeholder  string
	value        string
	label        string
	autocomplete string
	disabled     bool
	readonly     bool

	setCalls []string
	lastOpts FillOptions
}

func (s *stubField) TagName() string {
	if s.tag == "" {
		return "input"
	}
	return s.tag
}
func (s *stubField) Name() string         { return s.name }
func (s *stubField) ID() string           { return s.id }
func (s *stubField) Type() string         { return s.typ }
func (s *stubField) Placeholder() string  { return s.placeholder }
func (s *stubField) Value() string        { return s.value }
func (s *stubField) Label() string        { return s.label }
func (s *stubField) Autocomplete() string { return s.autocomplete }
func (s *stubField) Disabled() bool       { return s.disabled }
func (s *stubField) ReadOnly() bool       { return s.readonly }

func (s *stubField) SetValue(value string, opts FillOptions) {
	s.setCalls = append(s.setCalls, value)
	s.value = value
	s.lastOpts = opts
}

type stubDoc struct {
	fields []Candidate
}

func (d stubDoc) Fields() []Candidate { return d.fields }

func fullValues() FlatValues {
	return FlatValues{
		"fullName":        "Jane Doe",
		"email":           "jane@example.com",
		"phone":           "555-0100",
		"addressLine1":    "1 Main St",
		"city":            "Austin",
		"state":           "TX",
		"zipCode":         "78701",
		"country":         "United States",
		"currentEmployer": "Acme Corp",
		"jobTitle":        "Engineer",
		"workEmail":       "jane@acme.example.com",
		"schoolName":      "State University",
		"degree":          "BSc",
	}
}

func TestMatchConfidenceTable(t *testing.T) {
	vals := fullValues()
	cases := []struct {
		desc       string
		field      stubField
		key        string
		confidence int
		matchedBy  string
	}{
		{"autocomplete beats everything", stubField{autocomplete: "email", name: "contact_info"}, "email", ConfidenceAutocomplete, "autocomplete"},
		{"name exact", stubField{name: "email"}, "email", ConfidenceNameExact, "name"},
		{"id exact", stubField{id: "email"}, "email", ConfidenceIDExact, "id"},
		{"input type", stubField{typ: "email"}, "email", ConfidenceType, "type"},
		{"name partial", stubField{name: "work_email_address"}, "email", ConfidenceNamePartial, "name"},
		{"id partial", stubField{id: "the_email_field"}, "email", ConfidenceIDPartial, "id"},
		{"label exact", stubField{label: "email address"}, "email", ConfidenceLabelExact, "label"},
		{"placeholder exact", stubField{placeholder: "your email"}, "email", ConfidencePlaceholderExact, "placeholder"},
		{"label partial", stubField{label: "enter your email address here"}, "email", ConfidenceLabelPartial, "label"},
		{"placeholder partial", stubField{placeholder: "please type your email here"}, "email", ConfidencePlaceholderPartial, "placeholder"},
	}

	for _, tc := range cases {
		field := tc.field
		match, ok := MatchField(&field, vals, 0)
		if !ok {
			t.Errorf("%s: no match", tc.desc)
			continue
		}
		if match.FieldKey != tc.key {
			t.Errorf("%s: matched key %s, want %s", tc.desc, match.FieldKey, tc.key)
		}
		if match.Confidence != tc.confidence {
			t.Errorf("%s: confidence %d, want %d", tc.desc, match.Confidence, tc.confidence)
		}
		if match.MatchedBy != tc.matchedBy {
			t.Errorf("%s: matchedBy %s, want %s", tc.desc, match.MatchedBy, tc.matchedBy)
		}
	}
}

func TestWorkEmailOutranksEmailOnName(t *testing.T) {
	field := &stubField{name: "work_email"}
	match, ok := MatchField(field, fullValues(), 0)
	if !ok {
		t.Fatal("no match")
	}
	// "work_email" is an exact name token for workEmail (95) and only a
	// partial for email (80).
	if match.FieldKey != "workEmail" {
		t.Fatalf("matched %s, want workEmail", match.FieldKey)
	}
	if match.Confidence != ConfidenceNameExact {
		t.Fatalf("confidence %d, want %d", match.Confidence, ConfidenceNameExact)
	}
}

func TestTieGoesToFirstCatalogEntry(t *testing.T) {
	// The name contains both full_name and first_name tokens, a partial
	// match at 80 for each pattern. Replacement requires a strictly greater
	// score, so the earlier catalog entry keeps the match.
	field := &stubField{name: "full_name_or_first_name"}
	match, ok := MatchField(field, fullValues(), 0)
	if !ok {
		t.Fatal("no match")
	}
	if match.FieldKey != "fullName" {
		t.Fatalf("matched %s, want fullName (first catalog entry wins ties)", match.FieldKey)
	}
	if match.Confidence != ConfidenceNamePartial {
		t.Fatalf("confidence %d, want %d", match.Confidence, ConfidenceNamePartial)
	}
}

func TestEmptyProfileValueNeverMatches(t *testing.T) {
	vals := FlatValues{"email": ""}
	field := &stubField{name: "email"}
	if _, ok := MatchField(field, vals, 0); ok {
		t.Fatal("field with empty resolved value must not match")
	}
}

func TestMinConfidenceFloor(t *testing.T) {
	field := &stubField{placeholder: "please type your email here"}
	if _, ok := MatchField(field, fullValues(), 50); ok {
		t.Fatal("placeholder partial (45) should be filtered by a floor of 50")
	}
	if _, ok := MatchField(field, fullValues(), 45); !ok {
		t.Fatal("placeholder partial (45) should pass a floor of 45")
	}
}

func TestDebugFieldMatchListsAllMatchesSorted(t *testing.T) {
	field := &stubField{name: "email", typ: "email", autocomplete: "email"}
	report := DebugFieldMatch(field, fullValues())

	if len(report.Matches) == 0 {
		t.Fatal("expected matches")
	}
	for i := 1; i < len(report.Matches); i++ {
		if report.Matches[i].Confidence > report.Matches[i-1].Confidence {
			t.Fatal("matches are not sorted by descending confidence")
		}
	}
	if report.Matches[0].Confidence != ConfidenceAutocomplete {
		t.Fatalf("top match confidence %d, want %d", report.Matches[0].Confidence, ConfidenceAutocomplete)
	}
	if report.IsBlocked {
		t.Fatal("email field must not be blocked")
	}
}
