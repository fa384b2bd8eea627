package htmlform

import (
	"strings"
	"testing"

	"github.com/priyanka/formpilot/backend/internal/engine"
)

func TestParseCollectsControlsInDocumentOrder(t *testing.T) {
	doc, err := ParseString(`<html><body><form>
		<input type="text" name="first_name" id="fn" placeholder="First Name">
		<input type="email" name="email" autocomplete="EMAIL" disabled>
		<textarea name="bio">  hello  </textarea>
	</form></body></html>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	fields := doc.Fields()
	if len(fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(fields))
	}

	first := fields[0]
	if first.TagName() != "input" || first.Name() != "first_name" || first.ID() != "fn" {
		t.Fatalf("unexpected first field: tag=%s name=%s id=%s", first.TagName(), first.Name(), first.ID())
	}
	if first.Placeholder() != "First Name" {
		t.Fatalf("placeholder = %q", first.Placeholder())
	}

	second := fields[1]
	if !second.Disabled() {
		t.Fatal("disabled attribute not detected")
	}
	if second.Autocomplete() != "email" {
		t.Fatalf("autocomplete should be lowercased, got %q", second.Autocomplete())
	}

	third := fields[2]
	if third.TagName() != "textarea" || third.Type() != "" {
		t.Fatalf("textarea type must be empty, got %q", third.Type())
	}
	if third.Value() != "hello" {
		t.Fatalf("textarea value = %q", third.Value())
	}
}

func TestLabelResolution(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<label for="email">Email Address</label>
		<input type="email" id="email" name="email">

		<label>Phone <span>Number</span> <input type="tel" name="phone"></label>

		<input type="text" name="city" aria-label="City">

		<span id="st1">State</span> <span id="st2">or Province</span>
		<input type="text" name="state" aria-labelledby="st1 st2">
	</body></html>`)
	if err != nil {
		t.Fatalf("parse failed: %v", err)
	}

	fields := doc.Fields()
	want := []string{"Email Address", "Phone Number", "City", "State or Province"}
	for i, label := range want {
		if got := fields[i].Label(); got != label {
			t.Errorf("field %d label = %q, want %q", i, got, label)
		}
	}
}

func TestPrecedingTextFallback(t *testing.T) {
	doc, err := ParseString(`<html><body><form>
		Full Name: <input type="text" name="fn">
		<b>Email:</b> <input type="text" name="em">
		<input type="text" name="after">
	</form></body></html>`)
	if err != nil {
		t.Fatal(err)
	}

	fields := doc.Fields()
	if got := fields[0].Label(); got != "Full Name" {
		t.Errorf("text sibling label = %q, want %q", got, "Full Name")
	}
	if got := fields[1].Label(); got != "Email" {
		t.Errorf("element sibling label = %q, want %q", got, "Email")
	}
	// The scan must stop at the previous control instead of borrowing its label.
	if got := fields[2].Label(); got != "" {
		t.Errorf("field after a control label = %q, want empty", got)
	}
}

func TestLabelForWinsOverEnclosing(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<label for="x">Outer Label</label>
		<label>Enclosing <input type="text" id="x" name="x"></label>
	</body></html>`)
	if err != nil {
		t.Fatal(err)
	}
	if got := doc.Fields()[0].Label(); got != "Outer Label" {
		t.Fatalf("label = %q, want the for-targeted label", got)
	}
}

func TestSetValueMutatesRenderedDocument(t *testing.T) {
	doc, err := ParseString(`<html><body><form>
		<input type="text" name="first_name">
		<textarea name="notes">old</textarea>
	</form></body></html>`)
	if err != nil {
		t.Fatal(err)
	}

	opts := engine.FillOptions{DispatchEvents: true, Highlight: true}
	doc.Fields()[0].SetValue("Jane", opts)
	doc.Fields()[1].SetValue("new notes", opts)

	if got := doc.Fields()[0].Value(); got != "Jane" {
		t.Fatalf("input value = %q", got)
	}
	if got := doc.Fields()[1].Value(); got != "new notes" {
		t.Fatalf("textarea value = %q", got)
	}

	var rendered strings.Builder
	if err := doc.Render(&rendered); err != nil {
		t.Fatalf("render failed: %v", err)
	}
	out := rendered.String()
	if !strings.Contains(out, `value="Jane"`) {
		t.Fatalf("rendered output missing filled input value:\n%s", out)
	}
	if !strings.Contains(out, ">new notes</textarea>") {
		t.Fatalf("rendered output missing filled textarea value:\n%s", out)
	}
}

func TestFillRecordsEvents(t *testing.T) {
	doc, err := ParseString(`<input type="text" name="first_name">`)
	if err != nil {
		t.Fatal(err)
	}

	field := doc.Fields()[0].(interface {
		engine.Candidate
		Filled() bool
		DispatchedEvents() []string
	})

	field.SetValue("Jane", engine.FillOptions{DispatchEvents: true})
	if !field.Filled() {
		t.Fatal("Filled() should report true after SetValue")
	}
	events := field.DispatchedEvents()
	if len(events) != 3 || events[0] != "input" || events[1] != "change" || events[2] != "blur" {
		t.Fatalf("unexpected events: %v", events)
	}
}

func TestEndToEndAutofillOverParsedForm(t *testing.T) {
	doc, err := ParseString(`<html><body><form>
		<label for="fn">First Name</label><input type="text" id="fn" name="first_name">
		<input type="email" name="email">
		<input type="password" name="password">
	</form></body></html>`)
	if err != nil {
		t.Fatal(err)
	}

	vals := engine.FlatValues{"fullName": "Jane Doe", "email": "jane@example.com"}
	settings := engine.DefaultSettings()
	settings.UserInitiated = true

	result := engine.Autofill(doc, vals, settings)
	if len(result.FilledFields) != 2 {
		t.Fatalf("expected 2 fills, got %+v", result)
	}
	for _, skipped := range result.SkippedFields {
		if skipped.Identifier == `name="password"` && skipped.Reason != engine.SkipBlockedField {
			t.Fatalf("password skip reason = %s", skipped.Reason)
		}
	}
}
