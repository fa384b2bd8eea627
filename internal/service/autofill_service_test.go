package service

import (
	"context"
	"strings"
	"testing"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/repository"
	"github.com/priyanka/formpilot/backend/internal/store"
)

func newTestService(t *testing.T) (*AutofillService, *repository.ProfileRepository) {
	t.Helper()
	repo := repository.New(store.NewMemoryStore())
	return NewAutofillService(repo), repo
}

const demoForm = `<html><body><form>
<input type="text" name="first_name">
<input type="email" name="email">
<input type="password" name="password">
</form></body></html>`

func TestFillEndToEnd(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.UpdateField(ctx, "personal.firstName", "Jane"); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.UpdateField(ctx, "contact.email", "jane@example.com"); err != nil {
		t.Fatal(err)
	}

	outcome, err := svc.Fill(ctx, FillParams{HTML: demoForm, UserInitiated: true, EntryIndex: -1})
	if err != nil {
		t.Fatalf("fill failed: %v", err)
	}
	if len(outcome.Result.FilledFields) != 2 {
		t.Fatalf("expected 2 fills, got %+v", outcome.Result)
	}
	if !strings.Contains(outcome.HTML, `value="Jane"`) {
		t.Fatal("rendered HTML does not carry the filled value")
	}
	if strings.Contains(outcome.HTML, `name="password" value=`) {
		t.Fatal("password field must never be written")
	}
}

func TestFillEmptyProfile(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	outcome, err := svc.Fill(ctx, FillParams{HTML: demoForm, UserInitiated: true, EntryIndex: -1})
	if err != nil {
		t.Fatal(err)
	}
	if outcome.Result.Success {
		t.Fatal("fill against an empty profile must not succeed")
	}
	if outcome.Result.Message != "No profile data. Configure in Settings." {
		t.Fatalf("unexpected message %q", outcome.Result.Message)
	}
}

func TestFillAgainstSpecificEntry(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService(t)

	profile, err := repo.GetProfile(ctx)
	if err != nil {
		t.Fatal(err)
	}
	home := profile.AddAddress()
	home.City = "Austin"
	work := profile.AddAddress()
	work.City = "Denver"
	if err := repo.SaveProfile(ctx, profile); err != nil {
		t.Fatal(err)
	}

	form := `<input type="text" name="city">`
	outcome, err := svc.Fill(ctx, FillParams{HTML: form, UserInitiated: true, EntryIndex: 1})
	if err != nil {
		t.Fatal(err)
	}
	if len(outcome.Result.FilledFields) != 1 || outcome.Result.FilledFields[0].Value != "Denver" {
		t.Fatalf("expected a Denver fill from entry 1, got %+v", outcome.Result)
	}
}

func TestAnalyzePartitionsFields(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)
	if _, err := svc.UpdateField(ctx, "contact.email", "jane@example.com"); err != nil {
		t.Fatal(err)
	}

	analysis, err := svc.Analyze(ctx, demoForm)
	if err != nil {
		t.Fatal(err)
	}
	if len(analysis.MatchedFields) != 1 {
		t.Fatalf("expected 1 matched field, got %+v", analysis)
	}
	if len(analysis.BlockedFields) != 1 {
		t.Fatalf("expected 1 blocked field, got %+v", analysis)
	}
}

func TestUpdateFieldNormalizes(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	profile, err := svc.UpdateField(ctx, "contact.email", "  Jane@Example.COM ")
	if err != nil {
		t.Fatal(err)
	}
	meta, _ := profile.Field("contact.email")
	if meta.Value != "jane@example.com" {
		t.Fatalf("email not normalized: %q", meta.Value)
	}

	profile, err = svc.UpdateField(ctx, "personal.firstName", "  Jane   Marie ")
	if err != nil {
		t.Fatal(err)
	}
	meta, _ = profile.Field("personal.firstName")
	if meta.Value != "Jane Marie" {
		t.Fatalf("whitespace not collapsed: %q", meta.Value)
	}
}

func TestUpdateFieldPolicyValidation(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.UpdateFieldPolicy(ctx, "contact.email", "sometimes"); err == nil {
		t.Fatal("unknown policy should be rejected")
	}
	if _, err := svc.UpdateFieldPolicy(ctx, "contact.email", domain.PolicyNever); err != nil {
		t.Fatalf("valid policy rejected: %v", err)
	}
}

func TestAddRemoveEntries(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	profile, id, err := svc.AddEntry(ctx, CollectionAddresses)
	if err != nil {
		t.Fatal(err)
	}
	if id == "" || len(profile.Addresses) != 1 {
		t.Fatalf("add entry: id=%q entries=%d", id, len(profile.Addresses))
	}

	if _, err := svc.RemoveEntry(ctx, CollectionAddresses, 0); err == nil {
		t.Fatal("removing the last entry should be rejected")
	}

	if _, _, err := svc.AddEntry(ctx, "wallets"); err == nil {
		t.Fatal("unknown collection should be rejected")
	}
}

func TestCompletionValidatesFormType(t *testing.T) {
	ctx := context.Background()
	svc, _ := newTestService(t)

	if _, err := svc.Completion(ctx, "tax_return"); err == nil {
		t.Fatal("unknown form type should be rejected")
	}

	result, err := svc.Completion(ctx, "")
	if err != nil {
		t.Fatal(err)
	}
	if result.OverallPercent != 0 {
		t.Fatalf("fresh profile completion = %d%%", result.OverallPercent)
	}
}
