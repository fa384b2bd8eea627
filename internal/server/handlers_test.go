package server

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/engine"
	"github.com/priyanka/formpilot/backend/internal/repository"
	"github.com/priyanka/formpilot/backend/internal/service"
	"github.com/priyanka/formpilot/backend/internal/store"
)

func newTestHandlers(t *testing.T) (*APIHandlers, *repository.ProfileRepository) {
	t.Helper()
	repo := repository.New(store.NewMemoryStore())
	svc := service.NewAutofillService(repo)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAPIHandlers(logger, svc), repo
}

func TestHandleProfileReturnsFreshProfile(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/profile", nil)
	rec := httptest.NewRecorder()
	handlers.handleProfile(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if profile.Version != domain.CurrentProfileVersion {
		t.Fatalf("version = %d, want %d", profile.Version, domain.CurrentProfileVersion)
	}
}

func TestHandleProfileFieldUpdate(t *testing.T) {
	handlers, repo := newTestHandlers(t)

	body := strings.NewReader(`{"fieldPath":"contact.email","value":"jane@example.com"}`)
	req := httptest.NewRequest(http.MethodPost, "/profile/field", body)
	rec := httptest.NewRecorder()
	handlers.handleProfileField(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	profile, err := repo.GetProfile(req.Context())
	if err != nil {
		t.Fatal(err)
	}
	meta, _ := profile.Field("contact.email")
	if meta.Value != "jane@example.com" {
		t.Fatalf("value not persisted: %q", meta.Value)
	}
}

func TestHandleProfileFieldRejectsUnknownPath(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	body := strings.NewReader(`{"fieldPath":"contact.fax","value":"x"}`)
	req := httptest.NewRequest(http.MethodPost, "/profile/field", body)
	rec := httptest.NewRecorder()
	handlers.handleProfileField(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleAutofill(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	if _, err := repo.UpdateField(context.Background(), "contact.email", "jane@example.com"); err != nil {
		t.Fatal(err)
	}

	payload := map[string]any{
		"html":          `<input type="email" name="email">`,
		"userInitiated": true,
	}
	raw, _ := json.Marshal(payload)
	req := httptest.NewRequest(http.MethodPost, "/autofill", strings.NewReader(string(raw)))
	rec := httptest.NewRecorder()
	handlers.handleAutofill(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var outcome service.FillOutcome
	if err := json.Unmarshal(rec.Body.Bytes(), &outcome); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if !outcome.Result.Success || len(outcome.Result.FilledFields) != 1 {
		t.Fatalf("unexpected result: %+v", outcome.Result)
	}
	if !strings.Contains(outcome.HTML, `value="jane@example.com"`) {
		t.Fatal("rendered HTML missing filled value")
	}
}

func TestHandleAnalyzeBlocksCredentialFields(t *testing.T) {
	handlers, repo := newTestHandlers(t)
	if _, err := repo.UpdateField(context.Background(), "contact.email", "jane@example.com"); err != nil {
		t.Fatal(err)
	}

	payload := `{"html":"<input type=\"email\" name=\"email\"><input type=\"password\" name=\"password\">"}`
	req := httptest.NewRequest(http.MethodPost, "/analyze", strings.NewReader(payload))
	rec := httptest.NewRecorder()
	handlers.handleAnalyze(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var analysis engine.Analysis
	if err := json.Unmarshal(rec.Body.Bytes(), &analysis); err != nil {
		t.Fatal(err)
	}
	if len(analysis.BlockedFields) != 1 {
		t.Fatalf("expected 1 blocked field, got %+v", analysis)
	}
	if len(analysis.MatchedFields) != 1 {
		t.Fatalf("expected 1 matched field, got %+v", analysis)
	}
}

func TestHandleImportRejectsBadVersion(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	body := strings.NewReader(`{"profile":{"version":99}}`)
	req := httptest.NewRequest(http.MethodPost, "/profile/import", body)
	rec := httptest.NewRecorder()
	handlers.handleImport(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestHandleSettingsPatch(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	body := strings.NewReader(`{"confidenceThreshold":75}`)
	req := httptest.NewRequest(http.MethodPatch, "/settings", body)
	rec := httptest.NewRecorder()
	handlers.handleSettings(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var settings repository.Settings
	if err := json.Unmarshal(rec.Body.Bytes(), &settings); err != nil {
		t.Fatal(err)
	}
	if settings.ConfidenceThreshold != 75 {
		t.Fatalf("threshold = %d, want 75", settings.ConfidenceThreshold)
	}
	if !settings.Enabled {
		t.Fatal("unpatched fields should keep their defaults")
	}
}

func TestHandleEntriesLifecycle(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	add := httptest.NewRequest(http.MethodPost, "/profile/entries/addresses", nil)
	rec := httptest.NewRecorder()
	handlers.handleEntries(rec, add)
	if rec.Code != http.StatusCreated {
		t.Fatalf("add: expected status 201, got %d: %s", rec.Code, rec.Body.String())
	}

	var created entryResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &created); err != nil {
		t.Fatal(err)
	}
	if created.EntryID == "" || len(created.Profile.Addresses) != 1 {
		t.Fatalf("unexpected add response: %+v", created)
	}

	// A second entry, then promote it.
	rec = httptest.NewRecorder()
	handlers.handleEntries(rec, httptest.NewRequest(http.MethodPost, "/profile/entries/addresses", nil))
	if rec.Code != http.StatusCreated {
		t.Fatalf("second add failed: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handlers.handleEntries(rec, httptest.NewRequest(http.MethodPost, "/profile/entries/addresses/1/primary", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("primary: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var profile domain.Profile
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if !profile.Addresses[1].IsPrimary || profile.Addresses[0].IsPrimary {
		t.Fatalf("primary flags wrong: %+v", profile.Addresses)
	}

	relabel := httptest.NewRequest(http.MethodPost, "/profile/entries/addresses/1/label",
		strings.NewReader(`{"label":"Office"}`))
	rec = httptest.NewRecorder()
	handlers.handleEntries(rec, relabel)
	if rec.Code != http.StatusOK {
		t.Fatalf("relabel: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &profile); err != nil {
		t.Fatal(err)
	}
	if profile.Addresses[1].Label != "Office" {
		t.Fatalf("label = %q, want %q", profile.Addresses[1].Label, "Office")
	}

	rec = httptest.NewRecorder()
	handlers.handleEntries(rec, httptest.NewRequest(http.MethodDelete, "/profile/entries/addresses/1", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("remove: expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	handlers.handleEntries(rec, httptest.NewRequest(http.MethodDelete, "/profile/entries/addresses/0", nil))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("removing the last entry should 400, got %d", rec.Code)
	}
}

func TestHandleCompletionUnknownFormType(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodGet, "/completion?formType=tax_return", nil)
	rec := httptest.NewRecorder()
	handlers.handleCompletion(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected status 400, got %d", rec.Code)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	handlers, _ := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodDelete, "/profile", nil)
	rec := httptest.NewRecorder()
	handlers.handleProfile(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
	if allow := rec.Header().Get("Allow"); allow != http.MethodGet {
		t.Fatalf("Allow header = %q", allow)
	}
}
