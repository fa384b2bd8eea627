// Package service orchestrates autofill flows over the repository and the
// decision engine: parsing submitted HTML, running fill or analysis passes,
// and mediating profile, settings, and entry mutations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/engine"
	"github.com/priyanka/formpilot/backend/internal/htmlform"
	"github.com/priyanka/formpilot/backend/internal/repository"
)

// ProfileRepo is the persistence contract required by the autofill service.
type ProfileRepo interface {
	GetProfile(ctx context.Context) (*domain.Profile, error)
	SaveProfile(ctx context.Context, profile *domain.Profile) error
	UpdateField(ctx context.Context, fieldPath, value string) (*domain.Profile, error)
	UpdateFieldPolicy(ctx context.Context, fieldPath string, policy domain.AutofillPolicy) (*domain.Profile, error)
	GetSettings(ctx context.Context) (repository.Settings, error)
	SaveSettings(ctx context.Context, patch repository.SettingsPatch) (repository.Settings, error)
	ExportProfile(ctx context.Context) (string, error)
	ImportProfile(ctx context.Context, jsonBlob string) (*domain.Profile, error)
	GetSelectedFormTypes(ctx context.Context) ([]domain.FormType, error)
	ToggleFormType(ctx context.Context, formType domain.FormType) ([]domain.FormType, bool, error)
}

// AutofillService coordinates the engine, the HTML adapter, and persistence.
type AutofillService struct {
	repo ProfileRepo
}

// NewAutofillService constructs an AutofillService over the given repository.
func NewAutofillService(repo ProfileRepo) *AutofillService {
	return &AutofillService{repo: repo}
}

// FillParams configures one fill pass over a submitted HTML document.
type FillParams struct {
	HTML string
	// UserInitiated marks the pass as an explicit user action, which fields
	// with the on_click policy require.
	UserInitiated bool
	// EntryIndex selects a specific multi-entry collection entry for value
	// resolution; -1 uses the primary entry.
	EntryIndex int
}

// FillOutcome is a fill pass result together with the filled-in document.
type FillOutcome struct {
	Result engine.Result `json:"result"`
	HTML   string        `json:"html"`
}

// entryScopedValues is a ValueSource pinned to one multi-entry index.
type entryScopedValues struct {
	vals  engine.ProfileValues
	index int
}

func (e entryScopedValues) Resolve(key string) engine.Resolved {
	return e.vals.ResolveAt(key, e.index)
}

func (e entryScopedValues) HasAnyValue() bool { return e.vals.HasAnyValue() }

// Fill parses the submitted HTML, runs one autofill pass against the stored
// profile using stored settings, and returns the outcome with the document
// rendered back out including filled values.
func (s *AutofillService) Fill(ctx context.Context, params FillParams) (FillOutcome, error) {
	doc, err := htmlform.ParseString(params.HTML)
	if err != nil {
		return FillOutcome{}, err
	}

	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return FillOutcome{}, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return FillOutcome{}, err
	}

	var vals engine.ValueSource = engine.NewProfileValues(profile)
	if params.EntryIndex >= 0 {
		vals = entryScopedValues{vals: engine.NewProfileValues(profile), index: params.EntryIndex}
	}

	result := engine.Autofill(doc, vals, settings.EngineSettings(params.UserInitiated))

	var rendered strings.Builder
	if err := doc.Render(&rendered); err != nil {
		return FillOutcome{}, err
	}
	return FillOutcome{Result: result, HTML: rendered.String()}, nil
}

// Analyze parses the submitted HTML and reports which fields would be
// filled, which would not, and which are security-blocked. Nothing is
// mutated.
func (s *AutofillService) Analyze(ctx context.Context, htmlSrc string) (engine.Analysis, error) {
	doc, err := htmlform.ParseString(htmlSrc)
	if err != nil {
		return engine.Analysis{}, err
	}
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return engine.Analysis{}, err
	}
	settings, err := s.repo.GetSettings(ctx)
	if err != nil {
		return engine.Analysis{}, err
	}
	return engine.AnalyzeForm(doc, engine.NewProfileValues(profile), settings.ConfidenceThreshold), nil
}

// MatchReport returns the full per-field match diagnostics for the submitted
// HTML, including matches below the confidence threshold.
func (s *AutofillService) MatchReport(ctx context.Context, htmlSrc string) ([]engine.DebugReport, error) {
	doc, err := htmlform.ParseString(htmlSrc)
	if err != nil {
		return nil, err
	}
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	vals := engine.NewProfileValues(profile)
	reports := make([]engine.DebugReport, 0, len(doc.Fields()))
	for _, field := range doc.Fields() {
		reports = append(reports, engine.DebugFieldMatch(field, vals))
	}
	return reports, nil
}

// Profile returns the stored profile, migrating legacy records on read.
func (s *AutofillService) Profile(ctx context.Context) (*domain.Profile, error) {
	return s.repo.GetProfile(ctx)
}

// UpdateField normalizes and stores a single field value.
func (s *AutofillService) UpdateField(ctx context.Context, fieldPath, value string) (*domain.Profile, error) {
	return s.repo.UpdateField(ctx, fieldPath, normalizeFieldValue(fieldPath, value))
}

var validPolicies = map[domain.AutofillPolicy]struct{}{
	domain.PolicyNever:   {},
	domain.PolicyConfirm: {},
	domain.PolicyOnClick: {},
	domain.PolicyBulkOK:  {},
}

// UpdateFieldPolicy overrides a field's autofill policy.
func (s *AutofillService) UpdateFieldPolicy(ctx context.Context, fieldPath string, policy domain.AutofillPolicy) (*domain.Profile, error) {
	if _, ok := validPolicies[policy]; !ok {
		return nil, fmt.Errorf("unknown autofill policy %q", policy)
	}
	return s.repo.UpdateFieldPolicy(ctx, fieldPath, policy)
}

// Settings returns the stored settings merged over defaults.
func (s *AutofillService) Settings(ctx context.Context) (repository.Settings, error) {
	return s.repo.GetSettings(ctx)
}

// UpdateSettings applies a partial settings update and returns the result.
func (s *AutofillService) UpdateSettings(ctx context.Context, patch repository.SettingsPatch) (repository.Settings, error) {
	return s.repo.SaveSettings(ctx, patch)
}

// Completion computes profile completion, optionally against the required
// fields of one form type.
func (s *AutofillService) Completion(ctx context.Context, formType domain.FormType) (domain.CompletionResult, error) {
	if formType != "" {
		if _, ok := domain.FormTypeRequirements[formType]; !ok {
			return domain.CompletionResult{}, fmt.Errorf("unknown form type %q", formType)
		}
	}
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return domain.CompletionResult{}, err
	}
	return domain.CalculateCompletion(profile, formType), nil
}

// Export serializes the stored profile as indented JSON.
func (s *AutofillService) Export(ctx context.Context) (string, error) {
	return s.repo.ExportProfile(ctx)
}

// Import validates and persists a profile from an external JSON blob.
func (s *AutofillService) Import(ctx context.Context, jsonBlob string) (*domain.Profile, error) {
	return s.repo.ImportProfile(ctx, jsonBlob)
}

// SelectedFormTypes returns the persisted form-type selection.
func (s *AutofillService) SelectedFormTypes(ctx context.Context) ([]domain.FormType, error) {
	return s.repo.GetSelectedFormTypes(ctx)
}

// ToggleFormType flips one form type in the selection and reports whether it
// is selected afterwards.
func (s *AutofillService) ToggleFormType(ctx context.Context, formType domain.FormType) ([]domain.FormType, bool, error) {
	if _, ok := domain.FormTypeRequirements[formType]; !ok {
		return nil, false, fmt.Errorf("unknown form type %q", formType)
	}
	return s.repo.ToggleFormType(ctx, formType)
}

// EntryCollection names one of the multi-entry collections.
type EntryCollection string

const (
	CollectionAddresses   EntryCollection = "addresses"
	CollectionEmployments EntryCollection = "employments"
	CollectionEducations  EntryCollection = "educations"
)

// AddEntry appends a blank entry to the named collection and persists the
// profile. The new entry's ID is returned.
func (s *AutofillService) AddEntry(ctx context.Context, collection EntryCollection) (*domain.Profile, string, error) {
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return nil, "", err
	}

	var id string
	switch collection {
	case CollectionAddresses:
		id = profile.AddAddress().ID
	case CollectionEmployments:
		id = profile.AddEmployment().ID
	case CollectionEducations:
		id = profile.AddEducation().ID
	default:
		return nil, "", fmt.Errorf("unknown entry collection %q", collection)
	}

	profile.SyncLegacyModules()
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, "", err
	}
	return profile, id, nil
}

// RemoveEntry removes the entry at index from the named collection. Removal
// that would empty a collection is rejected.
func (s *AutofillService) RemoveEntry(ctx context.Context, collection EntryCollection, index int) (*domain.Profile, error) {
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	var ok bool
	switch collection {
	case CollectionAddresses:
		ok = profile.RemoveAddress(index)
	case CollectionEmployments:
		ok = profile.RemoveEmployment(index)
	case CollectionEducations:
		ok = profile.RemoveEducation(index)
	default:
		return nil, fmt.Errorf("unknown entry collection %q", collection)
	}
	if !ok {
		return nil, fmt.Errorf("cannot remove entry %d from %s", index, collection)
	}

	profile.SyncLegacyModules()
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// SetPrimaryEntry marks the entry at index primary in the named collection.
func (s *AutofillService) SetPrimaryEntry(ctx context.Context, collection EntryCollection, index int) (*domain.Profile, error) {
	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	var ok bool
	switch collection {
	case CollectionAddresses:
		ok = profile.SetPrimaryAddress(index)
	case CollectionEmployments:
		ok = profile.SetPrimaryEmployment(index)
	case CollectionEducations:
		ok = profile.SetPrimaryEducation(index)
	default:
		return nil, fmt.Errorf("unknown entry collection %q", collection)
	}
	if !ok {
		return nil, fmt.Errorf("no entry %d in %s", index, collection)
	}

	profile.SyncLegacyModules()
	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// RelabelEntry replaces the display label of the entry at index.
func (s *AutofillService) RelabelEntry(ctx context.Context, collection EntryCollection, index int, label string) (*domain.Profile, error) {
	label = sanitizeString(label)
	if label == "" {
		return nil, fmt.Errorf("entry label must not be empty")
	}

	profile, err := s.repo.GetProfile(ctx)
	if err != nil {
		return nil, err
	}

	var ok bool
	switch collection {
	case CollectionAddresses:
		ok = profile.RelabelAddress(index, label)
	case CollectionEmployments:
		ok = profile.RelabelEmployment(index, label)
	case CollectionEducations:
		ok = profile.RelabelEducation(index, label)
	default:
		return nil, fmt.Errorf("unknown entry collection %q", collection)
	}
	if !ok {
		return nil, fmt.Errorf("no entry %d in %s", index, collection)
	}

	if err := s.repo.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}
