// Package repository implements versioned persistence for profiles and
// settings on top of the store contract, including migration of legacy
// unversioned records on read.
package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/priyanka/formpilot/backend/internal/domain"
	"github.com/priyanka/formpilot/backend/internal/engine"
	"github.com/priyanka/formpilot/backend/internal/store"
)

// Storage keys. The bare enabled key predates the settings record and is
// kept in sync for consumers that only read it.
const (
	keyProfile           = "profile"
	keyProfileVersion    = "profileVersion"
	keySettings          = "settings"
	keyEnabled           = "enabled"
	keySelectedFormTypes = "selectedFormTypes"
)

// ErrBadVersion indicates a profile record whose version this code does not
// understand. The stored profile is left unmodified.
var ErrBadVersion = errors.New("repository: missing or unsupported profile version")

// Settings is the persisted autofill configuration.
type Settings struct {
	Enabled             bool `json:"enabled"`
	ConfidenceThreshold int  `json:"confidenceThreshold"`
	HighlightFilled     bool `json:"highlightFilled"`
	HighlightDurationMs int  `json:"highlightDurationMs"`
	DispatchEvents      bool `json:"dispatchEvents"`
	SkipFilledFields    bool `json:"skipFilledFields"`
	AutoDetectForms     bool `json:"autoDetectForms"`
	ShowFieldBadge      bool `json:"showFieldBadge"`
}

// DefaultSettings are the settings assumed when none are stored.
func DefaultSettings() Settings {
	return Settings{
		Enabled:             true,
		ConfidenceThreshold: 50,
		HighlightFilled:     true,
		HighlightDurationMs: 2000,
		DispatchEvents:      true,
		SkipFilledFields:    true,
		AutoDetectForms:     true,
		ShowFieldBadge:      true,
	}
}

// EngineSettings converts stored settings into one orchestration pass's
// configuration.
func (s Settings) EngineSettings(userInitiated bool) engine.Settings {
	return engine.Settings{
		Enabled:             s.Enabled,
		ConfidenceThreshold: s.ConfidenceThreshold,
		HighlightFilled:     s.HighlightFilled,
		HighlightDuration:   time.Duration(s.HighlightDurationMs) * time.Millisecond,
		DispatchEvents:      s.DispatchEvents,
		SkipFilledFields:    s.SkipFilledFields,
		UserInitiated:       userInitiated,
	}
}

// SettingsPatch is a partial settings update; nil fields are left unchanged.
type SettingsPatch struct {
	Enabled             *bool `json:"enabled,omitempty"`
	ConfidenceThreshold *int  `json:"confidenceThreshold,omitempty"`
	HighlightFilled     *bool `json:"highlightFilled,omitempty"`
	HighlightDurationMs *int  `json:"highlightDurationMs,omitempty"`
	DispatchEvents      *bool `json:"dispatchEvents,omitempty"`
	SkipFilledFields    *bool `json:"skipFilledFields,omitempty"`
	AutoDetectForms     *bool `json:"autoDetectForms,omitempty"`
	ShowFieldBadge      *bool `json:"showFieldBadge,omitempty"`
}

// ProfileRepository mediates all profile and settings persistence. It does
// not serialize concurrent read-modify-write sequences; the later write
// wins. Callers needing cross-context consistency must funnel writes
// through a single owner.
type ProfileRepository struct {
	store store.Store
	nowFn func() time.Time
}

// New constructs a ProfileRepository over the given store.
func New(s store.Store) *ProfileRepository {
	return &ProfileRepository{store: s, nowFn: time.Now}
}

// WithClock overrides the time provider (used primarily in tests).
func (r *ProfileRepository) WithClock(nowFn func() time.Time) {
	if nowFn != nil {
		r.nowFn = nowFn
	}
}

// legacyProfile is the flat, unversioned record format that predates the
// structured schema.
type legacyProfile struct {
	FullName     string `json:"fullName"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	AddressLine1 string `json:"addressLine1"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
}

// isLegacyProfile recognizes the legacy format heuristically: flat
// contact-like top-level keys and no version marker.
func isLegacyProfile(raw map[string]json.RawMessage) bool {
	if _, ok := raw["version"]; ok {
		return false
	}
	for _, key := range []string{"fullName", "email", "phone"} {
		if _, ok := raw[key]; ok {
			return true
		}
	}
	return false
}

func (r *ProfileRepository) migrateLegacy(raw []byte) (*domain.Profile, error) {
	var legacy legacyProfile
	if err := json.Unmarshal(raw, &legacy); err != nil {
		return nil, fmt.Errorf("parse legacy profile: %w", err)
	}

	profile := domain.NewEmptyProfile()
	if name := strings.TrimSpace(legacy.FullName); name != "" {
		parts := strings.Fields(name)
		profile.SetField("personal.firstName", parts[0])
		if len(parts) > 1 {
			profile.SetField("personal.lastName", strings.Join(parts[1:], " "))
		}
	}
	if legacy.Email != "" {
		profile.SetField("contact.email", legacy.Email)
	}
	if legacy.Phone != "" {
		profile.SetField("contact.phone", legacy.Phone)
	}
	if legacy.AddressLine1 != "" {
		profile.SetField("address.addressLine1", legacy.AddressLine1)
	}
	if legacy.City != "" {
		profile.SetField("address.city", legacy.City)
	}
	if legacy.State != "" {
		profile.SetField("address.state", legacy.State)
	}
	if legacy.Zip != "" {
		profile.SetField("address.zipCode", legacy.Zip)
	}
	return profile, nil
}

// GetProfile returns the stored profile, migrating legacy records in place.
// Migration persists the upgraded profile together with the current version
// marker, so it runs at most once per stored record. When nothing is stored
// a fresh empty profile is created and persisted.
func (r *ProfileRepository) GetProfile(ctx context.Context) (*domain.Profile, error) {
	rawProfile, err := r.store.Get(ctx, keyProfile)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("read profile: %w", err)
	}

	storedVersion, err := r.storedVersion(ctx)
	if err != nil {
		return nil, err
	}

	if rawProfile == nil {
		profile := domain.NewEmptyProfile()
		if err := r.SaveProfile(ctx, profile); err != nil {
			return nil, err
		}
		return profile, nil
	}

	if storedVersion >= domain.CurrentProfileVersion {
		var profile domain.Profile
		if err := json.Unmarshal(rawProfile, &profile); err != nil {
			return nil, fmt.Errorf("parse stored profile: %w", err)
		}
		if profile.Version > domain.CurrentProfileVersion {
			return nil, ErrBadVersion
		}
		return &profile, nil
	}

	// Missing or old version marker: decide between legacy migration and a
	// structured record that merely lost its marker.
	var rawMap map[string]json.RawMessage
	if err := json.Unmarshal(rawProfile, &rawMap); err != nil {
		return nil, fmt.Errorf("parse stored profile: %w", err)
	}

	var profile *domain.Profile
	if isLegacyProfile(rawMap) {
		profile, err = r.migrateLegacy(rawProfile)
		if err != nil {
			return nil, err
		}
	} else {
		var parsed domain.Profile
		if err := json.Unmarshal(rawProfile, &parsed); err != nil {
			return nil, fmt.Errorf("parse stored profile: %w", err)
		}
		if parsed.Version != domain.CurrentProfileVersion {
			return nil, ErrBadVersion
		}
		profile = &parsed
	}

	if err := r.SaveProfile(ctx, profile); err != nil {
		return nil, fmt.Errorf("persist migrated profile: %w", err)
	}
	return profile, nil
}

func (r *ProfileRepository) storedVersion(ctx context.Context) (int, error) {
	raw, err := r.store.Get(ctx, keyProfileVersion)
	if errors.Is(err, store.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read profile version: %w", err)
	}
	var version int
	if err := json.Unmarshal(raw, &version); err != nil {
		return 0, fmt.Errorf("parse profile version: %w", err)
	}
	return version, nil
}

// SaveProfile stamps UpdatedAt and writes the full profile together with the
// current version marker.
func (r *ProfileRepository) SaveProfile(ctx context.Context, profile *domain.Profile) error {
	profile.Version = domain.CurrentProfileVersion
	profile.UpdatedAt = r.nowFn().UTC()

	rawProfile, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := r.store.Set(ctx, keyProfile, rawProfile); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}

	rawVersion, _ := json.Marshal(domain.CurrentProfileVersion)
	if err := r.store.Set(ctx, keyProfileVersion, rawVersion); err != nil {
		return fmt.Errorf("write profile version: %w", err)
	}
	return nil
}

// UpdateField sets a single field value and persists the whole profile.
func (r *ProfileRepository) UpdateField(ctx context.Context, fieldPath, value string) (*domain.Profile, error) {
	profile, err := r.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !profile.SetField(fieldPath, value) {
		return nil, fmt.Errorf("unknown profile field %q", fieldPath)
	}
	if err := r.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// UpdateFieldPolicy overrides a single field's autofill policy and persists.
func (r *ProfileRepository) UpdateFieldPolicy(ctx context.Context, fieldPath string, policy domain.AutofillPolicy) (*domain.Profile, error) {
	profile, err := r.GetProfile(ctx)
	if err != nil {
		return nil, err
	}
	if !profile.SetFieldPolicy(fieldPath, policy) {
		return nil, fmt.Errorf("unknown profile field %q", fieldPath)
	}
	if err := r.SaveProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetSettings returns stored settings merged over defaults. A legacy bare
// enabled key is honored when no settings record exists.
func (r *ProfileRepository) GetSettings(ctx context.Context) (Settings, error) {
	settings := DefaultSettings()

	raw, err := r.store.Get(ctx, keySettings)
	switch {
	case err == nil:
		if err := json.Unmarshal(raw, &settings); err != nil {
			return Settings{}, fmt.Errorf("parse settings: %w", err)
		}
	case errors.Is(err, store.ErrNotFound):
		if rawEnabled, err := r.store.Get(ctx, keyEnabled); err == nil {
			var enabled bool
			if json.Unmarshal(rawEnabled, &enabled) == nil {
				settings.Enabled = enabled
			}
		}
	default:
		return Settings{}, fmt.Errorf("read settings: %w", err)
	}
	return settings, nil
}

// SaveSettings merges the patch over the current settings and persists the
// result, mirroring the enabled flag into its legacy key.
func (r *ProfileRepository) SaveSettings(ctx context.Context, patch SettingsPatch) (Settings, error) {
	settings, err := r.GetSettings(ctx)
	if err != nil {
		return Settings{}, err
	}

	if patch.Enabled != nil {
		settings.Enabled = *patch.Enabled
	}
	if patch.ConfidenceThreshold != nil {
		settings.ConfidenceThreshold = *patch.ConfidenceThreshold
	}
	if patch.HighlightFilled != nil {
		settings.HighlightFilled = *patch.HighlightFilled
	}
	if patch.HighlightDurationMs != nil {
		settings.HighlightDurationMs = *patch.HighlightDurationMs
	}
	if patch.DispatchEvents != nil {
		settings.DispatchEvents = *patch.DispatchEvents
	}
	if patch.SkipFilledFields != nil {
		settings.SkipFilledFields = *patch.SkipFilledFields
	}
	if patch.AutoDetectForms != nil {
		settings.AutoDetectForms = *patch.AutoDetectForms
	}
	if patch.ShowFieldBadge != nil {
		settings.ShowFieldBadge = *patch.ShowFieldBadge
	}

	raw, err := json.Marshal(settings)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}
	if err := r.store.Set(ctx, keySettings, raw); err != nil {
		return Settings{}, fmt.Errorf("write settings: %w", err)
	}
	rawEnabled, _ := json.Marshal(settings.Enabled)
	if err := r.store.Set(ctx, keyEnabled, rawEnabled); err != nil {
		return Settings{}, fmt.Errorf("write enabled flag: %w", err)
	}
	return settings, nil
}

// ExportProfile serializes the stored profile as indented JSON.
func (r *ProfileRepository) ExportProfile(ctx context.Context) (string, error) {
	profile, err := r.GetProfile(ctx)
	if err != nil {
		return "", err
	}
	raw, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode profile: %w", err)
	}
	return string(raw), nil
}

// ImportProfile validates and persists a profile from an external JSON blob.
// Anything not carrying exactly the current version is rejected and the
// stored profile is left unmodified.
func (r *ProfileRepository) ImportProfile(ctx context.Context, jsonBlob string) (*domain.Profile, error) {
	var probe struct {
		Version *int `json:"version"`
	}
	if err := json.Unmarshal([]byte(jsonBlob), &probe); err != nil {
		return nil, fmt.Errorf("parse imported profile: %w", err)
	}
	if probe.Version == nil || *probe.Version != domain.CurrentProfileVersion {
		return nil, ErrBadVersion
	}

	var profile domain.Profile
	if err := json.Unmarshal([]byte(jsonBlob), &profile); err != nil {
		return nil, fmt.Errorf("parse imported profile: %w", err)
	}
	if err := r.SaveProfile(ctx, &profile); err != nil {
		return nil, err
	}
	return &profile, nil
}

// GetSelectedFormTypes returns the persisted form-type selection.
func (r *ProfileRepository) GetSelectedFormTypes(ctx context.Context) ([]domain.FormType, error) {
	raw, err := r.store.Get(ctx, keySelectedFormTypes)
	if errors.Is(err, store.ErrNotFound) {
		return []domain.FormType{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read form types: %w", err)
	}
	var formTypes []domain.FormType
	if err := json.Unmarshal(raw, &formTypes); err != nil {
		return nil, fmt.Errorf("parse form types: %w", err)
	}
	return formTypes, nil
}

// SaveSelectedFormTypes replaces the persisted form-type selection.
func (r *ProfileRepository) SaveSelectedFormTypes(ctx context.Context, formTypes []domain.FormType) error {
	raw, err := json.Marshal(formTypes)
	if err != nil {
		return fmt.Errorf("encode form types: %w", err)
	}
	if err := r.store.Set(ctx, keySelectedFormTypes, raw); err != nil {
		return fmt.Errorf("write form types: %w", err)
	}
	return nil
}

// ToggleFormType adds or removes one form type from the selection and
// reports whether it is selected afterwards.
func (r *ProfileRepository) ToggleFormType(ctx context.Context, formType domain.FormType) ([]domain.FormType, bool, error) {
	current, err := r.GetSelectedFormTypes(ctx)
	if err != nil {
		return nil, false, err
	}
	updated := make([]domain.FormType, 0, len(current)+1)
	removed := false
	for _, ft := range current {
		if ft == formType {
			removed = true
			continue
		}
		updated = append(updated, ft)
	}
	if !removed {
		updated = append(updated, formType)
	}
	if err := r.SaveSelectedFormTypes(ctx, updated); err != nil {
		return nil, false, err
	}
	return updated, !removed, nil
}
