package engine

import (
	"fmt"
	"strings"

	"github.com/priyanka/formpilot/backend/internal/catalog"
	"github.com/priyanka/formpilot/backend/internal/domain"
)

// SkipReason is the machine-readable outcome for a candidate field that was
// not filled. Skips are first-class outcomes, never errors.
type SkipReason string

const (
	SkipHidden               SkipReason = "hidden"
	SkipDisabled             SkipReason = "disabled"
	SkipReadonly             SkipReason = "readonly"
	SkipAlreadyFilled        SkipReason = "already_filled"
	SkipBlockedField         SkipReason = "blocked_field"
	SkipInvalidType          SkipReason = "invalid_type"
	SkipNoMatch              SkipReason = "no_match"
	SkipLowConfidence        SkipReason = "low_confidence"
	SkipNoProfileValue       SkipReason = "no_profile_value"
	SkipPolicyNever          SkipReason = "policy_never"
	SkipPolicyConfirmPending SkipReason = "policy_confirm_pending"
)

// FilledField records one successful fill.
type FilledField struct {
	Identifier string `json:"identifier"`
	FieldKey   string `json:"fieldKey"`
	Value      string `json:"value"`
	Confidence int    `json:"confidence"`
	MatchedBy  string `json:"matchedBy"`
}

// SkippedField records one skipped candidate with its reason.
type SkippedField struct {
	Identifier string     `json:"identifier"`
	Reason     SkipReason `json:"reason"`
	Details    string     `json:"details,omitempty"`
}

// Result is the outcome of one orchestration pass over a document. It is
// returned to the caller and never persisted.
type Result struct {
	Success       bool           `json:"success"`
	FilledFields  []FilledField  `json:"filledFields"`
	SkippedFields []SkippedField `json:"skippedFields"`
	TotalInputs   int            `json:"totalInputs"`
	Message       string         `json:"message"`
}

// validInputTypes are the input type attributes eligible for filling.
// Textareas are exempt from the check.
var validInputTypes = map[string]struct{}{
	"text": {}, "email": {}, "tel": {}, "url": {}, "search": {}, "": {},
}

// fieldIdentifier returns a human-readable handle for a candidate field.
func fieldIdentifier(field Candidate) string {
	if field.Name() != "" {
		return fmt.Sprintf("name=%q", field.Name())
	}
	if field.ID() != "" {
		return fmt.Sprintf("id=%q", field.ID())
	}
	if field.Placeholder() != "" {
		return fmt.Sprintf("placeholder=%q", field.Placeholder())
	}
	return field.TagName()
}

// structuralSkip applies the structural and security disqualifications that
// always precede semantic matching. It returns the empty reason when the
// field is eligible for matching.
func structuralSkip(field Candidate, settings Settings) (SkipReason, string) {
	identifier := fieldIdentifier(field)

	if field.Type() == "hidden" {
		return SkipHidden, "hidden field: " + identifier
	}
	if field.Disabled() {
		return SkipDisabled, "disabled field: " + identifier
	}
	if field.ReadOnly() {
		return SkipReadonly, "readonly field: " + identifier
	}
	if settings.SkipFilledFields && strings.TrimSpace(field.Value()) != "" {
		return SkipAlreadyFilled, "already has value: " + identifier
	}
	if catalog.IsBlocked(field.Name(), field.ID(), field.Type(), field.Autocomplete()) {
		return SkipBlockedField, "security-blocked field: " + identifier
	}
	if field.TagName() != "textarea" {
		if _, ok := validInputTypes[field.Type()]; !ok {
			return SkipInvalidType, fmt.Sprintf("invalid input type %q: %s", field.Type(), identifier)
		}
	}
	return "", ""
}

// policySkip gates a matched field on its autofill policy. The denylist has
// already run by this point; policy is an additional gate, never a bypass.
func policySkip(match MatchResult, settings Settings) (SkipReason, string) {
	switch match.Policy {
	case domain.PolicyNever:
		return SkipPolicyNever, fmt.Sprintf("policy for %s is never", match.FieldKey)
	case domain.PolicyConfirm:
		return SkipPolicyConfirmPending, fmt.Sprintf("policy for %s requires confirmation", match.FieldKey)
	case domain.PolicyOnClick:
		if !settings.UserInitiated {
			return SkipPolicyConfirmPending, fmt.Sprintf("policy for %s requires a per-page user action", match.FieldKey)
		}
	}
	return "", ""
}

// Autofill runs the skip/match/fill state machine over every candidate field
// in the document, independently and in document order.
func Autofill(doc Document, vals ValueSource, settings Settings) Result {
	result := Result{
		FilledFields:  []FilledField{},
		SkippedFields: []SkippedField{},
	}

	if !settings.Enabled {
		result.Message = "Autofill is disabled"
		return result
	}
	if vals == nil || !vals.HasAnyValue() {
		result.Message = "No profile data. Configure in Settings."
		return result
	}

	fields := doc.Fields()
	result.TotalInputs = len(fields)

	for _, field := range fields {
		identifier := fieldIdentifier(field)

		if reason, details := structuralSkip(field, settings); reason != "" {
			result.SkippedFields = append(result.SkippedFields, SkippedField{
				Identifier: identifier,
				Reason:     reason,
				Details:    details,
			})
			continue
		}

		match, ok := MatchField(field, vals, 0)
		if !ok {
			result.SkippedFields = append(result.SkippedFields, SkippedField{
				Identifier: identifier,
				Reason:     SkipNoMatch,
				Details:    "no pattern matched for " + identifier,
			})
			continue
		}
		if match.Confidence < settings.ConfidenceThreshold {
			result.SkippedFields = append(result.SkippedFields, SkippedField{
				Identifier: identifier,
				Reason:     SkipLowConfidence,
				Details:    fmt.Sprintf("confidence %d%% < threshold %d%%", match.Confidence, settings.ConfidenceThreshold),
			})
			continue
		}
		if match.ProfileValue == "" {
			result.SkippedFields = append(result.SkippedFields, SkippedField{
				Identifier: identifier,
				Reason:     SkipNoProfileValue,
				Details:    "no profile value for " + match.FieldKey,
			})
			continue
		}
		if reason, details := policySkip(match, settings); reason != "" {
			result.SkippedFields = append(result.SkippedFields, SkippedField{
				Identifier: identifier,
				Reason:     reason,
				Details:    details,
			})
			continue
		}

		field.SetValue(match.ProfileValue, FillOptions{
			DispatchEvents:    settings.DispatchEvents,
			Highlight:         settings.HighlightFilled,
			HighlightDuration: settings.HighlightDuration,
		})
		result.FilledFields = append(result.FilledFields, FilledField{
			Identifier: identifier,
			FieldKey:   match.FieldKey,
			Value:      match.ProfileValue,
			Confidence: match.Confidence,
			MatchedBy:  match.MatchedBy,
		})
	}

	result.Success = len(result.FilledFields) > 0
	switch n := len(result.FilledFields); n {
	case 0:
		result.Message = "No matching fields found"
	case 1:
		result.Message = "Filled 1 field"
	default:
		result.Message = fmt.Sprintf("Filled %d fields", n)
	}
	return result
}

// AnalyzedMatch is one field that would be filled at the given threshold.
type AnalyzedMatch struct {
	Identifier string `json:"identifier"`
	FieldKey   string `json:"fieldKey"`
	Confidence int    `json:"confidence"`
	MatchedBy  string `json:"matchedBy"`
}

// AnalyzedField is one field that would not be filled.
type AnalyzedField struct {
	Identifier string `json:"identifier"`
}

// Analysis partitions a document's candidates without mutating anything.
type Analysis struct {
	MatchedFields   []AnalyzedMatch `json:"matchedFields"`
	UnmatchedFields []AnalyzedField `json:"unmatchedFields"`
	BlockedFields   []AnalyzedField `json:"blockedFields"`
}

// AnalyzeForm is the dry-run variant of Autofill, used for previews and
// diagnostics. Matching runs with no confidence floor so near-misses are
// visible; the threshold only decides the matched/unmatched partition.
func AnalyzeForm(doc Document, vals ValueSource, confidenceThreshold int) Analysis {
	analysis := Analysis{
		MatchedFields:   []AnalyzedMatch{},
		UnmatchedFields: []AnalyzedField{},
		BlockedFields:   []AnalyzedField{},
	}

	for _, field := range doc.Fields() {
		if field.Type() == "hidden" {
			continue
		}
		identifier := fieldIdentifier(field)

		if catalog.IsBlocked(field.Name(), field.ID(), field.Type(), field.Autocomplete()) {
			analysis.BlockedFields = append(analysis.BlockedFields, AnalyzedField{Identifier: identifier})
			continue
		}

		match, ok := MatchField(field, vals, 0)
		if ok && match.Confidence >= confidenceThreshold {
			analysis.MatchedFields = append(analysis.MatchedFields, AnalyzedMatch{
				Identifier: identifier,
				FieldKey:   match.FieldKey,
				Confidence: match.Confidence,
				MatchedBy:  match.MatchedBy,
			})
		} else {
			analysis.UnmatchedFields = append(analysis.UnmatchedFields, AnalyzedField{Identifier: identifier})
		}
	}
	return analysis
}
