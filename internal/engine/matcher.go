package engine

import (
	"sort"
	"strings"

	"github.com/priyanka/formpilot/backend/internal/catalog"
	"github.com/priyanka/formpilot/backend/internal/domain"
)

// Confidence scores per match signal. Signals are evaluated per catalog entry
// in the order autocomplete, name/id, type, label, placeholder; a later
// signal replaces the running best only on a strictly greater score, so on
// ties the first-found match wins.
const (
	ConfidenceAutocomplete       = 100
	ConfidenceNameExact          = 95
	ConfidenceIDExact            = 90
	ConfidenceType               = 85
	ConfidenceNamePartial        = 80
	ConfidenceIDPartial          = 75
	ConfidenceLabelExact         = 70
	ConfidenceLabelPartial       = 55
	ConfidencePlaceholderExact   = 60
	ConfidencePlaceholderPartial = 45
)

// MatchResult describes the best semantic match found for a candidate field.
// It is transient; results are computed per field and never persisted.
type MatchResult struct {
	FieldKey       string                `json:"fieldKey"`
	ProfileValue   string                `json:"profileValue"`
	Policy         domain.AutofillPolicy `json:"policy"`
	Confidence     int                   `json:"confidence"`
	MatchedBy      string                `json:"matchedBy"`
	MatchedPattern string                `json:"matchedPattern"`
}

// fieldAttrs are the lowercased observable attributes of one candidate.
type fieldAttrs struct {
	name         string
	id           string
	inputType    string
	placeholder  string
	label        string
	autocomplete string
}

func attrsOf(field Candidate) fieldAttrs {
	return fieldAttrs{
		name:         strings.ToLower(field.Name()),
		id:           strings.ToLower(field.ID()),
		inputType:    strings.ToLower(field.Type()),
		placeholder:  strings.ToLower(field.Placeholder()),
		label:        strings.ToLower(field.Label()),
		autocomplete: strings.ToLower(field.Autocomplete()),
	}
}

// MatchField scores a candidate field against every catalog entry whose
// resolved profile value is non-empty and returns the highest-confidence
// match at or above minConfidence. The orchestrator matches with a zero
// floor and applies its threshold afterwards so a below-threshold match is
// reported as low confidence rather than as no match.
func MatchField(field Candidate, vals ValueSource, minConfidence int) (MatchResult, bool) {
	attrs := attrsOf(field)

	var best MatchResult
	found := false
	for _, pattern := range catalog.Patterns {
		resolved := vals.Resolve(pattern.Key)
		if resolved.Value == "" {
			continue
		}
		if match, ok := matchPattern(attrs, pattern, resolved, minConfidence); ok {
			if !found || match.Confidence > best.Confidence {
				best = match
				found = true
			}
		}
	}
	return best, found
}

// matchPattern evaluates one catalog entry against a candidate's attributes
// and returns the entry's best signal at or above minConfidence.
func matchPattern(attrs fieldAttrs, pattern catalog.FieldPattern, resolved Resolved, minConfidence int) (MatchResult, bool) {
	var best MatchResult
	found := false

	consider := func(confidence int, matchedBy, matchedPattern string) {
		if confidence < minConfidence {
			return
		}
		if found && confidence <= best.Confidence {
			return
		}
		best = MatchResult{
			FieldKey:       pattern.Key,
			ProfileValue:   resolved.Value,
			Policy:         resolved.Policy,
			Confidence:     confidence,
			MatchedBy:      matchedBy,
			MatchedPattern: matchedPattern,
		}
		found = true
	}

	if attrs.autocomplete != "" {
		if key, ok := catalog.AutocompleteKey(attrs.autocomplete); ok && key == pattern.Key {
			consider(ConfidenceAutocomplete, "autocomplete", attrs.autocomplete)
		}
	}

	for _, token := range pattern.Names {
		switch {
		case attrs.name == token:
			consider(ConfidenceNameExact, "name", token)
		case attrs.id == token:
			consider(ConfidenceIDExact, "id", token)
		case strings.Contains(attrs.name, token):
			consider(ConfidenceNamePartial, "name", token)
		case strings.Contains(attrs.id, token):
			consider(ConfidenceIDPartial, "id", token)
		}
	}

	for _, t := range pattern.Types {
		if attrs.inputType == t {
			consider(ConfidenceType, "type", t)
		}
	}

	for _, token := range pattern.Labels {
		if attrs.label == token {
			consider(ConfidenceLabelExact, "label", token)
		} else if strings.Contains(attrs.label, token) {
			consider(ConfidenceLabelPartial, "label", token)
		}
	}

	for _, token := range pattern.Placeholders {
		if attrs.placeholder == token {
			consider(ConfidencePlaceholderExact, "placeholder", token)
		} else if strings.Contains(attrs.placeholder, token) {
			consider(ConfidencePlaceholderPartial, "placeholder", token)
		}
	}

	return best, found
}

// DebugReport lists every candidate match for one field, highest confidence
// first, along with the field's observable attributes and block status.
type DebugReport struct {
	Name         string        `json:"name"`
	ID           string        `json:"id"`
	Type         string        `json:"type"`
	Placeholder  string        `json:"placeholder"`
	Label        string        `json:"label"`
	Autocomplete string        `json:"autocomplete"`
	Matches      []MatchResult `json:"matches"`
	IsBlocked    bool          `json:"isBlocked"`
	BlockReason  string        `json:"blockReason,omitempty"`
}

// DebugFieldMatch evaluates every catalog entry against a field with no
// confidence floor. Intended for diagnostics only.
func DebugFieldMatch(field Candidate, vals ValueSource) DebugReport {
	attrs := attrsOf(field)
	report := DebugReport{
		Name:         field.Name(),
		ID:           field.ID(),
		Type:         field.Type(),
		Placeholder:  field.Placeholder(),
		Label:        field.Label(),
		Autocomplete: field.Autocomplete(),
		IsBlocked:    catalog.IsBlocked(field.Name(), field.ID(), field.Type(), field.Autocomplete()),
		BlockReason:  catalog.BlockReason(field.Name(), field.ID(), field.Type(), field.Autocomplete()),
	}

	for _, pattern := range catalog.Patterns {
		resolved := vals.Resolve(pattern.Key)
		if resolved.Value == "" {
			continue
		}
		if match, ok := matchPattern(attrs, pattern, resolved, 0); ok {
			report.Matches = append(report.Matches, match)
		}
	}
	sort.SliceStable(report.Matches, func(i, j int) bool {
		return report.Matches[i].Confidence > report.Matches[j].Confidence
	})
	return report
}
