package engine

import (
	"strings"

	"github.com/priyanka/formpilot/backend/internal/domain"
)

// Resolved is the effective profile value for a semantic key together with
// the autofill policy that governs it.
type Resolved struct {
	Value  string
	Policy domain.AutofillPolicy
}

// ValueSource resolves semantic field keys to effective profile values,
// applying derivation and fallback rules.
type ValueSource interface {
	Resolve(key string) Resolved
	// HasAnyValue reports whether the source holds any non-empty value at
	// all; an orchestration pass over an empty source is pointless.
	HasAnyValue() bool
}

// FlatValues is a ValueSource over a flat key/value map, as produced by the
// legacy profile format. All values carry the bulk_ok policy.
type FlatValues map[string]string

// Resolve applies the flat-map derivation rules: firstName/lastName derive
// from fullName when absent, and zip falls back to the zipCode alias.
func (f FlatValues) Resolve(key string) Resolved {
	value := f[key]

	switch key {
	case "firstName":
		if value == "" {
			value = firstNameOf(f["fullName"])
		}
	case "lastName":
		if value == "" {
			value = lastNameOf(f["fullName"])
		}
	case "zip":
		if value == "" {
			value = f["zipCode"]
		}
	}

	return Resolved{Value: value, Policy: domain.PolicyBulkOK}
}

func (f FlatValues) HasAnyValue() bool {
	for _, v := range f {
		if strings.TrimSpace(v) != "" {
			return true
		}
	}
	return false
}

func firstNameOf(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

func lastNameOf(fullName string) string {
	parts := strings.Fields(fullName)
	if len(parts) < 2 {
		return ""
	}
	return strings.Join(parts[1:], " ")
}

// catalogFieldPaths maps semantic catalog keys to their dotted profile field
// paths. Keys scoped to a multi-entry module additionally fall back to the
// primary entry when the flat module value is empty.
var catalogFieldPaths = map[string]string{
	"firstName":       "personal.firstName",
	"lastName":        "personal.lastName",
	"email":           "contact.email",
	"phone":           "contact.phone",
	"addressLine1":    "address.addressLine1",
	"city":            "address.city",
	"state":           "address.state",
	"zip":             "address.zipCode",
	"country":         "address.country",
	"currentEmployer": "employment.currentEmployer",
	"jobTitle":        "employment.jobTitle",
	"workEmail":       "employment.workEmail",
	"schoolName":      "education.schoolName",
	"degree":          "education.highestDegree",
}

// ProfileValues is a ValueSource over a structured versioned profile.
type ProfileValues struct {
	Profile *domain.Profile
}

// NewProfileValues wraps a structured profile for value resolution.
func NewProfileValues(p *domain.Profile) ProfileValues {
	return ProfileValues{Profile: p}
}

// Resolve returns the effective value and policy for a semantic key:
// the flat module field first, then the primary entry of the corresponding
// multi-entry collection. fullName is composed from first and last name.
func (pv ProfileValues) Resolve(key string) Resolved {
	return pv.resolve(key, -1)
}

// ResolveAt resolves against a specific entry index of the multi-entry
// collections instead of the primary entry. This is the explicit alternate
// path for flows that iterate all entries; index -1 means the primary.
func (pv ProfileValues) ResolveAt(key string, entryIndex int) Resolved {
	return pv.resolve(key, entryIndex)
}

func (pv ProfileValues) resolve(key string, entryIndex int) Resolved {
	p := pv.Profile

	if key == "fullName" {
		first := pv.resolve("firstName", entryIndex)
		last := pv.resolve("lastName", entryIndex)
		return Resolved{
			Value:  strings.TrimSpace(first.Value + " " + last.Value),
			Policy: first.Policy,
		}
	}

	path, ok := catalogFieldPaths[key]
	if !ok {
		return Resolved{Policy: domain.PolicyBulkOK}
	}

	meta, _ := p.Field(path)
	resolved := Resolved{Value: meta.Value, Policy: meta.AutofillPolicy}
	if resolved.Policy == "" {
		resolved.Policy = domain.PolicyBulkOK
	}
	if resolved.Value != "" && entryIndex < 0 {
		return resolved
	}

	if entryValue, ok := pv.entryValue(key, entryIndex); ok {
		resolved.Value = entryValue
	}
	return resolved
}

func (pv ProfileValues) entryValue(key string, entryIndex int) (string, bool) {
	p := pv.Profile

	switch key {
	case "addressLine1", "city", "state", "zip", "country":
		entry := p.PrimaryAddress()
		if entryIndex >= 0 {
			if entryIndex >= len(p.Addresses) {
				return "", false
			}
			entry = &p.Addresses[entryIndex]
		}
		if entry == nil {
			return "", false
		}
		switch key {
		case "addressLine1":
			return entry.AddressLine1, true
		case "city":
			return entry.City, true
		case "state":
			return entry.State, true
		case "zip":
			return entry.ZipCode, true
		case "country":
			return entry.Country, true
		}

	case "currentEmployer", "jobTitle", "workEmail":
		entry := p.PrimaryEmployment()
		if entryIndex >= 0 {
			if entryIndex >= len(p.Employments) {
				return "", false
			}
			entry = &p.Employments[entryIndex]
		}
		if entry == nil {
			return "", false
		}
		switch key {
		case "currentEmployer":
			return entry.CurrentEmployer, true
		case "jobTitle":
			return entry.JobTitle, true
		case "workEmail":
			return entry.WorkEmail, true
		}

	case "schoolName", "degree":
		entry := p.PrimaryEducation()
		if entryIndex >= 0 {
			if entryIndex >= len(p.Educations) {
				return "", false
			}
			entry = &p.Educations[entryIndex]
		}
		if entry == nil {
			return "", false
		}
		if key == "schoolName" {
			return entry.SchoolName, true
		}
		return entry.Degree, true
	}

	return "", false
}

// HasAnyValue reports whether any module field or multi-entry field holds a
// non-empty value.
func (pv ProfileValues) HasAnyValue() bool {
	p := pv.Profile
	for _, def := range domain.ProfileModules {
		module := p.ModuleByName(def.Name)
		for _, meta := range module {
			if strings.TrimSpace(meta.Value) != "" {
				return true
			}
		}
	}
	for _, a := range p.Addresses {
		if a.AddressLine1 != "" || a.City != "" || a.State != "" || a.ZipCode != "" {
			return true
		}
	}
	for _, e := range p.Employments {
		if e.CurrentEmployer != "" || e.JobTitle != "" || e.WorkEmail != "" {
			return true
		}
	}
	for _, e := range p.Educations {
		if e.SchoolName != "" || e.Degree != "" {
			return true
		}
	}
	return false
}
