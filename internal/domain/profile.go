package domain

import "time"

// CurrentProfileVersion is the schema version produced by this package.
// Stored records carrying an older (or absent) version are migrated on read.
const CurrentProfileVersion = 1

// AutofillPolicy governs how a single profile field may be used during
// automated form filling.
type AutofillPolicy string

const (
	// PolicyNever excludes the field from all automated filling.
	PolicyNever AutofillPolicy = "never"
	// PolicyConfirm requires explicit user approval before the field is filled.
	PolicyConfirm AutofillPolicy = "confirm"
	// PolicyOnClick allows filling only on an explicit per-page user action.
	PolicyOnClick AutofillPolicy = "on_click"
	// PolicyBulkOK allows unattended bulk filling.
	PolicyBulkOK AutofillPolicy = "bulk_ok"
)

// FieldSource records where a field value came from.
type FieldSource string

const (
	SourceManual   FieldSource = "manual"
	SourceDocument FieldSource = "document"
	SourceImport   FieldSource = "import"
)

// FieldMeta wraps a stored profile value with its metadata. Raw unwrapped
// values are never persisted.
type FieldMeta struct {
	Value          string         `json:"value"`
	LastUpdated    time.Time      `json:"lastUpdated"`
	Verified       bool           `json:"verified"`
	AutofillPolicy AutofillPolicy `json:"autofillPolicy"`
	Source         FieldSource    `json:"source,omitempty"`
	Notes          string         `json:"notes,omitempty"`
}

// NewField builds a field with the given value and policy, stamped now.
func NewField(value string, policy AutofillPolicy) FieldMeta {
	return FieldMeta{
		Value:          value,
		LastUpdated:    time.Now().UTC(),
		Verified:       false,
		AutofillPolicy: policy,
		Source:         SourceManual,
	}
}

// Module is a mapping of field name to field metadata.
type Module map[string]FieldMeta

// Profile is the versioned aggregate of all profile modules.
type Profile struct {
	Version   int       `json:"version"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`

	Personal          Module `json:"personal"`
	Contact           Module `json:"contact"`
	Address           Module `json:"address"`
	IdentityDocuments Module `json:"identityDocuments"`
	Demographics      Module `json:"demographics"`
	Employment        Module `json:"employment"`
	Education         Module `json:"education"`
	EmergencyContact  Module `json:"emergencyContact"`

	// Multi-entry collections. The single-entry Address/Employment/Education
	// modules above mirror the primary entry for consumers that only
	// understand one entry.
	Addresses   []AddressEntry    `json:"addresses,omitempty"`
	Employments []EmploymentEntry `json:"employments,omitempty"`
	Educations  []EducationEntry  `json:"educations,omitempty"`
}

// Field paths that default to the "never" autofill policy.
var neverAutofillFields = map[string]struct{}{
	"identityDocuments.ssn":            {},
	"identityDocuments.passportNumber": {},
}

// Field paths that default to the "confirm" autofill policy.
var confirmAutofillFields = map[string]struct{}{
	"identityDocuments.ssnLast4":       {},
	"identityDocuments.passportExpiry": {},
	"identityDocuments.driversLicense": {},
	"identityDocuments.stateId":        {},
	"demographics.ethnicity":           {},
	"demographics.race":                {},
	"demographics.veteranStatus":       {},
	"demographics.disabilityStatus":    {},
	"demographics.immigrationStatus":   {},
	"employment.annualIncome":          {},
	"personal.dateOfBirth":             {},
	"personal.gender":                  {},
}

// DefaultPolicy returns the autofill policy assigned to a dotted field path
// ("module.field") at profile-creation time.
func DefaultPolicy(fieldPath string) AutofillPolicy {
	if _, ok := neverAutofillFields[fieldPath]; ok {
		return PolicyNever
	}
	if _, ok := confirmAutofillFields[fieldPath]; ok {
		return PolicyConfirm
	}
	return PolicyBulkOK
}

func emptyModule(moduleName string, fields []string) Module {
	m := make(Module, len(fields))
	for _, name := range fields {
		m[name] = NewField("", DefaultPolicy(moduleName+"."+name))
	}
	return m
}

// NewEmptyProfile builds a profile at the current version with every field
// blank and its policy defaulted from the sensitivity tables.
func NewEmptyProfile() *Profile {
	now := time.Now().UTC()
	p := &Profile{
		Version:   CurrentProfileVersion,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, def := range ProfileModules {
		module := emptyModule(def.Name, def.Fields)
		p.setModule(def.Name, module)
	}
	return p
}

// ModuleByName returns the named module, or nil when the name is unknown.
func (p *Profile) ModuleByName(name string) Module {
	switch name {
	case "personal":
		return p.Personal
	case "contact":
		return p.Contact
	case "address":
		return p.Address
	case "identityDocuments":
		return p.IdentityDocuments
	case "demographics":
		return p.Demographics
	case "employment":
		return p.Employment
	case "education":
		return p.Education
	case "emergencyContact":
		return p.EmergencyContact
	}
	return nil
}

func (p *Profile) setModule(name string, m Module) {
	switch name {
	case "personal":
		p.Personal = m
	case "contact":
		p.Contact = m
	case "address":
		p.Address = m
	case "identityDocuments":
		p.IdentityDocuments = m
	case "demographics":
		p.Demographics = m
	case "employment":
		p.Employment = m
	case "education":
		p.Education = m
	case "emergencyContact":
		p.EmergencyContact = m
	}
}

// Field returns the metadata for a dotted field path ("module.field").
func (p *Profile) Field(fieldPath string) (FieldMeta, bool) {
	moduleName, fieldName, ok := splitFieldPath(fieldPath)
	if !ok {
		return FieldMeta{}, false
	}
	module := p.ModuleByName(moduleName)
	if module == nil {
		return FieldMeta{}, false
	}
	meta, ok := module[fieldName]
	return meta, ok
}

// SetField updates the value of a single field, stamping its LastUpdated and
// the profile's UpdatedAt. Unknown paths are ignored and reported as false.
func (p *Profile) SetField(fieldPath, value string) bool {
	moduleName, fieldName, ok := splitFieldPath(fieldPath)
	if !ok {
		return false
	}
	module := p.ModuleByName(moduleName)
	if module == nil {
		return false
	}
	meta, ok := module[fieldName]
	if !ok {
		return false
	}
	now := time.Now().UTC()
	meta.Value = value
	meta.LastUpdated = now
	module[fieldName] = meta
	p.UpdatedAt = now
	return true
}

// SetFieldPolicy overrides the autofill policy of a single field.
func (p *Profile) SetFieldPolicy(fieldPath string, policy AutofillPolicy) bool {
	moduleName, fieldName, ok := splitFieldPath(fieldPath)
	if !ok {
		return false
	}
	module := p.ModuleByName(moduleName)
	if module == nil {
		return false
	}
	meta, ok := module[fieldName]
	if !ok {
		return false
	}
	meta.AutofillPolicy = policy
	module[fieldName] = meta
	p.UpdatedAt = time.Now().UTC()
	return true
}

func splitFieldPath(path string) (moduleName, fieldName string, ok bool) {
	for i := 0; i < len(path); i++ {
		if path[i] == '.' {
			if i == 0 || i == len(path)-1 {
				return "", "", false
			}
			return path[:i], path[i+1:], true
		}
	}
	return "", "", false
}
