package domain

import (
	"math"
	"strings"
)

// SensitivityLevel classifies a module for default-policy and UI purposes.
type SensitivityLevel string

const (
	SensitivityLow      SensitivityLevel = "low"
	SensitivityMedium   SensitivityLevel = "medium"
	SensitivityHigh     SensitivityLevel = "high"
	SensitivityCritical SensitivityLevel = "critical"
)

// SensitivityDescription returns the user-facing description of a level.
func SensitivityDescription(level SensitivityLevel) string {
	switch level {
	case SensitivityLow:
		return "General information, safe for bulk autofill"
	case SensitivityMedium:
		return "Personal details, review recommended"
	case SensitivityHigh:
		return "Sensitive data, confirmation required"
	case SensitivityCritical:
		return "Highly sensitive, manual entry recommended"
	}
	return ""
}

// ModuleDef describes one profile module: its fields, which of them are
// required by default, and how sensitive the module is as a whole.
type ModuleDef struct {
	Name           string
	DisplayName    string
	Fields         []string
	RequiredFields []string
	Sensitivity    SensitivityLevel
}

// ProfileModules is the ordered list of all profile modules. The order is
// the canonical presentation order, not a matching order.
var ProfileModules = []ModuleDef{
	{
		Name:           "personal",
		DisplayName:    "Personal Information",
		Fields:         []string{"firstName", "middleName", "lastName", "suffix", "preferredName", "dateOfBirth", "gender", "pronouns"},
		RequiredFields: []string{"firstName", "lastName"},
		Sensitivity:    SensitivityMedium,
	},
	{
		Name:           "contact",
		DisplayName:    "Contact Information",
		Fields:         []string{"email", "emailSecondary", "phone", "phoneSecondary", "phoneType"},
		RequiredFields: []string{"email", "phone"},
		Sensitivity:    SensitivityLow,
	},
	{
		Name:           "address",
		DisplayName:    "Address",
		Fields:         []string{"addressLine1", "addressLine2", "city", "state", "zipCode", "country", "addressType"},
		RequiredFields: []string{"addressLine1", "city", "state", "zipCode"},
		Sensitivity:    SensitivityLow,
	},
	{
		Name:        "identityDocuments",
		DisplayName: "Identity Documents",
		Fields:      []string{"ssn", "ssnLast4", "passportNumber", "passportExpiry", "passportCountry", "driversLicense", "driversLicenseState", "driversLicenseExpiry", "stateId"},
		Sensitivity: SensitivityCritical,
	},
	{
		Name:        "demographics",
		DisplayName: "Demographics",
		Fields:      []string{"ethnicity", "race", "veteranStatus", "disabilityStatus", "citizenship", "immigrationStatus"},
		Sensitivity: SensitivityHigh,
	},
	{
		Name:        "employment",
		DisplayName: "Employment",
		Fields:      []string{"currentEmployer", "jobTitle", "employmentStatus", "workPhone", "workEmail", "workAddress", "startDate", "annualIncome", "employerEin"},
		Sensitivity: SensitivityMedium,
	},
	{
		Name:        "education",
		DisplayName: "Education",
		Fields:      []string{"highestDegree", "schoolName", "fieldOfStudy", "graduationYear", "gpa", "studentId"},
		Sensitivity: SensitivityLow,
	},
	{
		Name:        "emergencyContact",
		DisplayName: "Emergency Contact",
		Fields:      []string{"name", "relationship", "phone", "email"},
		Sensitivity: SensitivityLow,
	},
}

// FormType identifies a class of forms with its own required-field preset.
type FormType string

const (
	FormBasicContact     FormType = "basic_contact"
	FormJobApplication   FormType = "job_application"
	FormGovernment       FormType = "government_form"
	FormInsurance        FormType = "insurance"
	FormSchoolEnrollment FormType = "school_enrollment"
	FormHROnboarding     FormType = "hr_onboarding"
)

// FormTypeRequirements maps each form type to the dotted field paths it needs.
var FormTypeRequirements = map[FormType][]string{
	FormBasicContact: {
		"personal.firstName", "personal.lastName",
		"contact.email", "contact.phone",
	},
	FormJobApplication: {
		"personal.firstName", "personal.lastName",
		"contact.email", "contact.phone",
		"address.addressLine1", "address.city", "address.state", "address.zipCode",
		"employment.currentEmployer", "employment.jobTitle",
		"education.highestDegree", "education.schoolName",
	},
	FormGovernment: {
		"personal.firstName", "personal.lastName", "personal.dateOfBirth",
		"contact.email", "contact.phone",
		"address.addressLine1", "address.city", "address.state", "address.zipCode",
		"identityDocuments.ssn",
		"demographics.citizenship",
	},
	FormInsurance: {
		"personal.firstName", "personal.lastName", "personal.dateOfBirth",
		"contact.email", "contact.phone",
		"address.addressLine1", "address.city", "address.state", "address.zipCode",
		"employment.currentEmployer",
	},
	FormSchoolEnrollment: {
		"personal.firstName", "personal.lastName", "personal.dateOfBirth",
		"contact.email", "contact.phone",
		"address.addressLine1", "address.city", "address.state", "address.zipCode",
		"emergencyContact.name", "emergencyContact.phone",
	},
	FormHROnboarding: {
		"personal.firstName", "personal.lastName", "personal.dateOfBirth",
		"contact.email", "contact.phone",
		"address.addressLine1", "address.city", "address.state", "address.zipCode",
		"identityDocuments.ssn",
		"employment.startDate",
		"emergencyContact.name", "emergencyContact.phone",
	},
}

// ModuleCompletion reports how filled one module is.
type ModuleCompletion struct {
	DisplayName string `json:"displayName"`
	Percent     int    `json:"percent"`
	Filled      int    `json:"filled"`
	Total       int    `json:"total"`
}

// CompletionResult aggregates completion across all modules. The overall
// percentage is field-weighted: a module with more fields moves the overall
// score proportionally more.
type CompletionResult struct {
	OverallPercent   int                         `json:"overallPercent"`
	ModuleCompletion map[string]ModuleCompletion `json:"moduleCompletion"`
	MissingRequired  []string                    `json:"missingRequired"`
	TotalFilled      int                         `json:"totalFilled"`
	TotalFields      int                         `json:"totalFields"`
}

// CalculateCompletion computes per-module and overall completion. When a form
// type is given, MissingRequired lists that form type's required field paths
// whose values are empty.
func CalculateCompletion(p *Profile, formType FormType) CompletionResult {
	result := CompletionResult{
		ModuleCompletion: make(map[string]ModuleCompletion, len(ProfileModules)),
		MissingRequired:  []string{},
	}

	for _, def := range ProfileModules {
		module := p.ModuleByName(def.Name)
		filled := 0
		for _, fieldName := range def.Fields {
			if meta, ok := module[fieldName]; ok && strings.TrimSpace(meta.Value) != "" {
				filled++
			}
		}
		total := len(def.Fields)
		percent := 0
		if total > 0 {
			percent = int(math.Round(float64(filled) / float64(total) * 100))
		}
		result.ModuleCompletion[def.Name] = ModuleCompletion{
			DisplayName: def.DisplayName,
			Percent:     percent,
			Filled:      filled,
			Total:       total,
		}
		result.TotalFilled += filled
		result.TotalFields += total
	}

	if result.TotalFields > 0 {
		result.OverallPercent = int(math.Round(float64(result.TotalFilled) / float64(result.TotalFields) * 100))
	}

	if formType != "" {
		for _, path := range FormTypeRequirements[formType] {
			meta, ok := p.Field(path)
			if !ok || strings.TrimSpace(meta.Value) == "" {
				result.MissingRequired = append(result.MissingRequired, path)
			}
		}
	}

	return result
}
