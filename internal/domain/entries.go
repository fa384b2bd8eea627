package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// AddressEntry is one address in the multi-entry address collection.
type AddressEntry struct {
	ID           string `json:"id"`
	Label        string `json:"label"`
	IsPrimary    bool   `json:"isPrimary"`
	AddressLine1 string `json:"addressLine1"`
	AddressLine2 string `json:"addressLine2,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	ZipCode      string `json:"zipCode"`
	Country      string `json:"country"`
}

// EmploymentEntry is one job in the multi-entry employment collection.
type EmploymentEntry struct {
	ID              string `json:"id"`
	Label           string `json:"label"`
	IsPrimary       bool   `json:"isPrimary"`
	CurrentEmployer string `json:"currentEmployer"`
	JobTitle        string `json:"jobTitle"`
	StartDate       string `json:"startDate"`
	EndDate         string `json:"endDate"`
	WorkEmail       string `json:"workEmail"`
	IsCurrent       bool   `json:"isCurrent"`
}

// EducationEntry is one school in the multi-entry education collection.
type EducationEntry struct {
	ID             string `json:"id"`
	Label          string `json:"label"`
	IsPrimary      bool   `json:"isPrimary"`
	SchoolName     string `json:"schoolName"`
	Degree         string `json:"degree"`
	GraduationYear string `json:"graduationYear"`
	FieldOfStudy   string `json:"fieldOfStudy"`
}

func newEntryID(prefix string) string {
	return prefix + "_" + uuid.NewString()
}

// PrimaryAddress returns the primary address entry, falling back to the first
// entry when no explicit primary is set. Nil when the collection is empty.
func (p *Profile) PrimaryAddress() *AddressEntry {
	for i := range p.Addresses {
		if p.Addresses[i].IsPrimary {
			return &p.Addresses[i]
		}
	}
	if len(p.Addresses) > 0 {
		return &p.Addresses[0]
	}
	return nil
}

// PrimaryEmployment returns the primary employment entry, or the first, or nil.
func (p *Profile) PrimaryEmployment() *EmploymentEntry {
	for i := range p.Employments {
		if p.Employments[i].IsPrimary {
			return &p.Employments[i]
		}
	}
	if len(p.Employments) > 0 {
		return &p.Employments[0]
	}
	return nil
}

// PrimaryEducation returns the primary education entry, or the first, or nil.
func (p *Profile) PrimaryEducation() *EducationEntry {
	for i := range p.Educations {
		if p.Educations[i].IsPrimary {
			return &p.Educations[i]
		}
	}
	if len(p.Educations) > 0 {
		return &p.Educations[0]
	}
	return nil
}

// AddAddress appends a blank address entry and returns a pointer to it. The
// first entry in a collection becomes primary.
func (p *Profile) AddAddress() *AddressEntry {
	entry := AddressEntry{
		ID:        newEntryID("addr"),
		Label:     fmt.Sprintf("Address %d", len(p.Addresses)+1),
		IsPrimary: len(p.Addresses) == 0,
		Country:   "United States",
	}
	p.Addresses = append(p.Addresses, entry)
	return &p.Addresses[len(p.Addresses)-1]
}

// AddEmployment appends a blank employment entry and returns a pointer to it.
func (p *Profile) AddEmployment() *EmploymentEntry {
	entry := EmploymentEntry{
		ID:        newEntryID("emp"),
		Label:     fmt.Sprintf("Job %d", len(p.Employments)+1),
		IsPrimary: len(p.Employments) == 0,
		IsCurrent: len(p.Employments) == 0,
	}
	p.Employments = append(p.Employments, entry)
	return &p.Employments[len(p.Employments)-1]
}

// AddEducation appends a blank education entry and returns a pointer to it.
func (p *Profile) AddEducation() *EducationEntry {
	entry := EducationEntry{
		ID:        newEntryID("edu"),
		Label:     fmt.Sprintf("Education %d", len(p.Educations)+1),
		IsPrimary: len(p.Educations) == 0,
	}
	p.Educations = append(p.Educations, entry)
	return &p.Educations[len(p.Educations)-1]
}

// RemoveAddress removes the entry at index. A collection is never emptied by
// removal; removing the primary promotes the new first entry.
func (p *Profile) RemoveAddress(index int) bool {
	if len(p.Addresses) <= 1 || index < 0 || index >= len(p.Addresses) {
		return false
	}
	wasPrimary := p.Addresses[index].IsPrimary
	p.Addresses = append(p.Addresses[:index], p.Addresses[index+1:]...)
	if wasPrimary {
		p.Addresses[0].IsPrimary = true
	}
	return true
}

// RemoveEmployment removes the entry at index, preserving the primary invariant.
func (p *Profile) RemoveEmployment(index int) bool {
	if len(p.Employments) <= 1 || index < 0 || index >= len(p.Employments) {
		return false
	}
	wasPrimary := p.Employments[index].IsPrimary
	p.Employments = append(p.Employments[:index], p.Employments[index+1:]...)
	if wasPrimary {
		p.Employments[0].IsPrimary = true
	}
	return true
}

// RemoveEducation removes the entry at index, preserving the primary invariant.
func (p *Profile) RemoveEducation(index int) bool {
	if len(p.Educations) <= 1 || index < 0 || index >= len(p.Educations) {
		return false
	}
	wasPrimary := p.Educations[index].IsPrimary
	p.Educations = append(p.Educations[:index], p.Educations[index+1:]...)
	if wasPrimary {
		p.Educations[0].IsPrimary = true
	}
	return true
}

// SetPrimaryAddress marks the entry at index primary and clears all others.
func (p *Profile) SetPrimaryAddress(index int) bool {
	if index < 0 || index >= len(p.Addresses) {
		return false
	}
	for i := range p.Addresses {
		p.Addresses[i].IsPrimary = i == index
	}
	return true
}

// SetPrimaryEmployment marks the entry at index primary and clears all others.
func (p *Profile) SetPrimaryEmployment(index int) bool {
	if index < 0 || index >= len(p.Employments) {
		return false
	}
	for i := range p.Employments {
		p.Employments[i].IsPrimary = i == index
	}
	return true
}

// SetPrimaryEducation marks the entry at index primary and clears all others.
func (p *Profile) SetPrimaryEducation(index int) bool {
	if index < 0 || index >= len(p.Educations) {
		return false
	}
	for i := range p.Educations {
		p.Educations[i].IsPrimary = i == index
	}
	return true
}

// RelabelAddress replaces the display label of the entry at index.
func (p *Profile) RelabelAddress(index int, label string) bool {
	if index < 0 || index >= len(p.Addresses) {
		return false
	}
	p.Addresses[index].Label = label
	return true
}

// RelabelEmployment replaces the display label of the entry at index.
func (p *Profile) RelabelEmployment(index int, label string) bool {
	if index < 0 || index >= len(p.Employments) {
		return false
	}
	p.Employments[index].Label = label
	return true
}

// RelabelEducation replaces the display label of the entry at index.
func (p *Profile) RelabelEducation(index int, label string) bool {
	if index < 0 || index >= len(p.Educations) {
		return false
	}
	p.Educations[index].Label = label
	return true
}

// SyncLegacyModules copies the primary entry of each multi-entry collection
// into the corresponding single-entry module, for consumers that only
// understand one entry. Field metadata other than the value is preserved.
func (p *Profile) SyncLegacyModules() {
	if addr := p.PrimaryAddress(); addr != nil {
		p.syncModuleValues("address", map[string]string{
			"addressLine1": addr.AddressLine1,
			"addressLine2": addr.AddressLine2,
			"city":         addr.City,
			"state":        addr.State,
			"zipCode":      addr.ZipCode,
			"country":      addr.Country,
		})
	}
	if emp := p.PrimaryEmployment(); emp != nil {
		p.syncModuleValues("employment", map[string]string{
			"currentEmployer": emp.CurrentEmployer,
			"jobTitle":        emp.JobTitle,
			"startDate":       emp.StartDate,
			"workEmail":       emp.WorkEmail,
		})
	}
	if edu := p.PrimaryEducation(); edu != nil {
		p.syncModuleValues("education", map[string]string{
			"schoolName":     edu.SchoolName,
			"highestDegree":  edu.Degree,
			"graduationYear": edu.GraduationYear,
			"fieldOfStudy":   edu.FieldOfStudy,
		})
	}
}

func (p *Profile) syncModuleValues(moduleName string, values map[string]string) {
	module := p.ModuleByName(moduleName)
	if module == nil {
		return
	}
	for fieldName, value := range values {
		meta, ok := module[fieldName]
		if !ok || meta.Value == value {
			continue
		}
		meta.Value = value
		module[fieldName] = meta
	}
}
