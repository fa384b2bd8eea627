// Package generator produces sample profiles and demo form documents for
// local development and seeding.
package generator

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/priyanka/formpilot/backend/internal/domain"
)

// SampleForm is one generated HTML document for exercising fill passes.
type SampleForm struct {
	Name string `json:"name"`
	HTML string `json:"html"`
}

// Dataset contains the generated profile and demo forms.
type Dataset struct {
	Profile *domain.Profile `json:"profile"`
	Forms   []SampleForm    `json:"forms"`
}

// Generator produces deterministic sample data from a seed.
type Generator struct {
	cfg  Config
	rand *rand.Rand
}

// New returns a configured Generator instance.
func New(cfg Config) *Generator {
	def := DefaultConfig()
	if cfg.NumAddresses <= 0 {
		cfg.NumAddresses = def.NumAddresses
	}
	if cfg.NumEmployments <= 0 {
		cfg.NumEmployments = def.NumEmployments
	}
	if cfg.NumEducations <= 0 {
		cfg.NumEducations = def.NumEducations
	}
	if cfg.NumForms <= 0 {
		cfg.NumForms = def.NumForms
	}
	if cfg.Seed == 0 {
		cfg.Seed = time.Now().UnixNano()
	}

	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
	}
}

var (
	firstNames = []string{"Ava", "Noah", "Mia", "Liam", "Zoe", "Ethan", "Ivy", "Lucas", "Nina", "Owen"}
	lastNames  = []string{"Bennett", "Castillo", "Dawson", "Eriksen", "Flores", "Grant", "Hale", "Iqbal", "Juarez", "Kovacs"}
	streets    = []string{"Maple Ave", "Oak St", "Cedar Ln", "Birch Rd", "Elm Dr", "Willow Way"}
	cities     = []string{"Austin", "Denver", "Portland", "Madison", "Raleigh", "Tucson"}
	states     = []string{"TX", "CO", "OR", "WI", "NC", "AZ"}
	employers  = []string{"Acme Corp", "Globex", "Initech", "Umbrella Labs", "Stark Industries"}
	jobTitles  = []string{"Software Engineer", "Product Manager", "Data Analyst", "Designer", "Accountant"}
	schools    = []string{"State University", "City College", "Tech Institute", "Riverside University"}
	degrees    = []string{"Bachelor of Science", "Bachelor of Arts", "Master of Science", "Associate Degree"}
)

func (g *Generator) pick(pool []string) string {
	return pool[g.rand.Intn(len(pool))]
}

// Generate synthesises a filled-out profile and demo forms. It respects
// context cancellation.
func (g *Generator) Generate(ctx context.Context) (Dataset, error) {
	if err := ctx.Err(); err != nil {
		return Dataset{}, err
	}

	profile := domain.NewEmptyProfile()

	first := g.pick(firstNames)
	last := g.pick(lastNames)
	profile.SetField("personal.firstName", first)
	profile.SetField("personal.lastName", last)
	profile.SetField("personal.dateOfBirth", fmt.Sprintf("19%02d-%02d-%02d", 60+g.rand.Intn(35), 1+g.rand.Intn(12), 1+g.rand.Intn(28)))
	profile.SetField("contact.email", fmt.Sprintf("%s.%s@example.com", strings.ToLower(first), strings.ToLower(last)))
	profile.SetField("contact.phone", fmt.Sprintf("(555) %03d-%04d", g.rand.Intn(1000), g.rand.Intn(10000)))

	for i := 0; i < g.cfg.NumAddresses; i++ {
		if err := ctx.Err(); err != nil {
			return Dataset{}, err
		}
		entry := profile.AddAddress()
		entry.AddressLine1 = fmt.Sprintf("%d %s", 100+g.rand.Intn(9900), g.pick(streets))
		idx := g.rand.Intn(len(cities))
		entry.City = cities[idx]
		entry.State = states[idx]
		entry.ZipCode = fmt.Sprintf("%05d", 10000+g.rand.Intn(89999))
	}

	for i := 0; i < g.cfg.NumEmployments; i++ {
		entry := profile.AddEmployment()
		entry.CurrentEmployer = g.pick(employers)
		entry.JobTitle = g.pick(jobTitles)
		entry.StartDate = fmt.Sprintf("20%02d-%02d", 10+g.rand.Intn(14), 1+g.rand.Intn(12))
		entry.WorkEmail = fmt.Sprintf("%s@%s.example.com", strings.ToLower(first), strings.ToLower(strings.Fields(entry.CurrentEmployer)[0]))
	}

	for i := 0; i < g.cfg.NumEducations; i++ {
		entry := profile.AddEducation()
		entry.SchoolName = g.pick(schools)
		entry.Degree = g.pick(degrees)
		entry.GraduationYear = fmt.Sprintf("20%02d", g.rand.Intn(24))
	}

	profile.SyncLegacyModules()

	forms := make([]SampleForm, 0, g.cfg.NumForms)
	builders := []func() SampleForm{g.contactForm, g.jobApplicationForm, g.signupForm}
	for i := 0; i < g.cfg.NumForms && i < len(builders); i++ {
		forms = append(forms, builders[i]())
	}

	return Dataset{Profile: profile, Forms: forms}, nil
}

func (g *Generator) contactForm() SampleForm {
	return SampleForm{
		Name: "contact",
		HTML: `<html><body><form>
<label for="full_name">Full Name</label>
<input type="text" id="full_name" name="full_name">
<label for="email">Email Address</label>
<input type="email" id="email" name="email">
<label for="phone">Phone Number</label>
<input type="tel" id="phone" name="phone">
<label for="message">Message</label>
<textarea id="message" name="message"></textarea>
</form></body></html>`,
	}
}

func (g *Generator) jobApplicationForm() SampleForm {
	return SampleForm{
		Name: "job-application",
		HTML: `<html><body><form>
<input type="text" name="first_name" placeholder="First Name">
<input type="text" name="last_name" placeholder="Last Name">
<input type="email" name="email" placeholder="Email">
<input type="text" name="address_line1" placeholder="Street Address">
<input type="text" name="city" placeholder="City">
<input type="text" name="state" placeholder="State">
<input type="text" name="zip" placeholder="ZIP Code">
<input type="text" name="current_employer" placeholder="Current Employer">
<input type="text" name="job_title" placeholder="Job Title">
<input type="text" name="school_name" placeholder="School">
<input type="text" name="degree" placeholder="Degree">
</form></body></html>`,
	}
}

// signupForm includes credential fields so fill passes demonstrate the
// security denylist.
func (g *Generator) signupForm() SampleForm {
	return SampleForm{
		Name: "signup",
		HTML: `<html><body><form>
<input type="text" name="username" autocomplete="username">
<input type="email" name="email" placeholder="Email">
<input type="password" name="password" placeholder="Password">
<input type="password" name="password_confirm" placeholder="Confirm Password">
<input type="text" name="ssn" placeholder="SSN">
</form></body></html>`,
	}
}
