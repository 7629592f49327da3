package sim

import "github.com/google/uuid"

// SpecialistBonus holds per-axis boosts granted while a specialist works on
// a project. BugReduction is a factor (0 means unset).
type SpecialistBonus struct {
	Programming            float64 `json:"programming,omitempty"`
	Graphics               float64 `json:"graphics,omitempty"`
	Sound                  float64 `json:"sound,omitempty"`
	Creativity             float64 `json:"creativity,omitempty"`
	Fun                    float64 `json:"fun,omitempty"`
	Speed                  float64 `json:"speed,omitempty"`
	MarketingEffectiveness float64 `json:"marketing_effectiveness,omitempty"`
	BugReduction           float64 `json:"bug_reduction,omitempty"`
}

type SpecialistSpec struct {
	Role          SpecialistRole  `json:"role"`
	Name          string          `json:"name"`
	RequiredSkill Skill           `json:"required_skill"`
	MinSkill      int             `json:"min_skill"`
	Cost          int64           `json:"cost"`
	SalaryFactor  float64         `json:"salary_factor"`
	Bonus         SpecialistBonus `json:"bonus"`
}

type AwardSpec struct {
	ID         string        `json:"id"`
	Category   AwardCategory `json:"category"`
	Name       string        `json:"name"`
	Prize      int64         `json:"prize"`
	Reputation int           `json:"reputation"`
	GenreID    string        `json:"genre_id,omitempty"`
}

// Rules is the static configuration the stepping functions consult.
type Rules struct {
	Specialists       map[SpecialistRole]SpecialistSpec
	Awards            []AwardSpec
	StaffNames        []string
	FranchisePrefixes []string
	FranchiseSuffixes []string
}

func (r Rules) specialist(role SpecialistRole) (SpecialistSpec, bool) {
	spec, ok := r.Specialists[role]
	return spec, ok
}

func (r Rules) award(cat AwardCategory) (AwardSpec, bool) {
	for _, a := range r.Awards {
		if a.Category == cat {
			return a, true
		}
	}
	return AwardSpec{}, false
}

// Seed is the read-only starting data a new company copies from.
type Seed struct {
	Genres    []Genre
	Themes    []Theme
	Platforms []Platform
	Engines   []GameEngine
	Upgrades  []OfficeUpgrade
	Rivals    []Competitor
	Staff     []StaffMember
}

// NewCompany builds a fresh studio from seed data. The seed is copied, never
// referenced.
func NewCompany(id, name string, seed Seed) Company {
	c := Company{
		ID:        id,
		Name:      name,
		Funds:     InitialFunds,
		Year:      InitialYear,
		Month:     1,
		Staff:     seed.Staff,
		Genres:    seed.Genres,
		Themes:    seed.Themes,
		Platforms: seed.Platforms,
		Engines:   seed.Engines,
		Upgrades:  seed.Upgrades,
		Rivals:    seed.Rivals,
	}
	c = c.Clone()
	for i := range c.Staff {
		if c.Staff[i].ID == "" {
			c.Staff[i].ID = uuid.NewString()
		}
		c.Staff[i].Status = StatusIdle
		c.Staff[i].Energy = BaseMaxEnergy
		if c.Staff[i].Salary == 0 {
			c.Staff[i].Salary = SalaryFor(c.Staff[i].Skills)
		}
	}
	return c.WithNotice("Welcome to " + name + "!")
}
