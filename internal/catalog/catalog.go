// Package catalog loads the static seed tables a studio starts from and the
// rule tables the simulator consults.
package catalog

import (
	_ "embed"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"studiosim/internal/sim"
)

//go:embed default.yaml
var defaultYAML []byte

type Catalog struct {
	Rules sim.Rules
	Seed  sim.Seed
}

type document struct {
	Genres            []genreDoc      `yaml:"genres"`
	Themes            []themeDoc      `yaml:"themes"`
	Platforms         []platformDoc   `yaml:"platforms"`
	Engines           []engineDoc     `yaml:"engines"`
	Upgrades          []upgradeDoc    `yaml:"upgrades"`
	Specialists       []specialistDoc `yaml:"specialists"`
	Awards            []awardDoc      `yaml:"awards"`
	Rivals            []rivalDoc      `yaml:"rivals"`
	StarterStaff      []staffDoc      `yaml:"starter_staff"`
	StaffNames        []string        `yaml:"staff_names"`
	FranchisePrefixes []string        `yaml:"franchise_prefixes"`
	FranchiseSuffixes []string        `yaml:"franchise_suffixes"`
}

type genreDoc struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	ResearchCost     int64   `yaml:"research_cost"`
	ResearchLevel    int     `yaml:"research_level"`
	MaxResearchLevel int     `yaml:"max_research_level"`
	BaseFun          float64 `yaml:"base_fun"`
	BaseInnovation   float64 `yaml:"base_innovation"`
}

type themeDoc struct {
	ID               string             `yaml:"id"`
	Name             string             `yaml:"name"`
	ResearchCost     int64              `yaml:"research_cost"`
	ResearchLevel    int                `yaml:"research_level"`
	MaxResearchLevel int                `yaml:"max_research_level"`
	Multipliers      map[string]float64 `yaml:"multipliers"`
}

type platformDoc struct {
	ID               string  `yaml:"id"`
	Name             string  `yaml:"name"`
	MarketShare      float64 `yaml:"market_share"`
	LicenseCost      int64   `yaml:"license_cost"`
	ResearchCost     int64   `yaml:"research_cost"`
	ReleaseYear      int     `yaml:"release_year"`
	ResearchLevel    int     `yaml:"research_level"`
	MaxResearchLevel int     `yaml:"max_research_level"`
}

type boostsDoc struct {
	Speed                  float64 `yaml:"speed"`
	Fun                    float64 `yaml:"fun"`
	Graphics               float64 `yaml:"graphics"`
	Sound                  float64 `yaml:"sound"`
	Creativity             float64 `yaml:"creativity"`
	Innovation             float64 `yaml:"innovation"`
	Programming            float64 `yaml:"programming"`
	MarketingEffectiveness float64 `yaml:"marketing_effectiveness"`
	BugReduction           float64 `yaml:"bug_reduction"`
}

type engineDoc struct {
	ID               string    `yaml:"id"`
	Name             string    `yaml:"name"`
	ResearchCost     int64     `yaml:"research_cost"`
	DevMonths        float64   `yaml:"dev_months"`
	MaxResearchLevel int       `yaml:"max_research_level"`
	Benefits         boostsDoc `yaml:"benefits"`
}

type effectsDoc struct {
	EnergyRecoveryBoost   float64 `yaml:"energy_recovery_boost"`
	MaxEnergyBoost        float64 `yaml:"max_energy_boost"`
	GlobalSpeedBoost      float64 `yaml:"global_speed_boost"`
	GlobalCreativityBoost float64 `yaml:"global_creativity_boost"`
	TrainingBoost         float64 `yaml:"training_boost"`
	PassiveHype           float64 `yaml:"passive_hype"`
	BugReduction          float64 `yaml:"bug_reduction"`
}

type tierDoc struct {
	Level   int        `yaml:"level"`
	Name    string     `yaml:"name"`
	Cost    int64      `yaml:"cost"`
	Effects effectsDoc `yaml:"effects"`
}

type upgradeDoc struct {
	ID    string    `yaml:"id"`
	Name  string    `yaml:"name"`
	Tiers []tierDoc `yaml:"tiers"`
}

type specialistDoc struct {
	Role          string    `yaml:"role"`
	Name          string    `yaml:"name"`
	RequiredSkill string    `yaml:"required_skill"`
	MinSkill      int       `yaml:"min_skill"`
	Cost          int64     `yaml:"cost"`
	SalaryFactor  float64   `yaml:"salary_factor"`
	Bonus         boostsDoc `yaml:"bonus"`
}

type awardDoc struct {
	ID         string `yaml:"id"`
	Category   string `yaml:"category"`
	GenreID    string `yaml:"genre_id"`
	Name       string `yaml:"name"`
	Prize      int64  `yaml:"prize"`
	Reputation int    `yaml:"reputation"`
}

type rivalDoc struct {
	ID              string   `yaml:"id"`
	Name            string   `yaml:"name"`
	Funds           int64    `yaml:"funds"`
	Reputation      int      `yaml:"reputation"`
	Skill           int      `yaml:"skill"`
	PreferredGenres []string `yaml:"preferred_genres"`
	PreferredThemes []string `yaml:"preferred_themes"`
}

type staffDoc struct {
	Name   string `yaml:"name"`
	Skills struct {
		Programming int `yaml:"programming"`
		Graphics    int `yaml:"graphics"`
		Sound       int `yaml:"sound"`
		Creativity  int `yaml:"creativity"`
		Marketing   int `yaml:"marketing"`
		Speed       int `yaml:"speed"`
	} `yaml:"skills"`
}

// Default returns the embedded catalog.
func Default() (Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(defaultYAML, &doc); err != nil {
		return Catalog{}, fmt.Errorf("default catalog: %w", err)
	}
	return build(doc)
}

// Load decodes the embedded catalog and then the file at path over it. Any
// top-level table present in the file replaces the default table whole.
// An empty path is the same as Default.
func Load(path string) (Catalog, error) {
	if path == "" {
		return Default()
	}
	var doc document
	if err := yaml.Unmarshal(defaultYAML, &doc); err != nil {
		return Catalog{}, fmt.Errorf("default catalog: %w", err)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Catalog{}, err
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return Catalog{}, fmt.Errorf("%s: %w", path, err)
	}
	return build(doc)
}

// NewCompany seeds a fresh studio from the catalog.
func (c Catalog) NewCompany(id, name string) sim.Company {
	return sim.NewCompany(id, name, c.Seed)
}

func build(doc document) (Catalog, error) {
	if err := validate(doc); err != nil {
		return Catalog{}, err
	}
	var seed sim.Seed
	for _, g := range doc.Genres {
		seed.Genres = append(seed.Genres, sim.Genre{
			ID:               g.ID,
			Name:             g.Name,
			ResearchCost:     g.ResearchCost,
			ResearchLevel:    g.ResearchLevel,
			MaxResearchLevel: g.MaxResearchLevel,
			BaseFun:          g.BaseFun,
			BaseInnovation:   g.BaseInnovation,
		})
	}
	for _, t := range doc.Themes {
		seed.Themes = append(seed.Themes, sim.Theme{
			ID:               t.ID,
			Name:             t.Name,
			ResearchCost:     t.ResearchCost,
			ResearchLevel:    t.ResearchLevel,
			MaxResearchLevel: t.MaxResearchLevel,
			Multipliers:      t.Multipliers,
		})
	}
	for _, p := range doc.Platforms {
		seed.Platforms = append(seed.Platforms, sim.Platform(p))
	}
	for _, e := range doc.Engines {
		seed.Engines = append(seed.Engines, sim.GameEngine{
			ID:               e.ID,
			Name:             e.Name,
			ResearchCost:     e.ResearchCost,
			DevMonths:        e.DevMonths,
			MaxResearchLevel: e.MaxResearchLevel,
			Benefits: sim.EngineBenefits{
				Speed:        e.Benefits.Speed,
				Fun:          e.Benefits.Fun,
				Graphics:     e.Benefits.Graphics,
				Sound:        e.Benefits.Sound,
				Creativity:   e.Benefits.Creativity,
				Innovation:   e.Benefits.Innovation,
				Programming:  e.Benefits.Programming,
				BugReduction: e.Benefits.BugReduction,
			},
		})
	}
	for _, u := range doc.Upgrades {
		up := sim.OfficeUpgrade{ID: u.ID, Name: u.Name}
		for _, t := range u.Tiers {
			up.Tiers = append(up.Tiers, sim.UpgradeTier{
				Level:   t.Level,
				Name:    t.Name,
				Cost:    t.Cost,
				Effects: sim.OfficeEffects(t.Effects),
			})
		}
		seed.Upgrades = append(seed.Upgrades, up)
	}
	for _, r := range doc.Rivals {
		seed.Rivals = append(seed.Rivals, sim.Competitor{
			ID:              r.ID,
			Name:            r.Name,
			Funds:           r.Funds,
			Reputation:      r.Reputation,
			Skill:           r.Skill,
			PreferredGenres: r.PreferredGenres,
			PreferredThemes: r.PreferredThemes,
		})
	}
	for _, s := range doc.StarterStaff {
		seed.Staff = append(seed.Staff, sim.StaffMember{
			Name: s.Name,
			Skills: sim.Skills{
				Programming: s.Skills.Programming,
				Graphics:    s.Skills.Graphics,
				Sound:       s.Skills.Sound,
				Creativity:  s.Skills.Creativity,
				Marketing:   s.Skills.Marketing,
				Speed:       s.Skills.Speed,
			},
		})
	}

	rules := sim.Rules{
		Specialists:       make(map[sim.SpecialistRole]sim.SpecialistSpec, len(doc.Specialists)),
		StaffNames:        doc.StaffNames,
		FranchisePrefixes: doc.FranchisePrefixes,
		FranchiseSuffixes: doc.FranchiseSuffixes,
	}
	for _, s := range doc.Specialists {
		role := sim.SpecialistRole(s.Role)
		rules.Specialists[role] = sim.SpecialistSpec{
			Role:          role,
			Name:          s.Name,
			RequiredSkill: sim.Skill(s.RequiredSkill),
			MinSkill:      s.MinSkill,
			Cost:          s.Cost,
			SalaryFactor:  s.SalaryFactor,
			Bonus: sim.SpecialistBonus{
				Programming:            s.Bonus.Programming,
				Graphics:               s.Bonus.Graphics,
				Sound:                  s.Bonus.Sound,
				Creativity:             s.Bonus.Creativity,
				Fun:                    s.Bonus.Fun,
				Speed:                  s.Bonus.Speed,
				MarketingEffectiveness: s.Bonus.MarketingEffectiveness,
				BugReduction:           s.Bonus.BugReduction,
			},
		}
	}
	for _, a := range doc.Awards {
		rules.Awards = append(rules.Awards, sim.AwardSpec{
			ID:         a.ID,
			Category:   sim.AwardCategory(a.Category),
			Name:       a.Name,
			Prize:      a.Prize,
			Reputation: a.Reputation,
			GenreID:    a.GenreID,
		})
	}
	return Catalog{Rules: rules, Seed: seed}, nil
}

func validate(doc document) error {
	var errs []error
	if len(doc.Genres) == 0 || len(doc.Themes) == 0 || len(doc.Platforms) == 0 {
		errs = append(errs, errors.New("genres, themes and platforms must not be empty"))
	}
	if len(doc.StarterStaff) == 0 {
		errs = append(errs, errors.New("starter_staff must not be empty"))
	}
	errs = append(errs, uniqueIDs("genre", doc.Genres, func(g genreDoc) string { return g.ID })...)
	errs = append(errs, uniqueIDs("theme", doc.Themes, func(t themeDoc) string { return t.ID })...)
	errs = append(errs, uniqueIDs("platform", doc.Platforms, func(p platformDoc) string { return p.ID })...)
	errs = append(errs, uniqueIDs("engine", doc.Engines, func(e engineDoc) string { return e.ID })...)
	errs = append(errs, uniqueIDs("upgrade", doc.Upgrades, func(u upgradeDoc) string { return u.ID })...)
	errs = append(errs, uniqueIDs("rival", doc.Rivals, func(r rivalDoc) string { return r.ID })...)
	errs = append(errs, uniqueIDs("award", doc.Awards, func(a awardDoc) string { return a.ID })...)

	for _, p := range doc.Platforms {
		if p.ResearchCost <= 0 {
			errs = append(errs, fmt.Errorf("platform %s: research_cost must be positive", p.ID))
		}
		if p.MarketShare < 0 || p.MarketShare > 1 {
			errs = append(errs, fmt.Errorf("platform %s: market_share %v outside [0,1]", p.ID, p.MarketShare))
		}
	}
	for _, u := range doc.Upgrades {
		for i, t := range u.Tiers {
			if t.Level != i+1 {
				errs = append(errs, fmt.Errorf("upgrade %s: tier %d has level %d", u.ID, i+1, t.Level))
			}
		}
	}
	seen := make(map[string]bool, len(doc.Specialists))
	for _, s := range doc.Specialists {
		if !sim.SpecialistRole(s.Role).Valid() {
			errs = append(errs, fmt.Errorf("specialist role %q is unknown", s.Role))
		}
		if !sim.Skill(s.RequiredSkill).Valid() {
			errs = append(errs, fmt.Errorf("specialist %s: skill %q is unknown", s.Role, s.RequiredSkill))
		}
		if seen[s.Role] {
			errs = append(errs, fmt.Errorf("specialist role %q listed twice", s.Role))
		}
		seen[s.Role] = true
	}
	for _, a := range doc.Awards {
		cat := sim.AwardCategory(a.Category)
		if !cat.Valid() {
			errs = append(errs, fmt.Errorf("award %s: category %q is unknown", a.ID, a.Category))
		}
		if cat == sim.AwardBestGenre && a.GenreID == "" {
			errs = append(errs, fmt.Errorf("award %s: best_genre needs genre_id", a.ID))
		}
	}
	return errors.Join(errs...)
}

func uniqueIDs[T any](kind string, items []T, id func(T) string) []error {
	var errs []error
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		k := id(it)
		if k == "" {
			errs = append(errs, fmt.Errorf("%s with empty id", kind))
			continue
		}
		if seen[k] {
			errs = append(errs, fmt.Errorf("duplicate %s id %q", kind, k))
		}
		seen[k] = true
	}
	return errs
}
