package sim

import (
	"fmt"
	"testing"
)

// constRand always returns the same roll; Intn is clamped to n-1.
type constRand struct {
	f float64
	i int
}

func (r constRand) Float64() float64 { return r.f }

func (r constRand) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return min(r.i, n-1)
}

// scriptedRand replays floats in order and then falls back to rest.
type scriptedRand struct {
	floats []float64
	rest   float64
}

func (r *scriptedRand) Float64() float64 {
	if len(r.floats) == 0 {
		return r.rest
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

func (r *scriptedRand) Intn(int) int { return 0 }

func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func testRules() Rules {
	return Rules{
		Specialists: map[SpecialistRole]SpecialistSpec{
			RoleLeadProgrammer: {Role: RoleLeadProgrammer, Name: "Lead Programmer", RequiredSkill: SkillProgramming, MinSkill: 7, Cost: 10000, SalaryFactor: 1.5, Bonus: SpecialistBonus{Programming: 0.15, BugReduction: 0.85}},
			RoleArtDirector:    {Role: RoleArtDirector, Name: "Art Director", RequiredSkill: SkillGraphics, MinSkill: 7, Cost: 10000, SalaryFactor: 1.5, Bonus: SpecialistBonus{Graphics: 0.2}},
			RoleSoundLead:      {Role: RoleSoundLead, Name: "Sound Lead", RequiredSkill: SkillSound, MinSkill: 7, Cost: 8000, SalaryFactor: 1.4, Bonus: SpecialistBonus{Sound: 0.2}},
			RoleLeadDesigner:   {Role: RoleLeadDesigner, Name: "Lead Designer", RequiredSkill: SkillCreativity, MinSkill: 7, Cost: 12000, SalaryFactor: 1.6, Bonus: SpecialistBonus{Creativity: 0.15, Fun: 0.1}},
			RoleMarketingGuru:  {Role: RoleMarketingGuru, Name: "Marketing Guru", RequiredSkill: SkillMarketing, MinSkill: 6, Cost: 8000, SalaryFactor: 1.3, Bonus: SpecialistBonus{MarketingEffectiveness: 0.2}},
			RoleSpeedDemon:     {Role: RoleSpeedDemon, Name: "Speed Demon", RequiredSkill: SkillSpeed, MinSkill: 8, Cost: 9000, SalaryFactor: 1.4, Bonus: SpecialistBonus{Speed: 0.2}},
		},
		Awards: []AwardSpec{
			{ID: "goty", Category: AwardGameOfTheYear, Name: "Game of the Year", Prize: 50000, Reputation: 20},
			{ID: "best_seller", Category: AwardBestSeller, Name: "Best Seller", Prize: 25000, Reputation: 10},
			{ID: "best_graphics", Category: AwardBestGraphics, Name: "Best Graphics", Prize: 10000, Reputation: 5},
			{ID: "best_sound", Category: AwardBestSound, Name: "Best Sound", Prize: 10000, Reputation: 5},
			{ID: "best_creativity", Category: AwardBestCreativity, Name: "Most Creative", Prize: 10000, Reputation: 5},
			{ID: "best_rpg", Category: AwardBestGenre, Name: "Best RPG", Prize: 15000, Reputation: 8, GenreID: "g1"},
			{ID: "hall_of_fame", Category: AwardHallOfFame, Name: "Hall of Fame", Reputation: 25},
		},
		StaffNames:        []string{"Mina", "Joon"},
		FranchisePrefixes: []string{"Legend of"},
		FranchiseSuffixes: []string{"Saga"},
	}
}

func testSeed() Seed {
	return Seed{
		Genres: []Genre{
			{ID: "g1", Name: "RPG", ResearchCost: 200, ResearchLevel: 1, MaxResearchLevel: 7, BaseFun: 20, BaseInnovation: 15},
			{ID: "g2", Name: "Action", ResearchCost: 300, MaxResearchLevel: 5, BaseFun: 15, BaseInnovation: 10},
		},
		Themes: []Theme{
			{ID: "t1", Name: "Fantasy", ResearchCost: 150, ResearchLevel: 1, MaxResearchLevel: 7, Multipliers: map[string]float64{"creativity": 1.2, "graphics": 1.1}},
			{ID: "t2", Name: "Sci-Fi", ResearchCost: 250, MaxResearchLevel: 5, Multipliers: map[string]float64{"programming": 1.1}},
		},
		Platforms: []Platform{
			{ID: "p1", Name: "Arcade", MarketShare: 0.7, LicenseCost: 1500, ResearchCost: 375, ReleaseYear: 1980, ResearchLevel: 1, MaxResearchLevel: 3},
			{ID: "p2", Name: "Home Console", MarketShare: 0.5, LicenseCost: 4000, ResearchCost: 1000, ReleaseYear: 1983, MaxResearchLevel: 3},
		},
		Engines: []GameEngine{
			{ID: "e1", Name: "Basic RPG Engine", ResearchCost: 5000, DevMonths: 3, MaxResearchLevel: 3, Benefits: EngineBenefits{Fun: 0.05, Innovation: 0.05, BugReduction: 0.9}},
		},
		Upgrades: []OfficeUpgrade{
			{ID: "coffee", Name: "Coffee Machine", Tiers: []UpgradeTier{
				{Level: 1, Name: "Drip", Cost: 5000, Effects: OfficeEffects{EnergyRecoveryBoost: 2}},
				{Level: 2, Name: "Espresso", Cost: 15000, Effects: OfficeEffects{EnergyRecoveryBoost: 4, MaxEnergyBoost: 10}},
			}},
			{ID: "qa", Name: "QA Lab", Tiers: []UpgradeTier{
				{Level: 1, Name: "Test Bench", Cost: 8000, Effects: OfficeEffects{BugReduction: 0.9}},
			}},
		},
		Rivals: []Competitor{
			{ID: "comp1", Name: "Pixel Forge", Funds: 100000, Reputation: 30, Skill: 5, PreferredGenres: []string{"g1"}, PreferredThemes: []string{"t1"}},
		},
		Staff: []StaffMember{
			{Name: "Alice", Skills: Skills{Programming: 5, Graphics: 3, Sound: 2, Creativity: 4, Marketing: 1, Speed: 5}},
			{Name: "Bob", Skills: Skills{Programming: 2, Graphics: 5, Sound: 4, Creativity: 6, Marketing: 2, Speed: 4}},
		},
	}
}

func newTestSim(rng Rand) *Simulator {
	return NewSimulator(testRules(), rng).WithIDs(seqIDs())
}

func newTestCompany(t *testing.T) Company {
	t.Helper()
	c := NewCompany("c1", "Test Studio", testSeed())
	for i := range c.Staff {
		c.Staff[i].ID = fmt.Sprintf("s%d", i+1)
	}
	return c
}

func mustApply(t *testing.T, s *Simulator, c Company, cmd Command) Company {
	t.Helper()
	next, err := s.Apply(c, cmd)
	if err != nil {
		t.Fatalf("apply %s: %v", cmd.Kind(), err)
	}
	return next
}
