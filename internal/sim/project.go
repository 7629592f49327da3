package sim

import (
	"fmt"
	"math"
)

type axisBoost struct {
	fun, graphics, sound, creativity float64
	bugFactor                        float64
}

// specialistBoosts takes the largest bonus per axis among the given staff.
// Bonuses of different specialists never add up.
func specialistBoosts(rules Rules, staff []StaffMember) axisBoost {
	b := axisBoost{bugFactor: 1}
	for _, s := range staff {
		spec, ok := rules.specialist(s.Role)
		if !ok {
			continue
		}
		b.fun = math.Max(b.fun, spec.Bonus.Fun)
		b.graphics = math.Max(b.graphics, spec.Bonus.Graphics)
		b.sound = math.Max(b.sound, spec.Bonus.Sound)
		b.creativity = math.Max(b.creativity, spec.Bonus.Creativity)
		if spec.Bonus.BugReduction > 0 {
			b.bugFactor = math.Min(b.bugFactor, spec.Bonus.BugReduction)
		}
	}
	return b
}

// effectiveSpeed applies the office speed boost and the speed specialist's
// personal multiplier.
func effectiveSpeed(rules Rules, s StaffMember, fx OfficeEffects) float64 {
	speed := float64(s.Skills.Speed) * (1 + fx.GlobalSpeedBoost)
	if s.Role == RoleSpeedDemon {
		if spec, ok := rules.specialist(RoleSpeedDemon); ok {
			speed *= 1 + spec.Bonus.Speed
		}
	}
	return speed
}

func projectStage(spent, total int) ProjectStatus {
	switch {
	case spent < PlanningMonths:
		return ProjectPlanning
	case spent >= total-PolishingMonths:
		return ProjectPolishing
	default:
		return ProjectDeveloping
	}
}

// stepProject advances the active project on the working copy c. It returns
// the release when the project finished this month.
func (s *Simulator) stepProject(c *Company, fx OfficeEffects) (*ReleasedGame, []string) {
	if c.Project == nil || c.Project.Status == ProjectCompleted || c.Project.Status == ProjectReleased {
		return nil, nil
	}
	p := c.Project.Clone()
	p.MonthsSpent++

	var crew []StaffMember
	for _, m := range c.Staff {
		if m.Status == StatusWorking && containsID(p.AssignedStaff, m.ID) {
			crew = append(crew, m)
		}
	}

	var engine *GameEngine
	if i := c.engineIndex(p.EngineID); i >= 0 && c.Engines[i].Status == EngineAvailable {
		e := c.Engines[i]
		engine = &e
	}
	engineBenefits := EngineBenefits{}
	if engine != nil {
		engineBenefits = engine.Benefits
	}

	boost := specialistBoosts(s.rules, crew)
	bugChance := BugChance * engineBenefits.bugFactor() * boost.bugFactor * fx.BugReduction

	var month Points
	for _, m := range crew {
		perf := 1.0
		if m.Energy < LowEnergyLimit {
			perf = LowEnergyFactor
		}
		speedFactor := 1 + effectiveSpeed(s.rules, m, fx)*SpeedCoefficient
		creativity := float64(m.Skills.Creativity) * (1 + fx.GlobalCreativityBoost)
		scale := PointsPerSkill * perf * speedFactor

		month.Fun += (creativity + float64(m.Skills.Programming)) * scale
		month.Graphics += float64(m.Skills.Graphics) * scale
		month.Sound += float64(m.Skills.Sound) * scale
		month.Creativity += creativity * scale
		if s.rng.Float64() < bugChance {
			month.Bugs += BugsPerEvent
		}
	}
	month.Fun *= 1 + boost.fun + engineBenefits.Fun
	month.Graphics *= 1 + boost.graphics + engineBenefits.Graphics
	month.Sound *= 1 + boost.sound + engineBenefits.Sound
	month.Creativity *= 1 + boost.creativity + engineBenefits.Creativity

	p.Points = p.Points.add(month)
	if p.Points.Bugs < 0 {
		p.Points.Bugs = 0
	}
	p.Hype = math.Max(0, p.Hype-HypeDecay+fx.PassiveHype)

	if p.MonthsSpent < p.DevelopmentMonths {
		p.Status = projectStage(p.MonthsSpent, p.DevelopmentMonths)
		c.Project = &p
		return nil, []string{fmt.Sprintf("%q progress: month %d/%d.", p.Name, p.MonthsSpent, p.DevelopmentMonths)}
	}

	rel := s.release(c, p, engine)
	maxEnergy := fx.MaxEnergy()
	for i, m := range c.Staff {
		if containsID(p.AssignedStaff, m.ID) {
			m.Status = StatusIdle
			m.Energy = math.Min(maxEnergy, m.Energy+ProjectEnergyRebate)
			c.Staff[i] = m
		}
	}
	c.Project = nil
	return &rel, []string{fmt.Sprintf("%q released! Score %.1f/10, %d units sold, revenue $%d.", rel.Name, rel.ReviewScore, rel.UnitsSold, rel.Revenue)}
}

// release scores the finished project, credits revenue and updates
// franchise bookkeeping.
func (s *Simulator) release(c *Company, p GameProject, engine *GameEngine) ReleasedGame {
	quality := (p.Points.Fun + p.Points.Graphics + p.Points.Sound + p.Points.Creativity) / 4
	if i := c.genreIndex(p.GenreID); i >= 0 {
		quality += c.Genres[i].BaseFun + c.Genres[i].BaseInnovation
	}
	if engine != nil {
		quality += engine.Benefits.Innovation * EngineInnovationScale
	}
	quality -= p.Points.Bugs * BugPenalty
	quality = clamp(quality, 0, 1000)

	review := roundTenth(clamp(quality/100+p.Hype/40+(s.rng.Float64()*1.2-0.6), 1, 10))

	share := 0.0
	if i := c.platformIndex(p.PlatformID); i >= 0 {
		share = c.Platforms[i].MarketShare
	}
	units := int64(math.Floor(quality * 100 * share * (1 + p.Hype/100) * (1 + float64(p.Budget)/10000)))
	revenue := int64(math.Floor(float64(units) * (6 + quality/100)))
	c.Funds += revenue

	p.Status = ProjectReleased
	rel := ReleasedGame{
		GameProject:       p,
		ReleaseYear:       c.Year,
		ReleaseMonth:      c.Month,
		Quality:           quality,
		ReviewScore:       review,
		UnitsSold:         units,
		Revenue:           revenue,
		CanStartFranchise: review >= FranchiseMinScore && p.SequelTo == "",
		IsFranchise:       p.FranchiseName != "",
		CurrentHype:       p.Hype,
	}
	c.Released = append(c.Released, rel)

	if p.SequelTo != "" && p.FranchiseName != "" {
		for i, f := range c.Franchises {
			if f.Name != p.FranchiseName {
				continue
			}
			f.LastGameID = rel.ID
			f.LastGameScore = rel.ReviewScore
			f.GamesInSeries = max(p.SequelNumber, 1)
			c.Franchises[i] = f
		}
	}
	return rel
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}
