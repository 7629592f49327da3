package sim

import (
	"fmt"
	"math"
)

const (
	genrePointsPerLevel     = 2.0
	themeMultiplierPerLevel = 0.02
	platformLicenseFactor   = 0.99
	platformShareStep       = 0.005
	engineMonthsPerLevel    = 0.25
	engineBenefitStep       = 0.005
)

// applyResearch tries to complete the pending research target. If the item
// is missing or already maxed the target stays pending and nothing changes.
func applyResearch(c *Company) []string {
	t := c.Research
	if t == nil {
		return nil
	}
	var name string
	var level int
	switch t.Kind {
	case ResearchGenre:
		i := c.genreIndex(t.ItemID)
		if i < 0 || c.Genres[i].ResearchLevel >= c.Genres[i].MaxResearchLevel {
			return nil
		}
		g := c.Genres[i]
		g.ResearchLevel++
		g.BaseFun += genrePointsPerLevel
		g.BaseInnovation += genrePointsPerLevel
		c.Genres[i] = g
		name, level = g.Name, g.ResearchLevel
	case ResearchTheme:
		i := c.themeIndex(t.ItemID)
		if i < 0 || c.Themes[i].ResearchLevel >= c.Themes[i].MaxResearchLevel {
			return nil
		}
		th := c.Themes[i].Clone()
		th.ResearchLevel++
		for k, v := range th.Multipliers {
			th.Multipliers[k] = v + themeMultiplierPerLevel
		}
		c.Themes[i] = th
		name, level = th.Name, th.ResearchLevel
	case ResearchPlatform:
		i := c.platformIndex(t.ItemID)
		if i < 0 || c.Platforms[i].ResearchLevel >= c.Platforms[i].MaxResearchLevel {
			return nil
		}
		p := c.Platforms[i]
		p.ResearchLevel++
		if p.ResearchLevel > 1 {
			p.LicenseCost = int64(math.Floor(float64(p.LicenseCost) * platformLicenseFactor))
			p.MarketShare = math.Min(1, p.MarketShare+platformShareStep)
		}
		c.Platforms[i] = p
		name, level = p.Name, p.ResearchLevel
	case ResearchEngineBlueprint:
		i := c.engineIndex(t.ItemID)
		if i < 0 || c.Engines[i].ResearchLevel >= c.Engines[i].MaxResearchLevel {
			return nil
		}
		e := c.Engines[i]
		e.ResearchLevel++
		if e.ResearchLevel == 1 {
			e.Status = EngineLocked
		} else {
			e.DevMonths = math.Max(1, e.DevMonths-engineMonthsPerLevel)
			if e.Benefits.Fun > 0 {
				e.Benefits.Fun += engineBenefitStep
			} else {
				e.Benefits.Speed += engineBenefitStep
			}
		}
		c.Engines[i] = e
		name, level = e.Name, e.ResearchLevel
	default:
		return nil
	}
	c.Research = nil
	return []string{fmt.Sprintf("Research complete: %s reached level %d.", name, level)}
}

// engineBuildMonths is the construction time for an engine at its current
// blueprint level.
func engineBuildMonths(e GameEngine) float64 {
	if e.ResearchLevel > 1 {
		return math.Max(1, e.DevMonths-float64(e.ResearchLevel-1)*engineMonthsPerLevel)
	}
	return e.DevMonths
}

func stepEngineBuild(c *Company, fx OfficeEffects) []string {
	if c.EngineBuild == nil {
		return nil
	}
	b := *c.EngineBuild
	b.Staff = append([]string(nil), b.Staff...)
	i := c.engineIndex(b.EngineID)
	if i < 0 {
		c.EngineBuild = nil
		return []string{fmt.Sprintf("Engine %s is missing from the catalog; build cancelled.", b.EngineID)}
	}
	b.MonthsSpent++
	e := c.Engines[i]
	required := engineBuildMonths(e)
	if float64(b.MonthsSpent) < required {
		c.EngineBuild = &b
		return []string{fmt.Sprintf("Engine %q build: %d/%.2f months.", e.Name, b.MonthsSpent, required)}
	}
	e.Status = EngineAvailable
	c.Engines[i] = e
	maxEnergy := fx.MaxEnergy()
	for j, m := range c.Staff {
		if containsID(b.Staff, m.ID) {
			m.Status = StatusIdle
			m.Energy = math.Min(maxEnergy, m.Energy+EngineEnergyRebate)
			c.Staff[j] = m
		}
	}
	c.EngineBuild = nil
	return []string{fmt.Sprintf("Engine %q is ready to use!", e.Name)}
}
