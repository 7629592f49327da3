package sim

import (
	"fmt"
	"math"
	"strings"
)

const unknownName = "unknown"

// stepRivals advances every competitor once. year and month are the calendar
// of the month being closed, so releases are dated before rollover.
func (s *Simulator) stepRivals(c *Company, year, month int) []string {
	var notes []string
	for i := range c.Rivals {
		r, rn := s.stepRival(c, c.Rivals[i].Clone(), year, month)
		c.Rivals[i] = r
		notes = append(notes, rn...)
	}
	return notes
}

func (s *Simulator) stepRival(c *Company, r Competitor, year, month int) (Competitor, []string) {
	var notes []string
	r.MonthsSinceRelease++

	if r.Project != nil {
		p := *r.Project
		p.MonthsSpent++
		r.Funds -= RivalDevCostPerSkill * int64(r.Skill)
		if p.MonthsSpent >= p.DevMonths {
			rel := s.rivalRelease(c, &r, p, year, month)
			notes = append(notes, fmt.Sprintf("%s released %q (score %.1f/10).", r.Name, rel.Name, rel.ReviewScore))
		} else {
			r.Project = &p
		}
	} else {
		r.Funds -= RivalIdleCostPerSkill * int64(r.Skill)
		s.maybeStartRivalProject(c, &r, year)
	}

	switch {
	case r.Funds < RivalDeepDebt:
		if s.rng.Float64() < RivalBailoutChance {
			r.Funds = int64(math.Floor(float64(InitialFunds) * 0.25))
			notes = append(notes, fmt.Sprintf("%s was bailed out (funds $%d).", r.Name, r.Funds))
		}
	case r.Funds < 0:
		if s.rng.Float64() < RivalRecoveryChance {
			r.Funds = min(0, r.Funds+int64(math.Floor(float64(InitialFunds)*0.1)))
			if r.Funds == 0 {
				notes = append(notes, fmt.Sprintf("%s narrowly avoided bankruptcy.", r.Name))
			}
		}
	}
	return r, notes
}

func (s *Simulator) rivalRelease(c *Company, r *Competitor, p RivalProject, year, month int) RivalRelease {
	genreName, themeName, platformName := unknownName, unknownName, unknownName
	if i := c.genreIndex(p.GenreID); i >= 0 {
		genreName = c.Genres[i].Name
	}
	if i := c.themeIndex(p.ThemeID); i >= 0 {
		themeName = c.Themes[i].Name
	}
	share := 0.1
	review := p.EstimatedQuality/10 + (s.rng.Float64()*2 - 1)
	if i := c.platformIndex(p.PlatformID); i >= 0 {
		platformName = c.Platforms[i].Name
		share = c.Platforms[i].MarketShare
		review += share*1.5 - 0.75
	}
	review = clamp(roundTenth(review), 1, 10)

	units := int64(math.Floor(p.EstimatedQuality * float64(r.Reputation) * share * (review / 5) * (s.rng.Float64()*0.4 + 0.8)))
	if units < 0 {
		units = 0
	}
	rel := RivalRelease{
		ID:           fmt.Sprintf("%s-%d-%02d", r.ID, year, month),
		Name:         p.Name,
		GenreID:      p.GenreID,
		GenreName:    genreName,
		ThemeName:    themeName,
		PlatformName: platformName,
		ReviewScore:  review,
		UnitsSold:    units,
		Revenue:      units * RivalUnitPrice,
		ReleaseYear:  year,
		ReleaseMonth: month,
	}
	r.History = append([]RivalRelease{rel}, r.History...)
	if len(r.History) > RivalHistoryCap {
		r.History = r.History[:RivalHistoryCap]
	}
	r.Funds += rel.Revenue

	switch {
	case review > 7:
		r.Reputation += RivalReputationGain
	case review < 4:
		r.Reputation--
	}
	r.Reputation = min(100, r.Reputation)
	if review > 7 && s.rng.Float64() < RivalSkillGainChance {
		r.Skill = min(10, r.Skill+1)
	}
	r.Project = nil
	r.MonthsSinceRelease = 0
	if review < 5 {
		r.FailureStreak++
	} else {
		r.FailureStreak = 0
	}
	return rel
}

// maybeStartRivalProject lets an idle rival pick up new work. Rivals only
// target content the player has already researched.
func (s *Simulator) maybeStartRivalProject(c *Company, r *Competitor, year int) {
	chance := RivalStartChance + float64(r.Skill)*0.02 - float64(r.FailureStreak)*0.015
	if r.Funds <= RivalMinFundsToStart || r.MonthsSinceRelease < RivalCooldownMonths || s.rng.Float64() >= chance {
		return
	}

	var platform *Platform
	for i := range c.Platforms {
		p := c.Platforms[i]
		if p.ResearchLevel <= 0 || p.ReleaseYear > year {
			continue
		}
		if platform == nil || p.MarketShare > platform.MarketShare {
			platform = &p
		}
	}
	var genres []Genre
	for _, g := range c.Genres {
		if g.ResearchLevel > 0 {
			genres = append(genres, g)
		}
	}
	var themes []Theme
	for _, t := range c.Themes {
		if t.ResearchLevel > 0 {
			themes = append(themes, t)
		}
	}
	if platform == nil || len(genres) == 0 || len(themes) == 0 {
		return
	}

	genre, ok := firstPreferred(genres, r.PreferredGenres, func(g Genre) string { return g.ID })
	if !ok {
		genre = pick(s.rng, genres)
	}
	theme, ok := firstPreferred(themes, r.PreferredThemes, func(t Theme) string { return t.ID })
	if !ok {
		theme = pick(s.rng, themes)
	}

	months := max(3, RivalBaseDevMonths-r.Skill)
	quality := clamp(float64(r.Skill)*10+genre.BaseFun*0.8+s.rng.Float64()*25-float64(r.FailureStreak)*1.5, 10, 100)
	cost := int64(float64(months) * float64(RivalDevCostPerSkill) * float64(r.Skill) * 0.2)
	if r.Funds <= cost+RivalMinFundsToStart/4 {
		return
	}
	r.Project = &RivalProject{
		Name:             fmt.Sprintf("%s's %s-%s Adventure %d", firstWord(r.Name), prefix(genre.Name, 3), prefix(theme.Name, 3), len(r.History)+1),
		GenreID:          genre.ID,
		ThemeID:          theme.ID,
		PlatformID:       platform.ID,
		DevMonths:        months,
		EstimatedQuality: quality,
	}
	r.Funds -= cost
}

func firstPreferred[T any](items []T, preferred []string, id func(T) string) (T, bool) {
	for _, it := range items {
		if containsID(preferred, id(it)) {
			return it, true
		}
	}
	var zero T
	return zero, false
}

func firstWord(s string) string {
	if f := strings.Fields(s); len(f) > 0 {
		return f[0]
	}
	return s
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
