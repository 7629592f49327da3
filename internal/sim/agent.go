package sim

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// CycleReport describes one delegation cycle: the action the agent chose
// (if any), why it did or did not stick, and the month that followed.
type CycleReport struct {
	Action     string     `json:"action,omitempty"`
	ActionNote string     `json:"action_note,omitempty"`
	Rejected   string     `json:"rejected,omitempty"`
	Tick       TickReport `json:"tick"`
}

// RunDelegationCycle lets the agent take at most one action and then always
// advances exactly one month. A chosen action that fails validation is
// dropped; the month still advances.
func (s *Simulator) RunDelegationCycle(c Company) (Company, CycleReport) {
	var rep CycleReport
	if c.GameOver {
		next, tick := s.Advance(c)
		rep.Tick = tick
		return next, rep
	}
	if cmd, ok := s.Decide(c); ok {
		rep.Action = cmd.Kind()
		next, err := s.Apply(c, cmd)
		if err != nil {
			rep.Rejected = err.Error()
		} else {
			c = next
			if len(c.Notifications) > 0 {
				rep.ActionNote = c.Notifications[0]
			}
		}
	}
	next, tick := s.Advance(c)
	rep.Tick = tick
	return next, rep
}

// Decide walks the priority list and returns the first applicable action.
func (s *Simulator) Decide(c Company) (Command, bool) {
	salaries := float64(c.TotalSalaries())
	funds := float64(c.Funds)
	idle := c.idleStaff()

	if c.Project == nil && len(idle) > 0 {
		if cmd, ok := s.decideProject(c, idle, funds, salaries); ok {
			return cmd, true
		}
	}
	if cmd, ok := s.decideHire(c, idle, funds, salaries); ok {
		return cmd, true
	}
	if c.EngineBuild == nil && c.Project == nil && len(idle) >= MaxEngineStaff-1 {
		if cmd, ok := decideEngineBuild(c, idle, funds, salaries); ok {
			return cmd, true
		}
	}
	if c.Research == nil {
		if cmd, ok := decideResearch(c, funds, salaries); ok {
			return cmd, true
		}
	}
	if cmd, ok := decideUpgrade(c, funds, salaries); ok {
		return cmd, true
	}
	return nil, false
}

var projectSpecialists = []SpecialistRole{
	RoleLeadDesigner, RoleLeadProgrammer, RoleArtDirector, RoleSoundLead, RoleSpeedDemon,
}

func (s *Simulator) decideProject(c Company, idle []StaffMember, funds, salaries float64) (Command, bool) {
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
	var platform *Platform
	for i := range c.Platforms {
		p := c.Platforms[i]
		if p.ResearchLevel <= 0 || p.ReleaseYear > c.Year {
			continue
		}
		if funds <= float64(p.LicenseCost)+math.Max(8000, salaries*0.5) {
			continue
		}
		if platform == nil || p.MarketShare > platform.MarketShare {
			platform = &p
		}
	}
	minFunds := math.Max(30000, salaries*2+10000)
	if len(genres) == 0 || len(themes) == 0 || platform == nil || funds <= minFunds {
		return nil, false
	}

	genre := pick(s.rng, genres)
	theme := pick(s.rng, themes)

	var engine *GameEngine
	bestScore := math.Inf(-1)
	for i := range c.Engines {
		e := c.Engines[i]
		if e.Status != EngineAvailable {
			continue
		}
		if sc := scoreEngine(e, genre); sc > bestScore {
			engine, bestScore = &e, sc
		}
	}

	count := min(max(1, int(math.Floor(float64(len(idle))*0.7))), MaxEngineStaff+1, len(idle))
	var ids []string
	for _, role := range projectSpecialists {
		if len(ids) >= count {
			break
		}
		for _, m := range idle {
			if m.Role == role && !containsID(ids, m.ID) {
				ids = append(ids, m.ID)
				break
			}
		}
	}
	rest := make([]StaffMember, 0, len(idle))
	for _, m := range idle {
		if !containsID(ids, m.ID) {
			rest = append(rest, m)
		}
	}
	sort.SliceStable(rest, func(i, j int) bool { return craftScore(rest[i]) > craftScore(rest[j]) })
	for _, m := range rest {
		if len(ids) >= count {
			break
		}
		ids = append(ids, m.ID)
	}

	remaining := funds - float64(platform.LicenseCost)
	budget := math.Max(1000, math.Floor(math.Min(remaining*0.18, 20000)))
	if remaining <= budget+salaries*1.2 {
		return nil, false
	}
	cmd := StartProject{
		Name:       fmt.Sprintf("CPU %s-%s %d", prefix(genre.Name, 3), prefix(theme.Name, 3), len(c.Released)+1),
		GenreID:    genre.ID,
		ThemeID:    theme.ID,
		PlatformID: platform.ID,
		Budget:     int64(budget),
		StaffIDs:   ids,
	}
	if engine != nil {
		cmd.EngineID = engine.ID
	}
	return cmd, true
}

func craftScore(m StaffMember) float64 {
	k := m.Skills
	return float64(k.Programming+k.Graphics+k.Sound+k.Creativity) + float64(k.Speed)*0.75
}

// scoreEngine weighs an engine's benefits toward review quality, with small
// bonuses for engines that fit the genre.
func scoreEngine(e GameEngine, genre Genre) float64 {
	b := e.Benefits
	score := b.Fun*20 + b.Innovation*25 + b.Creativity*15 + (1-b.bugFactor())*30 +
		b.Programming*10 + b.Graphics*10 + b.Sound*10 + b.Speed*5
	g, n := strings.ToLower(genre.Name), strings.ToLower(e.Name)
	if strings.Contains(g, "rpg") && strings.Contains(n, "rpg") {
		score += 10
	}
	if strings.Contains(g, "simulation") && strings.Contains(n, "sim") {
		score += 10
	}
	if strings.Contains(g, "action") && strings.Contains(n, "gfx") {
		score += 5
	}
	return score
}

func (s *Simulator) decideHire(c Company, idle []StaffMember, funds, salaries float64) (Command, bool) {
	n := len(c.Staff)
	var target int
	switch {
	case n < 2:
		target = 0
	case n < 4:
		target = 1
	default:
		target = max(1, int(math.Floor(float64(n)*0.2)))
	}
	if !(n < 2 || (n < MaxStaffCount && len(idle) <= target)) {
		return nil, false
	}
	guess := float64(BaseStaffSalary + 6*5*SalaryPerSkill)
	if funds <= salaries*2.5+guess*3.5 {
		return nil, false
	}
	return s.Candidate(c), true
}

// Candidate rolls one applicant whose name does not clash with the roster.
func (s *Simulator) Candidate(c Company) Hire {
	n := len(c.Staff)
	skills := Skills{
		Programming: s.rng.Intn(6) + 2,
		Graphics:    s.rng.Intn(6) + 2,
		Sound:       s.rng.Intn(6) + 2,
		Creativity:  s.rng.Intn(6) + 2,
		Marketing:   s.rng.Intn(5) + 1,
		Speed:       s.rng.Intn(7) + 2,
	}
	name := fmt.Sprintf("Recruit %d", n+1)
	if len(s.rules.StaffNames) > 0 {
		name = pick(s.rng, s.rules.StaffNames)
		for _, m := range c.Staff {
			if m.Name == name {
				name = fmt.Sprintf("%s %d", name, n+1)
				break
			}
		}
	}
	return Hire{Name: name, Skills: skills}
}

// Candidates returns n applicants for the hiring screen.
func (s *Simulator) Candidates(c Company, n int) []Hire {
	out := make([]Hire, 0, n)
	for range n {
		out = append(out, s.Candidate(c))
	}
	return out
}

func decideEngineBuild(c Company, idle []StaffMember, funds, salaries float64) (Command, bool) {
	if funds <= salaries*3+25000 {
		return nil, false
	}
	var ref Genre
	for _, g := range c.Genres {
		if g.ResearchLevel > 0 {
			ref = g
			break
		}
	}
	var target *GameEngine
	bestScore := math.Inf(-1)
	for i := range c.Engines {
		e := c.Engines[i]
		if e.ResearchLevel <= 0 || e.Status != EngineLocked {
			continue
		}
		if sc := scoreEngine(e, ref); sc > bestScore {
			target, bestScore = &e, sc
		}
	}
	if target == nil {
		return nil, false
	}
	crew := append([]StaffMember(nil), idle...)
	sort.SliceStable(crew, func(i, j int) bool {
		return crew[i].Skills.Programming+crew[i].Skills.Speed > crew[j].Skills.Programming+crew[j].Skills.Speed
	})
	ids := make([]string, 0, MaxEngineStaff)
	for _, m := range crew[:min(MaxEngineStaff, len(crew))] {
		ids = append(ids, m.ID)
	}
	return StartEngineBuild{EngineID: target.ID, StaffIDs: ids}, true
}

type researchCandidate struct {
	kind     ResearchKind
	id       string
	cost     int64
	priority float64
	level    int
}

func decideResearch(c Company, funds, salaries float64) (Command, bool) {
	if funds <= salaries*2+10000 {
		return nil, false
	}
	var cands []researchCandidate
	add := func(kind ResearchKind, id string, base int64, level int, priority float64) {
		cost := base * int64(level+1)
		if funds > float64(cost)+salaries {
			cands = append(cands, researchCandidate{kind: kind, id: id, cost: cost, priority: priority, level: level})
		}
	}
	for _, p := range c.Platforms {
		if p.ResearchLevel < p.MaxResearchLevel && p.ReleaseYear <= c.Year {
			add(ResearchPlatform, p.ID, platformResearchBase(p), p.ResearchLevel, 1)
		}
	}
	for _, e := range c.Engines {
		if e.ResearchLevel < e.MaxResearchLevel {
			b := e.Benefits
			quality := b.Innovation*2 + (1-b.bugFactor())*2 + b.Fun
			add(ResearchEngineBlueprint, e.ID, e.ResearchCost, e.ResearchLevel, 0.5-quality)
		}
	}
	for _, g := range c.Genres {
		if g.ResearchLevel < g.MaxResearchLevel {
			add(ResearchGenre, g.ID, g.ResearchCost, g.ResearchLevel, 3)
		}
	}
	for _, t := range c.Themes {
		if t.ResearchLevel < t.MaxResearchLevel {
			add(ResearchTheme, t.ID, t.ResearchCost, t.ResearchLevel, 4)
		}
	}
	if len(cands) == 0 {
		return nil, false
	}
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		if a.level != b.level {
			return a.level < b.level
		}
		return a.cost < b.cost
	})
	top := cands[0]
	return StartResearch{ItemKind: top.kind, ItemID: top.id}, true
}

func decideUpgrade(c Company, funds, salaries float64) (Command, bool) {
	if funds <= salaries*4+50000 {
		return nil, false
	}
	var (
		choice *BuyUpgrade
		cost   int64
	)
	for _, u := range c.Upgrades {
		if u.CurrentLevel >= len(u.Tiers) {
			continue
		}
		next := u.Tiers[u.CurrentLevel]
		if funds < float64(next.Cost)+salaries*2 {
			continue
		}
		if choice == nil || next.Cost < cost {
			choice = &BuyUpgrade{UpgradeID: u.ID, Level: u.CurrentLevel + 1}
			cost = next.Cost
		}
	}
	if choice == nil {
		return nil, false
	}
	return *choice, true
}
