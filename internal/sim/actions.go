package sim

import (
	"fmt"
	"math"
	"strings"
)

// Command is one player (or agent) action. The set is closed: every variant
// lives in this file.
type Command interface {
	Kind() string
	apply(s *Simulator, c *Company) (string, error)
}

// Apply validates and executes cmd. On failure the input snapshot is returned
// untouched together with the reason; on success the returned snapshot
// carries one new notification.
func (s *Simulator) Apply(in Company, cmd Command) (Company, error) {
	if in.GameOver {
		return in, fmt.Errorf("%s: %w", cmd.Kind(), ErrGameOver)
	}
	c := in.Clone()
	note, err := cmd.apply(s, &c)
	if err != nil {
		return in, err
	}
	return c.WithNotice(note), nil
}

type Hire struct {
	Name   string `json:"name"`
	Skills Skills `json:"skills"`
}

func (Hire) Kind() string { return "hire" }

func (h Hire) apply(s *Simulator, c *Company) (string, error) {
	if len(c.Staff) >= MaxStaffCount {
		return "", fmt.Errorf("hire %s: %w", h.Name, ErrRosterFull)
	}
	salary := SalaryFor(h.Skills)
	if c.Funds < salary*2 {
		return "", fmt.Errorf("hire %s needs $%d: %w", h.Name, salary*2, ErrInsufficientFunds)
	}
	fx := AggregateOfficeEffects(c.Upgrades)
	c.Staff = append(c.Staff, StaffMember{
		ID:     s.newID(),
		Name:   h.Name,
		Skills: h.Skills,
		Salary: salary,
		Energy: fx.MaxEnergy(),
		Status: StatusIdle,
	})
	c.Funds -= salary
	return fmt.Sprintf("%s joined the team (salary $%d).", h.Name, salary), nil
}

type StartProject struct {
	Name       string   `json:"name"`
	GenreID    string   `json:"genre_id"`
	ThemeID    string   `json:"theme_id"`
	PlatformID string   `json:"platform_id"`
	EngineID   string   `json:"engine_id,omitempty"`
	Budget     int64    `json:"budget"`
	StaffIDs   []string `json:"staff_ids"`
	SequelTo   string   `json:"sequel_to,omitempty"`
}

func (StartProject) Kind() string { return "start_project" }

func (p StartProject) apply(s *Simulator, c *Company) (string, error) {
	if c.Project != nil {
		return "", fmt.Errorf("start project: %w", ErrSlotBusy)
	}
	if len(p.StaffIDs) == 0 {
		return "", fmt.Errorf("start project: %w", ErrNoStaff)
	}
	if p.Budget < 0 {
		return "", fmt.Errorf("start project: negative budget: %w", ErrNotEligible)
	}
	gi, ti, pi := c.genreIndex(p.GenreID), c.themeIndex(p.ThemeID), c.platformIndex(p.PlatformID)
	if gi < 0 || ti < 0 || pi < 0 {
		return "", fmt.Errorf("start project: genre, theme or platform: %w", ErrNotFound)
	}
	if c.Genres[gi].ResearchLevel <= 0 || c.Themes[ti].ResearchLevel <= 0 || c.Platforms[pi].ResearchLevel <= 0 {
		return "", fmt.Errorf("start project: %w", ErrNotResearched)
	}
	platform := c.Platforms[pi]
	if platform.ReleaseYear > c.Year {
		return "", fmt.Errorf("start project: %s is not on the market yet: %w", platform.Name, ErrNotEligible)
	}
	if p.EngineID != "" {
		ei := c.engineIndex(p.EngineID)
		if ei < 0 {
			return "", fmt.Errorf("start project: engine %s: %w", p.EngineID, ErrNotFound)
		}
		if c.Engines[ei].Status != EngineAvailable {
			return "", fmt.Errorf("start project: engine %s is not built: %w", c.Engines[ei].Name, ErrNotEligible)
		}
	}

	fx := AggregateOfficeEffects(c.Upgrades)
	var (
		crew       []int
		totalSpeed float64
		guru       bool
	)
	for _, id := range p.StaffIDs {
		i := c.staffIndex(id)
		if i < 0 {
			return "", fmt.Errorf("start project: staff %s: %w", id, ErrNotFound)
		}
		m := c.Staff[i]
		if m.Status != StatusIdle {
			return "", fmt.Errorf("start project: %s: %w", m.Name, ErrStaffNotIdle)
		}
		if containsInt(crew, i) {
			continue
		}
		crew = append(crew, i)
		totalSpeed += effectiveSpeed(s.rules, m, fx)
		if m.Role == RoleMarketingGuru {
			guru = true
		}
	}

	cost := platform.LicenseCost + p.Budget
	if c.Funds < cost {
		return "", fmt.Errorf("start project needs $%d for license and marketing: %w", cost, ErrInsufficientFunds)
	}

	effectiveBudget := float64(p.Budget)
	if guru {
		if spec, ok := s.rules.specialist(RoleMarketingGuru); ok {
			effectiveBudget *= 1 + spec.Bonus.MarketingEffectiveness
		}
	}
	proj := GameProject{
		ID:                s.newID(),
		Name:              p.Name,
		GenreID:           p.GenreID,
		ThemeID:           p.ThemeID,
		PlatformID:        p.PlatformID,
		EngineID:          p.EngineID,
		Budget:            p.Budget,
		DevelopmentMonths: DevelopmentMonths(totalSpeed),
		Status:            ProjectPlanning,
		Hype:              effectiveBudget*HypePerMarketingUnit + fx.PassiveHype,
	}

	if p.SequelTo != "" {
		fi := -1
		for i, f := range c.Franchises {
			if f.LastGameID == p.SequelTo {
				fi = i
				break
			}
		}
		ri := c.releasedIndex(p.SequelTo)
		if fi < 0 || ri < 0 {
			return "", fmt.Errorf("start project: %s does not head a franchise: %w", p.SequelTo, ErrNotEligible)
		}
		prev := c.Released[ri]
		proj.Hype += prev.ReviewScore * SequelHypePerPoint
		proj.Points = Points{
			Fun:        prev.Points.Fun * SequelCarryoverFactor,
			Graphics:   prev.Points.Graphics * SequelCarryoverFactor,
			Sound:      prev.Points.Sound * SequelCarryoverFactor,
			Creativity: prev.Points.Creativity * SequelCarryoverFactor,
		}
		proj.SequelTo = p.SequelTo
		proj.FranchiseName = c.Franchises[fi].Name
		proj.SequelNumber = c.Franchises[fi].GamesInSeries + 1
	}

	for _, i := range crew {
		proj.AssignedStaff = append(proj.AssignedStaff, c.Staff[i].ID)
		c.Staff[i].Status = StatusWorking
	}
	c.Funds -= cost
	c.Project = &proj
	return fmt.Sprintf("Started %q on %s (%d months).", proj.Name, platform.Name, proj.DevelopmentMonths), nil
}

// DevelopmentMonths is the planned length of a project for a crew whose
// effective speeds add up to totalSpeed.
func DevelopmentMonths(totalSpeed float64) int {
	base := float64(DevelopingMonths*10) / math.Max(1, totalSpeed)
	return int(math.Ceil(float64(PlanningMonths) + base + float64(PolishingMonths)))
}

type StartResearch struct {
	ItemKind ResearchKind `json:"kind"`
	ItemID   string       `json:"item_id"`
}

func (StartResearch) Kind() string { return "start_research" }

func (r StartResearch) apply(_ *Simulator, c *Company) (string, error) {
	if c.Research != nil {
		return "", fmt.Errorf("start research: %w", ErrSlotBusy)
	}
	name, level, maxLevel, cost, err := researchQuote(*c, r.ItemKind, r.ItemID)
	if err != nil {
		return "", fmt.Errorf("start research: %w", err)
	}
	if level >= maxLevel {
		return "", fmt.Errorf("start research: %s: %w", name, ErrMaxLevel)
	}
	if c.Funds < cost {
		return "", fmt.Errorf("researching %s needs $%d: %w", name, cost, ErrInsufficientFunds)
	}
	c.Funds -= cost
	c.Research = &ResearchTarget{Kind: r.ItemKind, ItemID: r.ItemID, TargetLevel: level + 1}
	return fmt.Sprintf("Started researching %s level %d ($%d).", name, level+1, cost), nil
}

// researchQuote prices the next level of an item at base × (level + 1).
func researchQuote(c Company, kind ResearchKind, id string) (name string, level, maxLevel int, cost int64, err error) {
	var base int64
	switch kind {
	case ResearchGenre:
		i := c.genreIndex(id)
		if i < 0 {
			return "", 0, 0, 0, fmt.Errorf("genre %s: %w", id, ErrNotFound)
		}
		g := c.Genres[i]
		name, level, maxLevel, base = g.Name, g.ResearchLevel, g.MaxResearchLevel, g.ResearchCost
	case ResearchTheme:
		i := c.themeIndex(id)
		if i < 0 {
			return "", 0, 0, 0, fmt.Errorf("theme %s: %w", id, ErrNotFound)
		}
		t := c.Themes[i]
		name, level, maxLevel, base = t.Name, t.ResearchLevel, t.MaxResearchLevel, t.ResearchCost
	case ResearchPlatform:
		i := c.platformIndex(id)
		if i < 0 {
			return "", 0, 0, 0, fmt.Errorf("platform %s: %w", id, ErrNotFound)
		}
		p := c.Platforms[i]
		if p.ReleaseYear > c.Year {
			return "", 0, 0, 0, fmt.Errorf("%s is not released until %d: %w", p.Name, p.ReleaseYear, ErrNotEligible)
		}
		name, level, maxLevel = p.Name, p.ResearchLevel, p.MaxResearchLevel
		base = platformResearchBase(p)
	case ResearchEngineBlueprint:
		i := c.engineIndex(id)
		if i < 0 {
			return "", 0, 0, 0, fmt.Errorf("engine %s: %w", id, ErrNotFound)
		}
		e := c.Engines[i]
		name, level, maxLevel, base = e.Name, e.ResearchLevel, e.MaxResearchLevel, e.ResearchCost
	default:
		return "", 0, 0, 0, fmt.Errorf("research kind %q: %w", kind, ErrNotEligible)
	}
	return name, level, maxLevel, base * int64(level+1), nil
}

func platformResearchBase(p Platform) int64 {
	if p.ResearchCost > 0 {
		return p.ResearchCost
	}
	return int64(math.Floor(float64(p.LicenseCost) / 2.5))
}

type StartTraining struct {
	StaffID string `json:"staff_id"`
	Skill   Skill  `json:"skill"`
}

func (StartTraining) Kind() string { return "start_training" }

func (t StartTraining) apply(_ *Simulator, c *Company) (string, error) {
	if !t.Skill.Valid() {
		return "", fmt.Errorf("training skill %q: %w", t.Skill, ErrNotEligible)
	}
	i := c.staffIndex(t.StaffID)
	if i < 0 {
		return "", fmt.Errorf("training: staff %s: %w", t.StaffID, ErrNotFound)
	}
	m := c.Staff[i]
	if m.Status != StatusIdle {
		return "", fmt.Errorf("training %s: %w", m.Name, ErrStaffNotIdle)
	}
	cost := TrainingCostPerMonth * TrainingMonths
	if c.Funds < cost {
		return "", fmt.Errorf("training needs $%d: %w", cost, ErrInsufficientFunds)
	}
	m.Status = StatusTraining
	m.TrainingSkill = t.Skill
	m.TrainingMonthsLeft = TrainingMonths
	c.Staff[i] = m
	c.Funds -= cost
	return fmt.Sprintf("%s started %s training (%d months).", m.Name, t.Skill, TrainingMonths), nil
}

type SendOnVacation struct {
	StaffID string `json:"staff_id"`
}

func (SendOnVacation) Kind() string { return "send_on_vacation" }

func (v SendOnVacation) apply(_ *Simulator, c *Company) (string, error) {
	i := c.staffIndex(v.StaffID)
	if i < 0 {
		return "", fmt.Errorf("vacation: staff %s: %w", v.StaffID, ErrNotFound)
	}
	m := c.Staff[i]
	if m.Status != StatusIdle {
		return "", fmt.Errorf("vacation for %s: %w", m.Name, ErrStaffNotIdle)
	}
	if c.Funds < VoluntaryVacationCost {
		return "", fmt.Errorf("vacation needs $%d: %w", VoluntaryVacationCost, ErrInsufficientFunds)
	}
	fx := AggregateOfficeEffects(c.Upgrades)
	m.Status = StatusOnVacation
	m.VacationMonthsLeft = VoluntaryVacationMonths
	m.Energy = math.Min(fx.MaxEnergy(), m.Energy+VacationStartBonus)
	c.Staff[i] = m
	c.Funds -= VoluntaryVacationCost
	return fmt.Sprintf("%s is off on vacation for %d month.", m.Name, VoluntaryVacationMonths), nil
}

type StartEngineBuild struct {
	EngineID string   `json:"engine_id"`
	StaffIDs []string `json:"staff_ids"`
}

func (StartEngineBuild) Kind() string { return "start_engine_build" }

func (b StartEngineBuild) apply(_ *Simulator, c *Company) (string, error) {
	if c.EngineBuild != nil {
		return "", fmt.Errorf("engine build: %w", ErrSlotBusy)
	}
	ei := c.engineIndex(b.EngineID)
	if ei < 0 {
		return "", fmt.Errorf("engine build: %s: %w", b.EngineID, ErrNotFound)
	}
	e := c.Engines[ei]
	if e.ResearchLevel <= 0 {
		return "", fmt.Errorf("engine build: %s: %w", e.Name, ErrNotResearched)
	}
	if e.Status != EngineLocked {
		return "", fmt.Errorf("engine build: %s is %s: %w", e.Name, e.Status, ErrNotEligible)
	}
	if len(b.StaffIDs) == 0 {
		return "", fmt.Errorf("engine build: %w", ErrNoStaff)
	}
	if len(b.StaffIDs) > MaxEngineStaff {
		return "", fmt.Errorf("engine build takes at most %d staff: %w", MaxEngineStaff, ErrNotEligible)
	}
	var crew []int
	for _, id := range b.StaffIDs {
		i := c.staffIndex(id)
		if i < 0 {
			return "", fmt.Errorf("engine build: staff %s: %w", id, ErrNotFound)
		}
		if c.Staff[i].Status != StatusIdle {
			return "", fmt.Errorf("engine build: %s: %w", c.Staff[i].Name, ErrStaffNotIdle)
		}
		if !containsInt(crew, i) {
			crew = append(crew, i)
		}
	}
	build := EngineBuild{EngineID: e.ID, Target: e}
	for _, i := range crew {
		c.Staff[i].Status = StatusDevelopingEngine
		build.Staff = append(build.Staff, c.Staff[i].ID)
	}
	e.Status = EngineDeveloping
	c.Engines[ei] = e
	c.EngineBuild = &build
	return fmt.Sprintf("Started building engine %q.", e.Name), nil
}

type CancelEngineBuild struct{}

func (CancelEngineBuild) Kind() string { return "cancel_engine_build" }

func (CancelEngineBuild) apply(_ *Simulator, c *Company) (string, error) {
	if c.EngineBuild == nil {
		return "", fmt.Errorf("cancel engine build: %w", ErrNotFound)
	}
	b := c.EngineBuild
	name := b.Target.Name
	if i := c.engineIndex(b.EngineID); i >= 0 {
		c.Engines[i].Status = EngineLocked
		name = c.Engines[i].Name
	}
	for i := range c.Staff {
		if containsID(b.Staff, c.Staff[i].ID) {
			c.Staff[i].Status = StatusIdle
		}
	}
	c.EngineBuild = nil
	return fmt.Sprintf("Engine %q build cancelled.", name), nil
}

type StartFranchise struct {
	GameID string `json:"game_id"`
}

func (StartFranchise) Kind() string { return "start_franchise" }

func (f StartFranchise) apply(s *Simulator, c *Company) (string, error) {
	i := c.releasedIndex(f.GameID)
	if i < 0 {
		return "", fmt.Errorf("franchise: game %s: %w", f.GameID, ErrNotFound)
	}
	g := c.Released[i]
	if !g.CanStartFranchise || g.IsFranchise || g.SequelTo != "" || g.ReviewScore < FranchiseMinScore {
		return "", fmt.Errorf("franchise: %q cannot start a series: %w", g.Name, ErrNotEligible)
	}
	parts := make([]string, 0, 3)
	if len(s.rules.FranchisePrefixes) > 0 {
		parts = append(parts, pick(s.rng, s.rules.FranchisePrefixes))
	}
	parts = append(parts, strings.TrimSpace(prefix(g.Name, 10)))
	if len(s.rules.FranchiseSuffixes) > 0 {
		parts = append(parts, pick(s.rng, s.rules.FranchiseSuffixes))
	}
	name := strings.Join(parts, " ")

	c.Franchises = append(c.Franchises, Franchise{
		ID:            g.ID,
		Name:          name,
		OriginGameID:  g.ID,
		LastGameID:    g.ID,
		LastGameScore: g.ReviewScore,
		GamesInSeries: 1,
		GenreID:       g.GenreID,
		ThemeID:       g.ThemeID,
	})
	g.IsFranchise = true
	g.CanStartFranchise = false
	g.FranchiseName = name
	g.SequelNumber = 1
	c.Released[i] = g
	return fmt.Sprintf("%q now anchors the %q franchise.", g.Name, name), nil
}

type AssignSpecialist struct {
	StaffID string         `json:"staff_id"`
	Role    SpecialistRole `json:"role"`
}

func (AssignSpecialist) Kind() string { return "assign_specialist" }

func (a AssignSpecialist) apply(s *Simulator, c *Company) (string, error) {
	spec, ok := s.rules.specialist(a.Role)
	if !a.Role.Valid() || !ok {
		return "", fmt.Errorf("specialist role %q: %w", a.Role, ErrNotFound)
	}
	i := c.staffIndex(a.StaffID)
	if i < 0 {
		return "", fmt.Errorf("specialist: staff %s: %w", a.StaffID, ErrNotFound)
	}
	m := c.Staff[i]
	if m.Role == a.Role {
		return fmt.Sprintf("%s already serves as %s.", m.Name, spec.Name), nil
	}
	for _, other := range c.Staff {
		if other.Role == a.Role {
			return "", fmt.Errorf("%s is held by %s: %w", spec.Name, other.Name, ErrRoleTaken)
		}
	}
	if m.Skills.Get(spec.RequiredSkill) < spec.MinSkill {
		return "", fmt.Errorf("%s needs %s %d: %w", spec.Name, spec.RequiredSkill, spec.MinSkill, ErrSkillTooLow)
	}
	if c.Funds < spec.Cost {
		return "", fmt.Errorf("%s costs $%d: %w", spec.Name, spec.Cost, ErrInsufficientFunds)
	}
	salary := float64(m.Salary)
	if old, ok := s.rules.specialist(m.Role); ok && old.SalaryFactor > 0 {
		salary = math.Round(salary / old.SalaryFactor)
	}
	if spec.SalaryFactor > 0 {
		salary = math.Round(salary * spec.SalaryFactor)
	}
	m.Salary = int64(salary)
	m.Role = a.Role
	m.MonthsInRole = 0
	c.Staff[i] = m
	c.Funds -= spec.Cost
	return fmt.Sprintf("%s is now %s (salary $%d).", m.Name, spec.Name, m.Salary), nil
}

type ClearSpecialist struct {
	StaffID string `json:"staff_id"`
}

func (ClearSpecialist) Kind() string { return "clear_specialist" }

func (a ClearSpecialist) apply(s *Simulator, c *Company) (string, error) {
	i := c.staffIndex(a.StaffID)
	if i < 0 {
		return "", fmt.Errorf("clear specialist: staff %s: %w", a.StaffID, ErrNotFound)
	}
	m := c.Staff[i]
	if m.Role == RoleNone {
		return "", fmt.Errorf("%s has no specialist role: %w", m.Name, ErrNotEligible)
	}
	if spec, ok := s.rules.specialist(m.Role); ok && spec.SalaryFactor > 0 {
		m.Salary = int64(math.Round(float64(m.Salary) / spec.SalaryFactor))
	}
	role := m.Role
	m.Role = RoleNone
	m.MonthsInRole = 0
	c.Staff[i] = m
	return fmt.Sprintf("%s is no longer %s.", m.Name, role), nil
}

type BuyUpgrade struct {
	UpgradeID string `json:"upgrade_id"`
	Level     int    `json:"level"`
}

func (BuyUpgrade) Kind() string { return "buy_upgrade" }

func (b BuyUpgrade) apply(_ *Simulator, c *Company) (string, error) {
	ui := -1
	for i := range c.Upgrades {
		if c.Upgrades[i].ID == b.UpgradeID {
			ui = i
			break
		}
	}
	if ui < 0 {
		return "", fmt.Errorf("upgrade %s: %w", b.UpgradeID, ErrNotFound)
	}
	u := c.Upgrades[ui]
	if u.CurrentLevel >= len(u.Tiers) {
		return "", fmt.Errorf("upgrade %s: %w", u.Name, ErrMaxLevel)
	}
	if b.Level != u.CurrentLevel+1 {
		return "", fmt.Errorf("upgrade %s: next tier is %d: %w", u.Name, u.CurrentLevel+1, ErrTierOrder)
	}
	tier := u.Tiers[u.CurrentLevel]
	if c.Funds < tier.Cost {
		return "", fmt.Errorf("%s %s costs $%d: %w", u.Name, tier.Name, tier.Cost, ErrInsufficientFunds)
	}
	u.CurrentLevel++
	c.Upgrades[ui] = u
	c.Funds -= tier.Cost
	return fmt.Sprintf("Bought %s: %s ($%d).", u.Name, tier.Name, tier.Cost), nil
}

type StartMarketingPush struct {
	GameID string `json:"game_id"`
}

func (StartMarketingPush) Kind() string { return "start_marketing_push" }

func (m StartMarketingPush) apply(_ *Simulator, c *Company) (string, error) {
	if c.Marketing != nil {
		return "", fmt.Errorf("marketing push: %w", ErrSlotBusy)
	}
	if c.Funds < MarketingPushCost {
		return "", fmt.Errorf("marketing push costs $%d: %w", MarketingPushCost, ErrInsufficientFunds)
	}
	var name string
	switch {
	case c.Project != nil && c.Project.ID == m.GameID:
		p := c.Project.Clone()
		p.Hype += MarketingPushInitial
		c.Project = &p
		name = p.Name
	default:
		i := c.releasedIndex(m.GameID)
		if i < 0 {
			return "", fmt.Errorf("marketing push: game %s: %w", m.GameID, ErrNotFound)
		}
		g := c.Released[i]
		age := (c.Year-g.ReleaseYear)*MonthsPerYear + (c.Month - g.ReleaseMonth)
		if age > MarketingPushWindow {
			return "", fmt.Errorf("marketing push: %q is %d months old: %w", g.Name, age, ErrNotEligible)
		}
		g.CurrentHype += MarketingPushInitial
		c.Released[i] = g
		name = g.Name
	}
	c.Marketing = &MarketingPush{
		TargetGameID:    m.GameID,
		TargetName:      name,
		MonthsLeft:      MarketingPushMonths,
		TotalMonths:     MarketingPushMonths,
		MonthlyHype:     MarketingPushMonthly,
		ReputationBoost: MarketingPushReputation,
	}
	c.Funds -= MarketingPushCost
	return fmt.Sprintf("Marketing push for %q started (%d months).", name, MarketingPushMonths), nil
}

type SetDelegation struct {
	Enabled bool `json:"enabled"`
}

func (SetDelegation) Kind() string { return "set_delegation" }

func (d SetDelegation) apply(_ *Simulator, c *Company) (string, error) {
	c.Delegation = d.Enabled
	if d.Enabled {
		return "Delegation mode on: the studio runs itself.", nil
	}
	return "Delegation mode off.", nil
}

func containsInt(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
