package sim

type Skills struct {
	Programming int `json:"programming"`
	Graphics    int `json:"graphics"`
	Sound       int `json:"sound"`
	Creativity  int `json:"creativity"`
	Marketing   int `json:"marketing"`
	Speed       int `json:"speed"`
}

func (s Skills) Get(k Skill) int {
	switch k {
	case SkillProgramming:
		return s.Programming
	case SkillGraphics:
		return s.Graphics
	case SkillSound:
		return s.Sound
	case SkillCreativity:
		return s.Creativity
	case SkillMarketing:
		return s.Marketing
	case SkillSpeed:
		return s.Speed
	}
	return 0
}

func (s Skills) With(k Skill, v int) Skills {
	switch k {
	case SkillProgramming:
		s.Programming = v
	case SkillGraphics:
		s.Graphics = v
	case SkillSound:
		s.Sound = v
	case SkillCreativity:
		s.Creativity = v
	case SkillMarketing:
		s.Marketing = v
	case SkillSpeed:
		s.Speed = v
	}
	return s
}

func (s Skills) Sum() int {
	return s.Programming + s.Graphics + s.Sound + s.Creativity + s.Marketing + s.Speed
}

// SalaryFor is the base monthly salary of an unspecialised member.
func SalaryFor(s Skills) int64 {
	return BaseStaffSalary + int64(s.Sum())*SalaryPerSkill
}

type StaffMember struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Skills             Skills         `json:"skills"`
	Salary             int64          `json:"salary"`
	Energy             float64        `json:"energy"`
	Status             StaffStatus    `json:"status"`
	TrainingSkill      Skill          `json:"training_skill,omitempty"`
	TrainingMonthsLeft int            `json:"training_months_left"`
	VacationMonthsLeft int            `json:"vacation_months_left"`
	Role               SpecialistRole `json:"role,omitempty"`
	MonthsInRole       int            `json:"months_in_role"`
}

type Points struct {
	Fun        float64 `json:"fun"`
	Graphics   float64 `json:"graphics"`
	Sound      float64 `json:"sound"`
	Creativity float64 `json:"creativity"`
	Bugs       float64 `json:"bugs"`
}

func (p Points) add(o Points) Points {
	return Points{
		Fun:        p.Fun + o.Fun,
		Graphics:   p.Graphics + o.Graphics,
		Sound:      p.Sound + o.Sound,
		Creativity: p.Creativity + o.Creativity,
		Bugs:       p.Bugs + o.Bugs,
	}
}

type GameProject struct {
	ID                string        `json:"id"`
	Name              string        `json:"name"`
	GenreID           string        `json:"genre_id"`
	ThemeID           string        `json:"theme_id"`
	PlatformID        string        `json:"platform_id"`
	EngineID          string        `json:"engine_id,omitempty"`
	Budget            int64         `json:"budget"`
	DevelopmentMonths int           `json:"development_months"`
	MonthsSpent       int           `json:"months_spent"`
	Points            Points        `json:"points"`
	AssignedStaff     []string      `json:"assigned_staff"`
	Status            ProjectStatus `json:"status"`
	Hype              float64       `json:"hype"`
	SequelTo          string        `json:"sequel_to,omitempty"`
	FranchiseName     string        `json:"franchise_name,omitempty"`
	SequelNumber      int           `json:"sequel_number,omitempty"`
}

type ReleasedGame struct {
	GameProject
	ReleaseYear       int     `json:"release_year"`
	ReleaseMonth      int     `json:"release_month"`
	Quality           float64 `json:"quality"`
	ReviewScore       float64 `json:"review_score"`
	UnitsSold         int64   `json:"units_sold"`
	Revenue           int64   `json:"revenue"`
	CanStartFranchise bool    `json:"can_start_franchise"`
	IsFranchise       bool    `json:"is_franchise"`
	CurrentHype       float64 `json:"current_hype"`
}

type Genre struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	ResearchCost     int64   `json:"research_cost"`
	ResearchLevel    int     `json:"research_level"`
	MaxResearchLevel int     `json:"max_research_level"`
	BaseFun          float64 `json:"base_fun"`
	BaseInnovation   float64 `json:"base_innovation"`
}

type Theme struct {
	ID               string             `json:"id"`
	Name             string             `json:"name"`
	ResearchCost     int64              `json:"research_cost"`
	ResearchLevel    int                `json:"research_level"`
	MaxResearchLevel int                `json:"max_research_level"`
	Multipliers      map[string]float64 `json:"multipliers"`
}

type Platform struct {
	ID               string  `json:"id"`
	Name             string  `json:"name"`
	MarketShare      float64 `json:"market_share"`
	LicenseCost      int64   `json:"license_cost"`
	ResearchCost     int64   `json:"research_cost"`
	ReleaseYear      int     `json:"release_year"`
	ResearchLevel    int     `json:"research_level"`
	MaxResearchLevel int     `json:"max_research_level"`
}

// EngineBenefits fields are fractional boosts; BugReduction is a factor
// where 1 (or 0, meaning unset) has no effect.
type EngineBenefits struct {
	Speed        float64 `json:"speed,omitempty"`
	Fun          float64 `json:"fun,omitempty"`
	Graphics     float64 `json:"graphics,omitempty"`
	Sound        float64 `json:"sound,omitempty"`
	Creativity   float64 `json:"creativity,omitempty"`
	Innovation   float64 `json:"innovation,omitempty"`
	Programming  float64 `json:"programming,omitempty"`
	BugReduction float64 `json:"bug_reduction,omitempty"`
}

func (b EngineBenefits) bugFactor() float64 {
	if b.BugReduction <= 0 {
		return 1
	}
	return b.BugReduction
}

type GameEngine struct {
	ID               string         `json:"id"`
	Name             string         `json:"name"`
	ResearchCost     int64          `json:"research_cost"`
	DevMonths        float64        `json:"dev_months"`
	Benefits         EngineBenefits `json:"benefits"`
	ResearchLevel    int            `json:"research_level"`
	MaxResearchLevel int            `json:"max_research_level"`
	Status           EngineStatus   `json:"status,omitempty"`
}

type ResearchTarget struct {
	Kind        ResearchKind `json:"kind"`
	ItemID      string       `json:"item_id"`
	TargetLevel int          `json:"target_level"`
}

type EngineBuild struct {
	EngineID    string     `json:"engine_id"`
	Staff       []string   `json:"staff"`
	MonthsSpent int        `json:"months_spent"`
	Target      GameEngine `json:"target"`
}

type Franchise struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	OriginGameID  string  `json:"origin_game_id"`
	LastGameID    string  `json:"last_game_id"`
	LastGameScore float64 `json:"last_game_score"`
	GamesInSeries int     `json:"games_in_series"`
	GenreID       string  `json:"genre_id"`
	ThemeID       string  `json:"theme_id"`
}

// OfficeEffects is both a tier's effect bundle and the aggregate across
// upgrades. A zero BugReduction in a tier means "no effect".
type OfficeEffects struct {
	EnergyRecoveryBoost   float64 `json:"energy_recovery_boost"`
	MaxEnergyBoost        float64 `json:"max_energy_boost"`
	GlobalSpeedBoost      float64 `json:"global_speed_boost"`
	GlobalCreativityBoost float64 `json:"global_creativity_boost"`
	TrainingBoost         float64 `json:"training_boost"`
	PassiveHype           float64 `json:"passive_hype"`
	BugReduction          float64 `json:"bug_reduction"`
}

// MaxEnergy is the energy ceiling implied by the aggregated effects.
func (e OfficeEffects) MaxEnergy() float64 {
	return BaseMaxEnergy + e.MaxEnergyBoost
}

type UpgradeTier struct {
	Level   int           `json:"level"`
	Name    string        `json:"name"`
	Cost    int64         `json:"cost"`
	Effects OfficeEffects `json:"effects"`
}

type OfficeUpgrade struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	CurrentLevel int           `json:"current_level"`
	Tiers        []UpgradeTier `json:"tiers"`
}

type MarketingPush struct {
	TargetGameID    string  `json:"target_game_id"`
	TargetName      string  `json:"target_name"`
	MonthsLeft      int     `json:"months_left"`
	TotalMonths     int     `json:"total_months"`
	MonthlyHype     float64 `json:"monthly_hype"`
	ReputationBoost int     `json:"reputation_boost"`
}

type RivalProject struct {
	Name             string  `json:"name"`
	GenreID          string  `json:"genre_id"`
	ThemeID          string  `json:"theme_id"`
	PlatformID       string  `json:"platform_id"`
	DevMonths        int     `json:"dev_months"`
	MonthsSpent      int     `json:"months_spent"`
	EstimatedQuality float64 `json:"estimated_quality"`
}

type RivalRelease struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	GenreID      string  `json:"genre_id"`
	GenreName    string  `json:"genre_name"`
	ThemeName    string  `json:"theme_name"`
	PlatformName string  `json:"platform_name"`
	ReviewScore  float64 `json:"review_score"`
	UnitsSold    int64   `json:"units_sold"`
	Revenue      int64   `json:"revenue"`
	ReleaseYear  int     `json:"release_year"`
	ReleaseMonth int     `json:"release_month"`
}

type Competitor struct {
	ID                 string         `json:"id"`
	Name               string         `json:"name"`
	Funds              int64          `json:"funds"`
	Reputation         int            `json:"reputation"`
	Skill              int            `json:"skill"`
	PreferredGenres    []string       `json:"preferred_genres"`
	PreferredThemes    []string       `json:"preferred_themes"`
	Project            *RivalProject  `json:"project,omitempty"`
	History            []RivalRelease `json:"history"`
	MonthsSinceRelease int            `json:"months_since_release"`
	FailureStreak      int            `json:"failure_streak"`
}

type Award struct {
	SpecID     string        `json:"spec_id"`
	Category   AwardCategory `json:"category"`
	Name       string        `json:"name"`
	GameID     string        `json:"game_id"`
	GameName   string        `json:"game_name"`
	Year       int           `json:"year"`
	Prize      int64         `json:"prize"`
	Reputation int           `json:"reputation"`
	PlayerWon  bool          `json:"player_won"`
	RivalName  string        `json:"rival_name,omitempty"`
}

type FundsPoint struct {
	Year  int   `json:"year"`
	Month int   `json:"month"`
	Funds int64 `json:"funds"`
}

type Company struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Funds         int64           `json:"funds"`
	Year          int             `json:"year"`
	Month         int             `json:"month"`
	Staff         []StaffMember   `json:"staff"`
	Project       *GameProject    `json:"project,omitempty"`
	Released      []ReleasedGame  `json:"released"`
	Genres        []Genre         `json:"genres"`
	Themes        []Theme         `json:"themes"`
	Platforms     []Platform      `json:"platforms"`
	Engines       []GameEngine    `json:"engines"`
	Research      *ResearchTarget `json:"research,omitempty"`
	EngineBuild   *EngineBuild    `json:"engine_build,omitempty"`
	Upgrades      []OfficeUpgrade `json:"upgrades"`
	Reputation    int             `json:"reputation"`
	Awards        []Award         `json:"awards"`
	HallOfFame    []string        `json:"hall_of_fame"`
	Franchises    []Franchise     `json:"franchises"`
	Marketing     *MarketingPush  `json:"marketing,omitempty"`
	Delegation    bool            `json:"delegation"`
	GameOver      bool            `json:"game_over"`
	Notifications []string        `json:"notifications"`
	Rivals        []Competitor    `json:"rivals"`
}

func (c Company) TotalSalaries() int64 {
	var total int64
	for _, s := range c.Staff {
		total += s.Salary
	}
	return total
}

func (c Company) staffIndex(id string) int {
	for i := range c.Staff {
		if c.Staff[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) genreIndex(id string) int {
	for i := range c.Genres {
		if c.Genres[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) themeIndex(id string) int {
	for i := range c.Themes {
		if c.Themes[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) platformIndex(id string) int {
	for i := range c.Platforms {
		if c.Platforms[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) engineIndex(id string) int {
	for i := range c.Engines {
		if c.Engines[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) releasedIndex(id string) int {
	for i := range c.Released {
		if c.Released[i].ID == id {
			return i
		}
	}
	return -1
}

func (c Company) idleStaff() []StaffMember {
	out := make([]StaffMember, 0, len(c.Staff))
	for _, s := range c.Staff {
		if s.Status == StatusIdle {
			out = append(out, s)
		}
	}
	return out
}
