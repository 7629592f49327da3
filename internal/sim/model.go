// Package sim holds the monthly tick core of the studio simulation. Every
// exported stepping function takes a Company snapshot and returns the next
// one; nothing in this package performs I/O or keeps ambient state.
package sim

import "errors"

const (
	InitialFunds     = int64(84_000)
	InitialYear      = 1980
	MonthsPerYear    = 12
	NotificationCap  = 7
	MaxStaffCount    = 8
	MaxEngineStaff   = 3
	BaseStaffSalary  = int64(500)
	SalaryPerSkill   = int64(50)
	BaseMaxEnergy    = 100.0
	IdleRecovery     = 4.0
	WorkDrain        = 7.0
	BurnoutThreshold = 10.0
	LowEnergyLimit   = 30.0
	LowEnergyFactor  = 0.6

	ForcedVacationMonths    = 2
	VoluntaryVacationMonths = 1
	VacationRecovery        = 35.0
	VoluntaryVacationCost   = int64(3_000)
	VacationStartBonus      = 10.0

	TrainingCostPerMonth  = int64(2_000)
	TrainingMonths        = 3
	TrainingBaseIncrease  = 2.0
	TrainingEnergyBonus   = 10.0
	ProjectEnergyRebate   = 20.0
	EngineEnergyRebate    = 15.0
	PointsPerSkill        = 2.5
	SpeedCoefficient      = 0.05
	BugChance             = 0.18
	BugsPerEvent          = 4.0
	BugPenalty            = 1.2
	HypePerMarketingUnit  = 0.0012
	HypeDecay             = 4.0
	PlanningMonths        = 1
	DevelopingMonths      = 3
	PolishingMonths       = 1
	EngineInnovationScale = 50.0

	FranchiseMinScore     = 7.0
	SequelHypePerPoint    = 5.0
	SequelCarryoverFactor = 0.10
	HallOfFameScore       = 9.0

	MarketingPushCost       = int64(30_000)
	MarketingPushMonths     = 3
	MarketingPushInitial    = 18.0
	MarketingPushMonthly    = 8.0
	MarketingPushReputation = 10
	MarketingPushWindow     = 6

	RivalHistoryCap       = 5
	RivalBaseDevMonths    = 12
	RivalMinFundsToStart  = int64(25_000)
	RivalIdleCostPerSkill = int64(600)
	RivalDevCostPerSkill  = int64(1_200)
	RivalUnitPrice        = int64(25)
	RivalCooldownMonths   = 0
	RivalReputationGain   = 5
	RivalSkillGainChance  = 0.45
	RivalStartChance      = 0.80
	RivalDeepDebt         = int64(-20_000)
	RivalBailoutChance    = 0.15
	RivalRecoveryChance   = 0.08

	GameOverDebt = int64(25_000)
)

var (
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStaffNotIdle      = errors.New("staff member is not idle")
	ErrNoStaff           = errors.New("no staff assigned")
	ErrSlotBusy          = errors.New("another one is already in progress")
	ErrNotResearched     = errors.New("item not researched")
	ErrNotFound          = errors.New("not found")
	ErrRosterFull        = errors.New("staff roster is full")
	ErrGameOver          = errors.New("company is bankrupt")
	ErrRoleTaken         = errors.New("specialist role already filled")
	ErrSkillTooLow       = errors.New("skill below role requirement")
	ErrTierOrder         = errors.New("upgrade tiers must be bought in order")
	ErrMaxLevel          = errors.New("already at max level")
	ErrNotEligible       = errors.New("not eligible")
	ErrCorruptSave       = errors.New("saved company is corrupt")
)

type StaffStatus string

const (
	StatusIdle             StaffStatus = "idle"
	StatusWorking          StaffStatus = "working"
	StatusTraining         StaffStatus = "training"
	StatusOnVacation       StaffStatus = "on_vacation"
	StatusBurntOut         StaffStatus = "burnt_out"
	StatusDevelopingEngine StaffStatus = "developing_engine"
)

func (s StaffStatus) Valid() bool {
	switch s {
	case StatusIdle, StatusWorking, StatusTraining, StatusOnVacation, StatusBurntOut, StatusDevelopingEngine:
		return true
	}
	return false
}

type Skill string

const (
	SkillProgramming Skill = "programming"
	SkillGraphics    Skill = "graphics"
	SkillSound       Skill = "sound"
	SkillCreativity  Skill = "creativity"
	SkillMarketing   Skill = "marketing"
	SkillSpeed       Skill = "speed"
)

var AllSkills = []Skill{SkillProgramming, SkillGraphics, SkillSound, SkillCreativity, SkillMarketing, SkillSpeed}

func (s Skill) Valid() bool {
	switch s {
	case SkillProgramming, SkillGraphics, SkillSound, SkillCreativity, SkillMarketing, SkillSpeed:
		return true
	}
	return false
}

type ProjectStatus string

const (
	ProjectPlanning   ProjectStatus = "planning"
	ProjectDeveloping ProjectStatus = "developing"
	ProjectPolishing  ProjectStatus = "polishing"
	ProjectCompleted  ProjectStatus = "completed"
	ProjectReleased   ProjectStatus = "released"
)

type ResearchKind string

const (
	ResearchGenre           ResearchKind = "genre"
	ResearchTheme           ResearchKind = "theme"
	ResearchPlatform        ResearchKind = "platform"
	ResearchEngineBlueprint ResearchKind = "engine_blueprint"
)

func (k ResearchKind) Valid() bool {
	switch k {
	case ResearchGenre, ResearchTheme, ResearchPlatform, ResearchEngineBlueprint:
		return true
	}
	return false
}

// EngineStatus is empty while the blueprint is unresearched.
type EngineStatus string

const (
	EngineUnresearched EngineStatus = ""
	EngineLocked       EngineStatus = "locked"
	EngineDeveloping   EngineStatus = "developing"
	EngineAvailable    EngineStatus = "available"
)

type SpecialistRole string

const (
	RoleNone           SpecialistRole = ""
	RoleLeadProgrammer SpecialistRole = "lead_programmer"
	RoleArtDirector    SpecialistRole = "art_director"
	RoleSoundLead      SpecialistRole = "sound_lead"
	RoleLeadDesigner   SpecialistRole = "lead_designer"
	RoleMarketingGuru  SpecialistRole = "marketing_guru"
	RoleSpeedDemon     SpecialistRole = "speed_demon"
)

func (r SpecialistRole) Valid() bool {
	switch r {
	case RoleLeadProgrammer, RoleArtDirector, RoleSoundLead, RoleLeadDesigner, RoleMarketingGuru, RoleSpeedDemon:
		return true
	}
	return false
}

type AwardCategory string

const (
	AwardGameOfTheYear  AwardCategory = "goty"
	AwardBestSeller     AwardCategory = "best_seller"
	AwardBestGraphics   AwardCategory = "best_graphics"
	AwardBestSound      AwardCategory = "best_sound"
	AwardBestCreativity AwardCategory = "best_creativity"
	AwardBestGenre      AwardCategory = "best_genre"
	AwardHallOfFame     AwardCategory = "hall_of_fame"
)

func (c AwardCategory) Valid() bool {
	switch c {
	case AwardGameOfTheYear, AwardBestSeller, AwardBestGraphics, AwardBestSound, AwardBestCreativity, AwardBestGenre, AwardHallOfFame:
		return true
	}
	return false
}
