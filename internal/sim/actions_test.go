package sim

import (
	"errors"
	"math"
	"reflect"
	"testing"
)

func TestApplyRejectsWithoutTouchingSnapshot(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Company)
		cmd   Command
		want  error
	}{
		{
			name: "roster full",
			setup: func(c *Company) {
				for len(c.Staff) < MaxStaffCount {
					c.Staff = append(c.Staff, StaffMember{ID: "extra", Status: StatusIdle})
				}
			},
			cmd:  Hire{Name: "Nine"},
			want: ErrRosterFull,
		},
		{
			name:  "hire needs two months of salary",
			setup: func(c *Company) { c.Funds = 100 },
			cmd:   Hire{Name: "Broke", Skills: Skills{Programming: 3}},
			want:  ErrInsufficientFunds,
		},
		{
			name:  "project slot busy",
			setup: func(c *Company) { c.Project = &GameProject{ID: "busy"} },
			cmd:   StartProject{Name: "x", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1"}},
			want:  ErrSlotBusy,
		},
		{
			name: "project without staff",
			cmd:  StartProject{Name: "x", GenreID: "g1", ThemeID: "t1", PlatformID: "p1"},
			want: ErrNoStaff,
		},
		{
			name: "project on unresearched genre",
			cmd:  StartProject{Name: "x", GenreID: "g2", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1"}},
			want: ErrNotResearched,
		},
		{
			name:  "project on unreleased platform",
			setup: func(c *Company) { c.Platforms[1].ResearchLevel = 1 },
			cmd:   StartProject{Name: "x", GenreID: "g1", ThemeID: "t1", PlatformID: "p2", StaffIDs: []string{"s1"}},
			want:  ErrNotEligible,
		},
		{
			name:  "project with busy staff",
			setup: func(c *Company) { c.Staff[0].Status = StatusTraining },
			cmd:   StartProject{Name: "x", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1"}},
			want:  ErrStaffNotIdle,
		},
		{
			name:  "project with unbuilt engine",
			setup: func(c *Company) { c.Engines[0].Status = EngineLocked },
			cmd:   StartProject{Name: "x", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", EngineID: "e1", StaffIDs: []string{"s1"}},
			want:  ErrNotEligible,
		},
		{
			name:  "research slot busy",
			setup: func(c *Company) { c.Research = &ResearchTarget{Kind: ResearchGenre, ItemID: "g1"} },
			cmd:   StartResearch{ItemKind: ResearchTheme, ItemID: "t2"},
			want:  ErrSlotBusy,
		},
		{
			name:  "research past max level",
			setup: func(c *Company) { c.Platforms[0].ResearchLevel = c.Platforms[0].MaxResearchLevel },
			cmd:   StartResearch{ItemKind: ResearchPlatform, ItemID: "p1"},
			want:  ErrMaxLevel,
		},
		{
			name: "research unknown item",
			cmd:  StartResearch{ItemKind: ResearchGenre, ItemID: "nope"},
			want: ErrNotFound,
		},
		{
			name:  "training without funds",
			setup: func(c *Company) { c.Funds = 100 },
			cmd:   StartTraining{StaffID: "s1", Skill: SkillSound},
			want:  ErrInsufficientFunds,
		},
		{
			name:  "vacation while working",
			setup: func(c *Company) { c.Staff[1].Status = StatusWorking },
			cmd:   SendOnVacation{StaffID: "s2"},
			want:  ErrStaffNotIdle,
		},
		{
			name: "engine build before research",
			cmd:  StartEngineBuild{EngineID: "e1", StaffIDs: []string{"s1"}},
			want: ErrNotResearched,
		},
		{
			name: "cancel without a build",
			cmd:  CancelEngineBuild{},
			want: ErrNotFound,
		},
		{
			name: "specialist skill too low",
			cmd:  AssignSpecialist{StaffID: "s1", Role: RoleLeadProgrammer},
			want: ErrSkillTooLow,
		},
		{
			name: "specialist role taken",
			setup: func(c *Company) {
				c.Staff[0].Role = RoleArtDirector
				c.Staff[1].Skills.Graphics = 9
			},
			cmd:  AssignSpecialist{StaffID: "s2", Role: RoleArtDirector},
			want: ErrRoleTaken,
		},
		{
			name: "upgrade tier skipped",
			cmd:  BuyUpgrade{UpgradeID: "coffee", Level: 2},
			want: ErrTierOrder,
		},
		{
			name:  "upgrade at max",
			setup: func(c *Company) { c.Upgrades[1].CurrentLevel = 1 },
			cmd:   BuyUpgrade{UpgradeID: "qa", Level: 2},
			want:  ErrMaxLevel,
		},
		{
			name: "marketing unknown game",
			cmd:  StartMarketingPush{GameID: "ghost"},
			want: ErrNotFound,
		},
		{
			name: "franchise from unknown game",
			cmd:  StartFranchise{GameID: "ghost"},
			want: ErrNotFound,
		},
		{
			name:  "bankrupt company",
			setup: func(c *Company) { c.GameOver = true },
			cmd:   SetDelegation{Enabled: true},
			want:  ErrGameOver,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(constRand{f: 0.5})
			c := newTestCompany(t)
			if tt.setup != nil {
				tt.setup(&c)
			}
			before := c.Clone()
			got, err := s.Apply(c, tt.cmd)
			if !errors.Is(err, tt.want) {
				t.Fatalf("err=%v want %v", err, tt.want)
			}
			if !reflect.DeepEqual(got, before) {
				t.Fatalf("snapshot changed on failed %s", tt.cmd.Kind())
			}
		})
	}
}

func TestHire(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	skills := Skills{Programming: 4, Graphics: 4, Sound: 4, Creativity: 4, Marketing: 4, Speed: 4}
	c = mustApply(t, s, c, Hire{Name: "Mina", Skills: skills})

	m := c.Staff[len(c.Staff)-1]
	if m.ID != "id-1" || m.Status != StatusIdle || m.Energy != BaseMaxEnergy {
		t.Fatalf("new hire: %+v", m)
	}
	if c.Funds != InitialFunds-SalaryFor(skills) {
		t.Fatalf("funds=%d want first month salary charged", c.Funds)
	}
	if c.Notifications[0] != "Mina joined the team (salary $1700)." {
		t.Fatalf("notice=%q", c.Notifications[0])
	}
}

func TestStartProjectChargesLicenseAndBudget(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	c = mustApply(t, s, c, StartProject{Name: "Budgeted", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", Budget: 10000, StaffIDs: []string{"s1", "s1"}})

	if c.Funds != InitialFunds-1500-10000 {
		t.Fatalf("funds=%d", c.Funds)
	}
	p := c.Project
	if len(p.AssignedStaff) != 1 {
		t.Fatalf("duplicate staff ids should collapse: %v", p.AssignedStaff)
	}
	if math.Abs(p.Hype-12) > 1e-9 {
		t.Fatalf("hype=%v want 12", p.Hype)
	}
	if c.Staff[0].Status != StatusWorking || c.Staff[1].Status != StatusIdle {
		t.Fatalf("staff statuses: %s %s", c.Staff[0].Status, c.Staff[1].Status)
	}
}

func TestResearchCost(t *testing.T) {
	c := newTestCompany(t)
	c.Year = 1983
	tests := []struct {
		kind ResearchKind
		id   string
		want int64
	}{
		{ResearchGenre, "g1", 400},
		{ResearchGenre, "g2", 300},
		{ResearchPlatform, "p1", 750},
		{ResearchPlatform, "p2", 1000},
		{ResearchEngineBlueprint, "e1", 5000},
	}
	for _, tt := range tests {
		_, _, _, got, err := researchQuote(c, tt.kind, tt.id)
		if err != nil {
			t.Fatalf("%s %s: %v", tt.kind, tt.id, err)
		}
		if got != tt.want {
			t.Fatalf("%s %s cost=%d want %d", tt.kind, tt.id, got, tt.want)
		}
	}

	c.Platforms[1].ResearchCost = 0
	if _, _, _, got, _ := researchQuote(c, ResearchPlatform, "p2"); got != 1600 {
		t.Fatalf("license fallback cost=%d want 1600", got)
	}
}

func TestStartFranchise(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	c.Released = []ReleasedGame{{
		GameProject:       GameProject{ID: "hit", Name: "Starlight Odyssey", GenreID: "g1", ThemeID: "t1"},
		ReviewScore:       8.2,
		CanStartFranchise: true,
	}}
	c = mustApply(t, s, c, StartFranchise{GameID: "hit"})

	if len(c.Franchises) != 1 || c.Franchises[0].Name != "Legend of Starlight Saga" {
		t.Fatalf("franchises=%+v", c.Franchises)
	}
	g := c.Released[0]
	if !g.IsFranchise || g.CanStartFranchise || g.SequelNumber != 1 {
		t.Fatalf("released game after franchise: %+v", g)
	}
	if _, err := s.Apply(c, StartFranchise{GameID: "hit"}); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("second franchise err=%v", err)
	}

	c = mustApply(t, s, c, StartProject{Name: "Starlight II", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1"}, SequelTo: "hit"})
	if c.Project.SequelNumber != 2 || c.Project.FranchiseName != "Legend of Starlight Saga" {
		t.Fatalf("sequel project: %+v", c.Project)
	}
	if c.Project.Hype != 8.2*SequelHypePerPoint {
		t.Fatalf("sequel hype=%v", c.Project.Hype)
	}
}

func TestSpecialistSalaryRoundTrip(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	c.Staff[0].Skills.Programming = 8
	c.Staff[0].Salary = 1000

	c = mustApply(t, s, c, AssignSpecialist{StaffID: "s1", Role: RoleLeadProgrammer})
	if c.Staff[0].Salary != 1500 || c.Staff[0].Role != RoleLeadProgrammer {
		t.Fatalf("after assign: %+v", c.Staff[0])
	}
	if c.Funds != InitialFunds-10000 {
		t.Fatalf("funds=%d", c.Funds)
	}
	c.Staff[0].MonthsInRole = 3
	c = mustApply(t, s, c, AssignSpecialist{StaffID: "s1", Role: RoleLeadProgrammer})
	if c.Staff[0].Salary != 1500 || c.Staff[0].MonthsInRole != 3 || c.Funds != InitialFunds-10000 {
		t.Fatalf("reassigning the holder changed something: %+v funds=%d", c.Staff[0], c.Funds)
	}
	if c.Notifications[0] == "" {
		t.Fatalf("no notice for reassigning the holder")
	}
	c = mustApply(t, s, c, ClearSpecialist{StaffID: "s1"})
	if c.Staff[0].Salary != 1000 || c.Staff[0].Role != RoleNone {
		t.Fatalf("after clear: %+v", c.Staff[0])
	}
}

func TestMarketingPushWindow(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	c.Released = []ReleasedGame{{GameProject: GameProject{ID: "old", Name: "Old"}, ReleaseYear: 1980, ReleaseMonth: 1}}

	c.Month = 8
	if _, err := s.Apply(c, StartMarketingPush{GameID: "old"}); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("seven month old game err=%v", err)
	}
	c.Month = 7
	c = mustApply(t, s, c, StartMarketingPush{GameID: "old"})
	if c.Released[0].CurrentHype != MarketingPushInitial || c.Marketing.MonthsLeft != MarketingPushMonths {
		t.Fatalf("push not applied: hype=%v marketing=%+v", c.Released[0].CurrentHype, c.Marketing)
	}
	if c.Funds != InitialFunds-MarketingPushCost {
		t.Fatalf("funds=%d", c.Funds)
	}
}

func TestNotificationsCapped(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	for i := 0; i < 10; i++ {
		c = mustApply(t, s, c, SetDelegation{Enabled: i%2 == 0})
	}
	if len(c.Notifications) != NotificationCap {
		t.Fatalf("notifications=%d want %d", len(c.Notifications), NotificationCap)
	}
	if c.Notifications[0] != "Delegation mode off." {
		t.Fatalf("newest notice=%q", c.Notifications[0])
	}
}
