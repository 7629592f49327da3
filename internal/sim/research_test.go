package sim

import (
	"math"
	"testing"
)

func TestCompleteResearch(t *testing.T) {
	tests := []struct {
		name   string
		target ResearchTarget
		check  func(t *testing.T, c Company)
	}{
		{
			name:   "genre gains base points",
			target: ResearchTarget{Kind: ResearchGenre, ItemID: "g1", TargetLevel: 2},
			check: func(t *testing.T, c Company) {
				g := c.Genres[0]
				if g.ResearchLevel != 2 || g.BaseFun != 22 || g.BaseInnovation != 17 {
					t.Fatalf("genre after research: %+v", g)
				}
			},
		},
		{
			name:   "theme multipliers grow",
			target: ResearchTarget{Kind: ResearchTheme, ItemID: "t1", TargetLevel: 2},
			check: func(t *testing.T, c Company) {
				if got := c.Themes[0].Multipliers["creativity"]; math.Abs(got-1.22) > 1e-9 {
					t.Fatalf("creativity multiplier=%v want 1.22", got)
				}
			},
		},
		{
			name:   "platform gets cheaper after level one",
			target: ResearchTarget{Kind: ResearchPlatform, ItemID: "p1", TargetLevel: 2},
			check: func(t *testing.T, c Company) {
				p := c.Platforms[0]
				if p.LicenseCost != 1485 || math.Abs(p.MarketShare-0.705) > 1e-9 {
					t.Fatalf("platform after research: %+v", p)
				}
			},
		},
		{
			name:   "first engine level unlocks the blueprint",
			target: ResearchTarget{Kind: ResearchEngineBlueprint, ItemID: "e1", TargetLevel: 1},
			check: func(t *testing.T, c Company) {
				e := c.Engines[0]
				if e.ResearchLevel != 1 || e.Status != EngineLocked || e.DevMonths != 3 {
					t.Fatalf("engine after research: %+v", e)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestCompany(t)
			target := tt.target
			c.Research = &target
			next := c.Clone()
			notes := applyResearch(&next)
			if next.Research != nil {
				t.Fatalf("research target should clear")
			}
			if len(notes) != 1 {
				t.Fatalf("notes=%v", notes)
			}
			if c.Research == nil {
				t.Fatalf("input snapshot was mutated")
			}
			tt.check(t, next)
		})
	}
}

func TestCompleteResearchLeavesBlockedTargetPending(t *testing.T) {
	for _, target := range []ResearchTarget{
		{Kind: ResearchGenre, ItemID: "missing"},
		{Kind: ResearchPlatform, ItemID: "p1"},
	} {
		c := newTestCompany(t)
		c.Platforms[0].ResearchLevel = c.Platforms[0].MaxResearchLevel
		tgt := target
		c.Research = &tgt
		next := c.Clone()
		notes := applyResearch(&next)
		if next.Research == nil || len(notes) != 0 {
			t.Fatalf("%s/%s: expected silent no-op, got research=%v notes=%v", target.Kind, target.ItemID, next.Research, notes)
		}
		if next.Platforms[0].ResearchLevel != next.Platforms[0].MaxResearchLevel {
			t.Fatalf("level moved past max")
		}
	}
}

func TestEngineBuildCompletes(t *testing.T) {
	s := newTestSim(constRand{f: 0.99})
	c := newTestCompany(t)
	c.Engines[0].ResearchLevel = 2
	c.Engines[0].Status = EngineLocked
	c = mustApply(t, s, c, StartEngineBuild{EngineID: "e1", StaffIDs: []string{"s1"}})

	// DevMonths 3 at level 2 needs 2.75 months, so the third month finishes it.
	for month := 1; month <= 3; month++ {
		c, _ = s.Advance(c)
	}
	if c.EngineBuild != nil {
		t.Fatalf("build should be finished")
	}
	if c.Engines[0].Status != EngineAvailable {
		t.Fatalf("engine status=%s want available", c.Engines[0].Status)
	}
	if c.Staff[0].Status != StatusIdle {
		t.Fatalf("builder status=%s want idle", c.Staff[0].Status)
	}
}
