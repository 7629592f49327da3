package sim

import "testing"

func TestDecideStartsProjectFirst(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)

	cmd, ok := s.Decide(c)
	if !ok {
		t.Fatalf("expected an action")
	}
	p, isProject := cmd.(StartProject)
	if !isProject {
		t.Fatalf("action=%s want start_project", cmd.Kind())
	}
	if p.PlatformID != "p1" || p.Budget != 14850 {
		t.Fatalf("project=%+v", p)
	}
	// Bob has the stronger craft score.
	if len(p.StaffIDs) != 1 || p.StaffIDs[0] != "s2" {
		t.Fatalf("crew=%v want [s2]", p.StaffIDs)
	}
	if p.Name != "CPU RPG-Fan 1" {
		t.Fatalf("name=%q", p.Name)
	}
}

func TestDecidePriorities(t *testing.T) {
	tests := []struct {
		name  string
		setup func(c *Company)
		want  string
	}{
		{
			name: "hire when the bench is thin",
			setup: func(c *Company) {
				c.Project = &GameProject{ID: "busy"}
				c.Staff[1].Status = StatusWorking
			},
			want: "hire",
		},
		{
			name: "build a researched engine",
			setup: func(c *Company) {
				for i := range c.Genres {
					c.Genres[i].ResearchLevel = 0
				}
				c.Engines[0].ResearchLevel = 1
				c.Engines[0].Status = EngineLocked
			},
			want: "start_engine_build",
		},
		{
			name: "research when nothing else fits",
			setup: func(c *Company) {
				for i := range c.Genres {
					c.Genres[i].ResearchLevel = 0
				}
			},
			want: "start_research",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestSim(constRand{})
			c := newTestCompany(t)
			tt.setup(&c)
			cmd, ok := s.Decide(c)
			if !ok {
				t.Fatalf("no action chosen")
			}
			if cmd.Kind() != tt.want {
				t.Fatalf("action=%s want %s", cmd.Kind(), tt.want)
			}
		})
	}
}

func TestDecideResearchPrefersEngines(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	for i := range c.Genres {
		c.Genres[i].ResearchLevel = 0
	}
	cmd, _ := s.Decide(c)
	r, ok := cmd.(StartResearch)
	if !ok || r.ItemKind != ResearchEngineBlueprint || r.ItemID != "e1" {
		t.Fatalf("research=%+v", cmd)
	}
}

func TestDecideNothingWhenBroke(t *testing.T) {
	s := newTestSim(constRand{})
	c := newTestCompany(t)
	c.Funds = 0
	if cmd, ok := s.Decide(c); ok {
		t.Fatalf("broke studio chose %s", cmd.Kind())
	}
}

func TestRunDelegationCycleTakesOneActionAndOneMonth(t *testing.T) {
	s := newTestSim(constRand{f: 0.99})
	c := newTestCompany(t)

	next, rep := s.RunDelegationCycle(c)
	if rep.Action != "start_project" || rep.Rejected != "" {
		t.Fatalf("report=%+v", rep)
	}
	if next.Project == nil {
		t.Fatalf("project not started")
	}
	if next.Month != c.Month+1 || rep.Tick.Month != next.Month {
		t.Fatalf("month=%d want %d", next.Month, c.Month+1)
	}
	if next.Project.MonthsSpent != 1 {
		t.Fatalf("project should have one month of work, got %d", next.Project.MonthsSpent)
	}
}

func TestRunDelegationCycleIdleStillAdvances(t *testing.T) {
	s := newTestSim(constRand{f: 0.99})
	c := newTestCompany(t)
	c.Funds = 0

	next, rep := s.RunDelegationCycle(c)
	if rep.Action != "" {
		t.Fatalf("unexpected action %s", rep.Action)
	}
	if next.Month != 2 {
		t.Fatalf("month=%d want 2", next.Month)
	}
}

func TestCandidatesStayInSkillBounds(t *testing.T) {
	s := NewSimulator(testRules(), NewRand(9))
	c := newTestCompany(t)
	got := s.Candidates(c, 12)
	if len(got) != 12 {
		t.Fatalf("candidates=%d want 12", len(got))
	}
	for _, h := range got {
		sk := h.Skills
		if sk.Programming < 2 || sk.Programming > 7 || sk.Marketing < 1 || sk.Marketing > 5 || sk.Speed < 2 || sk.Speed > 8 {
			t.Fatalf("skills out of range: %+v", sk)
		}
		if h.Name == "" {
			t.Fatalf("candidate without a name")
		}
		for _, m := range c.Staff {
			if m.Name == h.Name {
				t.Fatalf("candidate %q clashes with roster", h.Name)
			}
		}
	}
}
