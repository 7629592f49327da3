package sim

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestAdvanceMovesCalendar(t *testing.T) {
	s := newTestSim(constRand{f: 0.99})
	c := newTestCompany(t)
	c.Month = 12

	next, rep := s.Advance(c)
	if next.Year != InitialYear+1 || next.Month != 1 {
		t.Fatalf("calendar=%d/%d want %d/1", next.Year, next.Month, InitialYear+1)
	}
	if rep.FundsPoint != (FundsPoint{Year: next.Year, Month: next.Month, Funds: next.Funds}) {
		t.Fatalf("funds point=%+v", rep.FundsPoint)
	}
	if c.Month != 12 {
		t.Fatalf("input snapshot mutated")
	}
}

func TestAdvanceConservesFunds(t *testing.T) {
	s := NewSimulator(testRules(), NewRand(11)).WithIDs(seqIDs())
	c := newTestCompany(t)
	c = mustApply(t, s, c, StartProject{Name: "Ledger", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1", "s2"}})
	c.Released = []ReleasedGame{{GameProject: GameProject{ID: "old", Name: "Old Hit"}, ReviewScore: 9.5, ReleaseYear: 1980}}

	for i := 0; i < 24; i++ {
		before := c.Funds
		var rep TickReport
		c, rep = s.Advance(c)
		if want := before - rep.Salaries + rep.Revenue + rep.Prizes; c.Funds != want {
			t.Fatalf("month %d: funds=%d want %d", i+1, c.Funds, want)
		}
	}
}

func TestAdvanceKeepsEnergyInBounds(t *testing.T) {
	s := NewSimulator(testRules(), NewRand(5)).WithIDs(seqIDs())
	c := newTestCompany(t)
	c.Funds = 5_000_000
	for i := 0; i < 120; i++ {
		c, _ = s.RunDelegationCycle(c)
		ceiling := AggregateOfficeEffects(c.Upgrades).MaxEnergy()
		for _, m := range c.Staff {
			if m.Energy < 0 || m.Energy > ceiling {
				t.Fatalf("month %d: %s energy=%v outside [0,%v]", i+1, m.Name, m.Energy, ceiling)
			}
		}
		if len(c.Notifications) > NotificationCap {
			t.Fatalf("month %d: %d notifications", i+1, len(c.Notifications))
		}
	}
}

func TestAdvanceBankruptcy(t *testing.T) {
	s := newTestSim(constRand{f: 0.99})
	c := newTestCompany(t)
	c.Funds = -30000
	c.Delegation = true

	c, rep := s.Advance(c)
	if !c.GameOver || !rep.GameOver {
		t.Fatalf("expected game over at funds %d", c.Funds)
	}
	if c.Delegation {
		t.Fatalf("delegation should switch off on game over")
	}

	again, rep := s.Advance(c)
	if !rep.Skipped || !reflect.DeepEqual(again, c) {
		t.Fatalf("bankrupt company should not advance")
	}
}

func TestIsBankrupt(t *testing.T) {
	tests := []struct {
		funds, salaries int64
		want            bool
	}{
		{-25000, 0, false},
		{-25001, 0, true},
		{-30000, 5000, false},
		{-31001, 5000, true},
	}
	for _, tt := range tests {
		if got := IsBankrupt(tt.funds, tt.salaries); got != tt.want {
			t.Fatalf("IsBankrupt(%d, %d)=%v want %v", tt.funds, tt.salaries, got, tt.want)
		}
	}
}

func TestAdvanceSurvivesSnapshotRoundTrip(t *testing.T) {
	setup := newTestSim(constRand{f: 0.5})
	c := newTestCompany(t)
	c = mustApply(t, setup, c, StartProject{Name: "Trip", GenreID: "g1", ThemeID: "t1", PlatformID: "p1", StaffIDs: []string{"s1"}})
	c = mustApply(t, setup, c, StartResearch{ItemKind: ResearchTheme, ItemID: "t2"})

	raw, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	loaded, err := Migrate(raw, testSeed())
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	a, _ := NewSimulator(testRules(), NewRand(3)).Advance(c)
	b, _ := NewSimulator(testRules(), NewRand(3)).Advance(loaded)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("advance diverged after round trip\n got %+v\nwant %+v", b, a)
	}
}
