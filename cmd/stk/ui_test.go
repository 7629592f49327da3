package main

import (
	"context"
	"strings"
	"testing"

	cl "studiosim/internal/cli"
	"studiosim/internal/game"
	"studiosim/internal/sim"
)

func TestFormatMoney(t *testing.T) {
	tests := []struct {
		in   int64
		want string
	}{
		{0, "$0"},
		{999, "$999"},
		{84000, "$84,000"},
		{1234567, "$1,234,567"},
		{-2500, "-$2,500"},
	}
	for _, tt := range tests {
		if got := formatMoney(tt.in); got != tt.want {
			t.Fatalf("formatMoney(%d)=%q want %q", tt.in, got, tt.want)
		}
	}
}

func TestTruncate(t *testing.T) {
	if got := truncate("Moonlight Games", 8); got != "Moonl..." {
		t.Fatalf("truncate=%q", got)
	}
	if got := truncate("  Moon ", 8); got != "Moon" {
		t.Fatalf("truncate=%q", got)
	}
}

func TestSparkline(t *testing.T) {
	points := []sim.FundsPoint{{Funds: 0}, {Funds: 50}, {Funds: 100}}
	got := []rune(sparkline(points))
	if len(got) != 3 || got[0] != '▁' || got[2] != '█' {
		t.Fatalf("sparkline=%q", string(got))
	}
	flat := sparkline([]sim.FundsPoint{{Funds: 7}, {Funds: 7}})
	if flat != "▁▁" {
		t.Fatalf("flat sparkline=%q", flat)
	}
}

func TestEventLine(t *testing.T) {
	ev := game.Event{
		Kind:     game.EventTick,
		Year:     1981,
		Month:    3,
		Funds:    12000,
		Released: &sim.ReleasedGame{GameProject: sim.GameProject{Name: "Star Quest"}, ReviewScore: 8.5},
		Awards:   []sim.Award{{Name: "Game of the Year", PlayerWon: true}, {Name: "Best Sound"}},
	}
	got := eventLine(ev)
	for _, want := range []string{"[03/1981] tick", "funds=$12,000", `released="Star Quest" review=8.5`, `award="Game of the Year"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("eventLine=%q missing %q", got, want)
		}
	}
	if strings.Contains(got, "Best Sound") {
		t.Fatalf("eventLine lists an award the player lost: %q", got)
	}
}

func TestStaffRows(t *testing.T) {
	c := sim.Company{Staff: []sim.StaffMember{
		{Name: "Ada", Status: sim.StatusIdle, Energy: 99.6, Skills: sim.Skills{Programming: 4, Speed: 2}},
		{Name: "Lin", Status: sim.StatusTraining, TrainingSkill: sim.SkillSound, TrainingMonthsLeft: 2, Role: sim.RoleSoundLead},
	}}
	rows := staffRows(c)
	if len(rows) != 2 || len(rows[0]) != len(staffColumns()) {
		t.Fatalf("rows=%v", rows)
	}
	if rows[0][2] != "100" || rows[0][3] != "4" || rows[0][8] != "2" {
		t.Fatalf("row 0=%v", rows[0])
	}
	if rows[1][1] != "training sound (2)" || rows[1][9] != "sound_lead" {
		t.Fatalf("row 1=%v", rows[1])
	}
}

func TestDashModelAppliesLoads(t *testing.T) {
	m := newDashModel(context.Background(), cl.NewClient("http://127.0.0.1:0"), cl.Session{Name: "Moon"})
	if !strings.Contains(m.View(), "loading Moon") {
		t.Fatalf("initial view=%q", m.View())
	}
	view := game.CompanyView{Company: sim.Company{
		Name: "Moon", Year: 1980, Month: 4, Funds: 5000,
		Staff:         []sim.StaffMember{{Name: "Ada", Status: sim.StatusIdle}},
		Notifications: []string{"Hired Ada."},
	}}
	m.Update(dashLoadedMsg{view: view, history: []sim.FundsPoint{{Funds: 1}, {Funds: 2}}})
	out := m.View()
	for _, want := range []string{"Moon  04/1980", "$5,000", "Hired Ada.", "project: none"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
	if len(m.staff.Rows()) != 1 {
		t.Fatalf("table rows=%d", len(m.staff.Rows()))
	}

	m.Update(dashAdvancedMsg{err: &cl.APIError{Status: 409, Message: "game over"}})
	if !strings.Contains(m.View(), "api status 409: game over") {
		t.Fatalf("advance error not shown:\n%s", m.View())
	}
}

func TestTickSummary(t *testing.T) {
	got := tickSummary(sim.TickReport{Year: 1980, Month: 2, Salaries: 3150, Revenue: 9000})
	if got != "02/1980: salaries -$3,150, revenue +$9,000" {
		t.Fatalf("tickSummary=%q", got)
	}
}
