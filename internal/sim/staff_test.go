package sim

import "testing"

func TestStepStaffTransitions(t *testing.T) {
	fx := OfficeEffects{BugReduction: 1}
	tests := []struct {
		name       string
		in         StaffMember
		wantStatus StaffStatus
		wantEnergy float64
	}{
		{
			name:       "working drains into burnout",
			in:         StaffMember{Name: "a", Energy: 12, Status: StatusWorking, Salary: 1000},
			wantStatus: StatusBurntOut,
			wantEnergy: 5,
		},
		{
			name:       "working stays working above threshold",
			in:         StaffMember{Name: "b", Energy: 50, Status: StatusWorking},
			wantStatus: StatusWorking,
			wantEnergy: 43,
		},
		{
			name:       "idle recovers and clamps",
			in:         StaffMember{Name: "c", Energy: 98, Status: StatusIdle},
			wantStatus: StatusIdle,
			wantEnergy: 100,
		},
		{
			name:       "last vacation month returns to idle",
			in:         StaffMember{Name: "d", Energy: 40, Status: StatusOnVacation, VacationMonthsLeft: 1},
			wantStatus: StatusIdle,
			wantEnergy: 75,
		},
		{
			name:       "burnout keeps recovering",
			in:         StaffMember{Name: "e", Energy: 5, Status: StatusBurntOut, VacationMonthsLeft: 2},
			wantStatus: StatusBurntOut,
			wantEnergy: 40,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, _ := StepStaff([]StaffMember{tt.in}, fx)
			got := out[0]
			if got.Status != tt.wantStatus {
				t.Fatalf("status=%s want %s", got.Status, tt.wantStatus)
			}
			if got.Energy != tt.wantEnergy {
				t.Fatalf("energy=%v want %v", got.Energy, tt.wantEnergy)
			}
			if got.MonthsInRole != tt.in.MonthsInRole+1 {
				t.Fatalf("months in role=%d want %d", got.MonthsInRole, tt.in.MonthsInRole+1)
			}
		})
	}
}

func TestStepStaffBurnoutSetsForcedLeave(t *testing.T) {
	out, _, notes := StepStaff([]StaffMember{{Name: "a", Energy: 12, Status: StatusWorking}}, OfficeEffects{BugReduction: 1})
	if out[0].VacationMonthsLeft != ForcedVacationMonths {
		t.Fatalf("vacation months=%d want %d", out[0].VacationMonthsLeft, ForcedVacationMonths)
	}
	if len(notes) != 1 {
		t.Fatalf("expected one burnout note, got %v", notes)
	}
}

func TestStepStaffTrainingCompletes(t *testing.T) {
	in := StaffMember{
		Name:               "a",
		Skills:             Skills{Graphics: 3},
		Salary:             1000,
		Energy:             95,
		Status:             StatusTraining,
		TrainingSkill:      SkillGraphics,
		TrainingMonthsLeft: 1,
	}
	out, salaries, _ := StepStaff([]StaffMember{in}, OfficeEffects{BugReduction: 1, TrainingBoost: 0.5})
	got := out[0]
	if got.Skills.Graphics != 6 {
		t.Fatalf("graphics=%d want 6 (2 * 1.5 rounded)", got.Skills.Graphics)
	}
	if got.Salary != 1150 || salaries != 1150 {
		t.Fatalf("salary=%d bill=%d want 1150", got.Salary, salaries)
	}
	if got.Status != StatusIdle || got.TrainingSkill != "" || got.Energy != 100 {
		t.Fatalf("unexpected member after training: %+v", got)
	}
}

func TestStepStaffDoesNotMutateInput(t *testing.T) {
	in := []StaffMember{{Name: "a", Energy: 50, Status: StatusWorking}}
	StepStaff(in, OfficeEffects{BugReduction: 1})
	if in[0].Energy != 50 {
		t.Fatalf("input mutated: energy=%v", in[0].Energy)
	}
}
