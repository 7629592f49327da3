package sim

import (
	"fmt"
	"math"
)

// StepStaff advances every member's state machine by one month and returns
// the new roster, the salary bill computed from the updated salaries, and
// any notifications. Exactly one status transition fires per member.
func StepStaff(staff []StaffMember, fx OfficeEffects) ([]StaffMember, int64, []string) {
	maxEnergy := fx.MaxEnergy()
	out := make([]StaffMember, len(staff))
	var notes []string
	var salaries int64
	for i, s := range staff {
		s.MonthsInRole++
		switch s.Status {
		case StatusTraining:
			s.TrainingMonthsLeft--
			if s.TrainingMonthsLeft <= 0 {
				inc := int(math.Round(TrainingBaseIncrease * (1 + fx.TrainingBoost)))
				s.Skills = s.Skills.With(s.TrainingSkill, s.Skills.Get(s.TrainingSkill)+inc)
				s.Salary += int64(inc) * SalaryPerSkill
				s.Energy = math.Min(maxEnergy, s.Energy+TrainingEnergyBonus)
				notes = append(notes, fmt.Sprintf("%s finished %s training (+%d).", s.Name, s.TrainingSkill, inc))
				s.Status = StatusIdle
				s.TrainingSkill = ""
				s.TrainingMonthsLeft = 0
			}
		case StatusOnVacation, StatusBurntOut:
			s.Energy = math.Min(maxEnergy, s.Energy+VacationRecovery)
			s.VacationMonthsLeft--
			if s.VacationMonthsLeft <= 0 {
				notes = append(notes, fmt.Sprintf("%s is back from leave.", s.Name))
				s.Status = StatusIdle
				s.VacationMonthsLeft = 0
			}
		case StatusIdle:
			s.Energy = math.Min(maxEnergy, s.Energy+IdleRecovery+fx.EnergyRecoveryBoost)
		case StatusWorking, StatusDevelopingEngine:
			s.Energy = math.Max(0, s.Energy-WorkDrain)
			if s.Energy < BurnoutThreshold {
				s.Status = StatusBurntOut
				s.VacationMonthsLeft = ForcedVacationMonths
				notes = append(notes, fmt.Sprintf("%s burned out and is on forced leave for %d months.", s.Name, ForcedVacationMonths))
			}
		}
		if s.Energy > maxEnergy {
			s.Energy = maxEnergy
		}
		out[i] = s
		salaries += s.Salary
	}
	return out, salaries, notes
}
