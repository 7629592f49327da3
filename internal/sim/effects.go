package sim

// AggregateOfficeEffects folds the active tier of every upgrade into one
// bundle. Only tiers[currentLevel-1] counts; additive fields sum and
// BugReduction multiplies starting from 1.
func AggregateOfficeEffects(upgrades []OfficeUpgrade) OfficeEffects {
	out := OfficeEffects{BugReduction: 1}
	for _, u := range upgrades {
		if u.CurrentLevel <= 0 || u.CurrentLevel > len(u.Tiers) {
			continue
		}
		e := u.Tiers[u.CurrentLevel-1].Effects
		out.EnergyRecoveryBoost += e.EnergyRecoveryBoost
		out.MaxEnergyBoost += e.MaxEnergyBoost
		out.GlobalSpeedBoost += e.GlobalSpeedBoost
		out.GlobalCreativityBoost += e.GlobalCreativityBoost
		out.TrainingBoost += e.TrainingBoost
		out.PassiveHype += e.PassiveHype
		if e.BugReduction > 0 {
			out.BugReduction *= e.BugReduction
		}
	}
	return out
}
