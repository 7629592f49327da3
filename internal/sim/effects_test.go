package sim

import (
	"math"
	"reflect"
	"testing"
)

func TestAggregateOfficeEffects(t *testing.T) {
	ups := testSeed().Upgrades
	ups[0].CurrentLevel = 2
	ups[1].CurrentLevel = 1
	before := append([]OfficeUpgrade(nil), ups...)

	got := AggregateOfficeEffects(ups)
	if got.EnergyRecoveryBoost != 4 {
		t.Fatalf("only the current tier should count: recovery=%v want 4", got.EnergyRecoveryBoost)
	}
	if got.MaxEnergyBoost != 10 || got.MaxEnergy() != 110 {
		t.Fatalf("max energy=%v want 110", got.MaxEnergy())
	}
	if math.Abs(got.BugReduction-0.9) > 1e-9 {
		t.Fatalf("bug reduction=%v want 0.9", got.BugReduction)
	}
	if again := AggregateOfficeEffects(ups); again != got {
		t.Fatalf("aggregation is not idempotent: %+v vs %+v", again, got)
	}
	if !reflect.DeepEqual(before, ups) {
		t.Fatalf("aggregation mutated its input")
	}
}

func TestAggregateOfficeEffectsNoneBought(t *testing.T) {
	got := AggregateOfficeEffects(testSeed().Upgrades)
	if got != (OfficeEffects{BugReduction: 1}) {
		t.Fatalf("unexpected effects with nothing bought: %+v", got)
	}
}
