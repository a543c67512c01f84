package anticheat

import (
	"testing"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

func testLimits() Limits {
	return Limits{
		MaxCoinsPerMeter:     0.5,
		OvershootTolerance:   0.10,
		MinTimeBuffer:        0.20,
		BaseSpeed:            50,
		MaxSpeedMultiplier:   3,
		ArmyBaseCapacity:     30,
		ArmyPerCapacityLevel: 5,
	}
}

func testSnapshot() Snapshot {
	return Snapshot{
		TrackLength: 800,
		Upgrades:    models.UpgradeLevels{},
	}
}

func validOutcome() models.RunOutcome {
	return models.RunOutcome{
		FinalScore:       1000,
		CoinsCollected:   300,
		MaxArmy:          25,
		DistanceTraveled: 800,
		TimeTaken:        20,
		DidFinish:        true,
		EnemiesKilled:    5,
	}
}

func TestNormalRunAccepted(t *testing.T) {
	// min time = 800/150*0.8 ≈ 4.27s, so 20s is fine; maxArmy 25 ≤ base 30
	ok, reason := Validate(validOutcome(), testSnapshot(), testLimits())
	if !ok {
		t.Fatalf("valid run rejected: %s", reason)
	}
}

func TestCoinBoundExact(t *testing.T) {
	lim := testLimits()
	snap := testSnapshot()
	maxCoins := int64(float64(snap.TrackLength) * lim.MaxCoinsPerMeter) // 400

	outcome := validOutcome()
	outcome.CoinsCollected = maxCoins
	if ok, reason := Validate(outcome, snap, lim); !ok {
		t.Errorf("coins at the exact bound should pass, got %q", reason)
	}

	outcome.CoinsCollected = maxCoins + 1
	ok, reason := Validate(outcome, snap, lim)
	if ok {
		t.Error("coins one over the bound should be rejected")
	}
	if reason != ReasonTooManyCoins {
		t.Errorf("reason = %q, want %q", reason, ReasonTooManyCoins)
	}
}

func TestDistanceBound(t *testing.T) {
	outcome := validOutcome()
	outcome.DistanceTraveled = 880 // exactly 10% overshoot
	if ok, _ := Validate(outcome, testSnapshot(), testLimits()); !ok {
		t.Error("distance within overshoot tolerance should pass")
	}

	outcome.DistanceTraveled = 881
	ok, reason := Validate(outcome, testSnapshot(), testLimits())
	if ok {
		t.Error("distance beyond overshoot tolerance should be rejected")
	}
	if reason != ReasonTooFar {
		t.Errorf("reason = %q, want %q", reason, ReasonTooFar)
	}
}

func TestImpossibleCompletionTime(t *testing.T) {
	outcome := validOutcome()
	outcome.TimeTaken = 2 // below 800/150*0.8 ≈ 4.27
	ok, reason := Validate(outcome, testSnapshot(), testLimits())
	if ok {
		t.Error("2s completion of an 800m track should be rejected")
	}
	if reason != ReasonImpossibleTime {
		t.Errorf("reason = %q, want %q", reason, ReasonImpossibleTime)
	}
}

func TestMinTimeOnlyAppliesToFinishedRuns(t *testing.T) {
	outcome := validOutcome()
	outcome.TimeTaken = 2
	outcome.DidFinish = false
	outcome.DistanceTraveled = 100
	if ok, reason := Validate(outcome, testSnapshot(), testLimits()); !ok {
		t.Errorf("short unfinished run should pass the time check, got %q", reason)
	}
}

func TestArmyBoundUsesSnapshot(t *testing.T) {
	// Capacity bought after run start must not widen the bound: the snapshot
	// says level 0, so the cap stays at the base 30 even if the player's live
	// capacity level is now higher.
	outcome := validOutcome()
	outcome.MaxArmy = 31

	ok, reason := Validate(outcome, testSnapshot(), testLimits())
	if ok {
		t.Error("army above snapshot-implied capacity should be rejected")
	}
	if reason != ReasonArmyTooLarge {
		t.Errorf("reason = %q, want %q", reason, ReasonArmyTooLarge)
	}

	// Same outcome against a snapshot taken at capacity level 1 passes.
	snap := testSnapshot()
	snap.Upgrades = models.UpgradeLevels{models.UpgradeCapacity: 1}
	if ok, reason := Validate(outcome, snap, testLimits()); !ok {
		t.Errorf("army within snapshot capacity should pass, got %q", reason)
	}
}

func TestNegativeFieldsRejected(t *testing.T) {
	outcome := validOutcome()
	outcome.EnemiesKilled = -1
	ok, reason := Validate(outcome, testSnapshot(), testLimits())
	if ok {
		t.Error("negative field should be rejected")
	}
	if reason != ReasonNegativeField {
		t.Errorf("reason = %q, want %q", reason, ReasonNegativeField)
	}
}

func TestFirstFailingReasonWins(t *testing.T) {
	// Both the coin bound and the time bound fail; the coin reason is
	// reported because checks run in a fixed order.
	outcome := validOutcome()
	outcome.CoinsCollected = 100000
	outcome.TimeTaken = 1
	_, reason := Validate(outcome, testSnapshot(), testLimits())
	if reason != ReasonTooManyCoins {
		t.Errorf("reason = %q, want %q (check order)", reason, ReasonTooManyCoins)
	}
}

func TestDeterministic(t *testing.T) {
	outcome := validOutcome()
	outcome.TimeTaken = 2
	for i := 0; i < 5; i++ {
		ok, reason := Validate(outcome, testSnapshot(), testLimits())
		if ok || reason != ReasonImpossibleTime {
			t.Fatalf("run %d: ok=%v reason=%q, expected stable rejection", i, ok, reason)
		}
	}
}
