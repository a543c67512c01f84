package economy

import (
	"math"
	"testing"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

func testRewardConfig() RewardConfig {
	return RewardConfig{
		Base:            50,
		ArmyBonusPerMan: 2,
		KillBonus:       3,
		TimeBonusPerSec: 5,
		ParTimeSeconds:  60,
		IncomeRate:      0.05,
	}
}

func TestCostMonotonicity(t *testing.T) {
	for _, track := range models.AllUpgrades {
		prev := Cost(track, 0)
		if prev <= 0 {
			t.Fatalf("base cost for %s should be positive, got %d", track, prev)
		}
		for level := 1; level <= 60; level++ {
			cur := Cost(track, level)
			if cur <= prev {
				t.Errorf("%s: cost(%d)=%d not greater than cost(%d)=%d", track, level, cur, level-1, prev)
			}
			prev = cur
		}
	}
}

func TestCostExponentialGrowth(t *testing.T) {
	// floor(100 * 1.5^level) for capacity (base 100)
	cases := []struct {
		level int
		want  int64
	}{
		{0, 100},
		{1, 150},
		{2, 225},
		{3, 337},
		{4, 506},
	}
	for _, c := range cases {
		if got := Cost(models.UpgradeCapacity, c.level); got != c.want {
			t.Errorf("Cost(capacity, %d) = %d, want %d", c.level, got, c.want)
		}
	}
}

func TestCostSaturatesAtExtremeLevels(t *testing.T) {
	// Around level 108 the capacity price leaves the int64 range; the price
	// must clamp to MaxInt64 instead of wrapping into an unspecified value.
	if got := Cost(models.UpgradeCapacity, 200); got != math.MaxInt64 {
		t.Errorf("Cost(capacity, 200) = %d, want MaxInt64", got)
	}
	prev := int64(0)
	for level := 100; level <= 120; level++ {
		cur := Cost(models.UpgradeCapacity, level)
		if cur <= 0 {
			t.Fatalf("Cost(capacity, %d) = %d, must stay positive", level, cur)
		}
		if cur < prev {
			t.Fatalf("Cost(capacity, %d) = %d decreased from %d", level, cur, prev)
		}
		prev = cur
	}
}

func TestCostUnknownTrack(t *testing.T) {
	if got := Cost("teleport", 3); got != 0 {
		t.Errorf("unknown track should cost 0, got %d", got)
	}
}

func TestPowerDoublingBreakpoints(t *testing.T) {
	// warrior_power has baseEffect 0.02:
	// level 10 -> 10*0.02*2 = 0.4, level 20 -> 20*0.02*4 = 1.6
	cases := []struct {
		level int
		want  float64
	}{
		{0, 0},
		{5, 5 * 0.02},
		{9, 9 * 0.02},
		{10, 0.4},
		{19, 19 * 0.02 * 2},
		{20, 1.6},
		{30, 30 * 0.02 * 8},
	}
	for _, c := range cases {
		got := Power(models.UpgradeWarriorPower, c.level)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Power(warrior_power, %d) = %v, want %v", c.level, got, c.want)
		}
	}
}

func TestPowerUsesFloorDivision(t *testing.T) {
	// Multiplier must jump exactly at the threshold, not round up before it.
	just9 := Power(models.UpgradeWarriorPower, 9)
	at10 := Power(models.UpgradeWarriorPower, 10)
	if just9 >= at10 {
		t.Errorf("power at level 9 (%v) should be below level 10 (%v)", just9, at10)
	}
	// level 9 multiplier is 1, level 10 multiplier is 2
	if math.Abs(just9-9*0.02) > 1e-9 {
		t.Errorf("level 9 should have no doubling, got %v", just9)
	}
}

func TestPowerLevelAggregates(t *testing.T) {
	upgrades := models.UpgradeLevels{
		models.UpgradeCapacity:     3,
		models.UpgradeWarriorPower: 10,
	}
	want := Power(models.UpgradeCapacity, 3) + Power(models.UpgradeWarriorPower, 10)
	if got := PowerLevel(upgrades); math.Abs(got-want) > 1e-9 {
		t.Errorf("PowerLevel = %v, want %v", got, want)
	}

	if got := PowerLevel(models.UpgradeLevels{}); got != 0 {
		t.Errorf("empty upgrades should have zero power, got %v", got)
	}
}

func TestGameRewardBasic(t *testing.T) {
	cfg := testRewardConfig()
	outcome := models.RunOutcome{
		CoinsCollected:   300,
		MaxArmy:          25,
		DistanceTraveled: 800,
		TimeTaken:        20,
		DidFinish:        true,
		EnemiesKilled:    10,
	}

	// base 50 + coins 300 + army 25*2 + kills 10*3 + time bonus (60-20)*5 = 630
	if got := GameReward(outcome, 0, cfg); got != 630 {
		t.Errorf("GameReward = %d, want 630", got)
	}
}

func TestGameRewardIncomeMultiplier(t *testing.T) {
	cfg := testRewardConfig()
	outcome := models.RunOutcome{CoinsCollected: 100, TimeTaken: 90}

	base := GameReward(outcome, 0, cfg)
	boosted := GameReward(outcome, 4, cfg)
	// level 4 income at 5% -> x1.2
	want := int64(math.Floor(float64(base) * 1.2))
	if boosted != want {
		t.Errorf("boosted reward = %d, want %d (base %d)", boosted, want, base)
	}
}

func TestGameRewardTimeBonusClampedAtZero(t *testing.T) {
	cfg := testRewardConfig()
	slow := models.RunOutcome{CoinsCollected: 100, TimeTaken: 200, DidFinish: true}
	fast := models.RunOutcome{CoinsCollected: 100, TimeTaken: 59, DidFinish: true}

	slowReward := GameReward(slow, 0, cfg)
	if slowReward != 150 {
		t.Errorf("run slower than par should earn no time bonus: got %d, want 150", slowReward)
	}
	if GameReward(fast, 0, cfg) <= slowReward {
		t.Error("faster finish should earn more than slower finish")
	}
}

func TestGameRewardNoTimeBonusForUnfinishedRun(t *testing.T) {
	cfg := testRewardConfig()
	// An abandoned run with a tiny time must not collect the par-time bonus.
	bailed := models.RunOutcome{CoinsCollected: 10, TimeTaken: 2, DidFinish: false}
	if got := GameReward(bailed, 0, cfg); got != 60 {
		t.Errorf("unfinished run reward = %d, want 60 (base+coins only)", got)
	}
}
