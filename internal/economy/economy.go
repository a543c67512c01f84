package economy

import (
	"math"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

// Base purchase cost per upgrade track (level 0 price, coins).
var baseCost = map[string]int64{
	models.UpgradeCapacity:     100,
	models.UpgradeStartingArmy: 150,
	models.UpgradeWarriorPower: 200,
	models.UpgradeIncome:       250,
	models.UpgradeSpeed:        120,
	models.UpgradeJump:         80,
	models.UpgradeRangedDamage: 180,
	models.UpgradePickupRadius: 90,
}

// Base effect per level for each upgrade track.
var baseEffect = map[string]float64{
	models.UpgradeCapacity:     1.0,
	models.UpgradeStartingArmy: 0.5,
	models.UpgradeWarriorPower: 0.02,
	models.UpgradeIncome:       0.05,
	models.UpgradeSpeed:        0.03,
	models.UpgradeJump:         0.04,
	models.UpgradeRangedDamage: 0.02,
	models.UpgradePickupRadius: 0.05,
}

const costGrowth = 1.5

// KnownUpgrade reports whether the given track exists in the catalog.
func KnownUpgrade(track string) bool {
	_, ok := baseCost[track]
	return ok
}

// Cost returns the coin price of buying the next level of an upgrade at the
// given current level: floor(base * 1.5^level). Levels are unbounded; prices
// past the int64 range saturate at MaxInt64 so the conversion stays defined.
func Cost(track string, level int) int64 {
	base, ok := baseCost[track]
	if !ok || level < 0 {
		return 0
	}
	price := math.Floor(float64(base) * math.Pow(costGrowth, float64(level)))
	if price >= math.MaxInt64 {
		return math.MaxInt64
	}
	return int64(price)
}

// Power returns the effect magnitude of an upgrade at the given level.
// Effect grows linearly within a decade of levels and doubles at every 10th
// level: level*baseEffect * 2^floor(level/10).
func Power(track string, level int) float64 {
	effect, ok := baseEffect[track]
	if !ok || level < 0 {
		return 0
	}
	linear := float64(level) * effect
	multiplier := math.Pow(2, math.Floor(float64(level)/10))
	return linear * multiplier
}

// PowerLevel aggregates all upgrade tracks into a single scalar used for
// matchmaking skill-proximity comparison.
func PowerLevel(upgrades models.UpgradeLevels) float64 {
	var total float64
	for _, track := range models.AllUpgrades {
		total += Power(track, upgrades.Level(track))
	}
	return total
}

// RewardConfig holds the tunable weights of the game reward formula.
type RewardConfig struct {
	Base            int64
	ArmyBonusPerMan int64
	KillBonus       int64
	TimeBonusPerSec int64
	ParTimeSeconds  float64
	IncomeRate      float64
}

// GameReward computes the coin reward for a validated run outcome. The income
// multiplier uses the player's live income-upgrade level; only anti-cheat
// bounds use the frozen run snapshot.
func GameReward(outcome models.RunOutcome, incomeLevel int, cfg RewardConfig) int64 {
	sum := float64(cfg.Base)
	sum += float64(outcome.CoinsCollected)
	sum += float64(cfg.ArmyBonusPerMan) * float64(outcome.MaxArmy)
	sum += float64(cfg.KillBonus) * float64(outcome.EnemiesKilled)

	// Time bonus only rewards finishing faster than par, never penalizes.
	if outcome.DidFinish && outcome.TimeTaken < cfg.ParTimeSeconds {
		sum += float64(cfg.TimeBonusPerSec) * (cfg.ParTimeSeconds - outcome.TimeTaken)
	}

	multiplier := 1 + float64(incomeLevel)*cfg.IncomeRate
	return int64(math.Floor(sum * multiplier))
}
