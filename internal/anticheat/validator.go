package anticheat

import (
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
)

// Rejection reasons. These are user-facing strings persisted on the run row.
const (
	ReasonTooManyCoins   = "exceeds maximum possible pickups"
	ReasonTooFar         = "distance exceeds track length"
	ReasonImpossibleTime = "completion time impossible"
	ReasonArmyTooLarge   = "army exceeds upgrade-implied capacity"
	ReasonNegativeField  = "negative outcome field"
)

// Snapshot carries the run parameters frozen at creation. Bounds checks must
// use these values, never the player's live upgrades: upgrades bought between
// run start and finish would otherwise retroactively widen the bounds.
type Snapshot struct {
	TrackLength int
	Upgrades    models.UpgradeLevels
}

// Limits holds the tunable anti-cheat thresholds.
type Limits struct {
	MaxCoinsPerMeter     float64
	OvershootTolerance   float64
	MinTimeBuffer        float64
	BaseSpeed            float64
	MaxSpeedMultiplier   float64
	ArmyBaseCapacity     int
	ArmyPerCapacityLevel int
}

// Validate checks a submitted outcome against the run's frozen snapshot.
// Pure and deterministic. All checks run in a fixed order (currency, distance,
// time, army, non-negativity) and the first failing reason is reported.
func Validate(outcome models.RunOutcome, snap Snapshot, lim Limits) (bool, string) {
	track := float64(snap.TrackLength)

	// 1. Currency bound: the track only contains so many pickups.
	maxCoins := track * lim.MaxCoinsPerMeter
	if float64(outcome.CoinsCollected) > maxCoins {
		return false, ReasonTooManyCoins
	}

	// 2. Distance bound, with a small tolerance for finish-line overshoot.
	if outcome.DistanceTraveled > track*(1+lim.OvershootTolerance) {
		return false, ReasonTooFar
	}

	// 3. Minimum-time bound for finished runs: faster than the maximum
	// possible speed stack is physically impossible.
	if outcome.DidFinish {
		minTime := track / (lim.BaseSpeed * lim.MaxSpeedMultiplier) * (1 - lim.MinTimeBuffer)
		if outcome.TimeTaken < minTime {
			return false, ReasonImpossibleTime
		}
	}

	// 4. Army-size bound from the frozen capacity level.
	maxArmy := lim.ArmyBaseCapacity + snap.Upgrades.Level(models.UpgradeCapacity)*lim.ArmyPerCapacityLevel
	if outcome.MaxArmy > maxArmy {
		return false, ReasonArmyTooLarge
	}

	// 5. Non-negativity of every numeric field.
	if outcome.FinalScore < 0 || outcome.CoinsCollected < 0 || outcome.MaxArmy < 0 ||
		outcome.DistanceTraveled < 0 || outcome.TimeTaken < 0 || outcome.EnemiesKilled < 0 {
		return false, ReasonNegativeField
	}

	return true, ""
}
