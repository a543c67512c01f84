package game

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/ReuvenDagaga/CoinRun-sub000/internal/anticheat"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/config"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/economy"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/ledger"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/missions"
	"github.com/ReuvenDagaga/CoinRun-sub000/internal/models"
	"github.com/jmoiron/sqlx"
)

// SettlementResult is what a result submission resolves to. Accepted=false
// means the run was rejected by anti-cheat; the run row records the reason and
// no balance changes.
type SettlementResult struct {
	Accepted        bool             `json:"accepted"`
	RejectionReason string           `json:"rejection_reason,omitempty"`
	Reward          int64            `json:"reward,omitempty"`
	NewBalance      int64            `json:"new_balance,omitempty"`
	FinalScore      int64            `json:"final_score,omitempty"`
	MissionsCleared []models.Mission `json:"missions_cleared,omitempty"`
}

// Settle resolves a finished run in one transaction: lock the run row, guard
// its status, validate the outcome against the frozen upgrade snapshot, and
// either mark it rejected or mark it finished and pay the reward through the
// ledger. Either way the run leaves in_progress exactly once.
func Settle(db *sqlx.DB, cfg *config.Config, ms *missions.Service, runToken string, userID int, outcome models.RunOutcome) (*SettlementResult, error) {
	tx, err := db.Beginx()
	if err != nil {
		return nil, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer tx.Rollback()

	var run models.Run
	err = tx.Get(&run, `
		SELECT id, run_token, user_id, seed, difficulty, track_length, upgrade_snapshot, status, created_at
		FROM runs WHERE run_token=$1 FOR UPDATE
	`, runToken)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, err
	}
	if run.UserID != userID {
		return nil, ErrRunNotFound
	}

	switch run.Status {
	case models.RunInProgress:
		// settle below
	case models.RunFinished, models.RunRejected:
		return nil, ErrAlreadySettled
	default:
		return nil, ErrRunNotInProgress
	}

	ok, reason := anticheat.Validate(outcome, anticheat.Snapshot{
		TrackLength: run.TrackLength,
		Upgrades:    run.Snapshot,
	}, anticheat.Limits{
		MaxCoinsPerMeter:     cfg.MaxCoinsPerMeter,
		OvershootTolerance:   cfg.OvershootTolerance,
		MinTimeBuffer:        cfg.MinTimeBuffer,
		BaseSpeed:            cfg.BaseRunSpeed,
		MaxSpeedMultiplier:   cfg.MaxSpeedMultiplier,
		ArmyBaseCapacity:     cfg.ArmyBaseCapacity,
		ArmyPerCapacityLevel: cfg.ArmyPerCapacityLevel,
	})

	if !ok {
		res, uerr := tx.Exec(`
			UPDATE runs SET status=$1, reject_reason=$2,
			       distance_traveled=$3, coins_collected=$4, time_taken=$5,
			       max_army=$6, enemies_killed=$7, did_finish=$8, final_score=$9,
			       finished_at=NOW()
			WHERE id=$10 AND status=$11
		`, models.RunRejected, reason,
			outcome.DistanceTraveled, outcome.CoinsCollected, outcome.TimeTaken,
			outcome.MaxArmy, outcome.EnemiesKilled, outcome.DidFinish, outcome.FinalScore,
			run.ID, models.RunInProgress)
		if uerr != nil {
			return nil, uerr
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil, ErrAlreadySettled
		}
		if err := tx.Commit(); err != nil {
			return nil, fmt.Errorf("failed to commit rejection: %w", err)
		}
		log.Printf("[SETTLE] Rejected run %s for user %d: %s", runToken, userID, reason)
		return &SettlementResult{Accepted: false, RejectionReason: reason}, nil
	}

	// The reward multiplier uses the player's live income level, not the
	// snapshot: upgrades bought mid-run count toward the payout, while the
	// anti-cheat bounds above stay pinned to what the run started with.
	var user models.User
	err = tx.Get(&user, `SELECT id, coins, gems, upgrades FROM users WHERE id=$1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load user %d: %w", userID, err)
	}

	reward := economy.GameReward(outcome, user.Upgrades.Level(models.UpgradeIncome), economy.RewardConfig{
		Base:            cfg.RewardBase,
		ArmyBonusPerMan: cfg.ArmyBonusPerMan,
		KillBonus:       cfg.KillBonus,
		TimeBonusPerSec: cfg.TimeBonusPerSec,
		ParTimeSeconds:  cfg.ParTimeSeconds,
		IncomeRate:      cfg.IncomeRate,
	})

	res, err := tx.Exec(`
		UPDATE runs SET status=$1,
		       distance_traveled=$2, coins_collected=$3, time_taken=$4,
		       max_army=$5, enemies_killed=$6, did_finish=$7, final_score=$8,
		       reward=$9, finished_at=NOW()
		WHERE id=$10 AND status=$11
	`, models.RunFinished,
		outcome.DistanceTraveled, outcome.CoinsCollected, outcome.TimeTaken,
		outcome.MaxArmy, outcome.EnemiesKilled, outcome.DidFinish, outcome.FinalScore,
		reward, run.ID, models.RunInProgress)
	if err != nil {
		return nil, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrAlreadySettled
	}

	newBalance := user.Coins
	if reward > 0 {
		ref := sql.NullInt64{Int64: int64(run.ID), Valid: true}
		newBalance, err = ledger.Credit(tx, userID, models.CurrencyCoins, reward,
			models.LedgerGameReward, fmt.Sprintf("Run reward (%s)", runToken), ref, ledger.RefRun)
		if err != nil {
			return nil, err
		}
	}
	if newBalance < 0 {
		log.Printf("[SETTLE] INVARIANT VIOLATION: user %d coin balance %d after run %s", userID, newBalance, runToken)
	}

	wonDelta := 0
	if outcome.DidFinish {
		wonDelta = 1
	}
	if _, err := tx.Exec(`
		UPDATE users SET
		    total_games_played = total_games_played + 1,
		    total_games_won = total_games_won + $1,
		    total_distance = total_distance + $2,
		    total_coins_collected = total_coins_collected + $3,
		    best_score = GREATEST(best_score, $4),
		    highest_army = GREATEST(highest_army, $5),
		    last_active = NOW()
		WHERE id=$6
	`, wonDelta, outcome.DistanceTraveled, outcome.CoinsCollected,
		outcome.FinalScore, outcome.MaxArmy, userID); err != nil {
		return nil, fmt.Errorf("failed to update stats: %w", err)
	}

	cleared, err := ms.AdvanceWithTx(tx, missions.ProgressEvent{
		UserID:           userID,
		GamesPlayed:      1,
		CoinsCollected:   outcome.CoinsCollected,
		MaxArmy:          int64(outcome.MaxArmy),
		DidFinish:        outcome.DidFinish,
		TimeTaken:        outcome.TimeTaken,
		DistanceTraveled: outcome.DistanceTraveled,
		EnemiesKilled:    outcome.EnemiesKilled,
	}, time.Now())
	if err != nil {
		return nil, fmt.Errorf("failed to advance missions: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit settlement: %w", err)
	}

	log.Printf("[SETTLE] Run %s settled for user %d: score=%d reward=%d balance=%d",
		runToken, userID, outcome.FinalScore, reward, newBalance)

	return &SettlementResult{
		Accepted:        true,
		Reward:          reward,
		NewBalance:      newBalance,
		FinalScore:      outcome.FinalScore,
		MissionsCleared: cleared,
	}, nil
}
